package extract

import (
	"net/url"
	"strings"
)

// unwrapRedirect returns the target of common click-tracking wrappers
// (?url=, Google /url?q=), or href unchanged.
func unwrapRedirect(href string) string {
	href = strings.TrimSpace(href)
	u, err := url.Parse(href)
	if err != nil {
		return href
	}

	if raw := u.Query().Get("url"); raw != "" {
		if uu, err := url.Parse(raw); err == nil && uu.Host != "" {
			return uu.String()
		}
	}

	if strings.Contains(strings.ToLower(u.Host), "google.") && strings.HasPrefix(u.Path, "/url") {
		if q := u.Query().Get("q"); q != "" {
			if uu, err := url.Parse(q); err == nil && uu.Host != "" {
				return uu.String()
			}
		}
	}
	return href
}

// absURL resolves href against base; absolute links pass through.
func absURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	h, err := url.Parse(href)
	if err != nil {
		return href
	}
	if h.IsAbs() || base == "" {
		return h.String()
	}
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	return b.ResolveReference(h).String()
}
