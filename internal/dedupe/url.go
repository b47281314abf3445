package dedupe

import (
	"net/url"
	"regexp"
	"sort"
	"strings"
)

var linkedInJobRE = regexp.MustCompile(`(?i)/(?:comm/)?jobs/view/(?:[^/?#]*-)?(\d+)`)

// URLCanon canonicalizes job URLs so the same posting reached through
// different alert links collapses to one identity.
type URLCanon struct {
	tracking map[string]bool
}

func NewURLCanon(trackingParams []string) URLCanon {
	m := make(map[string]bool, len(trackingParams))
	for _, p := range trackingParams {
		m[strings.ToLower(strings.TrimSpace(p))] = true
	}
	return URLCanon{tracking: m}
}

func (c URLCanon) isTracking(key string) bool {
	lk := strings.ToLower(key)
	return strings.HasPrefix(lk, "utm_") ||
		lk == "gclid" || lk == "fbclid" || lk == "msclkid" ||
		lk == "mc_cid" || lk == "mc_eid" ||
		lk == "mkt_tok" ||
		c.tracking[lk]
}

// Canonical lower-cases scheme and host, drops the fragment and tracking
// parameters, and reduces LinkedIn job links to /jobs/view/<id>/.
func (c URLCanon) Canonical(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	if strings.HasSuffix(u.Host, "linkedin.com") {
		if m := linkedInJobRE.FindStringSubmatch(u.Path); m != nil {
			return "https://www.linkedin.com/jobs/view/" + m[1] + "/"
		}
	}

	q := u.Query()
	for k := range q {
		if c.isTracking(k) {
			q.Del(k)
		}
	}
	// deterministic query
	for k := range q {
		vals := q[k]
		sort.Strings(vals)
		q[k] = vals
	}
	u.RawQuery = q.Encode()
	return u.String()
}
