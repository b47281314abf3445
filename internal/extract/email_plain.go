package extract

import (
	"regexp"
	"strings"

	"treasury-engine/internal/domain"
)

// markerURL returns the job link if line is an anchor marker.
func (e *Extractor) markerURL(line string) (string, bool) {
	for _, re := range e.markers {
		if m := re.FindStringSubmatch(line); m != nil && m[1] != "" {
			return strings.TrimRight(m[1], ".,;>)"), true
		}
	}
	return "", false
}

// extractPlain scans for marker lines and walks backward from each one,
// collecting up to maxBacktrack non-noise lines. Roles are positional:
// nearest line is the location, then the company, then the title. The
// walk never crosses the previous marker.
func (e *Extractor) extractPlain(b domain.RawBlock, body string) []domain.Candidate {
	lines := textLines(body)

	var out []domain.Candidate
	prev := -1
	for i, line := range lines {
		link, ok := e.markerURL(line)
		if !ok {
			continue
		}

		var stack []string
		for j := i - 1; j > prev && len(stack) < e.maxBacktrack; j-- {
			if e.isNoise(lines[j]) {
				continue
			}
			stack = append(stack, lines[j])
		}
		prev = i

		c := domain.Candidate{
			URL:     e.canon.Canonical(unwrapRedirect(link)),
			Source:  b.Source,
			Context: b.Context,
			Country: domain.Unresolved[string]("plain text carries no country field"),
		}
		c.Location = e.stackField(stack, 0, "location", e.valueField)
		c.Company = e.stackField(stack, 1, "company", e.valueField)
		c.Title = e.stackField(stack, 2, "title", e.lineTitle)
		out = append(out, c)
	}
	return out
}

func (e *Extractor) stackField(stack []string, pos int, role string, resolve func(string, string) domain.Field[string]) domain.Field[string] {
	if pos >= len(stack) {
		return domain.Unresolved[string](role + ": fewer lines above marker")
	}
	return resolve(stack[pos], "backtrack "+role)
}

var (
	mdLinkRE  = regexp.MustCompile(`\[([^\]]*)\]\((https?://[^)\s]+)\)`)
	mdImageRE = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
)

// stripMarkdown turns converted markdown back into marker-friendly plain
// text: emphasis and headings dropped, job links rewritten as
// "View job: <url>" lines.
func (e *Extractor) stripMarkdown(md string) string {
	lines := textLines(md)
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		l = mdImageRE.ReplaceAllString(l, "")
		var links []string
		l = mdLinkRE.ReplaceAllStringFunc(l, func(m string) string {
			sub := mdLinkRE.FindStringSubmatch(m)
			if e.isJobURL(sub[2]) {
				links = append(links, sub[2])
			}
			return sub[1]
		})
		l = strings.Trim(l, "#*_>|` ")
		l = strings.ReplaceAll(l, "**", "")
		if l = domain.CleanText(l); l != "" {
			out = append(out, l)
		}
		for _, u := range links {
			out = append(out, "View job: "+u)
		}
	}
	return strings.Join(out, "\n")
}

func (e *Extractor) isJobURL(u string) bool {
	if e.jobURL == nil {
		return false
	}
	return e.jobURL.MatchString(unwrapRedirect(u))
}
