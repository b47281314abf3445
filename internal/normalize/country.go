package normalize

import (
	"regexp"
	"sort"
	"strings"

	"treasury-engine/internal/domain"
)

type place struct {
	name    string
	country string
	re      *regexp.Regexp
}

var contextInRE = regexp.MustCompile(`(?i)(?:^|[\s(])in\s+([^,;:()]+)`)

func compilePlaces(table map[string]string) []place {
	out := make([]place, 0, len(table))
	for k, v := range table {
		k = Fold(strings.TrimSpace(k))
		if k == "" || strings.TrimSpace(v) == "" {
			continue
		}
		out = append(out, place{
			name:    k,
			country: strings.TrimSpace(v),
			re:      regexp.MustCompile(`(?:^|[^\p{L}])` + regexp.QuoteMeta(k) + `(?:$|[^\p{L}])`),
		})
	}
	// longest first, then alphabetical, so map order never leaks
	sort.Slice(out, func(i, j int) bool {
		if len(out[i].name) != len(out[j].name) {
			return len(out[i].name) > len(out[j].name)
		}
		return out[i].name < out[j].name
	})
	return out
}

func lookupPlace(places []place, text string) (string, bool) {
	folded := Fold(text)
	if strings.TrimSpace(folded) == "" {
		return "", false
	}
	for _, p := range places {
		if p.re.MatchString(folded) {
			return p.country, true
		}
	}
	return "", false
}

// resolvePlace maps free text to a country through the alias table and
// then the gazetteer.
func (n *Normalizer) resolvePlace(text string) (string, bool) {
	if c, ok := lookupPlace(n.aliases, text); ok {
		return c, true
	}
	return lookupPlace(n.gazetteer, text)
}

// InferCountry resolves a country in priority order: a phrase like
// "in Deutschland" in the search context or subject, the country the
// extractor found, the location, the source's home country.
func (n *Normalizer) InferCountry(context, extracted, location, source string) domain.Field[string] {
	return domain.FirstResolved(
		func() domain.Field[string] {
			for _, m := range contextInRE.FindAllStringSubmatch(context, -1) {
				if c, ok := n.resolvePlace(m[1]); ok {
					return domain.Resolved(c)
				}
			}
			return domain.Unresolved[string]("no country phrase in context")
		},
		func() domain.Field[string] {
			if c, ok := n.codes[strings.ToUpper(strings.TrimSpace(extracted))]; ok {
				return domain.Resolved(c)
			}
			if c, ok := n.resolvePlace(extracted); ok {
				return domain.Resolved(c)
			}
			return domain.Unresolved[string]("extracted country not recognized")
		},
		func() domain.Field[string] {
			if c, ok := n.resolvePlace(location); ok {
				return domain.Resolved(c)
			}
			return domain.Unresolved[string]("location not in gazetteer")
		},
		func() domain.Field[string] {
			if c, ok := n.sources[Fold(strings.TrimSpace(source))]; ok {
				return domain.Resolved(c)
			}
			return domain.Unresolved[string]("source has no home country")
		},
	)
}
