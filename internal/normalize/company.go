package normalize

import (
	"regexp"
	"sort"
	"strings"

	"treasury-engine/internal/domain"
)

var parenRE = regexp.MustCompile(`\([^)]*\)|\[[^\]]*\]`)

// compileSuffixes builds one end-anchored alternation, longest suffix
// first so "GmbH & Co. KG" wins over "KG". A name that is only a legal
// form matches as a whole.
func compileSuffixes(suffixes []string) *regexp.Regexp {
	if len(suffixes) == 0 {
		return nil
	}
	sorted := append([]string(nil), suffixes...)
	sort.SliceStable(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })

	alts := make([]string, 0, len(sorted))
	for _, s := range sorted {
		s = strings.TrimSuffix(strings.TrimSpace(s), ".")
		alts = append(alts, regexp.QuoteMeta(s))
	}
	return regexp.MustCompile(`(?i)(?:^|[\s,]+)(?:` + strings.Join(alts, "|") + `)\.?\s*$`)
}

// CleanCompany collapses whitespace, drops parenthetical notes and strips
// trailing legal-entity suffixes. An empty result is domain.Unknown.
func (n *Normalizer) CleanCompany(raw string) string {
	s := domain.CleanText(raw)
	s = parenRE.ReplaceAllString(s, " ")
	s = domain.CleanText(s)

	if n.suffixRE != nil {
		// "Foo Holding AG & Co. KG" style chains
		for i := 0; i < 3; i++ {
			next := strings.TrimSpace(n.suffixRE.ReplaceAllString(s, ""))
			if next == s {
				break
			}
			s = next
		}
	}

	s = strings.Trim(s, " ,;-|·")
	if s == "" || strings.EqualFold(s, domain.Unknown) {
		return domain.Unknown
	}
	return s
}
