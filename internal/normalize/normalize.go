// Package normalize turns extractor candidates into canonical job records:
// company cleaning, country inference and technology tagging.
package normalize

import (
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"treasury-engine/internal/config"
	"treasury-engine/internal/domain"
)

type techMatcher struct {
	tag string
	re  *regexp.Regexp
}

// Normalizer holds compiled rule tables. It is safe for concurrent use.
type Normalizer struct {
	suffixRE  *regexp.Regexp
	aliases   []place
	gazetteer []place
	sources   map[string]string
	codes     map[string]string
	techs     []techMatcher
}

func New(r config.Rules) (*Normalizer, error) {
	n := &Normalizer{
		suffixRE:  compileSuffixes(r.Company.LegalSuffixes),
		aliases:   compilePlaces(r.Country.Aliases),
		gazetteer: compilePlaces(r.Country.Gazetteer),
		sources:   make(map[string]string, len(r.Country.Sources)),
		codes:     make(map[string]string, len(r.Country.Codes)),
	}
	for k, v := range r.Country.Codes {
		n.codes[strings.ToUpper(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}
	for k, v := range r.Country.Sources {
		n.sources[Fold(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}
	for _, t := range r.Technologies {
		re, err := regexp.Compile(`(?i)` + t.Pattern)
		if err != nil {
			return nil, eris.Wrapf(err, "normalize: technology %q", t.Tag)
		}
		n.techs = append(n.techs, techMatcher{tag: t.Tag, re: re})
	}
	return n, nil
}

// TagTechnologies returns every tag whose pattern matches text, in rule order.
func (n *Normalizer) TagTechnologies(text string) domain.Tags {
	var tags domain.Tags
	for _, t := range n.techs {
		if t.re.MatchString(text) && !tags.Has(t.tag) {
			tags = append(tags, t.tag)
		}
	}
	return tags
}

// Normalize builds the canonical record for one candidate. Only an
// unresolved or empty title is an error.
func (n *Normalizer) Normalize(c domain.Candidate, scraped time.Time) (domain.JobRecord, error) {
	title, ok := c.Title.Get()
	if !ok {
		return domain.JobRecord{}, eris.Wrap(domain.ErrEmptyTitle, c.Title.Reason())
	}
	title = domain.CleanText(title)

	location := domain.CleanText(c.Location.Or(""))
	country := n.InferCountry(c.Context, c.Country.Or(""), location, c.Source)

	return domain.NewJobRecord(domain.JobParams{
		DateScraped:  scraped,
		Source:       c.Source,
		Company:      n.CleanCompany(c.Company.Or("")),
		Title:        title,
		Location:     location,
		Country:      country.Or(domain.Unknown),
		URL:          c.URL,
		Technologies: n.TagTechnologies(title),
	})
}
