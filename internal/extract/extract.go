// Package extract turns raw blocks (board cards, detail pages, alert
// emails) into candidate records. Every field is resolved through an
// ordered chain of strategies; a block that yields nothing usable is
// reported, never fatal.
package extract

import (
	"regexp"
	"strings"

	"github.com/rotisserie/eris"

	"treasury-engine/internal/config"
	"treasury-engine/internal/dedupe"
	"treasury-engine/internal/domain"
)

// ErrUnsupportedKind is returned for a block kind with no strategy chain.
var ErrUnsupportedKind = eris.New("extract: unsupported block kind")

type site struct {
	config.SiteRules
	linkRE  *regexp.Regexp
	exclude string
}

// Extractor is built once per run from the rule tables and is safe for
// concurrent use.
type Extractor struct {
	canon dedupe.URLCanon

	noiseExact    map[string]bool
	noiseContains []string
	separatorRun  *regexp.Regexp
	counter       *regexp.Regexp
	markers       []*regexp.Regexp
	jobURL        *regexp.Regexp
	separators    []string
	maxBacktrack  int
	minTitle      int

	sites map[string]site
}

func New(r config.Rules) (*Extractor, error) {
	x := r.Extract
	e := &Extractor{
		canon:         dedupe.NewURLCanon(x.TrackingParams),
		noiseExact:    make(map[string]bool, len(x.NoiseExact)),
		noiseContains: make([]string, 0, len(x.NoiseContains)),
		separators:    x.FieldSeparators,
		maxBacktrack:  x.MaxBacktrack,
		minTitle:      x.MinTitleLength,
		sites:         make(map[string]site, len(r.Sites)),
	}
	if e.maxBacktrack <= 0 {
		e.maxBacktrack = 3
	}
	if e.minTitle <= 0 {
		e.minTitle = 6
	}
	for _, n := range x.NoiseExact {
		e.noiseExact[strings.ToLower(strings.TrimSpace(n))] = true
	}
	for _, n := range x.NoiseContains {
		if n = strings.ToLower(strings.TrimSpace(n)); n != "" {
			e.noiseContains = append(e.noiseContains, n)
		}
	}

	var err error
	if e.separatorRun, err = compileOptional(x.SeparatorRun); err != nil {
		return nil, eris.Wrap(err, "extract: separator_run")
	}
	if e.counter, err = compileOptional(x.CounterPattern); err != nil {
		return nil, eris.Wrap(err, "extract: counter_pattern")
	}
	if e.jobURL, err = compileOptional(x.JobURLPattern); err != nil {
		return nil, eris.Wrap(err, "extract: job_url_pattern")
	}
	for i, p := range x.MarkerPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, eris.Wrapf(err, "extract: marker_patterns[%d]", i)
		}
		if re.NumSubexp() < 1 {
			return nil, eris.Errorf("extract: marker_patterns[%d] has no url group", i)
		}
		e.markers = append(e.markers, re)
	}

	for _, s := range r.Sites {
		cs := site{SiteRules: s, exclude: s.LinkExclude}
		if cs.linkRE, err = compileOptional(s.LinkPattern); err != nil {
			return nil, eris.Wrapf(err, "extract: site %s link_pattern", s.Source)
		}
		e.sites[strings.ToLower(s.Source)] = cs
	}
	return e, nil
}

func compileOptional(p string) (*regexp.Regexp, error) {
	if strings.TrimSpace(p) == "" {
		return nil, nil
	}
	return regexp.Compile(p)
}

// Extract dispatches on the block kind. Candidates from structured kinds
// always carry a resolved title and company; email candidates may have
// unresolved fields, and the normalizer decides what survives.
func (e *Extractor) Extract(b domain.RawBlock) ([]domain.Candidate, error) {
	switch b.Kind {
	case domain.KindWebCard:
		c, err := e.extractCard(b)
		if err != nil {
			return nil, err
		}
		return []domain.Candidate{c}, nil
	case domain.KindWebDetail:
		c, err := e.extractDetail(b)
		if err != nil {
			return nil, err
		}
		return []domain.Candidate{c}, nil
	case domain.KindEmailPlain:
		return e.extractPlain(b, b.Body), nil
	case domain.KindEmailHTML:
		return e.extractEmailHTML(b)
	default:
		return nil, eris.Wrapf(ErrUnsupportedKind, "kind %q", b.Kind)
	}
}

func (e *Extractor) site(source string) (site, bool) {
	s, ok := e.sites[strings.ToLower(strings.TrimSpace(source))]
	return s, ok
}

// isNoise reports boilerplate lines: deny-listed phrases, separator runs,
// result counters and bare links.
func (e *Extractor) isNoise(line string) bool {
	l := strings.ToLower(domain.CleanText(line))
	if l == "" {
		return true
	}
	if e.noiseExact[l] || e.noiseExact[strings.TrimRight(l, ":")] {
		return true
	}
	for _, n := range e.noiseContains {
		if strings.Contains(l, n) {
			return true
		}
	}
	if e.separatorRun != nil && e.separatorRun.MatchString(line) {
		return true
	}
	if e.counter != nil && e.counter.MatchString(l) {
		return true
	}
	if strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://") {
		return true
	}
	return false
}

// titleField resolves a title candidate, rejecting noise and fragments.
func (e *Extractor) titleField(s, strategy string) domain.Field[string] {
	s = domain.CleanText(s)
	switch {
	case s == "":
		return domain.Unresolved[string](strategy + ": empty")
	case e.isNoise(s):
		return domain.Unresolved[string](strategy + ": noise line")
	case len([]rune(s)) < e.minTitle:
		return domain.Unresolved[string](strategy + ": too short")
	}
	return domain.Resolved(s)
}

// lineTitle resolves a title taken by position from an email. Position
// already marks it as the title, so only noise is rejected.
func (e *Extractor) lineTitle(s, strategy string) domain.Field[string] {
	s = domain.CleanText(s)
	switch {
	case s == "":
		return domain.Unresolved[string](strategy + ": empty")
	case e.isNoise(s):
		return domain.Unresolved[string](strategy + ": noise line")
	}
	return domain.Resolved(s)
}

// valueField resolves a company or location candidate.
func (e *Extractor) valueField(s, strategy string) domain.Field[string] {
	s = domain.CleanText(s)
	if s == "" {
		return domain.Unresolved[string](strategy + ": empty")
	}
	if e.isNoise(s) {
		return domain.Unresolved[string](strategy + ": noise line")
	}
	if strings.EqualFold(s, domain.Unknown) || strings.EqualFold(s, "unbekannt") {
		return domain.Unresolved[string](strategy + ": sentinel value")
	}
	return domain.Resolved(s)
}

// splitFields splits "Company · City, Country" on the first configured
// separator present.
func (e *Extractor) splitFields(line string) (left, right string, ok bool) {
	for _, sep := range e.separators {
		if i := strings.Index(line, sep); i > 0 {
			return strings.TrimSpace(line[:i]), strings.TrimSpace(line[i+len(sep):]), true
		}
	}
	return "", "", false
}

// splitCountry takes the token after the last comma as the country.
func splitCountry(loc string) (string, string) {
	i := strings.LastIndex(loc, ",")
	if i < 0 {
		return strings.TrimSpace(loc), ""
	}
	return strings.TrimSpace(loc[:i]), strings.TrimSpace(loc[i+1:])
}
