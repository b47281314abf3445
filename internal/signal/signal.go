// Package signal evaluates the ordered signal rule table against a
// company's aggregated job text.
package signal

import (
	"regexp"
	"strings"

	"github.com/rotisserie/eris"

	"treasury-engine/internal/config"
	"treasury-engine/internal/domain"
)

type rule struct {
	def config.SignalRule
	any []*regexp.Regexp
	all [][]*regexp.Regexp
}

// Detector is immutable after New. Rules are independent: none reads
// another's result.
type Detector struct {
	rules []rule
}

func New(defs []config.SignalRule) (*Detector, error) {
	d := &Detector{rules: make([]rule, 0, len(defs))}
	for _, def := range defs {
		r := rule{def: def}
		for _, term := range def.Any {
			re, err := compileTerm(term)
			if err != nil {
				return nil, eris.Wrapf(err, "signal: %s", def.Type)
			}
			r.any = append(r.any, re)
		}
		for _, group := range def.All {
			var g []*regexp.Regexp
			for _, term := range group {
				re, err := compileTerm(term)
				if err != nil {
					return nil, eris.Wrapf(err, "signal: %s", def.Type)
				}
				g = append(g, re)
			}
			r.all = append(r.all, g)
		}
		d.rules = append(d.rules, r)
	}
	return d, nil
}

func compileTerm(term string) (*regexp.Regexp, error) {
	return regexp.Compile(`(?i)` + strings.TrimSpace(term))
}

// CompanyText concatenates titles and technology tags, the text signal
// rules are matched against.
func CompanyText(jobs []domain.JobRecord) string {
	var b strings.Builder
	for _, j := range jobs {
		b.WriteString(j.Title)
		for _, t := range j.Technologies {
			b.WriteByte(' ')
			b.WriteString(t)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Detect returns one signal per firing rule, in rule order.
func (d *Detector) Detect(text string, jobCount int) []domain.Signal {
	var out []domain.Signal
	for _, r := range d.rules {
		if r.fires(text, jobCount) {
			out = append(out, domain.Signal{
				Type:         r.def.Type,
				Confidence:   domain.Confidence(r.def.Confidence),
				Duration:     r.def.Duration,
				ServiceLine:  r.def.ServiceLine,
				Description:  r.def.Description,
				ProjectValue: r.def.ProjectValue,
			})
		}
	}
	return out
}

// DetectJobs is Detect over CompanyText(jobs).
func (d *Detector) DetectJobs(jobs []domain.JobRecord) []domain.Signal {
	return d.Detect(CompanyText(jobs), len(jobs))
}

func (r rule) fires(text string, jobCount int) bool {
	if jobCount < r.def.MinJobs {
		return false
	}
	if len(r.any) > 0 && !matchesAny(r.any, text) {
		return false
	}
	for _, g := range r.all {
		if !matchesAny(g, text) {
			return false
		}
	}
	return true
}

func matchesAny(res []*regexp.Regexp, text string) bool {
	for _, re := range res {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}
