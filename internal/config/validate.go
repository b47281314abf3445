package config

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// Err folds the errors into one error, or nil.
func (v Validation) Err() error {
	if v.OK() {
		return nil
	}
	return eris.New("config: rules validation failed:\n- " + strings.Join(v.Errors, "\n- "))
}

// NormalizeAndValidate returns a normalized copy of the rules (trimmed,
// de-duplicated lists, tiers ordered by descending threshold) and the
// problems found.
func NormalizeAndValidate(r Rules) (Rules, Validation) {
	out := r
	var res Validation

	trimList := func(xs []string) []string {
		seen := map[string]bool{}
		var ys []string
		for _, x := range xs {
			x = strings.TrimSpace(x)
			if x == "" {
				continue
			}
			key := strings.ToLower(x)
			if seen[key] {
				continue
			}
			seen[key] = true
			ys = append(ys, x)
		}
		return ys
	}

	checkPattern := func(name, pat string) {
		if pat == "" {
			return
		}
		if _, err := regexp.Compile(pat); err != nil {
			res.addErr("%s: invalid pattern %q: %v", name, pat, err)
		}
	}

	out.Company.LegalSuffixes = trimList(out.Company.LegalSuffixes)
	out.Extract.NoiseExact = trimList(out.Extract.NoiseExact)
	out.Extract.NoiseContains = trimList(out.Extract.NoiseContains)
	out.Extract.TrackingParams = trimList(out.Extract.TrackingParams)
	out.Scoring.JobTypeKeywords = trimList(out.Scoring.JobTypeKeywords)
	out.Scoring.SeniorityKeywords = trimList(out.Scoring.SeniorityKeywords)

	if len(out.Company.LegalSuffixes) == 0 {
		res.addWarn("company.legal_suffixes is empty; company names keep their legal form.")
	}
	if len(out.Country.Gazetteer) == 0 {
		res.addWarn("country.gazetteer is empty; countries resolve only from context and source.")
	}

	for i, t := range out.Technologies {
		if strings.TrimSpace(t.Tag) == "" {
			res.addErr("technologies[%d].tag is required", i)
		}
		if strings.TrimSpace(t.Pattern) == "" {
			res.addErr("technologies[%d].pattern is required", i)
		}
		checkPattern(fmt.Sprintf("technologies[%d]", i), t.Pattern)
	}

	checkPattern("extract.separator_run", out.Extract.SeparatorRun)
	checkPattern("extract.job_url_pattern", out.Extract.JobURLPattern)
	checkPattern("extract.counter_pattern", out.Extract.CounterPattern)
	for i, p := range out.Extract.MarkerPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			res.addErr("extract.marker_patterns[%d]: invalid pattern %q: %v", i, p, err)
			continue
		}
		if re.NumSubexp() < 1 {
			res.addErr("extract.marker_patterns[%d] must capture the job url in group 1", i)
		}
	}
	if len(out.Extract.MarkerPatterns) == 0 {
		res.addWarn("extract.marker_patterns is empty; plain-text emails yield nothing.")
	}
	if out.Extract.MaxBacktrack <= 0 {
		out.Extract.MaxBacktrack = 3
	}
	if out.Extract.MinTitleLength <= 0 {
		out.Extract.MinTitleLength = 6
	}

	for i, s := range out.Sites {
		if strings.TrimSpace(s.Source) == "" {
			res.addErr("sites[%d].source is required", i)
		}
		checkPattern(fmt.Sprintf("sites[%d].link_pattern", i), s.LinkPattern)
		if len(s.CardSelectors) == 0 && s.LinkPattern == "" {
			res.addWarn("sites[%d] (%s) has neither card_selectors nor link_pattern.", i, s.Source)
		}
	}

	seenTypes := map[string]bool{}
	for i, s := range out.Signals {
		if strings.TrimSpace(s.Type) == "" {
			res.addErr("signals[%d].type is required", i)
		}
		if seenTypes[s.Type] {
			res.addErr("signals[%d].type %q is duplicated", i, s.Type)
		}
		seenTypes[s.Type] = true
		if len(s.Any) == 0 && len(s.All) == 0 {
			res.addErr("signals[%d] (%s) needs any or all terms", i, s.Type)
		}
		switch s.Confidence {
		case "High", "Medium", "Low":
		default:
			res.addErr("signals[%d].confidence must be High, Medium or Low", i)
		}
		for j, term := range s.Any {
			checkPattern(fmt.Sprintf("signals[%d].any[%d]", i, j), term)
		}
		for g, group := range s.All {
			if len(group) == 0 {
				res.addErr("signals[%d].all[%d] is empty", i, g)
			}
			for j, term := range group {
				checkPattern(fmt.Sprintf("signals[%d].all[%d][%d]", i, g, j), term)
			}
		}
	}

	if out.Scoring.WindowDays <= 0 {
		res.addErr("scoring.window_days must be > 0")
	}
	if out.Scoring.MinProspectScore < 0 || out.Scoring.MinProspectScore > 100 {
		res.addErr("scoring.min_prospect_score must be 0..100")
	}
	if len(out.Scoring.Tiers) == 0 {
		res.addErr("scoring.tiers must have at least 1 tier")
	}
	out.Scoring.Tiers = append([]TierRule(nil), out.Scoring.Tiers...)
	sort.SliceStable(out.Scoring.Tiers, func(i, j int) bool {
		return out.Scoring.Tiers[i].MinScore > out.Scoring.Tiers[j].MinScore
	})
	if n := len(out.Scoring.Tiers); n > 0 && out.Scoring.Tiers[n-1].MinScore > 0 {
		res.addWarn("lowest tier starts at %d; lower scores get no tier.", out.Scoring.Tiers[n-1].MinScore)
	}

	return out, res
}
