package rank

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"treasury-engine/internal/config"
	"treasury-engine/internal/domain"
	"treasury-engine/internal/signal"
)

// NoSignal is the primary_signal value for a prospect without signals.
const NoSignal = "None"

// Engine recomputes company profiles and prospects from the job store.
// It holds no state between runs.
type Engine struct {
	scorer   Scorer
	detector *signal.Detector
	rules    config.ScoringRules
}

func NewEngine(r config.Rules) (*Engine, error) {
	d, err := signal.New(r.Signals)
	if err != nil {
		return nil, err
	}
	return &Engine{scorer: RulesScorer{Rules: r.Scoring}, detector: d, rules: r.Scoring}, nil
}

// Result is one scoring run.
type Result struct {
	Profiles   []domain.CompanyProfile
	Breakdowns map[string]Breakdown
	Prospects  []domain.Prospect
	TierCounts map[string]int // prospects per tier
}

// Analyze groups jobs by exact company name, scores every company and
// keeps those at or above the prospect threshold, best first.
func (e *Engine) Analyze(jobs []domain.JobRecord, now time.Time) Result {
	byCompany := map[string][]domain.JobRecord{}
	for _, j := range jobs {
		byCompany[j.Company] = append(byCompany[j.Company], j)
	}
	names := make([]string, 0, len(byCompany))
	for name := range byCompany {
		names = append(names, name)
	}
	sort.Strings(names)

	res := Result{
		Breakdowns: make(map[string]Breakdown, len(names)),
		TierCounts: map[string]int{},
	}
	for _, name := range names {
		cj := byCompany[name]
		b := e.scorer.Score(cj, now)
		tier := Classify(b.Total, e.rules.Tiers)

		p := domain.CompanyProfile{
			Company: name,
			Jobs:    cj,
			Signals: e.detector.DetectJobs(cj),
			Score:   b.Total,
			Tier:    tier.Name,
			Action:  tier.Action,
		}
		res.Profiles = append(res.Profiles, p)
		res.Breakdowns[name] = b

		if b.Total < e.rules.MinProspectScore {
			continue
		}
		res.Prospects = append(res.Prospects, toProspect(p, b))
		res.TierCounts[tier.Name]++
	}

	sort.SliceStable(res.Prospects, func(i, j int) bool {
		return res.Prospects[i].Score > res.Prospects[j].Score
	})
	return res
}

func toProspect(p domain.CompanyProfile, b Breakdown) domain.Prospect {
	out := domain.Prospect{
		Company:        p.Company,
		Score:          p.Score,
		Tier:           p.Tier,
		Action:         p.Action,
		TotalJobs:      len(p.Jobs),
		JobsLast30Days: b.RecentJobs,
		Locations:      b.DistinctPlaces,
		SignalCount:    len(p.Signals),
		PrimarySignal:  NoSignal,
		ProjectValue:   EstimateProjectValue(p.Signals),
	}
	if len(p.Signals) > 0 {
		out.PrimarySignal = p.Signals[0].Type
		types := make([]string, 0, len(p.Signals))
		for _, s := range p.Signals {
			types = append(types, s.Type)
		}
		out.AllSignals = strings.Join(types, "; ")
	}
	for _, j := range p.Jobs {
		d := j.DateScraped
		if d.IsZero() {
			continue
		}
		if out.FirstSeen.IsZero() || d.Before(out.FirstSeen.Time) {
			out.FirstSeen = d
		}
		if out.LastActivity.IsZero() || d.After(out.LastActivity.Time) {
			out.LastActivity = d
		}
	}
	return out
}

var valueRangeRE = regexp.MustCompile(`€\s*(\d+(?:\.\d+)?)\s*([KkMm])?\s*[-–]\s*€?\s*(\d+(?:\.\d+)?)\s*([KkMm])`)

// EstimateProjectValue sums the signals' "€min-max" ranges. A missing
// unit on the lower bound takes the upper bound's unit ("€2-4M").
func EstimateProjectValue(signals []domain.Signal) string {
	var lo, hi float64
	for _, s := range signals {
		m := valueRangeRE.FindStringSubmatch(s.ProjectValue)
		if m == nil {
			continue
		}
		minUnit := m[2]
		if minUnit == "" {
			minUnit = m[4]
		}
		lo += euros(m[1], minUnit)
		hi += euros(m[3], m[4])
	}
	if lo == 0 {
		return "€0"
	}
	if hi >= 1_000_000 {
		return fmt.Sprintf("€%.1f-%.1fM", lo/1_000_000, hi/1_000_000)
	}
	return fmt.Sprintf("€%.0f-%.0fK", lo/1_000, hi/1_000)
}

func euros(num, unit string) float64 {
	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if strings.EqualFold(unit, "M") {
		return v * 1_000_000
	}
	return v * 1_000
}
