package rank

import (
	"strings"
	"time"

	"treasury-engine/internal/config"
	"treasury-engine/internal/domain"
)

const maxTechnologyPoints = 30

// RulesScorer scores with the keyword tables and technology points from
// the rules file.
type RulesScorer struct {
	Rules config.ScoringRules
}

func (s RulesScorer) Score(jobs []domain.JobRecord, now time.Time) Breakdown {
	var b Breakdown
	if len(jobs) == 0 {
		return b
	}

	b.RecentJobs = countRecent(jobs, now, s.Rules.WindowDays)
	b.Velocity = velocityPoints(b.RecentJobs)

	b.Technology = s.technologyPoints(jobs)

	titles := joinedTitles(jobs)
	b.JobTypeHits = keywordHits(titles, s.Rules.JobTypeKeywords)
	switch {
	case b.JobTypeHits >= 2:
		b.JobType = 25
	case b.JobTypeHits == 1:
		b.JobType = 15
	}

	b.SeniorityHits = keywordHits(titles, s.Rules.SeniorityKeywords)
	switch {
	case b.SeniorityHits >= 2:
		b.Seniority = 10
	case b.SeniorityHits == 1:
		b.Seniority = 5
	}

	b.DistinctPlaces = distinctLocations(jobs)
	switch {
	case b.DistinctPlaces >= 3:
		b.Geography = 10
	case b.DistinctPlaces == 2:
		b.Geography = 5
	}

	b.Total = b.sum()
	return b
}

func velocityPoints(recent int) int {
	switch {
	case recent >= 5:
		return 25
	case recent >= 3:
		return 20
	case recent == 2:
		return 15
	case recent == 1:
		return 10
	}
	return 0
}

// technologyPoints adds each entry's points once if any job carries any
// of its tags.
func (s RulesScorer) technologyPoints(jobs []domain.JobRecord) int {
	total := 0
	for _, tp := range s.Rules.TechnologyPoints {
		if anyTagged(jobs, tp.Tags) {
			total += tp.Points
		}
	}
	return min(total, maxTechnologyPoints)
}

func anyTagged(jobs []domain.JobRecord, tags []string) bool {
	for _, j := range jobs {
		for _, t := range tags {
			if j.Technologies.Has(t) {
				return true
			}
		}
	}
	return false
}

// RecentCutoff is the first day inside the trailing window. A 30 day
// window covers today and the 29 days before it.
func RecentCutoff(now time.Time, windowDays int) domain.Date {
	return domain.Date{Time: domain.NewDate(now).AddDate(0, 0, -(windowDays - 1))}
}

func countRecent(jobs []domain.JobRecord, now time.Time, windowDays int) int {
	cutoff := RecentCutoff(now, windowDays)
	n := 0
	for _, j := range jobs {
		if !j.DateScraped.IsZero() && !j.DateScraped.Before(cutoff.Time) {
			n++
		}
	}
	return n
}

func joinedTitles(jobs []domain.JobRecord) string {
	titles := make([]string, 0, len(jobs))
	for _, j := range jobs {
		titles = append(titles, j.Title)
	}
	return strings.ToLower(strings.Join(titles, " "))
}

// keywordHits counts how many distinct keywords occur in text as
// substrings.
func keywordHits(text string, keywords []string) int {
	n := 0
	for _, kw := range uniq(keywords) {
		if kw != "" && strings.Contains(text, strings.ToLower(kw)) {
			n++
		}
	}
	return n
}

// distinctLocations counts non-empty locations, exact match.
func distinctLocations(jobs []domain.JobRecord) int {
	seen := map[string]bool{}
	for _, j := range jobs {
		if j.Location != "" {
			seen[j.Location] = true
		}
	}
	return len(seen)
}

func uniq(in []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(in))
	for _, t := range in {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}
