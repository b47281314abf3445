// Package rank scores companies from their job history and projects them
// into the prospect list.
package rank

import (
	"time"

	"treasury-engine/internal/domain"
)

// Scorer computes a company's score from its jobs. Implementations must be
// deterministic for a given (jobs, now).
type Scorer interface {
	Score(jobs []domain.JobRecord, now time.Time) Breakdown
}

// Breakdown is the per-factor result. Total is the clamped sum.
type Breakdown struct {
	Velocity   int `json:"velocity"`
	Technology int `json:"technology"`
	JobType    int `json:"jobType"`
	Seniority  int `json:"seniority"`
	Geography  int `json:"geography"`
	Total      int `json:"total"`

	RecentJobs     int `json:"recentJobs"`
	JobTypeHits    int `json:"jobTypeHits"`
	SeniorityHits  int `json:"seniorityHits"`
	DistinctPlaces int `json:"distinctPlaces"`
}

const maxScore = 100

func (b Breakdown) sum() int {
	return min(maxScore, b.Velocity+b.Technology+b.JobType+b.Seniority+b.Geography)
}
