package httpapi

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"treasury-engine/internal/domain"
	"treasury-engine/internal/store"
)

type JobsHandler struct {
	Jobs store.JobStore
	DB   *store.DB
}

// List serves ?company=&country=&sort=date|company|title|score&limit=.
func (h JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := store.ListJobsOpts{
		Company: strings.TrimSpace(q.Get("company")),
		Country: strings.TrimSpace(q.Get("country")),
		Sort:    q.Get("sort"),
	}
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			WriteError(w, r, http.StatusBadRequest, "bad_request", "limit must be a positive integer")
			return
		}
		opts.Limit = n
	}

	if h.DB != nil {
		rows, err := h.DB.ListJobs(r.Context(), opts)
		if err != nil {
			zap.L().Error("http: list jobs", zap.Error(err))
			WriteError(w, r, http.StatusInternalServerError, "store_error", "could not read jobs")
			return
		}
		WriteJSON(w, http.StatusOK, rows)
		return
	}

	jobs, err := h.Jobs.Load()
	if err != nil {
		zap.L().Error("http: load jobs", zap.Error(err))
		WriteError(w, r, http.StatusInternalServerError, "store_error", "could not read jobs")
		return
	}
	WriteJSON(w, http.StatusOK, filterJobs(jobs, opts))
}

// filterJobs applies ListJobsOpts to the CSV store the way the SQLite view
// does. Score sorting needs the mirror and falls back to date.
func filterJobs(jobs []domain.JobRecord, opts store.ListJobsOpts) []domain.JobRecord {
	out := make([]domain.JobRecord, 0, len(jobs))
	for _, j := range jobs {
		if opts.Company != "" && j.Company != opts.Company {
			continue
		}
		if opts.Country != "" && j.Country != opts.Country {
			continue
		}
		out = append(out, j)
	}

	byDate := func(a, b domain.JobRecord) bool {
		if !a.DateScraped.Equal(b.DateScraped.Time) {
			return a.DateScraped.After(b.DateScraped.Time)
		}
		return a.Company < b.Company
	}
	var less func(a, b domain.JobRecord) bool
	switch opts.Sort {
	case "company":
		less = func(a, b domain.JobRecord) bool {
			if a.Company != b.Company {
				return a.Company < b.Company
			}
			return a.DateScraped.After(b.DateScraped.Time)
		}
	case "title":
		less = func(a, b domain.JobRecord) bool { return a.Title < b.Title }
	default:
		less = byDate
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })

	limit := opts.Limit
	if limit <= 0 || limit > 5000 {
		limit = 500
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
