package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"treasury-engine/internal/domain"
	"treasury-engine/internal/metrics"
	"treasury-engine/internal/store"
)

func day(d int) domain.Date {
	return domain.NewDate(time.Date(2026, 10, d, 0, 0, 0, 0, time.UTC))
}

func seed(t *testing.T) Deps {
	t.Helper()
	dir := t.TempDir()
	d := Deps{
		Jobs:      store.JobStore{Path: filepath.Join(dir, "jobs.csv")},
		Prospects: store.ProspectStore{Path: filepath.Join(dir, "prospects.csv")},
		Metrics:   metrics.New(),
	}
	require.NoError(t, d.Jobs.Save([]domain.JobRecord{
		{DateScraped: day(10), Source: "LinkedIn", Company: "Acme Treasury", Title: "Treasury Manager", Country: "Germany", URL: "https://www.linkedin.com/jobs/view/1/"},
		{DateScraped: day(12), Source: "Jobs.ch", Company: "Zug Holding", Title: "Cash Manager", Country: "Switzerland"},
		{DateScraped: day(11), Source: "StepStone.de", Company: "Acme Treasury", Title: "Head of Treasury", Country: "Germany"},
	}))
	require.NoError(t, d.Prospects.Save([]domain.Prospect{
		{Company: "Acme Treasury", Score: 85, Tier: "Tier 1 - Hot Lead", PrimarySignal: "None"},
		{Company: "Zug Holding", Score: 40, Tier: "Tier 3 - Qualified", PrimarySignal: "None"},
	}))
	return d
}

func get(t *testing.T, h http.Handler, target string, out any) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	if out != nil && rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec
}

func TestHealth(t *testing.T) {
	h := NewRouter(seed(t))

	var body map[string]any
	rec := get(t, h, "/health", &body)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["ok"])
	assert.NotEmpty(t, body["jobsUpdatedAt"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestJobs_FromCSV(t *testing.T) {
	h := NewRouter(seed(t))

	var jobs []domain.JobRecord
	rec := get(t, h, "/jobs", &jobs)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, jobs, 3)
	assert.Equal(t, "Cash Manager", jobs[0].Title, "newest first")

	jobs = nil
	get(t, h, "/jobs?company=Acme%20Treasury&sort=title", &jobs)
	require.Len(t, jobs, 2)
	assert.Equal(t, "Head of Treasury", jobs[0].Title)

	jobs = nil
	get(t, h, "/jobs?country=Switzerland", &jobs)
	require.Len(t, jobs, 1)

	rec = get(t, h, "/jobs?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var apiErr APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	assert.Equal(t, "bad_request", apiErr.Error.Code)
}

func TestJobs_FromMirror(t *testing.T) {
	d := seed(t)
	ctx := context.Background()

	db, err := store.Open(ctx, filepath.Join(t.TempDir(), "mirror.db"))
	require.NoError(t, err)
	defer db.Close()

	jobs, err := d.Jobs.Load()
	require.NoError(t, err)
	ps, err := d.Prospects.Load()
	require.NoError(t, err)
	require.NoError(t, db.ReplaceJobs(ctx, jobs, func(j domain.JobRecord) string { return j.Source + "|" + j.Title }))
	require.NoError(t, db.ReplaceProspects(ctx, ps))
	d.DB = db

	var rows []store.JobRow
	rec := get(t, NewRouter(d), "/jobs?sort=score", &rows)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, rows, 3)
	assert.Equal(t, "Acme Treasury", rows[0].Company)
	assert.Equal(t, 85, rows[0].CompanyScore)
}

func TestProspects(t *testing.T) {
	h := NewRouter(seed(t))

	var ps []domain.Prospect
	get(t, h, "/prospects", &ps)
	require.Len(t, ps, 2)
	assert.Equal(t, "Acme Treasury", ps[0].Company)

	ps = nil
	get(t, h, "/prospects?min_score=50", &ps)
	require.Len(t, ps, 1)

	ps = nil
	get(t, h, "/prospects?tier=Tier%203%20-%20Qualified", &ps)
	require.Len(t, ps, 1)
	assert.Equal(t, "Zug Holding", ps[0].Company)

	var p domain.Prospect
	rec := get(t, h, "/prospects/Zug%20Holding", &p)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 40, p.Score)

	rec = get(t, h, "/prospects/Nobody", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsAndCORS(t *testing.T) {
	d := seed(t)
	d.Metrics.JobsTotal.Set(3)
	h := NewRouter(d)

	rec := get(t, h, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "treasury_jobs 3")

	req := httptest.NewRequest(http.MethodOptions, "/jobs", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = get(t, h, "/jobs", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	r := httptest.NewRequest(http.MethodPost, "/jobs", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
