package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"treasury-engine/internal/config"
	"treasury-engine/internal/domain"
	"treasury-engine/internal/ingest"
	"treasury-engine/internal/store"
)

var runDay = time.Date(2026, 10, 12, 9, 0, 0, 0, time.UTC)

const alert = `Your job alert for treasury in Germany

Senior Treasury Manager
Acme Treasury GmbH
Frankfurt am Main
View job: https://www.linkedin.com/comm/jobs/view/3811111111/?trackingId=abc

Interim Cash Manager (Kyriba)
Beta AG
Munich
View job: https://www.linkedin.com/comm/jobs/view/3822222222/

Zeta GmbH
Hamburg
View job: https://www.linkedin.com/comm/jobs/view/3833333333/
`

const card = `<article data-at="job-item">
  <a data-at="job-item-title" href="/stellenangebote--Treasury-Manager-Frankfurt-Acme--123.html"><h2>Treasury Manager (m/w/d)</h2></a>
  <span data-at="job-item-company-name">Acme Treasury GmbH</span>
  <span data-at="job-item-location">Frankfurt am Main</span>
</article>`

const bareCompanyCard = `<article data-at="job-item">
  <a data-at="job-item-title" href="/stellenangebote--Cash-Manager--456.html"><h2>Cash Manager</h2></a>
  <span data-at="job-item-company-name">(Holding)</span>
</article>`

func blocks() []domain.RawBlock {
	return []domain.RawBlock{
		{Kind: domain.KindEmailPlain, Body: alert, Source: "LinkedIn", Context: "treasury in Germany"},
		{Kind: domain.KindWebCard, Body: card, Source: "StepStone.de", Context: "Treasury in Deutschland"},
		{Kind: domain.KindWebCard, Body: bareCompanyCard, Source: "StepStone.de"},
		{Kind: domain.KindWebCard, Body: `<article><h2>Treasury Manager</h2></article>`, Source: "StepStone.de"},
		{Kind: "fax", Body: "x", Source: "Fax"},
	}
}

func newPipeline(t *testing.T) *Pipeline {
	t.Helper()
	dir := t.TempDir()
	p, err := New(config.DefaultRules(), config.DataConfig{
		Dir:           dir,
		JobsFile:      "jobs.csv",
		ProspectsFile: "prospects.csv",
	})
	require.NoError(t, err)
	p.Now = func() time.Time { return runDay }
	p.LockWait = time.Second
	return p
}

func TestBuild_DropsBadRecords(t *testing.T) {
	p := newPipeline(t)

	recs, rep := p.Build(blocks(), runDay)
	require.Len(t, recs, 3)
	assert.Equal(t, 5, rep.Blocks)
	assert.Equal(t, map[string]int{
		"empty_title":      1,
		"unknown_company":  1,
		"incomplete_card":  1,
		"unsupported_kind": 1,
	}, rep.Dropped)

	for _, r := range recs {
		assert.NotEmpty(t, r.Title)
		assert.Equal(t, domain.NewDate(runDay), r.DateScraped)
	}
	assert.Equal(t, "Acme Treasury", recs[0].Company)
	assert.Equal(t, "Germany", recs[0].Country)
	assert.Equal(t, domain.Tags{"Kyriba"}, recs[1].Technologies)
}

func TestIngest_WritesOnceAndIsIdempotent(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()

	rep, err := p.Ingest(ctx, blocks())
	require.NoError(t, err)
	assert.True(t, rep.Written)
	assert.Equal(t, 3, rep.Merge.Added)

	first, err := os.ReadFile(p.Jobs.Path)
	require.NoError(t, err)

	rep, err = p.Ingest(ctx, blocks())
	require.NoError(t, err)
	assert.False(t, rep.Written)
	assert.Equal(t, 3, rep.Merge.Unchanged)

	second, err := os.ReadFile(p.Jobs.Path)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestIngest_EmptyBatchLeavesStoreAlone(t *testing.T) {
	p := newPipeline(t)

	rep, err := p.Ingest(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, rep.Written)
	assert.NoFileExists(t, p.Jobs.Path)
}

func TestIngest_LockedStore(t *testing.T) {
	p := newPipeline(t)
	p.LockWait = 100 * time.Millisecond

	other := store.NewRunLock(p.Jobs.Path)
	require.NoError(t, other.Acquire(context.Background(), 10*time.Millisecond))
	defer other.Release()

	_, err := p.Ingest(context.Background(), blocks())
	assert.ErrorIs(t, err, store.ErrLocked)
	assert.NoFileExists(t, p.Jobs.Path)
}

func TestScore_ReplacesProspects(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()

	_, err := p.Ingest(ctx, blocks())
	require.NoError(t, err)

	rep, err := p.Score(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, rep.Jobs)
	assert.Equal(t, 2, rep.Companies)

	saved, err := p.Prospects.Load()
	require.NoError(t, err)
	require.Len(t, saved, len(rep.Prospects))
	for i := range saved {
		assert.Equal(t, rep.Prospects[i].Company, saved[i].Company)
		assert.Equal(t, rep.Prospects[i].Score, saved[i].Score)
		assert.GreaterOrEqual(t, saved[i].Score, 20)
	}
	for i := 1; i < len(saved); i++ {
		assert.GreaterOrEqual(t, saved[i-1].Score, saved[i].Score)
	}
}

type fakeSource struct {
	name   string
	blocks []domain.RawBlock
	err    error
}

func (f fakeSource) Name() string { return f.name }
func (f fakeSource) Fetch(context.Context) ([]domain.RawBlock, error) {
	return f.blocks, f.err
}

func TestRun_WithMirror(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()

	db, err := store.Open(ctx, filepath.Join(t.TempDir(), "mirror.db"))
	require.NoError(t, err)
	defer db.Close()
	p.Mirror = db

	sources := []ingest.Source{
		fakeSource{name: "file", blocks: blocks()},
		fakeSource{name: "email", err: errors.New("login failed")},
	}
	rep, err := p.Run(ctx, sources, time.Second)
	require.NoError(t, err)
	assert.NotEmpty(t, rep.RunID)
	require.Len(t, rep.Sources, 2)
	assert.Error(t, rep.Sources[1].Err)
	assert.Equal(t, 3, rep.Ingest.Merge.Total)

	rows, err := db.ListJobs(ctx, store.ListJobsOpts{Company: "Acme Treasury"})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}
