// Package pipeline wires the core stages into the two batch runs: ingest
// (blocks to canonical job store) and score (job store to prospects).
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"treasury-engine/internal/config"
	"treasury-engine/internal/dedupe"
	"treasury-engine/internal/domain"
	"treasury-engine/internal/extract"
	"treasury-engine/internal/ingest"
	"treasury-engine/internal/metrics"
	"treasury-engine/internal/normalize"
	"treasury-engine/internal/rank"
	"treasury-engine/internal/store"
)

const (
	lockRetry      = 250 * time.Millisecond
	defaultLockFor = 30 * time.Second
)

// Pipeline holds the compiled rules and the stores of one data directory.
type Pipeline struct {
	Extractor  *extract.Extractor
	Normalizer *normalize.Normalizer
	Canon      dedupe.URLCanon
	Engine     *rank.Engine

	Jobs      store.JobStore
	Prospects store.ProspectStore
	Mirror    *store.DB // optional
	Metrics   *metrics.Metrics

	LockWait time.Duration
	Now      func() time.Time
}

// New compiles the rule tables. Stores point at the configured data dir.
func New(rules config.Rules, data config.DataConfig) (*Pipeline, error) {
	ex, err := extract.New(rules)
	if err != nil {
		return nil, err
	}
	nz, err := normalize.New(rules)
	if err != nil {
		return nil, err
	}
	en, err := rank.NewEngine(rules)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		Extractor:  ex,
		Normalizer: nz,
		Canon:      dedupe.NewURLCanon(rules.Extract.TrackingParams),
		Engine:     en,
		Jobs:       store.JobStore{Path: data.Path(data.JobsFile)},
		Prospects:  store.ProspectStore{Path: data.Path(data.ProspectsFile)},
		Metrics:    metrics.New(),
		LockWait:   defaultLockFor,
		Now:        time.Now,
	}, nil
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// withLock holds the store lock for fn.
func (p *Pipeline) withLock(ctx context.Context, fn func() error) error {
	wait := p.LockWait
	if wait <= 0 {
		wait = defaultLockFor
	}
	lctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	lock := store.NewRunLock(p.Jobs.Path)
	if err := lock.Acquire(lctx, lockRetry); err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			zap.L().Warn("pipeline: release lock", zap.Error(err))
		}
	}()
	return fn()
}

// Report summarizes a full run.
type Report struct {
	RunID    string
	Sources  []ingest.Outcome
	Ingest   IngestReport
	Score    ScoreReport
	Duration time.Duration
}

// Run collects from every source, ingests the blocks and rescores. A
// failing source is logged and skipped; only store errors abort the run.
func (p *Pipeline) Run(ctx context.Context, sources []ingest.Source, sourceTimeout time.Duration) (Report, error) {
	start := time.Now()
	rep := Report{RunID: uuid.NewString()}
	log := zap.L().With(zap.String("run", rep.RunID))
	log.Info("pipeline: run started", zap.Int("sources", len(sources)))

	blocks, outcomes := ingest.Collect(ctx, sources, sourceTimeout)
	rep.Sources = outcomes
	for _, o := range outcomes {
		if o.Err != nil && p.Metrics != nil {
			p.Metrics.SourceErrors.WithLabelValues(o.Source).Inc()
		}
	}

	var err error
	rep.Ingest, err = p.ingest(ctx, log, blocks)
	if err != nil {
		return rep, err
	}
	rep.Score, err = p.score(ctx, log)
	if err != nil {
		return rep, err
	}

	rep.Duration = time.Since(start)
	log.Info("pipeline: run done", zap.Duration("took", rep.Duration))
	return rep, nil
}

// dropReason names a per-record failure for logs and metrics.
func dropReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrEmptyTitle):
		return "empty_title"
	case errors.Is(err, extract.ErrIncompleteCard):
		return "incomplete_card"
	case errors.Is(err, extract.ErrUnsupportedKind):
		return "unsupported_kind"
	default:
		return "malformed"
	}
}
