// Package ingest runs the source adapters that fetch raw blocks for the
// pipeline: board result pages, alert mailboxes and local files.
package ingest

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"treasury-engine/internal/domain"
)

// Source fetches already-materialized raw blocks. A failing source loses
// only its own contribution to the run.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]domain.RawBlock, error)
}

// Outcome is what one source produced in a Collect call.
type Outcome struct {
	Source string
	Blocks int
	Err    error
	Took   time.Duration
}

// Collect runs all sources concurrently, each under its own timeout, and
// concatenates their blocks in source order. Source errors are reported in
// the outcomes, never returned.
func Collect(ctx context.Context, sources []Source, timeout time.Duration) ([]domain.RawBlock, []Outcome) {
	var (
		mu       sync.Mutex
		perSrc   = make([][]domain.RawBlock, len(sources))
		outcomes = make([]Outcome, len(sources))
		g        errgroup.Group
	)

	for i, s := range sources {
		g.Go(func() error {
			sctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			start := time.Now()
			zap.L().Info("source running", zap.String("source", s.Name()))
			blocks, err := s.Fetch(sctx)

			mu.Lock()
			defer mu.Unlock()
			outcomes[i] = Outcome{Source: s.Name(), Blocks: len(blocks), Err: err, Took: time.Since(start)}
			if err != nil {
				zap.L().Warn("source failed", zap.String("source", s.Name()), zap.Error(err))
				return nil
			}
			perSrc[i] = blocks
			zap.L().Info("source done", zap.String("source", s.Name()), zap.Int("blocks", len(blocks)))
			return nil
		})
	}
	_ = g.Wait()

	var out []domain.RawBlock
	for _, b := range perSrc {
		out = append(out, b...)
	}
	return out, outcomes
}
