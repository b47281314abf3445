package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"treasury-engine/internal/domain"
)

// ScoreReport summarizes one scoring run.
type ScoreReport struct {
	Jobs       int
	Companies  int
	Prospects  []domain.Prospect
	TierCounts map[string]int
}

// Score recomputes every company from the job store and replaces the
// prospect store.
func (p *Pipeline) Score(ctx context.Context) (ScoreReport, error) {
	log := zap.L().With(zap.String("run", uuid.NewString()))
	return p.score(ctx, log)
}

func (p *Pipeline) score(ctx context.Context, log *zap.Logger) (ScoreReport, error) {
	start := time.Now()
	var rep ScoreReport

	err := p.withLock(ctx, func() error {
		jobs, err := p.Jobs.Load()
		if err != nil {
			return err
		}
		res := p.Engine.Analyze(jobs, p.now())
		rep = ScoreReport{
			Jobs:       len(jobs),
			Companies:  len(res.Profiles),
			Prospects:  res.Prospects,
			TierCounts: res.TierCounts,
		}

		if err := p.Prospects.Save(res.Prospects); err != nil {
			return err
		}
		if p.Mirror != nil {
			if err := p.Mirror.ReplaceProspects(ctx, res.Prospects); err != nil {
				log.Warn("pipeline: sqlite mirror", zap.Error(err))
			}
		}
		return nil
	})
	if err != nil {
		return rep, err
	}

	if p.Metrics != nil {
		p.Metrics.ProspectsByTier.Reset()
		for tier, n := range rep.TierCounts {
			p.Metrics.ProspectsByTier.WithLabelValues(tier).Set(float64(n))
		}
		p.Metrics.RunDuration.WithLabelValues("score").Observe(time.Since(start).Seconds())
		p.Metrics.LastSuccess.WithLabelValues("score").SetToCurrentTime()
	}

	log.Info("pipeline: scored",
		zap.Int("jobs", rep.Jobs),
		zap.Int("companies", rep.Companies),
		zap.Int("prospects", len(rep.Prospects)),
		zap.Any("tiers", rep.TierCounts))
	return rep, nil
}
