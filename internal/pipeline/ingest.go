package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"treasury-engine/internal/dedupe"
	"treasury-engine/internal/domain"
)

// IngestReport summarizes one ingest.
type IngestReport struct {
	Blocks     int
	Candidates int
	Records    int
	Dropped    map[string]int
	Merge      dedupe.Stats
	Written    bool
}

// Build runs extraction and normalization over the blocks. It touches no
// store; bad blocks and candidates are counted and skipped.
func (p *Pipeline) Build(blocks []domain.RawBlock, scraped time.Time) ([]domain.JobRecord, IngestReport) {
	rep := IngestReport{Blocks: len(blocks), Dropped: map[string]int{}}
	drop := func(reason string) {
		rep.Dropped[reason]++
		if p.Metrics != nil {
			p.Metrics.Dropped.WithLabelValues(reason).Inc()
		}
	}

	var out []domain.JobRecord
	for _, b := range blocks {
		if p.Metrics != nil {
			p.Metrics.Blocks.WithLabelValues(b.Source, string(b.Kind)).Inc()
		}
		cands, err := p.Extractor.Extract(b)
		if err != nil {
			zap.L().Debug("pipeline: block dropped",
				zap.String("source", b.Source), zap.String("origin", b.Origin), zap.Error(err))
			drop(dropReason(err))
			continue
		}
		rep.Candidates += len(cands)
		if p.Metrics != nil {
			p.Metrics.Candidates.WithLabelValues(b.Source).Add(float64(len(cands)))
		}

		for _, c := range cands {
			rec, err := p.Normalizer.Normalize(c, scraped)
			if err != nil {
				zap.L().Debug("pipeline: candidate dropped",
					zap.String("source", c.Source), zap.String("url", c.URL), zap.Error(err))
				drop(dropReason(err))
				continue
			}
			if b.Kind.Structured() && rec.Company == domain.Unknown {
				zap.L().Debug("pipeline: card company cleaned to nothing",
					zap.String("source", c.Source), zap.String("title", rec.Title))
				drop("unknown_company")
				continue
			}
			out = append(out, rec)
		}
	}
	rep.Records = len(out)
	return out, rep
}

// Ingest merges the blocks into the canonical job store. An empty batch
// leaves the store untouched.
func (p *Pipeline) Ingest(ctx context.Context, blocks []domain.RawBlock) (IngestReport, error) {
	log := zap.L().With(zap.String("run", uuid.NewString()))
	return p.ingest(ctx, log, blocks)
}

func (p *Pipeline) ingest(ctx context.Context, log *zap.Logger, blocks []domain.RawBlock) (IngestReport, error) {
	start := time.Now()
	records, rep := p.Build(blocks, p.now())
	log.Info("pipeline: extracted",
		zap.Int("blocks", rep.Blocks),
		zap.Int("candidates", rep.Candidates),
		zap.Int("records", rep.Records),
		zap.Any("dropped", rep.Dropped))

	if len(records) == 0 {
		log.Info("pipeline: nothing to merge")
		return rep, nil
	}

	err := p.withLock(ctx, func() error {
		existing, err := p.Jobs.Load()
		if err != nil {
			return err
		}
		merged, st := p.Canon.Merge(existing, records)
		rep.Merge = st

		if st.Added == 0 && st.Replaced == 0 {
			return nil
		}
		if err := p.Jobs.Save(merged); err != nil {
			return err
		}
		rep.Written = true

		if p.Mirror != nil {
			if err := p.Mirror.ReplaceJobs(ctx, merged, p.Canon.Key); err != nil {
				log.Warn("pipeline: sqlite mirror", zap.Error(err))
			}
		}
		return nil
	})
	if err != nil {
		return rep, err
	}

	if p.Metrics != nil {
		p.Metrics.JobsMerged.WithLabelValues("added").Add(float64(rep.Merge.Added))
		p.Metrics.JobsMerged.WithLabelValues("replaced").Add(float64(rep.Merge.Replaced))
		p.Metrics.JobsMerged.WithLabelValues("unchanged").Add(float64(rep.Merge.Unchanged))
		p.Metrics.JobsTotal.Set(float64(rep.Merge.Total))
		p.Metrics.RunDuration.WithLabelValues("ingest").Observe(time.Since(start).Seconds())
		p.Metrics.LastSuccess.WithLabelValues("ingest").SetToCurrentTime()
	}
	log.Info("pipeline: merged",
		zap.Int("existing", rep.Merge.Existing),
		zap.Int("added", rep.Merge.Added),
		zap.Int("replaced", rep.Merge.Replaced),
		zap.Int("unchanged", rep.Merge.Unchanged),
		zap.Int("total", rep.Merge.Total),
		zap.Bool("written", rep.Written))
	return rep, nil
}
