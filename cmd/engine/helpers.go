package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"treasury-engine/internal/config"
	"treasury-engine/internal/ingest"
	"treasury-engine/internal/ingest/email"
	"treasury-engine/internal/ingest/web"
	"treasury-engine/internal/pipeline"
	"treasury-engine/internal/store"
)

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// rulesPath is the configured rules file, else rules.yml in the data dir.
func rulesPath() string {
	if cfg.RulesPath != "" {
		return cfg.RulesPath
	}
	return filepath.Join(cfg.Data.Dir, config.RulesFileName)
}

// loadRules overlays the user file on the defaults and validates the result.
func loadRules() (config.Rules, error) {
	r, err := config.LoadRules(rulesPath())
	if err != nil {
		return config.Rules{}, err
	}
	r, v := config.NormalizeAndValidate(r)
	for _, w := range v.Warnings {
		zap.L().Warn("rules", zap.String("warning", w))
	}
	if err := v.Err(); err != nil {
		return config.Rules{}, err
	}
	return r, nil
}

// newPipeline builds the pipeline and opens the SQLite mirror when
// enabled. The returned func closes what was opened.
func newPipeline(ctx context.Context) (*pipeline.Pipeline, func(), error) {
	rules, err := loadRules()
	if err != nil {
		return nil, nil, err
	}
	if err := os.MkdirAll(cfg.Data.Dir, 0o755); err != nil {
		return nil, nil, eris.Wrapf(err, "create data dir %s", cfg.Data.Dir)
	}

	p, err := pipeline.New(rules, cfg.Data)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {}
	if cfg.Data.Mirror {
		db, err := store.Open(ctx, cfg.Data.Path(cfg.Data.SQLiteFile))
		if err != nil {
			return nil, nil, err
		}
		p.Mirror = db
		closeFn = func() { _ = db.Close() }
	}
	return p, closeFn, nil
}

type sourceOpts struct {
	files   []string
	source  string
	context string
	noEmail bool
	noWeb   bool
}

// buildSources turns config and flags into the source list. The returned
// func releases browser resources.
func buildSources(p *pipeline.Pipeline, o sourceOpts) ([]ingest.Source, func()) {
	var (
		sources []ingest.Source
		cleanup = func() {}
	)
	if len(o.files) > 0 {
		sources = append(sources, ingest.FileSource{
			Paths:   o.files,
			Source:  o.source,
			Context: o.context,
			Cards:   p.Extractor,
		})
	}
	if cfg.Email.Enabled && !o.noEmail {
		sources = append(sources, email.Source{Cfg: cfg.Email})
	}
	if cfg.Web.Enabled && !o.noWeb {
		ws, closeWeb := web.NewSource(cfg.Web, p.Extractor)
		sources = append(sources, ws)
		cleanup = closeWeb
	}
	return sources, cleanup
}

func writeMetrics(p *pipeline.Pipeline) {
	if cfg.Data.MetricsFile == "" {
		return
	}
	if err := p.Metrics.WriteTextfile(cfg.Data.Path(cfg.Data.MetricsFile)); err != nil {
		zap.L().Warn("metrics textfile", zap.Error(err))
	}
}
