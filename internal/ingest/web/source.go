// Package web fetches configured job-board searches and cuts the result
// pages into card blocks.
package web

import (
	"context"
	"time"

	"go.uber.org/zap"

	"treasury-engine/internal/config"
	"treasury-engine/internal/domain"
)

// CardSplitter cuts a result page into card fragments.
type CardSplitter interface {
	SplitCards(source, page string, max int) ([]string, error)
}

// Source walks the configured searches one by one.
type Source struct {
	Searches []config.SearchConfig
	MaxCards int
	Fetcher  Fetcher
	Limiter  *HostLimiter
	Cards    CardSplitter
	Now      func() time.Time
}

// NewSource wires the fetcher and limiter from config.
func NewSource(cfg config.WebConfig, cards CardSplitter) (*Source, func()) {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	s := &Source{
		Searches: cfg.Searches,
		MaxCards: cfg.MaxCardsPerPage,
		Limiter:  NewHostLimiter(cfg.ReqPerSec, cfg.Burst),
		Cards:    cards,
	}
	if cfg.Browser {
		bf := NewBrowserFetcher(cfg.UserAgent, timeout)
		s.Fetcher = bf
		return s, bf.Close
	}
	s.Fetcher = NewHTTPFetcher(cfg.UserAgent, timeout)
	return s, func() {}
}

func (s *Source) Name() string { return "web" }

// Fetch never fails as a whole: a search that errors is logged and the
// rest still run.
func (s *Source) Fetch(ctx context.Context) ([]domain.RawBlock, error) {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}

	var out []domain.RawBlock
	for _, q := range s.Searches {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		log := zap.L().With(zap.String("source", q.Source), zap.String("url", q.URL))

		if s.Limiter != nil {
			if err := s.Limiter.WaitURL(ctx, q.URL); err != nil {
				return out, err
			}
		}
		page, err := s.Fetcher.Fetch(ctx, q.URL)
		if err != nil {
			log.Warn("search fetch failed", zap.Error(err))
			continue
		}
		cards, err := s.Cards.SplitCards(q.Source, page, s.MaxCards)
		if err != nil {
			log.Warn("search page unusable", zap.Error(err))
			continue
		}
		log.Info("search fetched", zap.Int("cards", len(cards)))

		received := now()
		for _, c := range cards {
			out = append(out, domain.RawBlock{
				Kind:       domain.KindWebCard,
				Body:       c,
				Source:     q.Source,
				Context:    q.Context,
				ReceivedAt: received,
				Origin:     q.URL,
			})
		}
	}
	return out, nil
}
