package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"treasury-engine/internal/config"
	"treasury-engine/internal/domain"
)

type stubFetcher map[string]string

func (f stubFetcher) Fetch(_ context.Context, url string) (string, error) {
	if p, ok := f[url]; ok {
		return p, nil
	}
	return "", errors.New("not found")
}

type lineCards struct{}

func (lineCards) SplitCards(_, page string, max int) ([]string, error) {
	if page == "" {
		return nil, errors.New("empty page")
	}
	cards := strings.Split(page, "\n")
	if max > 0 && len(cards) > max {
		cards = cards[:max]
	}
	return cards, nil
}

func TestSource_FetchSkipsFailingSearch(t *testing.T) {
	now := time.Date(2026, 10, 12, 9, 0, 0, 0, time.UTC)
	s := &Source{
		Searches: []config.SearchConfig{
			{Source: "StepStone.de", URL: "https://www.stepstone.de/a", Context: "Treasury in Deutschland"},
			{Source: "StepStone.de", URL: "https://www.stepstone.de/missing"},
			{Source: "Jobs.ch", URL: "https://www.jobs.ch/b", Context: "Treasury in der Schweiz"},
		},
		MaxCards: 2,
		Fetcher: stubFetcher{
			"https://www.stepstone.de/a": "c1\nc2\nc3",
			"https://www.jobs.ch/b":      "c4",
		},
		Limiter: NewHostLimiter(0, 1),
		Cards:   lineCards{},
		Now:     func() time.Time { return now },
	}

	blocks, err := s.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, blocks, 3)

	assert.Equal(t, domain.KindWebCard, blocks[0].Kind)
	assert.Equal(t, "c1", blocks[0].Body)
	assert.Equal(t, "Treasury in Deutschland", blocks[0].Context)
	assert.Equal(t, "Jobs.ch", blocks[2].Source)
	assert.Equal(t, "c4", blocks[2].Body)
	assert.Equal(t, now, blocks[2].ReceivedAt)
}

func TestHTTPFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/gone" {
			http.Error(w, "gone", http.StatusGone)
			return
		}
		_, _ = w.Write([]byte("<html>" + r.Header.Get("User-Agent") + "</html>"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher("treasury-test", 5*time.Second)
	page, err := f.Fetch(context.Background(), srv.URL+"/ok")
	require.NoError(t, err)
	assert.Equal(t, "<html>treasury-test</html>", page)

	_, err = f.Fetch(context.Background(), srv.URL+"/gone")
	assert.ErrorContains(t, err, "status 410")
}

func TestHostLimiter_PerHost(t *testing.T) {
	hl := NewHostLimiter(1, 1)
	ctx := context.Background()

	require.NoError(t, hl.WaitURL(ctx, "https://a.example/1"))
	require.NoError(t, hl.WaitURL(ctx, "https://b.example/1"))
	assert.NotSame(t, hl.limiterFor("a.example"), hl.limiterFor("b.example"))

	// the second call on the same host must wait; a cancelled context fails fast
	cctx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	assert.Error(t, hl.WaitURL(cctx, "https://a.example/2"))
}
