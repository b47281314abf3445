package web

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rotisserie/eris"
)

const maxPageBytes = 10 << 20

// Fetcher returns the rendered HTML of a page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// HTTPFetcher issues plain GET requests.
type HTTPFetcher struct {
	Client    *http.Client
	UserAgent string
}

func NewHTTPFetcher(userAgent string, timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{Client: &http.Client{Timeout: timeout}, UserAgent: userAgent}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", eris.Wrapf(err, "web: build request %s", url)
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "de-DE,de;q=0.9,en;q=0.8")

	resp, err := f.Client.Do(req)
	if err != nil {
		return "", eris.Wrapf(err, "web: get %s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", eris.Errorf("web: get %s: status %d", url, resp.StatusCode)
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", eris.Wrapf(err, "web: read %s", url)
	}
	return string(b), nil
}

// BrowserFetcher renders pages in headless Chrome, for boards that build
// their result lists client-side.
type BrowserFetcher struct {
	allocCtx context.Context
	cancel   context.CancelFunc
	timeout  time.Duration
}

func NewBrowserFetcher(userAgent string, timeout time.Duration) *BrowserFetcher {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(userAgent),
	)
	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)
	return &BrowserFetcher{allocCtx: allocCtx, cancel: cancel, timeout: timeout}
}

func (f *BrowserFetcher) Fetch(ctx context.Context, url string) (string, error) {
	taskCtx, cancel := chromedp.NewContext(f.allocCtx)
	defer cancel()
	taskCtx, cancel = context.WithTimeout(taskCtx, f.timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var page string
	err := chromedp.Run(taskCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &page, chromedp.ByQuery),
	)
	if err != nil {
		return "", eris.Wrapf(err, "web: render %s", url)
	}
	return page, nil
}

// Close shuts the browser down.
func (f *BrowserFetcher) Close() { f.cancel() }
