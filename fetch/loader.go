// Package fetch turns URLs into markdown pages. It coordinates rate
// limiting, fetching with retry, content extraction and markdown conversion.
package fetch

import (
	"context"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/jlipinski/glean"
	"golang.org/x/sync/errgroup"
)

// DefaultRetryDelays returns the backoff delays between fetch attempts: 1s, 2s, 4s.
func DefaultRetryDelays() []time.Duration {
	return []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
}

// Ensure Loader implements glean.PageLoader at compile time.
var _ glean.PageLoader = (*Loader)(nil)

// Loader loads pages through a fetch, extract, convert pipeline.
type Loader struct {
	Fetcher   glean.Fetcher
	Extractor glean.Extractor
	Converter glean.Converter

	// Limiter, when set, spaces out requests per domain.
	Limiter *DomainLimiter

	// RetryDelays are the waits between fetch attempts. nil selects
	// DefaultRetryDelays; an empty slice disables retries.
	RetryDelays []time.Duration

	// Concurrency bounds simultaneous page loads in LoadAll, default 10.
	Concurrency int
}

// loadResult holds the outcome of loading a single URL.
type loadResult struct {
	position int
	page     *glean.Page
	err      error
}

// Load fetches a single page and reduces it to markdown.
func (l *Loader) Load(ctx context.Context, rawURL string) (*glean.Page, error) {
	if l.Limiter != nil {
		u, err := url.Parse(rawURL)
		if err != nil {
			return nil, glean.Errorf(glean.EINVALID, "invalid url %q: %v", rawURL, err)
		}
		if err := l.Limiter.Wait(ctx, u.Host); err != nil {
			return nil, err
		}
	}

	html, err := l.fetchWithRetry(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	extracted, err := l.Extractor.Extract(html)
	if err != nil {
		return nil, err
	}

	markdown, err := l.Converter.Convert(extracted.ContentHTML)
	if err != nil {
		return nil, err
	}

	return &glean.Page{URL: rawURL, Title: extracted.Title, Content: markdown}, nil
}

// LoadAll loads every URL, preserving input order in the returned pages.
// Individual failures are reported through progress and omitted from the
// result; only a batch where every page failed is an error.
func (l *Loader) LoadAll(ctx context.Context, urls []string, progress glean.FetchProgressFunc) ([]*glean.Page, error) {
	if len(urls) == 0 {
		return nil, nil
	}

	concurrency := l.Concurrency
	if concurrency <= 0 {
		concurrency = 10
	}

	resultCh := make(chan loadResult, len(urls))

	var completed atomic.Int64
	total := len(urls)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	go func() {
		for i, u := range urls {
			i, u := i, u
			g.Go(func() error {
				page, err := l.Load(gctx, u)
				resultCh <- loadResult{position: i, page: page, err: err}
				return nil
			})
		}
		_ = g.Wait()
		close(resultCh)
	}()

	// Results are collected by position so the returned pages follow the
	// input order regardless of completion order.
	results := make([]loadResult, len(urls))
	for result := range resultCh {
		completed.Add(1)
		results[result.position] = result

		if progress != nil {
			progress(glean.FetchProgress{
				URL:       urls[result.position],
				Completed: int(completed.Load()),
				Total:     total,
				Error:     result.err,
			})
		}
	}

	pages := make([]*glean.Page, 0, len(urls))
	for _, result := range results {
		if result.err != nil {
			continue
		}
		pages = append(pages, result.page)
	}

	if len(pages) == 0 {
		return nil, glean.Errorf(glean.ENOTFOUND, "none of %d pages could be loaded", total)
	}
	return pages, nil
}

// fetchWithRetry attempts the fetch with backoff between attempts. The
// number of attempts is one more than the number of delays.
func (l *Loader) fetchWithRetry(ctx context.Context, rawURL string) (string, error) {
	delays := l.RetryDelays
	if delays == nil {
		delays = DefaultRetryDelays()
	}
	maxAttempts := len(delays) + 1

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		html, err := l.Fetcher.Fetch(ctx, rawURL)
		if err == nil {
			return html, nil
		}
		lastErr = err

		if attempt >= maxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delays[attempt]):
		}
	}

	return "", lastErr
}
