// Package rod implements glean.Fetcher with headless Chrome via the
// go-rod browser automation library. Use it for sites that render
// content client side; http.Fetcher is cheaper for static pages.
package rod

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/jlipinski/glean"
)

// DefaultFetchTimeout bounds a single page render.
const DefaultFetchTimeout = 10 * time.Second

// DefaultMaxPages is the number of pages fetched before the browser is
// recycled. Chrome accumulates memory under sustained load and never
// returns to its baseline, so long crawls get a fresh process
// periodically.
const DefaultMaxPages = 75

// Ensure Fetcher implements glean.Fetcher at compile time.
var _ glean.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves rendered HTML from URLs using a headless Chrome
// browser. Safe for concurrent use by multiple goroutines.
type Fetcher struct {
	timeout  time.Duration
	maxPages int64

	mu        sync.Mutex
	browser   *rod.Browser
	lnchr     *launcher.Launcher
	pageCount int64
	closed    bool
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithFetchTimeout sets the per-page render timeout.
// Defaults to DefaultFetchTimeout if not specified.
func WithFetchTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithMaxPages sets how many pages are fetched before the browser is
// recycled. Defaults to DefaultMaxPages.
func WithMaxPages(n int64) Option {
	return func(f *Fetcher) {
		f.maxPages = n
	}
}

// NewFetcher launches a headless Chrome browser and returns a Fetcher
// backed by it. Close must be called when the Fetcher is no longer
// needed.
//
// Returns an error if Chrome/Chromium cannot be found or launched.
func NewFetcher(opts ...Option) (*Fetcher, error) {
	f := &Fetcher{
		timeout:  DefaultFetchTimeout,
		maxPages: DefaultMaxPages,
	}
	for _, opt := range opts {
		opt(f)
	}

	browser, lnchr, err := launchBrowser()
	if err != nil {
		return nil, err
	}
	f.browser = browser
	f.lnchr = lnchr

	return f, nil
}

// launchBrowser starts a Chrome process with stability flags and
// connects to it.
func launchBrowser() (*rod.Browser, *launcher.Launcher, error) {
	lnchr := launcher.New().
		Set("disable-background-timer-throttling").
		Set("disable-backgrounding-occluded-windows").
		Set("disable-renderer-backgrounding").
		Set("disable-dev-shm-usage").
		Set("disable-hang-monitor").
		Leakless(true).
		Headless(true)

	u, err := lnchr.Launch()
	if err != nil {
		return nil, nil, fmt.Errorf("launching browser: %w", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		lnchr.Kill()
		return nil, nil, fmt.Errorf("connecting to browser: %w", err)
	}

	return browser, lnchr, nil
}

// Fetch navigates to the URL and returns the rendered HTML.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	browser, err := f.acquireBrowser()
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", err
	}
	defer page.Close()

	// Scope all subsequent page operations to the deadline.
	page = page.Context(ctx)

	if err := page.Navigate(url); err != nil {
		return "", err
	}
	if err := page.WaitLoad(); err != nil {
		return "", err
	}

	html, err := page.HTML()
	if err != nil {
		return "", err
	}

	f.countPage()
	return html, nil
}

// acquireBrowser returns the live browser, recycling it first when the
// page budget is spent.
func (f *Fetcher) acquireBrowser() (*rod.Browser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil, glean.Errorf(glean.EINVALID, "fetcher is closed")
	}
	if f.pageCount >= f.maxPages {
		f.recycle()
	}
	return f.browser, nil
}

func (f *Fetcher) countPage() {
	f.mu.Lock()
	f.pageCount++
	f.mu.Unlock()
}

// recycle swaps in a fresh browser process. The old browser is kept
// when the new launch fails so fetching can continue on it. Must be
// called with mu held.
func (f *Fetcher) recycle() {
	browser, lnchr, err := launchBrowser()
	if err != nil {
		return
	}

	if f.browser != nil {
		_ = f.browser.Close()
	}
	if f.lnchr != nil {
		f.lnchr.Kill()
	}
	f.browser = browser
	f.lnchr = lnchr
	f.pageCount = 0
}

// Close shuts down the browser and its launcher process. Safe to call
// multiple times.
func (f *Fetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil
	}
	f.closed = true

	var err error
	if f.browser != nil {
		err = f.browser.Close()
		f.browser = nil
	}
	if f.lnchr != nil {
		f.lnchr.Kill()
		f.lnchr = nil
	}
	return err
}

// LauncherPID returns the process ID of the browser launcher. Exposed
// for tests that verify process cleanup.
func (f *Fetcher) LauncherPID() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lnchr == nil {
		return 0
	}
	return f.lnchr.PID()
}
