package http

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/beevik/etree"
	"github.com/jlipinski/glean"
	"github.com/jlipinski/glean/bloom"
)

// Ensure SitemapService implements glean.SitemapService at compile time.
var _ glean.SitemapService = (*SitemapService)(nil)

// Dedup filter sizing. A filter for a million URLs at this rate costs a
// few megabytes; overflowing the estimate only raises the false positive
// rate, it does not break dedup.
const (
	dedupCapacity = 1 << 20
	dedupFPRate   = 1e-6
)

// SitemapService discovers page URLs from a site's XML sitemaps.
type SitemapService struct {
	client *http.Client
}

// NewSitemapService creates a SitemapService using the given HTTP client.
// If client is nil, http.DefaultClient is used.
func NewSitemapService(client *http.Client) *SitemapService {
	if client == nil {
		client = http.DefaultClient
	}
	return &SitemapService{client: client}
}

// DiscoverURLs returns the page URLs advertised by the site's sitemaps.
// Sitemap locations come from robots.txt Sitemap: directives, falling
// back to /sitemap.xml at the domain root. Returns an empty slice when
// the site advertises no sitemap.
//
// When baseURL carries a non-root path (https://example.com/docs/), only
// URLs under that path are returned. The optional filter narrows the
// result further.
func (s *SitemapService) DiscoverURLs(ctx context.Context, baseURL string, filter *glean.URLFilter) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, glean.Errorf(glean.EINVALID, "invalid base url %q: %v", baseURL, err)
	}

	pathPrefix := base.Path
	if pathPrefix == "/" {
		pathPrefix = ""
	}

	// Sitemaps live at the domain root regardless of the base path.
	root := *base
	root.Path = ""

	sitemaps, err := s.findSitemaps(ctx, &root)
	if err != nil {
		return nil, err
	}
	if len(sitemaps) == 0 {
		return []string{}, nil
	}

	// Catalog sitemap indexes run to hundreds of thousands of URLs, so
	// URL dedup uses a Bloom filter to bound memory. The cycle guard for
	// sitemap files stays exact: a false positive there would skip a
	// whole sitemap, and there are never more than a handful.
	var (
		all          []string
		seenSitemaps = make(map[string]bool)
		seenURLs     = bloom.NewFilter(dedupCapacity, dedupFPRate)
	)
	for _, sm := range sitemaps {
		urls, err := s.walkSitemap(ctx, sm, seenSitemaps)
		if err != nil {
			return nil, err
		}
		for _, u := range urls {
			if seenURLs.Seen(u) {
				continue
			}
			if pathPrefix != "" && !underPath(u, pathPrefix) {
				continue
			}
			if filter != nil && !filter.Match(u) {
				continue
			}
			all = append(all, u)
		}
	}

	return all, nil
}

// underPath reports whether the URL's path sits under prefix. The prefix
// is normalized to end with "/" so /docs matches /docs/intro but not
// /documentation.
func underPath(rawURL, prefix string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return strings.HasPrefix(parsed.Path, prefix)
}

// findSitemaps locates sitemap URLs via robots.txt, falling back to the
// conventional /sitemap.xml location.
func (s *SitemapService) findSitemaps(ctx context.Context, base *url.URL) ([]string, error) {
	robotsURL := base.ResolveReference(&url.URL{Path: "/robots.txt"})
	sitemaps, err := s.sitemapsFromRobots(ctx, robotsURL.String())
	if err == nil && len(sitemaps) > 0 {
		return sitemaps, nil
	}

	fallback := base.ResolveReference(&url.URL{Path: "/sitemap.xml"})
	exists, err := s.urlExists(ctx, fallback.String())
	if err != nil {
		// Propagate cancellation, treat other probe errors as absence.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, nil
	}
	if exists {
		return []string{fallback.String()}, nil
	}

	return nil, nil
}

// sitemapsFromRobots extracts Sitemap: directives from robots.txt.
func (s *SitemapService) sitemapsFromRobots(ctx context.Context, robotsURL string) ([]string, error) {
	body, err := s.get(ctx, robotsURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	const directive = "sitemap:"

	var sitemaps []string
	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if len(line) < len(directive) || !strings.EqualFold(line[:len(directive)], directive) {
			continue
		}
		if u := strings.TrimSpace(line[len(directive):]); u != "" {
			sitemaps = append(sitemaps, u)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading robots.txt: %w", err)
	}

	return sitemaps, nil
}

// walkSitemap fetches and parses one sitemap document, recursing into
// <sitemapindex> entries. The seen map guards against reference cycles.
func (s *SitemapService) walkSitemap(ctx context.Context, sitemapURL string, seen map[string]bool) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if seen[sitemapURL] {
		return nil, nil
	}
	seen[sitemapURL] = true

	body, err := s.get(ctx, sitemapURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(body); err != nil {
		return nil, fmt.Errorf("parsing sitemap %s: %w", sitemapURL, err)
	}

	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("sitemap %s has no root element", sitemapURL)
	}

	if root.Tag == "sitemapindex" {
		return s.walkIndex(ctx, root, seen)
	}

	return locValues(root, "url"), nil
}

// walkIndex recurses into each child sitemap of a <sitemapindex>.
func (s *SitemapService) walkIndex(ctx context.Context, root *etree.Element, seen map[string]bool) ([]string, error) {
	var all []string
	for _, child := range locValues(root, "sitemap") {
		urls, err := s.walkSitemap(ctx, child, seen)
		if err != nil {
			return nil, err
		}
		all = append(all, urls...)
	}
	return all, nil
}

// locValues collects the trimmed <loc> text of every child element with
// the given tag. Both <urlset> and <sitemapindex> share this shape.
func locValues(root *etree.Element, tag string) []string {
	var values []string
	for _, el := range root.SelectElements(tag) {
		loc := el.SelectElement("loc")
		if loc == nil {
			continue
		}
		if v := strings.TrimSpace(loc.Text()); v != "" {
			values = append(values, v)
		}
	}
	return values
}

// get fetches a URL and returns the response body on 200.
func (s *SitemapService) get(ctx context.Context, targetURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, targetURL)
	}

	return resp.Body, nil
}

// urlExists probes a URL with a HEAD request.
func (s *SitemapService) urlExists(ctx context.Context, targetURL string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, targetURL, nil)
	if err != nil {
		return false, fmt.Errorf("creating request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return false, err
	}
	resp.Body.Close()

	return resp.StatusCode == http.StatusOK, nil
}
