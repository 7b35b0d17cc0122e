package mock

import (
	"context"

	"github.com/jlipinski/glean"
)

var _ glean.SitemapService = (*SitemapService)(nil)

// SitemapService is a mock implementation of glean.SitemapService.
type SitemapService struct {
	DiscoverURLsFn func(ctx context.Context, baseURL string, filter *glean.URLFilter) ([]string, error)
}

func (s *SitemapService) DiscoverURLs(ctx context.Context, baseURL string, filter *glean.URLFilter) ([]string, error) {
	return s.DiscoverURLsFn(ctx, baseURL, filter)
}
