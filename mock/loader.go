package mock

import (
	"context"

	"github.com/jlipinski/glean"
)

var _ glean.PageLoader = (*PageLoader)(nil)

// PageLoader is a mock implementation of glean.PageLoader.
type PageLoader struct {
	LoadFn    func(ctx context.Context, url string) (*glean.Page, error)
	LoadAllFn func(ctx context.Context, urls []string, progress glean.FetchProgressFunc) ([]*glean.Page, error)
}

func (l *PageLoader) Load(ctx context.Context, url string) (*glean.Page, error) {
	return l.LoadFn(ctx, url)
}

func (l *PageLoader) LoadAll(ctx context.Context, urls []string, progress glean.FetchProgressFunc) ([]*glean.Page, error) {
	return l.LoadAllFn(ctx, urls, progress)
}
