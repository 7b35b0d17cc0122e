package mock

import "github.com/jlipinski/glean"

var _ glean.Extractor = (*Extractor)(nil)

// Extractor is a mock implementation of glean.Extractor.
type Extractor struct {
	ExtractFn func(html string) (*glean.ExtractResult, error)
}

func (e *Extractor) Extract(html string) (*glean.ExtractResult, error) {
	return e.ExtractFn(html)
}
