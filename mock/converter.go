package mock

import "github.com/jlipinski/glean"

var _ glean.Converter = (*Converter)(nil)

// Converter is a mock implementation of glean.Converter.
type Converter struct {
	ConvertFn func(html string) (string, error)
}

func (c *Converter) Convert(html string) (string, error) {
	return c.ConvertFn(html)
}
