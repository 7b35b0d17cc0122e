// Package bloom deduplicates URLs in bounded memory.
package bloom

import "github.com/bits-and-blooms/bloom/v3"

// Filter tracks seen URLs with a fixed memory footprint. It can report an
// unseen URL as seen (false positive) but never the reverse, so every
// duplicate is caught at the cost of occasionally dropping a fresh URL.
type Filter struct {
	f *bloom.BloomFilter
}

// NewFilter creates a filter sized for n expected URLs with the given
// false positive rate.
func NewFilter(n uint, fpRate float64) *Filter {
	return &Filter{
		f: bloom.NewWithEstimates(n, fpRate),
	}
}

// Seen reports whether the URL was recorded before, recording it as a
// side effect.
func (f *Filter) Seen(url string) bool {
	return f.f.TestAndAddString(url)
}

// EstimatedCount returns the approximate number of recorded URLs.
func (f *Filter) EstimatedCount() uint {
	return uint(f.f.ApproximatedSize())
}
