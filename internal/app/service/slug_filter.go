package service

import (
	"context"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/laghulabs/laghu/internal/app/repository"
)

const (
	filterCapacity      = 1_000_000
	filterFalsePositive = 0.001
)

// SlugFilter keeps a bloom filter over every slug the service has issued so
// the create path can skip the store round trip for slugs that are
// definitely unused. False positives only cost an extra existence probe;
// the filter never decides uniqueness on its own.
type SlugFilter struct {
	mu     sync.RWMutex
	filter *bloom.BloomFilter
}

// NewSlugFilter returns an empty filter sized for the expected link volume.
func NewSlugFilter() *SlugFilter {
	return &SlugFilter{
		filter: bloom.NewWithEstimates(filterCapacity, filterFalsePositive),
	}
}

// Warm seeds the filter with every slug currently in the store.
func (f *SlugFilter) Warm(ctx context.Context, links repository.LinkRepository) error {
	slugs, err := links.ListSlugs(ctx)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, slug := range slugs {
		f.filter.AddString(slug)
	}
	return nil
}

// Add records an issued slug.
func (f *SlugFilter) Add(slug string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filter.AddString(slug)
}

// MayExist reports whether the slug could already be in use. A false result
// is definitive: the slug has never been issued.
func (f *SlugFilter) MayExist(slug string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.filter.TestString(slug)
}
