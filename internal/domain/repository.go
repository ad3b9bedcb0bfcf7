package domain

import (
	"context"
	"time"
)

// AdapterTier orders adapters in the degradation ladder
type AdapterTier int

const (
	// TierRealPrice adapters return observed prices and always run
	TierRealPrice AdapterTier = iota
	// TierEstimate adapters only run when the real-price tier yields nothing
	TierEstimate
)

func (t AdapterTier) String() string {
	if t == TierEstimate {
		return "estimate"
	}
	return "real-price"
}

// SupplierAdapter wraps one acquisition strategy behind a common search contract.
//
// Search always returns a non-nil slice. A non-nil error explains why the
// source failed or was cut short; any results returned alongside it are
// still usable.
type SupplierAdapter interface {
	Name() string
	Tier() AdapterTier
	Search(ctx context.Context, query string, limit int) ([]ProductResult, error)
}

// CacheEntry is a memoized search outcome
type CacheEntry struct {
	Results   []ProductResult `json:"results"`
	Timestamp time.Time       `json:"timestamp"`
}

// SearchCache defines the interface for caching search outcomes
type SearchCache interface {
	Get(ctx context.Context, key string) (*CacheEntry, error)
	Set(ctx context.Context, key string, entry *CacheEntry, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
