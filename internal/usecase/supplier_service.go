package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tradeflow/backend/internal/domain"
)

// SupplierServiceConfig holds configuration for the supplier service
type SupplierServiceConfig struct {
	CacheTTL     time.Duration
	DefaultLimit int
	MaxLimit     int
	// EmptyAlarmWindow is how long every search must come back empty before
	// an error is logged. Zero disables the alarm.
	EmptyAlarmWindow time.Duration
}

// SourceInfo describes one registered adapter
type SourceInfo struct {
	Name string `json:"name"`
	Tier string `json:"tier"`
}

// SupplierService fans supplier searches out to adapters and caches the
// merged, price-ranked outcome
type SupplierService struct {
	cache     domain.SearchCache
	adapters  []domain.SupplierAdapter
	sanitizer *QuerySanitizer
	config    SupplierServiceConfig
	logger    *zap.Logger
	now       func() time.Time
	streak    *emptyStreak
}

// NewSupplierService creates a new supplier service. Adapters run in the
// order given; that order breaks price ties.
func NewSupplierService(
	cache domain.SearchCache,
	adapters []domain.SupplierAdapter,
	config SupplierServiceConfig,
	logger *zap.Logger,
) *SupplierService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.CacheTTL <= 0 {
		config.CacheTTL = 15 * time.Minute
	}
	if config.DefaultLimit <= 0 {
		config.DefaultLimit = 10
	}
	if config.MaxLimit <= 0 {
		config.MaxLimit = 50
	}
	if config.DefaultLimit > config.MaxLimit {
		config.DefaultLimit = config.MaxLimit
	}

	logger = logger.Named("suppliers")
	return &SupplierService{
		cache:     cache,
		adapters:  adapters,
		sanitizer: NewQuerySanitizer(logger),
		config:    config,
		logger:    logger,
		now:       time.Now,
		streak:    &emptyStreak{window: config.EmptyAlarmWindow},
	}
}

// Sources lists the registered adapters in invocation order
func (s *SupplierService) Sources() []SourceInfo {
	out := make([]SourceInfo, 0, len(s.adapters))
	for _, a := range s.adapters {
		out = append(out, SourceInfo{Name: a.Name(), Tier: a.Tier().String()})
	}
	return out
}

// SearchSuppliers returns up to limit valid-priced results for query,
// cheapest first. adapterFilter restricts the search to the named sources.
// Flow: sanitize -> check cache -> real-price fan-out -> estimate fallback ->
// filter, sort, truncate -> cache -> return.
//
// Adapter failures never surface here; an empty slice means nothing was found.
// Errors are limited to an unusable query and context cancellation.
func (s *SupplierService) SearchSuppliers(
	ctx context.Context,
	query string,
	limit int,
	adapterFilter []string,
) ([]domain.ProductResult, error) {
	query = s.sanitizer.Sanitize(query)
	if query == "" {
		return nil, domain.ErrInvalidRequest
	}
	limit = s.clampLimit(limit)
	filter := normalizeFilter(adapterFilter)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cacheKey := generateCacheKey(query, limit, filter)

	// Try cache first
	if cached, err := s.cache.Get(ctx, cacheKey); err == nil && cached != nil {
		s.logger.Debug("cache hit", zap.String("key", cacheKey), zap.Int("results", len(cached.Results)))
		return cached.Results, nil
	}

	realTier, estimateTier := s.selectAdapters(filter)
	perAdapter := limit * 2

	valid := filterValid(s.runConcurrent(ctx, realTier, query, perAdapter))

	// at most one estimator contributes, and only when nothing real was found
	if len(valid) == 0 {
		for _, adapter := range estimateTier {
			if ctx.Err() != nil {
				break
			}
			valid = filterValid(s.invoke(ctx, adapter, query, perAdapter))
			if len(valid) > 0 {
				break
			}
		}
	}

	if err := ctx.Err(); err != nil {
		// a cut-short search must not poison the cache
		return nil, err
	}

	sortByPrice(valid)
	if len(valid) > limit {
		valid = valid[:limit]
	}

	if err := s.cache.Set(ctx, cacheKey, &domain.CacheEntry{Results: valid, Timestamp: s.now()}, s.config.CacheTTL); err != nil {
		s.logger.Warn("failed to cache search results", zap.String("key", cacheKey), zap.Error(err))
	}

	s.observeOutcome(query, len(valid), len(realTier)+len(estimateTier))
	return valid, nil
}

// ClearCache drops every memoized search
func (s *SupplierService) ClearCache(ctx context.Context) error {
	if err := s.cache.Clear(ctx); err != nil {
		return fmt.Errorf("clear supplier cache: %w", err)
	}
	s.logger.Info("supplier cache cleared")
	return nil
}

func (s *SupplierService) clampLimit(limit int) int {
	if limit <= 0 {
		return s.config.DefaultLimit
	}
	if limit > s.config.MaxLimit {
		return s.config.MaxLimit
	}
	return limit
}

// selectAdapters splits the active adapters by tier. Unknown filter names
// are ignored.
func (s *SupplierService) selectAdapters(filter []string) (realTier, estimateTier []domain.SupplierAdapter) {
	var allowed map[string]bool
	if len(filter) > 0 {
		allowed = make(map[string]bool, len(filter))
		for _, name := range filter {
			allowed[name] = true
		}
	}

	for _, a := range s.adapters {
		if allowed != nil && !allowed[strings.ToLower(a.Name())] {
			continue
		}
		if a.Tier() == domain.TierEstimate {
			estimateTier = append(estimateTier, a)
		} else {
			realTier = append(realTier, a)
		}
	}
	return realTier, estimateTier
}

// runConcurrent invokes adapters in parallel and concatenates their output
// in registration order
func (s *SupplierService) runConcurrent(ctx context.Context, adapters []domain.SupplierAdapter, query string, limit int) []domain.ProductResult {
	outputs := make([][]domain.ProductResult, len(adapters))

	var g errgroup.Group
	for i, adapter := range adapters {
		g.Go(func() error {
			outputs[i] = s.invoke(ctx, adapter, query, limit)
			return nil
		})
	}
	_ = g.Wait()

	var merged []domain.ProductResult
	for _, out := range outputs {
		merged = append(merged, out...)
	}
	return merged
}

// invoke calls one adapter, absorbing its errors and panics
func (s *SupplierService) invoke(ctx context.Context, adapter domain.SupplierAdapter, query string, limit int) (results []domain.ProductResult) {
	name := adapter.Name()
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%w: %v", errAdapterPanic, r)
			s.logger.Error("adapter panicked",
				zap.String("adapter", name),
				zap.String("kind", string(classifyAdapterError(err))),
				zap.Error(err),
				zap.Stack("stack"),
			)
			results = nil
		}
	}()

	results, err := adapter.Search(ctx, query, limit)
	elapsed := time.Since(start)
	if err != nil {
		s.logger.Warn("adapter failed",
			zap.String("adapter", name),
			zap.String("kind", string(classifyAdapterError(err))),
			zap.Int("partial_results", len(results)),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return results
	}

	s.logger.Debug("adapter finished",
		zap.String("adapter", name),
		zap.Int("results", len(results)),
		zap.Duration("elapsed", elapsed),
	)
	return results
}

// observeOutcome feeds the empty-streak alarm. A single empty search is
// normal; every search staying empty for a whole window is not.
func (s *SupplierService) observeOutcome(query string, results, adapters int) {
	if adapters == 0 {
		return
	}
	since, alarm := s.streak.observe(s.now(), results == 0)
	if alarm {
		s.logger.Error("all supplier sources returning no results",
			zap.Time("empty_since", since),
			zap.Duration("window", s.streak.window),
			zap.String("last_query", query),
		)
	}
}

// filterValid keeps results with a positive price
func filterValid(results []domain.ProductResult) []domain.ProductResult {
	valid := make([]domain.ProductResult, 0, len(results))
	for _, r := range results {
		if r.HasValidPrice() {
			valid = append(valid, r)
		}
	}
	return valid
}

// sortByPrice orders ascending by price; ties keep adapter order
func sortByPrice(results []domain.ProductResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return *results[i].Price < *results[j].Price
	})
}

// normalizeFilter lower-cases, trims, de-duplicates and sorts adapter names
func normalizeFilter(filter []string) []string {
	if len(filter) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(filter))
	out := make([]string, 0, len(filter))
	for _, name := range filter {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// generateCacheKey creates a cache key from the search parameters.
// Format: "suppliers:{lower(query)}:{limit}:{sorted,filter}"
func generateCacheKey(query string, limit int, filter []string) string {
	return fmt.Sprintf("suppliers:%s:%d:%s", strings.ToLower(query), limit, strings.Join(filter, ","))
}

// emptyStreak tracks how long every search has come back empty
type emptyStreak struct {
	mu        sync.Mutex
	window    time.Duration
	since     time.Time
	alarmedAt time.Time
}

// observe records one search outcome and reports whether to alarm now.
// It fires at most once per window while the streak lasts.
func (e *emptyStreak) observe(now time.Time, empty bool) (time.Time, bool) {
	if e.window <= 0 {
		return time.Time{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if !empty {
		e.since = time.Time{}
		e.alarmedAt = time.Time{}
		return time.Time{}, false
	}
	if e.since.IsZero() {
		e.since = now
	}
	if now.Sub(e.since) < e.window {
		return e.since, false
	}
	if !e.alarmedAt.IsZero() && now.Sub(e.alarmedAt) < e.window {
		return e.since, false
	}
	e.alarmedAt = now
	return e.since, true
}
