// Package store implements the cache-first product store used by the
// crawler and the change detector.
package store

import (
	"context"

	"go.uber.org/zap"

	"github.com/JakeFAU/grocery-catalog-crawler/internal/catalog"
	"github.com/JakeFAU/grocery-catalog-crawler/internal/metrics"
)

// ProductStore resolves product records, consulting the durable cache before
// the remote API. A cache miss triggers a rate-limited fetch whose response
// is cached verbatim before being returned.
type ProductStore struct {
	cache  catalog.CacheStore
	source catalog.ProductSource
	logger *zap.Logger
}

// New constructs a ProductStore.
func New(cache catalog.CacheStore, source catalog.ProductSource, logger *zap.Logger) *ProductStore {
	return &ProductStore{
		cache:  cache,
		source: source,
		logger: logger,
	}
}

// Get returns the decoded record and its raw bytes for id, or (nil, nil,
// false) when the product is unavailable. Callers must treat a miss as
// "sibling or product unavailable", never as fatal: every failure is logged
// here and swallowed.
func (s *ProductStore) Get(ctx context.Context, id string) (*catalog.ProductRecord, []byte, bool) {
	clean := catalog.NormalizeID(id)
	if clean == "" {
		return nil, nil, false
	}

	raw, hit, err := s.cache.Get(ctx, clean)
	if err != nil {
		s.logger.Warn("cache read failed", zap.String("product_id", clean), zap.Error(err))
		hit = false
	}
	metrics.ObserveCacheLookup(hit)

	if !hit {
		raw, err = s.source.Product(ctx, clean)
		if err != nil {
			metrics.ObserveFetch("product", "error")
			s.logger.Info("product fetch failed", zap.String("product_id", clean), zap.Error(err))
			return nil, nil, false
		}
		metrics.ObserveFetch("product", "ok")
		if err := s.cache.Put(ctx, clean, raw); err != nil {
			// A failed cache write only costs a refetch next run.
			s.logger.Warn("cache write failed", zap.String("product_id", clean), zap.Error(err))
		}
	}

	rec, err := catalog.DecodeProduct(raw)
	if err != nil {
		s.logger.Warn("malformed product record", zap.String("product_id", clean), zap.Error(err))
		return nil, nil, false
	}
	return rec, raw, true
}

// Cached returns the raw cached record for id without touching the API,
// reporting whether an entry exists. The change detector compares against
// this prior version.
func (s *ProductStore) Cached(ctx context.Context, id string) ([]byte, bool) {
	clean := catalog.NormalizeID(id)
	if clean == "" {
		return nil, false
	}
	raw, ok, err := s.cache.Get(ctx, clean)
	if err != nil {
		s.logger.Warn("cache read failed", zap.String("product_id", clean), zap.Error(err))
		return nil, false
	}
	return raw, ok
}

// Fetch bypasses the cache, fetches a fresh record from the API, and
// returns it without storing it. Re-verification uses this so the cached
// copy still holds the prior version for comparison; call Refresh afterwards
// to commit the new version.
func (s *ProductStore) Fetch(ctx context.Context, id string) (*catalog.ProductRecord, []byte, bool) {
	clean := catalog.NormalizeID(id)
	if clean == "" {
		return nil, nil, false
	}
	raw, err := s.source.Product(ctx, clean)
	if err != nil {
		metrics.ObserveFetch("product", "error")
		s.logger.Info("product fetch failed", zap.String("product_id", clean), zap.Error(err))
		return nil, nil, false
	}
	metrics.ObserveFetch("product", "ok")
	rec, err := catalog.DecodeProduct(raw)
	if err != nil {
		s.logger.Warn("malformed product record", zap.String("product_id", clean), zap.Error(err))
		return nil, nil, false
	}
	return rec, raw, true
}

// Refresh overwrites the cached entry for id with the given raw record.
func (s *ProductStore) Refresh(ctx context.Context, id string, raw []byte) {
	clean := catalog.NormalizeID(id)
	if clean == "" {
		return
	}
	if err := s.cache.Put(ctx, clean, raw); err != nil {
		s.logger.Warn("cache write failed", zap.String("product_id", clean), zap.Error(err))
	}
}

// Related returns the related-product ids for id, or nil on failure
// (logged, non-fatal).
func (s *ProductStore) Related(ctx context.Context, id string) []string {
	clean := catalog.NormalizeID(id)
	if clean == "" {
		return nil
	}
	ids, err := s.source.Related(ctx, clean)
	if err != nil {
		metrics.ObserveFetch("related", "error")
		s.logger.Info("related list fetch failed", zap.String("product_id", clean), zap.Error(err))
		return nil
	}
	metrics.ObserveFetch("related", "ok")
	return ids
}
