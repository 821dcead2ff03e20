// Package change decides whether a freshly fetched product record
// represents a material update over its cached version.
package change

import (
	"context"

	"go.uber.org/zap"

	"github.com/JakeFAU/grocery-catalog-crawler/internal/catalog"
)

// CacheReader exposes the prior cached version of a record.
type CacheReader interface {
	Cached(ctx context.Context, id string) ([]byte, bool)
}

// Detector compares raw records, not normalized rows. It is a deliberately
// coarse filter: only bulk price, published flag, and display name count as
// material changes.
type Detector struct {
	cache  CacheReader
	logger *zap.Logger
}

// New constructs a Detector.
func New(cache CacheReader, logger *zap.Logger) *Detector {
	return &Detector{cache: cache, logger: logger}
}

// IsUpdated reports whether fresh differs materially from the cached record
// for id. A missing or undecodable cache entry is conservatively treated as
// changed.
func (d *Detector) IsUpdated(ctx context.Context, id string, fresh *catalog.ProductRecord) bool {
	raw, ok := d.cache.Cached(ctx, id)
	if !ok {
		return true
	}
	prev, err := catalog.DecodeProduct(raw)
	if err != nil {
		d.logger.Warn("undecodable cached record, treating as changed",
			zap.String("product_id", id), zap.Error(err))
		return true
	}
	return prev.Price.BulkPrice != fresh.Price.BulkPrice ||
		prev.Published != fresh.Published ||
		prev.DisplayName != fresh.DisplayName
}
