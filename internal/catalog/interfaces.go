package catalog

import (
	"context"
	"io"
	"time"
)

// CacheStore persists raw product records keyed by normalized id. Entries
// survive process restarts; a warm cache lets a crawl resume without
// re-fetching products already seen.
type CacheStore interface {
	Get(ctx context.Context, id string) ([]byte, bool, error)
	Put(ctx context.Context, id string, data []byte) error
}

// ProductSource fetches live product data from the remote retailer API.
// Product returns the raw JSON document so it can be cached verbatim.
type ProductSource interface {
	Product(ctx context.Context, id string) ([]byte, error)
	Related(ctx context.Context, id string) ([]string, error)
}

// BlobStore writes artifacts (snapshots, reports) and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data io.Reader) (string, error)
}

// Publisher pushes cycle-completion events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
