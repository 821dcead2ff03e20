// Package crawler performs bounded breadth-first discovery over the
// related-products graph.
package crawler

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/JakeFAU/grocery-catalog-crawler/internal/catalog"
	"github.com/JakeFAU/grocery-catalog-crawler/internal/limiter"
)

// Store resolves products and related-product lists. Failures are already
// logged and swallowed by the implementation; a miss means "unavailable,
// keep going".
type Store interface {
	Get(ctx context.Context, id string) (*catalog.ProductRecord, []byte, bool)
	Related(ctx context.Context, id string) []string
}

// Result is the outcome of one traversal.
type Result struct {
	Rows           []catalog.CatalogRow
	CategoryCounts map[string]int
	// IncompleteCategories lists categories whose exploration hit their
	// cap while unexplored related ids remained, sorted for determinism.
	IncompleteCategories []string
}

// Crawler drains one FIFO queue per seed, in seed order, under a shared
// global product budget. Traversal is single-threaded and synchronous; the
// store's throttling keeps the request rate polite.
type Crawler struct {
	store  Store
	logger *zap.Logger
}

// New constructs a Crawler.
func New(store Store, logger *zap.Logger) *Crawler {
	return &Crawler{store: store, logger: logger}
}

// Crawl explores from each seed in order. visited is shared across seeds
// and mutated in place, so a caller can pre-load ids that must not be
// re-processed. maxTotal bounds the number of output rows; it is checked
// before every dequeue. The tracker enforces per-category caps.
func (c *Crawler) Crawl(
	ctx context.Context,
	seeds []string,
	visited map[string]struct{},
	maxTotal int,
	tracker *limiter.Tracker,
) (*Result, error) {
	if visited == nil {
		visited = make(map[string]struct{})
	}
	var rows []catalog.CatalogRow

	for _, seed := range seeds {
		seed = catalog.NormalizeID(seed)
		if seed == "" {
			continue
		}
		queue := []string{seed}
		// queued tracks every id ever admitted to this queue so a
		// related id is enqueued at most once.
		queued := map[string]struct{}{seed: {}}

		for len(queue) > 0 {
			if len(rows) >= maxTotal {
				c.logger.Info("global product budget reached", zap.Int("rows", len(rows)))
				return c.result(rows, tracker), nil
			}
			if err := ctx.Err(); err != nil {
				return c.result(rows, tracker), fmt.Errorf("crawl interrupted: %w", err)
			}

			id := queue[0]
			queue = queue[1:]
			if _, seen := visited[id]; seen {
				continue
			}
			visited[id] = struct{}{}

			rec, _, ok := c.store.Get(ctx, id)
			if !ok {
				continue
			}

			row := catalog.Extract(rec)
			if row != nil && tracker.Admit(row.CategoryID, len(queue) > 0) {
				rows = append(rows, *row)
				if len(rows)%20 == 0 {
					c.logger.Info("crawl progress",
						zap.Int("rows", len(rows)),
						zap.String("category", row.CategoryName),
						zap.Int("category_count", tracker.Counts()[row.CategoryID]),
					)
				}
			}

			for _, rid := range c.store.Related(ctx, id) {
				rid = catalog.NormalizeID(rid)
				if rid == "" {
					continue
				}
				if _, seen := visited[rid]; seen {
					continue
				}
				if _, inQueue := queued[rid]; inQueue {
					continue
				}
				queue = append(queue, rid)
				queued[rid] = struct{}{}
			}

			if row != nil {
				tracker.NotePending(row.CategoryID, len(queue) > 0)
			}
		}
	}

	return c.result(rows, tracker), nil
}

func (c *Crawler) result(rows []catalog.CatalogRow, tracker *limiter.Tracker) *Result {
	incomplete := make([]string, 0, len(tracker.Incomplete()))
	for id := range tracker.Incomplete() {
		incomplete = append(incomplete, id)
	}
	sort.Strings(incomplete)
	return &Result{
		Rows:                 rows,
		CategoryCounts:       tracker.Counts(),
		IncompleteCategories: incomplete,
	}
}
