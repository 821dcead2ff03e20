// Package merge folds re-verified and newly discovered rows into the
// catalog, keeping it unique by id.
package merge

import (
	"fmt"

	"github.com/JakeFAU/grocery-catalog-crawler/internal/catalog"
)

// Merger merges rows into the dataset and maintains an in-memory index of
// per-category row counts, updated incrementally instead of recomputed by
// full-table scans.
type Merger struct {
	index map[string]int
}

// New creates a Merger with an empty index.
func New() *Merger {
	return &Merger{index: make(map[string]int)}
}

// NewFromCatalog creates a Merger whose index is seeded from an existing
// dataset, typically one just loaded from a snapshot.
func NewFromCatalog(c *catalog.Catalog) *Merger {
	m := New()
	for _, row := range c.Rows {
		m.index[row.CategoryID]++
	}
	return m
}

// CategoryCounts returns the current per-category row counts.
func (m *Merger) CategoryCounts() map[string]int {
	return m.index
}

// Merge removes from existing every row whose id appears in updated, then
// appends updated, then appends fresh. updated and fresh must be disjoint
// by id with no internal duplicates, and fresh ids must be absent from
// existing; violations are reported rather than silently merged twice.
func (m *Merger) Merge(existing *catalog.Catalog, updated, fresh []catalog.CatalogRow) (*catalog.Catalog, error) {
	incoming := make(map[string]struct{}, len(updated)+len(fresh))
	for _, row := range updated {
		if _, dup := incoming[row.ID]; dup {
			return nil, fmt.Errorf("duplicate id %s in updated rows", row.ID)
		}
		incoming[row.ID] = struct{}{}
	}
	for _, row := range fresh {
		if _, dup := incoming[row.ID]; dup {
			return nil, fmt.Errorf("id %s appears in both updated and new rows", row.ID)
		}
		incoming[row.ID] = struct{}{}
	}

	updatedIDs := make(map[string]struct{}, len(updated))
	for _, row := range updated {
		updatedIDs[row.ID] = struct{}{}
	}

	merged := &catalog.Catalog{Rows: make([]catalog.CatalogRow, 0, existing.Len()+len(fresh))}
	existingIDs := make(map[string]struct{}, existing.Len())
	for _, row := range existing.Rows {
		existingIDs[row.ID] = struct{}{}
		if _, replaced := updatedIDs[row.ID]; replaced {
			m.index[row.CategoryID]--
			if m.index[row.CategoryID] <= 0 {
				delete(m.index, row.CategoryID)
			}
			continue
		}
		merged.Rows = append(merged.Rows, row)
	}

	for _, row := range updated {
		merged.Rows = append(merged.Rows, row)
		m.index[row.CategoryID]++
	}
	for _, row := range fresh {
		if _, exists := existingIDs[row.ID]; exists {
			return nil, fmt.Errorf("new row id %s already present in catalog", row.ID)
		}
		merged.Rows = append(merged.Rows, row)
		m.index[row.CategoryID]++
	}

	return merged, nil
}
