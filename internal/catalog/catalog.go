package catalog

// Catalog is the ordered dataset of known products, unique by id after every
// merge. It is created empty or loaded from a persisted snapshot at startup
// and mutated only through the merger.
type Catalog struct {
	Rows []CatalogRow
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{}
}

// Len reports the number of rows.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Rows)
}

// KnownIDs returns every row id in stable storage order. Rotation sharding
// depends on this enumeration being positional and repeatable.
func (c *Catalog) KnownIDs() []string {
	ids := make([]string, 0, len(c.Rows))
	for _, row := range c.Rows {
		ids = append(ids, row.ID)
	}
	return ids
}

// IDSet returns the row ids as a membership set.
func (c *Catalog) IDSet() map[string]struct{} {
	set := make(map[string]struct{}, len(c.Rows))
	for _, row := range c.Rows {
		set[row.ID] = struct{}{}
	}
	return set
}

// CategorySizes counts rows per category id.
func (c *Catalog) CategorySizes() map[string]int {
	sizes := make(map[string]int)
	for _, row := range c.Rows {
		sizes[row.CategoryID]++
	}
	return sizes
}

// CategoryNames maps category ids to their display names, first occurrence
// wins.
func (c *Catalog) CategoryNames() map[string]string {
	names := make(map[string]string)
	for _, row := range c.Rows {
		if _, ok := names[row.CategoryID]; !ok {
			names[row.CategoryID] = row.CategoryName
		}
	}
	return names
}

// SeedsByCategory returns the first row id seen for each category, used to
// seed discovery crawls from already-known products.
func (c *Catalog) SeedsByCategory() map[string]string {
	seeds := make(map[string]string)
	for _, row := range c.Rows {
		if _, ok := seeds[row.CategoryID]; !ok {
			seeds[row.CategoryID] = row.ID
		}
	}
	return seeds
}
