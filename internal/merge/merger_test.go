package merge

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/grocery-catalog-crawler/internal/catalog"
)

func row(id, categoryID, name string) catalog.CatalogRow {
	return catalog.CatalogRow{ID: id, Name: name, CategoryID: categoryID, CategoryName: "cat-" + categoryID}
}

func TestMergeReplacesUpdatedRows(t *testing.T) {
	existing := &catalog.Catalog{Rows: []catalog.CatalogRow{
		row("100", "A", "Milk"),
		row("200", "A", "Eggs"),
		row("300", "B", "Bread"),
	}}

	m := NewFromCatalog(existing)
	merged, err := m.Merge(existing,
		[]catalog.CatalogRow{row("200", "A", "Eggs XL")},
		[]catalog.CatalogRow{row("400", "B", "Butter")},
	)
	require.NoError(t, err)
	require.Len(t, merged.Rows, 4)

	byID := make(map[string]catalog.CatalogRow)
	for _, r := range merged.Rows {
		byID[r.ID] = r
	}
	require.Len(t, byID, 4, "merged catalog must be unique by id")
	require.Equal(t, "Eggs XL", byID["200"].Name)
	require.Equal(t, "Butter", byID["400"].Name)
	require.Equal(t, "Milk", byID["100"].Name)
}

func TestMergeMaintainsCategoryIndex(t *testing.T) {
	existing := &catalog.Catalog{Rows: []catalog.CatalogRow{
		row("100", "A", "Milk"),
		row("200", "A", "Eggs"),
		row("300", "B", "Bread"),
	}}

	m := NewFromCatalog(existing)
	require.Equal(t, map[string]int{"A": 2, "B": 1}, m.CategoryCounts())

	// Updated row moves from category A to category C.
	moved := row("200", "C", "Eggs XL")
	_, err := m.Merge(existing, []catalog.CatalogRow{moved}, []catalog.CatalogRow{row("400", "B", "Butter")})
	require.NoError(t, err)
	require.Equal(t, map[string]int{"A": 1, "B": 2, "C": 1}, m.CategoryCounts())
}

func TestMergeEmptyInputsIsIdentity(t *testing.T) {
	existing := &catalog.Catalog{Rows: []catalog.CatalogRow{
		row("100", "A", "Milk"),
	}}
	m := NewFromCatalog(existing)
	merged, err := m.Merge(existing, nil, nil)
	require.NoError(t, err)
	require.Equal(t, existing.Rows, merged.Rows)
}

func TestMergeRejectsOverlappingInputs(t *testing.T) {
	existing := &catalog.Catalog{Rows: []catalog.CatalogRow{row("100", "A", "Milk")}}

	m := NewFromCatalog(existing)
	_, err := m.Merge(existing,
		[]catalog.CatalogRow{row("100", "A", "Milk v2")},
		[]catalog.CatalogRow{row("100", "A", "Milk v3")},
	)
	require.Error(t, err)

	m = NewFromCatalog(existing)
	_, err = m.Merge(existing, nil, []catalog.CatalogRow{row("100", "A", "Milk again")})
	require.Error(t, err, "new rows must not collide with existing ids")

	m = NewFromCatalog(existing)
	_, err = m.Merge(existing,
		[]catalog.CatalogRow{row("200", "A", "Eggs"), row("200", "A", "Eggs dup")},
		nil,
	)
	require.Error(t, err)
}

func TestMergeIndexDropsEmptiedCategories(t *testing.T) {
	existing := &catalog.Catalog{Rows: []catalog.CatalogRow{row("100", "A", "Milk")}}
	m := NewFromCatalog(existing)
	_, err := m.Merge(existing, []catalog.CatalogRow{row("100", "B", "Milk")}, nil)
	require.NoError(t, err)
	counts := m.CategoryCounts()
	_, ok := counts["A"]
	require.False(t, ok)
	require.Equal(t, 1, counts["B"])
}
