package persist

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/grocery-catalog-crawler/internal/catalog"
)

func testCatalog() *catalog.Catalog {
	return &catalog.Catalog{Rows: []catalog.CatalogRow{
		{
			ID: "100", Name: "Milk, whole", Slug: "milk-whole",
			CategoryID: "112", CategoryName: "Dairy",
			TotalPrice: 1.15, UnitPrice: 1.15, UnitOfMeasure: "l",
			TaxRate: "10.0", Packaging: "Bottle", Available: true,
			URL: "https://tienda.example.com/product/100/milk-whole",
		},
		{
			ID: "200", Name: "Eggs", Slug: "eggs",
			CategoryID: "112", CategoryName: "Dairy",
			TotalPrice: 2.4, UnitPrice: 0.2, UnitOfMeasure: "ud",
			TaxRate: "10.0", Packaging: "Carton", Available: false,
			URL: "https://tienda.example.com/product/200/eggs",
		},
	}}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(Config{Dir: dir}, zap.NewNop())

	at := time.Date(2026, 3, 14, 6, 0, 0, 0, time.UTC)
	snapshot, err := store.Save(testCatalog(), at)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "catalog_20260314_060000.csv"), snapshot)

	loaded, err := Load(snapshot)
	require.NoError(t, err)
	require.Equal(t, testCatalog().Rows, loaded.Rows)

	current, err := Load(store.CurrentPath())
	require.NoError(t, err)
	require.Equal(t, loaded.Rows, current.Rows)
}

func TestSaveWritesHeader(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(Config{Dir: dir}, zap.NewNop())
	_, err := store.Save(&catalog.Catalog{}, time.Now())
	require.NoError(t, err)

	data, err := os.ReadFile(store.CurrentPath())
	require.NoError(t, err)
	first := strings.SplitN(string(data), "\n", 2)[0]
	require.Equal(t, "id,name,slug,category_id,category_name,total_price,unit_price,unit_of_measure,tax_rate,packaging,available,url", first)
}

func TestLoadNormalizesIDColumns(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "edited.csv")
	body := "id,name,slug,category_id,category_name,total_price,unit_price,unit_of_measure,tax_rate,packaging,available,url\n" +
		"100.0,Milk,milk,112.0,Dairy,1.15,1.15,l,10.0,Bottle,true,https://example.com/100\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	require.Len(t, c.Rows, 1)
	require.Equal(t, "100", c.Rows[0].ID)
	require.Equal(t, "112", c.Rows[0].CategoryID)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
}

func TestLoadRejectsRaggedRows(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ragged.csv")
	body := "id,name,slug,category_id,category_name,total_price,unit_price,unit_of_measure,tax_rate,packaging,available,url\n" +
		"100,Milk\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	_, err := Load(path)
	require.Error(t, err)
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(Config{Dir: dir}, zap.NewNop())
	_, err := store.Save(testCatalog(), time.Now())
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		require.False(t, strings.HasPrefix(e.Name(), ".catalog-"), "temp file left behind: %s", e.Name())
	}
}
