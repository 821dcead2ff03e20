// Package persist writes and reads catalog snapshots as CSV files.
// Each cycle produces a timestamped snapshot plus a fixed "current" file so
// downstream consumers always have a stable path to the latest dataset.
package persist

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/grocery-catalog-crawler/internal/catalog"
)

var header = []string{
	"id", "name", "slug", "category_id", "category_name",
	"total_price", "unit_price", "unit_of_measure", "tax_rate",
	"packaging", "available", "url",
}

// Config controls where snapshots are written.
type Config struct {
	Dir         string
	CurrentName string
}

// Store persists catalog snapshots under a directory.
type Store struct {
	cfg    Config
	logger *zap.Logger
}

// NewStore creates a snapshot store. CurrentName defaults to
// catalog_current.csv when empty.
func NewStore(cfg Config, logger *zap.Logger) *Store {
	if cfg.CurrentName == "" {
		cfg.CurrentName = "catalog_current.csv"
	}
	return &Store{cfg: cfg, logger: logger}
}

// CurrentPath returns the path of the fixed current-catalog file.
func (s *Store) CurrentPath() string {
	return filepath.Join(s.cfg.Dir, s.cfg.CurrentName)
}

// Save writes the catalog as a timestamped snapshot and updates the current
// file. Both writes go through a temp file and rename so a crash mid-write
// never leaves a truncated catalog behind. Returns the snapshot path.
func (s *Store) Save(c *catalog.Catalog, at time.Time) (string, error) {
	if err := os.MkdirAll(s.cfg.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create catalog dir: %w", err)
	}

	snapshot := filepath.Join(s.cfg.Dir, fmt.Sprintf("catalog_%s.csv", at.UTC().Format("20060102_150405")))
	if err := s.writeFile(snapshot, c); err != nil {
		return "", err
	}
	if err := s.writeFile(s.CurrentPath(), c); err != nil {
		return "", err
	}
	s.logger.Info("catalog snapshot written",
		zap.String("path", snapshot),
		zap.Int("rows", c.Len()),
	)
	return snapshot, nil
}

func (s *Store) writeFile(path string, c *catalog.Catalog) error {
	tmp, err := os.CreateTemp(s.cfg.Dir, ".catalog-*.csv")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		tmp.Close()
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range c.Rows {
		record := []string{
			row.ID,
			row.Name,
			row.Slug,
			row.CategoryID,
			row.CategoryName,
			strconv.FormatFloat(row.TotalPrice, 'f', -1, 64),
			strconv.FormatFloat(row.UnitPrice, 'f', -1, 64),
			row.UnitOfMeasure,
			row.TaxRate,
			row.Packaging,
			strconv.FormatBool(row.Available),
			row.URL,
		}
		if err := w.Write(record); err != nil {
			tmp.Close()
			return fmt.Errorf("write csv row %s: %w", row.ID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush csv: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("publish snapshot %s: %w", path, err)
	}
	return nil
}

// Load reads a catalog snapshot. Id-like columns are kept as strings and
// normalized, so a snapshot edited by a spreadsheet that rewrote "123" as
// "123.0" round-trips to the canonical form.
func Load(path string) (*catalog.Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(header)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("catalog %s: missing header", path)
	}

	c := &catalog.Catalog{Rows: make([]catalog.CatalogRow, 0, len(records)-1)}
	for i, rec := range records[1:] {
		totalPrice, err := parsePrice(rec[5])
		if err != nil {
			return nil, fmt.Errorf("catalog %s row %d: %w", path, i+2, err)
		}
		unitPrice, err := parsePrice(rec[6])
		if err != nil {
			return nil, fmt.Errorf("catalog %s row %d: %w", path, i+2, err)
		}
		c.Rows = append(c.Rows, catalog.CatalogRow{
			ID:            catalog.NormalizeID(rec[0]),
			Name:          rec[1],
			Slug:          rec[2],
			CategoryID:    catalog.NormalizeID(rec[3]),
			CategoryName:  rec[4],
			TotalPrice:    totalPrice,
			UnitPrice:     unitPrice,
			UnitOfMeasure: rec[7],
			TaxRate:       rec[8],
			Packaging:     rec[9],
			Available:     rec[10] == "true",
			URL:           rec[11],
		})
	}
	return c, nil
}

func parsePrice(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse price %q: %w", s, err)
	}
	return f, nil
}
