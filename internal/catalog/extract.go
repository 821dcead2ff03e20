package catalog

import "strings"

// UncategorizedName is the sentinel category name for records that carry an
// empty category list.
const UncategorizedName = "uncategorized"

// Extract maps a raw product record into the normalized row schema. It is a
// pure function: nil in, nil out, and a record missing its id or display name
// also yields nil rather than a partially constructed row. The first category
// entry is taken as the primary category; numeric fields default to zero.
func Extract(rec *ProductRecord) *CatalogRow {
	if rec == nil {
		return nil
	}
	if rec.ID == "" || rec.DisplayName == "" {
		return nil
	}

	categoryID := ""
	categoryName := UncategorizedName
	if len(rec.Categories) > 0 {
		categoryID = string(rec.Categories[0].ID)
		categoryName = rec.Categories[0].Name
	}

	return &CatalogRow{
		ID:            string(rec.ID),
		Name:          rec.DisplayName,
		Slug:          rec.Slug,
		CategoryID:    categoryID,
		CategoryName:  categoryName,
		TotalPrice:    float64(rec.Price.BulkPrice),
		UnitPrice:     float64(rec.Price.UnitPrice),
		UnitOfMeasure: rec.Price.SizeFormat,
		TaxRate:       string(rec.Price.TaxPercentage),
		Packaging:     rec.Packaging,
		Available:     rec.Published,
		URL:           strings.TrimSpace(rec.ShareURL),
	}
}
