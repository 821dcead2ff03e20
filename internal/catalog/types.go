// Package catalog defines the core types and interfaces for the catalog
// discovery engine. It includes the raw product record decoded from the
// retailer API, the normalized catalog row, and the dataset built from them.
package catalog

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// ProductRecord is the raw product document returned by the retailer API.
// Records are cached verbatim as JSON; this struct is the decoded view used
// by the extractor and the change detector.
type ProductRecord struct {
	ID          ID                `json:"id"`
	DisplayName string            `json:"display_name"`
	Slug        string            `json:"slug"`
	Categories  []CategoryRef     `json:"categories"`
	Price       PriceInstructions `json:"price_instructions"`
	Packaging   string            `json:"packaging"`
	Published   bool              `json:"published"`
	ShareURL    string            `json:"share_url"`
}

// CategoryRef is one entry of a record's ordered category list.
// The first entry is the product's primary category.
type CategoryRef struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

// PriceInstructions carries the price fields of a raw record. The API is
// inconsistent about emitting numbers as JSON numbers or strings, so the
// numeric fields tolerate both.
type PriceInstructions struct {
	BulkPrice     Amount     `json:"bulk_price"`
	UnitPrice     Amount     `json:"unit_price"`
	SizeFormat    string     `json:"size_format"`
	TaxPercentage LooseValue `json:"tax_percentage"`
}

// ID is a canonical product or category identifier. Decoding normalizes
// numeric representations (123, 123.0, "123.0") to the integer string form.
type ID string

// UnmarshalJSON accepts string, number, or null identifiers.
func (id *ID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*id = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = ID(NormalizeID(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decode id %s: %w", data, err)
	}
	*id = ID(NormalizeID(n.String()))
	return nil
}

// Amount is a float64 that tolerates string-encoded numbers and null.
type Amount float64

// UnmarshalJSON accepts 1.95, "1.95", "" and null; absent or empty maps to 0.
func (a *Amount) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*a = 0
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s == "" {
			*a = 0
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("parse amount %q: %w", s, err)
		}
		*a = Amount(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("decode amount %s: %w", data, err)
	}
	*a = Amount(f)
	return nil
}

// LooseValue is a string that tolerates JSON numbers and null, used for
// fields like tax_percentage that the API emits either way.
type LooseValue string

// UnmarshalJSON stores the string form of whatever value was present.
func (v *LooseValue) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = LooseValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decode value %s: %w", data, err)
	}
	*v = LooseValue(n.String())
	return nil
}

// DecodeProduct decodes a raw cached or fetched record.
func DecodeProduct(raw []byte) (*ProductRecord, error) {
	var rec ProductRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode product record: %w", err)
	}
	return &rec, nil
}

// CatalogRow is the normalized row schema persisted in catalog snapshots.
// Identity key is ID; a missing primary category leaves CategoryID empty.
type CatalogRow struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Slug          string  `json:"slug"`
	CategoryID    string  `json:"category_id"`
	CategoryName  string  `json:"category_name"`
	TotalPrice    float64 `json:"total_price"`
	UnitPrice     float64 `json:"unit_price"`
	UnitOfMeasure string  `json:"unit_of_measure"`
	TaxRate       string  `json:"tax_rate"`
	Packaging     string  `json:"packaging"`
	Available     bool    `json:"available"`
	URL           string  `json:"url"`
}
