package domain

import "github.com/shopspring/decimal"

// CatalogProduct represents one retailer product as stored in the catalog.
// UnitPrice is always the price of a single purchase unit.
type CatalogProduct struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Brand         *string         `json:"brand,omitempty"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`
	PackagingUnit *string         `json:"packagingUnit,omitempty"`
	Category      *string         `json:"category,omitempty"`
}

// BrandName returns the brand or an empty string when the product has none
func (p CatalogProduct) BrandName() string {
	if p.Brand == nil {
		return ""
	}
	return *p.Brand
}

// Packaging returns the packaging unit or an empty string
func (p CatalogProduct) Packaging() string {
	if p.PackagingUnit == nil {
		return ""
	}
	return *p.PackagingUnit
}

// CategoryName returns the category or an empty string
func (p CatalogProduct) CategoryName() string {
	if p.Category == nil {
		return ""
	}
	return *p.Category
}

// OptionalString converts an empty string to nil. Used at the catalog boundary.
func OptionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Confidence is a discretized quality tier for matches and price selections
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// ScoredMatch represents one (ingredient, product) pairing with evidence
type ScoredMatch struct {
	Product    CatalogProduct `json:"product"`
	Score      float64        `json:"score"`
	Confidence Confidence     `json:"confidence"`
	Reason     string         `json:"reason"`
}
