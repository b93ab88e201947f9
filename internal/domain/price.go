package domain

import "github.com/shopspring/decimal"

// PriceObservation is one price-bearing text fragment scraped from a product
// page, together with the text surrounding it.
type PriceObservation struct {
	Text        string            `json:"text" binding:"required"`
	ParentText  string            `json:"parentText,omitempty"`
	SiblingText string            `json:"siblingText,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
}

// PriceVariant is a price observed next to a size or pack marker
type PriceVariant struct {
	SizeLabel string          `json:"sizeLabel"`
	Price     decimal.Decimal `json:"price"`
}

// PriceExtraction is the outcome of resolving the prices of one product page.
// MainPrice is invalid when no price was found.
type PriceExtraction struct {
	MainPrice      decimal.NullDecimal `json:"mainPrice"`
	AllPrices      []decimal.Decimal   `json:"allPrices"`
	Variants       []PriceVariant      `json:"variants"`
	Confidence     Confidence          `json:"confidence"`
	SelectedReason string              `json:"selectedReason"`
	Warnings       []string            `json:"warnings"`
}

// PackMismatch reports a product whose name implies a multi-pack while the
// resolved prices do not reflect one.
type PackMismatch struct {
	Mismatch bool   `json:"mismatch"`
	Reason   string `json:"reason,omitempty"`
}

// ProductPage is a scraped product detail page handed over for ingestion
type ProductPage struct {
	ID            string             `json:"id,omitempty"`
	Name          string             `json:"name" binding:"required"`
	Brand         string             `json:"brand,omitempty"`
	PackagingUnit string             `json:"packagingUnit,omitempty"`
	Category      string             `json:"category,omitempty"`
	Observations  []PriceObservation `json:"observations" binding:"required,dive"`
}
