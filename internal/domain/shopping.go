package domain

import "github.com/shopspring/decimal"

// ShoppingItem is one deduplicated, quantified, priced purchase line.
// TotalPrice is QuantityToBuy * Product.UnitPrice rounded to 2 decimals.
type ShoppingItem struct {
	Product            CatalogProduct  `json:"product"`
	QuantityToBuy      float64         `json:"quantityToBuy"`
	UnitOfPurchase     string          `json:"unitOfPurchase"`
	TotalPrice         decimal.Decimal `json:"totalPrice"`
	MatchedIngredients []string        `json:"matchedIngredients"`
	Confidence         Confidence      `json:"confidence"`
	Reason             string          `json:"reason"`
	QuantityEstimated  bool            `json:"quantityEstimated"`
	QuantityNote       string          `json:"quantityNote,omitempty"`
}

// ItemGroup is a display section of the shopping list
type ItemGroup struct {
	Name  string         `json:"name"`
	Items []ShoppingItem `json:"items"`
}

// ShoppingListOptions controls a shopping list build.
// PeopleCount <= 0 falls back to the reference serving count.
type ShoppingListOptions struct {
	PeopleCount     int                 `json:"peopleCount"`
	Budget          decimal.NullDecimal `json:"budget"`
	PreferredBrands []string            `json:"preferredBrands,omitempty"`
}

// ShoppingListResult is the frozen outcome of a shopping list build
type ShoppingListResult struct {
	ID                   string              `json:"id"`
	Items                []ShoppingItem      `json:"items"`
	Groups               []ItemGroup         `json:"groups"`
	TotalCost            decimal.Decimal     `json:"totalCost"`
	UnmatchedIngredients []string            `json:"unmatchedIngredients"`
	ConfidenceBreakdown  map[Confidence]int  `json:"confidenceBreakdown"`
	WithinBudget         *bool               `json:"withinBudget,omitempty"`
	Savings              decimal.NullDecimal `json:"savings"`
}

// QuantityResult is the outcome of the quantity calculation for one match
type QuantityResult struct {
	QuantityToBuy  float64 `json:"quantityToBuy"`
	UnitOfPurchase string  `json:"unitOfPurchase"`
	LowConfidence  bool    `json:"lowConfidence"`
	Note           string  `json:"note,omitempty"`
}
