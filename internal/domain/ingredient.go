package domain

// NormalizedIngredient is the structured form of one raw ingredient mention.
// CanonicalTerm never contains digits, articles or modifier words.
type NormalizedIngredient struct {
	Original      string   `json:"original"`
	CanonicalTerm string   `json:"canonicalTerm"`
	Quantity      *float64 `json:"quantity,omitempty"`
	Unit          *string  `json:"unit,omitempty"`
	Modifiers     []string `json:"modifiers"`
}

// HasQuantity reports whether a leading quantity was parsed
func (n NormalizedIngredient) HasQuantity() bool {
	return n.Quantity != nil
}

// UnitName returns the parsed unit or an empty string
func (n NormalizedIngredient) UnitName() string {
	if n.Unit == nil {
		return ""
	}
	return *n.Unit
}
