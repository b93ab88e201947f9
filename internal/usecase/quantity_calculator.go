package usecase

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/cartwise/backend/internal/domain"
)

const (
	defaultReferenceServings = 4
	defaultPurchaseUnit      = "unité"
	weightPurchaseUnit       = "kg"
	roundingEpsilon          = 1e-9
)

var (
	// "2 x 125g", "6×1l"
	multiPackagingPattern = regexp.MustCompile(`^(\d+)\s*[x×]\s*(\d+(?:[.,]\d+)?)\s*(.+)$`)
	// "500g", "1,5 kg", "6 pièces"
	packagingPattern = regexp.MustCompile(`^(\d+(?:[.,]\d+)?)\s*(.+)$`)
	// "kg", "/kg", "par kg", "au poids", "vrac"
	soldByWeightPattern = regexp.MustCompile(`^(?:(?:/|par|per|au)\s*)?(?:kg|kilo)$|au poids|vrac`)
)

// QuantityCalculator converts a recipe quantity into a number of catalog
// purchase units for a household.
type QuantityCalculator struct {
	vocabulary        Vocabulary
	referenceServings int
}

// NewQuantityCalculator creates a calculator. Recipes are assumed to serve
// referenceServings people; values <= 0 use the default of 4.
func NewQuantityCalculator(vocabulary Vocabulary, referenceServings int) *QuantityCalculator {
	if referenceServings <= 0 {
		referenceServings = defaultReferenceServings
	}
	return &QuantityCalculator{
		vocabulary:        vocabulary,
		referenceServings: referenceServings,
	}
}

// ReferenceServings returns the serving count recipes are assumed to target
func (c *QuantityCalculator) ReferenceServings() int {
	return c.referenceServings
}

// packaging is a parsed packaging unit in base units of its dimension
type packaging struct {
	dim    dimension
	amount float64
}

// ComputeQuantity returns how many units of product to buy for ingredient.
// Incompatible dimensions fall back to one unit flagged as low confidence.
func (c *QuantityCalculator) ComputeQuantity(
	ingredient domain.NormalizedIngredient,
	product domain.CatalogProduct,
	peopleCount int,
) domain.QuantityResult {
	if peopleCount <= 0 {
		peopleCount = c.referenceServings
	}

	packagingLabel := strings.TrimSpace(product.Packaging())
	unitOfPurchase := defaultPurchaseUnit
	if packagingLabel != "" {
		unitOfPurchase = packagingLabel
	}
	soldByWeight := soldByWeightPattern.MatchString(strings.ToLower(packagingLabel))
	if soldByWeight {
		unitOfPurchase = weightPurchaseUnit
	}

	if !ingredient.HasQuantity() {
		return domain.QuantityResult{QuantityToBuy: 1, UnitOfPurchase: unitOfPurchase}
	}

	fallback := func(note string) domain.QuantityResult {
		return domain.QuantityResult{
			QuantityToBuy:  1,
			UnitOfPurchase: unitOfPurchase,
			LowConfidence:  true,
			Note:           note,
		}
	}

	// Bare quantities ("3 oeufs") count pieces
	needDef := unitDef{dim: dimensionCount, factor: 1}
	if unit := ingredient.UnitName(); unit != "" {
		def, ok := c.vocabulary.lookupUnit(unit)
		if !ok {
			return fallback(fmt.Sprintf("unknown unit %q", unit))
		}
		needDef = def
	}

	scale := float64(peopleCount) / float64(c.referenceServings)
	needed := *ingredient.Quantity * needDef.factor * scale

	if soldByWeight {
		if needDef.dim != dimensionMass {
			return fallback(fmt.Sprintf("unit %q cannot be weighed", ingredient.UnitName()))
		}
		kg := math.Ceil(needed-roundingEpsilon) / 1000
		if kg <= 0 {
			kg = 0.001
		}
		return domain.QuantityResult{QuantityToBuy: kg, UnitOfPurchase: unitOfPurchase}
	}

	pack, ok := c.parsePackaging(packagingLabel)
	if !ok {
		return fallback("packaging unit unknown")
	}
	if pack.dim != needDef.dim {
		return fallback(fmt.Sprintf("unit %q incompatible with packaging %q", ingredient.UnitName(), packagingLabel))
	}

	count := math.Ceil(needed/pack.amount - roundingEpsilon)
	if count < 1 {
		count = 1
	}
	return domain.QuantityResult{QuantityToBuy: count, UnitOfPurchase: unitOfPurchase}
}

// parsePackaging reads "500g", "1 kg", "6 pièces", "2 x 125g" or a bare unit
func (c *QuantityCalculator) parsePackaging(label string) (packaging, bool) {
	label = strings.ToLower(strings.TrimSpace(label))
	if label == "" {
		return packaging{}, false
	}

	multiplier := 1.0
	if m := multiPackagingPattern.FindStringSubmatch(label); m != nil {
		n, ok := parseQuantity(m[1])
		if !ok {
			return packaging{}, false
		}
		multiplier = n
		label = m[2] + " " + m[3]
	}

	amount := 1.0
	unit := label
	if m := packagingPattern.FindStringSubmatch(label); m != nil {
		v, ok := parseQuantity(m[1])
		if !ok {
			return packaging{}, false
		}
		amount = v
		unit = m[2]
	}

	def, ok := c.vocabulary.lookupUnit(strings.TrimSpace(unit))
	if !ok || def.dim == dimensionPortion {
		return packaging{}, false
	}
	total := multiplier * amount * def.factor
	if total <= 0 {
		return packaging{}, false
	}
	return packaging{dim: def.dim, amount: total}, true
}
