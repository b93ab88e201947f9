package usecase

import (
	"strings"
	"testing"

	"github.com/cartwise/backend/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustPrice(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestResolve(t *testing.T) {
	resolver := NewPriceResolver(nil)

	testCases := []struct {
		name           string
		observations   []domain.PriceObservation
		wantPrice      string
		wantConfidence domain.Confidence
		wantReason     string
		wantWarnings   []string
	}{
		{
			name:           "single price",
			observations:   []domain.PriceObservation{{Text: "12,50 €"}},
			wantPrice:      "12.50",
			wantConfidence: domain.ConfidenceHigh,
			wantReason:     "only one price found",
			wantWarnings:   []string{},
		},
		{
			name: "same price twice is one price",
			observations: []domain.PriceObservation{
				{Text: "3,49 €"},
				{Text: "CHF 3.49"},
			},
			wantPrice:      "3.49",
			wantConfidence: domain.ConfidenceHigh,
			wantReason:     "only one price found",
			wantWarnings:   []string{},
		},
		{
			name: "single unit preferred over multi-pack",
			observations: []domain.PriceObservation{
				{Text: "3,49 €", ParentText: "Joghurt Natur 500g"},
				{Text: "9,99 €", ParentText: "6er Pack"},
			},
			wantPrice:      "3.49",
			wantConfidence: domain.ConfidenceMedium,
			wantReason:     `single-unit variant "500g"`,
			wantWarnings:   []string{},
		},
		{
			name: "unmarked price beats lot",
			observations: []domain.PriceObservation{
				{Text: "2,99 €"},
				{Text: "14,99 €", ParentText: "Lot de 6"},
			},
			wantPrice:      "2.99",
			wantConfidence: domain.ConfidenceMedium,
			wantReason:     "only price without a pack marker",
			wantWarnings:   []string{},
		},
		{
			name: "unmarked price beats 6er Pack",
			observations: []domain.PriceObservation{
				{Text: "4,99 €", ParentText: "6er Pack"},
				{Text: "0,95 €"},
			},
			wantPrice:      "0.95",
			wantConfidence: domain.ConfidenceMedium,
			wantReason:     "only price without a pack marker",
			wantWarnings:   []string{},
		},
		{
			name: "reference price per 100g is ignored",
			observations: []domain.PriceObservation{
				{Text: "4,50 €"},
				{Text: "0,45 € / 100g"},
			},
			wantPrice:      "4.50",
			wantConfidence: domain.ConfidenceMedium,
			wantReason:     "only price without a pack marker",
			wantWarnings:   []string{},
		},
		{
			name: "size marker in attributes",
			observations: []domain.PriceObservation{
				{Text: "1,95 €", Attributes: map[string]string{"data-size": "250 g"}},
				{Text: "6,90 €", Attributes: map[string]string{"data-size": "4 x 250g"}},
			},
			wantPrice:      "1.95",
			wantConfidence: domain.ConfidenceMedium,
			wantReason:     `single-unit variant "250 g"`,
			wantWarnings:   []string{},
		},
		{
			name: "clear pack jump gives medium confidence",
			observations: []domain.PriceObservation{
				{Text: "1,99 €"},
				{Text: "4,29 €"},
			},
			wantPrice:      "1.99",
			wantConfidence: domain.ConfidenceMedium,
			wantReason:     "lowest of 2 plausible prices",
			wantWarnings:   []string{},
		},
		{
			name: "close prices are ambiguous",
			observations: []domain.PriceObservation{
				{Text: "2,49 €"},
				{Text: "2,99 €"},
			},
			wantPrice:      "2.49",
			wantConfidence: domain.ConfidenceLow,
			wantReason:     "lowest of 2 plausible prices",
			wantWarnings:   []string{"ambiguous pricing: main price selected with low confidence"},
		},
		{
			name:           "noisy page",
			observations:   []domain.PriceObservation{{Text: "1,10 € 2,20 € 3,30 € 4,40 €"}},
			wantPrice:      "1.10",
			wantConfidence: domain.ConfidenceMedium,
			wantReason:     "lowest of 4 plausible prices",
			wantWarnings:   []string{"noisy extraction: 4 distinct prices on one page"},
		},
		{
			name:           "no price text",
			observations:   []domain.PriceObservation{{Text: "Prix indisponible"}},
			wantConfidence: domain.ConfidenceLow,
			wantReason:     "no price found",
			wantWarnings:   []string{"no price found on page"},
		},
		{
			name:           "implausible prices are dropped",
			observations:   []domain.PriceObservation{{Text: "1500,00 € 0,00 €"}},
			wantConfidence: domain.ConfidenceLow,
			wantReason:     "no price found",
			wantWarnings:   []string{"no price found on page"},
		},
		{
			name:           "no observations",
			observations:   nil,
			wantConfidence: domain.ConfidenceLow,
			wantReason:     "no price found",
			wantWarnings:   []string{"no price found on page"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := resolver.Resolve(tc.observations)

			if tc.wantPrice == "" {
				assert.False(t, got.MainPrice.Valid, "MainPrice should be unset")
			} else {
				require.True(t, got.MainPrice.Valid, "MainPrice should be set")
				assert.True(t, got.MainPrice.Decimal.Equal(mustPrice(tc.wantPrice)),
					"MainPrice = %s, want %s", got.MainPrice.Decimal, tc.wantPrice)
			}
			if got.Confidence != tc.wantConfidence {
				t.Errorf("Confidence = %v, want %v", got.Confidence, tc.wantConfidence)
			}
			if got.SelectedReason != tc.wantReason {
				t.Errorf("SelectedReason = %q, want %q", got.SelectedReason, tc.wantReason)
			}
			assert.Equal(t, tc.wantWarnings, got.Warnings)
		})
	}
}

func TestResolve_AllPricesSortedAndDeduplicated(t *testing.T) {
	resolver := NewPriceResolver(nil)

	got := resolver.Resolve([]domain.PriceObservation{
		{Text: "4,29 €"},
		{Text: "1,99 €"},
		{Text: "4.29"},
	})

	require.Len(t, got.AllPrices, 2)
	assert.True(t, got.AllPrices[0].Equal(mustPrice("1.99")))
	assert.True(t, got.AllPrices[1].Equal(mustPrice("4.29")))
	assert.Empty(t, got.Variants)
}

func TestResolve_Variants(t *testing.T) {
	resolver := NewPriceResolver(nil)

	got := resolver.Resolve([]domain.PriceObservation{
		{Text: "3,49 €", ParentText: "Joghurt Natur 500g"},
		{Text: "9,99 €", ParentText: "6er Pack"},
		{Text: "9,99 €", ParentText: "6er Pack"},
	})

	require.Len(t, got.Variants, 2)
	assert.Equal(t, "500g", got.Variants[0].SizeLabel)
	assert.True(t, got.Variants[0].Price.Equal(mustPrice("3.49")))
	assert.Equal(t, "6er Pack", got.Variants[1].SizeLabel)
	assert.True(t, got.Variants[1].Price.Equal(mustPrice("9.99")))
}

func TestValidatePackPricing(t *testing.T) {
	resolver := NewPriceResolver(nil)

	extraction := func(main string, all ...string) domain.PriceExtraction {
		e := domain.PriceExtraction{}
		if main != "" {
			e.MainPrice = decimal.NewNullDecimal(mustPrice(main))
		}
		for _, p := range all {
			e.AllPrices = append(e.AllPrices, mustPrice(p))
		}
		return e
	}

	t.Run("pack name without a cheaper unit price", func(t *testing.T) {
		got := resolver.ValidatePackPricing("Joghurt 6er Pack", extraction("9.99", "9.99"))
		assert.True(t, got.Mismatch)
		assert.True(t, strings.Contains(got.Reason, "6er"), "reason %q should name the marker", got.Reason)
		assert.Contains(t, got.Reason, "9.99")
	})

	t.Run("pack name with a unit price below half", func(t *testing.T) {
		got := resolver.ValidatePackPricing("Joghurt 6er Pack", extraction("9.99", "3.49", "9.99"))
		assert.False(t, got.Mismatch)
	})

	t.Run("multiplication marker", func(t *testing.T) {
		got := resolver.ValidatePackPricing("Eistee 6 x 1,5l", extraction("5.40", "5.40"))
		assert.True(t, got.Mismatch)
	})

	t.Run("plain product name", func(t *testing.T) {
		got := resolver.ValidatePackPricing("Joghurt Natur", extraction("3.49", "3.49"))
		assert.Equal(t, domain.PackMismatch{}, got)
	})

	t.Run("no main price", func(t *testing.T) {
		got := resolver.ValidatePackPricing("Family Pack Chips", extraction(""))
		assert.False(t, got.Mismatch)
	})
}

func TestIsMultiPackLabel(t *testing.T) {
	testCases := []struct {
		label string
		want  bool
	}{
		{"500g", false},
		{"6er Pack", true},
		{"4 x 250g", true},
		{"125g x 6", true},
		{"Lot de 3", true},
		{"family pack", true},
		{"1 pièce", false},
		{"6 pièces", true},
		{"grand", false},
	}

	for _, tc := range testCases {
		t.Run(tc.label, func(t *testing.T) {
			if got := isMultiPackLabel(tc.label); got != tc.want {
				t.Errorf("isMultiPackLabel(%q) = %v, want %v", tc.label, got, tc.want)
			}
		})
	}
}
