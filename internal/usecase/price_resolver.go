package usecase

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/cartwise/backend/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Price bounds and selection thresholds
var (
	maxPlausiblePrice = decimal.NewFromInt(1000)
	minMainPrice      = decimal.NewFromFloat(0.5) // below this, fragments are unit-price noise ("/100g")
	multiPackJump     = decimal.NewFromFloat(1.8) // consecutive price ratio that signals a real pack jump
)

const maxCleanPriceCount = 3

// pricePattern matches decimal prices with exactly two fraction digits
var pricePattern = regexp.MustCompile(`\b(\d+)[.,](\d{2})\b`)

// sizeMarkerPatterns are evaluated in order; the first match labels the variant
var sizeMarkerPatterns = []*regexp.Regexp{
	// "6 x 125g", "2×1l"
	regexp.MustCompile(`(?i)\b\d+\s*[x×]\s*\d+(?:[.,]\d+)?\s*(?:kg|g|ml|cl|l)\b`),
	// "125g x 6"
	regexp.MustCompile(`(?i)\b\d+(?:[.,]\d+)?\s*(?:kg|g|ml|cl|l)\s*[x×]\s*\d+\b`),
	// family and multi-pack keywords
	regexp.MustCompile(`(?i)famil(?:y|le|ien)[\s-]?(?:pack|packung|size)?|multi[\s-]?pack|vorteilspack|grosspackung|lot\s+de\s+\d+`),
	// "6er Pack", "6-pack", "6 pack"
	regexp.MustCompile(`(?i)\b\d+\s*er[\s-]?pack\b|\b\d+[\s-]?pack\b`),
	// piece counts
	regexp.MustCompile(`(?i)\b\d+\s*(?:stück|stk|pièces?|pieces?|pcs?)`),
	// bare weight or volume
	regexp.MustCompile(`(?i)\b\d+(?:[.,]\d+)?\s*(?:kg|g|ml|cl|l)\b`),
	// qualitative size words
	regexp.MustCompile(`(?i)(?:^|[^\p{L}])(small|medium|large|klein|mittel|gross|groß|petit|moyen|grand)(?:[^\p{L}]|$)`),
}

var (
	// multiPackLabelPattern classifies a size label as a bundle rather than a single unit
	multiPackLabelPattern = regexp.MustCompile(`(?i)famil|multi|pack|vorteil|lot\s+de|\d+\s*[x×]|[x×]\s*\d+`)
	pieceCountPattern     = regexp.MustCompile(`(?i)(\d+)\s*(?:stück|stk|pièces?|pieces?|pcs?)`)

	// multiPackNamePattern flags product names that imply a bundle
	multiPackNamePattern = regexp.MustCompile(`(?i)family|multi|pack|\b\d+\s*x(?:\s|\d|$)|\b\d+er\b`)
)

// PriceResolver picks the single-unit price out of the noisy price fragments
// of a product page.
type PriceResolver struct {
	log *zap.SugaredLogger
}

// NewPriceResolver creates a new price resolver
func NewPriceResolver(log *zap.SugaredLogger) *PriceResolver {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &PriceResolver{log: log}
}

// Resolve determines the most plausible unit price among the observations.
// It never fails; ambiguity is reported through Confidence and Warnings.
func (r *PriceResolver) Resolve(observations []domain.PriceObservation) domain.PriceExtraction {
	extraction := domain.PriceExtraction{
		AllPrices: []decimal.Decimal{},
		Variants:  []domain.PriceVariant{},
		Warnings:  []string{},
	}

	// Steps 1-3: extract, label and deduplicate
	var unique []decimal.Decimal
	variantSeen := make(map[string]bool)
	for _, obs := range observations {
		context := observationContext(obs)
		for _, price := range extractPrices(obs.Text) {
			if !containsPrice(unique, price) {
				unique = append(unique, price)
			}
			label := findSizeMarker(context)
			if label == "" {
				continue
			}
			key := label + "|" + price.String()
			if variantSeen[key] {
				continue
			}
			variantSeen[key] = true
			extraction.Variants = append(extraction.Variants, domain.PriceVariant{SizeLabel: label, Price: price})
		}
	}

	sorted := append([]decimal.Decimal(nil), unique...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LessThan(sorted[j]) })
	extraction.AllPrices = append(extraction.AllPrices, sorted...)

	// Step 4: main price selection
	switch {
	case len(unique) == 0:
		extraction.Confidence = domain.ConfidenceLow
		extraction.SelectedReason = "no price found"
	case len(unique) == 1:
		extraction.MainPrice = decimal.NewNullDecimal(unique[0])
		extraction.Confidence = domain.ConfidenceHigh
		extraction.SelectedReason = "only one price found"
	case variantsCoverAllButOne(unique, extraction.Variants):
		price, reason := selectFromVariants(unique, extraction.Variants)
		extraction.MainPrice = decimal.NewNullDecimal(price)
		extraction.Confidence = domain.ConfidenceMedium
		extraction.SelectedReason = reason
	default:
		price, confidence, reason := selectAmbiguous(sorted)
		extraction.MainPrice = decimal.NewNullDecimal(price)
		extraction.Confidence = confidence
		extraction.SelectedReason = reason
	}

	// Step 5: warnings
	if len(unique) == 0 {
		extraction.Warnings = append(extraction.Warnings, "no price found on page")
	}
	if len(unique) > 0 && extraction.Confidence == domain.ConfidenceLow {
		extraction.Warnings = append(extraction.Warnings, "ambiguous pricing: main price selected with low confidence")
	}
	if len(unique) > maxCleanPriceCount {
		extraction.Warnings = append(extraction.Warnings,
			fmt.Sprintf("noisy extraction: %d distinct prices on one page", len(unique)))
	}

	r.log.Debugw("resolved price",
		"prices", len(unique),
		"variants", len(extraction.Variants),
		"confidence", extraction.Confidence,
		"reason", extraction.SelectedReason)

	return extraction
}

// ValidatePackPricing flags a product whose name implies a multi-pack while
// no price point sits below half the main price. A mismatch is a diagnostic,
// not a failure.
func (r *PriceResolver) ValidatePackPricing(productName string, extraction domain.PriceExtraction) domain.PackMismatch {
	marker := multiPackNamePattern.FindString(productName)
	if marker == "" || !extraction.MainPrice.Valid {
		return domain.PackMismatch{}
	}

	half := extraction.MainPrice.Decimal.Div(decimal.NewFromInt(2))
	for _, p := range extraction.AllPrices {
		if p.LessThan(half) {
			return domain.PackMismatch{}
		}
	}

	return domain.PackMismatch{
		Mismatch: true,
		Reason: fmt.Sprintf("name suggests a multi-pack (%q) but no price is below half of %s",
			strings.TrimSpace(marker), extraction.MainPrice.Decimal.StringFixed(2)),
	}
}

// observationContext joins the fragment with its surrounding text. Attribute
// keys are sorted so the context is deterministic.
func observationContext(obs domain.PriceObservation) string {
	parts := []string{obs.Text, obs.ParentText, obs.SiblingText}
	keys := make([]string, 0, len(obs.Attributes))
	for k := range obs.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, obs.Attributes[k])
	}
	return strings.Join(parts, " ")
}

// extractPrices returns the plausible prices (0 < p < 1000) in text
func extractPrices(text string) []decimal.Decimal {
	var prices []decimal.Decimal
	for _, m := range pricePattern.FindAllStringSubmatch(text, -1) {
		whole, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			continue
		}
		cents, err := strconv.ParseInt(m[2], 10, 64)
		if err != nil {
			continue
		}
		price := decimal.New(whole*100+cents, -2)
		if price.Sign() <= 0 || price.GreaterThanOrEqual(maxPlausiblePrice) {
			continue
		}
		prices = append(prices, price)
	}
	return prices
}

// findSizeMarker returns the first size marker found in context, or ""
func findSizeMarker(context string) string {
	for _, p := range sizeMarkerPatterns {
		m := p.FindStringSubmatch(context)
		if m == nil {
			continue
		}
		if len(m) > 1 && m[1] != "" {
			return strings.TrimSpace(m[1])
		}
		return strings.TrimSpace(m[0])
	}
	return ""
}

// isMultiPackLabel reports whether a size label denotes a bundle
func isMultiPackLabel(label string) bool {
	if multiPackLabelPattern.MatchString(label) {
		return true
	}
	if m := pieceCountPattern.FindStringSubmatch(label); m != nil {
		n, err := strconv.Atoi(m[1])
		return err == nil && n > 1
	}
	return false
}

func containsPrice(prices []decimal.Decimal, p decimal.Decimal) bool {
	for _, q := range prices {
		if q.Equal(p) {
			return true
		}
	}
	return false
}

func variantsCoverAllButOne(unique []decimal.Decimal, variants []domain.PriceVariant) bool {
	if len(variants) == 0 {
		return false
	}
	covered := 0
	for _, p := range unique {
		for _, v := range variants {
			if v.Price.Equal(p) {
				covered++
				break
			}
		}
	}
	return covered >= len(unique)-1
}

// selectFromVariants prefers a single-unit variant, then the one price that
// carries no size marker, then the cheapest variant. Variants under the noise
// floor are reference prices ("0.45 / 100g") and never count as single units.
func selectFromVariants(unique []decimal.Decimal, variants []domain.PriceVariant) (decimal.Decimal, string) {
	var best *domain.PriceVariant
	for i := range variants {
		v := variants[i]
		if isMultiPackLabel(v.SizeLabel) || v.Price.LessThan(minMainPrice) {
			continue
		}
		if best == nil || v.Price.LessThan(best.Price) {
			best = &variants[i]
		}
	}
	if best != nil {
		return best.Price, fmt.Sprintf("single-unit variant %q", best.SizeLabel)
	}

	for _, p := range unique {
		marked := false
		for _, v := range variants {
			if v.Price.Equal(p) {
				marked = true
				break
			}
		}
		if !marked {
			return p, "only price without a pack marker"
		}
	}

	cheapest := variants[0]
	for _, v := range variants[1:] {
		if v.Price.LessThan(cheapest.Price) {
			cheapest = v
		}
	}
	return cheapest.Price, fmt.Sprintf("lowest variant price (%s)", cheapest.SizeLabel)
}

// selectAmbiguous takes the lowest price above the noise floor. The pick is
// trusted (medium) only when the sorted prices show a multi-pack jump.
func selectAmbiguous(sorted []decimal.Decimal) (decimal.Decimal, domain.Confidence, string) {
	var plausible []decimal.Decimal
	for _, p := range sorted {
		if p.GreaterThanOrEqual(minMainPrice) {
			plausible = append(plausible, p)
		}
	}
	if len(plausible) == 0 {
		plausible = sorted
	}

	confidence := domain.ConfidenceLow
	for i := 0; i+1 < len(plausible); i++ {
		if plausible[i+1].Div(plausible[i]).GreaterThanOrEqual(multiPackJump) {
			confidence = domain.ConfidenceMedium
			break
		}
	}

	return plausible[0], confidence,
		fmt.Sprintf("lowest of %d plausible prices", len(plausible))
}
