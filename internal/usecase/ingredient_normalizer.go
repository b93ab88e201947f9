package usecase

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/cartwise/backend/internal/domain"
	"github.com/cartwise/backend/internal/pkg/textutil"
	"go.uber.org/zap"
)

var (
	// Contracted articles glued to the next word: "d'ail", "l’huile", "qu'un"
	elisionPattern = regexp.MustCompile(`(?i)\b(?:d|l|qu|j)['’]`)

	// Anything that is not a letter, digit, hyphen or whitespace
	ingredientPunctuationPattern = regexp.MustCompile(`[^\p{L}\p{N}\s-]`)
)

// IngredientNormalizer parses raw recipe ingredients into NormalizedIngredient.
// It is safe for concurrent use.
type IngredientNormalizer struct {
	vocabulary      Vocabulary
	quantityPattern *regexp.Regexp
	log             *zap.SugaredLogger
}

// NewIngredientNormalizer creates a normalizer over the given vocabulary
func NewIngredientNormalizer(vocabulary Vocabulary, log *zap.SugaredLogger) *IngredientNormalizer {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &IngredientNormalizer{
		vocabulary:      vocabulary,
		quantityPattern: buildQuantityPattern(vocabulary),
		log:             log,
	}
}

// buildQuantityPattern matches a leading "<number> <unit>?" span. Units are
// tried longest first so "gousses" wins over "g", in both their written and
// accent-free spellings. A unit must not run into a following letter.
func buildQuantityPattern(vocabulary Vocabulary) *regexp.Regexp {
	seen := make(map[string]bool)
	var units []string
	for u := range vocabulary.units {
		for _, form := range []string{u, textutil.Fold(u)} {
			if form != "" && !seen[form] {
				seen[form] = true
				units = append(units, form)
			}
		}
	}
	sort.Slice(units, func(i, j int) bool {
		if len(units[i]) != len(units[j]) {
			return len(units[i]) > len(units[j])
		}
		return units[i] < units[j]
	})
	quoted := make([]string, len(units))
	for i, u := range units {
		quoted[i] = regexp.QuoteMeta(u)
	}
	return regexp.MustCompile(`^(\d+(?:[.,]\d+)?(?:/\d+)?)\s*(` + strings.Join(quoted, "|") + `)?(?:[^\p{L}]|$)`)
}

// Normalize parses raw into a NormalizedIngredient. It never fails: text the
// quantity pattern does not recognize is kept as an unquantified term.
func (n *IngredientNormalizer) Normalize(raw string) domain.NormalizedIngredient {
	result := domain.NormalizedIngredient{
		Original:  raw,
		Modifiers: []string{},
	}

	working := strings.ToLower(strings.TrimSpace(raw))

	// Step 1: leading quantity and unit
	if m := n.quantityPattern.FindStringSubmatchIndex(working); m != nil {
		if qty, ok := parseQuantity(working[m[2]:m[3]]); ok {
			result.Quantity = &qty
			if m[4] >= 0 {
				unit := working[m[4]:m[5]]
				result.Unit = &unit
			}
			working = working[m[1]:]
		}
	}

	// Step 2: modifiers, articles and prepositions, stray numbers
	var kept []string
	seen := make(map[string]bool)
	for _, token := range ingredientTokens(working) {
		switch {
		case n.vocabulary.modifiers[token]:
			if !seen[token] {
				result.Modifiers = append(result.Modifiers, token)
				seen[token] = true
			}
		case n.vocabulary.stopWords[token]:
		case strings.IndexFunc(token, unicode.IsDigit) >= 0:
		default:
			kept = append(kept, token)
		}
	}

	result.CanonicalTerm = strings.Join(kept, " ")
	if result.CanonicalTerm == "" {
		// Nothing survived: the text after the quantity is the term
		result.CanonicalTerm = n.fallbackTerm(working)
		result.Modifiers = []string{}
	}

	n.log.Debugw("normalized ingredient",
		"original", raw,
		"term", result.CanonicalTerm,
		"unit", result.UnitName(),
		"modifiers", result.Modifiers)

	return result
}

// parseQuantity reads "200", "1,5", "1.5" or "1/2"
func parseQuantity(s string) (float64, bool) {
	s = strings.ReplaceAll(s, ",", ".")
	if num, den, ok := strings.Cut(s, "/"); ok {
		a, err1 := strconv.ParseFloat(num, 64)
		b, err2 := strconv.ParseFloat(den, 64)
		if err1 != nil || err2 != nil || b == 0 {
			return 0, false
		}
		return a / b, true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ingredientTokens splits elisions and drops punctuation
func ingredientTokens(s string) []string {
	s = elisionPattern.ReplaceAllString(s, " ")
	s = ingredientPunctuationPattern.ReplaceAllString(s, " ")
	return strings.Fields(s)
}

// fallbackTerm keeps modifier words when they are all that is left, then
// settles for the bare text without digits or punctuation.
func (n *IngredientNormalizer) fallbackTerm(text string) string {
	var kept []string
	for _, token := range ingredientTokens(text) {
		if n.vocabulary.stopWords[token] || strings.IndexFunc(token, unicode.IsDigit) >= 0 {
			continue
		}
		kept = append(kept, token)
	}
	if len(kept) > 0 {
		return strings.Join(kept, " ")
	}
	return stripDigits(ingredientPunctuationPattern.ReplaceAllString(text, " "))
}

func stripDigits(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}
