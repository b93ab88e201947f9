package usecase

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/cartwise/backend/internal/domain"
	"github.com/cartwise/backend/internal/pkg/textutil"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Rule scores
const (
	scoreExact              = 1.0
	scoreRecipeSubstring    = 0.9 // product name contains the recipe ingredient
	scoreSearchSubstring    = 0.8 // product name contains the free-text search query
	scoreReverseSubstring   = 0.8 // ingredient absorbs the product name
	scoreBrandInText        = 0.7
	scoreOverlapFloor       = 0.1
	preferredBrandBoost     = 0.2
	fuzzyWeightFactor       = 0.8 // fuzzy word matches get 80% of normal weight
	fuzzyEditDistance       = 2
	fuzzyMinWordLength      = 5 // fuzzy tolerance applies to words longer than 4 runes
	overlapMinWordLength    = 3
	searchTermMinWordLength = 3 // sub-tokens must be longer than 2 runes
)

// Confidence thresholds
const (
	highConfidenceScore   = 0.8
	mediumConfidenceScore = 0.5
)

// MatchOptions controls one match call
type MatchOptions struct {
	MaxResults      int
	MinScore        float64
	PreferredBrands []string
	MaxPrice        decimal.NullDecimal
	Category        string
}

// MatchConfig holds configuration for the matching service
type MatchConfig struct {
	DefaultMaxResults  int
	EnableDebugLogging bool
}

// MatchingService retrieves catalog candidates for an ingredient and scores
// them with an ordered list of rules.
type MatchingService struct {
	vocabulary         Vocabulary
	normalizer         *IngredientNormalizer
	recipeRules        []scoringRule
	searchRules        []scoringRule
	defaultMaxResults  int
	enableDebugLogging bool
	log                *zap.SugaredLogger
}

// NewMatchingService creates a new matching service with the given configuration
func NewMatchingService(vocabulary Vocabulary, config MatchConfig, log *zap.SugaredLogger) *MatchingService {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	maxResults := config.DefaultMaxResults
	if maxResults <= 0 {
		maxResults = 5
	}

	return &MatchingService{
		vocabulary:         vocabulary,
		normalizer:         NewIngredientNormalizer(vocabulary, log),
		recipeRules:        scoringRules(scoreRecipeSubstring),
		searchRules:        scoringRules(scoreSearchSubstring),
		defaultMaxResults:  maxResults,
		enableDebugLogging: config.EnableDebugLogging,
		log:                log,
	}
}

// matchInput holds the folded strings one rule evaluation needs
type matchInput struct {
	term  string // canonical ingredient term or search query
	text  string // full ingredient text
	name  string // product name
	brand string // product brand
}

// scoringRule returns a score and true when it applies
type scoringRule struct {
	name  string
	apply func(in matchInput) (float64, bool)
}

// scoringRules builds the precedence list. The first rule that applies
// decides the score; scores are never summed.
func scoringRules(substringScore float64) []scoringRule {
	return []scoringRule{
		{
			name: "exact name match",
			apply: func(in matchInput) (float64, bool) {
				return scoreExact, in.term == in.name
			},
		},
		{
			name: "product name contains ingredient",
			apply: func(in matchInput) (float64, bool) {
				return substringScore, strings.Contains(in.name, in.term)
			},
		},
		{
			name: "ingredient contains product name",
			apply: func(in matchInput) (float64, bool) {
				return scoreReverseSubstring, in.name != "" && strings.Contains(in.term, in.name)
			},
		},
		{
			name: "brand named in ingredient",
			apply: func(in matchInput) (float64, bool) {
				return scoreBrandInText, in.brand != "" && strings.Contains(in.text, in.brand)
			},
		},
		{
			name: "word overlap",
			apply: func(in matchInput) (float64, bool) {
				return wordOverlapScore(in.term, in.name), true
			},
		},
	}
}

// MatchIngredient scores catalog products against a normalized recipe ingredient.
// An empty result means no candidate cleared MinScore; it is not an error.
func (s *MatchingService) MatchIngredient(
	ctx context.Context,
	ingredient domain.NormalizedIngredient,
	catalog domain.CatalogRepository,
	opts MatchOptions,
) ([]domain.ScoredMatch, error) {
	return s.match(ctx, ingredient.CanonicalTerm, ingredient.Original, catalog, opts, s.recipeRules)
}

// SearchProducts scores catalog products against a free-text product search.
// The query goes through the same normalization as recipe ingredients, but the
// substring rule scores lower than for recipe matching.
func (s *MatchingService) SearchProducts(
	ctx context.Context,
	query string,
	catalog domain.CatalogRepository,
	opts MatchOptions,
) ([]domain.ScoredMatch, error) {
	normalized := s.normalizer.Normalize(query)
	return s.match(ctx, normalized.CanonicalTerm, query, catalog, opts, s.searchRules)
}

func (s *MatchingService) match(
	ctx context.Context,
	term, text string,
	catalog domain.CatalogRepository,
	opts MatchOptions,
	rules []scoringRule,
) ([]domain.ScoredMatch, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []domain.ScoredMatch{}, nil
	}
	if catalog == nil {
		return nil, fmt.Errorf("%w: no catalog configured", domain.ErrCatalogUnavailable)
	}

	terms := s.searchTerms(term)
	candidates, err := catalog.FindProducts(ctx, domain.CatalogQuery{
		Terms:    terms,
		MaxPrice: opts.MaxPrice,
		Category: opts.Category,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}

	if s.enableDebugLogging {
		s.log.Debugw("matching ingredient", "term", term, "searchTerms", terms, "candidates", len(candidates))
	}

	preferred := make(map[string]bool, len(opts.PreferredBrands))
	for _, b := range opts.PreferredBrands {
		if f := textutil.Fold(strings.TrimSpace(b)); f != "" {
			preferred[f] = true
		}
	}

	in := matchInput{term: textutil.Fold(term), text: textutil.Fold(text)}
	seen := make(map[string]bool, len(candidates))
	scored := make([]rankedMatch, 0, len(candidates))
	for _, product := range candidates {
		if seen[product.ID] {
			continue
		}
		seen[product.ID] = true

		in.name = textutil.Fold(strings.TrimSpace(product.Name))
		in.brand = textutil.Fold(strings.TrimSpace(product.BrandName()))

		score, reason := evaluateRules(rules, in)
		exact := reason == rules[0].name
		if in.brand != "" && preferred[in.brand] {
			score = math.Min(1.0, score+preferredBrandBoost)
			reason += " + preferred brand"
		}
		score = roundScore(score)

		if s.enableDebugLogging {
			s.log.Debugw("scored candidate", "product", product.Name, "score", score, "reason", reason)
		}

		if score < opts.MinScore {
			continue
		}
		scored = append(scored, rankedMatch{
			ScoredMatch: domain.ScoredMatch{
				Product:    product,
				Score:      score,
				Confidence: ConfidenceForScore(score),
				Reason:     reason,
			},
			exact: exact,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].rankBefore(scored[j]) })

	limit := opts.MaxResults
	if limit <= 0 {
		limit = s.defaultMaxResults
	}
	if len(scored) > limit {
		scored = scored[:limit]
	}

	results := make([]domain.ScoredMatch, len(scored))
	for i, r := range scored {
		results[i] = r.ScoredMatch
	}
	return results, nil
}

// rankedMatch carries the sort keys that are not part of the public result
type rankedMatch struct {
	domain.ScoredMatch
	exact bool
}

// rankBefore orders by score, then exact name matches, then unit price,
// then name and id.
func (a rankedMatch) rankBefore(b rankedMatch) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.exact != b.exact {
		return a.exact
	}
	if !a.Product.UnitPrice.Equal(b.Product.UnitPrice) {
		return a.Product.UnitPrice.LessThan(b.Product.UnitPrice)
	}
	if a.Product.Name != b.Product.Name {
		return a.Product.Name < b.Product.Name
	}
	return a.Product.ID < b.Product.ID
}

func evaluateRules(rules []scoringRule, in matchInput) (float64, string) {
	for _, rule := range rules {
		if score, ok := rule.apply(in); ok {
			return score, rule.name
		}
	}
	return 0, "no rule applied"
}

// ConfidenceForScore maps a match score onto a confidence tier
func ConfidenceForScore(score float64) domain.Confidence {
	switch {
	case score >= highConfidenceScore:
		return domain.ConfidenceHigh
	case score >= mediumConfidenceScore:
		return domain.ConfidenceMedium
	default:
		return domain.ConfidenceLow
	}
}

// searchTerms expands a canonical term into catalog search terms: the term,
// its singular/plural toggle, its longer sub-tokens and its synonyms.
func (s *MatchingService) searchTerms(term string) []string {
	var terms []string
	seen := make(map[string]bool)
	add := func(t string) {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			return
		}
		seen[t] = true
		terms = append(terms, t)
	}

	add(term)
	if strings.HasSuffix(term, "s") {
		add(strings.TrimSuffix(term, "s"))
	} else {
		add(term + "s")
	}
	for _, word := range strings.Fields(term) {
		if utf8.RuneCountInString(word) >= searchTermMinWordLength {
			add(word)
		}
	}
	for _, syn := range s.vocabulary.synonymsFor(term) {
		add(syn)
	}
	// accent-free spellings for backends that compare bytes ("boeuf" for "bœuf")
	for _, t := range terms {
		add(textutil.Fold(t))
	}
	return terms
}

// wordOverlapScore is the fallback rule: the weighted share of ingredient
// words found in the product name, floored so any overlap stays nonzero.
func wordOverlapScore(term, name string) float64 {
	productWords := strings.Fields(name)

	var considered int
	var matched float64
	for _, word := range strings.Fields(term) {
		if utf8.RuneCountInString(word) < overlapMinWordLength {
			continue
		}
		considered++
		matched += wordWeight(word, productWords)
	}

	if considered == 0 {
		return scoreOverlapFloor
	}
	return math.Max(scoreOverlapFloor, matched/float64(considered))
}

func wordWeight(word string, productWords []string) float64 {
	for _, pw := range productWords {
		if strings.Contains(pw, word) {
			return 1.0
		}
		// short product words ("de", "au") never count as contained
		if utf8.RuneCountInString(pw) >= overlapMinWordLength && strings.Contains(word, pw) {
			return 1.0
		}
	}
	if utf8.RuneCountInString(word) < fuzzyMinWordLength {
		return 0
	}
	for _, pw := range productWords {
		if fuzzyTokenMatch(word, pw, fuzzyEditDistance) {
			return fuzzyWeightFactor
		}
	}
	return 0
}

func roundScore(score float64) float64 {
	return math.Round(score*10000) / 10000
}

// fuzzyTokenMatch checks if two tokens are similar within the edit distance threshold
func fuzzyTokenMatch(token1, token2 string, threshold int) bool {
	if token1 == token2 {
		return true
	}

	// Quick length check - if lengths differ by more than threshold, can't match
	lenDiff := utf8.RuneCountInString(token1) - utf8.RuneCountInString(token2)
	if lenDiff < 0 {
		lenDiff = -lenDiff
	}
	if lenDiff > threshold {
		return false
	}

	return levenshteinDistance(token1, token2) <= threshold
}

// levenshteinDistance calculates the edit distance between two strings
func levenshteinDistance(s1, s2 string) int {
	r1 := []rune(s1)
	r2 := []rune(s2)
	m := len(r1)
	n := len(r2)

	if m == 0 {
		return n
	}
	if n == 0 {
		return m
	}

	// Use two rows instead of full matrix for space efficiency
	prev := make([]int, n+1)
	curr := make([]int, n+1)

	for j := 0; j <= n; j++ {
		prev[j] = j
	}

	for i := 1; i <= m; i++ {
		curr[0] = i
		for j := 1; j <= n; j++ {
			cost := 0
			if r1[i-1] != r2[j-1] {
				cost = 1
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[n]
}
