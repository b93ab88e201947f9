package usecase

import (
	"context"
	"strings"

	"github.com/cartwise/backend/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ShoppingListConfig holds configuration for the shopping list service
type ShoppingListConfig struct {
	MinScore float64
	// Workers > 1 resolves ingredients concurrently; aggregation stays ordered
	Workers int
}

// ShoppingListService drives raw ingredients through normalization, matching
// and quantity calculation, then aggregates the purchases.
type ShoppingListService struct {
	normalizer *IngredientNormalizer
	matcher    *MatchingService
	quantities *QuantityCalculator
	catalog    domain.CatalogRepository
	vocabulary Vocabulary
	minScore   float64
	workers    int
	log        *zap.SugaredLogger
}

// NewShoppingListService creates a new shopping list service with dependencies
func NewShoppingListService(
	normalizer *IngredientNormalizer,
	matcher *MatchingService,
	quantities *QuantityCalculator,
	catalog domain.CatalogRepository,
	vocabulary Vocabulary,
	config ShoppingListConfig,
	log *zap.SugaredLogger,
) *ShoppingListService {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	workers := config.Workers
	if workers <= 0 {
		workers = 1
	}
	return &ShoppingListService{
		normalizer: normalizer,
		matcher:    matcher,
		quantities: quantities,
		catalog:    catalog,
		vocabulary: vocabulary,
		minScore:   config.MinScore,
		workers:    workers,
		log:        log,
	}
}

// resolution is the per-ingredient outcome before aggregation
type resolution struct {
	raw      string
	match    *domain.ScoredMatch
	quantity domain.QuantityResult
}

// BuildShoppingList resolves every ingredient and aggregates the matches into
// a deduplicated, priced list. Unmatched ingredients are reported, not errors.
func (s *ShoppingListService) BuildShoppingList(
	ctx context.Context,
	ingredients []string,
	opts domain.ShoppingListOptions,
) (*domain.ShoppingListResult, error) {
	peopleCount := opts.PeopleCount
	if peopleCount <= 0 {
		peopleCount = s.quantities.ReferenceServings()
	}

	resolutions, err := s.resolveAll(ctx, ingredients, peopleCount, opts.PreferredBrands)
	if err != nil {
		return nil, err
	}

	result := aggregate(resolutions)
	result.ID = uuid.NewString()
	result.Groups = s.groupItems(result.Items)

	if opts.Budget.Valid {
		within := result.TotalCost.LessThanOrEqual(opts.Budget.Decimal)
		result.WithinBudget = &within
		result.Savings = decimal.NewNullDecimal(opts.Budget.Decimal.Sub(result.TotalCost))
	}

	s.log.Infow("built shopping list",
		"id", result.ID,
		"ingredients", len(ingredients),
		"items", len(result.Items),
		"unmatched", len(result.UnmatchedIngredients),
		"totalCost", result.TotalCost.StringFixed(2))

	return result, nil
}

// resolveAll runs normalize -> match -> quantity for every ingredient. Results
// are stored by input index, so the order never depends on scheduling.
func (s *ShoppingListService) resolveAll(
	ctx context.Context,
	ingredients []string,
	peopleCount int,
	preferredBrands []string,
) ([]resolution, error) {
	resolutions := make([]resolution, len(ingredients))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, raw := range ingredients {
		g.Go(func() error {
			r, err := s.resolve(gctx, raw, peopleCount, preferredBrands)
			if err != nil {
				return err
			}
			resolutions[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return resolutions, nil
}

func (s *ShoppingListService) resolve(
	ctx context.Context,
	raw string,
	peopleCount int,
	preferredBrands []string,
) (resolution, error) {
	r := resolution{raw: raw}
	if strings.TrimSpace(raw) == "" {
		return r, nil
	}

	ingredient := s.normalizer.Normalize(raw)
	matches, err := s.matcher.MatchIngredient(ctx, ingredient, s.catalog, MatchOptions{
		MaxResults:      1,
		MinScore:        s.minScore,
		PreferredBrands: preferredBrands,
	})
	if err != nil {
		return r, err
	}
	if len(matches) == 0 {
		s.log.Debugw("ingredient unmatched", "ingredient", raw, "term", ingredient.CanonicalTerm)
		return r, nil
	}

	best := matches[0]
	r.match = &best
	r.quantity = s.quantities.ComputeQuantity(ingredient, best.Product, peopleCount)
	if r.quantity.LowConfidence {
		s.log.Debugw("quantity estimated", "ingredient", raw, "product", best.Product.Name, "note", r.quantity.Note)
	}
	return r, nil
}

// aggregate folds resolutions into items in input order. A product already on
// the list keeps its first computed quantity; later mentions are only recorded.
func aggregate(resolutions []resolution) *domain.ShoppingListResult {
	result := &domain.ShoppingListResult{
		Items:                []domain.ShoppingItem{},
		UnmatchedIngredients: []string{},
		ConfidenceBreakdown: map[domain.Confidence]int{
			domain.ConfidenceHigh:   0,
			domain.ConfidenceMedium: 0,
			domain.ConfidenceLow:    0,
		},
		TotalCost: decimal.Zero,
	}

	index := make(map[string]int)
	for _, r := range resolutions {
		if strings.TrimSpace(r.raw) == "" {
			continue
		}
		if r.match == nil {
			result.UnmatchedIngredients = append(result.UnmatchedIngredients, r.raw)
			continue
		}

		if i, ok := index[r.match.Product.ID]; ok {
			result.Items[i].MatchedIngredients = append(result.Items[i].MatchedIngredients, r.raw)
			continue
		}

		index[r.match.Product.ID] = len(result.Items)
		result.Items = append(result.Items, domain.ShoppingItem{
			Product:            r.match.Product,
			QuantityToBuy:      r.quantity.QuantityToBuy,
			UnitOfPurchase:     r.quantity.UnitOfPurchase,
			TotalPrice:         lineTotal(r.quantity.QuantityToBuy, r.match.Product.UnitPrice),
			MatchedIngredients: []string{r.raw},
			Confidence:         r.match.Confidence,
			Reason:             r.match.Reason,
			QuantityEstimated:  r.quantity.LowConfidence,
			QuantityNote:       r.quantity.Note,
		})
	}

	total := decimal.Zero
	for _, item := range result.Items {
		total = total.Add(item.TotalPrice)
		result.ConfidenceBreakdown[item.Confidence]++
	}
	result.TotalCost = total.Round(2)

	return result
}

// lineTotal is quantity * unit price rounded to cents
func lineTotal(quantity float64, unitPrice decimal.Decimal) decimal.Decimal {
	return decimal.NewFromFloat(quantity).Mul(unitPrice).Round(2)
}

// groupItems sorts items into display sections in the vocabulary's order
func (s *ShoppingListService) groupItems(items []domain.ShoppingItem) []domain.ItemGroup {
	byGroup := make(map[string][]domain.ShoppingItem)
	for _, item := range items {
		name := s.vocabulary.displayGroup(item.Product.CategoryName())
		byGroup[name] = append(byGroup[name], item)
	}

	groups := make([]domain.ItemGroup, 0, len(byGroup))
	for _, name := range s.vocabulary.groupOrder {
		if grouped, ok := byGroup[name]; ok {
			groups = append(groups, domain.ItemGroup{Name: name, Items: grouped})
		}
	}
	return groups
}
