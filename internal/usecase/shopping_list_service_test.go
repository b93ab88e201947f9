package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/cartwise/backend/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestShoppingService(catalog domain.CatalogRepository, workers int) *ShoppingListService {
	vocabulary := DefaultVocabulary()
	return NewShoppingListService(
		NewIngredientNormalizer(vocabulary, nil),
		NewMatchingService(vocabulary, MatchConfig{DefaultMaxResults: 5}, nil),
		NewQuantityCalculator(vocabulary, 4),
		catalog,
		vocabulary,
		ShoppingListConfig{MinScore: 0.3, Workers: workers},
		nil,
	)
}

func groceryCatalog() *stubCatalog {
	return &stubCatalog{products: []domain.CatalogProduct{
		testProduct("beef", "Bœuf Haché Suisse", "", "12.50", "500g", "Boucherie"),
		testProduct("parmesan", "Parmesan AOP", "", "37.30", "1kg", "Fromages"),
		testProduct("garlic", "Ail blanc", "", "0.99", "3 pièces", "Légumes"),
		testProduct("salt", "Sel fin", "", "0.80", "1kg", "Condiments"),
		testProduct("candles", "Bougies chauffe-plat", "", "3.20", "", "Maison"),
	}}
}

func TestBuildShoppingList_SingleMatch(t *testing.T) {
	catalog := &stubCatalog{products: []domain.CatalogProduct{
		testProduct("beef", "Bœuf Haché Suisse", "", "12.50", "500g", "Boucherie"),
	}}
	svc := newTestShoppingService(catalog, 1)

	result, err := svc.BuildShoppingList(context.Background(),
		[]string{"500g de bœuf haché", "2 gousses d'ail"}, domain.ShoppingListOptions{PeopleCount: 4})
	require.NoError(t, err)

	_, err = uuid.Parse(result.ID)
	assert.NoError(t, err, "ID should be a UUID")

	require.Len(t, result.Items, 1)
	item := result.Items[0]
	assert.Equal(t, "beef", item.Product.ID)
	assert.Equal(t, domain.ConfidenceHigh, item.Confidence)
	assert.Equal(t, 1.0, item.QuantityToBuy)
	assert.Equal(t, "500g", item.UnitOfPurchase)
	assert.True(t, item.TotalPrice.Equal(mustPrice("12.50")), "TotalPrice = %s", item.TotalPrice)
	assert.Equal(t, []string{"500g de bœuf haché"}, item.MatchedIngredients)
	assert.Equal(t, "product name contains ingredient", item.Reason)

	assert.Equal(t, []string{"2 gousses d'ail"}, result.UnmatchedIngredients)
	assert.True(t, result.TotalCost.Equal(mustPrice("12.50")))
	assert.Equal(t, map[domain.Confidence]int{
		domain.ConfidenceHigh:   1,
		domain.ConfidenceMedium: 0,
		domain.ConfidenceLow:    0,
	}, result.ConfidenceBreakdown)

	require.Len(t, result.Groups, 1)
	assert.Equal(t, "Boucherie & Volaille", result.Groups[0].Name)

	assert.Nil(t, result.WithinBudget)
	assert.False(t, result.Savings.Valid)
}

func TestBuildShoppingList_DeduplicatesProducts(t *testing.T) {
	svc := newTestShoppingService(groceryCatalog(), 1)

	result, err := svc.BuildShoppingList(context.Background(),
		[]string{"ail", "2 gousses d'ail"}, domain.ShoppingListOptions{})
	require.NoError(t, err)

	require.Len(t, result.Items, 1)
	item := result.Items[0]
	assert.Equal(t, "garlic", item.Product.ID)
	assert.Equal(t, []string{"ail", "2 gousses d'ail"}, item.MatchedIngredients)
	assert.Equal(t, 1.0, item.QuantityToBuy, "first computed quantity is kept")
	assert.True(t, result.TotalCost.Equal(mustPrice("0.99")))
	assert.Empty(t, result.UnmatchedIngredients)
}

func TestBuildShoppingList_Budget(t *testing.T) {
	svc := newTestShoppingService(groceryCatalog(), 1)
	ingredients := []string{"1 kg de bœuf haché", "200 g de parmesan râpé"}

	t.Run("over budget", func(t *testing.T) {
		result, err := svc.BuildShoppingList(context.Background(), ingredients, domain.ShoppingListOptions{
			Budget: decimal.NewNullDecimal(decimal.NewFromInt(50)),
		})
		require.NoError(t, err)

		assert.True(t, result.TotalCost.Equal(mustPrice("62.30")), "TotalCost = %s", result.TotalCost)
		require.NotNil(t, result.WithinBudget)
		assert.False(t, *result.WithinBudget)
		require.True(t, result.Savings.Valid)
		assert.True(t, result.Savings.Decimal.Equal(mustPrice("-12.30")), "Savings = %s", result.Savings.Decimal)
	})

	t.Run("within budget", func(t *testing.T) {
		result, err := svc.BuildShoppingList(context.Background(), ingredients, domain.ShoppingListOptions{
			Budget: decimal.NewNullDecimal(decimal.NewFromInt(80)),
		})
		require.NoError(t, err)

		require.NotNil(t, result.WithinBudget)
		assert.True(t, *result.WithinBudget)
		assert.True(t, result.Savings.Decimal.Equal(mustPrice("17.70")))
	})
}

func TestBuildShoppingList_ScalesToPeopleCount(t *testing.T) {
	svc := newTestShoppingService(groceryCatalog(), 1)

	result, err := svc.BuildShoppingList(context.Background(),
		[]string{"500g de bœuf haché"}, domain.ShoppingListOptions{PeopleCount: 8})
	require.NoError(t, err)

	require.Len(t, result.Items, 1)
	assert.Equal(t, 2.0, result.Items[0].QuantityToBuy)
	assert.True(t, result.TotalCost.Equal(mustPrice("25.00")))
}

func TestBuildShoppingList_Groups(t *testing.T) {
	svc := newTestShoppingService(groceryCatalog(), 1)

	result, err := svc.BuildShoppingList(context.Background(), []string{
		"bougies",
		"200 g de parmesan",
		"ail",
		"500g de bœuf haché",
	}, domain.ShoppingListOptions{})
	require.NoError(t, err)

	var names []string
	for _, g := range result.Groups {
		names = append(names, g.Name)
	}
	assert.Equal(t, []string{"Fruits & Légumes", "Boucherie & Volaille", "Crèmerie & Œufs", "Autres"}, names)

	// items keep input order
	require.Len(t, result.Items, 4)
	assert.Equal(t, "candles", result.Items[0].Product.ID)
	assert.Equal(t, "beef", result.Items[3].Product.ID)
}

func TestBuildShoppingList_EstimatedQuantity(t *testing.T) {
	svc := newTestShoppingService(groceryCatalog(), 1)

	result, err := svc.BuildShoppingList(context.Background(), []string{"1 pincée de sel"}, domain.ShoppingListOptions{})
	require.NoError(t, err)

	require.Len(t, result.Items, 1)
	item := result.Items[0]
	assert.Equal(t, "salt", item.Product.ID)
	assert.Equal(t, 1.0, item.QuantityToBuy)
	assert.True(t, item.QuantityEstimated)
	assert.NotEmpty(t, item.QuantityNote)
}

func TestBuildShoppingList_SkipsBlankInput(t *testing.T) {
	svc := newTestShoppingService(groceryCatalog(), 1)

	result, err := svc.BuildShoppingList(context.Background(), []string{"", "   ", "ail"}, domain.ShoppingListOptions{})
	require.NoError(t, err)

	assert.Len(t, result.Items, 1)
	assert.Empty(t, result.UnmatchedIngredients)
}

func TestBuildShoppingList_Empty(t *testing.T) {
	svc := newTestShoppingService(groceryCatalog(), 1)

	result, err := svc.BuildShoppingList(context.Background(), nil, domain.ShoppingListOptions{})
	require.NoError(t, err)

	assert.NotEmpty(t, result.ID)
	assert.NotNil(t, result.Items)
	assert.Empty(t, result.Items)
	assert.NotNil(t, result.Groups)
	assert.True(t, result.TotalCost.IsZero())
}

func TestBuildShoppingList_ConcurrentMatchesSequential(t *testing.T) {
	ingredients := []string{
		"500g de bœuf haché",
		"2 gousses d'ail",
		"200 g de parmesan râpé",
		"1 pincée de sel",
		"ail",
		"3 courgettes",
		"bougies",
	}

	sequential, err := newTestShoppingService(groceryCatalog(), 1).
		BuildShoppingList(context.Background(), ingredients, domain.ShoppingListOptions{PeopleCount: 6})
	require.NoError(t, err)
	concurrent, err := newTestShoppingService(groceryCatalog(), 4).
		BuildShoppingList(context.Background(), ingredients, domain.ShoppingListOptions{PeopleCount: 6})
	require.NoError(t, err)

	assert.Equal(t, sequential.Items, concurrent.Items)
	assert.Equal(t, sequential.Groups, concurrent.Groups)
	assert.Equal(t, sequential.UnmatchedIngredients, concurrent.UnmatchedIngredients)
	assert.True(t, sequential.TotalCost.Equal(concurrent.TotalCost))
	assert.NotEqual(t, sequential.ID, concurrent.ID)
}

func TestBuildShoppingList_CatalogFailure(t *testing.T) {
	svc := newTestShoppingService(&stubCatalog{err: errors.New("timeout")}, 2)

	_, err := svc.BuildShoppingList(context.Background(), []string{"ail", "sel"}, domain.ShoppingListOptions{})
	if !errors.Is(err, domain.ErrCatalogUnavailable) {
		t.Errorf("error = %v, want ErrCatalogUnavailable", err)
	}
}
