package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/cartwise/backend/internal/domain"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var productColumns = []string{"id", "name", "brand", "unit_price", "packaging_unit", "category"}

func createMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func strPtr(s string) *string { return &s }

func TestPostgresCatalog_FindProducts(t *testing.T) {
	ctx := context.Background()

	t.Run("scans rows and parses prices", func(t *testing.T) {
		mock := createMockPool(t)
		catalog := NewPostgresCatalog(mock)

		rows := mock.NewRows(productColumns).
			AddRow("p2", "Steak haché de boeuf", strPtr("Bigard"), "6.90", strPtr("barquette 2 x 125g"), strPtr("Boucherie")).
			AddRow("p1", "Bœuf haché 5%", strPtr("Charal"), "12.50", strPtr("500g"), strPtr("Boucherie"))

		mock.ExpectQuery(`SELECT id, name, brand, unit_price::text, packaging_unit, category\s+FROM catalog_products`).
			WithArgs([]string{"%boeuf%"}).
			WillReturnRows(rows)

		got, err := catalog.FindProducts(ctx, domain.CatalogQuery{Terms: []string{"boeuf"}})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "p2", got[0].ID)
		assert.Equal(t, "Bigard", got[0].BrandName())
		assert.Equal(t, "barquette 2 x 125g", got[0].Packaging())
		assert.True(t, got[1].UnitPrice.Equal(decimal.RequireFromString("12.50")))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("adds price and category filters", func(t *testing.T) {
		mock := createMockPool(t)
		catalog := NewPostgresCatalog(mock)

		mock.ExpectQuery(`unit_price <= \$2::numeric\s+AND category ILIKE \$3\s+ORDER BY unit_price ASC`).
			WithArgs([]string{"%ail%"}, "5", "Légumes").
			WillReturnRows(mock.NewRows(productColumns))

		got, err := catalog.FindProducts(ctx, domain.CatalogQuery{
			Terms:    []string{"ail"},
			MaxPrice: decimal.NewNullDecimal(decimal.NewFromInt(5)),
			Category: "Légumes",
		})
		require.NoError(t, err)
		assert.Empty(t, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("escapes like wildcards", func(t *testing.T) {
		mock := createMockPool(t)
		catalog := NewPostgresCatalog(mock)

		mock.ExpectQuery(`FROM catalog_products`).
			WithArgs([]string{`%100\%%`}).
			WillReturnRows(mock.NewRows(productColumns))

		_, err := catalog.FindProducts(ctx, domain.CatalogQuery{Terms: []string{"100%"}})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no terms skips the query", func(t *testing.T) {
		mock := createMockPool(t)
		catalog := NewPostgresCatalog(mock)

		got, err := catalog.FindProducts(ctx, domain.CatalogQuery{Terms: []string{" "}})
		require.NoError(t, err)
		assert.Empty(t, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("wraps query errors", func(t *testing.T) {
		mock := createMockPool(t)
		catalog := NewPostgresCatalog(mock)

		mock.ExpectQuery(`FROM catalog_products`).
			WithArgs([]string{"%ail%"}).
			WillReturnError(errors.New("connection reset"))

		_, err := catalog.FindProducts(ctx, domain.CatalogQuery{Terms: []string{"ail"}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection reset")
	})
}

func TestPostgresCatalog_UpsertProduct(t *testing.T) {
	mock := createMockPool(t)
	catalog := NewPostgresCatalog(mock)

	p := domain.CatalogProduct{
		ID:            "p1",
		Name:          "Lardons fumés",
		Brand:         strPtr("Herta"),
		UnitPrice:     decimal.RequireFromString("2.35"),
		PackagingUnit: strPtr("2 x 100g"),
	}

	mock.ExpectExec(`INSERT INTO catalog_products`).
		WithArgs("p1", "Lardons fumés", p.Brand, "2.35", p.PackagingUnit, p.Category).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, catalog.UpsertProduct(context.Background(), p))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCatalog_EnsureSchema(t *testing.T) {
	mock := createMockPool(t)
	catalog := NewPostgresCatalog(mock)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS catalog_products`).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))

	require.NoError(t, catalog.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
