package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/cartwise/backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// DBPool is the subset of *pgxpool.Pool the catalog needs
type DBPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const createTableSQL = `
CREATE TABLE IF NOT EXISTS catalog_products (
	id             TEXT PRIMARY KEY,
	name           TEXT NOT NULL,
	brand          TEXT,
	unit_price     NUMERIC(10, 2) NOT NULL CHECK (unit_price > 0),
	packaging_unit TEXT,
	category       TEXT,
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

const upsertProductSQL = `
INSERT INTO catalog_products (id, name, brand, unit_price, packaging_unit, category)
VALUES ($1, $2, $3, $4::numeric, $5, $6)
ON CONFLICT (id) DO UPDATE SET
	name = EXCLUDED.name,
	brand = EXCLUDED.brand,
	unit_price = EXCLUDED.unit_price,
	packaging_unit = EXCLUDED.packaging_unit,
	category = EXCLUDED.category,
	updated_at = NOW()`

// PostgresCatalog reads and writes products in the catalog_products table
type PostgresCatalog struct {
	pool DBPool
}

// NewPostgresCatalog creates a catalog over a pgx pool
func NewPostgresCatalog(pool DBPool) *PostgresCatalog {
	return &PostgresCatalog{pool: pool}
}

// EnsureSchema creates the catalog_products table when it is missing
func (c *PostgresCatalog) EnsureSchema(ctx context.Context) error {
	if _, err := c.pool.Exec(ctx, createTableSQL); err != nil {
		return fmt.Errorf("failed to create catalog schema: %w", err)
	}
	return nil
}

// FindProducts matches terms against name and brand with ILIKE, cheapest first
func (c *PostgresCatalog) FindProducts(ctx context.Context, query domain.CatalogQuery) ([]domain.CatalogProduct, error) {
	patterns := make([]string, 0, len(query.Terms))
	for _, t := range query.Terms {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		patterns = append(patterns, "%"+escapeLike(t)+"%")
	}
	if len(patterns) == 0 {
		return []domain.CatalogProduct{}, nil
	}

	sql, args := buildFindQuery(patterns, query)

	rows, err := c.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog: %w", err)
	}
	defer rows.Close()

	products := []domain.CatalogProduct{}
	for rows.Next() {
		var (
			p     domain.CatalogProduct
			price string
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Brand, &price, &p.PackagingUnit, &p.Category); err != nil {
			return nil, fmt.Errorf("failed to scan catalog row: %w", err)
		}
		p.UnitPrice, err = decimal.NewFromString(price)
		if err != nil {
			return nil, fmt.Errorf("invalid unit price %q for product %s: %w", price, p.ID, err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate catalog rows: %w", err)
	}

	return products, nil
}

// UpsertProduct inserts a product or replaces the row with the same id
func (c *PostgresCatalog) UpsertProduct(ctx context.Context, product domain.CatalogProduct) error {
	_, err := c.pool.Exec(ctx, upsertProductSQL,
		product.ID,
		product.Name,
		product.Brand,
		product.UnitPrice.String(),
		product.PackagingUnit,
		product.Category,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert product %s: %w", product.ID, err)
	}
	return nil
}

func buildFindQuery(patterns []string, query domain.CatalogQuery) (string, []any) {
	var b strings.Builder
	b.WriteString(`SELECT id, name, brand, unit_price::text, packaging_unit, category
FROM catalog_products
WHERE (name ILIKE ANY($1) OR brand ILIKE ANY($1))`)

	args := []any{patterns}
	if query.MaxPrice.Valid {
		args = append(args, query.MaxPrice.Decimal.String())
		fmt.Fprintf(&b, "\nAND unit_price <= $%d::numeric", len(args))
	}
	if category := strings.TrimSpace(query.Category); category != "" {
		args = append(args, category)
		fmt.Fprintf(&b, "\nAND category ILIKE $%d", len(args))
	}
	b.WriteString("\nORDER BY unit_price ASC, name ASC, id ASC")

	return b.String(), args
}

// escapeLike escapes LIKE wildcards so terms match literally
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
