package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// CatalogQuery selects products whose name or brand contains any of Terms.
// Zero-valued filters are ignored.
type CatalogQuery struct {
	Terms    []string
	MaxPrice decimal.NullDecimal
	Category string
}

// CatalogRepository is the read side of the product catalog.
// FindProducts returns matches ordered by unit price ascending.
type CatalogRepository interface {
	FindProducts(ctx context.Context, query CatalogQuery) ([]CatalogProduct, error)
}

// CatalogWriter persists resolved products at ingestion time
type CatalogWriter interface {
	UpsertProduct(ctx context.Context, product CatalogProduct) error
}

// CatalogStore is a catalog backend supporting both queries and ingestion
type CatalogStore interface {
	CatalogRepository
	CatalogWriter
}
