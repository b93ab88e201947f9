// Package catalog provides the product catalog backends the engine queries:
// an in-memory store, a PostgreSQL store and a caching decorator.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/cartwise/backend/internal/domain"
	"github.com/cartwise/backend/internal/pkg/textutil"
)

// MemoryCatalog is a thread-safe in-memory product catalog
type MemoryCatalog struct {
	mu       sync.RWMutex
	products map[string]domain.CatalogProduct
}

// NewMemoryCatalog creates a catalog holding the given products
func NewMemoryCatalog(products ...domain.CatalogProduct) *MemoryCatalog {
	c := &MemoryCatalog{products: make(map[string]domain.CatalogProduct, len(products))}
	for _, p := range products {
		c.products[p.ID] = p
	}
	return c
}

// LoadMemoryCatalog reads a JSON array of products from path
func LoadMemoryCatalog(path string) (*MemoryCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog seed: %w", err)
	}

	var products []domain.CatalogProduct
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("failed to decode catalog seed: %w", err)
	}

	for i, p := range products {
		if strings.TrimSpace(p.ID) == "" || strings.TrimSpace(p.Name) == "" {
			return nil, fmt.Errorf("catalog seed entry %d: id and name are required", i)
		}
	}

	return NewMemoryCatalog(products...), nil
}

// FindProducts returns products whose name or brand contains any term,
// compared case- and accent-insensitively, cheapest first.
func (c *MemoryCatalog) FindProducts(ctx context.Context, query domain.CatalogQuery) ([]domain.CatalogProduct, error) {
	terms := make([]string, 0, len(query.Terms))
	for _, t := range query.Terms {
		if f := textutil.Fold(strings.TrimSpace(t)); f != "" {
			terms = append(terms, f)
		}
	}
	if len(terms) == 0 {
		return []domain.CatalogProduct{}, nil
	}
	category := textutil.Fold(strings.TrimSpace(query.Category))

	c.mu.RLock()
	defer c.mu.RUnlock()

	result := []domain.CatalogProduct{}
	for _, p := range c.products {
		if query.MaxPrice.Valid && p.UnitPrice.GreaterThan(query.MaxPrice.Decimal) {
			continue
		}
		if category != "" && textutil.Fold(p.CategoryName()) != category {
			continue
		}
		name := textutil.Fold(p.Name)
		brand := textutil.Fold(p.BrandName())
		for _, t := range terms {
			if strings.Contains(name, t) || (brand != "" && strings.Contains(brand, t)) {
				result = append(result, p)
				break
			}
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].UnitPrice.Equal(result[j].UnitPrice) {
			return result[i].UnitPrice.LessThan(result[j].UnitPrice)
		}
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].ID < result[j].ID
	})

	return result, nil
}

// UpsertProduct inserts or replaces a product by id
func (c *MemoryCatalog) UpsertProduct(ctx context.Context, product domain.CatalogProduct) error {
	if strings.TrimSpace(product.ID) == "" {
		return fmt.Errorf("%w: product id is required", domain.ErrInvalidRequest)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products[product.ID] = product
	return nil
}

// Len returns the number of products in the catalog
func (c *MemoryCatalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.products)
}
