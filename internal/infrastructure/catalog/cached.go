package catalog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/binary"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cartwise/backend/internal/domain"
	"go.uber.org/zap"
)

const cacheKeyPrefix = "catalog:"

// CachedCatalog memoizes catalog lookups in a CacheRepository.
// Cache failures never fail a lookup; the underlying catalog is queried instead.
// Keys carry a generation that every successful write bumps, so a lookup never
// returns results cached before a write made through this catalog.
type CachedCatalog struct {
	next       domain.CatalogRepository
	cache      domain.CacheRepository
	ttl        time.Duration
	log        *zap.SugaredLogger
	epoch      int64
	generation atomic.Uint64
}

// NewCachedCatalog wraps next with a read-through cache
func NewCachedCatalog(next domain.CatalogRepository, cache domain.CacheRepository, ttl time.Duration, log *zap.SugaredLogger) *CachedCatalog {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedCatalog{next: next, cache: cache, ttl: ttl, log: log, epoch: time.Now().UnixNano()}
}

// FindProducts serves from cache when possible
func (c *CachedCatalog) FindProducts(ctx context.Context, query domain.CatalogQuery) ([]domain.CatalogProduct, error) {
	key := queryCacheKey(c.epoch, c.generation.Load(), query)

	if data, err := c.cache.Get(ctx, key); err == nil {
		var products []domain.CatalogProduct
		if err := json.Unmarshal(data, &products); err == nil {
			return products, nil
		}
		c.log.Warnw("Discarding undecodable catalog cache entry", "key", key)
	} else if !errors.Is(err, domain.ErrCacheMiss) {
		c.log.Warnw("Catalog cache read failed", "key", key, "error", err)
	}

	products, err := c.next.FindProducts(ctx, query)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(products); err == nil {
		if err := c.cache.Set(ctx, key, data, c.ttl); err != nil {
			c.log.Warnw("Catalog cache write failed", "key", key, "error", err)
		}
	}

	return products, nil
}

// UpsertProduct writes through to the underlying store when it accepts writes
// and retires every lookup cached so far. Retired entries expire on their TTL.
func (c *CachedCatalog) UpsertProduct(ctx context.Context, product domain.CatalogProduct) error {
	writer, ok := c.next.(domain.CatalogWriter)
	if !ok {
		return domain.ErrCatalogUnavailable
	}
	if err := writer.UpsertProduct(ctx, product); err != nil {
		return err
	}
	c.generation.Add(1)
	return nil
}

func queryCacheKey(epoch int64, generation uint64, query domain.CatalogQuery) string {
	terms := make([]string, len(query.Terms))
	copy(terms, query.Terms)
	sort.Strings(terms)

	h := sha256.New()
	var version [16]byte
	binary.BigEndian.PutUint64(version[:8], uint64(epoch))
	binary.BigEndian.PutUint64(version[8:], generation)
	h.Write(version[:])
	h.Write([]byte(strings.Join(terms, "\x1f")))
	h.Write([]byte{0})
	if query.MaxPrice.Valid {
		h.Write([]byte(query.MaxPrice.Decimal.String()))
	}
	h.Write([]byte{0})
	h.Write([]byte(strings.ToLower(strings.TrimSpace(query.Category))))

	return cacheKeyPrefix + hex.EncodeToString(h.Sum(nil))
}
