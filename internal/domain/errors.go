package domain

import "errors"

var (
	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrCatalogUnavailable is returned when the catalog backend cannot be queried
	ErrCatalogUnavailable = errors.New("catalog unavailable")

	// ErrPriceUnavailable is returned when a product page yields no usable price
	ErrPriceUnavailable = errors.New("no price found on product page")
)
