package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/cartwise/backend/internal/domain"
	"github.com/cartwise/backend/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// MatchDefaults are applied when a request leaves a matching option unset
type MatchDefaults struct {
	MinScore        float64
	MaxResults      int
	PreferredBrands []string
}

// Services groups the usecases the handlers call. A nil service answers 501.
type Services struct {
	Normalizer *usecase.IngredientNormalizer
	Matcher    *usecase.MatchingService
	Resolver   *usecase.PriceResolver
	Shopping   *usecase.ShoppingListService
	Ingest     *usecase.CatalogIngestService
	Catalog    domain.CatalogRepository
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	services Services
	defaults MatchDefaults
	log      *zap.SugaredLogger
}

// NewHandler creates a new HTTP handler
func NewHandler(services Services, defaults MatchDefaults, log *zap.SugaredLogger) *Handler {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if defaults.MaxResults <= 0 {
		defaults.MaxResults = 5
	}
	return &Handler{services: services, defaults: defaults, log: log}
}

type normalizeRequest struct {
	Ingredients []string `json:"ingredients" binding:"required,min=1"`
}

type matchRequest struct {
	Ingredient      string              `json:"ingredient" binding:"required"`
	MaxResults      int                 `json:"maxResults" binding:"omitempty,min=1,max=50"`
	MinScore        *float64            `json:"minScore" binding:"omitempty,min=0,max=1"`
	PreferredBrands []string            `json:"preferredBrands"`
	MaxPrice        decimal.NullDecimal `json:"maxPrice"`
	Category        string              `json:"category"`
}

type resolvePriceRequest struct {
	ProductName  string                    `json:"productName"`
	Observations []domain.PriceObservation `json:"observations" binding:"required,dive"`
}

type shoppingListRequest struct {
	Ingredients     []string            `json:"ingredients" binding:"required,min=1"`
	PeopleCount     int                 `json:"peopleCount" binding:"omitempty,min=0"`
	Budget          decimal.NullDecimal `json:"budget"`
	PreferredBrands []string            `json:"preferredBrands"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "cartwise-backend",
		"version": "1.0.0",
	})
}

// NormalizeIngredients parses raw ingredient lines
func (h *Handler) NormalizeIngredients(c *gin.Context) {
	if h.services.Normalizer == nil {
		notConfigured(c, "ingredient normalizer")
		return
	}

	var req normalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	out := make([]domain.NormalizedIngredient, 0, len(req.Ingredients))
	for _, raw := range req.Ingredients {
		out = append(out, h.services.Normalizer.Normalize(raw))
	}

	c.JSON(http.StatusOK, gin.H{"ingredients": out})
}

// MatchIngredient normalizes one ingredient and ranks catalog candidates
func (h *Handler) MatchIngredient(c *gin.Context) {
	if h.services.Matcher == nil || h.services.Normalizer == nil {
		notConfigured(c, "ingredient matching")
		return
	}

	var req matchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	opts := h.matchOptions(req.MaxResults, req.MinScore, req.PreferredBrands)
	opts.MaxPrice = req.MaxPrice
	opts.Category = req.Category

	ingredient := h.services.Normalizer.Normalize(req.Ingredient)
	matches, err := h.services.Matcher.MatchIngredient(c.Request.Context(), ingredient, h.services.Catalog, opts)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ingredient": ingredient,
		"matches":    matches,
	})
}

// SearchProducts ranks catalog products for a free-text query
func (h *Handler) SearchProducts(c *gin.Context) {
	if h.services.Matcher == nil {
		notConfigured(c, "product search")
		return
	}

	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter 'q' is required"})
		return
	}

	var (
		maxResults int
		minScore   *float64
		err        error
	)
	if v := c.Query("max_results"); v != "" {
		if maxResults, err = strconv.Atoi(v); err != nil || maxResults < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "max_results must be a positive integer"})
			return
		}
	}
	if v := c.Query("min_score"); v != "" {
		score, err := strconv.ParseFloat(v, 64)
		if err != nil || score < 0 || score > 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "min_score must be a number between 0 and 1"})
			return
		}
		minScore = &score
	}

	opts := h.matchOptions(maxResults, minScore, c.QueryArray("brand"))
	opts.Category = c.Query("category")
	if v := c.Query("max_price"); v != "" {
		price, err := decimal.NewFromString(v)
		if err != nil || price.IsNegative() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "max_price must be a non-negative decimal"})
			return
		}
		opts.MaxPrice = decimal.NewNullDecimal(price)
	}

	matches, err := h.services.Matcher.SearchProducts(c.Request.Context(), query, h.services.Catalog, opts)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"query":   query,
		"matches": matches,
	})
}

// ResolvePrice picks the single-unit price from scraped observations without
// storing anything
func (h *Handler) ResolvePrice(c *gin.Context) {
	if h.services.Resolver == nil {
		notConfigured(c, "price resolution")
		return
	}

	var req resolvePriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	extraction := h.services.Resolver.Resolve(req.Observations)
	response := gin.H{"extraction": extraction}
	if name := strings.TrimSpace(req.ProductName); name != "" {
		response["packCheck"] = h.services.Resolver.ValidatePackPricing(name, extraction)
	}

	c.JSON(http.StatusOK, response)
}

// IngestProduct resolves a product page price and upserts the product
func (h *Handler) IngestProduct(c *gin.Context) {
	if h.services.Ingest == nil {
		notConfigured(c, "catalog ingestion")
		return
	}

	var page domain.ProductPage
	if err := c.ShouldBindJSON(&page); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.services.Ingest.Ingest(c.Request.Context(), page)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// BuildShoppingList turns a recipe's ingredients into a priced shopping list
func (h *Handler) BuildShoppingList(c *gin.Context) {
	if h.services.Shopping == nil {
		notConfigured(c, "shopping list building")
		return
	}

	var req shoppingListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	brands := req.PreferredBrands
	if len(brands) == 0 {
		brands = h.defaults.PreferredBrands
	}

	result, err := h.services.Shopping.BuildShoppingList(c.Request.Context(), req.Ingredients, domain.ShoppingListOptions{
		PeopleCount:     req.PeopleCount,
		Budget:          req.Budget,
		PreferredBrands: brands,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) matchOptions(maxResults int, minScore *float64, brands []string) usecase.MatchOptions {
	opts := usecase.MatchOptions{
		MaxResults:      h.defaults.MaxResults,
		MinScore:        h.defaults.MinScore,
		PreferredBrands: h.defaults.PreferredBrands,
	}
	if maxResults > 0 {
		opts.MaxResults = maxResults
	}
	if minScore != nil {
		opts.MinScore = *minScore
	}
	if len(brands) > 0 {
		opts.PreferredBrands = brands
	}
	return opts
}

// respondError maps domain errors to HTTP status codes
func (h *Handler) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrPriceUnavailable):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrRateLimited):
		status = http.StatusTooManyRequests
	case errors.Is(err, domain.ErrCatalogUnavailable):
		status = http.StatusServiceUnavailable
	}

	if status >= http.StatusInternalServerError {
		h.log.Errorw("Request failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
}

func notConfigured(c *gin.Context, what string) {
	c.JSON(http.StatusNotImplemented, gin.H{"error": what + " is not configured"})
}
