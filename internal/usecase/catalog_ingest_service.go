package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/cartwise/backend/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// IngestResult reports what was stored for one product page
type IngestResult struct {
	Product    domain.CatalogProduct  `json:"product"`
	Extraction domain.PriceExtraction `json:"extraction"`
	PackCheck  domain.PackMismatch    `json:"packCheck"`
}

// CatalogIngestService resolves product page prices once and persists the
// product with its single-unit price.
type CatalogIngestService struct {
	resolver *PriceResolver
	store    domain.CatalogWriter
	log      *zap.SugaredLogger
}

// NewCatalogIngestService creates a new ingestion service
func NewCatalogIngestService(resolver *PriceResolver, store domain.CatalogWriter, log *zap.SugaredLogger) *CatalogIngestService {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &CatalogIngestService{resolver: resolver, store: store, log: log}
}

// Ingest resolves the page price and upserts the product. Ambiguous prices
// are stored with their confidence; only a page without any price is refused.
func (s *CatalogIngestService) Ingest(ctx context.Context, page domain.ProductPage) (*IngestResult, error) {
	name := strings.TrimSpace(page.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: product name is required", domain.ErrInvalidRequest)
	}

	extraction := s.resolver.Resolve(page.Observations)
	if !extraction.MainPrice.Valid {
		return nil, fmt.Errorf("%w: %s", domain.ErrPriceUnavailable, name)
	}

	check := s.resolver.ValidatePackPricing(name, extraction)
	if check.Mismatch {
		s.log.Warnw("multi-pack price mismatch", "product", name, "reason", check.Reason)
	}
	if extraction.Confidence == domain.ConfidenceLow {
		s.log.Warnw("low confidence price", "product", name, "price", extraction.MainPrice.Decimal.StringFixed(2),
			"warnings", extraction.Warnings)
	}

	id := strings.TrimSpace(page.ID)
	if id == "" {
		id = uuid.NewString()
	}

	product := domain.CatalogProduct{
		ID:            id,
		Name:          name,
		Brand:         domain.OptionalString(strings.TrimSpace(page.Brand)),
		UnitPrice:     extraction.MainPrice.Decimal,
		PackagingUnit: domain.OptionalString(strings.TrimSpace(page.PackagingUnit)),
		Category:      domain.OptionalString(strings.TrimSpace(page.Category)),
	}

	if err := s.store.UpsertProduct(ctx, product); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}

	s.log.Infow("ingested product", "id", product.ID, "name", product.Name,
		"price", product.UnitPrice.StringFixed(2), "confidence", extraction.Confidence)

	return &IngestResult{Product: product, Extraction: extraction, PackCheck: check}, nil
}
