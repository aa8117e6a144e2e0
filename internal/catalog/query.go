package catalog

import (
	"context"
	"errors"
	"log/slog"

	"github.com/geocoder89/bakery/internal/apperr"
	"github.com/geocoder89/bakery/internal/domain/category"
	"github.com/geocoder89/bakery/internal/domain/product"
	"github.com/geocoder89/bakery/internal/observability"
	"github.com/geocoder89/bakery/internal/repo"
	"go.opentelemetry.io/otel/attribute"
)

const MaxPageLimit = 50

type QueryService struct {
	categories CategoryRepo
	products   ProductRepo
	log        *slog.Logger
	prom       *observability.Prom
}

func NewQueryService(categories CategoryRepo, products ProductRepo, log *slog.Logger, prom *observability.Prom) *QueryService {
	if log == nil {
		log = slog.Default()
	}
	return &QueryService{categories: categories, products: products, log: log, prom: prom}
}

// ListProducts returns one page of available products ordered by name. A
// category filter that matches nothing yields an empty page, not an error.
func (s *QueryService) ListProducts(ctx context.Context, q product.ListQuery) (page product.Page, err error) {
	ctx, span := startSpan(ctx, "ListProducts")
	defer func() { endSpan(span, err) }()

	if q.Page < 1 || q.Limit < 1 || q.Limit > MaxPageLimit {
		return product.Page{}, apperr.BadRequest("page must be >= 1 and limit between 1 and 50")
	}

	span.SetAttributes(
		attribute.Int("catalog.page", q.Page),
		attribute.Int("catalog.limit", q.Limit),
	)

	filter := product.ListFilter{
		AvailableOnly: true,
		Skip:          (q.Page - 1) * q.Limit,
		Limit:         q.Limit,
	}

	if q.Category != "" {
		c, err := s.categories.FindByNameFold(ctx, q.Category)
		if errors.Is(err, repo.ErrNotFound) {
			return product.Page{
				Items:      []product.Product{},
				Pagination: product.EmptyPagination(q.Page, q.Limit),
			}, nil
		}
		if err != nil {
			return product.Page{}, apperr.Internal("Could not resolve category", err)
		}

		filter.Category = &c.Name
		span.SetAttributes(attribute.String("catalog.category", c.Name))
	}

	items, err := s.products.List(ctx, filter)
	if err != nil {
		return product.Page{}, apperr.Internal("Could not list products", err)
	}

	total, err := s.products.Count(ctx, filter)
	if err != nil {
		return product.Page{}, apperr.Internal("Could not count products", err)
	}

	return product.Page{
		Items:      items,
		Pagination: product.NewPagination(q.Page, q.Limit, total),
	}, nil
}

// ListCategories returns all categories by name. Stored documents that no
// longer decode are left out, logged and counted.
func (s *QueryService) ListCategories(ctx context.Context) (items []category.Category, err error) {
	ctx, span := startSpan(ctx, "ListCategories")
	defer func() { endSpan(span, err) }()

	items, skipped, err := s.categories.List(ctx)
	if err != nil {
		return nil, apperr.Internal("Could not list categories", err)
	}

	if skipped > 0 {
		s.log.WarnContext(ctx, "skipped undecodable category documents", "count", skipped)
		if s.prom != nil {
			s.prom.SkippedDocuments.WithLabelValues("categories").Add(float64(skipped))
		}
		span.SetAttributes(attribute.Int("catalog.skipped", skipped))
	}

	return items, nil
}

func (s *QueryService) GetCategory(ctx context.Context, id string) (c category.Category, err error) {
	ctx, span := startSpan(ctx, "GetCategory")
	defer func() { endSpan(span, err) }()

	c, err = s.categories.GetByID(ctx, id)
	if err != nil {
		return category.Category{}, lookupErr(entityCategory, err)
	}
	return c, nil
}

func (s *QueryService) GetProduct(ctx context.Context, id string) (p product.Product, err error) {
	ctx, span := startSpan(ctx, "GetProduct")
	defer func() { endSpan(span, err) }()

	p, err = s.products.GetByID(ctx, id)
	if err != nil {
		return product.Product{}, lookupErr(entityProduct, err)
	}
	return p, nil
}
