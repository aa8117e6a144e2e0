// Package catalog holds the read and write paths over categories and
// products. Handlers call into it with already-bound input; every error it
// returns carries an apperr kind.
package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/geocoder89/bakery/internal/apperr"
	"github.com/geocoder89/bakery/internal/assets"
	"github.com/geocoder89/bakery/internal/domain/category"
	"github.com/geocoder89/bakery/internal/domain/product"
	"github.com/geocoder89/bakery/internal/repo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/geocoder89/bakery/internal/catalog")

type CategoryRepo interface {
	Create(ctx context.Context, c category.Category) (category.Category, error)
	GetByID(ctx context.Context, id string) (category.Category, error)
	FindByName(ctx context.Context, name string) (category.Category, error)
	FindByNameFold(ctx context.Context, name string) (category.Category, error)
	NameTaken(ctx context.Context, name, exceptID string) (bool, error)
	// List returns the decodable categories by name and how many stored
	// documents were skipped.
	List(ctx context.Context) ([]category.Category, int, error)
	Update(ctx context.Context, id string, patch category.Patch) (category.Category, error)
	Delete(ctx context.Context, id string) error
}

type ProductRepo interface {
	Create(ctx context.Context, p product.Product) (product.Product, error)
	GetByID(ctx context.Context, id string) (product.Product, error)
	List(ctx context.Context, f product.ListFilter) ([]product.Product, error)
	Count(ctx context.Context, f product.ListFilter) (int, error)
	CountByCategory(ctx context.Context, name string) (int, error)
	Update(ctx context.Context, id string, patch product.Patch, now time.Time) (product.Product, error)
	Delete(ctx context.Context, id string) error
}

type AssetStore interface {
	Save(ctx context.Context, up assets.Upload) (string, error)
	Delete(publicPath string) bool
}

const (
	entityCategory = "Category"
	entityProduct  = "Product"
)

// lookupErr maps repo lookup failures for an entity onto apperr kinds.
func lookupErr(entity string, err error) error {
	switch {
	case errors.Is(err, repo.ErrInvalidID):
		return apperr.BadRequest("Invalid " + strings.ToLower(entity) + " ID")
	case errors.Is(err, repo.ErrNotFound):
		return apperr.NotFound(entity + " not found")
	default:
		return apperr.Internal("Could not load "+strings.ToLower(entity), err)
	}
}

func uploadErr(err error) error {
	switch {
	case errors.Is(err, assets.ErrInvalidImage):
		return apperr.Wrap(apperr.ErrBadRequest, "Invalid image format. Allowed: png, jpg, jpeg, webp", err)
	case errors.Is(err, assets.ErrTooLarge):
		return apperr.Wrap(apperr.ErrBadRequest, "Image is too large", err)
	default:
		return apperr.Internal("Could not store image", err)
	}
}

func startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "catalog."+name)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, apperr.MessageOf(err))
	}
	span.End()
}
