package catalog

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/geocoder89/bakery/internal/apperr"
	"github.com/geocoder89/bakery/internal/assets"
	"github.com/geocoder89/bakery/internal/domain/category"
	"github.com/geocoder89/bakery/internal/domain/product"
	"github.com/geocoder89/bakery/internal/repo"
	"github.com/gosimple/slug"
)

const (
	msgCategoryExists  = "Category name already exists"
	msgCategoryInUse   = "Cannot delete category with existing products"
	msgCategoryRenamed = "Cannot rename a category that products still reference"
	msgNoFields        = "No fields to update"
)

type MutationService struct {
	categories CategoryRepo
	products   ProductRepo
	assets     AssetStore
	log        *slog.Logger
	now        func() time.Time
}

func NewMutationService(categories CategoryRepo, products ProductRepo, store AssetStore, log *slog.Logger) *MutationService {
	if log == nil {
		log = slog.Default()
	}
	return &MutationService{
		categories: categories,
		products:   products,
		assets:     store,
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// CreateCategory stores a new category. The slug is derived from the name when
// left blank, and the image is optional.
func (s *MutationService) CreateCategory(ctx context.Context, req category.CreateRequest, image *assets.Upload) (c category.Category, err error) {
	ctx, span := startSpan(ctx, "CreateCategory")
	defer func() { endSpan(span, err) }()

	if image != nil && !assets.Validate(image.Filename) {
		return category.Category{}, uploadErr(assets.ErrInvalidImage)
	}

	taken, err := s.categories.NameTaken(ctx, req.Name, "")
	if err != nil {
		return category.Category{}, apperr.Internal("Could not check category name", err)
	}
	if taken {
		return category.Category{}, apperr.Conflict(msgCategoryExists)
	}

	c = category.Category{
		Name:        req.Name,
		Description: req.Description,
		Slug:        req.Slug,
		Images:      []string{},
	}
	if c.Slug == "" {
		c.Slug = slug.Make(req.Name)
	}

	stored, err := s.saveImage(ctx, image)
	if err != nil {
		return category.Category{}, err
	}
	if stored != "" {
		c.Images = append(c.Images, stored)
	}

	created, err := s.categories.Create(ctx, c)
	if err != nil {
		s.discardImage(stored)
		if errors.Is(err, repo.ErrDuplicateKey) {
			return category.Category{}, apperr.Conflict(msgCategoryExists)
		}
		return category.Category{}, apperr.Internal("Could not create category", err)
	}

	s.log.InfoContext(ctx, "category created", "id", created.ID, "name", created.Name)
	return created, nil
}

// CreateProduct stores a new available product. The category must name an
// existing category and the image is required.
func (s *MutationService) CreateProduct(ctx context.Context, req product.CreateRequest, image *assets.Upload) (p product.Product, err error) {
	ctx, span := startSpan(ctx, "CreateProduct")
	defer func() { endSpan(span, err) }()

	tags, err := product.ParseTags(req.Tags)
	if err != nil {
		return product.Product{}, apperr.Wrap(apperr.ErrBadRequest, "Tags must be a JSON array of strings", err)
	}

	if image == nil {
		return product.Product{}, apperr.BadRequest("Image is required")
	}
	if !assets.Validate(image.Filename) {
		return product.Product{}, uploadErr(assets.ErrInvalidImage)
	}

	if err := s.ensureCategory(ctx, req.Category); err != nil {
		return product.Product{}, err
	}

	stored, err := s.saveImage(ctx, image)
	if err != nil {
		return product.Product{}, err
	}

	now := s.now()
	p = product.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Available:   true,
		Discount:    req.Discount,
		Tags:        tags,
		Images:      []string{stored},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	created, err := s.products.Create(ctx, p)
	if err != nil {
		s.discardImage(stored)
		return product.Product{}, apperr.Internal("Could not create product", err)
	}

	s.log.InfoContext(ctx, "product created", "id", created.ID, "category", created.Category)
	return created, nil
}

// UpdateCategory merges the present fields into the stored category and
// appends the image when one is given.
func (s *MutationService) UpdateCategory(ctx context.Context, id string, patch category.Patch, image *assets.Upload) (c category.Category, err error) {
	ctx, span := startSpan(ctx, "UpdateCategory")
	defer func() { endSpan(span, err) }()

	current, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return category.Category{}, lookupErr(entityCategory, err)
	}

	if patch.IsEmpty() && image == nil {
		return category.Category{}, apperr.BadRequest(msgNoFields)
	}

	if image != nil && !assets.Validate(image.Filename) {
		return category.Category{}, uploadErr(assets.ErrInvalidImage)
	}

	if patch.Renames(current) {
		taken, err := s.categories.NameTaken(ctx, *patch.Name, id)
		if err != nil {
			return category.Category{}, apperr.Internal("Could not check category name", err)
		}
		if taken {
			return category.Category{}, apperr.Conflict(msgCategoryExists)
		}

		// products reference categories by name
		n, err := s.products.CountByCategory(ctx, current.Name)
		if err != nil {
			return category.Category{}, apperr.Internal("Could not count products", err)
		}
		if n > 0 {
			return category.Category{}, apperr.Conflict(msgCategoryRenamed)
		}
	}

	stored, err := s.saveImage(ctx, image)
	if err != nil {
		return category.Category{}, err
	}
	if stored != "" {
		patch.AddImage = &stored
	}

	updated, err := s.categories.Update(ctx, id, patch)
	if err != nil {
		s.discardImage(stored)
		switch {
		case errors.Is(err, repo.ErrDuplicateKey):
			return category.Category{}, apperr.Conflict(msgCategoryExists)
		case errors.Is(err, repo.ErrNotFound), errors.Is(err, repo.ErrInvalidID):
			return category.Category{}, lookupErr(entityCategory, err)
		}
		return category.Category{}, apperr.Internal("Could not update category", err)
	}

	s.log.InfoContext(ctx, "category updated", "id", id)
	return updated, nil
}

// UpdateProduct merges the present fields into the stored product, appends the
// image when one is given and always refreshes updated_at.
func (s *MutationService) UpdateProduct(ctx context.Context, id string, patch product.Patch, image *assets.Upload) (p product.Product, err error) {
	ctx, span := startSpan(ctx, "UpdateProduct")
	defer func() { endSpan(span, err) }()

	if _, err := s.products.GetByID(ctx, id); err != nil {
		return product.Product{}, lookupErr(entityProduct, err)
	}

	if patch.IsEmpty() && image == nil {
		return product.Product{}, apperr.BadRequest(msgNoFields)
	}

	if image != nil && !assets.Validate(image.Filename) {
		return product.Product{}, uploadErr(assets.ErrInvalidImage)
	}

	if patch.Category != nil {
		if err := s.ensureCategory(ctx, *patch.Category); err != nil {
			return product.Product{}, err
		}
	}

	stored, err := s.saveImage(ctx, image)
	if err != nil {
		return product.Product{}, err
	}
	if stored != "" {
		patch.AddImage = &stored
	}

	updated, err := s.products.Update(ctx, id, patch, s.now())
	if err != nil {
		s.discardImage(stored)
		if errors.Is(err, repo.ErrNotFound) || errors.Is(err, repo.ErrInvalidID) {
			return product.Product{}, lookupErr(entityProduct, err)
		}
		return product.Product{}, apperr.Internal("Could not update product", err)
	}

	s.log.InfoContext(ctx, "product updated", "id", id)
	return updated, nil
}

// DeleteCategory refuses while any product references the category by name.
// Its image files are removed after the document, best-effort.
func (s *MutationService) DeleteCategory(ctx context.Context, id string) (err error) {
	ctx, span := startSpan(ctx, "DeleteCategory")
	defer func() { endSpan(span, err) }()

	c, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return lookupErr(entityCategory, err)
	}

	n, err := s.products.CountByCategory(ctx, c.Name)
	if err != nil {
		return apperr.Internal("Could not count products", err)
	}
	if n > 0 {
		return apperr.Conflict(msgCategoryInUse)
	}

	if err := s.categories.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return lookupErr(entityCategory, err)
		}
		return apperr.Internal("Could not delete category", err)
	}

	s.discardImages(ctx, c.Images)
	s.log.InfoContext(ctx, "category deleted", "id", id, "name", c.Name)
	return nil
}

// DeleteProduct removes the product's image files, then the document. File
// removal failures are logged and do not fail the delete.
func (s *MutationService) DeleteProduct(ctx context.Context, id string) (err error) {
	ctx, span := startSpan(ctx, "DeleteProduct")
	defer func() { endSpan(span, err) }()

	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return lookupErr(entityProduct, err)
	}

	s.discardImages(ctx, p.Images)

	if err := s.products.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return lookupErr(entityProduct, err)
		}
		return apperr.Internal("Could not delete product", err)
	}

	s.log.InfoContext(ctx, "product deleted", "id", id)
	return nil
}

func (s *MutationService) ensureCategory(ctx context.Context, name string) error {
	_, err := s.categories.FindByName(ctx, name)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repo.ErrNotFound):
		return apperr.NotFound("Category not found")
	default:
		return apperr.Internal("Could not resolve category", err)
	}
}

func (s *MutationService) saveImage(ctx context.Context, image *assets.Upload) (string, error) {
	if image == nil {
		return "", nil
	}

	stored, err := s.assets.Save(ctx, *image)
	if err != nil {
		return "", uploadErr(err)
	}
	return stored, nil
}

// discardImage rolls back a file saved for a write that then failed.
func (s *MutationService) discardImage(stored string) {
	if stored == "" {
		return
	}
	if !s.assets.Delete(stored) {
		s.log.Warn("could not roll back stored image", "path", stored)
	}
}

func (s *MutationService) discardImages(ctx context.Context, images []string) {
	for _, img := range images {
		if !s.assets.Delete(img) {
			s.log.WarnContext(ctx, "image file not removed", "path", img)
		}
	}
}
