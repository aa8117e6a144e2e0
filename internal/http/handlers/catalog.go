package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/bakery/internal/assets"
	"github.com/geocoder89/bakery/internal/domain/category"
	"github.com/geocoder89/bakery/internal/domain/product"
	"github.com/gin-gonic/gin"
)

const (
	readTimeout  = 3 * time.Second
	writeTimeout = 10 * time.Second
)

type CatalogReader interface {
	ListProducts(ctx context.Context, q product.ListQuery) (product.Page, error)
	ListCategories(ctx context.Context) ([]category.Category, error)
	GetCategory(ctx context.Context, id string) (category.Category, error)
	GetProduct(ctx context.Context, id string) (product.Product, error)
}

type CatalogWriter interface {
	CreateCategory(ctx context.Context, req category.CreateRequest, image *assets.Upload) (category.Category, error)
	CreateProduct(ctx context.Context, req product.CreateRequest, image *assets.Upload) (product.Product, error)
	UpdateCategory(ctx context.Context, id string, patch category.Patch, image *assets.Upload) (category.Category, error)
	UpdateProduct(ctx context.Context, id string, patch product.Patch, image *assets.Upload) (product.Product, error)
	DeleteCategory(ctx context.Context, id string) error
	DeleteProduct(ctx context.Context, id string) error
}

type CatalogHandler struct {
	reader CatalogReader
	writer CatalogWriter
}

func NewCatalogHandler(reader CatalogReader, writer CatalogWriter) *CatalogHandler {
	return &CatalogHandler{reader: reader, writer: writer}
}

// timeouts hang off the request context so spans and cancellation carry through
func withTimeout(ctx *gin.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx.Request.Context(), d)
}

// formImage returns the optional "image" file of a multipart request. The
// returned closer is always safe to call.
func formImage(ctx *gin.Context) (*assets.Upload, func(), error) {
	noop := func() {}

	fh, err := ctx.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, noop, nil
	}
	if err != nil {
		return nil, noop, err
	}

	f, err := fh.Open()
	if err != nil {
		return nil, noop, err
	}

	return &assets.Upload{Filename: fh.Filename, Content: f}, func() { _ = f.Close() }, nil
}

// bindImage reports false after writing a 400 when the image part is unreadable.
func bindImage(ctx *gin.Context) (*assets.Upload, func(), bool) {
	img, closeFn, err := formImage(ctx)
	if err != nil {
		RespondBadRequest(ctx, "Could not read image upload", gin.H{"reason": err.Error()})
		return nil, closeFn, false
	}
	return img, closeFn, true
}

func (h *CatalogHandler) ListCategories(ctx *gin.Context) {
	cctx, cancel := withTimeout(ctx, readTimeout)
	defer cancel()

	items, err := h.reader.ListCategories(cctx)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, category.NewList(items))
}

func (h *CatalogHandler) GetCategory(ctx *gin.Context) {
	cctx, cancel := withTimeout(ctx, readTimeout)
	defer cancel()

	c, err := h.reader.GetCategory(cctx, ctx.Param("id"))
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, c)
}

func (h *CatalogHandler) CreateCategory(ctx *gin.Context) {
	var req category.CreateRequest

	if !BindForm(ctx, &req) {
		return
	}

	img, closeImg, ok := bindImage(ctx)
	defer closeImg()
	if !ok {
		return
	}

	cctx, cancel := withTimeout(ctx, writeTimeout)
	defer cancel()

	c, err := h.writer.CreateCategory(cctx, req, img)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, c)
}

func (h *CatalogHandler) UpdateCategory(ctx *gin.Context) {
	var req category.UpdateRequest

	if !BindForm(ctx, &req) {
		return
	}

	img, closeImg, ok := bindImage(ctx)
	defer closeImg()
	if !ok {
		return
	}

	cctx, cancel := withTimeout(ctx, writeTimeout)
	defer cancel()

	c, err := h.writer.UpdateCategory(cctx, ctx.Param("id"), req.Patch(), img)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, c)
}

func (h *CatalogHandler) DeleteCategory(ctx *gin.Context) {
	cctx, cancel := withTimeout(ctx, writeTimeout)
	defer cancel()

	if err := h.writer.DeleteCategory(cctx, ctx.Param("id")); err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (h *CatalogHandler) ListProducts(ctx *gin.Context) {
	var q product.ListQuery

	if !BindQuery(ctx, &q) {
		return
	}

	cctx, cancel := withTimeout(ctx, readTimeout)
	defer cancel()

	page, err := h.reader.ListProducts(cctx, q)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, page)
}

func (h *CatalogHandler) GetProduct(ctx *gin.Context) {
	cctx, cancel := withTimeout(ctx, readTimeout)
	defer cancel()

	p, err := h.reader.GetProduct(cctx, ctx.Param("id"))
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, p)
}

func (h *CatalogHandler) CreateProduct(ctx *gin.Context) {
	var req product.CreateRequest

	if !BindForm(ctx, &req) {
		return
	}

	img, closeImg, ok := bindImage(ctx)
	defer closeImg()
	if !ok {
		return
	}

	cctx, cancel := withTimeout(ctx, writeTimeout)
	defer cancel()

	p, err := h.writer.CreateProduct(cctx, req, img)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, p)
}

func (h *CatalogHandler) UpdateProduct(ctx *gin.Context) {
	var req product.UpdateRequest

	if !BindForm(ctx, &req) {
		return
	}

	patch, err := req.Patch()
	if err != nil {
		RespondBadRequest(ctx, "Tags must be a JSON array of strings", gin.H{"field": "tags"})
		return
	}

	img, closeImg, ok := bindImage(ctx)
	defer closeImg()
	if !ok {
		return
	}

	cctx, cancel := withTimeout(ctx, writeTimeout)
	defer cancel()

	p, err := h.writer.UpdateProduct(cctx, ctx.Param("id"), patch, img)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, p)
}

func (h *CatalogHandler) DeleteProduct(ctx *gin.Context) {
	cctx, cancel := withTimeout(ctx, writeTimeout)
	defer cancel()

	if err := h.writer.DeleteProduct(cctx, ctx.Param("id")); err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}
