package catalog

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/geocoder89/bakery/internal/assets"
	"github.com/geocoder89/bakery/internal/domain/category"
	"github.com/geocoder89/bakery/internal/domain/product"
	"github.com/geocoder89/bakery/internal/repo/memory"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	cats  *memory.CategoriesRepo
	prods *memory.ProductsRepo
	store *assets.Store
	query *QueryService
	mut   *MutationService
	clock time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, err := assets.NewStore(t.TempDir(), 1024, log, nil)
	require.NoError(t, err)

	f := &fixture{
		cats:  memory.NewCategoriesRepo(),
		prods: memory.NewProductsRepo(),
		store: store,
		clock: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC),
	}
	f.query = NewQueryService(f.cats, f.prods, log, nil)
	f.mut = NewMutationService(f.cats, f.prods, store, log)
	f.mut.now = func() time.Time { return f.clock }

	return f
}

func (f *fixture) tick(d time.Duration) {
	f.clock = f.clock.Add(d)
}

func (f *fixture) category(t *testing.T, name string) category.Category {
	t.Helper()

	c, err := f.mut.CreateCategory(context.Background(), category.CreateRequest{
		Name:        name,
		Description: "A category for testing purposes",
	}, nil)
	require.NoError(t, err)
	return c
}

func (f *fixture) product(t *testing.T, name, cat string) product.Product {
	t.Helper()

	p, err := f.mut.CreateProduct(context.Background(), product.CreateRequest{
		Name:        name,
		Description: "Baked fresh",
		Price:       4.5,
		Category:    cat,
		Tags:        `["fresh"]`,
	}, image("photo.png"))
	require.NoError(t, err)
	return p
}

func (f *fixture) files(t *testing.T) []string {
	t.Helper()

	entries, err := os.ReadDir(f.store.Root())
	require.NoError(t, err)

	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Name())
	}
	return out
}

func (f *fixture) exists(publicPath string) bool {
	_, err := os.Stat(filepath.Join(f.store.Root(), strings.TrimPrefix(publicPath, assets.PublicPrefix)))
	return err == nil
}

func image(name string) *assets.Upload {
	return &assets.Upload{Filename: name, Content: strings.NewReader("img")}
}

func ptr[T any](v T) *T {
	return &v
}
