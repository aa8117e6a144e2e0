package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/geocoder89/bakery/internal/cache"
	"github.com/geocoder89/bakery/internal/domain/category"
)

const categoryListKey = "categories:all"

// CachedCategories keeps the full category listing in memory for a short TTL.
// Writes through the same value drop the cached listing. The cache is local to
// the process, so writes made by other instances show up only after the TTL.
type CachedCategories struct {
	CategoryRepo
	lists *cache.Cache[[]category.Category]

	// gen changes on every write; a listing read across a write is not stored
	mu  sync.Mutex
	gen uint64
}

func NewCachedCategories(inner CategoryRepo, ttl time.Duration) *CachedCategories {
	return &CachedCategories{CategoryRepo: inner, lists: cache.New[[]category.Category](ttl)}
}

// List serves the cached listing when present. Skipped documents are only
// reported by the read that went to the store.
func (c *CachedCategories) List(ctx context.Context) ([]category.Category, int, error) {
	if hit, ok := c.lists.Get(categoryListKey); ok {
		return cloneCategories(hit), 0, nil
	}

	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()

	items, skipped, err := c.CategoryRepo.List(ctx)
	if err != nil {
		return nil, 0, err
	}

	c.mu.Lock()
	if c.gen == gen {
		c.lists.Set(categoryListKey, cloneCategories(items))
	}
	c.mu.Unlock()

	return items, skipped, nil
}

func (c *CachedCategories) Create(ctx context.Context, cat category.Category) (category.Category, error) {
	defer c.invalidate()
	return c.CategoryRepo.Create(ctx, cat)
}

func (c *CachedCategories) Update(ctx context.Context, id string, patch category.Patch) (category.Category, error) {
	defer c.invalidate()
	return c.CategoryRepo.Update(ctx, id, patch)
}

func (c *CachedCategories) Delete(ctx context.Context, id string) error {
	defer c.invalidate()
	return c.CategoryRepo.Delete(ctx, id)
}

func (c *CachedCategories) invalidate() {
	c.mu.Lock()
	c.gen++
	c.lists.Delete(categoryListKey)
	c.mu.Unlock()
}

func cloneCategories(in []category.Category) []category.Category {
	out := make([]category.Category, len(in))
	for i, c := range in {
		c.Images = append([]string{}, c.Images...)
		out[i] = c
	}
	return out
}
