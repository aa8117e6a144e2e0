package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/geocoder89/bakery/internal/domain/product"
	"github.com/geocoder89/bakery/internal/repo"
)

type productEntry struct {
	val product.Product
	seq int
}

type ProductsRepo struct {
	mu    sync.RWMutex
	seq   int
	items map[string]productEntry
}

func NewProductsRepo() *ProductsRepo {
	return &ProductsRepo{items: make(map[string]productEntry)}
}

func (r *ProductsRepo) Create(ctx context.Context, p product.Product) (product.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p.ID = newID()
	p.Tags = cloneStrings(p.Tags)
	p.Images = cloneStrings(p.Images)
	r.seq++
	r.items[p.ID] = productEntry{val: p, seq: r.seq}

	return p, nil
}

func (r *ProductsRepo) GetByID(ctx context.Context, id string) (product.Product, error) {
	if err := checkID(id); err != nil {
		return product.Product{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.items[id]
	if !ok {
		return product.Product{}, repo.ErrNotFound
	}
	return e.val, nil
}

// List returns one page ordered by name; ties keep insertion order.
func (r *ProductsRepo) List(ctx context.Context, f product.ListFilter) ([]product.Product, error) {
	matched := r.matching(f)

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].val.Name != matched[j].val.Name {
			return matched[i].val.Name < matched[j].val.Name
		}
		return matched[i].seq < matched[j].seq
	})

	out := make([]product.Product, 0, f.Limit)
	for i := f.Skip; i < len(matched) && len(out) < f.Limit; i++ {
		out = append(out, matched[i].val)
	}
	return out, nil
}

func (r *ProductsRepo) Count(ctx context.Context, f product.ListFilter) (int, error) {
	return len(r.matching(f)), nil
}

func (r *ProductsRepo) CountByCategory(ctx context.Context, name string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, e := range r.items {
		if e.val.Category == name {
			n++
		}
	}
	return n, nil
}

func (r *ProductsRepo) Update(ctx context.Context, id string, patch product.Patch, now time.Time) (product.Product, error) {
	if err := checkID(id); err != nil {
		return product.Product{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.items[id]
	if !ok {
		return product.Product{}, repo.ErrNotFound
	}

	e.val = patch.Apply(e.val, now)
	r.items[id] = e

	return e.val, nil
}

func (r *ProductsRepo) Delete(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return repo.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *ProductsRepo) matching(f product.ListFilter) []productEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]productEntry, 0, len(r.items))
	for _, e := range r.items {
		if f.AvailableOnly && !e.val.Available {
			continue
		}
		if f.Category != nil && e.val.Category != *f.Category {
			continue
		}
		out = append(out, e)
	}
	return out
}
