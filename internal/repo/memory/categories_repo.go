package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/geocoder89/bakery/internal/domain/category"
	"github.com/geocoder89/bakery/internal/repo"
)

type categoryEntry struct {
	val category.Category
	seq int
}

type CategoriesRepo struct {
	mu    sync.RWMutex
	seq   int
	items map[string]categoryEntry
}

func NewCategoriesRepo() *CategoriesRepo {
	return &CategoriesRepo{items: make(map[string]categoryEntry)}
}

func (r *CategoriesRepo) Create(ctx context.Context, c category.Category) (category.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.nameUsedLocked(c.Name, "") {
		return category.Category{}, repo.ErrDuplicateKey
	}

	c.ID = newID()
	c.Images = cloneStrings(c.Images)
	r.seq++
	r.items[c.ID] = categoryEntry{val: c, seq: r.seq}

	return c, nil
}

func (r *CategoriesRepo) GetByID(ctx context.Context, id string) (category.Category, error) {
	if err := checkID(id); err != nil {
		return category.Category{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.items[id]
	if !ok {
		return category.Category{}, repo.ErrNotFound
	}
	return e.val, nil
}

func (r *CategoriesRepo) FindByName(ctx context.Context, name string) (category.Category, error) {
	return r.find(func(c category.Category) bool { return c.Name == name })
}

func (r *CategoriesRepo) FindByNameFold(ctx context.Context, name string) (category.Category, error) {
	return r.find(func(c category.Category) bool { return strings.EqualFold(c.Name, name) })
}

func (r *CategoriesRepo) NameTaken(ctx context.Context, name, exceptID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.nameUsedLocked(name, exceptID), nil
}

func (r *CategoriesRepo) List(ctx context.Context) ([]category.Category, int, error) {
	r.mu.RLock()
	entries := make([]categoryEntry, 0, len(r.items))
	for _, e := range r.items {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].val.Name != entries[j].val.Name {
			return entries[i].val.Name < entries[j].val.Name
		}
		return entries[i].seq < entries[j].seq
	})

	out := make([]category.Category, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.val)
	}
	return out, 0, nil
}

func (r *CategoriesRepo) Update(ctx context.Context, id string, patch category.Patch) (category.Category, error) {
	if err := checkID(id); err != nil {
		return category.Category{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.items[id]
	if !ok {
		return category.Category{}, repo.ErrNotFound
	}

	if patch.Name != nil && r.nameUsedLocked(*patch.Name, id) {
		return category.Category{}, repo.ErrDuplicateKey
	}

	e.val = patch.Apply(e.val)
	r.items[id] = e

	return e.val, nil
}

func (r *CategoriesRepo) Delete(ctx context.Context, id string) error {
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

func (r *CategoriesRepo) find(match func(category.Category) bool) (category.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.items {
		if match(e.val) {
			return e.val, nil
		}
	}
	return category.Category{}, repo.ErrNotFound
}

func (r *CategoriesRepo) nameUsedLocked(name, exceptID string) bool {
	for id, e := range r.items {
		if id != exceptID && e.val.Name == name {
			return true
		}
	}
	return false
}

func cloneStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return append([]string(nil), in...)
}
