package memory

import (
	"context"
	"sync"

	"github.com/geocoder89/bakery/internal/domain/user"
	"github.com/geocoder89/bakery/internal/repo"
)

type UsersRepo struct {
	mu      sync.RWMutex
	byEmail map[string]user.User
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{byEmail: make(map[string]user.User)}
}

func (r *UsersRepo) Create(ctx context.Context, u user.User) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[u.Email]; ok {
		return user.User{}, repo.ErrDuplicateKey
	}

	u.ID = newID()
	r.byEmail[u.Email] = u

	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byEmail[email]
	if !ok {
		return user.User{}, repo.ErrNotFound
	}
	return u, nil
}

// Remove deletes a user outright; there is no API for it, tests use it to
// simulate an account disappearing under a live token.
func (r *UsersRepo) Remove(email string) {
	r.mu.Lock()
	delete(r.byEmail, email)
	r.mu.Unlock()
}
