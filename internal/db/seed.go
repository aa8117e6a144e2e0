package db

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/bakery/internal/config"
	"github.com/geocoder89/bakery/internal/domain/category"
	"github.com/geocoder89/bakery/internal/domain/user"
	"github.com/geocoder89/bakery/internal/repo"
	"github.com/geocoder89/bakery/internal/security"
	"github.com/gosimple/slug"
)

type UserStore interface {
	Create(ctx context.Context, u user.User) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
}

type CategoryStore interface {
	Create(ctx context.Context, c category.Category) (category.Category, error)
	FindByName(ctx context.Context, name string) (category.Category, error)
}

var DefaultCategories = []category.Category{
	{Name: "Cakes", Description: "Celebration and everyday cakes baked to order."},
	{Name: "Pastries", Description: "Flaky, buttery pastries made fresh every morning."},
	{Name: "Breads", Description: "Artisan loaves, rolls and buns."},
	{Name: "Cookies", Description: "Crisp and chewy cookies by the piece or the box."},
	{Name: "Cupcakes", Description: "Frosted cupcakes in rotating seasonal flavours."},
}

// EnsureAdminUser creates the configured admin account once. It is a no-op
// when no admin credentials are configured or the email already exists.
func EnsureAdminUser(ctx context.Context, users UserStore, cfg config.Config) (bool, error) {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return false, nil
	}

	_, err := users.GetByEmail(ctx, cfg.AdminEmail)

	if err == nil {
		return false, nil
	}

	if !errors.Is(err, repo.ErrNotFound) {
		return false, err
	}

	hash, err := security.HashPassword(cfg.AdminPassword)

	if err != nil {
		return false, err
	}

	_, err = users.Create(ctx, user.User{
		Email:        cfg.AdminEmail,
		FullName:     cfg.AdminName,
		PasswordHash: hash,
		IsAdmin:      true,
		CreatedAt:    time.Now().UTC(),
	})

	// lost a race with another seeder
	if errors.Is(err, repo.ErrDuplicateKey) {
		return false, nil
	}

	return err == nil, err
}

// EnsureDefaultCategories inserts any of DefaultCategories that are missing
// and returns how many were created.
func EnsureDefaultCategories(ctx context.Context, categories CategoryStore) (int, error) {
	created := 0

	for _, c := range DefaultCategories {
		_, err := categories.FindByName(ctx, c.Name)
		if err == nil {
			continue
		}
		if !errors.Is(err, repo.ErrNotFound) {
			return created, err
		}

		c.Slug = slug.Make(c.Name)
		c.Images = []string{}

		if _, err := categories.Create(ctx, c); err != nil {
			if errors.Is(err, repo.ErrDuplicateKey) {
				continue
			}
			return created, err
		}
		created++
	}

	return created, nil
}
