package auth

import (
	"context"
	"errors"

	"github.com/geocoder89/bakery/internal/apperr"
	"github.com/geocoder89/bakery/internal/domain/user"
	"github.com/geocoder89/bakery/internal/repo"
)

// Keep these small so tests can fake them easily.
type TokenVerifier interface {
	Verify(token string) (Identity, error)
}

type UserFinder interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
}

// Gate resolves bearer tokens to stored users. It holds no per-request state.
type Gate struct {
	tokens TokenVerifier
	users  UserFinder
}

func NewGate(tokens TokenVerifier, users UserFinder) *Gate {
	return &Gate{tokens: tokens, users: users}
}

// CurrentUser fails with apperr.ErrUnauthorized when the token is invalid or
// its subject no longer exists.
func (g *Gate) CurrentUser(ctx context.Context, token string) (user.User, error) {
	id, err := g.tokens.Verify(token)
	if err != nil {
		return user.User{}, apperr.Unauthorized("Could not validate credentials")
	}

	u, err := g.users.GetByEmail(ctx, id.Email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return user.User{}, apperr.Unauthorized("Could not validate credentials")
		}
		return user.User{}, apperr.Internal("Could not load user", err)
	}

	return u, nil
}

func RequireAdmin(u user.User) (user.User, error) {
	if !u.IsAdmin {
		return user.User{}, apperr.Forbidden("Not enough permissions")
	}
	return u, nil
}
