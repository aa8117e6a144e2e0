package middlewares

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/geocoder89/bakery/internal/actorctx"
	"github.com/geocoder89/bakery/internal/apperr"
	"github.com/geocoder89/bakery/internal/domain/user"
	"github.com/gin-gonic/gin"
)

// Keep this small interface so tests can fake it easily.
type UserResolver interface {
	CurrentUser(ctx context.Context, token string) (user.User, error)
}

type AuthMiddleware struct {
	gate UserResolver
}

func NewAuthMiddleware(gate UserResolver) *AuthMiddleware {
	return &AuthMiddleware{gate: gate}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		scheme, raw, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			unauthorized(c, "Not authenticated")
			return
		}

		raw = strings.TrimSpace(raw)
		if raw == "" {
			unauthorized(c, "Not authenticated")
			return
		}

		u, err := m.gate.CurrentUser(c.Request.Context(), raw)
		if err != nil {
			if errors.Is(err, apperr.ErrUnauthorized) {
				unauthorized(c, apperr.MessageOf(err))
				return
			}
			abortWithError(c, http.StatusInternalServerError, "internal_error", "Could not validate credentials")
			return
		}

		c.Set(ctxUserKey, u)
		c.Request = c.Request.WithContext(actorctx.WithActor(c.Request.Context(), u.Email))

		c.Next()
	}
}

func UserFromContext(c *gin.Context) (user.User, bool) {
	v, ok := c.Get(ctxUserKey)
	if !ok {
		return user.User{}, false
	}
	u, ok := v.(user.User)
	return u, ok
}

func unauthorized(c *gin.Context, message string) {
	c.Header("WWW-Authenticate", "Bearer")
	abortWithError(c, http.StatusUnauthorized, "unauthorized", message)
}
