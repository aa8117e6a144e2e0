package middlewares

import (
	"net/http"

	"github.com/geocoder89/bakery/internal/auth"
	"github.com/gin-gonic/gin"
)

// RequireAdmin must run after RequireAuth.
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := UserFromContext(c)

		if !ok {
			unauthorized(c, "Missing identity context")
			return
		}
		if _, err := auth.RequireAdmin(u); err != nil {
			abortWithError(c, http.StatusForbidden, "forbidden", "Not enough permissions")
			return
		}
		c.Next()
	}
}
