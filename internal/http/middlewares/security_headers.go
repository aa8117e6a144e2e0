package middlewares

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	apiCSP = "default-src 'none'; frame-ancestors 'none'"
	// uploaded files are only ever rendered as images
	uploadsCSP = "default-src 'none'; img-src 'self'; sandbox"
	// Swagger UI loads its bundle from unpkg and bootstraps inline.
	docsCSP = "default-src 'self'; base-uri 'none'; frame-ancestors 'none'; object-src 'none'; connect-src 'self'; img-src 'self' data: https:; font-src 'self' https://unpkg.com data:; style-src 'self' 'unsafe-inline' https://unpkg.com; script-src 'self' 'unsafe-inline' https://unpkg.com"
)

func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")

		p := c.Request.URL.Path
		switch {
		case strings.HasPrefix(p, "/docs"):
			h.Set("Content-Security-Policy", docsCSP)
		case strings.HasPrefix(p, "/uploads/"):
			h.Set("Content-Security-Policy", uploadsCSP)
			// the storefront embeds product images from its own origin
			h.Set("Cross-Origin-Resource-Policy", "cross-origin")
		default:
			h.Set("Content-Security-Policy", apiCSP)
			h.Set("Cross-Origin-Resource-Policy", "same-site")
		}

		c.Next()
	}
}
