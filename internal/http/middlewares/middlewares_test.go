package middlewares_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/geocoder89/bakery/internal/actorctx"
	"github.com/geocoder89/bakery/internal/apperr"
	"github.com/geocoder89/bakery/internal/domain/user"
	"github.com/geocoder89/bakery/internal/http/middlewares"
	"github.com/geocoder89/bakery/internal/ratelimit"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeGate map[string]user.User

func (g fakeGate) CurrentUser(_ context.Context, token string) (user.User, error) {
	u, ok := g[token]
	if !ok {
		return user.User{}, apperr.Unauthorized("Could not validate credentials")
	}
	return u, nil
}

func newAuthRouter() *gin.Engine {
	mw := middlewares.NewAuthMiddleware(fakeGate{
		"admin-token":    {Email: "admin@example.com", IsAdmin: true},
		"customer-token": {Email: "c@example.com"},
	})

	r := gin.New()
	r.GET("/me", mw.RequireAuth(), func(c *gin.Context) {
		u, _ := middlewares.UserFromContext(c)
		c.String(http.StatusOK, u.Email)
	})
	r.POST("/admin", mw.RequireAuth(), mw.RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})
	return r
}

func TestRequireAuthAndAdmin(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		header string
		want   int
	}{
		{name: "no header", method: http.MethodGet, path: "/me", want: http.StatusUnauthorized},
		{name: "wrong scheme", method: http.MethodGet, path: "/me", header: "Basic abc", want: http.StatusUnauthorized},
		{name: "empty token", method: http.MethodGet, path: "/me", header: "Bearer ", want: http.StatusUnauthorized},
		{name: "unknown token", method: http.MethodGet, path: "/me", header: "Bearer nope", want: http.StatusUnauthorized},
		{name: "valid", method: http.MethodGet, path: "/me", header: "Bearer customer-token", want: http.StatusOK},
		{name: "lowercase scheme", method: http.MethodGet, path: "/me", header: "bearer customer-token", want: http.StatusOK},
		{name: "customer on admin route", method: http.MethodPost, path: "/admin", header: "Bearer customer-token", want: http.StatusForbidden},
		{name: "anonymous on admin route", method: http.MethodPost, path: "/admin", want: http.StatusUnauthorized},
		{name: "admin", method: http.MethodPost, path: "/admin", header: "Bearer admin-token", want: http.StatusCreated},
	}

	r := newAuthRouter()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code, w.Body.String())
			if tt.want == http.StatusUnauthorized {
				assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	r := gin.New()
	r.Use(middlewares.RequestID())
	r.POST("/login", middlewares.RateLimit(ratelimit.NewMemory(2, time.Minute), middlewares.KeyByIP), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	send := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = ip + ":4000"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, send("10.0.0.1").Code)

	w := send("10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "rate_limited")
	assert.Contains(t, w.Body.String(), w.Header().Get("X-Request-Id"))

	assert.Equal(t, http.StatusOK, send("10.0.0.2").Code)
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(middlewares.CORSMiddleware([]string{"http://shop.example"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "http://shop.example")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://shop.example", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequireAuthPutsActorOnRequestContext(t *testing.T) {
	mw := middlewares.NewAuthMiddleware(fakeGate{"admin-token": {Email: "admin@example.com", IsAdmin: true}})

	r := gin.New()
	r.GET("/who", mw.RequireAuth(), func(c *gin.Context) {
		actor, _ := actorctx.ActorFrom(c.Request.Context())
		c.String(http.StatusOK, actor)
	})

	req := httptest.NewRequest(http.MethodGet, "/who", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "admin@example.com", w.Body.String())
}

func TestCORSPreflightAndWildcard(t *testing.T) {
	r := gin.New()
	r.Use(middlewares.CORSMiddleware([]string{"*"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "http://anywhere.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://anywhere.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PUT")
	assert.Equal(t, "600", w.Header().Get("Access-Control-Max-Age"))
}

func TestSecurityHeadersByPath(t *testing.T) {
	r := gin.New()
	r.Use(middlewares.SecurityHeaders())
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }
	r.GET("/api/products", ok)
	r.GET("/uploads/*file", ok)
	r.GET("/docs", ok)

	get := func(path string) http.Header {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w.Header()
	}

	api := get("/api/products")
	assert.Equal(t, "nosniff", api.Get("X-Content-Type-Options"))
	assert.Equal(t, "same-site", api.Get("Cross-Origin-Resource-Policy"))

	img := get("/uploads/cake.png")
	assert.Contains(t, img.Get("Content-Security-Policy"), "sandbox")
	assert.Equal(t, "cross-origin", img.Get("Cross-Origin-Resource-Policy"))

	assert.Contains(t, get("/docs").Get("Content-Security-Policy"), "unpkg.com")
}
