package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/geocoder89/bakery/internal/assets"
	"github.com/geocoder89/bakery/internal/auth"
	"github.com/geocoder89/bakery/internal/catalog"
	"github.com/geocoder89/bakery/internal/config"
	"github.com/geocoder89/bakery/internal/db"
	"github.com/geocoder89/bakery/internal/domain/category"
	"github.com/geocoder89/bakery/internal/domain/product"
	apphttp "github.com/geocoder89/bakery/internal/http"
	"github.com/geocoder89/bakery/internal/observability"
	"github.com/geocoder89/bakery/internal/ratelimit"
	"github.com/geocoder89/bakery/internal/repo/memory"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "admin-pass"
)

type testApp struct {
	router http.Handler
	store  *assets.Store
	tokens *auth.Manager
	users  *memory.UsersRepo
}

func testConfig(uploadDir string) config.Config {
	return config.Config{
		Env:                 "test",
		ServiceName:         "bakery-test",
		JWTSecret:           "test-secret-key",
		JWTAccessTTLMinutes: 30,
		UploadDir:           uploadDir,
		MaxUploadBytes:      1024,
		CORSAllowedOrigins:  []string{"http://localhost:3000"},
		RateLimitPerMinute:  1000,
		AdminEmail:          adminEmail,
		AdminPassword:       adminPassword,
		AdminName:           "Test Admin",
	}
}

func setupApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
	cfg := testConfig(t.TempDir())

	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)

	store, err := assets.NewStore(cfg.UploadDir, cfg.MaxUploadBytes, logger, prom)
	require.NoError(t, err)

	users := memory.NewUsersRepo()
	categories := catalog.NewCachedCategories(memory.NewCategoriesRepo(), time.Minute)
	products := memory.NewProductsRepo()

	_, err = db.EnsureAdminUser(context.Background(), users, cfg)
	require.NoError(t, err)

	tokens := auth.NewManager(cfg.JWTSecret, cfg.AccessTTL())

	router := apphttp.NewRouter(apphttp.Deps{
		Log:        logger,
		Cfg:        cfg,
		Users:      users,
		Categories: categories,
		Products:   products,
		Assets:     store,
		Tokens:     tokens,
		Limiter:    ratelimit.NewMemory(cfg.RateLimitPerMinute, time.Minute),
		Prom:       prom,
		Gatherer:   reg,
	})

	return &testApp{router: router, store: store, tokens: tokens, users: users}
}

func (a *testApp) do(t *testing.T, method, path string, body io.Reader, contentType, token string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testApp) login(t *testing.T, email, password string) string {
	t.Helper()

	form := url.Values{"username": {email}, "password": {password}}
	w := a.do(t, http.MethodPost, "/api/auth/login", strings.NewReader(form.Encode()), "application/x-www-form-urlencoded", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "bearer", resp.TokenType)
	return resp.AccessToken
}

func (a *testApp) register(t *testing.T, email, password string) *httptest.ResponseRecorder {
	t.Helper()

	body := fmt.Sprintf(`{"email":%q,"full_name":"Some Body","password":%q}`, email, password)
	return a.do(t, http.MethodPost, "/api/auth/register", strings.NewReader(body), "application/json", "")
}

func multipartForm(t *testing.T, fields map[string]string, filename string, content []byte) (io.Reader, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("image", filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestAuthFlow(t *testing.T) {
	app := setupApp(t)

	w := app.register(t, "baker@example.com", "secret1")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "secret1")

	w = app.register(t, "baker@example.com", "secret1")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	token := app.login(t, "baker@example.com", "secret1")

	w = app.do(t, http.MethodGet, "/api/auth/me", nil, "", token)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[map[string]any](t, w)
	assert.Equal(t, "baker@example.com", me["email"])
	assert.Equal(t, false, me["is_admin"])

	form := url.Values{"username": {"baker@example.com"}, "password": {"wrong"}}
	w = app.do(t, http.MethodPost, "/api/auth/login", strings.NewReader(form.Encode()), "application/x-www-form-urlencoded", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = app.do(t, http.MethodGet, "/api/auth/me", nil, "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTokenOutlivesAccount(t *testing.T) {
	app := setupApp(t)

	require.Equal(t, http.StatusCreated, app.register(t, "gone@example.com", "secret1").Code)
	token := app.login(t, "gone@example.com", "secret1")

	app.users.Remove("gone@example.com")

	w := app.do(t, http.MethodGet, "/api/auth/me", nil, "", token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestExpiredTokenIsUnauthorized(t *testing.T) {
	app := setupApp(t)

	// exp is truncated to whole seconds, so a nanosecond ttl is already expired
	shortLived := auth.NewManager(testConfig("").JWTSecret, time.Nanosecond)
	token, err := shortLived.Issue(auth.Identity{Email: adminEmail, IsAdmin: true}, 0)
	require.NoError(t, err)

	_, err = app.tokens.Verify(token)
	require.ErrorIs(t, err, auth.ErrInvalidToken)

	body, ct := multipartForm(t, map[string]string{"name": "Pies", "description": "Sweet and savoury pies"}, "", nil)
	w := app.do(t, http.MethodPost, "/api/categories", body, ct, token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestNonAdminCannotMutate(t *testing.T) {
	app := setupApp(t)

	require.Equal(t, http.StatusCreated, app.register(t, "customer@example.com", "secret1").Code)
	token := app.login(t, "customer@example.com", "secret1")

	requests := []struct{ method, path string }{
		{http.MethodPost, "/api/categories"},
		{http.MethodPut, "/api/categories/0123456789abcdef01234567"},
		{http.MethodDelete, "/api/categories/0123456789abcdef01234567"},
		{http.MethodPost, "/api/products"},
		{http.MethodPut, "/api/products/0123456789abcdef01234567"},
		{http.MethodDelete, "/api/products/0123456789abcdef01234567"},
	}

	for _, rq := range requests {
		w := app.do(t, rq.method, rq.path, nil, "", token)
		assert.Equal(t, http.StatusForbidden, w.Code, "%s %s", rq.method, rq.path)
	}
}

func TestCatalogLifecycle(t *testing.T) {
	app := setupApp(t)
	admin := app.login(t, adminEmail, adminPassword)

	// category with image
	body, ct := multipartForm(t, map[string]string{
		"name":        "Cakes",
		"description": "Layered and frosted cakes",
	}, "cakes.PNG", []byte("cake-image"))
	w := app.do(t, http.MethodPost, "/api/categories", body, ct, admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	cat := decode[category.Category](t, w)
	assert.Equal(t, "cakes", cat.Slug)
	require.Len(t, cat.Images, 1)

	// served statically
	w = app.do(t, http.MethodGet, cat.Images[0], nil, "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cake-image", w.Body.String())

	// duplicate name
	body, ct = multipartForm(t, map[string]string{"name": "Cakes", "description": "Another cakes category"}, "", nil)
	w = app.do(t, http.MethodPost, "/api/categories", body, ct, admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"conflict"`)

	// product in unknown category
	body, ct = multipartForm(t, map[string]string{
		"name": "Sponge", "description": "Light", "price": "12.5", "category": "Pies",
	}, "sponge.jpg", []byte("x"))
	w = app.do(t, http.MethodPost, "/api/products", body, ct, admin)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// product with exe image
	body, ct = multipartForm(t, map[string]string{
		"name": "Sponge", "description": "Light", "price": "12.5", "category": "Cakes",
	}, "sponge.exe", []byte("MZ"))
	w = app.do(t, http.MethodPost, "/api/products", body, ct, admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// oversized image
	body, ct = multipartForm(t, map[string]string{
		"name": "Sponge", "description": "Light", "price": "12.5", "category": "Cakes",
	}, "sponge.jpg", bytes.Repeat([]byte("a"), 2048))
	w = app.do(t, http.MethodPost, "/api/products", body, ct, admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	entries, err := os.ReadDir(app.store.Root())
	require.NoError(t, err)
	assert.Len(t, entries, 1, "only the category image should be on disk")

	// valid product
	body, ct = multipartForm(t, map[string]string{
		"name": "Sponge", "description": "Light", "price": "12.5", "category": "Cakes", "tags": `["vegan"]`, "discount": "5",
	}, "sponge.jpg", []byte("sponge-image"))
	w = app.do(t, http.MethodPost, "/api/products", body, ct, admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	prod := decode[product.Product](t, w)
	assert.True(t, prod.Available)
	assert.Equal(t, []string{"vegan"}, prod.Tags)

	// listing, case-insensitive filter
	for _, filter := range []string{"cakes", "CAKES", "Cakes"} {
		w = app.do(t, http.MethodGet, "/api/products?category="+filter, nil, "", "")
		require.Equal(t, http.StatusOK, w.Code)
		page := decode[product.Page](t, w)
		require.Len(t, page.Items, 1, filter)
		assert.Equal(t, prod.ID, page.Items[0].ID)
		assert.Equal(t, 1, page.Pagination.TotalPages)
	}

	w = app.do(t, http.MethodGet, "/api/products?category=cake", nil, "", "")
	require.Equal(t, http.StatusOK, w.Code)
	empty := decode[product.Page](t, w)
	assert.Empty(t, empty.Items)
	assert.Equal(t, 0, empty.Pagination.TotalItems)

	// empty update
	body, ct = multipartForm(t, map[string]string{}, "", nil)
	w = app.do(t, http.MethodPut, "/api/products/"+prod.ID, body, ct, admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// partial update appends image
	body, ct = multipartForm(t, map[string]string{"price": "14"}, "side.webp", []byte("side"))
	w = app.do(t, http.MethodPut, "/api/products/"+prod.ID, body, ct, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[product.Product](t, w)
	assert.Equal(t, 14.0, updated.Price)
	assert.Equal(t, prod.Name, updated.Name)
	assert.Equal(t, prod.Tags, updated.Tags)
	require.Len(t, updated.Images, 2)
	assert.False(t, updated.UpdatedAt.Before(prod.UpdatedAt))

	// hide product from listing
	body, ct = multipartForm(t, map[string]string{"available": "false"}, "", nil)
	w = app.do(t, http.MethodPut, "/api/products/"+prod.ID, body, ct, admin)
	require.Equal(t, http.StatusOK, w.Code)

	w = app.do(t, http.MethodGet, "/api/products", nil, "", "")
	assert.Empty(t, decode[product.Page](t, w).Items)

	w = app.do(t, http.MethodGet, "/api/products/"+prod.ID, nil, "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	// category in use
	w = app.do(t, http.MethodDelete, "/api/categories/"+cat.ID, nil, "", admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// delete product removes its files
	w = app.do(t, http.MethodDelete, "/api/products/"+prod.ID, nil, "", admin)
	require.Equal(t, http.StatusNoContent, w.Code)
	for _, img := range updated.Images {
		_, err := os.Stat(filepath.Join(app.store.Root(), strings.TrimPrefix(img, assets.PublicPrefix)))
		assert.True(t, os.IsNotExist(err), img)
	}

	w = app.do(t, http.MethodDelete, "/api/products/"+prod.ID, nil, "", admin)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = app.do(t, http.MethodGet, "/api/products/not-an-id", nil, "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// now the category can go
	w = app.do(t, http.MethodDelete, "/api/categories/"+cat.ID, nil, "", admin)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = app.do(t, http.MethodGet, "/api/categories", nil, "", "")
	require.Equal(t, http.StatusOK, w.Code)
	listing := decode[category.List](t, w)
	assert.Empty(t, listing.Items)
	assert.Equal(t, 0, listing.Total)
}

func TestOperationalEndpoints(t *testing.T) {
	app := setupApp(t)

	for _, path := range []string{"/health", "/healthz", "/readyz", "/docs", "/docs/openapi.yaml"} {
		w := app.do(t, http.MethodGet, path, nil, "", "")
		assert.Equal(t, http.StatusOK, w.Code, path)
	}

	app.do(t, http.MethodGet, "/api/products", nil, "", "")

	w := app.do(t, http.MethodGet, "/metrics", nil, "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "bakery_http_requests_total")
}
