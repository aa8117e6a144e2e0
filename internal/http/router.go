package http

import (
	"log/slog"
	"net/http"

	"github.com/geocoder89/bakery/internal/assets"
	"github.com/geocoder89/bakery/internal/auth"
	"github.com/geocoder89/bakery/internal/catalog"
	"github.com/geocoder89/bakery/internal/config"
	"github.com/geocoder89/bakery/internal/http/handlers"
	"github.com/geocoder89/bakery/internal/http/middlewares"
	"github.com/geocoder89/bakery/internal/observability"
	"github.com/geocoder89/bakery/internal/ratelimit"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// multipart framing on top of the file itself
const bodyOverhead = 1 << 20

type Deps struct {
	Log *slog.Logger
	Cfg config.Config

	Users      handlers.UserStore
	Categories catalog.CategoryRepo
	Products   catalog.ProductRepo
	Assets     *assets.Store
	Tokens     *auth.Manager

	// nil disables rate limiting on the auth routes
	Limiter ratelimit.Limiter

	// nil disables request metrics and /metrics
	Prom     *observability.Prom
	Gatherer prometheus.Gatherer

	Checks map[string]handlers.Check
}

func NewRouter(d Deps) *gin.Engine {
	if d.Cfg.Env != "dev" && d.Cfg.Env != "test" {
		gin.SetMode(gin.ReleaseMode)
	}
	if d.Log == nil {
		d.Log = slog.Default()
	}

	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(d.Cfg.ServiceName))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(d.Log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(d.Cfg.CORSAllowedOrigins))
	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}

	maxUpload := d.Cfg.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = assets.DefaultMaxBytes
	}
	r.MaxMultipartMemory = maxUpload
	r.Use(middlewares.MaxBodyBytes(maxUpload + bodyOverhead))

	// health
	h := handlers.NewHealthHandler(d.Checks)
	r.GET("/health", h.Healthz)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	r.GET("/docs", handlers.SwaggerUI)
	r.GET("/docs/openapi.yaml", handlers.OpenAPISpec)

	if d.Assets != nil {
		r.StaticFS("/uploads", http.Dir(d.Assets.Root()))
	}

	// wire up services
	gate := auth.NewGate(d.Tokens, d.Users)
	authMW := middlewares.NewAuthMiddleware(gate)

	query := catalog.NewQueryService(d.Categories, d.Products, d.Log, d.Prom)
	mutation := catalog.NewMutationService(d.Categories, d.Products, d.Assets, d.Log)

	authHandler := handlers.NewAuthHandler(d.Users, d.Tokens)
	catalogHandler := handlers.NewCatalogHandler(query, mutation)

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	if d.Limiter != nil {
		authGroup.Use(middlewares.RateLimit(d.Limiter, middlewares.KeyByIP))
	}
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/me", authMW.RequireAuth(), authHandler.Me)

	api.GET("/categories", catalogHandler.ListCategories)
	api.GET("/categories/:id", catalogHandler.GetCategory)
	api.GET("/products", catalogHandler.ListProducts)
	api.GET("/products/:id", catalogHandler.GetProduct)

	admin := api.Group("")
	admin.Use(authMW.RequireAuth(), authMW.RequireAdmin())

	admin.POST("/categories", catalogHandler.CreateCategory)
	admin.PUT("/categories/:id", catalogHandler.UpdateCategory)
	admin.DELETE("/categories/:id", catalogHandler.DeleteCategory)

	admin.POST("/products", catalogHandler.CreateProduct)
	admin.PUT("/products/:id", catalogHandler.UpdateProduct)
	admin.DELETE("/products/:id", catalogHandler.DeleteProduct)

	return r
}
