package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/bakery/internal/assets"
	"github.com/geocoder89/bakery/internal/auth"
	"github.com/geocoder89/bakery/internal/catalog"
	"github.com/geocoder89/bakery/internal/config"
	"github.com/geocoder89/bakery/internal/db"
	httpx "github.com/geocoder89/bakery/internal/http"
	"github.com/geocoder89/bakery/internal/http/handlers"
	"github.com/geocoder89/bakery/internal/observability"
	"github.com/geocoder89/bakery/internal/ratelimit"
	"github.com/geocoder89/bakery/internal/redisclient"
	"github.com/geocoder89/bakery/internal/repo/mongodb"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env, cfg.ServiceName)

	ctx := context.Background()

	shutdownTracer, err := observability.InitTracer(ctx, observability.TracerConfig{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Env,
		Endpoint:    cfg.OTLPEndpoint,
		SampleRatio: cfg.TraceSampleRatio,
	})
	if err != nil {
		log.Error("tracer init failed", "err", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	client, err := db.NewClient(cfg.MongoURI)
	if err != nil {
		log.Error("mongo connect failed", "err", err)
		os.Exit(1)
	}

	database := client.Database(cfg.MongoDB)

	idxCtx, cancelIdx := config.WithTimeout(10 * time.Second)
	err = db.EnsureIndexes(idxCtx, database)
	cancelIdx()
	if err != nil {
		log.Error("ensure indexes failed", "err", err)
		os.Exit(1)
	}

	users := mongodb.NewUsersRepo(database, prom)
	var categories catalog.CategoryRepo = mongodb.NewCategoriesRepo(database, prom)
	if ttl := cfg.CategoryCacheTTL(); ttl > 0 {
		categories = catalog.NewCachedCategories(categories, ttl)
	}
	products := mongodb.NewProductsRepo(database, prom)

	seedCtx, cancelSeed := config.WithTimeout(5 * time.Second)
	created, err := db.EnsureAdminUser(seedCtx, users, cfg)
	cancelSeed()
	if err != nil {
		log.Error("admin seed failed", "err", err)
		os.Exit(1)
	}
	if created {
		log.Info("admin user created", "email", cfg.AdminEmail)
	}

	store, err := assets.NewStore(cfg.UploadDir, cfg.MaxUploadBytes, log, prom)
	if err != nil {
		log.Error("upload dir unavailable", "err", err)
		os.Exit(1)
	}

	checks := map[string]handlers.Check{
		"mongo": func(ctx context.Context) error { return client.Ping(ctx, readpref.Primary()) },
	}

	var limiter ratelimit.Limiter = ratelimit.NewMemory(cfg.RateLimitPerMinute, time.Minute)

	var rdb *redisclient.Client
	if cfg.RedisAddr != "" {
		rdb = redisclient.New(redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		limiter = ratelimit.NewRedis(rdb.Raw(), cfg.RateLimitPerMinute, time.Minute, limiter, log)
		checks["redis"] = rdb.Ping
	}

	// set up routers with the log
	router := httpx.NewRouter(httpx.Deps{
		Log:        log,
		Cfg:        cfg,
		Users:      users,
		Categories: categories,
		Products:   products,
		Assets:     store,
		Tokens:     auth.NewManager(cfg.JWTSecret, cfg.AccessTTL()),
		Limiter:    limiter,
		Prom:       prom,
		Gatherer:   reg,
		Checks:     checks,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)

		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}

		if rdb != nil {
			_ = rdb.Close()
		}

		if err := client.Disconnect(ctx); err != nil {
			log.Error("mongo disconnect failed", "err", err)
		}

		if err := shutdownTracer(ctx); err != nil {
			log.Error("tracer shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
