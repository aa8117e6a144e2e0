// Command seed creates the admin account and the default categories.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/geocoder89/bakery/internal/config"
	"github.com/geocoder89/bakery/internal/db"
	"github.com/geocoder89/bakery/internal/observability"
	"github.com/geocoder89/bakery/internal/repo/mongodb"
)

func main() {
	skipCategories := flag.Bool("skip-categories", false, "only seed the admin user")
	flag.Parse()

	cfg := config.Load()
	log := observability.NewLogger(cfg.Env, cfg.ServiceName)

	client, err := db.NewClient(cfg.MongoURI)
	if err != nil {
		log.Error("mongo connect failed", "err", err)
		os.Exit(1)
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	database := client.Database(cfg.MongoDB)

	ctx, cancel := config.WithTimeout(30 * time.Second)
	defer cancel()

	if err := db.EnsureIndexes(ctx, database); err != nil {
		log.Error("ensure indexes failed", "err", err)
		os.Exit(1)
	}

	created, err := db.EnsureAdminUser(ctx, mongodb.NewUsersRepo(database, nil), cfg)
	if err != nil {
		log.Error("admin seed failed", "err", err)
		os.Exit(1)
	}
	log.Info("admin user", "email", cfg.AdminEmail, "created", created)

	if *skipCategories {
		return
	}

	n, err := db.EnsureDefaultCategories(ctx, mongodb.NewCategoriesRepo(database, nil))
	if err != nil {
		log.Error("category seed failed", "err", err)
		os.Exit(1)
	}
	log.Info("default categories seeded", "created", n)
}
