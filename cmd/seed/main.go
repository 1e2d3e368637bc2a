package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"github.com/luxemarket/storefront-backend/internal/products"
	"github.com/luxemarket/storefront-backend/internal/users"
	"github.com/luxemarket/storefront-backend/pkg/config"
	"github.com/luxemarket/storefront-backend/pkg/db"
	"github.com/luxemarket/storefront-backend/pkg/logger"
	"github.com/luxemarket/storefront-backend/pkg/migrate"
	"github.com/luxemarket/storefront-backend/pkg/security"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "seed"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "seed",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx = logg.WithField(ctx, "env", cfg.App.Env)

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	s := &seeder{
		users:    users.NewRepository(dbClient.DB()),
		products: products.NewRepository(dbClient.DB()),
		hasher:   security.NewHasher(cfg.Password),
		logg:     logg,
	}

	if err := s.ensureAdmin(ctx, cfg.Admin); err != nil {
		logg.Error(ctx, "admin seed failed", err)
		os.Exit(1)
	}
	inserted, err := s.seedCatalog(ctx)
	if err != nil {
		logg.Error(ctx, "catalog seed failed", err)
		os.Exit(1)
	}
	logg.Info(logg.WithField(ctx, "products_inserted", inserted), "seed complete")
}
