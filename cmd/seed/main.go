package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/angelmondragon/prostore-backend/internal/users"
	"github.com/angelmondragon/prostore-backend/pkg/config"
	"github.com/angelmondragon/prostore-backend/pkg/db"
	"github.com/angelmondragon/prostore-backend/pkg/logger"
	"github.com/angelmondragon/prostore-backend/pkg/security"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "seed"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "seed",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})
	if cfg.App.IsProd() {
		fmt.Fprintln(os.Stderr, "refusing to seed a production database")
		os.Exit(1)
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	if err := seed(ctx, dbClient, cfg.Password); err != nil {
		logg.Error(ctx, "seed failed", err)
		os.Exit(1)
	}
	logg.Info(ctx, "database seeded successfully")
}

// seed replaces the catalog and accounts with the sample data set. Orders,
// reviews and carts are cleared first since they reference both.
func seed(ctx context.Context, client *db.Client, passwordCfg config.PasswordConfig) error {
	return client.WithTx(ctx, func(tx *gorm.DB) error {
		for _, table := range []string{"order_items", "orders", "reviews", "carts", "products", "users"} {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}

		products := sampleProducts()
		if err := tx.Create(&products).Error; err != nil {
			return fmt.Errorf("insert products: %w", err)
		}

		repo := users.NewRepository(tx)
		for _, u := range sampleUsers {
			hash, err := security.HashPassword(u.Password, passwordCfg)
			if err != nil {
				return fmt.Errorf("hash password for %s: %w", u.Email, err)
			}
			if _, err := repo.Create(ctx, users.CreateUserDTO{
				Name:         u.Name,
				Email:        u.Email,
				PasswordHash: hash,
				Role:         u.Role,
			}); err != nil {
				return fmt.Errorf("insert user %s: %w", u.Email, err)
			}
		}
		return nil
	})
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
