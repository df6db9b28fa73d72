package main

import (
	"context"
	"log"
	"os"

	"github.com/hynexus/hynexus-api/internal/config"
	"github.com/hynexus/hynexus-api/internal/database"
	"github.com/hynexus/hynexus-api/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		log.Fatal("Missing environment variable: DATABASE_URL")
	}

	if err := logger.Init(!cfg.IsProduction()); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	db, err := database.Connect(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to connect database", zap.Error(err))
	}
	if err := database.MigrateUp(db); err != nil {
		logger.Log.Fatal("Failed to run migrations", zap.Error(err))
	}

	err = database.Seed(context.Background(), db, database.SeedOptions{
		AdminEmail:       cfg.AdminEmail,
		AdminUsername:    cfg.AdminUsername,
		AdminPassword:    cfg.AdminPassword,
		DemoData:         cfg.SeedDemoData,
		DemoUserPassword: os.Getenv("DEMO_USER_PASSWORD"),
	})
	if err != nil {
		logger.Log.Fatal("Seeding failed", zap.Error(err))
	}

	logger.Log.Info("Seeding complete", zap.String("admin_email", cfg.AdminEmail))
}
