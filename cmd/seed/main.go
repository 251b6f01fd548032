package main

import (
	"context"
	"log"

	"github.com/AdamBeresnev/school-cup/internal/config"
	"github.com/AdamBeresnev/school-cup/internal/db"
	"github.com/AdamBeresnev/school-cup/internal/logging"
	"github.com/AdamBeresnev/school-cup/internal/seed"
	"github.com/AdamBeresnev/school-cup/internal/service"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}

	logger := logging.New(cfg.AppEnv, cfg.LogLevel)
	defer logger.Sync()

	database, err := db.InitDB(cfg.DBPath, logger)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer database.Close()

	if err := db.RunMigrations(database.DB); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	services := service.New(database, logger)
	seeder := seed.New(services.Teams, logger.Named("seed"), cfg.SeedWorkers, nil)

	if _, err := seeder.Run(context.Background(), cfg.SeedTeams); err != nil {
		logger.Fatal("seed failed", zap.Error(err))
	}
}
