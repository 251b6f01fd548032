package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AdamBeresnev/school-cup/internal/config"
	"github.com/AdamBeresnev/school-cup/internal/db"
	"github.com/AdamBeresnev/school-cup/internal/logging"
	"github.com/AdamBeresnev/school-cup/internal/service"
	"github.com/joho/godotenv"
	"github.com/sourcegraph/conc"
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
	zap.ReplaceGlobals(logger)

	database, err := db.InitDB(cfg.DBPath, logger)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer database.Close()

	if err := db.RunMigrations(database.DB); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	services := service.New(database, logger)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           newRouter(services, cfg, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg conc.WaitGroup
	wg.Go(func() {
		logger.Info("server starting", zap.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", zap.Error(err))
			stop()
		}
	})

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	wg.Wait()
	logger.Info("server stopped")
}
