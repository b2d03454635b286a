// cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vanlogix/tribill/internal/api"
	"github.com/vanlogix/tribill/internal/cache"
	"github.com/vanlogix/tribill/internal/config"
	"github.com/vanlogix/tribill/internal/repository/postgres"
	"github.com/vanlogix/tribill/internal/service"
	"github.com/vanlogix/tribill/internal/storage"
	"github.com/vanlogix/tribill/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	if cfg.Server.Mode == "debug" {
		logger.SetLevel("debug")
		gin.SetMode(gin.DebugMode)
	} else {
		logger.SetLevel("info")
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database
	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Initialize repositories
	batchRepo := postgres.NewBatchRepository(db)
	billRepo := postgres.NewBillRepository(db)
	shipmentRepo := postgres.NewShipmentRepository(db)
	inspectionRepo := postgres.NewInspectionRepository(db)
	rateRepo := postgres.NewRateRepository(db)

	// Initialize rate cache (noop when disabled)
	rateCache, err := cache.NewActiveRateCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Rate cache unavailable, continuing without it")
		rateCache = cache.NewNoopRateCache()
	}

	// Initialize services
	financeService := service.NewFinanceService(batchRepo, billRepo, shipmentRepo, inspectionRepo, rateRepo, rateCache)
	stageService := service.NewStageService(batchRepo, shipmentRepo, inspectionRepo)

	var reportService *service.ReportService
	if cfg.Storage.Enabled {
		archive, err := storage.NewMinioArchive(cfg.Storage)
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("Failed to initialize report archive")
		}
		reportService = service.NewReportService(financeService, archive)
	}

	// Initialize HTTP server
	router := api.NewRouter(&api.Services{
		Finance: financeService,
		Stages:  stageService,
		Reports: reportService,
	}, cfg.Server.AllowedOrigins)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
