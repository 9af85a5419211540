package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"epw-insights/internal/config"
	"epw-insights/internal/handlers"
	"epw-insights/internal/repository"
	"epw-insights/internal/services"
	"epw-insights/pkg/logging"
	"epw-insights/pkg/metrics"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewStructuredLoggerWithFormat("epw-api", version, logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format)

	ctx := context.Background()
	logger.Info(ctx, "[STARTUP] Starting EPW insights API server", logging.Fields{
		"version":         version,
		"server_host":     cfg.Server.Host,
		"server_port":     cfg.Server.Port,
		"data_dir":        cfg.Ingestion.DataDir,
		"rescan_schedule": cfg.Ingestion.RescanSchedule,
	})

	metricsCollector := metrics.NewCollector("epw_insights")

	weatherRepo := repository.NewWeatherRepository(logger, metricsCollector)

	// Initialize services
	ingestionService := services.NewIngestionService(weatherRepo, logger, metricsCollector, cfg.Ingestion.Pattern)
	weatherService := services.NewWeatherService(weatherRepo, logger, metricsCollector)
	statsService := services.NewStatisticsService(weatherRepo, logger, metricsCollector)
	psychroService := services.NewPsychrometricService(weatherRepo, logger, metricsCollector,
		cfg.Chart, cfg.Comfort.ASHRAE, cfg.Comfort.ISO)

	// Initial load; an empty directory still starts the API
	result, err := ingestionService.IngestDirectory(ctx, cfg.Ingestion.DataDir)
	switch {
	case errors.Is(err, services.ErrNoDataFiles):
		logger.Warn(ctx, "[STARTUP_NO_DATA] No EPW files found, starting empty", logging.Fields{
			"data_dir": cfg.Ingestion.DataDir,
		})
	case err != nil:
		logger.Fatal(ctx, "[STARTUP_ERROR] Initial ingestion failed", logging.Fields{
			"data_dir": cfg.Ingestion.DataDir,
		}, err)
	default:
		logger.Info(ctx, "[STARTUP_INGEST] Initial ingestion finished", logging.Fields{
			"loaded_files": result.LoadedFiles,
			"failed_files": result.FailedFiles,
			"records":      result.TotalRecords,
		})
	}

	var scheduler *services.RescanScheduler
	if cfg.Ingestion.RescanSchedule != "" {
		scheduler, err = services.NewRescanScheduler(cfg.Ingestion.RescanSchedule, cfg.Ingestion.DataDir, ingestionService, logger)
		if err != nil {
			logger.Fatal(ctx, "[STARTUP_ERROR] Invalid rescan schedule", logging.Fields{
				"schedule": cfg.Ingestion.RescanSchedule,
			}, err)
		}
		scheduler.Start()
	}

	// Setup router
	router := mux.NewRouter()
	router.Use(handlers.RequestID, handlers.Instrument(metricsCollector, logger))

	handlers.NewWeatherHandler(weatherService, statsService, logger, metricsCollector).RegisterRoutes(router)
	handlers.NewPsychrometricHandler(psychroService, logger, metricsCollector).RegisterRoutes(router)
	handlers.RegisterDocRoutes(router)

	// Prometheus metrics endpoint
	router.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info(ctx, "[SERVER_START] HTTP server listening", logging.Fields{
			"address": server.Addr,
		})

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx, "[SERVER_ERROR] Server failed", logging.Fields{}, err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info(ctx, "[SHUTDOWN] Shutting down server...", logging.Fields{})

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if scheduler != nil {
		select {
		case <-scheduler.Stop().Done():
		case <-shutdownCtx.Done():
			logger.Warn(ctx, "[SHUTDOWN] Rescan still running at shutdown deadline", logging.Fields{})
		}
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "[SHUTDOWN_ERROR] Server forced to shutdown", logging.Fields{}, err)
	}

	logger.Info(ctx, "[SHUTDOWN_COMPLETE] Server stopped", logging.Fields{})
}
