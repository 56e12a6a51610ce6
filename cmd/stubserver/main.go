// Command stubserver runs the simulated job backend for local development.
// It serves the collection and analysis endpoints the client polls, with
// progress driven by wall time.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/timmy/tiklens/internal/api"
	"github.com/timmy/tiklens/internal/api/handler"
	"github.com/timmy/tiklens/internal/config"
	"github.com/timmy/tiklens/internal/logger"
)

func main() {
	// Initialize logger first (with defaults)
	appLogger := logger.New(&logger.Config{
		Level:       "info",
		Format:      "json",
		ServiceName: "tiklens-stubserver",
	})
	logger.SetDefaultLogger(appLogger)

	// Parse command line flags
	collectionSecs := flag.Int("collection-secs", 10, "Seconds a simulated collection job takes")
	analysisSecs := flag.Int("analysis-secs", 8, "Seconds a simulated analysis job takes")
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	store := handler.NewJobStore(
		time.Duration(*collectionSecs)*time.Second,
		time.Duration(*analysisSecs)*time.Second,
	)

	// Setup router
	router := api.SetupRouter(store, appLogger, cfg.Server.Mode, cfg.Server.CORS.AllowedOrigins)

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		appLogger.WithFields(logger.Fields{
			"port": cfg.Server.Port,
			"mode": cfg.Server.Mode,
		}).Info("Starting stub backend")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Fatal("Server forced to shutdown")
	}

	appLogger.Info("Server exited")
}
