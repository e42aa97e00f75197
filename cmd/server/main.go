package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prebuiltcheck/backend/config"
	"github.com/prebuiltcheck/backend/internal/app"
	"github.com/prebuiltcheck/backend/internal/logging"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to configure logging: %v\n", err)
		os.Exit(1)
	}
	defer logging.Close(log)

	log.Infof("Starting PrebuiltCheck Backend v1.0.0")
	log.Infof("Environment: %s", cfg.Server.Environment)
	log.Infof("Port: %s", cfg.Server.Port)
	log.Infof("Cache Type: %s", cfg.Cache.Type)
	log.Infof("AI provider: %s", cfg.AI.Provider)
	log.Infof("Matching: threshold=%.2f, cleanup=%v, debug=%v",
		cfg.Matching.FeatureThreshold,
		cfg.Matching.EnableCleanupPass,
		cfg.Matching.EnableDebugLogging)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer application.Close()

	if err := application.Serve(ctx); err != nil {
		log.Errorf("Server stopped: %v", err)
		return
	}
	log.Info("Server stopped")
}
