package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ranvier2d2/nexo-plus-project/internal/clinic"
	"github.com/ranvier2d2/nexo-plus-project/pkg/config"
	"github.com/ranvier2d2/nexo-plus-project/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger := logger.New(cfg.LogLevel)

	// Initialize Monitor Service
	service := clinic.New(cfg, logger)

	// Start service in a goroutine
	go func() {
		logger.Infof("Starting Monitor Service on port %d", cfg.Server.Port)
		if err := service.Start(); err != nil {
			logger.Fatalf("Failed to start Monitor Service: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down Monitor Service...")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := service.Stop(ctx); err != nil {
		logger.Errorf("Error during shutdown: %v", err)
	}
	logger.Info("Monitor Service stopped")
}
