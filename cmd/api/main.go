package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/marketops/leadbridge/internal/api"
	"github.com/marketops/leadbridge/internal/config"
	"github.com/marketops/leadbridge/internal/crypto"
	"github.com/marketops/leadbridge/internal/logger"
	"github.com/marketops/leadbridge/internal/platform/meta"
	"github.com/marketops/leadbridge/internal/platform/sheets"
	"github.com/marketops/leadbridge/internal/repository"
	"github.com/marketops/leadbridge/internal/service"
)

func main() {
	// Load configuration
	// Support CONFIG_PATH environment variable for production deployments
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	appLogger := logger.New(&logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		File:        cfg.Log.File,
		ServiceName: "leadbridge",
	})
	logger.SetDefault(appLogger)

	// Initialize the credential vault. The key was validated during config
	// load; a failure here is still fatal, never a per-request error.
	vault, err := crypto.NewVault(cfg.Security.EncryptionKey)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize credential vault")
	}

	// Initialize database
	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}

	// Initialize repositories
	automationRepo := repository.NewAutomationRepository(db)
	logRepo := repository.NewAutomationLogRepository(db)
	connectionRepo := repository.NewConnectionRepository(db)

	// Initialize provider clients
	metaClient := meta.NewClient(&meta.Config{
		GraphURL:   cfg.Meta.GraphURL,
		APIVersion: cfg.Meta.APIVersion,
	})
	sheetsClient := sheets.NewClient(&sheets.Config{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
		TokenURL:     cfg.Google.TokenURL,
		SheetsURL:    cfg.Google.SheetsURL,
		DriveURL:     cfg.Google.DriveURL,
	})

	// Initialize the lead event processor
	processor := service.NewProcessor(
		automationRepo,
		logRepo,
		connectionRepo,
		metaClient,
		sheetsClient,
		vault,
		appLogger,
	)

	// Setup router
	router := api.SetupRouter(processor, cfg)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		appLogger.WithFields(logger.Fields{
			"port": cfg.Server.Port,
			"mode": cfg.Server.Mode,
		}).Info("Starting webhook receiver")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Fatal("Server forced to shutdown")
	}

	appLogger.Info("Server exited")
}
