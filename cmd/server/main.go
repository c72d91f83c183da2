package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/am-report-server/internal/api"
	"github.com/am-report-server/internal/archive"
	"github.com/am-report-server/internal/config"
	"github.com/am-report-server/internal/domain"
	"github.com/am-report-server/internal/service"
	"github.com/am-report-server/pkg/genai"
)

func main() {
	// Load configuration
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()
	logger := newLogger(cfg.Logging)

	logger.WithFields(logrus.Fields{
		"host": cfg.Server.Host,
		"port": cfg.Server.Port,
	}).Info("Starting AM report server")

	// Generation backend: client, circuit breaker, optional cache
	generator := buildGenerator(cfg, logger)

	// Report archive
	store, err := buildStore(cfg.Archive)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open report archive")
	}
	if store != nil {
		defer store.Close()
	}

	reports := service.NewReportService(
		logger,
		service.NewSectionExtractor(),
		service.NewRiskClassifierService(logger),
		generator,
		store,
		genai.GenerationOptions{
			Temperature:     cfg.Backend.Temperature,
			TopP:            cfg.Backend.TopP,
			TopK:            cfg.Backend.TopK,
			MaxOutputTokens: cfg.Backend.MaxOutputTokens,
		},
	)

	server := api.NewServer(configManager, reports, store, logger)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	// Start server
	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}

	logger.Info("Server stopped")
}

// buildGenerator assembles the backend client with its resilience layers.
func buildGenerator(cfg *domain.Config, logger *logrus.Logger) genai.Generator {
	client := genai.NewClient(genai.ClientConfig{
		BaseURL:   cfg.Backend.BaseURL,
		APIKey:    cfg.Backend.APIKey,
		Timeout:   cfg.Backend.Timeout,
		RateLimit: cfg.Backend.RateLimit,
	})

	var generator genai.Generator = genai.NewResilientGenerator(client, logger)

	if cfg.Cache.Enabled {
		cached, err := service.NewCachedGenerator(generator, cfg.Cache.MaxEntries, logger)
		if err != nil {
			logger.WithError(err).Warn("Generation cache disabled")
			return generator
		}
		generator = cached
	}

	return generator
}

// buildStore opens the configured archive driver. A "none" driver returns a
// nil store and disables archiving.
func buildStore(cfg domain.ArchiveConfig) (archive.Store, error) {
	switch cfg.Driver {
	case "sqlite":
		return archive.NewSQLiteStore(cfg.Path)
	case "postgres":
		return archive.NewPostgresStoreFromURL(cfg.URL)
	default:
		return nil, nil
	}
}

// newLogger configures logrus from the logging section.
func newLogger(cfg domain.LoggingConfig) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	if cfg.Output == "stderr" {
		logger.SetOutput(os.Stderr)
	} else {
		logger.SetOutput(os.Stdout)
	}

	return logger
}
