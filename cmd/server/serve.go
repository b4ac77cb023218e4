package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"estate/server/config"
	"estate/server/internal/api"
	"estate/server/internal/broker"
	"estate/server/internal/database"
	"estate/server/internal/estate"
	"estate/server/internal/geocoding"
	"estate/server/internal/importer"
	"estate/server/internal/mailer"
	"estate/server/internal/models"
	"estate/server/internal/processor"
	"estate/server/internal/queue"
	"estate/server/internal/scheduler"
	"estate/server/internal/telegram"
)

const shutdownTimeout = 15 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API with its background workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer db.Close()
			return serve(cfg, logger, db)
		},
	}
}

func serve(cfg *config.Config, logger *logrus.Logger, db *database.Database) error {
	if err := os.MkdirAll(cfg.Server.UploadDir, 0755); err != nil {
		return err
	}

	// Property events fan out to Telegram and, when configured, RabbitMQ
	events := queue.New[models.PropertyEvent]("events", cfg.Events.QueueSize, logger)

	telegramService := telegram.NewService(logger)
	telegramService.UpdateConfig(telegramConfig(cfg, db, logger))
	events.Subscribe(telegramService.HandleEvent)

	if cfg.AMQP.URL != "" {
		publisher, err := broker.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange, logger)
		if err != nil {
			logger.WithError(err).Error("Broker unavailable, events will not be forwarded")
		} else {
			defer publisher.Close()
			events.Subscribe(publisher.HandleEvent)
		}
	}
	events.Start()

	service := estate.NewService(db, events, cfg.Server.UploadDir, logger)

	imports := queue.New[processor.ImportBatch]("imports", cfg.BatchProcessing.QueueSize, logger)
	batchProcessor := processor.NewBatchProcessor(service, imports, cfg, logger)
	batchProcessor.Start()
	imports.Start()

	jobs := scheduler.NewScheduler(logger, scheduler.OfferExpiryJob(cfg.Scheduler.OfferExpiryInterval, service.ExpireOffers))
	jobs.Start()

	validator, err := importer.NewValidator()
	if err != nil {
		return err
	}

	handler := api.NewHandler(api.Dependencies{
		DB:        db,
		Service:   service,
		Processor: batchProcessor,
		Validator: validator,
		Geocoder:  geocoding.NewGeocoder(logger, cfg.Geocoding.URL, cfg.Geocoding.CacheDir),
		Mailer:    mailer.NewMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From, logger),
		Telegram:  telegramService,
	}, logger)

	if logger.IsLevelEnabled(logrus.DebugLevel) {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           api.NewRouter(handler, cfg.Server.UploadDir, cfg.Server.CORSOrigins, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Infof("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	runErr := waitForShutdown(quit, serverErr, logger)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	// Stop producers before draining the queues they feed
	jobs.Stop()
	batchProcessor.Stop()
	if err := imports.Close(); err != nil {
		logger.WithError(err).Warn("Failed to close import queue")
	}
	if err := events.Close(); err != nil {
		logger.WithError(err).Warn("Failed to close event queue")
	}

	logger.Info("Server stopped")
	return runErr
}

// waitForShutdown blocks until a signal arrives or the server stops on its own,
// returning the server error in the latter case
func waitForShutdown(quit <-chan os.Signal, serverErr <-chan error, logger *logrus.Logger) error {
	select {
	case sig := <-quit:
		logger.WithField("signal", sig.String()).Info("Shutting down")
		return nil
	case err, ok := <-serverErr:
		if !ok {
			return nil
		}
		logger.WithError(err).Error("Server failed")
		return fmt.Errorf("server failed: %w", err)
	}
}

// telegramConfig prefers the stored configuration and falls back to the environment
func telegramConfig(cfg *config.Config, db *database.Database, logger *logrus.Logger) *models.TelegramConfig {
	stored, err := db.GetTelegramConfig()
	if err != nil {
		logger.WithError(err).Warn("Failed to load Telegram config")
	}
	if stored != nil {
		return stored
	}
	return &models.TelegramConfig{
		IsEnabled: cfg.Telegram.Enabled,
		BotToken:  cfg.Telegram.BotToken,
		ChatID:    cfg.Telegram.ChatID,
	}
}
