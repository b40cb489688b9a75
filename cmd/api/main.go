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

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"

	"github.com/koderius/ScaleSense-sub000/internal/di"
	"github.com/koderius/ScaleSense-sub000/internal/handlers"
	"github.com/koderius/ScaleSense-sub000/internal/platform/config"
	pfirestore "github.com/koderius/ScaleSense-sub000/internal/platform/firestore"
	"github.com/koderius/ScaleSense-sub000/internal/platform/jobs"
	"github.com/koderius/ScaleSense-sub000/internal/platform/observability"
	firestoreRepo "github.com/koderius/ScaleSense-sub000/internal/repositories/firestore"
	"github.com/koderius/ScaleSense-sub000/internal/services"
	"github.com/koderius/ScaleSense-sub000/internal/worker"
)

func main() {
	ctx := context.Background()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("orders")
	ctx = observability.WithLogger(ctx, logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	firestoreProvider := pfirestore.NewProvider(cfg.Firestore)
	if _, err := firestoreProvider.Client(ctx); err != nil {
		logger.Fatal("failed to initialise firestore client", zap.Error(err))
	}
	defer func() {
		if err := firestoreProvider.Close(); err != nil {
			logger.Warn("firestore close error", zap.Error(err))
		}
	}()

	registry, err := firestoreRepo.NewRegistry(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise repositories", zap.Error(err))
	}

	var publisher services.OrderEventPublisher
	var pubsubClient *pubsub.Client
	if cfg.PubSub.ProjectID != "" {
		pubsubClient, err = pubsub.NewClient(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			logger.Fatal("failed to initialise pubsub client", zap.Error(err))
		}
		defer func() {
			if err := pubsubClient.Close(); err != nil {
				logger.Warn("pubsub close error", zap.Error(err))
			}
		}()
		topic := pubsubClient.Topic(cfg.PubSub.OrderEventTopic)
		defer topic.Stop()
		publisher, err = jobs.NewPubSubOrderEventPublisher(topic)
		if err != nil {
			logger.Fatal("failed to initialise order event publisher", zap.Error(err))
		}
	}

	container, err := di.NewContainer(cfg, registry, di.ContainerDeps{
		Events: publisher,
		Logger: logger,
	})
	if err != nil {
		logger.Fatal("failed to build container", zap.Error(err))
	}

	scanner := worker.NewComplianceScanner(
		container.Services.Compliance,
		cfg.Compliance.Interval,
		logger.Named("compliance"),
	)
	scanner.Start(ctx)
	defer scanner.Stop()

	orderHandlers := handlers.NewOrderHandlers(container.Services.Orders)
	health := handlers.NewHealthHandlers(map[string]handlers.ReadinessCheck{
		"firestore": func(checkCtx context.Context) error {
			_, err := firestoreProvider.Client(checkCtx)
			return err
		},
	})

	router := handlers.NewRouter(
		handlers.WithLogger(logger.Named("http")),
		handlers.WithHealthHandlers(health),
		handlers.WithOrderRoutes(orderHandlers.Routes),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("orders api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	scanner.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
