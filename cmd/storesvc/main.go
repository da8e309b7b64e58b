package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/store-tier-service/internal/adapter/backend"
	httpadapter "github.com/couchcryptid/store-tier-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/store-tier-service/internal/adapter/kafka"
	"github.com/couchcryptid/store-tier-service/internal/catalog"
	"github.com/couchcryptid/store-tier-service/internal/config"
	"github.com/couchcryptid/store-tier-service/internal/ingest"
	"github.com/couchcryptid/store-tier-service/internal/observability"
	"github.com/couchcryptid/store-tier-service/internal/pipeline"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
)

func main() {
	envFile := config.LoadEnvFile()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()
	if envFile != "" {
		logger.Info("loaded env file", "path", envFile)
	}

	client, err := backend.NewClient(cfg.BackendBaseURL, cfg.BackendTimeout, cfg.BackendUserAgent, logger, metrics)
	if err != nil {
		logger.Error("invalid backend url", "error", err)
		os.Exit(1)
	}
	svc := ingest.NewService(client, logger, metrics)

	schedule, err := pipeline.ParseSchedule(cfg.RefreshSchedule)
	if err != nil {
		logger.Error("invalid refresh schedule", "error", err)
		os.Exit(1)
	}

	clock := clockwork.NewRealClock()
	cat := catalog.New(clock, logger, metrics)

	// Publishing is feature-flagged via KAFKA_ENABLED / KAFKA_BROKERS.
	var publisher pipeline.SnapshotPublisher
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = writer
		logger.Info("snapshot publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaSinkTopic)
	} else {
		logger.Info("snapshot publishing disabled")
	}

	refresher := pipeline.New(svc, cat, publisher, schedule, clock, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, cat, svc, httpadapter.AllReady{cat, svc}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	// HTTP server.
	g.Go(func() error {
		logger.Info("http server listening", "addr", cfg.HTTPAddr)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	// Catalog refresher.
	g.Go(func() error {
		return refresher.Run(gctx)
	})

	// Graceful shutdown on signal or on the first component failure.
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("service stopped with error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
