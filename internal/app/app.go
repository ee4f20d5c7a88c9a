// Package app runs a share dialog worker for one surface.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	dialogadapter "github.com/example/share-dialog-service/internal/adapters/dialog"
	"github.com/example/share-dialog-service/internal/config"
	"github.com/example/share-dialog-service/internal/health"
	"github.com/example/share-dialog-service/internal/kafka/consumer"
	"github.com/example/share-dialog-service/internal/kafka/producer"
	kafkapublisher "github.com/example/share-dialog-service/internal/kafka/publisher"
	"github.com/example/share-dialog-service/internal/logger"
	"github.com/example/share-dialog-service/internal/providers/factory"
	"github.com/example/share-dialog-service/internal/worker"
	sharevalidator "github.com/example/share-dialog-service/internal/worker/validator/share"
)

// Run loads configuration and consumes the request topic of surface until
// ctx is cancelled. service names the process in logs and health output.
func Run(ctx context.Context, service, surface string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config load: %w", err)
	}

	baseLogger, err := logger.New(cfg.App.Env, cfg.App.LogLevel)
	if err != nil {
		return fmt.Errorf("logger init: %w", err)
	}
	log := baseLogger.With().Str("service", service).Str("surface", surface).Logger()

	topics, group, err := cfg.Surface(surface)
	if err != nil {
		return err
	}

	prod, err := producer.New(cfg.Kafka.Brokers, logger.Component(log, "kafka-producer"),
		producer.WithClientID(cfg.Kafka.ClientID))
	if err != nil {
		return fmt.Errorf("kafka producer init: %w", err)
	}
	defer func() {
		if err := prod.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close kafka producer")
		}
	}()

	cons, err := consumer.New(cfg.Kafka.Brokers, group, logger.Component(log, "kafka-consumer"), cfg.Retry.CommitOnSuccessOnly,
		consumer.WithClientID(cfg.Kafka.ClientID))
	if err != nil {
		return fmt.Errorf("kafka consumer init: %w", err)
	}
	defer func() {
		if err := cons.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close kafka consumer")
		}
	}()

	statusPublisher := kafkapublisher.NewStatusPublisher(prod, topics.Status, logger.Component(log, "status-publisher"))
	dlqPublisher := kafkapublisher.NewDLQPublisher(prod, topics.DLQ, logger.Component(log, "dlq-publisher"))

	store, err := factory.AssetStore(ctx, cfg.Assets, logger.Component(log, "asset-store"))
	if err != nil {
		return err
	}
	builder, err := NewParamsBuilder(cfg, store, log)
	if err != nil {
		return err
	}

	provider, err := factory.Host(cfg.Host, prod, topics.Host, logger.Component(log, "dialog-host"))
	if err != nil {
		return err
	}

	adapter, err := dialogadapter.NewAdapter(builder, provider, logger.Component(log, "dialog-adapter"),
		dialogadapter.WithDeliveryTimeout(time.Duration(cfg.Timeouts.DeliveryTimeoutSeconds)*time.Second))
	if err != nil {
		return fmt.Errorf("dialog adapter init: %w", err)
	}

	engine, err := worker.NewEngine(engineConfig(cfg, surface), worker.Dependencies{
		Adapter:         adapter,
		Validator:       sharevalidator.New(cfg.Validation, logger.Component(log, "share-validator")),
		StatusPublisher: statusPublisher,
		DLQPublisher:    dlqPublisher,
		Committer:       worker.RecordCommitter,
		Logger:          logger.Component(log, "worker-engine"),
		Now:             time.Now,
	})
	if err != nil {
		return fmt.Errorf("worker engine init: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Health.Enabled {
		srv := health.NewServer(service, cfg.App.Port, logger.Component(log, "health"))
		srv.Register("producer", prod)
		srv.Register("consumer", cons)
		g.Go(func() error {
			select {
			case err, ok := <-srv.Start():
				if ok && err != nil {
					return fmt.Errorf("health server: %w", err)
				}
				return nil
			case <-gctx.Done():
				timeout := time.Duration(cfg.Health.ShutdownTimeoutMs) * time.Millisecond
				return srv.Shutdown(context.Background(), timeout)
			}
		})
	}

	g.Go(func() error {
		err := cons.Consume(gctx, []string{topics.Request}, worker.KafkaHandler(engine, cons))
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("consumer: %w", err)
		}
		return nil
	})

	log.Info().
		Str("request_topic", topics.Request).
		Str("host_topic", topics.Host).
		Str("host_backend", provider.Name()).
		Str("asset_store", store.ID()).
		Msg("worker started")

	err = g.Wait()
	engine.Wait()
	log.Info().Msg("worker stopped")
	return err
}

func engineConfig(cfg *config.Config, surface string) worker.Config {
	return worker.Config{
		Surface:           surface,
		MsgMaxBytes:       cfg.Validation.MsgMaxBytes,
		MaxAttempts:       cfg.Retry.MaxAttempts,
		BaseBackoff:       time.Duration(cfg.Retry.BaseBackoffSeconds) * time.Second,
		MaxBackoff:        time.Duration(cfg.Retry.MaxBackoffSeconds) * time.Second,
		WorkerConcurrency: cfg.Retry.WorkerConcurrency,
	}
}

// Fail logs err as a fatal start-up failure of service and exits.
func Fail(service string, err error) {
	l := zerolog.New(os.Stdout).With().Timestamp().Logger()
	l.Fatal().Err(err).Str("service", service).Msg("worker init failed")
}
