// Package factory builds the configured dialog host provider and asset store.
package factory

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/example/share-dialog-service/internal/assets"
	"github.com/example/share-dialog-service/internal/config"
	"github.com/example/share-dialog-service/internal/providers/host"
)

// Host constructs the dialog host provider selected by cfg. The kafka backend
// publishes envelopes to topic through prod.
func Host(cfg config.HostConfig, prod host.Producer, topic string, logger zerolog.Logger) (host.Provider, error) {
	backend := normalize(cfg.Backend, "kafka")
	switch backend {
	case "kafka":
		provider, err := host.NewKafkaProvider(prod, topic, logger)
		if err != nil {
			return nil, fmt.Errorf("factory: kafka host provider init: %w", err)
		}
		logger.Info().
			Str("backend", backend).
			Str("topic", topic).
			Msg("dialog host provider initialised")
		return provider, nil
	case "mock":
		provider := host.NewMockProvider(logger)
		logger.Info().
			Str("backend", backend).
			Msg("dialog host provider initialised")
		return provider, nil
	default:
		return nil, fmt.Errorf("factory: unsupported dialog host backend %q", cfg.Backend)
	}
}

// AssetStore constructs the asset store selected by cfg.
func AssetStore(ctx context.Context, cfg config.AssetsConfig, logger zerolog.Logger) (assets.Store, error) {
	backend := normalize(cfg.Store, assets.MemoryStore)
	switch backend {
	case assets.MinioStore:
		store, err := assets.NewMinioStore(ctx, cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("factory: minio asset store init: %w", err)
		}
		logger.Info().
			Str("backend", backend).
			Str("bucket", cfg.Bucket).
			Msg("asset store initialised")
		return store, nil
	case assets.MemoryStore:
		logger.Info().
			Str("backend", backend).
			Msg("asset store initialised")
		return assets.NewMemStore(), nil
	default:
		return nil, fmt.Errorf("factory: unsupported asset store %q", cfg.Store)
	}
}

func normalize(value, def string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return def
	}
	return value
}
