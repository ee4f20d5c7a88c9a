package app

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/share-dialog-service/internal/assets"
	"github.com/example/share-dialog-service/internal/config"
	"github.com/example/share-dialog-service/internal/dialog"
	"github.com/example/share-dialog-service/internal/logger"
	"github.com/example/share-dialog-service/internal/messenger"
	"github.com/example/share-dialog-service/internal/opengraph"
)

// NewParamsBuilder wires the dialog builder with an asset resolver over
// store, the open graph serializer and the messenger template serializer.
func NewParamsBuilder(cfg *config.Config, store assets.Store, log zerolog.Logger) (*dialog.Builder, error) {
	resolver, err := assets.NewResolver(store, logger.Component(log, "asset-resolver"),
		assets.WithCache(cfg.Assets.CacheSize, time.Duration(cfg.Assets.CacheExpirySeconds)*time.Second),
		assets.WithMaxInlineBytes(int64(cfg.Validation.InlineAssetBytes)),
	)
	if err != nil {
		return nil, fmt.Errorf("app: asset resolver init: %w", err)
	}

	graph, err := opengraph.NewSerializer(resolver, logger.Component(log, "opengraph-serializer"))
	if err != nil {
		return nil, fmt.Errorf("app: opengraph serializer init: %w", err)
	}

	builder, err := dialog.NewBuilder(resolver, graph, messenger.NewTemplateSerializer(), logger.Component(log, "dialog-builder"))
	if err != nil {
		return nil, fmt.Errorf("app: dialog builder init: %w", err)
	}
	return builder, nil
}
