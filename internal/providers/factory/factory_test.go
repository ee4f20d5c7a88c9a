package factory

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/example/share-dialog-service/internal/assets"
	"github.com/example/share-dialog-service/internal/config"
	"github.com/example/share-dialog-service/internal/providers/host"
)

type nopProducer struct{}

func (nopProducer) PublishSync(string, []byte, map[string][]byte, []byte) error { return nil }

func TestHostBackends(t *testing.T) {
	provider, err := Host(config.HostConfig{Backend: " Mock "}, nil, "", zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := provider.(*host.MockProvider); !ok {
		t.Fatalf("expected mock provider, got %T", provider)
	}

	provider, err = Host(config.HostConfig{}, nopProducer{}, "share-host", zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if provider.Name() != "kafka" {
		t.Fatalf("expected kafka default, got %s", provider.Name())
	}

	if _, err := Host(config.HostConfig{Backend: "kafka"}, nil, "share-host", zerolog.Nop()); err == nil {
		t.Fatalf("expected error without producer")
	}
	if _, err := Host(config.HostConfig{Backend: "carrier-pigeon"}, nil, "", zerolog.Nop()); err == nil {
		t.Fatalf("expected error for unsupported backend")
	}
}

func TestAssetStoreBackends(t *testing.T) {
	store, err := AssetStore(context.Background(), config.AssetsConfig{}, zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.ID() != assets.MemoryStore {
		t.Fatalf("expected memory store default, got %s", store.ID())
	}

	if _, err := AssetStore(context.Background(), config.AssetsConfig{Store: "minio"}, zerolog.Nop()); err == nil {
		t.Fatalf("expected error for minio store without endpoint")
	}
	if _, err := AssetStore(context.Background(), config.AssetsConfig{Store: "s3"}, zerolog.Nop()); err == nil {
		t.Fatalf("expected error for unsupported store")
	}
}
