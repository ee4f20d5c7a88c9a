package assets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"

	"github.com/example/share-dialog-service/internal/config"
)

const (
	MinioStore  = "minio"
	MemoryStore = "memory"
)

// Store persists uploaded share assets and returns the address the dialog
// host can fetch them from.
type Store interface {
	ID() string
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
}

type minioStore struct {
	bucket        string
	publicBaseURL string
	presignExpiry time.Duration
	cli           *minio.Client
	logger        zerolog.Logger
}

var _ Store = &minioStore{}

// NewMinioStore connects to the configured MinIO endpoint and ensures the
// asset bucket exists.
func NewMinioStore(ctx context.Context, cfg config.AssetsConfig, logger zerolog.Logger) (Store, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("minio store: endpoint is empty")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, errors.New("minio store: credentials are empty")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("minio store: bucket is empty")
	}

	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio store: create client: %w", err)
	}

	s := &minioStore{
		bucket:        cfg.Bucket,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		presignExpiry: time.Duration(cfg.PresignExpirySeconds) * time.Second,
		cli:           cli,
		logger:        logger.With().Str("store", MinioStore).Logger(),
	}
	if err := s.initBucket(ctx, cfg.Region); err != nil {
		return nil, fmt.Errorf("minio store: init bucket: %w", err)
	}
	return s, nil
}

func (m *minioStore) ID() string {
	return MinioStore
}

func (m *minioStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := m.cli.PutObject(ctx, m.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		m.logger.Error().Str("object", key).Err(err).Msg("put object failed")
		return "", err
	}

	if m.publicBaseURL != "" {
		return m.publicBaseURL + "/" + m.bucket + "/" + key, nil
	}
	u, err := m.cli.PresignedGetObject(ctx, m.bucket, key, m.presignExpiry, url.Values{})
	if err != nil {
		m.logger.Error().Str("object", key).Err(err).Msg("presign object failed")
		return "", err
	}
	return u.String(), nil
}

func (m *minioStore) initBucket(ctx context.Context, region string) error {
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	exists, err := m.cli.BucketExists(ctx, m.bucket)
	if err == nil && exists {
		return nil
	}

	m.logger.Info().Str("bucket", m.bucket).Msg("creating asset bucket")
	return m.cli.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{Region: region})
}

// MemStore keeps uploaded assets in process memory. It backs local runs and
// tests.
type MemStore struct {
	objects map[string][]byte
	mux     sync.Mutex
}

var _ Store = &MemStore{}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{objects: make(map[string][]byte)}
}

func (m *MemStore) ID() string {
	return MemoryStore
}

func (m *MemStore) Put(ctx context.Context, key string, r io.Reader, _ int64, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return "", err
	}
	m.mux.Lock()
	m.objects[key] = buf.Bytes()
	m.mux.Unlock()
	return "memory://" + key, nil
}

// Get returns the bytes stored under key.
func (m *MemStore) Get(key string) ([]byte, bool) {
	m.mux.Lock()
	defer m.mux.Unlock()
	data, ok := m.objects[key]
	return data, ok
}

// Len returns the number of stored objects.
func (m *MemStore) Len() int {
	m.mux.Lock()
	defer m.mux.Unlock()
	return len(m.objects)
}
