package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config captures all runtime configuration for the share dialog service.
type Config struct {
	App            AppConfig
	Kafka          KafkaConfig
	Topics         TopicConfig
	ConsumerGroups ConsumerGroupConfig
	Retry          RetryConfig
	Validation     ValidationConfig
	Host           HostConfig
	Assets         AssetsConfig
	Timeouts       TimeoutConfig
	Health         HealthConfig
}

// AppConfig contains generic application level settings.
type AppConfig struct {
	Env      string
	Port     int
	LogLevel string
}

// KafkaConfig defines broker information.
type KafkaConfig struct {
	Brokers  []string
	ClientID string
}

// TopicSet groups the topics used by a single dialog surface.
type TopicSet struct {
	Request string
	Host    string
	Status  string
	DLQ     string
}

// TopicConfig enumerates the topics for each dialog surface.
type TopicConfig struct {
	Share     TopicSet
	Messenger TopicSet
}

// ConsumerGroupConfig provides the consumer group name per surface.
type ConsumerGroupConfig struct {
	Share     string
	Messenger string
}

// RetryConfig controls worker retry and backoff behaviour.
type RetryConfig struct {
	MaxAttempts         int
	BaseBackoffSeconds  int
	MaxBackoffSeconds   int
	WorkerConcurrency   int
	CommitOnSuccessOnly bool
}

// ValidationConfig holds the limits used while validating share requests.
type ValidationConfig struct {
	MsgMaxBytes      int
	PeopleIDsMax     int
	PhotosMax        int
	MediaMax         int
	ColorsMax        int
	EffectArgsMax    int
	TexturesMax      int
	TextMaxLen       int
	InlineAssetBytes int
	MetaMaxEntries   int
	MetaMaxKeyLen    int
	MetaMaxValueLen  int
}

// HostConfig selects how built parameters reach the dialog host.
type HostConfig struct {
	Backend string
}

// AssetsConfig configures where uploaded assets are stored and how resolved
// references are cached.
type AssetsConfig struct {
	Store                string
	Endpoint             string
	AccessKey            string
	SecretKey            string
	Bucket               string
	Region               string
	UseSSL               bool
	PublicBaseURL        string
	PresignExpirySeconds int
	CacheSize            int
	CacheExpirySeconds   int
}

// TimeoutConfig contains timeout thresholds for a single delivery attempt.
type TimeoutConfig struct {
	DeliveryTimeoutSeconds int
}

// HealthConfig controls the health and metrics endpoint.
type HealthConfig struct {
	Enabled           bool
	ShutdownTimeoutMs int
}

// Load reads environment variables, applies defaults, validates required
// values and returns a populated Config instance.
func Load() (*Config, error) {
	_ = godotenv.Load()

	ldr := &envLoader{}

	cfg := &Config{}
	cfg.App.Env = ldr.getString("APP_ENV", "development", false)
	cfg.App.Port = ldr.getInt("APP_PORT", 8080, false)
	cfg.App.LogLevel = ldr.getString("LOG_LEVEL", "info", false)

	cfg.Kafka.Brokers = ldr.getStringSlice("KAFKA_BROKERS", true)
	cfg.Kafka.ClientID = ldr.getString("KAFKA_CLIENT_ID", "share-dialog-service", false)

	cfg.Topics.Share = TopicSet{
		Request: ldr.getString("KAFKA_SHARE_REQUEST_TOPIC", "", true),
		Host:    ldr.getString("KAFKA_SHARE_HOST_TOPIC", "", true),
		Status:  ldr.getString("KAFKA_SHARE_STATUS_TOPIC", "", true),
		DLQ:     ldr.getString("KAFKA_SHARE_DLQ_TOPIC", "", true),
	}
	cfg.Topics.Messenger = TopicSet{
		Request: ldr.getString("KAFKA_MESSENGER_REQUEST_TOPIC", "", true),
		Host:    ldr.getString("KAFKA_MESSENGER_HOST_TOPIC", "", true),
		Status:  ldr.getString("KAFKA_MESSENGER_STATUS_TOPIC", "", true),
		DLQ:     ldr.getString("KAFKA_MESSENGER_DLQ_TOPIC", "", true),
	}

	cfg.ConsumerGroups.Share = ldr.getString("SHARE_CONSUMER_GROUP", "", true)
	cfg.ConsumerGroups.Messenger = ldr.getString("MESSENGER_CONSUMER_GROUP", "", true)

	cfg.Retry.MaxAttempts = ldr.getInt("MAX_ATTEMPTS", 3, false)
	cfg.Retry.BaseBackoffSeconds = ldr.getInt("BASE_BACKOFF_SECONDS", 2, false)
	cfg.Retry.MaxBackoffSeconds = ldr.getInt("MAX_BACKOFF_SECONDS", 60, false)
	cfg.Retry.WorkerConcurrency = ldr.getInt("WORKER_CONCURRENCY", 10, false)
	cfg.Retry.CommitOnSuccessOnly = ldr.getBool("COMMIT_ON_SUCCESS_ONLY", true, false)

	loadValidation(ldr, &cfg.Validation)

	cfg.Host.Backend = strings.ToLower(ldr.getString("DIALOG_HOST_BACKEND", "kafka", false))

	loadAssets(ldr, &cfg.Assets)

	cfg.Timeouts.DeliveryTimeoutSeconds = ldr.getInt("DELIVERY_TIMEOUT_SECONDS", 30, false)

	cfg.Health.Enabled = ldr.getBool("HEALTH_ENABLED", true, false)
	cfg.Health.ShutdownTimeoutMs = ldr.getInt("HEALTH_SHUTDOWN_TIMEOUT_MS", 2000, false)

	switch cfg.Host.Backend {
	case "kafka", "mock":
	default:
		ldr.addError(fmt.Sprintf("DIALOG_HOST_BACKEND must be one of kafka, mock; got %q", cfg.Host.Backend))
	}
	if err := ldr.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadTooling reads only the settings needed to build dialog parameters
// offline: environment, logging, validation limits and the asset store.
func LoadTooling() (*Config, error) {
	_ = godotenv.Load()

	ldr := &envLoader{}
	cfg := &Config{}
	cfg.App.Env = ldr.getString("APP_ENV", "development", false)
	cfg.App.LogLevel = ldr.getString("LOG_LEVEL", "info", false)
	loadValidation(ldr, &cfg.Validation)
	loadAssets(ldr, &cfg.Assets)

	if err := ldr.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadValidation(ldr *envLoader, v *ValidationConfig) {
	v.MsgMaxBytes = ldr.getInt("MSG_MAX_BYTES", 1000000, false)
	v.PeopleIDsMax = ldr.getInt("PEOPLE_IDS_MAX", 50, false)
	v.PhotosMax = ldr.getInt("PHOTOS_MAX", 6, false)
	v.MediaMax = ldr.getInt("MEDIA_MAX", 6, false)
	v.ColorsMax = ldr.getInt("STORY_COLORS_MAX", 2, false)
	v.EffectArgsMax = ldr.getInt("EFFECT_ARGS_MAX", 32, false)
	v.TexturesMax = ldr.getInt("EFFECT_TEXTURES_MAX", 16, false)
	v.TextMaxLen = ldr.getInt("TEXT_MAX_LEN", 1000, false)
	v.InlineAssetBytes = ldr.getInt("INLINE_ASSET_MAX_BYTES", 512000, false)
	v.MetaMaxEntries = ldr.getInt("META_MAX_ENTRIES", 20, false)
	v.MetaMaxKeyLen = ldr.getInt("META_MAX_KEY_LEN", 64, false)
	v.MetaMaxValueLen = ldr.getInt("META_MAX_VALUE_LEN", 256, false)
}

func loadAssets(ldr *envLoader, a *AssetsConfig) {
	a.Store = strings.ToLower(ldr.getString("ASSET_STORE", "memory", false))
	minioRequired := a.Store == "minio"
	a.Endpoint = ldr.getString("MINIO_ENDPOINT", "", minioRequired)
	a.AccessKey = ldr.getString("MINIO_ACCESS_KEY", "", minioRequired)
	a.SecretKey = ldr.getString("MINIO_SECRET_KEY", "", minioRequired)
	a.Bucket = ldr.getString("MINIO_BUCKET", "share-assets", false)
	a.Region = ldr.getString("MINIO_REGION", "", false)
	a.UseSSL = ldr.getBool("MINIO_USE_SSL", true, false)
	a.PublicBaseURL = ldr.getString("ASSET_PUBLIC_BASE_URL", "", false)
	a.PresignExpirySeconds = ldr.getInt("ASSET_PRESIGN_EXPIRY_SECONDS", 3600, false)
	a.CacheSize = ldr.getInt("ASSET_CACHE_SIZE", 1024, false)
	a.CacheExpirySeconds = ldr.getInt("ASSET_CACHE_EXPIRY_SECONDS", 600, false)

	switch a.Store {
	case "memory", "minio":
	default:
		ldr.addError(fmt.Sprintf("ASSET_STORE must be one of memory, minio; got %q", a.Store))
	}
	if a.PresignExpirySeconds < 1 {
		ldr.addError("ASSET_PRESIGN_EXPIRY_SECONDS must be >= 1")
	}
	// Cached presigned urls must expire before the urls do.
	if minioRequired && a.PublicBaseURL == "" &&
		(a.CacheExpirySeconds < 1 || a.CacheExpirySeconds >= a.PresignExpirySeconds) {
		ldr.addError("ASSET_CACHE_EXPIRY_SECONDS must be >= 1 and less than ASSET_PRESIGN_EXPIRY_SECONDS for presigned minio urls")
	}
}

// Surface returns the topics and consumer group configured for surface.
func (c *Config) Surface(surface string) (TopicSet, string, error) {
	switch strings.ToLower(surface) {
	case "share":
		return c.Topics.Share, c.ConsumerGroups.Share, nil
	case "messenger":
		return c.Topics.Messenger, c.ConsumerGroups.Messenger, nil
	default:
		return TopicSet{}, "", fmt.Errorf("config: unknown surface %q", surface)
	}
}

type envLoader struct {
	errs []string
}

func (l *envLoader) validate() error {
	if len(l.errs) == 0 {
		return nil
	}
	return fmt.Errorf("config validation failed: %s", strings.Join(l.errs, "; "))
}

func (l *envLoader) lookup(key string, required bool) (string, bool) {
	if val, ok := os.LookupEnv(key); ok {
		val = strings.TrimSpace(val)
		if val != "" {
			return val, true
		}
	}
	if required {
		l.addError(fmt.Sprintf("%s is required", key))
	}
	return "", false
}

func (l *envLoader) getString(key, def string, required bool) string {
	if val, ok := l.lookup(key, required); ok {
		return val
	}
	return def
}

func (l *envLoader) getInt(key string, def int, required bool) int {
	val, ok := l.lookup(key, required)
	if !ok {
		return def
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		l.addError(fmt.Sprintf("%s must be a valid integer", key))
		return def
	}
	return i
}

func (l *envLoader) getBool(key string, def bool, required bool) bool {
	val, ok := l.lookup(key, required)
	if !ok {
		return def
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		l.addError(fmt.Sprintf("%s must be a valid boolean", key))
		return def
	}
	return parsed
}

func (l *envLoader) getStringSlice(key string, required bool) []string {
	raw := l.getString(key, "", required)
	if raw == "" {
		if required {
			return nil
		}
		return []string{}
	}
	var out []string
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if required && len(out) == 0 {
		l.addError(fmt.Sprintf("%s must contain at least one entry", key))
	}
	return out
}

func (l *envLoader) addError(err string) {
	l.errs = append(l.errs, err)
}
