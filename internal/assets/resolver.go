// Package assets makes share assets remotely addressable for the dialog host.
package assets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/bluele/gcache"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/example/share-dialog-service/internal/params"
	"github.com/example/share-dialog-service/internal/share"
)

const (
	defaultCacheSize   = 1024
	defaultCacheExpiry = 10 * time.Minute
)

// Option customises the resolver during construction.
type Option func(*Resolver)

// WithCache overrides the size and expiry of the resolved URL cache. A zero
// expiry keeps entries until they are evicted.
func WithCache(size int, expiry time.Duration) Option {
	return func(r *Resolver) {
		if size > 0 {
			r.cacheSize = size
		}
		if expiry >= 0 {
			r.cacheExpiry = expiry
		}
	}
}

// WithMaxInlineBytes limits the size of local files and in-memory assets.
func WithMaxInlineBytes(limit int64) Option {
	return func(r *Resolver) {
		if limit > 0 {
			r.maxBytes = limit
		}
	}
}

// Resolver uploads local and in-memory assets to a Store and returns the
// references the dialog host expects. Uploads are keyed by call id so the
// same asset within one call is uploaded once.
type Resolver struct {
	store       Store
	cache       gcache.Cache
	cacheSize   int
	cacheExpiry time.Duration
	maxBytes    int64
	logger      zerolog.Logger
}

// NewResolver constructs a Resolver backed by store.
func NewResolver(store Store, logger zerolog.Logger, opts ...Option) (*Resolver, error) {
	if store == nil {
		return nil, errors.New("asset resolver: store dependency is required")
	}
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}

	r := &Resolver{
		store:       Instrument(store),
		cacheSize:   defaultCacheSize,
		cacheExpiry: defaultCacheExpiry,
		logger:      logger.With().Str("component", "asset_resolver").Str("store", store.ID()).Logger(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	builder := gcache.New(r.cacheSize).LFU()
	if r.cacheExpiry > 0 {
		builder = builder.Expiration(r.cacheExpiry)
	}
	r.cache = builder.Build()

	return r, nil
}

// PhotoURLs resolves every photo of content in order.
func (r *Resolver) PhotoURLs(ctx context.Context, callID uuid.UUID, content *share.PhotoContent) ([]string, error) {
	out := make([]string, 0, len(content.Photos))
	for i, p := range content.Photos {
		u, err := r.resolve(ctx, callID, fmt.Sprintf("photos[%d]", i), p.Asset)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

// VideoURL resolves the video of content.
func (r *Resolver) VideoURL(ctx context.Context, callID uuid.UUID, content *share.VideoContent) (string, error) {
	return r.resolve(ctx, callID, "video", content.Video.Asset)
}

// MediaInfos resolves each medium into a {type, uri} descriptor.
func (r *Resolver) MediaInfos(ctx context.Context, callID uuid.UUID, content *share.MediaContent) ([]*params.Map, error) {
	out := make([]*params.Map, 0, len(content.Media))
	for i, m := range content.Media {
		if m == nil {
			return nil, &share.AssetResolutionError{Asset: fmt.Sprintf("media[%d]", i), Err: errors.New("medium is nil")}
		}
		u, err := r.resolve(ctx, callID, fmt.Sprintf("media[%d]", i), m.Source())
		if err != nil {
			return nil, err
		}
		out = append(out, params.NewBuilder().
			PutString(params.MediaInfoType, mediaTypeName(m.MediaType())).
			PutString(params.MediaInfoURI, u).
			Build())
	}
	return out, nil
}

// TextureURLs resolves camera effect textures into a name to URL map. It
// returns nil when the content has no textures.
func (r *Resolver) TextureURLs(ctx context.Context, callID uuid.UUID, content *share.CameraEffectContent) (*params.Map, error) {
	if len(content.Textures) == 0 {
		return nil, nil
	}
	names := make([]string, 0, len(content.Textures))
	for name := range content.Textures {
		names = append(names, name)
	}
	sort.Strings(names)

	b := params.NewBuilder()
	for _, name := range names {
		u, err := r.resolve(ctx, callID, "textures."+name, content.Textures[name])
		if err != nil {
			return nil, err
		}
		b.PutString(name, u)
	}
	return b.Build(), nil
}

// BackgroundAssetInfo resolves the story background into a {type, uri,
// extension} descriptor. It returns nil when no background is set.
func (r *Resolver) BackgroundAssetInfo(ctx context.Context, callID uuid.UUID, content *share.StoryContent) (*params.Map, error) {
	if content.BackgroundAsset == nil {
		return nil, nil
	}
	src := content.BackgroundAsset.Source()
	u, err := r.resolve(ctx, callID, "background_asset", src)
	if err != nil {
		return nil, err
	}
	return params.NewBuilder().
		PutString(params.MediaInfoType, mediaTypeName(content.BackgroundAsset.MediaType())).
		PutString(params.MediaInfoURI, u).
		PutNonEmptyString(params.MediaInfoExtension, extensionOf(src)).
		Build(), nil
}

// StickerInfo resolves the story sticker into a {uri, extension} descriptor.
// It returns nil when no sticker is set.
func (r *Resolver) StickerInfo(ctx context.Context, callID uuid.UUID, content *share.StoryContent) (*params.Map, error) {
	if content.Sticker == nil {
		return nil, nil
	}
	u, err := r.resolve(ctx, callID, "sticker", content.Sticker.Asset)
	if err != nil {
		return nil, err
	}
	return params.NewBuilder().
		PutString(params.MediaInfoURI, u).
		PutNonEmptyString(params.MediaInfoExtension, extensionOf(content.Sticker.Asset)).
		Build(), nil
}

// PhotoAttachmentURL resolves a photo referenced from an open graph action.
func (r *Resolver) PhotoAttachmentURL(ctx context.Context, callID uuid.UUID, photo share.Photo) (string, error) {
	return r.resolve(ctx, callID, "open_graph_photo", photo.Asset)
}

func (r *Resolver) resolve(ctx context.Context, callID uuid.UUID, name string, asset share.Asset) (string, error) {
	if asset.IsZero() {
		return "", &share.AssetResolutionError{Asset: name, Err: errors.New("no source set")}
	}
	if asset.IsRemote() {
		return asset.URL, nil
	}
	if asset.URL != "" {
		return "", &share.AssetResolutionError{Asset: name, Err: fmt.Errorf("unsupported url %q", asset.URL)}
	}

	data, source, err := r.load(asset)
	if err != nil {
		return "", &share.AssetResolutionError{Asset: name, Err: err}
	}

	objectName := uuid.NewSHA1(callID, []byte(source)).String()
	cacheKey := callID.String() + "/" + objectName
	if cached, err := r.cache.Get(cacheKey); err == nil {
		resolveCacheCounter.WithLabelValues("hit").Inc()
		return cached.(string), nil
	}
	resolveCacheCounter.WithLabelValues("miss").Inc()

	key := callID.String() + "/" + objectName + extensionOf(asset)
	u, err := r.store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), asset.ContentType)
	if err != nil {
		return "", &share.AssetResolutionError{Asset: name, Err: err}
	}
	if err := r.cache.Set(cacheKey, u); err != nil {
		r.logger.Warn().Str("key", cacheKey).Err(err).Msg("failed to cache resolved asset")
	}

	r.logger.Debug().
		Str("call_id", callID.String()).
		Str("asset", name).
		Str("object", key).
		Int("bytes", len(data)).
		Msg("asset uploaded")
	return u, nil
}

// load returns the asset bytes and a string identifying its source.
func (r *Resolver) load(asset share.Asset) ([]byte, string, error) {
	if asset.LocalPath != "" {
		info, err := os.Stat(asset.LocalPath)
		if err != nil {
			return nil, "", err
		}
		if r.maxBytes > 0 && info.Size() > r.maxBytes {
			return nil, "", fmt.Errorf("file exceeds maximum size of %d bytes", r.maxBytes)
		}
		data, err := os.ReadFile(asset.LocalPath)
		if err != nil {
			return nil, "", err
		}
		return data, "file:" + asset.LocalPath, nil
	}

	if r.maxBytes > 0 && int64(len(asset.Data)) > r.maxBytes {
		return nil, "", fmt.Errorf("data exceeds maximum size of %d bytes", r.maxBytes)
	}
	return asset.Data, "data:" + uuid.NewSHA1(uuid.NameSpaceOID, asset.Data).String(), nil
}

// mediaTypeName is the descriptor spelling of t: PHOTO or VIDEO.
func mediaTypeName(t share.MediaType) string {
	return strings.ToUpper(string(t))
}

func extensionOf(asset share.Asset) string {
	if ext := asset.Extension(); ext != "" {
		return ext
	}
	if asset.ContentType == "" {
		return ""
	}
	exts, err := mime.ExtensionsByType(asset.ContentType)
	if err != nil || len(exts) == 0 {
		return ""
	}
	return exts[0]
}
