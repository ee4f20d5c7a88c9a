package dialog

import (
	"context"

	"github.com/google/uuid"

	"github.com/example/share-dialog-service/internal/params"
	"github.com/example/share-dialog-service/internal/share"
)

// AssetResolver turns content assets into remotely addressable references.
// Any upload it performs is scoped by the call id. Failures are reported as
// *share.AssetResolutionError.
type AssetResolver interface {
	PhotoURLs(ctx context.Context, callID uuid.UUID, content *share.PhotoContent) ([]string, error)
	VideoURL(ctx context.Context, callID uuid.UUID, content *share.VideoContent) (string, error)
	MediaInfos(ctx context.Context, callID uuid.UUID, content *share.MediaContent) ([]*params.Map, error)
	TextureURLs(ctx context.Context, callID uuid.UUID, content *share.CameraEffectContent) (*params.Map, error)
	BackgroundAssetInfo(ctx context.Context, callID uuid.UUID, content *share.StoryContent) (*params.Map, error)
	StickerInfo(ctx context.Context, callID uuid.UUID, content *share.StoryContent) (*params.Map, error)
}

// GraphSerializer converts an open graph action into its JSON wire form with
// namespaces stripped.
type GraphSerializer interface {
	ActionJSON(ctx context.Context, callID uuid.UUID, content *share.OpenGraphContent) (string, error)
}

// TemplateSerializer overlays messenger template fields on base and returns
// the resulting map. base is never modified.
type TemplateSerializer interface {
	ApplyTemplate(base *params.Map, content share.Content) (*params.Map, error)
}
