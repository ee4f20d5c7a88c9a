// Package dialog builds the parameter map a native share dialog is opened
// with from typed share content.
package dialog

import (
	"context"
	"errors"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/example/share-dialog-service/internal/opengraph"
	"github.com/example/share-dialog-service/internal/params"
	"github.com/example/share-dialog-service/internal/share"
)

const (
	outcomeOK          = "ok"
	outcomeUnsupported = "unsupported"
	outcomeError       = "error"
)

// Builder maps share content to dialog parameters. It holds no per-call
// state and is safe for concurrent use when its collaborators are.
type Builder struct {
	assets    AssetResolver
	graph     GraphSerializer
	templates TemplateSerializer
	logger    zerolog.Logger
}

// NewBuilder constructs a Builder with the supplied collaborators.
func NewBuilder(assets AssetResolver, graph GraphSerializer, templates TemplateSerializer, logger zerolog.Logger) (*Builder, error) {
	if assets == nil {
		return nil, errors.New("dialog builder: asset resolver dependency is required")
	}
	if graph == nil {
		return nil, errors.New("dialog builder: graph serializer dependency is required")
	}
	if templates == nil {
		return nil, errors.New("dialog builder: template serializer dependency is required")
	}
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	return &Builder{
		assets:    assets,
		graph:     graph,
		templates: templates,
		logger:    logger.With().Str("component", "dialog_builder").Logger(),
	}, nil
}

// Build returns the dialog parameters for content. A nil map with a nil
// error means the content kind is not mapped. On error no map is returned.
func (b *Builder) Build(ctx context.Context, callID uuid.UUID, content share.Content, failOnDataError bool) (*params.Map, error) {
	if isNilContent(content) {
		return nil, &share.ValidationError{Field: "content", Reason: "is required"}
	}
	if callID == uuid.Nil {
		return nil, &share.ValidationError{Field: "call_id", Reason: "is required"}
	}

	startAt := time.Now()
	kind := string(content.Kind())

	out, err := b.build(ctx, callID, content, failOnDataError)
	switch {
	case err != nil:
		observeBuild(kind, outcomeError, startAt)
		b.logger.Debug().Str("kind", kind).Str("call_id", callID.String()).Err(err).Msg("dialog params build failed")
		return nil, err
	case out == nil:
		observeBuild(kind, outcomeUnsupported, startAt)
		b.logger.Debug().Str("kind", kind).Str("call_id", callID.String()).Msg("no dialog params for content kind")
		return nil, nil
	default:
		observeBuild(kind, outcomeOK, startAt)
		b.logger.Debug().Str("kind", kind).Str("call_id", callID.String()).Int("params", out.Len()).Msg("dialog params built")
		return out, nil
	}
}

func (b *Builder) build(ctx context.Context, callID uuid.UUID, content share.Content, fatal bool) (*params.Map, error) {
	switch c := content.(type) {
	case *share.LinkContent:
		return baseParams(c.Common(), fatal).
			PutNonEmptyString(params.Title, c.Title).
			PutNonEmptyString(params.Description, c.Description).
			PutNonEmptyString(params.ImageURL, c.ImageURL).
			PutNonEmptyString(params.Quote, c.Quote).
			PutNonEmptyString(params.MessengerURL, c.ContentURL).
			PutNonEmptyString(params.TargetDisplay, c.ContentURL).
			Build(), nil

	case *share.PhotoContent:
		urls, err := b.assets.PhotoURLs(ctx, callID, c)
		if err != nil {
			return nil, err
		}
		return baseParams(c.Common(), fatal).
			PutStrings(params.Photos, urls).
			Build(), nil

	case *share.VideoContent:
		videoURL, err := b.assets.VideoURL(ctx, callID, c)
		if err != nil {
			return nil, err
		}
		return baseParams(c.Common(), fatal).
			PutNonEmptyString(params.Title, c.Title).
			PutNonEmptyString(params.Description, c.Description).
			PutNonEmptyString(params.VideoURL, videoURL).
			Build(), nil

	case *share.MediaContent:
		infos, err := b.assets.MediaInfos(ctx, callID, c)
		if err != nil {
			return nil, err
		}
		return baseParams(c.Common(), fatal).
			PutMaps(params.Media, infos).
			Build(), nil

	case *share.OpenGraphContent:
		actionJSON, err := b.graph.ActionJSON(ctx, callID, c)
		if err != nil {
			return nil, asSerializationError("open graph action", err)
		}
		_, previewName := opengraph.SplitFieldName(c.PreviewPropertyName)
		actionType := ""
		if c.Action != nil {
			actionType = c.Action.Type
		}
		return baseParams(c.Common(), fatal).
			PutNonEmptyString(params.PreviewPropertyName, previewName).
			PutNonEmptyString(params.ActionType, actionType).
			PutNonEmptyString(params.Action, actionJSON).
			Build(), nil

	case *share.CameraEffectContent:
		textures, err := b.assets.TextureURLs(ctx, callID, c)
		if err != nil {
			return nil, err
		}
		out := baseParams(c.Common(), fatal).
			PutNonEmptyString(params.EffectID, c.EffectID).
			PutMap(params.EffectTextures, textures)
		if c.Arguments != nil {
			args, err := effectArgumentsJSON(c.Arguments)
			if err != nil {
				return nil, &share.SerializationError{Subject: "camera effect arguments", Err: err}
			}
			out.PutNonEmptyString(params.EffectArgs, args)
		}
		return out.Build(), nil

	case *share.MessengerGenericTemplateContent,
		*share.MessengerOpenGraphMusicTemplateContent,
		*share.MessengerMediaTemplateContent:
		out, err := b.templates.ApplyTemplate(baseParams(content.Common(), fatal).Build(), content)
		if err != nil {
			return nil, asSerializationError("messenger template", err)
		}
		return out, nil

	case *share.StoryContent:
		background, err := b.assets.BackgroundAssetInfo(ctx, callID, c)
		if err != nil {
			return nil, err
		}
		sticker, err := b.assets.StickerInfo(ctx, callID, c)
		if err != nil {
			return nil, err
		}
		return baseParams(c.Common(), fatal).
			PutMap(params.StoryBackgroundAsset, background).
			PutMap(params.StoryInteractiveAssetURI, sticker).
			PutNonEmptyStrings(params.StoryBackgroundColors, c.BackgroundColors).
			PutNonEmptyString(params.StoryDeepLinkURL, c.AttributionLink).
			Build(), nil

	default:
		return nil, nil
	}
}

func baseParams(base *share.Base, fatal bool) *params.Builder {
	return params.NewBuilder().
		PutNonEmptyString(params.ContentURL, base.ContentURL).
		PutNonEmptyString(params.PlaceID, base.PlaceID).
		PutNonEmptyString(params.PageID, base.PageID).
		PutNonEmptyString(params.Ref, base.Ref).
		PutBool(params.DataFailuresFatal, fatal).
		PutNonEmptyStrings(params.PeopleIDs, base.PeopleIDs).
		PutNonEmptyString(params.Hashtag, base.Hashtag)
}

// asSerializationError keeps domain errors raised by collaborators intact
// and wraps anything else.
func asSerializationError(subject string, err error) error {
	var serr *share.SerializationError
	var aerr *share.AssetResolutionError
	var verr *share.ValidationError
	if errors.As(err, &serr) || errors.As(err, &aerr) || errors.As(err, &verr) {
		return err
	}
	return &share.SerializationError{Subject: subject, Err: err}
}

func isNilContent(content share.Content) bool {
	if content == nil {
		return true
	}
	v := reflect.ValueOf(content)
	return v.Kind() == reflect.Ptr && v.IsNil()
}
