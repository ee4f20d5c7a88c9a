// Package opengraph serializes open graph actions for the share dialog.
package opengraph

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"

	"github.com/example/share-dialog-service/internal/share"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	typeKey         = "og:type"
	createObjectKey = "fbsdk:create_object"
	placeKey        = "place"
	tagsKey         = "tags"
	photoURLKey     = "url"
	userGenKey      = "user_generated"
)

// PhotoAttacher makes a photo referenced from an action graph remotely
// addressable for the given call.
type PhotoAttacher interface {
	PhotoAttachmentURL(ctx context.Context, callID uuid.UUID, photo share.Photo) (string, error)
}

// Serializer converts open graph actions into the JSON string carried by
// the ACTION dialog parameter.
type Serializer struct {
	photos PhotoAttacher
	logger zerolog.Logger
}

// NewSerializer constructs a Serializer.
func NewSerializer(photos PhotoAttacher, logger zerolog.Logger) (*Serializer, error) {
	if photos == nil {
		return nil, errors.New("opengraph serializer: photo attacher dependency is required")
	}
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	return &Serializer{photos: photos, logger: logger}, nil
}

// ActionJSON returns the action of content as JSON. Place and people tags of
// the content are merged into the action and namespaces are stripped.
func (s *Serializer) ActionJSON(ctx context.Context, callID uuid.UUID, content *share.OpenGraphContent) (string, error) {
	if content == nil || content.Action == nil {
		return "", &share.SerializationError{Subject: "open graph action", Err: errors.New("action is required")}
	}

	obj, err := s.actionObject(ctx, callID, content)
	if err != nil {
		return "", err
	}

	out, err := json.Marshal(StripNamespaces(obj, false))
	if err != nil {
		return "", &share.SerializationError{Subject: "open graph action", Err: err}
	}
	s.logger.Debug().Str("call_id", callID.String()).Str("action_type", content.Action.Type).Msg("open graph action serialized")
	return string(out), nil
}

func (s *Serializer) actionObject(ctx context.Context, callID uuid.UUID, content *share.OpenGraphContent) (map[string]any, error) {
	obj, err := s.toObject(ctx, callID, content.Action.Properties)
	if err != nil {
		return nil, err
	}
	if content.Action.Type != "" {
		obj[typeKey] = content.Action.Type
	}

	if content.PlaceID != "" {
		if existing, _ := obj[placeKey].(string); existing == "" {
			obj[placeKey] = content.PlaceID
		}
	}

	if len(content.PeopleIDs) > 0 {
		tags := make(map[string]struct{})
		if existing, ok := obj[tagsKey].([]any); ok {
			for _, t := range existing {
				if tag, ok := t.(string); ok {
					tags[tag] = struct{}{}
				}
			}
		}
		for _, id := range content.PeopleIDs {
			tags[id] = struct{}{}
		}
		merged := make([]string, 0, len(tags))
		for t := range tags {
			merged = append(merged, t)
		}
		sort.Strings(merged)
		list := make([]any, len(merged))
		for i, t := range merged {
			list[i] = t
		}
		obj[tagsKey] = list
	}

	return obj, nil
}

func (s *Serializer) toObject(ctx context.Context, callID uuid.UUID, props map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(props)+1)
	for key, value := range props {
		v, err := s.toValue(ctx, callID, value)
		if err != nil {
			return nil, err
		}
		out[key] = v
	}
	return out, nil
}

func (s *Serializer) toValue(ctx context.Context, callID uuid.UUID, value any) (any, error) {
	switch v := value.(type) {
	case nil, string, bool, float64, float32, int, int32, int64:
		return v, nil
	case *share.OpenGraphObject:
		if v == nil {
			return nil, nil
		}
		obj, err := s.toObject(ctx, callID, v.Properties)
		if err != nil {
			return nil, err
		}
		if v.CreateObject {
			obj[createObjectKey] = true
		}
		return obj, nil
	case share.Photo:
		return s.photoValue(ctx, callID, v)
	case *share.Photo:
		if v == nil {
			return nil, nil
		}
		return s.photoValue(ctx, callID, *v)
	case []any:
		list := make([]any, 0, len(v))
		for _, item := range v {
			converted, err := s.toValue(ctx, callID, item)
			if err != nil {
				return nil, err
			}
			list = append(list, converted)
		}
		return list, nil
	case []string:
		list := make([]any, len(v))
		for i, item := range v {
			list[i] = item
		}
		return list, nil
	default:
		return nil, &share.SerializationError{
			Subject: "open graph action",
			Err:     fmt.Errorf("invalid object found for JSON serialization: %T", value),
		}
	}
}

func (s *Serializer) photoValue(ctx context.Context, callID uuid.UUID, photo share.Photo) (any, error) {
	url, err := s.photos.PhotoAttachmentURL(ctx, callID, photo)
	if err != nil {
		return nil, err
	}
	out := map[string]any{photoURLKey: url}
	if photo.UserGenerated {
		out[userGenKey] = true
	}
	return out, nil
}
