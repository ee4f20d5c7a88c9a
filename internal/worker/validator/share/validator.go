// Package sharevalidator parses share requests for a dialog surface and turns
// them into share calls.
package sharevalidator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"

	"github.com/example/share-dialog-service/internal/config"
	"github.com/example/share-dialog-service/internal/models"
	"github.com/example/share-dialog-service/internal/share"
	"github.com/example/share-dialog-service/internal/util"
	"github.com/example/share-dialog-service/internal/worker"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var surfaceKinds = map[string]map[share.Kind]bool{
	models.SurfaceShare: {
		share.KindLink:         true,
		share.KindPhoto:        true,
		share.KindVideo:        true,
		share.KindMedia:        true,
		share.KindOpenGraph:    true,
		share.KindCameraEffect: true,
		share.KindStory:        true,
	},
	models.SurfaceMessenger: {
		share.KindLink:                            true,
		share.KindMessengerGenericTemplate:        true,
		share.KindMessengerOpenGraphMusicTemplate: true,
		share.KindMessengerMediaTemplate:          true,
	},
}

// Validator implements worker.Validator for both dialog surfaces.
type Validator struct {
	logger zerolog.Logger
	cfg    config.ValidationConfig
	newID  func() uuid.UUID
}

// New constructs a Validator using the supplied limits.
func New(cfg config.ValidationConfig, logger zerolog.Logger) *Validator {
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	return &Validator{
		logger: logger.With().Str("component", "share_validator").Logger(),
		cfg:    cfg,
		newID:  uuid.New,
	}
}

// ParseAndValidate implements worker.Validator. When the envelope decodes but
// a field is invalid, the returned message carries the identifiers parsed so
// far.
func (v *Validator) ParseAndValidate(ctx context.Context, surface string, payload []byte) (*worker.ValidatedMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(payload) == 0 {
		return nil, errors.New("share validator: payload is empty")
	}

	var req models.ShareRequest
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return nil, fmt.Errorf("share validator: decode: %w", err)
	}

	msg := &worker.ValidatedMessage{
		Surface:    strings.ToLower(strings.TrimSpace(req.Surface)),
		MessageID:  strings.TrimSpace(req.MessageID),
		TraceID:    strings.TrimSpace(req.TraceID),
		TenantID:   strings.TrimSpace(req.TenantID),
		Kind:       strings.ToLower(strings.TrimSpace(req.Content.Kind)),
		RawPayload: append([]byte(nil), payload...),
	}

	if err := v.validateEnvelope(surface, &req, msg); err != nil {
		return msg, err
	}

	content, err := v.content(&req.Content)
	if err != nil {
		return msg, err
	}

	msg.Request = &share.Call{
		ID:              msg.CallID,
		Content:         content,
		FailOnDataError: req.FailOnDataError,
	}

	v.logger.Debug().
		Str("message_id", msg.MessageID).
		Str("call_id", msg.CallID.String()).
		Str("kind", msg.Kind).
		Msg("share request validated")
	return msg, nil
}

func (v *Validator) validateEnvelope(surface string, req *models.ShareRequest, msg *worker.ValidatedMessage) error {
	surface = strings.ToLower(strings.TrimSpace(surface))
	if msg.Surface == "" {
		msg.Surface = surface
	}
	if surface != "" && msg.Surface != surface {
		return fmt.Errorf("share validator: surface mismatch: expected %s, got %s", surface, msg.Surface)
	}
	if _, ok := surfaceKinds[msg.Surface]; !ok {
		return fmt.Errorf("share validator: unsupported surface %q", msg.Surface)
	}

	if _, err := util.ParseUUIDv4(msg.MessageID); err != nil {
		return fmt.Errorf("share validator: message_id: %w", err)
	}

	if strings.TrimSpace(req.CallID) == "" {
		msg.CallID = v.newID()
	} else {
		id, err := util.ParseUUID(req.CallID)
		if err != nil {
			return fmt.Errorf("share validator: call_id: %w", err)
		}
		msg.CallID = id
	}

	if req.CreatedAt.IsZero() {
		return errors.New("share validator: created_at is required")
	}
	msg.CreatedAt = req.CreatedAt.UTC()

	meta, err := util.ValidateMetadata(req.Meta, v.cfg.MetaMaxEntries, v.cfg.MetaMaxKeyLen, v.cfg.MetaMaxValueLen)
	if err != nil {
		return fmt.Errorf("share validator: metadata: %w", err)
	}
	msg.Metadata = meta

	if msg.Kind == "" {
		return errors.New("share validator: content.kind is required")
	}
	kind := share.Kind(msg.Kind)
	if known(kind) && !surfaceKinds[msg.Surface][kind] {
		return fmt.Errorf("share validator: kind %q is not supported on the %s surface", msg.Kind, msg.Surface)
	}
	return nil
}

func known(kind share.Kind) bool {
	for _, kinds := range surfaceKinds {
		if kinds[kind] {
			return true
		}
	}
	return false
}
