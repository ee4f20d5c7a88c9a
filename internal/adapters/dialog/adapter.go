// Package dialog adapts validated share requests to the dialog host: it builds
// the parameter map and delivers it through a host provider.
package dialog

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"reflect"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	common "github.com/example/share-dialog-service/internal/adapters/common"
	"github.com/example/share-dialog-service/internal/models"
	"github.com/example/share-dialog-service/internal/params"
	"github.com/example/share-dialog-service/internal/providers/host"
	"github.com/example/share-dialog-service/internal/share"
)

var deliveryCounter = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "dialog_host_deliveries_total",
		Help: "Dialog host deliveries by provider and outcome.",
	},
	[]string{"provider", "outcome"},
)

func init() {
	prometheus.MustRegister(deliveryCounter)
}

// ParamsBuilder builds the dialog parameter map for share content.
type ParamsBuilder interface {
	Build(ctx context.Context, callID uuid.UUID, content share.Content, failOnDataError bool) (*params.Map, error)
}

// Option customises adapter behaviour.
type Option func(*Adapter)

// WithRawBodyLimit overrides the number of characters kept from host
// response bodies.
func WithRawBodyLimit(limit int) Option {
	return func(a *Adapter) {
		if limit > 0 {
			a.maxRawChars = limit
		}
	}
}

// WithDeliveryTimeout bounds a single host delivery.
func WithDeliveryTimeout(d time.Duration) Option {
	return func(a *Adapter) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithClock overrides the clock used for envelope timestamps.
func WithClock(now func() time.Time) Option {
	return func(a *Adapter) {
		if now != nil {
			a.now = now
		}
	}
}

// Adapter implements common.Adapter for both dialog surfaces.
type Adapter struct {
	logger      zerolog.Logger
	builder     ParamsBuilder
	provider    host.Provider
	maxRawChars int
	timeout     time.Duration
	now         func() time.Time
}

// NewAdapter constructs an adapter from a parameter builder and host provider.
func NewAdapter(builder ParamsBuilder, provider host.Provider, logger zerolog.Logger, opts ...Option) (*Adapter, error) {
	if builder == nil {
		return nil, errors.New("dialog adapter: builder dependency is required")
	}
	if provider == nil {
		return nil, errors.New("dialog adapter: provider dependency is required")
	}
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}

	a := &Adapter{
		logger:      logger.With().Str("component", "dialog_adapter").Str("provider", provider.Name()).Logger(),
		builder:     builder,
		provider:    provider,
		maxRawChars: common.DefaultRawBodyLimit,
		now:         time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a, nil
}

// Send builds the parameters for the request and delivers them to the host.
// Content the builder does not recognise is reported as skipped with no
// delivery.
func (a *Adapter) Send(ctx context.Context, msg *common.ValidatedMessage) (*common.HostResponse, error) {
	if msg == nil || msg.Request == nil {
		return nil, common.WrapPermanent(errors.New("dialog adapter: message request is nil"))
	}
	call, ok := msg.Request.(*share.Call)
	if !ok {
		return nil, common.WrapPermanent(fmt.Errorf("dialog adapter: expected *share.Call, got %T", msg.Request))
	}

	built, err := a.builder.Build(ctx, call.ID, call.Content, call.FailOnDataError)
	if err != nil {
		a.logger.Info().
			Str("message_id", msg.MessageID).
			Str("call_id", call.ID.String()).
			Err(err).
			Msg("dialog adapter build failed")
		deliveryCounter.WithLabelValues(a.provider.Name(), "build_error").Inc()
		return &common.HostResponse{Status: common.StatusInvalid, Message: err.Error()}, classifyBuildError(err)
	}
	if built == nil {
		deliveryCounter.WithLabelValues(a.provider.Name(), common.StatusSkipped).Inc()
		return &common.HostResponse{
			Status:  common.StatusSkipped,
			Message: fmt.Sprintf("no dialog parameters for kind %q", msg.Kind),
		}, nil
	}

	delivery := a.buildDelivery(msg, call, built)

	deliverCtx := ctx
	if a.timeout > 0 {
		var cancel context.CancelFunc
		deliverCtx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	raw, err := a.provider.Deliver(deliverCtx, delivery)
	if err != nil {
		wrapped := a.wrapError(err)
		resp := a.buildErrorResponse(raw, err, wrapped)
		deliveryCounter.WithLabelValues(a.provider.Name(), resp.Status).Inc()
		a.logger.Info().
			Str("message_id", msg.MessageID).
			Str("call_id", call.ID.String()).
			Str("host_status", resp.Status).
			Err(err).
			Msg("dialog adapter delivery failed")
		return resp, wrapped
	}

	resp := a.buildSuccessResponse(raw, built)
	deliveryCounter.WithLabelValues(a.provider.Name(), resp.Status).Inc()
	a.logger.Debug().
		Str("message_id", msg.MessageID).
		Str("call_id", call.ID.String()).
		Int("params", built.Len()).
		Msg("dialog adapter delivery succeeded")
	return resp, nil
}

func (a *Adapter) buildDelivery(msg *common.ValidatedMessage, call *share.Call, built *params.Map) *host.Delivery {
	headers := map[string]string{"message-id": msg.MessageID}
	for k, v := range msg.KafkaHeaders {
		headers[k] = string(v)
	}
	if msg.TraceID != "" {
		headers["trace-id"] = msg.TraceID
	}
	if msg.TenantID != "" {
		headers["tenant-id"] = msg.TenantID
	}

	return &host.Delivery{
		Envelope: models.DialogEnvelope{
			MessageID: msg.MessageID,
			CallID:    call.ID.String(),
			Surface:   msg.Surface,
			Kind:      string(call.Content.Kind()),
			TenantID:  msg.TenantID,
			TraceID:   msg.TraceID,
			Params:    built,
			BuiltAt:   a.now().UTC(),
		},
		Headers: headers,
		Meta:    msg.Metadata,
	}
}

func (a *Adapter) buildSuccessResponse(raw *host.RawResponse, built *params.Map) *common.HostResponse {
	meta := map[string]string{"param_count": strconv.Itoa(built.Len())}
	resp := &common.HostResponse{Status: common.StatusOK, Message: "delivered", Meta: meta}
	if raw != nil {
		code := raw.Code
		resp.Code = &code
		resp.Raw = common.TruncateRaw(raw.Body, a.maxRawChars)
		if raw.ID != "" {
			meta["host_id"] = raw.ID
		}
		if !raw.Timestamp.IsZero() {
			meta["host_timestamp"] = raw.Timestamp.UTC().Format(time.RFC3339Nano)
		}
	}
	return resp
}

func (a *Adapter) buildErrorResponse(raw *host.RawResponse, err, wrapped error) *common.HostResponse {
	resp := &common.HostResponse{Status: common.StatusRetry, Message: err.Error()}
	if common.IsPermanent(wrapped) {
		resp.Status = common.StatusRejected
	}
	if code, ok := statusCode(err); ok {
		resp.Code = &code
	}
	if raw != nil {
		if resp.Code == nil {
			code := raw.Code
			resp.Code = &code
		}
		resp.Raw = common.TruncateRaw(raw.Body, a.maxRawChars)
	}
	return resp
}

func (a *Adapter) wrapError(err error) error {
	if code, ok := statusCode(err); ok && isPermanentCode(code) {
		return common.WrapPermanent(err)
	}
	return common.WrapTransient(err)
}

// classifyBuildError marks data errors as permanent. Asset resolution talks to
// the object store and is retried.
func classifyBuildError(err error) error {
	var (
		validationErr    *share.ValidationError
		serializationErr *share.SerializationError
	)
	switch {
	case errors.As(err, &validationErr), errors.As(err, &serializationErr):
		return common.WrapPermanent(err)
	default:
		return common.WrapTransient(err)
	}
}

func statusCode(err error) (int, bool) {
	var statusErr *host.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code, true
	}
	if isTimeout(err) {
		return http.StatusGatewayTimeout, true
	}
	return 0, false
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isPermanentCode(code int) bool {
	switch code {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return false
	}
	return code >= 400 && code < 500
}
