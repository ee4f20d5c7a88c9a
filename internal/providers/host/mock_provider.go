package host

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/share-dialog-service/internal/models"
)

// Scenario selects the behaviour of the mock host.
type Scenario string

const (
	ScenarioSuccess   Scenario = "success"
	ScenarioTransient Scenario = "transient"
	ScenarioPermanent Scenario = "permanent"
	ScenarioTimeout   Scenario = "timeout"

	metaScenario = "scenario"
	metaLatency  = "latency"
)

// MockOption customises the mock host.
type MockOption func(*MockProvider)

// WithLatency sets the simulated delivery latency.
func WithLatency(d time.Duration) MockOption {
	return func(p *MockProvider) {
		if d >= 0 {
			p.latency = d
		}
	}
}

// WithDefaultScenario sets the scenario used when a delivery names none.
func WithDefaultScenario(s Scenario) MockOption {
	return func(p *MockProvider) {
		p.defaultScenario = s
	}
}

// WithClock overrides the clock used for response timestamps.
func WithClock(now func() time.Time) MockOption {
	return func(p *MockProvider) {
		if now != nil {
			p.now = now
		}
	}
}

// MockProvider is an in-process dialog host for local runs and tests. The
// "scenario" and "latency" request metadata control its behaviour.
type MockProvider struct {
	logger          zerolog.Logger
	latency         time.Duration
	defaultScenario Scenario
	now             func() time.Time

	mu        sync.Mutex
	delivered []models.DialogEnvelope
}

// NewMockProvider returns a mock host that succeeds by default.
func NewMockProvider(logger zerolog.Logger, opts ...MockOption) *MockProvider {
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	p := &MockProvider{
		logger:          logger.With().Str("provider", "mock_host").Logger(),
		latency:         10 * time.Millisecond,
		defaultScenario: ScenarioSuccess,
		now:             time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

func (p *MockProvider) Name() string { return "mock" }

// Deliver simulates the host accepting or refusing d.
func (p *MockProvider) Deliver(ctx context.Context, d *Delivery) (*RawResponse, error) {
	if d == nil || d.Envelope.Params == nil {
		return nil, errors.New("mock host: delivery has no parameters")
	}

	if err := sleep(ctx, p.sampleLatency(d)); err != nil {
		return nil, err
	}

	scenario := p.resolveScenario(d)
	p.logger.Debug().
		Str("scenario", string(scenario)).
		Str("call_id", d.Envelope.CallID).
		Msg("mock dialog host invoked")

	switch scenario {
	case ScenarioPermanent:
		resp := p.response(d, http.StatusUnprocessableEntity, "mock: parameters rejected")
		return resp, &StatusError{Code: resp.Code, Message: resp.Body}
	case ScenarioTransient:
		resp := p.response(d, http.StatusServiceUnavailable, "mock: host busy, try again later")
		return resp, &StatusError{Code: resp.Code, Message: resp.Body}
	case ScenarioTimeout:
		<-ctx.Done()
		return nil, ctx.Err()
	default:
		p.mu.Lock()
		p.delivered = append(p.delivered, d.Envelope)
		p.mu.Unlock()
		return p.response(d, http.StatusOK, fmt.Sprintf("mock: dialog presented with %d params", d.Envelope.Params.Len())), nil
	}
}

// Delivered returns the envelopes accepted so far.
func (p *MockProvider) Delivered() []models.DialogEnvelope {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.DialogEnvelope(nil), p.delivered...)
}

func (p *MockProvider) resolveScenario(d *Delivery) Scenario {
	value, ok := d.Meta[metaScenario]
	if !ok || value == "" {
		return p.defaultScenario
	}
	switch Scenario(strings.ToLower(strings.TrimSpace(value))) {
	case ScenarioPermanent:
		return ScenarioPermanent
	case ScenarioTransient:
		return ScenarioTransient
	case ScenarioTimeout:
		return ScenarioTimeout
	default:
		return ScenarioSuccess
	}
}

func (p *MockProvider) sampleLatency(d *Delivery) time.Duration {
	if value, ok := d.Meta[metaLatency]; ok {
		if l, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && l >= 0 {
			return l
		}
	}
	return p.latency
}

func (p *MockProvider) response(d *Delivery, code int, body string) *RawResponse {
	return &RawResponse{
		ID:        d.Envelope.CallID,
		Code:      code,
		Body:      body,
		Timestamp: p.now(),
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
