package host

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Producer is the subset of the Kafka producer used to reach the host.
type Producer interface {
	PublishSync(topic string, key []byte, headers map[string][]byte, payload []byte) error
}

// KafkaProvider publishes dialog envelopes to the surface host topic.
type KafkaProvider struct {
	producer Producer
	topic    string
	logger   zerolog.Logger
	now      func() time.Time
}

// NewKafkaProvider constructs a provider publishing to topic.
func NewKafkaProvider(prod Producer, topic string, logger zerolog.Logger) (*KafkaProvider, error) {
	if prod == nil {
		return nil, errors.New("kafka host: producer dependency is required")
	}
	if topic == "" {
		return nil, errors.New("kafka host: topic is required")
	}
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	return &KafkaProvider{
		producer: prod,
		topic:    topic,
		logger:   logger.With().Str("provider", "kafka_host").Str("topic", topic).Logger(),
		now:      time.Now,
	}, nil
}

func (p *KafkaProvider) Name() string { return "kafka" }

// Deliver publishes the envelope keyed by call id and waits for the broker
// acknowledgement.
func (p *KafkaProvider) Deliver(ctx context.Context, d *Delivery) (*RawResponse, error) {
	if d == nil || d.Envelope.Params == nil {
		return nil, &StatusError{Code: http.StatusBadRequest, Message: "delivery has no parameters"}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(d.Envelope)
	if err != nil {
		return nil, &StatusError{Code: http.StatusBadRequest, Message: fmt.Sprintf("encode envelope: %v", err)}
	}

	headers := map[string][]byte{
		"content-type": []byte("application/json"),
		"surface":      []byte(d.Envelope.Surface),
		"kind":         []byte(d.Envelope.Kind),
	}
	for k, v := range d.Headers {
		headers[k] = []byte(v)
	}

	if err := p.producer.PublishSync(p.topic, []byte(d.Envelope.CallID), headers, payload); err != nil {
		p.logger.Warn().Str("call_id", d.Envelope.CallID).Err(err).Msg("publish dialog envelope failed")
		return nil, &StatusError{Code: http.StatusServiceUnavailable, Message: err.Error()}
	}

	return &RawResponse{
		ID:        d.Envelope.CallID,
		Code:      http.StatusAccepted,
		Body:      fmt.Sprintf("queued %d bytes on %s", len(payload), p.topic),
		Timestamp: p.now(),
	}, nil
}
