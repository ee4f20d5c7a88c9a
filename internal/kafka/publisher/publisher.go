// Package publisher writes worker status events and dead letter records to
// Kafka.
package publisher

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/example/share-dialog-service/internal/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var errProducerNotInitialised = errors.New("kafka publisher: producer not initialised")

var publishedCounter = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "share_worker_published_total",
		Help: "Status events and dead letter records written by the workers",
	},
	[]string{"kind", "surface", "result"},
)

func init() {
	prometheus.MustRegister(publishedCounter)
}

// SyncProducer is the producer behaviour the publishers rely on.
type SyncProducer interface {
	PublishSync(topic string, key []byte, headers map[string][]byte, payload []byte) error
}

// ErrProducerNotInitialised returns the error reported by nil publishers.
func ErrProducerNotInitialised() error {
	return errProducerNotInitialised
}

// StatusPublisher emits status events on the surface status topic.
type StatusPublisher struct {
	producer SyncProducer
	topic    string
	logger   zerolog.Logger
}

// NewStatusPublisher returns nil when prod is nil.
func NewStatusPublisher(prod SyncProducer, topic string, logger zerolog.Logger) *StatusPublisher {
	if prod == nil {
		return nil
	}
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	return &StatusPublisher{
		producer: prod,
		topic:    topic,
		logger:   logger.With().Str("topic", topic).Logger(),
	}
}

// PublishStatus writes event synchronously. Events of one share call share a
// partition key so consumers observe them in order.
func (p *StatusPublisher) PublishStatus(_ context.Context, event models.StatusEvent) error {
	if p == nil || p.producer == nil {
		return errProducerNotInitialised
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("kafka publisher: marshal status event: %w", err)
	}

	headers := baseHeaders(event.Surface)
	headers["event-type"] = []byte(event.EventType)

	err = p.producer.PublishSync(p.topic, partitionKey(event.CallID, event.MessageID), headers, payload)
	observe("status", event.Surface, err)
	if err != nil {
		return fmt.Errorf("kafka publisher: publish status event: %w", err)
	}
	p.logger.Debug().
		Str("message_id", event.MessageID).
		Str("event_type", event.EventType).
		Msg("status event published")
	return nil
}

// DLQPublisher writes dead letter records on the surface DLQ topic.
type DLQPublisher struct {
	producer SyncProducer
	topic    string
	logger   zerolog.Logger
}

// NewDLQPublisher returns nil when prod is nil.
func NewDLQPublisher(prod SyncProducer, topic string, logger zerolog.Logger) *DLQPublisher {
	if prod == nil {
		return nil
	}
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	return &DLQPublisher{
		producer: prod,
		topic:    topic,
		logger:   logger.With().Str("topic", topic).Logger(),
	}
}

// PublishDLQ writes record synchronously.
func (p *DLQPublisher) PublishDLQ(_ context.Context, record models.DLQRecord) error {
	if p == nil || p.producer == nil {
		return errProducerNotInitialised
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("kafka publisher: marshal dlq record: %w", err)
	}

	headers := baseHeaders(record.Surface)
	headers["failure-type"] = []byte(record.FailureType)

	err = p.producer.PublishSync(p.topic, partitionKey(record.CallID, record.MessageID), headers, payload)
	observe("dlq", record.Surface, err)
	if err != nil {
		return fmt.Errorf("kafka publisher: publish dlq record: %w", err)
	}
	p.logger.Warn().
		Str("message_id", record.MessageID).
		Str("failure_type", record.FailureType).
		Int("attempts", record.Attempts).
		Msg("dlq record published")
	return nil
}

func baseHeaders(surface string) map[string][]byte {
	headers := map[string][]byte{
		"content-type": []byte("application/json"),
	}
	if surface != "" {
		headers["surface"] = []byte(surface)
	}
	return headers
}

func partitionKey(callID, messageID string) []byte {
	if callID != "" {
		return []byte(callID)
	}
	if messageID != "" {
		return []byte(messageID)
	}
	return nil
}

func observe(kind, surface string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	publishedCounter.WithLabelValues(kind, surface, result).Inc()
}
