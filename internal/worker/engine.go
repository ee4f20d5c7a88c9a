package worker

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"reflect"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	common "github.com/example/share-dialog-service/internal/adapters/common"
	"github.com/example/share-dialog-service/internal/models"
)

// Config contains the runtime settings of the engine for one dialog surface.
type Config struct {
	Surface           string
	MsgMaxBytes       int
	MaxAttempts       int
	BaseBackoff       time.Duration
	MaxBackoff        time.Duration
	WorkerConcurrency int
}

// ValidatedMessage is the request handed from the validator to the adapter.
type ValidatedMessage = common.ValidatedMessage

// FailureType classifies DLQ records.
type FailureType string

const (
	FailureTypePermanent  FailureType = models.FailureTypePermanent
	FailureTypeTransient  FailureType = models.FailureTypeTransient
	FailureTypeValidation FailureType = models.FailureTypeValidation
	FailureTypeUnknown    FailureType = models.FailureTypeUnknown
)

// Adapter delivers a validated message to the dialog host.
type Adapter interface {
	Send(ctx context.Context, msg *ValidatedMessage) (*common.HostResponse, error)
}

// Validator parses and validates inbound records for a surface. On error the
// returned message may be nil or partially populated.
type Validator interface {
	ParseAndValidate(ctx context.Context, surface string, payload []byte) (*ValidatedMessage, error)
}

// StatusPublisher emits lifecycle events.
type StatusPublisher interface {
	PublishStatus(ctx context.Context, event models.StatusEvent) error
}

// DLQPublisher writes failed requests to the surface DLQ topic.
type DLQPublisher interface {
	PublishDLQ(ctx context.Context, record models.DLQRecord) error
}

// Committer commits the offset of a processed record.
type Committer interface {
	Commit(ctx context.Context, record *Record) error
}

// CommitFunc adapts a function to Committer.
type CommitFunc func(ctx context.Context, record *Record) error

// Commit implements Committer.
func (f CommitFunc) Commit(ctx context.Context, record *Record) error {
	return f(ctx, record)
}

// RecordCommitter commits through the function bound to each record by the
// consumer bridge.
var RecordCommitter Committer = CommitFunc(func(ctx context.Context, record *Record) error {
	return record.Commit(ctx)
})

// Dependencies collects the runtime collaborators of the engine. Committer
// defaults to RecordCommitter.
type Dependencies struct {
	Adapter         Adapter
	Validator       Validator
	StatusPublisher StatusPublisher
	DLQPublisher    DLQPublisher
	Committer       Committer
	Logger          zerolog.Logger
	Now             func() time.Time
}

type outcome struct {
	event       string
	attempt     int
	response    *common.HostResponse
	err         error
	failureType FailureType
	firstFailed time.Time
	at          time.Time
}

// Engine validates records, delivers them with retries and full-jitter
// backoff, emits status and DLQ records and commits offsets once a record
// reaches a terminal outcome.
type Engine struct {
	cfg             Config
	adapter         Adapter
	validator       Validator
	statusPublisher StatusPublisher
	dlqPublisher    DLQPublisher
	committer       Committer
	logger          zerolog.Logger

	semaphore *semaphore.Weighted
	inflight  sync.WaitGroup

	now func() time.Time

	randMu sync.Mutex
	rnd    *rand.Rand
}

// NewEngine validates cfg and deps and returns a ready engine.
func NewEngine(cfg Config, deps Dependencies) (*Engine, error) {
	if cfg.Surface == "" {
		return nil, errors.New("worker: surface must be provided")
	}
	if cfg.MaxAttempts < 1 {
		return nil, errors.New("worker: max attempts must be >= 1")
	}
	if cfg.WorkerConcurrency < 1 {
		return nil, errors.New("worker: worker concurrency must be >= 1")
	}
	if cfg.MsgMaxBytes < 0 {
		return nil, errors.New("worker: msg max bytes cannot be negative")
	}
	if deps.Adapter == nil {
		return nil, errors.New("worker: adapter dependency is required")
	}
	if deps.Validator == nil {
		return nil, errors.New("worker: validator dependency is required")
	}
	if deps.StatusPublisher == nil {
		return nil, errors.New("worker: status publisher dependency is required")
	}
	if deps.DLQPublisher == nil {
		return nil, errors.New("worker: DLQ publisher dependency is required")
	}

	committer := deps.Committer
	if committer == nil {
		committer = RecordCommitter
	}

	logger := deps.Logger
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}

	nowFunc := deps.Now
	if nowFunc == nil {
		nowFunc = time.Now
	}

	return &Engine{
		cfg:             cfg,
		adapter:         deps.Adapter,
		validator:       deps.Validator,
		statusPublisher: deps.StatusPublisher,
		dlqPublisher:    deps.DLQPublisher,
		committer:       committer,
		logger:          logger.With().Str("component", "worker_engine").Str("surface", cfg.Surface).Logger(),
		semaphore:       semaphore.NewWeighted(int64(cfg.WorkerConcurrency)),
		now:             nowFunc,
		rnd:             rand.New(rand.NewSource(time.Now().UnixNano())), // #nosec G404 -- jitter only
	}, nil
}

// HandleRecord checks the record size, validates the payload and schedules
// delivery on a worker goroutine. Records that fail before delivery are
// reported, dead-lettered and committed synchronously.
func (e *Engine) HandleRecord(ctx context.Context, record *Record) {
	if record == nil {
		return
	}

	if e.cfg.MsgMaxBytes > 0 && len(record.Value) > e.cfg.MsgMaxBytes {
		err := fmt.Errorf("payload exceeds maximum size: got %d bytes, limit %d bytes", len(record.Value), e.cfg.MsgMaxBytes)
		e.reject(ctx, record, e.partialMessage(), err)
		return
	}

	validated, err := e.validator.ParseAndValidate(ctx, e.cfg.Surface, record.Value)
	if validated == nil {
		validated = e.partialMessage()
	}
	e.fillFromRecord(validated, record)
	if err != nil {
		e.reject(ctx, record, validated, err)
		return
	}

	if err := e.semaphore.Acquire(ctx, 1); err != nil {
		e.logger.Error().
			Str("message_id", validated.MessageID).
			Err(err).
			Msg("worker: failed to acquire concurrency semaphore")
		return
	}

	e.inflight.Add(1)
	go e.process(ctx, record.Clone(), validated)
}

// Wait blocks until every scheduled record finished processing.
func (e *Engine) Wait() {
	e.inflight.Wait()
}

func (e *Engine) reject(ctx context.Context, record *Record, msg *ValidatedMessage, err error) {
	e.logger.Warn().
		Str("message_id", msg.MessageID).
		Err(err).
		Msg("worker: record rejected before delivery")
	now := e.now()
	e.finish(ctx, record, msg, outcome{
		event:       models.StatusEventFailed,
		err:         err,
		failureType: FailureTypeValidation,
		firstFailed: now,
		at:          now,
	})
}

func (e *Engine) process(ctx context.Context, record *Record, msg *ValidatedMessage) {
	defer e.inflight.Done()
	defer e.semaphore.Release(1)

	if ctx.Err() != nil {
		e.logger.Warn().
			Str("message_id", msg.MessageID).
			Msg("worker: context cancelled before processing began")
		return
	}

	e.publishStatus(ctx, msg, outcome{event: models.StatusEventQueued})

	var firstFailedAt time.Time
	for attempt := 1; ; attempt++ {
		e.publishStatus(ctx, msg, outcome{event: models.StatusEventAttempt, attempt: attempt})

		start := e.now()
		resp, err := e.adapter.Send(ctx, msg)
		log := e.logger.With().
			Str("message_id", msg.MessageID).
			Str("call_id", msg.CallIDString()).
			Int("attempt", attempt).
			Dur("duration", e.now().Sub(start)).
			Logger()

		if err == nil {
			event := models.StatusEventSent
			if resp != nil && resp.Status == common.StatusSkipped {
				event = models.StatusEventSkipped
			}
			log.Info().Str("event", event).Msg("worker: share request handled")
			e.finish(ctx, record, msg, outcome{event: event, attempt: attempt, response: resp})
			return
		}

		if ctx.Err() != nil {
			log.Warn().Err(err).Msg("worker: context cancelled during send; deferring commit for reprocessing")
			return
		}

		log.Warn().Err(err).Msg("worker: adapter returned error")

		now := e.now()
		if firstFailedAt.IsZero() {
			firstFailedAt = now
		}
		failed := outcome{
			event:       models.StatusEventFailed,
			attempt:     attempt,
			response:    resp,
			err:         err,
			firstFailed: firstFailedAt,
			at:          now,
		}

		switch {
		case common.IsPermanent(err):
			failed.failureType = FailureTypePermanent
			e.finish(ctx, record, msg, failed)
			return
		case attempt >= e.cfg.MaxAttempts:
			failed.failureType = FailureTypeTransient
			if !common.IsTransient(err) {
				failed.failureType = FailureTypeUnknown
			}
			e.finish(ctx, record, msg, failed)
			return
		}

		backoff := e.computeBackoff(attempt)
		if backoff > 0 {
			log.Info().Dur("backoff", backoff).Msg("worker: scheduling retry after transient error")
		}
		if !e.wait(ctx, backoff) {
			log.Warn().Msg("worker: context cancelled while waiting for retry; message will be retried on next poll")
			return
		}
	}
}

// finish publishes the terminal status, the DLQ record for failures and
// commits the offset.
func (e *Engine) finish(ctx context.Context, record *Record, msg *ValidatedMessage, o outcome) {
	e.publishStatus(ctx, msg, o)
	if o.failureType != "" {
		e.publishDLQ(ctx, msg, o)
	}
	e.commitRecord(ctx, record)
}

func (e *Engine) computeBackoff(attempt int) time.Duration {
	if e.cfg.BaseBackoff <= 0 {
		return 0
	}

	raw := time.Duration(float64(e.cfg.BaseBackoff) * math.Pow(2, float64(attempt-1)))
	if e.cfg.MaxBackoff > 0 && raw > e.cfg.MaxBackoff {
		raw = e.cfg.MaxBackoff
	}
	return e.fullJitter(raw)
}

func (e *Engine) fullJitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	e.randMu.Lock()
	defer e.randMu.Unlock()
	return time.Duration(e.rnd.Int63n(int64(max) + 1))
}

func (e *Engine) wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (e *Engine) publishStatus(ctx context.Context, msg *ValidatedMessage, o outcome) {
	ts := o.at
	if ts.IsZero() {
		ts = e.now()
	}
	event := models.StatusEvent{
		MessageID:    msg.MessageID,
		CallID:       msg.CallIDString(),
		Surface:      msg.Surface,
		Kind:         msg.Kind,
		EventType:    o.event,
		Attempt:      o.attempt,
		HostResponse: toModelResponse(o.response),
		TraceID:      msg.TraceID,
		Timestamp:    ts.UTC(),
	}
	if o.err != nil {
		event.Error = o.err.Error()
	}
	if err := e.statusPublisher.PublishStatus(ctx, event); err != nil {
		e.logger.Error().
			Str("message_id", msg.MessageID).
			Str("event", o.event).
			Err(err).
			Msg("worker: failed to publish status event")
	}
}

func (e *Engine) publishDLQ(ctx context.Context, msg *ValidatedMessage, o outcome) {
	first := o.firstFailed
	if first.IsZero() {
		first = e.now()
	}
	last := o.at
	if last.IsZero() {
		last = first
	}
	record := models.DLQRecord{
		MessageID:       msg.MessageID,
		CallID:          msg.CallIDString(),
		Surface:         msg.Surface,
		OriginalMessage: originalMessage(msg.RawPayload),
		Attempts:        o.attempt,
		FailureType:     string(o.failureType),
		FirstFailedAt:   first.UTC(),
		LastAttemptAt:   last.UTC(),
		TraceID:         msg.TraceID,
		Meta:            msg.Metadata,
	}
	if o.err != nil {
		record.LastError = o.err.Error()
	}
	if err := e.dlqPublisher.PublishDLQ(ctx, record); err != nil {
		e.logger.Error().
			Str("message_id", msg.MessageID).
			Err(err).
			Msg("worker: failed to publish DLQ record")
	}
}

func (e *Engine) commitRecord(ctx context.Context, record *Record) {
	if err := e.committer.Commit(ctx, record); err != nil {
		e.logger.Error().
			Str("topic", record.Topic).
			Int32("partition", record.Partition).
			Int64("offset", record.Offset).
			Err(err).
			Msg("worker: failed to commit record offset")
	}
}

func (e *Engine) partialMessage() *ValidatedMessage {
	return &ValidatedMessage{Surface: e.cfg.Surface}
}

func (e *Engine) fillFromRecord(msg *ValidatedMessage, record *Record) {
	if msg.Surface == "" {
		msg.Surface = e.cfg.Surface
	}
	if msg.MessageID == "" {
		msg.MessageID = string(record.Key)
	}
	if len(msg.RawPayload) == 0 {
		msg.RawPayload = cloneBytes(record.Value)
	}
	if len(msg.Key) == 0 {
		msg.Key = cloneBytes(record.Key)
	}
	if len(msg.KafkaHeaders) == 0 {
		msg.KafkaHeaders = cloneHeaders(record.Headers)
	}
}

func toModelResponse(resp *common.HostResponse) *models.HostResponse {
	if resp == nil {
		return nil
	}
	return &models.HostResponse{
		Status:  resp.Status,
		Code:    resp.Code,
		Message: resp.Message,
		Raw:     resp.Raw,
		Meta:    resp.Meta,
	}
}

// originalMessage keeps JSON payloads readable in DLQ records and falls back
// to the raw string otherwise.
func originalMessage(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	if json.Valid(raw) {
		return jsoniter.RawMessage(raw)
	}
	return string(raw)
}
