package worker_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	common "github.com/example/share-dialog-service/internal/adapters/common"
	"github.com/example/share-dialog-service/internal/kafka/consumer"
	"github.com/example/share-dialog-service/internal/models"
	"github.com/example/share-dialog-service/internal/worker"
)

type adapterStub struct {
	mu        sync.Mutex
	responses []callResult
	index     int
}

type callResult struct {
	resp *common.HostResponse
	err  error
}

func (a *adapterStub) Send(ctx context.Context, msg *worker.ValidatedMessage) (*common.HostResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.responses) == 0 {
		return nil, nil
	}
	if a.index >= len(a.responses) {
		last := a.responses[len(a.responses)-1]
		return last.resp, last.err
	}
	res := a.responses[a.index]
	a.index++
	return res.resp, res.err
}

type validatorStub struct {
	msg *worker.ValidatedMessage
	err error
}

func (v *validatorStub) ParseAndValidate(ctx context.Context, surface string, payload []byte) (*worker.ValidatedMessage, error) {
	return v.msg, v.err
}

type statusCollector struct {
	mu     sync.Mutex
	events []models.StatusEvent
}

func (s *statusCollector) PublishStatus(ctx context.Context, event models.StatusEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

type dlqCollector struct {
	mu      sync.Mutex
	records []models.DLQRecord
}

func (d *dlqCollector) PublishDLQ(ctx context.Context, record models.DLQRecord) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.records = append(d.records, record)
	return nil
}

type harness struct {
	engine    *worker.Engine
	status    *statusCollector
	dlq       *dlqCollector
	commits   int
	commitsMu sync.Mutex
}

func newHarness(t *testing.T, cfg worker.Config, adapter worker.Adapter, validator worker.Validator) *harness {
	t.Helper()
	h := &harness{status: &statusCollector{}, dlq: &dlqCollector{}}
	now := time.Unix(0, 0).UTC()
	engine, err := worker.NewEngine(cfg, worker.Dependencies{
		Adapter:         adapter,
		Validator:       validator,
		StatusPublisher: h.status,
		DLQPublisher:    h.dlq,
		Committer: worker.CommitFunc(func(context.Context, *worker.Record) error {
			h.commitsMu.Lock()
			h.commits++
			h.commitsMu.Unlock()
			return nil
		}),
		Logger: zerolog.New(io.Discard),
		Now:    func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("unexpected engine error: %v", err)
	}
	h.engine = engine
	return h
}

func defaultConfig() worker.Config {
	return worker.Config{
		Surface:           models.SurfaceShare,
		MsgMaxBytes:       1024,
		MaxAttempts:       3,
		WorkerConcurrency: 2,
	}
}

func TestEngineHandleRecordSuccess(t *testing.T) {
	validator := &validatorStub{msg: &worker.ValidatedMessage{
		Surface:   models.SurfaceShare,
		MessageID: "msg-1",
		Kind:      "link",
	}}
	adapter := &adapterStub{responses: []callResult{
		{resp: &common.HostResponse{Status: common.StatusOK, Message: "delivered"}},
	}}
	h := newHarness(t, defaultConfig(), adapter, validator)

	h.engine.HandleRecord(context.Background(), &worker.Record{
		Topic:   "share.request",
		Key:     []byte("msg-1"),
		Value:   []byte(`{"content":{"kind":"link"}}`),
		Headers: map[string][]byte{"trace": []byte("abc")},
	})
	h.engine.Wait()

	if !eventTypesMatch(h.status.events, []string{models.StatusEventQueued, models.StatusEventAttempt, models.StatusEventSent}) {
		t.Fatalf("unexpected status order: %+v", h.status.events)
	}
	sent := h.status.events[2]
	if sent.HostResponse == nil || sent.HostResponse.Status != common.StatusOK || sent.Kind != "link" {
		t.Fatalf("unexpected sent event %+v", sent)
	}
	if len(h.dlq.records) != 0 {
		t.Fatalf("did not expect DLQ records, got %d", len(h.dlq.records))
	}
	if h.commits != 1 {
		t.Fatalf("expected one commit, got %d", h.commits)
	}
}

func TestEngineSkippedContent(t *testing.T) {
	validator := &validatorStub{msg: &worker.ValidatedMessage{MessageID: "msg-skip"}}
	adapter := &adapterStub{responses: []callResult{
		{resp: &common.HostResponse{Status: common.StatusSkipped}},
	}}
	h := newHarness(t, defaultConfig(), adapter, validator)

	h.engine.HandleRecord(context.Background(), &worker.Record{Key: []byte("msg-skip"), Value: []byte(`{}`)})
	h.engine.Wait()

	if !eventTypesMatch(h.status.events, []string{models.StatusEventQueued, models.StatusEventAttempt, models.StatusEventSkipped}) {
		t.Fatalf("unexpected status order: %+v", h.status.events)
	}
	if h.commits != 1 || len(h.dlq.records) != 0 {
		t.Fatalf("expected commit without DLQ, commits=%d dlq=%d", h.commits, len(h.dlq.records))
	}
}

func TestEngineValidationFailure(t *testing.T) {
	validator := &validatorStub{err: errors.New("invalid hashtag")}
	h := newHarness(t, defaultConfig(), &adapterStub{}, validator)

	h.engine.HandleRecord(context.Background(), &worker.Record{
		Topic: "share.request",
		Key:   []byte("msg-2"),
		Value: []byte(`{"bad":"payload"}`),
	})

	if len(h.status.events) != 1 || h.status.events[0].EventType != models.StatusEventFailed {
		t.Fatalf("expected failed status event, got %+v", h.status.events)
	}
	if h.status.events[0].MessageID != "msg-2" || h.status.events[0].Surface != models.SurfaceShare {
		t.Fatalf("expected message id and surface from the record, got %+v", h.status.events[0])
	}
	if len(h.dlq.records) != 1 {
		t.Fatalf("expected DLQ record")
	}
	rec := h.dlq.records[0]
	if rec.FailureType != string(worker.FailureTypeValidation) || rec.LastError != "invalid hashtag" {
		t.Fatalf("unexpected DLQ record %+v", rec)
	}
	if rec.OriginalMessage == nil {
		t.Fatalf("expected original payload in DLQ record")
	}
	if h.commits != 1 {
		t.Fatalf("expected commit on validation failure")
	}
}

func TestEngineRejectsOversizedRecord(t *testing.T) {
	cfg := defaultConfig()
	cfg.MsgMaxBytes = 4
	h := newHarness(t, cfg, &adapterStub{}, &validatorStub{})

	h.engine.HandleRecord(context.Background(), &worker.Record{Key: []byte("big"), Value: []byte("0123456789")})

	if len(h.dlq.records) != 1 || !strings.Contains(h.dlq.records[0].LastError, "maximum size") {
		t.Fatalf("expected size DLQ record, got %+v", h.dlq.records)
	}
	if h.commits != 1 {
		t.Fatalf("expected commit for oversized record")
	}
}

func TestEngineRetriesTransientFailures(t *testing.T) {
	cfg := defaultConfig()
	cfg.MaxAttempts = 2
	validator := &validatorStub{msg: &worker.ValidatedMessage{MessageID: "msg-3"}}
	adapter := &adapterStub{responses: []callResult{
		{resp: &common.HostResponse{Status: common.StatusRetry}, err: common.WrapTransient(errors.New("host busy"))},
	}}
	h := newHarness(t, cfg, adapter, validator)

	h.engine.HandleRecord(context.Background(), &worker.Record{Key: []byte("msg-3"), Value: []byte(`{}`)})
	h.engine.Wait()

	if !eventTypesMatch(h.status.events, []string{
		models.StatusEventQueued,
		models.StatusEventAttempt,
		models.StatusEventAttempt,
		models.StatusEventFailed,
	}) {
		t.Fatalf("unexpected status events %+v", h.status.events)
	}
	if len(h.dlq.records) != 1 {
		t.Fatalf("expected single DLQ record")
	}
	if got := h.dlq.records[0]; got.FailureType != string(worker.FailureTypeTransient) || got.Attempts != 2 {
		t.Fatalf("unexpected DLQ record %+v", got)
	}
}

func TestEnginePermanentFailureStopsRetries(t *testing.T) {
	validator := &validatorStub{msg: &worker.ValidatedMessage{MessageID: "msg-4"}}
	adapter := &adapterStub{responses: []callResult{
		{resp: &common.HostResponse{Status: common.StatusInvalid}, err: common.WrapPermanent(errors.New("share: invalid content: is nil"))},
	}}
	h := newHarness(t, defaultConfig(), adapter, validator)

	h.engine.HandleRecord(context.Background(), &worker.Record{Key: []byte("msg-4"), Value: []byte(`{}`)})
	h.engine.Wait()

	if !eventTypesMatch(h.status.events, []string{models.StatusEventQueued, models.StatusEventAttempt, models.StatusEventFailed}) {
		t.Fatalf("unexpected status events %+v", h.status.events)
	}
	if len(h.dlq.records) != 1 || h.dlq.records[0].FailureType != string(worker.FailureTypePermanent) {
		t.Fatalf("expected permanent DLQ record, got %+v", h.dlq.records)
	}
	if h.commits != 1 {
		t.Fatalf("expected commit after permanent failure")
	}
}

type commitRecorder struct {
	mu      sync.Mutex
	records []*consumer.Record
}

func (c *commitRecorder) Commit(ctx context.Context, rec *consumer.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, rec)
	return nil
}

func TestKafkaHandlerBindsRecordCommit(t *testing.T) {
	validator := &validatorStub{msg: &worker.ValidatedMessage{MessageID: "msg-5"}}
	adapter := &adapterStub{responses: []callResult{{resp: &common.HostResponse{Status: common.StatusOK}}}}
	engine, err := worker.NewEngine(defaultConfig(), worker.Dependencies{
		Adapter:         adapter,
		Validator:       validator,
		StatusPublisher: &statusCollector{},
		DLQPublisher:    &dlqCollector{},
	})
	if err != nil {
		t.Fatalf("unexpected engine error: %v", err)
	}

	cons := &commitRecorder{}
	rec := &consumer.Record{Topic: "share.request", Partition: 1, Offset: 7, Key: []byte("msg-5"), Value: []byte(`{}`)}
	if err := worker.KafkaHandler(engine, cons)(context.Background(), rec); err != nil {
		t.Fatalf("unexpected handler error: %v", err)
	}
	engine.Wait()

	if len(cons.records) != 1 || cons.records[0] != rec {
		t.Fatalf("expected the consumer record to be committed, got %v", cons.records)
	}
}

func TestNewEngineValidatesInput(t *testing.T) {
	deps := worker.Dependencies{
		Adapter:         &adapterStub{},
		Validator:       &validatorStub{},
		StatusPublisher: &statusCollector{},
		DLQPublisher:    &dlqCollector{},
	}
	if _, err := worker.NewEngine(worker.Config{MaxAttempts: 1, WorkerConcurrency: 1}, deps); err == nil {
		t.Fatalf("expected error without surface")
	}
	cfg := defaultConfig()
	cfg.WorkerConcurrency = 0
	if _, err := worker.NewEngine(cfg, deps); err == nil {
		t.Fatalf("expected error for zero concurrency")
	}
	deps.Adapter = nil
	if _, err := worker.NewEngine(defaultConfig(), deps); err == nil {
		t.Fatalf("expected error without adapter")
	}
}

func eventTypesMatch(events []models.StatusEvent, expected []string) bool {
	if len(events) != len(expected) {
		return false
	}
	for i, evt := range events {
		if evt.EventType != expected[i] {
			return false
		}
	}
	return true
}
