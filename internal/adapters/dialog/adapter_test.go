package dialog

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	common "github.com/example/share-dialog-service/internal/adapters/common"
	"github.com/example/share-dialog-service/internal/params"
	"github.com/example/share-dialog-service/internal/providers/host"
	"github.com/example/share-dialog-service/internal/share"
)

type builderStub struct {
	result *params.Map
	err    error
	calls  int
}

func (b *builderStub) Build(ctx context.Context, callID uuid.UUID, content share.Content, failOnDataError bool) (*params.Map, error) {
	b.calls++
	return b.result, b.err
}

type providerStub struct {
	resp       *host.RawResponse
	err        error
	deliveries []*host.Delivery
	deadline   bool
}

func (p *providerStub) Name() string { return "stub" }

func (p *providerStub) Deliver(ctx context.Context, d *host.Delivery) (*host.RawResponse, error) {
	p.deliveries = append(p.deliveries, d)
	_, p.deadline = ctx.Deadline()
	return p.resp, p.err
}

func testMessage() *common.ValidatedMessage {
	callID := uuid.MustParse("6f1c1d2e-3b4a-4c5d-8e6f-7a8b9c0d1e2f")
	return &common.ValidatedMessage{
		Surface:      "share",
		MessageID:    "msg-1",
		CallID:       callID,
		Kind:         "link",
		TraceID:      "trace-1",
		Metadata:     map[string]string{"scenario": "success"},
		KafkaHeaders: map[string][]byte{"origin": []byte("test")},
		Request: &share.Call{
			ID:      callID,
			Content: &share.LinkContent{Base: share.Base{ContentURL: "https://example.com"}},
		},
	}
}

func builtParams() *params.Map {
	return params.NewBuilder().
		PutString(params.ContentURL, "https://example.com").
		PutBool(params.DataFailuresFatal, false).
		Build()
}

func newTestAdapter(t *testing.T, b ParamsBuilder, p host.Provider, opts ...Option) *Adapter {
	t.Helper()
	a, err := NewAdapter(b, p, zerolog.Nop(), opts...)
	if err != nil {
		t.Fatalf("unexpected adapter error: %v", err)
	}
	return a
}

func TestSendDelivers(t *testing.T) {
	now := time.Unix(100, 0).UTC()
	prov := &providerStub{resp: &host.RawResponse{ID: "call", Code: http.StatusAccepted, Body: "queued"}}
	a := newTestAdapter(t, &builderStub{result: builtParams()}, prov,
		WithClock(func() time.Time { return now }),
		WithDeliveryTimeout(time.Second))

	resp, err := a.Send(context.Background(), testMessage())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != common.StatusOK || resp.Code == nil || *resp.Code != http.StatusAccepted {
		t.Fatalf("unexpected response %+v", resp)
	}
	if resp.Meta["param_count"] != "2" {
		t.Fatalf("expected param count meta, got %v", resp.Meta)
	}
	if len(prov.deliveries) != 1 || !prov.deadline {
		t.Fatalf("expected one delivery with a deadline")
	}

	d := prov.deliveries[0]
	if d.Envelope.Kind != "link" || d.Envelope.Surface != "share" || !d.Envelope.BuiltAt.Equal(now) {
		t.Fatalf("unexpected envelope %+v", d.Envelope)
	}
	if d.Envelope.CallID != "6f1c1d2e-3b4a-4c5d-8e6f-7a8b9c0d1e2f" {
		t.Fatalf("unexpected call id %s", d.Envelope.CallID)
	}
	if d.Headers["trace-id"] != "trace-1" || d.Headers["origin"] != "test" {
		t.Fatalf("unexpected headers %v", d.Headers)
	}
	if d.Meta["scenario"] != "success" {
		t.Fatalf("expected metadata to reach the provider")
	}
}

func TestSendSkipsUnrecognizedContent(t *testing.T) {
	prov := &providerStub{}
	a := newTestAdapter(t, &builderStub{}, prov)

	resp, err := a.Send(context.Background(), testMessage())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != common.StatusSkipped {
		t.Fatalf("expected skipped response, got %+v", resp)
	}
	if len(prov.deliveries) != 0 {
		t.Fatalf("skipped content must not be delivered")
	}
}

func TestSendClassifiesBuildErrors(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		permanent bool
	}{
		{name: "validation", err: &share.ValidationError{Field: "content", Reason: "is nil"}, permanent: true},
		{name: "serialization", err: &share.SerializationError{Subject: "open graph action", Err: errors.New("bad")}, permanent: true},
		{name: "asset", err: &share.AssetResolutionError{Asset: "video", Err: errors.New("store down")}, permanent: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			prov := &providerStub{}
			a := newTestAdapter(t, &builderStub{err: tc.err}, prov)

			resp, err := a.Send(context.Background(), testMessage())
			if common.IsPermanent(err) != tc.permanent || common.IsTransient(err) == tc.permanent {
				t.Fatalf("unexpected classification for %v", err)
			}
			if !errors.Is(err, tc.err) {
				t.Fatalf("expected builder error to stay reachable")
			}
			if resp == nil || resp.Status != common.StatusInvalid {
				t.Fatalf("unexpected response %+v", resp)
			}
			if len(prov.deliveries) != 0 {
				t.Fatalf("failed builds must not be delivered")
			}
		})
	}
}

func TestSendClassifiesHostErrors(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		permanent bool
		status    string
		code      int
	}{
		{name: "unprocessable", err: &host.StatusError{Code: 422, Message: "bad params"}, permanent: true, status: common.StatusRejected, code: 422},
		{name: "throttled", err: &host.StatusError{Code: 429, Message: "slow down"}, status: common.StatusRetry, code: 429},
		{name: "unavailable", err: &host.StatusError{Code: 503, Message: "busy"}, status: common.StatusRetry, code: 503},
		{name: "timeout", err: context.DeadlineExceeded, status: common.StatusRetry, code: http.StatusGatewayTimeout},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := newTestAdapter(t, &builderStub{result: builtParams()}, &providerStub{err: tc.err})

			resp, err := a.Send(context.Background(), testMessage())
			if common.IsPermanent(err) != tc.permanent {
				t.Fatalf("unexpected classification for %v", err)
			}
			if resp.Status != tc.status || resp.Code == nil || *resp.Code != tc.code {
				t.Fatalf("unexpected response %+v", resp)
			}
		})
	}
}

func TestSendRejectsUnexpectedRequest(t *testing.T) {
	a := newTestAdapter(t, &builderStub{}, &providerStub{})
	msg := testMessage()
	msg.Request = "not a call"

	if _, err := a.Send(context.Background(), msg); !common.IsPermanent(err) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if _, err := a.Send(context.Background(), nil); !common.IsPermanent(err) {
		t.Fatalf("expected permanent error for nil message, got %v", err)
	}
}

func TestNewAdapterRequiresDeps(t *testing.T) {
	if _, err := NewAdapter(nil, &providerStub{}, zerolog.Nop()); err == nil {
		t.Fatalf("expected error without builder")
	}
	if _, err := NewAdapter(&builderStub{}, nil, zerolog.Nop()); err == nil {
		t.Fatalf("expected error without provider")
	}
}
