package models

import "time"

// Status event constants.
const (
	StatusEventQueued  = "queued"
	StatusEventAttempt = "attempt"
	StatusEventSent    = "sent"
	StatusEventSkipped = "skipped"
	StatusEventFailed  = "failed"
	StatusEventDLQ     = "dlq"
)

// HostResponse is the normalized outcome reported by the dialog host.
type HostResponse struct {
	Status  string            `json:"status"`
	Code    *int              `json:"code,omitempty"`
	Message string            `json:"message,omitempty"`
	Raw     string            `json:"raw,omitempty"`
	Meta    map[string]string `json:"meta,omitempty"`
}

// StatusEvent reports one step of a share request lifecycle.
type StatusEvent struct {
	MessageID    string        `json:"message_id"`
	CallID       string        `json:"call_id,omitempty"`
	Surface      string        `json:"surface"`
	Kind         string        `json:"kind,omitempty"`
	EventType    string        `json:"event_type"`
	Attempt      int           `json:"attempt,omitempty"`
	HostResponse *HostResponse `json:"host_response,omitempty"`
	Error        string        `json:"error,omitempty"`
	TraceID      string        `json:"trace_id,omitempty"`
	Timestamp    time.Time     `json:"timestamp"`
}
