package models

import (
	"time"

	"github.com/example/share-dialog-service/internal/params"
)

// DialogEnvelope is the record handed to the dialog host. Params keeps the
// builder's key order when encoded.
type DialogEnvelope struct {
	MessageID string      `json:"message_id"`
	CallID    string      `json:"call_id"`
	Surface   string      `json:"surface"`
	Kind      string      `json:"kind"`
	TenantID  string      `json:"tenant_id,omitempty"`
	TraceID   string      `json:"trace_id,omitempty"`
	Params    *params.Map `json:"params"`
	BuiltAt   time.Time   `json:"built_at"`
}
