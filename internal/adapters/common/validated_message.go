package common

import (
	"time"

	"github.com/google/uuid"
)

// ValidatedMessage is a share request that passed validation. Request holds
// the *share.Call the adapter builds parameters for.
type ValidatedMessage struct {
	Surface      string
	MessageID    string
	CallID       uuid.UUID
	Kind         string
	TraceID      string
	TenantID     string
	CreatedAt    time.Time
	Metadata     map[string]string
	Request      any
	RawPayload   []byte
	Key          []byte
	KafkaHeaders map[string][]byte
}

// CallIDString returns the call id, or an empty string when unset.
func (m *ValidatedMessage) CallIDString() string {
	if m == nil || m.CallID == uuid.Nil {
		return ""
	}
	return m.CallID.String()
}
