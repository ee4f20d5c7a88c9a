package common

import "unicode/utf8"

// DefaultRawBodyLimit is the number of characters of a host response body kept
// on a HostResponse.
const DefaultRawBodyLimit = 1024

// Host response statuses.
const (
	StatusOK       = "ok"
	StatusSkipped  = "skipped"
	StatusRejected = "rejected"
	StatusRetry    = "retry"
	StatusInvalid  = "invalid"
)

// HostResponse is the normalized outcome of one delivery attempt.
type HostResponse struct {
	Status  string            `json:"status"`
	Code    *int              `json:"code,omitempty"`
	Message string            `json:"message,omitempty"`
	Raw     string            `json:"raw,omitempty"`
	Meta    map[string]string `json:"meta,omitempty"`
}

// TruncateRaw trims raw to at most limit runes.
func TruncateRaw(raw string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(raw) <= limit {
		return raw
	}
	return string([]rune(raw)[:limit])
}
