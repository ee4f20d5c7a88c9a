package common

import "context"

// Adapter turns a validated share request into a dialog host delivery and
// reports the normalized host response.
type Adapter interface {
	Send(ctx context.Context, msg *ValidatedMessage) (*HostResponse, error)
}
