// Package host delivers built dialog parameters to the dialog host.
package host

import (
	"context"
	"fmt"
	"time"

	"github.com/example/share-dialog-service/internal/models"
)

// Delivery is one parameter map addressed to the dialog host.
type Delivery struct {
	Envelope models.DialogEnvelope
	Headers  map[string]string
	Meta     map[string]string
}

// RawResponse is the host acknowledgement for a delivery.
type RawResponse struct {
	ID        string
	Code      int
	Body      string
	Timestamp time.Time
}

// Provider hands deliveries to the dialog host.
type Provider interface {
	Name() string
	Deliver(ctx context.Context, d *Delivery) (*RawResponse, error)
}

// StatusError is returned when the host refuses a delivery with a status code.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("dialog host %d: %s", e.Code, e.Message)
}
