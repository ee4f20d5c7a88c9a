package common

import (
	"errors"
	"fmt"
)

// ErrTransient and ErrPermanent classify adapter failures for the worker
// retry loop.
var (
	ErrTransient = errors.New("transient error")
	ErrPermanent = errors.New("permanent error")
)

// WrapTransient marks err as retryable. The original error stays reachable
// through errors.Is and errors.As.
func WrapTransient(err error) error {
	if err == nil {
		return ErrTransient
	}
	return fmt.Errorf("%w: %w", ErrTransient, err)
}

// WrapPermanent marks err as not retryable.
func WrapPermanent(err error) error {
	if err == nil {
		return ErrPermanent
	}
	return fmt.Errorf("%w: %w", ErrPermanent, err)
}

// IsTransient reports whether err was classified as retryable.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

// IsPermanent reports whether err was classified as not retryable.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrPermanent)
}
