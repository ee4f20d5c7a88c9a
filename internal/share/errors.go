package share

import "fmt"

// ValidationError reports a missing or malformed required input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("share: invalid %s: %s", e.Field, e.Reason)
}

// SerializationError reports that a nested structure could not be converted
// to its wire form.
type SerializationError struct {
	Subject string
	Err     error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("share: unable to serialize %s: %v", e.Subject, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

// AssetResolutionError reports that an asset could not be made remotely
// addressable.
type AssetResolutionError struct {
	Asset string
	Err   error
}

func (e *AssetResolutionError) Error() string {
	return fmt.Sprintf("share: resolve asset %s: %v", e.Asset, e.Err)
}

func (e *AssetResolutionError) Unwrap() error { return e.Err }
