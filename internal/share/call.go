package share

import "github.com/google/uuid"

// Call is one share attempt: the content to map plus the call id that scopes
// any uploads made while resolving its assets.
type Call struct {
	ID              uuid.UUID
	Content         Content
	FailOnDataError bool
}
