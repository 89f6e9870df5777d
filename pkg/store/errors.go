package store

import (
	"errors"
	"fmt"

	"github.com/getmockd/lazystore/pkg/cache"
)

// ErrInvalidReset is returned by ResetData for a nil root slice, a nil target
// or a malformed root.
var ErrInvalidReset = errors.New("invalid reset")

// ErrNoServerID is wrapped in a RemoteError when the backend creates an entity
// without assigning it an id.
var ErrNoServerID = errors.New("backend returned an entity without id")

// ErrInvalidID is returned by Fetch for an id containing a comma, which the
// batch route uses as its separator.
var ErrInvalidID = errors.New("invalid id")

// MissingEntityError is returned when an operation needs a cached entity that
// is not present.
type MissingEntityError = cache.MissingEntityError

// RemoteError wraps a failed backend round trip. It is only ever delivered
// through callbacks.
type RemoteError struct {
	Op   string
	Type string
	ID   string
	Err  error
}

func (e *RemoteError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %s %q: %v", e.Op, e.Type, e.ID, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Type, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}
