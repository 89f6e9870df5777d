package cache

import (
	"errors"
	"fmt"
)

// ErrMissingID is returned when an entity without an id is added.
var ErrMissingID = errors.New("entity has no id")

// MissingEntityError is returned when an operation requires an entity that
// is not cached.
type MissingEntityError struct {
	Type string
	ID   string
}

func (e *MissingEntityError) Error() string {
	return fmt.Sprintf("entity %q of type %q is not cached", e.ID, e.Type)
}

// Hint returns a user-friendly suggestion for resolving this error.
func (e *MissingEntityError) Hint() string {
	return fmt.Sprintf("Fetch %q of type %q before modifying it.", e.ID, e.Type)
}
