package pattern

import (
	"errors"
	"fmt"
)

// ErrNoTerms is returned when a set has no usable search terms. An analysis
// is never run for such a set.
var ErrNoTerms = errors.New("no search terms")

// ValidationError represents a catalog-level validation error
// (e.g., unsupported version, no analyses).
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// SetError represents an error in an individual catalog entry
// (e.g., missing name, duplicate key, invalid regular expression).
type SetError struct {
	Index   int    // 0-based index of the entry in the catalog
	Key     string // Entry key (may be empty if the key field is missing)
	Field   string
	Message string
	Cause   error // Underlying error (e.g., regex compile error)
}

func (e *SetError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("analysis %q: %s: %s", e.Key, e.Field, e.Message)
	}
	return fmt.Sprintf("analysis[%d]: %s: %s", e.Index, e.Field, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *SetError) Unwrap() error {
	return e.Cause
}
