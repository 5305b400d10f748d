package bundleparty

import (
	"fmt"

	"github.com/bundleparty/bundleparty/internal/logfinder"
	"github.com/bundleparty/bundleparty/pkg/bundleparty/pattern"
)

// Sentinel errors.
var (
	// ErrInvalidRoot is returned by NewAnalyzer when the root is missing,
	// is not a directory, or cannot be listed.
	ErrInvalidRoot = logfinder.ErrInvalidRoot

	// ErrNoTerms is returned by Run for a set without search terms.
	ErrNoTerms = pattern.ErrNoTerms
)

// ScanError is a recoverable error for one directory or file. Its Op is one
// of "readdir", "stat", "open" or "read".
type ScanError = logfinder.ScanError

// OutputError is returned when a result file cannot be written.
type OutputError struct {
	Analysis string
	Path     string
	Err      error
}

func (e *OutputError) Error() string {
	return fmt.Sprintf("writing results for %s to %s: %v", e.Analysis, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *OutputError) Unwrap() error {
	return e.Err
}
