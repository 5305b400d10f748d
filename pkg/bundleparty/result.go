package bundleparty

import (
	"errors"
	"fmt"
	"io"

	"github.com/bundleparty/bundleparty/pkg/bundleparty/pattern"
)

// MatchRecord is one matching line.
type MatchRecord struct {
	// Path is the file path relative to the scan root.
	Path string
	// Line is the matched line without its line terminator.
	Line string
	// LineNumber is the 1-based line number within Path.
	LineNumber int
}

// String formats the record the way it appears in a result file.
func (r MatchRecord) String() string {
	return r.Path + ": " + r.Line
}

// Result is the outcome of a single analysis.
type Result struct {
	Set *pattern.Set

	// Records are in walk order, then line order.
	Records []MatchRecord

	// ScanErrors lists directories and files that could not be read.
	// Their readable parts were still scanned.
	ScanErrors []error

	// FilesScanned counts the files that were opened and read.
	FilesScanned int

	// InvalidLines counts lines skipped because they were not valid UTF-8.
	InvalidLines int

	// LongLines counts lines skipped because they exceeded the line length
	// limit. The rest of each such file was still scanned.
	LongLines int

	// OutputPath is the absolute path of the result file.
	OutputPath string

	// Digest is the xxhash64 of the result file contents, in hex.
	// Empty when the file was not written.
	Digest string
}

// WriteTo writes one "<path>: <line>" line per record to w.
func (r *Result) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, rec := range r.Records {
		n, err := fmt.Fprintln(w, rec.String())
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Outcome pairs a set with what running it produced.
type Outcome struct {
	Set    *pattern.Set
	Result *Result
	Err    error
}

// JoinErrors returns the errors of the failed outcomes joined with
// errors.Join, or nil if every analysis succeeded.
func JoinErrors(outcomes []Outcome) error {
	var errs []error
	for _, o := range outcomes {
		if o.Err != nil {
			errs = append(errs, o.Err)
		}
	}
	return errors.Join(errs...)
}
