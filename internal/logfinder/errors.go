package logfinder

import "fmt"

// ScanOp names the step of a scan that failed.
type ScanOp string

// Scan operations.
const (
	OpReadDir ScanOp = "readdir"
	OpStat    ScanOp = "stat"
	OpOpen    ScanOp = "open"
	OpRead    ScanOp = "read"
)

// ScanError is a recoverable error for one directory or file. The entry is
// skipped and scanning continues.
type ScanError struct {
	Op   ScanOp
	Path string
	Err  error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying cause of the error.
func (e *ScanError) Unwrap() error {
	return e.Err
}
