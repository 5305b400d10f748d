// Package safefile provides file operations that refuse to follow symlinks
// or touch special files.
package safefile

import (
	"errors"
	"os"
)

// ErrNotRegularFile is returned when a path names something other than a regular file.
// This includes symlinks, FIFOs, devices, sockets, and directories.
var ErrNotRegularFile = errors.New("not a regular file")

// OpenRegular opens a log file for reading and verifies it is a regular file.
//
// The path is checked with os.Lstat before opening and the open descriptor is
// checked again with Stat, so a file swapped for a FIFO or symlink between the
// two steps is still rejected. Reading a FIFO would block the scan forever.
//
// The caller must close the returned file when done.
func OpenRegular(path string) (*os.File, os.FileInfo, error) {
	linkInfo, err := os.Lstat(path)
	if err != nil {
		return nil, nil, err
	}
	if !linkInfo.Mode().IsRegular() {
		return nil, nil, ErrNotRegularFile
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return nil, nil, ErrNotRegularFile
	}

	return f, info, nil
}

// CreateTruncate opens path for writing, creating it if needed and truncating
// any previous content. An existing path that is not a regular file (a
// symlink planted in the results directory, a directory with the result's
// name) is rejected instead of being written through.
//
// The caller must close the returned file when done.
func CreateTruncate(path string, perm os.FileMode) (*os.File, error) {
	info, err := os.Lstat(path)
	switch {
	case err == nil:
		if !info.Mode().IsRegular() {
			return nil, ErrNotRegularFile
		}
	case !errors.Is(err, os.ErrNotExist):
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return nil, err
	}

	info, err = f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return nil, ErrNotRegularFile
	}
	return f, nil
}
