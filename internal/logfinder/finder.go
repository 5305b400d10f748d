// Package logfinder provides support-bundle root validation and log file discovery.
package logfinder

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultOutputDirName is the directory results are written to. It is never scanned.
const DefaultOutputDirName = "analysis_results"

// DefaultExtensions lists the file extensions scanned when none are configured.
var DefaultExtensions = []string{".log", ".json"}

// ErrInvalidRoot is returned when the scan root is missing, is not a directory,
// or cannot be listed. Nothing can be scanned in that case.
var ErrInvalidRoot = errors.New("invalid scan root")

// LogFile is a candidate log file found under the scan root.
type LogFile struct {
	// Path is the file path joined onto the root passed to Walk.
	Path string
	// RelPath is the path relative to the scan root. Results are keyed by it.
	RelPath string
	// Ext is the lower-cased file extension, including the dot.
	Ext string
}

// Options controls which files Walk yields.
type Options struct {
	// Extensions are accepted extensions (with dot, case-insensitive).
	// Empty means DefaultExtensions.
	Extensions []string

	// SkipDirs are directory names that are never entered, at any depth.
	// Nil means DefaultOutputDirName only.
	SkipDirs []string

	// SkipPaths are directory paths that are never entered.
	SkipPaths []string

	// Exclude are doublestar patterns matched against slash-separated paths
	// relative to the root, e.g. "**/archive/**" or "debug/*.json".
	Exclude []string
}

// Check resolves root to an absolute path and verifies it is a readable directory.
// Errors wrap ErrInvalidRoot.
func Check(root string) (string, error) {
	if strings.TrimSpace(root) == "" {
		root = "."
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidRoot, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidRoot, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", ErrInvalidRoot, abs)
	}

	dir, err := os.Open(abs)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidRoot, err)
	}
	defer dir.Close()
	if _, err := dir.Readdirnames(1); err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("%w: %w", ErrInvalidRoot, err)
	}

	return abs, nil
}

// ValidateExclude reports the first malformed exclude pattern.
func ValidateExclude(patterns []string) error {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid exclude pattern %q", p)
		}
	}
	return nil
}

// Walk returns a lazy sequence of log files under root. Entries of each
// directory are visited in lexical order and a subdirectory is finished
// before its later siblings, so "a/b.log" comes before "a-c.log".
//
// Directories named in SkipDirs or listed in SkipPaths are not entered.
// Symlinks and special files are never yielded. A directory that cannot be
// read yields a *ScanError and the walk continues with its siblings.
// Stopping the range loop early stops the walk.
func Walk(root string, opts Options) iter.Seq2[LogFile, error] {
	exts := opts.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	accept := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		accept[NormalizeExt(e)] = struct{}{}
	}

	skipDirs := opts.SkipDirs
	if skipDirs == nil {
		skipDirs = []string{DefaultOutputDirName}
	}
	skipNames := make(map[string]struct{}, len(skipDirs))
	for _, name := range skipDirs {
		skipNames[name] = struct{}{}
	}
	skipPaths := make(map[string]struct{}, len(opts.SkipPaths))
	for _, p := range opts.SkipPaths {
		skipPaths[filepath.Clean(p)] = struct{}{}
	}

	return func(yield func(LogFile, error) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				op := OpReadDir
				if d != nil && !d.IsDir() {
					op = OpStat
				}
				if !yield(LogFile{}, &ScanError{Op: op, Path: path, Err: err}) {
					return filepath.SkipAll
				}
				if path == root {
					return filepath.SkipAll
				}
				return nil
			}

			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				rel = path
			}

			if d.IsDir() {
				if path == root {
					return nil
				}
				if _, ok := skipNames[d.Name()]; ok {
					return filepath.SkipDir
				}
				if _, ok := skipPaths[filepath.Clean(path)]; ok {
					return filepath.SkipDir
				}
				if excluded(opts.Exclude, rel) {
					return filepath.SkipDir
				}
				return nil
			}

			if !d.Type().IsRegular() {
				return nil
			}

			ext := NormalizeExt(filepath.Ext(d.Name()))
			if _, ok := accept[ext]; !ok {
				return nil
			}
			if excluded(opts.Exclude, rel) {
				return nil
			}

			if !yield(LogFile{Path: path, RelPath: rel, Ext: ext}, nil) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

// NormalizeExt lower-cases an extension and adds the leading dot if missing.
func NormalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

func excluded(patterns []string, rel string) bool {
	if len(patterns) == 0 {
		return false
	}
	slashed := filepath.ToSlash(rel)
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, slashed); ok {
			return true
		}
	}
	return false
}
