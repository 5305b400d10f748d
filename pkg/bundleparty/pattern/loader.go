package pattern

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// sanitizePathError removes the path from os.PathError so error messages
// do not repeat file system paths back to the user.
func sanitizePathError(err error) error {
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return fmt.Errorf("%s: %w", pathErr.Op, pathErr.Err)
	}
	return err
}

const (
	// MaxCatalogFileSize is the maximum allowed size for a catalog file (1MB).
	MaxCatalogFileSize = 1 * 1024 * 1024

	// MaxTermLength is the maximum allowed length of a single term (512 bytes).
	// For regex entries this also bounds pattern complexity.
	MaxTermLength = 512

	// MaxAnalyses is the maximum number of analyses in one catalog.
	MaxAnalyses = 100

	// SupportedVersion is the currently supported catalog file format version.
	SupportedVersion = 1
)

// reservedKeys are menu actions and cannot be used as catalog keys.
var reservedKeys = map[string]string{
	"a": "run all",
	"q": "quit",
	"c": "custom search",
}

//go:embed default_catalog.yaml
var defaultCatalog []byte

// Default returns a fresh copy of the built-in catalog.
// The built-in catalog targets Terraform Enterprise support bundles; use
// Load to replace it with your own.
func Default() *Catalog {
	c, err := LoadBytes(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("pattern: embedded default catalog is invalid: %v", err))
	}
	return c
}

// Load reads and parses a catalog file from the given path.
// Files ending in ".toml" are parsed as TOML, everything else as YAML.
//
// Non-regular files (FIFO, device, socket) are rejected and the read is
// bounded by MaxCatalogFileSize.
func Load(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog file: %w", sanitizePathError(err))
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat catalog file: %w", sanitizePathError(err))
	}
	if !info.Mode().IsRegular() {
		return nil, errors.New("catalog file must be a regular file (not FIFO, device, or special file)")
	}
	if info.Size() == 0 {
		return nil, errors.New("catalog file is empty")
	}
	if info.Size() > MaxCatalogFileSize {
		return nil, fmt.Errorf("catalog file too large: %d bytes (max %d)", info.Size(), MaxCatalogFileSize)
	}

	// Read one byte past the limit to detect a file that grew after Stat.
	data, err := io.ReadAll(io.LimitReader(f, MaxCatalogFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", sanitizePathError(err))
	}

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return LoadTOML(data)
	}
	return LoadBytes(data)
}

// LoadBytes parses a YAML catalog from a byte slice and validates it.
func LoadBytes(data []byte) (*Catalog, error) {
	if err := checkSize(data); err != nil {
		return nil, err
	}

	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadTOML parses a TOML catalog from a byte slice and validates it.
// Field names are the same as in the YAML format; analyses are written as
// [[analyses]] tables.
func LoadTOML(data []byte) (*Catalog, error) {
	if err := checkSize(data); err != nil {
		return nil, err
	}

	var c Catalog
	if err := toml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func checkSize(data []byte) error {
	if len(data) == 0 {
		return errors.New("catalog file is empty")
	}
	if len(data) > MaxCatalogFileSize {
		return fmt.Errorf("catalog file too large: %d bytes (max %d)", len(data), MaxCatalogFileSize)
	}
	return nil
}

// Validate performs schema-level validation on the catalog.
// It checks for:
//   - Supported version number
//   - Between one and MaxAnalyses entries
//   - Required fields (key, name, at least one term)
//   - Keys that are unique and do not collide with menu actions
//   - Result file names that are plain ".txt" names and unique
//   - Term length limits
//
// Regular expressions are compiled by NewMatcher, not here.
func (c *Catalog) Validate() error {
	if c.Version != SupportedVersion {
		return &ValidationError{
			Field:   "version",
			Message: fmt.Sprintf("unsupported version %d (only version %d is supported)", c.Version, SupportedVersion),
		}
	}
	if len(c.Analyses) == 0 {
		return &ValidationError{
			Field:   "analyses",
			Message: "at least one analysis is required",
		}
	}
	if len(c.Analyses) > MaxAnalyses {
		return &ValidationError{
			Field:   "analyses",
			Message: fmt.Sprintf("too many analyses (%d), maximum allowed is %d", len(c.Analyses), MaxAnalyses),
		}
	}

	seenKeys := make(map[string]int, len(c.Analyses))
	seenFiles := make(map[string]int, len(c.Analyses))

	for i := range c.Analyses {
		s := &c.Analyses[i]

		key := strings.TrimSpace(s.Key)
		if key == "" {
			return &SetError{Index: i, Field: "key", Message: "key is required"}
		}
		if key != s.Key || strings.ContainsAny(key, ", \t") {
			return &SetError{Index: i, Key: s.Key, Field: "key", Message: "key must not contain spaces or commas"}
		}
		folded := strings.ToLower(key)
		if action, ok := reservedKeys[folded]; ok {
			return &SetError{Index: i, Key: s.Key, Field: "key", Message: fmt.Sprintf("key is reserved for %s", action)}
		}
		if prev, dup := seenKeys[folded]; dup {
			return &SetError{
				Index:   i,
				Key:     s.Key,
				Field:   "key",
				Message: fmt.Sprintf("duplicate key (previously defined at analysis[%d])", prev),
			}
		}
		seenKeys[folded] = i

		if strings.TrimSpace(s.Name) == "" {
			return &SetError{Index: i, Key: s.Key, Field: "name", Message: "name is required"}
		}

		if len(s.Terms) == 0 {
			return &SetError{Index: i, Key: s.Key, Field: "terms", Message: "at least one term is required", Cause: ErrNoTerms}
		}
		if err := checkTerms(i, s, "terms", s.Terms); err != nil {
			return err
		}
		if err := checkTerms(i, s, "ignore", s.Ignore); err != nil {
			return err
		}

		file := s.ResultFile()
		if err := CheckResultFile(file); err != nil {
			return &SetError{Index: i, Key: s.Key, Field: "output_file", Message: err.Error()}
		}
		if prev, dup := seenFiles[strings.ToLower(file)]; dup {
			return &SetError{
				Index:   i,
				Key:     s.Key,
				Field:   "output_file",
				Message: fmt.Sprintf("duplicate output file %q (also used by analysis[%d])", file, prev),
			}
		}
		seenFiles[strings.ToLower(file)] = i
	}

	return nil
}

func checkTerms(i int, s *Set, field string, terms []string) error {
	for j, term := range terms {
		if strings.TrimSpace(term) == "" {
			return &SetError{Index: i, Key: s.Key, Field: field, Message: fmt.Sprintf("%s[%d] is blank", field, j)}
		}
		if len(term) > MaxTermLength {
			return &SetError{
				Index:   i,
				Key:     s.Key,
				Field:   field,
				Message: fmt.Sprintf("term too long: %d bytes (max %d)", len(term), MaxTermLength),
			}
		}
	}
	return nil
}

// CheckResultFile reports why name cannot be used as a result file name.
// Result files must be plain ".txt" names that stay inside the output directory.
func CheckResultFile(name string) error {
	switch {
	case name == "":
		return errors.New("file name is empty")
	case strings.ContainsAny(name, `/\`):
		return errors.New("must be a file name, not a path")
	case name == "." || name == ".." || strings.HasPrefix(name, "."):
		return errors.New("must not start with a dot")
	case !strings.HasSuffix(strings.ToLower(name), ".txt"):
		return errors.New(`must end in ".txt"`)
	case len(name) > 255:
		return errors.New("file name too long")
	}
	return nil
}
