package bundleparty

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bundleparty/bundleparty/internal/linereader"
	"github.com/bundleparty/bundleparty/internal/logfinder"
)

// Option configures an Analyzer using the functional options pattern.
type Option func(*analyzerConfig)

// analyzerConfig holds internal configuration for the analyzer.
type analyzerConfig struct {
	root         string
	outputDir    string
	extensions   []string
	exclude      []string
	maxLineBytes int
	logger       *slog.Logger
}

// defaultAnalyzerConfig returns an analyzerConfig with sensible defaults.
func defaultAnalyzerConfig() *analyzerConfig {
	return &analyzerConfig{
		root:         ".",
		outputDir:    logfinder.DefaultOutputDirName,
		extensions:   logfinder.DefaultExtensions,
		maxLineBytes: linereader.DefaultMaxLineBytes,
	}
}

// applyOptions applies functional options to an analyzerConfig.
func applyOptions(opts []Option) *analyzerConfig {
	cfg := defaultAnalyzerConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	return cfg
}

// validate checks for invalid option values.
func (c *analyzerConfig) validate() error {
	if strings.TrimSpace(c.outputDir) == "" {
		return errors.New("output directory must not be empty")
	}
	if len(c.extensions) == 0 {
		return errors.New("at least one file extension is required")
	}
	for _, ext := range c.extensions {
		if logfinder.NormalizeExt(ext) == "" {
			return errors.New("file extensions must not be blank")
		}
	}
	if err := logfinder.ValidateExclude(c.exclude); err != nil {
		return err
	}
	if c.maxLineBytes < 0 {
		return fmt.Errorf("max line bytes must be non-negative, got %d", c.maxLineBytes)
	}
	return nil
}

// WithRoot sets the support bundle root directory.
// Default: the current working directory.
func WithRoot(dir string) Option {
	return func(c *analyzerConfig) {
		c.root = dir
	}
}

// WithOutputDir sets where result files are written. Relative paths are
// resolved against the root. The directory is never scanned.
// Default: "analysis_results".
func WithOutputDir(dir string) Option {
	return func(c *analyzerConfig) {
		c.outputDir = dir
	}
}

// WithExtensions sets the file extensions to scan (e.g. ".log", "json").
// Default: .log and .json.
func WithExtensions(exts ...string) Option {
	return func(c *analyzerConfig) {
		c.extensions = exts
	}
}

// WithExclude skips files and directories whose root-relative path matches
// any of the doublestar patterns (e.g. "**/archive/**").
func WithExclude(patterns ...string) Option {
	return func(c *analyzerConfig) {
		c.exclude = patterns
	}
}

// WithMaxLineBytes sets the longest line matched in a log file. Longer lines
// are skipped, counted in Result.LongLines, and the rest of the file is still
// scanned. 0 uses the default (1MB).
func WithMaxLineBytes(n int) Option {
	return func(c *analyzerConfig) {
		c.maxLineBytes = n
	}
}

// WithLogger sets a logger for debug output.
// If logger is nil, logging is disabled (default behavior).
func WithLogger(logger *slog.Logger) Option {
	return func(c *analyzerConfig) {
		c.logger = logger
	}
}
