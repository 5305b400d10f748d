package bundleparty

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"

	"github.com/bundleparty/bundleparty/internal/linereader"
	"github.com/bundleparty/bundleparty/internal/logfinder"
	"github.com/bundleparty/bundleparty/internal/safefile"
	"github.com/bundleparty/bundleparty/pkg/bundleparty/pattern"
)

const (
	outputDirPerm  os.FileMode = 0o755
	outputFilePerm os.FileMode = 0o644
)

// discardLogger returns a logger that discards all output.
var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// Analyzer runs pattern sets against one support bundle.
// An Analyzer holds no state between runs and is safe for concurrent use,
// although concurrent runs of the same set race on its result file.
type Analyzer struct {
	cfg       analyzerConfig // immutable after creation
	root      string
	outputDir string
	log       *slog.Logger
}

// NewAnalyzer validates options and checks that the root is a readable
// directory. It does not create the output directory.
//
// Returns an error wrapping ErrInvalidRoot when the root is unusable.
func NewAnalyzer(opts ...Option) (*Analyzer, error) {
	cfg := applyOptions(opts)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	root, err := logfinder.Check(cfg.root)
	if err != nil {
		return nil, err
	}

	outputDir := cfg.outputDir
	if !filepath.IsAbs(outputDir) {
		outputDir = filepath.Join(root, outputDir)
	}

	log := cfg.logger
	if log == nil {
		log = discardLogger
	}

	return &Analyzer{
		cfg:       *cfg,
		root:      root,
		outputDir: filepath.Clean(outputDir),
		log:       log,
	}, nil
}

// Root returns the absolute scan root.
func (a *Analyzer) Root() string {
	return a.root
}

// OutputDir returns the absolute directory result files are written to.
func (a *Analyzer) OutputDir() string {
	return a.outputDir
}

// Run scans the bundle for lines matching s and writes them to the set's
// result file, replacing any previous contents. A run with no matches still
// writes an empty file.
//
// Unreadable directories and files do not fail the run; they are listed in
// Result.ScanErrors. Run returns ErrNoTerms, or another set error, before
// touching the file system. If ctx is cancelled between files, Run returns
// the partial result with ctx.Err() and writes nothing. If the result file
// cannot be written, the returned error is an *OutputError and the result
// still holds every record found.
func (a *Analyzer) Run(ctx context.Context, s *pattern.Set) (*Result, error) {
	m, err := pattern.NewMatcher(s)
	if err != nil {
		return nil, err
	}
	file := s.ResultFile()
	if err := pattern.CheckResultFile(file); err != nil {
		return nil, fmt.Errorf("analysis %q: output file %q: %w", s.Name, file, err)
	}

	res := &Result{
		Set:        s,
		OutputPath: filepath.Join(a.outputDir, file),
	}
	a.log.Debug("analysis started", "analysis", s.Name, "root", a.root)

	walk := logfinder.Walk(a.root, logfinder.Options{
		Extensions: a.cfg.extensions,
		SkipPaths:  []string{a.outputDir},
		Exclude:    a.cfg.exclude,
	})
	for lf, err := range walk {
		if err != nil {
			a.log.Warn("skipping unreadable path", "error", err)
			res.ScanErrors = append(res.ScanErrors, err)
			continue
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}
		a.scanFile(lf, m, res)
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	if err := a.write(res); err != nil {
		return res, &OutputError{Analysis: s.Name, Path: res.OutputPath, Err: err}
	}

	a.log.Debug("analysis finished",
		"analysis", s.Name,
		"matches", len(res.Records),
		"files", res.FilesScanned,
		"scan_errors", len(res.ScanErrors),
		"long_lines", res.LongLines,
		"output", res.OutputPath,
	)
	return res, nil
}

// scanFile appends the matching lines of one file to res.
// A file that fails to open is not counted as scanned; a file that fails
// part way keeps the records found before the failure. Lines over the length
// limit are counted in res.LongLines and scanning continues after them.
func (a *Analyzer) scanFile(lf logfinder.LogFile, m pattern.Matcher, res *Result) {
	for line, err := range linereader.File(lf.Path, a.cfg.maxLineBytes) {
		if err != nil {
			a.log.Warn("skipping unreadable file", "path", lf.RelPath, "error", err)
			res.ScanErrors = append(res.ScanErrors, err)
			var se *logfinder.ScanError
			if errors.As(err, &se) && se.Op == logfinder.OpOpen {
				return
			}
			break
		}
		if line.TooLong {
			res.LongLines++
			continue
		}
		if !line.Valid {
			res.InvalidLines++
			continue
		}
		if m.Match(line.Text) {
			res.Records = append(res.Records, MatchRecord{
				Path:       lf.RelPath,
				Line:       line.Text,
				LineNumber: line.Number,
			})
		}
	}
	res.FilesScanned++
}

// write creates or truncates the result file and fills in res.Digest.
func (a *Analyzer) write(res *Result) error {
	if err := os.MkdirAll(a.outputDir, outputDirPerm); err != nil {
		return err
	}

	f, err := safefile.CreateTruncate(res.OutputPath, outputFilePerm)
	if err != nil {
		return err
	}

	h := xxhash.New()
	w := bufio.NewWriter(io.MultiWriter(f, h))
	if _, err := res.WriteTo(w); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	res.Digest = fmt.Sprintf("%016x", h.Sum64())
	return nil
}

// RunAll runs each set in order. A failed analysis is recorded in its
// Outcome and the remaining sets still run. Cancelling ctx stops before the
// next set; sets that did not run are not included.
func (a *Analyzer) RunAll(ctx context.Context, sets []*pattern.Set) []Outcome {
	outcomes := make([]Outcome, 0, len(sets))
	for _, s := range sets {
		if ctx.Err() != nil {
			break
		}
		res, err := a.Run(ctx, s)
		if err != nil {
			a.log.Warn("analysis failed", "analysis", setName(s), "error", err)
		}
		outcomes = append(outcomes, Outcome{Set: s, Result: res, Err: err})
	}
	return outcomes
}

func setName(s *pattern.Set) string {
	if s == nil {
		return ""
	}
	return s.Name
}
