// Package linereader streams lines from log files without loading them whole.
package linereader

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"iter"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/bundleparty/bundleparty/internal/logfinder"
	"github.com/bundleparty/bundleparty/internal/safefile"
)

// DefaultMaxLineBytes is the longest line accepted when no limit is given (1 MB).
const DefaultMaxLineBytes = 1024 * 1024

const initialBufferSize = 64 * 1024

// Line is one line of a log file.
type Line struct {
	// Number is the 1-based line number.
	Number int
	// Text is the line without its trailing "\n" or "\r\n". Empty when TooLong.
	Text string
	// Valid is false when Text is not well-formed UTF-8 or the line was too long.
	Valid bool
	// TooLong is set when the line exceeded the length limit. Its bytes are
	// discarded and reading continues with the next line.
	TooLong bool
}

// File returns a lazy sequence over the lines of the file at path.
//
// The file is opened when iteration starts and closed when it ends, so the
// sequence can be ranged over more than once. Open and read failures are
// yielded once as *logfinder.ScanError and end the sequence.
func File(path string, maxLineBytes int) iter.Seq2[Line, error] {
	return func(yield func(Line, error) bool) {
		f, _, err := safefile.OpenRegular(path)
		if err != nil {
			yield(Line{}, &logfinder.ScanError{Op: logfinder.OpOpen, Path: path, Err: err})
			return
		}
		defer f.Close()

		for line, err := range Read(f, maxLineBytes) {
			if err != nil {
				yield(Line{}, &logfinder.ScanError{Op: logfinder.OpRead, Path: path, Err: err})
				return
			}
			if !yield(line, nil) {
				return
			}
		}
	}
}

// Read returns a lazy sequence over the lines of r.
//
// A leading byte order mark selects the decoding: UTF-16 input is converted to
// UTF-8 and a UTF-8 BOM is dropped. Input without a BOM is passed through
// unchanged. A line longer than maxLineBytes (DefaultMaxLineBytes when <= 0)
// is yielded with TooLong set and no text; at most maxLineBytes of it are
// held in memory. Only read failures end the sequence early.
func Read(r io.Reader, maxLineBytes int) iter.Seq2[Line, error] {
	if maxLineBytes <= 0 {
		maxLineBytes = DefaultMaxLineBytes
	}
	return func(yield func(Line, error) bool) {
		decoded := transform.NewReader(r, unicode.BOMOverride(transform.Nop))
		br := bufio.NewReaderSize(decoded, min(initialBufferSize, maxLineBytes))

		var buf []byte
		tooLong := false
		n := 0
		for {
			chunk, err := br.ReadSlice('\n')
			if !tooLong {
				buf = append(buf, chunk...)
				// Two extra bytes leave room for a "\r\n" terminator.
				if len(buf) > maxLineBytes+2 {
					tooLong, buf = true, buf[:0]
				}
			}
			if errors.Is(err, bufio.ErrBufferFull) {
				continue
			}
			if err != nil && !errors.Is(err, io.EOF) {
				yield(Line{}, err)
				return
			}
			if err != nil && len(buf) == 0 && !tooLong {
				return
			}

			n++
			text := trimEOL(buf)
			var line Line
			if tooLong || len(text) > maxLineBytes {
				line = Line{Number: n, TooLong: true}
			} else {
				s := string(text)
				line = Line{Number: n, Text: s, Valid: utf8.ValidString(s)}
			}
			if !yield(line, nil) || err != nil {
				return
			}
			buf, tooLong = buf[:0], false
		}
	}
}

// trimEOL drops a trailing "\n" and then a trailing "\r".
func trimEOL(b []byte) []byte {
	b = bytes.TrimSuffix(b, []byte("\n"))
	return bytes.TrimSuffix(b, []byte("\r"))
}
