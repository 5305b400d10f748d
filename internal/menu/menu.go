// Package menu implements the interactive, line-oriented analysis menu.
//
// The menu is a small state machine that consumes one input line per step.
// It never fails on user input; only a broken reader or a cancelled context
// ends the loop early.
package menu

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/bundleparty/bundleparty/pkg/bundleparty"
	"github.com/bundleparty/bundleparty/pkg/bundleparty/pattern"
)

// State is a menu state.
type State int

const (
	// MainMenu shows the options and waits for a selection.
	MainMenu State = iota
	// RunningAnalysis runs the pending selection and prints its summary.
	RunningAnalysis
	// AwaitingCustomInput waits for comma-separated search terms.
	AwaitingCustomInput
	// Exiting ends the loop.
	Exiting
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case MainMenu:
		return "MainMenu"
	case RunningAnalysis:
		return "RunningAnalysis"
	case AwaitingCustomInput:
		return "AwaitingCustomInput"
	case Exiting:
		return "Exiting"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Title is printed at the top of the main menu.
const Title = "Support Bundle Log Analyzer"

// Runner runs analyses. *bundleparty.Analyzer implements it.
type Runner interface {
	Run(ctx context.Context, s *pattern.Set) (*bundleparty.Result, error)
}

// maxInputBytes bounds one input line. Longer lines are discarded.
const maxInputBytes = 1 << 20

var errInputTooLong = errors.New("input line too long")

// discardLogger returns a logger that discards all output.
var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// Menu drives the interactive loop.
type Menu struct {
	catalog *pattern.Catalog
	runner  Runner
	in      *bufio.Reader
	out     io.Writer
	styles  styles
	log     *slog.Logger
	readErr error // first read failure other than EOF

	state   State
	pending []*pattern.Set // sets to run in RunningAnalysis
	all     bool           // pending came from "run all"
}

// Option configures a Menu.
type Option func(*Menu)

// WithLogger sets a logger for debug output.
// If logger is nil, logging is disabled (default behavior).
func WithLogger(logger *slog.Logger) Option {
	return func(m *Menu) {
		if logger != nil {
			m.log = logger
		}
	}
}

// New returns a menu that reads selections from in and writes to out.
func New(catalog *pattern.Catalog, runner Runner, in io.Reader, out io.Writer, opts ...Option) *Menu {
	m := &Menu{
		catalog: catalog,
		runner:  runner,
		in:      bufio.NewReader(in),
		out:     out,
		styles:  newStyles(out),
		log:     discardLogger,
		state:   MainMenu,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// State returns the current state.
func (m *Menu) State() State {
	return m.state
}

// Run loops until the user quits, input ends, or ctx is cancelled.
// End of input is a normal exit and returns nil.
func (m *Menu) Run(ctx context.Context) error {
	for m.state != Exiting {
		if err := ctx.Err(); err != nil {
			return err
		}

		prev := m.state
		switch m.state {
		case MainMenu:
			m.renderMain()
			line, err := m.prompt("Enter your choice: ")
			switch {
			case errors.Is(err, errInputTooLong):
				m.rejectLongInput()
			case err != nil:
				m.state = Exiting
			default:
				m.state = m.selectMain(line)
			}
		case AwaitingCustomInput:
			line, err := m.prompt("Enter search term(s), comma-separated, or Q to cancel: ")
			switch {
			case errors.Is(err, errInputTooLong):
				m.rejectLongInput()
			case err != nil:
				m.state = Exiting
			default:
				m.state = m.selectCustom(line)
			}
		case RunningAnalysis:
			m.runPending(ctx)
			if err := ctx.Err(); err != nil {
				return err
			}
			fmt.Fprint(m.out, "\nPress Enter to return to the main menu...")
			if _, err := m.readLine(); err != nil && !errors.Is(err, errInputTooLong) {
				m.state = Exiting
				break
			}
			fmt.Fprint(m.out, "\n\n")
			m.state = MainMenu
		}
		m.log.Debug("menu transition", "from", prev, "to", m.state)
	}

	if m.readErr != nil {
		return fmt.Errorf("reading input: %w", m.readErr)
	}
	fmt.Fprintln(m.out, "Exiting analyzer. Goodbye!")
	return nil
}

// selectMain interprets a main menu line and returns the next state.
func (m *Menu) selectMain(line string) State {
	choice := strings.TrimSpace(line)
	switch strings.ToLower(choice) {
	case "":
		fmt.Fprintln(m.out, m.styles.Warning.Render("No selection made. Please try again."))
		fmt.Fprint(m.out, "\n\n")
		return MainMenu
	case "q":
		return Exiting
	case "a":
		m.pending, m.all = m.catalog.Sets(), true
		return RunningAnalysis
	case "c":
		return AwaitingCustomInput
	}

	if s, ok := m.catalog.Lookup(choice); ok {
		m.pending, m.all = []*pattern.Set{s}, false
		return RunningAnalysis
	}
	return m.custom(choice, MainMenu)
}

// selectCustom interprets a line entered at the custom search prompt.
func (m *Menu) selectCustom(line string) State {
	choice := strings.TrimSpace(line)
	if strings.EqualFold(choice, "q") {
		return MainMenu
	}
	return m.custom(choice, AwaitingCustomInput)
}

// custom builds an ad-hoc set from raw. Empty input moves to the custom
// search prompt.
func (m *Menu) custom(raw string, from State) State {
	s, err := pattern.Custom(raw)
	if errors.Is(err, pattern.ErrNoTerms) {
		fmt.Fprintln(m.out, m.styles.Warning.Render("No valid custom search terms were entered."))
		return AwaitingCustomInput
	}
	if err != nil {
		fmt.Fprintln(m.out, m.styles.Danger.Render("Error: "+err.Error()))
		return from
	}
	m.pending, m.all = []*pattern.Set{s}, false
	return RunningAnalysis
}

// runPending runs the pending selection and prints a summary per analysis.
// Each banner is printed before its analysis starts.
func (m *Menu) runPending(ctx context.Context) {
	sets := m.pending
	m.pending = nil

	if m.all {
		fmt.Fprintln(m.out, "\n"+m.styles.Title.Render(fmt.Sprintf(">>> Running ALL pre-canned analyses (%d)...", len(sets))))
	}
	for _, s := range sets {
		if ctx.Err() != nil {
			return
		}
		m.banner(s)
		res, err := m.runner.Run(ctx, s)
		if err != nil {
			m.log.Debug("analysis failed", "analysis", s.Name, "error", err)
		}
		m.summary(res, err)
	}
	if m.all {
		fmt.Fprintln(m.out, "\n"+m.styles.Title.Render(">>> All analyses complete."))
	}
}

// banner announces an analysis and what it searches for.
func (m *Menu) banner(s *pattern.Set) {
	st := m.styles

	if s.Name == pattern.CustomName {
		fmt.Fprintln(m.out, "\n"+st.Heading.Render("--- Running Custom Search ---"))
	} else {
		fmt.Fprintln(m.out, "\n"+st.Heading.Render("--- Running: "+s.Name+" ---"))
	}
	kind := "keywords"
	if s.Regex {
		kind = "regex patterns"
	}
	fmt.Fprintf(m.out, "Searching for %s: %s\n", kind, strings.Join(s.Terms, ", "))
	if len(s.Ignore) > 0 {
		fmt.Fprintf(m.out, "Ignoring lines containing: %s\n", strings.Join(s.Ignore, ", "))
	}
}

// summary prints the outcome of one analysis.
func (m *Menu) summary(res *bundleparty.Result, err error) {
	st := m.styles

	if res != nil {
		for _, se := range res.ScanErrors {
			fmt.Fprintln(m.out, st.Warning.Render("Warning: "+se.Error()))
		}
	}

	fmt.Fprintln(m.out, st.Muted.Render("--------------------"))
	switch {
	case err != nil && res == nil:
		fmt.Fprintln(m.out, st.Danger.Render("Analysis failed: "+err.Error()))
	case err != nil:
		fmt.Fprintln(m.out, st.Danger.Render("Error: "+err.Error()))
		fmt.Fprintf(m.out, "Found %d matching log entries in %d files, but they were not saved.\n",
			len(res.Records), res.FilesScanned)
	default:
		fmt.Fprintln(m.out, st.Success.Render("Analysis Complete."))
		if len(res.Records) > 0 {
			fmt.Fprintf(m.out, "Found %d matching log entries in %d files.\n", len(res.Records), res.FilesScanned)
			fmt.Fprintf(m.out, "Results have been saved to: %s\n", res.OutputPath)
		} else {
			fmt.Fprintf(m.out, "No matching log entries were found in %d files.\n", res.FilesScanned)
		}
		if res.InvalidLines > 0 {
			fmt.Fprintf(m.out, "Skipped %d lines that were not valid UTF-8.\n", res.InvalidLines)
		}
		if res.LongLines > 0 {
			fmt.Fprintf(m.out, "Skipped %d lines longer than the line length limit.\n", res.LongLines)
		}
		fmt.Fprintln(m.out, st.Muted.Render("Digest: xxh64:"+res.Digest))
	}
	fmt.Fprintln(m.out, st.Muted.Render("--------------------"))
}

// rejectLongInput reports a discarded input line. The state is unchanged.
func (m *Menu) rejectLongInput() {
	fmt.Fprintln(m.out, m.styles.Danger.Render(fmt.Sprintf("Input too long; lines are limited to %d bytes.", maxInputBytes)))
}

// renderMain prints the main menu.
func (m *Menu) renderMain() {
	st := m.styles
	fmt.Fprintln(m.out, st.Title.Render("--- "+Title+" ---"))
	fmt.Fprintln(m.out, "\nPlease choose an option:")
	fmt.Fprintln(m.out, st.key("A")+" Run All Pre-canned Analyses")
	fmt.Fprintln(m.out, st.key("C")+" Custom Search")
	fmt.Fprintln(m.out, st.key("Q")+" Quit / Exit")

	fmt.Fprintln(m.out, "\n"+st.Heading.Render("--- Or, choose a specific analysis ---"))
	for _, s := range m.catalog.Sets() {
		fmt.Fprintln(m.out, st.key(s.Key)+" "+s.Name)
	}

	fmt.Fprintln(m.out, "\n"+st.Heading.Render("--- Or, enter your own custom search term(s) (comma-separated) ---"))
}

// prompt writes p and reads one line.
func (m *Menu) prompt(p string) (string, error) {
	fmt.Fprint(m.out, p)
	return m.readLine()
}

// readLine reads one line without its "\n" or "\r\n". A final line without
// a newline is still returned. Lines over maxInputBytes are consumed and
// reported as errInputTooLong. Other read errors are kept in m.readErr.
func (m *Menu) readLine() (string, error) {
	var buf []byte
	tooLong := false
	for {
		chunk, err := m.in.ReadSlice('\n')
		if !tooLong {
			buf = append(buf, chunk...)
			if len(buf) > maxInputBytes+2 {
				tooLong, buf = true, nil
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				m.readErr = err
				return "", err
			}
			if len(buf) == 0 && !tooLong {
				return "", io.EOF
			}
		}
		break
	}

	line := strings.TrimSuffix(strings.TrimSuffix(string(buf), "\n"), "\r")
	if tooLong || len(line) > maxInputBytes {
		return "", errInputTooLong
	}
	return line, nil
}
