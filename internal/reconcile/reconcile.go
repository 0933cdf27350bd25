package reconcile

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/muesli/termenv"
	"github.com/pmezard/go-difflib/difflib"
)

// Mode selects how differences are resolved.
type Mode string

const (
	// ModeAbort fails on any difference.
	ModeAbort Mode = "abort"

	// ModeConsole asks the user to accept or reject differences.
	ModeConsole Mode = "console"

	// ModeAccept saves differences and passes. Never a default.
	ModeAccept Mode = "accept"
)

// ValidModes lists the recognized reconcile modes.
var ValidModes = []Mode{ModeAbort, ModeConsole, ModeAccept}

// ParseMode converts a configuration string into a Mode.
func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	if !slices.Contains(ValidModes, m) {
		return "", fmt.Errorf("unrecognized reconcile mode %q: must be one of %v", s, ValidModes)
	}
	return m, nil
}

// Status is the terminal state of a reconciliation.
type Status string

const (
	StatusMatched  Status = "matched"
	StatusAccepted Status = "accepted"
	StatusUnsaved  Status = "unsaved"
	StatusRejected Status = "rejected"
)

// Request describes one test's reconciliation.
type Request struct {
	// TestID identifies the test; it is the key inside the reference file.
	TestID string

	// Path is the reference file location (see FilePath).
	Path string

	// Observations is the trace, each entry canonical JSON text.
	Observations []string

	// NoSave, when non-empty, explains why saving is disallowed (typically
	// the test already failed). Differences are shown for diagnostics only.
	NoSave string
}

// Outcome reports how a reconciliation resolved.
type Outcome struct {
	TestID  string `json:"test_id"`
	Path    string `json:"path"`
	Mode    Mode   `json:"mode"`
	Status  Status `json:"status"`
	Missing bool   `json:"missing,omitempty"`
	Saved   bool   `json:"saved,omitempty"`
	Diff    string `json:"diff,omitempty"`
}

// Reconciler compares traces against reference files.
// A Reconciler is used from the single-threaded teardown of a test.
type Reconciler struct {
	mode     Mode
	prompter Prompter
	out      io.Writer
	logger   *slog.Logger
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithPrompter sets the prompter used in console mode.
// Default: a ConsolePrompter over stdin and the output writer.
func WithPrompter(p Prompter) Option {
	return func(r *Reconciler) {
		r.prompter = p
	}
}

// WithOutput sets where diffs and decisions are printed. Default: stdout.
func WithOutput(w io.Writer) Option {
	return func(r *Reconciler) {
		r.out = w
	}
}

// WithLogger sets the logger. Default: discard.
func WithLogger(l *slog.Logger) Option {
	return func(r *Reconciler) {
		r.logger = l
	}
}

// New creates a Reconciler for the given mode.
func New(mode Mode, opts ...Option) *Reconciler {
	r := &Reconciler{
		mode:   mode,
		out:    os.Stdout,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.prompter == nil {
		r.prompter = NewConsolePrompter(os.Stdin, r.out)
	}
	return r
}

// Mode returns the configured mode.
func (r *Reconciler) Mode() Mode {
	return r.mode
}

// Reconcile compares req's trace with its reference file and resolves any
// difference according to the mode.
//
// Returns a *MismatchError when differences are rejected. The outcome is
// returned in every case except I/O failures.
func (r *Reconciler) Reconcile(req Request) (*Outcome, error) {
	out := &Outcome{TestID: req.TestID, Path: req.Path, Mode: r.mode}

	ref, err := loadReference(req.Path, req.TestID)
	if err != nil {
		return nil, err
	}
	out.Missing = ref.missing
	if ref.missing {
		r.printf("WARNING: No reference observation file found for %s: %s\n", req.TestID, req.Path)
		r.logger.Warn("reference observation file not found", "test", req.TestID, "path", req.Path)
	}
	if ref.malformed != nil {
		r.logger.Warn("reference observation file unreadable, comparing raw text",
			"test", req.TestID,
			"path", req.Path,
			"err", ref.malformed,
		)
	}

	current := Render(req.TestID, req.Observations)
	if !ref.missing && ref.text == current {
		out.Status = StatusMatched
		r.logger.Debug("observations match reference", "test", req.TestID, "count", len(req.Observations))
		return out, nil
	}

	out.Diff = unifiedDiff(ref.text, current)

	accepted, toolErr := r.resolve(req, current, out.Diff)
	if toolErr != nil || !accepted {
		out.Status = StatusRejected
		return out, &MismatchError{
			TestID:  req.TestID,
			Mode:    r.mode,
			Path:    req.Path,
			Diff:    out.Diff,
			Missing: ref.missing,
			Cause:   toolErr,
		}
	}

	if req.NoSave != "" {
		r.printf("Not saving reference observation file for %s: %s\n", req.TestID, req.NoSave)
		out.Status = StatusUnsaved
		return out, nil
	}

	r.printf("Saving updated reference observation file for %s\n", req.TestID)
	if err := writeReference(req.Path, current); err != nil {
		return nil, err
	}
	out.Status = StatusAccepted
	out.Saved = true
	r.logger.Warn("reference observation file rewritten",
		"test", req.TestID,
		"path", req.Path,
		"mode", r.mode,
		"created", ref.missing,
	)
	return out, nil
}

// resolve applies the mode to a detected difference.
// Returns true when the differences are accepted.
func (r *Reconciler) resolve(req Request, current, diff string) (bool, error) {
	switch r.mode {
	case ModeAbort:
		if req.NoSave == "" {
			r.printf("%s\n%s", r.bold(fmt.Sprintf("Differences in observations for %s:", req.TestID)), diff)
		}
		r.printf("%s\n", r.bold(fmt.Sprintf("Aborting (reconcile=abort) due to differences for %s", req.TestID)))
		return false, nil

	case ModeAccept:
		if req.NoSave != "" {
			r.printf("%s\n%s", r.bold(fmt.Sprintf("Test %s exited with failures; observations before failure:", req.TestID)), diff)
			return true, nil
		}
		r.printf("%s\n%s", r.bold(fmt.Sprintf("Differences for %s:", req.TestID)), diff)
		r.printf("%s\n", r.bold(fmt.Sprintf("Accepting (reconcile=accept) differences for %s", req.TestID)))
		return true, nil

	case ModeConsole:
		return r.review(req, current, diff)

	default:
		return false, fmt.Errorf("unrecognized reconcile mode %q", r.mode)
	}
}

// review runs the interactive console loop.
func (r *Reconciler) review(req Request, current, diff string) (bool, error) {
	const errorPrompt = "Saving not available due to errors in the test"
	savePrompt := fmt.Sprintf("Save new set of observations with these differences for %s?", req.TestID)

	view := "diff"
	if req.NoSave != "" {
		view = "observations"
	}

	for {
		var q Question
		switch view {
		case "observations":
			q = Question{Before: fmt.Sprintf("Observations are shown for %s:", req.TestID), Content: current}
			if req.NoSave != "" {
				q.After, q.Options, q.Shortcuts = errorPrompt, []string{"diff", "errors", "continue"}, []string{"d", "e", "c"}
			} else {
				q.After, q.Options, q.Shortcuts = savePrompt, []string{"diff", "yes", "no"}, []string{"d", "y", "n"}
			}
		case "diff":
			q = Question{Before: fmt.Sprintf("Differences in observations are shown for %s:", req.TestID), Content: diff}
			if req.NoSave != "" {
				q.After, q.Options, q.Shortcuts = errorPrompt, []string{"observations", "errors", "continue"}, []string{"o", "e", "c"}
			} else {
				q.After, q.Options, q.Shortcuts = savePrompt, []string{"observations", "yes", "no"}, []string{"o", "y", "n"}
			}
		case "errors":
			q = Question{
				Before:    fmt.Sprintf("Errors are shown for %s:", req.TestID),
				After:     errorPrompt,
				Content:   req.NoSave,
				Options:   []string{"observations", "diff", "continue"},
				Shortcuts: []string{"o", "d", "c"},
			}
		case "yes":
			r.printf("%s\n", r.bold(fmt.Sprintf("Accepting differences for %s", req.TestID)))
			return true, nil
		case "no":
			r.printf("%s\n", r.bold(fmt.Sprintf("Rejecting differences for %s", req.TestID)))
			return false, nil
		case "continue":
			return false, nil
		default:
			return false, fmt.Errorf("unexpected answer %q", view)
		}

		answer, err := r.prompter.Ask(q)
		if err != nil {
			r.logger.Warn("interactive reconcile unavailable", "test", req.TestID, "err", err)
			return false, err
		}
		view = answer
	}
}

func (r *Reconciler) printf(format string, args ...any) {
	fmt.Fprintf(r.out, format, args...)
}

func (r *Reconciler) bold(s string) string {
	return termenv.NewOutput(r.out).String(s).Bold().String()
}

// unifiedDiff returns the line diff from reference to current text.
func unifiedDiff(reference, current string) string {
	diff := difflib.UnifiedDiff{
		A:        splitLines(reference),
		B:        splitLines(current),
		FromFile: "reference",
		ToFile:   "current",
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return fmt.Sprintf("diff unavailable: %v", err)
	}
	return text
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return difflib.SplitLines(strings.TrimSuffix(s, "\n"))
}
