package reconcile

import (
	"errors"
	"fmt"
)

// ErrMissingReference marks a reconciliation against a reference file that
// does not exist yet.
var ErrMissingReference = errors.New("reference observation file not found")

// ErrNoTerminal is returned by the console prompter when standard input is
// not an interactive terminal.
var ErrNoTerminal = errors.New("console reconcile requires an interactive terminal")

// MismatchError is returned when a trace differs from its reference and
// the differences were not accepted.
type MismatchError struct {
	// TestID identifies the test whose observations differ.
	TestID string

	// Mode is the reconcile mode that rejected the differences.
	Mode Mode

	// Path is the reference file location.
	Path string

	// Diff is the unified diff from reference to current.
	Diff string

	// Missing is true when no reference file existed.
	Missing bool

	// Cause is set when reconciliation itself failed (e.g. no terminal).
	Cause error
}

// Error implements the error interface.
func (e *MismatchError) Error() string {
	msg := fmt.Sprintf("observations for %s differ from reference %s (reconcile=%s)", e.TestID, e.Path, e.Mode)
	if e.Missing {
		msg = fmt.Sprintf("no reference observations for %s at %s (reconcile=%s)", e.TestID, e.Path, e.Mode)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	if e.Diff != "" {
		msg += "\n" + e.Diff
	}
	return msg
}

// Unwrap exposes ErrMissingReference and the cause to errors.Is/As.
func (e *MismatchError) Unwrap() []error {
	var errs []error
	if e.Missing {
		errs = append(errs, ErrMissingReference)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// IsMismatch returns true if the error is a reconciliation mismatch.
// Uses errors.As to handle wrapped errors.
func IsMismatch(err error) bool {
	var me *MismatchError
	return errors.As(err, &me)
}
