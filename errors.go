package bond

import (
	"errors"
	"fmt"

	"github.com/roach88/bond/internal/reconcile"
)

// ErrorCode categorizes spy errors.
type ErrorCode string

const (
	// ErrCodeAgentTypeMismatch indicates the agent's value or error does not
	// fit the type the spy point expects.
	ErrCodeAgentTypeMismatch ErrorCode = "AGENT_TYPE_MISMATCH"

	// ErrCodeMisconfiguredAgent indicates an error agent reached through a
	// value spy call, or a value agent reached through an error spy call.
	ErrCodeMisconfiguredAgent ErrorCode = "MISCONFIGURED_AGENT"
)

// Error is a test-configuration error raised by a spy call.
// It is never produced when no agent matches.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Point is the spy point name.
	Point string

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s (point=%s)", e.Code, e.Message, pointLabel(e.Point))
}

// IsAgentTypeMismatch returns true if the error is an agent type mismatch.
// Uses errors.As to handle wrapped errors.
func IsAgentTypeMismatch(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == ErrCodeAgentTypeMismatch
	}
	return false
}

// IsMisconfiguredAgent returns true if the error is a misconfigured agent.
// Uses errors.As to handle wrapped errors.
func IsMisconfiguredAgent(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == ErrCodeMisconfiguredAgent
	}
	return false
}

// MismatchError is returned by Finish when the trace differs from its
// reference file and the differences were not accepted.
type MismatchError = reconcile.MismatchError

// ErrMissingReference is wrapped by a MismatchError when no reference file
// existed.
var ErrMissingReference = reconcile.ErrMissingReference

// IsReconciliationMismatch returns true if the error is a reconciliation
// mismatch.
func IsReconciliationMismatch(err error) bool {
	return reconcile.IsMismatch(err)
}

func newTypeMismatch(point, format string, args ...any) *Error {
	return &Error{
		Code:    ErrCodeAgentTypeMismatch,
		Point:   point,
		Message: fmt.Sprintf(format, args...),
	}
}

func newMisconfigured(point, message string) *Error {
	return &Error{
		Code:    ErrCodeMisconfiguredAgent,
		Point:   point,
		Message: message,
	}
}

func pointLabel(point string) string {
	if point == "" {
		return "<anonymous>"
	}
	return point
}
