package bond

import "fmt"

// Void is a terminal value meaning the agent supplies nothing.
// Return(Void) is the same as deploying an agent without a terminal action.
var Void = voidValue{}

type voidValue struct{}

func (voidValue) String() string { return "void" }

// Result is the outcome of a spy call.
//
// The zero Result is absent: no agent matched, or spying is inactive.
type Result struct {
	value   any
	present bool
	void    bool
}

// Present reports whether an agent matched.
func (r Result) Present() bool {
	return r.present
}

// Void reports whether the matching agent had no terminal value.
func (r Result) Void() bool {
	return r.void
}

// Value returns the agent's value; nil when absent or void.
func (r Result) Value() any {
	return r.value
}

// Or returns the agent's value when one was supplied, and def otherwise.
func (r Result) Or(def any) any {
	if !r.present || r.void {
		return def
	}
	return r.value
}

// String implements fmt.Stringer.
func (r Result) String() string {
	switch {
	case !r.present:
		return "absent"
	case r.void:
		return "present(void)"
	default:
		return fmt.Sprintf("present(%v)", r.value)
	}
}
