package bond

import (
	"fmt"
	"strings"

	"github.com/roach88/bond/internal/canonical"
)

// Wildcard matches every spy point.
const Wildcard = "*"

// SpyPointKey is the reserved observation key holding the spy point name.
// It always serializes first.
const SpyPointKey = canonical.SpyPointKey

// Fields is a read-only view of an observation handed to filters, doers
// and terminal functions.
type Fields struct {
	keys   []string
	values map[string]any
}

// Get returns the value recorded under key.
func (f Fields) Get(key string) (any, bool) {
	v, ok := f.values[key]
	return v, ok
}

// Keys returns the keys in insertion order, the spy point key first when
// present.
func (f Fields) Keys() []string {
	return append([]string(nil), f.keys...)
}

// Len returns the number of fields.
func (f Fields) Len() int {
	return len(f.keys)
}

// Point returns the spy point name, or "" for an anonymous spy point.
func (f Fields) Point() string {
	p, _ := f.values[SpyPointKey].(string)
	return p
}

// canonical converts the fields into a canonical object.
func (f Fields) canonical() canonical.Object {
	obj := make(canonical.Object, len(f.keys))
	for _, k := range f.keys {
		obj[k] = canonical.From(f.values[k])
	}
	return obj
}

// Filter is a predicate an observation must satisfy for an agent to match.
//
// Filters run while the Context lock is held. A filter must not spy or
// call Context methods; doing so deadlocks. Doers and terminal functions
// run after the lock is released and may do both.
type Filter func(Fields) bool

// FieldEq matches when key is present and canonically equal to want.
// Numbers compare by value, so int 5 equals int64 5.
func FieldEq(key string, want any) Filter {
	wantValue := canonical.From(want)
	return func(f Fields) bool {
		v, ok := f.Get(key)
		return ok && canonical.Equal(canonical.From(v), wantValue)
	}
}

// FieldContains matches when the text of key contains sub.
func FieldContains(key, sub string) Filter {
	return fieldText(key, func(s string) bool { return strings.Contains(s, sub) })
}

// FieldHasPrefix matches when the text of key starts with prefix.
func FieldHasPrefix(key, prefix string) Filter {
	return fieldText(key, func(s string) bool { return strings.HasPrefix(s, prefix) })
}

// FieldHasSuffix matches when the text of key ends with suffix.
func FieldHasSuffix(key, suffix string) Filter {
	return fieldText(key, func(s string) bool { return strings.HasSuffix(s, suffix) })
}

// FieldFunc matches when key is present and fn accepts its value.
func FieldFunc(key string, fn func(any) bool) Filter {
	return func(f Fields) bool {
		v, ok := f.Get(key)
		return ok && fn(v)
	}
}

func fieldText(key string, pred func(string) bool) Filter {
	return func(f Fields) bool {
		v, ok := f.Get(key)
		if !ok {
			return false
		}
		s, isString := v.(string)
		if !isString {
			s = fmt.Sprint(v)
		}
		return pred(s)
	}
}

// Doer is a side effect an agent performs on match, before its terminal
// action.
type Doer func(Fields)

type terminal int

const (
	terminalVoid terminal = iota
	terminalValue
	terminalError
)

// Agent intercepts a spy point. An agent is built with NewAgent, refined
// with the chaining methods, and deployed into a Context:
//
//	c.Deploy(bond.NewAgent("payment.charge").
//		Where(bond.FieldEq("currency", "EUR")).
//		Return(42))
//
// An agent has exactly one terminal action; the last of Return,
// ReturnFunc, Fail and FailFunc wins. An agent belongs to one test and must
// not be modified once deployed.
type Agent struct {
	point    string
	filters  []Filter
	doers    []Doer
	terminal terminal
	value    func(Fields) any
	err      func(Fields) error

	// limit bounds the number of matches; 0 means unbounded.
	limit   int
	matched int
}

// NewAgent creates a no-op agent for point, or for every point when point
// is Wildcard.
func NewAgent(point string) *Agent {
	return &Agent{point: point}
}

// Point returns the spy point the agent targets.
func (a *Agent) Point() string {
	return a.point
}

// Where adds filters; all must accept the observation.
func (a *Agent) Where(filters ...Filter) *Agent {
	a.filters = append(a.filters, filters...)
	return a
}

// Do appends doers, run in order on every match.
func (a *Agent) Do(doers ...Doer) *Agent {
	a.doers = append(a.doers, doers...)
	return a
}

// Return makes the agent supply v. Return(Void) restores the no-op
// terminal.
func (a *Agent) Return(v any) *Agent {
	if _, ok := v.(voidValue); ok {
		a.terminal, a.value, a.err = terminalVoid, nil, nil
		return a
	}
	return a.ReturnFunc(func(Fields) any { return v })
}

// ReturnFunc makes the agent supply the value computed by fn.
func (a *Agent) ReturnFunc(fn func(Fields) any) *Agent {
	a.terminal, a.value, a.err = terminalValue, fn, nil
	return a
}

// Fail makes the agent supply err to error spy calls.
func (a *Agent) Fail(err error) *Agent {
	return a.FailFunc(func(Fields) error { return err })
}

// FailFunc makes the agent supply the error computed by fn. A nil error
// lets the spy call return normally.
func (a *Agent) FailFunc(fn func(Fields) error) *Agent {
	a.terminal, a.value, a.err = terminalError, nil, fn
	return a
}

// Times removes the agent after n matches. n <= 0 means unbounded.
// Calls rejected as MisconfiguredAgent do not count.
func (a *Agent) Times(n int) *Agent {
	a.limit = n
	return a
}

// accepts reports whether the agent matches point and every filter holds.
func (a *Agent) accepts(point string, f Fields) bool {
	if a.point != Wildcard && a.point != point {
		return false
	}
	for _, filter := range a.filters {
		if !filter(f) {
			return false
		}
	}
	return true
}

// suits reports whether the terminal fits a value call or, when errCall is
// set, an error call. A void terminal fits both.
func (a *Agent) suits(errCall bool) bool {
	switch a.terminal {
	case terminalValue:
		return !errCall
	case terminalError:
		return errCall
	default:
		return true
	}
}

func (a *Agent) exhausted() bool {
	return a.limit > 0 && a.matched >= a.limit
}

func (a *Agent) runDoers(f Fields) {
	for _, do := range a.doers {
		do(f)
	}
}

func (a *Agent) String() string {
	kind := "void"
	switch a.terminal {
	case terminalValue:
		kind = "value"
	case terminalError:
		kind = "error"
	}
	return fmt.Sprintf("agent(%s, filters=%d, doers=%d, %s)", pointLabel(a.point), len(a.filters), len(a.doers), kind)
}
