package bond

import (
	"context"
	"encoding/json"
	"errors"
	"slices"

	"github.com/roach88/bond/internal/canonical"
)

// Observation is the ordered key-value record captured at a spy point.
//
// A nil *Observation is valid: Set and the spy calls are no-ops returning
// absent results. Obs returns nil when spying is inactive, so spy calls in
// production code cost a context lookup and nothing more.
type Observation struct {
	ctx    *Context
	keys   []string
	values map[string]any
}

// Obs starts an observation bound to the Context carried by ctx, or to the
// ambient context when ctx carries none.
func Obs(ctx context.Context, key string, value any) *Observation {
	return FromContext(ctx).Obs(key, value)
}

// Obs starts an observation bound to c. Returns nil when c is inactive.
func (c *Context) Obs(key string, value any) *Observation {
	if !c.Active() {
		return nil
	}
	o := &Observation{ctx: c, values: make(map[string]any)}
	return o.Set(key, value)
}

// Set records value under key and returns o. Setting a key again replaces
// its value and keeps its position.
func (o *Observation) Set(key string, value any) *Observation {
	if o == nil {
		return nil
	}
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
	return o
}

// MarshalJSON renders the observation canonically, so observations nest
// inside other observations.
func (o *Observation) MarshalJSON() ([]byte, error) {
	if o == nil {
		return []byte("null"), nil
	}
	return canonical.Marshal(o.fields("").canonical())
}

var _ json.Marshaler = (*Observation)(nil)

// fields snapshots the observation, writing point into the reserved key
// unless point is empty.
func (o *Observation) fields(point string) Fields {
	keys := o.keys
	values := make(map[string]any, len(o.values)+1)
	for k, v := range o.values {
		values[k] = v
	}
	if point != "" {
		if _, ok := o.values[SpyPointKey]; !ok {
			keys = append([]string{SpyPointKey}, keys...)
		}
		values[SpyPointKey] = point
	}
	return Fields{keys: slices.Clone(keys), values: values}
}

// Spy records the observation at point and returns the result supplied by
// the matching agent. An empty point is the anonymous spy point.
//
// Returns a MisconfiguredAgent error when the matching agent supplies an
// error; those agents are reached through SpyErr.
func (o *Observation) Spy(point string) (Result, error) {
	if o == nil {
		return Result{}, nil
	}
	agent, f := o.ctx.dispatch(point, o, false)
	if agent == nil {
		return Result{}, nil
	}
	if agent.terminal == terminalError {
		return Result{}, newMisconfigured(point, "agent supplies an error; spy with SpyErr")
	}

	agent.runDoers(f)
	if agent.terminal == terminalVoid {
		return Result{present: true, void: true}, nil
	}
	return Result{present: true, value: agent.value(f)}, nil
}

// SpyAs records the observation at point and returns the agent's value
// converted to T. The bool reports whether an agent matched.
//
// A void agent yields the zero T. A nil value is accepted only when T is a
// pointer, interface, map, slice, func or channel. Other values must be
// assignable to T or belong to the same numeric family (integers including
// byte and rune, floats, bools) and fit in T. Anything else is an
// AgentTypeMismatch error.
func SpyAs[T any](o *Observation, point string) (T, bool, error) {
	var zero T
	r, err := o.Spy(point)
	if err != nil || !r.present {
		return zero, false, err
	}
	if r.void {
		return zero, true, nil
	}
	v, err := convert[T](point, r.value)
	if err != nil {
		return zero, true, err
	}
	return v, true, nil
}

// SpyErr records the observation at point and returns the error supplied
// by the matching agent, or nil.
//
// Returns a MisconfiguredAgent error when the matching agent supplies a
// value; those agents are reached through Spy.
func (o *Observation) SpyErr(point string) error {
	if o == nil {
		return nil
	}
	agent, f := o.ctx.dispatch(point, o, true)
	if agent == nil {
		return nil
	}
	if agent.terminal == terminalValue {
		return newMisconfigured(point, "agent supplies a value; spy with Spy or SpyAs")
	}

	agent.runDoers(f)
	if agent.terminal == terminalVoid {
		return nil
	}
	return agent.err(f)
}

// SpyErrAs is SpyErr for call sites that can only raise errors of type E.
// An agent error that does not match E under errors.As is reported as an
// AgentTypeMismatch error instead of being returned.
func SpyErrAs[E error](o *Observation, point string) error {
	err := o.SpyErr(point)
	if err == nil || IsMisconfiguredAgent(err) {
		return err
	}
	var target E
	if !errors.As(err, &target) {
		return newTypeMismatch(point, "agent error %T (%v) is not a %s", err, err, typeName[E]())
	}
	return err
}
