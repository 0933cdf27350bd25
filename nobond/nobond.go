// Package nobond is a drop-in stand-in for the bond spy API for builds that
// must not depend on bond. Spying is never active: observations are
// discarded and every spy call returns an absent result.
//
// It imports nothing from bond, so a program can switch between the two
// with a single import change.
package nobond

import "context"

// IsActive always reports false.
func IsActive() bool {
	return false
}

// Observation is a no-op observation builder.
type Observation struct{}

// Obs returns a no-op builder.
func Obs(ctx context.Context, key string, value any) *Observation {
	return nil
}

// Set does nothing and returns o.
func (o *Observation) Set(key string, value any) *Observation {
	return o
}

// Result is always absent.
type Result struct{}

// Present always reports false.
func (Result) Present() bool { return false }

// Void always reports false.
func (Result) Void() bool { return false }

// Value always returns nil.
func (Result) Value() any { return nil }

// Or returns def.
func (Result) Or(def any) any { return def }

// Spy returns an absent result.
func (o *Observation) Spy(point string) (Result, error) {
	return Result{}, nil
}

// SpyErr returns nil.
func (o *Observation) SpyErr(point string) error {
	return nil
}

// SpyAs returns the zero T and false.
func SpyAs[T any](o *Observation, point string) (T, bool, error) {
	var zero T
	return zero, false, nil
}

// SpyErrAs returns nil.
func SpyErrAs[E error](o *Observation, point string) error {
	return nil
}

// SpyPoint marks f as a spy point and returns it unchanged.
func SpyPoint[F any](f F) F {
	return f
}
