package canonical

import (
	"slices"
	"unicode/utf16"
)

// SpyPointKey is the reserved observation key holding the spy point name.
// It always sorts before every other key.
const SpyPointKey = "__spyPoint__"

// Value is a sealed interface over the observation value kinds.
// Only Null, Bool, Int, Uint, Float, String, Array and Object implement it.
type Value interface {
	canonicalValue()
}

// Null represents a JSON null.
type Null struct{}

func (Null) canonicalValue() {}

// Bool represents a boolean value.
type Bool bool

func (Bool) canonicalValue() {}

// Int represents any integer that fits in int64.
type Int int64

func (Int) canonicalValue() {}

// Uint represents unsigned integers above math.MaxInt64.
// Smaller unsigned values are always normalized to Int.
type Uint uint64

func (Uint) canonicalValue() {}

// Float represents a floating point number.
// Non-finite values never reach Float; From converts them to strings.
type Float float64

func (Float) canonicalValue() {}

// String represents a string value.
type String string

func (String) canonicalValue() {}

// Array represents an ordered sequence of values.
type Array []Value

func (Array) canonicalValue() {}

// Object represents a string-keyed map of values.
// Use SortedKeys for deterministic iteration.
type Object map[string]Value

func (Object) canonicalValue() {}

// SortedKeys returns the keys in canonical order: SpyPointKey first, the
// rest by UTF-16 code units.
func (obj Object) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, CompareKeys)
	return keys
}

// CompareKeys orders object keys canonically.
func CompareKeys(a, b string) int {
	switch {
	case a == b:
		return 0
	case a == SpyPointKey:
		return -1
	case b == SpyPointKey:
		return 1
	}
	return compareUTF16(a, b)
}

// compareUTF16 compares strings by UTF-16 code units as RFC 8785 requires.
// Go's native comparison is by UTF-8 bytes, which orders supplementary
// plane characters differently.
func compareUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	n := min(len(a16), len(b16))
	for i := 0; i < n; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}

	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	}
	return 0
}

// Equal reports whether two values have the same canonical form.
// Int(5) and Float(5) are equal because both serialize as 5.
func Equal(a, b Value) bool {
	ab, err := Marshal(a)
	if err != nil {
		return false
	}
	bb, err := Marshal(b)
	if err != nil {
		return false
	}
	return string(ab) == string(bb)
}
