// Package canonical provides the closed value model used for observations
// and the deterministic serializer that turns it into text.
//
// This package is the foundational layer: it imports nothing internal.
//
// Key design constraints:
//   - Value is sealed: Null, Bool, Int, Uint, Float, String, Array, Object
//   - The spy point key (SpyPointKey) always serializes first in an object
//   - All other keys are ordered by UTF-16 code units (RFC 8785)
//   - Numbers use ECMAScript shortest formatting, never locale dependent
//   - Strings are NFC normalized and never HTML escaped
//   - Non-deterministic inputs (timestamps, pids, paths) are NOT filtered;
//     call sites are responsible for spying stable values
package canonical
