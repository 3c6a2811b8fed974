// Package ir defines the scalar values carried by synchronized properties and
// their canonical encoding.
//
// A ValueProperty in the session holds exactly one Value. Values are also the
// payload of dispatch journal details and harness scenario arguments, which is
// why Array and Object exist here even though the session models dictionaries
// and lists as property trees of their own.
//
// Key design constraints:
//   - No float values; numeric properties are int64 (hosts use fixed-point)
//   - Canonical JSON (RFC 8785) is the only encoding used for identity hashes
//   - ir imports nothing internal
package ir
