// Package internal contains helper packages that are intentionally private to tokengate.
//
// # Sub-packages
//
//   - rate — core Redis-backed rate limit primitives for issue throttling
//
// # What this package must NOT do
//
//   - Export types that appear in the public tokengate API.
//   - Be imported by any package outside the tokengate module.
package internal
