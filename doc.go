// Package tokengate issues and validates time-limited, tamper-evident access
// tokens embedded in URLs to gate read/write access to protected resources:
// photo downloads, batch archives, and upload grants.
//
// A token is an HMAC-SHA256 signed claims payload carried as a `token` query
// parameter. Validation runs a fixed pipeline (parse, signature, revocation,
// expiry, IP allow-list, download quota) and returns a discriminated
// [ValidationResult] rather than an error, so HTTP layers map deny reasons
// to status codes without exception plumbing.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// tokengate is the public surface. It exposes [Engine], [Builder], [Config],
// and value types (IssueOptions, IssuedToken, ValidationResult). Wire encoding
// lives in the token subpackage; counter and revocation state live in the
// quota and revocation subpackages behind store interfaces with in-memory and
// Redis implementations.
//
// # What this package must NOT do
//
//   - Serve files or perform any resource I/O; it only grants and checks access.
//   - Substitute a built-in signing secret when none is configured.
//   - Consume quota during Validate; [Engine.RecordDownload] is an explicit,
//     separate call made after the resource was actually served.
//
// # Deployment note
//
// With the default in-memory stores, quota and revocation state is invisible
// to other instances of a horizontally scaled deployment. Pass a Redis client
// via [Builder.WithRedis] when those guarantees must hold fleet-wide.
package tokengate
