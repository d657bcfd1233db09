// Package rate provides internal primitives used to build Redis-backed rate limit keys,
// errors, and limiter behavior for token issue throttling.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Key prefixes:
//   - tgri:u:  — issue per-user
//   - tgri:ip: — issue per-IP
//
// # What this package must NOT do
//
//   - Decide when throttling applies (the engine owns that policy).
//   - Be imported outside the tokengate module.
package rate
