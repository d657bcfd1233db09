// Package quota tracks per-token remaining-use counters keyed by jti.
//
// # Stores
//
//   - [MemoryStore] — mutex-guarded map for single-instance deployments and tests.
//   - [RedisStore] — shared counters visible to every server instance, encoded as
//     compact binary records and incremented under WATCH/MULTI so concurrent
//     downloads against the same jti are linearizable.
//
// An in-process map is invisible to other instances in a horizontally scaled
// deployment; deployments that must enforce quotas across instances have to use
// [RedisStore] (or another shared backing implementing [Store]).
//
// # Architecture boundaries
//
// This package owns counter state only. It does NOT parse tokens or decide
// validity — the Engine consults it after signature, revocation, expiry, and IP
// checks have already passed.
package quota
