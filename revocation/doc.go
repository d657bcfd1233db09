// Package revocation tracks revoked token identifiers (jti) until the token
// would have expired anyway.
//
// # Stores
//
//   - [MemoryStore] — process-local set for single-instance deployments and tests.
//   - [RedisStore] — shared set visible to every server instance; entries carry
//     the token's remaining lifetime as a TTL so pruning is automatic.
//
// Revocation entries that outlive their token are dead weight; both stores bound
// retention to the TTL handed to Revoke.
package revocation
