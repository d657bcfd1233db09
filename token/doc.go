// Package token implements the wire codec for signed access tokens: canonical JSON
// claims, base64url payload encoding, and hex-encoded HMAC-SHA256 signatures.
//
// # Wire format
//
// A token is exactly two segments joined by a dot:
//
//	base64url(JSON(claims)) + "." + hex(HMAC-SHA256(payload, secret))
//
// The signature is computed over the base64url payload text, not the raw JSON,
// so verification never needs to re-serialize claims.
//
// # Architecture boundaries
//
// This package owns encoding, decoding, and signature primitives. It does NOT
// decide whether a token is acceptable — expiry, revocation, IP, and quota
// policy belong to the Engine. [Codec.Decode] deliberately skips signature
// verification; the Engine verifies with [Codec.Verify] before trusting claims.
package token
