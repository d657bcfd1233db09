// Package middleware exposes an HTTP adapter that gates protected resources
// behind tokengate.Engine validation.
//
// # Guard
//
//   - [Protect] — validates the token query parameter, enforces the binding
//     between the signed url claim and the resource actually requested, checks
//     the method-appropriate permission, and records a download against the
//     token's quota once the response has been served successfully.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls and collapses deny
// reasons into coarse status codes for anonymous callers. It does NOT
// implement validation logic itself — all decisions are delegated to
// Engine.ValidateURL.
package middleware
