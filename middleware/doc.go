// Package middleware exposes HTTP adapters that put a goSession Controller
// to work on both sides of a client application: outbound transports that
// authenticate requests to the backend, and inbound guards for local UI
// servers that gate routes on the signed-in session.
//
// # Transports
//
//   - [Transport] — attaches the Authorization header, and after a 401
//     response forces one token refresh and replays the request exactly
//     once. Forced refreshes are rate-limited to suppress refresh storms.
//   - [StrictTransport] — attach-only. No retry; a rejected request comes
//     straight back to the caller.
//
// # Guards
//
//   - [RequireSession] — rejects when no session is authenticated and
//     injects the current session into the request context.
//   - [RequireRole] — additionally demands one of the given roles.
//   - [RequireStoreAccess] — additionally demands access to the store named
//     by a request header.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Controller calls. It does NOT
// hold tokens, refresh state, or grant data itself — all decisions are
// delegated to the Controller.
//
// # What this package must NOT do
//
//   - Read or store tokens directly (delegates to Controller).
//   - Refresh outside the Controller's single-flight path.
//   - Retry a rejected request more than once.
package middleware
