// Package token provides tiered token storage and the single-flight token lifecycle
// manager used by goSession authentication hot paths.
//
// # Tiers
//
// Token state is split across two tiers with different lifetimes:
//
//   - session tier — access token, expiry, and token type. Held in process memory
//     and gone when the process exits.
//   - durable tier — refresh token only. Backed by Redis or an atomically written
//     file so a session can be resumed after a restart.
//
// [TieredStore] routes each key to its tier and absorbs storage faults: a failing
// backend degrades token persistence, it never fails a token operation.
//
// # Single-flight refresh
//
// [Manager] coordinates refreshes so that any number of concurrent callers asking
// for a valid access token produce at most one refresh call. Late callers join the
// in-flight refresh and share its outcome.
//
// # Architecture boundaries
//
// This package owns token storage, expiry accounting, and refresh coordination.
// It does NOT talk to the identity provider — the refresh network call is injected
// as a [RefreshFunc] by the Controller.
//
// # What this package must NOT do
//
//   - Import goSession, jwt, or provider (no upward imports).
//   - Decode or interpret token contents.
//   - Decide session state — authenticated/unauthenticated is Controller policy.
package token
