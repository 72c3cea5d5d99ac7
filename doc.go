// Package gosession provides a client-side authentication session core with
// dual-tier token storage, single-flight refresh coordination, proactive
// expiry scheduling, and claim-derived role resolution for multi-tenant
// store administration clients.
//
// The package is designed for concurrent client workloads: Controller and
// token.Manager methods are safe to call from multiple goroutines after
// initialization through [Builder.Build].
//
// # Architecture boundaries
//
// gosession is the public surface. It exposes [Controller], [Builder],
// [Config], [EventBus], and value types (UserSession, SessionEvent,
// MetricsSnapshot, etc.). Token storage and lifecycle live in the token
// sub-package; the identity-provider client lives in provider; claim
// decoding lives in jwt. Internal coordination — ID generation, flow
// orchestration, audit dispatch — lives under internal/ and is never
// exported.
//
// # What this package must NOT do
//
//   - Verify token signatures. Claim decoding is display/UX convenience;
//     every authorization decision is re-validated server-side.
//   - Issue tokens or implement provider endpoints.
//   - Let a storage failure propagate to a caller: a broken store reads as
//     "no token", never as an error.
//
// # Concurrency contract
//
// ValidAccessToken is the hot path. N concurrent callers during an
// invalid-token window trigger exactly one provider refresh call, and all N
// observe the same resulting token or the same failure. At most one
// proactive refresh timer is armed at a time; re-hydration supersedes it.
package gosession
