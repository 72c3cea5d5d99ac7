// Package provider implements the identity-provider client: OIDC discovery,
// direct-grant login, refresh-token grants, remote logout, and the backend
// profile fetch.
//
// # Handshake
//
// [Client.Handshake] attempts a silent session resume from a stored refresh
// token. A dead refresh token (invalid_grant) is a clean "no session" answer,
// not an error; only transport faults fail the handshake.
//
// # Callbacks
//
// Lifecycle callbacks ([Callbacks]) fire on login, refresh, token expiry, and
// logout. The Controller wires them to its state machine; integrations should
// subscribe to the event bus instead of setting callbacks directly.
//
// # Architecture boundaries
//
// This package owns all outbound HTTP to the identity provider and the
// profile endpoint. It does NOT store tokens, schedule refreshes, or decide
// session state.
//
// # What this package must NOT do
//
//   - Import goSession (no upward imports).
//   - Persist credentials or tokens.
//   - Interpret profile payloads — raw bytes go up to the Controller.
package provider
