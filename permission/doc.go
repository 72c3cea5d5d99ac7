// Package permission provides the role-grant model, a frozen registry of
// platform-scoped role names, and the grant queries used by goSession
// authorization checks.
//
// # Grant model
//
// A session holds flat role names derived from token claims. The registry
// classifies each name into a platform-wide or store-scoped [RoleGrant];
// store membership is carried separately as [StoreGrant] lists. Store-scoped
// queries never fall back to platform roles; [Checker.CanAccessStore] is the
// one query that combines the two, explicitly.
//
// # Architecture boundaries
//
// This package is a pure in-memory data structure with no I/O. The registry
// is built during construction, frozen, and read-only afterwards.
//
// # What this package must NOT do
//
//   - Access Redis, databases, or the network.
//   - Import goSession, jwt, or token.
//   - Accept registrations after the registry is frozen.
package permission
