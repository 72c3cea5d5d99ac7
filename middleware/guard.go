package middleware

import (
	"context"
	"net/http"

	gosession "github.com/MrEthical07/goSession"
)

// StoreIDHeader is the request header [RequireStoreAccess] reads the store
// identifier from when no custom header name is given.
const StoreIDHeader = "X-Store-ID"

type sessionContextKey struct{}

// SessionFromContext returns the session injected by a guard, and whether
// one is present.
func SessionFromContext(ctx context.Context) (*gosession.UserSession, bool) {
	sess, ok := ctx.Value(sessionContextKey{}).(*gosession.UserSession)
	return sess, ok
}

// RequireSession guards a local route on an authenticated session. Requests
// are rejected with 401 until the Controller holds one; the session copy is
// injected into the request context for handlers.
//
//	Docs: docs/middleware.md
func RequireSession(c *gosession.Controller) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := currentSession(c)
			if sess == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey{}, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole guards a local route on an authenticated session holding at
// least one of the given roles. Missing session rejects with 401, missing
// role with 403.
func RequireRole(c *gosession.Controller, roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := currentSession(c)
			if sess == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			if !c.HasAnyRole(roles...) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey{}, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireStoreAccess guards a local route on access to the store named by
// the header. An empty header name means [StoreIDHeader]. Requests without
// the header, or naming a store the session cannot access, reject with 403.
// The store ID is attached to the request context via
// [gosession.WithStoreID] so downstream Controller calls audit against it.
func RequireStoreAccess(c *gosession.Controller, header string) func(http.Handler) http.Handler {
	if header == "" {
		header = StoreIDHeader
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := currentSession(c)
			if sess == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			storeID := r.Header.Get(header)
			if storeID == "" || !c.CanAccessStore(storeID) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			ctx := gosession.WithStoreID(r.Context(), storeID)
			ctx = context.WithValue(ctx, sessionContextKey{}, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func currentSession(c *gosession.Controller) *gosession.UserSession {
	if c == nil {
		return nil
	}
	return c.CurrentSession()
}
