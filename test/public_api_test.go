package test

import (
	"context"
	"net/http"
	"testing"

	gosession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/middleware"
	"github.com/MrEthical07/goSession/provider"
	"github.com/MrEthical07/goSession/token"
)

// This test intentionally guards public API compile-compat for consumers.
func TestPublicAPISurfaceCompile(t *testing.T) {
	_ = gosession.New
	_ = gosession.DefaultConfig
	_ = gosession.LoadConfig

	var _ *gosession.Controller
	var _ gosession.Config
	var _ gosession.Credentials
	var _ gosession.UserSession
	var _ gosession.Profile
	var _ gosession.SessionEvent
	var _ gosession.SecurityReport
	var _ gosession.AuditEvent
	var _ *gosession.AuthError

	var _ error = gosession.ErrLoginRequired
	var _ error = gosession.ErrNotInitialized
	var _ error = gosession.ErrInvalidCredentials
	var _ error = gosession.ErrLogoutRemote
	var _ error = gosession.ErrClosed
	var _ error = gosession.ErrAuthentication
	var _ error = gosession.ErrRateLimited
	var _ error = provider.ErrSessionExpired
	var _ error = token.ErrRefreshDiscarded

	// The production provider client satisfies the controller's interface.
	var _ gosession.ProviderClient = (*provider.Client)(nil)

	// Every shipped storage backend satisfies the durable-tier contract.
	var _ token.Store = (*token.MemoryStore)(nil)
	var _ token.Store = (*token.RedisStore)(nil)
	var _ token.Store = (*token.FileStore)(nil)

	// Transports plug into net/http unchanged.
	var _ http.RoundTripper = (*middleware.Transport)(nil)
	var _ http.RoundTripper = (*middleware.StrictTransport)(nil)

	var _ func(*gosession.Controller) func(http.Handler) http.Handler = middleware.RequireSession
	var _ func(*gosession.Controller, ...string) func(http.Handler) http.Handler = middleware.RequireRole
	var _ func(*gosession.Controller, string) func(http.Handler) http.Handler = middleware.RequireStoreAccess
	var _ func(context.Context) (*gosession.UserSession, bool) = middleware.SessionFromContext

	var _ func(*gosession.Controller, context.Context) (bool, error) = (*gosession.Controller).Init
	var _ func(*gosession.Controller, context.Context, gosession.Credentials) (*gosession.UserSession, error) = (*gosession.Controller).Login
	var _ func(*gosession.Controller, context.Context) error = (*gosession.Controller).Logout
	var _ func(*gosession.Controller, context.Context) (string, error) = (*gosession.Controller).AccessToken
	var _ func(*gosession.Controller, context.Context) (string, error) = (*gosession.Controller).AuthorizationHeader
	var _ func(*gosession.Controller, context.Context) error = (*gosession.Controller).RefreshNow
	var _ func(*gosession.Controller, context.Context) (*gosession.UserSession, error) = (*gosession.Controller).UserProfile
	var _ func(*gosession.Controller, gosession.EventType, gosession.Listener) func() = (*gosession.Controller).On
	var _ func(*gosession.Controller) gosession.SecurityReport = (*gosession.Controller).SecurityReport
}
