package gosession

import "errors"

var (
	// ErrLoginRequired is an exported constant or variable used by the session core.
	ErrLoginRequired = errors.New("login required")
	// ErrNotInitialized is an exported constant or variable used by the session core.
	ErrNotInitialized = errors.New("controller not initialized")
	// ErrAlreadyInitialized is an exported constant or variable used by the session core.
	ErrAlreadyInitialized = errors.New("controller already initialized")
	// ErrRefreshFailed is an exported constant or variable used by the session core.
	ErrRefreshFailed = errors.New("token refresh failed")
	// ErrNoRefreshToken is an exported constant or variable used by the session core.
	ErrNoRefreshToken = errors.New("no refresh token available")
	// ErrProviderUnavailable is an exported constant or variable used by the session core.
	ErrProviderUnavailable = errors.New("identity provider unavailable")
	// ErrHandshakeFailed is an exported constant or variable used by the session core.
	ErrHandshakeFailed = errors.New("provider handshake failed")
	// ErrProfileUnavailable is an exported constant or variable used by the session core.
	ErrProfileUnavailable = errors.New("profile fetch failed")
	// ErrProfileMalformed is an exported constant or variable used by the session core.
	ErrProfileMalformed = errors.New("profile response malformed")
	// ErrInvalidCredentials is an exported constant or variable used by the session core.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrLogoutRemote is an exported constant or variable used by the session core.
	ErrLogoutRemote = errors.New("remote logout failed")
	// ErrValidation is an exported constant or variable used by the session core.
	ErrValidation = errors.New("request validation failed")
	// ErrAuthentication is an exported constant or variable used by the session core.
	ErrAuthentication = errors.New("authentication required")
	// ErrAuthorization is an exported constant or variable used by the session core.
	ErrAuthorization = errors.New("permission denied")
	// ErrNotFound is an exported constant or variable used by the session core.
	ErrNotFound = errors.New("resource not found")
	// ErrConflict is an exported constant or variable used by the session core.
	ErrConflict = errors.New("resource conflict")
	// ErrRateLimited is an exported constant or variable used by the session core.
	ErrRateLimited = errors.New("rate limited")
	// ErrServer is an exported constant or variable used by the session core.
	ErrServer = errors.New("server error")
	// ErrNetwork is an exported constant or variable used by the session core.
	ErrNetwork = errors.New("network error")
	// ErrTimeout is an exported constant or variable used by the session core.
	ErrTimeout = errors.New("request timed out")
	// ErrEmptyRoleSet is an exported constant or variable used by the session core.
	ErrEmptyRoleSet = errors.New("token carries no role grants")
	// ErrConfigLoad is an exported constant or variable used by the session core.
	ErrConfigLoad = errors.New("config load failed")
	// ErrConfigInvalid is an exported constant or variable used by the session core.
	ErrConfigInvalid = errors.New("config invalid")
	// ErrClosed is an exported constant or variable used by the session core.
	ErrClosed = errors.New("controller closed")
)
