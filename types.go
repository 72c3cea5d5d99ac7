package gosession

import (
	"context"
	"io"
	"time"

	internalaudit "github.com/MrEthical07/goSession/internal/audit"
	internalmetrics "github.com/MrEthical07/goSession/internal/metrics"
	"github.com/MrEthical07/goSession/permission"
	"github.com/MrEthical07/goSession/provider"
	"github.com/MrEthical07/goSession/token"
)

// SessionState represents the lifecycle state of an authentication session.
//
//	Docs: docs/controller.md
type SessionState uint8

const (
	// StateUninitialized is an exported constant or variable used by the session core.
	StateUninitialized SessionState = iota
	// StateInitializing is an exported constant or variable used by the session core.
	StateInitializing
	// StateUnauthenticated is an exported constant or variable used by the session core.
	StateUnauthenticated
	// StateAuthenticated is an exported constant or variable used by the session core.
	StateAuthenticated
	// StateRefreshing is an exported constant or variable used by the session core.
	StateRefreshing
)

// String describes the string operation and its observable behavior.
func (s SessionState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	case StateRefreshing:
		return "refreshing"
	default:
		return "unknown"
	}
}

// EventType identifies one kind of session transition published on the
// [EventBus].
//
//	Docs: docs/events.md
type EventType string

const (
	// EventInitialized is an exported constant or variable used by the session core.
	// Payload: bool, whether the handshake found an existing session.
	EventInitialized EventType = "initialized"

	// EventAuthenticated is an exported constant or variable used by the session core.
	// Payload: *UserSession.
	EventAuthenticated EventType = "authenticated"

	// EventUnauthenticated is an exported constant or variable used by the session core.
	// Payload: nil after a logout, or the error that ended the session.
	EventUnauthenticated EventType = "unauthenticated"

	// EventTokenRefreshed is an exported constant or variable used by the session core.
	// Payload: time.Time, the new expiry instant.
	EventTokenRefreshed EventType = "token_refreshed"

	// EventTokenExpired is an exported constant or variable used by the session core.
	// Payload: nil.
	EventTokenExpired EventType = "token_expired"

	// EventLogout is an exported constant or variable used by the session core.
	// Payload: nil.
	EventLogout EventType = "logout"

	// EventError is an exported constant or variable used by the session core.
	// Payload: the classified error, *AuthError for provider failures.
	EventError EventType = "error"
)

// SessionEvent is a single immutable transition notification. Subscribers
// consume and discard events; nothing is persisted.
//
//	Docs: docs/events.md
type SessionEvent struct {
	// EventID is a monotonic ULID assigned at emit time.
	EventID string

	Type      EventType
	Payload   any
	Timestamp time.Time
}

// PlatformAdminRole is an exported constant or variable used by the session core.
// The one role name the default registry scopes platform-wide; every other
// role is store-scoped.
const PlatformAdminRole = permission.PlatformAdminRole

// RoleScope distinguishes platform-wide roles from store-scoped ones.
//
//	Docs: docs/permission.md
type RoleScope = permission.RoleScope

const (
	// ScopeStore is an exported constant or variable used by the session core.
	ScopeStore = permission.ScopeStore
	// ScopePlatform is an exported constant or variable used by the session core.
	ScopePlatform = permission.ScopePlatform
)

// RoleGrant is one named role held by the session, with its scope.
//
//	Docs: docs/permission.md
type RoleGrant = permission.RoleGrant

// StoreGrant lists the roles the session holds within one store.
//
//	Docs: docs/permission.md
type StoreGrant = permission.StoreGrant

// Profile is the normalized user profile built from the backend profile
// endpoint.
type Profile struct {
	ID            string
	Username      string
	Email         string
	FirstName     string
	LastName      string
	EmailVerified bool
}

// UserSession is the complete per-authentication session model: profile,
// role grants, and store access. Built once per successful authentication,
// replaced wholesale on re-authentication, cleared on logout.
//
//	Docs: docs/controller.md
type UserSession struct {
	Profile     Profile
	Roles       []RoleGrant
	StoreAccess []StoreGrant
}

// Credentials carries a direct-grant login. The password is never stored;
// it transits to the identity provider and is discarded.
type Credentials struct {
	Username string
	Password string
}

// ProviderClient is the identity-provider surface the [Controller] drives.
// [provider.Client] is the production implementation; tests substitute
// in-memory fakes.
type ProviderClient interface {
	Handshake(ctx context.Context, refreshToken string) (provider.HandshakeResult, error)
	Login(ctx context.Context, username, password string) (*token.Record, error)
	Refresh(ctx context.Context, refreshToken string) (*token.Record, error)
	Logout(ctx context.Context, refreshToken string) error
	Profile(ctx context.Context, authorization string) ([]byte, error)
	SetCallbacks(cb provider.Callbacks)
}

// AuditEvent is a structured audit record emitted by the session core.
//
//	Docs: docs/audit.md
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the audit dispatcher.
//
//	Docs: docs/audit.md
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
//
//	Docs: docs/audit.md
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer].
//
//	Docs: docs/audit.md
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
//
//	Docs: docs/audit.md
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
//
//	Docs: docs/audit.md
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// MetricID identifies a specific counter or histogram bucket in the
// in-process metrics system.
//
//	Docs: docs/metrics.md
type MetricID = internalmetrics.MetricID

const (
	// MetricHandshakeSuccess is an exported constant or variable used by the session core.
	MetricHandshakeSuccess = MetricID(internalmetrics.MetricHandshakeSuccess)
	// MetricHandshakeFailure is an exported constant or variable used by the session core.
	MetricHandshakeFailure = MetricID(internalmetrics.MetricHandshakeFailure)
	// MetricLoginSuccess is an exported constant or variable used by the session core.
	MetricLoginSuccess = MetricID(internalmetrics.MetricLoginSuccess)
	// MetricLoginFailure is an exported constant or variable used by the session core.
	MetricLoginFailure = MetricID(internalmetrics.MetricLoginFailure)
	// MetricRefreshSuccess is an exported constant or variable used by the session core.
	MetricRefreshSuccess = MetricID(internalmetrics.MetricRefreshSuccess)
	// MetricRefreshFailure is an exported constant or variable used by the session core.
	MetricRefreshFailure = MetricID(internalmetrics.MetricRefreshFailure)
	// MetricRefreshCoalesced is an exported constant or variable used by the session core.
	MetricRefreshCoalesced = MetricID(internalmetrics.MetricRefreshCoalesced)
	// MetricRefreshForced is an exported constant or variable used by the session core.
	MetricRefreshForced = MetricID(internalmetrics.MetricRefreshForced)
	// MetricRefreshThrottled is an exported constant or variable used by the session core.
	MetricRefreshThrottled = MetricID(internalmetrics.MetricRefreshThrottled)
	// MetricScheduleArmed is an exported constant or variable used by the session core.
	MetricScheduleArmed = MetricID(internalmetrics.MetricScheduleArmed)
	// MetricScheduleSuperseded is an exported constant or variable used by the session core.
	MetricScheduleSuperseded = MetricID(internalmetrics.MetricScheduleSuperseded)
	// MetricScheduleFired is an exported constant or variable used by the session core.
	MetricScheduleFired = MetricID(internalmetrics.MetricScheduleFired)
	// MetricScheduleSkipped is an exported constant or variable used by the session core.
	MetricScheduleSkipped = MetricID(internalmetrics.MetricScheduleSkipped)
	// MetricTokenExpiredSignal is an exported constant or variable used by the session core.
	MetricTokenExpiredSignal = MetricID(internalmetrics.MetricTokenExpiredSignal)
	// MetricTokensCleared is an exported constant or variable used by the session core.
	MetricTokensCleared = MetricID(internalmetrics.MetricTokensCleared)
	// MetricStorageReadError is an exported constant or variable used by the session core.
	MetricStorageReadError = MetricID(internalmetrics.MetricStorageReadError)
	// MetricStorageWriteError is an exported constant or variable used by the session core.
	MetricStorageWriteError = MetricID(internalmetrics.MetricStorageWriteError)
	// MetricProfileSuccess is an exported constant or variable used by the session core.
	MetricProfileSuccess = MetricID(internalmetrics.MetricProfileSuccess)
	// MetricProfileFailure is an exported constant or variable used by the session core.
	MetricProfileFailure = MetricID(internalmetrics.MetricProfileFailure)
	// MetricEmptyRoleSet is an exported constant or variable used by the session core.
	MetricEmptyRoleSet = MetricID(internalmetrics.MetricEmptyRoleSet)
	// MetricListenerPanic is an exported constant or variable used by the session core.
	MetricListenerPanic = MetricID(internalmetrics.MetricListenerPanic)
	// MetricLogout is an exported constant or variable used by the session core.
	MetricLogout = MetricID(internalmetrics.MetricLogout)
	// MetricLogoutRemoteFailure is an exported constant or variable used by the session core.
	MetricLogoutRemoteFailure = MetricID(internalmetrics.MetricLogoutRemoteFailure)
	// MetricRefreshLatency is an exported constant or variable used by the session core.
	MetricRefreshLatency = MetricID(internalmetrics.MetricRefreshLatency)

	metricIDCount = internalmetrics.MetricIDCount
)

// Metrics holds atomic counters and optional latency histograms.
//
//	Docs: docs/metrics.md
type Metrics = internalmetrics.Metrics

// MetricsSnapshot is a point-in-time deep copy of all metrics.
//
//	Docs: docs/metrics.md
type MetricsSnapshot = internalmetrics.Snapshot

// NewMetrics creates a new [Metrics] instance configured by the given
// [MetricsConfig]. When Enabled is false, all operations are no-ops.
//
//	Docs: docs/metrics.md
func NewMetrics(cfg MetricsConfig) *Metrics {
	return internalmetrics.New(internalmetrics.Config{
		Enabled:       cfg.Enabled,
		EnableLatency: cfg.EnableLatencyHistograms,
	})
}
