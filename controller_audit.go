package gosession

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goSession/internal/idx"
	"github.com/MrEthical07/goSession/provider"
	"github.com/MrEthical07/goSession/token"
)

const (
	auditEventHandshakeResumed    = "handshake_resumed"
	auditEventHandshakeAnonymous  = "handshake_anonymous"
	auditEventHandshakeFailure    = "handshake_failure"
	auditEventLoginSuccess        = "login_success"
	auditEventLoginFailure        = "login_failure"
	auditEventRefreshSuccess      = "refresh_success"
	auditEventRefreshFailure      = "refresh_failure"
	auditEventTokenExpired        = "token_expired"
	auditEventLogout              = "logout"
	auditEventLogoutRemoteFailure = "logout_remote_failure"
	auditEventProfileFallback     = "profile_fallback"
	auditEventEmptyRoleSet        = "empty_role_set"
)

// AuditErrorCode defines a public type used by goSession APIs.
//
// AuditErrorCode instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditErrorCode string

const (
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrSessionExpired     AuditErrorCode = "session_expired"
	auditErrNoRefreshToken     AuditErrorCode = "no_refresh_token"
	auditErrLoginRequired      AuditErrorCode = "login_required"
	auditErrNotInitialized     AuditErrorCode = "not_initialized"
	auditErrClosed             AuditErrorCode = "controller_closed"
	auditErrRefreshDiscarded   AuditErrorCode = "refresh_discarded"
	auditErrProfileUnavailable AuditErrorCode = "profile_unavailable"
	auditErrProfileMalformed   AuditErrorCode = "profile_malformed"
	auditErrLogoutRemote       AuditErrorCode = "logout_remote"
	auditErrEmptyRoles         AuditErrorCode = "empty_role_set"
	auditErrValidation         AuditErrorCode = "validation"
	auditErrAuthentication     AuditErrorCode = "authentication"
	auditErrAuthorization      AuditErrorCode = "authorization"
	auditErrNotFound           AuditErrorCode = "not_found"
	auditErrConflict           AuditErrorCode = "conflict"
	auditErrRateLimited        AuditErrorCode = "rate_limited"
	auditErrServer             AuditErrorCode = "server_error"
	auditErrNetwork            AuditErrorCode = "network"
	auditErrTimeout            AuditErrorCode = "timeout"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (c *Controller) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if c == nil || c.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		EventID:   idx.New(),
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		UserID:    userID,
		StoreID:   storeIDFromContext(ctx),
		SessionID: c.instanceID,
		RequestID: requestIDFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	c.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, provider.ErrSessionExpired):
		return auditErrSessionExpired
	case errors.Is(err, ErrNoRefreshToken):
		return auditErrNoRefreshToken
	case errors.Is(err, ErrLoginRequired):
		return auditErrLoginRequired
	case errors.Is(err, ErrNotInitialized),
		errors.Is(err, ErrAlreadyInitialized):
		return auditErrNotInitialized
	case errors.Is(err, ErrClosed):
		return auditErrClosed
	case errors.Is(err, token.ErrRefreshDiscarded):
		return auditErrRefreshDiscarded
	case errors.Is(err, ErrProfileMalformed):
		return auditErrProfileMalformed
	case errors.Is(err, ErrProfileUnavailable):
		return auditErrProfileUnavailable
	case errors.Is(err, ErrLogoutRemote):
		return auditErrLogoutRemote
	case errors.Is(err, ErrEmptyRoleSet):
		return auditErrEmptyRoles
	case errors.Is(err, ErrValidation):
		return auditErrValidation
	case errors.Is(err, ErrAuthentication):
		return auditErrAuthentication
	case errors.Is(err, ErrAuthorization):
		return auditErrAuthorization
	case errors.Is(err, ErrNotFound):
		return auditErrNotFound
	case errors.Is(err, ErrConflict):
		return auditErrConflict
	case errors.Is(err, ErrRateLimited):
		return auditErrRateLimited
	case errors.Is(err, ErrServer):
		return auditErrServer
	case errors.Is(err, ErrNetwork):
		return auditErrNetwork
	case errors.Is(err, ErrTimeout):
		return auditErrTimeout
	default:
		return auditErrInternal
	}
}
