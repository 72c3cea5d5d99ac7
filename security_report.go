package gosession

import "time"

// SecurityReport is a read-only snapshot of the session core's security
// posture, returned by [Controller.SecurityReport].
//
//	Docs: docs/security.md
type SecurityReport struct {
	InstanceID          string
	State               SessionState
	DurableTier         string
	RefreshLead         time.Duration
	ExpiryBuffer        time.Duration
	ProactiveRefresh    bool
	RetryOnAuthFailure  bool
	ForcedRefreshLimit  bool
	UnverifiedDecodeUse bool
	AuditEnabled        bool
	AuditDropped        uint64
	MetricsEnabled      bool
}

func (c *Controller) SecurityReport() SecurityReport {
	if c == nil {
		return SecurityReport{}
	}

	return SecurityReport{
		InstanceID:         c.instanceID,
		State:              c.State(),
		DurableTier:        c.config.Storage.DurableTier,
		RefreshLead:        c.config.Tokens.RefreshLead,
		ExpiryBuffer:       c.config.Tokens.ExpiryBuffer,
		ProactiveRefresh:   c.config.Tokens.RefreshLead > 0,
		RetryOnAuthFailure: c.config.Transport.RetryOnAuthFailure,
		ForcedRefreshLimit: c.config.Transport.ForcedRefreshPerMinute > 0,
		// Claim decoding never verifies signatures; the flag is fixed so the
		// posture stays visible in operator dumps.
		UnverifiedDecodeUse: true,
		AuditEnabled:        c.config.Audit.Enabled,
		AuditDropped:        c.AuditDropped(),
		MetricsEnabled:      c.config.Metrics.Enabled,
	}
}
