package gosession

import (
	internalaudit "github.com/MrEthical07/goSession/internal/audit"
)

// auditDispatcher is the async fan-out between session operations and the
// configured sink. The canonical implementation lives in internal/audit;
// the root package only decides whether one exists.
type auditDispatcher = internalaudit.Dispatcher

// newAuditDispatcher returns nil when auditing is disabled; every emit path
// nil-checks, so a disabled trail costs a single comparison.
func newAuditDispatcher(cfg AuditConfig, sink AuditSink) *auditDispatcher {
	return internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Enabled,
		BufferSize: cfg.BufferSize,
		DropIfFull: cfg.DropIfFull,
	}, sink)
}
