package token

import (
	"context"
	"log"
	"time"

	"github.com/MrEthical07/goSession/internal/metrics"
)

// ScheduleRefresh describes the schedulerefresh operation and its observable behavior.
//
// Arms a one-shot timer that refreshes the token RefreshLead before the stored
// expiry. Re-arming supersedes any timer already armed, so at most one timer
// exists per Manager. When the fire instant is already in the past, or no
// expiry is stored, nothing is armed; the on-demand path in
// [Manager.ValidAccessToken] covers those tokens.
//
// The fired refresh runs in the background on a detached context. Its failure
// is logged and counted, never delivered to a caller, because no caller is
// awaiting it.
func (m *Manager) ScheduleRefresh(ctx context.Context) {
	at := m.ExpiresAt(ctx)

	m.schedMu.Lock()
	if m.schedStop != nil {
		close(m.schedStop)
		m.schedStop = nil
		m.metrics.Inc(metrics.MetricScheduleSuperseded)
	}
	if at.IsZero() {
		m.schedMu.Unlock()
		m.metrics.Inc(metrics.MetricScheduleSkipped)
		return
	}
	delay := time.Until(at.Add(-m.refreshLead))
	if delay <= 0 {
		m.schedMu.Unlock()
		m.metrics.Inc(metrics.MetricScheduleSkipped)
		return
	}
	stop := make(chan struct{})
	m.schedStop = stop
	m.schedMu.Unlock()

	m.metrics.Inc(metrics.MetricScheduleArmed)
	go m.runSchedule(delay, stop)
}

// runSchedule waits out the timer and performs the proactive refresh.
func (m *Manager) runSchedule(delay time.Duration, stop chan struct{}) {
	t := time.NewTimer(delay)
	defer t.Stop()

	select {
	case <-t.C:
	case <-stop:
		return
	}

	m.disarm(stop)
	m.metrics.Inc(metrics.MetricScheduleFired)
	// Forced: at fire time the token is still inside its validity window,
	// which is exactly why the refresh must not consult the expiry check.
	if _, err := m.refresh(context.Background(), true); err != nil {
		log.Print("goSession: scheduled refresh failed: ", err)
	}
}

// disarm clears the armed state if stop is still the current timer.
func (m *Manager) disarm(stop chan struct{}) {
	m.schedMu.Lock()
	if m.schedStop == stop {
		m.schedStop = nil
	}
	m.schedMu.Unlock()
}

// StopSchedule describes the stopschedule operation and its observable behavior.
//
// Cancels the armed timer, if any. A timer that has already fired and entered
// its refresh is not interrupted.
func (m *Manager) StopSchedule() {
	m.schedMu.Lock()
	if m.schedStop != nil {
		close(m.schedStop)
		m.schedStop = nil
	}
	m.schedMu.Unlock()
}

// Close describes the close operation and its observable behavior.
//
// Stops the scheduled refresh. The Manager remains usable for direct calls
// after Close; Close only releases background work.
func (m *Manager) Close() {
	m.StopSchedule()
}
