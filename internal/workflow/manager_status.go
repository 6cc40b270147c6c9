package workflow

import (
	"context"

	"vidpipe/internal/logging"
	"vidpipe/internal/session"
	"vidpipe/internal/stage"
)

// StatusSummary is the snapshot the status endpoint and CLI render.
type StatusSummary struct {
	Running      bool
	LastError    string
	LastSession  *session.Session
	SessionStats map[session.Status]int
	StageHealth  []stage.Health
}

// Status assembles a point-in-time snapshot of the manager, the session
// counts, and per-stage health.
func (m *Manager) Status(ctx context.Context) StatusSummary {
	m.mu.RLock()
	running := m.running
	lastErr := m.lastErr
	lastSession := m.lastSession
	checks := m.healthChecks
	m.mu.RUnlock()

	stats, err := m.store.CountByStatus(ctx)
	if err != nil && m.logger != nil {
		m.logger.Warn("failed to read session stats", logging.Error(err))
	}

	health := make([]stage.Health, 0, len(checks))
	for _, handler := range checks {
		health = append(health, handler.HealthCheck(ctx))
	}

	summary := StatusSummary{Running: running, SessionStats: stats, StageHealth: health}
	if lastErr != nil {
		summary.LastError = lastErr.Error()
	}
	if lastSession != nil {
		copy := *lastSession
		summary.LastSession = &copy
	}
	return summary
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) setLastSession(sess *session.Session) {
	m.mu.Lock()
	if sess != nil {
		copy := *sess
		m.lastSession = &copy
	} else {
		m.lastSession = nil
	}
	m.mu.Unlock()
}
