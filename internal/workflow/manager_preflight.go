package workflow

import (
	"context"

	"vidpipe/internal/deps"
	"vidpipe/internal/logging"
	"vidpipe/internal/preflight"
)

// logPreflight reports environment problems once at startup. Failures do not
// block Start; the check command gives operators the full rendering.
func (m *Manager) logPreflight(ctx context.Context) {
	if m.logger == nil {
		return
	}
	for _, result := range preflight.RunAll(ctx, m.cfg) {
		if result.Passed {
			continue
		}
		m.logger.Warn("preflight check failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
		)
	}
	for _, status := range deps.MissingRequired(preflight.CheckSystemDeps(m.cfg)) {
		m.logger.Warn("required binary unavailable",
			logging.String("dependency", status.Name),
			logging.String("command", status.Command),
			logging.String("detail", status.Detail),
		)
	}
}
