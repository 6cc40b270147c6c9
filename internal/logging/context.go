package logging

import (
	"context"
	"log/slog"

	"vidpipe/internal/services"
)

// Shared structured logging keys. Every package logs these under the same
// names so log lines for one session can be correlated across components.
const (
	FieldComponent     = "component"
	FieldSessionID     = "session_id"
	FieldStage         = "stage"
	FieldLane          = "lane"
	FieldCorrelationID = "correlation_id"
)

// ContextFields collects the session, stage, lane, and correlation IDs the
// context carries into slog attributes, skipping whatever is unset.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	var fields []slog.Attr
	add := func(key, value string) {
		fields = append(fields, slog.String(key, value))
	}
	if id, ok := services.SessionIDFromContext(ctx); ok {
		add(FieldSessionID, id)
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		add(FieldStage, stage)
	}
	if lane, ok := services.LaneFromContext(ctx); ok {
		add(FieldLane, lane)
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		add(FieldCorrelationID, rid)
	}
	return fields
}

// WithContext folds the context's correlation fields into the logger.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
