package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"vidpipe/internal/logging"
	"vidpipe/internal/services"
	"vidpipe/internal/session"
	"vidpipe/internal/stageexec"
)

func (m *Manager) processSession(ctx context.Context, worker string, logger *slog.Logger, sess *session.Session) error {
	stg, ok := m.stageForStatus(sess.Status)
	if !ok {
		logger.Warn("no stage configured for status", logging.String("status", string(sess.Status)))
		m.waitForSessionOrShutdown(ctx)
		return nil
	}

	stageCtx := services.WithLane(ctx, worker)
	stageCtx = services.WithRequestID(stageCtx, uuid.NewString())

	err := stageexec.Run(stageCtx, stageexec.Options{
		Logger:     logger,
		Store:      m.store,
		Notifier:   m.notifier,
		Handler:    stg.handler,
		StageName:  stg.name,
		Stage:      stg.completionFlag,
		Processing: stg.processingStatus,
		Done:       stg.doneStatus,
		Session:    sess,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("stage interrupted by shutdown")
			return err
		}
		var invalid *session.InvalidTransitionError
		if errors.As(err, &invalid) {
			// Another worker claimed the session between fetch and transition.
			logger.Debug("session claimed elsewhere",
				logging.String("session_id", sess.ID),
				logging.String("status", string(invalid.From)),
			)
			return nil
		}
		m.setLastError(err)
		return err
	}

	m.setLastSession(sess)
	return nil
}

func (m *Manager) workerLogger(name string) *slog.Logger {
	if m.logger == nil {
		return logging.NewNop()
	}
	return m.logger.With(
		logging.String("component", fmt.Sprintf("workflow-%s", name)),
		logging.String("lane", name),
	)
}
