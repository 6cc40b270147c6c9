package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"vidpipe/internal/notifications"
	"vidpipe/internal/session"
	"vidpipe/internal/stage"
	"vidpipe/internal/stageexec"
)

// Upload drives a confirmed session through the upload stage. The CLI and the
// web server call this directly instead of going through the polling loop so
// the upload starts the moment the operator confirms.
func Upload(ctx context.Context, logger *slog.Logger, store *session.Store, notifier notifications.Service, handler stage.Handler, sessionID string) error {
	sess, err := store.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if sess == nil {
		return session.ErrNotFound
	}
	if sess.Status != session.StatusAwaitingConfirmation {
		return &session.InvalidTransitionError{ID: sess.ID, From: sess.Status, To: session.StatusUploading}
	}
	if sess.ConfirmedAt == nil {
		return fmt.Errorf("session %s has not been confirmed", sess.ID)
	}

	return stageexec.Run(ctx, stageexec.Options{
		Logger:     logger,
		Store:      store,
		Notifier:   notifier,
		Handler:    handler,
		StageName:  "upload",
		Stage:      session.StageUpload,
		Processing: session.StatusUploading,
		Done:       session.StatusUploaded,
		Session:    sess,
	})
}
