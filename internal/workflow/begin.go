package workflow

import (
	"context"
	"errors"
	"fmt"

	"vidpipe/internal/session"
	"vidpipe/internal/workspace"
)

// Begin marks a session ready for the workers. With skipColorEdit set the
// color edit stage is bypassed: the source recording is staged into the
// workspace and aliased as the edited video, so transcription picks it up
// directly. started_at is stamped last because the workers ignore sessions
// without it.
func Begin(ctx context.Context, store *session.Store, sess *session.Session, skipColorEdit bool) error {
	if sess == nil {
		return errors.New("session is required")
	}

	if skipColorEdit && sess.Status == session.StatusCreated {
		ws := workspace.New(sess.Workspace)
		if err := ws.MaterializeSource(sess.SourcePath); err != nil {
			return fmt.Errorf("stage source: %w", err)
		}
		if err := ws.AliasEditedFromSource(); err != nil {
			return fmt.Errorf("alias edited video: %w", err)
		}
		if err := store.SetStageComplete(ctx, sess.ID, session.StageColorEdit); err != nil {
			return err
		}
		if err := store.UpdateStatus(ctx, sess.ID, session.StatusCreated, session.StatusColorEdited); err != nil {
			return err
		}
		sess.Status = session.StatusColorEdited
		sess.ColorEditDone = true
	}

	return store.StartProcessing(ctx, sess.ID)
}
