package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// UpdateStatus moves a session from one status to another with a
// compare-and-set on the current status. Illegal moves and moves from a
// different current status return InvalidTransitionError; moves on a failed
// session return ErrSessionFailed.
func (s *Store) UpdateStatus(ctx context.Context, id string, from, to Status) error {
	ctx = dbContext(ctx)
	if !CanTransition(from, to) {
		return &InvalidTransitionError{ID: id, From: from, To: to}
	}

	res, err := s.execRetry(
		ctx,
		`UPDATE sessions SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		to,
		timestamp(time.Now()),
		id,
		from,
	)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 1 {
		return nil
	}
	return s.transitionConflict(ctx, id, to)
}

func (s *Store) transitionConflict(ctx context.Context, id string, to Status) error {
	current, err := s.currentStatus(ctx, id)
	if err != nil {
		return err
	}
	if current == StatusFailed {
		return ErrSessionFailed
	}
	return &InvalidTransitionError{ID: id, From: current, To: to}
}

func (s *Store) currentStatus(ctx context.Context, id string) (Status, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT status FROM sessions WHERE id = ?`, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("read status: %w", err)
	}
	return Status(raw), nil
}

// SetStageComplete marks a completion flag and stamps its timestamp. The
// operation is idempotent; a flag already set keeps its original timestamp.
// Flags only ever move from unset to set.
func (s *Store) SetStageComplete(ctx context.Context, id string, stage Stage) error {
	ctx = dbContext(ctx)
	flagCol, atCol, ok := stageColumns(stage)
	if !ok {
		return fmt.Errorf("unknown stage %q", stage)
	}

	now := timestamp(time.Now())
	query := fmt.Sprintf(
		`UPDATE sessions SET %s = 1, %s = COALESCE(%s, ?), updated_at = ? WHERE id = ?`,
		flagCol, atCol, atCol,
	)
	res, err := s.execRetry(ctx, query, now, now, id)
	if err != nil {
		return fmt.Errorf("set stage complete: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordError marks a session failed with the stage and message of the first
// failure. A session already failed keeps its original error and the call
// reports ErrSessionFailed; uploaded sessions cannot fail.
func (s *Store) RecordError(ctx context.Context, id, stage, message string, review bool) error {
	ctx = dbContext(ctx)
	res, err := s.execRetry(
		ctx,
		`UPDATE sessions
         SET status = ?, error_stage = ?, error_message = ?, needs_review = ?,
             progress_stage = 'Failed', progress_percent = 0, progress_message = ?, updated_at = ?
         WHERE id = ? AND status NOT IN (?, ?)`,
		StatusFailed,
		nullIfBlank(stage),
		nullIfBlank(message),
		boolAsInt(review),
		nullIfBlank(message),
		timestamp(time.Now()),
		id,
		StatusFailed,
		StatusUploaded,
	)
	if err != nil {
		return fmt.Errorf("record error: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 1 {
		return nil
	}

	current, err := s.currentStatus(ctx, id)
	if err != nil {
		return err
	}
	if current == StatusFailed {
		return ErrSessionFailed
	}
	return &InvalidTransitionError{ID: id, From: current, To: StatusFailed}
}

// StartProcessing stamps the moment the operator kicked off the pipeline.
// The workflow manager only claims sessions carrying this stamp, so a created
// session sits untouched until someone asks for it to run. Idempotent.
func (s *Store) StartProcessing(ctx context.Context, id string) error {
	ctx = dbContext(ctx)
	now := timestamp(time.Now())
	res, err := s.execRetry(
		ctx,
		`UPDATE sessions SET started_at = COALESCE(started_at, ?), updated_at = ? WHERE id = ?`,
		now,
		now,
		id,
	)
	if err != nil {
		return fmt.Errorf("start processing: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// BeginTitleSelection moves a session with generated chapters into the human
// title step. Called when the suggestions are first presented.
func (s *Store) BeginTitleSelection(ctx context.Context, id string) error {
	return s.UpdateStatus(ctx, id, StatusChaptersReady, StatusAwaitingTitle)
}

// SelectTitle stores the chosen video title and advances to the description
// step in a single statement.
func (s *Store) SelectTitle(ctx context.Context, id, title string) error {
	ctx = dbContext(ctx)
	title = strings.TrimSpace(title)
	if title == "" {
		return errors.New("title is empty")
	}

	res, err := s.execRetry(
		ctx,
		`UPDATE sessions SET title = ?, status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		title,
		StatusAwaitingDescription,
		timestamp(time.Now()),
		id,
		StatusAwaitingTitle,
	)
	if err != nil {
		return fmt.Errorf("select title: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 1 {
		return nil
	}
	return s.transitionConflict(ctx, id, StatusAwaitingDescription)
}

// MarkDescriptionReady advances past the description step once the
// description artifact has been written.
func (s *Store) MarkDescriptionReady(ctx context.Context, id string) error {
	return s.UpdateStatus(ctx, id, StatusAwaitingDescription, StatusAwaitingConfirmation)
}

// ConfirmUpload stamps the operator's upload approval. A session can only be
// confirmed once; later calls report ErrAlreadyConfirmed.
func (s *Store) ConfirmUpload(ctx context.Context, id string) error {
	ctx = dbContext(ctx)
	now := timestamp(time.Now())
	res, err := s.execRetry(
		ctx,
		`UPDATE sessions SET confirmed_at = ?, updated_at = ?
         WHERE id = ? AND status = ? AND confirmed_at IS NULL`,
		now,
		now,
		id,
		StatusAwaitingConfirmation,
	)
	if err != nil {
		return fmt.Errorf("confirm upload: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 1 {
		return nil
	}

	sess, err := s.GetSession(ctx, id)
	if err != nil {
		return err
	}
	if sess == nil {
		return ErrNotFound
	}
	if sess.ConfirmedAt != nil {
		return ErrAlreadyConfirmed
	}
	if sess.Status == StatusFailed {
		return ErrSessionFailed
	}
	return &InvalidTransitionError{ID: id, From: sess.Status, To: StatusUploading}
}

// SetVideoID stores the identifier reported by the upload tool.
func (s *Store) SetVideoID(ctx context.Context, id, videoID string) error {
	ctx = dbContext(ctx)
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return errors.New("video id is empty")
	}
	res, err := s.execRetry(
		ctx,
		`UPDATE sessions SET video_id = ?, updated_at = ? WHERE id = ?`,
		videoID,
		timestamp(time.Now()),
		id,
	)
	if err != nil {
		return fmt.Errorf("set video id: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetProgress records stage progress for status displays.
func (s *Store) SetProgress(ctx context.Context, id, stage, message string, percent float64) error {
	ctx = dbContext(ctx)
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	if err := s.execRetryDiscard(
		ctx,
		`UPDATE sessions SET progress_stage = ?, progress_percent = ?, progress_message = ?, updated_at = ? WHERE id = ?`,
		nullIfBlank(stage),
		percent,
		nullIfBlank(message),
		timestamp(time.Now()),
		id,
	); err != nil {
		return fmt.Errorf("set progress: %w", err)
	}
	return nil
}

// ClearProgress resets the progress fields.
func (s *Store) ClearProgress(ctx context.Context, id string) error {
	if err := s.execRetryDiscard(
		ctx,
		`UPDATE sessions SET progress_stage = NULL, progress_percent = 0, progress_message = NULL, updated_at = ? WHERE id = ?`,
		timestamp(time.Now()),
		id,
	); err != nil {
		return fmt.Errorf("clear progress: %w", err)
	}
	return nil
}

// Retry moves a failed session back to the restart status derived from its
// completion flags and clears the recorded error. Completed stage work is
// never repeated; the pipeline resumes at the first unfinished stage. Returns
// the status the session restarts from.
func (s *Store) Retry(ctx context.Context, id string) (Status, error) {
	ctx = dbContext(ctx)
	sess, err := s.GetSession(ctx, id)
	if err != nil {
		return "", err
	}
	if sess == nil {
		return "", ErrNotFound
	}
	if sess.Status != StatusFailed {
		return "", fmt.Errorf("session %s is %s, only failed sessions can be retried", id, sess.Status)
	}

	restart := RestartStatus(sess)
	res, err := s.execRetry(
		ctx,
		`UPDATE sessions
         SET status = ?, error_stage = NULL, error_message = NULL, needs_review = 0,
             progress_stage = 'Retry requested', progress_percent = 0, progress_message = NULL,
             confirmed_at = NULL, updated_at = ?
         WHERE id = ? AND status = ?`,
		restart,
		timestamp(time.Now()),
		id,
		StatusFailed,
	)
	if err != nil {
		return "", fmt.Errorf("retry session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return "", fmt.Errorf("session %s changed while retrying", id)
	}
	return restart, nil
}

// RecoverInFlight rolls sessions stuck in a processing status back to the
// start of their stage. Called once at startup after a crash or unclean
// shutdown: color_editing returns to created, transcribing to color_edited,
// generating_chapters to transcribed. Uploading returns to
// awaiting_confirmation with the confirmation discarded, because the external
// upload may or may not have gone out and the operator should approve again.
func (s *Store) RecoverInFlight(ctx context.Context) (int64, error) {
	ctx = dbContext(ctx)
	res, err := s.execRetry(
		ctx,
		`UPDATE sessions
         SET status = CASE status
             WHEN ? THEN ?
             WHEN ? THEN ?
             WHEN ? THEN ?
             WHEN ? THEN ?
             ELSE status
         END,
             confirmed_at = CASE status WHEN ? THEN NULL ELSE confirmed_at END,
             progress_stage = 'Recovered after restart',
             progress_percent = 0, progress_message = NULL, updated_at = ?
         WHERE status IN (?, ?, ?, ?)`,
		StatusColorEditing, StatusCreated,
		StatusTranscribing, StatusColorEdited,
		StatusGeneratingChapters, StatusTranscribed,
		StatusUploading, StatusAwaitingConfirmation,
		StatusUploading,
		timestamp(time.Now()),
		StatusColorEditing,
		StatusTranscribing,
		StatusGeneratingChapters,
		StatusUploading,
	)
	if err != nil {
		return 0, fmt.Errorf("recover in-flight sessions: %w", err)
	}
	return res.RowsAffected()
}
