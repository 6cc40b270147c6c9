package session_test

import (
	"context"
	"errors"
	"testing"

	"vidpipe/internal/session"
	"vidpipe/internal/testsupport"
)

// advance walks a session through the given statuses using compare-and-set
// transitions, failing the test on any rejected move.
func advance(t *testing.T, store *session.Store, id string, steps ...session.Status) {
	t.Helper()
	ctx := context.Background()

	sess, err := store.GetSession(ctx, id)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if sess == nil {
		t.Fatalf("session %s missing", id)
	}
	current := sess.Status
	for _, next := range steps {
		if err := store.UpdateStatus(ctx, id, current, next); err != nil {
			t.Fatalf("advance %s -> %s: %v", current, next, err)
		}
		current = next
	}
}

var pathToConfirmation = []session.Status{
	session.StatusColorEditing,
	session.StatusColorEdited,
	session.StatusTranscribing,
	session.StatusTranscribed,
	session.StatusGeneratingChapters,
	session.StatusChaptersReady,
	session.StatusAwaitingTitle,
	session.StatusAwaitingDescription,
	session.StatusAwaitingConfirmation,
}

func TestUpdateStatusWalksHappyPath(t *testing.T) {
	cfg := testsupport.TempConfig(t)
	store := testsupport.OpenStore(t, cfg)
	ctx := context.Background()

	sess := testsupport.NewSession(t, store, cfg, "walk.mp4")
	advance(t, store, sess.ID, pathToConfirmation...)
	advance(t, store, sess.ID, session.StatusUploading, session.StatusUploaded)

	final, err := store.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if final.Status != session.StatusUploaded {
		t.Fatalf("expected uploaded, got %s", final.Status)
	}
}

func TestUpdateStatusAllowsSkipShortCircuit(t *testing.T) {
	cfg := testsupport.TempConfig(t)
	store := testsupport.OpenStore(t, cfg)

	sess := testsupport.NewSession(t, store, cfg, "skip.mp4")
	if err := store.UpdateStatus(context.Background(), sess.ID, session.StatusCreated, session.StatusColorEdited); err != nil {
		t.Fatalf("expected created -> color_edited to be legal, got %v", err)
	}
}

func TestUpdateStatusRejectsIllegalMove(t *testing.T) {
	cfg := testsupport.TempConfig(t)
	store := testsupport.OpenStore(t, cfg)
	ctx := context.Background()

	sess := testsupport.NewSession(t, store, cfg, "illegal.mp4")

	var invalid *session.InvalidTransitionError
	err := store.UpdateStatus(ctx, sess.ID, session.StatusCreated, session.StatusTranscribing)
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidTransitionError, got %v", err)
	}

	// The stored status must be untouched after a rejected move.
	current, err := store.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if current.Status != session.StatusCreated {
		t.Fatalf("status changed after rejected move: %s", current.Status)
	}
}

func TestUpdateStatusRejectsStaleFrom(t *testing.T) {
	cfg := testsupport.TempConfig(t)
	store := testsupport.OpenStore(t, cfg)
	ctx := context.Background()

	sess := testsupport.NewSession(t, store, cfg, "stale.mp4")
	advance(t, store, sess.ID, session.StatusColorEditing)

	var invalid *session.InvalidTransitionError
	err := store.UpdateStatus(ctx, sess.ID, session.StatusCreated, session.StatusColorEditing)
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidTransitionError for stale from, got %v", err)
	}
	if invalid.From != session.StatusColorEditing {
		t.Fatalf("expected conflict to report current status, got %s", invalid.From)
	}
}

func TestUpdateStatusMissingSession(t *testing.T) {
	cfg := testsupport.TempConfig(t)
	store := testsupport.OpenStore(t, cfg)

	err := store.UpdateStatus(context.Background(), "ghost", session.StatusCreated, session.StatusColorEditing)
	if !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFailedSessionIsSticky(t *testing.T) {
	cfg := testsupport.TempConfig(t)
	store := testsupport.OpenStore(t, cfg)
	ctx := context.Background()

	sess := testsupport.NewSession(t, store, cfg, "sticky.mp4")
	if err := store.RecordError(ctx, sess.ID, "color_edit", "exit status 3", false); err != nil {
		t.Fatalf("RecordError failed: %v", err)
	}

	err := store.UpdateStatus(ctx, sess.ID, session.StatusCreated, session.StatusColorEditing)
	if !errors.Is(err, session.ErrSessionFailed) {
		t.Fatalf("expected ErrSessionFailed, got %v", err)
	}
}

func TestRecordErrorFirstWins(t *testing.T) {
	cfg := testsupport.TempConfig(t)
	store := testsupport.OpenStore(t, cfg)
	ctx := context.Background()

	sess := testsupport.NewSession(t, store, cfg, "firstwins.mp4")
	if err := store.RecordError(ctx, sess.ID, "transcription", "original failure", true); err != nil {
		t.Fatalf("RecordError failed: %v", err)
	}

	err := store.RecordError(ctx, sess.ID, "chapters", "later failure", false)
	if !errors.Is(err, session.ErrSessionFailed) {
		t.Fatalf("expected ErrSessionFailed on second error, got %v", err)
	}

	failed, err := store.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if failed.ErrorStage != "transcription" || failed.ErrorMessage != "original failure" {
		t.Fatalf("first error overwritten: %#v", failed)
	}
	if !failed.NeedsReview {
		t.Fatal("expected needs_review to be preserved")
	}
}

func TestRecordErrorRejectsUploaded(t *testing.T) {
	cfg := testsupport.TempConfig(t)
	store := testsupport.OpenStore(t, cfg)
	ctx := context.Background()

	sess := testsupport.NewSession(t, store, cfg, "done.mp4")
	advance(t, store, sess.ID, pathToConfirmation...)
	advance(t, store, sess.ID, session.StatusUploading, session.StatusUploaded)

	var invalid *session.InvalidTransitionError
	err := store.RecordError(ctx, sess.ID, "upload", "too late", false)
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidTransitionError, got %v", err)
	}
}

func TestSetStageCompleteIsIdempotent(t *testing.T) {
	cfg := testsupport.TempConfig(t)
	store := testsupport.OpenStore(t, cfg)
	ctx := context.Background()

	sess := testsupport.NewSession(t, store, cfg, "flags.mp4")
	if err := store.SetStageComplete(ctx, sess.ID, session.StageTranscription); err != nil {
		t.Fatalf("SetStageComplete failed: %v", err)
	}

	first, err := store.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if !first.TranscriptionDone || first.TranscriptionAt == nil {
		t.Fatalf("flag not recorded: %#v", first)
	}

	if err := store.SetStageComplete(ctx, sess.ID, session.StageTranscription); err != nil {
		t.Fatalf("second SetStageComplete failed: %v", err)
	}
	second, err := store.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if !second.TranscriptionAt.Equal(*first.TranscriptionAt) {
		t.Fatalf("timestamp rewritten: %v -> %v", first.TranscriptionAt, second.TranscriptionAt)
	}
}

func TestSetStageCompleteUnknownStage(t *testing.T) {
	cfg := testsupport.TempConfig(t)
	store := testsupport.OpenStore(t, cfg)

	sess := testsupport.NewSession(t, store, cfg, "unknown.mp4")
	if err := store.SetStageComplete(context.Background(), sess.ID, session.Stage("mystery")); err == nil {
		t.Fatal("expected error for unknown stage")
	}
}

func TestStartProcessingKeepsFirstStamp(t *testing.T) {
	cfg := testsupport.TempConfig(t)
	store := testsupport.OpenStore(t, cfg)
	ctx := context.Background()

	sess := testsupport.NewSession(t, store, cfg, "stamp.mp4")
	if err := store.StartProcessing(ctx, sess.ID); err != nil {
		t.Fatalf("StartProcessing failed: %v", err)
	}
	first, err := store.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if first.StartedAt == nil {
		t.Fatal("expected started_at to be stamped")
	}

	if err := store.StartProcessing(ctx, sess.ID); err != nil {
		t.Fatalf("second StartProcessing failed: %v", err)
	}
	second, err := store.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if !second.StartedAt.Equal(*first.StartedAt) {
		t.Fatalf("started_at rewritten: %v -> %v", first.StartedAt, second.StartedAt)
	}
}

func TestSelectTitleAdvancesToDescription(t *testing.T) {
	cfg := testsupport.TempConfig(t)
	store := testsupport.OpenStore(t, cfg)
	ctx := context.Background()

	sess := testsupport.NewSession(t, store, cfg, "title.mp4")
	advance(t, store, sess.ID,
		session.StatusColorEditing,
		session.StatusColorEdited,
		session.StatusTranscribing,
		session.StatusTranscribed,
		session.StatusGeneratingChapters,
		session.StatusChaptersReady,
	)
	if err := store.BeginTitleSelection(ctx, sess.ID); err != nil {
		t.Fatalf("BeginTitleSelection failed: %v", err)
	}
	if err := store.SelectTitle(ctx, sess.ID, "  How To Solder  "); err != nil {
		t.Fatalf("SelectTitle failed: %v", err)
	}

	updated, err := store.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if updated.Status != session.StatusAwaitingDescription {
		t.Fatalf("expected awaiting_description, got %s", updated.Status)
	}
	if updated.Title != "How To Solder" {
		t.Fatalf("expected trimmed title, got %q", updated.Title)
	}
}

func TestSelectTitleRejectsEmptyAndWrongStatus(t *testing.T) {
	cfg := testsupport.TempConfig(t)
	store := testsupport.OpenStore(t, cfg)
	ctx := context.Background()

	sess := testsupport.NewSession(t, store, cfg, "badtitle.mp4")
	if err := store.SelectTitle(ctx, sess.ID, "   "); err == nil {
		t.Fatal("expected error for empty title")
	}

	var invalid *session.InvalidTransitionError
	if err := store.SelectTitle(ctx, sess.ID, "Valid"); !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidTransitionError outside awaiting_title, got %v", err)
	}
}

func TestConfirmUploadOnlyOnce(t *testing.T) {
	cfg := testsupport.TempConfig(t)
	store := testsupport.OpenStore(t, cfg)
	ctx := context.Background()

	sess := testsupport.NewSession(t, store, cfg, "confirm.mp4")
	advance(t, store, sess.ID, pathToConfirmation...)

	if err := store.ConfirmUpload(ctx, sess.ID); err != nil {
		t.Fatalf("ConfirmUpload failed: %v", err)
	}
	confirmed, err := store.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if confirmed.ConfirmedAt == nil {
		t.Fatal("expected confirmed_at to be stamped")
	}

	if err := store.ConfirmUpload(ctx, sess.ID); !errors.Is(err, session.ErrAlreadyConfirmed) {
		t.Fatalf("expected ErrAlreadyConfirmed, got %v", err)
	}
}

func TestConfirmUploadRequiresConfirmationStep(t *testing.T) {
	cfg := testsupport.TempConfig(t)
	store := testsupport.OpenStore(t, cfg)

	sess := testsupport.NewSession(t, store, cfg, "early.mp4")
	var invalid *session.InvalidTransitionError
	if err := store.ConfirmUpload(context.Background(), sess.ID); !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidTransitionError, got %v", err)
	}
}

func TestSetVideoID(t *testing.T) {
	cfg := testsupport.TempConfig(t)
	store := testsupport.OpenStore(t, cfg)
	ctx := context.Background()

	sess := testsupport.NewSession(t, store, cfg, "videoid.mp4")
	if err := store.SetVideoID(ctx, sess.ID, " dQw4w9WgXcQ \n"); err != nil {
		t.Fatalf("SetVideoID failed: %v", err)
	}
	updated, err := store.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if updated.VideoID != "dQw4w9WgXcQ" {
		t.Fatalf("expected trimmed video id, got %q", updated.VideoID)
	}

	if err := store.SetVideoID(ctx, sess.ID, "  "); err == nil {
		t.Fatal("expected error for empty video id")
	}
	if err := store.SetVideoID(ctx, "ghost", "abc"); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRetryDerivesRestartFromFlags(t *testing.T) {
	cases := []struct {
		name    string
		stages  []session.Stage
		restart session.Status
	}{
		{name: "no stages", stages: nil, restart: session.StatusCreated},
		{name: "color edit done", stages: []session.Stage{session.StageColorEdit}, restart: session.StatusColorEdited},
		{
			name:    "transcription done",
			stages:  []session.Stage{session.StageColorEdit, session.StageTranscription},
			restart: session.StatusTranscribed,
		},
		{
			name:    "chapters without titles rerun chapter stage",
			stages:  []session.Stage{session.StageColorEdit, session.StageTranscription, session.StageChapters},
			restart: session.StatusTranscribed,
		},
		{
			name: "titles extracted",
			stages: []session.Stage{
				session.StageColorEdit,
				session.StageTranscription,
				session.StageChapters,
				session.StageTitles,
			},
			restart: session.StatusChaptersReady,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testsupport.TempConfig(t)
			store := testsupport.OpenStore(t, cfg)
			ctx := context.Background()

			sess := testsupport.NewSession(t, store, cfg, "retry.mp4")
			for _, stage := range tc.stages {
				if err := store.SetStageComplete(ctx, sess.ID, stage); err != nil {
					t.Fatalf("SetStageComplete(%s) failed: %v", stage, err)
				}
			}
			if err := store.RecordError(ctx, sess.ID, "somewhere", "boom", false); err != nil {
				t.Fatalf("RecordError failed: %v", err)
			}

			restart, err := store.Retry(ctx, sess.ID)
			if err != nil {
				t.Fatalf("Retry failed: %v", err)
			}
			if restart != tc.restart {
				t.Fatalf("expected restart %s, got %s", tc.restart, restart)
			}

			updated, err := store.GetSession(ctx, sess.ID)
			if err != nil {
				t.Fatalf("GetSession failed: %v", err)
			}
			if updated.Status != tc.restart {
				t.Fatalf("expected status %s, got %s", tc.restart, updated.Status)
			}
			if updated.ErrorStage != "" || updated.ErrorMessage != "" || updated.NeedsReview {
				t.Fatalf("error fields not cleared: %#v", updated)
			}
			if updated.ConfirmedAt != nil {
				t.Fatal("expected confirmed_at to be cleared")
			}
		})
	}
}

func TestRetryRequiresFailedStatus(t *testing.T) {
	cfg := testsupport.TempConfig(t)
	store := testsupport.OpenStore(t, cfg)

	sess := testsupport.NewSession(t, store, cfg, "notfailed.mp4")
	if _, err := store.Retry(context.Background(), sess.ID); err == nil {
		t.Fatal("expected error retrying a session that has not failed")
	}
	if _, err := store.Retry(context.Background(), "ghost"); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRecoverInFlightRollsBackProcessingStatuses(t *testing.T) {
	cases := []struct {
		name     string
		path     []session.Status
		expected session.Status
	}{
		{
			name:     "color_editing returns to created",
			path:     []session.Status{session.StatusColorEditing},
			expected: session.StatusCreated,
		},
		{
			name: "transcribing returns to color_edited",
			path: []session.Status{
				session.StatusColorEditing,
				session.StatusColorEdited,
				session.StatusTranscribing,
			},
			expected: session.StatusColorEdited,
		},
		{
			name: "generating_chapters returns to transcribed",
			path: []session.Status{
				session.StatusColorEditing,
				session.StatusColorEdited,
				session.StatusTranscribing,
				session.StatusTranscribed,
				session.StatusGeneratingChapters,
			},
			expected: session.StatusTranscribed,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testsupport.TempConfig(t)
			store := testsupport.OpenStore(t, cfg)
			ctx := context.Background()

			sess := testsupport.NewSession(t, store, cfg, "recover.mp4")
			advance(t, store, sess.ID, tc.path...)

			recovered, err := store.RecoverInFlight(ctx)
			if err != nil {
				t.Fatalf("RecoverInFlight failed: %v", err)
			}
			if recovered != 1 {
				t.Fatalf("expected 1 recovered session, got %d", recovered)
			}

			updated, err := store.GetSession(ctx, sess.ID)
			if err != nil {
				t.Fatalf("GetSession failed: %v", err)
			}
			if updated.Status != tc.expected {
				t.Fatalf("expected %s, got %s", tc.expected, updated.Status)
			}
		})
	}
}

func TestRecoverInFlightDiscardsUploadConfirmation(t *testing.T) {
	cfg := testsupport.TempConfig(t)
	store := testsupport.OpenStore(t, cfg)
	ctx := context.Background()

	sess := testsupport.NewSession(t, store, cfg, "midupload.mp4")
	advance(t, store, sess.ID, pathToConfirmation...)
	if err := store.ConfirmUpload(ctx, sess.ID); err != nil {
		t.Fatalf("ConfirmUpload failed: %v", err)
	}
	advance(t, store, sess.ID, session.StatusUploading)

	if _, err := store.RecoverInFlight(ctx); err != nil {
		t.Fatalf("RecoverInFlight failed: %v", err)
	}

	updated, err := store.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if updated.Status != session.StatusAwaitingConfirmation {
		t.Fatalf("expected awaiting_confirmation, got %s", updated.Status)
	}
	if updated.ConfirmedAt != nil {
		t.Fatal("expected confirmation to be discarded")
	}
}

func TestRecoverInFlightLeavesSettledSessionsAlone(t *testing.T) {
	cfg := testsupport.TempConfig(t)
	store := testsupport.OpenStore(t, cfg)
	ctx := context.Background()

	waiting := testsupport.NewSession(t, store, cfg, "waiting.mp4")
	parked := testsupport.NewSession(t, store, cfg, "parked.mp4")
	advance(t, store, parked.ID,
		session.StatusColorEditing,
		session.StatusColorEdited,
		session.StatusTranscribing,
		session.StatusTranscribed,
		session.StatusGeneratingChapters,
		session.StatusChaptersReady,
	)

	recovered, err := store.RecoverInFlight(ctx)
	if err != nil {
		t.Fatalf("RecoverInFlight failed: %v", err)
	}
	if recovered != 0 {
		t.Fatalf("expected no recovered sessions, got %d", recovered)
	}

	for _, tc := range []struct {
		id       string
		expected session.Status
	}{
		{waiting.ID, session.StatusCreated},
		{parked.ID, session.StatusChaptersReady},
	} {
		sess, err := store.GetSession(ctx, tc.id)
		if err != nil {
			t.Fatalf("GetSession failed: %v", err)
		}
		if sess.Status != tc.expected {
			t.Fatalf("expected %s, got %s", tc.expected, sess.Status)
		}
	}
}

func TestSnapshotDerivesDisplayFlags(t *testing.T) {
	cfg := testsupport.TempConfig(t)
	store := testsupport.OpenStore(t, cfg)
	ctx := context.Background()

	sess := testsupport.NewSession(t, store, cfg, "snapshot.mp4")

	snap, err := store.GetStatus(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetStatus failed: %v", err)
	}
	if snap.TitleSelected || snap.Description || snap.Uploaded {
		t.Fatalf("fresh session should have no display flags: %#v", snap)
	}

	advance(t, store, sess.ID,
		session.StatusColorEditing,
		session.StatusColorEdited,
		session.StatusTranscribing,
		session.StatusTranscribed,
		session.StatusGeneratingChapters,
		session.StatusChaptersReady,
	)
	if err := store.BeginTitleSelection(ctx, sess.ID); err != nil {
		t.Fatalf("BeginTitleSelection failed: %v", err)
	}
	if err := store.SelectTitle(ctx, sess.ID, "A Title"); err != nil {
		t.Fatalf("SelectTitle failed: %v", err)
	}

	snap, err = store.GetStatus(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetStatus failed: %v", err)
	}
	if !snap.TitleSelected {
		t.Fatal("expected title_selected after SelectTitle")
	}
	if snap.Description {
		t.Fatal("description flag set before description step finished")
	}

	if err := store.MarkDescriptionReady(ctx, sess.ID); err != nil {
		t.Fatalf("MarkDescriptionReady failed: %v", err)
	}
	snap, err = store.GetStatus(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetStatus failed: %v", err)
	}
	if !snap.Description {
		t.Fatal("expected description flag at awaiting_confirmation")
	}
}
