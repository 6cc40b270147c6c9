package workflow_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"vidpipe/internal/config"
	"vidpipe/internal/logging"
	"vidpipe/internal/services"
	"vidpipe/internal/session"
	"vidpipe/internal/stage"
	"vidpipe/internal/testsupport"
	"vidpipe/internal/workflow"
	"vidpipe/internal/workspace"
)

type fakeStage struct {
	name       string
	prepErr error
	execErr error
	health     stage.Health

	mu       sync.Mutex
	runs int
}

func newFakeStage(name string) *fakeStage {
	return &fakeStage{name: name, health: stage.Healthy(name)}
}

func (s *fakeStage) Prepare(context.Context, *session.Session) error {
	return s.prepErr
}

func (s *fakeStage) Execute(context.Context, *session.Session) error {
	s.mu.Lock()
	s.runs++
	s.mu.Unlock()
	return s.execErr
}

func (s *fakeStage) HealthCheck(context.Context) stage.Health {
	return s.health
}

func (s *fakeStage) runCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs
}

func newManager(cfg *config.Config, store *session.Store, notifier *testsupport.Notifier) (*workflow.Manager, *fakeStage, *fakeStage, *fakeStage) {
	editor := newFakeStage("color_edit")
	transcriber := newFakeStage("transcription")
	generator := newFakeStage("chapters")
	mgr := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), notifier)
	mgr.ConfigureStages(workflow.StageSet{
		ColorEditor:      editor,
		Transcriber:      transcriber,
		ChapterGenerator: generator,
		Uploader:         newFakeStage("upload"),
	})
	return mgr, editor, transcriber, generator
}

func waitForStatus(t *testing.T, store *session.Store, id string, want session.Status) *session.Session {
	t.Helper()
	deadline := time.After(20 * time.Second)
	for {
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for status %s", want)
		default:
		}
		sess, err := store.GetSession(context.Background(), id)
		if err != nil {
			t.Fatalf("get session: %v", err)
		}
		if sess != nil && sess.Status == want {
			return sess
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestManagerRunsSessionsToChaptersReady(t *testing.T) {
	cfg := testsupport.TempConfig(t)
	store := testsupport.OpenStore(t, cfg)

	notifier := &testsupport.Notifier{}
	mgr, editor, transcriber, generator := newManager(cfg, store, notifier)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(mgr.Stop)

	sess := testsupport.NewSession(t, store, cfg, "demo.mp4")
	if err := workflow.Begin(ctx, store, sess, false); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	final := waitForStatus(t, store, sess.ID, session.StatusChaptersReady)
	if !final.ColorEditDone || !final.TranscriptionDone || !final.ChaptersDone {
		t.Fatalf("expected all stage flags set, got %+v", final)
	}
	if editor.runCount() != 1 || transcriber.runCount() != 1 || generator.runCount() != 1 {
		t.Fatalf("unexpected execution counts: %d %d %d",
			editor.runCount(), transcriber.runCount(), generator.runCount())
	}
	if final.StartedAt == nil {
		t.Fatal("expected started_at stamp")
	}
}

func TestManagerSkipsColorEditWhenRequested(t *testing.T) {
	cfg := testsupport.TempConfig(t)
	store := testsupport.OpenStore(t, cfg)

	mgr, editor, _, _ := newManager(cfg, store, &testsupport.Notifier{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(mgr.Stop)

	sess := testsupport.NewSession(t, store, cfg, "demo.mp4")
	if err := workflow.Begin(ctx, store, sess, true); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	final := waitForStatus(t, store, sess.ID, session.StatusChaptersReady)
	if !final.ColorEditDone {
		t.Fatal("expected color edit flag from skip composition")
	}
	if editor.runCount() != 0 {
		t.Fatalf("color edit stage must not run when skipped, ran %d times", editor.runCount())
	}

	ws := workspace.New(sess.Workspace)
	if !workspace.ArtifactReady(ws.EditedVideo()) {
		t.Fatal("expected source aliased as edited video")
	}
}

func TestManagerLeavesUnstartedSessionsAlone(t *testing.T) {
	cfg := testsupport.TempConfig(t)
	store := testsupport.OpenStore(t, cfg)

	mgr, editor, _, _ := newManager(cfg, store, &testsupport.Notifier{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(mgr.Stop)

	sess := testsupport.NewSession(t, store, cfg, "demo.mp4")
	time.Sleep(250 * time.Millisecond)

	stored, err := store.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if stored.Status != session.StatusCreated {
		t.Fatalf("unstarted session must stay created, got %s", stored.Status)
	}
	if editor.runCount() != 0 {
		t.Fatal("unstarted session must not be processed")
	}
}

func TestManagerRecordsStageFailures(t *testing.T) {
	cfg := testsupport.TempConfig(t)
	store := testsupport.OpenStore(t, cfg)

	notifier := &testsupport.Notifier{}
	mgr, _, transcriber, _ := newManager(cfg, store, notifier)
	transcriber.execErr = services.Wrap(services.ErrExternalTool, "transcription", "run whisper", "exit status 1", nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(mgr.Stop)

	sess := testsupport.NewSession(t, store, cfg, "demo.mp4")
	if err := workflow.Begin(ctx, store, sess, false); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	final := waitForStatus(t, store, sess.ID, session.StatusFailed)
	if final.ErrorStage != "transcription" {
		t.Fatalf("unexpected error stage: %q", final.ErrorStage)
	}
	if final.ErrorMessage != "exit status 1" {
		t.Fatalf("unexpected error message: %q", final.ErrorMessage)
	}
	if !final.ColorEditDone {
		t.Fatal("color edit flag should survive the later failure")
	}

	if len(notifier.Errors) == 0 {
		t.Fatal("expected error notification")
	}
}

func TestManagerStatusSummary(t *testing.T) {
	cfg := testsupport.TempConfig(t)
	store := testsupport.OpenStore(t, cfg)

	mgr, _, _, _ := newManager(cfg, store, &testsupport.Notifier{})
	summary := mgr.Status(context.Background())
	if summary.Running {
		t.Fatal("manager should not report running before Start")
	}
	if len(summary.StageHealth) != 4 {
		t.Fatalf("expected four stage health records, got %d", len(summary.StageHealth))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(mgr.Stop)

	summary = mgr.Status(context.Background())
	if !summary.Running {
		t.Fatal("manager should report running after Start")
	}
	if summary.SessionStats == nil {
		t.Fatal("expected session stats map")
	}
}

func TestManagerStartRequiresStages(t *testing.T) {
	cfg := testsupport.TempConfig(t)
	store := testsupport.OpenStore(t, cfg)

	mgr := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), &testsupport.Notifier{})
	if err := mgr.Start(context.Background()); err == nil {
		mgr.Stop()
		t.Fatal("expected error when no stages are configured")
	}
}

func TestManagerStartRecoversInFlightSessions(t *testing.T) {
	cfg := testsupport.TempConfig(t)
	store := testsupport.OpenStore(t, cfg)

	sess := testsupport.StartedSession(t, store, cfg, "demo.mp4")
	if err := store.UpdateStatus(context.Background(), sess.ID, session.StatusCreated, session.StatusColorEditing); err != nil {
		t.Fatalf("set processing: %v", err)
	}

	editor := newFakeStage("color_edit")
	mgr := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), &testsupport.Notifier{})
	mgr.ConfigureStages(workflow.StageSet{ColorEditor: editor})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(mgr.Stop)

	// Recovery rolls the session back to created, then the worker reruns it.
	final := waitForStatus(t, store, sess.ID, session.StatusColorEdited)
	if final.ProgressStage == "" {
		t.Fatal("expected progress stage after recovery rerun")
	}
	if editor.runCount() != 1 {
		t.Fatalf("expected one rerun, got %d", editor.runCount())
	}
}

func TestUploadRunsConfirmedSession(t *testing.T) {
	cfg := testsupport.TempConfig(t)
	store := testsupport.OpenStore(t, cfg)
	sess := testsupport.StartedSession(t, store, cfg, "demo.mp4")
	advanceToAwaitingConfirmation(t, store, sess.ID)

	if err := store.ConfirmUpload(context.Background(), sess.ID); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	uploader := newFakeStage("upload")
	err := workflow.Upload(context.Background(), logging.NewNop(), store, &testsupport.Notifier{}, uploader, sess.ID)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	final, err := store.GetSession(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if final.Status != session.StatusUploaded {
		t.Fatalf("expected uploaded, got %s", final.Status)
	}
	if !final.Uploaded {
		t.Fatal("expected uploaded flag")
	}
	if uploader.runCount() != 1 {
		t.Fatalf("expected one upload execution, got %d", uploader.runCount())
	}
}

func TestUploadRequiresConfirmation(t *testing.T) {
	cfg := testsupport.TempConfig(t)
	store := testsupport.OpenStore(t, cfg)
	sess := testsupport.StartedSession(t, store, cfg, "demo.mp4")
	advanceToAwaitingConfirmation(t, store, sess.ID)

	uploader := newFakeStage("upload")
	err := workflow.Upload(context.Background(), logging.NewNop(), store, nil, uploader, sess.ID)
	if err == nil {
		t.Fatal("expected error for unconfirmed session")
	}
	if uploader.runCount() != 0 {
		t.Fatal("upload must not run without confirmation")
	}
}

func TestUploadRejectsWrongStatus(t *testing.T) {
	cfg := testsupport.TempConfig(t)
	store := testsupport.OpenStore(t, cfg)
	sess := testsupport.StartedSession(t, store, cfg, "demo.mp4")

	err := workflow.Upload(context.Background(), logging.NewNop(), store, nil, newFakeStage("upload"), sess.ID)
	var invalid *session.InvalidTransitionError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected invalid transition error, got %v", err)
	}
}

func advanceToChaptersReady(t *testing.T, store *session.Store, id string) {
	t.Helper()
	ctx := context.Background()
	steps := []struct {
		from session.Status
		to   session.Status
	}{
		{session.StatusCreated, session.StatusColorEditing},
		{session.StatusColorEditing, session.StatusColorEdited},
		{session.StatusColorEdited, session.StatusTranscribing},
		{session.StatusTranscribing, session.StatusTranscribed},
		{session.StatusTranscribed, session.StatusGeneratingChapters},
		{session.StatusGeneratingChapters, session.StatusChaptersReady},
	}
	for _, step := range steps {
		if err := store.UpdateStatus(ctx, id, step.from, step.to); err != nil {
			t.Fatalf("advance %s -> %s: %v", step.from, step.to, err)
		}
	}
}

func advanceToAwaitingConfirmation(t *testing.T, store *session.Store, id string) {
	t.Helper()
	ctx := context.Background()
	advanceToChaptersReady(t, store, id)
	if err := store.BeginTitleSelection(ctx, id); err != nil {
		t.Fatalf("begin title selection: %v", err)
	}
	if err := store.SelectTitle(ctx, id, "Chosen Title"); err != nil {
		t.Fatalf("select title: %v", err)
	}
	if err := store.MarkDescriptionReady(ctx, id); err != nil {
		t.Fatalf("mark description ready: %v", err)
	}
}
