package colorediting_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"vidpipe/internal/colorediting"
	"vidpipe/internal/logging"
	"vidpipe/internal/services"
	"vidpipe/internal/testsupport"
	"vidpipe/internal/workspace"
)

type stubClient struct {
	err       error
	input     string
	output    string
	threshold string
}

func (s *stubClient) Edit(_ context.Context, inputPath, outputPath, volumeThreshold string) error {
	s.input = inputPath
	s.output = outputPath
	s.threshold = volumeThreshold
	if s.err != nil {
		return s.err
	}
	return os.WriteFile(outputPath, []byte("corrected frames"), 0o644)
}

func TestEditorStagesSourceAndRunsTool(t *testing.T) {
	cfg := testsupport.TempConfig(t)
	store := testsupport.OpenStore(t, cfg)
	sess := testsupport.StartedSession(t, store, cfg, "demo.mp4")

	client := &stubClient{}
	notifier := &testsupport.Notifier{}
	handler := colorediting.NewWithDependencies(cfg, store, logging.NewNop(), client, notifier)

	if err := handler.Prepare(context.Background(), sess); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	ws := workspace.New(sess.Workspace)
	if !workspace.ArtifactReady(ws.SourceVideo()) {
		t.Fatal("expected source staged into workspace")
	}

	if err := handler.Execute(context.Background(), sess); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if client.input != ws.SourceVideo() {
		t.Fatalf("unexpected tool input: %q", client.input)
	}
	if client.output != ws.EditedVideo() {
		t.Fatalf("unexpected tool output: %q", client.output)
	}
	if client.threshold != cfg.Tools.VolumeThreshold {
		t.Fatalf("unexpected volume threshold: %q", client.threshold)
	}
	if !workspace.ArtifactReady(ws.EditedVideo()) {
		t.Fatal("expected edited video in workspace")
	}
	if len(notifier.ColorEdits) != 1 || notifier.ColorEdits[0] != "demo.mp4" {
		t.Fatalf("unexpected notifications: %v", notifier.ColorEdits)
	}
}

func TestEditorPrepareIsIdempotent(t *testing.T) {
	cfg := testsupport.TempConfig(t)
	store := testsupport.OpenStore(t, cfg)
	sess := testsupport.StartedSession(t, store, cfg, "demo.mp4")

	handler := colorediting.NewWithDependencies(cfg, store, logging.NewNop(), &stubClient{}, nil)
	if err := handler.Prepare(context.Background(), sess); err != nil {
		t.Fatalf("first Prepare: %v", err)
	}

	// The original may disappear once the workspace holds its copy.
	if err := os.Remove(sess.SourcePath); err != nil {
		t.Fatalf("remove source: %v", err)
	}
	if err := handler.Prepare(context.Background(), sess); err != nil {
		t.Fatalf("second Prepare: %v", err)
	}
}

func TestEditorPrepareRejectsMissingSource(t *testing.T) {
	cfg := testsupport.TempConfig(t)
	store := testsupport.OpenStore(t, cfg)
	sess := testsupport.StartedSession(t, store, cfg, "demo.mp4")

	if err := os.Remove(sess.SourcePath); err != nil {
		t.Fatalf("remove source: %v", err)
	}

	handler := colorediting.NewWithDependencies(cfg, store, logging.NewNop(), &stubClient{}, nil)
	err := handler.Prepare(context.Background(), sess)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestEditorExecuteWrapsToolFailures(t *testing.T) {
	cfg := testsupport.TempConfig(t)
	store := testsupport.OpenStore(t, cfg)
	sess := testsupport.StartedSession(t, store, cfg, "demo.mp4")

	client := &stubClient{err: errors.New("no audio track")}
	handler := colorediting.NewWithDependencies(cfg, store, logging.NewNop(), client, nil)

	if err := handler.Prepare(context.Background(), sess); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	err := handler.Execute(context.Background(), sess)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestEditorHealthCheck(t *testing.T) {
	cfg := testsupport.TempConfig(t)
	store := testsupport.OpenStore(t, cfg)

	handler := colorediting.NewWithDependencies(cfg, store, logging.NewNop(), &stubClient{}, nil)
	if health := handler.HealthCheck(context.Background()); !health.Ready {
		t.Fatalf("expected healthy handler, got %q", health.Detail)
	}

	cfg.Tools.ColorEdit = ""
	if health := handler.HealthCheck(context.Background()); health.Ready {
		t.Fatal("expected unhealthy handler without tool name")
	}
}
