package transcription_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"vidpipe/internal/logging"
	"vidpipe/internal/services"
	"vidpipe/internal/testsupport"
	"vidpipe/internal/transcription"
	"vidpipe/internal/workspace"
)

type stubClient struct {
	err      error
	input    string
	dest     string
	language string
}

func (s *stubClient) Transcribe(_ context.Context, inputPath, destPath, language string) error {
	s.input = inputPath
	s.dest = destPath
	s.language = language
	if s.err != nil {
		return s.err
	}
	return os.WriteFile(destPath, []byte("1\n00:00:00,000 --> 00:00:02,000\nhello\n"), 0o644)
}

func TestTranscriberRunsTool(t *testing.T) {
	cfg := testsupport.TempConfig(t)
	cfg.Tools.Language = "en"
	store := testsupport.OpenStore(t, cfg)
	sess := testsupport.StartedSession(t, store, cfg, "demo.mp4")

	ws := workspace.New(sess.Workspace)
	testsupport.WriteFile(t, ws.EditedVideo(), 2048)

	client := &stubClient{}
	notifier := &testsupport.Notifier{}
	handler := transcription.NewWithDependencies(cfg, store, logging.NewNop(), client, notifier)

	if err := handler.Prepare(context.Background(), sess); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := handler.Execute(context.Background(), sess); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if client.input != ws.EditedVideo() {
		t.Fatalf("unexpected tool input: %q", client.input)
	}
	if client.dest != ws.Transcript() {
		t.Fatalf("unexpected transcript destination: %q", client.dest)
	}
	if client.language != "en" {
		t.Fatalf("unexpected language: %q", client.language)
	}
	if !workspace.ArtifactReady(ws.Transcript()) {
		t.Fatal("expected transcript in workspace")
	}
	if len(notifier.Transcriptions) != 1 || notifier.Transcriptions[0] != "demo.mp4" {
		t.Fatalf("unexpected notifications: %v", notifier.Transcriptions)
	}
}

func TestTranscriberRequiresEditedVideo(t *testing.T) {
	cfg := testsupport.TempConfig(t)
	store := testsupport.OpenStore(t, cfg)
	sess := testsupport.StartedSession(t, store, cfg, "demo.mp4")

	handler := transcription.NewWithDependencies(cfg, store, logging.NewNop(), &stubClient{}, nil)
	err := handler.Execute(context.Background(), sess)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestTranscriberWrapsToolFailures(t *testing.T) {
	cfg := testsupport.TempConfig(t)
	store := testsupport.OpenStore(t, cfg)
	sess := testsupport.StartedSession(t, store, cfg, "demo.mp4")

	ws := workspace.New(sess.Workspace)
	testsupport.WriteFile(t, ws.EditedVideo(), 2048)

	client := &stubClient{err: errors.New("model download failed")}
	handler := transcription.NewWithDependencies(cfg, store, logging.NewNop(), client, nil)
	err := handler.Execute(context.Background(), sess)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestTranscriberRejectsEmptyTranscript(t *testing.T) {
	cfg := testsupport.TempConfig(t)
	store := testsupport.OpenStore(t, cfg)
	sess := testsupport.StartedSession(t, store, cfg, "demo.mp4")

	ws := workspace.New(sess.Workspace)
	testsupport.WriteFile(t, ws.EditedVideo(), 2048)

	handler := transcription.NewWithDependencies(cfg, store, logging.NewNop(), emptyTranscriptClient{}, nil)
	err := handler.Execute(context.Background(), sess)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for empty transcript, got %v", err)
	}
}

type emptyTranscriptClient struct{}

func (emptyTranscriptClient) Transcribe(_ context.Context, _, destPath, _ string) error {
	return os.WriteFile(destPath, nil, 0o644)
}

func TestTranscriberHealthCheck(t *testing.T) {
	cfg := testsupport.TempConfig(t)
	store := testsupport.OpenStore(t, cfg)

	handler := transcription.NewWithDependencies(cfg, store, logging.NewNop(), &stubClient{}, nil)
	if health := handler.HealthCheck(context.Background()); !health.Ready {
		t.Fatalf("expected healthy handler, got %q", health.Detail)
	}

	cfg.Tools.Whisper = " "
	if health := handler.HealthCheck(context.Background()); health.Ready {
		t.Fatal("expected unhealthy handler without tool name")
	}
}
