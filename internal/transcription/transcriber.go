package transcription

import (
	"context"
	"strings"

	"log/slog"

	"vidpipe/internal/config"
	"vidpipe/internal/logging"
	"vidpipe/internal/notifications"
	"vidpipe/internal/services"
	"vidpipe/internal/services/whisper"
	"vidpipe/internal/session"
	"vidpipe/internal/stage"
	"vidpipe/internal/workspace"
)

const stageName = "transcription"

// Transcriber produces the SRT transcript for the edited recording.
type Transcriber struct {
	store    *session.Store
	cfg      *config.Config
	logger   *slog.Logger
	client   whisper.Client
	notifier notifications.Service
}

// New constructs the transcription stage handler using default dependencies.
func New(cfg *config.Config, store *session.Store, logger *slog.Logger) *Transcriber {
	client := whisper.NewCLI(
		whisper.WithLauncher(cfg.Tools.Launcher),
		whisper.WithBinary(cfg.Tools.Whisper),
	)
	return NewWithDependencies(cfg, store, logger, client, notifications.NewService(cfg))
}

// NewWithDependencies allows injecting collaborators (used in tests).
func NewWithDependencies(cfg *config.Config, store *session.Store, logger *slog.Logger, client whisper.Client, notifier notifications.Service) *Transcriber {
	return &Transcriber{
		store:    store,
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "transcription"),
		client:   client,
		notifier: notifier,
	}
}

// Prepare logs the transcription inputs. The edited video must already be in
// the workspace, either from the color edit stage or the skip alias.
func (t *Transcriber) Prepare(ctx context.Context, sess *session.Session) error {
	logger := logging.WithContext(ctx, t.logger)
	ws := workspace.New(sess.Workspace)
	logger.Info(
		"starting transcription",
		logging.String("edited_file", ws.EditedVideo()),
		logging.String("language", strings.TrimSpace(t.cfg.Tools.Language)),
	)
	return nil
}

// Execute invokes the whisper tool and verifies the transcript it produced.
func (t *Transcriber) Execute(ctx context.Context, sess *session.Session) error {
	logger := logging.WithContext(ctx, t.logger)
	ws := workspace.New(sess.Workspace)

	input := ws.EditedVideo()
	transcript := ws.Transcript()
	if err := stage.RequireArtifact(stageName, "edited video", input); err != nil {
		return err
	}

	t.updateProgress(ctx, sess, "Running speech recognition", 10)
	toolCtx, cancel := services.ToolContext(ctx, t.cfg.Tools.TimeoutSeconds)
	defer cancel()
	if err := t.client.Transcribe(toolCtx, input, transcript, t.cfg.Tools.Language); err != nil {
		return services.Wrap(services.ErrExternalTool, stageName, "run whisper", "Transcription tool failed", err)
	}

	if err := stage.RequireArtifact(stageName, "transcript", transcript); err != nil {
		return err
	}
	logger.Info("transcription completed", logging.String("transcript", transcript))

	if t.notifier != nil {
		if err := t.notifier.NotifyTranscriptionCompleted(ctx, stage.DisplayName(sess)); err != nil {
			logger.Warn("transcription notification failed", logging.Error(err))
		}
	}
	return nil
}

// HealthCheck verifies the whisper tool configuration.
func (t *Transcriber) HealthCheck(ctx context.Context) stage.Health {
	const name = "transcription"
	if t.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if strings.TrimSpace(t.cfg.Tools.Whisper) == "" {
		return stage.Unhealthy(name, "whisper tool not configured")
	}
	if t.client == nil {
		return stage.Unhealthy(name, "whisper client unavailable")
	}
	return stage.Healthy(name)
}

func (t *Transcriber) updateProgress(ctx context.Context, sess *session.Session, message string, percent float64) {
	if err := t.store.SetProgress(ctx, sess.ID, "Transcribing", message, percent); err != nil {
		logging.WithContext(ctx, t.logger).Warn("failed to persist transcription progress", logging.Error(err))
	}
}
