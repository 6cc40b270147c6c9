package colorediting

import (
	"context"
	"strings"

	"log/slog"

	"vidpipe/internal/config"
	"vidpipe/internal/logging"
	"vidpipe/internal/notifications"
	"vidpipe/internal/services"
	"vidpipe/internal/services/coloredit"
	"vidpipe/internal/session"
	"vidpipe/internal/stage"
	"vidpipe/internal/workspace"
)

const stageName = "color_edit"

// Editor runs the automated color correction pass over the source recording.
type Editor struct {
	store    *session.Store
	cfg      *config.Config
	logger   *slog.Logger
	client   coloredit.Client
	notifier notifications.Service
}

// New constructs the color editing stage handler using default dependencies.
func New(cfg *config.Config, store *session.Store, logger *slog.Logger) *Editor {
	client := coloredit.NewCLI(
		coloredit.WithLauncher(cfg.Tools.Launcher),
		coloredit.WithBinary(cfg.Tools.ColorEdit),
	)
	return NewWithDependencies(cfg, store, logger, client, notifications.NewService(cfg))
}

// NewWithDependencies allows injecting collaborators (used in tests).
func NewWithDependencies(cfg *config.Config, store *session.Store, logger *slog.Logger, client coloredit.Client, notifier notifications.Service) *Editor {
	return &Editor{
		store:    store,
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "colorediting"),
		client:   client,
		notifier: notifier,
	}
}

// Prepare stages the source recording into the session workspace.
func (e *Editor) Prepare(ctx context.Context, sess *session.Session) error {
	logger := logging.WithContext(ctx, e.logger)
	ws := workspace.New(sess.Workspace)

	if !workspace.ArtifactReady(sess.SourcePath) && !workspace.ArtifactReady(ws.SourceVideo()) {
		return services.Wrap(
			services.ErrValidation, stageName, "stage source",
			"Source recording is missing or empty; restore the file and retry", nil)
	}
	if err := ws.MaterializeSource(sess.SourcePath); err != nil {
		return services.Wrap(services.ErrTransient, stageName, "stage source", "Failed to copy source into workspace", err)
	}

	logger.Info(
		"source staged for color edit",
		logging.String("source_file", strings.TrimSpace(sess.SourcePath)),
		logging.String("workspace", sess.Workspace),
	)
	return nil
}

// Execute invokes the color_edit tool and verifies its output.
func (e *Editor) Execute(ctx context.Context, sess *session.Session) error {
	logger := logging.WithContext(ctx, e.logger)
	ws := workspace.New(sess.Workspace)

	input := ws.SourceVideo()
	output := ws.EditedVideo()
	if err := stage.RequireArtifact(stageName, "source video", input); err != nil {
		return err
	}

	e.updateProgress(ctx, sess, "Running color correction", 10)
	logger.Info("running color edit", logging.String("input", input), logging.String("output", output))

	toolCtx, cancel := services.ToolContext(ctx, e.cfg.Tools.TimeoutSeconds)
	defer cancel()
	if err := e.client.Edit(toolCtx, input, output, e.cfg.Tools.VolumeThreshold); err != nil {
		return services.Wrap(services.ErrExternalTool, stageName, "run color_edit", "Color correction tool failed", err)
	}

	if err := stage.RequireArtifact(stageName, "edited video", output); err != nil {
		return err
	}
	logger.Info("color edit completed", logging.String("edited_file", output))

	if e.notifier != nil {
		if err := e.notifier.NotifyColorEditCompleted(ctx, stage.DisplayName(sess)); err != nil {
			logger.Warn("color edit notification failed", logging.Error(err))
		}
	}
	return nil
}

// HealthCheck verifies the color edit tool configuration.
func (e *Editor) HealthCheck(ctx context.Context) stage.Health {
	const name = "colorediting"
	if e.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if strings.TrimSpace(e.cfg.Tools.ColorEdit) == "" {
		return stage.Unhealthy(name, "color edit tool not configured")
	}
	if e.client == nil {
		return stage.Unhealthy(name, "color edit client unavailable")
	}
	return stage.Healthy(name)
}

func (e *Editor) updateProgress(ctx context.Context, sess *session.Session, message string, percent float64) {
	if err := e.store.SetProgress(ctx, sess.ID, "Color Editing", message, percent); err != nil {
		logging.WithContext(ctx, e.logger).Warn("failed to persist color edit progress", logging.Error(err))
	}
}
