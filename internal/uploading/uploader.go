package uploading

import (
	"context"
	"strings"

	"log/slog"

	"vidpipe/internal/config"
	"vidpipe/internal/fileutil"
	"vidpipe/internal/logging"
	"vidpipe/internal/notifications"
	"vidpipe/internal/services"
	"vidpipe/internal/services/ytupload"
	"vidpipe/internal/session"
	"vidpipe/internal/stage"
	"vidpipe/internal/workspace"
)

const stageName = "upload"

// Uploader publishes the finished video to YouTube.
type Uploader struct {
	store    *session.Store
	cfg      *config.Config
	logger   *slog.Logger
	client   ytupload.Client
	notifier notifications.Service
}

// New constructs the upload stage handler using default dependencies.
func New(cfg *config.Config, store *session.Store, logger *slog.Logger) *Uploader {
	client := ytupload.NewCLI(
		ytupload.WithLauncher(cfg.Tools.Launcher),
		ytupload.WithBinary(cfg.Tools.Uploader),
	)
	return NewWithDependencies(cfg, store, logger, client, notifications.NewService(cfg))
}

// NewWithDependencies allows injecting collaborators (used in tests).
func NewWithDependencies(cfg *config.Config, store *session.Store, logger *slog.Logger, client ytupload.Client, notifier notifications.Service) *Uploader {
	return &Uploader{
		store:    store,
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "uploading"),
		client:   client,
		notifier: notifier,
	}
}

// Prepare stages upload credentials into the session workspace. The upload
// tool resolves client_secrets.json and token.pickle from its working
// directory, so sessions without their own copies get the configured
// fallbacks.
func (u *Uploader) Prepare(ctx context.Context, sess *session.Session) error {
	logger := logging.WithContext(ctx, u.logger)
	ws := workspace.New(sess.Workspace)

	if !workspace.ArtifactReady(ws.ClientSecrets()) {
		fallback := strings.TrimSpace(u.cfg.Credentials.ClientSecretsFile)
		if fallback == "" || !workspace.ArtifactReady(fallback) {
			return services.Wrap(
				services.ErrConfiguration, stageName, "stage credentials",
				"YouTube client secrets not found; add client_secrets.json to the session or set credentials.client_secrets_file", nil)
		}
		if err := fileutil.CopyWithMode(fallback, ws.ClientSecrets(), 0o600); err != nil {
			return services.Wrap(services.ErrTransient, stageName, "stage credentials", "Failed to copy client secrets into workspace", err)
		}
		logger.Info("staged fallback client secrets", logging.String("source", fallback))
	}

	if !workspace.ArtifactReady(ws.Token()) {
		if fallback := strings.TrimSpace(u.cfg.Credentials.TokenFile); fallback != "" && workspace.ArtifactReady(fallback) {
			if err := fileutil.CopyWithMode(fallback, ws.Token(), 0o600); err != nil {
				return services.Wrap(services.ErrTransient, stageName, "stage credentials", "Failed to copy OAuth token into workspace", err)
			}
			logger.Info("staged fallback oauth token", logging.String("source", fallback))
		}
		// No token means the upload tool runs its own OAuth flow.
	}

	return nil
}

// Execute invokes the upload tool and records the resulting video ID. Reruns
// of an already uploaded session return immediately.
func (u *Uploader) Execute(ctx context.Context, sess *session.Session) error {
	logger := logging.WithContext(ctx, u.logger)

	if sess.Uploaded && strings.TrimSpace(sess.VideoID) != "" {
		logger.Info("session already uploaded", logging.String("video_id", sess.VideoID))
		return nil
	}

	title := strings.TrimSpace(sess.Title)
	if title == "" {
		return services.Wrap(
			services.ErrValidation, stageName, "validate inputs",
			"No title selected for upload; select a title before confirming", nil)
	}

	ws := workspace.New(sess.Workspace)
	if err := stage.RequireArtifact(stageName, "edited video", ws.EditedVideo()); err != nil {
		return err
	}
	if err := stage.RequireArtifact(stageName, "transcript", ws.Transcript()); err != nil {
		return err
	}
	if err := stage.RequireArtifact(stageName, "description", ws.Description()); err != nil {
		return err
	}

	req := ytupload.Request{
		VideoPath:       ws.EditedVideo(),
		TranscriptPath:  ws.Transcript(),
		DescriptionPath: ws.Description(),
		Title:           title,
		WorkDir:         ws.Path(),
	}
	if workspace.ArtifactReady(ws.Thumbnail()) {
		req.ThumbnailPath = ws.Thumbnail()
	}

	u.updateProgress(ctx, sess, "Uploading to YouTube", 10)
	logger.Info(
		"starting upload",
		logging.String("title", title),
		logging.Bool("thumbnail", req.ThumbnailPath != ""),
	)

	toolCtx, cancel := services.ToolContext(ctx, u.cfg.Tools.TimeoutSeconds)
	defer cancel()
	videoID, err := u.client.Upload(toolCtx, req)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, stageName, "run uploader", "YouTube upload failed", err)
	}

	if err := u.store.SetVideoID(ctx, sess.ID, videoID); err != nil {
		return services.Wrap(services.ErrTransient, stageName, "record video id", "Upload succeeded but the video id could not be saved", err)
	}
	sess.VideoID = videoID
	logger.Info("upload completed", logging.String("video_id", videoID))

	if u.notifier != nil {
		if err := u.notifier.NotifyUploadCompleted(ctx, title, videoID); err != nil {
			logger.Warn("upload notification failed", logging.Error(err))
		}
	}
	return nil
}

// HealthCheck verifies the upload tool configuration.
func (u *Uploader) HealthCheck(ctx context.Context) stage.Health {
	const name = "uploading"
	if u.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if strings.TrimSpace(u.cfg.Tools.Uploader) == "" {
		return stage.Unhealthy(name, "upload tool not configured")
	}
	if u.client == nil {
		return stage.Unhealthy(name, "upload client unavailable")
	}
	return stage.Healthy(name)
}

func (u *Uploader) updateProgress(ctx context.Context, sess *session.Session, message string, percent float64) {
	if err := u.store.SetProgress(ctx, sess.ID, "Uploading", message, percent); err != nil {
		logging.WithContext(ctx, u.logger).Warn("failed to persist upload progress", logging.Error(err))
	}
}
