package chaptering

import (
	"context"
	"os"
	"strings"

	"log/slog"

	"vidpipe/internal/config"
	"vidpipe/internal/logging"
	"vidpipe/internal/notifications"
	"vidpipe/internal/services"
	"vidpipe/internal/services/chaptermaker"
	"vidpipe/internal/session"
	"vidpipe/internal/stage"
	"vidpipe/internal/workspace"
)

const stageName = "chapters"

// ClientFactory builds a chapter maker client bound to an API key. The key is
// resolved per session because web sessions can carry their own key file.
type ClientFactory func(apiKey string) chaptermaker.Client

// Generator turns the transcript into chapter markers and title suggestions.
type Generator struct {
	store     *session.Store
	cfg       *config.Config
	logger    *slog.Logger
	newClient ClientFactory
	notifier  notifications.Service
}

// New constructs the chapter generation stage handler using default dependencies.
func New(cfg *config.Config, store *session.Store, logger *slog.Logger) *Generator {
	factory := func(apiKey string) chaptermaker.Client {
		return chaptermaker.NewCLI(
			chaptermaker.WithLauncher(cfg.Tools.Launcher),
			chaptermaker.WithBinary(cfg.Tools.ChapterMaker),
			chaptermaker.WithAPIKey(apiKey),
		)
	}
	return NewWithDependencies(cfg, store, logger, factory, notifications.NewService(cfg))
}

// NewWithDependencies allows injecting collaborators (used in tests).
func NewWithDependencies(cfg *config.Config, store *session.Store, logger *slog.Logger, factory ClientFactory, notifier notifications.Service) *Generator {
	return &Generator{
		store:     store,
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "chaptering"),
		newClient: factory,
		notifier:  notifier,
	}
}

// Prepare resolves the OpenAI API key so configuration problems surface
// before the tool runs.
func (g *Generator) Prepare(ctx context.Context, sess *session.Session) error {
	logger := logging.WithContext(ctx, g.logger)
	ws := workspace.New(sess.Workspace)
	key, source, err := g.resolveAPIKey(ws)
	if err != nil {
		return err
	}
	logger.Info(
		"starting chapter generation",
		logging.String("transcript", ws.Transcript()),
		logging.String("api_key_source", source),
		logging.Bool("api_key_from_file", key != ""),
	)
	return nil
}

// Execute invokes the chapter tool, validates the document it wrote, and
// records that title suggestions were extracted.
func (g *Generator) Execute(ctx context.Context, sess *session.Session) error {
	logger := logging.WithContext(ctx, g.logger)
	ws := workspace.New(sess.Workspace)

	transcript := ws.Transcript()
	if err := stage.RequireArtifact(stageName, "transcript", transcript); err != nil {
		return err
	}
	key, _, err := g.resolveAPIKey(ws)
	if err != nil {
		return err
	}

	g.updateProgress(ctx, sess, "Generating chapters and titles", 10)
	toolCtx, cancel := services.ToolContext(ctx, g.cfg.Tools.TimeoutSeconds)
	defer cancel()
	client := g.newClient(key)
	if err := client.Generate(toolCtx, transcript, ws.Chapters()); err != nil {
		return services.Wrap(services.ErrExternalTool, stageName, "run chapter maker", "Chapter generation tool failed", err)
	}

	doc, err := chaptermaker.LoadDocument(ws.Chapters())
	if err != nil {
		return services.Wrap(services.ErrExternalTool, stageName, "parse chapters", "Chapter tool wrote an unreadable chapters file", err)
	}

	if err := g.store.SetStageComplete(ctx, sess.ID, session.StageTitles); err != nil {
		return services.Wrap(services.ErrTransient, stageName, "record titles", "Failed to record extracted titles", err)
	}

	logger.Info(
		"chapter generation completed",
		logging.Int("chapters", len(doc.Chapters)),
		logging.Int("suggested_titles", len(doc.SuggestedTitles)),
	)

	if g.notifier != nil {
		if err := g.notifier.NotifyChaptersReady(ctx, stage.DisplayName(sess), len(doc.SuggestedTitles)); err != nil {
			logger.Warn("chapters notification failed", logging.Error(err))
		}
	}
	return nil
}

// HealthCheck verifies the chapter maker configuration.
func (g *Generator) HealthCheck(ctx context.Context) stage.Health {
	const name = "chaptering"
	if g.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if strings.TrimSpace(g.cfg.Tools.ChapterMaker) == "" {
		return stage.Unhealthy(name, "chapter maker tool not configured")
	}
	if g.newClient == nil {
		return stage.Unhealthy(name, "chapter maker client unavailable")
	}
	return stage.Healthy(name)
}

// resolveAPIKey finds the OpenAI key for this session. Order: key file in the
// session workspace, then the configured fallback file, then the inherited
// OPENAI_API_KEY environment variable. An empty return with nil error means
// the tool inherits the key from the environment.
func (g *Generator) resolveAPIKey(ws workspace.Dir) (string, string, error) {
	if workspace.ArtifactReady(ws.APIKey()) {
		key, err := readKeyFile(ws.APIKey())
		if err != nil {
			return "", "", err
		}
		if key != "" {
			return key, "session", nil
		}
	}
	if path := strings.TrimSpace(g.cfg.Credentials.OpenAIAPIKeyFile); path != "" && workspace.ArtifactReady(path) {
		key, err := readKeyFile(path)
		if err != nil {
			return "", "", err
		}
		if key != "" {
			return key, "config", nil
		}
	}
	if strings.TrimSpace(os.Getenv("OPENAI_API_KEY")) != "" {
		return "", "environment", nil
	}
	return "", "", services.Wrap(
		services.ErrConfiguration, stageName, "resolve api key",
		"OpenAI API key not found; add openai_api_key.txt to the session or set credentials.openai_api_key_file", nil)
}

func readKeyFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, stageName, "read api key", "Failed to read OpenAI API key file", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (g *Generator) updateProgress(ctx context.Context, sess *session.Session, message string, percent float64) {
	if err := g.store.SetProgress(ctx, sess.ID, "Generating Chapters", message, percent); err != nil {
		logging.WithContext(ctx, g.logger).Warn("failed to persist chapter progress", logging.Error(err))
	}
}
