package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"vidpipe/internal/chaptering"
	"vidpipe/internal/colorediting"
	"vidpipe/internal/config"
	"vidpipe/internal/logging"
	"vidpipe/internal/notifications"
	"vidpipe/internal/session"
	"vidpipe/internal/stage"
	"vidpipe/internal/stageexec"
	"vidpipe/internal/transcription"
	"vidpipe/internal/uploading"
	"vidpipe/internal/workflow"
	"vidpipe/internal/workspace"
)

type runOptions struct {
	autoConfirm     bool
	skipColorEdit   bool
	volumeThreshold string
	sessionID       string
}

// pipelineRunner drives one session through the automated stages, the human
// steps, and the upload in the current process.
type pipelineRunner struct {
	cfg      *config.Config
	store    *session.Store
	logger   *slog.Logger
	notifier notifications.Service

	colorEditor      stage.Handler
	transcriber      stage.Handler
	chapterGenerator stage.Handler
	uploader         stage.Handler

	in          *bufio.Scanner
	out         io.Writer
	progressBar bool
}

func runPipeline(cmd *cobra.Command, cmdCtx *cliContext, opts *runOptions, args []string) error {
	cfg, err := cmdCtx.loadConfig()
	if err != nil {
		return err
	}
	if threshold := strings.TrimSpace(opts.volumeThreshold); threshold != "" {
		if _, err := strconv.ParseFloat(threshold, 64); err != nil {
			return fmt.Errorf("--volume-threshold %q is not a number", threshold)
		}
		cfg.Tools.VolumeThreshold = threshold
	}
	if opts.skipColorEdit {
		cfg.Pipeline.SkipColorEdit = true
	}
	if opts.autoConfirm {
		cfg.Pipeline.AutoConfirm = true
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	out := cmd.OutOrStdout()
	tty := isTerminal(out)

	logger, err := buildRunLogger(cfg, tty)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	store, err := session.Open(cfg)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	defer store.Close()

	runner := &pipelineRunner{
		cfg:              cfg,
		store:            store,
		logger:           logger,
		notifier:         notifications.NewService(cfg),
		colorEditor:      colorediting.New(cfg, store, logger),
		transcriber:      transcription.New(cfg, store, logger),
		chapterGenerator: chaptering.New(cfg, store, logger),
		uploader:         uploading.New(cfg, store, logger),
		in:               bufio.NewScanner(cmd.InOrStdin()),
		out:              out,
		progressBar:      tty,
	}

	sess, err := runner.obtainSession(ctx, opts, args)
	if err != nil {
		return err
	}

	if sess.Status == session.StatusUploaded {
		runner.printUploadResult(sess)
		return nil
	}

	if err := checkRunCredentials(out, cfg, sess); err != nil {
		return err
	}

	if err := runner.runAutomatedStages(ctx, sess); err != nil {
		fmt.Fprintf(out, "\nSession %s failed: %v\n", logging.ShortSessionID(sess.ID), err)
		fmt.Fprintf(out, "Fix the cause and resume with: video_pipeline --session %s\n", sess.ID)
		return err
	}

	proceed, err := runner.humanSteps(ctx, sess)
	if err != nil {
		return err
	}
	if !proceed {
		return nil
	}

	if err := runner.runUpload(ctx, sess); err != nil {
		fmt.Fprintf(out, "\nUpload failed: %v\n", err)
		fmt.Fprintf(out, "Resume with: video_pipeline --session %s\n", sess.ID)
		return err
	}

	refreshed, err := store.GetSession(ctx, sess.ID)
	if err == nil && refreshed != nil {
		sess = refreshed
	}
	runner.printUploadResult(sess)
	return nil
}

// obtainSession resolves the target session: --session resumes an existing
// one (retrying it first when it failed), otherwise a session is created for
// the input file and started.
func (r *pipelineRunner) obtainSession(ctx context.Context, opts *runOptions, args []string) (*session.Session, error) {
	if id := strings.TrimSpace(opts.sessionID); id != "" {
		sess, err := r.store.GetSession(ctx, id)
		if err != nil {
			return nil, err
		}
		if sess == nil {
			return nil, fmt.Errorf("session %s not found", id)
		}
		if sess.Status == session.StatusFailed {
			restarted, err := r.store.Retry(ctx, id)
			if err != nil {
				return nil, fmt.Errorf("retry session: %w", err)
			}
			fmt.Fprintf(r.out, "Retrying session %s from %s\n", logging.ShortSessionID(id), restarted)
			sess, err = r.store.GetSession(ctx, id)
			if err != nil {
				return nil, err
			}
		} else {
			fmt.Fprintf(r.out, "Resuming session %s at %s\n", logging.ShortSessionID(id), sess.Status)
		}
		if sess.StartedAt == nil {
			if err := r.store.StartProcessing(ctx, sess.ID); err != nil {
				return nil, err
			}
		}
		return sess, nil
	}

	source, err := config.ExpandPath(args[0])
	if err != nil {
		return nil, err
	}
	sess, err := r.store.CreateSession(ctx, source)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(r.out, "Created session %s for %s\n", logging.ShortSessionID(sess.ID), filepath.Base(source))

	if err := workflow.Begin(ctx, r.store, sess, r.cfg.Pipeline.SkipColorEdit); err != nil {
		return nil, err
	}
	if r.cfg.Pipeline.SkipColorEdit {
		fmt.Fprintln(r.out, "Color editing skipped; the recording is published as recorded.")
	}
	return sess, nil
}

type stagePlan struct {
	display    string
	name       string
	handler    stage.Handler
	flag       session.Stage
	processing session.Status
	done       session.Status
}

func (r *pipelineRunner) planForStatus(status session.Status) (stagePlan, bool) {
	switch status {
	case session.StatusCreated:
		return stagePlan{
			display:    "Color editing",
			name:       "color_edit",
			handler:    r.colorEditor,
			flag:       session.StageColorEdit,
			processing: session.StatusColorEditing,
			done:       session.StatusColorEdited,
		}, true
	case session.StatusColorEdited:
		return stagePlan{
			display:    "Transcribing",
			name:       "transcription",
			handler:    r.transcriber,
			flag:       session.StageTranscription,
			processing: session.StatusTranscribing,
			done:       session.StatusTranscribed,
		}, true
	case session.StatusTranscribed:
		return stagePlan{
			display:    "Generating chapters",
			name:       "chapters",
			handler:    r.chapterGenerator,
			flag:       session.StageChapters,
			processing: session.StatusGeneratingChapters,
			done:       session.StatusChaptersReady,
		}, true
	default:
		return stagePlan{}, false
	}
}

// runAutomatedStages runs color edit, transcription and chapter generation
// until the session parks at chapters_ready. Sessions resumed past that
// point skip straight through.
func (r *pipelineRunner) runAutomatedStages(ctx context.Context, sess *session.Session) error {
	for {
		plan, ok := r.planForStatus(sess.Status)
		if !ok {
			return nil
		}
		fmt.Fprintf(r.out, "%s...\n", plan.display)

		err := r.withProgress(ctx, sess.ID, plan.display, func() error {
			return stageexec.Run(ctx, stageexec.Options{
				Logger:     r.logger,
				Store:      r.store,
				Notifier:   r.notifier,
				Handler:    plan.handler,
				StageName:  plan.name,
				Stage:      plan.flag,
				Processing: plan.processing,
				Done:       plan.done,
				Session:    sess,
			})
		})
		if err != nil {
			return err
		}

		refreshed, err := r.store.GetSession(ctx, sess.ID)
		if err != nil {
			return err
		}
		if refreshed == nil {
			return session.ErrNotFound
		}
		*sess = *refreshed
	}
}

func (r *pipelineRunner) runUpload(ctx context.Context, sess *session.Session) error {
	fmt.Fprintln(r.out, "Uploading to YouTube...")
	return r.withProgress(ctx, sess.ID, "Uploading", func() error {
		return workflow.Upload(ctx, r.logger, r.store, r.notifier, r.uploader, sess.ID)
	})
}

// withProgress renders a progress bar fed from the persisted session
// progress while fn runs. Without a terminal fn runs bare and the stages'
// log output carries the progress instead.
func (r *pipelineRunner) withProgress(ctx context.Context, sessionID, label string, fn func() error) error {
	if !r.progressBar {
		return fn()
	}

	bar := progressbar.NewOptions(100,
		progressbar.OptionSetDescription(label),
		progressbar.OptionSetWriter(r.out),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionClearOnFinish(),
	)

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				sess, err := r.store.GetSession(ctx, sessionID)
				if err != nil || sess == nil {
					continue
				}
				if msg := strings.TrimSpace(sess.ProgressMessage); msg != "" {
					bar.Describe(msg)
				}
				_ = bar.Set(int(sess.ProgressPercent))
			}
		}
	}()

	err := fn()
	close(done)
	_ = bar.Finish()
	fmt.Fprintln(r.out)
	return err
}

// humanSteps walks whichever decision steps the session still needs. The
// returned bool reports whether the upload should run; a declined
// confirmation ends the run without error.
func (r *pipelineRunner) humanSteps(ctx context.Context, sess *session.Session) (bool, error) {
	if r.cfg.Pipeline.AutoConfirm {
		return true, r.autoAdvance(ctx, sess)
	}

	if sess.Status == session.StatusChaptersReady || sess.Status == session.StatusAwaitingTitle {
		titles, err := workflow.PresentTitles(ctx, r.store, sess)
		if err != nil {
			return false, err
		}
		title, err := promptTitle(r.in, r.out, titles)
		if err != nil {
			return false, err
		}
		if err := workflow.ChooseTitle(ctx, r.store, sess, title); err != nil {
			return false, err
		}
		fmt.Fprintf(r.out, "Final title: %s\n\n", sess.Title)
	}

	if sess.Status == session.StatusAwaitingDescription {
		if err := r.editDescription(ctx, sess); err != nil {
			return false, err
		}
		if err := workflow.AcceptDescription(ctx, r.store, sess); err != nil {
			return false, err
		}
	}

	if sess.Status == session.StatusAwaitingConfirmation && sess.ConfirmedAt == nil {
		r.printReview(sess)
		confirmed, err := promptYesNo(r.in, r.out, "Proceed with upload? (y/N): ")
		if err != nil {
			return false, err
		}
		if !confirmed {
			fmt.Fprintln(r.out, "Upload cancelled.")
			return false, nil
		}
		if err := r.store.ConfirmUpload(ctx, sess.ID); err != nil {
			return false, err
		}
		now := time.Now()
		sess.ConfirmedAt = &now
	}

	return true, nil
}

// autoAdvance is the --yes path: no prompts, first suggestion, chapter
// description, immediate confirmation.
func (r *pipelineRunner) autoAdvance(ctx context.Context, sess *session.Session) error {
	switch sess.Status {
	case session.StatusChaptersReady, session.StatusAwaitingTitle:
		if err := workflow.AutoConfirm(ctx, r.store, sess); err != nil {
			return err
		}
		fmt.Fprintf(r.out, "Title: %s\n", sess.Title)
		return nil
	case session.StatusAwaitingDescription:
		if err := workflow.AcceptDescription(ctx, r.store, sess); err != nil {
			return err
		}
		return r.confirmSilently(ctx, sess)
	case session.StatusAwaitingConfirmation:
		return r.confirmSilently(ctx, sess)
	default:
		return nil
	}
}

func (r *pipelineRunner) confirmSilently(ctx context.Context, sess *session.Session) error {
	if sess.ConfirmedAt != nil {
		return nil
	}
	if err := r.store.ConfirmUpload(ctx, sess.ID); err != nil {
		return err
	}
	now := time.Now()
	sess.ConfirmedAt = &now
	return nil
}

// editDescription opens the description artifact in the operator's editor.
// The file was seeded with chapter markers when the title was chosen.
func (r *pipelineRunner) editDescription(ctx context.Context, sess *session.Session) error {
	path := workspace.New(sess.Workspace).Description()
	fmt.Fprintf(r.out, "Opening the description in your editor (%s)...\n", editorDisplayName())
	if err := openInEditor(ctx, path); err != nil {
		return fmt.Errorf("edit description: %w", err)
	}
	text, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read edited description: %w", err)
	}
	fmt.Fprintln(r.out, "Final description:")
	fmt.Fprintln(r.out, strings.TrimRight(string(text), "\n"))
	fmt.Fprintln(r.out)
	return nil
}

func (r *pipelineRunner) printReview(sess *session.Session) {
	fmt.Fprintln(r.out, "Review before upload")
	fmt.Fprintf(r.out, "Title: %s\n", sess.Title)
	fmt.Fprintln(r.out, "Description:")
	text, err := os.ReadFile(workspace.New(sess.Workspace).Description())
	if err == nil {
		fmt.Fprintln(r.out, strings.TrimRight(string(text), "\n"))
	}
	fmt.Fprintln(r.out)
}

func (r *pipelineRunner) printUploadResult(sess *session.Session) {
	fmt.Fprintln(r.out, "Upload complete!")
	if id := strings.TrimSpace(sess.VideoID); id != "" {
		fmt.Fprintf(r.out, "Video: https://youtu.be/%s\n", id)
	}
}

// checkRunCredentials fails fast when the upload credentials cannot resolve.
// The OpenAI key may come from the session workspace, the configured file,
// or the environment; client secrets from the workspace or the configured
// file. A missing token is only a warning since the uploader can run the
// OAuth flow itself.
func checkRunCredentials(out io.Writer, cfg *config.Config, sess *session.Session) error {
	ws := workspace.New(sess.Workspace)

	if !fileReady(ws.ClientSecrets()) && !fileReady(cfg.Credentials.ClientSecretsFile) {
		return errors.New("YouTube client secrets not found; set credentials.client_secrets_file or add client_secrets.json to the session")
	}
	if !fileReady(ws.APIKey()) && !fileReady(cfg.Credentials.OpenAIAPIKeyFile) &&
		strings.TrimSpace(os.Getenv("OPENAI_API_KEY")) == "" {
		return errors.New("OpenAI API key not found; set credentials.openai_api_key_file or export OPENAI_API_KEY")
	}
	if !fileReady(ws.Token()) && !fileReady(cfg.Credentials.TokenFile) {
		fmt.Fprintln(out, "Warning: no YouTube token file; the uploader may start an OAuth flow.")
	}
	return nil
}

func fileReady(path string) bool {
	if strings.TrimSpace(path) == "" {
		return false
	}
	return workspace.ArtifactReady(path)
}

// buildRunLogger keeps the terminal clean for prompts and progress bars by
// logging to the run log file only; without a terminal the logs go to
// stdout as usual.
func buildRunLogger(cfg *config.Config, tty bool) (*slog.Logger, error) {
	if !tty {
		return logging.NewFromConfig(cfg)
	}
	path := logging.FilePath(cfg)
	if path == "" {
		return logging.NewNop(), nil
	}
	if err := os.MkdirAll(cfg.Paths.LogDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure log directory: %w", err)
	}
	return logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Paths:  []string{path},
	})
}
