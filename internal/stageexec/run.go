package stageexec

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"vidpipe/internal/logging"
	"vidpipe/internal/notifications"
	"vidpipe/internal/services"
	"vidpipe/internal/session"
	"vidpipe/internal/stage"
)

// Handler is the two-phase surface every stage implementation exposes.
type Handler interface {
	Prepare(context.Context, *session.Session) error
	Execute(context.Context, *session.Session) error
}

// Options controls stage execution and session persistence behavior.
type Options struct {
	Logger    *slog.Logger
	Store     *session.Store
	Notifier  notifications.Service
	Handler   Handler
	StageName string
	// Stage is the completion flag recorded when the handler succeeds.
	// Leave empty for stages whose handler records its own flags.
	Stage      session.Stage
	Processing session.Status
	Done       session.Status
	Session    *session.Session
}

// Run executes a stage and applies the transition semantics shared by the
// manager loop and the one-shot command paths. The session must hold the
// status the stage starts from; the compare-and-set transition fails when
// another worker got there first.
func Run(ctx context.Context, opts Options) error {
	if opts.Handler == nil {
		return fmt.Errorf("no handler for stage %s", opts.StageName)
	}
	if opts.Store == nil {
		return fmt.Errorf("session store is required")
	}
	if opts.Session == nil {
		return fmt.Errorf("session is required")
	}

	sess := opts.Session
	stageCtx := services.WithStage(services.WithSessionID(ctx, sess.ID), opts.StageName)
	stageLogger := logging.WithContext(stageCtx, opts.Logger)

	stageLogger.Info(
		"starting stage",
		logging.String("processing_status", string(opts.Processing)),
		logging.String("source_file", strings.TrimSpace(sess.SourcePath)),
	)

	if err := opts.Store.UpdateStatus(stageCtx, sess.ID, sess.Status, opts.Processing); err != nil {
		return fmt.Errorf("record processing transition: %w", err)
	}
	sess.Status = opts.Processing

	label := deriveStageLabel(opts.Processing)
	if err := opts.Store.SetProgress(stageCtx, sess.ID, label, label+" started", 0); err != nil {
		return fmt.Errorf("persist stage progress: %w", err)
	}

	if err := opts.Handler.Prepare(stageCtx, sess); err != nil {
		return handleFailure(stageCtx, stageLogger, opts, err)
	}
	if err := opts.Handler.Execute(stageCtx, sess); err != nil {
		return handleFailure(stageCtx, stageLogger, opts, err)
	}

	if opts.Stage != "" {
		if err := opts.Store.SetStageComplete(stageCtx, sess.ID, opts.Stage); err != nil {
			return fmt.Errorf("persist stage flag: %w", err)
		}
	}
	if err := opts.Store.SetProgress(stageCtx, sess.ID, label, label+" complete", 100); err != nil {
		return fmt.Errorf("persist stage progress: %w", err)
	}
	if err := opts.Store.UpdateStatus(stageCtx, sess.ID, opts.Processing, opts.Done); err != nil {
		return fmt.Errorf("record done status: %w", err)
	}
	sess.Status = opts.Done

	stageLogger.Info(
		"stage complete",
		logging.String("next_status", string(opts.Done)),
	)

	return nil
}

func handleFailure(ctx context.Context, logger *slog.Logger, opts Options, stageErr error) error {
	message := "stage execution failed"
	if stageErr != nil {
		details := services.Details(stageErr)
		message = strings.TrimSpace(details.Message)
		if message == "" {
			message = strings.TrimSpace(stageErr.Error())
		}
	}
	review := services.NeedsReview(stageErr)

	logger.Error(
		"stage execution failed",
		logging.String("error_message", message),
		logging.Bool("needs_review", review),
		logging.Error(stageErr),
	)
	if err := opts.Store.RecordError(ctx, opts.Session.ID, opts.StageName, message, review); err != nil {
		logger.Error("could not record stage failure", logging.Error(err))
	}

	if opts.Notifier != nil && stageErr != nil {
		contextLabel := opts.StageName
		if name := stage.DisplayName(opts.Session); name != "" {
			contextLabel = fmt.Sprintf("%s (%s)", opts.StageName, name)
		}
		if err := opts.Notifier.NotifyError(ctx, stageErr, contextLabel); err != nil {
			logger.Debug("error notification not delivered", logging.Error(err))
		}
	}

	return stageErr
}

func deriveStageLabel(status session.Status) string {
	if status == "" {
		return ""
	}
	words := strings.ReplaceAll(string(status), "_", " ")
	return cases.Title(language.English).String(words)
}
