package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"vidpipe/internal/chaptering"
	"vidpipe/internal/colorediting"
	"vidpipe/internal/config"
	"vidpipe/internal/logging"
	"vidpipe/internal/notifications"
	"vidpipe/internal/server"
	"vidpipe/internal/session"
	"vidpipe/internal/stage"
	"vidpipe/internal/transcription"
	"vidpipe/internal/uploading"
	"vidpipe/internal/workflow"
)

func newServeCommand(cmdCtx *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the pipeline server with workers, HTTP API, and web UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServeProcess(cmd.Context(), cmdCtx)
		},
	}
}

func runServeProcess(parent context.Context, cmdCtx *cliContext) error {
	signalCtx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := cmdCtx.loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	store, err := session.Open(cfg)
	if err != nil {
		logger.Error("open session store", logging.Error(err))
		return err
	}
	defer store.Close()

	manager := workflow.NewManager(cfg, store, logger)
	uploader := registerStages(manager, cfg, store, logger)

	srv, err := server.New(cfg, store, logger, manager, notifications.NewService(cfg), uploader)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}
	if err := srv.Start(signalCtx); err != nil {
		return err
	}
	logger.Info("video pipeline server listening", logging.String("addr", srv.Addr()))

	<-signalCtx.Done()
	logger.Info("video pipeline server shutting down")
	srv.Stop()
	return nil
}

func registerStages(mgr *workflow.Manager, cfg *config.Config, store *session.Store, logger *slog.Logger) stage.Handler {
	uploader := uploading.New(cfg, store, logger)
	mgr.ConfigureStages(workflow.StageSet{
		ColorEditor:      colorediting.New(cfg, store, logger),
		Transcriber:      transcription.New(cfg, store, logger),
		ChapterGenerator: chaptering.New(cfg, store, logger),
		Uploader:         uploader,
	})
	return uploader
}
