package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"log/slog"

	"github.com/gofrs/flock"

	"vidpipe/internal/api"
	"vidpipe/internal/config"
	"vidpipe/internal/logging"
	"vidpipe/internal/notifications"
	"vidpipe/internal/session"
	"vidpipe/internal/stage"
	"vidpipe/internal/workflow"
)

// LockFileName is the single-instance lock under the log directory.
const LockFileName = "video_pipeline.lock"

// Server runs the workflow manager and the HTTP surface: the browser pages,
// the artifact downloads, and the JSON status API. A file lock under the log
// directory keeps a second instance from sharing the session store.
type Server struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *session.Store
	manager  *workflow.Manager
	notifier notifications.Service
	uploader stage.Handler
	sessions *api.SessionService

	lockPath string
	lock     *flock.Flock

	httpServer *http.Server
	listener   net.Listener

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	uploads sync.WaitGroup
}

// New constructs a server with initialized dependencies. The uploader handler
// runs confirmed sessions in the background after the confirm step.
func New(cfg *config.Config, store *session.Store, logger *slog.Logger, manager *workflow.Manager, notifier notifications.Service, uploader stage.Handler) (*Server, error) {
	if cfg == nil || store == nil || logger == nil || manager == nil || uploader == nil {
		return nil, errors.New("server requires config, store, logger, workflow manager, and uploader")
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, LockFileName)
	srv := &Server{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		manager:  manager,
		notifier: notifier,
		uploader: uploader,
		sessions: api.NewSessionService(store),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	srv.httpServer = &http.Server{
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

// Start acquires the instance lock, starts the workflow manager, and begins
// serving HTTP on the configured bind address.
func (s *Server) Start(ctx context.Context) error {
	if s.running.Load() {
		return errors.New("server already running")
	}

	ok, err := s.lock.TryLock()
	if err != nil {
		return fmt.Errorf("take instance lock: %w", err)
	}
	if !ok {
		return errors.New("another video_pipeline server instance is already running")
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	if err := s.manager.Start(s.ctx); err != nil {
		s.releaseStart()
		return fmt.Errorf("start workflow manager: %w", err)
	}

	listener, err := net.Listen("tcp", strings.TrimSpace(s.cfg.Paths.APIBind))
	if err != nil {
		s.manager.Stop()
		s.releaseStart()
		return fmt.Errorf("listen on %s: %w", s.cfg.Paths.APIBind, err)
	}
	s.listener = listener

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("http server error", logging.Error(err))
		}
	}()
	go func() {
		<-s.ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpServer.Shutdown(shutdownCtx)
	}()

	s.running.Store(true)
	s.log().Info("server listening",
		logging.String("address", listener.Addr().String()),
		logging.String("lock", s.lockPath))
	return nil
}

func (s *Server) releaseStart() {
	if err := s.lock.Unlock(); err != nil {
		s.log().Warn("failed to release instance lock", logging.Error(err))
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.ctx = nil
}

// Stop shuts down HTTP serving, stops the workflow manager, waits for
// background uploads to unwind, and releases the instance lock. In-flight
// stages see their context cancelled and record the interruption; sessions
// killed harder than that are rolled back by recovery on the next start.
func (s *Server) Stop() {
	if !s.running.Load() {
		return
	}

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	_ = s.httpServer.Shutdown(shutdownCtx)
	cancel()
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}

	s.manager.Stop()
	s.uploads.Wait()

	if err := s.lock.Unlock(); err != nil {
		s.log().Warn("failed to release instance lock", logging.Error(err))
	}
	s.ctx = nil
	s.running.Store(false)
	s.log().Info("server stopped")
}

// Addr returns the bound listen address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// LockPath returns the instance lock file path.
func (s *Server) LockPath() string {
	return s.lockPath
}

func (s *Server) log() *slog.Logger {
	if s.logger != nil {
		return s.logger.With(logging.String("component", "server"))
	}
	return logging.NewNop()
}
