package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"vidpipe/internal/logging"
	"vidpipe/internal/session"
)

// Start recovers interrupted sessions and begins background processing.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow manager already started")
	}
	if len(m.startOrder) == 0 {
		m.mu.Unlock()
		return errors.New("no stages configured")
	}
	workers := m.workers
	m.mu.Unlock()

	recovered, err := m.store.RecoverInFlight(ctx)
	if err != nil {
		return fmt.Errorf("recover interrupted sessions: %w", err)
	}
	if recovered > 0 && m.logger != nil {
		m.logger.Info("recovered interrupted sessions", logging.Int64("count", recovered))
	}
	m.logPreflight(ctx)

	runCtx, cancel := context.WithCancel(ctx)

	m.mu.Lock()
	m.cancel = cancel
	m.running = true
	m.wg.Add(workers)
	m.mu.Unlock()

	for i := 1; i <= workers; i++ {
		go m.runWorker(runCtx, fmt.Sprintf("worker-%d", i))
	}
	return nil
}

// Stop cancels the workers and blocks until they exit.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

func (m *Manager) runWorker(ctx context.Context, name string) {
	defer m.wg.Done()
	logger := m.workerLogger(name)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		sess, err := m.nextSession(ctx)
		if err != nil {
			m.handleFetchError(ctx, logger, err)
			continue
		}
		if sess == nil {
			m.waitForSessionOrShutdown(ctx)
			continue
		}

		if err := m.processSession(ctx, name, logger, sess); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
		}
	}
}

func (m *Manager) nextSession(ctx context.Context) (*session.Session, error) {
	m.mu.RLock()
	order := m.startOrder
	m.mu.RUnlock()
	return m.store.NextForStatuses(ctx, order...)
}

func (m *Manager) handleFetchError(ctx context.Context, logger *slog.Logger, err error) {
	m.setLastError(err)
	logger.Error("failed to fetch next session", logging.Error(err))
	select {
	case <-ctx.Done():
		return
	case <-time.After(m.errorRetry):
	}
}

func (m *Manager) waitForSessionOrShutdown(ctx context.Context) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(m.pollInterval):
	}
}
