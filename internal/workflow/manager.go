package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"vidpipe/internal/config"
	"vidpipe/internal/notifications"
	"vidpipe/internal/session"
	"vidpipe/internal/stage"
)

// Manager coordinates session processing using registered stage handlers.
type Manager struct {
	cfg          *config.Config
	store        *session.Store
	logger       *slog.Logger
	notifier     notifications.Service
	pollInterval time.Duration
	errorRetry   time.Duration
	workers      int

	stages       []pipelineStage
	stageByStart map[session.Status]pipelineStage
	startOrder   []session.Status
	healthChecks []stage.Handler

	mu          sync.RWMutex
	running     bool
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	lastErr     error
	lastSession *session.Session
}

// StageSet names the handler for each automated stage.
// Uploader is health-checked but never polled; uploads run on confirmation.
type StageSet struct {
	ColorEditor      stage.Handler
	Transcriber      stage.Handler
	ChapterGenerator stage.Handler
	Uploader         stage.Handler
}

type pipelineStage struct {
	name             string
	handler          stage.Handler
	completionFlag   session.Stage
	startStatus      session.Status
	processingStatus session.Status
	doneStatus       session.Status
}

// NewManager wires a manager to the store using the notifier built from cfg.
func NewManager(cfg *config.Config, store *session.Store, logger *slog.Logger) *Manager {
	return NewManagerWithNotifier(cfg, store, logger, notifications.NewService(cfg))
}

// NewManagerWithNotifier is NewManager with the notifier supplied by the
// caller. Tests use it to capture outgoing notifications.
func NewManagerWithNotifier(cfg *config.Config, store *session.Store, logger *slog.Logger, notifier notifications.Service) *Manager {
	workers := cfg.Pipeline.MaxConcurrent
	if workers < 1 {
		workers = 1
	}
	return &Manager{
		cfg:          cfg,
		store:        store,
		logger:       logger,
		notifier:     notifier,
		pollInterval: time.Duration(cfg.Pipeline.PollInterval) * time.Second,
		errorRetry:   time.Duration(cfg.Pipeline.ErrorRetryInterval) * time.Second,
		workers:      workers,
	}
}

// ConfigureStages installs the handlers the poll loop dispatches to.
func (m *Manager) ConfigureStages(set StageSet) {
	var stages []pipelineStage
	var health []stage.Handler

	if set.ColorEditor != nil {
		stages = append(stages, pipelineStage{
			name:             "color_edit",
			handler:          set.ColorEditor,
			completionFlag:   session.StageColorEdit,
			startStatus:      session.StatusCreated,
			processingStatus: session.StatusColorEditing,
			doneStatus:       session.StatusColorEdited,
		})
		health = append(health, set.ColorEditor)
	}
	if set.Transcriber != nil {
		stages = append(stages, pipelineStage{
			name:             "transcription",
			handler:          set.Transcriber,
			completionFlag:   session.StageTranscription,
			startStatus:      session.StatusColorEdited,
			processingStatus: session.StatusTranscribing,
			doneStatus:       session.StatusTranscribed,
		})
		health = append(health, set.Transcriber)
	}
	if set.ChapterGenerator != nil {
		stages = append(stages, pipelineStage{
			name:             "chapters",
			handler:          set.ChapterGenerator,
			completionFlag:   session.StageChapters,
			startStatus:      session.StatusTranscribed,
			processingStatus: session.StatusGeneratingChapters,
			doneStatus:       session.StatusChaptersReady,
		})
		health = append(health, set.ChapterGenerator)
	}
	if set.Uploader != nil {
		health = append(health, set.Uploader)
	}

	byStart := make(map[session.Status]pipelineStage, len(stages))
	order := make([]session.Status, 0, len(stages))
	for _, stg := range stages {
		byStart[stg.startStatus] = stg
		order = append(order, stg.startStatus)
	}

	m.mu.Lock()
	m.stages = stages
	m.stageByStart = byStart
	m.startOrder = order
	m.healthChecks = health
	m.mu.Unlock()
}

func (m *Manager) stageForStatus(status session.Status) (pipelineStage, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stg, ok := m.stageByStart[status]
	return stg, ok
}
