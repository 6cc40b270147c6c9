package server

import (
	"errors"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"

	"vidpipe/internal/api"
	"vidpipe/internal/logging"
	"vidpipe/internal/preflight"
	"vidpipe/internal/session"
)

// handleAPIStatus reports the daemon composite: server state, workflow
// summary, tool availability, and free space under the work directory.
func (s *Server) handleAPIStatus(w http.ResponseWriter, r *http.Request) {
	payload := api.DaemonStatus{
		Running:      s.running.Load(),
		PID:          os.Getpid(),
		DatabasePath: s.store.Path(),
		LockFilePath: s.lockPath,
		Workflow:     api.FromStatusSummary(s.manager.Status(r.Context())),
		Dependencies: api.FromDependencies(preflight.CheckSystemDeps(s.cfg)),
	}
	if probe := preflight.ProbeDiskSpace(s.cfg.Paths.WorkDir); probe.Detected {
		payload.WorkDirFree = probe.SpaceDetail()
	}
	s.writeJSON(w, http.StatusOK, payload)
}

// handleAPISessionStatus is the poll endpoint: a pure store read returning
// the snapshot booleans, never advancing the session.
func (s *Server) handleAPISessionStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	snap, err := s.sessions.Status(r.Context(), id)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "session not found")
			return
		}
		s.log().Error("session status failed", logging.String(logging.FieldSessionID, id), logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, "session status unavailable")
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleAPISessions(w http.ResponseWriter, r *http.Request) {
	var statuses []session.Status
	for _, value := range r.URL.Query()["status"] {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		statuses = append(statuses, session.Status(trimmed))
	}

	sessions, err := s.sessions.List(r.Context(), statuses...)
	if err != nil {
		s.log().Error("list sessions failed", logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, "session list unavailable")
		return
	}
	s.writeJSON(w, http.StatusOK, api.SessionListResponse{Sessions: sessions})
}

func (s *Server) handleAPISession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	sess, err := s.sessions.Describe(r.Context(), id)
	if err != nil {
		s.log().Error("describe session failed", logging.String(logging.FieldSessionID, id), logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, "session unavailable")
		return
	}
	if sess == nil {
		s.writeError(w, http.StatusNotFound, "session not found")
		return
	}
	s.writeJSON(w, http.StatusOK, api.SessionResponse{Session: *sess})
}

func (s *Server) handleAPISummary(w http.ResponseWriter, r *http.Request) {
	counts, err := s.sessions.Stats(r.Context())
	if err != nil {
		s.log().Error("session stats failed", logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, "session stats unavailable")
		return
	}
	s.writeJSON(w, http.StatusOK, api.StatsResponse{Counts: counts})
}
