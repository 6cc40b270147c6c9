package server

import (
	"net/http"
	"strings"

	"vidpipe/internal/api"
	"vidpipe/internal/logging"
	"vidpipe/internal/session"
	"vidpipe/internal/workflow"
	"vidpipe/internal/workspace"
)

const recentSessionLimit = 10

type indexData struct {
	Title      string
	Error      string
	Accept     string
	Extensions string
	Recent     []api.Session
}

type processData struct {
	Title   string
	Error   string
	Session api.Session
}

func (s *Server) indexData(r *http.Request, errMsg string) indexData {
	exts := workspace.AllowedSourceExtensions()
	return indexData{
		Title:      "Upload",
		Error:      errMsg,
		Accept:     strings.Join(exts, ","),
		Extensions: strings.Join(exts, ", "),
		Recent:     s.recentSessions(r),
	}
}

// recentSessions returns the newest sessions first for the index listing.
// Listing failures degrade to an empty table; the upload form still works.
func (s *Server) recentSessions(r *http.Request) []api.Session {
	sessions, err := s.sessions.List(r.Context())
	if err != nil {
		s.log().Warn("list sessions for index failed", logging.Error(err))
		return nil
	}
	if len(sessions) > recentSessionLimit {
		sessions = sessions[len(sessions)-recentSessionLimit:]
	}
	for i, j := 0, len(sessions)-1; i < j; i, j = i+1, j-1 {
		sessions[i], sessions[j] = sessions[j], sessions[i]
	}
	return sessions
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "index", s.indexData(r, ""))
}

// pageSession resolves the request's session_id for the HTML pages. Missing
// or unknown sessions send the browser back to the upload form.
func (s *Server) pageSession(w http.ResponseWriter, r *http.Request) *session.Session {
	id := strings.TrimSpace(r.FormValue("session_id"))
	if id == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return nil
	}
	sess, err := s.store.GetSession(r.Context(), id)
	if err != nil {
		s.log().Error("load session failed", logging.String(logging.FieldSessionID, id), logging.Error(err))
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return nil
	}
	if sess == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return nil
	}
	return sess
}

// handleProcessPage routes the browser to whichever page matches the
// session's state, rendering progress for the automated stretch.
func (s *Server) handleProcessPage(w http.ResponseWriter, r *http.Request) {
	sess := s.pageSession(w, r)
	if sess == nil {
		return
	}
	switch sess.Status {
	case session.StatusChaptersReady, session.StatusAwaitingTitle:
		http.Redirect(w, r, sessionURL("/select_title", sess.ID), http.StatusSeeOther)
		return
	case session.StatusAwaitingDescription:
		http.Redirect(w, r, sessionURL("/edit_description", sess.ID), http.StatusSeeOther)
		return
	case session.StatusAwaitingConfirmation:
		http.Redirect(w, r, sessionURL("/confirm", sess.ID), http.StatusSeeOther)
		return
	case session.StatusUploaded:
		http.Redirect(w, r, sessionURL("/download", sess.ID), http.StatusSeeOther)
		return
	}
	s.render(w, http.StatusOK, "process", processData{
		Title:   "Processing",
		Session: api.FromSession(sess),
	})
}

// handleProcessStart begins the automated pipeline for a freshly created
// session. Re-posting for an already started session just returns to the
// progress view.
func (s *Server) handleProcessStart(w http.ResponseWriter, r *http.Request) {
	sess := s.pageSession(w, r)
	if sess == nil {
		return
	}
	if sess.Status == session.StatusCreated {
		skip := r.FormValue("skip_color_edit") != "" || s.cfg.Pipeline.SkipColorEdit
		if err := workflow.Begin(r.Context(), s.store, sess, skip); err != nil {
			s.log().Error("begin session failed", logging.String(logging.FieldSessionID, sess.ID), logging.Error(err))
			s.render(w, http.StatusInternalServerError, "process", processData{
				Title:   "Processing",
				Error:   "Could not start processing: " + err.Error(),
				Session: api.FromSession(sess),
			})
			return
		}
	}
	http.Redirect(w, r, sessionURL("/process", sess.ID), http.StatusSeeOther)
}
