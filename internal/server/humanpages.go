package server

import (
	"context"
	"net/http"
	"os"

	"vidpipe/internal/api"
	"vidpipe/internal/logging"
	"vidpipe/internal/session"
	"vidpipe/internal/workflow"
	"vidpipe/internal/workspace"
)

type titleData struct {
	Title   string
	Error   string
	Session api.Session
	Titles  []string
}

type descriptionData struct {
	Title       string
	Session     api.Session
	Description string
}

type confirmData struct {
	Title       string
	Session     api.Session
	Description string
}

func (s *Server) handleSelectTitlePage(w http.ResponseWriter, r *http.Request) {
	sess := s.pageSession(w, r)
	if sess == nil {
		return
	}
	if sess.Status != session.StatusChaptersReady && sess.Status != session.StatusAwaitingTitle {
		http.Redirect(w, r, sessionURL("/process", sess.ID), http.StatusSeeOther)
		return
	}

	titles, err := workflow.PresentTitles(r.Context(), s.store, sess)
	if err != nil {
		s.log().Error("present titles failed", logging.String(logging.FieldSessionID, sess.ID), logging.Error(err))
		http.Redirect(w, r, sessionURL("/process", sess.ID), http.StatusSeeOther)
		return
	}
	s.render(w, http.StatusOK, "select_title", titleData{
		Title:   "Choose title",
		Session: api.FromSession(sess),
		Titles:  titles,
	})
}

func (s *Server) handleSelectTitle(w http.ResponseWriter, r *http.Request) {
	sess := s.pageSession(w, r)
	if sess == nil {
		return
	}
	if sess.Status != session.StatusAwaitingTitle {
		http.Redirect(w, r, sessionURL("/process", sess.ID), http.StatusSeeOther)
		return
	}

	title := r.FormValue("choice")
	if title == "" {
		title = r.FormValue("custom_title")
	}
	if err := workflow.ChooseTitle(r.Context(), s.store, sess, title); err != nil {
		titles, _ := workflow.PresentTitles(r.Context(), s.store, sess)
		s.render(w, http.StatusBadRequest, "select_title", titleData{
			Title:   "Choose title",
			Error:   "Enter or pick a title before continuing.",
			Session: api.FromSession(sess),
			Titles:  titles,
		})
		return
	}
	http.Redirect(w, r, sessionURL("/edit_description", sess.ID), http.StatusSeeOther)
}

// descriptionText reads the session's description artifact, returning "" for
// a session that has none yet.
func descriptionText(sess *session.Session) string {
	data, err := os.ReadFile(workspace.New(sess.Workspace).Description())
	if err != nil {
		return ""
	}
	return string(data)
}

// editableDescription reports whether the description step is open: either
// the session sits at the description step, or it reached confirmation but
// the operator has not approved yet and wants another pass.
func editableDescription(sess *session.Session) bool {
	if sess.Status == session.StatusAwaitingDescription {
		return true
	}
	return sess.Status == session.StatusAwaitingConfirmation && sess.ConfirmedAt == nil
}

func (s *Server) handleEditDescriptionPage(w http.ResponseWriter, r *http.Request) {
	sess := s.pageSession(w, r)
	if sess == nil {
		return
	}
	if !editableDescription(sess) {
		http.Redirect(w, r, sessionURL("/process", sess.ID), http.StatusSeeOther)
		return
	}
	s.render(w, http.StatusOK, "edit_description", descriptionData{
		Title:       "Edit description",
		Session:     api.FromSession(sess),
		Description: descriptionText(sess),
	})
}

func (s *Server) handleEditDescription(w http.ResponseWriter, r *http.Request) {
	sess := s.pageSession(w, r)
	if sess == nil {
		return
	}
	text := r.FormValue("description")
	switch {
	case sess.Status == session.StatusAwaitingDescription:
		if err := workflow.SaveDescription(r.Context(), s.store, sess, text); err != nil {
			s.log().Error("save description failed", logging.String(logging.FieldSessionID, sess.ID), logging.Error(err))
			http.Redirect(w, r, sessionURL("/process", sess.ID), http.StatusSeeOther)
			return
		}
	case editableDescription(sess):
		// Re-edit from the confirm page: the status already advanced, only
		// the artifact changes.
		if err := os.WriteFile(workspace.New(sess.Workspace).Description(), []byte(text), 0o644); err != nil {
			s.log().Error("rewrite description failed", logging.String(logging.FieldSessionID, sess.ID), logging.Error(err))
			http.Redirect(w, r, sessionURL("/process", sess.ID), http.StatusSeeOther)
			return
		}
	default:
		http.Redirect(w, r, sessionURL("/process", sess.ID), http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, sessionURL("/confirm", sess.ID), http.StatusSeeOther)
}

func (s *Server) handleConfirmPage(w http.ResponseWriter, r *http.Request) {
	sess := s.pageSession(w, r)
	if sess == nil {
		return
	}
	if sess.Status != session.StatusAwaitingConfirmation {
		http.Redirect(w, r, sessionURL("/process", sess.ID), http.StatusSeeOther)
		return
	}
	s.render(w, http.StatusOK, "confirm", confirmData{
		Title:       "Confirm upload",
		Session:     api.FromSession(sess),
		Description: descriptionText(sess),
	})
}

// handleConfirm approves the upload and runs it in the background so the
// browser can go straight back to the progress view. The upload uses the
// server's run context: shutting down cancels it, and recovery rolls the
// session back to confirmation on the next start.
func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	sess := s.pageSession(w, r)
	if sess == nil {
		return
	}
	if err := s.store.ConfirmUpload(r.Context(), sess.ID); err != nil {
		s.log().Warn("confirm upload rejected", logging.String(logging.FieldSessionID, sess.ID), logging.Error(err))
		http.Redirect(w, r, sessionURL("/process", sess.ID), http.StatusSeeOther)
		return
	}

	runCtx := s.ctx
	if runCtx == nil {
		runCtx = context.Background()
	}
	s.uploads.Add(1)
	go func() {
		defer s.uploads.Done()
		if err := workflow.Upload(runCtx, s.logger, s.store, s.notifier, s.uploader, sess.ID); err != nil {
			s.log().Error("background upload failed", logging.String(logging.FieldSessionID, sess.ID), logging.Error(err))
		}
	}()

	http.Redirect(w, r, sessionURL("/process", sess.ID), http.StatusSeeOther)
}
