package server

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"

	"vidpipe/internal/api"
	"vidpipe/internal/logging"
	"vidpipe/internal/session"
	"vidpipe/internal/workspace"
)

type artifactFile struct {
	Name    string
	Present bool
	Size    string
	URL     string
}

type downloadData struct {
	Title    string
	Session  api.Session
	Failed   bool
	VideoURL string
	Files    []artifactFile
}

func (s *Server) handleDownloadPage(w http.ResponseWriter, r *http.Request) {
	sess := s.pageSession(w, r)
	if sess == nil {
		return
	}

	var files []artifactFile
	for _, name := range workspace.ServableArtifacts() {
		entry := artifactFile{Name: name}
		path := filepath.Join(sess.Workspace, name)
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() && info.Size() > 0 {
			entry.Present = true
			entry.Size = humanize.IBytes(uint64(info.Size()))
			entry.URL = "/download/" + sess.ID + "/" + name
		}
		files = append(files, entry)
	}

	data := downloadData{
		Title:   "Artifacts",
		Session: api.FromSession(sess),
		Failed:  sess.Status == session.StatusFailed,
		Files:   files,
	}
	if videoID := strings.TrimSpace(sess.VideoID); videoID != "" {
		data.VideoURL = "https://youtu.be/" + videoID
	}
	s.render(w, http.StatusOK, "download", data)
}

// handleDownloadFile serves one workspace artifact as an attachment. Only
// the fixed artifact names are reachable; credentials stay private and path
// traversal dies on the allowlist.
func (s *Server) handleDownloadFile(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")
	if !workspace.Servable(name) {
		http.NotFound(w, r)
		return
	}

	id := chi.URLParam(r, "sessionID")
	sess, err := s.store.GetSession(r.Context(), id)
	if err != nil {
		s.log().Error("load session for download failed", logging.String(logging.FieldSessionID, id), logging.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if sess == nil {
		http.NotFound(w, r)
		return
	}

	path := filepath.Join(sess.Workspace, name)
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	http.ServeFile(w, r, path)
}
