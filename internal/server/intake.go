package server

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"vidpipe/internal/logging"
	"vidpipe/internal/session"
	"vidpipe/internal/workspace"
)

// maxUploadBytes bounds a whole intake request. Screen recordings run large,
// so the ceiling is generous; the limit exists to stop a runaway client from
// filling the work directory.
const maxUploadBytes = 8 << 30

// multipartMemory is how much of the form is held in memory before parts
// spill to temp files.
const multipartMemory = 32 << 20

// handleUpload ingests a recording plus optional per-session credentials and
// creates the session. The video lands in a staging directory first because
// session IDs are allocated by the store; after creation it is linked into
// the workspace and the staging copy dropped.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		s.render(w, http.StatusBadRequest, "index", s.indexData(r, "Could not read the upload: "+err.Error()))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("video_file")
	if err != nil {
		s.render(w, http.StatusBadRequest, "index", s.indexData(r, "Select a video file to upload."))
		return
	}
	defer file.Close()

	name := filepath.Base(strings.TrimSpace(header.Filename))
	if name == "" || name == "." || name == string(filepath.Separator) {
		s.render(w, http.StatusBadRequest, "index", s.indexData(r, "The uploaded file has no usable name."))
		return
	}
	if !workspace.AllowedSourceExtension(name) {
		msg := fmt.Sprintf("Unsupported file type %q. Accepted: %s.",
			filepath.Ext(name), strings.Join(workspace.AllowedSourceExtensions(), ", "))
		s.render(w, http.StatusBadRequest, "index", s.indexData(r, msg))
		return
	}

	stagingDir := filepath.Join(s.cfg.Paths.WorkDir, "incoming", uuid.NewString())
	if err := os.MkdirAll(stagingDir, 0o755); err != nil {
		s.intakeError(w, r, "allocate staging directory", err)
		return
	}
	defer os.RemoveAll(stagingDir)

	stagedPath := filepath.Join(stagingDir, name)
	if err := writeUploadedFile(stagedPath, file, 0o644); err != nil {
		s.intakeError(w, r, "store uploaded video", err)
		return
	}

	sess, err := s.store.CreateSession(r.Context(), stagedPath)
	if err != nil {
		var srcErr *session.SourceError
		if errors.As(err, &srcErr) {
			s.render(w, http.StatusBadRequest, "index", s.indexData(r, srcErr.Error()))
			return
		}
		s.intakeError(w, r, "create session", err)
		return
	}

	ws := workspace.New(sess.Workspace)
	if err := ws.MaterializeSource(stagedPath); err != nil {
		s.intakeError(w, r, "stage video into workspace", err)
		return
	}
	if err := s.saveCredentialParts(r, ws); err != nil {
		s.intakeError(w, r, "store session credentials", err)
		return
	}

	s.log().Info("session created from upload",
		logging.String(logging.FieldSessionID, sess.ID),
		logging.String("source", name))
	if err := s.notifier.NotifySessionCreated(r.Context(), name); err != nil {
		s.log().Warn("session created notification failed", logging.Error(err))
	}
	http.Redirect(w, r, sessionURL("/process", sess.ID), http.StatusSeeOther)
}

// saveCredentialParts persists the optional intake extras under their fixed
// workspace names. Credentials are written owner-only.
func (s *Server) saveCredentialParts(r *http.Request, ws workspace.Dir) error {
	if key := strings.TrimSpace(r.FormValue("openai_api_key")); key != "" {
		if err := os.WriteFile(ws.APIKey(), []byte(key+"\n"), 0o600); err != nil {
			return fmt.Errorf("write api key: %w", err)
		}
	}
	parts := []struct {
		field string
		dest  string
		mode  os.FileMode
	}{
		{"client_secrets", ws.ClientSecrets(), 0o600},
		{"token_pickle", ws.Token(), 0o600},
		{"thumbnail", ws.Thumbnail(), 0o644},
	}
	for _, part := range parts {
		file, header, err := r.FormFile(part.field)
		if errors.Is(err, http.ErrMissingFile) {
			continue
		}
		if err != nil {
			return fmt.Errorf("read %s part: %w", part.field, err)
		}
		if strings.TrimSpace(header.Filename) == "" {
			file.Close()
			continue
		}
		err = writeUploadedFile(part.dest, file, part.mode)
		file.Close()
		if err != nil {
			return fmt.Errorf("write %s: %w", part.field, err)
		}
	}
	return nil
}

func writeUploadedFile(dest string, src multipart.File, mode os.FileMode) error {
	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func (s *Server) intakeError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	s.log().Error("upload intake failed", logging.String("operation", operation), logging.Error(err))
	s.render(w, http.StatusInternalServerError, "index",
		s.indexData(r, "Upload failed: "+err.Error()))
}
