package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"vidpipe/internal/session"
)

func newTestDaemon(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"running":true,"pid":4242,"database_path":"/tmp/sessions.db","lock_file_path":"/tmp/video_pipeline.lock","workflow":{"running":true,"session_stats":{"created":1},"stage_health":[{"name":"color_edit","ready":true}]},"dependencies":[]}`))
	})
	mux.HandleFunc("GET /api/status/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.PathValue("id") != "abc" {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"session not found"}`))
			return
		}
		w.Write([]byte(`{"id":"abc","status":"transcribing","color_edit":true,"transcription":false,"chapters":false,"titles_extracted":false,"title_selected":false,"description":false,"uploaded":false,"error":null}`))
	})
	mux.HandleFunc("GET /api/sessions", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"sessions":[{"id":"abc","source_path":"/videos/demo.mp4","status":"transcribing"},{"id":"def","source_path":"/videos/other.mp4","status":"created"}]}`))
	})
	mux.HandleFunc("GET /api/sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.PathValue("id") != "abc" {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"session not found"}`))
			return
		}
		w.Write([]byte(`{"session":{"id":"abc","source_path":"/videos/demo.mp4","status":"transcribing"}}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClientStatus(t *testing.T) {
	srv := newTestDaemon(t)
	client := NewClient(srv.URL)

	status, err := client.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !status.Running || status.PID != 4242 {
		t.Fatalf("unexpected daemon status: %+v", status)
	}
	if !status.Workflow.Running || status.Workflow.SessionStats["created"] != 1 {
		t.Fatalf("unexpected workflow status: %+v", status.Workflow)
	}
}

func TestClientSessionStatus(t *testing.T) {
	srv := newTestDaemon(t)
	client := NewClient(srv.URL)

	snap, err := client.SessionStatus(context.Background(), "abc")
	if err != nil {
		t.Fatalf("SessionStatus: %v", err)
	}
	if snap.ID != "abc" || snap.Status != "transcribing" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if !snap.ColorEdit || snap.Transcription {
		t.Fatalf("unexpected stage flags: %+v", snap)
	}
	if snap.Error != nil {
		t.Fatalf("expected null error, got %+v", snap.Error)
	}
}

func TestClientSessionStatusNotFound(t *testing.T) {
	srv := newTestDaemon(t)
	client := NewClient(srv.URL)

	_, err := client.SessionStatus(context.Background(), "missing")
	if !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestClientSessions(t *testing.T) {
	srv := newTestDaemon(t)
	client := NewClient(srv.URL)

	sessions, err := client.Sessions(context.Background())
	if err != nil {
		t.Fatalf("Sessions: %v", err)
	}
	if len(sessions) != 2 || sessions[0].ID != "abc" || sessions[1].ID != "def" {
		t.Fatalf("unexpected sessions: %+v", sessions)
	}
}

func TestClientDescribe(t *testing.T) {
	srv := newTestDaemon(t)
	client := NewClient(srv.URL)

	sess, err := client.Describe(context.Background(), "abc")
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if sess.ID != "abc" || sess.SourcePath != "/videos/demo.mp4" {
		t.Fatalf("unexpected session: %+v", sess)
	}

	if _, err := client.Describe(context.Background(), "missing"); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNewClientAcceptsBareAddress(t *testing.T) {
	srv := newTestDaemon(t)
	client := NewClient(strings.TrimPrefix(srv.URL, "http://"))

	if _, err := client.Status(context.Background()); err != nil {
		t.Fatalf("Status via bare address: %v", err)
	}
}

func TestClientReportsDaemonErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"database unavailable"}`))
	}))
	t.Cleanup(srv.Close)

	client := NewClient(srv.URL)
	_, err := client.Status(context.Background())
	if err == nil || !strings.Contains(err.Error(), "database unavailable") {
		t.Fatalf("expected daemon error message, got %v", err)
	}
}
