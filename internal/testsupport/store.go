package testsupport

import (
	"context"
	"path/filepath"
	"testing"

	"vidpipe/internal/config"
	"vidpipe/internal/session"
)

// OpenStore opens a session.Store for tests and registers cleanup.
func OpenStore(t testing.TB, cfg *config.Config) *session.Store {
	t.Helper()

	store, err := session.Open(cfg)
	if err != nil {
		t.Fatalf("session.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewSession fabricates a source video on disk and creates a session for it.
func NewSession(t testing.TB, store *session.Store, cfg *config.Config, name string) *session.Session {
	t.Helper()

	if name == "" {
		name = "source.mp4"
	}
	src := filepath.Join(BaseDir(cfg), name)
	WriteFile(t, src, 1024)

	sess, err := store.CreateSession(context.Background(), src)
	if err != nil {
		t.Fatalf("store.CreateSession: %v", err)
	}
	return sess
}

// StartedSession creates a session and stamps it started so the workflow
// manager would pick it up.
func StartedSession(t testing.TB, store *session.Store, cfg *config.Config, name string) *session.Session {
	t.Helper()

	sess := NewSession(t, store, cfg, name)
	if err := store.StartProcessing(context.Background(), sess.ID); err != nil {
		t.Fatalf("store.StartProcessing: %v", err)
	}
	refreshed, err := store.GetSession(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("store.GetSession: %v", err)
	}
	return refreshed
}
