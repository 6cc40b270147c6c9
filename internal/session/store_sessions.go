package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"vidpipe/internal/workspace"
)

// CreateSession validates the source video, allocates a workspace directory,
// and inserts a new session in the created status.
func (s *Store) CreateSession(ctx context.Context, sourcePath string) (*Session, error) {
	ctx = dbContext(ctx)

	path := strings.TrimSpace(sourcePath)
	if path == "" {
		return nil, &SourceError{Path: sourcePath, Reason: "path is empty"}
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve source path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &SourceError{Path: abs, Reason: "file does not exist"}
		}
		return nil, fmt.Errorf("stat source: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, &SourceError{Path: abs, Reason: "not a regular file"}
	}
	if !workspace.AllowedSourceExtension(abs) {
		return nil, &SourceError{
			Path:   abs,
			Reason: fmt.Sprintf("unsupported extension %q (allowed: %s)", filepath.Ext(abs), strings.Join(workspace.AllowedSourceExtensions(), ", ")),
		}
	}

	id := uuid.NewString()
	dir, err := workspace.Create(s.workspaceRoot, id)
	if err != nil {
		return nil, &AllocationError{Path: filepath.Join(s.workspaceRoot, id), Err: err}
	}

	now := time.Now().UTC()
	ts := timestamp(now)
	if _, err := s.execRetry(
		ctx,
		`INSERT INTO sessions (id, source_path, workspace, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		id,
		abs,
		dir.Path(),
		StatusCreated,
		ts,
		ts,
	); err != nil {
		_ = dir.Remove()
		return nil, fmt.Errorf("insert session: %w", err)
	}

	return s.GetSession(ctx, id)
}

// GetSession fetches a session by identifier. Missing sessions return (nil, nil).
func (s *Store) GetSession(ctx context.Context, id string) (*Session, error) {
	ctx = dbContext(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}

// GetStatus returns the poll view for a session. Unlike GetSession it reports
// ErrNotFound for unknown IDs so API handlers can map it to a 404 directly.
func (s *Store) GetStatus(ctx context.Context, id string) (Snapshot, error) {
	sess, err := s.GetSession(ctx, id)
	if err != nil {
		return Snapshot{}, err
	}
	if sess == nil {
		return Snapshot{}, ErrNotFound
	}
	return sess.Snapshot(), nil
}

// List returns sessions ordered oldest first, optionally filtered by status.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Session, error) {
	ctx = dbContext(ctx)

	query := `SELECT ` + sessionColumns + ` FROM sessions`
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + placeholderList(len(statuses)) + `)`
		for _, status := range statuses {
			args = append(args, status)
		}
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// NextForStatuses returns the oldest claimable session in one of the given
// statuses. Sessions the operator has not started yet carry no started_at
// stamp and are never claimed. Returns (nil, nil) when nothing is eligible.
func (s *Store) NextForStatuses(ctx context.Context, statuses ...Status) (*Session, error) {
	ctx = dbContext(ctx)
	if len(statuses) == 0 {
		return nil, nil
	}

	query := `SELECT ` + sessionColumns + ` FROM sessions
        WHERE status IN (` + placeholderList(len(statuses)) + `) AND started_at IS NOT NULL
        ORDER BY created_at ASC, id ASC LIMIT 1`
	args := make([]any, 0, len(statuses))
	for _, status := range statuses {
		args = append(args, status)
	}

	row := s.db.QueryRowContext(ctx, query, args...)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("next session: %w", err)
	}
	return sess, nil
}
