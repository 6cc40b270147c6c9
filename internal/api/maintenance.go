package api

import (
	"context"
	"fmt"
	"strings"

	"vidpipe/internal/session"
	"vidpipe/internal/workspace"
)

// SessionMaintainer captures the store operations the cleanup workflows need.
type SessionMaintainer interface {
	List(ctx context.Context, statuses ...session.Status) ([]*session.Session, error)
	GetSession(ctx context.Context, id string) (*session.Session, error)
	Remove(ctx context.Context, id string) (bool, error)
	PruneUploaded(ctx context.Context) (int64, error)
	PruneFailed(ctx context.Context) (int64, error)
}

// ClearResult reports how many sessions were cleared and which workspace
// directories could not be removed.
type ClearResult struct {
	Cleared          int64
	FailedWorkspaces []string
}

// ClearCompletedSessions removes uploaded sessions along with their workspace
// directories. Rows are cleared even when a workspace cannot be removed; the
// stubborn paths are reported so the operator can delete them by hand.
func ClearCompletedSessions(ctx context.Context, store SessionMaintainer) (ClearResult, error) {
	failed, err := removeWorkspaces(ctx, store, session.StatusUploaded)
	if err != nil {
		return ClearResult{}, err
	}
	cleared, err := store.PruneUploaded(ctx)
	if err != nil {
		return ClearResult{FailedWorkspaces: failed}, err
	}
	return ClearResult{Cleared: cleared, FailedWorkspaces: failed}, nil
}

// ClearFailedSessions removes failed sessions along with their workspace
// directories.
func ClearFailedSessions(ctx context.Context, store SessionMaintainer) (ClearResult, error) {
	failed, err := removeWorkspaces(ctx, store, session.StatusFailed)
	if err != nil {
		return ClearResult{}, err
	}
	cleared, err := store.PruneFailed(ctx)
	if err != nil {
		return ClearResult{FailedWorkspaces: failed}, err
	}
	return ClearResult{Cleared: cleared, FailedWorkspaces: failed}, nil
}

// RemoveSession deletes a single session row and its workspace directory.
// Missing sessions return (false, nil).
func RemoveSession(ctx context.Context, store SessionMaintainer, id string) (bool, error) {
	sess, err := store.GetSession(ctx, id)
	if err != nil {
		return false, err
	}
	if sess == nil {
		return false, nil
	}

	removed, err := store.Remove(ctx, id)
	if err != nil || !removed {
		return removed, err
	}
	if ws := strings.TrimSpace(sess.Workspace); ws != "" {
		if err := workspace.New(ws).Remove(); err != nil {
			return true, fmt.Errorf("session removed but workspace cleanup failed: %w", err)
		}
	}
	return true, nil
}

func removeWorkspaces(ctx context.Context, store SessionMaintainer, statuses ...session.Status) ([]string, error) {
	sessions, err := store.List(ctx, statuses...)
	if err != nil {
		return nil, err
	}
	var failed []string
	for _, sess := range sessions {
		ws := strings.TrimSpace(sess.Workspace)
		if ws == "" {
			continue
		}
		if err := workspace.New(ws).Remove(); err != nil {
			failed = append(failed, ws)
		}
	}
	return failed, nil
}
