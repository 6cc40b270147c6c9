package api

import (
	"context"

	"vidpipe/internal/session"
)

// SessionReader abstracts the session store queries the read-side API needs.
type SessionReader interface {
	List(ctx context.Context, statuses ...session.Status) ([]*session.Session, error)
	CountByStatus(ctx context.Context) (map[session.Status]int, error)
	GetSession(ctx context.Context, id string) (*session.Session, error)
	GetStatus(ctx context.Context, id string) (session.Snapshot, error)
}

// SessionService exposes read-only session operations returning API DTOs.
type SessionService struct {
	store SessionReader
}

// NewSessionService constructs a SessionService around the provided reader.
func NewSessionService(store SessionReader) *SessionService {
	if store == nil {
		return nil
	}
	return &SessionService{store: store}
}

// List returns sessions filtered by status, oldest first.
func (s *SessionService) List(ctx context.Context, statuses ...session.Status) ([]Session, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	sessions, err := s.store.List(ctx, statuses...)
	if err != nil {
		return nil, err
	}
	return FromSessions(sessions), nil
}

// Stats returns session counts keyed by status string.
func (s *SessionService) Stats(ctx context.Context) (map[string]int, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	stats, err := s.store.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(stats))
	for status, count := range stats {
		out[string(status)] = count
	}
	return out, nil
}

// Describe fetches a single session. Missing sessions return (nil, nil).
func (s *SessionService) Describe(ctx context.Context, id string) (*Session, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	sess, err := s.store.GetSession(ctx, id)
	if err != nil || sess == nil {
		return nil, err
	}
	dto := FromSession(sess)
	return &dto, nil
}

// Status returns the poll payload for a session. Unknown IDs surface
// session.ErrNotFound so handlers can map them to 404 responses.
func (s *SessionService) Status(ctx context.Context, id string) (SessionStatus, error) {
	if s == nil || s.store == nil {
		return SessionStatus{}, session.ErrNotFound
	}
	snap, err := s.store.GetStatus(ctx, id)
	if err != nil {
		return SessionStatus{}, err
	}
	return FromSnapshot(snap), nil
}
