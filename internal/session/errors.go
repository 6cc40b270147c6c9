package session

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound reports that no session exists with the requested ID.
	ErrNotFound = errors.New("session not found")
	// ErrSessionFailed reports an operation on a session already marked failed.
	ErrSessionFailed = errors.New("session already failed")
	// ErrAlreadyConfirmed reports a duplicate upload confirmation.
	ErrAlreadyConfirmed = errors.New("upload already confirmed")
)

// InvalidTransitionError reports a status move outside the workflow graph.
type InvalidTransitionError struct {
	ID   string
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("session %s: invalid transition %s -> %s", e.ID, e.From, e.To)
}

// AllocationError reports a failure to allocate the session workspace on disk.
type AllocationError struct {
	Path string
	Err  error
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("allocate workspace %s: %v", e.Path, e.Err)
}

func (e *AllocationError) Unwrap() error { return e.Err }

// SourceError reports an unusable input video.
type SourceError struct {
	Path   string
	Reason string
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source video %s: %s", e.Path, e.Reason)
}
