package testsupport

import (
	"context"
	"sync"
)

// ChapterPing records one chapters-ready notification.
type ChapterPing struct {
	Name        string
	Suggestions int
}

// UploadPing records one upload-completed notification.
type UploadPing struct {
	Title   string
	VideoID string
}

// Notifier implements notifications.Service and records every call so stage
// tests can assert on notification behavior.
type Notifier struct {
	mu             sync.Mutex
	Created        []string
	ColorEdits     []string
	Transcriptions []string
	Chapters       []ChapterPing
	Uploads        []UploadPing
	Errors         []string
	TestPings      int
}

func (n *Notifier) NotifySessionCreated(_ context.Context, name string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Created = append(n.Created, name)
	return nil
}

func (n *Notifier) NotifyColorEditCompleted(_ context.Context, name string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ColorEdits = append(n.ColorEdits, name)
	return nil
}

func (n *Notifier) NotifyTranscriptionCompleted(_ context.Context, name string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Transcriptions = append(n.Transcriptions, name)
	return nil
}

func (n *Notifier) NotifyChaptersReady(_ context.Context, name string, suggestions int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Chapters = append(n.Chapters, ChapterPing{Name: name, Suggestions: suggestions})
	return nil
}

func (n *Notifier) NotifyUploadCompleted(_ context.Context, title, videoID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Uploads = append(n.Uploads, UploadPing{Title: title, VideoID: videoID})
	return nil
}

func (n *Notifier) NotifyError(_ context.Context, _ error, contextLabel string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Errors = append(n.Errors, contextLabel)
	return nil
}

func (n *Notifier) TestNotification(context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.TestPings++
	return nil
}
