package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"vidpipe/internal/config"
)

const userAgent = "VidPipe-Go/0.1.0"

// Service is what workflow code calls to announce pipeline events.
type Service interface {
	NotifySessionCreated(ctx context.Context, name string) error
	NotifyColorEditCompleted(ctx context.Context, name string) error
	NotifyTranscriptionCompleted(ctx context.Context, name string) error
	NotifyChaptersReady(ctx context.Context, name string, suggestions int) error
	NotifyUploadCompleted(ctx context.Context, title, videoID string) error
	NotifyError(ctx context.Context, err error, label string) error
	TestNotification(ctx context.Context) error
}

// NewService returns an ntfy-backed notifier when a topic is configured and
// a no-op notifier otherwise, so callers never need a nil check.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &http.Client{Timeout: timeout}
	return &ntfyService{
		endpoint: topic,
		client:   client,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifySessionCreated(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	return n.send(ctx, payload{
		title:   "Video Pipeline - New Recording",
		message: fmt.Sprintf("🎬 Session created: %s", name),
		tags:    []string{"vidpipe", "session", "created"},
	})
}

func (n *ntfyService) NotifyColorEditCompleted(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	return n.send(ctx, payload{
		title:   "Video Pipeline - Color Edit Complete",
		message: fmt.Sprintf("🎨 Color edit complete: %s", name),
		tags:    []string{"vidpipe", "color", "completed"},
	})
}

func (n *ntfyService) NotifyTranscriptionCompleted(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	return n.send(ctx, payload{
		title:   "Video Pipeline - Transcribed",
		message: fmt.Sprintf("🎙️ Transcription complete: %s", name),
		tags:    []string{"vidpipe", "transcribe", "completed"},
	})
}

func (n *ntfyService) NotifyChaptersReady(ctx context.Context, name string, suggestions int) error {
	name = strings.TrimSpace(name)
	message := fmt.Sprintf("📑 Chapters ready: %s\nWaiting for title selection", name)
	if suggestions > 0 {
		message = fmt.Sprintf("📑 Chapters ready: %s\n%d suggested titles, waiting for selection", name, suggestions)
	}
	return n.send(ctx, payload{
		title:    "Video Pipeline - Action Needed",
		message:  message,
		tags:     []string{"vidpipe", "chapters", "review"},
		priority: "high",
	})
}

func (n *ntfyService) NotifyUploadCompleted(ctx context.Context, title, videoID string) error {
	title = strings.TrimSpace(title)
	videoID = strings.TrimSpace(videoID)
	message := fmt.Sprintf("✅ Published to YouTube: %s", title)
	if videoID != "" {
		message = fmt.Sprintf("%s\nhttps://youtu.be/%s", message, videoID)
	}
	return n.send(ctx, payload{
		title:    "Video Pipeline - Uploaded",
		message:  message,
		tags:     []string{"vidpipe", "upload", "completed"},
		priority: "high",
	})
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	detail := "unknown"
	if err != nil {
		detail = strings.TrimSpace(err.Error())
	}
	subject := "❌ Error"
	if label := strings.TrimSpace(contextLabel); label != "" {
		subject += " with " + label
	}

	return n.send(ctx, payload{
		title:    "Video Pipeline - Error",
		message:  subject + ": " + detail,
		tags:     []string{"vidpipe", "error", "alert"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "Video Pipeline - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"vidpipe", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, p payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(p.message))
	if err != nil {
		return fmt.Errorf("create ntfy request: %w", err)
	}
	applyHeaders(req, p)

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("post to ntfy: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}

// applyHeaders maps payload fields onto ntfy's publish headers. Priority
// "default" is ntfy's own fallback and is never sent explicitly.
func applyHeaders(req *http.Request, p payload) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if p.title != "" {
		req.Header.Set("Title", p.title)
	}
	if len(p.tags) > 0 {
		req.Header.Set("Tags", strings.Join(p.tags, ","))
	}
	if p.priority != "" && p.priority != "default" {
		req.Header.Set("Priority", p.priority)
	}
}

type noopService struct{}

func (noopService) NotifySessionCreated(context.Context, string) error          { return nil }
func (noopService) NotifyColorEditCompleted(context.Context, string) error      { return nil }
func (noopService) NotifyTranscriptionCompleted(context.Context, string) error  { return nil }
func (noopService) NotifyChaptersReady(context.Context, string, int) error      { return nil }
func (noopService) NotifyUploadCompleted(context.Context, string, string) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error            { return nil }
func (noopService) TestNotification(context.Context) error                      { return nil }
