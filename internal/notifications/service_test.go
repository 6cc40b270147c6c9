package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"vidpipe/internal/config"
	"vidpipe/internal/notifications"
)

func TestNewServiceNoopWithoutTopic(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyUploadCompleted(context.Background(), "Example", "abc123"); err != nil {
		t.Fatalf("noop notifier should swallow sends, got %v", err)
	}
}

func TestNtfyPayloadFormatting(t *testing.T) {
	tests := []struct {
		name           string
		notify         func(svc notifications.Service) error
		wantTitle    string
		wantBody  string
		wantTags     string
		wantPriority string
	}{
		{
			name: "session created",
			notify: func(svc notifications.Service) error {
				return svc.NotifySessionCreated(context.Background(), "demo.mp4")
			},
			wantTitle:   "Video Pipeline - New Recording",
			wantBody: "🎬 Session created: demo.mp4",
			wantTags:    "vidpipe,session,created",
		},
		{
			name: "color edit completed",
			notify: func(svc notifications.Service) error {
				return svc.NotifyColorEditCompleted(context.Background(), "demo.mp4")
			},
			wantTitle:   "Video Pipeline - Color Edit Complete",
			wantBody: "🎨 Color edit complete: demo.mp4",
			wantTags:    "vidpipe,color,completed",
		},
		{
			name: "transcription completed",
			notify: func(svc notifications.Service) error {
				return svc.NotifyTranscriptionCompleted(context.Background(), "demo.mp4")
			},
			wantTitle:   "Video Pipeline - Transcribed",
			wantBody: "🎙️ Transcription complete: demo.mp4",
			wantTags:    "vidpipe,transcribe,completed",
		},
		{
			name: "chapters ready with suggestions",
			notify: func(svc notifications.Service) error {
				return svc.NotifyChaptersReady(context.Background(), "demo.mp4", 3)
			},
			wantTitle:    "Video Pipeline - Action Needed",
			wantBody:  "📑 Chapters ready: demo.mp4\n3 suggested titles, waiting for selection",
			wantTags:     "vidpipe,chapters,review",
			wantPriority: "high",
		},
		{
			name: "chapters ready without suggestions",
			notify: func(svc notifications.Service) error {
				return svc.NotifyChaptersReady(context.Background(), "demo.mp4", 0)
			},
			wantTitle:    "Video Pipeline - Action Needed",
			wantBody:  "📑 Chapters ready: demo.mp4\nWaiting for title selection",
			wantTags:     "vidpipe,chapters,review",
			wantPriority: "high",
		},
		{
			name: "upload completed",
			notify: func(svc notifications.Service) error {
				return svc.NotifyUploadCompleted(context.Background(), "My Video", "dQw4w9WgXcQ")
			},
			wantTitle:    "Video Pipeline - Uploaded",
			wantBody:  "✅ Published to YouTube: My Video\nhttps://youtu.be/dQw4w9WgXcQ",
			wantTags:     "vidpipe,upload,completed",
			wantPriority: "high",
		},
		{
			name: "error",
			notify: func(svc notifications.Service) error {
				return svc.NotifyError(context.Background(), errors.New("no audio track"), "color edit")
			},
			wantTitle:    "Video Pipeline - Error",
			wantBody:  "❌ Error with color edit: no audio track",
			wantTags:     "vidpipe,error,alert",
			wantPriority: "high",
		},
		{
			name: "test notification",
			notify: func(svc notifications.Service) error {
				return svc.TestNotification(context.Background())
			},
			wantTitle:    "Video Pipeline - Test",
			wantBody:  "🧪 Notification system test",
			wantTags:     "vidpipe,test",
			wantPriority: "low",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got struct {
				title    string
				tags     string
				priority string
				body     string
			}

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Fatalf("method = %s, want POST", r.Method)
				}
				got.title = r.Header.Get("Title")
				got.tags = r.Header.Get("Tags")
				got.priority = r.Header.Get("Priority")
				body, err := io.ReadAll(r.Body)
				if err != nil {
					t.Fatalf("read body: %v", err)
				}
				got.body = string(body)
				_ = r.Body.Close()
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			cfg.Notifications.RequestTimeout = 5

			svc := notifications.NewService(&cfg)
			if err := tc.notify(svc); err != nil {
				t.Fatalf("notify: %v", err)
			}

			if got.title != tc.wantTitle {
				t.Fatalf("title = %q, want %q", got.title, tc.wantTitle)
			}
			if got.body != tc.wantBody {
				t.Fatalf("body = %q, want %q", got.body, tc.wantBody)
			}
			if got.tags != tc.wantTags {
				t.Fatalf("tags = %q, want %q", got.tags, tc.wantTags)
			}
			if got.priority != tc.wantPriority {
				t.Fatalf("priority = %q, want %q", got.priority, tc.wantPriority)
			}
		})
	}
}

func TestNtfyServiceReportsServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("topic is protected"))
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL

	svc := notifications.NewService(&cfg)
	err := svc.TestNotification(context.Background())
	if err == nil {
		t.Fatal("expected error for non-2xx response")
	}
	if got := err.Error(); got != "ntfy returned 403: topic is protected" {
		t.Fatalf("unexpected error message: %q", got)
	}
}
