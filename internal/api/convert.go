package api

import (
	"strings"
	"time"

	"vidpipe/internal/deps"
	"vidpipe/internal/session"
	"vidpipe/internal/stage"
	"vidpipe/internal/workflow"
)

// FromSession converts a session record to its API representation.
func FromSession(sess *session.Session) Session {
	if sess == nil {
		return Session{}
	}

	dto := Session{
		ID:              sess.ID,
		SourcePath:      sess.SourcePath,
		SourceName:      stage.DisplayName(sess),
		Workspace:       sess.Workspace,
		Status:          string(sess.Status),
		Title:           strings.TrimSpace(sess.Title),
		VideoID:         strings.TrimSpace(sess.VideoID),
		NeedsReview:     sess.NeedsReview,
		ColorEdit:       sess.ColorEditDone,
		Transcription:   sess.TranscriptionDone,
		Chapters:        sess.ChaptersDone,
		TitlesExtracted: sess.TitlesExtracted,
		Uploaded:        sess.Uploaded,
		Progress: SessionProgress{
			Stage:   sess.ProgressStage,
			Percent: sess.ProgressPercent,
			Message: sess.ProgressMessage,
		},
	}
	if sess.ErrorStage != "" || sess.ErrorMessage != "" {
		dto.Error = &ErrorInfo{Stage: sess.ErrorStage, Message: sess.ErrorMessage}
	}
	dto.CreatedAt = FormatTime(sess.CreatedAt)
	dto.UpdatedAt = FormatTime(sess.UpdatedAt)
	if sess.StartedAt != nil {
		dto.StartedAt = FormatTime(*sess.StartedAt)
	}
	if sess.ConfirmedAt != nil {
		dto.ConfirmedAt = FormatTime(*sess.ConfirmedAt)
	}
	if sess.UploadedAt != nil {
		dto.UploadedAt = FormatTime(*sess.UploadedAt)
	}
	return dto
}

// FromSessions converts a slice of session records into API DTOs.
func FromSessions(sessions []*session.Session) []Session {
	if len(sessions) == 0 {
		return nil
	}
	out := make([]Session, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, FromSession(sess))
	}
	return out
}

// FromSnapshot converts the store's poll view into the status payload.
func FromSnapshot(snap session.Snapshot) SessionStatus {
	payload := SessionStatus{
		ID:              snap.ID,
		Status:          string(snap.Status),
		ColorEdit:       snap.ColorEdit,
		Transcription:   snap.Transcription,
		Chapters:        snap.Chapters,
		TitlesExtracted: snap.TitlesExtracted,
		TitleSelected:   snap.TitleSelected,
		Description:     snap.Description,
		Uploaded:        snap.Uploaded,
	}
	if snap.ErrorStage != "" || snap.ErrorMessage != "" {
		payload.Error = &ErrorInfo{Stage: snap.ErrorStage, Message: snap.ErrorMessage}
	}
	return payload
}

// FromStatusSummary converts a workflow status summary to API payload.
func FromStatusSummary(summary workflow.StatusSummary) WorkflowStatus {
	stats := make(map[string]int, len(summary.SessionStats))
	for status, count := range summary.SessionStats {
		stats[string(status)] = count
	}

	wf := WorkflowStatus{
		Running:      summary.Running,
		SessionStats: stats,
		StageHealth:  FromStageHealth(summary.StageHealth),
	}
	if summary.LastError != "" {
		wf.LastError = summary.LastError
	}
	if summary.LastSession != nil {
		last := FromSession(summary.LastSession)
		wf.LastSession = &last
	}
	return wf
}

// FromStageHealth converts stage health records, preserving registration order.
func FromStageHealth(health []stage.Health) []StageHealth {
	if len(health) == 0 {
		return nil
	}
	out := make([]StageHealth, 0, len(health))
	for _, h := range health {
		out = append(out, StageHealth{Name: h.Name, Ready: h.Ready, Detail: h.Detail})
	}
	return out
}

// FromDependencies converts dependency checks into API DTOs.
func FromDependencies(statuses []deps.Status) []DependencyStatus {
	if len(statuses) == 0 {
		return nil
	}
	out := make([]DependencyStatus, 0, len(statuses))
	for _, status := range statuses {
		out = append(out, DependencyStatus{
			Name:        status.Name,
			Command:     status.Command,
			Description: status.Description,
			Optional:    status.Optional,
			Available:   status.Available,
			Detail:      status.Detail,
		})
	}
	return out
}

// FormatTime converts a time to RFC3339 or returns the empty string.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
