package session

import (
	"strings"
	"time"
)

// Status labels a session's position in the publishing workflow.
type Status string

const (
	StatusCreated              Status = "created"
	StatusColorEditing         Status = "color_editing"
	StatusColorEdited          Status = "color_edited"
	StatusTranscribing         Status = "transcribing"
	StatusTranscribed          Status = "transcribed"
	StatusGeneratingChapters   Status = "generating_chapters"
	StatusChaptersReady        Status = "chapters_ready"
	StatusAwaitingTitle        Status = "awaiting_title"
	StatusAwaitingDescription  Status = "awaiting_description"
	StatusAwaitingConfirmation Status = "awaiting_confirmation"
	StatusUploading            Status = "uploading"
	StatusUploaded             Status = "uploaded"
	StatusFailed               Status = "failed"
)

var statusSet = map[Status]struct{}{
	StatusCreated:              {},
	StatusColorEditing:         {},
	StatusColorEdited:          {},
	StatusTranscribing:         {},
	StatusTranscribed:          {},
	StatusGeneratingChapters:   {},
	StatusChaptersReady:        {},
	StatusAwaitingTitle:        {},
	StatusAwaitingDescription:  {},
	StatusAwaitingConfirmation: {},
	StatusUploading:            {},
	StatusUploaded:             {},
	StatusFailed:               {},
}

var processingStatuses = map[Status]struct{}{
	StatusColorEditing:       {},
	StatusTranscribing:       {},
	StatusGeneratingChapters: {},
	StatusUploading:          {},
}

// ParseStatus normalizes raw into a known Status.
func ParseStatus(raw string) (Status, bool) {
	status := Status(strings.ToLower(strings.TrimSpace(raw)))
	_, ok := statusSet[status]
	return status, ok
}

// AllStatuses returns every status in workflow order.
func AllStatuses() []Status {
	return []Status{
		StatusCreated,
		StatusColorEditing,
		StatusColorEdited,
		StatusTranscribing,
		StatusTranscribed,
		StatusGeneratingChapters,
		StatusChaptersReady,
		StatusAwaitingTitle,
		StatusAwaitingDescription,
		StatusAwaitingConfirmation,
		StatusUploading,
		StatusUploaded,
		StatusFailed,
	}
}

// IsProcessing reports whether status marks a stage actively running.
func (s Status) IsProcessing() bool {
	_, ok := processingStatuses[s]
	return ok
}

// IsTerminal reports whether the workflow is finished for this status.
func (s Status) IsTerminal() bool {
	return s == StatusUploaded || s == StatusFailed
}

// IsHumanStep reports whether the session is parked waiting for operator input.
func (s Status) IsHumanStep() bool {
	switch s {
	case StatusChaptersReady, StatusAwaitingTitle, StatusAwaitingDescription, StatusAwaitingConfirmation:
		return true
	default:
		return false
	}
}

// Stage identifies a completion flag on the session record.
type Stage string

const (
	StageColorEdit     Stage = "color_edit"
	StageTranscription Stage = "transcription"
	StageChapters      Stage = "chapters"
	StageTitles        Stage = "titles_extracted"
	StageUpload        Stage = "uploaded"
)

// Session is one video moving through the pipeline.
type Session struct {
	ID                string
	SourcePath        string
	Workspace         string
	Status            Status
	ColorEditDone     bool
	ColorEditAt       *time.Time
	TranscriptionDone bool
	TranscriptionAt   *time.Time
	ChaptersDone      bool
	ChaptersAt        *time.Time
	TitlesExtracted   bool
	TitlesExtractedAt *time.Time
	Uploaded          bool
	UploadedAt        *time.Time
	Title             string
	VideoID           string
	ErrorStage        string
	ErrorMessage      string
	NeedsReview       bool
	ProgressStage     string
	ProgressPercent   float64
	ProgressMessage   string
	StartedAt         *time.Time
	ConfirmedAt       *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// StageDone reports whether the given completion flag is set.
func (s *Session) StageDone(stage Stage) bool {
	switch stage {
	case StageColorEdit:
		return s.ColorEditDone
	case StageTranscription:
		return s.TranscriptionDone
	case StageChapters:
		return s.ChaptersDone
	case StageTitles:
		return s.TitlesExtracted
	case StageUpload:
		return s.Uploaded
	default:
		return false
	}
}

// Snapshot is the poll-friendly view of a session used by the status API.
type Snapshot struct {
	ID              string
	Status          Status
	ColorEdit       bool
	Transcription   bool
	Chapters        bool
	TitlesExtracted bool
	TitleSelected   bool
	Description     bool
	Uploaded        bool
	ErrorStage      string
	ErrorMessage    string
}

// Snapshot derives the status view. TitleSelected and Description are not
// stored flags; they fall out of the title column and how far past the
// description step the workflow has moved.
func (s *Session) Snapshot() Snapshot {
	descriptionReady := false
	switch s.Status {
	case StatusAwaitingConfirmation, StatusUploading, StatusUploaded:
		descriptionReady = true
	case StatusFailed:
		// A failed upload still has the description the operator approved.
		descriptionReady = s.ConfirmedAt != nil
	}
	return Snapshot{
		ID:              s.ID,
		Status:          s.Status,
		ColorEdit:       s.ColorEditDone,
		Transcription:   s.TranscriptionDone,
		Chapters:        s.ChaptersDone,
		TitlesExtracted: s.TitlesExtracted,
		TitleSelected:   strings.TrimSpace(s.Title) != "",
		Description:     descriptionReady,
		Uploaded:        s.Uploaded,
		ErrorStage:      s.ErrorStage,
		ErrorMessage:    s.ErrorMessage,
	}
}
