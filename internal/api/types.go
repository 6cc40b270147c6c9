package api

// dateTimeFormat renders RFC3339 with millisecond precision.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// SessionStatus is the poll payload for one session. The boolean flags mirror
// the stage completion columns; Error stays null until a stage fails.
type SessionStatus struct {
	ID              string     `json:"id"`
	Status          string     `json:"status"`
	ColorEdit       bool       `json:"color_edit"`
	Transcription   bool       `json:"transcription"`
	Chapters        bool       `json:"chapters"`
	TitlesExtracted bool       `json:"titles_extracted"`
	TitleSelected   bool       `json:"title_selected"`
	Description     bool       `json:"description"`
	Uploaded        bool       `json:"uploaded"`
	Error           *ErrorInfo `json:"error"`
}

// ErrorInfo carries the first recorded failure for a session.
type ErrorInfo struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

// Session describes a session in a transport-friendly format.
type Session struct {
	ID              string          `json:"id"`
	SourcePath      string          `json:"source_path"`
	SourceName      string          `json:"source_name,omitempty"`
	Workspace       string          `json:"workspace"`
	Status          string          `json:"status"`
	Title           string          `json:"title,omitempty"`
	VideoID         string          `json:"video_id,omitempty"`
	Progress        SessionProgress `json:"progress"`
	Error           *ErrorInfo      `json:"error,omitempty"`
	NeedsReview     bool            `json:"needs_review"`
	ColorEdit       bool            `json:"color_edit"`
	Transcription   bool            `json:"transcription"`
	Chapters        bool            `json:"chapters"`
	TitlesExtracted bool            `json:"titles_extracted"`
	Uploaded        bool            `json:"uploaded"`
	CreatedAt       string          `json:"created_at,omitempty"`
	UpdatedAt       string          `json:"updated_at,omitempty"`
	StartedAt       string          `json:"started_at,omitempty"`
	ConfirmedAt     string          `json:"confirmed_at,omitempty"`
	UploadedAt      string          `json:"uploaded_at,omitempty"`
}

// SessionProgress captures stage progress for a session.
type SessionProgress struct {
	Stage   string  `json:"stage"`
	Percent float64 `json:"percent"`
	Message string  `json:"message"`
}

// WorkflowStatus reports whether the poll loop is running and how the
// sessions are distributed across statuses.
type WorkflowStatus struct {
	Running      bool           `json:"running"`
	SessionStats map[string]int `json:"session_stats"`
	LastError    string         `json:"last_error,omitempty"`
	LastSession  *Session       `json:"last_session,omitempty"`
	StageHealth  []StageHealth  `json:"stage_health"`
}

// StageHealth is the transport form of a stage readiness probe.
type StageHealth struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// DependencyStatus tells API consumers whether an external tool resolved.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// DaemonStatus bundles everything the status command shows about a
// running server.
type DaemonStatus struct {
	Running      bool               `json:"running"`
	PID          int                `json:"pid"`
	DatabasePath string             `json:"database_path"`
	LockFilePath string             `json:"lock_file_path"`
	WorkDirFree  string             `json:"work_dir_free,omitempty"`
	Workflow     WorkflowStatus     `json:"workflow"`
	Dependencies []DependencyStatus `json:"dependencies"`
}

// SessionListResponse wraps a collection of sessions for API responses.
type SessionListResponse struct {
	Sessions []Session `json:"sessions"`
}

// SessionResponse wraps a single session.
type SessionResponse struct {
	Session Session `json:"session"`
}

// StatsResponse provides session counts keyed by status.
type StatsResponse struct {
	Counts map[string]int `json:"counts"`
}

// TitlesResponse lists the generated title suggestions for a session.
type TitlesResponse struct {
	Titles []string `json:"titles"`
}

// ErrorResponse is the JSON error envelope returned for failed requests.
type ErrorResponse struct {
	Error string `json:"error"`
}
