package session

import (
	"database/sql"
	"errors"
	"strings"
	"time"
)

const sessionColumns = "id, source_path, workspace, status, color_edit_done, color_edit_at, transcription_done, transcription_at, chapters_done, chapters_at, titles_extracted, titles_extracted_at, uploaded, uploaded_at, title, video_id, error_stage, error_message, needs_review, progress_stage, progress_percent, progress_message, started_at, confirmed_at, created_at, updated_at"

func scanSession(scanner interface{ Scan(dest ...any) error }) (*Session, error) {
	var (
		id               string
		sourcePath       string
		workspaceDir     string
		statusStr        string
		colorEditDone    sql.NullInt64
		colorEditAt      sql.NullString
		transcribeDone   sql.NullInt64
		transcribeAt     sql.NullString
		chaptersDone     sql.NullInt64
		chaptersAt       sql.NullString
		titlesExtracted  sql.NullInt64
		titlesAt         sql.NullString
		uploadedFlag     sql.NullInt64
		uploadedAt       sql.NullString
		title            sql.NullString
		videoID          sql.NullString
		errorStage       sql.NullString
		errorMessage     sql.NullString
		needsReview      sql.NullInt64
		progressStage    sql.NullString
		progressPercent  sql.NullFloat64
		progressMessage  sql.NullString
		startedAtRaw     sql.NullString
		confirmedAtRaw   sql.NullString
		createdRaw       sql.NullString
		updatedRaw       sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&sourcePath,
		&workspaceDir,
		&statusStr,
		&colorEditDone,
		&colorEditAt,
		&transcribeDone,
		&transcribeAt,
		&chaptersDone,
		&chaptersAt,
		&titlesExtracted,
		&titlesAt,
		&uploadedFlag,
		&uploadedAt,
		&title,
		&videoID,
		&errorStage,
		&errorMessage,
		&needsReview,
		&progressStage,
		&progressPercent,
		&progressMessage,
		&startedAtRaw,
		&confirmedAtRaw,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	sess := &Session{
		ID:              id,
		SourcePath:      sourcePath,
		Workspace:       workspaceDir,
		Status:          Status(statusStr),
		Title:           title.String,
		VideoID:         videoID.String,
		ErrorStage:      errorStage.String,
		ErrorMessage:    errorMessage.String,
		ProgressStage:   progressStage.String,
		ProgressPercent: progressPercent.Float64,
		ProgressMessage: progressMessage.String,
	}
	sess.ColorEditDone = colorEditDone.Valid && colorEditDone.Int64 != 0
	sess.TranscriptionDone = transcribeDone.Valid && transcribeDone.Int64 != 0
	sess.ChaptersDone = chaptersDone.Valid && chaptersDone.Int64 != 0
	sess.TitlesExtracted = titlesExtracted.Valid && titlesExtracted.Int64 != 0
	sess.Uploaded = uploadedFlag.Valid && uploadedFlag.Int64 != 0
	sess.NeedsReview = needsReview.Valid && needsReview.Int64 != 0

	sess.ColorEditAt = parseNullableTime(colorEditAt)
	sess.TranscriptionAt = parseNullableTime(transcribeAt)
	sess.ChaptersAt = parseNullableTime(chaptersAt)
	sess.TitlesExtractedAt = parseNullableTime(titlesAt)
	sess.UploadedAt = parseNullableTime(uploadedAt)
	sess.StartedAt = parseNullableTime(startedAtRaw)
	sess.ConfirmedAt = parseNullableTime(confirmedAtRaw)

	if created, err := parseDBTime(createdRaw.String); err == nil {
		sess.CreatedAt = created
	}
	if updated, err := parseDBTime(updatedRaw.String); err == nil {
		sess.UpdatedAt = updated
	}
	return sess, nil
}

// stageColumns maps a completion flag to its column pair. The names are fixed
// identifiers, never user input.
func stageColumns(stage Stage) (flagCol, atCol string, ok bool) {
	switch stage {
	case StageColorEdit:
		return "color_edit_done", "color_edit_at", true
	case StageTranscription:
		return "transcription_done", "transcription_at", true
	case StageChapters:
		return "chapters_done", "chapters_at", true
	case StageTitles:
		return "titles_extracted", "titles_extracted_at", true
	case StageUpload:
		return "uploaded", "uploaded_at", true
	default:
		return "", "", false
	}
}

func parseNullableTime(value sql.NullString) *time.Time {
	if !value.Valid {
		return nil
	}
	t, err := parseDBTime(value.String)
	if err != nil {
		return nil
	}
	return &t
}

func nullIfBlank(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolAsInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseDBTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

// timestamp renders a fixed-width UTC string. RFC3339Nano trims trailing
// zeros, which would break the lexicographic ORDER BY on these columns.
func timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000000Z07:00")
}

func placeholderList(count int) string {
	if count <= 0 {
		return ""
	}
	marks := make([]string, count)
	for i := range marks {
		marks[i] = "?"
	}
	return strings.Join(marks, ",")
}
