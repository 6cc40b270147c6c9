package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExternalTool  = errors.New("external tool failed")
	ErrValidation    = errors.New("validation failed")
	ErrConfiguration = errors.New("configuration invalid")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient error")
)

// stageError carries the stage context alongside the classification marker so
// failure reporting can recover structured fields instead of re-parsing the
// message string.
type stageError struct {
	marker    error
	stage     string
	operation string
	message   string
	cause     error
}

func (e *stageError) Error() string {
	detail := buildDetail(e.stage, e.operation, e.message)
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.marker.Error(), detail, e.cause.Error())
	}
	return fmt.Sprintf("%s: %s", e.marker.Error(), detail)
}

func (e *stageError) Unwrap() []error {
	if e.cause != nil {
		return []error{e.marker, e.cause}
	}
	return []error{e.marker}
}

// Wrap builds an error that includes stage context while tagging it with the
// provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	if marker == nil {
		marker = ErrTransient
	}
	return &stageError{
		marker:    marker,
		stage:     strings.TrimSpace(stage),
		operation: strings.TrimSpace(operation),
		message:   strings.TrimSpace(message),
		cause:     err,
	}
}

// ErrorDetails describes the structured fields recovered from a wrapped stage
// error. Zero values mean the originating code did not supply them.
type ErrorDetails struct {
	Stage     string
	Operation string
	Message   string
	Cause     error
}

// Details recovers structured failure fields from err. Errors that did not
// pass through Wrap yield only the flattened message.
func Details(err error) ErrorDetails {
	if err == nil {
		return ErrorDetails{}
	}
	var se *stageError
	if errors.As(err, &se) {
		message := se.message
		if message == "" && se.cause != nil {
			message = se.cause.Error()
		}
		return ErrorDetails{
			Stage:     se.stage,
			Operation: se.operation,
			Message:   message,
			Cause:     se.cause,
		}
	}
	return ErrorDetails{Message: err.Error()}
}

// NeedsReview reports whether a stage failure should be flagged for operator
// attention rather than treated as an ordinary runtime fault.
func NeedsReview(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrConfiguration) || errors.Is(err, ErrNotFound)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage != "" {
		parts = append(parts, stage)
	}
	if operation != "" {
		parts = append(parts, operation)
	}
	if message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
