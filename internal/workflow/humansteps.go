package workflow

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"vidpipe/internal/services"
	"vidpipe/internal/services/chaptermaker"
	"vidpipe/internal/session"
	"vidpipe/internal/workspace"
)

// PresentTitles moves a session into the title step and returns the tool's
// suggested titles. Sessions already at the title step only reload the
// suggestions, so rendering the page twice is harmless. A missing or
// malformed chapters document yields no suggestions rather than an error;
// the surfaces then offer the custom-title entry alone.
func PresentTitles(ctx context.Context, store *session.Store, sess *session.Session) ([]string, error) {
	if sess == nil {
		return nil, errors.New("session is required")
	}

	switch sess.Status {
	case session.StatusChaptersReady:
		if err := store.BeginTitleSelection(ctx, sess.ID); err != nil {
			return nil, err
		}
		sess.Status = session.StatusAwaitingTitle
	case session.StatusAwaitingTitle:
	default:
		return nil, &session.InvalidTransitionError{ID: sess.ID, From: sess.Status, To: session.StatusAwaitingTitle}
	}

	doc, err := chaptermaker.LoadDocument(workspace.New(sess.Workspace).Chapters())
	if err != nil {
		return nil, nil
	}
	return doc.SuggestedTitles, nil
}

// ChooseTitle records the chosen title, advances the session to the
// description step, and seeds the description from the chapter markers when
// no description artifact exists yet. The store row is the authority for the
// title; final_title.txt is written alongside it for the download page.
func ChooseTitle(ctx context.Context, store *session.Store, sess *session.Session, title string) error {
	if sess == nil {
		return errors.New("session is required")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return services.Wrap(services.ErrValidation, "titles", "choose title", "title is empty", nil)
	}

	if err := store.SelectTitle(ctx, sess.ID, title); err != nil {
		return err
	}
	sess.Status = session.StatusAwaitingDescription
	sess.Title = title

	ws := workspace.New(sess.Workspace)
	if err := os.WriteFile(ws.FinalTitle(), []byte(title+"\n"), 0o644); err != nil {
		return fmt.Errorf("write title artifact: %w", err)
	}
	if workspace.ArtifactReady(ws.Description()) {
		return nil
	}
	doc, err := chaptermaker.LoadDocument(ws.Chapters())
	if err != nil {
		return nil
	}
	markers := doc.Markers()
	if len(markers) == 0 {
		return nil
	}
	seeded := strings.Join(markers, "\n") + "\n"
	if err := os.WriteFile(ws.Description(), []byte(seeded), 0o644); err != nil {
		return fmt.Errorf("seed description: %w", err)
	}
	return nil
}

// SaveDescription replaces the description artifact with the given text and
// advances the session to the confirmation step.
func SaveDescription(ctx context.Context, store *session.Store, sess *session.Session, text string) error {
	if sess == nil {
		return errors.New("session is required")
	}

	ws := workspace.New(sess.Workspace)
	if err := os.WriteFile(ws.Description(), []byte(text), 0o644); err != nil {
		return fmt.Errorf("write description: %w", err)
	}
	if err := store.MarkDescriptionReady(ctx, sess.ID); err != nil {
		return err
	}
	sess.Status = session.StatusAwaitingConfirmation
	return nil
}

// AcceptDescription advances past the description step without touching the
// artifact. Used when the operator edited the file in place or when the
// seeded markers are kept as is.
func AcceptDescription(ctx context.Context, store *session.Store, sess *session.Session) error {
	if sess == nil {
		return errors.New("session is required")
	}
	if err := store.MarkDescriptionReady(ctx, sess.ID); err != nil {
		return err
	}
	sess.Status = session.StatusAwaitingConfirmation
	return nil
}

// AutoConfirm walks a session from generated chapters to confirmed upload
// without prompting: the first suggested title is accepted and the seeded
// description kept. With no suggestions there is nothing safe to accept, so
// the run fails with a validation error instead of uploading untitled.
func AutoConfirm(ctx context.Context, store *session.Store, sess *session.Session) error {
	titles, err := PresentTitles(ctx, store, sess)
	if err != nil {
		return err
	}
	if len(titles) == 0 {
		return services.Wrap(services.ErrValidation, "titles", "auto confirm",
			"no suggested titles available; choose a title interactively", nil)
	}
	if err := ChooseTitle(ctx, store, sess, titles[0]); err != nil {
		return err
	}
	if err := AcceptDescription(ctx, store, sess); err != nil {
		return err
	}
	if err := store.ConfirmUpload(ctx, sess.ID); err != nil {
		return err
	}
	return nil
}
