package stage

import (
	"fmt"
	"path/filepath"

	"vidpipe/internal/services"
	"vidpipe/internal/session"
	"vidpipe/internal/workspace"
)

// DisplayName returns the operator-facing name for a session, the base name of
// the source recording.
func DisplayName(sess *session.Session) string {
	if sess == nil || sess.SourcePath == "" {
		return ""
	}
	return filepath.Base(sess.SourcePath)
}

// RequireArtifact verifies that a stage input or output exists and is not
// empty. On failure it returns a services.ErrValidation suitable for stage
// Prepare and Execute methods.
func RequireArtifact(stageName, label, path string) error {
	if workspace.ArtifactReady(path) {
		return nil
	}
	return services.Wrap(
		services.ErrValidation, stageName, "check "+label,
		fmt.Sprintf("%s missing or empty at %s", label, path), nil)
}
