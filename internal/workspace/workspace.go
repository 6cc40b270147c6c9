package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"vidpipe/internal/fileutil"
)

// Artifact file names inside a session directory. Every stage reads and
// writes these fixed names so a restart can resume from whatever already
// exists on disk.
const (
	SourceVideo       = "input_video.mp4"
	EditedVideo       = "output.mp4"
	Transcript        = "output.srt"
	ChaptersFile      = "chapters.json"
	DescriptionFile   = "description.txt"
	TitleFile         = "final_title.txt"
	ThumbnailFile     = "thumbnail.png"
	APIKeyFile        = "openai_api_key.txt"
	ClientSecretsFile = "client_secrets.json"
	TokenFile         = "token.pickle"
)

var allowedSourceExtensions = map[string]struct{}{
	".mp4": {},
	".mov": {},
	".avi": {},
	".mkv": {},
}

// AllowedSourceExtension reports whether path carries a video extension the
// pipeline accepts as input.
func AllowedSourceExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	_, ok := allowedSourceExtensions[ext]
	return ok
}

// AllowedSourceExtensions returns the accepted input extensions in display order.
func AllowedSourceExtensions() []string {
	return []string{".mp4", ".mov", ".avi", ".mkv"}
}

// Dir is a session working directory.
type Dir struct {
	path string
}

// New wraps an existing session directory path without touching the filesystem.
func New(path string) Dir {
	return Dir{path: path}
}

// Create allocates the session directory under root and returns it.
func Create(root, sessionID string) (Dir, error) {
	if strings.TrimSpace(root) == "" {
		return Dir{}, fmt.Errorf("workspace root is empty")
	}
	path := filepath.Join(root, sessionID)
	if err := os.MkdirAll(path, 0o755); err != nil {
		return Dir{}, fmt.Errorf("create session directory: %w", err)
	}
	return Dir{path: path}, nil
}

// Path returns the session directory path.
func (d Dir) Path() string { return d.path }

// Artifact returns the absolute path of a named artifact inside the directory.
func (d Dir) Artifact(name string) string { return filepath.Join(d.path, name) }

func (d Dir) SourceVideo() string   { return d.Artifact(SourceVideo) }
func (d Dir) EditedVideo() string   { return d.Artifact(EditedVideo) }
func (d Dir) Transcript() string    { return d.Artifact(Transcript) }
func (d Dir) Chapters() string      { return d.Artifact(ChaptersFile) }
func (d Dir) Description() string   { return d.Artifact(DescriptionFile) }
func (d Dir) FinalTitle() string    { return d.Artifact(TitleFile) }
func (d Dir) Thumbnail() string     { return d.Artifact(ThumbnailFile) }
func (d Dir) APIKey() string        { return d.Artifact(APIKeyFile) }
func (d Dir) ClientSecrets() string { return d.Artifact(ClientSecretsFile) }
func (d Dir) Token() string         { return d.Artifact(TokenFile) }

// MaterializeSource places the source video inside the session directory as
// input_video.mp4. An existing non-empty copy is left alone so resumed runs
// keep whatever they already staged. Hard links are preferred; cross-device
// sources fall back to a verified copy.
func (d Dir) MaterializeSource(src string) error {
	dst := d.SourceVideo()
	if ArtifactReady(dst) {
		return nil
	}
	if err := fileutil.LinkOrCopy(src, dst); err != nil {
		return fmt.Errorf("stage source video: %w", err)
	}
	return nil
}

// AliasEditedFromSource publishes the staged source as the edited output.
// Used when color editing is skipped so downstream stages read output.mp4
// without caring how it was produced.
func (d Dir) AliasEditedFromSource() error {
	if ArtifactReady(d.EditedVideo()) {
		return nil
	}
	if err := fileutil.LinkOrCopy(d.SourceVideo(), d.EditedVideo()); err != nil {
		return fmt.Errorf("alias edited video: %w", err)
	}
	return nil
}

// Remove deletes the session directory and everything in it.
func (d Dir) Remove() error {
	if strings.TrimSpace(d.path) == "" {
		return nil
	}
	return os.RemoveAll(d.path)
}

// ArtifactReady reports whether path names a regular file with content.
// Stages call this before marking their flag so a crashed tool run that left
// a zero-byte file does not count as finished output.
func ArtifactReady(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Size() > 0
}

var servableArtifacts = map[string]struct{}{
	SourceVideo:     {},
	EditedVideo:     {},
	Transcript:      {},
	ChaptersFile:    {},
	DescriptionFile: {},
	TitleFile:       {},
}

// Servable reports whether name is an artifact the download endpoints may
// expose. Credentials and tokens never leave the session directory.
func Servable(name string) bool {
	_, ok := servableArtifacts[name]
	return ok
}

// ServableArtifacts lists downloadable artifact names in display order.
func ServableArtifacts() []string {
	return []string{EditedVideo, Transcript, ChaptersFile, DescriptionFile, TitleFile, SourceVideo}
}
