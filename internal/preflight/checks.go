package preflight

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"vidpipe/internal/config"
	"vidpipe/internal/deps"
)

// pathFailure and pathSuccess keep the "<path> (…)" detail shape uniform
// across the filesystem checks.
func pathFailure(name, path, problem string) Result {
	return Result{Name: name, Detail: fmt.Sprintf("%s (error: %s)", path, problem)}
}

func pathSuccess(name, path, note string) Result {
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", path, note)}
}

// CheckDirectoryAccess reports whether path is a directory this process can
// read, write, and traverse.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		return pathFailure(name, path, "does not exist")
	case err != nil:
		return pathFailure(name, path, fmt.Sprintf("stat: %v", err))
	case !info.IsDir():
		return pathFailure(name, path, "is not a directory")
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return pathFailure(name, path, fmt.Sprintf("insufficient permissions: %v", err))
	}
	return pathSuccess(name, path, "read/write ok")
}

// CheckCredentialFile reports whether a credential file is present, readable,
// and non-empty.
func CheckCredentialFile(name, path string) Result {
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		return pathFailure(name, path, "does not exist")
	case err != nil:
		return pathFailure(name, path, fmt.Sprintf("stat: %v", err))
	case info.IsDir():
		return pathFailure(name, path, "is a directory")
	case info.Size() == 0:
		return pathFailure(name, path, "file is empty")
	}
	if err := unix.Access(path, unix.R_OK); err != nil {
		return pathFailure(name, path, fmt.Sprintf("insufficient permissions: %v", err))
	}
	return pathSuccess(name, path, "readable")
}

// CheckNtfy verifies that the ntfy topic URL responds, without publishing
// anything to it.
func CheckNtfy(ctx context.Context, topic string) Result {
	const name = "Notifications"

	topic = strings.TrimSpace(topic)
	if topic == "" {
		return Result{Name: name, Detail: "missing topic"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client := &http.Client{Timeout: 5 * time.Second}
	req, err := http.NewRequestWithContext(checkCtx, http.MethodHead, topic, nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("reachability check failed (%v)", err)}
	}

	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("reachability check failed (%v)", err)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return Result{Name: name, Detail: "auth failed (topic is protected)"}
	case resp.StatusCode >= 400:
		return Result{Name: name, Detail: fmt.Sprintf("reachability check failed (%d)", resp.StatusCode)}
	default:
		return Result{Name: name, Passed: true, Detail: "Reachable"}
	}
}

// CheckSystemDeps evaluates the external binaries the pipeline invokes. Both
// the daemon startup log and the CLI check command use this to avoid
// duplicating the requirements list.
//
// When a launcher is configured the tool names are launcher packages rather
// than PATH binaries, so only the launcher itself is looked up.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	if cfg == nil {
		return nil
	}

	launcher := strings.TrimSpace(cfg.Tools.Launcher)
	var requirements []deps.Tool
	if launcher != "" {
		requirements = append(requirements, deps.Tool{
			Name:        "Tool launcher",
			Command:     launcher,
			Description: "Runs the pipeline tools as managed packages",
		})
	} else {
		requirements = append(requirements,
			deps.Tool{
				Name:        "Color editor",
				Command:     cfg.Tools.ColorEdit,
				Description: "Required for color correction",
			},
			deps.Tool{
				Name:        "Whisper",
				Command:     cfg.Tools.Whisper,
				Description: "Required for transcription",
			},
			deps.Tool{
				Name:        "Chapter maker",
				Command:     cfg.Tools.ChapterMaker,
				Description: "Required for chapter and title generation",
			},
			deps.Tool{
				Name:        "Uploader",
				Command:     cfg.Tools.Uploader,
				Description: "Required for YouTube upload",
			},
		)
	}
	requirements = append(requirements, deps.Tool{
		Name:        "Editor",
		Command:     editorCommand(),
		Description: "Used to edit upload descriptions from the terminal",
		Optional:    true,
	})

	results := deps.Resolve(requirements)
	return append(results, deps.CheckFFmpeg())
}

func editorCommand() string {
	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		return "nano"
	}
	// EDITOR may carry arguments; only the command itself is looked up.
	return strings.Fields(editor)[0]
}
