package preflight

import (
	"context"
	"strings"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"

	"vidpipe/internal/config"
)

// CheckNtfyFromConfig evaluates notification status from config and connectivity.
func CheckNtfyFromConfig(cfg *config.Config) Result {
	const name = "Notifications"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	if strings.TrimSpace(cfg.Notifications.NtfyTopic) == "" {
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	}
	return CheckNtfy(context.Background(), cfg.Notifications.NtfyTopic)
}

// CheckCredentialsFromConfig reports the state of the fallback credential
// files. A missing fallback is reported but never fatal: sessions may carry
// their own credentials, and the chapter tool can take its key from the
// environment.
func CheckCredentialsFromConfig(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	return []Result{
		CheckCredentialFile("OpenAI API key", cfg.Credentials.OpenAIAPIKeyFile),
		CheckCredentialFile("YouTube client secrets", cfg.Credentials.ClientSecretsFile),
		CheckCredentialFile("YouTube token", cfg.Credentials.TokenFile),
	}
}

// DiskProbe reports free space on the filesystem backing the work directory.
// Sessions keep the source recording, the edited cut and the transcript side
// by side, so the work directory runs out of space well before anything else.
type DiskProbe struct {
	Path       string
	Detected   bool
	TotalBytes uint64
	FreeBytes  uint64
}

// ProbeDiskSpace inspects the filesystem backing the given directory.
func ProbeDiskSpace(path string) DiskProbe {
	path = strings.TrimSpace(path)
	probe := DiskProbe{Path: path}
	if path == "" {
		return probe
	}

	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return probe
	}
	probe.Detected = true
	probe.TotalBytes = stat.Blocks * uint64(stat.Bsize)
	probe.FreeBytes = stat.Bavail * uint64(stat.Bsize)
	return probe
}

// SpaceDetail renders a display-friendly summary for status UIs.
func (p DiskProbe) SpaceDetail() string {
	if !p.Detected {
		return "Free space unknown"
	}
	return humanize.IBytes(p.FreeBytes) + " free of " + humanize.IBytes(p.TotalBytes)
}
