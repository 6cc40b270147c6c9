package preflight

import (
	"context"
	"strings"

	"vidpipe/internal/config"
)

// Result is the outcome of one readiness check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the gating checks for the given config: the directories the
// pipeline writes into, plus notification reachability when a topic is
// configured. Credential fallbacks are excluded here; sessions may carry
// their own, so CheckCredentialsFromConfig reports those as status instead.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir))
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))

	if strings.TrimSpace(cfg.Notifications.NtfyTopic) != "" {
		results = append(results, CheckNtfy(ctx, cfg.Notifications.NtfyTopic))
	}

	return results
}
