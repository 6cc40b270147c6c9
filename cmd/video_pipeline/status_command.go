package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"vidpipe/internal/api"
	"vidpipe/internal/config"
	"vidpipe/internal/preflight"
	"vidpipe/internal/server"
	"vidpipe/internal/session"
)

func newStatusCommand(cmdCtx *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show server, dependency, and session status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cmdCtx.loadConfig()
			if err != nil {
				return err
			}
			status, err := collectStatus(cmd.Context(), cmdCtx, cfg)
			if err != nil {
				return err
			}
			renderDaemonStatus(cmd.OutOrStdout(), status)
			return nil
		},
	}
}

// collectStatus prefers the live server composite; without a server the same
// shape is assembled from the store and local checks, with Running false.
func collectStatus(ctx context.Context, cmdCtx *cliContext, cfg *config.Config) (*api.DaemonStatus, error) {
	if client := cmdCtx.daemonClient(ctx); client != nil {
		status, err := client.Status(ctx)
		if err == nil {
			return status, nil
		}
	}

	status := &api.DaemonStatus{
		LockFilePath: filepath.Join(cfg.Paths.LogDir, server.LockFileName),
		Dependencies: api.FromDependencies(preflight.CheckSystemDeps(cfg)),
	}
	if probe := preflight.ProbeDiskSpace(cfg.Paths.WorkDir); probe.Detected {
		status.WorkDirFree = probe.SpaceDetail()
	}
	err := cmdCtx.withStore(func(store *session.Store) error {
		status.DatabasePath = store.Path()
		stats, err := store.CountByStatus(ctx)
		if err != nil {
			return err
		}
		status.Workflow.SessionStats = make(map[string]int, len(stats))
		for key, count := range stats {
			status.Workflow.SessionStats[string(key)] = count
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return status, nil
}

func renderDaemonStatus(stdout io.Writer, status *api.DaemonStatus) {
	colorize := isTerminal(stdout)

	fmt.Fprintln(stdout, renderSectionHeader("Server", colorize))
	if status.Running {
		fmt.Fprintln(stdout, renderStatusLine("Server", statusOK, fmt.Sprintf("running (pid %d)", status.PID), colorize))
	} else {
		fmt.Fprintln(stdout, renderStatusLine("Server", statusWarn, "not running (start it with: video_pipeline serve)", colorize))
	}
	fmt.Fprintln(stdout, renderStatusLine("Database", statusInfo, status.DatabasePath, colorize))
	fmt.Fprintln(stdout, renderStatusLine("Lock file", statusInfo, status.LockFilePath, colorize))
	if status.WorkDirFree != "" {
		fmt.Fprintln(stdout, renderStatusLine("Work dir free", statusInfo, status.WorkDirFree, colorize))
	}
	if status.Workflow.LastError != "" {
		fmt.Fprintln(stdout, renderStatusLine("Last error", statusError, status.Workflow.LastError, colorize))
	}
	if last := status.Workflow.LastSession; last != nil {
		detail := fmt.Sprintf("%s (%s)", last.SourceName, last.Status)
		if age := humanizeTimestamp(last.UpdatedAt); age != "" {
			detail += ", updated " + age
		}
		fmt.Fprintln(stdout, renderStatusLine("Last session", statusInfo, detail, colorize))
	}
	fmt.Fprintln(stdout)

	fmt.Fprintln(stdout, renderSectionHeader("Dependencies", colorize))
	for _, line := range dependencyLines(status.Dependencies, colorize) {
		fmt.Fprintln(stdout, line)
	}
	fmt.Fprintln(stdout)

	if len(status.Workflow.StageHealth) > 0 {
		fmt.Fprintln(stdout, renderSectionHeader("Stage Health", colorize))
		for _, health := range status.Workflow.StageHealth {
			kind := statusOK
			detail := "ready"
			if !health.Ready {
				kind = statusWarn
				detail = health.Detail
				if detail == "" {
					detail = "not ready"
				}
			}
			fmt.Fprintln(stdout, renderStatusLine(health.Name, kind, detail, colorize))
		}
		fmt.Fprintln(stdout)
	}

	fmt.Fprintln(stdout, renderSectionHeader("Sessions", colorize))
	rows := sessionStatRows(status.Workflow.SessionStats)
	if len(rows) == 0 {
		fmt.Fprintln(stdout, "No sessions yet")
		return
	}
	fmt.Fprintln(stdout, renderTable([]string{"Status", "Count"}, rows, 1))
}

func dependencyLines(statuses []api.DependencyStatus, colorize bool) []string {
	lines := make([]string, 0, len(statuses)+1)
	var missing []string
	for _, dep := range statuses {
		if dep.Available {
			detail := "ready"
			if dep.Command != "" {
				detail = fmt.Sprintf("ready (command: %s)", dep.Command)
			}
			lines = append(lines, renderStatusLine(dep.Name, statusOK, detail, colorize))
			continue
		}
		detail := strings.TrimSpace(dep.Detail)
		if detail == "" {
			detail = "not available"
		}
		kind := statusError
		if dep.Optional {
			kind = statusWarn
		} else {
			missing = append(missing, dep.Name)
		}
		lines = append(lines, renderStatusLine(dep.Name, kind, detail, colorize))
	}
	if len(missing) > 0 {
		lines = append(lines, renderStatusLine("Missing", statusWarn, strings.Join(missing, ", "), colorize))
	}
	return lines
}

// sessionStatRows orders counts along the lifecycle so the table reads in
// pipeline order, with unknown statuses appended alphabetically.
func sessionStatRows(stats map[string]int) [][]string {
	if len(stats) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(stats))
	var rows [][]string
	for _, status := range session.AllStatuses() {
		key := string(status)
		if count, ok := stats[key]; ok {
			rows = append(rows, []string{key, strconv.Itoa(count)})
			seen[key] = true
		}
	}
	var rest []string
	for key := range stats {
		if !seen[key] {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	for _, key := range rest {
		rows = append(rows, []string{key, strconv.Itoa(stats[key])})
	}
	return rows
}

func humanizeTimestamp(value string) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return ""
	}
	return humanize.Time(ts)
}
