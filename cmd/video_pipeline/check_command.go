package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"vidpipe/internal/api"
	"vidpipe/internal/deps"
	"vidpipe/internal/preflight"
	"vidpipe/internal/session"
)

func newCheckCommand(cmdCtx *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify tools, directories, and credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cmdCtx.loadConfig()
			if err != nil {
				return err
			}
			stdout := cmd.OutOrStdout()
			colorize := isTerminal(stdout)
			problems := 0

			fmt.Fprintln(stdout, renderSectionHeader("Environment", colorize))
			for _, result := range preflight.RunAll(cmd.Context(), cfg) {
				kind := statusOK
				if !result.Passed {
					kind = statusError
					problems++
				}
				fmt.Fprintln(stdout, renderStatusLine(result.Name, kind, result.Detail, colorize))
			}
			if probe := preflight.ProbeDiskSpace(cfg.Paths.WorkDir); probe.Detected {
				fmt.Fprintln(stdout, renderStatusLine("Free space", statusInfo, probe.SpaceDetail(), colorize))
			}
			fmt.Fprintln(stdout)

			fmt.Fprintln(stdout, renderSectionHeader("Tools", colorize))
			toolStatuses := preflight.CheckSystemDeps(cfg)
			for _, line := range dependencyLines(api.FromDependencies(toolStatuses), colorize) {
				fmt.Fprintln(stdout, line)
			}
			problems += len(deps.MissingRequired(toolStatuses))
			fmt.Fprintln(stdout)

			// Credential gaps are warnings here: sessions may carry their
			// own key and secrets files.
			fmt.Fprintln(stdout, renderSectionHeader("Credentials", colorize))
			for _, result := range preflight.CheckCredentialsFromConfig(cfg) {
				kind := statusOK
				if !result.Passed {
					kind = statusWarn
				}
				fmt.Fprintln(stdout, renderStatusLine(result.Name, kind, result.Detail, colorize))
			}
			fmt.Fprintln(stdout)

			fmt.Fprintln(stdout, renderSectionHeader("Session database", colorize))
			dbKind, dbDetail := databaseStatus(cmd.Context(), cmdCtx)
			if dbKind == statusError {
				problems++
			}
			fmt.Fprintln(stdout, renderStatusLine("Database", dbKind, dbDetail, colorize))

			if problems == 1 {
				return errors.New("1 problem found")
			}
			if problems > 0 {
				return fmt.Errorf("%d problems found", problems)
			}
			return nil
		},
	}
}

// databaseStatus opens the session store and summarizes its health as one
// status line. Opening the store creates the database when absent, so a
// healthy result normally reads "<path> (N sessions)".
func databaseStatus(ctx context.Context, cmdCtx *cliContext) (statusKind, string) {
	var health session.DBHealth
	err := cmdCtx.withStore(func(store *session.Store) error {
		var checkErr error
		health, checkErr = store.InspectDB(ctx)
		return checkErr
	})
	switch {
	case err != nil:
		return statusError, err.Error()
	case !health.SchemaReady:
		return statusError, fmt.Sprintf("%s (error: sessions table missing)", health.DBPath)
	case !health.IntegrityOK:
		return statusError, fmt.Sprintf("%s (error: integrity check failed)", health.DBPath)
	}
	noun := "sessions"
	if health.TotalSessions == 1 {
		noun = "session"
	}
	return statusOK, fmt.Sprintf("%s (%d %s)", health.DBPath, health.TotalSessions, noun)
}
