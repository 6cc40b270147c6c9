package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"vidpipe/internal/api"
	"vidpipe/internal/logging"
	"vidpipe/internal/session"
)

func newSessionsCommand(cmdCtx *cliContext) *cobra.Command {
	sessionsCmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect and maintain publishing sessions",
	}

	sessionsCmd.AddCommand(newSessionsListCommand(cmdCtx))
	sessionsCmd.AddCommand(newSessionsClearCompletedCommand(cmdCtx))
	sessionsCmd.AddCommand(newSessionsClearFailedCommand(cmdCtx))
	sessionsCmd.AddCommand(newSessionsRetryCommand(cmdCtx))
	sessionsCmd.AddCommand(newSessionsRemoveCommand(cmdCtx))

	return sessionsCmd
}

func newSessionsListCommand(cmdCtx *cliContext) *cobra.Command {
	var listStatuses []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()

			if client := cmdCtx.daemonClient(cmd.Context()); client != nil {
				sessions, err := client.Sessions(cmd.Context())
				if err != nil {
					return err
				}
				printSessionTable(out, filterSessionsByStatus(sessions, listStatuses))
				return nil
			}

			return cmdCtx.withStore(func(store *session.Store) error {
				var statuses []session.Status
				for _, value := range listStatuses {
					if trimmed := strings.TrimSpace(value); trimmed != "" {
						statuses = append(statuses, session.Status(trimmed))
					}
				}
				rows, err := store.List(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				printSessionTable(out, api.FromSessions(rows))
				if len(statuses) == 0 {
					summary, err := store.Summarize(cmd.Context())
					if err != nil {
						return err
					}
					printSessionSummary(out, summary)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&listStatuses, "status", "s", nil, "Filter by session status (repeatable)")
	return cmd
}

func filterSessionsByStatus(sessions []api.Session, statuses []string) []api.Session {
	want := make(map[string]bool, len(statuses))
	for _, value := range statuses {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			want[trimmed] = true
		}
	}
	if len(want) == 0 {
		return sessions
	}
	filtered := make([]api.Session, 0, len(sessions))
	for _, sess := range sessions {
		if want[sess.Status] {
			filtered = append(filtered, sess)
		}
	}
	return filtered
}

func printSessionTable(out io.Writer, sessions []api.Session) {
	if len(sessions) == 0 {
		fmt.Fprintln(out, "No sessions")
		return
	}
	rows := make([][]string, 0, len(sessions))
	for _, sess := range sessions {
		rows = append(rows, []string{
			logging.ShortSessionID(sess.ID),
			sess.SourceName,
			sess.Status,
			sess.Title,
			humanizeTimestamp(sess.CreatedAt),
		})
	}
	fmt.Fprintln(out, renderTable([]string{"ID", "Source", "Status", "Title", "Created"}, rows))
}

// printSessionSummary condenses the table into one line of counts. Buckets
// at zero are omitted so a fresh install prints just the total.
func printSessionSummary(out io.Writer, summary session.Summary) {
	if summary.Total == 0 {
		return
	}
	parts := []string{fmt.Sprintf("%d total", summary.Total)}
	for _, bucket := range []struct {
		label string
		count int
	}{
		{"waiting", summary.Waiting},
		{"processing", summary.Processing},
		{"needs input", summary.HumanStep},
		{"uploaded", summary.Uploaded},
		{"failed", summary.Failed},
	} {
		if bucket.count > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", bucket.count, bucket.label))
		}
	}
	fmt.Fprintln(out, strings.Join(parts, ", "))
}

func newSessionsClearCompletedCommand(cmdCtx *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-completed",
		Short: "Remove uploaded sessions and their workspaces",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmdCtx.withStore(func(store *session.Store) error {
				result, err := api.ClearCompletedSessions(cmd.Context(), store)
				if err != nil {
					return err
				}
				printClearResult(cmd.OutOrStdout(), result, "completed")
				return nil
			})
		},
	}
}

func newSessionsClearFailedCommand(cmdCtx *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-failed",
		Short: "Remove failed sessions and their workspaces",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmdCtx.withStore(func(store *session.Store) error {
				result, err := api.ClearFailedSessions(cmd.Context(), store)
				if err != nil {
					return err
				}
				printClearResult(cmd.OutOrStdout(), result, "failed")
				return nil
			})
		},
	}
}

func printClearResult(out io.Writer, result api.ClearResult, what string) {
	fmt.Fprintf(out, "Cleared %d %s sessions\n", result.Cleared, what)
	for _, ws := range result.FailedWorkspaces {
		fmt.Fprintf(out, "Workspace not removed: %s\n", ws)
	}
}

func newSessionsRetryCommand(cmdCtx *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry <sessionID>",
		Short: "Reset a failed session so the workers pick it up again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdCtx.withStore(func(store *session.Store) error {
				restarted, err := store.Retry(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Session %s reset to %s\n", logging.ShortSessionID(args[0]), restarted)
				return nil
			})
		},
	}
}

func newSessionsRemoveCommand(cmdCtx *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <sessionID>",
		Short: "Delete a session row and its workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdCtx.withStore(func(store *session.Store) error {
				removed, err := api.RemoveSession(cmd.Context(), store, args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if !removed {
					fmt.Fprintf(out, "Session %s not found\n", args[0])
					return nil
				}
				fmt.Fprintf(out, "Session %s removed\n", logging.ShortSessionID(args[0]))
				return nil
			})
		},
	}
}
