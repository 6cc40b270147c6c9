package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string

	ctx := newCLIContext(&configFlag)
	opts := &runOptions{}

	rootCmd := &cobra.Command{
		Use:   "video_pipeline [flags] <input_video>",
		Short: "Process a recording and publish it to YouTube",
		Long: `video_pipeline runs a recording through color editing, transcription and
chapter generation, walks through title, description and upload confirmation,
and uploads the result to YouTube. Without arguments it prints this help;
use the serve subcommand to run the web UI instead.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if isStandalone(cmd) {
				return nil
			}
			_, err := ctx.loadConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && opts.sessionID == "" {
				return cmd.Help()
			}
			return runPipeline(cmd, ctx, opts, args)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.Flags().BoolVarP(&opts.autoConfirm, "yes", "y", false, "No prompts: first suggested title, chapter description, immediate upload")
	rootCmd.Flags().BoolVar(&opts.skipColorEdit, "skip-color-edit", false, "Skip color editing and publish the recording as-is")
	rootCmd.Flags().StringVar(&opts.volumeThreshold, "volume-threshold", "", "Volume threshold for color editing (overrides config)")
	rootCmd.Flags().StringVar(&opts.sessionID, "session", "", "Resume an existing session by id instead of creating one")

	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newStatusCommand(ctx))
	rootCmd.AddCommand(newSessionsCommand(ctx))
	rootCmd.AddCommand(newCheckCommand(ctx))
	rootCmd.AddCommand(newLogsCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}

func isStandalone(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["standalone"] == "true" {
			return true
		}
	}
	return false
}
