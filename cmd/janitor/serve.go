package main

import (
	"context"

	"github.com/jason-s-yu/cambia-janitor/internal/runner"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "keep running and sweep on a cron schedule",
	Long:  "serve sweeps on the given schedule (cron expression or descriptor such as \"@every 1h\") until interrupted.",
	Args:  cobra.NoArgs,
	RunE:  serve,
}

func init() {
	RootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("schedule", "", "cron schedule (env JANITOR_SCHEDULE, default \"@every 1h\")")
	serveCmd.Flags().Bool("run-on-start", true, "sweep once immediately at startup (env JANITOR_RUN_ON_START)")
}

func serve(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	s, err := runner.OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close(context.Background())

	logger.WithField("backend", cfg.Backend).Info("Lobby janitor starting")
	return runner.New(cfg, s, logger).Serve(ctx, cfg.Schedule, cfg.RunOnStart)
}
