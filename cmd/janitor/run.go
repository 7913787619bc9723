package main

import (
	"context"

	"github.com/jason-s-yu/cambia-janitor/internal/runner"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "run a single cleanup sweep and exit",
	Args:  cobra.NoArgs,
	RunE:  runOnce,
}

func init() {
	RootCmd.AddCommand(runCmd)
}

func runOnce(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	s, err := runner.OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close(context.Background())

	_, err = runner.New(cfg, s, logger).RunOnce(ctx)
	return err
}
