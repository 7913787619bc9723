// cmd/janitor/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jason-s-yu/cambia-janitor/internal/config"
	"github.com/jason-s-yu/cambia-janitor/internal/logging"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	cfg    config.Config
	logger *logrus.Logger

	RootCmd = &cobra.Command{
		Use:   "janitor",
		Short: "Prune expired lobbies and orphaned reconnect tokens",
		Long: "janitor deletes lobbies whose last activity is older than the lobby timeout, " +
			"then deletes reconnect tokens whose lobby no longer exists.",
		SilenceUsage:      true,
		PersistentPreRunE: loadConfig,
	}
)

func init() {
	pFlags := RootCmd.PersistentFlags()
	pFlags.String("backend", "", "storage backend: postgres, mongo, redis or memory (env JANITOR_BACKEND)")
	pFlags.Duration("timeout", 0, "inactivity after which a lobby is deleted (env JANITOR_LOBBY_TIMEOUT)")
	pFlags.Bool("continue-on-error", false, "log per-record failures and keep sweeping (env JANITOR_CONTINUE_ON_ERROR)")
	pFlags.Int("lookup-concurrency", 0, "parallel lobby lookups during reconnect cleanup (env JANITOR_LOOKUP_CONCURRENCY)")
	pFlags.Duration("run-timeout", 0, "deadline for a single sweep, 0 for none (env JANITOR_RUN_TIMEOUT)")
	pFlags.String("log-level", "", "log level (env LOG_LEVEL)")
	pFlags.Bool("log-json", false, "log as JSON (env LOG_JSON)")
}

// loadConfig reads the environment, then applies any flag given explicitly.
func loadConfig(cmd *cobra.Command, _ []string) error {
	cfg = config.Load()
	flags := cmd.Flags()

	var err error
	if flags.Changed("backend") {
		cfg.Backend, err = flags.GetString("backend")
	}
	if err == nil && flags.Changed("timeout") {
		cfg.LobbyTimeout, err = flags.GetDuration("timeout")
	}
	if err == nil && flags.Changed("continue-on-error") {
		cfg.ContinueOnError, err = flags.GetBool("continue-on-error")
	}
	if err == nil && flags.Changed("lookup-concurrency") {
		cfg.LookupConcurrency, err = flags.GetInt("lookup-concurrency")
	}
	if err == nil && flags.Changed("run-timeout") {
		cfg.RunTimeout, err = flags.GetDuration("run-timeout")
	}
	if err == nil && flags.Changed("log-level") {
		cfg.LogLevel, err = flags.GetString("log-level")
	}
	if err == nil && flags.Changed("log-json") {
		cfg.LogJSON, err = flags.GetBool("log-json")
	}
	if err == nil && flags.Changed("schedule") {
		cfg.Schedule, err = flags.GetString("schedule")
	}
	if err == nil && flags.Changed("run-on-start") {
		cfg.RunOnStart, err = flags.GetBool("run-on-start")
	}
	if err != nil {
		return err
	}

	logger = logging.NewLogger(cfg.LogLevel, cfg.LogJSON)
	return cfg.Validate()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := RootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
