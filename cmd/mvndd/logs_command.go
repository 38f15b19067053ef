package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"mvnd/internal/config"
	"mvnd/internal/logs"
)

func newLogsCommand(configFlag *string) *cobra.Command {
	var (
		uid    string
		lines  int
		follow bool
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show a daemon log, or the client log without --uid",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, _, err := config.Load(strings.TrimSpace(*configFlag))
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			path := cfg.ClientLogPath()
			if id := strings.TrimSpace(uid); id != "" {
				path = cfg.DaemonLogPath(id)
			}

			out := cmd.OutOrStdout()
			tail, offset, err := logs.Last(path, lines)
			if err != nil {
				return err
			}
			for _, line := range tail {
				fmt.Fprintln(out, line)
			}
			if !follow {
				return nil
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return logs.Follow(ctx, path, offset, logs.DefaultPollInterval, func(line string) error {
				_, err := fmt.Fprintln(out, line)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&uid, "uid", "", "Daemon whose log to show")
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing lines as they are written")
	return cmd
}
