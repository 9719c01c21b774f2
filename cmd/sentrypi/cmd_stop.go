package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mbarrette/sentrypi/internal/proc"
	"github.com/mbarrette/sentrypi/internal/state"
)

// newStopCmd creates the "sentrypi stop" subcommand: kills the capture
// worker recorded in the cache, if any.
func newStopCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Kill the recorded capture worker",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}

			store := openStore(cfg)
			defer store.Close()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			v, ok, err := store.Get(ctx, state.KeyCapturePID)
			if err != nil {
				return err
			}
			pid, isInt := v.AsInt()
			if !ok || !isInt {
				fmt.Fprintln(cmd.OutOrStdout(), "no capture worker recorded")
				return nil
			}

			supervisor := proc.NewSupervisor(cfg.GracePeriod(), cfg.Supervisor.LogDir)
			if !supervisor.Kill(int(pid)) {
				return fmt.Errorf("worker %d still running after kill", pid)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "worker %d stopped\n", pid)
			return nil
		},
	}
}
