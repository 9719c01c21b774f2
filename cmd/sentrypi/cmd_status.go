package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mbarrette/sentrypi/internal/proc"
	"github.com/mbarrette/sentrypi/internal/state"
)

// newStatusCmd creates the "sentrypi status" subcommand.
func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show sentry state from the shared cache",
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

			keys := []string{
				state.KeySentryMode,
				state.KeyPan,
				state.KeyTilt,
				state.KeyMotionCount,
				state.KeyLastMotionAt,
				state.KeyLastMotionDuration,
				state.KeyLastCapture,
			}
			for _, key := range keys {
				v, ok, err := store.Get(ctx, key)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintf(cmd.OutOrStdout(), "%-22s (unset)\n", key)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-22s %s\n", key, v.Encode())
			}

			// The recorded worker pid gets a liveness probe on top of
			// the raw value.
			v, ok, err := store.Get(ctx, state.KeyCapturePID)
			if err != nil {
				return err
			}
			if pid, isInt := v.AsInt(); ok && isInt {
				supervisor := proc.NewSupervisor(cfg.GracePeriod(), cfg.Supervisor.LogDir)
				running := supervisor.CheckLiveness(int(pid))
				fmt.Fprintf(cmd.OutOrStdout(), "%-22s %d (running=%v)\n", state.KeyCapturePID, pid, running)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%-22s (unset)\n", state.KeyCapturePID)
			}

			return nil
		},
	}
}
