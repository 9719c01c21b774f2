package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mbarrette/sentrypi/internal/state"
)

// newArmCmd creates "sentrypi arm" or "sentrypi disarm" depending on
// the target mode. Both just flip the sentry_mode flag in the cache;
// the watch daemon picks it up on its next motion event.
func newArmCmd(opts *rootOptions, arm bool) *cobra.Command {
	use, short := "arm", "Enable motion-triggered captures"
	if !arm {
		use, short = "disarm", "Disable motion-triggered captures"
	}

	return &cobra.Command{
		Use:   use,
		Short: short,
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
			if err := store.Set(ctx, state.KeySentryMode, state.Bool(arm)); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "sentry_mode=%v\n", arm)
			return nil
		},
	}
}
