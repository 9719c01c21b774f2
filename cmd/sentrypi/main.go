// Package main is the entry point for the sentrypi CLI.
package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// rootOptions carries flags shared by every subcommand.
type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "sentrypi",
		Short:         "Motion-triggered home monitoring on a pan/tilt camera mount",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config",
		filepath.Join("configs", "default.yaml"), "path to config file")

	root.AddCommand(
		newWatchCmd(opts),
		newCaptureCmd(opts),
		newPTZCmd(opts),
		newPatrolCmd(opts),
		newArmCmd(opts, true),
		newArmCmd(opts, false),
		newStatusCmd(opts),
		newStopCmd(opts),
	)

	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
