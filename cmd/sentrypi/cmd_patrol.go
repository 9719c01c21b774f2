package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mbarrette/sentrypi/internal/config"
	"github.com/mbarrette/sentrypi/internal/debug"
	"github.com/mbarrette/sentrypi/internal/hw/ptz"
	"github.com/mbarrette/sentrypi/internal/hw/pwm"
	"github.com/mbarrette/sentrypi/internal/logic/capture"
	"github.com/mbarrette/sentrypi/internal/logic/geometry"
	"github.com/mbarrette/sentrypi/internal/storage"
	"github.com/mbarrette/sentrypi/internal/transfer"
)

// newPatrolCmd creates the "sentrypi patrol" subcommand: a one-shot
// sweep of the configured pan/tilt spans, shooting a still at each
// planned position.
func newPatrolCmd(opts *rootOptions) *cobra.Command {
	var archive bool

	cmd := &cobra.Command{
		Use:   "patrol",
		Short: "Sweep the mount and capture a still at each position",
		Long: `Plans a shot grid from the camera field of view and the configured
overlap, traverses it in a serpentine pattern and captures a still at
each position. The mount returns to its stored position afterwards.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			return runPatrol(cmd, cfg, archive)
		},
	}

	cmd.Flags().BoolVar(&archive, "archive", false, "upload each still to the s3 bucket")

	return cmd
}

func runPatrol(cmd *cobra.Command, cfg *config.Config, archive bool) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	store := openStore(cfg)
	defer store.Close()

	rot, err := geometry.NewRotationCalculator(cfg)
	if err != nil {
		return err
	}
	plan := geometry.CalculateSweepPlan(cfg, rot)
	debug.Info("Patrol plan: %d columns x %d rows (%d shots)",
		plan.PanStops, plan.TiltStops, plan.TotalShots())

	if err := os.MkdirAll(cfg.Camera.ImageDir, 0o755); err != nil {
		return fmt.Errorf("create image dir: %w", err)
	}

	channelPins := map[int]int{
		cfg.PTZ.PanChannel:  cfg.PTZ.PanPin,
		cfg.PTZ.TiltChannel: cfg.PTZ.TiltPin,
	}
	driver, err := pwm.NewDriver(cfg.Defaults.MockHardware, channelPins)
	if err != nil {
		return fmt.Errorf("init PWM: %w", err)
	}

	controller, err := ptz.NewController(driver, ptz.Config{
		PanChannel:  cfg.PTZ.PanChannel,
		TiltChannel: cfg.PTZ.TiltChannel,
	})
	if err != nil {
		_ = driver.Close()
		return fmt.Errorf("init controller: %w", err)
	}
	defer func() {
		if err := controller.Cleanup(); err != nil {
			debug.Error(err)
		}
	}()

	cam := newCameraFromConfig(cfg)
	sweep := capture.NewSweep(controller, cam)

	shots, runErr := sweep.Run(ctx, capture.SweepParams{
		Plan:     plan,
		Settle:   cfg.PatrolSettle(),
		ImageDir: cfg.Camera.ImageDir,
	})
	debug.Info("Patrol captured %d/%d stills", len(shots), plan.TotalShots())

	// Leave the mount where the watch loop expects it.
	restorePosition(ctx, store, controller)

	if archive && cfg.S3.Bucket != "" {
		if err := archiveShots(ctx, cfg, shots); err != nil {
			return err
		}
	}

	if runErr != nil {
		return fmt.Errorf("patrol: %w", runErr)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "captured %d stills in %s\n", len(shots), cfg.Camera.ImageDir)
	return nil
}

// archiveShots uploads whatever the sweep produced, each under the
// delivery retry policy.
func archiveShots(ctx context.Context, cfg *config.Config, shots []string) error {
	if len(shots) == 0 {
		return nil
	}

	archiver, err := storage.NewArchiver(ctx, cfg.S3.Bucket, cfg.S3.Prefix, cfg.S3.Region)
	if err != nil {
		return err
	}
	policy := transfer.Policy{
		MaxAttempts: cfg.Transfer.MaxAttempts,
		Delay:       cfg.TransferDelay(),
	}

	for _, shot := range shots {
		key := archiver.KeyFor(filepath.Base(shot))
		outcome := transfer.Run(policy, "archive patrol still", func() error {
			return archiver.Upload(ctx, shot, key)
		})
		if !outcome.OK() {
			return fmt.Errorf("archive %s after %d attempts: %w", shot, outcome.Attempts, outcome.Err)
		}
	}
	return nil
}
