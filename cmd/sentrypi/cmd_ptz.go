package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mbarrette/sentrypi/internal/config"
	"github.com/mbarrette/sentrypi/internal/debug"
	"github.com/mbarrette/sentrypi/internal/hw/ptz"
	"github.com/mbarrette/sentrypi/internal/hw/pwm"
	"github.com/mbarrette/sentrypi/internal/state"
)

// newPTZCmd creates the "sentrypi ptz" subcommand. Each invocation is
// an independent short-lived process: the previous position is restored
// from the state store before the requested movement is applied, and
// the resulting angles are written back for the next caller.
func newPTZCmd(opts *rootOptions) *cobra.Command {
	var (
		pan       int
		tilt      int
		panDelta  int
		tiltDelta int
		center    bool
	)

	cmd := &cobra.Command{
		Use:   "ptz",
		Short: "Reposition the pan/tilt camera mount",
		Long: `Moves the camera mount. Absolute angles (--pan/--tilt) saturate at
the servo pulse limits; relative moves (--pan-delta/--tilt-delta) are
clamped to [-90, 90] degrees. PWM output is disabled on exit.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}

			req := ptzRequest{
				setPan:    cmd.Flags().Changed("pan"),
				setTilt:   cmd.Flags().Changed("tilt"),
				pan:       pan,
				tilt:      tilt,
				panDelta:  panDelta,
				tiltDelta: tiltDelta,
				center:    center,
			}
			return runPTZ(cmd, cfg, req)
		},
	}

	cmd.Flags().IntVar(&pan, "pan", 0, "absolute pan angle in degrees")
	cmd.Flags().IntVar(&tilt, "tilt", 0, "absolute tilt angle in degrees")
	cmd.Flags().IntVar(&panDelta, "pan-delta", 0, "relative pan movement in degrees")
	cmd.Flags().IntVar(&tiltDelta, "tilt-delta", 0, "relative tilt movement in degrees")
	cmd.Flags().BoolVar(&center, "center", false, "center the pan axis and level the tilt axis")

	return cmd
}

type ptzRequest struct {
	setPan, setTilt bool
	pan, tilt       int
	panDelta        int
	tiltDelta       int
	center          bool
}

func runPTZ(cmd *cobra.Command, cfg *config.Config, req ptzRequest) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	store := openStore(cfg)
	defer store.Close()

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
	// PWM output must be disabled on every exit path, error paths
	// included, or the servos jitter and draw power indefinitely.
	defer func() {
		if err := controller.Cleanup(); err != nil {
			debug.Error(err)
		}
	}()

	if !req.center {
		restorePosition(ctx, store, controller)
	}

	if err := applyMovement(controller, req); err != nil {
		return err
	}

	setState(ctx, store, state.KeyPan, state.Int(int64(controller.GetPan())))
	setState(ctx, store, state.KeyTilt, state.Int(int64(controller.GetTilt())))

	fmt.Fprintf(cmd.OutOrStdout(), "pan=%d° tilt=%d°\n", controller.GetPan(), controller.GetTilt())
	return nil
}

// restorePosition re-applies the last commanded angles from the cache
// so relative moves compose across invocations. Reads may race a
// concurrent writer; last writer wins and that is acceptable here.
func restorePosition(ctx context.Context, store state.Store, controller *ptz.Controller) {
	if v, ok, err := store.Get(ctx, state.KeyPan); err != nil {
		debug.Error(err)
	} else if ok {
		if angle, isInt := v.AsInt(); isInt {
			if err := controller.SetPan(int(angle)); err != nil {
				debug.Error(err)
			}
		}
	}

	if v, ok, err := store.Get(ctx, state.KeyTilt); err != nil {
		debug.Error(err)
	} else if ok {
		if angle, isInt := v.AsInt(); isInt {
			if err := controller.SetTilt(int(angle)); err != nil {
				debug.Error(err)
			}
		}
	}
}

func applyMovement(controller *ptz.Controller, req ptzRequest) error {
	if req.center {
		if err := controller.SetPan(0); err != nil {
			return err
		}
		return controller.SetTilt(0)
	}

	if req.setPan {
		if err := controller.SetPan(req.pan); err != nil {
			return err
		}
	}
	if req.setTilt {
		if err := controller.SetTilt(req.tilt); err != nil {
			return err
		}
	}

	if req.panDelta != 0 || req.tiltDelta != 0 {
		if err := controller.MoveRelative(req.panDelta, req.tiltDelta); err != nil {
			return err
		}
	}

	return nil
}
