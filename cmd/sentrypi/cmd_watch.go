package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mbarrette/sentrypi/internal/config"
	"github.com/mbarrette/sentrypi/internal/debug"
	"github.com/mbarrette/sentrypi/internal/hw/gpio"
	"github.com/mbarrette/sentrypi/internal/logic/motion"
	"github.com/mbarrette/sentrypi/internal/proc"
	"github.com/mbarrette/sentrypi/internal/state"
	"github.com/mbarrette/sentrypi/internal/web"
)

// newWatchCmd creates the "sentrypi watch" subcommand.
func newWatchCmd(opts *rootOptions) *cobra.Command {
	var webPort int

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run the motion sentry daemon",
		Long: `Polls the PIR sensor and spawns a capture worker for every motion
event while the sentry is armed. Runs until interrupted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			return runWatch(cfg, opts.configPath, webPort)
		},
	}

	cmd.Flags().IntVar(&webPort, "web", 0, "serve the status page on this port (0 = disabled)")

	return cmd
}

func runWatch(cfg *config.Config, configPath string, webPort int) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	debug.Summary("SentryPi Watch")
	debug.Value("Sensor pin", cfg.Sensor.Pin)
	debug.Value("Poll interval", cfg.PollInterval())
	debug.Value("Mock hardware", cfg.Defaults.MockHardware)

	store := openStore(cfg)
	defer store.Close()

	gpioDriver, err := gpio.NewDriver(cfg.Defaults.MockHardware)
	if err != nil {
		return fmt.Errorf("init GPIO: %w", err)
	}
	defer func() {
		if err := gpioDriver.Close(); err != nil {
			debug.Error(fmt.Errorf("closing GPIO driver: %w", err))
		}
	}()

	if err := gpioDriver.SetupInput(cfg.Sensor.Pin); err != nil {
		return fmt.Errorf("setup sensor pin: %w", err)
	}

	supervisor := proc.NewSupervisor(cfg.GracePeriod(), cfg.Supervisor.LogDir)
	notifier := newNotifier(cfg)

	var broadcaster *web.EventBroadcaster
	if webPort > 0 {
		broadcaster = web.NewEventBroadcaster()
		debug.SetOutput(io.MultiWriter(os.Stdout, web.BroadcastWriter(broadcaster)))

		srv := web.NewServer(fmt.Sprintf(":%d", webPort), broadcaster, store)
		go func() {
			if err := srv.Run(ctx); err != nil {
				debug.Error(fmt.Errorf("status server: %w", err))
			}
		}()
	}

	if warmup := cfg.Warmup(); warmup > 0 {
		debug.Info("PIR warming up for %v, stay still", warmup)
		select {
		case <-time.After(warmup):
		case <-ctx.Done():
			return nil
		}
	}

	events := motion.Events{
		MotionStarted: func(p motion.Pulse) {
			setState(ctx, store, state.KeyMotionCount, state.Int(int64(p.Number)))
			setState(ctx, store, state.KeyLastMotionAt, state.String(p.StartTime.Format(time.RFC3339)))
			if broadcaster != nil {
				broadcaster.BroadcastMotion(web.EventMotionStarted, p.Number, 0)
			}
			maybeSpawnCapture(ctx, cfg, configPath, store, supervisor)
		},
		MotionEnded: func(p motion.Pulse) {
			setState(ctx, store, state.KeyLastMotionDuration, state.Float(p.Duration.Seconds()))
			if broadcaster != nil {
				broadcaster.BroadcastMotion(web.EventMotionEnded, p.Number, p.Duration.Seconds())
			}
		},
		CalibrationWarning: func(p motion.Pulse) {
			msg := fmt.Sprintf("PIR pulse #%d lasted %.1fs (> %v): sensor is likely in sustained-output mode, check the L/H jumper",
				p.Number, p.Duration.Seconds(), cfg.LongPulseWarn())
			debug.Info("%s", msg)
			if broadcaster != nil {
				broadcaster.Broadcast(web.WatchEvent{Kind: web.EventWarning, Pulse: p.Number, Msg: msg})
			}
			if notifier != nil {
				if err := notifier.PostText(ctx, msg); err != nil {
					debug.Error(err)
				}
			}
		},
	}

	detector := motion.NewDetector(
		motion.PinSampler{Driver: gpioDriver, Pin: cfg.Sensor.Pin},
		motion.Config{
			PollInterval:  cfg.PollInterval(),
			LongPulseWarn: cfg.LongPulseWarn(),
		},
		events,
	)

	err = detector.Run(ctx)
	if errors.Is(err, context.Canceled) {
		debug.Info("Watch loop stopped")
		return nil
	}
	return err
}

// maybeSpawnCapture launches a capture worker for a motion event unless
// the sentry is disarmed or the previous worker is still running.
func maybeSpawnCapture(ctx context.Context, cfg *config.Config, configPath string, store state.Store, supervisor *proc.Supervisor) {
	if !armed(ctx, store) {
		debug.Live("Motion while disarmed, ignoring")
		return
	}

	if v, ok, err := store.Get(ctx, state.KeyCapturePID); err != nil {
		debug.Error(err)
	} else if ok {
		if pid, isInt := v.AsInt(); isInt && supervisor.CheckLiveness(int(pid)) {
			debug.Live("Capture worker %d still running, not spawning another", pid)
			return
		}
	}

	exe, err := os.Executable()
	if err != nil {
		debug.Error(fmt.Errorf("resolve own binary: %w", err))
		return
	}

	pid, ok := supervisor.Spawn(exe, "capture", "--config", configPath)
	if !ok {
		debug.Info("Capture worker failed to launch")
		return
	}
	setState(ctx, store, state.KeyCapturePID, state.Int(int64(pid)))
}

// armed reports the sentry_mode flag; an absent key means armed.
func armed(ctx context.Context, store state.Store) bool {
	v, ok, err := store.Get(ctx, state.KeySentryMode)
	if err != nil {
		debug.Error(err)
		return false
	}
	if !ok {
		return true
	}
	b, isBool := v.AsBool()
	return isBool && b
}

// setState writes a cache key, logging instead of failing: state
// updates never take the watch loop down.
func setState(ctx context.Context, store state.Store, key string, v state.Value) {
	if err := store.Set(ctx, key, v); err != nil {
		debug.Error(err)
	}
}
