package main

import (
	"github.com/mbarrette/sentrypi/internal/config"
	"github.com/mbarrette/sentrypi/internal/debug"
	"github.com/mbarrette/sentrypi/internal/hw/camera"
	"github.com/mbarrette/sentrypi/internal/notify"
	"github.com/mbarrette/sentrypi/internal/state"
)

// loadConfig reads the YAML config and initializes the debug system.
func loadConfig(opts *rootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	debug.Init(cfg.Defaults.DebugLevel)
	return cfg, nil
}

// openStore connects the shared state cache. Mock hardware mode uses an
// in-process store: good enough for single-process development, no
// cross-process visibility.
func openStore(cfg *config.Config) state.Store {
	if cfg.Defaults.MockHardware {
		debug.Info("Using in-memory state store (development mode)")
		return state.NewMemStore()
	}
	return state.NewRedisStore(cfg.Redis.Addr, config.RedisPassword(), cfg.Redis.DB)
}

// newNotifier returns the Slack notifier, or nil when the channel or
// token is not configured (notification delivery is then skipped).
func newNotifier(cfg *config.Config) *notify.Notifier {
	token := config.SlackToken()
	if token == "" || cfg.Slack.AlertsChannel == "" {
		debug.Info("Slack not configured, notification delivery disabled")
		return nil
	}
	return notify.NewNotifier(token, cfg.Slack.AlertsChannel)
}

// newCameraFromConfig selects a camera implementation based on configuration.
func newCameraFromConfig(cfg *config.Config) camera.Camera {
	if cfg.Defaults.MockHardware || cfg.Camera.Type == "mock" {
		return camera.MockCamera{}
	}
	return camera.NewRpicamStill(cfg.Camera.Binary, cfg.Camera.WidthPx, cfg.Camera.HeightPx, cfg.CaptureTimeout())
}
