package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// SensorConfig holds the PIR motion sensor wiring and polling parameters.
// The poll interval is both the minimum detectable pulse width and the
// maximum event-detection latency, so it is first-class configuration.
type SensorConfig struct {
	Pin              int `yaml:"pin"`               // BCM pin of the PIR output line
	PollIntervalMs   int `yaml:"poll_interval_ms"`  // sampling period (default 50ms)
	WarmupSeconds    int `yaml:"warmup_seconds"`    // PIR settle time before sampling starts
	LongPulseWarnSec int `yaml:"long_pulse_warn_s"` // pulses longer than this trigger a calibration warning
}

// PTZConfig describes the pan/tilt servo mount.
// Logical PWM channels follow the original wiring: 0 = tilt, 1 = pan.
type PTZConfig struct {
	PanChannel  int `yaml:"pan_channel"`
	TiltChannel int `yaml:"tilt_channel"`
	PanPin      int `yaml:"pan_pin"`  // BCM pin backing the pan channel (hardware PWM)
	TiltPin     int `yaml:"tilt_pin"` // BCM pin backing the tilt channel (hardware PWM)
}

// CameraConfig describes how stills are captured.
// Type selects a concrete implementation (e.g., "rpicam_still").
type CameraConfig struct {
	Type             string `yaml:"type"`   // e.g., "rpicam_still", "mock"
	Binary           string `yaml:"binary"` // capture binary path
	WidthPx          int    `yaml:"width_px"`
	HeightPx         int    `yaml:"height_px"`
	CaptureTimeoutMs int    `yaml:"capture_timeout_ms"` // hard limit on a single capture
	ImageDir         string `yaml:"image_dir"`          // where stills are written before delivery
}

// SlackConfig names the notification channel. The bot token comes from
// the SLACK_BOT_TOKEN environment variable, never from the YAML file.
type SlackConfig struct {
	AlertsChannel string `yaml:"alerts_channel"`
}

// S3Config names the archive bucket.
type S3Config struct {
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
	Region string `yaml:"region"`
}

// RedisConfig points at the shared state cache. The password (if any)
// comes from the REDIS_PASSWORD environment variable.
type RedisConfig struct {
	Addr string `yaml:"addr"`
	DB   int    `yaml:"db"`
}

// TransferConfig bounds retry behaviour for external deliveries.
type TransferConfig struct {
	MaxAttempts  int `yaml:"max_attempts"`
	DelaySeconds int `yaml:"delay_seconds"`
}

// SupervisorConfig tunes worker process management.
type SupervisorConfig struct {
	GraceSeconds int    `yaml:"grace_seconds"` // wait after SIGKILL before re-checking liveness
	LogDir       string `yaml:"log_dir"`       // merged stdout/stderr of spawned workers
}

// PatrolConfig describes the sweep the mount performs on demand: the
// camera FOV is fixed by the lens, so coverage is planned from the FOV
// and the desired overlap between adjacent shots.
type PatrolConfig struct {
	HorizontalFOVDeg float64 `yaml:"horizontal_fov_deg"` // lens datasheet value
	VerticalFOVDeg   float64 `yaml:"vertical_fov_deg"`
	OverlapPercent   float64 `yaml:"overlap_percent"` // 0-99, portion shared by adjacent shots
	PanSpanDeg       float64 `yaml:"pan_span_deg"`    // total sweep width, centered on 0
	TiltSpanDeg      float64 `yaml:"tilt_span_deg"`   // total sweep height, centered on 0
	SettleMs         int     `yaml:"settle_ms"`       // wait after a move before shooting
}

// DefaultsConfig contains generic parameters.
type DefaultsConfig struct {
	DebugLevel   int  `yaml:"debug_level"`   // debug level 0-4 (0=off, 1=info, 2=live, 3=verbose, 4=trace)
	MockHardware bool `yaml:"mock_hardware"` // use mock GPIO/PWM/camera (true=dev/test, false=real Raspberry Pi)
}

// Config aggregates all application configuration.
type Config struct {
	Sensor     SensorConfig     `yaml:"sensor"`
	PTZ        PTZConfig        `yaml:"ptz"`
	Camera     CameraConfig     `yaml:"camera"`
	Slack      SlackConfig      `yaml:"slack"`
	S3         S3Config         `yaml:"s3"`
	Redis      RedisConfig      `yaml:"redis"`
	Patrol     PatrolConfig     `yaml:"patrol"`
	Transfer   TransferConfig   `yaml:"transfer"`
	Supervisor SupervisorConfig `yaml:"supervisor"`
	Defaults   DefaultsConfig   `yaml:"defaults"`
}

// Load reads a YAML file and returns the configuration.
// A .env file next to the working directory is loaded first so that
// secret accessors (SlackToken, RedisPassword) see it.
func Load(path string) (*Config, error) {
	_ = godotenv.Load() // missing .env is fine, secrets may come from the real environment

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}

	// Basic validation
	if !cfg.Defaults.MockHardware && cfg.Sensor.Pin <= 0 {
		return nil, fmt.Errorf("sensor.pin is required on real hardware")
	}
	if cfg.Sensor.PollIntervalMs < 0 {
		return nil, fmt.Errorf("sensor.poll_interval_ms must be >= 0, got %d", cfg.Sensor.PollIntervalMs)
	}
	if cfg.Sensor.PollIntervalMs == 0 {
		cfg.Sensor.PollIntervalMs = 50 // 20 samples per second
	}
	if cfg.Sensor.LongPulseWarnSec <= 0 {
		cfg.Sensor.LongPulseWarnSec = 10
	}
	if cfg.PTZ.PanChannel == 0 && cfg.PTZ.TiltChannel == 0 {
		// Original wiring: channel 1 drives pan, channel 0 drives tilt.
		cfg.PTZ.PanChannel = 1
		cfg.PTZ.TiltChannel = 0
	}
	if cfg.PTZ.PanChannel == cfg.PTZ.TiltChannel {
		return nil, fmt.Errorf("ptz pan_channel and tilt_channel must differ, both are %d", cfg.PTZ.PanChannel)
	}
	if cfg.Camera.Type == "" {
		cfg.Camera.Type = "rpicam_still"
	}
	if cfg.Camera.Binary == "" {
		cfg.Camera.Binary = "rpicam-still"
	}
	if cfg.Camera.WidthPx <= 0 {
		cfg.Camera.WidthPx = 640
	}
	if cfg.Camera.HeightPx <= 0 {
		cfg.Camera.HeightPx = 480
	}
	if cfg.Camera.CaptureTimeoutMs <= 0 {
		cfg.Camera.CaptureTimeoutMs = 10000
	}
	if cfg.Camera.ImageDir == "" {
		cfg.Camera.ImageDir = "/tmp/sentrypi"
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Patrol.OverlapPercent < 0 || cfg.Patrol.OverlapPercent >= 100 {
		return nil, fmt.Errorf("patrol.overlap_percent must be in [0, 100), got %g", cfg.Patrol.OverlapPercent)
	}
	if cfg.Patrol.HorizontalFOVDeg == 0 {
		// Raspberry Pi Camera Module 3 standard lens.
		cfg.Patrol.HorizontalFOVDeg = 66.0
		cfg.Patrol.VerticalFOVDeg = 41.0
	}
	if cfg.Patrol.PanSpanDeg == 0 {
		cfg.Patrol.PanSpanDeg = 180.0
	}
	if cfg.Patrol.SettleMs <= 0 {
		cfg.Patrol.SettleMs = 400
	}
	if cfg.Transfer.MaxAttempts <= 0 {
		cfg.Transfer.MaxAttempts = 3
	}
	if cfg.Transfer.DelaySeconds <= 0 {
		cfg.Transfer.DelaySeconds = 2
	}
	if cfg.Supervisor.GraceSeconds <= 0 {
		cfg.Supervisor.GraceSeconds = 2
	}
	if cfg.Supervisor.LogDir == "" {
		cfg.Supervisor.LogDir = "/tmp/sentrypi/logs"
	}
	if cfg.S3.Region == "" {
		cfg.S3.Region = "us-east-1"
	}

	return &cfg, nil
}

// PollInterval returns the sensor sampling period.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Sensor.PollIntervalMs) * time.Millisecond
}

// Warmup returns the PIR settle time before the watch loop starts sampling.
func (c *Config) Warmup() time.Duration {
	return time.Duration(c.Sensor.WarmupSeconds) * time.Second
}

// LongPulseWarn returns the pulse duration above which a calibration
// warning is emitted.
func (c *Config) LongPulseWarn() time.Duration {
	return time.Duration(c.Sensor.LongPulseWarnSec) * time.Second
}

// TransferDelay returns the fixed delay between retry attempts.
func (c *Config) TransferDelay() time.Duration {
	return time.Duration(c.Transfer.DelaySeconds) * time.Second
}

// GracePeriod returns the wait after a kill before liveness is re-checked.
func (c *Config) GracePeriod() time.Duration {
	return time.Duration(c.Supervisor.GraceSeconds) * time.Second
}

// OverlapRatio returns the patrol overlap as a 0-1 fraction.
func (c *Config) OverlapRatio() float64 {
	return c.Patrol.OverlapPercent / 100.0
}

// PatrolSettle returns the post-move stabilization wait.
func (c *Config) PatrolSettle() time.Duration {
	return time.Duration(c.Patrol.SettleMs) * time.Millisecond
}

// CaptureTimeout returns the hard limit on a single still capture.
func (c *Config) CaptureTimeout() time.Duration {
	return time.Duration(c.Camera.CaptureTimeoutMs) * time.Millisecond
}

// SlackToken returns the bot token from the environment.
func SlackToken() string {
	return os.Getenv("SLACK_BOT_TOKEN")
}

// RedisPassword returns the cache password from the environment.
func RedisPassword() string {
	return os.Getenv("REDIS_PASSWORD")
}
