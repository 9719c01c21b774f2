package motion

import (
	"context"
	"time"

	"github.com/mbarrette/sentrypi/internal/debug"
	"github.com/mbarrette/sentrypi/internal/hw/gpio"
)

// State is the detector's edge-tracking state.
type State int

const (
	Idle   State = iota // pin was LOW at the last sample
	Active              // pin was HIGH, a pulse is in progress
)

// Pulse is one discrete motion event, created on the rising edge and
// finalized on the falling edge. Immutable once finalized.
type Pulse struct {
	Number    int
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}

// Sampler provides the raw digital level of the PIR line.
type Sampler interface {
	Sample() (gpio.Level, error)
}

// PinSampler adapts a gpio.Driver and a pin number into a Sampler.
type PinSampler struct {
	Driver gpio.Driver
	Pin    int
}

func (p PinSampler) Sample() (gpio.Level, error) {
	return p.Driver.ReadPin(p.Pin)
}

// Events carries the detector's callbacks. Nil callbacks are skipped.
type Events struct {
	// MotionStarted fires on the rising edge; the pulse has only
	// Number and StartTime populated.
	MotionStarted func(Pulse)
	// MotionEnded fires on the falling edge with the finalized pulse.
	MotionEnded func(Pulse)
	// CalibrationWarning fires in addition to MotionEnded when a pulse
	// outlasts the configured threshold: the sensor is likely stuck in
	// sustained-output (H) mode instead of pulsed (L) mode. Advisory,
	// never fatal.
	CalibrationWarning func(Pulse)
}

// Config tunes the polling loop. The poll interval is simultaneously
// the minimum detectable pulse width and the maximum event-detection
// latency; both follow from the same knob on purpose. No sub-interval
// debouncing is done: bounces shorter than one poll period are treated
// as real pulses (accepted limitation for a single PIR line).
type Config struct {
	PollInterval  time.Duration // default 50ms
	LongPulseWarn time.Duration // default 10s

	// Now and Sleep are injectable for tests.
	Now   func() time.Time
	Sleep func(time.Duration)
}

// Detector turns periodic digital-pin samples into discrete
// motion-start/motion-end events. Single-threaded: Run blocks its
// caller for the poll interval between samples.
type Detector struct {
	sampler Sampler
	cfg     Config
	events  Events

	state      State
	pulseStart time.Time
	pulseCount int
}

// NewDetector creates a detector in the Idle state.
func NewDetector(s Sampler, cfg Config, events Events) *Detector {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 50 * time.Millisecond
	}
	if cfg.LongPulseWarn <= 0 {
		cfg.LongPulseWarn = 10 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Sleep == nil {
		cfg.Sleep = time.Sleep
	}

	return &Detector{
		sampler: s,
		cfg:     cfg,
		events:  events,
		state:   Idle,
	}
}

// State returns the current edge-tracking state.
func (d *Detector) State() State {
	return d.state
}

// PulseCount returns the number of rising edges seen so far.
func (d *Detector) PulseCount() int {
	return d.pulseCount
}

// Run polls the sensor until ctx is cancelled. Sample errors are
// logged and the tick skipped; the state machine only advances on a
// successfully read level.
func (d *Detector) Run(ctx context.Context) error {
	debug.Info("Motion detector running (poll interval %v)", d.cfg.PollInterval)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		level, err := d.sampler.Sample()
		if err != nil {
			debug.Error(err)
		} else {
			d.step(d.cfg.Now(), level)
		}

		d.cfg.Sleep(d.cfg.PollInterval)
	}
}

// step advances the two-state machine for one sample. Exactly two
// transitions exist: Idle-HIGH->Active and Active-LOW->Idle.
func (d *Detector) step(now time.Time, level gpio.Level) {
	switch d.state {
	case Idle:
		if level == gpio.High {
			d.state = Active
			d.pulseStart = now
			d.pulseCount++
			debug.Motion("started", d.pulseCount)
			if d.events.MotionStarted != nil {
				d.events.MotionStarted(Pulse{
					Number:    d.pulseCount,
					StartTime: now,
				})
			}
		}

	case Active:
		if level == gpio.Low {
			d.state = Idle
			pulse := Pulse{
				Number:    d.pulseCount,
				StartTime: d.pulseStart,
				EndTime:   now,
				Duration:  now.Sub(d.pulseStart),
			}
			debug.PulseDone(pulse.Number, pulse.Duration)
			if d.events.MotionEnded != nil {
				d.events.MotionEnded(pulse)
			}
			if pulse.Duration > d.cfg.LongPulseWarn && d.events.CalibrationWarning != nil {
				d.events.CalibrationWarning(pulse)
			}
		}
	}
}
