package ptz

import (
	"math"

	"github.com/mbarrette/sentrypi/internal/debug"
	"github.com/mbarrette/sentrypi/internal/hw/pwm"
)

// Servo pulse bounds in microseconds. The mount's servos accept
// 500-2500µs, with 1500µs at the mechanical center.
const (
	MinPulseUs    = 500
	MaxPulseUs    = 2500
	CenterPulseUs = 1500

	// InitialTiltPulseUs is the tilt pulse on construction (-50°).
	// The mount is deliberately aimed below horizon at startup so the
	// camera faces the room, not the ceiling. Do not re-center.
	InitialTiltPulseUs = 1000

	// MinAngleDeg/MaxAngleDeg bound angles in degree space.
	MinAngleDeg = -90
	MaxAngleDeg = 90
)

// Config maps the two axes onto PWM channels.
type Config struct {
	PanChannel  int // horizontal axis (channel 1 on the original wiring)
	TiltChannel int // vertical axis (channel 0 on the original wiring)
}

// Controller owns the two servo axes of the camera mount and converts
// requested angles into hardware pulse widths.
//
// Clamping is asymmetric on purpose: absolute setters clamp the computed
// *pulse* to [500, 2500], while MoveRelative clamps the summed *angle* to
// [-90, 90] before delegating. Existing deployments depend on the exact
// saturation behaviour, so both domains are kept as-is.
//
// A Controller is single-threaded per process; concurrent calls on the
// same instance are out of contract. Cross-process position visibility
// goes through the shared state store, not through this type.
type Controller struct {
	pwm pwm.Driver
	cfg Config

	panPulseUs  int
	tiltPulseUs int
}

// NewController creates the controller and drives both axes to their
// initial positions: pan centered (1500µs), tilt at 1000µs (-50°).
func NewController(d pwm.Driver, cfg Config) (*Controller, error) {
	c := &Controller{
		pwm:         d,
		cfg:         cfg,
		panPulseUs:  CenterPulseUs,
		tiltPulseUs: InitialTiltPulseUs,
	}

	if err := d.Start(); err != nil {
		return nil, err
	}
	if err := d.SetServoPulse(cfg.PanChannel, c.panPulseUs); err != nil {
		return nil, err
	}
	if err := d.SetServoPulse(cfg.TiltChannel, c.tiltPulseUs); err != nil {
		return nil, err
	}

	return c, nil
}

// pulseForAngle converts degrees to a pulse width, clamped in the pulse
// domain. The input angle is intentionally not clamped first: an
// out-of-range angle saturates at the pulse boundary.
func pulseForAngle(angleDeg int) int {
	pulse := int(math.Round(float64(CenterPulseUs) + float64(angleDeg)*1000.0/90.0))
	if pulse < MinPulseUs {
		pulse = MinPulseUs
	}
	if pulse > MaxPulseUs {
		pulse = MaxPulseUs
	}
	return pulse
}

// angleForPulse is the inverse mapping with integer truncation. It does
// not exactly invert pulseForAngle for all inputs (rounding loss of up
// to 1°).
func angleForPulse(pulseUs int) int {
	return (pulseUs - CenterPulseUs) * 90 / 1000
}

// clampDeg bounds an angle in degree space. Only MoveRelative uses this.
func clampDeg(angleDeg int) int {
	if angleDeg < MinAngleDeg {
		return MinAngleDeg
	}
	if angleDeg > MaxAngleDeg {
		return MaxAngleDeg
	}
	return angleDeg
}

// SetPan sets the horizontal angle in degrees. The current pulse is
// re-issued through Start on every call: the output stage does not
// retain state across power cycles, so each set doubles as a refresh.
func (c *Controller) SetPan(angleDeg int) error {
	pulse := pulseForAngle(angleDeg)
	c.panPulseUs = pulse
	debug.Servo("pan", angleDeg, pulse)

	if err := c.pwm.Start(); err != nil {
		return err
	}
	return c.pwm.SetServoPulse(c.cfg.PanChannel, c.panPulseUs)
}

// SetTilt sets the vertical angle in degrees. See SetPan for the
// refresh semantics.
func (c *Controller) SetTilt(angleDeg int) error {
	pulse := pulseForAngle(angleDeg)
	c.tiltPulseUs = pulse
	debug.Servo("tilt", angleDeg, pulse)

	if err := c.pwm.Start(); err != nil {
		return err
	}
	return c.pwm.SetServoPulse(c.cfg.TiltChannel, c.tiltPulseUs)
}

// GetPan returns the current pan position in degrees.
func (c *Controller) GetPan() int {
	return angleForPulse(c.panPulseUs)
}

// GetTilt returns the current tilt position in degrees.
func (c *Controller) GetTilt() int {
	return angleForPulse(c.tiltPulseUs)
}

// MoveRelative moves both axes relative to the current position. The
// summed angle is clamped in degree space before delegation, unlike the
// absolute setters. A zero delta leaves that axis untouched.
func (c *Controller) MoveRelative(panDelta, tiltDelta int) error {
	if panDelta != 0 {
		newPan := clampDeg(c.GetPan() + panDelta)
		if err := c.SetPan(newPan); err != nil {
			return err
		}
	}

	if tiltDelta != 0 {
		newTilt := clampDeg(c.GetTilt() + tiltDelta)
		if err := c.SetTilt(newTilt); err != nil {
			return err
		}
	}

	return nil
}

// Stop halts movement and disables PWM output.
func (c *Controller) Stop() error {
	return c.Cleanup()
}

// Cleanup disables the PWM output stage. Must run on every exit path,
// error paths included, to avoid servo jitter and continuous power draw.
func (c *Controller) Cleanup() error {
	debug.Verbose("PTZ cleanup: disabling PWM output")
	return c.pwm.Close()
}
