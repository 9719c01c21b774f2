package pwm

import (
	"fmt"

	"github.com/mbarrette/sentrypi/internal/debug"
	"github.com/stianeikeland/go-rpio/v4"
)

// servoFreqHz is the fixed servo refresh frequency.
const servoFreqHz = 50

// RPiDriver drives servos through the Raspberry Pi hardware PWM
// peripheral using go-rpio. Logical channels are mapped to BCM pins
// that expose hardware PWM (12/13 or 18/19).
type RPiDriver struct {
	pins map[int]rpio.Pin // logical channel -> pin
}

// NewRPiRealDriver creates a real PWM driver for Raspberry Pi.
// channelPins maps logical servo channels to BCM pin numbers.
func NewRPiRealDriver(channelPins map[int]int) (*RPiDriver, error) {
	debug.Info("Initializing real PWM driver (go-rpio hardware PWM)")

	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("failed to open GPIO for PWM: %w (are you running on a Raspberry Pi?)", err)
	}

	d := &RPiDriver{pins: make(map[int]rpio.Pin)}
	for channel, pinNum := range channelPins {
		p := rpio.Pin(pinNum)
		p.Mode(rpio.Pwm)
		// PWM clock runs at cycle-length ticks per period, one tick per µs.
		p.Freq(servoFreqHz * ServoCycleUs)
		d.pins[channel] = p
		debug.PWM("SetupChannel", channel, pinNum)
	}

	return d, nil
}

func (r *RPiDriver) Start() error {
	debug.Trace("PWM Start (real driver)")
	rpio.StartPwm()
	return nil
}

func (r *RPiDriver) SetServoPulse(channel, pulseUs int) error {
	debug.PWM("SetServoPulse", channel, pulseUs)

	p, ok := r.pins[channel]
	if !ok {
		return fmt.Errorf("unknown PWM channel: %d", channel)
	}
	p.DutyCycle(uint32(pulseUs), ServoCycleUs)
	return nil
}

func (r *RPiDriver) Close() error {
	debug.Trace("PWM Close (real driver)")

	// Zero duty on all channels, then stop the PWM clock entirely.
	for channel, p := range r.pins {
		debug.Verbose("Zeroing PWM channel %d", channel)
		p.DutyCycle(0, ServoCycleUs)
	}
	rpio.StopPwm()

	return rpio.Close()
}
