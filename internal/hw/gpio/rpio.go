package gpio

import (
	"fmt"

	"github.com/mbarrette/sentrypi/internal/debug"
	"github.com/stianeikeland/go-rpio/v4"
)

// RPiDriver samples input lines on a Raspberry Pi using go-rpio.
type RPiDriver struct {
	pins map[int]rpio.Pin
}

// NewRPiRealDriver creates a real GPIO driver for Raspberry Pi.
// Requires running on a Raspberry Pi with access to /dev/gpiomem or as root.
func NewRPiRealDriver() (*RPiDriver, error) {
	debug.Info("Initializing real GPIO driver (go-rpio)")

	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("failed to open GPIO: %w (are you running on a Raspberry Pi?)", err)
	}

	debug.Verbose("GPIO memory mapped successfully")

	return &RPiDriver{
		pins: make(map[int]rpio.Pin),
	}, nil
}

// SetupInput configures a pin as input with an internal pull-down, so
// the line rests at a defined Low while the sensor is still warming up.
func (r *RPiDriver) SetupInput(pin int) error {
	debug.GPIO("SetupInput", pin, nil)

	p := rpio.Pin(pin)
	p.Input()
	p.PullDown()
	r.pins[pin] = p

	return nil
}

func (r *RPiDriver) ReadPin(pin int) (Level, error) {
	p, ok := r.pins[pin]
	if !ok {
		// Pin not setup yet, configure it on first use
		if err := r.SetupInput(pin); err != nil {
			return Low, err
		}
		p = r.pins[pin]
	}

	state := p.Read()
	debug.GPIO("ReadPin", pin, state == rpio.High)
	if state == rpio.High {
		return High, nil
	}
	return Low, nil
}

func (r *RPiDriver) Close() error {
	debug.Trace("GPIO Close (real driver)")

	// Release the pulls before unmapping
	for pin, p := range r.pins {
		debug.Verbose("Releasing pull on pin %d", pin)
		p.PullOff()
	}

	return rpio.Close()
}
