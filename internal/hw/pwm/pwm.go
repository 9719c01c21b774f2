package pwm

import (
	"sync"

	"github.com/mbarrette/sentrypi/internal/debug"
)

// ServoCycleUs is the PWM period in microseconds at the fixed 50 Hz
// servo frequency. Pulse widths are expressed within this cycle.
const ServoCycleUs = 20000

// Driver defines the abstract interface for the servo PWM output stage.
// The real chip does not retain state across power cycles, so Start is
// called before every pulse update as a refresh.
type Driver interface {
	// Start (re)enables the PWM output stage.
	Start() error
	// SetServoPulse sets the high-phase width in microseconds on a channel.
	SetServoPulse(channel, pulseUs int) error
	// Close disables PWM output entirely (servos freewheel, no jitter,
	// no continuous power draw).
	Close() error
}

// PulseEvent records one SetServoPulse call on the mock driver.
type PulseEvent struct {
	Channel int
	PulseUs int
}

// MockDriver records pulse and lifecycle calls for tests and dev mode.
type MockDriver struct {
	mu      sync.Mutex
	started int
	closed  int
	pulses  []PulseEvent
}

// NewDriver creates a PWM driver based on the chosen mode.
func NewDriver(mock bool, channelPins map[int]int) (Driver, error) {
	if mock {
		debug.Info("Using MOCK PWM driver (development mode)")
		return NewMockDriver(), nil
	}
	return NewRPiRealDriver(channelPins)
}

// NewMockDriver creates an empty recording driver.
func NewMockDriver() *MockDriver {
	return &MockDriver{}
}

func (m *MockDriver) Start() error {
	m.mu.Lock()
	m.started++
	m.mu.Unlock()
	debug.Trace("PWM Start (mock)")
	return nil
}

func (m *MockDriver) SetServoPulse(channel, pulseUs int) error {
	m.mu.Lock()
	m.pulses = append(m.pulses, PulseEvent{Channel: channel, PulseUs: pulseUs})
	m.mu.Unlock()
	debug.PWM("SetServoPulse", channel, pulseUs)
	return nil
}

func (m *MockDriver) Close() error {
	m.mu.Lock()
	m.closed++
	m.mu.Unlock()
	debug.Trace("PWM Close (mock)")
	return nil
}

// Pulses returns a copy of all recorded pulse events.
func (m *MockDriver) Pulses() []PulseEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]PulseEvent, len(m.pulses))
	copy(out, m.pulses)
	return out
}

// PulsesFor returns the recorded pulse widths for one channel, in order.
func (m *MockDriver) PulsesFor(channel int) []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []int
	for _, p := range m.pulses {
		if p.Channel == channel {
			out = append(out, p.PulseUs)
		}
	}
	return out
}

// StartCount returns how many times Start was called.
func (m *MockDriver) StartCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started
}

// CloseCount returns how many times Close was called.
func (m *MockDriver) CloseCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
