package ptz

import (
	"testing"

	"github.com/mbarrette/sentrypi/internal/hw/pwm"
)

func newTestController(t *testing.T) (*Controller, *pwm.MockDriver) {
	t.Helper()
	drv := pwm.NewMockDriver()
	c, err := NewController(drv, Config{PanChannel: 1, TiltChannel: 0})
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	return c, drv
}

func TestController_InitialPosition(t *testing.T) {
	_, drv := newTestController(t)

	panPulses := drv.PulsesFor(1)
	if len(panPulses) != 1 || panPulses[0] != 1500 {
		t.Errorf("initial pan pulses = %v, want [1500]", panPulses)
	}

	// Tilt starts at 1000µs (-50°), not centered. Intentional.
	tiltPulses := drv.PulsesFor(0)
	if len(tiltPulses) != 1 || tiltPulses[0] != 1000 {
		t.Errorf("initial tilt pulses = %v, want [1000]", tiltPulses)
	}

	if drv.StartCount() != 1 {
		t.Errorf("StartCount = %d, want 1", drv.StartCount())
	}
}

func TestController_InitialAngles(t *testing.T) {
	c, _ := newTestController(t)

	if got := c.GetPan(); got != 0 {
		t.Errorf("GetPan = %d, want 0", got)
	}
	if got := c.GetTilt(); got != -45 {
		// 1000µs reads back as (1000-1500)*90/1000 = -45°
		t.Errorf("GetTilt = %d, want -45", got)
	}
}

func TestController_SetPanRoundTrip(t *testing.T) {
	c, _ := newTestController(t)

	for angle := -90; angle <= 90; angle++ {
		if err := c.SetPan(angle); err != nil {
			t.Fatalf("SetPan(%d): %v", angle, err)
		}
		got := c.GetPan()
		diff := got - angle
		if diff < -1 || diff > 1 {
			t.Errorf("SetPan(%d) then GetPan() = %d, want within ±1°", angle, got)
		}
	}
}

func TestController_SetPanClampsInPulseDomain(t *testing.T) {
	c, drv := newTestController(t)

	if err := c.SetPan(200); err != nil {
		t.Fatalf("SetPan: %v", err)
	}
	pulses := drv.PulsesFor(1)
	if last := pulses[len(pulses)-1]; last != 2500 {
		t.Errorf("pulse for 200° = %d, want clamped 2500", last)
	}
	if got := c.GetPan(); got != 90 {
		t.Errorf("GetPan after SetPan(200) = %d, want 90", got)
	}

	if err := c.SetPan(-400); err != nil {
		t.Fatalf("SetPan: %v", err)
	}
	pulses = drv.PulsesFor(1)
	if last := pulses[len(pulses)-1]; last != 500 {
		t.Errorf("pulse for -400° = %d, want clamped 500", last)
	}
	if got := c.GetPan(); got != -90 {
		t.Errorf("GetPan after SetPan(-400) = %d, want -90", got)
	}
}

func TestController_SetReissuesStartAsRefresh(t *testing.T) {
	c, drv := newTestController(t)
	startsAfterInit := drv.StartCount()

	if err := c.SetPan(10); err != nil {
		t.Fatalf("SetPan: %v", err)
	}
	if err := c.SetTilt(10); err != nil {
		t.Fatalf("SetTilt: %v", err)
	}

	if got := drv.StartCount(); got != startsAfterInit+2 {
		t.Errorf("StartCount = %d, want %d (one Start per set)", got, startsAfterInit+2)
	}
}

func TestController_MoveRelativeSaturatesInDegrees(t *testing.T) {
	c, _ := newTestController(t)

	if err := c.SetPan(80); err != nil {
		t.Fatalf("SetPan: %v", err)
	}

	// Repeated +20° moves must saturate at 90° and never exceed it.
	for i := 0; i < 5; i++ {
		if err := c.MoveRelative(20, 0); err != nil {
			t.Fatalf("MoveRelative: %v", err)
		}
		if got := c.GetPan(); got > 90 {
			t.Fatalf("pan exceeded 90°: %d", got)
		}
	}
	if got := c.GetPan(); got != 90 {
		t.Errorf("pan after saturating moves = %d, want 90", got)
	}
}

func TestController_MoveRelativeZeroDeltaLeavesAxisAlone(t *testing.T) {
	c, drv := newTestController(t)
	before := len(drv.PulsesFor(0))

	if err := c.MoveRelative(15, 0); err != nil {
		t.Fatalf("MoveRelative: %v", err)
	}

	if got := len(drv.PulsesFor(0)); got != before {
		t.Errorf("tilt pulses = %d, want %d (zero delta must not touch the axis)", got, before)
	}
	if got := c.GetPan(); got != 15 {
		t.Errorf("GetPan = %d, want 15", got)
	}
}

func TestController_MoveRelativeBothAxes(t *testing.T) {
	c, _ := newTestController(t)

	if err := c.MoveRelative(-30, 20); err != nil {
		t.Fatalf("MoveRelative: %v", err)
	}

	if got := c.GetPan(); got < -31 || got > -29 {
		t.Errorf("GetPan = %d, want -30 ±1", got)
	}
	// Tilt starts at -45°, so +20° lands near -25°.
	if got := c.GetTilt(); got < -26 || got > -24 {
		t.Errorf("GetTilt = %d, want -25 ±1", got)
	}
}

func TestController_CleanupDisablesOutput(t *testing.T) {
	c, drv := newTestController(t)

	if err := c.Cleanup(); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if drv.CloseCount() != 1 {
		t.Errorf("CloseCount = %d, want 1", drv.CloseCount())
	}
}

func TestController_StopDisablesOutput(t *testing.T) {
	c, drv := newTestController(t)

	if err := c.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if drv.CloseCount() != 1 {
		t.Errorf("CloseCount = %d, want 1", drv.CloseCount())
	}
}

func TestPulseForAngle(t *testing.T) {
	cases := []struct {
		angle int
		pulse int
	}{
		{0, 1500},
		{90, 2500},
		{-90, 500},
		{45, 2000},
		{-45, 1000},
		{200, 2500}, // saturates high
		{-400, 500}, // saturates low
	}
	for _, tc := range cases {
		if got := pulseForAngle(tc.angle); got != tc.pulse {
			t.Errorf("pulseForAngle(%d) = %d, want %d", tc.angle, got, tc.pulse)
		}
	}
}

func TestAngleForPulse_Truncates(t *testing.T) {
	cases := []struct {
		pulse int
		angle int
	}{
		{1500, 0},
		{2500, 90},
		{500, -90},
		{1000, -45},
		{1450, -4}, // -4.5 truncates toward zero
		{1550, 4},  // 4.5 truncates toward zero
	}
	for _, tc := range cases {
		if got := angleForPulse(tc.pulse); got != tc.angle {
			t.Errorf("angleForPulse(%d) = %d, want %d", tc.pulse, got, tc.angle)
		}
	}
}
