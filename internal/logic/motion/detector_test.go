package motion

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mbarrette/sentrypi/internal/hw/gpio"
)

// scriptedSampler replays a fixed level sequence, then repeats the
// last level forever.
type scriptedSampler struct {
	levels []gpio.Level
	errs   []error
	idx    int
}

func (s *scriptedSampler) Sample() (gpio.Level, error) {
	i := s.idx
	if i >= len(s.levels) {
		i = len(s.levels) - 1
	}
	s.idx++
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	return s.levels[i], err
}

// fakeClock advances a fixed step per Now call via the Sleep hook, so
// sample times are deterministic.
type fakeClock struct {
	now  time.Time
	step time.Duration
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(time.Duration) { c.now = c.now.Add(c.step) }

// recorder collects emitted pulses.
type recorder struct {
	started  []Pulse
	ended    []Pulse
	warnings []Pulse
}

func (r *recorder) events() Events {
	return Events{
		MotionStarted:      func(p Pulse) { r.started = append(r.started, p) },
		MotionEnded:        func(p Pulse) { r.ended = append(r.ended, p) },
		CalibrationWarning: func(p Pulse) { r.warnings = append(r.warnings, p) },
	}
}

// runSamples drives the detector through n poll ticks then cancels.
func runSamples(t *testing.T, d *Detector, clock *fakeClock, n int) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())

	baseSleep := clock.Sleep
	ticks := 0
	d.cfg.Sleep = func(dur time.Duration) {
		baseSleep(dur)
		ticks++
		if ticks >= n {
			cancel()
		}
	}

	err := d.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run returned %v, want context.Canceled", err)
	}
}

func TestDetector_SinglePulse(t *testing.T) {
	// [LOW, HIGH, HIGH, LOW] at t0..t3 must yield exactly one
	// MotionStarted (t1) and one MotionEnded with duration t3-t1.
	sampler := &scriptedSampler{levels: []gpio.Level{gpio.Low, gpio.High, gpio.High, gpio.Low}}
	clock := &fakeClock{now: time.Unix(1000, 0), step: 50 * time.Millisecond}
	rec := &recorder{}

	d := NewDetector(sampler, Config{
		PollInterval: 50 * time.Millisecond,
		Now:          clock.Now,
		Sleep:        clock.Sleep,
	}, rec.events())

	runSamples(t, d, clock, 4)

	if len(rec.started) != 1 {
		t.Fatalf("MotionStarted count = %d, want 1", len(rec.started))
	}
	if len(rec.ended) != 1 {
		t.Fatalf("MotionEnded count = %d, want 1", len(rec.ended))
	}

	wantStart := time.Unix(1000, 0).Add(50 * time.Millisecond) // t1
	if !rec.started[0].StartTime.Equal(wantStart) {
		t.Errorf("start time = %v, want %v", rec.started[0].StartTime, wantStart)
	}
	if got, want := rec.ended[0].Duration, 100*time.Millisecond; got != want {
		t.Errorf("duration = %v, want %v (t3-t1)", got, want)
	}
	if d.PulseCount() != 1 {
		t.Errorf("PulseCount = %d, want 1", d.PulseCount())
	}
	if len(rec.warnings) != 0 {
		t.Errorf("warnings = %d, want 0", len(rec.warnings))
	}
}

func TestDetector_NeverReturnsToLow(t *testing.T) {
	sampler := &scriptedSampler{levels: []gpio.Level{gpio.Low, gpio.High}}
	clock := &fakeClock{now: time.Unix(0, 0), step: 50 * time.Millisecond}
	rec := &recorder{}

	d := NewDetector(sampler, Config{Now: clock.Now, Sleep: clock.Sleep}, rec.events())
	runSamples(t, d, clock, 20)

	if len(rec.started) != 1 {
		t.Errorf("MotionStarted count = %d, want 1", len(rec.started))
	}
	if len(rec.ended) != 0 {
		t.Errorf("MotionEnded count = %d, want 0 (no falling edge)", len(rec.ended))
	}
	if d.State() != Active {
		t.Errorf("state = %v, want Active", d.State())
	}
}

func TestDetector_MultiplePulses(t *testing.T) {
	sampler := &scriptedSampler{levels: []gpio.Level{
		gpio.Low, gpio.High, gpio.Low, gpio.High, gpio.High, gpio.Low,
	}}
	clock := &fakeClock{now: time.Unix(0, 0), step: 50 * time.Millisecond}
	rec := &recorder{}

	d := NewDetector(sampler, Config{Now: clock.Now, Sleep: clock.Sleep}, rec.events())
	runSamples(t, d, clock, 6)

	if len(rec.started) != 2 || len(rec.ended) != 2 {
		t.Fatalf("started=%d ended=%d, want 2/2", len(rec.started), len(rec.ended))
	}
	if rec.ended[0].Number != 1 || rec.ended[1].Number != 2 {
		t.Errorf("pulse numbers = %d,%d, want 1,2", rec.ended[0].Number, rec.ended[1].Number)
	}
	if d.PulseCount() != 2 {
		t.Errorf("PulseCount = %d, want 2", d.PulseCount())
	}
}

func TestDetector_LongPulseCalibrationWarning(t *testing.T) {
	// 1s per sample, HIGH for 11 samples: duration > 10s threshold.
	levels := []gpio.Level{gpio.Low}
	for i := 0; i < 11; i++ {
		levels = append(levels, gpio.High)
	}
	levels = append(levels, gpio.Low)

	sampler := &scriptedSampler{levels: levels}
	clock := &fakeClock{now: time.Unix(0, 0), step: time.Second}
	rec := &recorder{}

	d := NewDetector(sampler, Config{
		LongPulseWarn: 10 * time.Second,
		Now:           clock.Now,
		Sleep:         clock.Sleep,
	}, rec.events())
	runSamples(t, d, clock, len(levels))

	if len(rec.ended) != 1 {
		t.Fatalf("MotionEnded count = %d, want 1", len(rec.ended))
	}
	if len(rec.warnings) != 1 {
		t.Fatalf("CalibrationWarning count = %d, want 1", len(rec.warnings))
	}
	if rec.warnings[0].Duration <= 10*time.Second {
		t.Errorf("warning duration = %v, want > 10s", rec.warnings[0].Duration)
	}
}

func TestDetector_ExactThresholdDoesNotWarn(t *testing.T) {
	// duration == threshold must not warn; only strictly longer does.
	levels := []gpio.Level{gpio.Low}
	for i := 0; i < 10; i++ {
		levels = append(levels, gpio.High)
	}
	levels = append(levels, gpio.Low)

	sampler := &scriptedSampler{levels: levels}
	clock := &fakeClock{now: time.Unix(0, 0), step: time.Second}
	rec := &recorder{}

	d := NewDetector(sampler, Config{
		LongPulseWarn: 10 * time.Second,
		Now:           clock.Now,
		Sleep:         clock.Sleep,
	}, rec.events())
	runSamples(t, d, clock, len(levels))

	if len(rec.ended) != 1 {
		t.Fatalf("MotionEnded count = %d, want 1", len(rec.ended))
	}
	if got := rec.ended[0].Duration; got != 10*time.Second {
		t.Fatalf("duration = %v, want exactly 10s", got)
	}
	if len(rec.warnings) != 0 {
		t.Errorf("CalibrationWarning count = %d, want 0", len(rec.warnings))
	}
}

func TestDetector_SampleErrorSkipsTick(t *testing.T) {
	sampler := &scriptedSampler{
		levels: []gpio.Level{gpio.Low, gpio.High, gpio.High, gpio.Low},
		errs:   []error{nil, errors.New("probe failed"), nil, nil},
	}
	clock := &fakeClock{now: time.Unix(0, 0), step: 50 * time.Millisecond}
	rec := &recorder{}

	d := NewDetector(sampler, Config{Now: clock.Now, Sleep: clock.Sleep}, rec.events())
	runSamples(t, d, clock, 4)

	// The errored HIGH at t1 is dropped; the rising edge lands at t2.
	if len(rec.started) != 1 {
		t.Fatalf("MotionStarted count = %d, want 1", len(rec.started))
	}
	wantStart := time.Unix(0, 0).Add(100 * time.Millisecond)
	if !rec.started[0].StartTime.Equal(wantStart) {
		t.Errorf("start time = %v, want %v", rec.started[0].StartTime, wantStart)
	}
}

func TestDetector_Defaults(t *testing.T) {
	d := NewDetector(&scriptedSampler{levels: []gpio.Level{gpio.Low}}, Config{}, Events{})

	if d.cfg.PollInterval != 50*time.Millisecond {
		t.Errorf("default poll interval = %v, want 50ms", d.cfg.PollInterval)
	}
	if d.cfg.LongPulseWarn != 10*time.Second {
		t.Errorf("default long-pulse threshold = %v, want 10s", d.cfg.LongPulseWarn)
	}
	if d.State() != Idle {
		t.Errorf("initial state = %v, want Idle", d.State())
	}
}
