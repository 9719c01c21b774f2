package capture

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mbarrette/sentrypi/internal/hw/ptz"
	"github.com/mbarrette/sentrypi/internal/hw/pwm"
	"github.com/mbarrette/sentrypi/internal/logic/geometry"
)

// recordingCamera captures the positions the mount was at for each
// shot instead of writing files.
type recordingCamera struct {
	ptz     *ptz.Controller
	pans    []int
	tilts   []int
	paths   []string
	failAt  int // 1-based shot index to fail on, 0 = never
	shotNum int
}

func (c *recordingCamera) CaptureStill(_ context.Context, path string) error {
	c.shotNum++
	if c.failAt != 0 && c.shotNum == c.failAt {
		return errors.New("capture failed")
	}
	c.pans = append(c.pans, c.ptz.GetPan())
	c.tilts = append(c.tilts, c.ptz.GetTilt())
	c.paths = append(c.paths, path)
	return nil
}

func newTestSweep(t *testing.T) (*Sweep, *recordingCamera) {
	t.Helper()
	ctrl, err := ptz.NewController(pwm.NewMockDriver(), ptz.Config{PanChannel: 1, TiltChannel: 0})
	if err != nil {
		t.Fatal(err)
	}
	cam := &recordingCamera{ptz: ctrl}
	return NewSweep(ctrl, cam), cam
}

func testPlan() *geometry.SweepPlan {
	return &geometry.SweepPlan{
		PanStops:     3,
		TiltStops:    2,
		PanStepDeg:   45,
		TiltStepDeg:  20,
		StartPanDeg:  -45,
		StartTiltDeg: 10,
	}
}

func runParams(plan *geometry.SweepPlan) SweepParams {
	return SweepParams{
		Plan:     plan,
		Settle:   100 * time.Millisecond,
		ImageDir: "/tmp/test-patrol",
		Sleep:    func(time.Duration) {},
	}
}

func TestSweep_SerpentineTraversal(t *testing.T) {
	sweep, cam := newTestSweep(t)

	shots, err := sweep.Run(context.Background(), runParams(testPlan()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(shots) != 6 {
		t.Fatalf("got %d shots, want 6", len(shots))
	}

	// Column 1 down, column 2 up, column 3 down. Servo readback is
	// accurate to 1 degree, so positions are compared with tolerance.
	wantPans := []int{-45, -45, 0, 0, 45, 45}
	wantTilts := []int{10, -10, -10, 10, 10, -10}
	for i := range wantPans {
		if !withinOneDeg(cam.pans[i], wantPans[i]) || !withinOneDeg(cam.tilts[i], wantTilts[i]) {
			t.Errorf("shot %d at pan=%d tilt=%d, want pan=%d±1 tilt=%d±1",
				i+1, cam.pans[i], cam.tilts[i], wantPans[i], wantTilts[i])
		}
	}
}

func withinOneDeg(got, want int) bool {
	diff := got - want
	return diff >= -1 && diff <= 1
}

func TestSweep_ShotPathsLandInImageDir(t *testing.T) {
	sweep, cam := newTestSweep(t)

	shots, err := sweep.Run(context.Background(), runParams(testPlan()))
	if err != nil {
		t.Fatal(err)
	}
	for i, path := range shots {
		if !strings.HasPrefix(path, "/tmp/test-patrol/patrol-") {
			t.Errorf("shot %d path = %q, want it under the image dir", i+1, path)
		}
		if !strings.HasSuffix(path, ".png") {
			t.Errorf("shot %d path = %q, want a .png", i+1, path)
		}
	}
	if cam.paths[0] == cam.paths[1] {
		t.Error("consecutive shots share a path")
	}
}

func TestSweep_SettleBeforeEveryShot(t *testing.T) {
	sweep, _ := newTestSweep(t)

	settles := 0
	params := runParams(testPlan())
	params.Sleep = func(d time.Duration) {
		if d != 100*time.Millisecond {
			t.Errorf("settle = %v, want 100ms", d)
		}
		settles++
	}

	if _, err := sweep.Run(context.Background(), params); err != nil {
		t.Fatal(err)
	}
	if settles != 6 {
		t.Errorf("settled %d times, want once per shot (6)", settles)
	}
}

func TestSweep_CaptureErrorStopsRun(t *testing.T) {
	sweep, cam := newTestSweep(t)
	cam.failAt = 3

	shots, err := sweep.Run(context.Background(), runParams(testPlan()))
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if len(shots) != 2 {
		t.Errorf("got %d shots before the failure, want 2", len(shots))
	}
}

func TestSweep_ContextCancellation(t *testing.T) {
	sweep, _ := newTestSweep(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sweep.Run(ctx, runParams(testPlan()))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestSweep_SingleRowPlan(t *testing.T) {
	sweep, cam := newTestSweep(t)

	plan := &geometry.SweepPlan{
		PanStops:    2,
		TiltStops:   1,
		PanStepDeg:  60,
		StartPanDeg: -30,
	}
	shots, err := sweep.Run(context.Background(), runParams(plan))
	if err != nil {
		t.Fatal(err)
	}
	if len(shots) != 2 {
		t.Fatalf("got %d shots, want 2", len(shots))
	}
	if cam.tilts[0] != 0 || cam.tilts[1] != 0 {
		t.Errorf("flat sweep tilts = %v, want all 0", cam.tilts)
	}
}
