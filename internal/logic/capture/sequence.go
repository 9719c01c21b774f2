package capture

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/mbarrette/sentrypi/internal/debug"
	"github.com/mbarrette/sentrypi/internal/hw/camera"
	"github.com/mbarrette/sentrypi/internal/hw/ptz"
	"github.com/mbarrette/sentrypi/internal/logic/geometry"
)

// Sweep contains high-level logic for patrol captures: traversing a
// planned shot grid with the servo mount and shooting a still at each
// position.
type Sweep struct {
	ptz    *ptz.Controller
	camera camera.Camera
}

func NewSweep(p *ptz.Controller, c camera.Camera) *Sweep {
	return &Sweep{
		ptz:    p,
		camera: c,
	}
}

// SweepParams defines the parameters for one patrol run.
type SweepParams struct {
	Plan *geometry.SweepPlan // calculated shot grid

	Settle   time.Duration // stabilization wait after a move before shooting
	ImageDir string        // where stills are written

	// Sleep is injectable for tests.
	Sleep func(time.Duration)
}

// InitializePosition moves the mount to the start position (far left, top).
func (s *Sweep) InitializePosition(plan *geometry.SweepPlan) error {
	debug.Section("Initializing Position")
	debug.Live("Moving to start position (left, top)")

	if err := s.ptz.SetPan(plan.StartPanDeg); err != nil {
		return err
	}
	if err := s.ptz.SetTilt(plan.StartTiltDeg); err != nil {
		return err
	}

	debug.Live("Initialization complete")
	return nil
}

// Run performs a patrol traversal in columns (serpentine pattern):
// Column 0: top to bottom, then pan shift
// Column 1: bottom to top, then pan shift
// etc.
// It returns the paths of the stills written, including those taken
// before an error cut the run short.
func (s *Sweep) Run(ctx context.Context, p SweepParams) ([]string, error) {
	plan := p.Plan
	sleep := p.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	runID := uuid.New().String()

	if err := s.InitializePosition(plan); err != nil {
		return nil, err
	}

	var shots []string
	for col := 0; col < plan.PanStops; col++ {
		select {
		case <-ctx.Done():
			return shots, ctx.Err()
		default:
		}

		// Even columns run top to bottom, odd ones back up.
		goingDown := col%2 == 0
		direction := "up"
		if goingDown {
			direction = "down"
		}
		debug.Column(col+1, plan.PanStops, direction)

		if err := s.ptz.SetPan(plan.PanAngleAt(col)); err != nil {
			return shots, err
		}

		for r := 0; r < plan.TiltStops; r++ {
			select {
			case <-ctx.Done():
				return shots, ctx.Err()
			default:
			}

			row := r
			if !goingDown {
				row = plan.TiltStops - 1 - r
			}
			if err := s.ptz.SetTilt(plan.TiltAngleAt(row)); err != nil {
				return shots, err
			}
			sleep(p.Settle)

			path := filepath.Join(p.ImageDir, fmt.Sprintf("patrol-%s-c%02d-r%02d.png", runID, col+1, row+1))
			if err := s.camera.CaptureStill(ctx, path); err != nil {
				return shots, err
			}
			debug.Shot(col+1, row+1)
			shots = append(shots, path)
		}
	}

	return shots, nil
}
