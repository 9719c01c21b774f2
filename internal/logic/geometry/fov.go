package geometry

import (
	"fmt"

	"github.com/mbarrette/sentrypi/internal/config"
)

// RotationCalculator converts the camera's fixed field of view and the
// desired overlap into the rotation between adjacent patrol shots.
type RotationCalculator struct {
	cfg *config.Config
}

// NewRotationCalculator creates a new rotation calculator.
// Returns an error if the configured FOV is unusable.
func NewRotationCalculator(cfg *config.Config) (*RotationCalculator, error) {
	if cfg.Patrol.HorizontalFOVDeg <= 0 {
		return nil, fmt.Errorf("patrol.horizontal_fov_deg must be > 0, got %g", cfg.Patrol.HorizontalFOVDeg)
	}
	return &RotationCalculator{cfg: cfg}, nil
}

// HorizontalRotationDeg calculates the pan rotation between two shots
// to achieve the desired overlap.
// If overlap = 30%, then each shot covers 70% new content.
// Angle = FOV_horizontal × (1 - overlap_ratio)
func (r *RotationCalculator) HorizontalRotationDeg() float64 {
	return r.cfg.Patrol.HorizontalFOVDeg * (1.0 - r.cfg.OverlapRatio())
}

// VerticalRotationDeg calculates the tilt rotation between two shots
// to achieve the desired overlap.
// Angle = FOV_vertical × (1 - overlap_ratio)
func (r *RotationCalculator) VerticalRotationDeg() float64 {
	return r.cfg.Patrol.VerticalFOVDeg * (1.0 - r.cfg.OverlapRatio())
}
