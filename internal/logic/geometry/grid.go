package geometry

import (
	"math"

	"github.com/mbarrette/sentrypi/internal/config"
	"github.com/mbarrette/sentrypi/internal/hw/ptz"
)

// SweepPlan is the shot grid needed to cover the configured spans with
// the desired overlap. All angles are whole servo degrees.
type SweepPlan struct {
	PanStops  int // number of pan positions (columns)
	TiltStops int // number of tilt positions (rows)

	PanStepDeg  int // degrees between adjacent columns
	TiltStepDeg int // degrees between adjacent rows

	// Start position (from center): far left, top.
	StartPanDeg  int
	StartTiltDeg int
}

// CalculateSweepPlan calculates the complete patrol plan from config
// and the rotation calculator.
func CalculateSweepPlan(cfg *config.Config, rot *RotationCalculator) *SweepPlan {
	panRotation := rot.HorizontalRotationDeg()
	tiltRotation := rot.VerticalRotationDeg()

	totalPan := cfg.Patrol.PanSpanDeg
	totalTilt := cfg.Patrol.TiltSpanDeg

	// Round up so the whole span gets covered.
	panStops := stops(totalPan, panRotation)
	tiltStops := stops(totalTilt, tiltRotation)

	// Start position: far left (negative pan) and top (positive tilt).
	startPan := clampDeg(int(math.Round(-totalPan / 2.0)))
	startTilt := clampDeg(int(math.Round(totalTilt / 2.0)))

	return &SweepPlan{
		PanStops:     panStops,
		TiltStops:    tiltStops,
		PanStepDeg:   stepDeg(panRotation),
		TiltStepDeg:  stepDeg(tiltRotation),
		StartPanDeg:  startPan,
		StartTiltDeg: startTilt,
	}
}

// PanAngleAt returns the pan angle of column col, left to right.
func (p *SweepPlan) PanAngleAt(col int) int {
	return clampDeg(p.StartPanDeg + col*p.PanStepDeg)
}

// TiltAngleAt returns the tilt angle of row, top to bottom.
func (p *SweepPlan) TiltAngleAt(row int) int {
	return clampDeg(p.StartTiltDeg - row*p.TiltStepDeg)
}

// TotalShots returns the number of captures the plan produces.
func (p *SweepPlan) TotalShots() int {
	return p.PanStops * p.TiltStops
}

func stops(spanDeg, rotationDeg float64) int {
	if spanDeg <= 0 || rotationDeg <= 0 {
		return 1
	}
	n := int(math.Ceil(spanDeg / rotationDeg))
	if n < 1 {
		n = 1
	}
	return n
}

func stepDeg(rotationDeg float64) int {
	step := int(math.Round(rotationDeg))
	if step < 1 {
		step = 1
	}
	return step
}

func clampDeg(deg int) int {
	if deg < ptz.MinAngleDeg {
		return ptz.MinAngleDeg
	}
	if deg > ptz.MaxAngleDeg {
		return ptz.MaxAngleDeg
	}
	return deg
}
