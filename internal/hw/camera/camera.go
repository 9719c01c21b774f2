package camera

import (
	"context"
	"fmt"
	"os"

	"github.com/mbarrette/sentrypi/internal/debug"
)

// Camera is the high-level interface used by the capture worker.
// It represents an abstract "camera", regardless of how frames are
// actually produced (libcamera pipeline, USB, network, etc.).
type Camera interface {
	// CaptureStill captures a single frame and writes it to path.
	CaptureStill(ctx context.Context, path string) error
}

// pngStub is a valid 1x1 PNG, enough for delivery paths to exercise a
// real file in dev mode.
var pngStub = []byte{
	0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a,
	0x00, 0x00, 0x00, 0x0d, 'I', 'H', 'D', 'R',
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x00, 0x00, 0x00, 0x00, 0x3a, 0x7e, 0x9b,
	0x55, 0x00, 0x00, 0x00, 0x0a, 'I', 'D', 'A', 'T',
	0x78, 0x9c, 0x63, 0x62, 0x00, 0x00, 0x00, 0x06,
	0x00, 0x03, 0x36, 0x37, 0x7c, 0xa8, 0x00, 0x00,
	0x00, 0x00, 'I', 'E', 'N', 'D', 0xae, 0x42, 0x60, 0x82,
}

// MockCamera writes a stub image, for development off the Pi.
type MockCamera struct{}

func (MockCamera) CaptureStill(_ context.Context, path string) error {
	debug.Info("Mock camera: writing stub still to %s", path)
	if err := os.WriteFile(path, pngStub, 0o644); err != nil {
		return fmt.Errorf("write stub still: %w", err)
	}
	return nil
}
