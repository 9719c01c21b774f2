package camera

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"time"

	"github.com/mbarrette/sentrypi/internal/debug"
)

// RpicamStill captures frames by invoking the libcamera still binary
// (rpicam-still / libcamera-still). Keeping the capture pipeline in an
// external process means a wedged camera stack can be killed without
// taking the worker down with it.
type RpicamStill struct {
	binary   string
	widthPx  int
	heightPx int
	timeout  time.Duration
}

// NewRpicamStill creates a capture backend around the given binary.
func NewRpicamStill(binary string, widthPx, heightPx int, timeout time.Duration) *RpicamStill {
	if binary == "" {
		binary = "rpicam-still"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RpicamStill{
		binary:   binary,
		widthPx:  widthPx,
		heightPx: heightPx,
		timeout:  timeout,
	}
}

// CaptureStill shells out for one frame. The context bounds the whole
// invocation; on timeout the child is killed by CommandContext.
func (r *RpicamStill) CaptureStill(ctx context.Context, path string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	args := []string{
		"--output", path,
		"--width", strconv.Itoa(r.widthPx),
		"--height", strconv.Itoa(r.heightPx),
		"--nopreview",
		"--immediate",
	}

	debug.Verbose("Camera: %s %v", r.binary, args)
	cmd := exec.CommandContext(ctx, r.binary, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("capture still: %w (output: %s)", err, string(out))
	}

	debug.Live("Captured still to %s", path)
	return nil
}
