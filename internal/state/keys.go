package state

// Well-known cache keys shared between the sentry processes.
// Last writer wins on every one of them.
const (
	KeySentryMode         = "sentry_mode"            // Bool: motion triggers captures only while true
	KeyPan                = "pan"                    // Int: last commanded pan angle, degrees
	KeyTilt               = "tilt"                   // Int: last commanded tilt angle, degrees
	KeyMotionCount        = "motion_count"           // Int: rising edges since the watch loop started
	KeyLastMotionAt       = "last_motion_at"         // String: RFC3339 of the last rising edge
	KeyLastMotionDuration = "last_motion_duration_s" // Float: duration of the last finished pulse
	KeyCapturePID         = "capture_pid"            // Int: pid of the most recently spawned capture worker
	KeyLastCapture        = "last_capture"           // String: filename of the most recent still
)
