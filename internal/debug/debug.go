package debug

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"
)

// Debug levels
const (
	LevelOff     = 0 // No output
	LevelInfo    = 1 // Important info (arming, spawns, transfers)
	LevelLive    = 2 // Live info (motion edges, servo moves)
	LevelVerbose = 3 // Verbose (pulse math, retry details)
	LevelTrace   = 4 // Trace (GPIO/PWM, very low level)
)

var (
	level  int
	logger *log.Logger
)

// Init initializes the debug system with a level (0-4).
// 0 = no output
// 1 = important info (arming, worker spawns, transfer outcomes)
// 2 = live info (motion edges, servo movements)
// 3 = verbose (pulse calculations, retry attempts)
// 4 = trace (GPIO/PWM, very low level)
func Init(debugLevel int) {
	level = debugLevel
	if level > LevelOff {
		logger = log.New(os.Stdout, "[SentryPi] ", log.LstdFlags|log.Lmicroseconds)
	}
}

// SetOutput redirects debug output, e.g. to tee into the web event stream.
func SetOutput(w io.Writer) {
	if logger != nil {
		logger.SetOutput(w)
	}
}

// Level returns the current debug level.
func Level() int {
	return level
}

// IsEnabled returns true if debug level is >= the requested level.
func IsEnabled(minLevel int) bool {
	return level >= minLevel
}

// --- Level 1 functions (Info): important info ---

// Info prints a level 1 message (important info).
func Info(format string, args ...interface{}) {
	if level >= LevelInfo && logger != nil {
		logger.Printf("[INFO] "+format, args...)
	}
}

// Summary prints an important summary (level 1).
func Summary(title string) {
	if level >= LevelOff && logger != nil {
		logger.Printf("═══════════════════════════════════════")
		logger.Printf("  %s", title)
		logger.Printf("═══════════════════════════════════════")
	}
}

// Proc prints a supervised-process operation (level 1).
func Proc(operation string, pid int) {
	if level >= LevelInfo && logger != nil {
		logger.Printf("[INFO] Process %s: pid=%d", operation, pid)
	}
}

// --- Level 2 functions (Live): real-time info ---

// Live prints a level 2 message (live info).
func Live(format string, args ...interface{}) {
	if level >= LevelLive && logger != nil {
		logger.Printf("[LIVE] "+format, args...)
	}
}

// Motion prints a motion edge (level 2).
func Motion(edge string, pulseCount int) {
	if level >= LevelLive && logger != nil {
		logger.Printf("[LIVE] Motion %s (pulse #%d)", edge, pulseCount)
	}
}

// PulseDone prints a finished motion pulse with its duration (level 2).
func PulseDone(pulseCount int, duration time.Duration) {
	if level >= LevelLive && logger != nil {
		logger.Printf("[LIVE] Motion pulse #%d lasted %.1fs", pulseCount, duration.Seconds())
	}
}

// Servo prints a servo movement (level 2).
func Servo(axis string, angleDeg, pulseUs int) {
	if level >= LevelLive && logger != nil {
		logger.Printf("[LIVE] Servo %s: %d° (pulse %dµs)", axis, angleDeg, pulseUs)
	}
}

// Shot prints a patrol capture position (level 2).
func Shot(col, row int) {
	if level >= LevelLive && logger != nil {
		logger.Printf("[LIVE] Photo taken at position (col=%d, row=%d)", col, row)
	}
}

// Column prints the start of a patrol column (level 2).
func Column(col, totalCols int, direction string) {
	if level >= LevelLive && logger != nil {
		logger.Printf("[LIVE] Starting column %d/%d (direction: %s)", col, totalCols, direction)
	}
}

// --- Level 3 functions (Verbose): everything ---

// Verbose prints a level 3 message (verbose).
func Verbose(format string, args ...interface{}) {
	if level >= LevelVerbose && logger != nil {
		logger.Printf("[VERBOSE] "+format, args...)
	}
}

// Print prints a level 3 message (alias for Verbose).
func Print(format string, args ...interface{}) {
	Verbose(format, args...)
}

// Printf is an alias for Print for compatibility.
func Printf(format string, args ...interface{}) {
	Verbose(format, args...)
}

// Attempt prints a transfer attempt (level 3).
func Attempt(operation string, attempt, maxAttempts int, err error) {
	if level >= LevelVerbose && logger != nil {
		if err != nil {
			logger.Printf("[VERBOSE] Transfer %s: attempt %d/%d failed: %v", operation, attempt, maxAttempts, err)
		} else {
			logger.Printf("[VERBOSE] Transfer %s: attempt %d/%d succeeded", operation, attempt, maxAttempts)
		}
	}
}

// PrintStruct prints a struct in formatted form (level 3).
func PrintStruct(name string, v interface{}) {
	if level >= LevelVerbose && logger != nil {
		logger.Printf("[VERBOSE] %s: %+v", name, v)
	}
}

// Section prints a section separator (level 3).
func Section(name string) {
	if level >= LevelVerbose && logger != nil {
		logger.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		logger.Printf("  %s", name)
		logger.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	}
}

// Step prints a numbered step (level 3).
func Step(num int, description string) {
	if level >= LevelVerbose && logger != nil {
		logger.Printf("[VERBOSE] Step %d: %s", num, description)
	}
}

// Value prints a named value in formatted form (level 1).
func Value(name string, value interface{}) {
	if level >= LevelInfo && logger != nil {
		logger.Printf("[INFO]   %s = %v", name, value)
	}
}

// --- Level 4 functions (Trace): very low level ---

// Trace prints a level 4 message (trace, GPIO/PWM).
func Trace(format string, args ...interface{}) {
	if level >= LevelTrace && logger != nil {
		logger.Printf("[TRACE] "+format, args...)
	}
}

// GPIO prints a GPIO operation (level 4).
func GPIO(operation string, pin int, value interface{}) {
	if level >= LevelTrace && logger != nil {
		logger.Printf("[GPIO] %s pin=%d value=%v", operation, pin, value)
	}
}

// PWM prints a PWM operation (level 4).
func PWM(operation string, channel int, value interface{}) {
	if level >= LevelTrace && logger != nil {
		logger.Printf("[PWM] %s channel=%d value=%v", operation, channel, value)
	}
}

// --- General functions ---

// Error prints a debug error (level 1+).
func Error(err error) {
	if level >= LevelInfo && logger != nil {
		logger.Printf("[ERROR] %v", err)
	}
}

// Fmt is a helper function that returns a formatted string
// only if debug is enabled (to avoid unnecessary allocations).
func Fmt(format string, args ...interface{}) string {
	if level > 0 {
		return fmt.Sprintf(format, args...)
	}
	return ""
}
