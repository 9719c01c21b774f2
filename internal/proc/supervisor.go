package proc

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/mbarrette/sentrypi/internal/debug"
	"github.com/shirou/gopsutil/v4/process"
)

// ProcState is the last state the supervisor observed for a process.
type ProcState string

const (
	StateRunning ProcState = "RUNNING"
	StateStopped ProcState = "STOPPED"
	StateUnknown ProcState = "UNKNOWN"
)

// ManagedProcess is the supervisor's record of one spawned worker.
// It is created on spawn and dropped once the process is confirmed
// stopped.
type ManagedProcess struct {
	PID            int
	Command        string
	StartedAt      time.Time
	LastKnownState ProcState
}

// Supervisor spawns, probes and terminates child worker processes.
// None of its operations propagate a fault to the caller: spawn
// failures come back as a missing pid, everything else as a boolean
// the caller must branch on.
type Supervisor struct {
	mu    sync.Mutex
	procs map[int]*ManagedProcess

	grace  time.Duration
	logDir string

	// sleep is injectable so tests do not pay the full grace period.
	sleep func(time.Duration)
}

// NewSupervisor creates a supervisor with the given kill grace period.
// Merged stdout/stderr of spawned workers land in logDir.
func NewSupervisor(grace time.Duration, logDir string) *Supervisor {
	if grace <= 0 {
		grace = 2 * time.Second
	}
	return &Supervisor{
		procs:  make(map[int]*ManagedProcess),
		grace:  grace,
		logDir: logDir,
		sleep:  time.Sleep,
	}
}

// Spawn launches a child process with stdout and stderr merged into a
// log file. On launch failure it logs and returns (0, false); it never
// propagates the underlying error.
func (s *Supervisor) Spawn(name string, args ...string) (int, bool) {
	debug.Info("Spawning worker: %s %v", name, args)

	if err := os.MkdirAll(s.logDir, 0o755); err != nil {
		debug.Error(fmt.Errorf("create worker log dir: %w", err))
		return 0, false
	}

	logPath := filepath.Join(s.logDir, fmt.Sprintf("%s-%d.log", filepath.Base(name), time.Now().UnixNano()))
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		debug.Error(fmt.Errorf("open worker log %s: %w", logPath, err))
		return 0, false
	}

	cmd := exec.Command(name, args...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile // merged, like 2>&1
	cmd.Stdin = nil

	if err := cmd.Start(); err != nil {
		_ = logFile.Close()
		debug.Error(fmt.Errorf("unable to spawn process: %w", err))
		return 0, false
	}
	// The child inherited the fd; the parent's copy can go.
	_ = logFile.Close()

	pid := cmd.Process.Pid
	debug.Proc("spawned", pid)

	rec := &ManagedProcess{
		PID:            pid,
		Command:        name,
		StartedAt:      time.Now(),
		LastKnownState: StateRunning,
	}
	s.mu.Lock()
	s.procs[pid] = rec
	s.mu.Unlock()

	// Reap in the background so the child does not linger as a zombie
	// under this parent. The record is dropped once the exit is seen.
	go func() {
		_ = cmd.Wait()
		debug.Proc("exited", pid)
		s.drop(pid)
	}()

	return pid, true
}

// CheckLiveness reports whether pid refers to a running process.
// A signal-delivery error means "not running". A process sitting in a
// terminated-but-unreaped (zombie) state also counts as not running:
// it will never do work again, so for scheduling purposes it is dead.
func (s *Supervisor) CheckLiveness(pid int) bool {
	debug.Verbose("Checking liveness of pid %d", pid)

	if err := syscall.Kill(pid, 0); err != nil {
		return false
	}

	p, err := process.NewProcess(int32(pid))
	if err != nil {
		// Raced away between the probe and the lookup.
		return false
	}
	statuses, err := p.Status()
	if err != nil {
		// The null signal landed, so the process exists; the status
		// refinement is best-effort only.
		return true
	}
	for _, st := range statuses {
		if st == process.Zombie {
			debug.Verbose("pid %d is a zombie, reporting not running", pid)
			return false
		}
	}

	return true
}

// Kill terminates pid with a single hard signal. If the process is
// already down it returns true immediately, with no grace-period delay.
// Otherwise it sends SIGKILL, waits the fixed grace period, re-checks
// liveness and returns true only if the process is confirmed stopped.
func (s *Supervisor) Kill(pid int) bool {
	debug.Proc("kill requested", pid)

	if !s.CheckLiveness(pid) {
		s.drop(pid)
		return true
	}

	if err := syscall.Kill(pid, syscall.SIGKILL); err != nil {
		debug.Error(fmt.Errorf("unable to kill pid %d: %w", pid, err))
		return false
	}

	s.sleep(s.grace)

	if s.CheckLiveness(pid) {
		debug.Info("pid %d still running after grace period", pid)
		return false
	}

	debug.Proc("killed", pid)
	s.drop(pid)
	return true
}

// Processes returns a snapshot of the current records.
func (s *Supervisor) Processes() []ManagedProcess {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ManagedProcess, 0, len(s.procs))
	for _, rec := range s.procs {
		out = append(out, *rec)
	}
	return out
}

func (s *Supervisor) drop(pid int) {
	s.mu.Lock()
	delete(s.procs, pid)
	s.mu.Unlock()
}
