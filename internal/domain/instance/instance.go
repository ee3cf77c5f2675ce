package instance

import "time"

// Status is the externally visible state of the process slot.
type Status string

const (
	// StatusRunning means a managed process is believed to be alive.
	StatusRunning Status = "running"
	// StatusStopped means the slot is empty.
	StatusStopped Status = "stopped"
)

// StatusOf maps the running flag to a Status.
func StatusOf(running bool) Status {
	if running {
		return StatusRunning
	}

	return StatusStopped
}

// String implements fmt.Stringer.
func (s Status) String() string {
	return string(s)
}

// Exit records how a managed process ended.
type Exit struct {
	// At is when the supervisor observed the exit.
	At time.Time
	// Err is the wait error text, empty on a clean exit.
	Err string
	// Code is the exit code, -1 when the process was killed by a signal.
	Code int
}

// Clone returns a deep copy of the exit record.
func (e *Exit) Clone() *Exit {
	if e == nil {
		return nil
	}

	cloned := *e

	return &cloned
}

// Snapshot represents the process slot at a specific point in time.
type Snapshot struct {
	// StartedAt is when the current process was spawned, zero when stopped.
	StartedAt time.Time
	// LastExit describes the previous instance, nil if none has exited yet.
	LastExit *Exit
	// Executable is the OS-reported executable name, empty when unknown.
	Executable string
	// PID is the OS process identifier, zero when stopped.
	PID int
	// Generation increments on every successful start.
	Generation uint64
	// Running indicates whether the slot holds a live process.
	Running bool
}

// Status returns the externally visible state.
func (s *Snapshot) Status() Status {
	return StatusOf(s.Running)
}

// Uptime returns how long the current process has been running at now.
func (s *Snapshot) Uptime(now time.Time) time.Duration {
	if !s.Running || s.StartedAt.IsZero() {
		return 0
	}

	return now.Sub(s.StartedAt)
}

// Clone returns a copy of the snapshot to avoid leaking internal references.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}

	cloned := *s
	cloned.LastExit = s.LastExit.Clone()

	return &cloned
}
