package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/oshokin/server-keeper/internal/domain/instance"
	"github.com/oshokin/server-keeper/internal/logger"
	"github.com/oshokin/server-keeper/internal/metrics"
)

// StartResult is the outcome of a start request.
type StartResult string

// Start outcomes.
const (
	StartAlreadyRunning StartResult = "already_running"
	StartStarting       StartResult = "starting"
	StartErrorSpawning  StartResult = "error_spawning"
)

// StopResult is the outcome of a stop request.
type StopResult string

// Stop outcomes.
const (
	StopAlreadyStopped     StopResult = "already_stopped"
	StopStoppingGracefully StopResult = "stopping_gracefully"
	StopErrorStopping      StopResult = "error_stopping"
	StopErrorNoStdin       StopResult = "error_no_stdin"
)

var (
	// ErrSpawn indicates the managed process could not be started.
	ErrSpawn = errors.New("unable to spawn process")
	// ErrWrite indicates the stop command could not be written to stdin.
	ErrWrite = errors.New("unable to write stop command")
	// ErrInconsistentState indicates a running slot without a stdin handle.
	ErrInconsistentState = errors.New("running process has no stdin handle")
)

// Notifier observes slot changes. It is called without the controller lock held,
// one call at a time and in the order the changes happened.
type Notifier func(ctx context.Context, snapshot *instance.Snapshot)

// change is a slot snapshot tagged with its position in the change sequence.
type change struct {
	snapshot *instance.Snapshot
	seq      uint64
}

// Options describes how to launch the managed process.
type Options struct {
	// Stdout receives the child's standard output, os.Stdout when nil.
	Stdout io.Writer
	// Stderr receives the child's standard error, os.Stderr when nil.
	Stderr io.Writer
	// Command is the executable, e.g. "java".
	Command string
	// WorkDir is the child's working directory.
	WorkDir string
	// StopCommand is written to stdin, followed by a newline, to request shutdown.
	StopCommand string
	// Args are passed to Command.
	Args []string
	// Env is appended to the controller's environment.
	Env []string
}

// Controller manages at most one child process.
type Controller struct {
	// notifiers are called after every slot change.
	notifiers []Notifier
	// options are fixed at construction.
	options Options

	// notifyMu serializes notifier calls.
	notifyMu sync.Mutex
	// delivered is the sequence number of the last change passed to notifiers.
	delivered uint64

	// mu guards every field below.
	mu sync.Mutex
	// stdin is the write end of the child's stdin, nil once taken by Stop.
	stdin io.WriteCloser
	// supervisor is the handle to the goroutine waiting for the child.
	// Stop releases it after a successful write; the goroutine keeps running.
	supervisor *supervisor
	// exited is closed when the current child has been reaped.
	exited <-chan struct{}
	// kill terminates the current child.
	kill func() error
	// startedAt is when the current child was spawned.
	startedAt time.Time
	// lastExit describes the previous child.
	lastExit *instance.Exit
	// pid of the current child.
	pid int
	// stopRequested is set once the stop command has been delivered.
	stopRequested bool
	// generation increments on every successful spawn.
	generation uint64
	// seq numbers slot changes.
	seq uint64
	// running reports whether the slot is occupied.
	running bool
}

// New creates a controller with an empty slot.
func New(options Options, notifiers ...Notifier) *Controller {
	if options.Stdout == nil {
		options.Stdout = os.Stdout
	}

	if options.Stderr == nil {
		options.Stderr = os.Stderr
	}

	return &Controller{
		options:   options,
		notifiers: notifiers,
	}
}

// Status reports whether a managed process is running.
func (c *Controller) Status(_ context.Context) instance.Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	return instance.StatusOf(c.running)
}

// Snapshot returns a copy of the slot.
func (c *Controller) Snapshot(_ context.Context) *instance.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.snapshotLocked()
}

// Start spawns the managed process unless one is already running.
func (c *Controller) Start(ctx context.Context) StartResult {
	result, changed := c.start(ctx)

	metrics.ProcessStartsTotal.WithLabelValues(string(result)).Inc()

	if changed != nil {
		c.notify(ctx, changed)
	}

	return result
}

func (c *Controller) start(ctx context.Context) (StartResult, *change) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		logger.Info(ctx, "Start requested, but the server is already running")

		return StartAlreadyRunning, nil
	}

	cmd := exec.Command(c.options.Command, c.options.Args...) //nolint:gosec // Command comes from the operator's config.
	cmd.Dir = c.options.WorkDir
	cmd.Stdout = c.options.Stdout
	cmd.Stderr = c.options.Stderr

	if len(c.options.Env) > 0 {
		cmd.Env = append(os.Environ(), c.options.Env...)
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		logger.ErrorKV(ctx, "Unable to start server", "error", fmt.Errorf("%w: %w", ErrSpawn, err))

		return StartErrorSpawning, nil
	}

	if err = cmd.Start(); err != nil {
		logger.ErrorKV(ctx, "Unable to start server",
			"command", c.options.Command,
			"work_dir", c.options.WorkDir,
			"error", fmt.Errorf("%w: %w", ErrSpawn, err))

		return StartErrorSpawning, nil
	}

	c.generation++

	handle := newSupervisor(c.generation)

	c.running = true
	c.stdin = stdin
	c.supervisor = handle
	c.exited = handle.done
	c.kill = cmd.Process.Kill
	c.pid = cmd.Process.Pid
	c.startedAt = time.Now()

	logger.InfoKV(ctx, "Server started", "pid", c.pid, "generation", c.generation)

	go c.supervise(context.WithoutCancel(ctx), cmd, handle)

	return StartStarting, c.changeLocked()
}

// Stop asks the managed process to exit by writing the stop command to its stdin.
// It does not wait for the exit; Status keeps reporting running until the
// supervisor observes it.
func (c *Controller) Stop(ctx context.Context) StopResult {
	result, changed := c.stop(ctx)

	metrics.ProcessStopsTotal.WithLabelValues(string(result)).Inc()

	if changed != nil {
		c.notify(ctx, changed)
	}

	return result
}

func (c *Controller) stop(ctx context.Context) (StopResult, *change) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		logger.Info(ctx, "Stop requested, but the server is not running")

		return StopAlreadyStopped, nil
	}

	if c.stopRequested {
		logger.InfoKV(ctx, "Stop already requested, waiting for the server to exit", "pid", c.pid)

		return StopStoppingGracefully, nil
	}

	stdin := c.stdin
	c.stdin = nil

	if stdin == nil {
		logger.ErrorKV(ctx, "Unable to stop server", "pid", c.pid, "error", ErrInconsistentState)
		c.abandonLocked()

		return StopErrorNoStdin, c.changeLocked()
	}

	_, err := io.WriteString(stdin, c.options.StopCommand+"\n")

	// The child sees EOF after the stop command.
	_ = stdin.Close()

	if err != nil {
		pid := c.pid

		logger.ErrorKV(ctx, "Unable to stop server", "pid", pid, "error", fmt.Errorf("%w: %w", ErrWrite, err))
		c.abandonLocked()
		logLiveness(ctx, pid)

		return StopErrorStopping, c.changeLocked()
	}

	c.supervisor = nil
	c.stopRequested = true

	logger.InfoKV(ctx, "Stop command sent", "pid", c.pid, "command", c.options.StopCommand)

	return StopStoppingGracefully, nil
}

// Info returns the slot with OS-level details of the running process.
func (c *Controller) Info(ctx context.Context) *instance.Snapshot {
	snapshot := c.Snapshot(ctx)

	if snapshot.Running {
		snapshot.Executable = executableName(ctx, snapshot.PID)
	}

	return snapshot
}

// Shutdown stops the managed process and waits for it to exit.
// When ctx expires first the process is killed.
func (c *Controller) Shutdown(ctx context.Context) error {
	c.mu.Lock()

	if !c.running {
		c.mu.Unlock()

		return nil
	}

	exited, kill, pid := c.exited, c.kill, c.pid

	if c.stdin != nil {
		if _, err := io.WriteString(c.stdin, c.options.StopCommand+"\n"); err != nil {
			logger.WarnKV(ctx, "Unable to send stop command on shutdown", "pid", pid, "error", err)
		}

		_ = c.stdin.Close()
		c.stdin = nil
		c.supervisor = nil
		c.stopRequested = true
	}

	c.mu.Unlock()

	logger.InfoKV(ctx, "Waiting for server to exit", "pid", pid)

	select {
	case <-exited:
		return nil
	case <-ctx.Done():
	}

	logger.WarnKV(ctx, "Server did not exit in time, killing it", "pid", pid)

	if err := kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("kill process %d: %w", pid, err)
	}

	<-exited

	return fmt.Errorf("wait for process %d: %w", pid, ctx.Err())
}

// abandonLocked marks the slot stopped without touching the OS process.
func (c *Controller) abandonLocked() {
	if c.supervisor != nil {
		c.supervisor.abort()
		c.supervisor = nil
	}

	c.resetLocked()
}

// resetLocked empties the slot.
func (c *Controller) resetLocked() {
	c.running = false
	c.stdin = nil
	c.supervisor = nil
	c.exited = nil
	c.kill = nil
	c.pid = 0
	c.stopRequested = false
	c.startedAt = time.Time{}
}

func (c *Controller) snapshotLocked() *instance.Snapshot {
	return &instance.Snapshot{
		StartedAt:  c.startedAt,
		LastExit:   c.lastExit.Clone(),
		PID:        c.pid,
		Generation: c.generation,
		Running:    c.running,
	}
}

// changeLocked snapshots the slot and assigns the next sequence number.
func (c *Controller) changeLocked() *change {
	c.seq++

	return &change{
		snapshot: c.snapshotLocked(),
		seq:      c.seq,
	}
}

// notify passes a change to the notifiers unless a newer one was already delivered.
func (c *Controller) notify(ctx context.Context, changed *change) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	if changed.seq <= c.delivered {
		logger.DebugKV(ctx, "Skipping outdated slot change", "seq", changed.seq, "delivered", c.delivered)

		return
	}

	c.delivered = changed.seq

	metrics.SetProcessRunning(changed.snapshot.Running)

	for _, n := range c.notifiers {
		n(ctx, changed.snapshot.Clone())
	}
}
