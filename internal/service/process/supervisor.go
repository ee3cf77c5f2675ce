package process

import (
	"context"
	"errors"
	"os/exec"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/oshokin/server-keeper/internal/domain/instance"
	"github.com/oshokin/server-keeper/internal/logger"
	"github.com/oshokin/server-keeper/internal/metrics"
)

// supervisor is the handle to the goroutine that waits for one child.
type supervisor struct {
	// done is closed after the child has been reaped.
	done chan struct{}
	// aborted is closed when the slot no longer belongs to this child.
	aborted chan struct{}
	// once guards aborted.
	once sync.Once
	// generation of the child this goroutine waits for.
	generation uint64
}

func newSupervisor(generation uint64) *supervisor {
	return &supervisor{
		done:       make(chan struct{}),
		aborted:    make(chan struct{}),
		generation: generation,
	}
}

// abort detaches the goroutine from the slot. The child is still reaped.
func (s *supervisor) abort() {
	s.once.Do(func() {
		close(s.aborted)
	})
}

func (s *supervisor) isAborted() bool {
	select {
	case <-s.aborted:
		return true
	default:
		return false
	}
}

// supervise waits for cmd and clears the slot if it still belongs to this child.
func (c *Controller) supervise(ctx context.Context, cmd *exec.Cmd, handle *supervisor) {
	defer close(handle.done)

	ctx = logger.WithFields(ctx, zap.Int("pid", cmd.Process.Pid), zap.Uint64("generation", handle.generation))

	waitErr := cmd.Wait()

	exit := &instance.Exit{
		At:   time.Now(),
		Code: cmd.ProcessState.ExitCode(),
	}

	var exitErr *exec.ExitError
	if waitErr != nil {
		exit.Err = waitErr.Error()
	}

	metrics.ProcessExitsTotal.Inc()

	switch {
	case waitErr == nil:
		logger.Info(ctx, "Server exited")
	case errors.As(waitErr, &exitErr):
		logger.WarnKV(ctx, "Server exited with error", "exit_code", exit.Code, "error", waitErr)
	default:
		logger.ErrorKV(ctx, "Unable to wait for server", "error", waitErr)
	}

	c.mu.Lock()

	if handle.isAborted() || c.generation != handle.generation || !c.running {
		c.lastExit = exit
		c.mu.Unlock()
		logger.Debug(ctx, "Slot was already released, nothing to reset")

		return
	}

	stdin := c.stdin
	c.resetLocked()
	c.lastExit = exit
	changed := c.changeLocked()

	c.mu.Unlock()

	if stdin != nil {
		_ = stdin.Close()
	}

	c.notify(ctx, changed)
}
