package process

import (
	"context"

	"github.com/mitchellh/go-ps"

	"github.com/oshokin/server-keeper/internal/logger"
)

// executableName asks the OS for the executable behind pid.
func executableName(ctx context.Context, pid int) string {
	p, err := ps.FindProcess(pid)
	if err != nil {
		logger.DebugKV(ctx, "Unable to inspect process", "pid", pid, "error", err)

		return ""
	}

	if p == nil {
		return ""
	}

	return p.Executable()
}

// logLiveness reports whether an abandoned process is still alive.
func logLiveness(ctx context.Context, pid int) {
	p, err := ps.FindProcess(pid)

	switch {
	case err != nil:
		logger.WarnKV(ctx, "Unable to check abandoned process", "pid", pid, "error", err)
	case p == nil:
		logger.InfoKV(ctx, "Abandoned process is gone", "pid", pid)
	default:
		logger.WarnKV(ctx, "Abandoned process is still alive and no longer supervised",
			"pid", pid, "executable", p.Executable())
	}
}
