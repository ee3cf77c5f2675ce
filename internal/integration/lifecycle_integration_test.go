package integration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestLifecycle_StartStop drives the managed server through the HTTP API.
func TestLifecycle_StartStop(t *testing.T) {
	t.Parallel()

	inst := startServerKeeper(t)

	require.Equal(t, "stopped", inst.status(t))
	require.Equal(t, "already_stopped", inst.get(t, "/stop")["message"])

	require.Equal(t, "starting", inst.get(t, "/start")["message"])
	require.Equal(t, "already_running", inst.get(t, "/start")["message"])
	require.Equal(t, "running", inst.status(t))

	info := inst.get(t, "/process")
	require.Equal(t, true, info["running"])
	require.Positive(t, info["pid"])

	require.Equal(t, "stopping_gracefully", inst.get(t, "/stop")["message"])
	require.Eventually(t, func() bool { return inst.status(t) == "stopped" }, waitTimeout, waitTick)

	_, err := os.Stat(filepath.Join(inst.workDir, stoppedMarker))
	require.NoError(t, err)

	require.Equal(t, "already_stopped", inst.get(t, "/stop")["message"])
	require.NoError(t, inst.stop())
}

// TestLifecycle_ShutdownStopsServer sends the stop command when the controller exits.
func TestLifecycle_ShutdownStopsServer(t *testing.T) {
	t.Parallel()

	inst := startServerKeeper(t)

	require.Equal(t, "starting", inst.get(t, "/start")["message"])
	require.Equal(t, "running", inst.status(t))

	require.NoError(t, inst.stop())

	_, err := os.Stat(filepath.Join(inst.workDir, stoppedMarker))
	require.NoError(t, err)
}
