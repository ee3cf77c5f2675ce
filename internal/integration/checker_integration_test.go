package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/server-keeper/internal/api/grpc/health"
	"github.com/oshokin/server-keeper/internal/service/checker"
)

// TestChecker_FollowsProcess probes the managed-process health service across start and stop.
func TestChecker_FollowsProcess(t *testing.T) {
	t.Parallel()

	inst := startServerKeeper(t)
	ctx := context.Background()

	probe := func() error {
		return checker.Run(ctx, &checker.Options{
			ConfigPath: "",
			Address:    inst.grpcAddress,
			Service:    health.ProcessServiceName,
			Timeout:    3 * time.Second,
		})
	}

	require.ErrorIs(t, probe(), checker.ErrNotServing)

	require.Equal(t, "starting", inst.get(t, "/start")["message"])
	require.NoError(t, probe())

	require.Equal(t, "stopping_gracefully", inst.get(t, "/stop")["message"])
	require.Eventually(t, func() bool { return probe() != nil }, waitTimeout, waitTick)

	require.NoError(t, checker.Run(ctx, &checker.Options{
		Address: inst.grpcAddress,
		Timeout: 3 * time.Second,
	}))
}
