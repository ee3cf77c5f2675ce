package checker

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"

	"github.com/oshokin/server-keeper/internal/api/grpc/health"
	"github.com/oshokin/server-keeper/internal/config"
	"github.com/oshokin/server-keeper/internal/domain/instance"
)

// startHealthServer serves a health server on a random local port.
func startHealthServer(t *testing.T) (*health.Server, string) {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	h := health.NewServer()
	grpcServer := grpc.NewServer()
	h.Register(grpcServer)

	go func() {
		_ = grpcServer.Serve(listener)
	}()

	t.Cleanup(grpcServer.Stop)

	return h, listener.Addr().String()
}

// writeConfig stores settings pointing at address.
func writeConfig(t *testing.T, address string) string {
	t.Helper()

	cfg := config.Default()
	cfg.GRPCListenAddress = address

	path := filepath.Join(t.TempDir(), config.DefaultConfigFilename)
	require.NoError(t, config.Save(path, cfg))

	return path
}

// TestRun_SingleShot reports serving and not serving services.
func TestRun_SingleShot(t *testing.T) {
	t.Parallel()

	h, address := startHealthServer(t)
	configPath := writeConfig(t, address)
	ctx := context.Background()

	require.NoError(t, Run(ctx, &Options{ConfigPath: configPath, Timeout: 3 * time.Second}))

	err := Run(ctx, &Options{ConfigPath: configPath, Service: health.ProcessServiceName, Timeout: 3 * time.Second})
	require.ErrorIs(t, err, ErrNotServing)

	h.ProcessChanged(ctx, &instance.Snapshot{Running: true})

	require.NoError(t, Run(ctx, &Options{ConfigPath: configPath, Service: health.ProcessServiceName}))
}

// TestRun_NoAddress fails without a configured endpoint.
func TestRun_NoAddress(t *testing.T) {
	t.Parallel()

	err := Run(context.Background(), &Options{ConfigPath: writeConfig(t, "")})
	require.ErrorIs(t, err, ErrNoHealthAddress)
}

// TestRun_Watch returns when the context is canceled.
func TestRun_Watch(t *testing.T) {
	t.Parallel()

	_, address := startHealthServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	err := Run(ctx, &Options{
		Address:      address,
		ConfigPath:   writeConfig(t, ""),
		PollInterval: 20 * time.Millisecond,
		Watch:        true,
	})
	require.NoError(t, err)
}
