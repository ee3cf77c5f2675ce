package health

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/oshokin/server-keeper/internal/domain/instance"
)

// startBufServer serves s over an in-memory listener and returns a connected client.
func startBufServer(t *testing.T, s *Server) *Client {
	t.Helper()

	listener := bufconn.Listen(1 << 20)
	grpcServer := grpc.NewServer()
	s.Register(grpcServer)

	go func() {
		_ = grpcServer.Serve(listener)
	}()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	client := newClient(conn, WithCallTimeout(3*time.Second))

	t.Cleanup(func() {
		_ = client.Close()

		grpcServer.Stop()
	})

	return client
}

// TestServer_ProcessChanged follows the process slot.
func TestServer_ProcessChanged(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewServer()
	client := startBufServer(t, s)

	got, err := client.Check(ctx, ServiceName)
	require.NoError(t, err)
	require.Equal(t, healthpb.HealthCheckResponse_SERVING, got)

	got, err = client.Check(ctx, ProcessServiceName)
	require.NoError(t, err)
	require.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, got)

	s.ProcessChanged(ctx, &instance.Snapshot{Running: true, PID: 42})

	got, err = client.Check(ctx, ProcessServiceName)
	require.NoError(t, err)
	require.Equal(t, healthpb.HealthCheckResponse_SERVING, got)

	s.ProcessChanged(ctx, &instance.Snapshot{})

	got, err = client.Check(ctx, ProcessServiceName)
	require.NoError(t, err)
	require.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, got)
}

// TestServer_UnknownService returns NotFound.
func TestServer_UnknownService(t *testing.T) {
	t.Parallel()

	client := startBufServer(t, NewServer())

	_, err := client.Check(context.Background(), "bogus")
	require.Equal(t, codes.NotFound, status.Code(err))
}

// TestServer_Shutdown reports NOT_SERVING for everything.
func TestServer_Shutdown(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewServer()
	client := startBufServer(t, s)

	s.Shutdown()
	s.ProcessChanged(ctx, &instance.Snapshot{Running: true})

	for _, service := range []string{ServiceName, ProcessServiceName} {
		got, err := client.Check(ctx, service)
		require.NoError(t, err)
		require.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, got, service)
	}
}
