package health

import (
	"context"

	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/oshokin/server-keeper/internal/domain/instance"
	"github.com/oshokin/server-keeper/internal/logger"
)

const (
	// ServiceName reports the controller itself.
	ServiceName = "server-keeper"
	// ProcessServiceName reports the managed process.
	ProcessServiceName = "managed-process"
)

// Server publishes health statuses over grpc.health.v1.
type Server struct {
	// health holds per-service statuses and serves watchers.
	health *grpchealth.Server
}

// NewServer creates a health server: the controller is SERVING, the process is not.
func NewServer() *Server {
	h := grpchealth.NewServer()
	h.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	h.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	h.SetServingStatus(ProcessServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	return &Server{
		health: h,
	}
}

// Register attaches the health service to a gRPC server.
func (s *Server) Register(registrar grpc.ServiceRegistrar) {
	healthpb.RegisterHealthServer(registrar, s.health)
}

// ProcessChanged mirrors the process slot into the managed-process status.
// Its signature matches process.Notifier.
func (s *Server) ProcessChanged(ctx context.Context, snapshot *instance.Snapshot) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if snapshot.Running {
		status = healthpb.HealthCheckResponse_SERVING
	}

	logger.DebugKV(ctx, "Health status updated", "service", ProcessServiceName, "status", status.String())

	s.health.SetServingStatus(ProcessServiceName, status)
}

// Shutdown flips every service to NOT_SERVING; later updates are ignored.
func (s *Server) Shutdown() {
	s.health.Shutdown()
}
