package checker

import (
	"context"
	"errors"
	"fmt"
	"time"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/oshokin/server-keeper/internal/api/grpc/health"
	"github.com/oshokin/server-keeper/internal/config"
	"github.com/oshokin/server-keeper/internal/logger"
)

// Options controls the probe behavior and configuration.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// Address provides an optional gRPC health address override.
	Address string
	// Service is the health service to check.
	Service string
	// PollInterval defines the interval between checks in watch mode.
	PollInterval time.Duration
	// Timeout specifies the per-RPC timeout duration.
	Timeout time.Duration
	// Watch keeps polling and logs every status change until ctx is canceled.
	Watch bool
}

// DefaultPollInterval defines the polling interval in watch mode.
const DefaultPollInterval = 5 * time.Second

var (
	// ErrNoHealthAddress indicates that the gRPC health endpoint is not configured.
	ErrNoHealthAddress = errors.New("no gRPC health address configured")
	// ErrNotServing indicates that the checked service is not serving.
	ErrNotServing = errors.New("service is not serving")
)

// Run checks the health of the requested service.
// In single-shot mode it returns ErrNotServing unless the service is SERVING.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "health-checker")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	address := cfg.GRPCListenAddress
	if opts.Address != "" {
		address = opts.Address
	}

	if address == "" {
		return ErrNoHealthAddress
	}

	if opts.Service == "" {
		opts.Service = health.ServiceName
	}

	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}

	client, err := health.Dial(ctx, address, health.WithCallTimeout(opts.Timeout))
	if err != nil {
		return fmt.Errorf("dial health endpoint: %w", err)
	}

	defer func() {
		_ = client.Close()
	}()

	ctx = logger.WithKV(ctx, "address", address, "service", opts.Service)

	if !opts.Watch {
		return checkOnce(ctx, client, opts.Service)
	}

	return watch(ctx, client, opts)
}

// checkOnce performs a single check and logs the outcome.
func checkOnce(ctx context.Context, client *health.Client, service string) error {
	status, err := client.Check(ctx, service)
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Health status", "status", status.String())

	if status != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("%s is %s: %w", service, status, ErrNotServing)
	}

	return nil
}

// watch polls the service until ctx is canceled, logging transitions only.
func watch(ctx context.Context, client *health.Client, opts *Options) error {
	logger.InfoKV(ctx, "Watching health status", "interval", opts.PollInterval.String())

	ticker := time.NewTicker(opts.PollInterval)
	defer ticker.Stop()

	last := healthpb.HealthCheckResponse_UNKNOWN

	for {
		status, err := client.Check(ctx, opts.Service)

		switch {
		case err != nil:
			logger.ErrorKV(ctx, "Health check failed", "error", err)
		case status != last:
			logger.InfoKV(ctx, "Health status changed", "from", last.String(), "to", status.String())

			last = status
		}

		select {
		case <-ctx.Done():
			logger.Info(ctx, "Context canceled, exiting")

			return nil
		case <-ticker.C:
		}
	}
}
