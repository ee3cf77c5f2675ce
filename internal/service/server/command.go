package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/oshokin/server-keeper/internal/config"
	"github.com/oshokin/server-keeper/internal/logger"
)

// Options controls the server-keeper process and configuration.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// ListenAddress provides an optional listen address override for the HTTP API.
	ListenAddress string
	// GRPCListenAddress provides an optional listen address override for gRPC health.
	GRPCListenAddress string
	// WorkDir overrides the configured work directory.
	WorkDir string
}

const (
	// readHeaderTimeout bounds slow clients on the HTTP API.
	readHeaderTimeout = 10 * time.Second

	// workDirMode is the mode of a freshly created work directory.
	workDirMode os.FileMode = 0o755
)

// Run serves the HTTP API and, when configured, gRPC health until ctx is canceled.
// On the way out it stops the managed process, waiting up to the shutdown timeout.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "server-keeper")

	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if opts.ListenAddress != "" {
		settings.ListenAddress = opts.ListenAddress
	}

	if opts.GRPCListenAddress != "" {
		settings.GRPCListenAddress = opts.GRPCListenAddress
	}

	if opts.WorkDir != "" {
		settings.WorkDir = opts.WorkDir
	}

	if !logger.SetLevelFromString(settings.LogLevel) {
		logger.WarnKV(ctx, "Unknown log level, keeping the current one", "log_level", settings.LogLevel)
	}

	if err = os.MkdirAll(settings.WorkDir, workDirMode); err != nil {
		return fmt.Errorf("create work directory: %w", err)
	}

	lc := net.ListenConfig{}

	httpListener, err := lc.Listen(ctx, "tcp", settings.ListenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", settings.ListenAddress, err)
	}

	var grpcListener net.Listener

	if settings.GRPCListenAddress != "" {
		grpcListener, err = lc.Listen(ctx, "tcp", settings.GRPCListenAddress)
		if err != nil {
			_ = httpListener.Close()

			return fmt.Errorf("listen on %s: %w", settings.GRPCListenAddress, err)
		}
	}

	return newApp(settings).serve(ctx, httpListener, grpcListener)
}

// serve runs both transports on the given listeners. grpcListener may be nil.
func (a *app) serve(ctx context.Context, httpListener, grpcListener net.Listener) error {
	httpServer := &http.Server{
		Handler:           a.api.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	var grpcServer *grpc.Server

	group, groupCtx := errgroup.WithContext(ctx)

	logger.InfoKV(ctx, "HTTP API listening",
		"listen_address", httpListener.Addr().String(),
		"work_dir", a.settings.WorkDir)

	group.Go(func() error {
		if err := httpServer.Serve(httpListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve HTTP: %w", err)
		}

		return nil
	})

	if grpcListener != nil {
		grpcServer = grpc.NewServer()
		a.health.Register(grpcServer)

		logger.InfoKV(ctx, "gRPC health listening", "listen_address", grpcListener.Addr().String())

		group.Go(func() error {
			if err := grpcServer.Serve(grpcListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				return fmt.Errorf("serve gRPC: %w", err)
			}

			return nil
		})
	}

	group.Go(func() error {
		<-groupCtx.Done()

		return a.shutdown(context.WithoutCancel(ctx), httpServer, grpcServer)
	})

	return group.Wait()
}

// shutdown stops the managed process first, then both transports.
func (a *app) shutdown(ctx context.Context, httpServer *http.Server, grpcServer *grpc.Server) error {
	logger.Info(ctx, "Shutting down")

	a.health.Shutdown()

	processCtx, cancel := context.WithTimeout(ctx, a.settings.ShutdownTimeout)
	defer cancel()

	if err := a.controller.Shutdown(processCtx); err != nil {
		logger.ErrorKV(ctx, "Managed server did not stop cleanly", "error", err)
	}

	if grpcServer != nil {
		grpcServer.GracefulStop()
	}

	drainCtx, cancelDrain := context.WithTimeout(ctx, a.settings.ShutdownTimeout)
	defer cancelDrain()

	if err := httpServer.Shutdown(drainCtx); err != nil {
		return fmt.Errorf("shutdown HTTP: %w", err)
	}

	logger.Info(ctx, "Server stopped")

	return nil
}
