package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/oshokin/server-keeper/internal/api/grpc/health"
	"github.com/oshokin/server-keeper/internal/service/checker"
)

//nolint:gochecknoglobals // Cobra flags and commands are package-level by convention.
var (
	// checkService is the health service to query.
	checkService string
	// checkWatch keeps polling instead of checking once.
	checkWatch bool
	// checkTimeout bounds each health call.
	checkTimeout time.Duration

	// checkCmd probes the gRPC health endpoint of a running controller.
	checkCmd = &cobra.Command{
		Use:   "check [grpc-address]",
		Short: "Query the gRPC health endpoint of a running controller.",
		Long: `Checks grpc.health.v1 on the configured gRPC listen address.

Service "` + health.ServiceName + `" reports the controller, "` + health.ProcessServiceName + `"
reports the managed server and is SERVING only while it runs. Exits non-zero when
the service is not serving. With --watch it polls every 5 seconds and logs changes.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			var address string
			if len(args) > 0 {
				address = args[0]
			}

			return checker.Run(ctx, &checker.Options{
				ConfigPath: configPath,
				Address:    address,
				Service:    checkService,
				Timeout:    checkTimeout,
				Watch:      checkWatch,
			})
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	checkCmd.Flags().StringVarP(&checkService, "service", "s", health.ServiceName, "health service name")
	checkCmd.Flags().BoolVar(&checkWatch, "watch", false, "keep polling and log status changes")
	checkCmd.Flags().DurationVarP(&checkTimeout, "timeout", "t", health.DefaultCallTimeout, "per-call timeout")
}
