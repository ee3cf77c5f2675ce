package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/server-keeper/internal/config"
	"github.com/oshokin/server-keeper/internal/logger"
	"github.com/oshokin/server-keeper/internal/service/server"
	"github.com/oshokin/server-keeper/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// grpcListenAddress overrides the gRPC health listen address.
	grpcListenAddress string
	// workDir overrides the directory of the managed server.
	workDir string

	// rootCmd represents the base command for running the controller.
	rootCmd = &cobra.Command{
		Use:   "server-keeper [listen-address]",
		Short: "Run the game server controller and its HTTP API.",
		Long: `Starts the HTTP control API that installs, starts, stops and reports on one game server process.

The server jar is downloaded from the vendor API into the work directory; Paper builds are
verified against the published SHA-256 digest, Fabric launchers are stored unverified.
Listen address can be provided as argument to override config (e.g., 127.0.0.1:8000).
Settings are read from ` + config.DefaultConfigFilename + ` unless --config is given;
when that file is absent the defaults are used. On SIGINT or SIGTERM the managed server
receives its stop command before the controller exits.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			defer logger.Sync()

			// Use listen address argument if provided, otherwise rely on config.
			var listenAddress string
			if len(args) > 0 {
				listenAddress = args[0]
			}

			options := &server.Options{
				ConfigPath:        configPath,
				ListenAddress:     listenAddress,
				GRPCListenAddress: grpcListenAddress,
				WorkDir:           workDir,
			}

			return server.Run(ctx, options)
		},
	}
)

// Execute runs the server-keeper CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", "", "path to configuration file (default "+config.DefaultConfigFilename+")")
	rootCmd.PersistentFlags().
		StringVarP(&workDir, "work-dir", "w", "", "directory of the managed server, overrides config")
	rootCmd.Flags().
		StringVarP(&grpcListenAddress, "grpc-listen", "g", "", "gRPC health listen address, overrides config")

	rootCmd.AddCommand(installCmd, checkCmd)
}
