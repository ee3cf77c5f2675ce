package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/server-keeper/internal/service/installer"
)

// installCmd downloads and verifies one server jar without starting the API.
//
//nolint:gochecknoglobals // Cobra commands are package-level by convention.
var installCmd = &cobra.Command{
	Use:   "install <A|B|paper|fabric> <version>",
	Short: "Download a server jar into the work directory.",
	Long: `Resolves the requested game version against the vendor API and stores the server jar.

Channel A (Paper) takes the latest build and verifies its SHA-256 digest; a jar that
fails verification is deleted. Channel B (Fabric) takes the first stable loader and
installer; the vendor publishes no digest, so the jar is stored unverified.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
		defer stop()

		result, err := installer.Run(ctx, &installer.Options{
			ConfigPath: configPath,
			Channel:    args[0],
			Version:    args[1],
			WorkDir:    workDir,
		})
		if err != nil {
			return err
		}

		hash := "unverified"
		if result.Verified {
			hash = result.Digest
		}

		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "install_success_%s %s %s\n", result.Channel, result.Path, hash)

		return nil
	},
}
