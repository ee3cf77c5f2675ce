package installer

import (
	"context"
	"fmt"

	"github.com/oshokin/server-keeper/internal/config"
	"github.com/oshokin/server-keeper/internal/domain/artifact"
	"github.com/oshokin/server-keeper/internal/logger"
	"github.com/oshokin/server-keeper/internal/service/resolver"
	"github.com/oshokin/server-keeper/internal/service/vendorapi"
)

// Options controls a one-off install from the command line.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// Channel is the distribution channel tag or alias.
	Channel string
	// Version is forwarded to the vendor API as-is.
	Version string
	// WorkDir overrides the configured work directory.
	WorkDir string
}

// NewFromConfig wires the vendor client, every channel resolver and the pipeline.
func NewFromConfig(cfg *config.Config) *Installer {
	client := vendorapi.New(
		vendorapi.WithTimeout(cfg.HTTPTimeout),
		vendorapi.WithRateLimit(cfg.VendorRateLimit),
	)

	registry := resolver.NewRegistry(
		resolver.NewPaper(client, cfg.PaperAPIURL, cfg.WorkDir),
		resolver.NewFabric(client, cfg.FabricMetaURL, cfg.WorkDir),
	)

	return New(registry, NewPipeline(client))
}

// Run installs one artifact without starting the HTTP API.
func Run(ctx context.Context, opts *Options) (*artifact.InstallResult, error) {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "installer")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	if opts.WorkDir != "" {
		cfg.WorkDir = opts.WorkDir
	}

	channel, err := artifact.ParseChannel(opts.Channel)
	if err != nil {
		return nil, err
	}

	return NewFromConfig(cfg).Install(ctx, artifact.InstallRequest{
		Channel: channel,
		Version: opts.Version,
	})
}
