package installer

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oshokin/server-keeper/internal/domain/artifact"
	"github.com/oshokin/server-keeper/internal/logger"
	"github.com/oshokin/server-keeper/internal/metrics"
	"github.com/oshokin/server-keeper/internal/service/resolver"
)

// Installer resolves and installs artifacts.
type Installer struct {
	// registry dispatches by channel.
	registry *resolver.Registry
	// pipeline downloads and verifies.
	pipeline *Pipeline
	// mu serializes installs: two downloads into the same work directory
	// would race on go-update's sibling files.
	mu sync.Mutex
}

// New creates an installer.
func New(registry *resolver.Registry, pipeline *Pipeline) *Installer {
	return &Installer{
		registry: registry,
		pipeline: pipeline,
	}
}

// Install resolves req and stores the artifact. Errors are *artifact.InstallError.
func (i *Installer) Install(ctx context.Context, req artifact.InstallRequest) (*artifact.InstallResult, error) {
	ctx = logger.WithKV(ctx,
		"install_id", uuid.NewString(),
		"channel", req.Channel.String(),
		"version", req.Version,
	)

	i.mu.Lock()
	defer i.mu.Unlock()

	start := time.Now()

	result, err := i.install(ctx, req)
	if err != nil {
		metrics.InstallsTotal.WithLabelValues(req.Channel.String(), metrics.OutcomeFailure).Inc()
		logger.ErrorKV(ctx, "Install failed", "error", err)

		return nil, artifact.NewInstallError(req.Channel, err)
	}

	metrics.InstallsTotal.WithLabelValues(req.Channel.String(), metrics.OutcomeSuccess).Inc()
	metrics.InstallDuration.WithLabelValues(req.Channel.String()).Observe(time.Since(start).Seconds())
	logger.InfoKV(ctx, "Install completed", "path", result.Path, "verified", result.Verified)

	return result, nil
}

// install runs lookup, resolution and download.
func (i *Installer) install(ctx context.Context, req artifact.InstallRequest) (*artifact.InstallResult, error) {
	r, err := i.registry.Lookup(req.Channel)
	if err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Resolving artifact", "distribution", req.Channel.Distribution())

	descriptor, err := r.Resolve(ctx, req.Version)
	if err != nil {
		return nil, err
	}

	sum, err := i.pipeline.FetchAndStore(ctx, descriptor)
	if err != nil {
		return nil, err
	}

	return &artifact.InstallResult{
		Channel:  req.Channel,
		Path:     descriptor.DestinationPath,
		Digest:   sum,
		Verified: sum != "",
	}, nil
}
