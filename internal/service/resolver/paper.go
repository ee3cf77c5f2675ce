package resolver

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/oshokin/server-keeper/internal/domain/artifact"
	"github.com/oshokin/server-keeper/internal/logger"
	"github.com/oshokin/server-keeper/internal/service/vendorapi"
)

// PaperServerJar is the file name a Paper install is stored under.
const PaperServerJar = "server.jar"

// paperVersionResponse is the body of GET /versions/{version}.
type paperVersionResponse struct {
	Builds []int `json:"builds"`
}

// paperBuildResponse is the body of GET /versions/{version}/builds/{build}.
type paperBuildResponse struct {
	Downloads struct {
		Application struct {
			Name   string `json:"name"`
			SHA256 string `json:"sha256"`
		} `json:"application"`
	} `json:"downloads"`
}

// Paper resolves PaperMC builds (channel A).
type Paper struct {
	// client performs the metadata requests.
	client *vendorapi.Client
	// baseURL is the project endpoint, e.g. https://api.papermc.io/v2/projects/paper.
	baseURL string
	// workDir is where server.jar is stored.
	workDir string
}

// NewPaper creates the channel A resolver.
func NewPaper(client *vendorapi.Client, baseURL, workDir string) *Paper {
	return &Paper{
		client:  client,
		baseURL: baseURL,
		workDir: workDir,
	}
}

// Channel implements Resolver.
func (p *Paper) Channel() artifact.Channel {
	return artifact.ChannelPaper
}

// Resolve selects the most recent build of version and returns its artifact.
func (p *Paper) Resolve(ctx context.Context, version string) (*artifact.Descriptor, error) {
	build, err := p.latestBuild(ctx, version)
	if err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Latest Paper build found", "version", version, "build", build)

	buildNumber := strconv.Itoa(build)

	detailsURL, err := vendorapi.JoinURL(p.baseURL, "versions", version, "builds", buildNumber)
	if err != nil {
		return nil, err
	}

	var details paperBuildResponse
	if err = p.client.GetJSON(ctx, detailsURL, &details); err != nil {
		return nil, fmt.Errorf("fetch build %d details: %w", build, err)
	}

	application := details.Downloads.Application
	if application.Name == "" || application.SHA256 == "" {
		return nil, fmt.Errorf("build %d has no application download: %w", build, artifact.ErrMalformedMetadata)
	}

	logger.InfoKV(ctx, "Paper artifact resolved", "file", application.Name)

	downloadURL, err := vendorapi.JoinURL(
		p.baseURL, "versions", version, "builds", buildNumber, "downloads", application.Name,
	)
	if err != nil {
		return nil, err
	}

	return &artifact.Descriptor{
		Channel:         artifact.ChannelPaper,
		FileName:        application.Name,
		DownloadURL:     downloadURL,
		ExpectedDigest:  application.SHA256,
		DestinationPath: filepath.Join(p.workDir, PaperServerJar),
	}, nil
}

// latestBuild returns the last entry of the build list of version.
func (p *Paper) latestBuild(ctx context.Context, version string) (int, error) {
	versionURL, err := vendorapi.JoinURL(p.baseURL, "versions", version)
	if err != nil {
		return 0, err
	}

	var response paperVersionResponse
	if err = p.client.GetJSON(ctx, versionURL, &response); err != nil {
		return 0, fmt.Errorf("fetch builds of %s: %w", version, err)
	}

	if len(response.Builds) == 0 {
		return 0, fmt.Errorf("version %s: %w", version, artifact.ErrNoBuildsFound)
	}

	return response.Builds[len(response.Builds)-1], nil
}
