package resolver

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/tidwall/gjson"

	"github.com/oshokin/server-keeper/internal/domain/artifact"
	"github.com/oshokin/server-keeper/internal/logger"
	"github.com/oshokin/server-keeper/internal/service/vendorapi"
)

// Fabric resolves Fabric server launchers (channel B).
// The meta API publishes no digest, so its artifacts are never verified.
type Fabric struct {
	// client performs the metadata requests.
	client *vendorapi.Client
	// baseURL is the meta endpoint, e.g. https://meta.fabricmc.net/v2.
	baseURL string
	// workDir is where the launcher jar is stored.
	workDir string
}

// NewFabric creates the channel B resolver.
func NewFabric(client *vendorapi.Client, baseURL, workDir string) *Fabric {
	return &Fabric{
		client:  client,
		baseURL: baseURL,
		workDir: workDir,
	}
}

// Channel implements Resolver.
func (f *Fabric) Channel() artifact.Channel {
	return artifact.ChannelFabric
}

// Resolve picks the loader listed first for the game version and the stable
// installer and returns the server launcher built from both.
func (f *Fabric) Resolve(ctx context.Context, version string) (*artifact.Descriptor, error) {
	loader, err := f.loader(ctx, version)
	if err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Fabric loader found", "version", version, "loader", loader)

	installer, err := f.stableInstaller(ctx)
	if err != nil {
		return nil, err
	}

	downloadURL, err := vendorapi.JoinURL(
		f.baseURL, "versions", "loader", version, loader, installer, "server", "jar",
	)
	if err != nil {
		return nil, err
	}

	fileName := fmt.Sprintf("fabric-server-mc.%s-loader.%s-launcher.%s.jar", version, loader, installer)

	logger.InfoKV(ctx, "Fabric artifact resolved", "file", fileName)

	return &artifact.Descriptor{
		Channel:         artifact.ChannelFabric,
		FileName:        fileName,
		DownloadURL:     downloadURL,
		DestinationPath: filepath.Join(f.workDir, filepath.Base(fileName)),
	}, nil
}

// loader returns the version of the first loader listed for the game version.
// The endpoint only lists loaders usable with that version.
func (f *Fabric) loader(ctx context.Context, version string) (string, error) {
	loaderURL, err := vendorapi.JoinURL(f.baseURL, "versions", "loader", version)
	if err != nil {
		return "", err
	}

	body, err := f.client.GetBytes(ctx, loaderURL)
	if err != nil {
		return "", fmt.Errorf("fetch loaders of %s: %w", version, err)
	}

	if !gjson.ValidBytes(body) || !gjson.ParseBytes(body).IsArray() {
		return "", fmt.Errorf("loaders of %s: %w", version, artifact.ErrMalformedMetadata)
	}

	loader := gjson.ParseBytes(body).Get("0.loader.version").String()
	if loader == "" {
		return "", fmt.Errorf("version %s: %w", version, artifact.ErrNoStableLoader)
	}

	return loader, nil
}

// stableInstaller returns the version of the first stable installer.
func (f *Fabric) stableInstaller(ctx context.Context) (string, error) {
	installerURL, err := vendorapi.JoinURL(f.baseURL, "versions", "installer")
	if err != nil {
		return "", err
	}

	body, err := f.client.GetBytes(ctx, installerURL)
	if err != nil {
		return "", fmt.Errorf("fetch installers: %w", err)
	}

	if !gjson.ValidBytes(body) || !gjson.ParseBytes(body).IsArray() {
		return "", fmt.Errorf("installers: %w", artifact.ErrMalformedMetadata)
	}

	installer := firstStable(gjson.ParseBytes(body), "stable", "version")
	if installer == "" {
		return "", fmt.Errorf("no stable installer: %w", artifact.ErrMalformedMetadata)
	}

	return installer, nil
}

// firstStable returns the versionPath value of the first array entry whose
// stablePath is true, or an empty string.
func firstStable(entries gjson.Result, stablePath, versionPath string) string {
	var found string

	entries.ForEach(func(_, entry gjson.Result) bool {
		if !entry.Get(stablePath).Bool() {
			return true
		}

		found = entry.Get(versionPath).String()

		return found == ""
	})

	return found
}
