package installer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	goupdate "github.com/doitdistributed/go-update"

	"github.com/oshokin/server-keeper/internal/domain/artifact"
	"github.com/oshokin/server-keeper/internal/logger"
	"github.com/oshokin/server-keeper/internal/metrics"
	"github.com/oshokin/server-keeper/internal/service/digest"
	"github.com/oshokin/server-keeper/internal/service/vendorapi"
)

const (
	// DefaultFileMode is the mode of stored artifacts.
	DefaultFileMode os.FileMode = 0o644

	// defaultDirMode is the mode of directories created for artifacts.
	defaultDirMode os.FileMode = 0o755

	// digestSkipped labels installs that could not be verified.
	digestSkipped = "skipped"
)

// Pipeline downloads an artifact, stores it and verifies it.
type Pipeline struct {
	// client is the shared outbound client.
	client *vendorapi.Client
}

// NewPipeline creates a download pipeline on top of client.
func NewPipeline(client *vendorapi.Client) *Pipeline {
	return &Pipeline{
		client: client,
	}
}

// FetchAndStore downloads the artifact to its destination, replacing prior content.
// It returns the verified digest, or an empty string when the descriptor has none.
func (p *Pipeline) FetchAndStore(ctx context.Context, descriptor *artifact.Descriptor) (string, error) {
	destination := filepath.Clean(descriptor.DestinationPath)

	if err := os.MkdirAll(filepath.Dir(destination), defaultDirMode); err != nil {
		return "", fmt.Errorf("create artifact directory: %w", err)
	}

	logger.InfoKV(ctx, "Downloading artifact", "url", descriptor.DownloadURL)

	written, err := p.download(ctx, descriptor.DownloadURL, destination)
	if err != nil {
		return "", err
	}

	metrics.DownloadedBytesTotal.WithLabelValues(descriptor.Channel.String()).Add(float64(written))
	logger.InfoKV(ctx, "Artifact saved", "path", destination, "bytes", written)

	if !descriptor.HasDigest() {
		metrics.DigestChecksTotal.WithLabelValues(digestSkipped).Inc()
		logger.WarnKV(ctx, "Vendor publishes no digest for this artifact, install is NOT verified",
			"path", destination, "channel", descriptor.Channel.Distribution())

		return "", nil
	}

	if err = digest.Verify(ctx, destination, descriptor.ExpectedDigest); err != nil {
		if removeErr := os.Remove(destination); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
			logger.ErrorKV(ctx, "Unable to remove rejected artifact", "path", destination, "error", removeErr)

			return "", errors.Join(err, fmt.Errorf("remove rejected artifact: %w", removeErr))
		}

		logger.WarnKV(ctx, "Rejected artifact removed", "path", destination)

		return "", err
	}

	return descriptor.ExpectedDigest, nil
}

// download streams url into destination through go-update, which writes a
// sibling file and renames it over the target.
func (p *Pipeline) download(ctx context.Context, url, destination string) (int64, error) {
	response, err := p.client.Get(ctx, url)
	if err != nil {
		return 0, fmt.Errorf("download artifact: %w", err)
	}

	defer func() {
		_ = response.Body.Close()
	}()

	// go-update moves the current target aside before the swap, so one must exist.
	placeholder := false

	if _, err = os.Stat(destination); errors.Is(err, os.ErrNotExist) {
		var file *os.File

		file, err = os.OpenFile(destination, os.O_CREATE|os.O_EXCL|os.O_WRONLY, DefaultFileMode)
		if err != nil {
			return 0, fmt.Errorf("create artifact placeholder: %w", err)
		}

		_ = file.Close()
		placeholder = true
	} else if err != nil {
		return 0, fmt.Errorf("stat artifact: %w", err)
	}

	body := &countingReader{reader: response.Body}

	options := goupdate.Options{
		TargetPath: destination,
		TargetMode: DefaultFileMode,
	}

	if err = goupdate.Apply(body, options); err != nil {
		if placeholder {
			_ = os.Remove(destination)
		}

		return 0, fmt.Errorf("store artifact: %w", err)
	}

	return body.count, nil
}

// countingReader counts the bytes read through it.
type countingReader struct {
	// reader is the wrapped source.
	reader io.Reader
	// count is the number of bytes read so far.
	count int64
}

// Read implements io.Reader.
func (r *countingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.count += int64(n)

	return n, err
}
