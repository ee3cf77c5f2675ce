package digest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/oshokin/server-keeper/internal/domain/artifact"
	"github.com/oshokin/server-keeper/internal/logger"
	"github.com/oshokin/server-keeper/internal/metrics"
)

// chunkSize is the read buffer used while hashing.
const chunkSize = 32 * 1024

// Digest check results used as metric labels.
const (
	resultMatch    = "match"
	resultMismatch = "mismatch"
)

// Compute returns the lowercase hex SHA-256 of the file at path.
func Compute(path string) (string, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}

	defer func() {
		_ = file.Close()
	}()

	return ComputeReader(file)
}

// ComputeReader returns the lowercase hex SHA-256 of everything read from r.
func ComputeReader(r io.Reader) (string, error) {
	hasher := sha256.New()
	buffer := make([]byte, chunkSize)

	if _, err := io.CopyBuffer(hasher, r, buffer); err != nil {
		return "", fmt.Errorf("hash contents: %w", err)
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// Verify compares the digest of the file at path with expectedHex.
// The comparison ignores case and surrounding whitespace of expectedHex.
// A difference is reported as *artifact.DigestMismatchError.
func Verify(ctx context.Context, path, expectedHex string) error {
	logger.InfoKV(ctx, "Verifying artifact integrity", "path", path)

	actual, err := Compute(path)
	if err != nil {
		return err
	}

	expected := strings.ToLower(strings.TrimSpace(expectedHex))
	if actual != expected {
		metrics.DigestChecksTotal.WithLabelValues(resultMismatch).Inc()
		logger.ErrorKV(ctx, "Artifact digest mismatch", "expected", expected, "actual", actual)

		return &artifact.DigestMismatchError{
			Expected: expected,
			Actual:   actual,
		}
	}

	metrics.DigestChecksTotal.WithLabelValues(resultMatch).Inc()
	logger.InfoKV(ctx, "Artifact digest verified", "sha256", actual)

	return nil
}
