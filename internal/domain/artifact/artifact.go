package artifact

import (
	"errors"
	"fmt"
	"strings"
)

// Channel identifies a supported distribution of the server software.
type Channel string

const (
	// ChannelPaper is PaperMC; its builds publish a SHA-256 digest.
	ChannelPaper Channel = "A"
	// ChannelFabric is the Fabric server launcher; it publishes no digest.
	ChannelFabric Channel = "B"
)

// channelAliases maps accepted spellings to the canonical channel tag.
//
//nolint:gochecknoglobals // Read-only lookup table.
var channelAliases = map[string]Channel{
	"a":      ChannelPaper,
	"paper":  ChannelPaper,
	"b":      ChannelFabric,
	"fabric": ChannelFabric,
}

// Channels returns every supported channel in a stable order.
func Channels() []Channel {
	return []Channel{ChannelPaper, ChannelFabric}
}

// ParseChannel converts user input to a Channel.
func ParseChannel(s string) (Channel, error) {
	channel, ok := channelAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("%q: %w", s, ErrUnknownChannel)
	}

	return channel, nil
}

// String returns the canonical tag.
func (c Channel) String() string {
	return string(c)
}

// Distribution returns a human-readable name of the channel.
func (c Channel) Distribution() string {
	switch c {
	case ChannelPaper:
		return "paper"
	case ChannelFabric:
		return "fabric"
	default:
		return "unknown"
	}
}

// Descriptor is a resolved, installable artifact.
// It lives only between resolution and download and is never persisted.
type Descriptor struct {
	// Channel is the distribution the artifact was resolved from.
	Channel Channel
	// FileName is the vendor file name, used for logging.
	FileName string
	// DownloadURL is the concrete URL of the artifact.
	DownloadURL string
	// ExpectedDigest is the lowercase hex SHA-256 published by the vendor.
	// Empty when the vendor does not publish one.
	ExpectedDigest string
	// DestinationPath is where the artifact is stored.
	DestinationPath string
}

// HasDigest reports whether the artifact can be verified after download.
func (d *Descriptor) HasDigest() bool {
	return d != nil && d.ExpectedDigest != ""
}

// InstallRequest is the caller input of an install.
type InstallRequest struct {
	// Channel selects the resolver.
	Channel Channel
	// Version is forwarded to the vendor API without local validation.
	Version string
}

// InstallResult describes a finished install.
type InstallResult struct {
	// Channel the artifact came from.
	Channel Channel
	// Path of the stored artifact.
	Path string
	// Digest is the verified SHA-256, empty for unverified installs.
	Digest string
	// Verified reports whether the digest was checked.
	Verified bool
}

var (
	// ErrUnknownChannel is returned for channels outside the supported set.
	ErrUnknownChannel = errors.New("unknown distribution channel")
	// ErrNetwork covers transport failures and non-success HTTP statuses.
	ErrNetwork = errors.New("network error")
	// ErrMalformedMetadata is returned when a vendor response does not match the expected shape.
	ErrMalformedMetadata = errors.New("malformed vendor metadata")
	// ErrNoBuildsFound is returned when a version has no published builds.
	ErrNoBuildsFound = errors.New("no builds found for this version")
	// ErrNoStableLoader is returned when no stable loader exists for a game version.
	ErrNoStableLoader = errors.New("no stable loader found for this version")
	// ErrDigestMismatch is returned when a downloaded artifact fails verification.
	ErrDigestMismatch = errors.New("digest mismatch")
)

// DigestMismatchError carries both digests of a failed verification.
type DigestMismatchError struct {
	// Expected is the digest published by the vendor.
	Expected string
	// Actual is the digest of the bytes on disk.
	Actual string
}

// Error implements error.
func (e *DigestMismatchError) Error() string {
	return fmt.Sprintf("%s: expected %s, got %s", ErrDigestMismatch, e.Expected, e.Actual)
}

// Is makes errors.Is(err, ErrDigestMismatch) succeed.
func (e *DigestMismatchError) Is(target error) bool {
	return target == ErrDigestMismatch
}

// InstallError is the single failure type surfaced by an install.
type InstallError struct {
	// Channel of the failed install.
	Channel Channel
	// Cause is the underlying failure.
	Cause error
}

// Error implements error.
func (e *InstallError) Error() string {
	return e.Cause.Error()
}

// Unwrap exposes the cause to errors.Is and errors.As.
func (e *InstallError) Unwrap() error {
	return e.Cause
}

// NewInstallError wraps cause unless it already is an InstallError.
func NewInstallError(channel Channel, cause error) error {
	if cause == nil {
		return nil
	}

	var installErr *InstallError
	if errors.As(cause, &installErr) {
		return cause
	}

	return &InstallError{
		Channel: channel,
		Cause:   cause,
	}
}
