package resolver

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/server-keeper/internal/domain/artifact"
	"github.com/oshokin/server-keeper/internal/service/vendorapi"
)

const paperDigest = "abc1230000000000000000000000000000000000000000000000000000000def"

// TestPaper_Resolve picks the last build and composes the download URL from it.
func TestPaper_Resolve(t *testing.T) {
	t.Parallel()

	stub := newVendorStub(t, map[string]string{
		"/paper/versions/1.20.1": `{"project_id":"paper","version":"1.20.1","builds":[98,99,100]}`,
		"/paper/versions/1.20.1/builds/100": `{
			"build": 100,
			"downloads": {"application": {"name": "server-100.jar", "sha256": "` + paperDigest + `"}}
		}`,
	})

	resolver := NewPaper(vendorapi.New(), stub.server.URL+"/paper", "minecraft_server")

	descriptor, err := resolver.Resolve(context.Background(), "1.20.1")
	require.NoError(t, err)

	require.Equal(t, artifact.ChannelPaper, descriptor.Channel)
	require.Equal(t, "server-100.jar", descriptor.FileName)
	require.Equal(t, stub.server.URL+"/paper/versions/1.20.1/builds/100/downloads/server-100.jar", descriptor.DownloadURL)
	require.Equal(t, paperDigest, descriptor.ExpectedDigest)
	require.Equal(t, filepath.Join("minecraft_server", "server.jar"), descriptor.DestinationPath)

	require.Equal(t, []string{"/paper/versions/1.20.1", "/paper/versions/1.20.1/builds/100"}, stub.paths())
}

// TestPaper_Resolve_NoBuilds stops after the first hop.
func TestPaper_Resolve_NoBuilds(t *testing.T) {
	t.Parallel()

	stub := newVendorStub(t, map[string]string{
		"/versions/9.9.9": `{"builds":[]}`,
	})

	_, err := NewPaper(vendorapi.New(), stub.server.URL, t.TempDir()).Resolve(context.Background(), "9.9.9")
	require.ErrorIs(t, err, artifact.ErrNoBuildsFound)
	require.Equal(t, []string{"/versions/9.9.9"}, stub.paths())
}

// TestPaper_Resolve_Failures distinguishes network, shape and missing-field failures.
func TestPaper_Resolve_Failures(t *testing.T) {
	t.Parallel()

	stub := newVendorStub(t, map[string]string{
		"/versions/bad-json":         `{"builds":`,
		"/versions/no-app":           `{"builds":[1]}`,
		"/versions/no-app/builds/1":  `{"downloads":{}}`,
		"/versions/no-details":       `{"builds":[5]}`,
		"/versions/wrong-type":       `{"builds":"many"}`,
		"/versions/no-hash":          `{"builds":[2]}`,
		"/versions/no-hash/builds/2": `{"downloads":{"application":{"name":"x.jar"}}}`,
	})

	resolver := NewPaper(vendorapi.New(), stub.server.URL, t.TempDir())

	cases := map[string]error{
		"unknown":    artifact.ErrNetwork,
		"bad-json":   artifact.ErrMalformedMetadata,
		"wrong-type": artifact.ErrMalformedMetadata,
		"no-app":     artifact.ErrMalformedMetadata,
		"no-hash":    artifact.ErrMalformedMetadata,
		"no-details": artifact.ErrNetwork,
	}
	for version, want := range cases {
		_, err := resolver.Resolve(context.Background(), version)
		require.ErrorIs(t, err, want, version)
	}
}
