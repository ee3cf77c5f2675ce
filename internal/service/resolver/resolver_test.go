package resolver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/server-keeper/internal/domain/artifact"
	"github.com/oshokin/server-keeper/internal/service/vendorapi"
)

// vendorStub serves canned bodies by path and records every requested path.
type vendorStub struct {
	// server is the running test server.
	server *httptest.Server
	// mu protects requested.
	mu sync.Mutex
	// requested lists paths in request order.
	requested []string
}

// newVendorStub starts a server answering routes with their bodies; other paths get 404.
func newVendorStub(t *testing.T, routes map[string]string) *vendorStub {
	t.Helper()

	stub := new(vendorStub)
	stub.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stub.mu.Lock()
		stub.requested = append(stub.requested, r.URL.Path)
		stub.mu.Unlock()

		body, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))

	t.Cleanup(stub.server.Close)

	return stub
}

// paths returns a copy of the requested paths.
func (s *vendorStub) paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.requested...)
}

// fakeResolver is a Resolver that returns a fixed descriptor.
type fakeResolver struct {
	// channel is reported by Channel.
	channel artifact.Channel
}

// Channel implements Resolver.
func (f fakeResolver) Channel() artifact.Channel { return f.channel }

// Resolve implements Resolver.
func (f fakeResolver) Resolve(context.Context, string) (*artifact.Descriptor, error) {
	return &artifact.Descriptor{Channel: f.channel}, nil
}

// TestRegistry_Lookup dispatches by channel and rejects unknown ones.
func TestRegistry_Lookup(t *testing.T) {
	t.Parallel()

	client := vendorapi.New()
	registry := NewRegistry(
		NewPaper(client, "http://paper.local", "srv"),
		NewFabric(client, "http://fabric.local", "srv"),
	)

	paper, err := registry.Lookup(artifact.ChannelPaper)
	require.NoError(t, err)
	require.IsType(t, new(Paper), paper)

	fabric, err := registry.Lookup(artifact.ChannelFabric)
	require.NoError(t, err)
	require.IsType(t, new(Fabric), fabric)

	_, err = registry.Lookup(artifact.Channel("Z"))
	require.ErrorIs(t, err, artifact.ErrUnknownChannel)

	// A new channel is one more resolver, nothing else.
	extended := NewRegistry(fakeResolver{channel: "Z"})
	z, err := extended.Lookup("Z")
	require.NoError(t, err)
	require.Equal(t, artifact.Channel("Z"), z.Channel())
}
