package vendorapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/server-keeper/internal/domain/artifact"
	"github.com/oshokin/server-keeper/internal/version"
)

// TestJoinURL escapes segments and tolerates trailing slashes.
func TestJoinURL(t *testing.T) {
	t.Parallel()

	got, err := JoinURL("https://api.papermc.io/v2/projects/paper/", "versions", "1.20.1")
	require.NoError(t, err)
	require.Equal(t, "https://api.papermc.io/v2/projects/paper/versions/1.20.1", got)

	got, err = JoinURL("http://meta.local", "versions", "1.20/../../admin")
	require.NoError(t, err)
	require.Equal(t, "http://meta.local/versions/1.20%2F..%2F..%2Fadmin", got)

	_, err = JoinURL("")
	require.Error(t, err)
}

// TestClient_GetJSON decodes a body and sends the user agent.
func TestClient_GetJSON(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, version.UserAgent(), r.Header.Get("User-Agent"))

		_, _ = w.Write([]byte(`{"builds":[1,2,3]}`))
	}))
	defer ts.Close()

	var out struct {
		Builds []int `json:"builds"`
	}

	client := New(WithTimeout(time.Second), WithRateLimit(100))
	require.NoError(t, client.GetJSON(context.Background(), ts.URL, &out))
	require.Equal(t, []int{1, 2, 3}, out.Builds)
}

// TestClient_ErrorTaxonomy maps statuses, transport failures and bad bodies.
func TestClient_ErrorTaxonomy(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/missing", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	})
	mux.HandleFunc("/garbage", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	})

	ts := httptest.NewServer(mux)
	defer ts.Close()

	client := New()

	var out map[string]any

	err := client.GetJSON(context.Background(), ts.URL+"/missing", &out)
	require.ErrorIs(t, err, artifact.ErrNetwork)
	require.Contains(t, err.Error(), "404")

	err = client.GetJSON(context.Background(), ts.URL+"/garbage", &out)
	require.ErrorIs(t, err, artifact.ErrMalformedMetadata)

	closed := httptest.NewServer(http.NotFoundHandler())
	closedURL := closed.URL
	closed.Close()

	_, err = client.GetBytes(context.Background(), closedURL)
	require.ErrorIs(t, err, artifact.ErrNetwork)
}

// TestClient_RateLimitHonoursContext fails fast once the context is gone.
func TestClient_RateLimitHonoursContext(t *testing.T) {
	t.Parallel()

	client := New(WithRateLimit(0.001))

	// The first token is available immediately; drain it.
	require.True(t, client.limiter.Allow())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Get(ctx, "http://127.0.0.1:1/")
	require.ErrorIs(t, err, artifact.ErrNetwork)
}
