package vendorapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/oshokin/server-keeper/internal/domain/artifact"
	"github.com/oshokin/server-keeper/internal/version"
)

// maxMetadataSize caps metadata bodies; artifacts are streamed instead.
const maxMetadataSize = 8 << 20

// Client performs rate-limited GET requests against vendor APIs.
type Client struct {
	// httpClient is shared by all requests.
	httpClient *http.Client
	// limiter throttles outbound requests; nil disables throttling.
	limiter *rate.Limiter
	// userAgent identifies the keeper to vendors.
	userAgent string
}

// Option configures the client.
type Option func(*Client)

// WithTimeout bounds each request including reading its body.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithRateLimit allows at most perSecond requests per second.
func WithRateLimit(perSecond float64) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}

		burst := max(int(perSecond), 1)
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// New creates a client. Without options requests have no timeout and no throttling.
func New(opts ...Option) *Client {
	client := &Client{
		httpClient: new(http.Client),
		userAgent:  version.UserAgent(),
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Get issues a GET request and returns the response when its status is 2xx.
// The caller must close the response body.
func (c *Client) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("GET %s: rate limit wait: %w: %w", rawURL, artifact.ErrNetwork, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w: %w", rawURL, artifact.ErrNetwork, err)
	}

	req.Header.Set("User-Agent", c.userAgent)

	response, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", artifact.ErrNetwork, err)
	}

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, io.LimitReader(response.Body, maxMetadataSize))
		_ = response.Body.Close()

		return nil, fmt.Errorf("GET %s, %s: %w", rawURL, response.Status, artifact.ErrNetwork)
	}

	return response, nil
}

// GetBytes returns the body of a GET request, bounded to metadata size.
func (c *Client) GetBytes(ctx context.Context, rawURL string) ([]byte, error) {
	response, err := c.Get(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	defer func() {
		_ = response.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(response.Body, maxMetadataSize))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w: %w", rawURL, artifact.ErrNetwork, err)
	}

	return body, nil
}

// GetJSON decodes the JSON body of a GET request into out.
func (c *Client) GetJSON(ctx context.Context, rawURL string, out any) error {
	body, err := c.GetBytes(ctx, rawURL)
	if err != nil {
		return err
	}

	if err = json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w: %w", rawURL, artifact.ErrMalformedMetadata, err)
	}

	return nil
}

// errEmptyBaseURL is returned by JoinURL for an empty base.
var errEmptyBaseURL = errors.New("base URL is empty")

// JoinURL appends path segments to base. Every segment is escaped, so user
// input such as a version string can never add path levels.
func JoinURL(base string, segments ...string) (string, error) {
	if base == "" {
		return "", errEmptyBaseURL
	}

	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base URL: %w", err)
	}

	escaped := make([]string, 0, len(segments)+1)
	escaped = append(escaped, strings.TrimSuffix(u.EscapedPath(), "/"))

	for _, segment := range segments {
		escaped = append(escaped, url.PathEscape(segment))
	}

	rawPath := strings.Join(escaped, "/")

	unescaped, err := url.PathUnescape(rawPath)
	if err != nil {
		return "", fmt.Errorf("unescape path: %w", err)
	}

	u.Path = unescaped
	u.RawPath = rawPath

	return u.String(), nil
}
