// Package ndl queries the National Diet Library OpenSearch API for
// bibliographic records by ISBN.
package ndl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"bookscan/internal/services"
)

// DefaultEndpoint is the public OpenSearch endpoint.
const DefaultEndpoint = "https://ndlsearch.ndl.go.jp/api/opensearch"

// maxBodyBytes bounds how much of a response is read.
const maxBodyBytes = 4 << 20

// Client fetches raw OpenSearch responses.
type Client struct {
	endpoint   string
	userAgent  string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout bounds each request; non-positive values keep the default.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// WithUserAgent sets the User-Agent header sent with each request.
func WithUserAgent(agent string) Option {
	return func(c *Client) {
		c.userAgent = strings.TrimSpace(agent)
	}
}

// New creates an OpenSearch client. An empty endpoint selects DefaultEndpoint.
func New(endpoint string, opts ...Option) (*Client, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse lookup endpoint: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("lookup endpoint must be http(s): %q", endpoint)
	}
	client := &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Endpoint returns the configured search URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Fetch GETs <endpoint>?isbn=<isbn> and returns the response body. Transport
// failures and non-2xx statuses are marked services.ErrFetch. No retries are
// attempted.
func (c *Client) Fetch(ctx context.Context, isbn string) ([]byte, error) {
	isbn = strings.TrimSpace(isbn)
	if isbn == "" {
		return nil, services.Wrap(services.ErrFetch, "fetch", "build request", "isbn must not be empty", nil)
	}
	endpoint, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, services.Wrap(services.ErrFetch, "fetch", "parse endpoint", "", err)
	}
	params := endpoint.Query()
	params.Set("isbn", isbn)
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, services.Wrap(services.ErrFetch, "fetch", "build request", "", err)
	}
	req.Header.Set("Accept", "application/rss+xml, application/xml;q=0.9, */*;q=0.1")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, services.Wrap(services.ErrFetch, "fetch", "execute request", fmt.Sprintf("latency=%v", latency), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, services.Wrap(services.ErrFetch, "fetch", "status",
			fmt.Sprintf("lookup returned %d (latency=%v)", resp.StatusCode, latency), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, services.Wrap(services.ErrFetch, "fetch", "read body", "", err)
	}
	if len(body) > maxBodyBytes {
		return nil, services.Wrap(services.ErrFetch, "fetch", "read body",
			fmt.Sprintf("response exceeds %d bytes", maxBodyBytes), errors.New("body too large"))
	}
	return body, nil
}
