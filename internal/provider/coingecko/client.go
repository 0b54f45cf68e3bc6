package coingecko

import (
	"net/http"
)

const (
	// DefaultBaseURL is the public CoinGecko v3 endpoint.
	DefaultBaseURL = "https://api.coingecko.com/api/v3"

	apiKeyHeader = "x-cg-demo-api-key"
)

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=coingecko_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the CoinGecko search and simple price endpoints.
type Client struct {
	// baseURL is the base URL for the API.
	baseURL string
	// httpClient performs the requests; usually a rate-limited httpx.Client.
	httpClient HTTPClient
	// header contains additional headers to be sent with each request.
	header http.Header
}

// Option is a configuration option for the CoinGecko client.
type Option func(*Client)

// WithBaseURL sets the base URL for the API.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// WithHTTPClient sets the HTTP client for the API.
func WithHTTPClient(httpClient HTTPClient) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithHeader sets additional headers to be sent with each request.
func WithHeader(header http.Header) Option {
	return func(c *Client) {
		for key, values := range header {
			for _, value := range values {
				c.header.Add(key, value)
			}
		}
	}
}

// NewClient creates a new CoinGecko client. The key is optional; the public
// API works without one at a lower request budget.
func NewClient(key string, options ...Option) (*Client, error) {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: http.DefaultClient,
		header:     http.Header{},
	}
	if key != "" {
		// https://docs.coingecko.com/v3.0.1/reference/authentication
		c.header.Set(apiKeyHeader, key)
	}
	for _, option := range options {
		option(c)
	}
	return c, nil
}
