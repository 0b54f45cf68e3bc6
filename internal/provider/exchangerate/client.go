package exchangerate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"cryptochecker/internal/provider"
)

// DefaultBaseURL is the keyless exchangerate-api v4 endpoint.
const DefaultBaseURL = "https://api.exchangerate-api.com/v4"

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=exchangerate_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Snapshot is one atomically fetched table of rates against Base.
type Snapshot struct {
	Base      string
	Rates     map[string]decimal.Decimal
	FetchedAt time.Time
}

// Rate returns the rate for code and whether it is usable (present, non-zero).
func (s Snapshot) Rate(code string) (decimal.Decimal, bool) {
	r, ok := s.Rates[strings.ToUpper(code)]
	if !ok || r.IsZero() {
		return decimal.Zero, false
	}
	return r, true
}

// Client fetches rate snapshots.
type Client struct {
	baseURL    string
	httpClient HTTPClient
	header     http.Header
	now        func() time.Time
}

// Option is a configuration option for the exchange rate client.
type Option func(*Client)

// WithBaseURL sets the base URL for the API.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
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

// NewClient creates a new exchange rate client.
func NewClient(options ...Option) (*Client, error) {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: http.DefaultClient,
		header:     http.Header{},
		now:        time.Now,
	}
	for _, option := range options {
		option(c)
	}
	return c, nil
}

type latestResponse struct {
	Base  string                     `json:"base"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

// Latest fetches the current rates against base (e.g. "USD").
func (c *Client) Latest(ctx context.Context, base string) (Snapshot, error) {
	base = strings.ToUpper(base)
	url := fmt.Sprintf("%s/latest/%s", c.baseURL, base)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return Snapshot{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header = c.header.Clone()
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: performing request: %w", provider.ErrConnectivity, err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:

	case http.StatusNotFound:
		return Snapshot{}, fmt.Errorf("%w: unknown base currency %q", provider.ErrConnectivity, base)

	case http.StatusTooManyRequests:
		return Snapshot{}, fmt.Errorf("%w: rate limited", provider.ErrConnectivity)

	default:
		return Snapshot{}, fmt.Errorf("%w: unexpected status code: %d", provider.ErrConnectivity, res.StatusCode)
	}

	var body latestResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return Snapshot{}, fmt.Errorf("%w: decoding rates response: %w", provider.ErrMalformedResponse, err)
	}
	if body.Rates == nil {
		return Snapshot{}, fmt.Errorf("%w: rates missing from response", provider.ErrMalformedResponse)
	}
	if body.Base == "" {
		body.Base = base
	}

	return Snapshot{Base: body.Base, Rates: body.Rates, FetchedAt: c.now()}, nil
}
