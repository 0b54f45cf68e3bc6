package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"cryptochecker/internal/provider"
)

// get performs one GET against path and decodes the JSON body into out.
// Transport and status failures wrap provider.ErrConnectivity, decoding
// failures wrap provider.ErrMalformedResponse.
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header = c.header.Clone()
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: performing request: %w", provider.ErrConnectivity, err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:

	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: unauthorized", provider.ErrConnectivity)

	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: rate limited", provider.ErrConnectivity)

	default:
		return fmt.Errorf("%w: unexpected status code: %d", provider.ErrConnectivity, res.StatusCode)
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding %s response: %w", provider.ErrMalformedResponse, path, err)
	}
	return nil
}
