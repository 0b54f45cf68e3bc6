package coingecko

import (
	"context"
	"net/url"
	"strings"
)

// ChangeSuffix is appended to a vs currency to form the 24h change field,
// e.g. "usd_24h_change".
const ChangeSuffix = "_24h_change"

// SimplePrice fetches prices for ids in every vs currency.
//
//	{
//	  "bitcoin": {"usd": 67012.5, "uah": 2761000.1, "usd_24h_change": -1.23}
//	}
//
// Null values are dropped, so a missing key means the API had no number.
func (c *Client) SimplePrice(ctx context.Context, ids, vs []string, include24hChange bool) (map[string]map[string]float64, error) {
	params := url.Values{
		"ids":           {strings.Join(ids, ",")},
		"vs_currencies": {strings.Join(vs, ",")},
	}
	if include24hChange {
		params.Set("include_24hr_change", "true")
	}

	var body map[string]map[string]*float64
	if err := c.get(ctx, "/simple/price", params, &body); err != nil {
		return nil, err
	}

	out := make(map[string]map[string]float64, len(body))
	for id, fields := range body {
		values := make(map[string]float64, len(fields))
		for k, v := range fields {
			if v != nil {
				values[k] = *v
			}
		}
		out[id] = values
	}
	return out, nil
}
