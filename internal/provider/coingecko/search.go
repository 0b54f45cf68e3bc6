package coingecko

import (
	"context"
	"net/url"
)

// SearchCoin is one coin candidate returned by /search.
type SearchCoin struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	MarketCapRank *int   `json:"market_cap_rank"`
}

type searchResponse struct {
	Coins []SearchCoin `json:"coins"`
}

// Search returns the coin candidates CoinGecko matches for query, in the
// order the API ranks them.
func (c *Client) Search(ctx context.Context, query string) ([]SearchCoin, error) {
	var body searchResponse
	if err := c.get(ctx, "/search", url.Values{"query": {query}}, &body); err != nil {
		return nil, err
	}
	if body.Coins == nil {
		return []SearchCoin{}, nil
	}
	return body.Coins, nil
}
