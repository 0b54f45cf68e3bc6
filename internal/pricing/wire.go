package pricing

import (
	"fmt"

	"go.uber.org/zap"

	"cryptochecker/internal/config"
	"cryptochecker/internal/httpx"
	"cryptochecker/internal/provider/cache"
	"cryptochecker/internal/provider/coingecko"
	"cryptochecker/internal/provider/crypto"
	"cryptochecker/internal/provider/exchangerate"
	"cryptochecker/internal/provider/fiat"
	"cryptochecker/internal/provider/ratelimit"
	"cryptochecker/internal/provider/resolver"
)

// NewFromConfig builds a service talking to the configured upstreams.
// Search, price and fiat rate requests all go through one MinInterval gate.
func NewFromConfig(cfg config.Config, log *zap.Logger) (*Service, error) {
	if log == nil {
		log = zap.NewNop()
	}

	hc := httpx.New(cfg.Upstream.Timeout)
	gated := &ratelimit.Client{Next: hc, Gate: ratelimit.NewMinInterval(cfg.Upstream.MinInterval)}

	cg, err := coingecko.NewClient(cfg.Upstream.CoinGeckoAPIKey,
		coingecko.WithBaseURL(cfg.Upstream.CoinGeckoURL),
		coingecko.WithHTTPClient(gated),
	)
	if err != nil {
		return nil, fmt.Errorf("coingecko client: %w", err)
	}
	rates, err := exchangerate.NewClient(
		exchangerate.WithBaseURL(cfg.Upstream.RatesURL),
		exchangerate.WithHTTPClient(gated),
	)
	if err != nil {
		return nil, fmt.Errorf("exchange rate client: %w", err)
	}

	res := resolver.New(cg,
		resolver.WithMaxLearned(cfg.Pricing.ResolverMaxItems),
		resolver.WithLogger(log.Named("resolver")),
	)
	fp := fiat.New(fiat.Config{Codes: cfg.Pricing.FiatCodes, Secondary: cfg.Pricing.Secondary}, rates, log.Named("fiat"))
	cp := crypto.New(crypto.Config{Secondary: cfg.Pricing.Secondary, Stable: cfg.Pricing.StableCoins}, cg, log.Named("crypto"))

	return New(cache.New(cfg.Pricing.CacheTTL, cfg.Pricing.CacheMaxItems), res, fp, cp, log.Named("pricing")), nil
}
