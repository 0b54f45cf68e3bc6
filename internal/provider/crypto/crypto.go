package crypto

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"cryptochecker/internal/provider"
	"cryptochecker/internal/provider/coingecko"
)

// DefaultStable lists the symbols pegged to one US dollar.
var DefaultStable = []string{"USDT", "USDC", "BUSD"}

// PriceSource is the subset of the CoinGecko client used for quotes.
type PriceSource interface {
	SimplePrice(ctx context.Context, ids, vs []string, include24hChange bool) (map[string]map[string]float64, error)
}

// Config controls the crypto provider.
type Config struct {
	// Secondary is the local currency code, e.g. "UAH".
	Secondary string
	// Stable overrides DefaultStable.
	Stable []string
}

// Provider quotes cryptocurrencies by CoinGecko id.
type Provider struct {
	prices    PriceSource
	secondary string
	stable    map[string]struct{}
	now       func() time.Time
	log       *zap.Logger
}

// New builds a crypto provider.
func New(cfg Config, prices PriceSource, log *zap.Logger) *Provider {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Secondary == "" {
		cfg.Secondary = "UAH"
	}
	if len(cfg.Stable) == 0 {
		cfg.Stable = DefaultStable
	}
	p := &Provider{
		prices:    prices,
		secondary: strings.ToUpper(cfg.Secondary),
		stable:    make(map[string]struct{}, len(cfg.Stable)),
		now:       time.Now,
		log:       log,
	}
	for _, s := range cfg.Stable {
		p.stable[strings.ToUpper(s)] = struct{}{}
	}
	return p
}

// IsStable reports whether symbol is treated as a dollar stablecoin.
func (p *Provider) IsStable(symbol string) bool {
	_, ok := p.stable[symbol]
	return ok
}

// Quote fetches the USD and secondary price of id, reported as symbol.
func (p *Provider) Quote(ctx context.Context, symbol, id string) (provider.Quote, error) {
	local := strings.ToLower(p.secondary)
	data, err := p.prices.SimplePrice(ctx, []string{id}, []string{"usd", local}, true)
	if err != nil {
		p.log.Warn("fetching price", zap.String("symbol", symbol), zap.String("id", id), zap.Error(err))
		return provider.Quote{}, provider.NewError(provider.KindOf(err), symbol, err)
	}

	fields, ok := data[id]
	if !ok {
		return provider.Quote{}, provider.NewError(provider.ErrNoPriceData, symbol, nil)
	}

	stable := p.IsStable(symbol)
	q := provider.Quote{
		Symbol:     symbol,
		Name:       p.Name(id),
		Currency:   p.secondary,
		ReceivedAt: p.now(),
	}

	usd, ok := fields["usd"]
	switch {
	case ok:
		q.USD = usd
		if ch, ok := fields["usd"+coingecko.ChangeSuffix]; ok {
			q.Change24h = provider.Float(ch)
		}
	case stable:
		q.USD = 1.0
		q.Change24h = provider.Float(0)
	default:
		return provider.Quote{}, provider.NewError(provider.ErrNoPriceData, symbol, nil)
	}

	if v, ok := fields[local]; ok && v != 0 {
		q.Local = provider.Float(v)
	}

	switch {
	case stable:
		q.USDDecimals = 4
	case q.USD < 1.0:
		q.USDDecimals = 8
	default:
		q.USDDecimals = 2
	}
	return q, nil
}

// Name turns a CoinGecko id into a display name: "the-open-network"
// becomes "The Open Network". A Caser holds state, so one is made per call.
func (p *Provider) Name(id string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(id, "-", " "))
}
