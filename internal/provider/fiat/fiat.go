package fiat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"cryptochecker/internal/provider"
	"cryptochecker/internal/provider/exchangerate"
)

// DefaultCodes are the fiat symbols answered from the rates snapshot.
var DefaultCodes = []string{"USD", "EUR"}

// DefaultSecondary is the local currency every quote is also shown in.
const DefaultSecondary = "UAH"

var names = map[string]string{
	"USD": "US Dollar",
	"EUR": "Euro",
	"GBP": "British Pound",
	"PLN": "Polish Zloty",
	"CHF": "Swiss Franc",
	"JPY": "Japanese Yen",
	"UAH": "Ukrainian Hryvnia",
}

// RatesSource is the subset of the exchange rate client used here.
type RatesSource interface {
	Latest(ctx context.Context, base string) (exchangerate.Snapshot, error)
}

// Config controls which codes are treated as fiat.
type Config struct {
	Codes     []string
	Secondary string
}

// Provider quotes fiat currencies against USD and the secondary currency.
type Provider struct {
	rates     RatesSource
	codes     map[string]struct{}
	required  []string
	secondary string
	log       *zap.Logger
}

// New builds a fiat provider. Empty config fields fall back to defaults.
func New(cfg Config, rates RatesSource, log *zap.Logger) *Provider {
	if log == nil {
		log = zap.NewNop()
	}
	if len(cfg.Codes) == 0 {
		cfg.Codes = DefaultCodes
	}
	if cfg.Secondary == "" {
		cfg.Secondary = DefaultSecondary
	}
	p := &Provider{
		rates:     rates,
		codes:     make(map[string]struct{}, len(cfg.Codes)),
		secondary: strings.ToUpper(cfg.Secondary),
		log:       log,
	}
	p.required = append(p.required, p.secondary)
	for _, c := range cfg.Codes {
		c = strings.ToUpper(strings.TrimSpace(c))
		if c == "" {
			continue
		}
		if _, dup := p.codes[c]; dup {
			continue
		}
		p.codes[c] = struct{}{}
		if c != "USD" && c != p.secondary {
			p.required = append(p.required, c)
		}
	}
	return p
}

// Supports reports whether symbol is one of the configured fiat codes.
func (p *Provider) Supports(symbol string) bool {
	_, ok := p.codes[symbol]
	return ok
}

// Secondary returns the local currency code.
func (p *Provider) Secondary() string { return p.secondary }

// Quote converts symbol using one snapshot of USD based rates.
// The snapshot must hold a non-zero rate for the secondary currency and
// every configured non-USD code, otherwise ErrRatesUnavailable is returned.
func (p *Provider) Quote(ctx context.Context, symbol string) (provider.Quote, error) {
	if !p.Supports(symbol) {
		return provider.Quote{}, provider.NewError(provider.ErrNotFound, symbol, nil)
	}

	snap, err := p.rates.Latest(ctx, "USD")
	if err != nil {
		p.log.Warn("fetching fiat rates", zap.String("symbol", symbol), zap.Error(err))
		return provider.Quote{}, provider.NewError(provider.ErrRatesUnavailable, symbol, err)
	}

	for _, code := range p.required {
		if _, ok := snap.Rate(code); !ok {
			return provider.Quote{}, provider.NewError(provider.ErrRatesUnavailable, symbol, errors.New("missing or zero rate for "+code))
		}
	}
	secondary, _ := snap.Rate(p.secondary)

	usd := decimal.NewFromInt(1)
	decimals := 2
	if symbol != "USD" {
		rate, _ := snap.Rate(symbol)
		usd = decimal.NewFromInt(1).DivRound(rate, 16)
		decimals = 4
	}
	local := usd.Mul(secondary)

	return provider.Quote{
		Symbol:      symbol,
		Name:        Name(symbol),
		USD:         usd.InexactFloat64(),
		USDDecimals: decimals,
		Local:       provider.Float(local.InexactFloat64()),
		Currency:    p.secondary,
		Fiat:        true,
		ReceivedAt:  receivedAt(snap),
	}, nil
}

// Name returns the display name of a fiat code, or the code itself.
func Name(code string) string {
	if n, ok := names[code]; ok {
		return n
	}
	return code
}

func receivedAt(s exchangerate.Snapshot) time.Time {
	if s.FetchedAt.IsZero() {
		return time.Now()
	}
	return s.FetchedAt
}
