package resolver

import (
	"context"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"cryptochecker/internal/provider"
	"cryptochecker/internal/provider/coingecko"
)

// KnownIDs maps the most common tickers to their CoinGecko ids.
// Symbols listed here never cost an upstream call.
var KnownIDs = map[string]string{
	"BTC":  "bitcoin",
	"USDT": "tether",
	"SOL":  "solana",
	"ETH":  "ethereum",
	"ADA":  "cardano",
	"TON":  "the-open-network",
	"DOGE": "dogecoin",
	"PEPE": "pepe",
	"XRP":  "ripple",
	"LTC":  "litecoin",
	"TRX":  "tron",
}

const (
	// DefaultMaxLearned bounds the number of ids memoized from searches.
	DefaultMaxLearned = 4096
	// DefaultSearchTimeout bounds one shared upstream search.
	DefaultSearchTimeout = 15 * time.Second
)

// Searcher is the subset of the CoinGecko client used for resolution.
type Searcher interface {
	Search(ctx context.Context, query string) ([]coingecko.SearchCoin, error)
}

// Resolver maps ticker symbols to CoinGecko ids.
type Resolver struct {
	search  Searcher
	static  map[string]string
	learned *lru.Cache[string, string]
	sf      singleflight.Group
	timeout time.Duration
	log     *zap.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithMaxLearned caps the learned table.
func WithMaxLearned(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.learned, _ = lru.New[string, string](n)
		}
	}
}

// WithSearchTimeout bounds a shared search independently of its callers.
func WithSearchTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.log = l
		}
	}
}

// WithStatic replaces the built-in table. Keys must be upper case.
func WithStatic(ids map[string]string) Option {
	return func(r *Resolver) {
		r.static = make(map[string]string, len(ids))
		for k, v := range ids {
			r.static[strings.ToUpper(k)] = v
		}
	}
}

// New builds a resolver backed by s. The static table is copied, so
// lookups never mutate KnownIDs.
func New(s Searcher, opts ...Option) *Resolver {
	r := &Resolver{search: s, timeout: DefaultSearchTimeout, log: zap.NewNop()}
	r.static = make(map[string]string, len(KnownIDs))
	for k, v := range KnownIDs {
		r.static[k] = v
	}
	r.learned, _ = lru.New[string, string](DefaultMaxLearned)
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Known returns the id for symbol without touching the network.
func (r *Resolver) Known(symbol string) (string, bool) {
	if id, ok := r.static[symbol]; ok {
		return id, true
	}
	return r.learned.Get(symbol)
}

// Resolve returns the CoinGecko id for an upper-case symbol.
//
// Every failure is reported with Kind provider.ErrNotFound. When the miss
// was caused by a failed search the cause is kept, so callers can still
// tell it apart with errors.Is(err, provider.ErrConnectivity).
func (r *Resolver) Resolve(ctx context.Context, symbol string) (string, error) {
	if symbol == "" {
		return "", provider.NewError(provider.ErrNotFound, symbol, nil)
	}
	if id, ok := r.Known(symbol); ok {
		return id, nil
	}

	// The shared search ignores any one caller's cancellation; each caller
	// stops waiting on its own ctx.
	ch := r.sf.DoChan(symbol, func() (any, error) {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
		defer cancel()
		coins, err := r.search.Search(sctx, symbol)
		if err != nil {
			return "", err
		}
		for _, c := range coins {
			if strings.EqualFold(c.Symbol, symbol) && c.ID != "" {
				r.learned.Add(symbol, c.ID)
				return c.ID, nil
			}
		}
		return "", nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return "", provider.NewError(provider.ErrNotFound, symbol, ctx.Err())
	case res = <-ch:
	}
	v, err, shared := res.Val, res.Err, res.Shared
	if err != nil {
		r.log.Warn("symbol search failed", zap.String("symbol", symbol), zap.Bool("shared", shared), zap.Error(err))
		return "", provider.NewError(provider.ErrNotFound, symbol, err)
	}
	id := v.(string)
	if id == "" {
		return "", provider.NewError(provider.ErrNotFound, symbol, nil)
	}
	r.log.Debug("symbol resolved", zap.String("symbol", symbol), zap.String("id", id))
	return id, nil
}
