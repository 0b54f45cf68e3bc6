package pricing

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"cryptochecker/internal/provider"
	"cryptochecker/internal/provider/cache"
	"cryptochecker/internal/render"
)

// Resolver maps a crypto symbol to its upstream id.
type Resolver interface {
	Resolve(ctx context.Context, symbol string) (string, error)
}

// FiatQuoter answers the fiat codes it supports.
type FiatQuoter interface {
	Supports(symbol string) bool
	Quote(ctx context.Context, symbol string) (provider.Quote, error)
}

// CryptoQuoter quotes a resolved crypto id.
type CryptoQuoter interface {
	Quote(ctx context.Context, symbol, id string) (provider.Quote, error)
}

// Service resolves a symbol to a rendered quote, serving fresh results
// from the cache and computing the rest through the fiat or crypto path.
// It is safe for concurrent use.
type Service struct {
	cache    *cache.Cache
	resolver Resolver
	fiat     FiatQuoter
	crypto   CryptoQuoter
	log      *zap.Logger
}

// New wires a service from its parts. A nil logger discards output.
func New(c *cache.Cache, r Resolver, f FiatQuoter, cq CryptoQuoter, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{cache: c, resolver: r, fiat: f, crypto: cq, log: log}
}

// Normalize upper-cases and trims a user supplied symbol.
func Normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Lookup returns the rendered quote for symbol. A cache entry younger than
// the TTL is returned verbatim without any upstream call. Failures are
// never cached and come back as *provider.Error.
func (s *Service) Lookup(ctx context.Context, symbol string) (cache.Entry, error) {
	symbol = Normalize(symbol)
	if symbol == "" {
		return cache.Entry{}, provider.NewError(provider.ErrNotFound, symbol, nil)
	}
	if e, ok := s.cache.Get(symbol); ok {
		s.log.Debug("cache hit", zap.String("symbol", symbol), zap.Time("created_at", e.CreatedAt))
		return e, nil
	}
	return s.compute(ctx, symbol)
}

// Refresh recomputes symbol even when a fresh entry exists and stores the
// result. The warm-up job uses it to keep tracked symbols hot.
func (s *Service) Refresh(ctx context.Context, symbol string) (cache.Entry, error) {
	symbol = Normalize(symbol)
	if symbol == "" {
		return cache.Entry{}, provider.NewError(provider.ErrNotFound, symbol, nil)
	}
	return s.compute(ctx, symbol)
}

// GetPrice is the chat facing form of Lookup: on success it returns the
// display name and the rendered quote, on failure an empty name and a
// message explaining what went wrong.
func (s *Service) GetPrice(ctx context.Context, symbol string) (name, message string) {
	e, err := s.Lookup(ctx, symbol)
	if err != nil {
		return "", render.Error(Normalize(symbol), err)
	}
	return e.Name, e.Text
}

func (s *Service) compute(ctx context.Context, symbol string) (cache.Entry, error) {
	start := s.now()
	q, err := s.quote(ctx, symbol)
	if err != nil {
		s.log.Info("lookup failed",
			zap.String("symbol", symbol),
			zap.NamedError("kind", provider.KindOf(err)),
			zap.Error(err),
			zap.Duration("took", s.now().Sub(start)),
		)
		return cache.Entry{}, err
	}

	e := cache.Entry{
		Symbol:    symbol,
		Name:      q.Name,
		Text:      render.Quote(q),
		Quote:     q,
		CreatedAt: s.now(),
	}
	s.cache.Put(e)
	s.log.Debug("quote computed", zap.String("symbol", symbol), zap.Bool("fiat", q.Fiat), zap.Duration("took", e.CreatedAt.Sub(start)))
	return e, nil
}

func (s *Service) quote(ctx context.Context, symbol string) (provider.Quote, error) {
	if s.fiat != nil && s.fiat.Supports(symbol) {
		return s.fiat.Quote(ctx, symbol)
	}
	id, err := s.resolver.Resolve(ctx, symbol)
	if err != nil {
		return provider.Quote{}, err
	}
	return s.crypto.Quote(ctx, symbol, id)
}

// now follows the cache clock so entry ages are measured consistently.
func (s *Service) now() time.Time {
	if s.cache.Now != nil {
		return s.cache.Now()
	}
	return time.Now()
}
