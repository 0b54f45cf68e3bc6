package aggregate

import (
	"context"
	"strings"
	"sync"
	"time"

	"cryptochecker/internal/provider"
	"cryptochecker/internal/provider/cache"
	"cryptochecker/internal/render"
)

// Looker resolves one symbol to a rendered entry.
type Looker interface {
	Lookup(ctx context.Context, symbol string) (cache.Entry, error)
}

// Result is the outcome for one requested symbol. Text always holds the
// message a user would see, the rendered quote or the error explanation.
type Result struct {
	Symbol    string          `json:"symbol"`
	Name      string          `json:"name,omitempty"`
	Text      string          `json:"text"`
	Quote     *provider.Quote `json:"quote,omitempty"`
	CreatedAt *time.Time      `json:"created_at,omitempty"`
	Error     string          `json:"error,omitempty"`
	Kind      string          `json:"kind,omitempty"`

	Err error `json:"-"`
}

// OK reports whether the lookup succeeded.
func (r Result) OK() bool { return r.Err == nil }

// Symbols upper-cases, trims and de-duplicates symbols keeping the first
// occurrence order. Empty items are dropped.
func Symbols(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// SplitCSV splits a comma separated list and normalizes it with Symbols.
func SplitCSV(s string) []string {
	return Symbols(strings.Split(s, ","))
}

// Lookup resolves symbols with at most maxConcurrency lookups in flight.
// Results come back in the order of Symbols(symbols). Symbols not started
// before ctx is done are reported with ctx's error.
func Lookup(ctx context.Context, l Looker, symbols []string, maxConcurrency int) []Result {
	symbols = Symbols(symbols)
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}

	out := make([]Result, len(symbols))
	sem := make(chan struct{}, maxConcurrency)
	var wg sync.WaitGroup
	for i, sym := range symbols {
		wg.Add(1)
		go func() {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				out[i] = failed(sym, provider.NewError(provider.ErrConnectivity, sym, ctx.Err()))
				return
			}
			e, err := l.Lookup(ctx, sym)
			if err != nil {
				out[i] = failed(sym, err)
				return
			}
			q := e.Quote
			created := e.CreatedAt
			out[i] = Result{Symbol: sym, Name: e.Name, Text: e.Text, Quote: &q, CreatedAt: &created}
		}()
	}
	wg.Wait()
	return out
}

func failed(sym string, err error) Result {
	return Result{
		Symbol: sym,
		Text:   render.Error(sym, err),
		Error:  err.Error(),
		Kind:   provider.KindOf(err).Error(),
		Err:    err,
	}
}
