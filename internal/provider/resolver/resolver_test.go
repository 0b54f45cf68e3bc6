package resolver_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"cryptochecker/internal/provider"
	"cryptochecker/internal/provider/coingecko"
	"cryptochecker/internal/provider/resolver"
)

type fakeSearcher struct {
	calls atomic.Int32
	delay time.Duration
	coins []coingecko.SearchCoin
	err   error
}

func (f *fakeSearcher) Search(ctx context.Context, query string) ([]coingecko.SearchCoin, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	return f.coins, f.err
}

func TestResolve_StaticTableMakesNoCall(t *testing.T) {
	t.Parallel()

	s := &fakeSearcher{}
	r := resolver.New(s, resolver.WithLogger(zaptest.NewLogger(t)))

	id, err := r.Resolve(t.Context(), "TON")
	require.NoError(t, err)
	require.Equal(t, "the-open-network", id)
	require.Zero(t, s.calls.Load())
}

func TestResolve_FirstExactSymbolMatchWinsAndIsMemoized(t *testing.T) {
	t.Parallel()

	// Arrange: the top ranked candidate has a different symbol
	s := &fakeSearcher{coins: []coingecko.SearchCoin{
		{ID: "wrapped-wif", Symbol: "WWIF"},
		{ID: "dogwifcoin", Symbol: "wif"},
		{ID: "wif-clone", Symbol: "WIF"},
	}}
	r := resolver.New(s)

	// Act
	id, err := r.Resolve(t.Context(), "WIF")

	// Assert
	require.NoError(t, err)
	require.Equal(t, "dogwifcoin", id)

	id, err = r.Resolve(t.Context(), "WIF")
	require.NoError(t, err)
	require.Equal(t, "dogwifcoin", id)
	require.Equal(t, int32(1), s.calls.Load())

	known, ok := r.Known("WIF")
	require.True(t, ok)
	require.Equal(t, "dogwifcoin", known)
}

func TestResolve_UnknownSymbolDoesNotMutateTable(t *testing.T) {
	t.Parallel()

	s := &fakeSearcher{coins: []coingecko.SearchCoin{{ID: "something-else", Symbol: "SMTH"}}}
	r := resolver.New(s)

	_, err := r.Resolve(t.Context(), "NOPE")
	require.ErrorIs(t, err, provider.ErrNotFound)
	require.False(t, errors.Is(err, provider.ErrConnectivity))

	_, ok := r.Known("NOPE")
	require.False(t, ok)
	_, ok = resolver.KnownIDs["NOPE"]
	require.False(t, ok)

	// a later lookup asks again
	_, err = r.Resolve(t.Context(), "NOPE")
	require.ErrorIs(t, err, provider.ErrNotFound)
	require.Equal(t, int32(2), s.calls.Load())
}

func TestResolve_SearchFailureKeepsCause(t *testing.T) {
	t.Parallel()

	s := &fakeSearcher{err: fmt.Errorf("%w: performing request: timeout", provider.ErrConnectivity)}
	r := resolver.New(s)

	_, err := r.Resolve(t.Context(), "WIF")

	require.ErrorIs(t, err, provider.ErrNotFound)
	require.ErrorIs(t, err, provider.ErrConnectivity)
	require.Equal(t, provider.ErrNotFound, provider.KindOf(err))
	_, ok := r.Known("WIF")
	require.False(t, ok)
}

func TestResolve_EmptySymbol(t *testing.T) {
	t.Parallel()

	s := &fakeSearcher{}
	_, err := resolver.New(s).Resolve(t.Context(), "")
	require.ErrorIs(t, err, provider.ErrNotFound)
	require.Zero(t, s.calls.Load())
}

func TestResolve_ConcurrentSearchesAreCoalesced(t *testing.T) {
	t.Parallel()

	s := &fakeSearcher{delay: 100 * time.Millisecond, coins: []coingecko.SearchCoin{{ID: "bonk", Symbol: "BONK"}}}
	r := resolver.New(s)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := r.Resolve(context.Background(), "BONK")
			if err != nil || id != "bonk" {
				t.Errorf("Resolve() = %q, %v", id, err)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), s.calls.Load())
}

func TestResolve_CanceledCallerDoesNotFailSharedSearch(t *testing.T) {
	t.Parallel()

	// Arrange
	s := &fakeSearcher{delay: 200 * time.Millisecond, coins: []coingecko.SearchCoin{{ID: "arbitrum", Symbol: "ARB"}}}
	r := resolver.New(s, resolver.WithLogger(zaptest.NewLogger(t)))

	short, cancel := context.WithTimeout(t.Context(), 50*time.Millisecond)
	defer cancel()

	type outcome struct {
		id  string
		err error
	}
	shortDone := make(chan outcome, 1)
	longDone := make(chan outcome, 1)

	// Act: the short caller starts the search, the live one joins it
	go func() {
		id, err := r.Resolve(short, "ARB")
		shortDone <- outcome{id, err}
	}()
	time.Sleep(10 * time.Millisecond)
	go func() {
		id, err := r.Resolve(context.Background(), "ARB")
		longDone <- outcome{id, err}
	}()

	// Assert
	s1 := <-shortDone
	require.ErrorIs(t, s1.err, provider.ErrNotFound)
	require.ErrorIs(t, s1.err, context.DeadlineExceeded)

	l := <-longDone
	require.NoError(t, l.err)
	require.Equal(t, "arbitrum", l.id)
	require.EqualValues(t, 1, s.calls.Load())

	id, ok := r.Known("ARB")
	require.True(t, ok)
	require.Equal(t, "arbitrum", id)
}

func TestResolve_SearchTimeoutIsIndependentOfCaller(t *testing.T) {
	t.Parallel()

	s := &fakeSearcher{delay: time.Second, coins: []coingecko.SearchCoin{{ID: "arbitrum", Symbol: "ARB"}}}
	r := resolver.New(s, resolver.WithSearchTimeout(30*time.Millisecond))

	_, err := r.Resolve(context.Background(), "ARB")
	require.ErrorIs(t, err, provider.ErrNotFound)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWithStatic(t *testing.T) {
	t.Parallel()

	r := resolver.New(&fakeSearcher{}, resolver.WithStatic(map[string]string{"arb": "arbitrum"}))
	id, ok := r.Known("ARB")
	require.True(t, ok)
	require.Equal(t, "arbitrum", id)
	_, ok = r.Known("BTC")
	require.False(t, ok)
}
