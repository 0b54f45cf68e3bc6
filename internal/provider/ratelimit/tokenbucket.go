package ratelimit

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

// MaxKeys bounds the number of buckets a Keyed limiter tracks. The least
// recently seen key is dropped first and starts over with a full bucket.
const MaxKeys = 10000

// Keyed keeps one token bucket per key (a chat id for the bot).
// - perSecond: refill rate
// - burst: maximum tokens a key can hold
type Keyed struct {
	limit rate.Limit
	burst int

	mu      sync.Mutex
	buckets *lru.Cache[int64, *rate.Limiter]
}

func NewKeyed(perSecond float64, burst int) *Keyed {
	return newKeyed(perSecond, burst, MaxKeys)
}

func newKeyed(perSecond float64, burst, maxKeys int) *Keyed {
	if burst <= 0 {
		burst = 1
	}
	if maxKeys <= 0 {
		maxKeys = MaxKeys
	}
	l := rate.Limit(perSecond)
	if perSecond <= 0 {
		l = rate.Inf
	}
	buckets, _ := lru.New[int64, *rate.Limiter](maxKeys) // only fails for size <= 0
	return &Keyed{limit: l, burst: burst, buckets: buckets}
}

// Allow reports whether key may proceed now, consuming one token if so.
func (k *Keyed) Allow(key int64) bool {
	if k == nil {
		return true
	}
	k.mu.Lock()
	b, ok := k.buckets.Get(key)
	if !ok {
		b = rate.NewLimiter(k.limit, k.burst)
		k.buckets.Add(key, b)
	}
	k.mu.Unlock()
	return b.Allow()
}

// Len reports the number of tracked keys.
func (k *Keyed) Len() int { return k.buckets.Len() }
