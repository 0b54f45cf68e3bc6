package cache

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"cryptochecker/internal/provider"
)

// DefaultTTL is how long a rendered quote may be served.
const DefaultTTL = 90 * time.Second

// Entry is one cached, already rendered quote. Quote keeps the numbers
// the text was rendered from.
type Entry struct {
	Symbol    string         `json:"symbol"`
	Name      string         `json:"name"`
	Text      string         `json:"text"`
	Quote     provider.Quote `json:"quote"`
	CreatedAt time.Time      `json:"created_at"`
}

// Cache stores rendered quotes per symbol for a TTL.
// Expiry is lazy: an entry older than TTL is reported as absent but only
// goes away when it is overwritten or pushed out by MaxItems.
type Cache struct {
	TTL time.Duration
	// Now is used for age checks; defaults to time.Now.
	Now func() time.Time

	items *lru.Cache[string, Entry]
}

// New creates a cache holding at most maxItems symbols.
func New(ttl time.Duration, maxItems int) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxItems <= 0 {
		maxItems = 1024
	}
	items, _ := lru.New[string, Entry](maxItems) // only fails for size <= 0
	return &Cache{TTL: ttl, Now: time.Now, items: items}
}

// Get returns the entry for symbol if it is younger than TTL.
func (c *Cache) Get(symbol string) (Entry, bool) {
	e, ok := c.items.Get(symbol)
	if !ok {
		return Entry{}, false
	}
	if c.now().Sub(e.CreatedAt) >= c.TTL {
		return Entry{}, false
	}
	return e, true
}

// Put stores e, overwriting any previous entry for the same symbol.
// A zero CreatedAt is replaced with the current time.
func (c *Cache) Put(e Entry) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = c.now()
	}
	c.items.Add(e.Symbol, e)
}

// Len reports the number of stored entries, expired ones included.
func (c *Cache) Len() int { return c.items.Len() }

func (c *Cache) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}
