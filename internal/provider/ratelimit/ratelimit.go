package ratelimit

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// MinInterval enforces a minimum time between releases of the gate.
// The wait and the timestamp update happen under one lock, so concurrent
// callers are serialized and never released closer than Interval.
// A single MinInterval is meant to be shared by every upstream client
// that should count against the same timeline.
type MinInterval struct {
	Interval time.Duration

	mu   sync.Mutex
	last time.Time
}

// NewMinInterval returns a gate with the given spacing.
func NewMinInterval(interval time.Duration) *MinInterval {
	return &MinInterval{Interval: interval}
}

// Wait blocks until Interval has elapsed since the previous release.
// It only fails when ctx is canceled while waiting; the timestamp is not
// advanced in that case.
func (m *MinInterval) Wait(ctx context.Context) error {
	if m == nil || m.Interval <= 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if wait := time.Until(m.last.Add(m.Interval)); wait > 0 {
		t := time.NewTimer(wait)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	m.last = time.Now()
	return nil
}

// Last returns the time of the most recent release.
func (m *MinInterval) Last() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// Doer is the subset of *http.Client used by upstream clients.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client gates every request of the wrapped Doer through Gate.
type Client struct {
	Next Doer
	Gate *MinInterval
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if err := c.Gate.Wait(req.Context()); err != nil {
		return nil, err
	}
	return c.Next.Do(req)
}
