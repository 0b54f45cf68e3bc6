// Package warmup keeps the catalog symbols hot in the quote cache on a
// cron schedule.
package warmup

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"cryptochecker/internal/provider/cache"
)

// Refresher recomputes one symbol regardless of cache freshness.
type Refresher interface {
	Refresh(ctx context.Context, symbol string) (cache.Entry, error)
}

// Lister returns the symbols to keep warm.
type Lister interface {
	List() []string
}

// Job refreshes every listed symbol once per run. Overlapping runs are
// skipped.
type Job struct {
	refresher Refresher
	symbols   Lister
	timeout   time.Duration
	log       *zap.Logger

	running atomic.Bool
}

// NewJob builds a job; timeout bounds a whole run (0 means one minute).
func NewJob(r Refresher, l Lister, timeout time.Duration, log *zap.Logger) *Job {
	if log == nil {
		log = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &Job{refresher: r, symbols: l, timeout: timeout, log: log}
}

// Run refreshes the current list sequentially and reports how many
// symbols succeeded. It returns (0, 0) when another run is in progress.
func (j *Job) Run(ctx context.Context) (ok, failed int) {
	if !j.running.CompareAndSwap(false, true) {
		j.log.Debug("warm-up already running, skipping")
		return 0, 0
	}
	defer j.running.Store(false)

	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	start := time.Now()
	for _, sym := range j.symbols.List() {
		if ctx.Err() != nil {
			break
		}
		if _, err := j.refresher.Refresh(ctx, sym); err != nil {
			failed++
			j.log.Info("warm-up refresh failed", zap.String("symbol", sym), zap.Error(err))
			continue
		}
		ok++
	}
	j.log.Info("warm-up done", zap.Int("ok", ok), zap.Int("failed", failed), zap.Duration("took", time.Since(start)))
	return ok, failed
}

// Schedule registers job on a new cron scheduler. An empty spec returns a
// nil scheduler: warm-up is disabled. The caller starts and stops it.
func Schedule(spec string, job *Job) (*cron.Cron, error) {
	if spec == "" {
		return nil, nil
	}
	c := cron.New()
	if _, err := c.AddFunc(spec, func() { job.Run(context.Background()) }); err != nil {
		return nil, fmt.Errorf("warm-up schedule %q: %w", spec, err)
	}
	return c, nil
}
