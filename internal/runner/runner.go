// Package runner drives a Guarded engine from the wall clock.
package runner

import (
	"context"
	"log/slog"
	"time"

	"github.com/flightlab/boostersim/internal/flight"
)

// DefaultInterval is roughly one display frame.
const DefaultInterval = 16 * time.Millisecond

// Sampler is notified after every tick. The recorder implements it.
type Sampler interface {
	Sample()
}

// Runner ticks the engine on a time.Ticker until its context is cancelled.
type Runner struct {
	Engine   *flight.Guarded
	Interval time.Duration
	Sampler  Sampler // optional
	Logger   *slog.Logger

	ticks uint64
}

// Run blocks until ctx is done. Each tick passes the measured wall delta to
// the engine, so a stalled process catches up in capped steps.
func (r *Runner) Run(ctx context.Context) error {
	interval := r.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("simulation runner started", "interval", interval)
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			logger.Info("simulation runner stopped", "ticks", r.ticks)
			return nil
		case now := <-ticker.C:
			r.Tick(now.Sub(last))
			last = now
		}
	}
}

// Tick advances the engine by one wall delta and notifies the sampler.
func (r *Runner) Tick(delta time.Duration) flight.Result {
	res := r.Engine.Update(delta.Seconds())
	r.ticks++
	if r.Sampler != nil {
		r.Sampler.Sample()
	}
	return res
}

// Ticks returns how many ticks have run. Not safe to call concurrently with Run.
func (r *Runner) Ticks() uint64 {
	return r.ticks
}
