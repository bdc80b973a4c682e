// Package pacing provides randomized, cancellable delays. Every pause is a real
// timer suspension so that request cadence stays irregular.
package pacing

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"
)

// Range is an inclusive delay interval.
type Range struct {
	Min time.Duration
	Max time.Duration
}

// Between is shorthand for Range{min, max}.
func Between(min, max time.Duration) Range { return Range{Min: min, Max: max} }

// Zero reports whether the range never waits.
func (r Range) Zero() bool { return r.Min <= 0 && r.Max <= 0 }

// Pacer draws random delays and coordinates. It is safe for concurrent use.
type Pacer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New returns a Pacer seeded from the runtime's random source.
func New() *Pacer {
	return &Pacer{rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
}

// NewSeeded returns a deterministic Pacer for tests.
func NewSeeded(seed uint64) *Pacer {
	return &Pacer{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Draw picks a duration in r.
func (p *Pacer) Draw(r Range) time.Duration {
	if r.Max <= r.Min {
		return max(r.Min, 0)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return r.Min + time.Duration(p.rng.Int64N(int64(r.Max-r.Min)+1))
}

// Float64 returns a value in [0, 1).
func (p *Pacer) Float64() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.Float64()
}

// Between returns a float in [lo, hi).
func (p *Pacer) Between(lo, hi float64) float64 {
	return lo + (hi-lo)*p.Float64()
}

// Pause waits a random duration from r or until ctx is done.
func (p *Pacer) Pause(ctx context.Context, r Range) error {
	if r.Zero() {
		return ctx.Err()
	}
	return Sleep(ctx, p.Draw(r))
}

// Sleep waits d or until ctx is done. A non-positive d only checks ctx.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
