// Package ratelimit paces outbound requests.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter blocks until another request may start
type Limiter interface {
	// Wait blocks until it's safe to make another call or ctx is done
	Wait(ctx context.Context) error
	// CanProceed returns true if a call can be made without waiting
	CanProceed() bool
}

// IntervalLimiter enforces a minimum delay between call starts
type IntervalLimiter struct {
	mu       sync.Mutex
	next     time.Time
	minDelay time.Duration
}

// NewIntervalLimiter creates a limiter spacing calls at least minDelay apart
func NewIntervalLimiter(minDelay time.Duration) *IntervalLimiter {
	return &IntervalLimiter{minDelay: minDelay}
}

// Wait reserves the next slot and sleeps until it starts. A cancelled wait
// keeps its slot reserved.
func (rl *IntervalLimiter) Wait(ctx context.Context) error {
	rl.mu.Lock()
	now := time.Now()
	slot := rl.next
	if slot.Before(now) {
		slot = now
	}
	rl.next = slot.Add(rl.minDelay)
	rl.mu.Unlock()

	delay := time.Until(slot)
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// CanProceed returns true if a call can be made without waiting
func (rl *IntervalLimiter) CanProceed() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return !time.Now().Before(rl.next)
}

// NoOpLimiter performs no rate limiting
type NoOpLimiter struct{}

// Wait returns immediately unless ctx is already done
func (NoOpLimiter) Wait(ctx context.Context) error {
	return ctx.Err()
}

// CanProceed always returns true
func (NoOpLimiter) CanProceed() bool {
	return true
}

// New returns an IntervalLimiter, or a NoOpLimiter when minDelay is not positive
func New(minDelay time.Duration) Limiter {
	if minDelay <= 0 {
		return NoOpLimiter{}
	}
	return NewIntervalLimiter(minDelay)
}
