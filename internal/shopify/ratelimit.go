package shopify

import (
	"context"
	"sync"
	"time"
)

// Limiter is a token bucket shared by every worker in a run. Each
// remote dispatch acquires one token; tokens refill at a fixed rate up
// to the burst capacity, so concurrent workers cannot collectively
// exceed the platform's request budget.
type Limiter struct {
	mu       sync.Mutex
	tokens   float64
	capacity float64
	rate     float64 // tokens per second
	last     time.Time
}

// NewLimiter creates a token bucket that refills at perSecond tokens
// per second with the given burst capacity. The bucket starts full. A
// non-positive rate disables limiting.
func NewLimiter(perSecond float64, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		tokens:   float64(burst),
		capacity: float64(burst),
		rate:     perSecond,
		last:     time.Now(),
	}
}

// Acquire blocks until a token is available or the context is
// cancelled.
func (l *Limiter) Acquire(ctx context.Context) error {
	if l == nil || l.rate <= 0 {
		return nil
	}
	for {
		l.mu.Lock()
		l.refill()
		if l.tokens >= 1 {
			l.tokens--
			l.mu.Unlock()
			return nil
		}
		wait := time.Duration((1 - l.tokens) / l.rate * float64(time.Second))
		l.mu.Unlock()

		if err := sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// refill credits tokens for the time elapsed since the last update.
// Caller holds l.mu.
func (l *Limiter) refill() {
	now := time.Now()
	elapsed := now.Sub(l.last).Seconds()
	l.last = now
	l.tokens += elapsed * l.rate
	if l.tokens > l.capacity {
		l.tokens = l.capacity
	}
}
