package rate

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter limits operations partitioned by key, such as an RPC method name.
type Limiter interface {
	// Allow reports whether an operation for key may happen now.
	Allow(key string) bool

	// Wait blocks until an operation for key may happen, or ctx is done.
	Wait(ctx context.Context, key string) error
}

type keyedLimiter struct {
	limit rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewKeyedLimiter returns an in memory Limiter that allows perSecond
// operations per key. A burst below one is raised to one.
func NewKeyedLimiter(perSecond float64, burst int) Limiter {
	if burst < 1 {
		burst = 1
	}
	return &keyedLimiter{
		limit:    rate.Limit(perSecond),
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (l *keyedLimiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, ok := l.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters[key] = limiter
	}
	return limiter
}

// Allow implements Limiter.Allow.
func (l *keyedLimiter) Allow(key string) bool {
	return l.get(key).Allow()
}

// Wait implements Limiter.Wait.
func (l *keyedLimiter) Wait(ctx context.Context, key string) error {
	return l.get(key).Wait(ctx)
}

// NoLimiter never limits operations
type NoLimiter struct{}

// Allow implements Limiter.Allow.
func (NoLimiter) Allow(string) bool {
	return true
}

// Wait implements Limiter.Wait.
func (NoLimiter) Wait(ctx context.Context, _ string) error {
	return ctx.Err()
}
