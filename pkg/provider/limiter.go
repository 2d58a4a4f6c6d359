package provider

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/rhuss/mistral-bridge/pkg/observability"
)

// DefaultConcurrentRequests is the number of streams a single model may
// have open at once.
const DefaultConcurrentRequests = 4

// RequestLimiter bounds the number of concurrent requests. Callers beyond
// the limit queue in FIFO order until a permit is released or their context
// ends.
type RequestLimiter struct {
	sem  *semaphore.Weighted
	size int64
}

// NewRequestLimiter creates a limiter with n permits. Values below one
// fall back to DefaultConcurrentRequests.
func NewRequestLimiter(n int) *RequestLimiter {
	if n < 1 {
		n = DefaultConcurrentRequests
	}
	return &RequestLimiter{
		sem:  semaphore.NewWeighted(int64(n)),
		size: int64(n),
	}
}

// Size returns the number of permits.
func (l *RequestLimiter) Size() int {
	return int(l.size)
}

// Acquire blocks until a permit is available. The returned release function
// must be called exactly once; extra calls are ignored. If ctx ends first,
// the context error is returned and no permit is held.
func (l *RequestLimiter) Acquire(ctx context.Context) (release func(), err error) {
	start := time.Now()
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	observability.LimiterWait.Observe(time.Since(start).Seconds())
	return l.releaser(), nil
}

// TryAcquire takes a permit without blocking. It reports false when all
// permits are in use.
func (l *RequestLimiter) TryAcquire() (release func(), ok bool) {
	if !l.sem.TryAcquire(1) {
		return nil, false
	}
	return l.releaser(), true
}

func (l *RequestLimiter) releaser() func() {
	observability.LimiterInUse.Inc()
	var once sync.Once
	return func() {
		once.Do(func() {
			observability.LimiterInUse.Dec()
			l.sem.Release(1)
		})
	}
}
