package download

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"
)

// RateLimiter paces requests against a mirror.
type RateLimiter interface {
	Wait(ctx context.Context) error
}

// Limiter is a token bucket that refills continuously with elapsed time.
// It needs no background goroutine and is safe for concurrent use by the
// FetchAll worker pool.
type Limiter struct {
	mu     sync.Mutex
	rate   float64
	burst  float64
	tokens float64
	last   time.Time
}

// NewLimiter allows rps requests per second with up to burst requests
// served back to back. A burst below 1 is treated as 1.
func NewLimiter(rps float64, burst int) (*Limiter, error) {
	if rps <= 0 {
		return nil, errors.New("download: limiter rate must be > 0")
	}
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		rate:   rps,
		burst:  float64(burst),
		tokens: float64(burst),
		last:   time.Now(),
	}, nil
}

// Wait blocks until a token is available or the context is done.
func (l *Limiter) Wait(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := time.Now()
		l.tokens = math.Min(l.burst, l.tokens+now.Sub(l.last).Seconds()*l.rate)
		l.last = now
		if l.tokens >= 1 {
			l.tokens--
			l.mu.Unlock()
			return nil
		}
		wait := time.Duration((1 - l.tokens) / l.rate * float64(time.Second))
		l.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
