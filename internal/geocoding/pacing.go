package geocoding

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spaces provider requests at least one interval apart. The interval is
// counted from the end of the previous request, or from NewPacer for the first one.
type Pacer struct {
	mu       sync.Mutex
	limiter  *rate.Limiter
	interval time.Duration
	last     time.Time
}

// NewPacer creates a Pacer for the given interval. A non-positive interval disables pacing.
func NewPacer(interval time.Duration) *Pacer {
	if interval <= 0 {
		return &Pacer{limiter: rate.NewLimiter(rate.Inf, 0)}
	}

	limiter := rate.NewLimiter(rate.Every(interval), 1)
	// Spend the initial burst token so the first Wait sleeps a full interval too.
	limiter.Allow()

	return &Pacer{limiter: limiter, interval: interval, last: time.Now()}
}

// Wait blocks until the next request may be issued.
func (p *Pacer) Wait(ctx context.Context) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("waiting for request slot: %w", err)
	}

	p.mu.Lock()
	remaining := p.interval - time.Since(p.last)
	p.mu.Unlock()
	if remaining <= 0 {
		return nil
	}

	// The limiter slots sit on a fixed grid; a late previous request pushes the next one back.
	timer := time.NewTimer(remaining)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for request slot: %w", ctx.Err())
	}
}

// Done marks the end of a request. The next Wait counts the interval from here.
func (p *Pacer) Done() {
	if p.interval <= 0 {
		return
	}
	p.mu.Lock()
	p.last = time.Now()
	p.mu.Unlock()
}
