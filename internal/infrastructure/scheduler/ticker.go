package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"JobTriage/internal/ports"
)

// IntervalTicker runs a job on a fixed interval using time.Ticker. At most one
// ticking goroutine exists per IntervalTicker.
type IntervalTicker struct {
	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

var _ ports.Ticker = (*IntervalTicker)(nil)

// NewIntervalTicker builds an idle ticker.
func NewIntervalTicker() *IntervalTicker {
	return &IntervalTicker{}
}

// Start begins ticking every interval. A ticker that is already running is
// stopped first. The goroutine exits on Stop or when ctx is done.
func (t *IntervalTicker) Start(ctx context.Context, interval time.Duration, job func(time.Time)) error {
	if job == nil {
		return nil
	}
	if interval <= 0 {
		return fmt.Errorf("ticker: interval must be positive, got %s", interval)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()

	stop := make(chan struct{})
	done := make(chan struct{})
	t.stop, t.done = stop, done

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case now := <-ticker.C:
				select {
				case <-stop:
					return
				default:
				}
				job(now)
			case <-ctx.Done():
				return
			case <-stop:
				return
			}
		}
	}()

	return nil
}

// Stop halts the ticking goroutine. It does not wait for a running job, so it
// is safe to call from inside one.
func (t *IntervalTicker) Stop(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
	return nil
}

// Running reports whether a ticking goroutine is alive.
func (t *IntervalTicker) Running() bool {
	t.mu.Lock()
	done := t.done
	t.mu.Unlock()
	if done == nil {
		return false
	}
	select {
	case <-done:
		return false
	default:
		return true
	}
}

func (t *IntervalTicker) stopLocked() {
	if t.stop == nil {
		return
	}
	close(t.stop)
	t.stop = nil
	t.done = nil
}
