package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"JobTriage/internal/domain"
	"JobTriage/internal/ports"
)

const defaultPollInterval = 2 * time.Second

// Refresher re-fetches the authoritative job set.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// PollingPolicy controls when and how often the job set is re-fetched.
type PollingPolicy struct {
	Interval time.Duration
	// IncludeFailed keeps polling while jobs sit in a failure state.
	IncludeFailed bool
}

// ShouldPoll reports whether any job is still moving through the pipeline.
func ShouldPoll(jobs []domain.Job, includeFailed bool) bool {
	for _, job := range jobs {
		if job.ProcessingStatus.InFlight() {
			return true
		}
		if includeFailed && job.ProcessingStatus.IsFailure() {
			return true
		}
	}
	return false
}

// PollingController keeps exactly one refresh timer running while the store
// holds in-flight jobs, and none otherwise. It re-evaluates on every store change.
type PollingController struct {
	ticker    ports.Ticker
	refresher Refresher
	store     *Store
	policy    PollingPolicy
	logger    *slog.Logger
	busy      *semaphore.Weighted

	mu          sync.Mutex
	ctx         context.Context
	active      bool
	started     bool
	closed      bool
	unsubscribe func()
}

// NewPollingController wires the timer driver, the refresh call and the store.
func NewPollingController(ticker ports.Ticker, refresher Refresher, store *Store, policy PollingPolicy, logger *slog.Logger) *PollingController {
	if policy.Interval <= 0 {
		policy.Interval = defaultPollInterval
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &PollingController{
		ticker:    ticker,
		refresher: refresher,
		store:     store,
		policy:    policy,
		logger:    logger,
		busy:      semaphore.NewWeighted(1),
	}
}

// Start subscribes to the store and evaluates the current snapshot. Calling it
// again is a no-op; ticks run under ctx.
func (c *PollingController) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errors.New("polling: controller stopped")
	}
	if c.started {
		c.mu.Unlock()
		return nil
	}
	c.started = true
	c.ctx = ctx
	c.mu.Unlock()

	unsubscribe := c.store.Subscribe(c.Evaluate)

	c.mu.Lock()
	c.unsubscribe = unsubscribe
	c.mu.Unlock()

	c.Evaluate(c.store.Snapshot())
	return nil
}

// Evaluate starts or stops the timer for snap.
func (c *PollingController) Evaluate(snap Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || !c.started {
		return
	}
	if c.ctx.Err() != nil {
		c.active = false
		return
	}

	want := ShouldPoll(snap.jobs, c.policy.IncludeFailed)
	switch {
	case want && !c.active:
		if err := c.ticker.Start(c.ctx, c.policy.Interval, c.tick); err != nil {
			c.logger.Warn("polling start failed", "error", err)
			return
		}
		c.active = true
		c.logger.Debug("polling started", "interval", c.policy.Interval)
	case !want && c.active:
		_ = c.ticker.Stop(c.ctx)
		c.active = false
		c.logger.Debug("polling stopped")
	}
}

// Active reports whether the refresh timer is running.
func (c *PollingController) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active && c.ctx != nil && c.ctx.Err() == nil
}

// Stop releases the timer and the store subscription. It is idempotent and the
// controller cannot be restarted afterwards.
func (c *PollingController) Stop(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.active = false
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	return c.ticker.Stop(ctx)
}

func (c *PollingController) tick(time.Time) {
	if !c.busy.TryAcquire(1) {
		c.logger.Debug("poll skipped, previous fetch still running")
		return
	}
	defer c.busy.Release(1)

	c.mu.Lock()
	ctx, closed := c.ctx, c.closed
	c.mu.Unlock()
	if closed {
		return
	}

	err := c.refresher.Refresh(ctx)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrOperationInFlight):
		c.logger.Debug("poll skipped, refresh already running")
	default:
		c.logger.Warn("poll failed", "error", err)
	}
}
