package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// AutoRefreshOptions tune the refresher.
type AutoRefreshOptions struct {
	AlignToStart bool
}

// AutoRefresh owns at most one periodic refresh loop. Changing the interval
// stops the running loop and waits for it to exit before a new one starts.
type AutoRefresh struct {
	tick   TickFunc
	opts   AutoRefreshOptions
	logger zerolog.Logger

	running atomic.Int32

	mu       sync.Mutex
	root     context.Context
	stopAll  context.CancelFunc
	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
	closed   bool
}

// NewAutoRefresh constructs a stopped refresher.
func NewAutoRefresh(tick TickFunc, opts AutoRefreshOptions, logger zerolog.Logger) *AutoRefresh {
	root, stopAll := context.WithCancel(context.Background())
	return &AutoRefresh{
		tick:    tick,
		opts:    opts,
		logger:  logger.With().Str("component", "auto_refresh").Logger(),
		root:    root,
		stopAll: stopAll,
	}
}

// SetInterval replaces the active loop. Zero or negative disables refreshing.
func (r *AutoRefresh) SetInterval(d time.Duration) {
	if d < 0 {
		d = 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	r.stopLocked()
	r.interval = d
	if d == 0 {
		r.logger.Info().Msg("auto refresh disabled")
		return
	}

	ctx, cancel := context.WithCancel(r.root)
	done := make(chan struct{})
	r.cancel = cancel
	r.done = done
	r.running.Add(1)

	sched := New(Options{Interval: d, AlignToStart: r.opts.AlignToStart}, r.logger)
	go func() {
		defer close(done)
		defer r.running.Add(-1)
		_ = sched.Run(ctx, r.tick)
	}()

	r.logger.Info().Dur("interval", d).Msg("auto refresh started")
}

// Interval is the configured interval; zero when disabled.
func (r *AutoRefresh) Interval() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.interval
}

// Running reports how many refresh loops are alive.
func (r *AutoRefresh) Running() int {
	return int(r.running.Load())
}

// Close stops the loop for good. Later SetInterval calls are ignored.
func (r *AutoRefresh) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	r.stopLocked()
	r.interval = 0
	r.stopAll()
}

func (r *AutoRefresh) stopLocked() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	<-r.done
	r.cancel = nil
	r.done = nil
}
