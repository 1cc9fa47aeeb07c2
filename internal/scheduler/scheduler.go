// Package scheduler admits outbound model calls under a token reservoir,
// a concurrency cap and a minimum spacing between call starts.
//
// All counters live on one mutex-guarded Scheduler. Waiting callers block on a
// per-call channel and are woken strictly in arrival order; nothing polls.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

var (
	// ErrCallTimeout is returned when an admitted call exceeds Config.CallTimeout.
	ErrCallTimeout = errors.New("scheduler: call timed out")
	// ErrClosed is returned for calls submitted to, or still queued in, a closed Scheduler.
	ErrClosed = errors.New("scheduler: closed")
)

// Config holds the admission limits.
type Config struct {
	// Reservoir is the token capacity R, restored in full every RefillInterval.
	Reservoir int
	// RefillInterval is how often the reservoir is reset to Reservoir.
	RefillInterval time.Duration
	// MaxConcurrent is the maximum number of in-flight calls C.
	MaxConcurrent int
	// MinSpacing is the minimum time T between two call starts.
	MinSpacing time.Duration
	// CallTimeout bounds each admitted call. Zero means no limit.
	CallTimeout time.Duration
}

// DefaultConfig returns limits suited to a single small deployment.
func DefaultConfig() Config {
	return Config{
		Reservoir:      90_000,
		RefillInterval: time.Minute,
		MaxConcurrent:  4,
		MinSpacing:     250 * time.Millisecond,
		CallTimeout:    45 * time.Second,
	}
}

// Work is the deferred call executed once admitted. It must honor ctx.
type Work func(ctx context.Context) error

// Stats is a point-in-time snapshot of scheduler state.
type Stats struct {
	Reservoir     int `json:"reservoir"`
	Capacity      int `json:"capacity"`
	InFlight      int `json:"in_flight"`
	MaxConcurrent int `json:"max_concurrent"`
	Queued        int `json:"queued"`
	Admitted      int `json:"admitted"`
}

type waiter struct {
	weight    int
	deducted  int
	ready     chan struct{}
	admitted  bool
	err       error
	startedAt time.Time
	prevStart time.Time
}

// Scheduler serializes admission of weighted calls.
type Scheduler struct {
	cfg    Config
	logger *slog.Logger
	now    func() time.Time

	mu         sync.Mutex
	queue      []*waiter
	reservoir  int
	inFlight   int
	admitted   int
	lastStart  time.Time
	lastRefill time.Time
	timer      *time.Timer
	closed     bool
}

// New creates a Scheduler with a full reservoir.
func New(cfg Config, logger *slog.Logger) *Scheduler {
	if cfg.Reservoir <= 0 {
		cfg.Reservoir = DefaultConfig().Reservoir
	}
	if cfg.RefillInterval <= 0 {
		cfg.RefillInterval = DefaultConfig().RefillInterval
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 1
	}
	if cfg.MinSpacing < 0 {
		cfg.MinSpacing = 0
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scheduler{
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
		reservoir: cfg.Reservoir,
	}
	s.lastRefill = s.now()
	return s
}

// Config returns the effective limits.
func (s *Scheduler) Config() Config { return s.cfg }

// Submit waits for admission, then runs work with the call timeout applied.
// The in-flight slot is released as soon as work returns or the timeout
// fires, whichever comes first. Errors from work are returned unchanged;
// the Scheduler never retries.
func (s *Scheduler) Submit(ctx context.Context, weight int, work Work) error {
	if weight < 0 {
		weight = 0
	}
	if err := s.acquire(ctx, weight); err != nil {
		return err
	}
	defer s.release()

	callCtx := ctx
	if s.cfg.CallTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeoutCause(ctx, s.cfg.CallTimeout, ErrCallTimeout)
		defer cancel()
	}

	done := make(chan error, 1)
	go func() { done <- work(callCtx) }()

	select {
	case err := <-done:
		if err != nil && errors.Is(context.Cause(callCtx), ErrCallTimeout) {
			return fmt.Errorf("%w after %s", ErrCallTimeout, s.cfg.CallTimeout)
		}
		return err
	case <-callCtx.Done():
		if errors.Is(context.Cause(callCtx), ErrCallTimeout) {
			return fmt.Errorf("%w after %s", ErrCallTimeout, s.cfg.CallTimeout)
		}
		return callCtx.Err()
	}
}

// Do is Submit for work that produces a value.
func Do[T any](ctx context.Context, s *Scheduler, weight int, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := s.Submit(ctx, weight, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		// out may still be written by an abandoned call; never read it here.
		var zero T
		return zero, err
	}
	return out, nil
}

// Stats returns a snapshot of the current counters.
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refillLocked(s.now())
	return Stats{
		Reservoir:     s.reservoir,
		Capacity:      s.cfg.Reservoir,
		InFlight:      s.inFlight,
		MaxConcurrent: s.cfg.MaxConcurrent,
		Queued:        len(s.queue),
		Admitted:      s.admitted,
	}
}

// Close fails every queued call with ErrClosed and rejects new submissions.
// Calls already in flight run to completion.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	for _, w := range s.queue {
		w.err = ErrClosed
		close(w.ready)
	}
	s.queue = nil
}

func (s *Scheduler) acquire(ctx context.Context, weight int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	w := &waiter{weight: weight, ready: make(chan struct{})}
	s.queue = append(s.queue, w)
	if weight > s.cfg.Reservoir {
		s.logger.Warn("scheduler: call weight exceeds reservoir, will run alone",
			"weight", weight, "reservoir", s.cfg.Reservoir)
	}
	s.dispatchLocked()
	s.mu.Unlock()

	select {
	case <-w.ready:
		return w.err
	case <-ctx.Done():
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.abandonLocked(w)
	s.dispatchLocked()
	return ctx.Err()
}

// abandonLocked withdraws a waiter whose caller gave up. If admission raced
// with the cancellation, the slot, the tokens and, when no later call has
// started, the spacing mark are all given back.
func (s *Scheduler) abandonLocked(w *waiter) {
	switch {
	case w.admitted:
		s.inFlight--
		s.reservoir = min(s.reservoir+w.deducted, s.cfg.Reservoir)
		if s.lastStart.Equal(w.startedAt) {
			s.lastStart = w.prevStart
		}
		s.admitted--
	case w.err == nil:
		s.removeLocked(w)
	}
}

func (s *Scheduler) release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight--
	s.dispatchLocked()
}

// dispatchLocked admits queued calls from the head while all three limits
// allow it. A blocked head blocks everything behind it.
func (s *Scheduler) dispatchLocked() {
	for len(s.queue) > 0 && !s.closed {
		now := s.now()
		s.refillLocked(now)

		if s.inFlight >= s.cfg.MaxConcurrent {
			// release() re-dispatches.
			return
		}
		if wait := s.spacingWaitLocked(now); wait > 0 {
			s.wakeAfterLocked(wait)
			return
		}

		head := s.queue[0]
		if !s.affordableLocked(head.weight) {
			s.wakeAfterLocked(s.lastRefill.Add(s.cfg.RefillInterval).Sub(now))
			return
		}

		head.deducted = min(head.weight, s.reservoir)
		s.reservoir -= head.deducted
		s.inFlight++
		s.admitted++
		head.prevStart = s.lastStart
		head.startedAt = now
		s.lastStart = now
		head.admitted = true
		close(head.ready)
		s.queue[0] = nil
		s.queue = s.queue[1:]

		s.logger.Debug("scheduler: admitted call",
			"weight", head.weight, "reservoir", s.reservoir,
			"in_flight", s.inFlight, "queued", len(s.queue))
	}
}

// affordableLocked reports whether a call of the given weight may start now.
// Oversized calls wait for a full reservoir and an idle scheduler.
func (s *Scheduler) affordableLocked(weight int) bool {
	if weight <= s.reservoir {
		return true
	}
	return weight > s.cfg.Reservoir && s.reservoir == s.cfg.Reservoir && s.inFlight == 0
}

func (s *Scheduler) refillLocked(now time.Time) {
	elapsed := now.Sub(s.lastRefill)
	if elapsed < s.cfg.RefillInterval {
		return
	}
	periods := elapsed / s.cfg.RefillInterval
	s.lastRefill = s.lastRefill.Add(periods * s.cfg.RefillInterval)
	s.reservoir = s.cfg.Reservoir
}

func (s *Scheduler) spacingWaitLocked(now time.Time) time.Duration {
	if s.cfg.MinSpacing <= 0 || s.lastStart.IsZero() {
		return 0
	}
	return s.lastStart.Add(s.cfg.MinSpacing).Sub(now)
}

func (s *Scheduler) wakeAfterLocked(d time.Duration) {
	if d <= 0 {
		d = time.Millisecond
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(d, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.dispatchLocked()
	})
}

func (s *Scheduler) removeLocked(target *waiter) {
	for i, w := range s.queue {
		if w == target {
			copy(s.queue[i:], s.queue[i+1:])
			s.queue[len(s.queue)-1] = nil
			s.queue = s.queue[:len(s.queue)-1]
			return
		}
	}
}
