package llm

import (
	"context"

	"github.com/ziadkadry99/pagepilot/internal/scheduler"
)

// ScheduledProvider wraps a Provider so every call passes through a shared
// Scheduler, weighted by its estimated token cost.
type ScheduledProvider struct {
	inner Provider
	sched *scheduler.Scheduler
}

// NewScheduledProvider wraps inner with admission control.
func NewScheduledProvider(inner Provider, sched *scheduler.Scheduler) *ScheduledProvider {
	return &ScheduledProvider{inner: inner, sched: sched}
}

func (p *ScheduledProvider) Name() string {
	return p.inner.Name()
}

func (p *ScheduledProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	return scheduler.Do(ctx, p.sched, EstimateRequestTokens(req), func(ctx context.Context) (*CompletionResponse, error) {
		return p.inner.Complete(ctx, req)
	})
}

// Scheduler exposes the underlying scheduler for stats reporting.
func (p *ScheduledProvider) Scheduler() *scheduler.Scheduler {
	return p.sched
}
