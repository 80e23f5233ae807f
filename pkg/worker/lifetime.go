package worker

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Lifetime is the registry that extends an event's lifetime until its
// asynchronous work settles. Every async chain a handler triggers must be
// wired through it; an untracked goroutine could be torn down with the
// worker before it completes.
type Lifetime struct {
	base   context.Context
	logger zerolog.Logger
	wg     sync.WaitGroup
}

// NewLifetime creates a registry bound to the host's base context. Work
// registered with Extend runs under that context, so the host can still
// abort in-flight operations at its own discretion.
func NewLifetime(base context.Context) *Lifetime {
	if base == nil {
		base = context.Background()
	}
	return &Lifetime{
		base:   base,
		logger: log.With().Str("component", "lifetime").Logger(),
	}
}

// Extend registers fire-and-forget work tied to an event. The work runs
// under the registry's base context, not the event's: it may outlive the
// event that spawned it, and Drain waits for it. Errors are logged, never
// propagated; work extended past its event has no caller left to notify.
func (l *Lifetime) Extend(event string, fn func(ctx context.Context) error) {
	l.wg.Add(1)
	lifetimeInflight.Inc()
	go func() {
		defer l.wg.Done()
		defer lifetimeInflight.Dec()
		if err := fn(l.base); err != nil {
			l.logger.Warn().Err(err).Str("event", event).Msg("Extended work failed")
		}
	}()
}

// Do runs awaited work tracked by the registry: the caller blocks until fn
// settles and receives its error, while Drain still accounts for the work
// if the caller disconnects mid-flight.
func (l *Lifetime) Do(ctx context.Context, event string, fn func(ctx context.Context) error) error {
	l.wg.Add(1)
	lifetimeInflight.Inc()
	defer func() {
		l.wg.Done()
		lifetimeInflight.Dec()
	}()
	return fn(ctx)
}

// Drain blocks until all registered work has settled or ctx expires.
func (l *Lifetime) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
