// Package worker wires the lifecycle manager, fetch interceptor,
// notification handler, and sync stub into a single event-driven worker.
//
// All handlers run inside one worker instance. The lifecycle manager
// governs which cache namespace is current; the interceptor always reads
// that namespace. Every asynchronous chain an event triggers is registered
// with the event's Lifetime so the worker is never torn down with work
// still in flight.
package worker

import (
	"context"
	"fmt"
	"net/http"

	"github.com/offlinekit/offline-worker/pkg/config"
	"github.com/offlinekit/offline-worker/pkg/fetch"
	"github.com/offlinekit/offline-worker/pkg/lifecycle"
	"github.com/offlinekit/offline-worker/pkg/notify"
	"github.com/offlinekit/offline-worker/pkg/store"
	"github.com/offlinekit/offline-worker/pkg/syncer"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Options are the host capabilities injected into the worker. Zero-value
// fields fall back to sensible defaults (a plain HTTP client, log-backed
// notification hosts).
type Options struct {
	// Client issues network fetches against the origin.
	Client *http.Client

	// Presenter displays system notifications.
	Presenter notify.Presenter

	// Clients opens or focuses application windows.
	Clients notify.ClientRegistry
}

// Worker is the offline-capable request interception and caching worker.
type Worker struct {
	cfg         config.Config
	lifecycle   *lifecycle.Manager
	interceptor *fetch.Interceptor
	notify      *notify.Handler
	syncer      *syncer.Stub
	lifetime    *Lifetime
	logger      zerolog.Logger
}

// New assembles a worker. The base context bounds all lifetime-extended
// work; cancelling it aborts whatever is still in flight.
func New(base context.Context, cfg config.Config, provider store.Provider, opts Options) (*Worker, error) {
	if opts.Presenter == nil {
		opts.Presenter = notify.NewLogPresenter()
	}
	if opts.Clients == nil {
		opts.Clients = notify.NewLogClientRegistry()
	}

	manager, err := lifecycle.NewManager(cfg, provider, opts.Client)
	if err != nil {
		return nil, fmt.Errorf("lifecycle: %w", err)
	}

	lifetime := NewLifetime(base)

	interceptor, err := fetch.NewInterceptor(cfg, manager, opts.Client, lifetime)
	if err != nil {
		return nil, fmt.Errorf("interceptor: %w", err)
	}

	notifier, err := notify.NewHandler(cfg.Notification, cfg.RootDocument, opts.Presenter, opts.Clients)
	if err != nil {
		return nil, fmt.Errorf("notify: %w", err)
	}

	return &Worker{
		cfg:         cfg,
		lifecycle:   manager,
		interceptor: interceptor,
		notify:      notifier,
		syncer:      syncer.NewStub(),
		lifetime:    lifetime,
		logger:      log.With().Str("component", "worker").Str("namespace", cfg.Namespace()).Logger(),
	}, nil
}

// Run performs the install and activate transitions. After it returns, the
// current namespace holds the full manifest and every stale namespace has
// been retired.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.lifetime.Do(ctx, "install", w.lifecycle.Install); err != nil {
		return err
	}
	if err := w.lifetime.Do(ctx, "activate", w.lifecycle.Activate); err != nil {
		return err
	}
	w.logger.Info().Msg("Worker active")
	return nil
}

// State returns the lifecycle state.
func (w *Worker) State() lifecycle.State {
	return w.lifecycle.State()
}

// HandleFetch routes one intercepted request through the cache-first policy.
func (w *Worker) HandleFetch(ctx context.Context, req *http.Request) (*http.Response, error) {
	eventsTotal.WithLabelValues("fetch").Inc()
	return w.interceptor.Intercept(ctx, req)
}

// HandlePush decodes a push payload and displays a notification. The
// display call is awaited within the event's extended lifetime. Returns the
// notification ID.
func (w *Worker) HandlePush(ctx context.Context, payload []byte) (string, error) {
	eventsTotal.WithLabelValues("push").Inc()
	var id string
	err := w.lifetime.Do(ctx, "push", func(ctx context.Context) error {
		var err error
		id, err = w.notify.HandlePush(ctx, payload)
		return err
	})
	return id, err
}

// HandleInteraction reacts to a notification interaction.
func (w *Worker) HandleInteraction(ctx context.Context, in notify.Interaction) error {
	eventsTotal.WithLabelValues("interaction").Inc()
	return w.lifetime.Do(ctx, "interaction", func(ctx context.Context) error {
		return w.notify.HandleInteraction(ctx, in)
	})
}

// HandleSync dispatches a sync event to the background sync stub.
func (w *Worker) HandleSync(ctx context.Context, tag string) error {
	eventsTotal.WithLabelValues("sync").Inc()
	return w.lifetime.Do(ctx, "sync", func(ctx context.Context) error {
		return w.syncer.Handle(ctx, tag)
	})
}

// Shutdown waits for all lifetime-extended work to settle.
func (w *Worker) Shutdown(ctx context.Context) error {
	w.logger.Info().Msg("Draining in-flight work")
	return w.lifetime.Drain(ctx)
}
