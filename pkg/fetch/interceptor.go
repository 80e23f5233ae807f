// Package fetch implements the per-request routing policy: answer from the
// current cache namespace, fall back to the network, and degrade to the
// cached root document when an offline navigation cannot be served.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/offlinekit/offline-worker/pkg/config"
	"github.com/offlinekit/offline-worker/pkg/store"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ErrOffline is returned when the network failed and no fallback applied.
// Non-navigation failures are deliberately not masked with stand-ins; the
// application layer above the worker observes an ordinary failed request.
var ErrOffline = errors.New("offline: no cached response available")

// HandleSource yields the handle of the current cache namespace. The
// lifecycle manager implements it; the interceptor never holds a namespace
// directly, so it always reads whichever namespace is current.
type HandleSource interface {
	Handle() (store.Handle, error)
}

// Extender registers asynchronous work with the lifetime of the event that
// spawned it, keeping the worker alive until the work settles.
type Extender interface {
	Extend(event string, fn func(context.Context) error)
}

// Interceptor evaluates the cache-first policy for every intercepted
// request.
type Interceptor struct {
	cfg      config.Config
	source   HandleSource
	client   *http.Client
	extender Extender
	logger   zerolog.Logger
}

// NewInterceptor creates an interceptor. The extender is required: the
// opportunistic cache write after a network fetch must be wired into the
// event's lifetime, never left as an untracked goroutine.
func NewInterceptor(cfg config.Config, source HandleSource, client *http.Client, extender Extender) (*Interceptor, error) {
	if source == nil {
		return nil, fmt.Errorf("handle source is required")
	}
	if extender == nil {
		return nil, fmt.Errorf("lifetime extender is required")
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.FetchTimeout}
	}
	return &Interceptor{
		cfg:      cfg,
		source:   source,
		client:   client,
		extender: extender,
		logger:   log.With().Str("component", "fetch").Logger(),
	}, nil
}

// Intercept routes a single request. Ordering guarantees: the cache lookup
// always happens before any network issuance, and the duplication for
// caching never delays the primary response.
func (i *Interceptor) Intercept(ctx context.Context, req *http.Request) (*http.Response, error) {
	start := time.Now()
	key := store.KeyFor(req)

	handle, err := i.source.Handle()
	if err != nil {
		i.logger.Warn().Err(err).Str("key", key.String()).Msg("No current namespace, bypassing cache")
		handle = nil
	}

	// Step 1: cache lookup. A hit is returned immediately; no network
	// call is made.
	if handle != nil {
		entry, err := handle.Lookup(ctx, key)
		if err == nil {
			i.observe("cache_hit", start)
			i.logger.Debug().Str("key", key.String()).Msg("Served from cache")
			return entry.Response(req), nil
		}
		if !errors.Is(err, store.ErrCacheMiss) {
			i.logger.Warn().Err(err).Str("key", key.String()).Msg("Cache lookup error")
		}
	}

	// Step 2: network.
	resp, err := i.forward(ctx, req)
	if err != nil {
		i.logger.Debug().Err(err).Str("key", key.String()).Msg("Network fetch failed")
		return i.fallback(ctx, handle, req, start, err)
	}

	if handle != nil && i.cacheable(req, resp) {
		// Two-copy contract: Snapshot consumes the body once and restores
		// it, so one copy goes back to the caller while the duplicate is
		// persisted without blocking the return.
		entry, snapErr := store.Snapshot(resp, i.cfg.OriginHost())
		if snapErr != nil {
			i.logger.Warn().Err(snapErr).Str("key", key.String()).Msg("Failed to snapshot response")
		} else {
			i.extender.Extend("cache-write "+key.String(), func(ctx context.Context) error {
				return handle.Write(ctx, key, entry)
			})
		}
	}

	i.observe("network", start)
	return resp, nil
}

// forward issues the request against the configured origin.
func (i *Interceptor) forward(ctx context.Context, req *http.Request) (*http.Response, error) {
	out, err := http.NewRequestWithContext(ctx, req.Method, i.cfg.Origin+req.URL.RequestURI(), req.Body)
	if err != nil {
		return nil, fmt.Errorf("build origin request: %w", err)
	}
	out.Header = req.Header.Clone()
	return i.client.Do(out)
}

// cacheable reports whether a live response may be persisted: GET, status
// exactly 200, and classified same-origin. Any violation means the response
// is returned unmodified and never cached.
func (i *Interceptor) cacheable(req *http.Request, resp *http.Response) bool {
	if req.Method != http.MethodGet {
		return false
	}
	if resp.StatusCode != http.StatusOK {
		return false
	}
	return store.ClassifyOrigin(resp, i.cfg.OriginHost()) == store.OriginBasic
}

// fallback handles a failed network fetch with no cache hit. Top-level
// navigations get the cached root document as a substitute page; everything
// else surfaces the failure.
func (i *Interceptor) fallback(ctx context.Context, handle store.Handle, req *http.Request, start time.Time, cause error) (*http.Response, error) {
	if handle != nil && isNavigation(req) {
		entry, err := handle.Lookup(ctx, store.KeyForPath(i.cfg.RootDocument))
		if err == nil {
			i.observe("fallback_root", start)
			i.logger.Info().Str("url", req.URL.RequestURI()).Msg("Offline navigation, serving cached root document")
			return entry.Response(req), nil
		}
		i.logger.Warn().Err(err).Msg("Root document missing from cache")
	}

	i.observe("offline", start)
	return nil, fmt.Errorf("%w: %v", ErrOffline, cause)
}

// isNavigation reports whether the request loads a full document rather
// than a subresource.
func isNavigation(req *http.Request) bool {
	if req.Header.Get("Sec-Fetch-Mode") == "navigate" {
		return true
	}
	return req.Method == http.MethodGet && strings.Contains(req.Header.Get("Accept"), "text/html")
}

func (i *Interceptor) observe(outcome string, start time.Time) {
	fetchTotal.WithLabelValues(outcome).Inc()
	fetchDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
}
