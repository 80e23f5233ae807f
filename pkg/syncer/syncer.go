// Package syncer is the extension point for deferred offline actions.
//
// The current implementation is a deliberate no-op: a sync event with the
// fixed tag completes immediately. A real implementation would flush a queue
// of actions recorded while offline; this stub documents the seam without
// committing to a queue format.
package syncer

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// TagBackgroundSync is the only sync tag the worker responds to.
const TagBackgroundSync = "background-sync"

var syncEvents = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "worker_sync_events_total",
		Help: "Total sync events by handling",
	},
	[]string{"handling"}, // "completed", "ignored"
)

// Stub handles sync events.
type Stub struct {
	logger zerolog.Logger
}

// NewStub creates the no-op sync handler.
func NewStub() *Stub {
	return &Stub{logger: log.With().Str("component", "syncer").Logger()}
}

// Handle completes a background-sync event immediately. Events with any
// other tag are ignored.
func (s *Stub) Handle(ctx context.Context, tag string) error {
	if tag != TagBackgroundSync {
		syncEvents.WithLabelValues("ignored").Inc()
		s.logger.Debug().Str("tag", tag).Msg("Ignoring sync event with unknown tag")
		return nil
	}

	syncEvents.WithLabelValues("completed").Inc()
	s.logger.Info().Str("tag", tag).Msg("Background sync complete")
	return nil
}
