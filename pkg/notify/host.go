package notify

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogPresenter is the default Presenter: it records display requests in the
// structured log. A real host integration (desktop notification daemon,
// mobile bridge) replaces it behind the same interface.
type LogPresenter struct {
	logger zerolog.Logger
}

// NewLogPresenter creates a log-backed presenter.
func NewLogPresenter() *LogPresenter {
	return &LogPresenter{logger: log.With().Str("component", "presenter").Logger()}
}

// Show logs the display request.
func (p *LogPresenter) Show(ctx context.Context, id string, req Request) error {
	p.logger.Info().
		Str("notification_id", id).
		Str("body", req.Body).
		Str("icon", req.Icon).
		Ints("vibration", req.Vibration).
		Time("arrived_at", req.Data.Timestamp).
		Int("primary_key", req.Data.PrimaryKey).
		Msg("Show notification")
	return nil
}

// Close logs the close request.
func (p *LogPresenter) Close(ctx context.Context, id string) error {
	p.logger.Info().Str("notification_id", id).Msg("Close notification")
	return nil
}

// LogClientRegistry is the default ClientRegistry: it records window-open
// requests in the structured log.
type LogClientRegistry struct {
	logger zerolog.Logger
}

// NewLogClientRegistry creates a log-backed client registry.
func NewLogClientRegistry() *LogClientRegistry {
	return &LogClientRegistry{logger: log.With().Str("component", "clients").Logger()}
}

// OpenWindow logs the open-or-focus request.
func (r *LogClientRegistry) OpenWindow(ctx context.Context, target string) error {
	r.logger.Info().Str("target", target).Msg("Open or focus window")
	return nil
}
