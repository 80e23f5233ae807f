// Package notify decodes inbound push payloads into structured display
// requests and reacts to user interaction with them.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/offlinekit/offline-worker/pkg/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Action identifiers meaningful to the interaction handler. Any other
// action, including the explicit close action, performs no further side
// effect beyond closing the notification.
const (
	ActionExplore = "explore"
	ActionClose   = "close"
)

// PrimaryKey is the static correlation key embedded in every notification
// payload, used to match an interaction back to its originating event.
const PrimaryKey = 1

// Action is a selectable notification action.
type Action struct {
	ID    string
	Title string
	Icon  string
}

// Payload is the structured data carried by a notification.
type Payload struct {
	// Timestamp is when the push event arrived.
	Timestamp time.Time

	// PrimaryKey is the application-defined correlation key.
	PrimaryKey int
}

// Request is a transient display request built per push event and discarded
// once the display call has been issued to the host.
type Request struct {
	Body      string
	Icon      string
	Badge     string
	Vibration []int
	Data      Payload
	Actions   []Action
}

// Interaction describes a user's interaction with a displayed notification.
type Interaction struct {
	// NotificationID identifies the displayed notification.
	NotificationID string

	// Action is the selected action ID, empty when the notification body
	// itself was tapped or dismissed.
	Action string
}

// Presenter is the host capability that displays and closes system
// notifications.
type Presenter interface {
	Show(ctx context.Context, id string, req Request) error
	Close(ctx context.Context, id string) error
}

// ClientRegistry is the host capability that opens or focuses an
// application window.
type ClientRegistry interface {
	OpenWindow(ctx context.Context, target string) error
}

// Handler owns push decoding and interaction handling.
type Handler struct {
	cfg       config.Notification
	root      string
	presenter Presenter
	clients   ClientRegistry
	logger    zerolog.Logger
	now       func() time.Time
}

// NewHandler creates a notification handler. The root path is the window
// target for the explore action.
func NewHandler(cfg config.Notification, root string, presenter Presenter, clients ClientRegistry) (*Handler, error) {
	if presenter == nil {
		return nil, fmt.Errorf("presenter is required")
	}
	if clients == nil {
		return nil, fmt.Errorf("client registry is required")
	}
	return &Handler{
		cfg:       cfg,
		root:      root,
		presenter: presenter,
		clients:   clients,
		logger:    log.With().Str("component", "notify").Logger(),
		now:       time.Now,
	}, nil
}

// Decode builds a display request from a raw push payload. An absent
// payload maps to the fixed fallback body; present text is used exactly.
func (h *Handler) Decode(payload []byte) Request {
	body := h.cfg.FallbackBody
	if len(payload) > 0 {
		body = string(payload)
	}
	return Request{
		Body:      body,
		Icon:      h.cfg.Icon,
		Badge:     h.cfg.Badge,
		Vibration: append([]int(nil), h.cfg.Vibration...),
		Data: Payload{
			Timestamp:  h.now(),
			PrimaryKey: PrimaryKey,
		},
		Actions: []Action{
			{ID: ActionExplore, Title: "Open App", Icon: h.cfg.Icon},
			{ID: ActionClose, Title: "Close", Icon: h.cfg.Icon},
		},
	}
}

// HandlePush decodes the payload and requests the host display it. The call
// is awaited; the worker wires it into the push event's lifetime so it is
// not torn down before the display settles. Returns the notification ID.
func (h *Handler) HandlePush(ctx context.Context, payload []byte) (string, error) {
	req := h.Decode(payload)
	id := uuid.NewString()

	if err := h.presenter.Show(ctx, id, req); err != nil {
		displayFailures.Inc()
		h.logger.Error().Err(err).Str("notification_id", id).Msg("Notification display failed")
		return "", fmt.Errorf("display notification: %w", err)
	}

	notificationsShown.Inc()
	h.logger.Info().Str("notification_id", id).Msg("Notification displayed")
	return id, nil
}

// HandleInteraction closes the notification first, always. Only the explore
// action additionally opens or focuses a window at the application root.
func (h *Handler) HandleInteraction(ctx context.Context, in Interaction) error {
	if err := h.presenter.Close(ctx, in.NotificationID); err != nil {
		h.logger.Warn().Err(err).Str("notification_id", in.NotificationID).Msg("Failed to close notification")
	}

	action := in.Action
	if action == "" {
		action = "none"
	}
	interactionsTotal.WithLabelValues(action).Inc()

	if in.Action != ActionExplore {
		return nil
	}

	if err := h.clients.OpenWindow(ctx, h.root); err != nil {
		return fmt.Errorf("open window: %w", err)
	}
	h.logger.Info().Str("notification_id", in.NotificationID).Msg("Opened app window")
	return nil
}
