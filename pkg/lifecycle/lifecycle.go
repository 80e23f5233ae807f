// Package lifecycle manages the worker's install/activate state machine and
// the versioned cache namespaces it governs.
//
// On install the manager opens a freshly named namespace and pre-populates
// it with every manifest path; a single failure fails the whole install. On
// activate it retires every namespace that does not match the current
// version tag, leaving exactly one. A worker that cannot guarantee its
// offline manifest is not allowed to take over.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/offlinekit/offline-worker/pkg/config"
	"github.com/offlinekit/offline-worker/pkg/store"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// State is the lifecycle state of the worker version this manager governs.
type State string

const (
	// StateNew is the initial state before install begins.
	StateNew State = "new"

	// StateInstalling means the manifest is being populated.
	StateInstalling State = "installing"

	// StateInstalled means the namespace holds the full manifest.
	StateInstalled State = "installed"

	// StateActivating means stale namespaces are being retired.
	StateActivating State = "activating"

	// StateActive means this version's namespace is the only one left.
	StateActive State = "active"

	// StateSuperseded is terminal: a newer install has activated.
	StateSuperseded State = "superseded"
)

var (
	// ErrBadTransition indicates an operation was attempted from a state
	// that does not allow it.
	ErrBadTransition = errors.New("invalid lifecycle transition")

	// ErrNotReady indicates no installed namespace is available yet.
	ErrNotReady = errors.New("no installed namespace")
)

// InstallError wraps the first manifest failure that aborted an install.
type InstallError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *InstallError) Error() string {
	return fmt.Sprintf("install failed at %s: %v", e.Path, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *InstallError) Unwrap() error {
	return e.Err
}

// Manager drives a single worker version through
// new -> installing -> installed -> activating -> active, with superseded as
// the terminal state once a newer version activates.
type Manager struct {
	cfg      config.Config
	provider store.Provider
	client   *http.Client
	logger   zerolog.Logger

	mu     sync.Mutex
	state  State
	handle store.Handle
}

// NewManager creates a lifecycle manager. The HTTP client is used to fetch
// manifest resources from the configured origin during install.
func NewManager(cfg config.Config, provider store.Provider, client *http.Client) (*Manager, error) {
	if provider == nil {
		return nil, fmt.Errorf("store provider is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.FetchTimeout}
	}
	return &Manager{
		cfg:      cfg,
		provider: provider,
		client:   client,
		logger:   log.With().Str("component", "lifecycle").Str("namespace", cfg.Namespace()).Logger(),
		state:    StateNew,
	}, nil
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Handle returns the current namespace handle. It is available from the
// moment install completes until the manager is superseded.
func (m *Manager) Handle() (store.Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.handle == nil || m.state == StateSuperseded {
		return nil, ErrNotReady
	}
	return m.handle, nil
}

// Install opens the versioned namespace and populates it with the manifest.
// All-or-nothing: if any manifest path fails, the install fails entirely,
// the manager returns to StateNew, and the namespace is never exposed as
// current. The host may retry on the next load.
func (m *Manager) Install(ctx context.Context) error {
	if err := m.transition(StateNew, StateInstalling); err != nil {
		return err
	}

	m.logger.Info().
		Int("manifest_entries", len(m.cfg.Manifest)).
		Msg("Installing worker version")

	handle, err := m.provider.Open(ctx, m.cfg.Namespace())
	if err != nil {
		m.revert(StateNew)
		installsTotal.WithLabelValues("failure").Inc()
		return &InstallError{Path: "", Err: fmt.Errorf("open namespace: %w", err)}
	}

	if err := m.populate(ctx, handle); err != nil {
		m.revert(StateNew)
		installsTotal.WithLabelValues("failure").Inc()
		m.logger.Error().Err(err).Msg("Install failed")
		return err
	}

	m.mu.Lock()
	m.state = StateInstalled
	m.handle = handle
	m.mu.Unlock()

	installsTotal.WithLabelValues("success").Inc()
	m.logger.Info().Msg("Install complete")
	return nil
}

// Activate retires every namespace that is not the current version tag.
// It runs unconditionally and is idempotent: deleting an already-removed
// namespace is a no-op, and re-activating an active manager is allowed.
// After it returns, exactly one namespace remains.
func (m *Manager) Activate(ctx context.Context) error {
	m.mu.Lock()
	prev := m.state
	if prev != StateInstalled && prev != StateActive {
		m.mu.Unlock()
		return fmt.Errorf("%w: activate from %s", ErrBadTransition, prev)
	}
	m.state = StateActivating
	m.mu.Unlock()

	namespaces, err := m.provider.Namespaces(ctx)
	if err != nil {
		m.revert(prev)
		return fmt.Errorf("enumerate namespaces: %w", err)
	}

	current := m.cfg.Namespace()
	for _, ns := range namespaces {
		if ns == current {
			continue
		}
		if err := m.provider.Delete(ctx, ns); err != nil {
			m.revert(prev)
			return fmt.Errorf("delete namespace %s: %w", ns, err)
		}
		namespacesDeleted.Inc()
		m.logger.Info().Str("stale_namespace", ns).Msg("Retired stale namespace")
	}

	m.mu.Lock()
	m.state = StateActive
	m.mu.Unlock()

	activationsTotal.Inc()
	m.logger.Info().Msg("Activation complete")
	return nil
}

// Supersede marks this version as replaced by a newer install. Terminal:
// the handle is withdrawn and no further transitions are possible.
func (m *Manager) Supersede() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = StateSuperseded
	m.handle = nil
	m.logger.Info().Msg("Worker version superseded")
}

func (m *Manager) transition(from, to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != from {
		return fmt.Errorf("%w: %s -> %s (current %s)", ErrBadTransition, from, to, m.state)
	}
	m.state = to
	return nil
}

func (m *Manager) revert(to State) {
	m.mu.Lock()
	m.state = to
	m.mu.Unlock()
}
