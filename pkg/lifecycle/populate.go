package lifecycle

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/offlinekit/offline-worker/pkg/store"
)

// populateConcurrency is the number of parallel manifest fetches.
const populateConcurrency = 4

// populate fetches every manifest path in parallel using a bounded worker
// pool and writes the snapshots into the namespace. All-or-nothing: the
// first failure cancels the remaining fetches and fails the populate.
func (m *Manager) populate(ctx context.Context, handle store.Handle) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan string)
	errc := make(chan error, 1)

	fail := func(err error) {
		select {
		case errc <- err:
		default:
		}
		cancel()
	}

	var wg sync.WaitGroup
	for i := 0; i < populateConcurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				if err := m.populateOne(ctx, handle, path); err != nil {
					fail(err)
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, path := range m.cfg.Manifest {
			select {
			case jobs <- path:
			case <-ctx.Done():
				return
			}
		}
	}()

	wg.Wait()

	select {
	case err := <-errc:
		return err
	default:
	}
	if err := ctx.Err(); err != nil {
		return &InstallError{Err: err}
	}
	return nil
}

// populateOne fetches a single manifest path and stores its snapshot.
// Anything but a 200 counts as failure; a namespace missing even one
// manifest entry must never become current.
func (m *Manager) populateOne(ctx context.Context, handle store.Handle, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.cfg.Origin+path, nil)
	if err != nil {
		return &InstallError{Path: path, Err: err}
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return &InstallError{Path: path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &InstallError{Path: path, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	entry, err := store.Snapshot(resp, m.cfg.OriginHost())
	if err != nil {
		return &InstallError{Path: path, Err: err}
	}

	if err := handle.Write(ctx, store.KeyForPath(path), entry); err != nil {
		return &InstallError{Path: path, Err: err}
	}

	m.logger.Debug().Str("path", path).Int("bytes", len(entry.Body)).Msg("Cached manifest entry")
	return nil
}
