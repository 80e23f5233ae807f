package worker

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/offlinekit/offline-worker/pkg/fetch"
	"github.com/offlinekit/offline-worker/pkg/notify"
)

// Control endpoints for out-of-band events. Everything else is treated as
// an intercepted fetch.
const (
	PushPath        = "/_worker/push"
	SyncPath        = "/_worker/sync"
	InteractionPath = "/_worker/interaction"
)

// Handler returns the worker's HTTP surface: intercepted fetches on every
// path, plus control endpoints for push, sync, and notification
// interaction events.
func (w *Worker) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(PushPath, w.servePush)
	mux.HandleFunc(SyncPath, w.serveSync)
	mux.HandleFunc(InteractionPath, w.serveInteraction)
	mux.HandleFunc("/", w.serveFetch)
	return mux
}

func (w *Worker) serveFetch(rw http.ResponseWriter, r *http.Request) {
	resp, err := w.HandleFetch(r.Context(), r)
	if err != nil {
		if errors.Is(err, fetch.ErrOffline) {
			http.Error(rw, "offline and not cached", http.StatusGatewayTimeout)
			return
		}
		http.Error(rw, fmt.Sprintf("fetch failed: %v", err), http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	for key, values := range resp.Header {
		for _, value := range values {
			rw.Header().Add(key, value)
		}
	}
	rw.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(rw, resp.Body); err != nil {
		w.logger.Warn().Err(err).Msg("Failed to write response body")
	}
}

func (w *Worker) servePush(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(rw, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(rw, "read payload", http.StatusBadRequest)
		return
	}

	id, err := w.HandlePush(r.Context(), payload)
	if err != nil {
		http.Error(rw, fmt.Sprintf("push failed: %v", err), http.StatusInternalServerError)
		return
	}

	rw.Header().Set("Content-Type", "text/plain")
	rw.WriteHeader(http.StatusCreated)
	fmt.Fprintln(rw, id)
}

func (w *Worker) serveSync(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(rw, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := w.HandleSync(r.Context(), r.URL.Query().Get("tag")); err != nil {
		http.Error(rw, fmt.Sprintf("sync failed: %v", err), http.StatusInternalServerError)
		return
	}
	rw.WriteHeader(http.StatusNoContent)
}

func (w *Worker) serveInteraction(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(rw, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(rw, "parse form", http.StatusBadRequest)
		return
	}
	in := notify.Interaction{
		NotificationID: r.PostForm.Get("id"),
		Action:         r.PostForm.Get("action"),
	}
	if in.NotificationID == "" {
		http.Error(rw, "id is required", http.StatusBadRequest)
		return
	}

	if err := w.HandleInteraction(r.Context(), in); err != nil {
		http.Error(rw, fmt.Sprintf("interaction failed: %v", err), http.StatusInternalServerError)
		return
	}
	rw.WriteHeader(http.StatusNoContent)
}
