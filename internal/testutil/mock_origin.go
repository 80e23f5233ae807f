// Package testutil provides testing utilities for the offline worker.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"sync"
)

// MockResponse defines the behavior of a mock origin route.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
}

// MockOrigin is a configurable origin server for testing. It tracks request
// counts per path and can simulate a network outage by severing connections
// before any response bytes are written.
type MockOrigin struct {
	server *httptest.Server

	mu         sync.RWMutex
	routes     map[string]MockResponse
	offline    bool
	pathCounts map[string]int
	total      int
}

// NewMockOrigin creates a mock origin with no routes. Unrouted paths
// return 404.
func NewMockOrigin() *MockOrigin {
	mock := &MockOrigin{
		routes:     make(map[string]MockResponse),
		pathCounts: make(map[string]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.total++
		mock.pathCounts[r.URL.Path]++
		offline := mock.offline
		route, routed := mock.routes[r.URL.Path]
		mock.mu.Unlock()

		if offline {
			// Sever the connection so the client observes a transport
			// error rather than any HTTP response.
			hj, ok := w.(http.Hijacker)
			if !ok {
				panic("testutil: response writer does not support hijacking")
			}
			conn, _, err := hj.Hijack()
			if err != nil {
				panic("testutil: hijack failed: " + err.Error())
			}
			conn.Close()
			return
		}

		if !routed {
			http.NotFound(w, r)
			return
		}

		for k, v := range route.Headers {
			w.Header().Set(k, v)
		}
		status := route.StatusCode
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		w.Write([]byte(route.Body))
	}))

	return mock
}

// URL returns the base URL of the mock origin.
func (m *MockOrigin) URL() string {
	return m.server.URL
}

// Close shuts the server down.
func (m *MockOrigin) Close() {
	m.server.Close()
}

// SetResponse registers or replaces the route for a path.
func (m *MockOrigin) SetResponse(path string, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes[path] = resp
}

// ServeManifest registers a 200 route with a distinct body for every path.
func (m *MockOrigin) ServeManifest(paths []string) {
	for _, p := range paths {
		m.SetResponse(p, MockResponse{
			StatusCode: http.StatusOK,
			Body:       "content of " + p,
			Headers:    map[string]string{"Content-Type": "text/plain"},
		})
	}
}

// SetOffline toggles the simulated network outage.
func (m *MockOrigin) SetOffline(offline bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.offline = offline
}

// Requests returns how many requests hit the given path.
func (m *MockOrigin) Requests(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pathCounts[path]
}

// TotalRequests returns the total number of requests served.
func (m *MockOrigin) TotalRequests() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.total
}
