package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/offlinekit/offline-worker/internal/testutil"
	"github.com/offlinekit/offline-worker/pkg/config"
	"github.com/offlinekit/offline-worker/pkg/store"
)

// staticSource serves a fixed handle.
type staticSource struct {
	handle store.Handle
	err    error
}

func (s *staticSource) Handle() (store.Handle, error) {
	return s.handle, s.err
}

// syncExtender runs extended work inline so tests observe cache writes
// deterministically.
type syncExtender struct {
	mu   sync.Mutex
	errs []error
}

func (e *syncExtender) Extend(event string, fn func(context.Context) error) {
	err := fn(context.Background())
	e.mu.Lock()
	e.errs = append(e.errs, err)
	e.mu.Unlock()
}

func (e *syncExtender) writeErrors() []error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]error(nil), e.errs...)
}

// failWrites wraps a handle and fails every write.
type failWrites struct {
	store.Handle
}

func (failWrites) Write(ctx context.Context, key store.Key, entry *store.Entry) error {
	return fmt.Errorf("disk full")
}

type fixture struct {
	interceptor *Interceptor
	origin      *testutil.MockOrigin
	handle      store.Handle
	extender    *syncExtender
	cfg         config.Config
}

func setup(t *testing.T) *fixture {
	t.Helper()

	origin := testutil.NewMockOrigin()
	t.Cleanup(origin.Close)

	cfg := config.Default(origin.URL(), "v1")
	origin.ServeManifest(cfg.Manifest)

	provider := store.NewMemoryProvider()
	handle, err := provider.Open(context.Background(), cfg.Namespace())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	ext := &syncExtender{}
	interceptor, err := NewInterceptor(cfg, &staticSource{handle: handle}, nil, ext)
	if err != nil {
		t.Fatalf("NewInterceptor() error = %v", err)
	}

	return &fixture{
		interceptor: interceptor,
		origin:      origin,
		handle:      handle,
		extender:    ext,
		cfg:         cfg,
	}
}

// cacheRoot stores a root document snapshot directly, as install would.
func (f *fixture) cacheRoot(t *testing.T, body string) {
	t.Helper()
	err := f.handle.Write(context.Background(), store.KeyForPath(f.cfg.RootDocument), &store.Entry{
		Status: http.StatusOK,
		Header: http.Header{"Content-Type": []string{"text/html"}},
		Body:   []byte(body),
		Origin: store.OriginBasic,
	})
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(body)
}

func TestNewInterceptor_Validation(t *testing.T) {
	cfg := config.Default("http://x.local", "v1")
	if _, err := NewInterceptor(cfg, nil, nil, &syncExtender{}); err == nil {
		t.Error("NewInterceptor() with nil source expected error")
	}
	if _, err := NewInterceptor(cfg, &staticSource{}, nil, nil); err == nil {
		t.Error("NewInterceptor() with nil extender expected error")
	}
}

func TestIntercept_CacheHit_NoNetworkCall(t *testing.T) {
	f := setup(t)
	f.cacheRoot(t, "<html>cached root</html>")

	req := httptest.NewRequest("GET", "http://worker.local/", nil)
	resp, err := f.interceptor.Intercept(context.Background(), req)
	if err != nil {
		t.Fatalf("Intercept() error = %v", err)
	}

	if got := readBody(t, resp); got != "<html>cached root</html>" {
		t.Errorf("body = %q, want cached content", got)
	}
	if n := f.origin.TotalRequests(); n != 0 {
		t.Errorf("origin received %d requests for a cached URL, want 0", n)
	}
}

func TestIntercept_CacheHit_IgnoresNetworkMutation(t *testing.T) {
	f := setup(t)
	f.cacheRoot(t, "old")

	// Mutating the origin after the entry is cached must not change what
	// is returned.
	f.origin.SetResponse("/", testutil.MockResponse{StatusCode: 200, Body: "new"})

	req := httptest.NewRequest("GET", "http://worker.local/", nil)
	resp, err := f.interceptor.Intercept(context.Background(), req)
	if err != nil {
		t.Fatalf("Intercept() error = %v", err)
	}
	if got := readBody(t, resp); got != "old" {
		t.Errorf("body = %q, want cached %q", got, "old")
	}
}

func TestIntercept_NetworkThenCache(t *testing.T) {
	f := setup(t)

	req := httptest.NewRequest("GET", "http://worker.local/healthz", nil)
	resp, err := f.interceptor.Intercept(context.Background(), req)
	if err != nil {
		t.Fatalf("Intercept() error = %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if got := readBody(t, resp); got != "content of /healthz" {
		t.Errorf("body = %q, want origin content", got)
	}
	if n := f.origin.Requests("/healthz"); n != 1 {
		t.Fatalf("origin requests = %d, want 1", n)
	}
	for _, err := range f.extender.writeErrors() {
		if err != nil {
			t.Fatalf("cache write error = %v", err)
		}
	}

	// Second identical request is served from cache without network access.
	resp, err = f.interceptor.Intercept(context.Background(), httptest.NewRequest("GET", "http://worker.local/healthz", nil))
	if err != nil {
		t.Fatalf("second Intercept() error = %v", err)
	}
	if got := readBody(t, resp); got != "content of /healthz" {
		t.Errorf("second body = %q, want cached content", got)
	}
	if n := f.origin.Requests("/healthz"); n != 1 {
		t.Errorf("origin requests = %d after cached re-request, want 1", n)
	}
}

func TestIntercept_NotCacheable(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *fixture) *http.Request
	}{
		{
			name: "non-GET method",
			setup: func(f *fixture) *http.Request {
				f.origin.SetResponse("/api/submit", testutil.MockResponse{StatusCode: 200, Body: "ok"})
				return httptest.NewRequest("POST", "http://worker.local/api/submit", nil)
			},
		},
		{
			name: "non-200 status",
			setup: func(f *fixture) *http.Request {
				f.origin.SetResponse("/missing", testutil.MockResponse{StatusCode: 404, Body: "nope"})
				return httptest.NewRequest("GET", "http://worker.local/missing", nil)
			},
		},
		{
			name: "non-2xx redirect target kept out of cache",
			setup: func(f *fixture) *http.Request {
				f.origin.SetResponse("/tmp", testutil.MockResponse{
					StatusCode: 302,
					Headers:    map[string]string{"Location": "/missing"},
				})
				f.origin.SetResponse("/missing", testutil.MockResponse{StatusCode: 404, Body: "nope"})
				return httptest.NewRequest("GET", "http://worker.local/tmp", nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t)
			req := tt.setup(f)
			key := store.KeyFor(req)

			resp, err := f.interceptor.Intercept(context.Background(), req)
			if err != nil {
				t.Fatalf("Intercept() error = %v", err)
			}
			resp.Body.Close()

			if _, err := f.handle.Lookup(context.Background(), key); !errors.Is(err, store.ErrCacheMiss) {
				t.Errorf("response was cached: lookup error = %v, want ErrCacheMiss", err)
			}
		})
	}
}

func TestIntercept_CrossOriginNotCached(t *testing.T) {
	f := setup(t)

	// A redirect landing on a foreign host is not a basic response.
	other := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("external"))
	}))
	t.Cleanup(other.Close)

	f.origin.SetResponse("/external", testutil.MockResponse{
		StatusCode: 302,
		Headers:    map[string]string{"Location": other.URL + "/resource"},
	})

	req := httptest.NewRequest("GET", "http://worker.local/external", nil)
	resp, err := f.interceptor.Intercept(context.Background(), req)
	if err != nil {
		t.Fatalf("Intercept() error = %v", err)
	}
	if got := readBody(t, resp); got != "external" {
		t.Errorf("body = %q, want pass-through of external content", got)
	}

	if _, err := f.handle.Lookup(context.Background(), store.KeyFor(req)); !errors.Is(err, store.ErrCacheMiss) {
		t.Errorf("cross-origin response was cached: lookup error = %v, want ErrCacheMiss", err)
	}
}

func TestIntercept_OfflineNavigation_FallsBackToRoot(t *testing.T) {
	f := setup(t)
	f.cacheRoot(t, "<html>offline root</html>")
	f.origin.SetOffline(true)

	req := httptest.NewRequest("GET", "http://worker.local/articles/42", nil)
	req.Header.Set("Sec-Fetch-Mode", "navigate")

	resp, err := f.interceptor.Intercept(context.Background(), req)
	if err != nil {
		t.Fatalf("Intercept() error = %v", err)
	}
	if got := readBody(t, resp); got != "<html>offline root</html>" {
		t.Errorf("body = %q, want cached root document", got)
	}
}

func TestIntercept_OfflineNavigation_AcceptHeader(t *testing.T) {
	f := setup(t)
	f.cacheRoot(t, "root")
	f.origin.SetOffline(true)

	req := httptest.NewRequest("GET", "http://worker.local/page", nil)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.interceptor.Intercept(context.Background(), req)
	if err != nil {
		t.Fatalf("Intercept() error = %v", err)
	}
	if got := readBody(t, resp); got != "root" {
		t.Errorf("body = %q, want cached root document", got)
	}
}

func TestIntercept_OfflineSubresource_Fails(t *testing.T) {
	f := setup(t)
	f.cacheRoot(t, "root")
	f.origin.SetOffline(true)

	// Subresource failures are not masked with stand-ins.
	req := httptest.NewRequest("GET", "http://worker.local/api/data.json", nil)
	req.Header.Set("Accept", "application/json")

	_, err := f.interceptor.Intercept(context.Background(), req)
	if !errors.Is(err, ErrOffline) {
		t.Errorf("Intercept() error = %v, want ErrOffline", err)
	}
}

func TestIntercept_OfflineNavigation_NoRootCached(t *testing.T) {
	f := setup(t)
	f.origin.SetOffline(true)

	req := httptest.NewRequest("GET", "http://worker.local/page", nil)
	req.Header.Set("Sec-Fetch-Mode", "navigate")

	if _, err := f.interceptor.Intercept(context.Background(), req); !errors.Is(err, ErrOffline) {
		t.Errorf("Intercept() error = %v, want ErrOffline", err)
	}
}

func TestIntercept_CacheWriteFailure_NotPropagated(t *testing.T) {
	f := setup(t)

	failing := failWrites{f.handle}
	interceptor, err := NewInterceptor(f.cfg, &staticSource{handle: failing}, nil, f.extender)
	if err != nil {
		t.Fatalf("NewInterceptor() error = %v", err)
	}

	req := httptest.NewRequest("GET", "http://worker.local/healthz", nil)
	resp, err := interceptor.Intercept(context.Background(), req)
	if err != nil {
		t.Fatalf("Intercept() error = %v, caching is best-effort", err)
	}
	if got := readBody(t, resp); got != "content of /healthz" {
		t.Errorf("body = %q, want live response despite failed cache write", got)
	}

	errs := f.extender.writeErrors()
	if len(errs) == 0 || errs[len(errs)-1] == nil {
		t.Error("expected the failed cache write to surface to the lifetime registry")
	}
}

func TestIntercept_NoNamespace_BypassesCache(t *testing.T) {
	f := setup(t)

	interceptor, err := NewInterceptor(f.cfg, &staticSource{err: errors.New("not installed")}, nil, f.extender)
	if err != nil {
		t.Fatalf("NewInterceptor() error = %v", err)
	}

	req := httptest.NewRequest("GET", "http://worker.local/healthz", nil)
	resp, err := interceptor.Intercept(context.Background(), req)
	if err != nil {
		t.Fatalf("Intercept() error = %v", err)
	}
	if got := readBody(t, resp); got != "content of /healthz" {
		t.Errorf("body = %q, want origin content", got)
	}
}
