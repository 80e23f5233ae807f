package integration

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/offlinekit/offline-worker/internal/testutil"
	"github.com/offlinekit/offline-worker/pkg/config"
	"github.com/offlinekit/offline-worker/pkg/store"
	"github.com/offlinekit/offline-worker/pkg/worker"
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedis creates a Redis container for integration testing.
func setupRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})

	cleanup := func() {
		redisClient.Close()
		container.Terminate(ctx)
	}

	return redisClient, cleanup
}

// setupWorker assembles a worker over a Redis-backed store and a mock origin.
func setupWorker(t *testing.T, redisClient *redis.Client, version string) (*worker.Worker, *testutil.MockOrigin, config.Config) {
	t.Helper()

	origin := testutil.NewMockOrigin()
	t.Cleanup(origin.Close)

	cfg := config.Default(origin.URL(), version)
	origin.ServeManifest(cfg.Manifest)

	w, err := worker.New(context.Background(), cfg, store.NewRedisProvider(redisClient), worker.Options{})
	if err != nil {
		t.Fatalf("Failed to assemble worker: %v", err)
	}

	return w, origin, cfg
}

// TestInstallActivateFetchFlow exercises the full lifecycle against Redis:
// install populates the namespace, activate makes it current, and fetch
// serves manifest paths from the cache without touching the origin.
func TestInstallActivateFetchFlow(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	w, origin, cfg := setupWorker(t, redisClient, "v1")
	ctx := context.Background()

	if err := w.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	installFetches := origin.TotalRequests()
	if installFetches != len(cfg.Manifest) {
		t.Errorf("Install fetched %d paths, want %d", installFetches, len(cfg.Manifest))
	}

	// Every manifest path must now come out of Redis, not the origin.
	for _, path := range cfg.Manifest {
		req := httptest.NewRequest("GET", path, nil)
		rec := httptest.NewRecorder()
		w.Handler().ServeHTTP(rec, req)

		resp := rec.Result()
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s status = %d, want 200", path, resp.StatusCode)
		}
		if want := "content of " + path; string(body) != want {
			t.Errorf("GET %s body = %q, want %q", path, string(body), want)
		}
	}

	if origin.TotalRequests() != installFetches {
		t.Errorf("Origin requests after cached fetches = %d, want %d", origin.TotalRequests(), installFetches)
	}
}

// TestActivationRetiresOldVersion upgrades the worker version and verifies
// the previous namespace is removed from Redis.
func TestActivationRetiresOldVersion(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	ctx := context.Background()

	w1, _, _ := setupWorker(t, redisClient, "v1")
	if err := w1.Run(ctx); err != nil {
		t.Fatalf("v1 Run failed: %v", err)
	}

	w2, _, cfg2 := setupWorker(t, redisClient, "v2")
	if err := w2.Run(ctx); err != nil {
		t.Fatalf("v2 Run failed: %v", err)
	}

	provider := store.NewRedisProvider(redisClient)
	namespaces, err := provider.Namespaces(ctx)
	if err != nil {
		t.Fatalf("Namespaces failed: %v", err)
	}
	if len(namespaces) != 1 || namespaces[0] != cfg2.Namespace() {
		t.Errorf("Namespaces after upgrade = %v, want [%s]", namespaces, cfg2.Namespace())
	}
}

// TestOfflineFallback verifies that with the origin gone, navigations get
// the cached root document and subresources get a gateway timeout.
func TestOfflineFallback(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	w, origin, _ := setupWorker(t, redisClient, "v1")
	ctx := context.Background()

	if err := w.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	origin.SetOffline(true)

	// Navigation falls back to the cached root document.
	req := httptest.NewRequest("GET", "/dashboard", nil)
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	rec := httptest.NewRecorder()
	w.Handler().ServeHTTP(rec, req)

	resp := rec.Result()
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Offline navigation status = %d, want 200", resp.StatusCode)
	}
	if string(body) != "content of /" {
		t.Errorf("Offline navigation body = %q, want root document", string(body))
	}

	// Uncached subresources surface the outage.
	req = httptest.NewRequest("GET", "/api/data", nil)
	rec = httptest.NewRecorder()
	w.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusGatewayTimeout {
		t.Errorf("Offline subresource status = %d, want 504", rec.Code)
	}
}

// TestRuntimeWriteBack verifies that an uncached path fetched while online
// is written to Redis and survives the origin going away.
func TestRuntimeWriteBack(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	w, origin, _ := setupWorker(t, redisClient, "v1")
	ctx := context.Background()

	origin.SetResponse("/app.js", testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       "console.log('hi')",
		Headers:    map[string]string{"Content-Type": "application/javascript"},
	})

	if err := w.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	req := httptest.NewRequest("GET", "/app.js", nil)
	rec := httptest.NewRecorder()
	w.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("Online fetch status = %d, want 200", rec.Code)
	}

	// The write-back is registered work; drain before cutting the origin.
	drainCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := w.Shutdown(drainCtx); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}

	origin.SetOffline(true)

	req = httptest.NewRequest("GET", "/app.js", nil)
	rec = httptest.NewRecorder()
	w.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Cached fetch status = %d, want 200", rec.Code)
	}
	if got := rec.Body.String(); got != "console.log('hi')" {
		t.Errorf("Cached fetch body = %q, want original script", got)
	}
}

// TestPushAndSyncEndpoints smoke-tests the event endpoints end to end.
func TestPushAndSyncEndpoints(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	w, _, _ := setupWorker(t, redisClient, "v1")
	ctx := context.Background()

	if err := w.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	req := httptest.NewRequest("POST", worker.PushPath, strings.NewReader("deploy finished"))
	rec := httptest.NewRecorder()
	w.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Errorf("Push status = %d, want 201", rec.Code)
	}
	if rec.Body.Len() == 0 {
		t.Error("Push response missing notification id")
	}

	req = httptest.NewRequest("POST", worker.SyncPath+"?tag=background-sync", nil)
	rec = httptest.NewRecorder()
	w.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("Sync status = %d, want 204", rec.Code)
	}
}
