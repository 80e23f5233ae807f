package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/offlinekit/offline-worker/pkg/config"
	"github.com/offlinekit/offline-worker/pkg/logging"
	"github.com/offlinekit/offline-worker/pkg/store"
	"github.com/offlinekit/offline-worker/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// envConfig is the process-level configuration; the worker configuration
// (origin, version, manifest) lives in the YAML file.
type envConfig struct {
	Addr        string `env:"WORKER_ADDR" envDefault:":8080"`
	ConfigPath  string `env:"WORKER_CONFIG" envDefault:"worker.yaml"`
	Backend     string `env:"WORKER_BACKEND" envDefault:"leveldb"`
	RedisURL    string `env:"REDIS_URL" envDefault:"localhost:6379"`
	LevelDBPath string `env:"LEVELDB_PATH" envDefault:"./data/cache"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty   bool   `env:"LOG_PRETTY" envDefault:"false"`
}

func main() {
	var ec envConfig
	if err := env.Parse(&ec); err != nil {
		fmt.Fprintf(os.Stderr, "parse environment: %v\n", err)
		os.Exit(1)
	}

	logging.Setup(logging.Config{
		Level:  logging.LogLevel(ec.LogLevel),
		Pretty: ec.LogPretty,
		Output: os.Stderr,
	})

	cfg, err := config.Load(ec.ConfigPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", ec.ConfigPath).Msg("Failed to load worker config")
	}

	provider, closeProvider, err := newProvider(ec)
	if err != nil {
		log.Fatal().Err(err).Str("backend", ec.Backend).Msg("Failed to open cache store")
	}
	defer closeProvider()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w, err := worker.New(ctx, cfg, provider, worker.Options{})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to assemble worker")
	}

	if err := w.Run(ctx); err != nil {
		// The host retains the previous worker version and may retry on
		// the next load; an incomplete manifest must never take over.
		log.Fatal().Err(err).Msg("Install failed")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", healthHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", w.Handler())

	server := &http.Server{
		Addr:    ec.Addr,
		Handler: mux,
	}

	go func() {
		log.Info().
			Str("addr", ec.Addr).
			Str("namespace", cfg.Namespace()).
			Str("backend", ec.Backend).
			Msg("Starting offline worker")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("Server shutdown incomplete")
	}
	if err := w.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("In-flight work did not settle before shutdown")
	}
}

// newProvider constructs the configured store backend.
func newProvider(ec envConfig) (store.Provider, func(), error) {
	switch ec.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: ec.RedisURL})
		if err := client.Ping(context.Background()).Err(); err != nil {
			return nil, nil, fmt.Errorf("connect to redis at %s: %w", ec.RedisURL, err)
		}
		return store.NewRedisProvider(client), func() { client.Close() }, nil
	case "leveldb":
		provider, err := store.OpenLevelDB(ec.LevelDBPath)
		if err != nil {
			return nil, nil, err
		}
		return provider, func() { provider.Close() }, nil
	case "memory":
		return store.NewMemoryProvider(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q (want redis, leveldb, or memory)", ec.Backend)
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}
