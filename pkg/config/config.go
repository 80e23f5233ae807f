// Package config provides the immutable worker configuration. A Config is
// constructed once at startup (from a YAML file plus defaults) and threaded
// into the lifecycle manager, fetch interceptor, and notification handler.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultCacheName is the logical cache name combined with Version to
	// form the namespace tag.
	DefaultCacheName = "offline"

	// DefaultRootDocument is the path served as a substitute page when a
	// navigation fails offline.
	DefaultRootDocument = "/"

	// DefaultFetchTimeout bounds a single network fetch.
	DefaultFetchTimeout = 30 * time.Second
)

// Notification holds the fixed display parameters for push notifications.
type Notification struct {
	// FallbackBody is used when a push event carries no payload.
	FallbackBody string `yaml:"fallbackBody"`

	// Icon is the notification icon path.
	Icon string `yaml:"icon"`

	// Badge is the notification badge path.
	Badge string `yaml:"badge"`

	// Vibration is the on/off/on vibration pattern in milliseconds.
	Vibration []int `yaml:"vibration"`
}

// Config is the worker configuration. It is read-only after Load returns.
type Config struct {
	// Origin is the base URL of the application this worker fronts.
	Origin string `yaml:"origin"`

	// CacheName is the logical name of the cache (default "offline").
	CacheName string `yaml:"cacheName"`

	// Version is the deploy version tag. Bumping it is the only supported
	// cache-invalidation mechanism.
	Version string `yaml:"version"`

	// Manifest is the ordered list of paths that must be cached at install
	// time. Install fails entirely if any of them cannot be fetched.
	Manifest []string `yaml:"manifest"`

	// RootDocument is the manifest path returned for offline navigations.
	RootDocument string `yaml:"rootDocument"`

	// FetchTimeout bounds each network fetch issued by the worker.
	FetchTimeout time.Duration `yaml:"fetchTimeout"`

	Notification Notification `yaml:"notification"`
}

// DefaultManifest is the fixed resource list cached at install: the root
// document, the status endpoint, the web-app descriptor, and the icon set.
func DefaultManifest() []string {
	return []string{
		"/",
		"/healthz",
		"/manifest.json",
		"/images/icons/icon-16x16.png",
		"/images/icons/icon-32x32.png",
		"/images/icons/icon-192x192.png",
		"/images/icons/icon-512x512.png",
	}
}

// Default returns a configuration with all defaults applied for the given
// origin and version.
func Default(origin, version string) Config {
	cfg := Config{
		Origin:  origin,
		Version: version,
	}
	cfg.applyDefaults()
	return cfg
}

// Load reads and validates a YAML configuration file.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.CacheName == "" {
		c.CacheName = DefaultCacheName
	}
	if c.RootDocument == "" {
		c.RootDocument = DefaultRootDocument
	}
	if len(c.Manifest) == 0 {
		c.Manifest = DefaultManifest()
	}
	if c.FetchTimeout == 0 {
		c.FetchTimeout = DefaultFetchTimeout
	}
	if c.Notification.FallbackBody == "" {
		c.Notification.FallbackBody = "New content is available."
	}
	if c.Notification.Icon == "" {
		c.Notification.Icon = "/images/icons/icon-192x192.png"
	}
	if c.Notification.Badge == "" {
		c.Notification.Badge = "/images/icons/icon-32x32.png"
	}
	if len(c.Notification.Vibration) == 0 {
		c.Notification.Vibration = []int{100, 50, 100}
	}
	c.Origin = strings.TrimRight(c.Origin, "/")
}

// Validate checks the configuration for completeness.
func (c Config) Validate() error {
	if c.Origin == "" {
		return fmt.Errorf("origin is required")
	}
	u, err := url.Parse(c.Origin)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("origin must be an absolute URL, got %q", c.Origin)
	}
	if c.Version == "" {
		return fmt.Errorf("version is required")
	}
	if strings.Contains(c.Version, "|") || strings.Contains(c.CacheName, "|") {
		return fmt.Errorf("cache name and version must not contain %q", "|")
	}
	for i, p := range c.Manifest {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("manifest[%d]: path %q must start with /", i, p)
		}
	}
	if !contains(c.Manifest, c.RootDocument) {
		return fmt.Errorf("root document %q must be part of the manifest", c.RootDocument)
	}
	return nil
}

// Namespace returns the versioned namespace tag for this deploy.
func (c Config) Namespace() string {
	return c.CacheName + "-" + c.Version
}

// OriginHost returns the host portion of the configured origin.
func (c Config) OriginHost() string {
	u, err := url.Parse(c.Origin)
	if err != nil {
		return ""
	}
	return u.Host
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
