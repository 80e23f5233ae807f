package store

import (
	"net/http"
	"strings"
)

// Key is the canonical request identity: method plus origin-relative URL.
// Only GET responses are ever stored, but any request can be looked up.
type Key struct {
	// Method is the upper-cased HTTP method.
	Method string

	// URL is the origin-relative request URI (path plus query).
	URL string
}

// KeyFor derives the cache key for an incoming request.
func KeyFor(req *http.Request) Key {
	return Key{
		Method: strings.ToUpper(req.Method),
		URL:    req.URL.RequestURI(),
	}
}

// KeyForPath returns the GET key for an origin-relative path. Manifest
// entries are keyed this way at install time.
func KeyForPath(path string) Key {
	return Key{Method: http.MethodGet, URL: path}
}

// String generates a deterministic key string.
// Format: METHOD URL, e.g. "GET /healthz".
func (k Key) String() string {
	return k.Method + " " + k.URL
}

// ParseKey is the inverse of String. Malformed input yields a zero Key.
func ParseKey(s string) Key {
	method, url, ok := strings.Cut(s, " ")
	if !ok {
		return Key{}
	}
	return Key{Method: method, URL: url}
}
