package store

import (
	"net/http"
	"time"
)

// OriginClass classifies where a response came from relative to the
// configured origin.
type OriginClass string

const (
	// OriginBasic is a same-origin response; the only class the worker
	// will ever persist.
	OriginBasic OriginClass = "basic"

	// OriginCORS is a cross-origin response readable via CORS.
	OriginCORS OriginClass = "cors"

	// OriginOpaque is a cross-origin response whose contents are not
	// inspectable.
	OriginOpaque OriginClass = "opaque"
)

// Entry is an immutable snapshot of a response. Entries are owned by the
// namespace that created them and are never mutated in place; a new deploy
// supersedes them wholesale by bumping the namespace version.
type Entry struct {
	// Status is the HTTP status code of the snapshot.
	Status int `json:"status"`

	// Header holds the response headers.
	Header http.Header `json:"header"`

	// Body is the response body.
	Body []byte `json:"body"`

	// Origin is the response's origin classification.
	Origin OriginClass `json:"origin"`

	// CachedAt is when the snapshot was taken.
	CachedAt time.Time `json:"cached_at"`
}

// Clone returns a deep copy of the entry. Handles return clones so callers
// can never mutate stored state.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	clone := &Entry{
		Status:   e.Status,
		Header:   e.Header.Clone(),
		Origin:   e.Origin,
		CachedAt: e.CachedAt,
	}
	if e.Body != nil {
		clone.Body = make([]byte, len(e.Body))
		copy(clone.Body, e.Body)
	}
	return clone
}
