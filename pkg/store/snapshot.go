package store

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Snapshot duplicates an HTTP response into an Entry. The response body is
// consumed exactly once and restored afterwards, so one copy can be returned
// to the caller while the other is persisted. This is the two-copy contract:
// never consume a response body twice.
func Snapshot(resp *http.Response, originHost string) (*Entry, error) {
	if resp == nil {
		return nil, fmt.Errorf("response cannot be nil")
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	resp.Body.Close()

	// Restore body for the caller
	resp.Body = io.NopCloser(bytes.NewReader(body))

	return &Entry{
		Status:   resp.StatusCode,
		Header:   resp.Header.Clone(),
		Body:     body,
		Origin:   ClassifyOrigin(resp, originHost),
		CachedAt: time.Now(),
	}, nil
}

// ClassifyOrigin classifies a response against the configured origin host.
// A response is basic only if it was served by the origin itself; redirects
// that land on another host become cors or opaque and are never cached.
func ClassifyOrigin(resp *http.Response, originHost string) OriginClass {
	if resp.Request == nil || resp.Request.URL == nil {
		return OriginOpaque
	}
	if resp.Request.URL.Host != originHost {
		if resp.Header.Get("Access-Control-Allow-Origin") != "" {
			return OriginCORS
		}
		return OriginOpaque
	}
	return OriginBasic
}

// Response materializes the entry as an HTTP response for the given request.
// Each call returns an independent body reader.
func (e *Entry) Response(req *http.Request) *http.Response {
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", e.Status, http.StatusText(e.Status)),
		StatusCode:    e.Status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        e.Header.Clone(),
		Body:          io.NopCloser(bytes.NewReader(e.Body)),
		ContentLength: int64(len(e.Body)),
		Request:       req,
	}
}
