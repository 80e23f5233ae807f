package store

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

func newResponse(t *testing.T, status int, body string, host string) *http.Response {
	t.Helper()

	rec := httptest.NewRecorder()
	rec.Header().Set("Content-Type", "text/plain")
	rec.WriteHeader(status)
	if _, err := rec.WriteString(body); err != nil {
		t.Fatalf("write body: %v", err)
	}
	resp := rec.Result()
	resp.Request = &http.Request{
		Method: "GET",
		URL:    &url.URL{Scheme: "http", Host: host, Path: "/"},
	}
	return resp
}

func TestSnapshot_RestoresBody(t *testing.T) {
	resp := newResponse(t, 200, "hello", "app.local")

	entry, err := Snapshot(resp, "app.local")
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}

	if string(entry.Body) != "hello" {
		t.Errorf("entry body = %q, want %q", entry.Body, "hello")
	}
	if entry.Status != 200 {
		t.Errorf("entry status = %d, want 200", entry.Status)
	}
	if entry.Origin != OriginBasic {
		t.Errorf("entry origin = %q, want basic", entry.Origin)
	}

	// The caller's copy must still be readable after the snapshot.
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read restored body: %v", err)
	}
	if string(body) != "hello" {
		t.Errorf("restored body = %q, want %q", body, "hello")
	}
}

func TestSnapshot_NilResponse(t *testing.T) {
	if _, err := Snapshot(nil, "app.local"); err == nil {
		t.Error("Snapshot(nil) expected error")
	}
}

func TestClassifyOrigin(t *testing.T) {
	tests := []struct {
		name       string
		host       string
		corsHeader string
		want       OriginClass
	}{
		{
			name: "same origin",
			host: "app.local",
			want: OriginBasic,
		},
		{
			name: "cross origin opaque",
			host: "cdn.example.com",
			want: OriginOpaque,
		},
		{
			name:       "cross origin with cors",
			host:       "cdn.example.com",
			corsHeader: "*",
			want:       OriginCORS,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := newResponse(t, 200, "x", tt.host)
			if tt.corsHeader != "" {
				resp.Header.Set("Access-Control-Allow-Origin", tt.corsHeader)
			}
			if got := ClassifyOrigin(resp, "app.local"); got != tt.want {
				t.Errorf("ClassifyOrigin() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClassifyOrigin_NoRequest(t *testing.T) {
	resp := newResponse(t, 200, "x", "app.local")
	resp.Request = nil
	if got := ClassifyOrigin(resp, "app.local"); got != OriginOpaque {
		t.Errorf("ClassifyOrigin() = %q, want opaque when request is unknown", got)
	}
}

func TestEntry_Response(t *testing.T) {
	entry := &Entry{
		Status: 200,
		Header: http.Header{"Content-Type": []string{"text/html"}},
		Body:   []byte("<html>root</html>"),
		Origin: OriginBasic,
	}

	req := httptest.NewRequest("GET", "http://app.local/", nil)

	// Each materialization must yield an independent body.
	for i := 0; i < 2; i++ {
		resp := entry.Response(req)
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		if string(body) != "<html>root</html>" {
			t.Errorf("body = %q, want original snapshot", body)
		}
		if resp.StatusCode != 200 {
			t.Errorf("status = %d, want 200", resp.StatusCode)
		}
		if resp.Header.Get("Content-Type") != "text/html" {
			t.Errorf("Content-Type = %q, want text/html", resp.Header.Get("Content-Type"))
		}
	}
}

func TestEntry_Clone(t *testing.T) {
	entry := &Entry{
		Status: 200,
		Header: http.Header{"X-A": []string{"1"}},
		Body:   []byte("data"),
	}

	clone := entry.Clone()
	clone.Body[0] = 'x'
	clone.Header.Set("X-A", "2")

	if string(entry.Body) != "data" {
		t.Error("Clone() shares body with original")
	}
	if entry.Header.Get("X-A") != "1" {
		t.Error("Clone() shares headers with original")
	}
}
