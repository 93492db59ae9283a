// Copyright 2024-2026 Aiku AI

package bridge

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

// pngHeader is the magic prefix of a PNG file, enough for content sniffing.
var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

// recordingUploader captures uploads and returns a fixed reference.
type recordingUploader struct {
	mu      sync.Mutex
	uploads []*Binary
	ref     string
	err     error
}

func (u *recordingUploader) UploadMedia(_ context.Context, bin *Binary) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.uploads = append(u.uploads, bin)
	if u.err != nil {
		return "", u.err
	}
	return u.ref, nil
}

func (u *recordingUploader) count() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.uploads)
}

func TestHTTPFetcher(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(pngHeader)
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher()
	bin, err := fetcher.Fetch(context.Background(), server.URL+"/avatar.png")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if bin.ContentType != "image/png" {
		t.Errorf("ContentType: got %q, want %q", bin.ContentType, "image/png")
	}
	if len(bin.Data) != len(pngHeader) {
		t.Errorf("Data length: got %d, want %d", len(bin.Data), len(pngHeader))
	}
	if bin.URL != server.URL+"/avatar.png" {
		t.Errorf("URL: got %q", bin.URL)
	}
}

func TestHTTPFetcherSniffsContentType(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write(pngHeader)
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher()
	bin, err := fetcher.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if bin.ContentType != "image/png" {
		t.Errorf("sniffed ContentType: got %q, want %q", bin.ContentType, "image/png")
	}
}

func TestHTTPFetcherErrorStatus(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher()
	if _, err := fetcher.Fetch(context.Background(), server.URL); err == nil {
		t.Error("Fetch should fail on HTTP 404")
	}
}

// stubFetcher returns canned results without any network.
type stubFetcher struct {
	bin *Binary
	err error
}

func (f *stubFetcher) Fetch(_ context.Context, url string) (*Binary, error) {
	if f.err != nil {
		return nil, f.err
	}
	bin := *f.bin
	bin.URL = url
	return &bin, nil
}

func TestMediaRelay(t *testing.T) {
	t.Parallel()
	relay := NewMediaRelay(&stubFetcher{bin: &Binary{Data: pngHeader, ContentType: "image/png"}}, zerolog.Nop())
	uploader := &recordingUploader{ref: "mxc://example.com/abc"}

	ref := relay.Relay(context.Background(), "https://cdn/x.png", uploader)
	if ref != "mxc://example.com/abc" {
		t.Errorf("Relay: got %q, want %q", ref, "mxc://example.com/abc")
	}
	if uploader.count() != 1 {
		t.Errorf("uploads: got %d, want 1", uploader.count())
	}
}

func TestMediaRelayEmptyURL(t *testing.T) {
	t.Parallel()
	relay := NewMediaRelay(&stubFetcher{err: errors.New("should not be called")}, zerolog.Nop())
	uploader := &recordingUploader{}

	if ref := relay.Relay(context.Background(), "", uploader); ref != "" {
		t.Errorf("Relay(\"\"): got %q, want empty", ref)
	}
	if uploader.count() != 0 {
		t.Errorf("uploads: got %d, want 0", uploader.count())
	}
}

func TestMediaRelayFetchFailureDegrades(t *testing.T) {
	t.Parallel()
	relay := NewMediaRelay(&stubFetcher{err: errors.New("connection refused")}, zerolog.Nop())
	uploader := &recordingUploader{ref: "mxc://example.com/abc"}

	if ref := relay.Relay(context.Background(), "https://cdn/x.png", uploader); ref != "" {
		t.Errorf("Relay with failing fetch: got %q, want empty", ref)
	}
	if uploader.count() != 0 {
		t.Errorf("uploads after failed fetch: got %d, want 0", uploader.count())
	}
}

func TestMediaRelayUploadFailureDegrades(t *testing.T) {
	t.Parallel()
	relay := NewMediaRelay(&stubFetcher{bin: &Binary{Data: pngHeader, ContentType: "image/png"}}, zerolog.Nop())
	uploader := &recordingUploader{err: errors.New("storage full")}

	if ref := relay.Relay(context.Background(), "https://cdn/x.png", uploader); ref != "" {
		t.Errorf("Relay with failing upload: got %q, want empty", ref)
	}
}
