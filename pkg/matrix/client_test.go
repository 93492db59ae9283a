// Copyright 2024-2026 Aiku AI

package matrix

import (
	"net/url"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/aiku/matrix-discord-bridge/pkg/bridge"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	cfg := bridge.MatrixConfig{
		HomeserverURL:      "https://hs.example.com",
		RoomID:             "!room1:example.com",
		AvatarResizeWidth:  96,
		AvatarResizeHeight: 64,
	}
	creds := &Credentials{
		UserID:      "@bridge:example.com",
		AccessToken: "token",
		DeviceID:    "DEV",
	}
	client, err := NewClient(cfg, creds, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestThumbnailURL(t *testing.T) {
	t.Parallel()
	client := newTestClient(t)

	got := client.ThumbnailURL("mxc://example.com/abcdef123")
	parsed, err := url.Parse(got)
	if err != nil {
		t.Fatalf("ThumbnailURL produced unparseable URL %q: %v", got, err)
	}
	if parsed.Host != "hs.example.com" {
		t.Errorf("host: got %q, want %q", parsed.Host, "hs.example.com")
	}
	if !strings.HasSuffix(parsed.Path, "/thumbnail/example.com/abcdef123") {
		t.Errorf("path: got %q, want .../thumbnail/example.com/abcdef123", parsed.Path)
	}
	q := parsed.Query()
	if q.Get("width") != "96" || q.Get("height") != "64" {
		t.Errorf("size params: got width=%q height=%q", q.Get("width"), q.Get("height"))
	}
	if q.Get("method") != "scale" {
		t.Errorf("method: got %q, want scale", q.Get("method"))
	}
}

func TestThumbnailURLEmpty(t *testing.T) {
	t.Parallel()
	client := newTestClient(t)
	if got := client.ThumbnailURL(""); got != "" {
		t.Errorf("ThumbnailURL(\"\"): got %q, want empty", got)
	}
	if got := client.ThumbnailURL("not a content uri"); got != "" {
		t.Errorf("ThumbnailURL of invalid URI: got %q, want empty", got)
	}
}

func TestSelfIDs(t *testing.T) {
	t.Parallel()
	client := newTestClient(t)
	ids := client.SelfIDs()
	if len(ids) != 1 || ids[0] != "@bridge:example.com" {
		t.Errorf("SelfIDs: got %v", ids)
	}
}

func TestReadyNotClosedBeforeSync(t *testing.T) {
	t.Parallel()
	client := newTestClient(t)
	select {
	case <-client.Ready():
		t.Error("client reported ready before any sync completed")
	default:
	}
}
