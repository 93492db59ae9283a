// Copyright 2024-2026 Aiku AI

package bridge

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
)

// maxAvatarSize is the maximum avatar payload the relay will fetch (8 MB).
const maxAvatarSize = 8 << 20

// Fetcher retrieves a binary object from a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Binary, error)
}

// Uploader stores a binary object in a network's media store and returns
// the network's reference for it.
type Uploader interface {
	UploadMedia(ctx context.Context, bin *Binary) (string, error)
}

// HTTPFetcher fetches binaries over plain HTTP. The transfer is binary-safe;
// no encoding transformation is applied. When the origin omits the content
// type or reports a generic one, the type is sniffed from the bytes.
type HTTPFetcher struct {
	Client *http.Client
}

// NewHTTPFetcher returns a fetcher with a dedicated HTTP client. Avatar
// fetches are small, so a short timeout keeps a dead media host from
// stalling the dispatch loop for long.
func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{Client: &http.Client{Timeout: 30 * time.Second}}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*Binary, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build avatar request: %w", err)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch avatar: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("avatar fetch returned HTTP %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAvatarSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read avatar body: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = mimetype.Detect(data).String()
	}
	return &Binary{URL: url, Data: data, ContentType: contentType}, nil
}

// MediaRelay copies avatar images from a source network to a destination
// network's media store. Failures are reported in logs and degrade the
// message to avatar-less delivery; they are never fatal to the text relay.
type MediaRelay struct {
	fetcher Fetcher
	log     zerolog.Logger
}

// NewMediaRelay creates a media relay using the given fetcher.
func NewMediaRelay(fetcher Fetcher, log zerolog.Logger) *MediaRelay {
	return &MediaRelay{
		fetcher: fetcher,
		log:     log.With().Str("component", "media_relay").Logger(),
	}
}

// Relay fetches the avatar at sourceURL and uploads it to dest, returning
// the destination-native reference. It returns "" when sourceURL is empty
// or when either step fails.
func (r *MediaRelay) Relay(ctx context.Context, sourceURL string, dest Uploader) string {
	if sourceURL == "" {
		return ""
	}
	bin, err := r.fetcher.Fetch(ctx, sourceURL)
	if err != nil {
		r.log.Warn().Err(err).Str("url", sourceURL).Msg("Avatar fetch failed, relaying without avatar")
		return ""
	}
	ref, err := dest.UploadMedia(ctx, bin)
	if err != nil {
		r.log.Warn().Err(err).Str("url", sourceURL).Msg("Avatar upload failed, relaying without avatar")
		return ""
	}
	return ref
}
