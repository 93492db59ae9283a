// Copyright 2024-2026 Aiku AI

// Package matrix is the Matrix adapter of the bridge. It wraps a mautrix
// client: /sync event stream, room-scoped sender identity resolution,
// message sends, content repository uploads and avatar thumbnail URLs.
package matrix

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"

	"github.com/aiku/matrix-discord-bridge/pkg/bridge"
)

// eventBuffer is the inbound channel capacity. It only smooths bursts; the
// engine consumes promptly and per-room ordering is preserved by the single
// sync loop feeding the channel.
const eventBuffer = 64

// Client is an authenticated Matrix connection implementing
// bridge.MatrixPort.
type Client struct {
	cfg    bridge.MatrixConfig
	client *mautrix.Client
	log    zerolog.Logger

	events chan bridge.InboundEvent
	ready  chan struct{}
	once   sync.Once

	// connectedAt separates live traffic from timeline history replayed by
	// the initial sync.
	connectedAt time.Time

	roomName     string
	botAvatarURL string
}

var _ bridge.MatrixPort = (*Client)(nil)

// NewClient creates a client from previously obtained session credentials.
func NewClient(cfg bridge.MatrixConfig, creds *Credentials, log zerolog.Logger) (*Client, error) {
	cli, err := mautrix.NewClient(cfg.HomeserverURL, creds.UserID, creds.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create matrix client: %w", err)
	}
	cli.DeviceID = creds.DeviceID

	c := &Client{
		cfg:    cfg,
		client: cli,
		log:    log.With().Str("component", "matrix").Logger(),
		events: make(chan bridge.InboundEvent, eventBuffer),
		ready:  make(chan struct{}),
	}
	syncer := cli.Syncer.(*mautrix.DefaultSyncer)
	syncer.OnSync(c.onSync)
	syncer.OnEventType(event.EventMessage, c.handleMessage)
	return c, nil
}

// Run services the sync loop until ctx is cancelled. A sync failure means
// the post-login handshake is in an unexpected state; there is no
// partial-bridge mode, so it is returned as fatal.
func (c *Client) Run(ctx context.Context) error {
	c.connectedAt = time.Now()
	c.log.Info().
		Str("user_id", c.client.UserID.String()).
		Str("device_id", c.client.DeviceID.String()).
		Msg("Starting Matrix sync")
	err := c.client.SyncWithContext(ctx)
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("matrix sync failed: %w", err)
	}
	c.log.Info().Msg("Matrix sync stopped")
	return nil
}

// onSync fires once per /sync response. The first response completes the
// startup handshake: the bridged room's name and the bot's own avatar are
// resolved and the readiness signal is closed.
func (c *Client) onSync(ctx context.Context, _ *mautrix.RespSync, _ string) bool {
	c.once.Do(func() {
		c.resolveRoomName(ctx)
		c.resolveBotAvatar(ctx)
		c.log.Info().
			Str("user_id", c.client.UserID.String()).
			Str("room_name", c.roomName).
			Msg("Logged in to Matrix")
		close(c.ready)
	})
	return true
}

func (c *Client) resolveRoomName(ctx context.Context) {
	var name event.RoomNameEventContent
	err := c.client.StateEvent(ctx, id.RoomID(c.cfg.RoomID), event.StateRoomName, "", &name)
	if err != nil || name.Name == "" {
		c.log.Debug().Err(err).Msg("Could not resolve room name, using room ID")
		c.roomName = c.cfg.RoomID
		return
	}
	c.roomName = name.Name
}

func (c *Client) resolveBotAvatar(ctx context.Context) {
	profile, err := c.client.GetProfile(ctx, c.client.UserID)
	if err != nil {
		c.log.Debug().Err(err).Msg("Could not resolve own profile avatar")
		return
	}
	c.botAvatarURL = c.ThumbnailURL(profile.AvatarURL.CUString())
}

// handleMessage converts a timeline message event into an InboundEvent and
// hands it to the engine. Events from other rooms are forwarded with sender
// ID only; the engine drops them, and skipping the member-state lookup for
// them avoids a state request per unrelated room.
func (c *Client) handleMessage(ctx context.Context, evt *event.Event) {
	msg := evt.Content.AsMessage()
	if msg == nil {
		return
	}

	inbound := bridge.InboundEvent{
		Source:      bridge.NetworkMatrix,
		ChannelID:   evt.RoomID.String(),
		ChannelName: c.roomName,
		SenderID:    evt.Sender.String(),
		Body:        msg.Body,
		Historical:  time.UnixMilli(evt.Timestamp).Before(c.connectedAt),
	}

	if evt.RoomID.String() == c.cfg.RoomID && evt.Sender != c.client.UserID {
		name, avatarURL := c.resolveSender(ctx, evt.Sender)
		inbound.SenderName = name
		inbound.SenderAvatar = avatarURL
	}

	c.events <- inbound
}

// resolveSender fetches the sender's room-scoped member state and returns
// the display name and a thumbnail URL for the avatar.
func (c *Client) resolveSender(ctx context.Context, sender id.UserID) (name, avatarURL string) {
	var member event.MemberEventContent
	err := c.client.StateEvent(ctx, id.RoomID(c.cfg.RoomID), event.StateMember, sender.String(), &member)
	if err != nil {
		c.log.Debug().Err(err).Str("sender", sender.String()).Msg("Could not resolve member state")
		return "", ""
	}
	return member.Displayname, c.ThumbnailURL(member.AvatarURL)
}

// ThumbnailURL converts an mxc:// content URI into an HTTP thumbnail URL on
// the content repository, scaled to the configured size. Returns "" for an
// empty or unparseable URI.
func (c *Client) ThumbnailURL(uri id.ContentURIString) string {
	parsed := uri.ParseOrIgnore()
	if parsed.IsEmpty() {
		return ""
	}
	return c.client.BuildURLWithQuery(
		mautrix.MediaURLPath{"v3", "thumbnail", parsed.Homeserver, parsed.FileID},
		map[string]string{
			"width":  strconv.Itoa(c.cfg.AvatarResizeWidth),
			"height": strconv.Itoa(c.cfg.AvatarResizeHeight),
			"method": "scale",
		},
	)
}

// Ready implements bridge.MatrixPort.
func (c *Client) Ready() <-chan struct{} {
	return c.ready
}

// Events implements bridge.MatrixPort.
func (c *Client) Events() <-chan bridge.InboundEvent {
	return c.events
}

// SelfIDs implements bridge.MatrixPort.
func (c *Client) SelfIDs() []string {
	return []string{c.client.UserID.String()}
}

// BotAvatarURL implements bridge.MatrixPort.
func (c *Client) BotAvatarURL() string {
	return c.botAvatarURL
}

// SendMessage posts a message to the bridged room.
func (c *Client) SendMessage(ctx context.Context, content *event.MessageEventContent) error {
	_, err := c.client.SendMessageEvent(ctx, id.RoomID(c.cfg.RoomID), event.EventMessage, content)
	if err != nil {
		return fmt.Errorf("failed to send matrix message: %w", err)
	}
	return nil
}

// UploadMedia stores the binary in the content repository and returns its
// mxc:// URI.
func (c *Client) UploadMedia(ctx context.Context, bin *bridge.Binary) (string, error) {
	resp, err := c.client.UploadMedia(ctx, mautrix.ReqUploadMedia{
		ContentBytes: bin.Data,
		ContentType:  bin.ContentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload media: %w", err)
	}
	return resp.ContentURI.String(), nil
}
