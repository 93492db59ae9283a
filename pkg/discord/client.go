// Copyright 2024-2026 Aiku AI

// Package discord is the Discord adapter of the bridge. It wraps a
// discordgo bot session: gateway message stream, bridged channel
// resolution, the send-proxy webhook used to impersonate Matrix senders,
// and the embed fallback used without one.
package discord

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/aiku/matrix-discord-bridge/pkg/bridge"
)

// avatarSize is the size hint for Discord CDN avatar URLs.
const avatarSize = "128"

const eventBuffer = 64

// Client is an authenticated Discord bot connection implementing
// bridge.DiscordPort.
type Client struct {
	cfg     bridge.DiscordConfig
	session *discordgo.Session
	log     zerolog.Logger

	events chan bridge.InboundEvent
	ready  chan struct{}
	// setupDone carries the result of the startup handshake exactly once:
	// nil after the channel (and webhook, if configured) resolved, or the
	// fatal error that prevented it.
	setupDone chan error
	once      sync.Once

	botUserID    string
	botAvatarURL string
	channelName  string
	webhook      *discordgo.Webhook
}

var _ bridge.DiscordPort = (*Client)(nil)

// NewClient creates a bot client for the configured channel. The session is
// not opened until Run.
func NewClient(cfg bridge.DiscordConfig, log zerolog.Logger) (*Client, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsMessageContent

	c := &Client{
		cfg:       cfg,
		session:   session,
		log:       log.With().Str("component", "discord").Logger(),
		events:    make(chan bridge.InboundEvent, eventBuffer),
		ready:     make(chan struct{}),
		setupDone: make(chan error, 1),
	}
	session.AddHandler(c.handleReady)
	session.AddHandler(c.handleMessageCreate)
	return c, nil
}

// Run opens the gateway connection and services it until ctx is cancelled.
// An unresolved channel or a webhook that cannot be created is an operator
// configuration error and returned as fatal.
func (c *Client) Run(ctx context.Context) error {
	if err := c.session.Open(); err != nil {
		return fmt.Errorf("failed to connect to discord: %w", err)
	}
	defer c.session.Close()

	select {
	case err := <-c.setupDone:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		return nil
	}

	<-ctx.Done()
	c.log.Info().Msg("Disconnecting from Discord")
	return nil
}

// handleReady completes the startup handshake after the gateway reports
// ready: resolve the bridged channel, fetch or create the send-proxy
// webhook, then signal readiness. Discord re-fires ready on reconnects;
// startup runs only once.
func (c *Client) handleReady(s *discordgo.Session, r *discordgo.Ready) {
	c.once.Do(func() {
		c.botUserID = r.User.ID
		c.botAvatarURL = r.User.AvatarURL(avatarSize)

		channel, err := s.Channel(c.cfg.ChannelID)
		if err != nil {
			c.setupDone <- fmt.Errorf("failed to resolve discord channel %s (check the ID and whether the bot can see it): %w", c.cfg.ChannelID, err)
			return
		}
		c.channelName = channel.Name

		if c.cfg.WebhookName != "" {
			webhook, err := c.ensureWebhook(s)
			if err != nil {
				c.setupDone <- err
				return
			}
			c.webhook = webhook
		}

		c.log.Info().
			Str("bot_user", r.User.Username).
			Str("channel_name", c.channelName).
			Bool("webhook", c.webhook != nil).
			Msg("Logged in to Discord")
		close(c.ready)
		c.setupDone <- nil
	})
}

// ensureWebhook returns the channel webhook with the configured name,
// creating it if no webhook of that name exists yet. Reusing by name keeps
// the operation idempotent across restarts.
func (c *Client) ensureWebhook(s *discordgo.Session) (*discordgo.Webhook, error) {
	webhooks, err := s.ChannelWebhooks(c.cfg.ChannelID)
	if err != nil {
		return nil, fmt.Errorf("failed to list channel webhooks: %w", err)
	}
	if webhook := FindWebhook(webhooks, c.cfg.WebhookName); webhook != nil {
		c.log.Debug().Str("webhook_id", webhook.ID).Msg("Reusing existing webhook")
		return webhook, nil
	}
	webhook, err := s.WebhookCreate(c.cfg.ChannelID, c.cfg.WebhookName, "")
	if err != nil {
		return nil, fmt.Errorf("failed to create webhook %q: %w", c.cfg.WebhookName, err)
	}
	c.log.Info().Str("webhook_id", webhook.ID).Msg("Created send-proxy webhook")
	return webhook, nil
}

// FindWebhook returns the first webhook with the given name, or nil.
func FindWebhook(webhooks []*discordgo.Webhook, name string) *discordgo.Webhook {
	for _, webhook := range webhooks {
		if webhook.Name == name {
			return webhook
		}
	}
	return nil
}

// handleMessageCreate converts a gateway message into an InboundEvent.
// Filtering is left to the engine's loop guard; messages posted through the
// bridge's own webhook carry the webhook ID as their author ID and are
// rejected there.
func (c *Client) handleMessageCreate(_ *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil {
		return
	}
	c.events <- bridge.InboundEvent{
		Source:              bridge.NetworkDiscord,
		ChannelID:           m.ChannelID,
		ChannelName:         c.channelName,
		SenderID:            m.Author.ID,
		SenderName:          m.Author.Username,
		SenderDiscriminator: m.Author.Discriminator,
		SenderAvatar:        m.Author.AvatarURL(avatarSize),
		Body:                m.Content,
	}
}

// Ready implements bridge.DiscordPort.
func (c *Client) Ready() <-chan struct{} {
	return c.ready
}

// Events implements bridge.DiscordPort.
func (c *Client) Events() <-chan bridge.InboundEvent {
	return c.events
}

// SelfIDs implements bridge.DiscordPort. It includes the webhook ID because
// webhook-authored messages carry it as their author.
func (c *Client) SelfIDs() []string {
	ids := []string{c.botUserID}
	if c.webhook != nil {
		ids = append(ids, c.webhook.ID)
	}
	return ids
}

// BotAvatarURL implements bridge.DiscordPort.
func (c *Client) BotAvatarURL() string {
	return c.botAvatarURL
}

// HasWebhook implements bridge.DiscordPort.
func (c *Client) HasWebhook() bool {
	return c.webhook != nil
}

// SendWebhook delivers a message through the send-proxy webhook, posting
// under the payload's per-message username and avatar.
func (c *Client) SendWebhook(ctx context.Context, params *discordgo.WebhookParams) error {
	_, err := c.session.WebhookExecute(c.webhook.ID, c.webhook.Token, false, params, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to execute webhook: %w", err)
	}
	return nil
}

// SendEmbed delivers a message to the bridged channel under the bot's own
// identity.
func (c *Client) SendEmbed(ctx context.Context, embed *discordgo.MessageEmbed) error {
	_, err := c.session.ChannelMessageSendEmbed(c.cfg.ChannelID, embed, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to send embed: %w", err)
	}
	return nil
}

// UploadMedia implements bridge.DiscordPort. Discord has no standalone
// content-upload endpoint; its CDN proxy is addressed by the source URL, so
// the fetched bytes are only validated to be an image and the URL itself is
// the destination reference.
func (c *Client) UploadMedia(_ context.Context, bin *bridge.Binary) (string, error) {
	if !strings.HasPrefix(bin.ContentType, "image/") {
		return "", fmt.Errorf("refusing non-image avatar content type %q", bin.ContentType)
	}
	return bin.URL, nil
}
