// Copyright 2024-2026 Aiku AI

package bridge

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"maunium.net/go/mautrix/event"
)

// MatrixPort is the Matrix side of the bridge as seen by the engine.
// The production implementation is pkg/matrix.Client.
type MatrixPort interface {
	// Run connects, authenticates and services the network until ctx is
	// cancelled. A non-nil return is fatal to the whole bridge.
	Run(ctx context.Context) error
	// Ready is closed once, when the adapter has finished its startup
	// handshake and is safe to receive relayed traffic.
	Ready() <-chan struct{}
	// Events delivers inbound message events in arrival order.
	Events() <-chan InboundEvent
	// SelfIDs returns the bridge's own sender identities on this network.
	SelfIDs() []string
	// BotAvatarURL returns the bridge account's own avatar as an HTTP URL,
	// or "" if it has none. Used as the placeholder for avatar-less senders.
	BotAvatarURL() string
	SendMessage(ctx context.Context, content *event.MessageEventContent) error
	// UploadMedia stores bin in the Matrix content repository and returns
	// the mxc:// URI.
	UploadMedia(ctx context.Context, bin *Binary) (string, error)
}

// DiscordPort is the Discord side of the bridge as seen by the engine.
// The production implementation is pkg/discord.Client.
type DiscordPort interface {
	Run(ctx context.Context) error
	Ready() <-chan struct{}
	Events() <-chan InboundEvent
	SelfIDs() []string
	BotAvatarURL() string
	// HasWebhook reports whether a send-proxy webhook is available for
	// per-message impersonation. Without one, delivery degrades to embeds.
	HasWebhook() bool
	SendWebhook(ctx context.Context, params *discordgo.WebhookParams) error
	SendEmbed(ctx context.Context, embed *discordgo.MessageEmbed) error
	UploadMedia(ctx context.Context, bin *Binary) (string, error)
}

// Engine relays events between the two networks. A single dispatch loop
// consumes both adapters' event channels, which preserves arrival order per
// source network; interleaving across networks is arrival-driven. There is
// no event queue beyond the adapter channels: an eligible event whose
// destination is not yet ready is dropped, not buffered, so nothing is
// replayed when the destination comes up later.
type Engine struct {
	matrix  MatrixPort
	discord DiscordPort
	guard   *LoopGuard
	media   *MediaRelay
	exts    []string
	log     zerolog.Logger
}

// NewEngine builds an engine from the configured room pair and the two
// network adapters.
func NewEngine(cfg *Config, matrix MatrixPort, discord DiscordPort, log zerolog.Logger) *Engine {
	return &Engine{
		matrix:  matrix,
		discord: discord,
		guard: &LoopGuard{
			MatrixRoomID:     cfg.Matrix.RoomID,
			DiscordChannelID: cfg.Discord.ChannelID,
		},
		media: NewMediaRelay(NewHTTPFetcher(), log),
		exts:  cfg.AvatarExtensions,
		log:   log.With().Str("component", "engine").Logger(),
	}
}

// Run starts both adapters and services events until ctx is cancelled or
// either adapter reports a fatal error. Per-event failures are logged and
// swallowed; only startup failures (authentication, unresolved room or
// channel, missing send-proxy, broken initial sync) terminate the engine.
func (e *Engine) Run(ctx context.Context) error {
	e.log.Info().Msg("Starting relay engine")

	errCh := make(chan error, 2)
	go func() { errCh <- e.matrix.Run(ctx) }()
	go func() { errCh <- e.discord.Run(ctx) }()
	go e.logBridging(ctx)

	for {
		select {
		case evt := <-e.matrix.Events():
			e.handleMatrixEvent(ctx, evt)
		case evt := <-e.discord.Events():
			e.handleDiscordEvent(ctx, evt)
		case err := <-errCh:
			if err != nil {
				e.log.Error().Err(err).Msg("Network adapter failed")
				return err
			}
			// Clean adapter exit only happens on cancellation.
			return nil
		case <-ctx.Done():
			e.log.Info().Msg("Relay engine stopping")
			return nil
		}
	}
}

// logBridging waits for both readiness signals and records the transition
// into the bridging state.
func (e *Engine) logBridging(ctx context.Context) {
	select {
	case <-e.matrix.Ready():
	case <-ctx.Done():
		return
	}
	select {
	case <-e.discord.Ready():
	case <-ctx.Done():
		return
	}
	e.log.Info().Msg("Both networks ready, bridging")
}

// isReady reports whether a one-shot readiness channel has been closed.
func isReady(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

// handleMatrixEvent relays a Matrix event to Discord.
func (e *Engine) handleMatrixEvent(ctx context.Context, evt InboundEvent) {
	if !e.guard.Eligible(evt, e.matrix.SelfIDs()) {
		// Expected traffic (own echoes, other rooms), not a fault.
		e.log.Trace().Str("sender", evt.SenderID).Msg("Dropping ineligible Matrix event")
		return
	}
	if !isReady(e.discord.Ready()) {
		e.log.Debug().Str("sender", evt.SenderID).Msg("Discord not ready, dropping Matrix event")
		return
	}

	identity := NormalizeSender(evt, e.exts, e.discord.BotAvatarURL())
	avatarRef := e.media.Relay(ctx, identity.AvatarURL, e.discord)

	var err error
	if e.discord.HasWebhook() {
		err = e.discord.SendWebhook(ctx, DiscordWebhookMessage(identity, evt.Body, avatarRef))
	} else {
		err = e.discord.SendEmbed(ctx, DiscordEmbedMessage(identity, evt.ChannelName, evt.Body, avatarRef))
	}
	if err != nil {
		e.log.Error().Err(err).Str("sender", evt.SenderID).Msg("Failed to deliver message to Discord")
	}
}

// handleDiscordEvent relays a Discord event to Matrix.
func (e *Engine) handleDiscordEvent(ctx context.Context, evt InboundEvent) {
	if !e.guard.Eligible(evt, e.discord.SelfIDs()) {
		e.log.Trace().Str("sender", evt.SenderID).Msg("Dropping ineligible Discord event")
		return
	}
	if !isReady(e.matrix.Ready()) {
		e.log.Debug().Str("sender", evt.SenderID).Msg("Matrix not ready, dropping Discord event")
		return
	}

	identity := NormalizeSender(evt, e.exts, e.matrix.BotAvatarURL())
	avatarRef := e.media.Relay(ctx, identity.AvatarURL, e.matrix)

	content := MatrixMessage(identity, evt.ChannelName, evt.Body, avatarRef)
	if err := e.matrix.SendMessage(ctx, content); err != nil {
		e.log.Error().Err(err).Str("sender", evt.SenderID).Msg("Failed to deliver message to Matrix")
	}
}
