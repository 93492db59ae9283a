// Copyright 2024-2026 Aiku AI

package bridge

import (
	"fmt"
	"html"
	"time"

	"github.com/bwmarrin/discordgo"
	"maunium.net/go/mautrix/event"
)

// embedColor is the accent color of fallback embeds on Discord.
const embedColor = 3447003

// MatrixMessage builds the m.room.message content for a Discord event
// relayed to Matrix. The plain body carries the sender and channel context;
// when an avatar reference exists the content additionally gets an HTML
// formatted body embedding it, so capable clients render the sender's image
// inline.
func MatrixMessage(identity Identity, channelName, body, avatarRef string) *event.MessageEventContent {
	content := &event.MessageEventContent{
		MsgType: event.MsgText,
		Body:    fmt.Sprintf("%s on %s (Discord) :: %s", identity.DisplayName, channelName, body),
	}
	if avatarRef != "" {
		content.Format = event.FormatHTML
		content.FormattedBody = fmt.Sprintf(
			`<img src="%s" height="32" alt=""/> <strong>%s</strong>: %s`,
			html.EscapeString(avatarRef),
			html.EscapeString(identity.DisplayName),
			html.EscapeString(body),
		)
	}
	return content
}

// DiscordWebhookMessage builds the send-proxy payload for a Matrix event
// relayed to Discord: the webhook impersonates the sender with a
// per-message username and avatar.
func DiscordWebhookMessage(identity Identity, body, avatarRef string) *discordgo.WebhookParams {
	return &discordgo.WebhookParams{
		Content:   body,
		Username:  identity.DisplayName,
		AvatarURL: avatarRef,
	}
}

// DiscordEmbedMessage builds the degraded delivery form used when no
// send-proxy is configured: an embed carrying the sender as author and the
// bridged room in the footer.
func DiscordEmbedMessage(identity Identity, roomName, body, avatarRef string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Color: embedColor,
		Author: &discordgo.MessageEmbedAuthor{
			Name:    identity.DisplayName,
			IconURL: avatarRef,
		},
		Description: body,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Footer: &discordgo.MessageEmbedFooter{
			IconURL: avatarRef,
			Text:    fmt.Sprintf("Matrix bridge with %s, %s", roomName, identity.DisplayName),
		},
	}
}
