// Copyright 2024-2026 Aiku AI

package bridge

import (
	"strings"
	"testing"

	"maunium.net/go/mautrix/event"
)

func TestMatrixMessagePlain(t *testing.T) {
	t.Parallel()
	identity := Identity{DisplayName: "carol#1234"}
	content := MatrixMessage(identity, "general", "hello world", "")

	if content.MsgType != event.MsgText {
		t.Errorf("MsgType: got %q, want %q", content.MsgType, event.MsgText)
	}
	want := "carol#1234 on general (Discord) :: hello world"
	if content.Body != want {
		t.Errorf("Body: got %q, want %q", content.Body, want)
	}
	if content.Format != "" || content.FormattedBody != "" {
		t.Errorf("plain message should have no formatted body, got format %q body %q", content.Format, content.FormattedBody)
	}
}

func TestMatrixMessageWithAvatar(t *testing.T) {
	t.Parallel()
	identity := Identity{DisplayName: "carol", AvatarURL: "https://cdn.example.com/a.png"}
	content := MatrixMessage(identity, "general", "hi", "mxc://example.com/abcdef")

	if content.Format != event.FormatHTML {
		t.Errorf("Format: got %q, want %q", content.Format, event.FormatHTML)
	}
	if !strings.Contains(content.FormattedBody, `<img src="mxc://example.com/abcdef"`) {
		t.Errorf("FormattedBody missing avatar img: %q", content.FormattedBody)
	}
	if !strings.Contains(content.FormattedBody, "<strong>carol</strong>: hi") {
		t.Errorf("FormattedBody missing sender and body: %q", content.FormattedBody)
	}
	// The plain body must still be present for clients without HTML.
	if content.Body != "carol on general (Discord) :: hi" {
		t.Errorf("Body: got %q", content.Body)
	}
}

func TestMatrixMessageEscapesHTML(t *testing.T) {
	t.Parallel()
	identity := Identity{DisplayName: "<script>x</script>"}
	content := MatrixMessage(identity, "general", `<b>&"bold"</b>`, "mxc://example.com/a")

	if strings.Contains(content.FormattedBody, "<script>") {
		t.Errorf("FormattedBody contains unescaped sender name: %q", content.FormattedBody)
	}
	if strings.Contains(content.FormattedBody, "<b>") {
		t.Errorf("FormattedBody contains unescaped message body: %q", content.FormattedBody)
	}
}

func TestDiscordWebhookMessage(t *testing.T) {
	t.Parallel()
	identity := Identity{DisplayName: "Alice", AvatarURL: "https://hs/a.png"}
	params := DiscordWebhookMessage(identity, "hi", "https://hs/a.png")

	if params.Content != "hi" {
		t.Errorf("Content: got %q, want %q", params.Content, "hi")
	}
	if params.Username != "Alice" {
		t.Errorf("Username: got %q, want %q", params.Username, "Alice")
	}
	if params.AvatarURL != "https://hs/a.png" {
		t.Errorf("AvatarURL: got %q, want %q", params.AvatarURL, "https://hs/a.png")
	}
}

func TestDiscordEmbedMessage(t *testing.T) {
	t.Parallel()
	identity := Identity{DisplayName: "Alice"}
	embed := DiscordEmbedMessage(identity, "Our Room", "hello", "https://hs/a.png")

	if embed.Color != 3447003 {
		t.Errorf("Color: got %d, want %d", embed.Color, 3447003)
	}
	if embed.Author == nil || embed.Author.Name != "Alice" {
		t.Fatalf("Author: got %+v, want name Alice", embed.Author)
	}
	if embed.Author.IconURL != "https://hs/a.png" {
		t.Errorf("Author.IconURL: got %q", embed.Author.IconURL)
	}
	if embed.Description != "hello" {
		t.Errorf("Description: got %q, want %q", embed.Description, "hello")
	}
	if embed.Footer == nil || embed.Footer.Text != "Matrix bridge with Our Room, Alice" {
		t.Fatalf("Footer: got %+v", embed.Footer)
	}
	if embed.Timestamp == "" {
		t.Error("Timestamp should be set")
	}
}

func TestDiscordEmbedMessageNoAvatar(t *testing.T) {
	t.Parallel()
	embed := DiscordEmbedMessage(Identity{DisplayName: "Bob"}, "Room", "x", "")
	if embed.Author.IconURL != "" {
		t.Errorf("Author.IconURL: got %q, want empty", embed.Author.IconURL)
	}
	if embed.Description != "x" {
		t.Errorf("Description: got %q", embed.Description)
	}
}
