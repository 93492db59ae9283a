// Copyright 2024-2026 Aiku AI

package bridge

import "strings"

// Identity is the canonical sender identity derived from an inbound event:
// a display name and a sanitized avatar URL. An empty AvatarURL means the
// sender has no usable avatar. Identities are derived per event and never
// persisted.
type Identity struct {
	DisplayName string
	AvatarURL   string
}

// NormalizeSender converts the network-specific sender fields of evt into a
// canonical identity. Discord senders get the username#discriminator
// composite (bare username for migrated users reporting discriminator "0");
// Matrix senders keep their room-scoped display name, falling back to the
// sender ID when the room has none. If the sender has no avatar,
// fallbackAvatar (the destination bot's own avatar) is substituted so the
// relayed message is never avatar-less. The avatar URL is sanitized
// according to the configured extension order.
func NormalizeSender(evt InboundEvent, extensions []string, fallbackAvatar string) Identity {
	name := evt.SenderName
	if name == "" {
		name = evt.SenderID
	}
	if evt.Source == NetworkDiscord && evt.SenderDiscriminator != "" && evt.SenderDiscriminator != "0" {
		name = name + "#" + evt.SenderDiscriminator
	}

	avatar := evt.SenderAvatar
	if avatar == "" {
		avatar = fallbackAvatar
	}
	avatar = SanitizeAvatarURL(avatar, extensions)

	return Identity{DisplayName: name, AvatarURL: avatar}
}

// SanitizeAvatarURL truncates url so that it ends exactly in a supported
// image extension, with no resize suffix or query string following it. Both
// networks reject avatar URLs with anything after the extension.
//
// The rule is deliberate and pinned by tests: extensions are scanned in
// configuration order, and the first extension that occurs anywhere in the
// URL wins; the URL is cut immediately after the last occurrence of that
// extension. A URL containing no configured extension is returned unchanged
// rather than rejected.
func SanitizeAvatarURL(url string, extensions []string) string {
	for _, ext := range extensions {
		marker := "." + ext
		if idx := strings.LastIndex(url, marker); idx >= 0 {
			return url[:idx+len(marker)]
		}
	}
	return url
}
