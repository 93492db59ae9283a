// Copyright 2024-2026 Aiku AI

package bridge

// Network identifies one of the two bridged networks.
type Network string

const (
	NetworkMatrix  Network = "matrix"
	NetworkDiscord Network = "discord"
)

// Other returns the opposite network.
func (n Network) Other() Network {
	if n == NetworkMatrix {
		return NetworkDiscord
	}
	return NetworkMatrix
}

// InboundEvent is a message event received from one network, in a shape the
// relay core can work with. It is immutable once constructed by an adapter.
type InboundEvent struct {
	Source      Network
	ChannelID   string
	ChannelName string

	SenderID string
	// SenderName is the network's human-readable name for the sender: the
	// room-scoped display name on Matrix, the bare username on Discord.
	SenderName string
	// SenderDiscriminator is the Discord discriminator, empty on Matrix and
	// "0" for migrated Discord users without one.
	SenderDiscriminator string
	// SenderAvatar is an HTTP(S) URL for the sender's avatar, possibly with
	// resize suffixes or query strings attached. Empty if the sender has no
	// avatar.
	SenderAvatar string

	Body string
	// Historical marks events replayed from before the adapter finished its
	// startup handshake. Historical events are never relayed.
	Historical bool
}

// Binary is a fetched media object: raw bytes plus their content type and
// the URL they came from.
type Binary struct {
	URL         string
	Data        []byte
	ContentType string
}
