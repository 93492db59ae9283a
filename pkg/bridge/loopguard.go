// Copyright 2024-2026 Aiku AI

package bridge

// LoopGuard decides whether an inbound event may be relayed to the other
// network. Without it, a relayed message would come back as a new inbound
// event and be relayed again, duplicating without bound, so every check
// errs toward rejection: dropping a legitimate message is acceptable, a
// loop is not.
//
// Exactly one room pair is bridged per running instance.
type LoopGuard struct {
	// MatrixRoomID is the bridged Matrix room.
	MatrixRoomID string
	// DiscordChannelID is the bridged Discord channel.
	DiscordChannelID string
}

// Eligible reports whether evt should be relayed. selfIDs are the bridge's
// own sender identities on the event's source network: the authenticated
// user ID, and on Discord additionally the webhook ID, since messages
// posted through the bridge's send-proxy carry the webhook as their author.
//
// The check is pure: it reads only the event, the configured room pair and
// the given identities.
func (g *LoopGuard) Eligible(evt InboundEvent, selfIDs []string) bool {
	if evt.Historical {
		return false
	}
	bridgedID := g.MatrixRoomID
	if evt.Source == NetworkDiscord {
		bridgedID = g.DiscordChannelID
	}
	if evt.ChannelID != bridgedID {
		return false
	}
	for _, id := range selfIDs {
		if id != "" && evt.SenderID == id {
			return false
		}
	}
	return true
}
