// Copyright 2024-2026 Aiku AI
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package bridge contains the relay core of the Matrix-Discord bridge: the
// engine that takes an inbound event from one network, decides whether it is
// eligible for forwarding, turns it into the other network's native message
// representation and delivers it.
//
// # Core Types
//
// [Engine] runs the single dispatch loop. It consumes the per-network event
// channels exposed by the two adapters, gates forwarding on the destination
// adapter's one-shot readiness signal, and drives the per-event pipeline:
// loop guard, identity normalization, avatar relay, payload build, send.
//
// [LoopGuard] is the eligibility filter. It rejects historical events, the
// bridge's own messages (including posts made through its webhook) and
// events outside the single configured room pair. A dropped legitimate
// message is preferable to a relay loop, so every check errs toward
// rejection.
//
// [Identity] is the canonical sender identity derived per event. Avatar URLs
// are sanitized to a bare, extension-terminated form before they are handed
// to either network (see [SanitizeAvatarURL] for the exact rule).
//
// [MediaRelay] copies a sender avatar from the source network to the
// destination's media store. Fetch or upload failure degrades the message to
// avatar-less delivery; it never blocks the text relay.
//
// # Ports
//
// The engine talks to the networks through the [MatrixPort] and
// [DiscordPort] interfaces. Production implementations live in pkg/matrix
// and pkg/discord; tests substitute in-memory mocks.
package bridge
