// Copyright 2024 The mana-sub006 Authors
// This file is part of mana-sub006, licensed LGPLv3-or-later.

// Package p2p implements §4.H: the ECIES auth/ack handshake, the RLPx frame
// transport, and the Hello/capability session protocol that promotes a raw
// TCP connection to an active peer.
package p2p

import "errors"

var (
	// ErrMacMismatch is peer-fatal: a frame's header or body MAC did not
	// match, which can only mean a corrupted stream or a desynced cipher.
	ErrMacMismatch = errors.New("p2p: frame MAC mismatch")

	// ErrHandshakeTimeout is peer-fatal: §5's 10s accept-to-active-session
	// budget expired.
	ErrHandshakeTimeout = errors.New("p2p: handshake timed out")

	// ErrIncompatibleCapabilities is peer-fatal: the Hello exchange produced
	// an empty capability intersection.
	ErrIncompatibleCapabilities = errors.New("p2p: no shared capability")

	ErrAuthTooShort  = errors.New("p2p: auth message too short")
	ErrAckTooShort   = errors.New("p2p: ack message too short")
	ErrFrameTooShort = errors.New("p2p: frame shorter than header")
)

// DisconnectReason is the 1-byte code carried by a Disconnect packet.
type DisconnectReason byte

const (
	DiscRequested DisconnectReason = iota
	DiscNetworkError
	DiscProtocolError
	DiscUselessPeer
	DiscTooManyPeers
	DiscAlreadyConnected
	DiscIncompatibleVersion
	DiscInvalidIdentity
	DiscQuitting
	DiscUnexpectedIdentity
	DiscSelf
	DiscReadTimeout
	DiscSubprotocolError
)

func (r DisconnectReason) Error() string { return "p2p: disconnect: " + discReasonNames[r] }

var discReasonNames = map[DisconnectReason]string{
	DiscRequested:           "requested",
	DiscNetworkError:        "network error",
	DiscProtocolError:       "protocol error",
	DiscUselessPeer:         "useless peer",
	DiscTooManyPeers:        "too many peers",
	DiscAlreadyConnected:    "already connected",
	DiscIncompatibleVersion: "incompatible version",
	DiscInvalidIdentity:     "invalid identity",
	DiscQuitting:            "quitting",
	DiscUnexpectedIdentity:  "unexpected identity",
	DiscSelf:                "connected to self",
	DiscReadTimeout:         "read timeout",
	DiscSubprotocolError:    "subprotocol error",
}
