// Copyright 2024 The mana-sub006 Authors
// This file is part of mana-sub006, licensed LGPLv3-or-later.

package eth

import (
	"errors"
	"time"

	"github.com/mana-ethereum/mana-sub006/p2p"
	"github.com/mana-ethereum/mana-sub006/rlp"
)

// statusTimeout bounds how long a freshly active peer has to send its
// Status message before it is treated as unresponsive, per §5's per-task
// timeout discipline.
const statusTimeout = 10 * time.Second

var (
	// ErrNoStatusMsg is returned when the peer's first subprotocol message
	// is not Status.
	ErrNoStatusMsg = errors.New("eth: first message was not Status")
	// ErrGenesisMismatch and ErrNetworkMismatch are returned by Handshake
	// when the two sides can never agree on a chain, per §6: "a peer whose
	// status reports a different genesis_hash or network_id is dropped
	// with UselessPeer".
	ErrGenesisMismatch = errors.New("eth: genesis hash mismatch")
	ErrNetworkMismatch = errors.New("eth: network id mismatch")
)

// Handshake sends the local Status over peer and waits for the peer's own
// Status, validating it against local before returning it. On any
// disagreement the peer is disconnected with DiscUselessPeer and an error
// is returned; the caller does not need to disconnect again.
func Handshake(peer *p2p.Peer, local Status) (*Status, error) {
	data, err := rlp.EncodeToBytes(&local)
	if err != nil {
		return nil, err
	}
	peer.Send(StatusMsg, data)

	select {
	case msg := <-peer.Inbound:
		if msg.Code != StatusMsg {
			_ = peer.Disconnect(p2p.DiscProtocolError)
			return nil, ErrNoStatusMsg
		}
		var remote Status
		if err := rlp.DecodeBytes(msg.Data, &remote); err != nil {
			_ = peer.Disconnect(p2p.DiscProtocolError)
			return nil, err
		}
		if err := validateStatus(local, remote); err != nil {
			_ = peer.Disconnect(p2p.DiscUselessPeer)
			return nil, err
		}
		return &remote, nil
	case <-time.After(statusTimeout):
		_ = peer.Disconnect(p2p.DiscReadTimeout)
		return nil, ErrNoStatusMsg
	}
}

// validateStatus applies §6's peer-compatibility rule: a different
// genesis_hash or network_id makes the peer useless.
func validateStatus(local, remote Status) error {
	if remote.GenesisHash != local.GenesisHash {
		return ErrGenesisMismatch
	}
	if remote.NetworkID != local.NetworkID {
		return ErrNetworkMismatch
	}
	return nil
}
