// Copyright 2024 The mana-sub006 Authors
// This file is part of mana-sub006, licensed LGPLv3-or-later.

package syncer

import (
	"errors"
	"fmt"
	"time"

	"github.com/mana-ethereum/mana-sub006/common"
	"github.com/mana-ethereum/mana-sub006/core/types"
	"github.com/mana-ethereum/mana-sub006/eth/protocols/eth"
	"github.com/mana-ethereum/mana-sub006/p2p"
	"github.com/mana-ethereum/mana-sub006/rlp"
)

// requestTimeout bounds how long a single header/body fetch waits for its
// peer to answer, mirroring §5's "caller-specified" block-fetch timeout.
const requestTimeout = 15 * time.Second

var errRequestTimeout = errors.New("syncer: peer request timed out")

// PeerSync drives the p2p/eth63 path (cmd/mana's --bootnodes): it performs
// the eth/63 Status handshake, then fetches headers and bodies a batch at
// a time and feeds reconstructed blocks through loop in ascending order.
type PeerSync struct {
	peer        *p2p.Peer
	loop        *Loop
	networkID   uint64
	genesisHash common.Hash
	pending     *PendingBuffer
}

func NewPeerSync(peer *p2p.Peer, loop *Loop, networkID uint64, genesisHash common.Hash) *PeerSync {
	return &PeerSync{peer: peer, loop: loop, networkID: networkID, genesisHash: genesisHash, pending: NewPendingBuffer()}
}

// Handshake performs the eth/63 Status exchange over the already
// Hello-negotiated peer.
func (s *PeerSync) Handshake() (*eth.Status, error) {
	local := eth.Status{
		ProtocolVersion: eth.ProtocolVersion,
		NetworkID:       s.networkID,
		TotalDifficulty: s.loop.store.CurrentTotalDifficulty(),
		GenesisHash:     s.genesisHash,
	}
	if head := s.loop.store.CurrentHeader(); head != nil {
		local.BestHash = head.Hash()
	}
	return eth.Handshake(s.peer, local)
}

// FetchBatch requests up to amount headers starting at fromNumber and
// their bodies, reconstructs the blocks, and imports every one the
// PendingBuffer can deliver in strict ascending order starting at
// fromNumber. It returns the next block number still needed.
func (s *PeerSync) FetchBatch(fromNumber, amount uint64) (uint64, error) {
	headers, err := s.requestHeaders(fromNumber, amount)
	if err != nil {
		return fromNumber, err
	}
	if len(headers) == 0 {
		return fromNumber, nil
	}

	bodies, err := s.requestBodies(headers)
	if err != nil {
		return fromNumber, err
	}
	for i, header := range headers {
		if i >= len(bodies) {
			break
		}
		block := types.NewBlock(header, bodies[i].Transactions, bodies[i].Ommers)
		s.pending.Add(block)
	}

	next := fromNumber
	for {
		block, ok := s.pending.PopReady(next)
		if !ok {
			break
		}
		if next == 0 {
			if err := s.loop.ImportGenesis(block); err != nil {
				return next, fmt.Errorf("syncer: peer genesis import: %w", err)
			}
		} else if err := s.loop.ImportBlock(block); err != nil {
			return next, fmt.Errorf("syncer: peer block %d import: %w", next, err)
		}
		next++
	}
	return next, nil
}

func (s *PeerSync) requestHeaders(fromNumber, amount uint64) ([]*types.Header, error) {
	req := eth.GetBlockHeadersRequest{Origin: eth.HashOrNumber{Number: fromNumber}, Amount: amount}
	data, err := rlp.EncodeToBytes(&req)
	if err != nil {
		return nil, err
	}
	s.peer.Send(eth.GetBlockHeadersMsg, data)

	select {
	case msg := <-s.peer.Inbound:
		if msg.Code != eth.BlockHeadersMsg {
			return nil, fmt.Errorf("syncer: expected BlockHeaders, got code %d", msg.Code)
		}
		var resp eth.BlockHeadersResponse
		if err := rlp.DecodeBytes(msg.Data, &resp); err != nil {
			return nil, err
		}
		return resp.Headers, nil
	case <-time.After(requestTimeout):
		return nil, errRequestTimeout
	}
}

func (s *PeerSync) requestBodies(headers []*types.Header) ([]eth.BlockBody, error) {
	hashes := make([]common.Hash, len(headers))
	for i, h := range headers {
		hashes[i] = h.Hash()
	}
	req := eth.GetBlockBodiesRequest{Hashes: hashes}
	data, err := rlp.EncodeToBytes(&req)
	if err != nil {
		return nil, err
	}
	s.peer.Send(eth.GetBlockBodiesMsg, data)

	select {
	case msg := <-s.peer.Inbound:
		if msg.Code != eth.BlockBodiesMsg {
			return nil, fmt.Errorf("syncer: expected BlockBodies, got code %d", msg.Code)
		}
		var resp eth.BlockBodiesResponse
		if err := rlp.DecodeBytes(msg.Data, &resp); err != nil {
			return nil, err
		}
		return resp.Bodies, nil
	case <-time.After(requestTimeout):
		return nil, errRequestTimeout
	}
}
