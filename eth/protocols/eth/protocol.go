// Copyright 2024 The mana-sub006 Authors
// This file is part of mana-sub006, licensed LGPLv3-or-later.

// Package eth implements the eth/63 subprotocol named in §6: the Status
// handshake and the block header/body/receipt/node-data request-response
// messages exchanged once a p2p session is active.
package eth

import (
	"io"
	"math/big"

	"github.com/mana-ethereum/mana-sub006/common"
	"github.com/mana-ethereum/mana-sub006/core/types"
	"github.com/mana-ethereum/mana-sub006/p2p"
	"github.com/mana-ethereum/mana-sub006/rlp"
)

// ProtocolName and ProtocolVersion identify this subprotocol in a peer's
// Hello capability list, per §6 "eth/63".
const (
	ProtocolName    = "eth"
	ProtocolVersion = 63
)

// Message codes, offset by p2p.BaseProtocolLength so they never collide
// with the base Hello/Disconnect/Ping/Pong codes, matching real eth/63.
const (
	StatusMsg          = p2p.BaseProtocolLength + 0x00
	NewBlockHashesMsg  = p2p.BaseProtocolLength + 0x01
	TransactionsMsg    = p2p.BaseProtocolLength + 0x02
	GetBlockHeadersMsg = p2p.BaseProtocolLength + 0x03
	BlockHeadersMsg    = p2p.BaseProtocolLength + 0x04
	GetBlockBodiesMsg  = p2p.BaseProtocolLength + 0x05
	BlockBodiesMsg     = p2p.BaseProtocolLength + 0x06
	NewBlockMsg        = p2p.BaseProtocolLength + 0x07
	GetNodeDataMsg     = p2p.BaseProtocolLength + 0x0d
	NodeDataMsg        = p2p.BaseProtocolLength + 0x0e
	GetReceiptsMsg     = p2p.BaseProtocolLength + 0x0f
	ReceiptsMsg        = p2p.BaseProtocolLength + 0x10
)

// Status is the first message both sides must exchange per §6: a peer
// whose genesis_hash or network_id disagrees is dropped with UselessPeer.
type Status struct {
	ProtocolVersion uint64
	NetworkID       uint64
	TotalDifficulty *big.Int
	BestHash        common.Hash
	GenesisHash     common.Hash
}

// HashOrNumber identifies a block by hash or by number, per the
// GetBlockHeaders "origin" field; exactly one is meaningful, mirroring how
// types.Transaction's To field distinguishes empty from present.
type HashOrNumber struct {
	Hash   common.Hash
	Number uint64
}

func (h HashOrNumber) isHash() bool { return h.Hash != (common.Hash{}) }

// EncodeRLP implements rlp.Encoder: a hash origin encodes as the 32-byte
// string, a number origin as the RLP integer.
func (h HashOrNumber) EncodeRLP(w io.Writer) error {
	if h.isHash() {
		return rlp.Encode(w, h.Hash.Bytes())
	}
	return rlp.Encode(w, h.Number)
}

// DecodeRLP implements rlp.Decoder. It receives the item's raw content (the
// Decoder contract strips the outer header before calling in), so a 32-byte
// payload is a hash and anything shorter is a big-endian number.
func (h *HashOrNumber) DecodeRLP(content []byte) error {
	if len(content) == common.HashLength {
		h.Hash = common.BytesToHash(content)
		h.Number = 0
		return nil
	}
	var n uint64
	if err := rlp.DecodeBytes(prependHeader(content), &n); err != nil {
		return err
	}
	h.Number = n
	h.Hash = common.Hash{}
	return nil
}

func prependHeader(content []byte) []byte {
	return rlp.EncodeBytes(content)
}

// GetBlockHeadersRequest asks for up to Amount headers starting at Origin,
// stepping Skip+1 headers at a time, in reverse if Reverse is set.
type GetBlockHeadersRequest struct {
	Origin  HashOrNumber
	Amount  uint64
	Skip    uint64
	Reverse bool
}

// BlockHeadersResponse answers GetBlockHeadersRequest.
type BlockHeadersResponse struct {
	Headers []*types.Header
}

// BlockBody pairs one block's transactions and ommers, the unit
// GetBlockBodies/BlockBodies exchange per block (the header is fetched
// separately via GetBlockHeaders, matching eth/63's split wire shape).
type BlockBody struct {
	Transactions []*types.Transaction
	Ommers       []*types.Header
}

// NewBlockData announces a freshly mined/received block and its chain's
// total difficulty, per eth/63's NewBlock message.
type NewBlockData struct {
	Block           *types.Block
	TotalDifficulty *big.Int
}

// NewBlockHash is one entry of a NewBlockHashes announcement.
type NewBlockHash struct {
	Hash   common.Hash
	Number uint64
}

// GetBlockBodiesRequest asks for the bodies matching Hashes, in order.
type GetBlockBodiesRequest struct {
	Hashes []common.Hash
}

// BlockBodiesResponse answers GetBlockBodiesRequest; a missing block is
// represented by its absence, so the response can be shorter than the
// request (matching eth/63's best-effort semantics).
type BlockBodiesResponse struct {
	Bodies []BlockBody
}

// GetReceiptsRequest asks for the receipt lists of the given blocks.
type GetReceiptsRequest struct {
	Hashes []common.Hash
}

// ReceiptsResponse answers GetReceiptsRequest, one receipt list per block.
type ReceiptsResponse struct {
	Receipts [][]*types.Receipt
}

// GetNodeDataRequest asks for raw trie/bytecode nodes by hash.
type GetNodeDataRequest struct {
	Hashes []common.Hash
}

// NodeDataResponse answers GetNodeDataRequest with the raw node bytes found.
type NodeDataResponse struct {
	Data [][]byte
}
