// Copyright 2024 The mana-sub006 Authors
// This file is part of mana-sub006, licensed LGPLv3-or-later.

package types

import (
	"math/big"

	"github.com/mana-ethereum/mana-sub006/common"
	"github.com/mana-ethereum/mana-sub006/crypto"
	"github.com/mana-ethereum/mana-sub006/rlp"
)

// Header is the §3 block header.
type Header struct {
	ParentHash      common.Hash
	OmmersHash      common.Hash
	Beneficiary     common.Address
	StateRoot       common.Hash
	TransactionsRoot common.Hash
	ReceiptsRoot    common.Hash
	LogsBloom       common.Bloom
	Difficulty      *big.Int
	Number          *big.Int
	GasLimit        uint64
	GasUsed         uint64
	Timestamp       uint64
	ExtraData       []byte
	MixHash         common.Hash
	Nonce           [8]byte
}

// EmptyOmmersHash is Keccak(RLP([])), the ommers_hash of a block with no
// uncles.
var EmptyOmmersHash = crypto.Keccak256Hash(rlp.EncodeListPayload(nil))

// Hash returns the header hash, Keccak(RLP(header)) per §3.
func (h *Header) Hash() common.Hash {
	enc, err := rlp.EncodeToBytes(h)
	if err != nil {
		panic("types: header is always RLP-encodable: " + err.Error())
	}
	return crypto.Keccak256Hash(enc)
}

func (h *Header) Copy() *Header {
	cp := *h
	cp.Difficulty = new(big.Int).Set(h.Difficulty)
	cp.Number = new(big.Int).Set(h.Number)
	cp.ExtraData = append([]byte{}, h.ExtraData...)
	return &cp
}
