// Copyright 2024 The mana-sub006 Authors
// This file is part of mana-sub006, licensed LGPLv3-or-later.

package syncer

import (
	"encoding/binary"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/mana-ethereum/mana-sub006/common"
)

// hexutilUint64 renders n as the 0x-prefixed quantity JSON-RPC expects for
// block-number parameters (eth_getBlockByNumber's first argument).
func hexutilUint64(n uint64) string {
	return fmt.Sprintf("0x%x", n)
}

// mustHex decodes a 0x-prefixed hex string from a provider response,
// returning nil for an empty or malformed field rather than failing the
// whole block (the provider is an external collaborator; a single
// cosmetic field should not abort an otherwise-valid block fetch).
func mustHex(s string) []byte {
	b, err := common.Hex(s)
	if err != nil {
		return nil
	}
	return b
}

func bytesToUint64(b []byte) uint64 {
	var padded [8]byte
	if len(b) > 8 {
		b = b[len(b)-8:]
	}
	copy(padded[8-len(b):], b)
	return binary.BigEndian.Uint64(padded[:])
}

func uint256FromBytes(b []byte) *uint256.Int {
	return new(uint256.Int).SetBytes(b)
}
