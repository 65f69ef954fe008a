// Copyright 2024 The mana-sub006 Authors
// This file is part of mana-sub006, licensed LGPLv3-or-later.

package rpc

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/holiman/uint256"
)

// hexutilUint64 renders n as the 0x-prefixed quantity JSON-RPC expects.
func hexutilUint64(n uint64) string {
	return fmt.Sprintf("0x%x", n)
}

func bytesToUint64(b []byte) uint64 {
	var padded [8]byte
	if len(b) > 8 {
		b = b[len(b)-8:]
	}
	copy(padded[8-len(b):], b)
	return binary.BigEndian.Uint64(padded[:])
}

// hexQuantity renders a uint256 balance or storage value as the minimal
// 0x-prefixed quantity §6's eth_getBalance/eth_getStorageAt return (no
// leading zeros, "0x0" for zero).
func hexQuantity(v *uint256.Int) string {
	if v == nil || v.IsZero() {
		return "0x0"
	}
	return "0x" + v.ToBig().Text(16)
}

func bytesToHexData(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}
