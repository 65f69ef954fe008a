// Copyright 2024 The mana-sub006 Authors
// This file is part of mana-sub006.
//
// mana-sub006 is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// mana-sub006 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with mana-sub006. If not, see <http://www.gnu.org/licenses/>.

// Package common defines the fixed-width identifiers shared across the
// protocol core: addresses, hashes, and the 2048-bit log bloom filter.
package common

import (
	"encoding/hex"
	"fmt"
)

const (
	HashLength    = 32
	AddressLength = 20
	BloomLength   = 256
)

// Hash is a 32-byte Keccak-256 digest.
type Hash [HashLength]byte

// BytesToHash left-pads b with zeroes if it is shorter than 32 bytes, and
// truncates from the left if it is longer.
func BytesToHash(b []byte) Hash {
	var h Hash
	if len(b) > HashLength {
		b = b[len(b)-HashLength:]
	}
	copy(h[HashLength-len(b):], b)
	return h
}

func (h Hash) Bytes() []byte  { return h[:] }
func (h Hash) String() string { return "0x" + hex.EncodeToString(h[:]) }
func (h Hash) IsZero() bool   { return h == Hash{} }

// Address is a 20-byte account identifier.
type Address [AddressLength]byte

// BytesToAddress left-pads b with zeroes if it is shorter than 20 bytes, and
// truncates from the left if it is longer.
func BytesToAddress(b []byte) Address {
	var a Address
	if len(b) > AddressLength {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b)
	return a
}

func (a Address) Bytes() []byte  { return a[:] }
func (a Address) String() string { return "0x" + hex.EncodeToString(a[:]) }
func (a Address) IsZero() bool   { return a == Address{} }
func (a Address) Hash() Hash     { return BytesToHash(a[:]) }

// Bloom is the 2048-bit (256-byte) logs bloom filter of §3.
type Bloom [BloomLength]byte

// bloomIndexes returns the three distinct bit indexes (0..2047) that
// represent membership of data in a bloom filter, per §3: three distinct
// 11-bit slices of Keccak(data).
func bloomIndexes(data []byte, keccak func([]byte) Hash) [3]uint {
	h := keccak(data)
	var idx [3]uint
	for i := 0; i < 3; i++ {
		bit := (uint(h[2*i])<<8 + uint(h[2*i+1])) & 0x7ff
		idx[i] = bit
	}
	return idx
}

// Add sets the bits corresponding to data's membership, per §3.
func (b *Bloom) Add(data []byte, keccak func([]byte) Hash) {
	idx := bloomIndexes(data, keccak)
	for _, i := range idx {
		b[BloomLength-1-i/8] |= 1 << (i % 8)
	}
}

// Test reports whether data's bits are all set (no false negatives, may
// false-positive), satisfying the §8 bloom invariant B(logs) ⊇ B({e}).
func (b Bloom) Test(data []byte, keccak func([]byte) Hash) bool {
	idx := bloomIndexes(data, keccak)
	for _, i := range idx {
		if b[BloomLength-1-i/8]&(1<<(i%8)) == 0 {
			return false
		}
	}
	return true
}

// OrBloom ORs other into b in place, used to accumulate per-log blooms into
// a per-transaction and then per-block bloom.
func (b *Bloom) OrBloom(other Bloom) {
	for i := range b {
		b[i] |= other[i]
	}
}

func (b Bloom) String() string { return "0x" + hex.EncodeToString(b[:]) }

// Hex decodes a 0x-prefixed hex string into bytes.
func Hex(s string) ([]byte, error) {
	if len(s) >= 2 && (s[:2] == "0x" || s[:2] == "0X") {
		s = s[2:]
	}
	if len(s)%2 == 1 {
		s = "0" + s
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("common: invalid hex string: %w", err)
	}
	return b, nil
}
