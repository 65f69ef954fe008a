// Copyright 2024 The mana-sub006 Authors
// This file is part of mana-sub006, licensed LGPLv3-or-later.

package types

import (
	"github.com/mana-ethereum/mana-sub006/common"
	"github.com/mana-ethereum/mana-sub006/crypto"
)

// Log is the §3 log entry: {address, topics (≤4 hashes), data}.
type Log struct {
	Address common.Address
	Topics  []common.Hash
	Data    []byte
}

// bloomItems returns the byte strings hashed for bloom membership of the
// address and of each topic, per §3.
func (l *Log) bloomItems() [][]byte {
	items := make([][]byte, 0, 1+len(l.Topics))
	items = append(items, l.Address.Bytes())
	for _, t := range l.Topics {
		items = append(items, t.Bytes())
	}
	return items
}

// AddToBloom sets l's membership bits in b.
func (l *Log) AddToBloom(b *common.Bloom) {
	for _, item := range l.bloomItems() {
		b.Add(item, keccak256)
	}
}

// keccak256 adapts the variadic crypto.Keccak256Hash to the single-argument
// hash function shape common.Bloom's Add/Test expect.
func keccak256(data []byte) common.Hash { return crypto.Keccak256Hash(data) }

// LogsBloom computes the bloom filter over a full log set, satisfying §8's
// invariant that it is a superset (bitwise OR) of every individual log's
// bloom.
func LogsBloom(logs []*Log) common.Bloom {
	var b common.Bloom
	for _, l := range logs {
		l.AddToBloom(&b)
	}
	return b
}
