// Copyright 2024 The mana-sub006 Authors
// This file is part of mana-sub006, licensed LGPLv3-or-later.

package types

import (
	"hash/fnv"
	"testing"

	"github.com/holiman/bloomfilter/v2"
	"github.com/stretchr/testify/require"

	"github.com/mana-ethereum/mana-sub006/common"
)

// TestLogsBloomNoFalseNegatives cross-checks the hand-rolled §3 bloom
// against an independent general-purpose filter (holiman/bloomfilter)
// built over the same log set. The two use unrelated hash schemes, so
// their bit patterns never match, but neither may ever report a false
// negative for an item it was actually given.
func TestLogsBloomNoFalseNegatives(t *testing.T) {
	logs := []*Log{
		{
			Address: common.BytesToAddress([]byte{0x01}),
			Topics:  []common.Hash{common.BytesToHash([]byte("transfer"))},
		},
		{
			Address: common.BytesToAddress([]byte{0x02}),
			Topics:  []common.Hash{common.BytesToHash([]byte("approval")), common.BytesToHash([]byte("owner"))},
		},
	}

	ours := LogsBloom(logs)

	reference, err := bloomfilter.NewOptimal(64, 0.001)
	require.NoError(t, err)
	var items [][]byte
	for _, l := range logs {
		items = append(items, l.Address.Bytes())
		for _, topic := range l.Topics {
			items = append(items, topic.Bytes())
		}
	}
	for _, item := range items {
		h := fnv.New64()
		h.Write(item)
		reference.Add(h)
	}

	for _, item := range items {
		require.True(t, ours.Test(item, keccak256), "our bloom missed an item it was given")
		h := fnv.New64()
		h.Write(item)
		require.True(t, reference.Contains(h), "reference bloom missed an item it was given")
	}
}
