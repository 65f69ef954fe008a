// Copyright 2024 The mana-sub006 Authors
// This file is part of mana-sub006, licensed LGPLv3-or-later.

package syncer

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mana-ethereum/mana-sub006/core/types"
	"github.com/mana-ethereum/mana-sub006/kv"
	"github.com/mana-ethereum/mana-sub006/trie"
)

func testHeader(number, difficulty int64) *types.Header {
	return &types.Header{
		Number:           big.NewInt(number),
		Difficulty:       big.NewInt(difficulty),
		GasLimit:         5_000_000,
		TransactionsRoot: trie.EmptyRootHash,
		ReceiptsRoot:     trie.EmptyRootHash,
		OmmersHash:       types.EmptyOmmersHash,
		StateRoot:        trie.EmptyRootHash,
	}
}

func TestChainStoreCommitAndLookup(t *testing.T) {
	db := kv.NewMemDB()
	store := NewChainStore(db)

	genesis := testHeader(0, 131072)
	genesisBlock := types.NewBlock(genesis, nil, nil)
	require.NoError(t, store.Commit(genesisBlock, nil))

	require.Equal(t, genesis.Number, store.CurrentHeader().Number)

	child := testHeader(1, 131136)
	child.ParentHash = genesis.Hash()
	childBlock := types.NewBlock(child, nil, nil)
	require.NoError(t, store.Commit(childBlock, nil))

	require.Equal(t, child.Hash(), store.CurrentHeader().Hash())
	require.True(t, store.IsCanonical(child.Hash()))
	require.True(t, store.IsCanonical(genesis.Hash()))

	got, ok := store.HeaderByNumber(1)
	require.True(t, ok)
	require.Equal(t, child.Hash(), got.Hash())

	ancestorHash, ancestorNumber, ok := store.GetAncestor(child.Hash(), 1, 1)
	require.True(t, ok)
	require.Equal(t, genesis.Hash(), ancestorHash)
	require.Equal(t, uint64(0), ancestorNumber)
}

func TestChainStoreRejectsLighterFork(t *testing.T) {
	db := kv.NewMemDB()
	store := NewChainStore(db)

	genesis := testHeader(0, 131072)
	require.NoError(t, store.Commit(types.NewBlock(genesis, nil, nil), nil))

	heavy := testHeader(1, 200000)
	heavy.ParentHash = genesis.Hash()
	require.NoError(t, store.Commit(types.NewBlock(heavy, nil, nil), nil))

	light := testHeader(1, 100000)
	light.ParentHash = genesis.Hash()
	light.GasLimit = 6_000_000 // distinguish hash from heavy
	require.NoError(t, store.Commit(types.NewBlock(light, nil, nil), nil))

	require.Equal(t, heavy.Hash(), store.CurrentHeader().Hash())
}
