// Copyright 2024 The mana-sub006 Authors
// This file is part of mana-sub006, licensed LGPLv3-or-later.

package core

import (
	"github.com/mana-ethereum/mana-sub006/common"
	"github.com/mana-ethereum/mana-sub006/core/types"
	"github.com/mana-ethereum/mana-sub006/kv"
	"github.com/mana-ethereum/mana-sub006/rlp"
	"github.com/mana-ethereum/mana-sub006/trie"
)

// deriveRoot builds an ephemeral trie over an in-memory store, keyed by
// RLP(index) per §6's "receipts trie keyed by RLP(index)" convention
// (applied identically to the transactions trie), and returns its root.
func deriveRoot(n int, encodeAt func(i int) ([]byte, error)) (common.Hash, error) {
	t, err := trie.New(common.Hash{}, kv.NewMemDB())
	if err != nil {
		return common.Hash{}, err
	}
	for i := 0; i < n; i++ {
		enc, err := encodeAt(i)
		if err != nil {
			return common.Hash{}, err
		}
		if err := t.Put(rlp.EncodeUint64(uint64(i)), enc); err != nil {
			return common.Hash{}, err
		}
	}
	return t.Hash(), nil
}

// DeriveTransactionsRoot computes the block body's transactions_root.
func DeriveTransactionsRoot(txs []*types.Transaction) (common.Hash, error) {
	return deriveRoot(len(txs), func(i int) ([]byte, error) {
		return rlp.EncodeToBytes(txs[i])
	})
}

// DeriveReceiptsRoot computes the block body's receipts_root.
func DeriveReceiptsRoot(receipts []*types.Receipt) (common.Hash, error) {
	return deriveRoot(len(receipts), func(i int) ([]byte, error) {
		return rlp.EncodeToBytes(receipts[i])
	})
}
