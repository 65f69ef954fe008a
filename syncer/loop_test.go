// Copyright 2024 The mana-sub006 Authors
// This file is part of mana-sub006, licensed LGPLv3-or-later.

package syncer

import (
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/mana-ethereum/mana-sub006/common"
	"github.com/mana-ethereum/mana-sub006/core"
	"github.com/mana-ethereum/mana-sub006/core/state"
	"github.com/mana-ethereum/mana-sub006/core/types"
	"github.com/mana-ethereum/mana-sub006/crypto"
	"github.com/mana-ethereum/mana-sub006/kv"
	"github.com/mana-ethereum/mana-sub006/params"
	"github.com/mana-ethereum/mana-sub006/trie"
)

func addr(b byte) common.Address {
	var a common.Address
	for i := range a {
		a[i] = b
	}
	return a
}

// TestLoopImportsGenesisThenBlock chains a prefunded genesis into one
// value-transfer block through the full Loop/ChainStore path, the way
// SyncFromProvider would, checking the canonical head advances correctly.
func TestLoopImportsGenesisThenBlock(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	sender := crypto.PubkeyToAddress(key.PublicKey)
	receiver := addr(0xbb)
	beneficiary := addr(0xcc)
	senderAccount := &types.Account{
		Balance: uint256.NewInt(1_000_000), StorageRoot: trie.EmptyRootHash, CodeHash: types.EmptyCodeHash,
	}

	// Discover the post-genesis state root by committing the prefunded
	// account against a throwaway store with the same deterministic input.
	seedDB := kv.NewMemDB()
	seedState := state.New(trie.EmptyRootHash, seedDB)
	require.NoError(t, seedState.PutAccount(sender, senderAccount))
	genesisRoot, err := seedState.Commit()
	require.NoError(t, err)

	genesisHeader := &types.Header{
		Number: big.NewInt(0), Difficulty: big.NewInt(131072),
		GasLimit: 1_000_000, Timestamp: 55,
		StateRoot:        genesisRoot,
		TransactionsRoot: trie.EmptyRootHash,
		ReceiptsRoot:     trie.EmptyRootHash,
		OmmersHash:       types.EmptyOmmersHash,
	}
	genesisBlock := types.NewBlock(genesisHeader, nil, nil)

	tx := &types.Transaction{
		Nonce: 0, GasPrice: big.NewInt(1), GasLimit: 21000,
		To: &receiver, Value: uint256.NewInt(100),
	}
	sigHash, err := tx.SigningHash(nil)
	require.NoError(t, err)
	sig, err := crypto.Sign(sigHash.Bytes(), key)
	require.NoError(t, err)
	tx.R, tx.S, tx.V = new(big.Int).SetBytes(sig[:32]), new(big.Int).SetBytes(sig[32:64]), big.NewInt(27+int64(sig[64]))
	txs := []*types.Transaction{tx}

	// Discover block 1's post-execution roots the same way: run the real
	// processor against an independently-seeded copy of genesis state.
	discoverDB := kv.NewMemDB()
	discoverState := state.New(trie.EmptyRootHash, discoverDB)
	require.NoError(t, discoverState.PutAccount(sender, senderAccount))
	_, err = discoverState.Commit()
	require.NoError(t, err)

	discoverState2 := state.New(genesisRoot, discoverDB)
	draftHeader := &types.Header{Number: big.NewInt(1), GasLimit: 1_000_000, Timestamp: 65, Difficulty: big.NewInt(131136), Beneficiary: beneficiary}
	draftBlock := types.NewBlock(draftHeader, txs, nil)
	proc := core.NewStateProcessor(params.FrontierChainConfig)
	receipts, gasUsed, err := proc.Process(draftBlock, discoverState2)
	require.NoError(t, err)
	var bloom common.Bloom
	for _, r := range receipts {
		bloom.OrBloom(r.LogsBloom)
	}
	txRoot, err := core.DeriveTransactionsRoot(txs)
	require.NoError(t, err)
	receiptsRoot, err := core.DeriveReceiptsRoot(receipts)
	require.NoError(t, err)
	postStateRoot, err := discoverState2.Commit()
	require.NoError(t, err)

	block1Header := &types.Header{
		Number: big.NewInt(1), GasLimit: 1_000_000, GasUsed: gasUsed, Timestamp: 65,
		Difficulty:       big.NewInt(131136),
		Beneficiary:      beneficiary,
		ParentHash:       genesisHeader.Hash(),
		TransactionsRoot: txRoot,
		ReceiptsRoot:     receiptsRoot,
		LogsBloom:        bloom,
		StateRoot:        postStateRoot,
		OmmersHash:       types.EmptyOmmersHash,
	}
	block1 := types.NewBlock(block1Header, txs, nil)

	db := kv.NewMemDB()
	seedReal := state.New(trie.EmptyRootHash, db)
	require.NoError(t, seedReal.PutAccount(sender, senderAccount))
	_, err = seedReal.Commit()
	require.NoError(t, err)

	store := NewChainStore(db)
	loop := NewLoop(params.FrontierChainConfig, store, db)

	require.NoError(t, loop.ImportGenesis(genesisBlock))
	require.Equal(t, genesisHeader.Hash(), store.CurrentHeader().Hash())

	require.NoError(t, loop.ImportBlock(block1))
	require.Equal(t, block1Header.Hash(), store.CurrentHeader().Hash())
	require.Equal(t, uint64(1), store.CurrentHeader().Number.Uint64())

	recvAcc, err := state.New(postStateRoot, db).Account(receiver)
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(100), recvAcc.Balance)
}
