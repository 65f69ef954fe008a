// Copyright 2024 The mana-sub006 Authors
// This file is part of mana-sub006, licensed LGPLv3-or-later.

package core

import (
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/mana-ethereum/mana-sub006/common"
	"github.com/mana-ethereum/mana-sub006/core/state"
	"github.com/mana-ethereum/mana-sub006/core/types"
	"github.com/mana-ethereum/mana-sub006/crypto"
	"github.com/mana-ethereum/mana-sub006/kv"
	"github.com/mana-ethereum/mana-sub006/params"
	"github.com/mana-ethereum/mana-sub006/trie"
)

func TestValidateHeaderGenesis(t *testing.T) {
	header := &types.Header{
		Number:     big.NewInt(0),
		Difficulty: big.NewInt(131072),
		GasLimit:   200000,
	}
	require.NoError(t, ValidateHeader(params.FrontierChainConfig, header, nil))
}

func TestValidateHeaderGenesisWrongDifficulty(t *testing.T) {
	header := &types.Header{Number: big.NewInt(0), Difficulty: big.NewInt(1), GasLimit: 200000}
	require.ErrorIs(t, ValidateHeader(params.FrontierChainConfig, header, nil), ErrInvalidDifficulty)
}

// TestValidateHeaderDifficultyRetarget reproduces the ten-second-gap,
// pre-Homestead retargeting scenario: parent difficulty 131072 at number 0,
// child difficulty 131136 at number 1, a 10-second gap.
func TestValidateHeaderDifficultyRetarget(t *testing.T) {
	parent := &types.Header{
		Number: big.NewInt(0), Difficulty: big.NewInt(131072),
		Timestamp: 55, GasLimit: 1_000_000,
	}
	child := &types.Header{
		Number: big.NewInt(1), Difficulty: big.NewInt(131136),
		Timestamp: 65, GasLimit: 1_000_000,
	}
	require.NoError(t, ValidateHeader(params.FrontierChainConfig, child, parent))
}

func TestValidateHeaderGasLimitDrift(t *testing.T) {
	parent := &types.Header{Number: big.NewInt(0), Difficulty: big.NewInt(131072), Timestamp: 55, GasLimit: 1_000_000}
	child := &types.Header{
		Number: big.NewInt(1), Difficulty: big.NewInt(131136),
		Timestamp: 65, GasLimit: 2_000_000, // far outside the 1/1024 band
	}
	require.ErrorIs(t, ValidateHeader(params.FrontierChainConfig, child, parent), ErrGasLimitDrift)
}

// TestValidateTransactionFrontierCreation reproduces the Frontier
// contract-creation scenario: sender balance 100006, nonce 5,
// {gas_price=1, gas_limit=100000, init=[0x01], value=5}, header
// {gas_limit=500000, gas_used=49999}.
func TestValidateTransactionFrontierCreation(t *testing.T) {
	header := &types.Header{Number: big.NewInt(1), GasLimit: 500000, GasUsed: 49999}
	db := kv.NewMemDB()
	sdb := state.New(trie.EmptyRootHash, db)

	sender := common.BytesToAddress(bytesOf(0x7e, 20))
	require.NoError(t, sdb.PutAccount(sender, &types.Account{
		Nonce: 5, Balance: uint256.NewInt(100006),
		StorageRoot: trie.EmptyRootHash, CodeHash: types.EmptyCodeHash,
	}))

	tx := &types.Transaction{
		Nonce: 5, GasPrice: big.NewInt(1), GasLimit: 100000,
		To: nil, Value: uint256.NewInt(5), Data: []byte{0x01},
		V: big.NewInt(27), R: big.NewInt(1), S: big.NewInt(1),
	}
	require.NoError(t, ValidateTransaction(params.FrontierChainConfig, header, sdb, tx, sender))
}

func TestValidateTransactionNonceMismatch(t *testing.T) {
	header := &types.Header{Number: big.NewInt(1), GasLimit: 500000}
	db := kv.NewMemDB()
	sdb := state.New(trie.EmptyRootHash, db)

	sender := common.BytesToAddress(bytesOf(0x7e, 20))
	require.NoError(t, sdb.PutAccount(sender, &types.Account{
		Nonce: 5, Balance: uint256.NewInt(100006),
		StorageRoot: trie.EmptyRootHash, CodeHash: types.EmptyCodeHash,
	}))

	tx := &types.Transaction{
		Nonce: 6, GasPrice: big.NewInt(1), GasLimit: 100000,
		To: nil, Value: uint256.NewInt(5), Data: []byte{0x01},
		V: big.NewInt(27), R: big.NewInt(1), S: big.NewInt(1),
	}
	require.ErrorIs(t, ValidateTransaction(params.FrontierChainConfig, header, sdb, tx, sender), ErrNonceMismatch)
}

func bytesOf(b byte, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = b
	}
	return out
}

// TestProcessEmptyBlock checks an empty block's post-condition roots: no
// transactions means the empty trie root for both body tries, a zero
// bloom, zero gas used, and an unchanged (empty) state root.
func TestProcessEmptyBlock(t *testing.T) {
	db := kv.NewMemDB()
	sdb := state.New(trie.EmptyRootHash, db)

	header := &types.Header{
		Number: big.NewInt(1), GasLimit: 1_000_000, GasUsed: 0,
		TransactionsRoot: trie.EmptyRootHash,
		ReceiptsRoot:     trie.EmptyRootHash,
		StateRoot:        trie.EmptyRootHash,
	}
	block := types.NewBlock(header, nil, nil)

	proc := NewStateProcessor(params.FrontierChainConfig)
	receipts, gasUsed, err := proc.Process(block, sdb)
	require.NoError(t, err)
	require.Equal(t, uint64(0), gasUsed)
	require.Empty(t, receipts)

	require.NoError(t, ValidateBlock(block, sdb, receipts, gasUsed))
}

// TestProcessSimpleTransfer runs one value-transfer transaction through the
// full processor and checks the miner is paid and the sender/receiver
// balances net out exactly (§8 "sum_of_balances = sum_before - fees").
func TestProcessSimpleTransfer(t *testing.T) {
	db := kv.NewMemDB()
	sdb := state.New(trie.EmptyRootHash, db)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	sender := crypto.PubkeyToAddress(key.PublicKey)
	receiver := common.BytesToAddress(bytesOf(0xbb, 20))
	beneficiary := common.BytesToAddress(bytesOf(0xcc, 20))

	require.NoError(t, sdb.PutAccount(sender, &types.Account{
		Balance: uint256.NewInt(1_000_000), StorageRoot: trie.EmptyRootHash, CodeHash: types.EmptyCodeHash,
	}))

	header := &types.Header{
		Number: big.NewInt(1), GasLimit: 1_000_000, GasUsed: 21000,
		Beneficiary: beneficiary,
	}
	tx := &types.Transaction{
		Nonce: 0, GasPrice: big.NewInt(1), GasLimit: 21000,
		To: &receiver, Value: uint256.NewInt(100),
	}
	sigHash, err := tx.SigningHash(nil)
	require.NoError(t, err)
	sig, err := crypto.Sign(sigHash.Bytes(), key)
	require.NoError(t, err)
	tx.R, tx.S, tx.V = new(big.Int).SetBytes(sig[:32]), new(big.Int).SetBytes(sig[32:64]), big.NewInt(27+int64(sig[64]))
	block := types.NewBlock(header, []*types.Transaction{tx}, nil)

	proc := NewStateProcessor(params.FrontierChainConfig)
	receipts, gasUsed, err := proc.Process(block, sdb)
	require.NoError(t, err)
	require.Equal(t, uint64(21000), gasUsed)
	require.Len(t, receipts, 1)
	require.False(t, receipts[0].UseStatus) // pre-Byzantium: PostState form

	recvAcc, err := sdb.Account(receiver)
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(100), recvAcc.Balance)

	minerAcc, err := sdb.Account(beneficiary)
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(21000), minerAcc.Balance)

	senderAcc, err := sdb.Account(sender)
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(1_000_000-100-21000), senderAcc.Balance)
}
