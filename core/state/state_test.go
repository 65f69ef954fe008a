// Copyright 2024 The mana-sub006 Authors
// This file is part of mana-sub006, licensed LGPLv3-or-later.

package state

import (
	"testing"

	"github.com/go-test/deep"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/mana-ethereum/mana-sub006/common"
	"github.com/mana-ethereum/mana-sub006/core/types"
	"github.com/mana-ethereum/mana-sub006/kv"
)

func TestAddBalanceAndCommit(t *testing.T) {
	db := kv.NewMemDB()
	s := New(common.Hash{}, db)
	addr := common.BytesToAddress([]byte{1})

	require.NoError(t, s.AddBalance(addr, uint256.NewInt(100)))
	acc, err := s.Account(addr)
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(100), acc.Balance)

	root, err := s.Commit()
	require.NoError(t, err)
	require.NotEqual(t, common.Hash{}, root)

	s2 := New(root, db)
	acc2, err := s2.Account(addr)
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(100), acc2.Balance)

	// The account read back from the trie must match the one committed in
	// every field, not just the one balance this test set.
	if diff := deep.Equal(acc, acc2); diff != nil {
		t.Fatalf("account round-trip mismatch: %v", diff)
	}
}

func TestSnapshotRevert(t *testing.T) {
	db := kv.NewMemDB()
	s := New(common.Hash{}, db)
	addr := common.BytesToAddress([]byte{2})
	require.NoError(t, s.AddBalance(addr, uint256.NewInt(10)))

	snap := s.Snapshot()
	require.NoError(t, s.AddBalance(addr, uint256.NewInt(5)))
	acc, _ := s.Account(addr)
	require.Equal(t, uint256.NewInt(15), acc.Balance)

	s.RevertToSnapshot(snap)
	acc, _ = s.Account(addr)
	require.Equal(t, uint256.NewInt(10), acc.Balance)
}

func TestTransferInsufficientBalance(t *testing.T) {
	db := kv.NewMemDB()
	s := New(common.Hash{}, db)
	from := common.BytesToAddress([]byte{3})
	to := common.BytesToAddress([]byte{4})
	require.NoError(t, s.PutAccount(from, types.NewEmptyAccount()))
	err := s.Transfer(from, to, uint256.NewInt(1))
	require.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestStoragePutRemoveCommit(t *testing.T) {
	db := kv.NewMemDB()
	s := New(common.Hash{}, db)
	addr := common.BytesToAddress([]byte{5})
	require.NoError(t, s.PutAccount(addr, types.NewEmptyAccount()))

	key := common.BytesToHash([]byte{0x01})
	require.NoError(t, s.PutStorage(addr, key, uint256.NewInt(42)))
	v, err := s.Storage(addr, key)
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(42), v)

	initial, err := s.InitialStorage(addr, key)
	require.NoError(t, err)
	require.True(t, initial.IsZero())

	root, err := s.Commit()
	require.NoError(t, err)

	s2 := New(root, db)
	v2, err := s2.Storage(addr, key)
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(42), v2)

	require.NoError(t, s2.RemoveStorage(addr, key))
	root2, err := s2.Commit()
	require.NoError(t, err)
	require.NotEqual(t, root, root2)
}

func TestIncrementNonceOverflow(t *testing.T) {
	db := kv.NewMemDB()
	s := New(common.Hash{}, db)
	addr := common.BytesToAddress([]byte{6})
	acc := types.NewEmptyAccount()
	acc.Nonce = ^uint64(0)
	require.NoError(t, s.PutAccount(addr, acc))
	err := s.IncrementNonce(addr)
	require.ErrorIs(t, err, ErrNonceOverflow)
}
