// Copyright 2024 The mana-sub006 Authors
// This file is part of mana-sub006, licensed LGPLv3-or-later.

package trie

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mana-ethereum/mana-sub006/common"
	"github.com/mana-ethereum/mana-sub006/kv"
)

func TestEmptyRootHash(t *testing.T) {
	require.Equal(t, "0x56e81f171bcc55a6ff8345e692c0f86e5b48e01b996cadc001622fb5e363b421",
		EmptyRootHash.String())
}

func TestNewEmptyTrieHash(t *testing.T) {
	tr, err := New(common.Hash{}, kv.NewMemDB())
	require.NoError(t, err)
	require.Equal(t, EmptyRootHash, tr.Hash())
}

func TestPutGetCommit(t *testing.T) {
	db := kv.NewMemDB()
	tr, err := New(common.Hash{}, db)
	require.NoError(t, err)

	entries := map[string]string{
		"do":    "verb",
		"dog":   "puppy",
		"dogglesworth": "cat",
		"horse": "stallion",
	}
	for k, v := range entries {
		require.NoError(t, tr.Put([]byte(k), []byte(v)))
	}
	for k, v := range entries {
		got, err := tr.Get([]byte(k))
		require.NoError(t, err)
		require.Equal(t, v, string(got))
	}

	root, err := tr.Commit()
	require.NoError(t, err)
	require.NotEqual(t, EmptyRootHash, root)

	// Reopen from the backing store and confirm everything is still there.
	tr2, err := New(root, db)
	require.NoError(t, err)
	for k, v := range entries {
		got, err := tr2.Get([]byte(k))
		require.NoError(t, err)
		require.Equal(t, v, string(got))
	}
}

func TestDeleteAbsentKeyPreservesRoot(t *testing.T) {
	db := kv.NewMemDB()
	tr, err := New(common.Hash{}, db)
	require.NoError(t, err)
	require.NoError(t, tr.Put([]byte("dog"), []byte("puppy")))
	root1, err := tr.Commit()
	require.NoError(t, err)

	tr2, err := New(root1, db)
	require.NoError(t, err)
	require.NoError(t, tr2.Delete([]byte("nonexistent")))
	root2, err := tr2.Commit()
	require.NoError(t, err)
	require.Equal(t, root1, root2)
}

func TestPutThenDeleteReturnsEmptyRoot(t *testing.T) {
	db := kv.NewMemDB()
	tr, err := New(common.Hash{}, db)
	require.NoError(t, err)
	require.NoError(t, tr.Put([]byte("dog"), []byte("puppy")))
	require.NoError(t, tr.Delete([]byte("dog")))
	require.Equal(t, EmptyRootHash, tr.Hash())
}

func TestOverwrite(t *testing.T) {
	db := kv.NewMemDB()
	tr, err := New(common.Hash{}, db)
	require.NoError(t, err)
	require.NoError(t, tr.Put([]byte("key"), []byte("value1")))
	require.NoError(t, tr.Put([]byte("key"), []byte("value2")))
	got, err := tr.Get([]byte("key"))
	require.NoError(t, err)
	require.Equal(t, "value2", string(got))
}
