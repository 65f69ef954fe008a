// Copyright 2024 The mana-sub006 Authors
// This file is part of mana-sub006, licensed LGPLv3-or-later.

package types

import (
	"github.com/holiman/uint256"

	"github.com/mana-ethereum/mana-sub006/common"
	"github.com/mana-ethereum/mana-sub006/crypto"
	"github.com/mana-ethereum/mana-sub006/trie"
)

// EmptyCodeHash is Keccak256 of the empty byte string, the code_hash of any
// account with no code (§3 invariant: code_hash = Keccak(code)).
var EmptyCodeHash = crypto.Keccak256Hash(nil)

// Account is the §3 account record: {nonce, balance, storage_root, code_hash}.
type Account struct {
	Nonce       uint64
	Balance     *uint256.Int
	StorageRoot common.Hash
	CodeHash    common.Hash
}

// NewEmptyAccount returns a "simple" account per §3: nonce 0, zero balance,
// empty storage, no code.
func NewEmptyAccount() *Account {
	return &Account{
		Balance:     new(uint256.Int),
		StorageRoot: trie.EmptyRootHash,
		CodeHash:    EmptyCodeHash,
	}
}

// IsSimple reports whether a is the default, newly-created account shape.
func (a *Account) IsSimple() bool {
	return a.Nonce == 0 && a.Balance.IsZero() && a.CodeHash == EmptyCodeHash
}

// IsEmpty reports the post-EIP-161 "dead account" condition: balance=0,
// nonce=0, code=∅.
func (a *Account) IsEmpty() bool {
	return a.Nonce == 0 && a.Balance.IsZero() && a.CodeHash == EmptyCodeHash
}

// Copy returns a deep copy, used by the state layer's snapshot/journal.
func (a *Account) Copy() *Account {
	cp := *a
	cp.Balance = new(uint256.Int).Set(a.Balance)
	return &cp
}
