// Copyright 2024 The mana-sub006 Authors
// This file is part of mana-sub006, licensed LGPLv3-or-later.

package state

import (
	"github.com/holiman/uint256"

	"github.com/mana-ethereum/mana-sub006/common"
	"github.com/mana-ethereum/mana-sub006/core/types"
	"github.com/mana-ethereum/mana-sub006/crypto"
	"github.com/mana-ethereum/mana-sub006/rlp"
)

// accountRLP is the wire form of types.Account: RLP([nonce, balance,
// storage_root, code_hash]).
type accountRLP struct {
	Nonce       uint64
	Balance     *uint256.Int
	StorageRoot common.Hash
	CodeHash    common.Hash
}

func encodeAccount(acc *types.Account) ([]byte, error) {
	return rlp.EncodeToBytes(&accountRLP{
		Nonce:       acc.Nonce,
		Balance:     acc.Balance,
		StorageRoot: acc.StorageRoot,
		CodeHash:    acc.CodeHash,
	})
}

func decodeAccount(enc []byte) (*types.Account, error) {
	a := accountRLP{Balance: new(uint256.Int)}
	if err := rlp.DecodeBytes(enc, &a); err != nil {
		return nil, err
	}
	return &types.Account{
		Nonce:       a.Nonce,
		Balance:     a.Balance,
		StorageRoot: a.StorageRoot,
		CodeHash:    a.CodeHash,
	}, nil
}

func keccak256Hash(data []byte) common.Hash { return crypto.Keccak256Hash(data) }

// crypto256 returns the key under which a storage word is indexed in the
// per-account storage trie: Keccak(word_key), per §3.
func crypto256(key common.Hash) []byte { return crypto.Keccak256(key.Bytes()) }
