// Copyright 2024 The mana-sub006 Authors
// This file is part of mana-sub006, licensed LGPLv3-or-later.

package state

import (
	"fmt"

	"github.com/mana-ethereum/mana-sub006/common"
	"github.com/mana-ethereum/mana-sub006/trie"
)

// Commit flushes dirty cache entries to the underlying tries in two
// phases — per-account storage tries first (producing new storage roots),
// then the accounts trie itself — and returns the new world-state root.
// Clean entries are skipped entirely: only entries whose dirty bit is set
// cause a trie write, which keeps a commit from rewriting trie nodes whose
// content did not change (§9 Open Question).
func (s *IntraBlockState) Commit() (common.Hash, error) {
	worldTrie, err := trie.New(s.stateRoot, s.store)
	if err != nil {
		return common.Hash{}, err
	}

	// Phase 1: storage tries, one per address with dirty slots.
	for addr, slots := range s.storages {
		anyDirty := false
		for _, item := range slots {
			if item.dirty {
				anyDirty = true
				break
			}
		}
		if !anyDirty {
			continue
		}
		item, err := s.loadAccount(addr)
		if err != nil {
			return common.Hash{}, err
		}
		if item.account == nil || item.deleted {
			continue // address has no account to own this storage (or was destroyed)
		}
		storageRoot := item.account.StorageRoot
		storageTrie, err := trie.New(storageRoot, s.store)
		if err != nil {
			return common.Hash{}, err
		}
		for key, slot := range slots {
			if !slot.dirty {
				continue
			}
			trieKey := storageTrieKey(key)
			if slot.current == nil {
				if err := storageTrie.Delete(trieKey); err != nil {
					return common.Hash{}, err
				}
				continue
			}
			enc := slot.current.Bytes()
			if err := storageTrie.Put(trieKey, enc); err != nil {
				return common.Hash{}, err
			}
		}
		newRoot, err := storageTrie.Commit()
		if err != nil {
			return common.Hash{}, err
		}
		newAcc := item.account.Copy()
		newAcc.StorageRoot = newRoot
		ni := *item
		ni.account = newAcc
		ni.dirty = true
		s.accounts[addr] = &ni
	}

	// Phase 2: code blobs and the accounts trie itself.
	for addr, item := range s.accounts {
		if !item.dirty {
			continue
		}
		if item.deleted {
			if err := worldTrie.Delete(addr.Bytes()); err != nil {
				return common.Hash{}, err
			}
			continue
		}
		if item.codeDirty {
			if err := s.store.Put(codeKey(item.account.CodeHash), item.code); err != nil {
				return common.Hash{}, err
			}
		}
		enc, err := encodeAccount(item.account)
		if err != nil {
			return common.Hash{}, fmt.Errorf("state: encoding account %s: %w", addr, err)
		}
		if err := worldTrie.Put(addr.Bytes(), enc); err != nil {
			return common.Hash{}, err
		}
	}

	newRoot, err := worldTrie.Commit()
	if err != nil {
		return common.Hash{}, err
	}
	s.stateRoot = newRoot

	// Clear dirty bits: the cache now reflects the committed trie, and a
	// second Commit() with no intervening mutation is a no-op (§8
	// idempotence: commit(commit(s)) = commit(s)).
	for addr, item := range s.accounts {
		ni := *item
		ni.dirty = false
		ni.codeDirty = false
		s.accounts[addr] = &ni
	}
	for _, slots := range s.storages {
		for key, item := range slots {
			ni := *item
			ni.dirty = false
			slots[key] = &ni
		}
	}
	return newRoot, nil
}
