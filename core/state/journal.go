// Copyright 2024 The mana-sub006 Authors
// This file is part of mana-sub006, licensed LGPLv3-or-later.

package state

import "github.com/mana-ethereum/mana-sub006/common"

// journalEntry is one undoable mutation. The journal is an ordered log of
// inverse operations (§9 option (a)): reverting to a snapshot replays
// entries newer than the snapshot's index, in reverse, discarding them.
type journalEntry interface {
	revert(s *IntraBlockState)
}

type (
	createAccountChange struct {
		address common.Address
		prev    *accountCacheItem // nil if the address had no cache entry before
	}
	balanceChange struct {
		address common.Address
		prev    *accountCacheItem
	}
	nonceChange struct {
		address common.Address
		prev    *accountCacheItem
	}
	codeChange struct {
		address common.Address
		prev    *accountCacheItem
	}
	storageChange struct {
		address  common.Address
		key      common.Hash
		prevItem *storageCacheItem
		prevExisted bool
	}
	selfDestructChange struct {
		address common.Address
		prev    *accountCacheItem
		wasSelfDestructed bool
	}
	touchChange struct {
		address common.Address
		wasTouched bool
	}
	refundChange struct {
		prev uint64
	}
	addLogChange struct{}
)

func (c createAccountChange) revert(s *IntraBlockState) { s.restoreAccount(c.address, c.prev) }
func (c balanceChange) revert(s *IntraBlockState)       { s.restoreAccount(c.address, c.prev) }
func (c nonceChange) revert(s *IntraBlockState)         { s.restoreAccount(c.address, c.prev) }
func (c codeChange) revert(s *IntraBlockState)          { s.restoreAccount(c.address, c.prev) }

func (c storageChange) revert(s *IntraBlockState) {
	slots := s.storages[c.address]
	if slots == nil {
		return
	}
	if !c.prevExisted {
		delete(slots, c.key)
		return
	}
	slots[c.key] = c.prevItem
}

func (c selfDestructChange) revert(s *IntraBlockState) {
	if c.wasSelfDestructed {
		s.selfDestructed.Add(c.address)
	} else {
		s.selfDestructed.Remove(c.address)
	}
	s.restoreAccount(c.address, c.prev)
}

func (c touchChange) revert(s *IntraBlockState) {
	if c.wasTouched {
		s.touched.Add(c.address)
	} else {
		s.touched.Remove(c.address)
	}
}

func (c refundChange) revert(s *IntraBlockState) { s.refund = c.prev }

func (c addLogChange) revert(s *IntraBlockState) {
	s.logs = s.logs[:len(s.logs)-1]
}

func (s *IntraBlockState) restoreAccount(addr common.Address, prev *accountCacheItem) {
	if prev == nil {
		delete(s.accounts, addr)
		return
	}
	cp := *prev
	s.accounts[addr] = &cp
}

// snapshotAccount returns a copy of the current cache entry for addr,
// suitable as a journal entry's "prev" value, or nil if there is none yet.
func (s *IntraBlockState) snapshotAccount(addr common.Address) *accountCacheItem {
	cur, ok := s.accounts[addr]
	if !ok {
		return nil
	}
	cp := *cur
	if cur.account != nil {
		cp.account = cur.account.Copy()
	}
	return &cp
}
