// Copyright 2024 The mana-sub006 Authors
// This file is part of mana-sub006, licensed LGPLv3-or-later.

// Package state implements §4.D: a three-level write-through cache in front
// of the Merkle-Patricia trie, with per-transaction journaling and
// commit/revert/snapshot semantics, mirroring erigon/go-ethereum's
// IntraBlockState.
package state

import (
	"errors"
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/holiman/uint256"

	"github.com/mana-ethereum/mana-sub006/common"
	"github.com/mana-ethereum/mana-sub006/core/types"
	"github.com/mana-ethereum/mana-sub006/kv"
	"github.com/mana-ethereum/mana-sub006/trie"
)

var (
	ErrInsufficientBalance = errors.New("state: insufficient balance")
	ErrNonceOverflow       = errors.New("state: nonce overflow")
)

// accountCacheItem is level 2 of §4.D: {clean|dirty, account, {clean|dirty,
// code}}. The Open Question in §9 is resolved here: commit skips entries
// whose Dirty bit is unset, to avoid rewriting trie nodes whose content
// didn't actually change — marking everything dirty would still produce a
// correct root but would write far more nodes than necessary.
type accountCacheItem struct {
	account   *types.Account
	dirty     bool
	deleted   bool
	code      []byte
	codeDirty bool
	codeLoaded bool
}

// storageCacheItem is level 1: {current, initial}. current == nil means the
// slot was deleted (§3: "zero values are represented by absence").
type storageCacheItem struct {
	current *uint256.Int
	initial *uint256.Int
	dirty   bool
}

// IntraBlockState is the account state layer: the layered cache of §4.D
// plus the per-transaction sub-state most of the interpreter and block
// processor read/write through.
type IntraBlockState struct {
	store     kv.Store
	stateRoot common.Hash // the trie root this state layer was opened from

	accounts map[common.Address]*accountCacheItem
	storages map[common.Address]map[common.Hash]*storageCacheItem

	journal        []journalEntry
	nextRevisionID int
	validRevisions []revision

	// Sub-state, reset per-transaction by the caller via Prepare.
	selfDestructed mapset.Set[common.Address]
	touched        mapset.Set[common.Address]
	logs           []*types.Log
	refund         uint64
}

type revision struct {
	id          int
	journalIndex int
}

// New opens the account state layer against the world-state trie rooted at
// stateRoot.
func New(stateRoot common.Hash, store kv.Store) *IntraBlockState {
	return &IntraBlockState{
		store:          store,
		stateRoot:      stateRoot,
		accounts:       make(map[common.Address]*accountCacheItem),
		storages:       make(map[common.Address]map[common.Hash]*storageCacheItem),
		selfDestructed: mapset.NewThreadUnsafeSet[common.Address](),
		touched:        mapset.NewThreadUnsafeSet[common.Address](),
	}
}

// Prepare resets the per-transaction sub-state (logs, refund counter,
// self-destruct/touched sets) ahead of executing the next transaction; the
// cache itself (accounts/storages) persists across transactions within a
// block.
func (s *IntraBlockState) Prepare() {
	s.selfDestructed = mapset.NewThreadUnsafeSet[common.Address]()
	s.touched = mapset.NewThreadUnsafeSet[common.Address]()
	s.logs = nil
	s.refund = 0
	// Cached slots carry over, but their initial value restarts at the
	// value the new transaction begins with.
	for _, slots := range s.storages {
		for key, item := range slots {
			ni := *item
			ni.initial = ni.current
			slots[key] = &ni
		}
	}
	s.journal = nil
	s.validRevisions = nil
	s.nextRevisionID = 0
}

func (s *IntraBlockState) worldTrie() (*trie.Trie, error) {
	return trie.New(s.stateRoot, s.store)
}

// loadAccount fetches addr's cache entry, reading through to the trie on a
// cache miss, and returns the (possibly freshly-populated) entry.
func (s *IntraBlockState) loadAccount(addr common.Address) (*accountCacheItem, error) {
	if item, ok := s.accounts[addr]; ok {
		return item, nil
	}
	t, err := s.worldTrie()
	if err != nil {
		return nil, err
	}
	enc, err := t.Get(addr.Bytes())
	if err != nil {
		return nil, fmt.Errorf("state: reading account %s: %w", addr, err)
	}
	var item *accountCacheItem
	if enc == nil {
		item = &accountCacheItem{account: nil}
	} else {
		acc, err := decodeAccount(enc)
		if err != nil {
			return nil, err
		}
		item = &accountCacheItem{account: acc}
	}
	s.accounts[addr] = item
	return item, nil
}

// Account returns addr's account record, or nil if it does not exist.
func (s *IntraBlockState) Account(addr common.Address) (*types.Account, error) {
	item, err := s.loadAccount(addr)
	if err != nil {
		return nil, err
	}
	if item.account == nil || item.deleted {
		return nil, nil
	}
	return item.account, nil
}

// Exist reports whether addr has any account record at all (distinct from
// Empty, which also requires the account to be the post-EIP-161 dead
// shape).
func (s *IntraBlockState) Exist(addr common.Address) (bool, error) {
	acc, err := s.Account(addr)
	return acc != nil, err
}

// Empty reports the post-EIP-161 "dead account" condition of §3.
func (s *IntraBlockState) Empty(addr common.Address) (bool, error) {
	acc, err := s.Account(addr)
	if err != nil {
		return false, err
	}
	if acc == nil {
		return true, nil
	}
	item, _ := s.loadAccount(addr)
	code, err := s.Code(addr)
	if err != nil {
		return false, err
	}
	_ = item
	return acc.Nonce == 0 && acc.Balance.IsZero() && len(code) == 0, nil
}

// Code returns addr's contract code.
func (s *IntraBlockState) Code(addr common.Address) ([]byte, error) {
	item, err := s.loadAccount(addr)
	if err != nil {
		return nil, err
	}
	if item.account == nil {
		return nil, nil
	}
	if item.codeLoaded {
		return item.code, nil
	}
	if item.account.CodeHash == types.EmptyCodeHash {
		item.code, item.codeLoaded = nil, true
		return nil, nil
	}
	code, found, err := s.store.Get(codeKey(item.account.CodeHash))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("state: code for hash %s missing from store", item.account.CodeHash)
	}
	item.code, item.codeLoaded = code, true
	return code, nil
}

func codeKey(hash common.Hash) []byte {
	return append([]byte("code:"), hash.Bytes()...)
}

// loadStorageItem returns the storage cache item for (addr,key), reading
// through to addr's storage trie on a miss and populating initial on first
// read within the current transaction, per §4.D.
func (s *IntraBlockState) loadStorageItem(addr common.Address, key common.Hash) (*storageCacheItem, error) {
	slots, ok := s.storages[addr]
	if !ok {
		slots = make(map[common.Hash]*storageCacheItem)
		s.storages[addr] = slots
	}
	if item, ok := slots[key]; ok {
		return item, nil
	}
	acc, err := s.Account(addr)
	if err != nil {
		return nil, err
	}
	var val *uint256.Int
	if acc != nil {
		t, err := trie.New(acc.StorageRoot, s.store)
		if err != nil {
			return nil, err
		}
		enc, err := t.Get(storageTrieKey(key))
		if err != nil {
			return nil, err
		}
		if enc != nil {
			val = new(uint256.Int)
			val.SetBytes(enc)
		}
	}
	item := &storageCacheItem{current: val, initial: val}
	slots[key] = item
	return item, nil
}

func storageTrieKey(key common.Hash) []byte {
	return crypto256(key)
}

// Storage returns the current value of slot key of addr, within this
// transaction's view (reflecting any PutStorage/RemoveStorage already
// applied).
func (s *IntraBlockState) Storage(addr common.Address, key common.Hash) (*uint256.Int, error) {
	item, err := s.loadStorageItem(addr, key)
	if err != nil {
		return nil, err
	}
	if item.current == nil {
		return new(uint256.Int), nil
	}
	return new(uint256.Int).Set(item.current), nil
}

// InitialStorage returns the slot's value as of the start of the current
// transaction, driving EIP-1283/2200 net-metered refund accounting.
func (s *IntraBlockState) InitialStorage(addr common.Address, key common.Hash) (*uint256.Int, error) {
	item, err := s.loadStorageItem(addr, key)
	if err != nil {
		return nil, err
	}
	if item.initial == nil {
		return new(uint256.Int), nil
	}
	return new(uint256.Int).Set(item.initial), nil
}

// PutAccount installs a new or replacement account record, journaling the
// prior cache state for revert.
func (s *IntraBlockState) PutAccount(addr common.Address, acc *types.Account) error {
	item, err := s.loadAccount(addr)
	if err != nil {
		return err
	}
	prev := s.snapshotAccount(addr)
	s.journal = append(s.journal, createAccountChange{address: addr, prev: prev})
	newItem := *item
	newItem.account = acc
	newItem.dirty = true
	newItem.deleted = false
	s.accounts[addr] = &newItem
	return nil
}

// PutCode sets addr's contract code, deriving and storing its code_hash.
func (s *IntraBlockState) PutCode(addr common.Address, code []byte) error {
	item, err := s.loadAccount(addr)
	if err != nil {
		return err
	}
	prev := s.snapshotAccount(addr)
	s.journal = append(s.journal, codeChange{address: addr, prev: prev})

	acc := item.account
	if acc == nil {
		acc = types.NewEmptyAccount()
	} else {
		acc = acc.Copy()
	}
	acc.CodeHash = keccak256Hash(code)
	newItem := *item
	newItem.account = acc
	newItem.dirty = true
	newItem.code = code
	newItem.codeDirty = true
	newItem.codeLoaded = true
	s.accounts[addr] = &newItem
	return nil
}

// PutStorage writes value at slot key of addr. A zero value is equivalent
// to RemoveStorage, per §3 ("zero values are represented by absence").
func (s *IntraBlockState) PutStorage(addr common.Address, key common.Hash, value *uint256.Int) error {
	if value.IsZero() {
		return s.RemoveStorage(addr, key)
	}
	item, err := s.loadStorageItem(addr, key)
	if err != nil {
		return err
	}
	slots := s.storages[addr]
	prevItem := *item
	s.journal = append(s.journal, storageChange{address: addr, key: key, prevItem: &prevItem, prevExisted: true})
	newItem := *item
	newItem.current = new(uint256.Int).Set(value)
	newItem.dirty = true
	slots[key] = &newItem
	return nil
}

// RemoveStorage clears slot key of addr.
func (s *IntraBlockState) RemoveStorage(addr common.Address, key common.Hash) error {
	item, err := s.loadStorageItem(addr, key)
	if err != nil {
		return err
	}
	slots := s.storages[addr]
	prevItem := *item
	s.journal = append(s.journal, storageChange{address: addr, key: key, prevItem: &prevItem, prevExisted: true})
	newItem := *item
	newItem.current = nil
	newItem.dirty = true
	slots[key] = &newItem
	return nil
}

// IncrementNonce bumps addr's nonce by one, failing at the u64 ceiling.
func (s *IntraBlockState) IncrementNonce(addr common.Address) error {
	item, err := s.loadAccount(addr)
	if err != nil {
		return err
	}
	acc := item.account
	if acc == nil {
		acc = types.NewEmptyAccount()
	}
	if acc.Nonce == ^uint64(0) {
		return ErrNonceOverflow
	}
	prev := s.snapshotAccount(addr)
	s.journal = append(s.journal, nonceChange{address: addr, prev: prev})
	newAcc := acc.Copy()
	newAcc.Nonce++
	newItem := *item
	newItem.account = newAcc
	newItem.dirty = true
	s.accounts[addr] = &newItem
	return nil
}

// Transfer moves v from sender to recipient, failing with
// ErrInsufficientBalance if sender cannot afford it.
func (s *IntraBlockState) Transfer(from, to common.Address, v *uint256.Int) error {
	if v.IsZero() {
		s.Touch(to)
		return nil
	}
	if from == to {
		// A self-transfer nets to zero; applying it as two independent
		// balance mutations on the same cache entry would otherwise have
		// the second overwrite the first instead of composing.
		item, err := s.loadAccount(from)
		if err != nil {
			return err
		}
		if item.account == nil || item.account.Balance.Cmp(v) < 0 {
			return ErrInsufficientBalance
		}
		s.Touch(from)
		return nil
	}
	fromItem, err := s.loadAccount(from)
	if err != nil {
		return err
	}
	fromAcc := fromItem.account
	if fromAcc == nil || fromAcc.Balance.Cmp(v) < 0 {
		return ErrInsufficientBalance
	}
	toItem, err := s.loadAccount(to)
	if err != nil {
		return err
	}
	toAcc := toItem.account
	if toAcc == nil {
		toAcc = types.NewEmptyAccount()
	}

	prevFrom := s.snapshotAccount(from)
	s.journal = append(s.journal, balanceChange{address: from, prev: prevFrom})
	newFrom := fromAcc.Copy()
	newFrom.Balance.Sub(newFrom.Balance, v)
	nf := *fromItem
	nf.account, nf.dirty = newFrom, true
	s.accounts[from] = &nf

	prevTo := s.snapshotAccount(to)
	s.journal = append(s.journal, balanceChange{address: to, prev: prevTo})
	newTo := toAcc.Copy()
	newTo.Balance.Add(newTo.Balance, v)
	nt := *toItem
	nt.account, nt.dirty = newTo, true
	s.accounts[to] = &nt

	s.Touch(to)
	return nil
}

// AddBalance credits addr's balance directly (block rewards, miner fees).
func (s *IntraBlockState) AddBalance(addr common.Address, v *uint256.Int) error {
	if v.IsZero() {
		s.Touch(addr)
		return nil
	}
	item, err := s.loadAccount(addr)
	if err != nil {
		return err
	}
	acc := item.account
	if acc == nil {
		acc = types.NewEmptyAccount()
	}
	prev := s.snapshotAccount(addr)
	s.journal = append(s.journal, balanceChange{address: addr, prev: prev})
	newAcc := acc.Copy()
	newAcc.Balance.Add(newAcc.Balance, v)
	ni := *item
	ni.account, ni.dirty = newAcc, true
	s.accounts[addr] = &ni
	s.Touch(addr)
	return nil
}

// SubBalance debits addr's balance directly (up-front gas purchase at the
// start of transaction application), failing with ErrInsufficientBalance if
// addr cannot afford it.
func (s *IntraBlockState) SubBalance(addr common.Address, v *uint256.Int) error {
	if v.IsZero() {
		s.Touch(addr)
		return nil
	}
	item, err := s.loadAccount(addr)
	if err != nil {
		return err
	}
	acc := item.account
	if acc == nil || acc.Balance.Cmp(v) < 0 {
		return ErrInsufficientBalance
	}
	prev := s.snapshotAccount(addr)
	s.journal = append(s.journal, balanceChange{address: addr, prev: prev})
	newAcc := acc.Copy()
	newAcc.Balance.Sub(newAcc.Balance, v)
	ni := *item
	ni.account, ni.dirty = newAcc, true
	s.accounts[addr] = &ni
	s.Touch(addr)
	return nil
}

// SelfDestruct marks addr for removal at the end of the transaction and
// transfers its balance to beneficiary immediately (its other fields are
// retained until Finalise, matching the Yellow Paper: other code in the
// same transaction can still read the account until the tx ends).
func (s *IntraBlockState) SelfDestruct(addr, beneficiary common.Address) error {
	acc, err := s.Account(addr)
	if err != nil {
		return err
	}
	if acc == nil {
		return nil
	}
	wasDestructed := s.selfDestructed.Contains(addr)
	prev := s.snapshotAccount(addr)
	s.journal = append(s.journal, selfDestructChange{address: addr, prev: prev, wasSelfDestructed: wasDestructed})
	s.selfDestructed.Add(addr)

	if !acc.Balance.IsZero() && addr != beneficiary {
		if err := s.Transfer(addr, beneficiary, acc.Balance); err != nil {
			return err
		}
	}
	return nil
}

// HasSelfDestructed reports whether addr was marked for destruction during
// the current transaction.
func (s *IntraBlockState) HasSelfDestructed(addr common.Address) bool {
	return s.selfDestructed.Contains(addr)
}

// Touch records addr in the sub-state's touched set (§3), which drives
// post-EIP-161 empty-account cleanup at transaction end.
func (s *IntraBlockState) Touch(addr common.Address) {
	if s.touched.Contains(addr) {
		return
	}
	s.journal = append(s.journal, touchChange{address: addr, wasTouched: false})
	s.touched.Add(addr)
}

// TouchedAddresses returns the sub-state's touched set.
func (s *IntraBlockState) TouchedAddresses() []common.Address {
	return s.touched.ToSlice()
}

// AddLog appends a log entry emitted by the executing contract.
func (s *IntraBlockState) AddLog(l *types.Log) {
	s.journal = append(s.journal, addLogChange{})
	s.logs = append(s.logs, l)
}

// Logs returns the logs emitted so far in the current transaction.
func (s *IntraBlockState) Logs() []*types.Log { return s.logs }

// AddRefund increases the gas-refund counter.
func (s *IntraBlockState) AddRefund(gas uint64) {
	s.journal = append(s.journal, refundChange{prev: s.refund})
	s.refund += gas
}

// SubRefund decreases the gas-refund counter, used by SSTORE's net-metered
// un-clear case; it never underflows below zero.
func (s *IntraBlockState) SubRefund(gas uint64) {
	s.journal = append(s.journal, refundChange{prev: s.refund})
	if gas > s.refund {
		s.refund = 0
		return
	}
	s.refund -= gas
}

// Refund returns the current refund-counter value.
func (s *IntraBlockState) Refund() uint64 { return s.refund }

// Snapshot returns a cheap revision token: an id recorded against the
// current journal length.
func (s *IntraBlockState) Snapshot() int {
	id := s.nextRevisionID
	s.nextRevisionID++
	s.validRevisions = append(s.validRevisions, revision{id: id, journalIndex: len(s.journal)})
	return id
}

// RevertToSnapshot discards every journal entry newer than snapshot id, in
// LIFO order, matching the interpreter's call/create-frame RAII discipline
// (§5: "snapshots ... released in LIFO order").
func (s *IntraBlockState) RevertToSnapshot(id int) {
	idx := -1
	for i, r := range s.validRevisions {
		if r.id == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		panic(fmt.Sprintf("state: no snapshot %d", id))
	}
	journalIndex := s.validRevisions[idx].journalIndex
	for i := len(s.journal) - 1; i >= journalIndex; i-- {
		s.journal[i].revert(s)
	}
	s.journal = s.journal[:journalIndex]
	s.validRevisions = s.validRevisions[:idx]
}

// FinaliseEmptyAccounts marks every touched, empty account deleted in the
// cache, per §4.F's post-EIP-161 "clear touched accounts that are empty",
// and marks every account self-destructed in this transaction deleted too.
// Call this once at the end of transaction processing, only when the
// active Rules enables EIP-158.
func (s *IntraBlockState) FinaliseEmptyAccounts() error {
	for _, addr := range s.touched.ToSlice() {
		empty, err := s.Empty(addr)
		if err != nil {
			return err
		}
		if empty {
			if item, ok := s.accounts[addr]; ok {
				ni := *item
				ni.deleted = true
				ni.dirty = true
				s.accounts[addr] = &ni
			}
		}
	}
	for _, addr := range s.selfDestructed.ToSlice() {
		if item, ok := s.accounts[addr]; ok {
			ni := *item
			ni.deleted = true
			ni.dirty = true
			s.accounts[addr] = &ni
		}
	}
	return nil
}
