// Copyright 2024 The mana-sub006 Authors
// This file is part of mana-sub006, licensed LGPLv3-or-later.

// Package syncer implements §I: the block sync loop, its checkpointing
// discipline, and the kv-store seam between a fetched block and the
// committed chain. It drives core's validation/processing pipeline from
// two external sources: a JSON-RPC provider (cmd/sync's --provider-url)
// or a set of p2p peers speaking eth/63 (cmd/mana's --bootnodes).
package syncer

import (
	"encoding/binary"
	"math/big"

	"github.com/mana-ethereum/mana-sub006/common"
	"github.com/mana-ethereum/mana-sub006/core/types"
	"github.com/mana-ethereum/mana-sub006/kv"
	"github.com/mana-ethereum/mana-sub006/rlp"
)

// Key prefixes for the chain store's schema, grounded on erigon-lib/kv's
// table-per-prefix convention reduced to a single flat keyspace (per §1's
// scope, kv.Store has no table concept).
var (
	headerPrefix    = []byte("h")
	bodyPrefix      = []byte("b")
	receiptsPrefix  = []byte("r")
	canonicalPrefix = []byte("n")
	headKey         = []byte("current")
)

func headerKey(hash common.Hash) []byte   { return append(append([]byte{}, headerPrefix...), hash[:]...) }
func bodyKey(hash common.Hash) []byte     { return append(append([]byte{}, bodyPrefix...), hash[:]...) }
func receiptsKey(hash common.Hash) []byte { return append(append([]byte{}, receiptsPrefix...), hash[:]...) }

func canonicalKey(number uint64) []byte {
	key := append([]byte{}, canonicalPrefix...)
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], number)
	return append(key, buf[:]...)
}

// bodyRLP is the on-disk shape of a block's transactions and ommers, kept
// separate from its header so headers can be fetched without their bodies.
type bodyRLP struct {
	Transactions []*types.Transaction
	Ommers       []*types.Header
}

// ChainStore persists headers, bodies, and receipts and tracks the
// canonical chain, satisfying core.ChainReader for ommer validation and
// core/vm's BlockContext ancestor lookups.
type ChainStore struct {
	db kv.Store
}

func NewChainStore(db kv.Store) *ChainStore {
	return &ChainStore{db: db}
}

// HeaderByHash implements core.ChainReader.
func (c *ChainStore) HeaderByHash(hash common.Hash) (*types.Header, bool) {
	enc, ok, err := c.db.Get(headerKey(hash))
	if err != nil || !ok {
		return nil, false
	}
	var h types.Header
	if err := rlp.DecodeBytes(enc, &h); err != nil {
		return nil, false
	}
	return &h, true
}

// HeaderByNumber looks up the canonical header at number, used by
// eth_getBlockByNumber and by GetAncestor-style BlockContext callbacks.
func (c *ChainStore) HeaderByNumber(number uint64) (*types.Header, bool) {
	hashEnc, ok, err := c.db.Get(canonicalKey(number))
	if err != nil || !ok {
		return nil, false
	}
	return c.HeaderByHash(common.BytesToHash(hashEnc))
}

// IsCanonical implements core.ChainReader: hash is canonical if the
// canonical index at its header's number points back to it.
func (c *ChainStore) IsCanonical(hash common.Hash) bool {
	header, ok := c.HeaderByHash(hash)
	if !ok {
		return false
	}
	hashEnc, ok, err := c.db.Get(canonicalKey(header.Number.Uint64()))
	if err != nil || !ok {
		return false
	}
	return common.BytesToHash(hashEnc) == hash
}

// GetAncestor walks back from hash, at blockNumber, to the header ancestors
// generations below, returning its hash and number. It follows parent
// links from hash; it sets no lookback bound beyond blockNumber and does
// not consult the canonical index.
func (c *ChainStore) GetAncestor(hash common.Hash, blockNumber, ancestor uint64) (common.Hash, uint64, bool) {
	if ancestor > blockNumber {
		return common.Hash{}, 0, false
	}
	header, ok := c.HeaderByHash(hash)
	if !ok {
		return common.Hash{}, 0, false
	}
	for i := uint64(0); i < ancestor; i++ {
		header, ok = c.HeaderByHash(header.ParentHash)
		if !ok {
			return common.Hash{}, 0, false
		}
	}
	return header.Hash(), header.Number.Uint64(), true
}

// Body returns the transactions and ommers stored for hash.
func (c *ChainStore) Body(hash common.Hash) (*bodyRLP, bool) {
	enc, ok, err := c.db.Get(bodyKey(hash))
	if err != nil || !ok {
		return nil, false
	}
	var b bodyRLP
	if err := rlp.DecodeBytes(enc, &b); err != nil {
		return nil, false
	}
	return &b, true
}

// Block reassembles the full block at hash from its stored header and body.
func (c *ChainStore) Block(hash common.Hash) (*types.Block, bool) {
	header, ok := c.HeaderByHash(hash)
	if !ok {
		return nil, false
	}
	body, ok := c.Body(hash)
	if !ok {
		return nil, false
	}
	return types.NewBlock(header, body.Transactions, body.Ommers), true
}

// Receipts returns the receipts stored for the block at hash.
func (c *ChainStore) Receipts(hash common.Hash) ([]*types.Receipt, bool) {
	enc, ok, err := c.db.Get(receiptsKey(hash))
	if err != nil || !ok {
		return nil, false
	}
	var wrapped receiptsRLP
	if err := rlp.DecodeBytes(enc, &wrapped); err != nil {
		return nil, false
	}
	return wrapped.Receipts, true
}

type receiptsRLP struct {
	Receipts []*types.Receipt
}

// CurrentHeader returns the head of the canonical chain, or nil if the
// store is empty (genesis has not been committed yet).
func (c *ChainStore) CurrentHeader() *types.Header {
	hashEnc, ok, err := c.db.Get(headKey)
	if err != nil || !ok {
		return nil
	}
	header, ok := c.HeaderByHash(common.BytesToHash(hashEnc))
	if !ok {
		return nil
	}
	return header
}

// CurrentTotalDifficulty returns the accumulated difficulty of the
// canonical head, used to answer eth/63 Status and to pick the heaviest
// chain per §5's "heaviest-difficulty valid chain" ordering rule.
func (c *ChainStore) CurrentTotalDifficulty() *big.Int {
	head := c.CurrentHeader()
	if head == nil {
		return big.NewInt(0)
	}
	td, ok, err := c.db.Get(tdKey(head.Hash()))
	if err != nil || !ok {
		return new(big.Int).Set(head.Difficulty)
	}
	return new(big.Int).SetBytes(td)
}

func tdKey(hash common.Hash) []byte {
	return append([]byte("t"), hash[:]...)
}

// Commit persists block, its receipts, and the total difficulty it
// accumulates on top of its parent, and — if block extends the canonical
// chain's weight — advances the canonical index and head pointer. Storage
// and account data itself is committed separately by the caller's
// state.IntraBlockState; ChainStore only tracks chain shape.
func (c *ChainStore) Commit(block *types.Block, receipts []*types.Receipt) error {
	hash := block.Hash()

	headerEnc, err := rlp.EncodeToBytes(block.Header)
	if err != nil {
		return err
	}
	if err := c.db.Put(headerKey(hash), headerEnc); err != nil {
		return err
	}

	bodyEnc, err := rlp.EncodeToBytes(&bodyRLP{Transactions: block.Body.Transactions, Ommers: block.Body.Ommers})
	if err != nil {
		return err
	}
	if err := c.db.Put(bodyKey(hash), bodyEnc); err != nil {
		return err
	}

	receiptsEnc, err := rlp.EncodeToBytes(&receiptsRLP{Receipts: receipts})
	if err != nil {
		return err
	}
	if err := c.db.Put(receiptsKey(hash), receiptsEnc); err != nil {
		return err
	}

	parentTD := new(big.Int)
	if block.Header.Number.Sign() != 0 {
		if enc, ok, err := c.db.Get(tdKey(block.Header.ParentHash)); err == nil && ok {
			parentTD = new(big.Int).SetBytes(enc)
		}
	}
	td := new(big.Int).Add(parentTD, block.Header.Difficulty)
	if err := c.db.Put(tdKey(hash), td.Bytes()); err != nil {
		return err
	}

	currentTD := c.CurrentTotalDifficulty()
	if c.CurrentHeader() == nil || td.Cmp(currentTD) > 0 {
		if err := c.db.Put(canonicalKey(block.Header.Number.Uint64()), hash.Bytes()); err != nil {
			return err
		}
		if err := c.db.Put(headKey, hash.Bytes()); err != nil {
			return err
		}
	}
	return nil
}
