// Copyright 2024 The mana-sub006 Authors
// This file is part of mana-sub006, licensed LGPLv3-or-later.

package syncer

import (
	"sync"

	"github.com/google/btree"

	"github.com/mana-ethereum/mana-sub006/core/types"
)

// pendingBlock orders fetched-but-not-yet-committed blocks by number, since
// peer responses (and provider pagination) can arrive out of order.
type pendingBlock struct {
	number uint64
	block  *types.Block
}

func (p pendingBlock) Less(other btree.Item) bool {
	return p.number < other.(pendingBlock).number
}

// PendingBuffer reorders blocks fetched out of order into the strictly
// sequential stream the sync loop commits, per §5's "ordering is imposed
// at the sync queue's consumer". Backed by google/btree, mirroring
// erigon's own use of btrees for in-memory changeset indices.
type PendingBuffer struct {
	mu   sync.Mutex
	tree *btree.BTree
}

func NewPendingBuffer() *PendingBuffer {
	return &PendingBuffer{tree: btree.New(32)}
}

// Add inserts a fetched block, replacing any earlier block at the same
// number.
func (b *PendingBuffer) Add(block *types.Block) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tree.ReplaceOrInsert(pendingBlock{number: block.Number(), block: block})
}

// PopReady removes and returns the block at want if it is present, so the
// caller can commit strictly in ascending number order.
func (b *PendingBuffer) PopReady(want uint64) (*types.Block, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	item := b.tree.Get(pendingBlock{number: want})
	if item == nil {
		return nil, false
	}
	b.tree.Delete(item)
	return item.(pendingBlock).block, true
}

// Len reports how many blocks are currently buffered.
func (b *PendingBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tree.Len()
}
