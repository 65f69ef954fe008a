// Copyright 2024 The mana-sub006 Authors
// This file is part of mana-sub006, licensed LGPLv3-or-later.

package vm

// Memory is the frame's byte-addressed, conceptually-infinite-zero memory
// (§4.E "Memory semantics"). It only ever grows, in whole 32-byte words.
type Memory struct {
	store       []byte
	lastGasCost uint64
}

func newMemory() *Memory {
	return &Memory{}
}

// Len returns the current byte length (always a multiple of 32).
func (m *Memory) Len() int { return len(m.store) }

// words returns the active word count for the current size.
func (m *Memory) words() uint64 { return toWordSize(uint64(len(m.store))) }

// resize grows the backing store to cover size bytes, rounded up to a
// whole word; it never shrinks.
func (m *Memory) resize(size uint64) {
	if size == 0 {
		return
	}
	words := toWordSize(size)
	needed := words * 32
	if uint64(len(m.store)) >= needed {
		return
	}
	grown := make([]byte, needed)
	copy(grown, m.store)
	m.store = grown
}

// set writes value at offset, which must already be within bounds.
func (m *Memory) set(offset, size uint64, value []byte) {
	if size == 0 {
		return
	}
	copy(m.store[offset:offset+size], value)
}

// getCopy returns a fresh copy of size bytes starting at offset.
func (m *Memory) getCopy(offset, size uint64) []byte {
	if size == 0 {
		return nil
	}
	out := make([]byte, size)
	if offset < uint64(len(m.store)) {
		copy(out, m.store[offset:])
	}
	return out
}

// toWordSize rounds a byte length up to a whole 32-byte word count.
func toWordSize(size uint64) uint64 {
	if size > (1<<64-1)-31 {
		return (1<<64 - 1) / 32
	}
	return (size + 31) / 32
}

// memoryGasCost computes the incremental quadratic memory-expansion fee for
// growing to newSize bytes, per §4.E: "a quadratic-in-words gas fee is
// charged on growth". Returns 0 if newSize does not exceed the memory's
// current word count.
func memoryGasCost(mem *Memory, newSize uint64) (uint64, error) {
	if newSize == 0 {
		return 0, nil
	}
	if newSize > 0x1FFFFFFFE0 { // matches go-ethereum's overflow guard
		return 0, ErrOutOfGas
	}
	newWords := toWordSize(newSize)
	if newWords <= mem.words() {
		return 0, nil
	}
	newCost := newWords*GasMemoryWord + newWords*newWords/512
	var lastCost uint64
	if words := mem.words(); words > 0 {
		lastCost = words*GasMemoryWord + words*words/512
	}
	if newCost < lastCost {
		return 0, ErrOutOfGas
	}
	return newCost - lastCost, nil
}
