// Copyright 2024 The mana-sub006 Authors
// This file is part of mana-sub006, licensed LGPLv3-or-later.

package core

import (
	"github.com/mana-ethereum/mana-sub006/common"
	"github.com/mana-ethereum/mana-sub006/core/types"
	"github.com/mana-ethereum/mana-sub006/params"
)

// MaxOmmerAge is the deepest an ommer may sit below the block that includes
// it (block.number - ommer.number), per §4.F.
const MaxOmmerAge = 6

// ChainReader is the minimal ancestor/canonical-chain lookup ValidateOmmers
// needs; the sync loop's chain store satisfies it.
type ChainReader interface {
	HeaderByHash(hash common.Hash) (*types.Header, bool)
	IsCanonical(hash common.Hash) bool
}

// ValidateOmmers checks block's ommer headers per §4.F: each must be a
// valid header, an ancestor of block within MaxOmmerAge generations, and
// not already part of the canonical chain.
func ValidateOmmers(config *params.ChainConfig, chain ChainReader, block *types.Block) error {
	if len(block.Body.Ommers) > 2 {
		return ErrTooManyOmmers
	}
	seen := make(map[common.Hash]bool, len(block.Body.Ommers))
	for _, ommer := range block.Body.Ommers {
		hash := ommer.Hash()
		if seen[hash] {
			return ErrOmmerIsDuplicate
		}
		seen[hash] = true

		if chain.IsCanonical(hash) {
			return ErrOmmerIsCanonical
		}

		parent, ok := chain.HeaderByHash(ommer.ParentHash)
		if !ok {
			return ErrOmmerTooOld
		}
		if err := ValidateHeader(config, ommer, parent); err != nil {
			return err
		}

		depth := block.Header.Number.Uint64() - ommer.Number.Uint64()
		if depth == 0 || depth > MaxOmmerAge {
			return ErrOmmerTooOld
		}
	}
	return nil
}
