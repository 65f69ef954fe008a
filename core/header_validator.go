// Copyright 2024 The mana-sub006 Authors
// This file is part of mana-sub006, licensed LGPLv3-or-later.

package core

import (
	"math/big"

	"github.com/mana-ethereum/mana-sub006/consensus/ethash"
	"github.com/mana-ethereum/mana-sub006/core/types"
	"github.com/mana-ethereum/mana-sub006/params"
)

// ValidateHeader checks header against parent per §4.F. parent == nil means
// header is the genesis header, in which case only extra_data length,
// number == 0 and difficulty == GenesisDifficulty are checked (no parent to
// compare against).
func ValidateHeader(config *params.ChainConfig, header, parent *types.Header) error {
	if len(header.ExtraData) > 32 {
		return ErrExtraDataTooLong
	}
	if parent == nil {
		if header.Number.Sign() != 0 {
			return ErrInvalidNumber
		}
		if header.Difficulty.Cmp(big.NewInt(params.GenesisDifficulty)) != 0 {
			return ErrInvalidDifficulty
		}
		return nil
	}

	wantNumber := new(big.Int).Add(parent.Number, big.NewInt(1))
	if header.Number.Cmp(wantNumber) != 0 {
		return ErrInvalidNumber
	}
	if header.Timestamp <= parent.Timestamp {
		return ErrInvalidTimestamp
	}
	if header.GasLimit <= params.MinGasLimit {
		return ErrGasLimitTooLow
	}
	bound := parent.GasLimit / params.GasLimitBoundDivisor
	if header.GasLimit > parent.GasLimit+bound || header.GasLimit+bound < parent.GasLimit {
		return ErrGasLimitDrift
	}
	if header.GasUsed > header.GasLimit {
		return ErrGasUsedExceedsLimit
	}

	wantDiff := ethash.CalcDifficulty(
		config.IsHomestead(header.Number),
		config.BombDelay(header.Number),
		header.Number,
		header.Timestamp,
		parent.Number.Uint64(),
		parent.Timestamp,
		parent.Difficulty,
	)
	if header.Difficulty.Cmp(wantDiff) != 0 {
		return ErrInvalidDifficulty
	}
	return nil
}
