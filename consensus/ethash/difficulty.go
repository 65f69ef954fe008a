// Copyright 2024 The mana-sub006 Authors
// This file is part of mana-sub006, licensed LGPLv3-or-later.

// Package ethash implements §4.F's difficulty retargeting formula and §G's
// supporting primitives (seed hashes, cache/dataset sizing, FNV mixing).
// Proof-of-work verification itself is out of scope per §1; only the
// difficulty *formula* and the hash-support building blocks it shares with
// seed/cache derivation are implemented here.
package ethash

import (
	"math/big"

	"github.com/mana-ethereum/mana-sub006/crypto"
)

var (
	big1          = big.NewInt(1)
	big2          = big.NewInt(2)
	big9          = big.NewInt(9)
	big10         = big.NewInt(10)
	big99         = big.NewInt(99)
	bigMinus99    = big.NewInt(-99)
	minDifficulty = big.NewInt(131072)
	expDiffPeriod = big.NewInt(100000)
)

// HeaderLike is the minimal header surface the difficulty formula needs, so
// this package does not import core/types (avoiding a dependency cycle with
// the validator that calls it).
type HeaderLike interface {
	GetNumber() *big.Int
	GetTime() uint64
	GetDifficulty() *big.Int
}

// CalcDifficulty computes the difficulty of a child block at blockNumber
// and timestamp, given its parent, per §4.F.
//
//   - genesis (parent == nil): GenesisDifficulty (131072)
//   - pre-Homestead: parent.difficulty + x*σ1 + ε, x = parent.difficulty/2048,
//     σ1 = 1 if timestamp < parent.timestamp+13 else -1
//   - post-Homestead: parent.difficulty + x*σ2 + ε,
//     σ2 = max(1 - floor((ts-parent.ts)/10), -99)
//   - ε = floor(2^(floor(number/100000) - 2)) with the bomb-delay offset
//     block_number' = max(0, number - bomb_delay) substituted for number
//     inside ε's exponent term only
//   - clamp at MinimumDifficulty
func CalcDifficulty(homestead bool, bombDelay uint64, blockNumber *big.Int, blockTime uint64, parentNumber, parentTime uint64, parentDifficulty *big.Int) *big.Int {
	if parentDifficulty == nil {
		return big.NewInt(131072)
	}

	bigParentTime := new(big.Int).SetUint64(parentTime)
	bigTime := new(big.Int).SetUint64(blockTime)

	var sigma *big.Int
	if homestead {
		// sigma2 = max(1 - (time-parentTime)/10, -99)
		sigma = new(big.Int).Sub(bigTime, bigParentTime)
		sigma.Div(sigma, big10)
		sigma = new(big.Int).Sub(big1, sigma)
		if sigma.Cmp(bigMinus99) < 0 {
			sigma = new(big.Int).Set(bigMinus99)
		}
	} else {
		// sigma1 = 1 if time < parentTime+13 else -1
		if bigTime.Cmp(new(big.Int).Add(bigParentTime, big.NewInt(13))) < 0 {
			sigma = big1
		} else {
			sigma = big.NewInt(-1)
		}
	}

	x := new(big.Int).Div(parentDifficulty, big.NewInt(2048))
	x.Mul(x, sigma)

	diff := new(big.Int).Add(parentDifficulty, x)

	// Bomb: block_number' = max(0, number - bombDelay); epsilon uses
	// floor(number'/100000) - 2.
	adjustedNumber := new(big.Int).Sub(blockNumber, new(big.Int).SetUint64(bombDelay))
	if adjustedNumber.Sign() < 0 {
		adjustedNumber.SetInt64(0)
	}
	periodCount := new(big.Int).Div(adjustedNumber, expDiffPeriod)
	if periodCount.Cmp(big1) > 0 {
		epsilon := new(big.Int).Sub(periodCount, big2)
		epsilon.Exp(big2, epsilon, nil)
		diff.Add(diff, epsilon)
	}

	if diff.Cmp(minDifficulty) < 0 {
		diff = new(big.Int).Set(minDifficulty)
	}
	return diff
}
