// Copyright 2024 The mana-sub006 Authors
// This file is part of mana-sub006, licensed LGPLv3-or-later.

// Package params carries the hardfork-activation schedule (chain.Config in
// the teacher lineage) and derives, for a given block number, the flat
// §4.E Config/Rules record the interpreter and block validator consult.
package params

import (
	"math/big"

	"github.com/mana-ethereum/mana-sub006/common"
)

// ChainConfig names the block number at which each hardfork activates. A
// nil pointer means "not yet scheduled" for that fork.
type ChainConfig struct {
	ChainID        *big.Int
	HomesteadBlock *big.Int
	EIP150Block    *big.Int // Tangerine Whistle
	EIP155Block    *big.Int // Spurious Dragon (replay protection)
	EIP158Block    *big.Int // Spurious Dragon (state clearing, EIP-161)
	ByzantiumBlock *big.Int
	ConstantinopleBlock *big.Int
	PetersburgBlock     *big.Int
	IstanbulBlock       *big.Int
	MuirGlacierBlock    *big.Int // bomb delay only
	BerlinBlock         *big.Int
	LondonBlock         *big.Int // EIP-3529 refund cut

	// BombDelaySchedule maps the name of a bomb-delaying fork (resolved
	// to its activation block by forkBlock) to the number of blocks the
	// difficulty-bomb epoch counter is pushed back by, per §4.F.
	BombDelaySchedule map[string]uint64
}

// MainnetChainConfig mirrors go-ethereum/erigon's canonical mainnet
// schedule (block numbers for the forks this core cares about).
var MainnetChainConfig = &ChainConfig{
	ChainID:             big.NewInt(1),
	HomesteadBlock:      big.NewInt(1_150_000),
	EIP150Block:         big.NewInt(2_463_000),
	EIP155Block:         big.NewInt(2_675_000),
	EIP158Block:         big.NewInt(2_675_000),
	ByzantiumBlock:      big.NewInt(4_370_000),
	ConstantinopleBlock: big.NewInt(7_280_000),
	PetersburgBlock:     big.NewInt(7_280_000),
	IstanbulBlock:       big.NewInt(9_069_000),
	MuirGlacierBlock:    big.NewInt(9_200_000),
	BerlinBlock:         big.NewInt(12_244_000),
	LondonBlock:         big.NewInt(12_965_000),
	BombDelaySchedule: map[string]uint64{
		"byzantium":    3_000_000,
		"constantinople": 5_000_000,
		"muirglacier": 9_000_000,
		"london":      9_700_000,
	},
}

// FrontierChainConfig activates nothing: used by the seed test vectors that
// specify chain_config=Frontier.
var FrontierChainConfig = &ChainConfig{ChainID: big.NewInt(1)}

func blockActive(fork *big.Int, number *big.Int) bool {
	return fork != nil && number != nil && fork.Cmp(number) <= 0
}

func (c *ChainConfig) IsHomestead(n *big.Int) bool      { return blockActive(c.HomesteadBlock, n) }
func (c *ChainConfig) IsEIP150(n *big.Int) bool          { return blockActive(c.EIP150Block, n) }
func (c *ChainConfig) IsEIP155(n *big.Int) bool          { return blockActive(c.EIP155Block, n) }
func (c *ChainConfig) IsEIP158(n *big.Int) bool          { return blockActive(c.EIP158Block, n) }
func (c *ChainConfig) IsByzantium(n *big.Int) bool       { return blockActive(c.ByzantiumBlock, n) }
func (c *ChainConfig) IsConstantinople(n *big.Int) bool  { return blockActive(c.ConstantinopleBlock, n) }
func (c *ChainConfig) IsPetersburg(n *big.Int) bool      { return blockActive(c.PetersburgBlock, n) }
func (c *ChainConfig) IsIstanbul(n *big.Int) bool        { return blockActive(c.IstanbulBlock, n) }
func (c *ChainConfig) IsBerlin(n *big.Int) bool          { return blockActive(c.BerlinBlock, n) }
func (c *ChainConfig) IsLondon(n *big.Int) bool          { return blockActive(c.LondonBlock, n) }

// BombDelay returns the bomb-delay offset active at block number n: the
// largest delay among the scheduled forks active at n. Delays are not
// summed, so each schedule entry holds the total offset from its fork on.
func (c *ChainConfig) BombDelay(n *big.Int) uint64 {
	var best uint64
	for name, delay := range c.BombDelaySchedule {
		fork := c.forkBlock(name)
		if blockActive(fork, n) && delay > best {
			best = delay
		}
	}
	return best
}

func (c *ChainConfig) forkBlock(name string) *big.Int {
	switch name {
	case "byzantium":
		return c.ByzantiumBlock
	case "constantinople":
		return c.ConstantinopleBlock
	case "muirglacier":
		return c.MuirGlacierBlock
	case "london":
		return c.LondonBlock
	}
	return nil
}

// Rules is the flat, block-specific §4.E interpreter Config: a plain record
// of booleans/limits, selected once per block and threaded through every
// call/create frame. It deliberately has no pointer back to ChainConfig so
// the interpreter never has to reason about fork *schedules*, only about
// the resolved behavior of the current block (§9's "explicit trait, not
// inheritance").
type Rules struct {
	IncrementNonceOnCreate    bool
	FailContractCreationOnOOG bool
	LimitContractCodeSize     *uint64 // nil = unlimited
	EIP1283SStore             bool
	HasReturnDataOps          bool
	HasRevert                 bool
	HasStaticCall             bool
	HasShlShrSar              bool
	HasExtCodeHash            bool
	HasCreate2                bool
	HasChainID                bool
	HasSelfBalance            bool
	EIP3529RefundCut          bool
	Precompiles               map[common.Address]bool
}

// Rules derives the §4.E Config for block number n.
func (c *ChainConfig) Rules(n *big.Int) *Rules {
	r := &Rules{
		IncrementNonceOnCreate:    c.IsHomestead(n),
		FailContractCreationOnOOG: c.IsHomestead(n),
		EIP1283SStore:             c.IsIstanbul(n) || (c.IsConstantinople(n) && !c.IsPetersburg(n)),
		HasReturnDataOps:          c.IsByzantium(n),
		HasRevert:                 c.IsByzantium(n),
		HasStaticCall:             c.IsByzantium(n),
		HasShlShrSar:              c.IsConstantinople(n),
		HasExtCodeHash:            c.IsConstantinople(n),
		HasCreate2:                c.IsConstantinople(n),
		HasChainID:                c.IsIstanbul(n),
		HasSelfBalance:            c.IsIstanbul(n),
		EIP3529RefundCut:          c.IsLondon(n),
		Precompiles:               defaultPrecompiles(c, n),
	}
	if c.IsEIP158(n) {
		limit := uint64(24576)
		r.LimitContractCodeSize = &limit
	}
	return r
}

func defaultPrecompiles(c *ChainConfig, n *big.Int) map[common.Address]bool {
	m := map[common.Address]bool{}
	addrs := []byte{1, 2, 3, 4} // ecrecover, sha256, ripemd160, identity
	if c.IsByzantium(n) {
		addrs = append(addrs, 5, 6, 7, 8) // modexp, bn256 add/mul/pairing
	}
	if c.IsIstanbul(n) {
		addrs = append(addrs, 9) // blake2f
	}
	for _, a := range addrs {
		m[common.BytesToAddress([]byte{a})] = true
	}
	return m
}

const (
	// GenesisDifficulty is the difficulty of block 0, per §4.F.
	GenesisDifficulty = 131072
	// MinimumDifficulty is the clamp floor applied after retargeting.
	MinimumDifficulty = 131072
	// MinGasLimit is the hard floor on header.gas_limit, per §4.F.
	MinGasLimit = 5000
	// GasLimitBoundDivisor bounds how far a block's gas_limit may drift from
	// its parent's in a single block: parent.GasLimit / GasLimitBoundDivisor.
	GasLimitBoundDivisor = 1024
)
