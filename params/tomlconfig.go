// Copyright 2024 The mana-sub006 Authors
// This file is part of mana-sub006, licensed LGPLv3-or-later.

package params

import (
	"math/big"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// tomlChainSpec is the on-disk shape of a custom chain spec, loaded via
// --chain-config alongside the built-in mainnet/frontier configs. Fork
// blocks are plain uint64s rather than *big.Int: TOML has no native
// arbitrary-precision integer, and every real fork-activation block fits
// comfortably in 64 bits.
type tomlChainSpec struct {
	ChainID        uint64 `toml:"chain_id"`
	HomesteadBlock uint64 `toml:"homestead_block"`
	EIP150Block    uint64 `toml:"eip150_block"`
	EIP155Block    uint64 `toml:"eip155_block"`
	EIP158Block    uint64 `toml:"eip158_block"`
	ByzantiumBlock uint64 `toml:"byzantium_block"`
	ConstantinopleBlock uint64 `toml:"constantinople_block"`
	PetersburgBlock     uint64 `toml:"petersburg_block"`
	IstanbulBlock       uint64 `toml:"istanbul_block"`
	MuirGlacierBlock    uint64 `toml:"muir_glacier_block"`
	BerlinBlock         uint64 `toml:"berlin_block"`
	LondonBlock         uint64 `toml:"london_block"`
}

// LoadChainConfig reads a TOML chain spec from path, for deployments that
// need a fork schedule other than the two built into the binary
// (MainnetChainConfig, FrontierChainConfig). A zero-valued field means that
// fork is not scheduled, matching the nil-pointer convention ChainConfig
// itself uses.
func LoadChainConfig(path string) (*ChainConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var spec tomlChainSpec
	if err := toml.Unmarshal(data, &spec); err != nil {
		return nil, err
	}
	return &ChainConfig{
		ChainID:             big.NewInt(int64(spec.ChainID)),
		HomesteadBlock:      forkBig(spec.HomesteadBlock),
		EIP150Block:         forkBig(spec.EIP150Block),
		EIP155Block:         forkBig(spec.EIP155Block),
		EIP158Block:         forkBig(spec.EIP158Block),
		ByzantiumBlock:      forkBig(spec.ByzantiumBlock),
		ConstantinopleBlock: forkBig(spec.ConstantinopleBlock),
		PetersburgBlock:     forkBig(spec.PetersburgBlock),
		IstanbulBlock:       forkBig(spec.IstanbulBlock),
		MuirGlacierBlock:    forkBig(spec.MuirGlacierBlock),
		BerlinBlock:         forkBig(spec.BerlinBlock),
		LondonBlock:         forkBig(spec.LondonBlock),
	}, nil
}

// forkBig returns nil for an unscheduled (zero) fork block, and the
// big.Int value otherwise; ChainID itself is expected non-zero.
func forkBig(n uint64) *big.Int {
	if n == 0 {
		return nil
	}
	return big.NewInt(int64(n))
}
