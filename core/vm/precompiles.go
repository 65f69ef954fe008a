// Copyright 2024 The mana-sub006 Authors
// This file is part of mana-sub006, licensed LGPLv3-or-later.

package vm

import (
	"crypto/sha256"

	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // pre-0x04 precompile, legacy hash required by consensus

	"github.com/mana-ethereum/mana-sub006/common"
	"github.com/mana-ethereum/mana-sub006/crypto"
)

// PrecompiledContract is a built-in contract addressed by a fixed, reserved
// address; the Rules.Precompiles set gates which addresses are active for
// a given block (§4.E Config.precompiles).
type PrecompiledContract interface {
	RequiredGas(input []byte) uint64
	Run(input []byte) ([]byte, error)
}

var precompiles = map[common.Address]PrecompiledContract{
	common.BytesToAddress([]byte{1}): ecrecoverPrecompile{},
	common.BytesToAddress([]byte{2}): sha256Precompile{},
	common.BytesToAddress([]byte{3}): ripemd160Precompile{},
	common.BytesToAddress([]byte{4}): identityPrecompile{},
}

func runPrecompiled(p PrecompiledContract, input []byte, gas uint64) ([]byte, uint64, error) {
	cost := p.RequiredGas(input)
	if gas < cost {
		return nil, 0, ErrOutOfGas
	}
	ret, err := p.Run(input)
	if err != nil {
		return nil, 0, err
	}
	return ret, gas - cost, nil
}

type ecrecoverPrecompile struct{}

func (ecrecoverPrecompile) RequiredGas([]byte) uint64 { return 3000 }

func (ecrecoverPrecompile) Run(input []byte) ([]byte, error) {
	input = rightPad(input, 128)
	digest := input[:32]
	v := input[63]
	r, s := input[64:96], input[96:128]
	if v < 27 || v > 28 {
		return nil, nil
	}
	sig := make([]byte, 65)
	copy(sig[:32], r)
	copy(sig[32:64], s)
	sig[64] = v - 27
	pub, err := crypto.Ecrecover(digest, sig)
	if err != nil {
		return nil, nil //nolint:nilerr // ecrecover failure yields empty output, not a halt
	}
	addr := crypto.Keccak256(pub[1:])[12:]
	out := make([]byte, 32)
	copy(out[12:], addr)
	return out, nil
}

type sha256Precompile struct{}

func (sha256Precompile) RequiredGas(input []byte) uint64 {
	return 60 + 12*uint64((len(input)+31)/32)
}

func (sha256Precompile) Run(input []byte) ([]byte, error) {
	h := sha256.Sum256(input)
	return h[:], nil
}

type ripemd160Precompile struct{}

func (ripemd160Precompile) RequiredGas(input []byte) uint64 {
	return 600 + 120*uint64((len(input)+31)/32)
}

func (ripemd160Precompile) Run(input []byte) ([]byte, error) {
	h := ripemd160.New()
	h.Write(input)
	sum := h.Sum(nil)
	out := make([]byte, 32)
	copy(out[12:], sum)
	return out, nil
}

type identityPrecompile struct{}

func (identityPrecompile) RequiredGas(input []byte) uint64 {
	return 15 + 3*uint64((len(input)+31)/32)
}

func (identityPrecompile) Run(input []byte) ([]byte, error) {
	out := make([]byte, len(input))
	copy(out, input)
	return out, nil
}

func rightPad(b []byte, n int) []byte {
	if len(b) >= n {
		return b
	}
	out := make([]byte, n)
	copy(out, b)
	return out
}
