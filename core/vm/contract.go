// Copyright 2024 The mana-sub006 Authors
// This file is part of mana-sub006, licensed LGPLv3-or-later.

package vm

import (
	"math/big"

	"github.com/holiman/uint256"

	"github.com/mana-ethereum/mana-sub006/common"
	"github.com/mana-ethereum/mana-sub006/core/types"
)

// BlockContext is the block-scoped half of the §3 "Exec-env": the current
// header and the last-256-ancestors lookup every call/create frame shares.
type BlockContext struct {
	Beneficiary common.Address
	Header      *types.Header
	// GetAncestor returns the header at block number n if it is one of the
	// last 256 ancestors of the executing block, or nil otherwise.
	GetAncestor func(n uint64) *types.Header
}

// TxContext is the transaction-scoped half of the "Exec-env": the
// fields that are fixed for every frame of a single transaction.
type TxContext struct {
	Origin   common.Address
	GasPrice *big.Int
}

// Contract is one call/create frame's private state: its code, its input,
// and its accounting. Only the account layer is shared (borrowed) across
// frame boundaries — everything here is exclusively owned by the frame
// (§3 "Ownership").
type Contract struct {
	CallerAddress common.Address
	Address       common.Address // the contract whose code+storage this frame runs against
	Value         *uint256.Int

	Code     []byte
	CodeHash common.Hash
	Input    []byte

	Gas uint64

	// Static is set for the STATICCALL family and everything nested below
	// it: any state-mutating opcode fails with WriteInStaticContext.
	Static bool

	// LastReturnData backs RETURNDATASIZE/RETURNDATACOPY: the output of the
	// most recently completed sub-call in this frame.
	LastReturnData []byte
}

func newContract(caller, address common.Address, value *uint256.Int, gas uint64, code []byte, codeHash common.Hash, input []byte) *Contract {
	if value == nil {
		value = new(uint256.Int)
	}
	return &Contract{
		CallerAddress: caller,
		Address:       address,
		Value:         value,
		Code:          code,
		CodeHash:      codeHash,
		Input:         input,
		Gas:           gas,
	}
}

// validJumpdest reports whether dest is a JUMPDEST not embedded inside a
// PUSH immediate.
func validJumpdest(code []byte, dest uint64) bool {
	if dest >= uint64(len(code)) {
		return false
	}
	if OpCode(code[dest]) != JUMPDEST {
		return false
	}
	// Walk from the start so that a byte matching JUMPDEST inside a PUSH's
	// immediate data is correctly skipped rather than treated as a target.
	var i uint64
	for i < dest {
		op := OpCode(code[i])
		if op.IsPush() {
			i += uint64(op.PushSize()) + 1
			continue
		}
		i++
	}
	return i == dest
}
