// Copyright 2024 The mana-sub006 Authors
// This file is part of mana-sub006, licensed LGPLv3-or-later.

package vm

import "errors"

// Exceptional halts (§4.E "Failure semantics"): all of these consume every
// remaining unit of gas in the frame and revert its state mutations.
var (
	ErrStackUnderflow       = errors.New("vm: stack underflow")
	ErrStackOverflow        = errors.New("vm: stack overflow")
	ErrInvalidInstruction   = errors.New("vm: invalid instruction")
	ErrOutOfGas             = errors.New("vm: out of gas")
	ErrInvalidJump          = errors.New("vm: invalid jump destination")
	ErrWriteInStaticContext = errors.New("vm: write in static context")
	ErrMaxDepthReached      = errors.New("vm: max call depth reached")

	// ErrExecutionReverted is REVERT: gas remaining and output data are kept,
	// but every state mutation in the frame is rolled back.
	ErrExecutionReverted = errors.New("vm: execution reverted")

	ErrContractAddressCollision = errors.New("vm: contract address collision")
	ErrCodeStoreOutOfGas        = errors.New("vm: contract creation code storage out of gas")
	ErrMaxCodeSizeExceeded      = errors.New("vm: max code size exceeded")
	ErrInsufficientBalance      = errors.New("vm: insufficient balance for transfer")
	ErrReturnDataOutOfBounds    = errors.New("vm: return data out of bounds")
)

// haltsFrame reports whether err is one of the exceptional halts that must
// consume all remaining gas (as opposed to ErrExecutionReverted, which
// preserves it).
func haltsFrame(err error) bool {
	switch err {
	case ErrExecutionReverted, nil:
		return false
	default:
		return true
	}
}
