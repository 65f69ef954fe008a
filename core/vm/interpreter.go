// Copyright 2024 The mana-sub006 Authors
// This file is part of mana-sub006, licensed LGPLv3-or-later.

package vm

// executionFunc implements one opcode: given the current program counter,
// it returns output data (for RETURN/REVERT), the next program counter,
// whether the frame halts, and any error.
type executionFunc func(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) (ret []byte, next uint64, halt bool, err error)

// gasFunc computes an operation's dynamic gas component, given the already
// grown-to memSize.
type gasFunc func(in *Interpreter, c *Contract, stack *Stack, mem *Memory, memSize uint64) (uint64, error)

// memorySizeFunc computes the memory size (in bytes) an operation needs,
// from its stack arguments, without mutating the stack.
type memorySizeFunc func(stack *Stack) (uint64, bool)

type operation struct {
	execute     executionFunc
	constantGas uint64
	dynamicGas  gasFunc
	minStack    int
	maxStack    int
	memorySize  memorySizeFunc
	writes      bool // forbidden in a static (read-only) frame
}

// Interpreter runs the §4.E execution loop for a single call/create frame.
type Interpreter struct {
	evm *EVM
}

func newInterpreter(evm *EVM) *Interpreter { return &Interpreter{evm: evm} }

// Run executes contract's code against input, returning its output (for
// RETURN/REVERT) and any exceptional-halt or revert error. contract.Gas is
// mutated in place to reflect remaining gas on return.
func (in *Interpreter) Run(contract *Contract, input []byte, static bool) ([]byte, error) {
	contract.Input = input
	if static {
		contract.Static = true
	}

	stack := newStack()
	mem := newMemory()
	var pc uint64
	var lastReturnData []byte

	for {
		if pc >= uint64(len(contract.Code)) {
			return nil, nil
		}
		op := OpCode(contract.Code[pc])
		opInfo, ok := jumpTable[op]
		if !ok || opInfo.execute == nil {
			return nil, ErrInvalidInstruction
		}
		if err := stack.require(opInfo.minStack); err != nil {
			return nil, err
		}
		if opInfo.maxStack >= 0 && stack.len() > opInfo.maxStack {
			return nil, ErrStackOverflow
		}
		if opInfo.writes && contract.Static {
			return nil, ErrWriteInStaticContext
		}

		var memSize uint64
		if opInfo.memorySize != nil {
			size, ok := opInfo.memorySize(stack)
			if !ok {
				return nil, ErrOutOfGas
			}
			memSize = size
		}

		if contract.Gas < opInfo.constantGas {
			return nil, ErrOutOfGas
		}
		contract.Gas -= opInfo.constantGas

		if memSize > 0 {
			words := toWordSize(memSize)
			if words > mem.words() {
				growCost, err := memoryGasCost(mem, memSize)
				if err != nil {
					return nil, err
				}
				if contract.Gas < growCost {
					return nil, ErrOutOfGas
				}
				contract.Gas -= growCost
				mem.resize(memSize)
			}
		}

		if opInfo.dynamicGas != nil {
			cost, err := opInfo.dynamicGas(in, contract, stack, mem, memSize)
			if err != nil {
				return nil, err
			}
			if contract.Gas < cost {
				return nil, ErrOutOfGas
			}
			contract.Gas -= cost
		}

		ret, next, halt, err := opInfo.execute(pc, in, contract, mem, stack)
		if op == RETURN || op == REVERT || isCallLike(op) {
			lastReturnData = ret
		}
		contract.LastReturnData = lastReturnData
		if err != nil {
			return ret, err
		}
		if halt {
			return ret, nil
		}
		pc = next
	}
}

func isCallLike(op OpCode) bool {
	switch op {
	case CALL, CALLCODE, DELEGATECALL, STATICCALL:
		return true
	}
	return false
}
