// Copyright 2024 The mana-sub006 Authors
// This file is part of mana-sub006, licensed LGPLv3-or-later.

// Package vm implements §4.E: the stack-machine interpreter, its call/create
// recursion, and the hardfork-parameterised gas schedule.
package vm

import (
	"math/big"

	"github.com/holiman/uint256"

	"github.com/mana-ethereum/mana-sub006/common"
	"github.com/mana-ethereum/mana-sub006/core/state"
	"github.com/mana-ethereum/mana-sub006/core/types"
	"github.com/mana-ethereum/mana-sub006/crypto"
	"github.com/mana-ethereum/mana-sub006/params"
	"github.com/mana-ethereum/mana-sub006/rlp"
)

// EVM is the execution context: the account layer, the block and
// transaction halves of the Exec-env, and the active Config. SetTxContext
// replaces the transaction half, so one EVM value can serve successive
// transactions of a block.
type EVM struct {
	StateDB  *state.IntraBlockState
	BlockCtx BlockContext
	TxCtx    TxContext
	Rules    *params.Rules

	// chainID backs the CHAINID opcode (EIP-1344); it holds whatever value
	// NewEVM was given, independent of Rules.HasChainID.
	chainID *big.Int

	depth       int
	interpreter *Interpreter
}

// NewEVM constructs an EVM for one block.
func NewEVM(blockCtx BlockContext, txCtx TxContext, stateDB *state.IntraBlockState, rules *params.Rules, chainID *big.Int) *EVM {
	evm := &EVM{StateDB: stateDB, BlockCtx: blockCtx, TxCtx: txCtx, Rules: rules, chainID: chainID}
	evm.interpreter = newInterpreter(evm)
	return evm
}

// SetTxContext updates the per-transaction half of the Exec-env ahead of
// processing the next transaction in the block.
func (evm *EVM) SetTxContext(txCtx TxContext) { evm.TxCtx = txCtx }

func (evm *EVM) precompile(addr common.Address) (PrecompiledContract, bool) {
	if evm.Rules.Precompiles == nil || !evm.Rules.Precompiles[addr] {
		return nil, false
	}
	p, ok := precompiles[addr]
	return p, ok
}

func (evm *EVM) balanceOf(addr common.Address) (*uint256.Int, error) {
	acc, err := evm.StateDB.Account(addr)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return new(uint256.Int), nil
	}
	return acc.Balance, nil
}

func (evm *EVM) nonceOf(addr common.Address) (uint64, error) {
	acc, err := evm.StateDB.Account(addr)
	if err != nil {
		return 0, err
	}
	if acc == nil {
		return 0, nil
	}
	return acc.Nonce, nil
}

func (evm *EVM) codeHashOf(addr common.Address) (common.Hash, error) {
	acc, err := evm.StateDB.Account(addr)
	if err != nil {
		return common.Hash{}, err
	}
	if acc == nil {
		return common.Hash{}, nil
	}
	return acc.CodeHash, nil
}

type callKind int

const (
	kindCall callKind = iota
	kindCallCode
	kindDelegateCall
	kindStaticCall
)

// Call executes addr's code in its own storage context, transferring value
// from caller.
func (evm *EVM) Call(caller, addr common.Address, input []byte, gas uint64, value *uint256.Int) ([]byte, uint64, error) {
	return evm.runCall(kindCall, caller, addr, addr, input, gas, value)
}

// CallCode executes addr's code against caller's own storage context.
func (evm *EVM) CallCode(caller, addr common.Address, input []byte, gas uint64, value *uint256.Int) ([]byte, uint64, error) {
	return evm.runCall(kindCallCode, caller, caller, addr, input, gas, value)
}

// DelegateCall executes addr's code against storageAddr's storage context,
// preserving originalCaller and value from the invoking frame.
func (evm *EVM) DelegateCall(originalCaller, storageAddr, addr common.Address, input []byte, gas uint64, value *uint256.Int) ([]byte, uint64, error) {
	return evm.runCall(kindDelegateCall, originalCaller, storageAddr, addr, input, gas, value)
}

// StaticCall executes addr's code with all state mutation forbidden.
func (evm *EVM) StaticCall(caller, addr common.Address, input []byte, gas uint64) ([]byte, uint64, error) {
	return evm.runCall(kindStaticCall, caller, addr, addr, input, gas, new(uint256.Int))
}

// runCall is the shared implementation behind the CALL-family opcodes
// (§4.E "Call and create"): snapshot, transfer (if applicable), run, and on
// an exceptional halt or REVERT restore the snapshot. codeAddr is both the
// account whose code is read and the address precompile dispatch checks;
// storageAddr is the account whose storage/balance the new frame runs
// against (equal to codeAddr for everything but CALLCODE/DELEGATECALL).
func (evm *EVM) runCall(kind callKind, caller, storageAddr, codeAddr common.Address, input []byte, gas uint64, value *uint256.Int) ([]byte, uint64, error) {
	if evm.depth >= CallCreateDepthMax {
		return nil, gas, ErrMaxDepthReached
	}
	if value == nil {
		value = new(uint256.Int)
	}
	if (kind == kindCall || kind == kindStaticCall) && !value.IsZero() {
		bal, err := evm.balanceOf(caller)
		if err != nil {
			return nil, gas, err
		}
		if bal.Cmp(value) < 0 {
			return nil, gas, ErrInsufficientBalance
		}
	}

	snapshot := evm.StateDB.Snapshot()

	if p, ok := evm.precompile(codeAddr); ok {
		if kind == kindCall && !value.IsZero() {
			if err := evm.StateDB.Transfer(caller, storageAddr, value); err != nil {
				evm.StateDB.RevertToSnapshot(snapshot)
				return nil, gas, err
			}
		}
		ret, leftOver, err := runPrecompiled(p, input, gas)
		if err != nil {
			evm.StateDB.RevertToSnapshot(snapshot)
		}
		return ret, leftOver, err
	}

	if kind == kindCall {
		exists, err := evm.StateDB.Exist(storageAddr)
		if err != nil {
			return nil, gas, err
		}
		if !exists && !value.IsZero() {
			if err := evm.StateDB.PutAccount(storageAddr, types.NewEmptyAccount()); err != nil {
				return nil, gas, err
			}
		}
		if err := evm.StateDB.Transfer(caller, storageAddr, value); err != nil {
			evm.StateDB.RevertToSnapshot(snapshot)
			return nil, gas, err
		}
	}

	code, err := evm.StateDB.Code(codeAddr)
	if err != nil {
		return nil, gas, err
	}
	if len(code) == 0 {
		return nil, gas, nil
	}
	codeHash, err := evm.codeHashOf(codeAddr)
	if err != nil {
		return nil, gas, err
	}

	contract := newContract(caller, storageAddr, value, gas, code, codeHash, input)
	contract.Static = kind == kindStaticCall

	evm.depth++
	ret, err := evm.interpreter.Run(contract, input, kind == kindStaticCall)
	evm.depth--

	if err != nil {
		evm.StateDB.RevertToSnapshot(snapshot)
		if err != ErrExecutionReverted {
			contract.Gas = 0
		}
	}
	return ret, contract.Gas, err
}

// Create derives a CREATE address from (caller, caller's current nonce) and
// runs init-code against it.
func (evm *EVM) Create(caller common.Address, initCode []byte, gas uint64, value *uint256.Int) ([]byte, common.Address, uint64, error) {
	nonce, err := evm.nonceOf(caller)
	if err != nil {
		return nil, common.Address{}, gas, err
	}
	addr := CreateAddress(caller, nonce)
	return evm.create(caller, initCode, gas, value, addr)
}

// Create2 derives a CREATE2 address and runs init-code against it.
func (evm *EVM) Create2(caller common.Address, initCode []byte, gas uint64, value *uint256.Int, salt *uint256.Int) ([]byte, common.Address, uint64, error) {
	addr := Create2Address(caller, salt, initCode)
	return evm.create(caller, initCode, gas, value, addr)
}

func (evm *EVM) create(caller common.Address, initCode []byte, gas uint64, value *uint256.Int, addr common.Address) ([]byte, common.Address, uint64, error) {
	if evm.depth >= CallCreateDepthMax {
		return nil, common.Address{}, gas, ErrMaxDepthReached
	}
	if value == nil {
		value = new(uint256.Int)
	}
	bal, err := evm.balanceOf(caller)
	if err != nil {
		return nil, common.Address{}, gas, err
	}
	if bal.Cmp(value) < 0 {
		return nil, common.Address{}, gas, ErrInsufficientBalance
	}
	if evm.Rules.IncrementNonceOnCreate {
		if err := evm.StateDB.IncrementNonce(caller); err != nil {
			return nil, common.Address{}, gas, err
		}
	}

	existing, err := evm.StateDB.Account(addr)
	if err != nil {
		return nil, common.Address{}, gas, err
	}
	if existing != nil && (existing.Nonce != 0 || existing.CodeHash != types.EmptyCodeHash) {
		return nil, addr, gas, ErrContractAddressCollision
	}

	snapshot := evm.StateDB.Snapshot()
	if err := evm.StateDB.PutAccount(addr, types.NewEmptyAccount()); err != nil {
		return nil, addr, gas, err
	}
	if err := evm.StateDB.Transfer(caller, addr, value); err != nil {
		evm.StateDB.RevertToSnapshot(snapshot)
		return nil, addr, gas, err
	}

	contract := newContract(caller, addr, value, gas, initCode, common.Hash{}, nil)

	evm.depth++
	ret, err := evm.interpreter.Run(contract, nil, false)
	evm.depth--

	if err == nil && evm.Rules.LimitContractCodeSize != nil && uint64(len(ret)) > *evm.Rules.LimitContractCodeSize {
		err = ErrMaxCodeSizeExceeded
	}
	if err == nil {
		depositCost := uint64(len(ret)) * GasCreateData
		if contract.Gas < depositCost {
			if evm.Rules.FailContractCreationOnOOG {
				err = ErrCodeStoreOutOfGas
			}
			// Pre-Homestead: code deposit silently fails, contract keeps no code.
		} else {
			contract.Gas -= depositCost
			if putErr := evm.StateDB.PutCode(addr, ret); putErr != nil {
				return nil, addr, gas, putErr
			}
		}
	}

	if err != nil {
		evm.StateDB.RevertToSnapshot(snapshot)
		if err != ErrExecutionReverted {
			contract.Gas = 0
		}
		return ret, addr, contract.Gas, err
	}
	return nil, addr, contract.Gas, nil
}

// CreateAddress derives a CREATE address: the low 160 bits of
// Keccak(RLP([sender, sender_nonce])), per §4.E.
func CreateAddress(sender common.Address, nonce uint64) common.Address {
	enc, _ := rlp.EncodeToBytes([]interface{}{sender, nonce})
	return common.BytesToAddress(crypto.Keccak256(enc)[12:])
}

// Create2Address derives a CREATE2 address: the low 160 bits of
// Keccak(0xFF ‖ sender ‖ salt ‖ Keccak(init_code)), per §4.E.
func Create2Address(sender common.Address, salt *uint256.Int, initCode []byte) common.Address {
	saltBytes := salt.Bytes32()
	codeHash := crypto.Keccak256(initCode)
	buf := make([]byte, 0, 1+20+32+32)
	buf = append(buf, 0xff)
	buf = append(buf, sender.Bytes()...)
	buf = append(buf, saltBytes[:]...)
	buf = append(buf, codeHash...)
	return common.BytesToAddress(crypto.Keccak256(buf)[12:])
}
