// Copyright 2024 The mana-sub006 Authors
// This file is part of mana-sub006, licensed LGPLv3-or-later.

package vm

import (
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/mana-ethereum/mana-sub006/common"
	"github.com/mana-ethereum/mana-sub006/core/state"
	"github.com/mana-ethereum/mana-sub006/core/types"
	"github.com/mana-ethereum/mana-sub006/kv"
	"github.com/mana-ethereum/mana-sub006/params"
)

func TestCreateAddressDerivation(t *testing.T) {
	sender := common.BytesToAddress(bytesOf(0x01, 20))
	got := CreateAddress(sender, 2)
	wantBytes, err := common.Hex("0x522b3294e6d06aa25ad0f1b8891242e335d3b459")
	require.NoError(t, err)
	require.Equal(t, common.BytesToAddress(wantBytes), got)
}

func bytesOf(b byte, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = b
	}
	return out
}

func newTestEVM(t *testing.T) (*EVM, common.Address) {
	t.Helper()
	db := kv.NewMemDB()
	sdb := state.New(common.Hash{}, db)

	contract := common.BytesToAddress([]byte{0xc0})
	require.NoError(t, sdb.PutAccount(contract, types.NewEmptyAccount()))

	blockCtx := BlockContext{
		Beneficiary: common.Address{},
		Header: &types.Header{
			Number:     big.NewInt(1),
			Difficulty: big.NewInt(0),
			GasLimit:   8_000_000,
			Timestamp:  1000,
		},
	}
	txCtx := TxContext{Origin: common.BytesToAddress([]byte{0xaa}), GasPrice: big.NewInt(1)}
	evm := NewEVM(blockCtx, txCtx, sdb, params.FrontierChainConfig.Rules(big.NewInt(1)), params.FrontierChainConfig.ChainID)
	return evm, contract
}

// TestInterpreterRevert reproduces the "PUSH1 1 PUSH1 1 PUSH1 2 PUSH1 10
// SSTORE REVERT PUSH1 10 POP" scenario: SSTORE writes slot 10, REVERT then
// unwinds it. Gas remaining must be exactly 79985 out of 100000, storage
// slot 10 must be unchanged, and the output must be one zero byte.
func TestInterpreterRevert(t *testing.T) {
	evm, contract := newTestEVM(t)
	code := []byte{
		byte(PUSH1), 1,
		byte(PUSH1), 1,
		byte(PUSH1), 2,
		byte(PUSH1), 10,
		byte(SSTORE),
		byte(REVERT),
		byte(PUSH1), 10,
		byte(POP),
	}
	require.NoError(t, evm.StateDB.PutCode(contract, code))

	caller := common.BytesToAddress([]byte{0xaa})
	ret, leftOver, err := evm.Call(caller, contract, nil, 100000, new(uint256.Int))

	require.ErrorIs(t, err, ErrExecutionReverted)
	require.Equal(t, uint64(79985), leftOver)
	require.Equal(t, []byte{0}, ret)

	slot, serr := evm.StateDB.Storage(contract, common.BytesToHash([]byte{10}))
	require.NoError(t, serr)
	require.True(t, slot.IsZero())
}

func TestArithmeticAddAndMul(t *testing.T) {
	evm, contract := newTestEVM(t)
	// (3 + 4) * 2 -> MSTORE at 0 -> RETURN 32 bytes.
	code := []byte{
		byte(PUSH1), 3,
		byte(PUSH1), 4,
		byte(ADD),
		byte(PUSH1), 2,
		byte(MUL),
		byte(PUSH1), 0,
		byte(MSTORE),
		byte(PUSH1), 32,
		byte(PUSH1), 0,
		byte(RETURN),
	}
	require.NoError(t, evm.StateDB.PutCode(contract, code))

	caller := common.BytesToAddress([]byte{0xaa})
	ret, _, err := evm.Call(caller, contract, nil, 100000, new(uint256.Int))
	require.NoError(t, err)

	var got uint256.Int
	got.SetBytes(ret)
	require.Equal(t, uint256.NewInt(14), &got)
}

func TestStackUnderflow(t *testing.T) {
	evm, contract := newTestEVM(t)
	code := []byte{byte(ADD)}
	require.NoError(t, evm.StateDB.PutCode(contract, code))

	caller := common.BytesToAddress([]byte{0xaa})
	_, _, err := evm.Call(caller, contract, nil, 100000, new(uint256.Int))
	require.ErrorIs(t, err, ErrStackUnderflow)
}

func TestInvalidJumpDest(t *testing.T) {
	evm, contract := newTestEVM(t)
	code := []byte{byte(PUSH1), 5, byte(JUMP), byte(JUMPDEST)}
	require.NoError(t, evm.StateDB.PutCode(contract, code))

	caller := common.BytesToAddress([]byte{0xaa})
	_, _, err := evm.Call(caller, contract, nil, 100000, new(uint256.Int))
	require.ErrorIs(t, err, ErrInvalidJump)
}

func TestSelfTransferCallIsNoop(t *testing.T) {
	evm, contract := newTestEVM(t)
	require.NoError(t, evm.StateDB.AddBalance(contract, uint256.NewInt(50)))
	code := []byte{byte(STOP)}
	require.NoError(t, evm.StateDB.PutCode(contract, code))

	_, _, err := evm.Call(contract, contract, nil, 100000, uint256.NewInt(10))
	require.NoError(t, err)

	acc, err := evm.StateDB.Account(contract)
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(50), acc.Balance)
}
