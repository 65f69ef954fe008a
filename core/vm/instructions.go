// Copyright 2024 The mana-sub006 Authors
// This file is part of mana-sub006, licensed LGPLv3-or-later.

package vm

import (
	"github.com/holiman/uint256"

	"github.com/mana-ethereum/mana-sub006/common"
	"github.com/mana-ethereum/mana-sub006/core/types"
	"github.com/mana-ethereum/mana-sub006/crypto"
)

// --- arithmetic -------------------------------------------------------

func opAdd(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
	x, _ := stack.pop()
	y, _ := stack.peek(0)
	y.Add(x, y)
	return nil, pc + 1, false, nil
}

func opMul(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
	x, _ := stack.pop()
	y, _ := stack.peek(0)
	y.Mul(x, y)
	return nil, pc + 1, false, nil
}

func opSub(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
	x, _ := stack.pop()
	y, _ := stack.peek(0)
	y.Sub(x, y)
	return nil, pc + 1, false, nil
}

func opDiv(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
	x, _ := stack.pop()
	y, _ := stack.peek(0)
	y.Div(x, y)
	return nil, pc + 1, false, nil
}

func opSDiv(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
	x, _ := stack.pop()
	y, _ := stack.peek(0)
	y.SDiv(x, y)
	return nil, pc + 1, false, nil
}

func opMod(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
	x, _ := stack.pop()
	y, _ := stack.peek(0)
	y.Mod(x, y)
	return nil, pc + 1, false, nil
}

func opSMod(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
	x, _ := stack.pop()
	y, _ := stack.peek(0)
	y.SMod(x, y)
	return nil, pc + 1, false, nil
}

func opAddMod(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
	x, _ := stack.pop()
	y, _ := stack.pop()
	z, _ := stack.peek(0)
	z.AddMod(x, y, z)
	return nil, pc + 1, false, nil
}

func opMulMod(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
	x, _ := stack.pop()
	y, _ := stack.pop()
	z, _ := stack.peek(0)
	z.MulMod(x, y, z)
	return nil, pc + 1, false, nil
}

func opExp(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
	base, _ := stack.pop()
	exp, _ := stack.peek(0)
	exp.Exp(base, exp)
	return nil, pc + 1, false, nil
}

func gasExp(in *Interpreter, c *Contract, stack *Stack, mem *Memory, memSize uint64) (uint64, error) {
	exp, err := stack.peek(1)
	if err != nil {
		return 0, err
	}
	byteLen := (exp.BitLen() + 7) / 8
	return uint64(byteLen) * GasExpByte, nil
}

func opSignExtend(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
	back, _ := stack.pop()
	num, _ := stack.peek(0)
	num.ExtendSign(num, back)
	return nil, pc + 1, false, nil
}

// --- comparison & bitwise ---------------------------------------------

func opLt(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
	x, _ := stack.pop()
	y, _ := stack.peek(0)
	if x.Lt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, pc + 1, false, nil
}

func opGt(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
	x, _ := stack.pop()
	y, _ := stack.peek(0)
	if x.Gt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, pc + 1, false, nil
}

func opSlt(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
	x, _ := stack.pop()
	y, _ := stack.peek(0)
	if x.Slt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, pc + 1, false, nil
}

func opSgt(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
	x, _ := stack.pop()
	y, _ := stack.peek(0)
	if x.Sgt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, pc + 1, false, nil
}

func opEq(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
	x, _ := stack.pop()
	y, _ := stack.peek(0)
	if x.Eq(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, pc + 1, false, nil
}

func opIsZero(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
	x, _ := stack.peek(0)
	if x.IsZero() {
		x.SetOne()
	} else {
		x.Clear()
	}
	return nil, pc + 1, false, nil
}

func opAnd(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
	x, _ := stack.pop()
	y, _ := stack.peek(0)
	y.And(x, y)
	return nil, pc + 1, false, nil
}

func opOr(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
	x, _ := stack.pop()
	y, _ := stack.peek(0)
	y.Or(x, y)
	return nil, pc + 1, false, nil
}

func opXor(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
	x, _ := stack.pop()
	y, _ := stack.peek(0)
	y.Xor(x, y)
	return nil, pc + 1, false, nil
}

func opNot(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
	x, _ := stack.peek(0)
	x.Not(x)
	return nil, pc + 1, false, nil
}

func opByte(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
	th, _ := stack.pop()
	val, _ := stack.peek(0)
	val.Byte(th)
	return nil, pc + 1, false, nil
}

func opShl(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
	shift, _ := stack.pop()
	val, _ := stack.peek(0)
	if shift.LtUint64(256) {
		val.Lsh(val, uint(shift.Uint64()))
	} else {
		val.Clear()
	}
	return nil, pc + 1, false, nil
}

func opShr(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
	shift, _ := stack.pop()
	val, _ := stack.peek(0)
	if shift.LtUint64(256) {
		val.Rsh(val, uint(shift.Uint64()))
	} else {
		val.Clear()
	}
	return nil, pc + 1, false, nil
}

func opSar(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
	shift, _ := stack.pop()
	val, _ := stack.peek(0)
	if shift.GtUint64(255) {
		if val.Sign() >= 0 {
			val.Clear()
		} else {
			val.SetAllOne()
		}
		return nil, pc + 1, false, nil
	}
	val.SRsh(val, uint(shift.Uint64()))
	return nil, pc + 1, false, nil
}

// --- SHA3 ---------------------------------------------------------------

func opSha3(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
	offset, _ := stack.pop()
	size, _ := stack.peek(0)
	data := mem.getCopy(offset.Uint64(), size.Uint64())
	size.SetBytes(crypto.Keccak256(data))
	return nil, pc + 1, false, nil
}

func memSha3(stack *Stack) (uint64, bool) {
	off, err := stack.peek(0)
	if err != nil {
		return 0, false
	}
	size, err := stack.peek(1)
	if err != nil {
		return 0, false
	}
	return calcMemSize(off, size)
}

func gasSha3(in *Interpreter, c *Contract, stack *Stack, mem *Memory, memSize uint64) (uint64, error) {
	size, err := stack.peek(1)
	if err != nil {
		return 0, err
	}
	words := toWordSize(size.Uint64())
	return GasSha3 + words*GasSha3Word, nil
}

// --- environment ----------------------------------------------------

func opAddress(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
	var v uint256.Int
	v.SetBytes(c.Address.Bytes())
	stack.push(&v)
	return nil, pc + 1, false, nil
}

func opBalance(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
	addr, _ := stack.peek(0)
	a := common.BytesToAddress(addr.Bytes())
	bal, err := in.evm.balanceOf(a)
	if err != nil {
		return nil, 0, false, err
	}
	addr.Set(bal)
	return nil, pc + 1, false, nil
}

func opOrigin(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
	var v uint256.Int
	v.SetBytes(in.evm.TxCtx.Origin.Bytes())
	stack.push(&v)
	return nil, pc + 1, false, nil
}

func opCaller(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
	var v uint256.Int
	v.SetBytes(c.CallerAddress.Bytes())
	stack.push(&v)
	return nil, pc + 1, false, nil
}

func opCallValue(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
	stack.push(new(uint256.Int).Set(c.Value))
	return nil, pc + 1, false, nil
}

func opCallDataLoad(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
	x, _ := stack.peek(0)
	x.SetBytes(getData(c.Input, x.Uint64(), 32))
	return nil, pc + 1, false, nil
}

func opCallDataSize(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
	stack.push(uint256.NewInt(uint64(len(c.Input))))
	return nil, pc + 1, false, nil
}

func opCallDataCopy(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
	destOffset, _ := stack.pop()
	offset, _ := stack.pop()
	size, _ := stack.pop()
	data := getData(c.Input, offset.Uint64(), size.Uint64())
	mem.set(destOffset.Uint64(), size.Uint64(), data)
	return nil, pc + 1, false, nil
}

func opCodeSize(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
	stack.push(uint256.NewInt(uint64(len(c.Code))))
	return nil, pc + 1, false, nil
}

func opCodeCopy(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
	destOffset, _ := stack.pop()
	offset, _ := stack.pop()
	size, _ := stack.pop()
	data := getData(c.Code, offset.Uint64(), size.Uint64())
	mem.set(destOffset.Uint64(), size.Uint64(), data)
	return nil, pc + 1, false, nil
}

// memCopy builds a memorySizeFunc for the CALLDATACOPY/CODECOPY/
// RETURNDATACOPY/EXTCODECOPY family, whose destination offset and length
// stack slots vary only because EXTCODECOPY has an extra leading address
// argument.
func memCopy(offsetIdx, sizeIdx int) memorySizeFunc {
	return func(stack *Stack) (uint64, bool) {
		off, err := stack.peek(offsetIdx)
		if err != nil {
			return 0, false
		}
		size, err := stack.peek(sizeIdx)
		if err != nil {
			return 0, false
		}
		return calcMemSize(off, size)
	}
}

// makeGasCopy builds a gasFunc charging GasCopyWord per 32-byte word
// copied, on top of the opcode's constant gas, for a *COPY instruction
// whose length operand sits at sizeIdx slots from the stack top.
func makeGasCopy(sizeIdx int) gasFunc {
	return func(in *Interpreter, c *Contract, stack *Stack, mem *Memory, memSize uint64) (uint64, error) {
		size, err := stack.peek(sizeIdx)
		if err != nil {
			return 0, err
		}
		return toWordSize(size.Uint64()) * GasCopyWord, nil
	}
}

func opGasPrice(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
	var v uint256.Int
	if in.evm.TxCtx.GasPrice != nil {
		v.SetFromBig(in.evm.TxCtx.GasPrice)
	}
	stack.push(&v)
	return nil, pc + 1, false, nil
}

func opExtCodeSize(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
	addr, _ := stack.peek(0)
	a := common.BytesToAddress(addr.Bytes())
	code, err := in.evm.StateDB.Code(a)
	if err != nil {
		return nil, 0, false, err
	}
	addr.SetUint64(uint64(len(code)))
	return nil, pc + 1, false, nil
}

func opExtCodeCopy(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
	addr, _ := stack.pop()
	destOffset, _ := stack.pop()
	offset, _ := stack.pop()
	size, _ := stack.pop()
	a := common.BytesToAddress(addr.Bytes())
	code, err := in.evm.StateDB.Code(a)
	if err != nil {
		return nil, 0, false, err
	}
	data := getData(code, offset.Uint64(), size.Uint64())
	mem.set(destOffset.Uint64(), size.Uint64(), data)
	return nil, pc + 1, false, nil
}

func opReturnDataSize(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
	stack.push(uint256.NewInt(uint64(len(c.LastReturnData))))
	return nil, pc + 1, false, nil
}

func opReturnDataCopy(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
	destOffset, _ := stack.pop()
	offset, _ := stack.pop()
	size, _ := stack.pop()
	end := new(uint256.Int).Add(offset, size)
	if !end.IsUint64() || end.Uint64() > uint64(len(c.LastReturnData)) {
		return nil, 0, false, ErrReturnDataOutOfBounds
	}
	mem.set(destOffset.Uint64(), size.Uint64(), c.LastReturnData[offset.Uint64():end.Uint64()])
	return nil, pc + 1, false, nil
}

func opExtCodeHash(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
	addr, _ := stack.peek(0)
	a := common.BytesToAddress(addr.Bytes())
	exists, err := in.evm.StateDB.Exist(a)
	if err != nil {
		return nil, 0, false, err
	}
	if !exists {
		addr.Clear()
		return nil, pc + 1, false, nil
	}
	hash, err := in.evm.codeHashOf(a)
	if err != nil {
		return nil, 0, false, err
	}
	addr.SetBytes(hash.Bytes())
	return nil, pc + 1, false, nil
}

// --- block info -------------------------------------------------------

func opBlockhash(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
	num, _ := stack.peek(0)
	if !num.IsUint64() {
		num.Clear()
		return nil, pc + 1, false, nil
	}
	n := num.Uint64()
	if in.evm.BlockCtx.GetAncestor == nil {
		num.Clear()
		return nil, pc + 1, false, nil
	}
	h := in.evm.BlockCtx.GetAncestor(n)
	if h == nil {
		num.Clear()
		return nil, pc + 1, false, nil
	}
	num.SetBytes(h.Hash().Bytes())
	return nil, pc + 1, false, nil
}

func opCoinbase(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
	var v uint256.Int
	v.SetBytes(in.evm.BlockCtx.Beneficiary.Bytes())
	stack.push(&v)
	return nil, pc + 1, false, nil
}

func opTimestamp(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
	stack.push(uint256.NewInt(in.evm.BlockCtx.Header.Timestamp))
	return nil, pc + 1, false, nil
}

func opNumber(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
	var v uint256.Int
	v.SetFromBig(in.evm.BlockCtx.Header.Number)
	stack.push(&v)
	return nil, pc + 1, false, nil
}

func opDifficulty(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
	var v uint256.Int
	v.SetFromBig(in.evm.BlockCtx.Header.Difficulty)
	stack.push(&v)
	return nil, pc + 1, false, nil
}

func opGasLimit(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
	stack.push(uint256.NewInt(in.evm.BlockCtx.Header.GasLimit))
	return nil, pc + 1, false, nil
}

func opChainID(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
	var v uint256.Int
	if in.evm.chainID != nil {
		v.SetFromBig(in.evm.chainID)
	}
	stack.push(&v)
	return nil, pc + 1, false, nil
}

func opSelfBalance(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
	bal, err := in.evm.balanceOf(c.Address)
	if err != nil {
		return nil, 0, false, err
	}
	stack.push(new(uint256.Int).Set(bal))
	return nil, pc + 1, false, nil
}

// --- stack/memory/storage/flow ----------------------------------------

func opPop(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
	stack.pop()
	return nil, pc + 1, false, nil
}

func opMload(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
	offset, _ := stack.peek(0)
	off := offset.Uint64()
	offset.SetBytes(mem.getCopy(off, 32))
	return nil, pc + 1, false, nil
}

func memMload(stack *Stack) (uint64, bool) {
	off, err := stack.peek(0)
	if err != nil {
		return 0, false
	}
	return calcMemSize(off, thirtyTwo)
}

func opMstore(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
	offset, _ := stack.pop()
	val, _ := stack.pop()
	b := val.Bytes32()
	mem.set(offset.Uint64(), 32, b[:])
	return nil, pc + 1, false, nil
}

func memMstore(stack *Stack) (uint64, bool) {
	off, err := stack.peek(0)
	if err != nil {
		return 0, false
	}
	return calcMemSize(off, thirtyTwo)
}

func opMstore8(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
	offset, _ := stack.pop()
	val, _ := stack.pop()
	mem.set(offset.Uint64(), 1, []byte{byte(val.Uint64())})
	return nil, pc + 1, false, nil
}

func memMstore8(stack *Stack) (uint64, bool) {
	off, err := stack.peek(0)
	if err != nil {
		return 0, false
	}
	return calcMemSize(off, one)
}

func opSload(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
	loc, _ := stack.peek(0)
	key := common.Hash(loc.Bytes32())
	val, err := in.evm.StateDB.Storage(c.Address, key)
	if err != nil {
		return nil, 0, false, err
	}
	loc.Set(val)
	return nil, pc + 1, false, nil
}

func opSstore(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
	loc, _ := stack.pop()
	val, _ := stack.pop()
	key := common.Hash(loc.Bytes32())
	if val.IsZero() {
		if err := in.evm.StateDB.RemoveStorage(c.Address, key); err != nil {
			return nil, 0, false, err
		}
	} else {
		if err := in.evm.StateDB.PutStorage(c.Address, key, val); err != nil {
			return nil, 0, false, err
		}
	}
	return nil, pc + 1, false, nil
}

func gasSstore(in *Interpreter, c *Contract, stack *Stack, mem *Memory, memSize uint64) (uint64, error) {
	loc, err := stack.peek(0)
	if err != nil {
		return 0, err
	}
	newVal, err := stack.peek(1)
	if err != nil {
		return 0, err
	}
	key := common.Hash(loc.Bytes32())
	current, err := in.evm.StateDB.Storage(c.Address, key)
	if err != nil {
		return 0, err
	}
	if in.evm.Rules.EIP1283SStore {
		return gasSstoreEIP2200(in, c, key, current, newVal)
	}
	if current.IsZero() && !newVal.IsZero() {
		return SstoreSetGas, nil
	}
	if !current.IsZero() && newVal.IsZero() {
		in.evm.StateDB.AddRefund(SstoreClearRefund)
	}
	return SstoreResetGas, nil
}

func gasSstoreEIP2200(in *Interpreter, c *Contract, key common.Hash, current, newVal *uint256.Int) (uint64, error) {
	if current.Eq(newVal) {
		return SstoreNoopGasEIP2200, nil
	}
	original, err := in.evm.StateDB.InitialStorage(c.Address, key)
	if err != nil {
		return 0, err
	}
	if original.Eq(current) {
		if original.IsZero() {
			return SstoreInitGasEIP2200, nil
		}
		if newVal.IsZero() {
			in.evm.StateDB.AddRefund(SstoreClearRefundEIP2200)
		}
		return SstoreCleanGasEIP2200, nil
	}
	if !original.IsZero() {
		if current.IsZero() {
			in.evm.StateDB.SubRefund(SstoreClearRefundEIP2200)
		} else if newVal.IsZero() {
			in.evm.StateDB.AddRefund(SstoreClearRefundEIP2200)
		}
	}
	if original.Eq(newVal) {
		if original.IsZero() {
			in.evm.StateDB.AddRefund(SstoreInitRefundEIP2200)
		} else {
			in.evm.StateDB.AddRefund(SstoreCleanRefundEIP2200)
		}
	}
	return SstoreDirtyGasEIP2200, nil
}

func opJump(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
	dest, _ := stack.pop()
	if !dest.IsUint64() || !validJumpdest(c.Code, dest.Uint64()) {
		return nil, 0, false, ErrInvalidJump
	}
	return nil, dest.Uint64(), false, nil
}

func opJumpi(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
	dest, _ := stack.pop()
	cond, _ := stack.pop()
	if cond.IsZero() {
		return nil, pc + 1, false, nil
	}
	if !dest.IsUint64() || !validJumpdest(c.Code, dest.Uint64()) {
		return nil, 0, false, ErrInvalidJump
	}
	return nil, dest.Uint64(), false, nil
}

func opPc(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
	stack.push(uint256.NewInt(pc))
	return nil, pc + 1, false, nil
}

func opMsize(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
	stack.push(uint256.NewInt(uint64(mem.Len())))
	return nil, pc + 1, false, nil
}

func opGas(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
	stack.push(uint256.NewInt(c.Gas))
	return nil, pc + 1, false, nil
}

func opJumpdest(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
	return nil, pc + 1, false, nil
}

func opStop(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
	return nil, pc + 1, true, nil
}

func opInvalid(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
	return nil, 0, false, ErrInvalidInstruction
}

// --- push/dup/swap ------------------------------------------------------

func makePush(size int) executionFunc {
	return func(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
		var v uint256.Int
		v.SetBytes(getData(c.Code, pc+1, uint64(size)))
		stack.push(&v)
		return nil, pc + 1 + uint64(size), false, nil
	}
}

func makeDup(n int) executionFunc {
	return func(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
		if err := stack.dup(n); err != nil {
			return nil, 0, false, err
		}
		return nil, pc + 1, false, nil
	}
}

func makeSwap(n int) executionFunc {
	return func(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
		if err := stack.swap(n); err != nil {
			return nil, 0, false, err
		}
		return nil, pc + 1, false, nil
	}
}

// --- logging -------------------------------------------------------------

func makeLog(n int) executionFunc {
	return func(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
		offset, _ := stack.pop()
		size, _ := stack.pop()
		topics := make([]common.Hash, n)
		for i := 0; i < n; i++ {
			t, _ := stack.pop()
			topics[i] = common.Hash(t.Bytes32())
		}
		data := mem.getCopy(offset.Uint64(), size.Uint64())
		in.evm.StateDB.AddLog(&types.Log{Address: c.Address, Topics: topics, Data: data})
		return nil, pc + 1, false, nil
	}
}

func memLog(stack *Stack) (uint64, bool) {
	off, err := stack.peek(0)
	if err != nil {
		return 0, false
	}
	size, err := stack.peek(1)
	if err != nil {
		return 0, false
	}
	return calcMemSize(off, size)
}

func makeGasLog(n int) gasFunc {
	return func(in *Interpreter, c *Contract, stack *Stack, mem *Memory, memSize uint64) (uint64, error) {
		size, err := stack.peek(1)
		if err != nil {
			return 0, err
		}
		return GasLog + uint64(n)*GasLogTopic + size.Uint64()*GasLogData, nil
	}
}

// --- system: create/call/return/selfdestruct -----------------------------

func opCreate(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
	value, _ := stack.pop()
	offset, _ := stack.pop()
	size, _ := stack.pop()
	initCode := mem.getCopy(offset.Uint64(), size.Uint64())

	gas := c.Gas
	c.Gas = 0
	ret, addr, leftOver, err := in.evm.Create(c.Address, initCode, gas, value)
	c.Gas += leftOver

	result := new(uint256.Int)
	if err == nil || err == ErrExecutionReverted {
		result.SetBytes(addr.Bytes())
	}
	stack.push(result)
	if err != nil && err != ErrExecutionReverted {
		return nil, pc + 1, false, nil
	}
	return ret, pc + 1, false, nil
}

func memCreate(stack *Stack) (uint64, bool) {
	off, err := stack.peek(1)
	if err != nil {
		return 0, false
	}
	size, err := stack.peek(2)
	if err != nil {
		return 0, false
	}
	return calcMemSize(off, size)
}

func opCreate2(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
	value, _ := stack.pop()
	offset, _ := stack.pop()
	size, _ := stack.pop()
	salt, _ := stack.pop()
	initCode := mem.getCopy(offset.Uint64(), size.Uint64())

	gas := c.Gas
	c.Gas = 0
	ret, addr, leftOver, err := in.evm.Create2(c.Address, initCode, gas, value, salt)
	c.Gas += leftOver

	result := new(uint256.Int)
	if err == nil || err == ErrExecutionReverted {
		result.SetBytes(addr.Bytes())
	}
	stack.push(result)
	if err != nil && err != ErrExecutionReverted {
		return nil, pc + 1, false, nil
	}
	return ret, pc + 1, false, nil
}

func memCreate2(stack *Stack) (uint64, bool) {
	off, err := stack.peek(1)
	if err != nil {
		return 0, false
	}
	size, err := stack.peek(2)
	if err != nil {
		return 0, false
	}
	return calcMemSize(off, size)
}

func gasCreate(in *Interpreter, c *Contract, stack *Stack, mem *Memory, memSize uint64) (uint64, error) {
	return GasCreate, nil
}

func gasCreate2(in *Interpreter, c *Contract, stack *Stack, mem *Memory, memSize uint64) (uint64, error) {
	size, err := stack.peek(2)
	if err != nil {
		return 0, err
	}
	return GasCreate + GasSha3Word*toWordSize(size.Uint64()), nil
}

func opCall(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
	gasArg, _ := stack.pop()
	addr, _ := stack.pop()
	value, _ := stack.pop()
	inOffset, _ := stack.pop()
	inSize, _ := stack.pop()
	retOffset, _ := stack.pop()
	retSize, _ := stack.pop()

	a := common.BytesToAddress(addr.Bytes())
	args := mem.getCopy(inOffset.Uint64(), inSize.Uint64())

	callGas := callGasBudget(c.Gas, gasArg.Uint64())
	if !value.IsZero() {
		callGas += GasCallStipend
	}
	c.Gas -= callGas

	ret, leftOver, err := in.evm.Call(c.Address, a, args, callGas, value)
	c.Gas += leftOver

	mem.set(retOffset.Uint64(), retSize.Uint64(), rightPad(ret, int(retSize.Uint64())))
	stack.push(boolResult(err == nil))
	return ret, pc + 1, false, nil
}

func opCallCode(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
	gasArg, _ := stack.pop()
	addr, _ := stack.pop()
	value, _ := stack.pop()
	inOffset, _ := stack.pop()
	inSize, _ := stack.pop()
	retOffset, _ := stack.pop()
	retSize, _ := stack.pop()

	a := common.BytesToAddress(addr.Bytes())
	args := mem.getCopy(inOffset.Uint64(), inSize.Uint64())

	callGas := callGasBudget(c.Gas, gasArg.Uint64())
	if !value.IsZero() {
		callGas += GasCallStipend
	}
	c.Gas -= callGas

	ret, leftOver, err := in.evm.CallCode(c.Address, a, args, callGas, value)
	c.Gas += leftOver

	mem.set(retOffset.Uint64(), retSize.Uint64(), rightPad(ret, int(retSize.Uint64())))
	stack.push(boolResult(err == nil))
	return ret, pc + 1, false, nil
}

func opDelegateCall(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
	gasArg, _ := stack.pop()
	addr, _ := stack.pop()
	inOffset, _ := stack.pop()
	inSize, _ := stack.pop()
	retOffset, _ := stack.pop()
	retSize, _ := stack.pop()

	a := common.BytesToAddress(addr.Bytes())
	args := mem.getCopy(inOffset.Uint64(), inSize.Uint64())

	callGas := callGasBudget(c.Gas, gasArg.Uint64())
	c.Gas -= callGas

	ret, leftOver, err := in.evm.DelegateCall(c.CallerAddress, c.Address, a, args, callGas, c.Value)
	c.Gas += leftOver

	mem.set(retOffset.Uint64(), retSize.Uint64(), rightPad(ret, int(retSize.Uint64())))
	stack.push(boolResult(err == nil))
	return ret, pc + 1, false, nil
}

func opStaticCall(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
	gasArg, _ := stack.pop()
	addr, _ := stack.pop()
	inOffset, _ := stack.pop()
	inSize, _ := stack.pop()
	retOffset, _ := stack.pop()
	retSize, _ := stack.pop()

	a := common.BytesToAddress(addr.Bytes())
	args := mem.getCopy(inOffset.Uint64(), inSize.Uint64())

	callGas := callGasBudget(c.Gas, gasArg.Uint64())
	c.Gas -= callGas

	ret, leftOver, err := in.evm.StaticCall(c.Address, a, args, callGas)
	c.Gas += leftOver

	mem.set(retOffset.Uint64(), retSize.Uint64(), rightPad(ret, int(retSize.Uint64())))
	stack.push(boolResult(err == nil))
	return ret, pc + 1, false, nil
}

func memCall(argOffsetIdx, argSizeIdx, retOffsetIdx, retSizeIdx int) memorySizeFunc {
	return func(stack *Stack) (uint64, bool) {
		argOff, err := stack.peek(argOffsetIdx)
		if err != nil {
			return 0, false
		}
		argSize, err := stack.peek(argSizeIdx)
		if err != nil {
			return 0, false
		}
		retOff, err := stack.peek(retOffsetIdx)
		if err != nil {
			return 0, false
		}
		retSize, err := stack.peek(retSizeIdx)
		if err != nil {
			return 0, false
		}
		in, ok := calcMemSize(argOff, argSize)
		if !ok {
			return 0, false
		}
		out, ok := calcMemSize(retOff, retSize)
		if !ok {
			return 0, false
		}
		if in > out {
			return in, true
		}
		return out, true
	}
}

func gasCall(in *Interpreter, c *Contract, stack *Stack, mem *Memory, memSize uint64) (uint64, error) {
	return GasCallEIP150, nil
}

func opReturn(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
	offset, _ := stack.pop()
	size, _ := stack.pop()
	return mem.getCopy(offset.Uint64(), size.Uint64()), pc + 1, true, nil
}

func memReturn(stack *Stack) (uint64, bool) {
	off, err := stack.peek(0)
	if err != nil {
		return 0, false
	}
	size, err := stack.peek(1)
	if err != nil {
		return 0, false
	}
	return calcMemSize(off, size)
}

func opRevert(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
	offset, _ := stack.pop()
	size, _ := stack.pop()
	return mem.getCopy(offset.Uint64(), size.Uint64()), pc + 1, false, ErrExecutionReverted
}

func opSelfDestruct(pc uint64, in *Interpreter, c *Contract, mem *Memory, stack *Stack) ([]byte, uint64, bool, error) {
	beneficiary, _ := stack.pop()
	b := common.BytesToAddress(beneficiary.Bytes())
	if err := in.evm.StateDB.SelfDestruct(c.Address, b); err != nil {
		return nil, 0, false, err
	}
	return nil, pc + 1, true, nil
}

// --- shared helpers -------------------------------------------------------

var (
	one       = uint256.NewInt(1)
	thirtyTwo = uint256.NewInt(32)
)

func boolResult(ok bool) *uint256.Int {
	if ok {
		return uint256.NewInt(1)
	}
	return new(uint256.Int)
}

// callGasBudget implements the "63/64ths rule" (EIP-150): a sub-call may
// request at most all-but-one-64th of the calling frame's remaining gas.
func callGasBudget(available, requested uint64) uint64 {
	cap := available - available/64
	if requested > cap || requested == 0 {
		return cap
	}
	return requested
}

// getData returns size bytes of b starting at offset, zero-padded past the
// end, mirroring CALLDATACOPY/CODECOPY/PUSH's "zero-extended" read.
func getData(b []byte, offset, size uint64) []byte {
	out := make([]byte, size)
	if offset >= uint64(len(b)) {
		return out
	}
	end := offset + size
	if end > uint64(len(b)) {
		end = uint64(len(b))
	}
	copy(out, b[offset:end])
	return out
}

// calcMemSize returns the byte offset one past the last byte a
// (offset, length) memory access touches, or false if it would overflow a
// uint64 or the length is implausibly large.
func calcMemSize(off, length *uint256.Int) (uint64, bool) {
	if length.IsZero() {
		return 0, true
	}
	if !off.IsUint64() || !length.IsUint64() {
		return 0, false
	}
	o, l := off.Uint64(), length.Uint64()
	if o > 1<<62 || l > 1<<62 {
		return 0, false
	}
	return o + l, true
}
