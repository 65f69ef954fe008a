// Copyright 2024 The mana-sub006 Authors
// This file is part of mana-sub006, licensed LGPLv3-or-later.

package vm

// jumpTable dispatches each opcode to its executionFunc plus gas/stack/
// memory metadata (§4.E "Dispatch"). It is built once at package init and
// never mutated afterwards, and the same table serves every fork: unlike
// go-ethereum/erigon, no per-hardfork table is selected. SSTORE is the only
// operation that reads the frame's *params.Rules (for its gas schedule).
// Every opcode in the table, including later-fork ones such as REVERT,
// STATICCALL, CREATE2, CHAINID, SELFBALANCE, SHL/SHR/SAR, EXTCODEHASH and
// RETURNDATASIZE/RETURNDATACOPY, executes under any Rules, Frontier included.
var jumpTable = newJumpTable()

func newJumpTable() map[OpCode]operation {
	t := map[OpCode]operation{
		STOP:       {execute: opStop, constantGas: 0, minStack: 0, maxStack: 1024},
		ADD:        {execute: opAdd, constantGas: GasFastestStep, minStack: 2, maxStack: 1024},
		MUL:        {execute: opMul, constantGas: GasFastStep, minStack: 2, maxStack: 1024},
		SUB:        {execute: opSub, constantGas: GasFastestStep, minStack: 2, maxStack: 1024},
		DIV:        {execute: opDiv, constantGas: GasFastStep, minStack: 2, maxStack: 1024},
		SDIV:       {execute: opSDiv, constantGas: GasFastStep, minStack: 2, maxStack: 1024},
		MOD:        {execute: opMod, constantGas: GasFastStep, minStack: 2, maxStack: 1024},
		SMOD:       {execute: opSMod, constantGas: GasFastStep, minStack: 2, maxStack: 1024},
		ADDMOD:     {execute: opAddMod, constantGas: GasMidStep, minStack: 3, maxStack: 1024},
		MULMOD:     {execute: opMulMod, constantGas: GasMidStep, minStack: 3, maxStack: 1024},
		EXP:        {execute: opExp, constantGas: GasSlowStep, dynamicGas: gasExp, minStack: 2, maxStack: 1024},
		SIGNEXTEND: {execute: opSignExtend, constantGas: GasFastStep, minStack: 2, maxStack: 1024},

		LT:     {execute: opLt, constantGas: GasFastestStep, minStack: 2, maxStack: 1024},
		GT:     {execute: opGt, constantGas: GasFastestStep, minStack: 2, maxStack: 1024},
		SLT:    {execute: opSlt, constantGas: GasFastestStep, minStack: 2, maxStack: 1024},
		SGT:    {execute: opSgt, constantGas: GasFastestStep, minStack: 2, maxStack: 1024},
		EQ:     {execute: opEq, constantGas: GasFastestStep, minStack: 2, maxStack: 1024},
		ISZERO: {execute: opIsZero, constantGas: GasFastestStep, minStack: 1, maxStack: 1024},
		AND:    {execute: opAnd, constantGas: GasFastestStep, minStack: 2, maxStack: 1024},
		OR:     {execute: opOr, constantGas: GasFastestStep, minStack: 2, maxStack: 1024},
		XOR:    {execute: opXor, constantGas: GasFastestStep, minStack: 2, maxStack: 1024},
		NOT:    {execute: opNot, constantGas: GasFastestStep, minStack: 1, maxStack: 1024},
		BYTE:   {execute: opByte, constantGas: GasFastestStep, minStack: 2, maxStack: 1024},
		SHL:    {execute: opShl, constantGas: GasFastestStep, minStack: 2, maxStack: 1024},
		SHR:    {execute: opShr, constantGas: GasFastestStep, minStack: 2, maxStack: 1024},
		SAR:    {execute: opSar, constantGas: GasFastestStep, minStack: 2, maxStack: 1024},

		SHA3: {execute: opSha3, constantGas: GasSha3, dynamicGas: gasSha3, memorySize: memSha3, minStack: 2, maxStack: 1024},

		ADDRESS:        {execute: opAddress, constantGas: GasQuickStep, minStack: 0, maxStack: 1023},
		BALANCE:        {execute: opBalance, constantGas: GasBalanceEIP150, minStack: 1, maxStack: 1024},
		ORIGIN:         {execute: opOrigin, constantGas: GasQuickStep, minStack: 0, maxStack: 1023},
		CALLER:         {execute: opCaller, constantGas: GasQuickStep, minStack: 0, maxStack: 1023},
		CALLVALUE:      {execute: opCallValue, constantGas: GasQuickStep, minStack: 0, maxStack: 1023},
		CALLDATALOAD:   {execute: opCallDataLoad, constantGas: GasFastestStep, minStack: 1, maxStack: 1024},
		CALLDATASIZE:   {execute: opCallDataSize, constantGas: GasQuickStep, minStack: 0, maxStack: 1023},
		CALLDATACOPY:   {execute: opCallDataCopy, constantGas: GasFastestStep, dynamicGas: makeGasCopy(2), memorySize: memCopy(0, 2), minStack: 3, maxStack: 1024},
		CODESIZE:       {execute: opCodeSize, constantGas: GasQuickStep, minStack: 0, maxStack: 1023},
		CODECOPY:       {execute: opCodeCopy, constantGas: GasFastestStep, dynamicGas: makeGasCopy(2), memorySize: memCopy(0, 2), minStack: 3, maxStack: 1024},
		GASPRICE:       {execute: opGasPrice, constantGas: GasQuickStep, minStack: 0, maxStack: 1023},
		EXTCODESIZE:    {execute: opExtCodeSize, constantGas: GasExtcodeSizeEIP150, minStack: 1, maxStack: 1024},
		EXTCODECOPY:    {execute: opExtCodeCopy, constantGas: GasExtcodeSizeEIP150, dynamicGas: makeGasCopy(3), memorySize: memCopy(1, 3), minStack: 4, maxStack: 1024},
		RETURNDATASIZE: {execute: opReturnDataSize, constantGas: GasQuickStep, minStack: 0, maxStack: 1023},
		RETURNDATACOPY: {execute: opReturnDataCopy, constantGas: GasFastestStep, dynamicGas: makeGasCopy(2), memorySize: memCopy(0, 2), minStack: 3, maxStack: 1024},
		EXTCODEHASH:    {execute: opExtCodeHash, constantGas: GasExtcodeHash, minStack: 1, maxStack: 1024},

		BLOCKHASH:   {execute: opBlockhash, constantGas: GasExtStep, minStack: 1, maxStack: 1024},
		COINBASE:    {execute: opCoinbase, constantGas: GasQuickStep, minStack: 0, maxStack: 1023},
		TIMESTAMP:   {execute: opTimestamp, constantGas: GasQuickStep, minStack: 0, maxStack: 1023},
		NUMBER:      {execute: opNumber, constantGas: GasQuickStep, minStack: 0, maxStack: 1023},
		DIFFICULTY:  {execute: opDifficulty, constantGas: GasQuickStep, minStack: 0, maxStack: 1023},
		GASLIMIT:    {execute: opGasLimit, constantGas: GasQuickStep, minStack: 0, maxStack: 1023},
		CHAINID:     {execute: opChainID, constantGas: GasQuickStep, minStack: 0, maxStack: 1023},
		SELFBALANCE: {execute: opSelfBalance, constantGas: GasFastStep, minStack: 0, maxStack: 1023},

		POP:    {execute: opPop, constantGas: GasQuickStep, minStack: 1, maxStack: 1024},
		MLOAD:  {execute: opMload, constantGas: GasFastestStep, memorySize: memMload, minStack: 1, maxStack: 1024},
		MSTORE: {execute: opMstore, constantGas: GasFastestStep, memorySize: memMstore, minStack: 2, maxStack: 1024, writes: true},
		MSTORE8: {execute: opMstore8, constantGas: GasFastestStep, memorySize: memMstore8, minStack: 2, maxStack: 1024, writes: true},
		SLOAD:  {execute: opSload, constantGas: GasSloadEIP150, minStack: 1, maxStack: 1024},
		SSTORE: {execute: opSstore, constantGas: 0, dynamicGas: gasSstore, minStack: 2, maxStack: 1024, writes: true},
		JUMP:   {execute: opJump, constantGas: GasMidStep, minStack: 1, maxStack: 1024},
		JUMPI:  {execute: opJumpi, constantGas: GasSlowStep, minStack: 2, maxStack: 1024},
		PC:     {execute: opPc, constantGas: GasQuickStep, minStack: 0, maxStack: 1023},
		MSIZE:  {execute: opMsize, constantGas: GasQuickStep, minStack: 0, maxStack: 1023},
		GAS:    {execute: opGas, constantGas: GasQuickStep, minStack: 0, maxStack: 1023},
		JUMPDEST: {execute: opJumpdest, constantGas: GasJumpdest, minStack: 0, maxStack: 1024},

		CREATE:       {execute: opCreate, dynamicGas: gasCreate, memorySize: memCreate, minStack: 3, maxStack: 1024, writes: true},
		CALL:         {execute: opCall, dynamicGas: gasCall, memorySize: memCall(3, 4, 5, 6), minStack: 7, maxStack: 1024},
		CALLCODE:     {execute: opCallCode, dynamicGas: gasCall, memorySize: memCall(3, 4, 5, 6), minStack: 7, maxStack: 1024},
		RETURN:       {execute: opReturn, constantGas: 0, memorySize: memReturn, minStack: 2, maxStack: 1024},
		DELEGATECALL: {execute: opDelegateCall, dynamicGas: gasCall, memorySize: memCall(2, 3, 4, 5), minStack: 6, maxStack: 1024},
		CREATE2:      {execute: opCreate2, dynamicGas: gasCreate2, memorySize: memCreate2, minStack: 4, maxStack: 1024, writes: true},
		STATICCALL:   {execute: opStaticCall, dynamicGas: gasCall, memorySize: memCall(2, 3, 4, 5), minStack: 6, maxStack: 1024},
		REVERT:       {execute: opRevert, constantGas: 0, memorySize: memReturn, minStack: 2, maxStack: 1024},
		INVALID:      {execute: opInvalid, constantGas: 0, minStack: 0, maxStack: 1024},
		SELFDESTRUCT: {execute: opSelfDestruct, constantGas: GasSelfdestructEIP150, minStack: 1, maxStack: 1024, writes: true},
	}

	for op := PUSH1; op <= PUSH32; op++ {
		size := int(op-PUSH1) + 1
		t[op] = operation{execute: makePush(size), constantGas: GasFastestStep, minStack: 0, maxStack: 1024 - 1}
	}
	for op := DUP1; op <= DUP16; op++ {
		n := int(op-DUP1) + 1
		t[op] = operation{execute: makeDup(n), constantGas: GasFastestStep, minStack: n, maxStack: 1024 - 1}
	}
	for op := SWAP1; op <= SWAP16; op++ {
		n := int(op-SWAP1) + 1
		t[op] = operation{execute: makeSwap(n), constantGas: GasFastestStep, minStack: n + 1, maxStack: 1024}
	}
	for op := LOG0; op <= LOG4; op++ {
		n := int(op - LOG0)
		t[op] = operation{execute: makeLog(n), constantGas: GasLog, dynamicGas: makeGasLog(n), memorySize: memLog, minStack: n + 2, maxStack: 1024, writes: true}
	}
	return t
}
