// Copyright 2024 The mana-sub006 Authors
// This file is part of mana-sub006, licensed LGPLv3-or-later.

package core

import (
	"github.com/holiman/uint256"

	"github.com/mana-ethereum/mana-sub006/common"
	"github.com/mana-ethereum/mana-sub006/core/state"
	"github.com/mana-ethereum/mana-sub006/core/types"
	"github.com/mana-ethereum/mana-sub006/crypto"
	"github.com/mana-ethereum/mana-sub006/params"
)

// ValidateTransaction checks tx against header and sdb per §4.F
// "Transaction": nonce, gas budget, balance, signature shape, and intrinsic
// gas. sender is the already-recovered signing address (Transaction.Sender
// is not called here so the caller can memoize it once per block).
func ValidateTransaction(config *params.ChainConfig, header *types.Header, sdb *state.IntraBlockState, tx *types.Transaction, sender common.Address) error {
	acc, err := sdb.Account(sender)
	if err != nil {
		return err
	}
	var nonce uint64
	var balance *uint256.Int
	if acc == nil {
		nonce, balance = 0, new(uint256.Int)
	} else {
		nonce, balance = acc.Nonce, acc.Balance
	}
	if tx.Nonce != nonce {
		return ErrNonceMismatch
	}
	if header.GasUsed > header.GasLimit || tx.GasLimit > header.GasLimit-header.GasUsed {
		return ErrGasLimitExceedsBlock
	}

	gasPrice, overflow := uint256.FromBig(tx.GasPrice)
	if overflow {
		return ErrInsufficientFunds
	}
	cost := new(uint256.Int).SetUint64(tx.GasLimit)
	cost.Mul(cost, gasPrice)
	cost.Add(cost, tx.Value)
	if balance.Cmp(cost) < 0 {
		return ErrInsufficientFunds
	}

	homestead := config.IsHomestead(header.Number)
	if !crypto.ValidateSignatureValues(recoveryID(tx), tx.R, tx.S, homestead) {
		return ErrInvalidSignature
	}
	if !validVChainID(config, header, tx) {
		return ErrInvalidSignature
	}

	isEIP2028 := config.IsIstanbul(header.Number)
	intrinsic, err := tx.IntrinsicGas(tx.IsContractCreation(), isEIP2028)
	if err != nil {
		return err
	}
	if tx.GasLimit < intrinsic {
		return ErrGasLimitBelowIntrinsic
	}
	return nil
}

// recoveryID derives the 0/1 ECDSA recovery bit from tx.V, for either the
// pre-EIP-155 form (v in {27,28}) or the EIP-155 form (v = chain_id*2+35/36).
func recoveryID(tx *types.Transaction) byte {
	v := tx.V.Uint64()
	if v == 27 || v == 28 {
		return byte(v - 27)
	}
	return byte((v - 35) % 2)
}

// validVChainID checks v's shape per §4.F: {27,28} pre-EIP-155,
// {chain_id*2+35, chain_id*2+36} after.
func validVChainID(config *params.ChainConfig, header *types.Header, tx *types.Transaction) bool {
	v := tx.V.Uint64()
	if !config.IsEIP155(header.Number) {
		return v == 27 || v == 28
	}
	chainID := tx.ChainID()
	if chainID == nil {
		return false
	}
	return chainID.Cmp(config.ChainID) == 0
}
