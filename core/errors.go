// Copyright 2024 The mana-sub006 Authors
// This file is part of mana-sub006, licensed LGPLv3-or-later.

// Package core implements §4.F: header and transaction validation, the
// per-block state processor that drives core/vm, and the post-condition
// checks tying a block's roots back to its header.
package core

import "errors"

// Header validation failures (§4.F "Header").
var (
	ErrExtraDataTooLong  = errors.New("core: extra_data exceeds 32 bytes")
	ErrInvalidNumber     = errors.New("core: number != parent.number + 1")
	ErrInvalidTimestamp  = errors.New("core: timestamp does not exceed parent.timestamp")
	ErrGasLimitTooLow    = errors.New("core: gas_limit at or below the protocol floor")
	ErrGasLimitDrift     = errors.New("core: gas_limit drifted outside parent's allowed band")
	ErrGasUsedExceedsLimit = errors.New("core: gas_used exceeds gas_limit")
	ErrInvalidDifficulty = errors.New("core: difficulty does not match the retargeting formula")
)

// Transaction validation failures (§4.F "Transaction").
var (
	ErrNonceMismatch       = errors.New("core: nonce does not match sender's account")
	ErrGasLimitBelowIntrinsic = errors.New("core: gas_limit below intrinsic gas")
	ErrGasLimitExceedsBlock = errors.New("core: gas_limit exceeds the block's remaining gas")
	ErrInsufficientFunds   = errors.New("core: sender balance below gas_limit*gas_price + value")
	ErrInvalidSignature    = errors.New("core: signature fails low-s or v/chain_id validation")
)

// Block post-condition failures (§4.F "Block post-condition").
var (
	ErrStateRootMismatch        = errors.New("core: state_root does not match the header")
	ErrReceiptsRootMismatch     = errors.New("core: receipts_root does not match the header")
	ErrTransactionsRootMismatch = errors.New("core: transactions_root does not match the header")
	ErrLogsBloomMismatch        = errors.New("core: logs_bloom does not match the header")
	ErrGasUsedMismatch          = errors.New("core: gas_used does not match the header")
)

// Ommer validation failures.
var (
	ErrTooManyOmmers     = errors.New("core: block carries more than two ommers")
	ErrOmmerTooOld       = errors.New("core: ommer is not within the last six ancestors")
	ErrOmmerIsCanonical  = errors.New("core: ommer is already part of the canonical chain")
	ErrOmmerIsDuplicate  = errors.New("core: ommer appears more than once in the block")
)
