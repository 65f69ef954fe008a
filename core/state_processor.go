// Copyright 2024 The mana-sub006 Authors
// This file is part of mana-sub006, licensed LGPLv3-or-later.

package core

import (
	"github.com/holiman/uint256"

	"github.com/mana-ethereum/mana-sub006/common"
	"github.com/mana-ethereum/mana-sub006/core/state"
	"github.com/mana-ethereum/mana-sub006/core/types"
	"github.com/mana-ethereum/mana-sub006/core/vm"
	"github.com/mana-ethereum/mana-sub006/params"
)

// AncestorSource resolves a canonical block number to its header, backing
// vm.BlockContext.GetAncestor (the BLOCKHASH opcode's last-256-ancestors
// lookup). The sync loop's chain store satisfies this.
type AncestorSource interface {
	HeaderByNumber(number uint64) (*types.Header, bool)
}

// StateProcessor applies a block's transactions against an account state
// layer, per §4.F "Application", producing one receipt per transaction.
type StateProcessor struct {
	config *params.ChainConfig
	chain  AncestorSource
}

// NewStateProcessor builds a processor for config's hardfork schedule. The
// BLOCKHASH opcode resolves to the zero hash until SetChain is called.
func NewStateProcessor(config *params.ChainConfig) *StateProcessor {
	return &StateProcessor{config: config}
}

// SetChain wires the canonical-header source GetAncestor consults; callers
// that never execute BLOCKHASH (e.g. isolated unit tests) may leave it unset.
func (p *StateProcessor) SetChain(chain AncestorSource) {
	p.chain = chain
}

// Process runs block's transactions against sdb in order and returns the
// receipts produced and the block's total gas used. It does not itself
// check the block's post-condition roots (see ValidateBlock).
func (p *StateProcessor) Process(block *types.Block, sdb *state.IntraBlockState) ([]*types.Receipt, uint64, error) {
	header := block.Header
	rules := p.config.Rules(header.Number)
	blockCtx := vm.BlockContext{Beneficiary: header.Beneficiary, Header: header, GetAncestor: p.getAncestor(header.Number.Uint64())}
	isByzantium := p.config.IsByzantium(header.Number)
	isEIP158 := p.config.IsEIP158(header.Number)

	receipts := make([]*types.Receipt, 0, len(block.Body.Transactions))
	var cumulativeGas uint64

	for _, tx := range block.Body.Transactions {
		sdb.Prepare()

		sender, err := tx.Sender()
		if err != nil {
			return nil, 0, err
		}
		if err := ValidateTransaction(p.config, header, sdb, tx, sender); err != nil {
			return nil, 0, err
		}

		gasPrice, overflow := uint256.FromBig(tx.GasPrice)
		if overflow {
			return nil, 0, ErrInsufficientFunds
		}
		upfront := new(uint256.Int).SetUint64(tx.GasLimit)
		upfront.Mul(upfront, gasPrice)
		if err := sdb.SubBalance(sender, upfront); err != nil {
			return nil, 0, err
		}

		txCtx := vm.TxContext{Origin: sender, GasPrice: tx.GasPrice}
		evm := vm.NewEVM(blockCtx, txCtx, sdb, rules, p.config.ChainID)

		intrinsic, err := tx.IntrinsicGas(tx.IsContractCreation(), p.config.IsIstanbul(header.Number))
		if err != nil {
			return nil, 0, err
		}
		execGas := tx.GasLimit - intrinsic

		var gasRemaining uint64
		var execErr error
		if tx.IsContractCreation() {
			_, _, remaining, err := evm.Create(sender, tx.Data, execGas, tx.Value)
			gasRemaining, execErr = remaining, err
		} else {
			if err := sdb.IncrementNonce(sender); err != nil {
				return nil, 0, err
			}
			_, remaining, err := evm.Call(sender, *tx.To, tx.Data, execGas, tx.Value)
			gasRemaining, execErr = remaining, err
		}

		gasUsedBeforeRefund := tx.GasLimit - gasRemaining
		capDivisor := uint64(2)
		if rules.EIP3529RefundCut {
			capDivisor = 5
		}
		refund := sdb.Refund()
		if max := gasUsedBeforeRefund / capDivisor; refund > max {
			refund = max
		}
		gasUsed := gasUsedBeforeRefund - refund

		senderCredit := new(uint256.Int).SetUint64(tx.GasLimit - gasUsed)
		senderCredit.Mul(senderCredit, gasPrice)
		if err := sdb.AddBalance(sender, senderCredit); err != nil {
			return nil, 0, err
		}
		minerFee := new(uint256.Int).SetUint64(gasUsed)
		minerFee.Mul(minerFee, gasPrice)
		if err := sdb.AddBalance(header.Beneficiary, minerFee); err != nil {
			return nil, 0, err
		}

		if isEIP158 {
			if err := sdb.FinaliseEmptyAccounts(); err != nil {
				return nil, 0, err
			}
		}

		cumulativeGas += gasUsed
		logs := sdb.Logs()
		receipt := &types.Receipt{
			CumulativeGasUsed: cumulativeGas,
			Logs:              logs,
			LogsBloom:         types.LogsBloom(logs),
		}
		if isByzantium {
			receipt.UseStatus = true
			if execErr == nil {
				receipt.Status = types.ReceiptStatusSuccessful
			} else {
				receipt.Status = types.ReceiptStatusFailed
			}
		} else {
			root, err := sdb.Commit()
			if err != nil {
				return nil, 0, err
			}
			receipt.PostState = root.Bytes()
		}
		receipts = append(receipts, receipt)
	}

	return receipts, cumulativeGas, nil
}

// getAncestor builds the bounded BLOCKHASH lookup for a block at
// currentNumber: only the 256 most recent canonical ancestors are visible,
// per §3's "Exec-env" ancestor window.
func (p *StateProcessor) getAncestor(currentNumber uint64) func(n uint64) *types.Header {
	if p.chain == nil {
		return nil
	}
	return func(n uint64) *types.Header {
		if n >= currentNumber || currentNumber-n > 256 {
			return nil
		}
		header, ok := p.chain.HeaderByNumber(n)
		if !ok {
			return nil
		}
		return header
	}
}

// ValidateBlock checks block's post-condition per §4.F: state_root,
// receipts_root, transactions_root, logs_bloom, and gas_used all match the
// header, given the receipts Process already produced.
func ValidateBlock(block *types.Block, sdb *state.IntraBlockState, receipts []*types.Receipt, cumulativeGas uint64) error {
	header := block.Header
	if header.GasUsed != cumulativeGas {
		return ErrGasUsedMismatch
	}

	txRoot, err := DeriveTransactionsRoot(block.Body.Transactions)
	if err != nil {
		return err
	}
	if txRoot != header.TransactionsRoot {
		return ErrTransactionsRootMismatch
	}

	receiptsRoot, err := DeriveReceiptsRoot(receipts)
	if err != nil {
		return err
	}
	if receiptsRoot != header.ReceiptsRoot {
		return ErrReceiptsRootMismatch
	}

	var bloom common.Bloom
	for _, r := range receipts {
		bloom.OrBloom(r.LogsBloom)
	}
	if bloom != header.LogsBloom {
		return ErrLogsBloomMismatch
	}

	stateRoot, err := sdb.Commit()
	if err != nil {
		return err
	}
	if stateRoot != header.StateRoot {
		return ErrStateRootMismatch
	}
	return nil
}
