// Copyright 2024 The mana-sub006 Authors
// This file is part of mana-sub006, licensed LGPLv3-or-later.

package rpc

import (
	"github.com/mana-ethereum/mana-sub006/core/types"
)

// transactionResult is one entry of a block's "transactions" array, used
// both standalone (eth_getTransactionByHash, were it maintained) and
// nested in a full block result.
type transactionResult struct {
	Hash     string  `json:"hash"`
	Nonce    string  `json:"nonce"`
	GasPrice string  `json:"gasPrice"`
	Gas      string  `json:"gas"`
	To       *string `json:"to"`
	Value    string  `json:"value"`
	Input    string  `json:"input"`
	V        string  `json:"v"`
	R        string  `json:"r"`
	S        string  `json:"s"`
}

func newTransactionResult(tx *types.Transaction) transactionResult {
	var to *string
	if tx.To != nil {
		s := tx.To.String()
		to = &s
	}
	return transactionResult{
		Hash:     tx.Hash().String(),
		Nonce:    hexutilUint64(tx.Nonce),
		GasPrice: "0x" + tx.GasPrice.Text(16),
		Gas:      hexutilUint64(tx.GasLimit),
		To:       to,
		Value:    hexQuantity(tx.Value),
		Input:    bytesToHexData(tx.Data),
		V:        "0x" + tx.V.Text(16),
		R:        "0x" + tx.R.Text(16),
		S:        "0x" + tx.S.Text(16),
	}
}

// blockResult is the §6 eth_getBlockByHash / eth_getBlockByNumber result
// shape: the header's fields plus either transaction hashes or full
// transaction objects, selected by the call's fullTransactions flag.
type blockResult struct {
	Number           string        `json:"number"`
	Hash             string        `json:"hash"`
	ParentHash       string        `json:"parentHash"`
	Sha3Uncles       string        `json:"sha3Uncles"`
	Miner            string        `json:"miner"`
	StateRoot        string        `json:"stateRoot"`
	TransactionsRoot string        `json:"transactionsRoot"`
	ReceiptsRoot     string        `json:"receiptsRoot"`
	LogsBloom        string        `json:"logsBloom"`
	Difficulty       string        `json:"difficulty"`
	GasLimit         string        `json:"gasLimit"`
	GasUsed          string        `json:"gasUsed"`
	Timestamp        string        `json:"timestamp"`
	ExtraData        string        `json:"extraData"`
	MixHash          string        `json:"mixHash"`
	Nonce            string        `json:"nonce"`
	Transactions     []interface{} `json:"transactions"`
	Uncles           []string      `json:"uncles"`
}

func newBlockResult(block *types.Block, fullTxs bool) *blockResult {
	h := block.Header
	txs := make([]interface{}, len(block.Body.Transactions))
	for i, tx := range block.Body.Transactions {
		if fullTxs {
			txs[i] = newTransactionResult(tx)
		} else {
			txs[i] = tx.Hash().String()
		}
	}
	uncles := make([]string, len(block.Body.Ommers))
	for i, o := range block.Body.Ommers {
		uncles[i] = o.Hash().String()
	}
	return &blockResult{
		Number:           hexutilUint64(h.Number.Uint64()),
		Hash:             block.Hash().String(),
		ParentHash:       h.ParentHash.String(),
		Sha3Uncles:       h.OmmersHash.String(),
		Miner:            h.Beneficiary.String(),
		StateRoot:        h.StateRoot.String(),
		TransactionsRoot: h.TransactionsRoot.String(),
		ReceiptsRoot:     h.ReceiptsRoot.String(),
		LogsBloom:        h.LogsBloom.String(),
		Difficulty:       "0x" + h.Difficulty.Text(16),
		GasLimit:         hexutilUint64(h.GasLimit),
		GasUsed:          hexutilUint64(h.GasUsed),
		Timestamp:        hexutilUint64(h.Timestamp),
		ExtraData:        bytesToHexData(h.ExtraData),
		MixHash:          h.MixHash.String(),
		Nonce:            bytesToHexData(h.Nonce[:]),
		Transactions:     txs,
		Uncles:           uncles,
	}
}
