// Copyright 2024 The mana-sub006 Authors
// This file is part of mana-sub006, licensed LGPLv3-or-later.

package syncer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"

	"github.com/mana-ethereum/mana-sub006/common"
	"github.com/mana-ethereum/mana-sub006/core/types"
)

// ErrProviderRPC wraps a JSON-RPC error object reported by the provider.
var ErrProviderRPC = errors.New("syncer: provider returned an RPC error")

// ErrBlockNotFound is returned when the provider answers a block query
// with a null result (the requested block does not exist there yet).
var ErrBlockNotFound = errors.New("syncer: block not found at provider")

// ProviderClient consumes the JSON-RPC contract named in §6 from an
// external full node (cmd/sync's --provider-url), using eth_getBlockByNumber
// to walk the chain forward one block at a time.
type ProviderClient struct {
	url        string
	httpClient *http.Client
	nextID     int
}

func NewProviderClient(url string) *ProviderClient {
	return &ProviderClient{url: url, httpClient: &http.Client{}, nextID: 1}
}

type rpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      int         `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	ID     int             `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

func (c *ProviderClient) call(method string, params interface{}, out interface{}) error {
	c.nextID++
	body, err := json.Marshal(&rpcRequest{JSONRPC: "2.0", ID: c.nextID, Method: method, Params: params})
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Post(c.url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("syncer: provider request failed: %w", err)
	}
	defer resp.Body.Close()

	var decoded rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return fmt.Errorf("syncer: malformed provider response: %w", err)
	}
	if decoded.Error != nil {
		return fmt.Errorf("%w: %d %s", ErrProviderRPC, decoded.Error.Code, decoded.Error.Message)
	}
	if out == nil || string(decoded.Result) == "null" {
		return nil
	}
	return json.Unmarshal(decoded.Result, out)
}

// rpcBlock is the subset of eth_getBlockByNumber's JSON shape this client
// needs to reconstruct a types.Block for local validation.
type rpcBlock struct {
	Number           string        `json:"number"`
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
	Transactions     []rpcTx       `json:"transactions"`
	Uncles           []string      `json:"uncles"`
}

type rpcTx struct {
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

// BlockByNumber fetches the block at number from the provider, with its
// transactions. Uncle headers are not fetched: the returned block has no
// ommers, and only its header's OmmersHash reflects them.
func (c *ProviderClient) BlockByNumber(number uint64) (*types.Block, error) {
	var raw rpcBlock
	if err := c.call("eth_getBlockByNumber", []interface{}{hexutilUint64(number), true}, &raw); err != nil {
		return nil, err
	}
	if raw.Number == "" {
		return nil, ErrBlockNotFound
	}
	return raw.toBlock()
}

func (b *rpcBlock) toBlock() (*types.Block, error) {
	header := &types.Header{
		ParentHash:       common.BytesToHash(mustHex(b.ParentHash)),
		OmmersHash:       common.BytesToHash(mustHex(b.Sha3Uncles)),
		Beneficiary:      common.BytesToAddress(mustHex(b.Miner)),
		StateRoot:        common.BytesToHash(mustHex(b.StateRoot)),
		TransactionsRoot: common.BytesToHash(mustHex(b.TransactionsRoot)),
		ReceiptsRoot:     common.BytesToHash(mustHex(b.ReceiptsRoot)),
		Difficulty:       new(big.Int).SetBytes(mustHex(b.Difficulty)),
		Number:           new(big.Int).SetBytes(mustHex(b.Number)),
		GasLimit:         bytesToUint64(mustHex(b.GasLimit)),
		GasUsed:          bytesToUint64(mustHex(b.GasUsed)),
		Timestamp:        bytesToUint64(mustHex(b.Timestamp)),
		ExtraData:        mustHex(b.ExtraData),
		MixHash:          common.BytesToHash(mustHex(b.MixHash)),
	}
	copy(header.LogsBloom[:], mustHex(b.LogsBloom))
	copy(header.Nonce[:], mustHex(b.Nonce))

	txs := make([]*types.Transaction, 0, len(b.Transactions))
	for _, t := range b.Transactions {
		tx := &types.Transaction{
			Nonce:    bytesToUint64(mustHex(t.Nonce)),
			GasPrice: new(big.Int).SetBytes(mustHex(t.GasPrice)),
			GasLimit: bytesToUint64(mustHex(t.Gas)),
			Value:    uint256FromBytes(mustHex(t.Value)),
			Data:     mustHex(t.Input),
			V:        new(big.Int).SetBytes(mustHex(t.V)),
			R:        new(big.Int).SetBytes(mustHex(t.R)),
			S:        new(big.Int).SetBytes(mustHex(t.S)),
		}
		if t.To != nil {
			addr := common.BytesToAddress(mustHex(*t.To))
			tx.To = &addr
		}
		txs = append(txs, tx)
	}

	// eth_getBlockByNumber reports only uncle hashes, and the uncle headers
	// are not fetched, so the block is built with no ommers.
	return types.NewBlock(header, txs, nil), nil
}
