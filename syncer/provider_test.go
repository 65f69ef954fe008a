// Copyright 2024 The mana-sub006 Authors
// This file is part of mana-sub006, licensed LGPLv3-or-later.

package syncer

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mana-ethereum/mana-sub006/common"
)

func TestProviderClientBlockByNumber(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "eth_getBlockByNumber", req.Method)

		block := rpcBlock{
			Number:           "0x2a",
			ParentHash:       common.BytesToHash([]byte{0x11}).String(),
			Sha3Uncles:       common.Hash{}.String(),
			Miner:            common.BytesToAddress([]byte{0x01}).String(),
			StateRoot:        common.Hash{}.String(),
			TransactionsRoot: common.Hash{}.String(),
			ReceiptsRoot:     common.Hash{}.String(),
			LogsBloom:        "0x" + zeros(512),
			Difficulty:       "0x20000",
			GasLimit:         "0x4c4b40",
			GasUsed:          "0x5208",
			Timestamp:        "0x5",
			ExtraData:        "0x",
			MixHash:          common.Hash{}.String(),
			Nonce:            "0x0000000000000000",
			Transactions:     nil,
		}
		resp := rpcResponse{ID: req.ID}
		enc, err := json.Marshal(&block)
		require.NoError(t, err)
		resp.Result = enc
		require.NoError(t, json.NewEncoder(w).Encode(&resp))
	}))
	defer server.Close()

	client := NewProviderClient(server.URL)
	block, err := client.BlockByNumber(42)
	require.NoError(t, err)
	require.Equal(t, uint64(42), block.Number())
	require.Equal(t, uint64(0x4c4b40), block.Header.GasLimit)
}

func TestProviderClientBlockNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		resp := rpcResponse{ID: req.ID, Result: json.RawMessage("null")}
		require.NoError(t, json.NewEncoder(w).Encode(&resp))
	}))
	defer server.Close()

	client := NewProviderClient(server.URL)
	_, err := client.BlockByNumber(1)
	require.ErrorIs(t, err, ErrBlockNotFound)
}

func zeros(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = '0'
	}
	return string(b)
}
