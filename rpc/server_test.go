// Copyright 2024 The mana-sub006 Authors
// This file is part of mana-sub006, licensed LGPLv3-or-later.

package rpc

import (
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/mana-ethereum/mana-sub006/common"
	"github.com/mana-ethereum/mana-sub006/core/state"
	"github.com/mana-ethereum/mana-sub006/core/types"
	"github.com/mana-ethereum/mana-sub006/kv"
	"github.com/mana-ethereum/mana-sub006/trie"
)

// fakeChain is a minimal ChainBackend double over an in-memory header/block
// map, standing in for syncer.ChainStore so these tests never touch disk.
type fakeChain struct {
	headers map[common.Hash]*types.Header
	byNum   map[uint64]*types.Header
	blocks  map[common.Hash]*types.Block
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		headers: make(map[common.Hash]*types.Header),
		byNum:   make(map[uint64]*types.Header),
		blocks:  make(map[common.Hash]*types.Block),
	}
}

func (f *fakeChain) add(block *types.Block) {
	h := block.Header.Hash()
	f.headers[h] = block.Header
	f.byNum[block.Header.Number.Uint64()] = block.Header
	f.blocks[h] = block
}

func (f *fakeChain) CurrentHeader() *types.Header {
	var max *types.Header
	for _, h := range f.byNum {
		if max == nil || h.Number.Uint64() > max.Number.Uint64() {
			max = h
		}
	}
	return max
}
func (f *fakeChain) HeaderByHash(hash common.Hash) (*types.Header, bool) {
	h, ok := f.headers[hash]
	return h, ok
}
func (f *fakeChain) HeaderByNumber(number uint64) (*types.Header, bool) {
	h, ok := f.byNum[number]
	return h, ok
}
func (f *fakeChain) Block(hash common.Hash) (*types.Block, bool) {
	b, ok := f.blocks[hash]
	return b, ok
}
func (f *fakeChain) Receipts(hash common.Hash) ([]*types.Receipt, bool) { return nil, false }

type fakePeers struct{ n int }

func (f fakePeers) PeerCount() int { return f.n }

func buildFixture(t *testing.T) (*fakeChain, kv.Store, common.Address) {
	sender := common.BytesToAddress([]byte{0x01})
	db := kv.NewMemDB()
	st := state.New(trie.EmptyRootHash, db)
	require.NoError(t, st.PutAccount(sender, &types.Account{
		Nonce: 7, Balance: uint256.NewInt(12345), StorageRoot: trie.EmptyRootHash, CodeHash: types.EmptyCodeHash,
	}))
	root, err := st.Commit()
	require.NoError(t, err)

	genesis := types.NewBlock(&types.Header{
		Number: big.NewInt(0), Difficulty: big.NewInt(100), GasLimit: 8_000_000,
		StateRoot: root, TransactionsRoot: trie.EmptyRootHash, ReceiptsRoot: trie.EmptyRootHash,
		OmmersHash: types.EmptyOmmersHash,
	}, nil, nil)

	chain := newFakeChain()
	chain.add(genesis)
	return chain, db, sender
}

func call(t *testing.T, server *Server, method string, params string) *Response {
	body := `{"jsonrpc":"2.0","id":1,"method":"` + method + `","params":` + params + `}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return &resp
}

func TestServerDispatchesRegisteredMethod(t *testing.T) {
	server := NewServer()
	server.Register("ping", func(json.RawMessage) (interface{}, error) { return "pong", nil })

	resp := call(t, server, "ping", "[]")
	require.Nil(t, resp.Error)
	require.Equal(t, "pong", resp.Result)
}

func TestServerReturnsMethodNotFound(t *testing.T) {
	server := NewServer()
	resp := call(t, server, "nope", "[]")
	require.NotNil(t, resp.Error)
	require.Equal(t, ErrCodeMethodNotFound, resp.Error.Code)
}

func TestAPIEthGetBalance(t *testing.T) {
	chain, db, sender := buildFixture(t)
	api := NewAPI(chain, fakePeers{0}, db, 1, nil)
	server := NewServer()
	api.Register(server)

	params, err := json.Marshal([]string{sender.String(), "latest"})
	require.NoError(t, err)
	resp := call(t, server, "eth_getBalance", string(params))
	require.Nil(t, resp.Error)
	require.Equal(t, "0x3039", resp.Result)
}

func TestAPIEthBlockNumber(t *testing.T) {
	chain, db, _ := buildFixture(t)
	api := NewAPI(chain, fakePeers{0}, db, 1, nil)
	server := NewServer()
	api.Register(server)

	resp := call(t, server, "eth_blockNumber", "[]")
	require.Nil(t, resp.Error)
	require.Equal(t, "0x0", resp.Result)
}

func TestAPIEthGetBlockByNumberNotFullTxs(t *testing.T) {
	chain, db, _ := buildFixture(t)
	api := NewAPI(chain, fakePeers{0}, db, 1, nil)
	server := NewServer()
	api.Register(server)

	params, err := json.Marshal([]interface{}{"0x0", false})
	require.NoError(t, err)
	resp := call(t, server, "eth_getBlockByNumber", string(params))
	require.Nil(t, resp.Error)
	require.NotNil(t, resp.Result)
}

func TestAPIEthSyncingDefaultsFalse(t *testing.T) {
	chain, db, _ := buildFixture(t)
	api := NewAPI(chain, fakePeers{0}, db, 1, nil)
	server := NewServer()
	api.Register(server)

	resp := call(t, server, "eth_syncing", "[]")
	require.Nil(t, resp.Error)
	require.Equal(t, false, resp.Result)
}
