// Copyright 2024 The mana-sub006 Authors
// This file is part of mana-sub006, licensed LGPLv3-or-later.

package rpc

import (
	"encoding/json"
	"fmt"

	"github.com/mana-ethereum/mana-sub006/common"
	"github.com/mana-ethereum/mana-sub006/core/state"
	"github.com/mana-ethereum/mana-sub006/core/types"
	"github.com/mana-ethereum/mana-sub006/crypto"
	"github.com/mana-ethereum/mana-sub006/kv"
)

const clientVersion = "mana/v0.6.0"

// ChainBackend is the slice of syncer.ChainStore the RPC surface reads
// from, kept as an interface so handler tests can fake it without a real
// kv-backed store.
type ChainBackend interface {
	CurrentHeader() *types.Header
	HeaderByHash(hash common.Hash) (*types.Header, bool)
	HeaderByNumber(number uint64) (*types.Header, bool)
	Block(hash common.Hash) (*types.Block, bool)
	Receipts(hash common.Hash) ([]*types.Receipt, bool)
}

// PeerCounter reports how many p2p peers are currently connected, answered
// by cmd/mana's peer set; cmd/sync (no peers) wires a backend that always
// reports zero.
type PeerCounter interface {
	PeerCount() int
}

// API wires the method handlers enumerated in §6 to a chain backend, a
// peer counter, and the kv store backing account/storage/code lookups.
// Register installs every method on server.
type API struct {
	chain     ChainBackend
	peers     PeerCounter
	store     kv.Store
	networkID uint64
	syncing   func() (bool, uint64, uint64)
}

// NewAPI constructs the method set. syncing reports (isSyncing,
// currentBlock, highestBlock) for eth_syncing; pass nil to always answer
// "not syncing".
func NewAPI(chain ChainBackend, peers PeerCounter, store kv.Store, networkID uint64, syncing func() (bool, uint64, uint64)) *API {
	return &API{chain: chain, peers: peers, store: store, networkID: networkID, syncing: syncing}
}

// Register installs every §6 method onto server.
func (a *API) Register(server *Server) {
	server.Register("web3_clientVersion", a.web3ClientVersion)
	server.Register("web3_sha3", a.web3Sha3)
	server.Register("net_version", a.netVersion)
	server.Register("net_listening", a.netListening)
	server.Register("net_peerCount", a.netPeerCount)
	server.Register("eth_blockNumber", a.ethBlockNumber)
	server.Register("eth_getBalance", a.ethGetBalance)
	server.Register("eth_getStorageAt", a.ethGetStorageAt)
	server.Register("eth_getTransactionCount", a.ethGetTransactionCount)
	server.Register("eth_getBlockByHash", a.ethGetBlockByHash)
	server.Register("eth_getBlockByNumber", a.ethGetBlockByNumber)
	server.Register("eth_getTransactionByHash", a.ethGetTransactionByHash)
	server.Register("eth_getTransactionReceipt", a.ethGetTransactionReceipt)
	server.Register("eth_getCode", a.ethGetCode)
	server.Register("eth_syncing", a.ethSyncing)
}

func invalidParams(msg string) *Error { return &Error{Code: ErrCodeInvalidParams, Message: msg} }

func (a *API) web3ClientVersion(params json.RawMessage) (interface{}, error) {
	return clientVersion, nil
}

func (a *API) web3Sha3(params json.RawMessage) (interface{}, error) {
	var args [1]string
	if err := json.Unmarshal(params, &args); err != nil {
		return nil, invalidParams("expected [data]")
	}
	data, err := common.Hex(args[0])
	if err != nil {
		return nil, invalidParams("data must be 0x-prefixed hex")
	}
	return crypto.Keccak256Hash(data).String(), nil
}

func (a *API) netVersion(params json.RawMessage) (interface{}, error) {
	return fmt.Sprintf("%d", a.networkID), nil
}

func (a *API) netListening(params json.RawMessage) (interface{}, error) {
	return true, nil
}

func (a *API) netPeerCount(params json.RawMessage) (interface{}, error) {
	count := 0
	if a.peers != nil {
		count = a.peers.PeerCount()
	}
	return hexutilUint64(uint64(count)), nil
}

func (a *API) ethBlockNumber(params json.RawMessage) (interface{}, error) {
	head := a.chain.CurrentHeader()
	if head == nil {
		return hexutilUint64(0), nil
	}
	return hexutilUint64(head.Number.Uint64()), nil
}

// blockParam decodes the second argument accepted throughout §6's balance
// and storage calls: a block number (hex quantity) or the tags "latest" /
// "earliest" / "pending". "pending" is answered as "latest": this node has
// no mempool to speculate over.
func (a *API) blockParam(tag string) (*types.Header, error) {
	switch tag {
	case "", "latest", "pending":
		head := a.chain.CurrentHeader()
		if head == nil {
			return nil, fmt.Errorf("rpc: no chain data yet")
		}
		return head, nil
	case "earliest":
		header, ok := a.chain.HeaderByNumber(0)
		if !ok {
			return nil, fmt.Errorf("rpc: no genesis yet")
		}
		return header, nil
	default:
		number, err := parseQuantity(tag)
		if err != nil {
			return nil, invalidParams("invalid block parameter")
		}
		header, ok := a.chain.HeaderByNumber(number)
		if !ok {
			return nil, fmt.Errorf("rpc: unknown block %s", tag)
		}
		return header, nil
	}
}

func (a *API) ethGetBalance(params json.RawMessage) (interface{}, error) {
	var args [2]string
	if err := decodeAtLeast(params, args[:1], &args); err != nil {
		return nil, invalidParams("expected [address, blockParameter]")
	}
	addr, err := parseAddress(args[0])
	if err != nil {
		return nil, invalidParams("invalid address")
	}
	header, err := a.blockParam(args[1])
	if err != nil {
		return nil, err
	}
	st := state.New(header.StateRoot, a.store)
	acc, err := st.Account(addr)
	if err != nil {
		return nil, &Error{Code: ErrCodeInternal, Message: err.Error()}
	}
	if acc == nil {
		return "0x0", nil
	}
	return hexQuantity(acc.Balance), nil
}

func (a *API) ethGetStorageAt(params json.RawMessage) (interface{}, error) {
	var args [3]string
	if err := decodeAtLeast(params, args[:2], &args); err != nil {
		return nil, invalidParams("expected [address, position, blockParameter]")
	}
	addr, err := parseAddress(args[0])
	if err != nil {
		return nil, invalidParams("invalid address")
	}
	posBytes, err := common.Hex(args[1])
	if err != nil {
		return nil, invalidParams("invalid storage position")
	}
	header, err := a.blockParam(args[2])
	if err != nil {
		return nil, err
	}
	st := state.New(header.StateRoot, a.store)
	value, err := st.Storage(addr, common.BytesToHash(posBytes))
	if err != nil {
		return nil, &Error{Code: ErrCodeInternal, Message: err.Error()}
	}
	return hexQuantity(value), nil
}

func (a *API) ethGetTransactionCount(params json.RawMessage) (interface{}, error) {
	var args [2]string
	if err := decodeAtLeast(params, args[:1], &args); err != nil {
		return nil, invalidParams("expected [address, blockParameter]")
	}
	addr, err := parseAddress(args[0])
	if err != nil {
		return nil, invalidParams("invalid address")
	}
	header, err := a.blockParam(args[1])
	if err != nil {
		return nil, err
	}
	st := state.New(header.StateRoot, a.store)
	acc, err := st.Account(addr)
	if err != nil {
		return nil, &Error{Code: ErrCodeInternal, Message: err.Error()}
	}
	if acc == nil {
		return hexutilUint64(0), nil
	}
	return hexutilUint64(acc.Nonce), nil
}

func (a *API) ethGetCode(params json.RawMessage) (interface{}, error) {
	var args [2]string
	if err := decodeAtLeast(params, args[:1], &args); err != nil {
		return nil, invalidParams("expected [address, blockParameter]")
	}
	addr, err := parseAddress(args[0])
	if err != nil {
		return nil, invalidParams("invalid address")
	}
	header, err := a.blockParam(args[1])
	if err != nil {
		return nil, err
	}
	st := state.New(header.StateRoot, a.store)
	code, err := st.Code(addr)
	if err != nil {
		return nil, &Error{Code: ErrCodeInternal, Message: err.Error()}
	}
	return bytesToHexData(code), nil
}

func (a *API) ethGetBlockByHash(params json.RawMessage) (interface{}, error) {
	var raw [2]json.RawMessage
	if err := json.Unmarshal(params, &raw); err != nil || len(raw) != 2 {
		return nil, invalidParams("expected [blockHash, fullTransactions]")
	}
	var hashArg string
	if err := json.Unmarshal(raw[0], &hashArg); err != nil {
		return nil, invalidParams("invalid block hash")
	}
	var fullTxs bool
	_ = json.Unmarshal(raw[1], &fullTxs)

	hashBytes, err := common.Hex(hashArg)
	if err != nil {
		return nil, invalidParams("invalid block hash")
	}
	block, ok := a.chain.Block(common.BytesToHash(hashBytes))
	if !ok {
		return nil, nil
	}
	return newBlockResult(block, fullTxs), nil
}

func (a *API) ethGetBlockByNumber(params json.RawMessage) (interface{}, error) {
	var raw [2]json.RawMessage
	if err := json.Unmarshal(params, &raw); err != nil || len(raw) != 2 {
		return nil, invalidParams("expected [blockParameter, fullTransactions]")
	}
	var tag string
	if err := json.Unmarshal(raw[0], &tag); err != nil {
		return nil, invalidParams("invalid block parameter")
	}
	var fullTxs bool
	_ = json.Unmarshal(raw[1], &fullTxs)

	header, err := a.blockParam(tag)
	if err != nil {
		return nil, err
	}
	block, ok := a.chain.Block(header.Hash())
	if !ok {
		return nil, nil
	}
	return newBlockResult(block, fullTxs), nil
}

func (a *API) ethGetTransactionByHash(params json.RawMessage) (interface{}, error) {
	return nil, &Error{Code: ErrCodeNotSupported, Message: "transaction index is not maintained; look up by block"}
}

func (a *API) ethGetTransactionReceipt(params json.RawMessage) (interface{}, error) {
	return nil, &Error{Code: ErrCodeNotSupported, Message: "transaction index is not maintained; look up by block"}
}

func (a *API) ethSyncing(params json.RawMessage) (interface{}, error) {
	if a.syncing == nil {
		return false, nil
	}
	isSyncing, current, highest := a.syncing()
	if !isSyncing {
		return false, nil
	}
	return map[string]string{
		"currentBlock": hexutilUint64(current),
		"highestBlock": hexutilUint64(highest),
	}, nil
}

// decodeAtLeast unmarshals params (a JSON array) into full, requiring only
// the first len(required) elements to be present — §6's blockParameter
// arguments are frequently omitted and default to "latest".
func decodeAtLeast(params json.RawMessage, required []string, full interface{}) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(params, &raw); err != nil {
		return err
	}
	if len(raw) < len(required) {
		return fmt.Errorf("rpc: too few parameters")
	}
	switch f := full.(type) {
	case *[2]string:
		for i := range raw {
			if i >= 2 {
				break
			}
			if err := json.Unmarshal(raw[i], &f[i]); err != nil {
				return err
			}
		}
		if len(raw) < 2 {
			f[1] = "latest"
		}
	case *[3]string:
		for i := range raw {
			if i >= 3 {
				break
			}
			if err := json.Unmarshal(raw[i], &f[i]); err != nil {
				return err
			}
		}
		if len(raw) < 3 {
			f[2] = "latest"
		}
	default:
		return fmt.Errorf("rpc: unsupported argument shape")
	}
	return nil
}

func parseAddress(s string) (common.Address, error) {
	b, err := common.Hex(s)
	if err != nil {
		return common.Address{}, err
	}
	return common.BytesToAddress(b), nil
}

func parseQuantity(s string) (uint64, error) {
	b, err := common.Hex(s)
	if err != nil {
		return 0, err
	}
	return bytesToUint64(b), nil
}
