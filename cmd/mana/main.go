// Copyright 2024 The mana-sub006 Authors
// This file is part of mana-sub006, licensed LGPLv3-or-later.

// Command mana drives the p2p/eth63 sync path: it dials a fixed set of
// peers (discovery is out of scope), performs the devp2p and eth/63
// handshakes, and fetches blocks batch by batch, while serving the same
// JSON-RPC surface cmd/sync does.
package main

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mana-ethereum/mana-sub006/common"
	"github.com/mana-ethereum/mana-sub006/crypto"
	"github.com/mana-ethereum/mana-sub006/eth/protocols/eth"
	"github.com/mana-ethereum/mana-sub006/kv"
	"github.com/mana-ethereum/mana-sub006/log"
	"github.com/mana-ethereum/mana-sub006/p2p"
	"github.com/mana-ethereum/mana-sub006/params"
	"github.com/mana-ethereum/mana-sub006/rpc"
	"github.com/mana-ethereum/mana-sub006/syncer"
)

const (
	fetchBatchSize      = 192
	dialTimeout         = 10 * time.Second
	clientID            = "mana/v0.6.0"
	wireProtocolVersion = 5
)

var (
	chainFlag = &cli.StringFlag{
		Name:  "chain",
		Usage: "chain configuration to validate against (mainnet, frontier)",
		Value: "mainnet",
	}
	chainConfigFlag = &cli.StringFlag{
		Name:  "chain-config",
		Usage: "path to a TOML chain spec, overriding --chain with a custom fork schedule",
	}
	bootnodesFlag = &cli.StringFlag{
		Name:  "bootnodes",
		Usage: "comma-separated enode:// URLs of peers to dial",
	}
	noDiscoveryFlag = &cli.BoolFlag{
		Name:  "no-discovery",
		Usage: "accepted for CLI-surface compatibility; peer discovery is never performed",
	}
	noSyncFlag = &cli.BoolFlag{
		Name:  "no-sync",
		Usage: "connect to peers and serve RPC, but do not fetch blocks",
	}
	rpcAddrFlag = &cli.StringFlag{
		Name:  "rpc-addr",
		Usage: "address this node's own JSON-RPC server listens on",
		Value: "127.0.0.1:8646",
	}
	debugFlag = &cli.BoolFlag{
		Name:  "debug",
		Usage: "enable debug-level logging",
	}
)

func chainConfig(name string) (*params.ChainConfig, error) {
	switch name {
	case "mainnet":
		return params.MainnetChainConfig, nil
	case "frontier":
		return params.FrontierChainConfig, nil
	default:
		return nil, fmt.Errorf("unknown --chain %q", name)
	}
}

// resolveChainConfig prefers an explicit --chain-config TOML spec over the
// built-in --chain name, for deployments against a fork schedule other than
// mainnet or frontier.
func resolveChainConfig(c *cli.Context) (*params.ChainConfig, error) {
	if path := c.String(chainConfigFlag.Name); path != "" {
		return params.LoadChainConfig(path)
	}
	return chainConfig(c.String(chainFlag.Name))
}

// peerCount is the live-connection counter rpc.API's net_peerCount reads.
type peerCount struct{ n int64 }

func (p *peerCount) PeerCount() int { return int(atomic.LoadInt64(&p.n)) }
func (p *peerCount) inc()           { atomic.AddInt64(&p.n, 1) }
func (p *peerCount) dec()           { atomic.AddInt64(&p.n, -1) }

func run(c *cli.Context) error {
	if c.Bool(debugFlag.Name) {
		log.SetRoot(log.NewWithLevel(log.LvlDebug))
	}
	logger := log.New("cmd", "mana")

	config, err := resolveChainConfig(c)
	if err != nil {
		return err
	}
	nodes, err := parseBootnodes(c.String(bootnodesFlag.Name))
	if err != nil {
		return err
	}
	if c.Bool(noDiscoveryFlag.Name) {
		logger.Debug("--no-discovery acknowledged; discovery was never implemented")
	}

	db := kv.NewMemDB()
	store := syncer.NewChainStore(db)
	loop := syncer.NewLoop(config, store, db)
	peers := &peerCount{}

	api := rpc.NewAPI(store, peers, db, config.ChainID.Uint64(), func() (bool, uint64, uint64) {
		head := store.CurrentHeader()
		current := uint64(0)
		if head != nil {
			current = head.Number.Uint64()
		}
		return !c.Bool(noSyncFlag.Name), current, current
	})
	server := rpc.NewServer()
	api.Register(server)

	addr := c.String(rpcAddrFlag.Name)
	go func() {
		logger.Info("rpc server listening", "addr", addr)
		if err := http.ListenAndServe(addr, server); err != nil {
			logger.Error("rpc server stopped", "err", err)
		}
	}()

	privateKey, err := crypto.GenerateKey()
	if err != nil {
		return fmt.Errorf("cmd/mana: generating node key: %w", err)
	}

	for _, node := range nodes {
		peer, err := dial(node, privateKey, logger)
		if err != nil {
			logger.Warn("dial failed", "addr", node.addr, "err", err)
			continue
		}
		peers.inc()
		go func(peer *p2p.Peer) {
			defer peers.dec()
			if err := peer.Run(); err != nil {
				logger.Debug("peer session ended", "err", err)
			}
		}(peer)

		genesisHash := genesisHashOf(store)
		peerSync := syncer.NewPeerSync(peer, loop, config.ChainID.Uint64(), genesisHash)
		if _, err := peerSync.Handshake(); err != nil {
			logger.Warn("eth handshake failed", "addr", node.addr, "err", err)
			_ = peer.Disconnect(p2p.DiscProtocolError)
			continue
		}

		if c.Bool(noSyncFlag.Name) {
			continue
		}
		if err := driveSync(peerSync, store, logger); err != nil {
			logger.Error("sync from peer failed", "addr", node.addr, "err", err)
		}
	}

	logger.Info("mana running", "rpc", addr, "peers", peers.PeerCount())
	abort := make(chan os.Signal, 1)
	signal.Notify(abort, os.Interrupt)
	sig := <-abort
	logger.Info("shutting down", "signal", sig)
	return nil
}

// driveSync repeatedly calls FetchBatch until a round makes no forward
// progress, meaning the peer has no more blocks to offer right now.
func driveSync(peerSync *syncer.PeerSync, store *syncer.ChainStore, logger log.Logger) error {
	next := uint64(0)
	if head := store.CurrentHeader(); head != nil {
		next = head.Number.Uint64() + 1
	}
	for {
		got, err := peerSync.FetchBatch(next, fetchBatchSize)
		if err != nil {
			return err
		}
		if got == next {
			logger.Info("caught up with peer", "next", next)
			return nil
		}
		next = got
	}
}

func genesisHashOf(store *syncer.ChainStore) common.Hash {
	if header, ok := store.HeaderByNumber(0); ok {
		return header.Hash()
	}
	return common.Hash{}
}

// dial opens a TCP connection to node, runs the ECIES handshake as
// initiator, and completes the devp2p Hello exchange advertising the
// eth/63 capability.
func dial(node *bootnode, priv *ecdsa.PrivateKey, logger log.Logger) (*p2p.Peer, error) {
	conn, err := net.DialTimeout("tcp", node.addr, dialTimeout)
	if err != nil {
		return nil, err
	}
	secrets, err := p2p.RunInitiator(conn, priv, node.pubkey)
	if err != nil {
		conn.Close()
		return nil, err
	}
	codec, err := p2p.NewFrameCodec(conn, secrets)
	if err != nil {
		conn.Close()
		return nil, err
	}
	local := p2p.Hello{
		ProtocolVersion: wireProtocolVersion,
		ClientID:        clientID,
		Capabilities:    []p2p.Capability{{Name: eth.ProtocolName, Version: eth.ProtocolVersion}},
		ListenPort:      0,
		NodeID:          marshalPub(&priv.PublicKey),
	}
	peer := p2p.NewPeer(conn, codec, local)
	if err := peer.Handshake(); err != nil {
		conn.Close()
		return nil, err
	}
	logger.Info("connected", "addr", node.addr)
	return peer, nil
}

// marshalPub renders pub in the raw 64-byte X||Y form devp2p node IDs use
// (the SEC1 uncompressed-point prefix byte is implied, not included).
func marshalPub(pub *ecdsa.PublicKey) []byte {
	full := elliptic.Marshal(crypto.S256(), pub.X, pub.Y)
	return full[1:]
}

func main() {
	app := &cli.App{
		Name:   "mana",
		Usage:  "connect to peers over devp2p/eth63 and sync the chain",
		Flags:  []cli.Flag{chainFlag, chainConfigFlag, bootnodesFlag, noDiscoveryFlag, noSyncFlag, rpcAddrFlag, debugFlag},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		log.Error("mana exiting", "err", err)
		os.Exit(1)
	}
}
