// Copyright 2024 The mana-sub006 Authors
// This file is part of mana-sub006, licensed LGPLv3-or-later.

// Command sync drives the JSON-RPC provider sync path: it fetches blocks
// one at a time from an external full node's eth_getBlockByNumber and
// drives them through the validation/state-transition pipeline, serving
// the result over its own JSON-RPC surface meanwhile.
package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/mana-ethereum/mana-sub006/kv"
	"github.com/mana-ethereum/mana-sub006/log"
	"github.com/mana-ethereum/mana-sub006/params"
	"github.com/mana-ethereum/mana-sub006/rpc"
	"github.com/mana-ethereum/mana-sub006/syncer"
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
	providerURLFlag = &cli.StringFlag{
		Name:     "provider-url",
		Usage:    "JSON-RPC endpoint of the upstream node to sync from",
		Required: true,
	}
	rpcAddrFlag = &cli.StringFlag{
		Name:  "rpc-addr",
		Usage: "address this node's own JSON-RPC server listens on",
		Value: "127.0.0.1:8645",
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

func run(c *cli.Context) error {
	if c.Bool(debugFlag.Name) {
		log.SetRoot(log.NewWithLevel(log.LvlDebug))
	}
	logger := log.New("cmd", "sync")

	config, err := resolveChainConfig(c)
	if err != nil {
		return err
	}

	db := kv.NewMemDB()
	store := syncer.NewChainStore(db)
	loop := syncer.NewLoop(config, store, db)
	client := syncer.NewProviderClient(c.String(providerURLFlag.Name))

	api := rpc.NewAPI(store, nil, db, config.ChainID.Uint64(), func() (bool, uint64, uint64) {
		head := store.CurrentHeader()
		current := uint64(0)
		if head != nil {
			current = head.Number.Uint64()
		}
		return true, current, current
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

	logger.Info("syncing from provider", "url", c.String(providerURLFlag.Name), "chain", c.String(chainFlag.Name))
	if err := loop.SyncFromProvider(client); err != nil {
		return err
	}
	logger.Info("sync finished")
	return nil
}

func main() {
	app := &cli.App{
		Name:   "sync",
		Usage:  "sync a chain from an external JSON-RPC provider",
		Flags:  []cli.Flag{chainFlag, chainConfigFlag, providerURLFlag, rpcAddrFlag, debugFlag},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		log.Error("sync exiting", "err", err)
		os.Exit(1)
	}
}
