// Copyright 2024 The mana-sub006 Authors
// This file is part of mana-sub006, licensed LGPLv3-or-later.

package syncer

import (
	"errors"
	"fmt"

	"github.com/VictoriaMetrics/metrics"

	"github.com/mana-ethereum/mana-sub006/core"
	"github.com/mana-ethereum/mana-sub006/core/state"
	"github.com/mana-ethereum/mana-sub006/core/types"
	"github.com/mana-ethereum/mana-sub006/kv"
	"github.com/mana-ethereum/mana-sub006/log"
	"github.com/mana-ethereum/mana-sub006/params"
)

// CheckpointInterval is how often (in committed blocks) the loop logs a
// progress checkpoint. A checkpoint writes nothing itself: ImportBlock
// already writes each block's state and chain entry to the backing store.
const CheckpointInterval = 1000

// ErrNoGenesis is returned when ImportBlock is asked to import a
// non-genesis block before any genesis has been committed.
var ErrNoGenesis = errors.New("syncer: no parent header for block")

// Loop drives blocks fetched from an external source through core's
// validation and state-transition pipeline, committing the result to a
// ChainStore and an IntraBlockState-backed kv.Store.
type Loop struct {
	config    *params.ChainConfig
	store     *ChainStore
	db        kv.Store
	processor *core.StateProcessor
	log       log.Logger

	blocksImported  *metrics.Counter
	gasUsedTotal    *metrics.Counter
	importedGauge   *metrics.Gauge
	sinceCheckpoint int
}

// NewLoop wires a sync loop over store/db for the given chain config.
func NewLoop(config *params.ChainConfig, store *ChainStore, db kv.Store) *Loop {
	processor := core.NewStateProcessor(config)
	processor.SetChain(store)
	l := &Loop{
		config:         config,
		store:          store,
		db:             db,
		processor:      processor,
		log:            log.New("component", "syncer"),
		blocksImported: metrics.NewCounter("mana_syncer_blocks_imported_total"),
		gasUsedTotal:   metrics.NewCounter("mana_syncer_gas_used_total"),
	}
	l.importedGauge = metrics.NewGauge("mana_syncer_current_block", func() float64 {
		head := l.store.CurrentHeader()
		if head == nil {
			return 0
		}
		return float64(head.Number.Uint64())
	})
	return l
}

// ImportGenesis commits block (expected to be number 0) without header
// validation against a parent, seeding the chain.
func (l *Loop) ImportGenesis(block *types.Block) error {
	sdb := state.New(block.Header.StateRoot, l.db)
	receipts, gasUsed, err := l.processor.Process(block, sdb)
	if err != nil {
		return fmt.Errorf("syncer: processing genesis: %w", err)
	}
	if err := core.ValidateBlock(block, sdb, receipts, gasUsed); err != nil {
		return fmt.Errorf("syncer: validating genesis: %w", err)
	}
	if _, err := sdb.Commit(); err != nil {
		return fmt.Errorf("syncer: committing genesis state: %w", err)
	}
	if err := l.store.Commit(block, receipts); err != nil {
		return err
	}
	l.blocksImported.Inc()
	return nil
}

// ImportBlock validates and processes block against its already-committed
// parent, commits the resulting state and chain entry, and checkpoints
// every CheckpointInterval blocks. Per §5's cancellation rule, a failure
// here is never retried silently: the caller must log and stop.
func (l *Loop) ImportBlock(block *types.Block) error {
	parent, ok := l.store.HeaderByHash(block.Header.ParentHash)
	if !ok {
		return ErrNoGenesis
	}
	if err := core.ValidateHeader(l.config, block.Header, parent); err != nil {
		return fmt.Errorf("syncer: header %d invalid: %w", block.Number(), err)
	}
	if err := core.ValidateOmmers(l.config, l.store, block); err != nil {
		return fmt.Errorf("syncer: ommers of block %d invalid: %w", block.Number(), err)
	}

	sdb := state.New(parent.StateRoot, l.db)
	receipts, gasUsed, err := l.processor.Process(block, sdb)
	if err != nil {
		return fmt.Errorf("syncer: processing block %d: %w", block.Number(), err)
	}
	if err := core.ValidateBlock(block, sdb, receipts, gasUsed); err != nil {
		return fmt.Errorf("syncer: validating block %d: %w", block.Number(), err)
	}
	if _, err := sdb.Commit(); err != nil {
		return fmt.Errorf("syncer: committing state for block %d: %w", block.Number(), err)
	}
	if err := l.store.Commit(block, receipts); err != nil {
		return fmt.Errorf("syncer: committing chain entry for block %d: %w", block.Number(), err)
	}

	l.blocksImported.Inc()
	l.gasUsedTotal.Add(int(gasUsed))
	l.sinceCheckpoint++
	if l.sinceCheckpoint >= CheckpointInterval {
		l.checkpoint(block)
	}
	return nil
}

// Checkpoint logs a checkpoint at the current head unconditionally;
// SyncFromProvider calls it when it stops.
func (l *Loop) Checkpoint() {
	if head := l.store.CurrentHeader(); head != nil {
		l.checkpoint(&types.Block{Header: head})
	}
}

func (l *Loop) checkpoint(block *types.Block) {
	l.log.Info("checkpoint", "number", block.Number(), "hash", block.Hash())
	l.sinceCheckpoint = 0
}

// SyncFromProvider walks the chain forward from (CurrentHeader's number +
// 1) by repeatedly fetching the next block from client and importing it,
// stopping cleanly when the provider has no further block yet.
func (l *Loop) SyncFromProvider(client *ProviderClient) error {
	next := uint64(0)
	if head := l.store.CurrentHeader(); head != nil {
		next = head.Number.Uint64() + 1
	}
	for {
		block, err := client.BlockByNumber(next)
		if errors.Is(err, ErrBlockNotFound) {
			l.log.Info("caught up with provider", "next", next)
			l.Checkpoint()
			return nil
		}
		if err != nil {
			l.log.Error("provider fetch failed, halting", "number", next, "err", err)
			l.Checkpoint()
			return err
		}
		if next == 0 {
			if err := l.ImportGenesis(block); err != nil {
				l.log.Error("genesis import failed, halting", "err", err)
				return err
			}
		} else if err := l.ImportBlock(block); err != nil {
			l.log.Error("import failed, halting", "number", next, "err", err)
			return err
		}
		next++
	}
}
