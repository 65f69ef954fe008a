// Copyright 2024 The mana-sub006 Authors
// This file is part of mana-sub006, licensed LGPLv3-or-later.

package params

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadChainConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spec.toml")
	contents := `
chain_id = 1337
homestead_block = 0
byzantium_block = 10
istanbul_block = 20
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := LoadChainConfig(path)
	require.NoError(t, err)
	require.Equal(t, int64(1337), cfg.ChainID.Int64())
	require.Nil(t, cfg.HomesteadBlock) // 0 means unscheduled, not "at genesis"
	require.NotNil(t, cfg.ByzantiumBlock)
	require.Equal(t, int64(10), cfg.ByzantiumBlock.Int64())
	require.True(t, cfg.IsByzantium(cfg.ByzantiumBlock))
	require.False(t, cfg.IsIstanbul(cfg.ByzantiumBlock))
	require.True(t, cfg.IsIstanbul(cfg.IstanbulBlock))
}

func TestLoadChainConfigMissingFile(t *testing.T) {
	_, err := LoadChainConfig(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}
