// Copyright 2024 The mana-sub006 Authors
// This file is part of mana-sub006, licensed LGPLv3-or-later.

package syncer

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mana-ethereum/mana-sub006/core/types"
)

func TestPendingBufferOrdersOutOfArrivalBlocks(t *testing.T) {
	buf := NewPendingBuffer()

	block2 := types.NewBlock(&types.Header{Number: big.NewInt(2)}, nil, nil)
	block1 := types.NewBlock(&types.Header{Number: big.NewInt(1)}, nil, nil)
	block0 := types.NewBlock(&types.Header{Number: big.NewInt(0)}, nil, nil)

	buf.Add(block2)
	buf.Add(block1)
	require.Equal(t, 2, buf.Len())

	_, ok := buf.PopReady(0)
	require.False(t, ok)

	buf.Add(block0)
	got0, ok := buf.PopReady(0)
	require.True(t, ok)
	require.Equal(t, block0, got0)

	got1, ok := buf.PopReady(1)
	require.True(t, ok)
	require.Equal(t, block1, got1)

	got2, ok := buf.PopReady(2)
	require.True(t, ok)
	require.Equal(t, block2, got2)

	require.Equal(t, 0, buf.Len())
}
