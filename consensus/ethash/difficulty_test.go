// Copyright 2024 The mana-sub006 Authors
// This file is part of mana-sub006, licensed LGPLv3-or-later.

package ethash

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenesisDifficulty(t *testing.T) {
	d := CalcDifficulty(false, 0, big.NewInt(0), 0, 0, 0, nil)
	require.Equal(t, big.NewInt(131072), d)
}

func TestPreHomesteadRetarget(t *testing.T) {
	d := CalcDifficulty(false, 0, big.NewInt(1), 65, 0, 55, big.NewInt(131072))
	require.Equal(t, big.NewInt(131136), d)
}

func TestSeedHashEpochZero(t *testing.T) {
	require.Equal(t, make([]byte, 32), SeedHash(0))
}
