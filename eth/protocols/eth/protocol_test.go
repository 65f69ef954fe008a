// Copyright 2024 The mana-sub006 Authors
// This file is part of mana-sub006, licensed LGPLv3-or-later.

package eth

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mana-ethereum/mana-sub006/common"
	"github.com/mana-ethereum/mana-sub006/rlp"
)

func TestHashOrNumberRoundTripHash(t *testing.T) {
	want := HashOrNumber{Hash: common.BytesToHash([]byte{1, 2, 3})}
	enc, err := rlp.EncodeToBytes(&want)
	require.NoError(t, err)

	var got HashOrNumber
	require.NoError(t, rlp.DecodeBytes(enc, &got))
	require.Equal(t, want.Hash, got.Hash)
	require.Equal(t, uint64(0), got.Number)
}

func TestHashOrNumberRoundTripNumber(t *testing.T) {
	want := HashOrNumber{Number: 1_234_567}
	enc, err := rlp.EncodeToBytes(&want)
	require.NoError(t, err)

	var got HashOrNumber
	require.NoError(t, rlp.DecodeBytes(enc, &got))
	require.Equal(t, uint64(1_234_567), got.Number)
	require.Equal(t, common.Hash{}, got.Hash)
}

func TestGetBlockHeadersRequestRoundTrip(t *testing.T) {
	want := GetBlockHeadersRequest{
		Origin:  HashOrNumber{Number: 100},
		Amount:  192,
		Skip:    0,
		Reverse: true,
	}
	enc, err := rlp.EncodeToBytes(&want)
	require.NoError(t, err)

	var got GetBlockHeadersRequest
	require.NoError(t, rlp.DecodeBytes(enc, &got))
	require.Equal(t, want, got)
}

func TestValidateStatusAccepts(t *testing.T) {
	genesis := common.BytesToHash([]byte{0xaa})
	local := Status{ProtocolVersion: ProtocolVersion, NetworkID: 1, TotalDifficulty: big.NewInt(100), GenesisHash: genesis}
	remote := Status{ProtocolVersion: ProtocolVersion, NetworkID: 1, TotalDifficulty: big.NewInt(200), GenesisHash: genesis}
	require.NoError(t, validateStatus(local, remote))
}

func TestValidateStatusRejectsGenesisMismatch(t *testing.T) {
	local := Status{NetworkID: 1, GenesisHash: common.BytesToHash([]byte{0xaa})}
	remote := Status{NetworkID: 1, GenesisHash: common.BytesToHash([]byte{0xbb})}
	require.ErrorIs(t, validateStatus(local, remote), ErrGenesisMismatch)
}

func TestValidateStatusRejectsNetworkMismatch(t *testing.T) {
	genesis := common.BytesToHash([]byte{0xaa})
	local := Status{NetworkID: 1, GenesisHash: genesis}
	remote := Status{NetworkID: 2, GenesisHash: genesis}
	require.ErrorIs(t, validateStatus(local, remote), ErrNetworkMismatch)
}
