// Copyright 2024 The mana-sub006 Authors
// This file is part of mana-sub006, licensed LGPLv3-or-later.

package rlp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDogString(t *testing.T) {
	enc, err := EncodeToBytes("dog")
	require.NoError(t, err)
	require.Equal(t, []byte{0x83, 0x64, 0x6F, 0x67}, enc)
}

func TestEncodeEmptyString(t *testing.T) {
	enc, err := EncodeToBytes([]byte{})
	require.NoError(t, err)
	require.Equal(t, []byte{0x80}, enc)
}

func TestEncodeEmptyList(t *testing.T) {
	enc := EncodeListPayload(nil)
	require.Equal(t, []byte{0xc0}, enc)
}

func TestEncodeSmallUint(t *testing.T) {
	enc := EncodeUint64(0)
	require.Equal(t, []byte{0x80}, enc)
	enc = EncodeUint64(127)
	require.Equal(t, []byte{0x7f}, enc)
	enc = EncodeUint64(1024)
	require.Equal(t, []byte{0x82, 0x04, 0x00}, enc)
}

func TestRoundTripStruct(t *testing.T) {
	type item struct {
		A uint64
		B []byte
		C string
	}
	in := item{A: 9000, B: []byte{1, 2, 3}, C: "dog"}
	enc, err := EncodeToBytes(in)
	require.NoError(t, err)

	var out item
	require.NoError(t, DecodeBytes(enc, &out))
	require.Equal(t, in, out)

	// Re-encoding a decoded value must be byte-identical to the input.
	enc2, err := EncodeToBytes(out)
	require.NoError(t, err)
	require.Equal(t, enc, enc2)
}

func TestRoundTripNestedList(t *testing.T) {
	in := [][]byte{{1, 2}, {3, 4, 5}, {}}
	enc, err := EncodeToBytes(in)
	require.NoError(t, err)

	var out [][]byte
	require.NoError(t, DecodeBytes(enc, &out))
	require.Equal(t, len(in), len(out))
	for i := range in {
		require.Equal(t, in[i], out[i])
	}
}

func TestDecodeRejectsLeadingZeroLength(t *testing.T) {
	// 0xb8 0x00 is a long-string header whose length byte is a leading zero.
	_, err := Split([]byte{0xb8, 0x00})
	require.Error(t, err)
}

func TestDecodeRejectsTruncated(t *testing.T) {
	var out []byte
	err := DecodeBytes([]byte{0x83, 0x64, 0x6F}, &out)
	require.Error(t, err)
}

func TestDecodeRejectsTrailingBytes(t *testing.T) {
	var out []byte
	err := DecodeBytes([]byte{0x83, 0x64, 0x6F, 0x67, 0xFF}, &out)
	require.Error(t, err)
}
