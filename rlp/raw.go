// Copyright 2024 The mana-sub006 Authors
// This file is part of mana-sub006, licensed LGPLv3-or-later.

package rlp

import "errors"

// ErrMalformed is returned for any input that is not a canonical RLP
// encoding: truncated data, a length prefix with a leading zero byte, or a
// length that could have been represented more compactly.
var ErrMalformed = errors.New("rlp: malformed input")

// Kind identifies the shape of the outermost RLP value.
type Kind int

const (
	KindByte Kind = iota
	KindString
	KindList
)

// RawValue is a raw, already-encoded RLP value. Encoding a RawValue copies
// its bytes verbatim; decoding into a RawValue captures the bytes of the
// next value without interpreting them.
type RawValue []byte

// Split returns the kind, content, and remaining bytes of the first value in
// b. It performs only a header parse, not a recursive decode.
func Split(b []byte) (k Kind, content []byte, rest []byte, err error) {
	if len(b) == 0 {
		return 0, nil, nil, ErrMalformed
	}
	switch prefix := b[0]; {
	case prefix < 0x80:
		return KindByte, b[:1], b[1:], nil
	case prefix < 0xb8:
		size := int(prefix - 0x80)
		if len(b) < 1+size {
			return 0, nil, nil, ErrMalformed
		}
		if size == 1 && b[1] < 0x80 {
			return 0, nil, nil, ErrMalformed // should have been single-byte form
		}
		return KindString, b[1 : 1+size], b[1+size:], nil
	case prefix < 0xc0:
		lenOfLen := int(prefix - 0xb7)
		size, tail, err := decodeLength(b[1:], lenOfLen)
		if err != nil {
			return 0, nil, nil, err
		}
		if size < 56 {
			return 0, nil, nil, ErrMalformed // should have used short form
		}
		if len(tail) < size {
			return 0, nil, nil, ErrMalformed
		}
		return KindString, tail[:size], tail[size:], nil
	case prefix < 0xf8:
		size := int(prefix - 0xc0)
		if len(b) < 1+size {
			return 0, nil, nil, ErrMalformed
		}
		return KindList, b[1 : 1+size], b[1+size:], nil
	default:
		lenOfLen := int(prefix - 0xf7)
		size, tail, err := decodeLength(b[1:], lenOfLen)
		if err != nil {
			return 0, nil, nil, err
		}
		if size < 56 {
			return 0, nil, nil, ErrMalformed
		}
		if len(tail) < size {
			return 0, nil, nil, ErrMalformed
		}
		return KindList, tail[:size], tail[size:], nil
	}
}

// decodeLength parses a big-endian length of lenOfLen bytes from b, per the
// "b7+len(len)"/"f7+len(len)" long forms, rejecting leading zero bytes.
func decodeLength(b []byte, lenOfLen int) (size int, rest []byte, err error) {
	if lenOfLen == 0 || lenOfLen > 8 || len(b) < lenOfLen {
		return 0, nil, ErrMalformed
	}
	if b[0] == 0 {
		return 0, nil, ErrMalformed
	}
	var v uint64
	for _, c := range b[:lenOfLen] {
		v = v<<8 | uint64(c)
	}
	if v > 1<<31 {
		return 0, nil, ErrMalformed
	}
	return int(v), b[lenOfLen:], nil
}

// ListIterator walks the items of a list's content bytes (as returned by
// Split for a KindList value) one at a time.
type ListIterator struct {
	remaining []byte
}

func NewListIterator(content []byte) *ListIterator {
	return &ListIterator{remaining: content}
}

func (it *ListIterator) Next() (item []byte, ok bool, err error) {
	if len(it.remaining) == 0 {
		return nil, false, nil
	}
	k, content, rest, err := Split(it.remaining)
	if err != nil {
		return nil, false, err
	}
	it.remaining = rest
	switch k {
	case KindByte, KindString:
		return content, true, nil
	case KindList:
		// Callers of ListIterator want the full raw sub-list encoding
		// (header+content), not just the payload.
		return EncodeListPayload(content), true, nil
	}
	return nil, false, ErrMalformed
}
