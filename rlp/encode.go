// Copyright 2024 The mana-sub006 Authors
// This file is part of mana-sub006, licensed LGPLv3-or-later.

package rlp

import (
	"bytes"
	"fmt"
	"io"
	"math/big"
	"reflect"

	"github.com/holiman/uint256"
)

// Encoder is implemented by types that know how to RLP-encode themselves,
// mirroring go-ethereum/erigon's rlp.Encoder interface.
type Encoder interface {
	EncodeRLP(io.Writer) error
}

// EncodeToBytes returns the canonical RLP encoding of val.
func EncodeToBytes(val interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, val); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Encode writes the canonical RLP encoding of val to w.
func Encode(w io.Writer, val interface{}) error {
	if enc, ok := val.(Encoder); ok {
		return enc.EncodeRLP(w)
	}
	b, err := encodeValue(reflect.ValueOf(val))
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

func encodeValue(v reflect.Value) ([]byte, error) {
	if !v.IsValid() {
		return EncodeBytes(nil), nil
	}
	if enc, ok := v.Interface().(Encoder); ok {
		var buf bytes.Buffer
		if err := enc.EncodeRLP(&buf); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	if v.CanInterface() {
		if special, err := encodeSpecial(v.Interface()); err == nil && special != nil {
			return special, nil
		}
	}

	switch v.Kind() {
	case reflect.Ptr:
		if v.IsNil() {
			return encodeValue(reflect.Zero(v.Type().Elem()))
		}
		return encodeValue(v.Elem())

	case reflect.String:
		return EncodeBytes([]byte(v.String())), nil

	case reflect.Bool:
		if v.Bool() {
			return []byte{0x01}, nil
		}
		return []byte{0x80}, nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return EncodeUint64(v.Uint()), nil

	case reflect.Slice, reflect.Array:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return EncodeBytes(toBytes(v)), nil
		}
		items := make([][]byte, v.Len())
		for i := 0; i < v.Len(); i++ {
			enc, err := encodeValue(v.Index(i))
			if err != nil {
				return nil, err
			}
			items[i] = enc
		}
		return EncodeListPayload(bytes.Join(items, nil)), nil

	case reflect.Struct:
		n := v.NumField()
		items := make([][]byte, 0, n)
		t := v.Type()
		for i := 0; i < n; i++ {
			if t.Field(i).PkgPath != "" && !t.Field(i).Anonymous {
				continue // unexported
			}
			if tag := t.Field(i).Tag.Get("rlp"); tag == "-" {
				continue
			}
			enc, err := encodeValue(v.Field(i))
			if err != nil {
				return nil, err
			}
			items = append(items, enc)
		}
		return EncodeListPayload(bytes.Join(items, nil)), nil

	case reflect.Interface:
		if special, err := encodeSpecial(v.Interface()); err == nil && special != nil {
			return special, nil
		}
		return encodeValue(v.Elem())

	default:
		if special, err := encodeSpecial(v.Interface()); err == nil && special != nil {
			return special, nil
		}
		return nil, fmt.Errorf("rlp: unsupported type %s", v.Type())
	}
}

// encodeSpecial handles well-known numeric types (big.Int, uint256.Int) that
// don't fit the generic reflection switch because their zero value must
// encode as the empty string, per §4.A ("zero = empty string").
func encodeSpecial(val interface{}) ([]byte, error) {
	switch x := val.(type) {
	case *big.Int:
		if x == nil || x.Sign() == 0 {
			return []byte{0x80}, nil
		}
		if x.Sign() < 0 {
			return nil, fmt.Errorf("rlp: cannot encode negative big.Int")
		}
		return EncodeBytes(x.Bytes()), nil
	case big.Int:
		return encodeSpecial(&x)
	case *uint256.Int:
		if x == nil || x.IsZero() {
			return []byte{0x80}, nil
		}
		return EncodeBytes(x.Bytes()), nil
	case uint256.Int:
		return encodeSpecial(&x)
	case RawValue:
		return []byte(x), nil
	}
	return nil, errNotSpecial
}

var errNotSpecial = fmt.Errorf("rlp: not a special type")

func toBytes(v reflect.Value) []byte {
	if v.Kind() == reflect.Slice {
		return v.Bytes()
	}
	b := make([]byte, v.Len())
	for i := range b {
		b[i] = byte(v.Index(i).Uint())
	}
	return b
}

// EncodeBytes returns the canonical encoding of a byte string.
func EncodeBytes(b []byte) []byte {
	if len(b) == 1 && b[0] < 0x80 {
		return []byte{b[0]}
	}
	return append(lengthPrefix(0x80, 0xb7, len(b)), b...)
}

// EncodeUint64 returns the canonical encoding of a nonnegative integer: the
// minimal big-endian byte string, with zero encoding as the empty string.
func EncodeUint64(i uint64) []byte {
	if i == 0 {
		return []byte{0x80}
	}
	if i < 0x80 {
		return []byte{byte(i)}
	}
	var b [8]byte
	n := 8
	for n > 0 && i > 0 {
		n--
		b[n] = byte(i)
		i >>= 8
	}
	return EncodeBytes(b[n:])
}

// EncodeListPayload wraps an already-concatenated sequence of item encodings
// with a list header.
func EncodeListPayload(payload []byte) []byte {
	return append(lengthPrefix(0xc0, 0xf7, len(payload)), payload...)
}

func lengthPrefix(shortBase, longBase byte, size int) []byte {
	if size < 56 {
		return []byte{shortBase + byte(size)}
	}
	var lenBytes []byte
	n := size
	for n > 0 {
		lenBytes = append([]byte{byte(n)}, lenBytes...)
		n >>= 8
	}
	return append([]byte{longBase + byte(len(lenBytes))}, lenBytes...)
}
