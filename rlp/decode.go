// Copyright 2024 The mana-sub006 Authors
// This file is part of mana-sub006, licensed LGPLv3-or-later.

package rlp

import (
	"fmt"
	"math/big"
	"reflect"

	"github.com/holiman/uint256"
)

// Decoder is implemented by types that know how to decode themselves from a
// raw RLP value.
type Decoder interface {
	DecodeRLP(data []byte) error
}

// DecodeBytes parses a canonical RLP encoding fully into val. It returns
// ErrMalformed if data contains trailing bytes after the decoded value, or
// is not canonical.
func DecodeBytes(data []byte, val interface{}) error {
	rest, err := decodeInto(data, reflect.ValueOf(val))
	if err != nil {
		return err
	}
	if len(rest) != 0 {
		return fmt.Errorf("rlp: %w: trailing data after value", ErrMalformed)
	}
	return nil
}

func decodeInto(data []byte, v reflect.Value) (rest []byte, err error) {
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return nil, fmt.Errorf("rlp: decode target must be a non-nil pointer")
	}
	if dec, ok := v.Interface().(Decoder); ok {
		_, content, rest, err := Split(data)
		if err != nil {
			return nil, err
		}
		if err := dec.DecodeRLP(content); err != nil {
			return nil, err
		}
		return rest, nil
	}
	return decodeValue(data, v.Elem())
}

func decodeValue(data []byte, v reflect.Value) (rest []byte, err error) {
	if v.CanAddr() {
		if dec, ok := v.Addr().Interface().(Decoder); ok {
			_, content, rest, err := Split(data)
			if err != nil {
				return nil, err
			}
			return rest, dec.DecodeRLP(content)
		}
		if ok, rest, err := decodeSpecial(data, v); ok {
			return rest, err
		}
	}

	switch v.Kind() {
	case reflect.Ptr:
		if v.IsNil() {
			v.Set(reflect.New(v.Type().Elem()))
		}
		return decodeValue(data, v.Elem())

	case reflect.String:
		_, content, rest, err := Split(data)
		if err != nil {
			return nil, err
		}
		v.SetString(string(content))
		return rest, nil

	case reflect.Bool:
		_, content, rest, err := Split(data)
		if err != nil {
			return nil, err
		}
		switch {
		case len(content) == 0:
			v.SetBool(false)
		case len(content) == 1 && content[0] == 1:
			v.SetBool(true)
		default:
			return nil, fmt.Errorf("rlp: %w: invalid bool", ErrMalformed)
		}
		return rest, nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		_, content, rest, err := Split(data)
		if err != nil {
			return nil, err
		}
		u, err := bytesToUint64(content)
		if err != nil {
			return nil, err
		}
		v.SetUint(u)
		return rest, nil

	case reflect.Slice, reflect.Array:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			k, content, rest, err := Split(data)
			if err != nil {
				return nil, err
			}
			if k == KindList {
				return nil, fmt.Errorf("rlp: %w: expected byte string, got list", ErrMalformed)
			}
			if v.Kind() == reflect.Array {
				if len(content) != v.Len() {
					return nil, fmt.Errorf("rlp: %w: byte array length mismatch", ErrMalformed)
				}
				reflect.Copy(v, reflect.ValueOf(content))
			} else {
				cp := make([]byte, len(content))
				copy(cp, content)
				v.Set(reflect.ValueOf(cp))
			}
			return rest, nil
		}
		k, content, rest, err := Split(data)
		if err != nil {
			return nil, err
		}
		if k != KindList {
			return nil, fmt.Errorf("rlp: %w: expected list", ErrMalformed)
		}
		var items []reflect.Value
		remaining := content
		for len(remaining) > 0 {
			_, itemContent, itemRest, err := Split(remaining)
			if err != nil {
				return nil, err
			}
			elem := reflect.New(v.Type().Elem()).Elem()
			fullItemLen := len(remaining) - len(itemRest)
			if _, err := decodeValue(remaining[:fullItemLen], elem); err != nil {
				return nil, err
			}
			_ = itemContent
			items = append(items, elem)
			remaining = itemRest
		}
		if v.Kind() == reflect.Array {
			if len(items) != v.Len() {
				return nil, fmt.Errorf("rlp: %w: array length mismatch", ErrMalformed)
			}
			for i, it := range items {
				v.Index(i).Set(it)
			}
		} else {
			sl := reflect.MakeSlice(v.Type(), len(items), len(items))
			for i, it := range items {
				sl.Index(i).Set(it)
			}
			v.Set(sl)
		}
		return rest, nil

	case reflect.Struct:
		k, content, rest, err := Split(data)
		if err != nil {
			return nil, err
		}
		if k != KindList {
			return nil, fmt.Errorf("rlp: %w: expected list for struct", ErrMalformed)
		}
		remaining := content
		t := v.Type()
		for i := 0; i < v.NumField(); i++ {
			if t.Field(i).PkgPath != "" && !t.Field(i).Anonymous {
				continue
			}
			if tag := t.Field(i).Tag.Get("rlp"); tag == "-" {
				continue
			}
			if len(remaining) == 0 {
				return nil, fmt.Errorf("rlp: %w: too few list elements for struct %s", ErrMalformed, t.Name())
			}
			_, _, itemRest, err := Split(remaining)
			if err != nil {
				return nil, err
			}
			fullItemLen := len(remaining) - len(itemRest)
			if _, err := decodeValue(remaining[:fullItemLen], v.Field(i)); err != nil {
				return nil, err
			}
			remaining = itemRest
		}
		return rest, nil

	default:
		return nil, fmt.Errorf("rlp: unsupported decode type %s", v.Type())
	}
}

// decodeSpecial handles big.Int and uint256.Int, which must reject
// non-minimal encodings (leading zero bytes) per consensus rules.
func decodeSpecial(data []byte, v reflect.Value) (handled bool, rest []byte, err error) {
	if !v.CanAddr() {
		return false, nil, nil
	}
	switch v.Addr().Interface().(type) {
	case *big.Int:
		_, content, rest, err := Split(data)
		if err != nil {
			return true, nil, err
		}
		if len(content) > 0 && content[0] == 0 {
			return true, nil, fmt.Errorf("rlp: %w: leading zero byte in integer", ErrMalformed)
		}
		v.Addr().Interface().(*big.Int).SetBytes(content)
		return true, rest, nil
	case *uint256.Int:
		_, content, rest, err := Split(data)
		if err != nil {
			return true, nil, err
		}
		if len(content) > 0 && content[0] == 0 {
			return true, nil, fmt.Errorf("rlp: %w: leading zero byte in integer", ErrMalformed)
		}
		if len(content) > 32 {
			return true, nil, fmt.Errorf("rlp: %w: integer too large for uint256", ErrMalformed)
		}
		i := v.Addr().Interface().(*uint256.Int)
		i.SetBytes(content)
		return true, rest, nil
	}
	return false, nil, nil
}

func bytesToUint64(b []byte) (uint64, error) {
	if len(b) > 8 {
		return 0, fmt.Errorf("rlp: %w: integer too large for uint64", ErrMalformed)
	}
	if len(b) > 0 && b[0] == 0 {
		return 0, fmt.Errorf("rlp: %w: leading zero byte in integer", ErrMalformed)
	}
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v, nil
}
