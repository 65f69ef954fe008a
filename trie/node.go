// Copyright 2024 The mana-sub006 Authors
// This file is part of mana-sub006, licensed LGPLv3-or-later.

package trie

import (
	"fmt"

	"github.com/mana-ethereum/mana-sub006/crypto"
	"github.com/mana-ethereum/mana-sub006/rlp"
)

// Node is the tagged variant of §3: a leaf, an extension, or a branch. It is
// implemented as a small closed set of Go types rather than an interface
// hierarchy with behaviour, matching the "explicit trait with a handful of
// operations" style the spec calls for in §9.
type Node interface {
	fstring(ind string) string
}

// shortNode represents both a leaf (Val is a valueNode) and an extension
// (Val is a hashNode, fullNode, or another shortNode) distinguished by
// hasTerm(Key).
type shortNode struct {
	Key []byte // hex-encoded nibble path, with trailing terminator sentinel for leaves
	Val Node
}

// fullNode is a 16-ary branch plus an optional value at index 16.
type fullNode struct {
	Children [17]Node
}

// hashNode is an unresolved reference: the Keccak-256 of a child's RLP
// encoding, stored as the key under which the child lives in the backing
// store.
type hashNode []byte

// valueNode is a terminal leaf value.
type valueNode []byte

func (n *shortNode) fstring(ind string) string {
	return fmt.Sprintf("{%x: %v} ", n.Key, n.Val.fstring(ind+"  "))
}
func (n *fullNode) fstring(ind string) string {
	return fmt.Sprintf("[%v]", ind)
}
func (n hashNode) fstring(ind string) string  { return fmt.Sprintf("<%x>", []byte(n)) }
func (n valueNode) fstring(ind string) string { return fmt.Sprintf("%x", []byte(n)) }

// EmptyRootHash is the root hash of the empty trie, Keccak(RLP("")), fixed
// by §4.C.
var EmptyRootHash = crypto.Keccak256Hash(rlp.EncodeBytes(nil))

// childReference encodes child into either its raw RLP bytes (if the
// encoding is under 32 bytes, it is embedded inline per §3) or its
// Keccak-256 hash, persisting the node under that hash in store if store is
// non-nil.
func childReference(child Node, store nodeWriter) (rlp.RawValue, error) {
	if child == nil {
		return rlp.RawValue(rlp.EncodeBytes(nil)), nil
	}
	if hn, ok := child.(hashNode); ok {
		return rlp.RawValue(rlp.EncodeBytes(hn)), nil
	}
	enc, err := encodeNode(child, store)
	if err != nil {
		return nil, err
	}
	if len(enc) < 32 {
		return rlp.RawValue(enc), nil
	}
	hash := crypto.Keccak256(enc)
	if store != nil {
		if err := store.putNode(hash, enc); err != nil {
			return nil, err
		}
	}
	return rlp.RawValue(rlp.EncodeBytes(hash)), nil
}

type nodeWriter interface {
	putNode(hash, enc []byte) error
}

// encodeNode returns the canonical RLP encoding of n (a list of 2 items for
// a shortNode, 17 for a fullNode).
func encodeNode(n Node, store nodeWriter) ([]byte, error) {
	switch n := n.(type) {
	case nil:
		return rlp.EncodeBytes(nil), nil
	case valueNode:
		return rlp.EncodeBytes(n), nil
	case hashNode:
		return rlp.EncodeBytes(n), nil
	case *shortNode:
		keyEnc := rlp.EncodeBytes(hexToCompact(n.Key))
		var valEnc []byte
		var err error
		if hasTerm(n.Key) {
			// leaf: value is a raw byte string, not a child reference
			vn, _ := n.Val.(valueNode)
			valEnc = rlp.EncodeBytes(vn)
		} else {
			valEnc, err = childReference(n.Val, store)
			if err != nil {
				return nil, err
			}
		}
		return rlp.EncodeListPayload(append(append([]byte{}, keyEnc...), valEnc...)), nil
	case *fullNode:
		var payload []byte
		for i := 0; i < 16; i++ {
			ref, err := childReference(n.Children[i], store)
			if err != nil {
				return nil, err
			}
			payload = append(payload, ref...)
		}
		if n.Children[16] == nil {
			payload = append(payload, rlp.EncodeBytes(nil)...)
		} else {
			vn, _ := n.Children[16].(valueNode)
			payload = append(payload, rlp.EncodeBytes(vn)...)
		}
		return rlp.EncodeListPayload(payload), nil
	default:
		return nil, fmt.Errorf("trie: unknown node type %T", n)
	}
}

// decodeNode parses the RLP encoding enc (as read from the backing store
// under key hash) into a Node. Child references remain as hashNode (or, for
// small inline children, are recursively decoded) until resolved by the
// trie's own lookup logic.
func decodeNode(hash, enc []byte) (Node, error) {
	if len(enc) == 0 {
		return nil, ErrCorrupt
	}
	k, content, rest, err := rlp.Split(enc)
	if err != nil || k != rlp.KindList || len(rest) != 0 {
		return nil, fmt.Errorf("%w: node is not a list", ErrCorrupt)
	}
	items, err := splitList(content)
	if err != nil {
		return nil, err
	}
	switch len(items) {
	case 2:
		return decodeShort(hash, items[0], items[1])
	case 17:
		return decodeFull(hash, items)
	default:
		return nil, fmt.Errorf("%w: invalid number of list elements %d", ErrCorrupt, len(items))
	}
}

func decodeShort(hash, keyBuf, valBuf []byte) (Node, error) {
	var key []byte
	if err := rlp.DecodeBytes(keyBuf, &key); err != nil {
		return nil, fmt.Errorf("%w: invalid key: %v", ErrCorrupt, err)
	}
	nibbles := compactToHex(key)
	if hasTerm(nibbles) {
		var val []byte
		if err := rlp.DecodeBytes(valBuf, &val); err != nil {
			return nil, fmt.Errorf("%w: invalid leaf value: %v", ErrCorrupt, err)
		}
		return &shortNode{Key: nibbles, Val: valueNode(val)}, nil
	}
	child, err := decodeRef(valBuf)
	if err != nil {
		return nil, err
	}
	return &shortNode{Key: nibbles, Val: child}, nil
}

func decodeFull(hash []byte, items [][]byte) (Node, error) {
	n := &fullNode{}
	for i := 0; i < 16; i++ {
		child, err := decodeRef(items[i])
		if err != nil {
			return nil, err
		}
		n.Children[i] = child
	}
	var val []byte
	if err := rlp.DecodeBytes(items[16], &val); err != nil {
		return nil, fmt.Errorf("%w: invalid branch value: %v", ErrCorrupt, err)
	}
	if len(val) > 0 {
		n.Children[16] = valueNode(val)
	}
	return n, nil
}

// decodeRef interprets a single encoded list item as a child reference: an
// empty string (nil), a 32-byte hash, or a fully inlined node.
func decodeRef(buf []byte) (Node, error) {
	k, content, rest, err := rlp.Split(buf)
	if err != nil || len(rest) != 0 {
		return nil, fmt.Errorf("%w: invalid child reference", ErrCorrupt)
	}
	switch {
	case k == rlp.KindList:
		// inlined node (its full encoding was embedded because it was
		// shorter than 32 bytes)
		if len(buf) >= 32 {
			return nil, fmt.Errorf("%w: oversized inline node", ErrCorrupt)
		}
		return decodeNode(nil, buf)
	case len(content) == 0:
		return nil, nil
	case len(content) == 32:
		return hashNode(content), nil
	default:
		return nil, fmt.Errorf("%w: invalid reference length %d", ErrCorrupt, len(content))
	}
}

// splitList decomposes the content bytes of a list into the raw (header+
// content) encodings of each item.
func splitList(content []byte) ([][]byte, error) {
	var items [][]byte
	remaining := content
	for len(remaining) > 0 {
		_, _, rest, err := rlp.Split(remaining)
		if err != nil {
			return nil, err
		}
		itemLen := len(remaining) - len(rest)
		items = append(items, remaining[:itemLen])
		remaining = rest
	}
	return items, nil
}
