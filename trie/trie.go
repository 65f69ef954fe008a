// Copyright 2024 The mana-sub006 Authors
// This file is part of mana-sub006, licensed LGPLv3-or-later.

// Package trie implements §4.C: a persistent authenticated map from byte
// strings to byte strings, rooted at a 32-byte Keccak-256 hash. This is the
// data structure whose root hash is Ethereum's consensus identity — both
// the world state trie and each account's storage trie are instances of
// it.
package trie

import (
	"errors"
	"fmt"

	"github.com/mana-ethereum/mana-sub006/common"
	"github.com/mana-ethereum/mana-sub006/crypto"
	"github.com/mana-ethereum/mana-sub006/kv"
)

// ErrCorrupt is returned when a node referenced by a hash is missing from
// the backing store, or the bytes read back are not a well-formed node.
var ErrCorrupt = errors.New("trie: corrupt or missing node")

// Trie is a mutable handle onto one root of the Merkle-Patricia trie. It is
// not safe for concurrent use; the consensus domain (§5) serializes all
// mutation through a single logical task.
type Trie struct {
	root  Node
	store kv.Store
}

// New opens the trie rooted at root (common.Hash{} for a brand-new empty
// trie). It does not eagerly load the whole tree — nodes are resolved from
// store lazily as paths are walked.
func New(root common.Hash, store kv.Store) (*Trie, error) {
	t := &Trie{store: store}
	if root == (common.Hash{}) || root == EmptyRootHash {
		return t, nil
	}
	t.root = hashNode(root.Bytes())
	return t, nil
}

// Hash returns the current root hash, matching Keccak(RLP(root_node)); the
// empty trie's hash is the fixed EmptyRootHash constant.
func (t *Trie) Hash() common.Hash {
	if t.root == nil {
		return EmptyRootHash
	}
	enc, err := encodeNode(t.root, discardWriter{})
	if err != nil {
		// Every node reachable from t.root was either freshly built by
		// Put/Delete (always encodable) or read back from a prior
		// Commit, so encoding cannot fail here.
		panic(fmt.Sprintf("trie: unreachable encode failure: %v", err))
	}
	return crypto.Keccak256Hash(enc)
}

// discardWriter is used by Hash, which must recompute the root hash without
// re-persisting already-committed nodes.
type discardWriter struct{}

func (discardWriter) putNode(hash, enc []byte) error { return nil }

// Commit flushes every dirty (in-memory, non-hashNode) node reachable from
// the root to the backing store and returns the resulting root hash. Nodes
// already represented as hashNode are assumed already persisted.
func (t *Trie) Commit() (common.Hash, error) {
	if t.root == nil {
		return EmptyRootHash, nil
	}
	w := &storeWriter{store: t.store}
	enc, err := encodeNode(t.root, w)
	if err != nil {
		return common.Hash{}, err
	}
	if err := w.err; err != nil {
		return common.Hash{}, err
	}
	rootHash := crypto.Keccak256Hash(enc)
	if err := t.store.Put(rootHash.Bytes(), enc); err != nil {
		return common.Hash{}, err
	}
	t.root = hashNode(rootHash.Bytes())
	return rootHash, nil
}

type storeWriter struct {
	store kv.Store
	err   error
}

func (w *storeWriter) putNode(hash, enc []byte) error {
	if w.err != nil {
		return w.err
	}
	if err := w.store.Put(hash, enc); err != nil {
		w.err = err
		return err
	}
	return nil
}

// resolve fetches and decodes the node referenced by n if n is an
// unresolved hashNode; otherwise it returns n unchanged.
func (t *Trie) resolve(n Node) (Node, error) {
	hn, ok := n.(hashNode)
	if !ok {
		return n, nil
	}
	enc, found, err := t.store.Get(hn)
	if err != nil {
		return nil, fmt.Errorf("trie: backing store read failed: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("%w: node %x absent from store", ErrCorrupt, []byte(hn))
	}
	return decodeNode(hn, enc)
}

// Get returns the value stored at key, or nil if absent.
func (t *Trie) Get(key []byte) ([]byte, error) {
	val, newRoot, didResolve, err := t.get(t.root, keybytesToHex(key), 0)
	if err != nil {
		return nil, err
	}
	if didResolve {
		t.root = newRoot
	}
	return val, nil
}

func (t *Trie) get(n Node, key []byte, pos int) (value []byte, newNode Node, didResolve bool, err error) {
	switch n := n.(type) {
	case nil:
		return nil, nil, false, nil
	case valueNode:
		return n, n, false, nil
	case *shortNode:
		if len(key)-pos < len(n.Key) || !equalBytes(n.Key, key[pos:pos+len(n.Key)]) {
			return nil, n, false, nil
		}
		value, newNode, didResolve, err = t.get(n.Val, key, pos+len(n.Key))
		if err == nil && didResolve {
			n = &shortNode{Key: n.Key, Val: newNode}
		}
		return value, n, didResolve, err
	case *fullNode:
		value, newNode, didResolve, err = t.get(n.Children[key[pos]], key, pos+1)
		if err == nil && didResolve {
			cp := *n
			cp.Children[key[pos]] = newNode
			n = &cp
		}
		return value, n, didResolve, err
	case hashNode:
		child, err := t.resolve(n)
		if err != nil {
			return nil, n, true, err
		}
		value, newNode, _, err := t.get(child, key, pos)
		return value, newNode, true, err
	default:
		return nil, nil, false, fmt.Errorf("trie: invalid node type %T", n)
	}
}

func equalBytes(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Put inserts or overwrites the value at key.
func (t *Trie) Put(key, value []byte) error {
	if len(value) == 0 {
		return t.Delete(key)
	}
	hex := keybytesToHex(key)
	_, n, err := t.insert(t.root, hex, valueNode(value))
	if err != nil {
		return err
	}
	t.root = n
	return nil
}

func (t *Trie) insert(n Node, key []byte, value Node) (dirty bool, newNode Node, err error) {
	if len(key) == 0 {
		if v, ok := n.(valueNode); ok {
			return !equalBytes(v, value.(valueNode)), value, nil
		}
		return true, value, nil
	}
	switch n := n.(type) {
	case nil:
		return true, &shortNode{Key: append([]byte{}, key...), Val: value}, nil

	case *shortNode:
		matchlen := prefixLen(key, n.Key)
		if matchlen == len(n.Key) {
			dirty, nn, err := t.insert(n.Val, key[matchlen:], value)
			if err != nil {
				return false, n, err
			}
			return dirty, &shortNode{Key: n.Key, Val: nn}, nil
		}
		// Branch out: the existing shortNode's key diverges from the new
		// key after matchlen nibbles.
		branch := &fullNode{}
		var err error
		_, branch.Children[n.Key[matchlen]], err = t.insert(nil, n.Key[matchlen+1:], n.Val)
		if err != nil {
			return false, nil, err
		}
		_, branch.Children[key[matchlen]], err = t.insert(nil, key[matchlen+1:], value)
		if err != nil {
			return false, nil, err
		}
		if matchlen == 0 {
			return true, branch, nil
		}
		return true, &shortNode{Key: append([]byte{}, key[:matchlen]...), Val: branch}, nil

	case *fullNode:
		cp := *n
		dirty, nn, err := t.insert(n.Children[key[0]], key[1:], value)
		if err != nil {
			return false, n, err
		}
		cp.Children[key[0]] = nn
		return dirty, &cp, nil

	case hashNode:
		child, err := t.resolve(n)
		if err != nil {
			return false, n, err
		}
		return t.insert(child, key, value)

	default:
		return false, nil, fmt.Errorf("trie: invalid node type %T in insert", n)
	}
}

// Delete removes key from the trie. Deleting an absent key is a no-op,
// satisfying the §8 round-trip law delete(put(T,k,v),k).root_hash = T.root_hash
// when k was absent from T.
func (t *Trie) Delete(key []byte) error {
	_, n, err := t.delete(t.root, keybytesToHex(key))
	if err != nil {
		return err
	}
	t.root = n
	return nil
}

func (t *Trie) delete(n Node, key []byte) (dirty bool, newNode Node, err error) {
	switch n := n.(type) {
	case nil:
		return false, nil, nil

	case valueNode:
		return true, nil, nil

	case *shortNode:
		matchlen := prefixLen(key, n.Key)
		if matchlen < len(n.Key) {
			return false, n, nil // key not present
		}
		if matchlen == len(key) {
			return true, nil, nil // exact match on a leaf
		}
		dirty, child, err := t.delete(n.Val, key[len(n.Key):])
		if !dirty || err != nil {
			return false, n, err
		}
		switch child := child.(type) {
		case nil:
			return true, nil, nil
		case *shortNode:
			// merge adjacent short nodes
			return true, &shortNode{Key: append(append([]byte{}, n.Key...), child.Key...), Val: child.Val}, nil
		default:
			return true, &shortNode{Key: n.Key, Val: child}, nil
		}

	case *fullNode:
		cp := *n
		dirty, nn, err := t.delete(n.Children[key[0]], key[1:])
		if !dirty || err != nil {
			return false, n, err
		}
		cp.Children[key[0]] = nn

		// Collapse a branch with only one remaining child (and no value)
		// into a shortNode, per §4.C "combine ... single-child branch+child
		// on delete".
		pos := -1
		for i, c := range cp.Children {
			if c != nil {
				if pos != -1 {
					pos = -2
					break
				}
				pos = i
			}
		}
		if pos >= 0 {
			if pos != 16 {
				child, err := t.resolve(cp.Children[pos])
				if err != nil {
					return false, n, err
				}
				if cnode, ok := child.(*shortNode); ok {
					k := append([]byte{byte(pos)}, cnode.Key...)
					return true, &shortNode{Key: k, Val: cnode.Val}, nil
				}
			}
			return true, &shortNode{Key: []byte{byte(pos)}, Val: cp.Children[pos]}, nil
		}
		return true, &cp, nil

	case hashNode:
		child, err := t.resolve(n)
		if err != nil {
			return false, n, err
		}
		return t.delete(child, key)

	default:
		return false, nil, fmt.Errorf("trie: invalid node type %T in delete", n)
	}
}

// --- Package-level functional wrappers matching the spec's Get/Put/Delete
// signatures directly, for callers (and tests) that prefer the
// root-hash-in, root-hash-out style of §4.C over the mutable handle above.

// Get reads the value for key out of the trie rooted at root.
func Get(store kv.Store, root common.Hash, key []byte) ([]byte, error) {
	t, err := New(root, store)
	if err != nil {
		return nil, err
	}
	return t.Get(key)
}

// Put writes value at key in the trie rooted at root, committing
// immediately and returning the new root hash.
func Put(store kv.Store, root common.Hash, key, value []byte) (common.Hash, error) {
	t, err := New(root, store)
	if err != nil {
		return common.Hash{}, err
	}
	if err := t.Put(key, value); err != nil {
		return common.Hash{}, err
	}
	return t.Commit()
}

// Delete removes key from the trie rooted at root, committing immediately
// and returning the new root hash.
func Delete(store kv.Store, root common.Hash, key []byte) (common.Hash, error) {
	t, err := New(root, store)
	if err != nil {
		return common.Hash{}, err
	}
	if err := t.Delete(key); err != nil {
		return common.Hash{}, err
	}
	return t.Commit()
}
