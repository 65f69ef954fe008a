// Copyright 2024 The mana-sub006 Authors
// This file is part of mana-sub006, licensed LGPLv3-or-later.

// Package crypto implements §4.B: Keccak-256/512, ECDSA sign/verify/recover
// and ECDH over secp256k1, backing both the trie's hash function and the
// devp2p handshake.
package crypto

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"errors"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
	btcecdsa "github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"golang.org/x/crypto/sha3"

	"github.com/mana-ethereum/mana-sub006/common"
)

// S256 returns the secp256k1 curve used throughout the protocol.
func S256() elliptic.Curve { return btcec.S256() }

// Half the secp256k1 group order, the bound for the Homestead-and-later
// low-s signature check.
var secp256k1halfN = new(big.Int).Rsh(btcec.S256().N, 1)

// Keccak256 returns the Keccak-256 digest of the concatenation of data.
func Keccak256(data ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	return h.Sum(nil)
}

// Keccak256Hash is Keccak256 wrapped as a common.Hash, used pervasively as
// the RLP/trie hash function.
func Keccak256Hash(data ...[]byte) common.Hash {
	return common.BytesToHash(Keccak256(data...))
}

// Keccak512 returns the Keccak-512 digest, used in the ECIES KDF and in the
// ethash cache/dataset construction.
func Keccak512(data ...[]byte) []byte {
	h := sha3.NewLegacyKeccak512()
	for _, d := range data {
		h.Write(d)
	}
	return h.Sum(nil)
}

// GenerateKey creates a new random secp256k1 private key.
func GenerateKey() (*ecdsa.PrivateKey, error) {
	k, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, err
	}
	return k.ToECDSA(), nil
}

// PubkeyToAddress derives the 20-byte address from an uncompressed public
// key, per go-ethereum convention: the low 20 bytes of Keccak256(x‖y).
func PubkeyToAddress(pub ecdsa.PublicKey) common.Address {
	buf := elliptic.Marshal(S256(), pub.X, pub.Y)[1:] // strip the 0x04 prefix
	return common.BytesToAddress(Keccak256(buf)[12:])
}

// Sign produces a 65-byte [R || S || V] signature over a 32-byte digest,
// where V in {0,1} is the recovery id.
func Sign(digest []byte, prv *ecdsa.PrivateKey) ([]byte, error) {
	if len(digest) != 32 {
		return nil, fmt.Errorf("crypto: digest must be 32 bytes, got %d", len(digest))
	}
	priv := btcec.PrivKeyFromBytes(prv.D.Bytes())
	sig, err := btcecdsa.SignCompact(priv, digest, false)
	if err != nil {
		return nil, err
	}
	// btcec's compact signature is [recid+27, R, S]; convert to
	// go-ethereum's [R, S, V] with V in {0,1}.
	recid := sig[0] - 27
	out := make([]byte, 65)
	copy(out[:32], sig[1:33])
	copy(out[32:64], sig[33:65])
	out[64] = recid
	return out, nil
}

// Ecrecover recovers the uncompressed public key bytes (65 bytes, 0x04
// prefix) from a signature produced by Sign.
func Ecrecover(digest, sig []byte) ([]byte, error) {
	if len(sig) != 65 {
		return nil, errors.New("crypto: invalid signature length")
	}
	if sig[64] > 3 {
		return nil, errors.New("crypto: invalid recovery id")
	}
	compact := make([]byte, 65)
	compact[0] = sig[64] + 27
	copy(compact[1:33], sig[:32])
	copy(compact[33:65], sig[32:64])
	pub, _, err := btcecdsa.RecoverCompact(compact, digest)
	if err != nil {
		return nil, fmt.Errorf("crypto: recovery failed: %w", err)
	}
	return pub.SerializeUncompressed(), nil
}

// SigToPub recovers the full ecdsa.PublicKey from a signature and digest.
func SigToPub(digest, sig []byte) (*ecdsa.PublicKey, error) {
	raw, err := Ecrecover(digest, sig)
	if err != nil {
		return nil, err
	}
	x, y := elliptic.Unmarshal(S256(), raw)
	if x == nil {
		return nil, errors.New("crypto: invalid public key point")
	}
	return &ecdsa.PublicKey{Curve: S256(), X: x, Y: y}, nil
}

// ValidateSignatureValues implements the Homestead-and-later low-s check:
// s must be <= n/2 to be accepted (rejects signature malleability).
func ValidateSignatureValues(v byte, r, s *big.Int, homestead bool) bool {
	if r.Sign() <= 0 || s.Sign() <= 0 {
		return false
	}
	if r.Cmp(S256().Params().N) >= 0 || s.Cmp(S256().Params().N) >= 0 {
		return false
	}
	if homestead && s.Cmp(secp256k1halfN) > 0 {
		return false
	}
	return v == 0 || v == 1
}

// ECDH computes the x-coordinate of priv*pub, the static shared secret used
// to bootstrap the ECIES handshake.
func ECDH(priv *ecdsa.PrivateKey, pub *ecdsa.PublicKey) []byte {
	x, _ := S256().ScalarMult(pub.X, pub.Y, priv.D.Bytes())
	return x.Bytes()
}

// CompressPubkey returns the 33-byte compressed SEC1 encoding.
func CompressPubkey(pub *ecdsa.PublicKey) []byte {
	return elliptic.MarshalCompressed(S256(), pub.X, pub.Y)
}

// DecompressPubkey parses a 33-byte compressed SEC1 encoding.
func DecompressPubkey(b []byte) (*ecdsa.PublicKey, error) {
	x, y := elliptic.UnmarshalCompressed(S256(), b)
	if x == nil {
		return nil, errors.New("crypto: invalid compressed public key")
	}
	return &ecdsa.PublicKey{Curve: S256(), X: x, Y: y}, nil
}
