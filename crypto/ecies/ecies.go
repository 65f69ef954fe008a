// Copyright 2024 The mana-sub006 Authors
// This file is part of mana-sub006, licensed LGPLv3-or-later.

// Package ecies implements Elliptic Curve Integrated Encryption Scheme over
// secp256k1, as used by the devp2p auth/ack handshake (§4.H): an ephemeral
// ECDH shared secret, a NIST-SP-800-56 concat KDF splitting it into an
// AES-CTR key and an HMAC-SHA-256 key, and a MAC computed over
// IV‖ciphertext‖sharedInfo (with the caller-supplied 2-byte big-endian
// auth_size prefix folded into sharedInfo2 for the handshake's own framing).
package ecies

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdsa"
	stdelliptic "crypto/elliptic"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"io"

	"github.com/mana-ethereum/mana-sub006/crypto"
)

const (
	keyLen    = 16 // AES-128 key length
	macKeyLen = 16
	ivLen     = 16
)

var (
	ErrInvalidMessage = errors.New("ecies: invalid message")
	ErrInvalidMAC     = errors.New("ecies: invalid MAC")
)

// ConcatKDF implements the NIST SP 800-56 Concatenation Key Derivation
// Function using Keccak-256 as the hash, matching the devp2p handshake's
// "shared info" KDF.
func ConcatKDF(z []byte, s1 []byte, length int) []byte {
	var (
		counter uint32 = 1
		out     []byte
	)
	for len(out) < length {
		var ctr [4]byte
		binary.BigEndian.PutUint32(ctr[:], counter)
		out = append(out, crypto.Keccak256(ctr[:], z, s1)...)
		counter++
	}
	return out[:length]
}

// Encrypt encrypts message for recipient pub, authenticating sharedInfo2
// (e.g. the 2-byte big-endian auth_size) as part of the MAC without
// including it in the ciphertext.
func Encrypt(pub *ecdsa.PublicKey, message, sharedInfo1, sharedInfo2 []byte) ([]byte, error) {
	ephemeral, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	z := crypto.ECDH(ephemeral, pub)
	km := ConcatKDF(z, sharedInfo1, keyLen+macKeyLen)
	aesKey, macKey := km[:keyLen], km[keyLen:]

	iv := make([]byte, ivLen)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, err
	}
	ct, err := aesCTR(aesKey, iv, message)
	if err != nil {
		return nil, err
	}

	mac := computeMAC(macKey, iv, ct, sharedInfo2)
	ephPub := stdelliptic.Marshal(ephemeral.PublicKey.Curve, ephemeral.PublicKey.X, ephemeral.PublicKey.Y)
	out := make([]byte, 0, len(ephPub)+len(iv)+len(ct)+len(mac))
	out = append(out, ephPub...)
	out = append(out, iv...)
	out = append(out, ct...)
	out = append(out, mac...)
	return out, nil
}

// Decrypt reverses Encrypt using the recipient's static private key.
func Decrypt(priv *ecdsa.PrivateKey, data, sharedInfo1, sharedInfo2 []byte) ([]byte, error) {
	pubLen := 65
	if len(data) < pubLen+ivLen+sha256.Size {
		return nil, ErrInvalidMessage
	}
	ephPubBytes := data[:pubLen]
	rest := data[pubLen:]
	iv := rest[:ivLen]
	ctAndMac := rest[ivLen:]
	if len(ctAndMac) < sha256.Size {
		return nil, ErrInvalidMessage
	}
	ct := ctAndMac[:len(ctAndMac)-sha256.Size]
	mac := ctAndMac[len(ctAndMac)-sha256.Size:]

	ephPub, err := unmarshalPubkey(ephPubBytes)
	if err != nil {
		return nil, err
	}
	z := crypto.ECDH(priv, ephPub)
	km := ConcatKDF(z, sharedInfo1, keyLen+macKeyLen)
	aesKey, macKey := km[:keyLen], km[keyLen:]

	expected := computeMAC(macKey, iv, ct, sharedInfo2)
	if !hmac.Equal(mac, expected) {
		return nil, ErrInvalidMAC
	}
	return aesCTR(aesKey, iv, ct)
}

func computeMAC(macKey, iv, ct, sharedInfo2 []byte) []byte {
	h := hmac.New(sha256.New, macKey)
	h.Write(iv)
	h.Write(ct)
	h.Write(sharedInfo2)
	return h.Sum(nil)
}

func aesCTR(key, iv, in []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(in))
	cipher.NewCTR(block, iv).XORKeyStream(out, in)
	return out, nil
}

func unmarshalPubkey(b []byte) (*ecdsa.PublicKey, error) {
	x, y := stdelliptic.Unmarshal(crypto.S256(), b)
	if x == nil {
		return nil, errors.New("ecies: invalid public key point")
	}
	return &ecdsa.PublicKey{Curve: crypto.S256(), X: x, Y: y}, nil
}
