// Copyright 2024 The mana-sub006 Authors
// This file is part of mana-sub006, licensed LGPLv3-or-later.

package p2p

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/binary"
	"hash"
	"io"

	"golang.org/x/crypto/sha3"

	"github.com/mana-ethereum/mana-sub006/crypto"
	"github.com/mana-ethereum/mana-sub006/crypto/ecies"
)

const (
	nonceLen   = 32
	versionLen = 1
	sigLen     = 65
	pubLen     = 65
	authBodyLen = sigLen + 32 + pubLen + nonceLen + versionLen
	ackBodyLen  = pubLen + nonceLen + versionLen
	eciesOverhead = pubLen + 16 + 32 // ephemeral pubkey + IV + HMAC-SHA256
	protocolVersion = byte(4)
)

// Secrets holds the session keys and running MAC hashes derived from one
// auth/ack exchange, per §4.H.
type Secrets struct {
	AES                 []byte
	MAC                 []byte
	EgressMAC, IngressMAC hash.Hash
}

// RunInitiator performs the dialing side of the ECIES auth/ack handshake
// over conn and returns the derived session secrets.
func RunInitiator(conn io.ReadWriter, priv *ecdsa.PrivateKey, remotePub *ecdsa.PublicKey) (*Secrets, error) {
	ephemeral, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, nonceLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	staticShared := crypto.ECDH(priv, remotePub)
	digest := xorBytes(leftPad32(staticShared), nonce)
	sig, err := crypto.Sign(digest, ephemeral)
	if err != nil {
		return nil, err
	}

	body := make([]byte, 0, authBodyLen)
	body = append(body, sig...)
	body = append(body, crypto.Keccak256(marshalPub(&ephemeral.PublicKey))...)
	body = append(body, marshalPub(&priv.PublicKey)...)
	body = append(body, nonce...)
	body = append(body, protocolVersion)

	authPacket, err := sealHandshake(remotePub, body)
	if err != nil {
		return nil, err
	}
	if _, err := conn.Write(authPacket); err != nil {
		return nil, err
	}

	ackBody, ackPacket, err := readHandshake(conn, priv)
	if err != nil {
		return nil, err
	}
	if len(ackBody) != ackBodyLen {
		return nil, ErrAckTooShort
	}
	remoteEphPub, err := unmarshalPub(ackBody[:pubLen])
	if err != nil {
		return nil, err
	}
	respNonce := ackBody[pubLen : pubLen+nonceLen]

	return deriveSecrets(ephemeral, remoteEphPub, nonce, respNonce, authPacket, ackPacket, true)
}

// RunReceiver performs the listening side of the handshake and returns the
// derived secrets along with the initiator's recovered static public key.
func RunReceiver(conn io.ReadWriter, priv *ecdsa.PrivateKey) (*Secrets, *ecdsa.PublicKey, error) {
	authBody, authPacket, err := readHandshake(conn, priv)
	if err != nil {
		return nil, nil, err
	}
	if len(authBody) != authBodyLen {
		return nil, nil, ErrAuthTooShort
	}
	sig := authBody[:sigLen]
	initStaticPub, err := unmarshalPub(authBody[sigLen+32 : sigLen+32+pubLen])
	if err != nil {
		return nil, nil, err
	}
	initNonce := authBody[sigLen+32+pubLen : sigLen+32+pubLen+nonceLen]

	staticShared := crypto.ECDH(priv, initStaticPub)
	digest := xorBytes(leftPad32(staticShared), initNonce)
	initEphPub, err := crypto.SigToPub(digest, sig)
	if err != nil {
		return nil, nil, err
	}

	ephemeral, err := crypto.GenerateKey()
	if err != nil {
		return nil, nil, err
	}
	respNonce := make([]byte, nonceLen)
	if _, err := io.ReadFull(rand.Reader, respNonce); err != nil {
		return nil, nil, err
	}
	ackBody := make([]byte, 0, ackBodyLen)
	ackBody = append(ackBody, marshalPub(&ephemeral.PublicKey)...)
	ackBody = append(ackBody, respNonce...)
	ackBody = append(ackBody, protocolVersion)

	ackPacket, err := sealHandshake(initStaticPub, ackBody)
	if err != nil {
		return nil, nil, err
	}
	if _, err := conn.Write(ackPacket); err != nil {
		return nil, nil, err
	}

	secrets, err := deriveSecrets(ephemeral, initEphPub, initNonce, respNonce, authPacket, ackPacket, false)
	return secrets, initStaticPub, err
}

// sealHandshake wraps body as a [2-byte size]‖[ECIES ciphertext] packet,
// binding the size prefix into the ciphertext's MAC as sharedInfo2 per §4.H.
func sealHandshake(recipient *ecdsa.PublicKey, body []byte) ([]byte, error) {
	size := eciesOverhead + len(body)
	var sizeBytes [2]byte
	binary.BigEndian.PutUint16(sizeBytes[:], uint16(size))
	ct, err := ecies.Encrypt(recipient, body, nil, sizeBytes[:])
	if err != nil {
		return nil, err
	}
	return append(sizeBytes[:], ct...), nil
}

func readHandshake(r io.Reader, priv *ecdsa.PrivateKey) (body, packet []byte, err error) {
	var sizeBytes [2]byte
	if _, err := io.ReadFull(r, sizeBytes[:]); err != nil {
		return nil, nil, err
	}
	size := binary.BigEndian.Uint16(sizeBytes[:])
	ct := make([]byte, size)
	if _, err := io.ReadFull(r, ct); err != nil {
		return nil, nil, err
	}
	body, err = ecies.Decrypt(priv, ct, nil, sizeBytes[:])
	if err != nil {
		return nil, nil, err
	}
	packet = append(append([]byte{}, sizeBytes[:]...), ct...)
	return body, packet, nil
}

// deriveSecrets implements the Yellow-Paper "secrets" KDF steps of §4.H.
// n_r/respNonce and n_i/initNonce and the auth/ack wire packets are named as
// the spec names them; egress/ingress are assigned per which side sent which
// packet, then swapped for the receiving side.
func deriveSecrets(ourEphemeral *ecdsa.PrivateKey, theirEphemeralPub *ecdsa.PublicKey, initNonce, respNonce, authPacket, ackPacket []byte, initiator bool) (*Secrets, error) {
	ephemeralShared := leftPad32(crypto.ECDH(ourEphemeral, theirEphemeralPub))
	sharedSecret := crypto.Keccak256(ephemeralShared, crypto.Keccak256(respNonce, initNonce))
	aesSecret := crypto.Keccak256(ephemeralShared, sharedSecret)
	macSecret := crypto.Keccak256(ephemeralShared, aesSecret)

	mac1 := sha3.NewLegacyKeccak256()
	mac1.Write(xorBytes(macSecret, respNonce))
	mac1.Write(authPacket)
	mac2 := sha3.NewLegacyKeccak256()
	mac2.Write(xorBytes(macSecret, initNonce))
	mac2.Write(ackPacket)

	s := &Secrets{AES: aesSecret, MAC: macSecret}
	if initiator {
		s.EgressMAC, s.IngressMAC = mac1, mac2
	} else {
		s.EgressMAC, s.IngressMAC = mac2, mac1
	}
	return s, nil
}

func marshalPub(pub *ecdsa.PublicKey) []byte {
	return elliptic.Marshal(crypto.S256(), pub.X, pub.Y)
}

func unmarshalPub(b []byte) (*ecdsa.PublicKey, error) {
	x, y := elliptic.Unmarshal(crypto.S256(), b)
	if x == nil {
		return nil, ErrAuthTooShort
	}
	return &ecdsa.PublicKey{Curve: crypto.S256(), X: x, Y: y}, nil
}

func leftPad32(b []byte) []byte {
	if len(b) >= 32 {
		return b[len(b)-32:]
	}
	out := make([]byte, 32)
	copy(out[32-len(b):], b)
	return out
}

func xorBytes(a, b []byte) []byte {
	out := make([]byte, len(a))
	for i := range out {
		out[i] = a[i] ^ b[i]
	}
	return out
}
