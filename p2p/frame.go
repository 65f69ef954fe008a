// Copyright 2024 The mana-sub006 Authors
// This file is part of mana-sub006, licensed LGPLv3-or-later.

package p2p

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"hash"
	"io"

	"github.com/mana-ethereum/mana-sub006/rlp"
)

const headerLen = 16

// wireMsg is the RLP shape of one frame's body: a message code plus its
// opaque payload, per §4.H's frame layer.
type wireMsg struct {
	Code uint64
	Data []byte
}

// FrameCodec reads and writes length-delimited, MAC-authenticated frames
// over a raw connection, using the session secrets from the auth/ack
// handshake. The AES-CTR keystreams and MAC hashes run continuously across
// frames for the life of the session, per §4.H/§9.
type FrameCodec struct {
	rw io.ReadWriter

	enc, dec cipher.Stream
	macBlock cipher.Block

	egressMAC, ingressMAC hash.Hash
}

// NewFrameCodec builds a codec from handshake secrets. Both directions'
// AES-CTR streams are keyed by the same aes_secret with a zero IV, matching
// §4.H; they diverge because each side's stream advances independently.
func NewFrameCodec(rw io.ReadWriter, secrets *Secrets) (*FrameCodec, error) {
	block, err := aes.NewCipher(secrets.AES)
	if err != nil {
		return nil, err
	}
	macBlock, err := aes.NewCipher(secrets.MAC)
	if err != nil {
		return nil, err
	}
	zeroIV := make([]byte, aes.BlockSize)
	return &FrameCodec{
		rw:         rw,
		enc:        cipher.NewCTR(block, zeroIV),
		dec:        cipher.NewCTR(block, zeroIV),
		macBlock:   macBlock,
		egressMAC:  secrets.EgressMAC,
		ingressMAC: secrets.IngressMAC,
	}, nil
}

// WriteFrame sends one message as a header frame plus a padded body frame,
// each followed by its 16-byte MAC, per §4.H.
func (fc *FrameCodec) WriteFrame(code uint64, data []byte) error {
	body, err := rlp.EncodeToBytes(&wireMsg{Code: code, Data: data})
	if err != nil {
		return err
	}

	headerPlain := make([]byte, headerLen)
	size := len(body)
	headerPlain[0] = byte(size >> 16)
	headerPlain[1] = byte(size >> 8)
	headerPlain[2] = byte(size)

	headerCT := make([]byte, headerLen)
	fc.enc.XORKeyStream(headerCT, headerPlain)
	headerMAC := fc.headerMAC(fc.egressMAC, headerCT)
	if _, err := fc.rw.Write(append(headerCT, headerMAC...)); err != nil {
		return err
	}

	padded := padTo16(body)
	bodyCT := make([]byte, len(padded))
	fc.enc.XORKeyStream(bodyCT, padded)
	bodyMAC := fc.bodyMAC(fc.egressMAC, bodyCT)
	_, err = fc.rw.Write(append(bodyCT, bodyMAC...))
	return err
}

// ReadFrame reads and authenticates one frame, returning its message code
// and payload.
func (fc *FrameCodec) ReadFrame() (code uint64, data []byte, err error) {
	headerCT := make([]byte, headerLen)
	if _, err := io.ReadFull(fc.rw, headerCT); err != nil {
		return 0, nil, err
	}
	headerMACGot := make([]byte, headerLen)
	if _, err := io.ReadFull(fc.rw, headerMACGot); err != nil {
		return 0, nil, err
	}
	if !hmac.Equal(headerMACGot, fc.headerMAC(fc.ingressMAC, headerCT)) {
		return 0, nil, ErrMacMismatch
	}
	headerPlain := make([]byte, headerLen)
	fc.dec.XORKeyStream(headerPlain, headerCT)
	size := int(headerPlain[0])<<16 | int(headerPlain[1])<<8 | int(headerPlain[2])

	paddedSize := roundUp16(size)
	bodyCT := make([]byte, paddedSize)
	if _, err := io.ReadFull(fc.rw, bodyCT); err != nil {
		return 0, nil, err
	}
	bodyMACGot := make([]byte, headerLen)
	if _, err := io.ReadFull(fc.rw, bodyMACGot); err != nil {
		return 0, nil, err
	}
	if !hmac.Equal(bodyMACGot, fc.bodyMAC(fc.ingressMAC, bodyCT)) {
		return 0, nil, ErrMacMismatch
	}
	bodyPlain := make([]byte, paddedSize)
	fc.dec.XORKeyStream(bodyPlain, bodyCT)

	var msg wireMsg
	if err := rlp.DecodeBytes(bodyPlain[:size], &msg); err != nil {
		return 0, nil, err
	}
	return msg.Code, msg.Data, nil
}

// headerMAC implements §4.H's header-MAC step: the mix is derived from the
// digest as it stands before this header's ct is absorbed, then ct and the
// mix are both written to finalize.
// mix = digest[:16] ⊕ AES_ECB(mac_secret, digest[:16]); write(ct); write(mix).
func (fc *FrameCodec) headerMAC(state hash.Hash, ct []byte) []byte {
	mixed := fc.mix(state)
	state.Write(ct)
	state.Write(mixed)
	return state.Sum(nil)[:headerLen]
}

// bodyMAC implements §4.H's body-MAC step: ct is absorbed into state first,
// so the mix is derived from the updated (post-ct) digest, analogous to but
// distinct from headerMAC's pre-ct digest.
func (fc *FrameCodec) bodyMAC(state hash.Hash, ct []byte) []byte {
	state.Write(ct)
	mixed := fc.mix(state)
	state.Write(mixed)
	return state.Sum(nil)[:headerLen]
}

// mix computes the AES-ECB step shared by both MAC recipes against state's
// digest as it currently stands: digest[:16] ⊕ AES_ECB(mac_secret, digest[:16]).
func (fc *FrameCodec) mix(state hash.Hash) []byte {
	sum := state.Sum(nil)[:headerLen]
	encrypted := make([]byte, headerLen)
	fc.macBlock.Encrypt(encrypted, sum)
	return xorBytes(sum, encrypted)
}

func padTo16(b []byte) []byte {
	out := make([]byte, roundUp16(len(b)))
	copy(out, b)
	return out
}

func roundUp16(n int) int {
	if n%16 == 0 {
		return n
	}
	return n + (16 - n%16)
}
