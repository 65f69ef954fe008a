// Copyright 2024 The mana-sub006 Authors
// This file is part of mana-sub006, licensed LGPLv3-or-later.

package types

import (
	"io"

	"github.com/mana-ethereum/mana-sub006/common"
	"github.com/mana-ethereum/mana-sub006/rlp"
)

// Body holds a block's transactions and ommer (uncle) headers.
type Body struct {
	Transactions []*Transaction
	Ommers       []*Header
}

// Block pairs a header with its body, per §3 "ownership": the chain owns an
// ordered sequence of (header, body).
type Block struct {
	Header *Header
	Body   *Body
}

func NewBlock(header *Header, txs []*Transaction, ommers []*Header) *Block {
	return &Block{Header: header, Body: &Body{Transactions: txs, Ommers: ommers}}
}

func (b *Block) Hash() common.Hash        { return b.Header.Hash() }
func (b *Block) Number() uint64           { return b.Header.Number.Uint64() }
func (b *Block) Transactions() []*Transaction { return b.Body.Transactions }
func (b *Block) Ommers() []*Header        { return b.Body.Ommers }

// EncodeRLP implements rlp.Encoder: the wire form is exactly
// RLP([header, transactions, ommers]) per §6.
func (b *Block) EncodeRLP(w io.Writer) error {
	headerEnc, err := rlp.EncodeToBytes(b.Header)
	if err != nil {
		return err
	}
	var txsPayload []byte
	for _, tx := range b.Body.Transactions {
		enc, err := rlp.EncodeToBytes(tx)
		if err != nil {
			return err
		}
		txsPayload = append(txsPayload, enc...)
	}
	var ommersPayload []byte
	for _, o := range b.Body.Ommers {
		enc, err := rlp.EncodeToBytes(o)
		if err != nil {
			return err
		}
		ommersPayload = append(ommersPayload, enc...)
	}
	payload := append([]byte{}, headerEnc...)
	payload = append(payload, rlp.EncodeListPayload(txsPayload)...)
	payload = append(payload, rlp.EncodeListPayload(ommersPayload)...)
	_, err = w.Write(rlp.EncodeListPayload(payload))
	return err
}

// DecodeRLP implements rlp.Decoder.
func (b *Block) DecodeRLP(data []byte) error {
	items, err := splitListItems(data)
	if err != nil {
		return err
	}
	if len(items) != 3 {
		return errDecode("block must have 3 fields: header, transactions, ommers")
	}
	header := &Header{}
	if err := rlp.DecodeBytes(items[0], header); err != nil {
		return err
	}
	txItems, err := listContentItems(items[1])
	if err != nil {
		return err
	}
	txs := make([]*Transaction, len(txItems))
	for i, it := range txItems {
		tx := &Transaction{}
		if err := rlp.DecodeBytes(it, tx); err != nil {
			return err
		}
		txs[i] = tx
	}
	ommerItems, err := listContentItems(items[2])
	if err != nil {
		return err
	}
	ommers := make([]*Header, len(ommerItems))
	for i, it := range ommerItems {
		h := &Header{}
		if err := rlp.DecodeBytes(it, h); err != nil {
			return err
		}
		ommers[i] = h
	}
	b.Header, b.Body = header, &Body{Transactions: txs, Ommers: ommers}
	return nil
}

func listContentItems(listEnc []byte) ([][]byte, error) {
	_, content, _, err := rlp.Split(listEnc)
	if err != nil {
		return nil, err
	}
	return splitListItems(content)
}

type decodeError string

func (e decodeError) Error() string { return string(e) }
func errDecode(msg string) error     { return decodeError("types: " + msg) }
