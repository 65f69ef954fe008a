// Copyright 2024 The mana-sub006 Authors
// This file is part of mana-sub006, licensed LGPLv3-or-later.

package types

import (
	"errors"
	"io"

	"github.com/mana-ethereum/mana-sub006/common"
	"github.com/mana-ethereum/mana-sub006/rlp"
)

const (
	ReceiptStatusFailed    = uint64(0)
	ReceiptStatusSuccessful = uint64(1)
)

// Receipt is the §3 receipt. PostState carries the intermediate state root
// pre-Byzantium; Status carries the 0/1 outcome byte from Byzantium on —
// exactly one of the two is populated, selected by the chain config active
// at the receipt's block (§4.F "post_state is either ... or the tx status
// byte").
type Receipt struct {
	PostState         []byte // empty when Status is used
	Status            uint64
	UseStatus         bool
	CumulativeGasUsed uint64
	LogsBloom         common.Bloom
	Logs              []*Log
}

// postStateOrStatus returns the RLP encoding of the first receipt field,
// switching representation per UseStatus.
func (r *Receipt) postStateOrStatus() []byte {
	if r.UseStatus {
		return rlp.EncodeUint64(r.Status)
	}
	return rlp.EncodeBytes(r.PostState)
}

// EncodeRLP implements rlp.Encoder; the first field's shape depends on
// UseStatus so it cannot be expressed as a plain struct tag.
func (r *Receipt) EncodeRLP(w io.Writer) error {
	logsEnc := make([][]byte, len(r.Logs))
	for i, l := range r.Logs {
		enc, err := rlp.EncodeToBytes(l)
		if err != nil {
			return err
		}
		logsEnc[i] = enc
	}
	var logsPayload []byte
	for _, e := range logsEnc {
		logsPayload = append(logsPayload, e...)
	}
	payload := append([]byte{}, r.postStateOrStatus()...)
	payload = append(payload, rlp.EncodeUint64(r.CumulativeGasUsed)...)
	bloomEnc, err := rlp.EncodeToBytes(r.LogsBloom)
	if err != nil {
		return err
	}
	payload = append(payload, bloomEnc...)
	payload = append(payload, rlp.EncodeListPayload(logsPayload)...)
	_, err = w.Write(rlp.EncodeListPayload(payload))
	return err
}

// DecodeReceipt parses a receipt from its full RLP encoding (header
// included), the form persisted in the receipts trie.
func DecodeReceipt(data []byte) (*Receipt, error) {
	_, content, rest, err := rlp.Split(data)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, errors.New("types: trailing bytes after receipt")
	}
	items, err := splitListItems(content)
	if err != nil {
		return nil, err
	}
	if len(items) != 4 {
		return nil, errors.New("types: receipt must have 4 fields")
	}
	r := &Receipt{}
	_, psContent, _, err := rlp.Split(items[0])
	if err != nil {
		return nil, err
	}
	if len(psContent) <= 1 {
		r.UseStatus = true
		if len(psContent) == 1 {
			r.Status = uint64(psContent[0])
		}
	} else {
		r.UseStatus = false
		r.PostState = append([]byte{}, psContent...)
	}

	var cumGas uint64
	if err := rlp.DecodeBytes(items[1], &cumGas); err != nil {
		return nil, err
	}
	r.CumulativeGasUsed = cumGas

	if err := rlp.DecodeBytes(items[2], &r.LogsBloom); err != nil {
		return nil, err
	}

	_, logsContent, _, err := rlp.Split(items[3])
	if err != nil {
		return nil, err
	}
	logItems, err := splitListItems(logsContent)
	if err != nil {
		return nil, err
	}
	r.Logs = make([]*Log, len(logItems))
	for i, li := range logItems {
		l := &Log{}
		if err := rlp.DecodeBytes(li, l); err != nil {
			return nil, err
		}
		r.Logs[i] = l
	}
	return r, nil
}

func splitListItems(content []byte) ([][]byte, error) {
	var items [][]byte
	remaining := content
	for len(remaining) > 0 {
		_, _, rest, err := rlp.Split(remaining)
		if err != nil {
			return nil, err
		}
		items = append(items, remaining[:len(remaining)-len(rest)])
		remaining = rest
	}
	return items, nil
}
