// Copyright 2024 The mana-sub006 Authors
// This file is part of mana-sub006, licensed LGPLv3-or-later.

package types

import (
	"errors"
	"io"
	"math/big"

	"github.com/holiman/uint256"

	"github.com/mana-ethereum/mana-sub006/common"
	"github.com/mana-ethereum/mana-sub006/crypto"
	"github.com/mana-ethereum/mana-sub006/rlp"
)

var (
	ErrInvalidSender    = errors.New("types: invalid transaction signature")
	ErrContractCreation = errors.New("types: not a contract-creation transaction")
)

// Transaction is the §3 legacy-form transaction: {nonce, gas_price,
// gas_limit, to, value, data, (v,r,s)}. A contract-creation transaction has
// To == nil and Data holds the init code.
type Transaction struct {
	Nonce    uint64
	GasPrice *big.Int
	GasLimit uint64
	To       *common.Address // nil for contract creation
	Value    *uint256.Int
	Data     []byte

	V *big.Int
	R *big.Int
	S *big.Int
}

// IsContractCreation reports whether this transaction deploys new code.
func (tx *Transaction) IsContractCreation() bool { return tx.To == nil }

// txRLP is the full signed encoding's field list, RLP([nonce, gas_price,
// gas_limit, to, value, data, v, r, s]); SigningHash builds the signing
// form (with EIP-155's chain_id, 0, 0 when present) from the same fields.
type txRLP struct {
	Nonce    uint64
	GasPrice *big.Int
	GasLimit uint64
	To       rlp.RawValue // raw-encoded: either the 20-byte address or empty string
	Value    *uint256.Int
	Data     []byte
	V        *big.Int
	R        *big.Int
	S        *big.Int
}

func (tx *Transaction) toRLP() (*txRLP, error) {
	var toEnc rlp.RawValue
	if tx.To == nil {
		toEnc = rlp.RawValue(rlp.EncodeBytes(nil))
	} else {
		toEnc = rlp.RawValue(rlp.EncodeBytes(tx.To.Bytes()))
	}
	return &txRLP{
		Nonce: tx.Nonce, GasPrice: tx.GasPrice, GasLimit: tx.GasLimit,
		To: toEnc, Value: tx.Value, Data: tx.Data, V: tx.V, R: tx.R, S: tx.S,
	}, nil
}

// EncodeRLP implements rlp.Encoder.
func (tx *Transaction) EncodeRLP(w io.Writer) error {
	r, err := tx.toRLP()
	if err != nil {
		return err
	}
	return rlp.Encode(w, r)
}

// DecodeRLP implements rlp.Decoder, handling the To field's address-or-empty
// special case that the generic reflection decoder cannot express.
func (tx *Transaction) DecodeRLP(data []byte) error {
	remaining := data
	var raws [9][]byte
	for i := 0; i < 9; i++ {
		if len(remaining) == 0 {
			return errors.New("types: transaction RLP has too few fields")
		}
		_, content, rest, err := rlp.Split(remaining)
		if err != nil {
			return err
		}
		raws[i] = content
		remaining = rest
	}
	if len(remaining) != 0 {
		return errors.New("types: transaction RLP has extra fields")
	}

	var nonce, gasLimit uint64
	if err := rlp.DecodeBytes(prependHeader(raws[0]), &nonce); err != nil {
		return err
	}
	gasPrice := new(big.Int)
	if err := rlp.DecodeBytes(prependHeader(raws[1]), gasPrice); err != nil {
		return err
	}
	if err := rlp.DecodeBytes(prependHeader(raws[2]), &gasLimit); err != nil {
		return err
	}
	var to *common.Address
	if len(raws[3]) > 0 {
		a := common.BytesToAddress(raws[3])
		to = &a
	}
	value := new(uint256.Int)
	if err := rlp.DecodeBytes(prependHeader(raws[4]), value); err != nil {
		return err
	}
	data5 := append([]byte{}, raws[5]...)
	v, r, s := new(big.Int), new(big.Int), new(big.Int)
	v.SetBytes(raws[6])
	r.SetBytes(raws[7])
	s.SetBytes(raws[8])

	tx.Nonce, tx.GasPrice, tx.GasLimit = nonce, gasPrice, gasLimit
	tx.To, tx.Value, tx.Data = to, value, data5
	tx.V, tx.R, tx.S = v, r, s
	return nil
}

// prependHeader re-wraps already-split content bytes with a byte-string
// header so it can be fed back through rlp.DecodeBytes for scalar fields.
func prependHeader(content []byte) []byte {
	return rlp.EncodeBytes(content)
}

// Hash returns the transaction hash, Keccak(RLP(tx)) over the full signed
// encoding. The transactions and receipts tries are keyed by RLP(index),
// not by this hash.
func (tx *Transaction) Hash() common.Hash {
	enc, err := rlp.EncodeToBytes(tx)
	if err != nil {
		panic("types: transaction is always RLP-encodable: " + err.Error())
	}
	return crypto.Keccak256Hash(enc)
}

// SigningHash returns the hash signed by the sender, per the pre-EIP-155
// form (chainID == nil) or the EIP-155 form (chain_id, 0, 0 appended before
// hashing).
func (tx *Transaction) SigningHash(chainID *big.Int) (common.Hash, error) {
	base := &struct {
		Nonce    uint64
		GasPrice *big.Int
		GasLimit uint64
		To       rlp.RawValue
		Value    *uint256.Int
		Data     []byte
	}{}
	r, err := tx.toRLP()
	if err != nil {
		return common.Hash{}, err
	}
	base.Nonce, base.GasPrice, base.GasLimit = r.Nonce, r.GasPrice, r.GasLimit
	base.To, base.Value, base.Data = r.To, r.Value, r.Data

	if chainID == nil || chainID.Sign() == 0 {
		enc, err := rlp.EncodeToBytes(base)
		if err != nil {
			return common.Hash{}, err
		}
		return crypto.Keccak256Hash(enc), nil
	}
	full := &struct {
		Nonce    uint64
		GasPrice *big.Int
		GasLimit uint64
		To       rlp.RawValue
		Value    *uint256.Int
		Data     []byte
		ChainID  *big.Int
		Zero1    uint64
		Zero2    uint64
	}{base.Nonce, base.GasPrice, base.GasLimit, base.To, base.Value, base.Data, chainID, 0, 0}
	enc, err := rlp.EncodeToBytes(full)
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash(enc), nil
}

// ChainID extracts the EIP-155 chain id folded into v, or nil for a
// pre-EIP-155 signature (v in {27,28}).
func (tx *Transaction) ChainID() *big.Int {
	v := tx.V.Uint64()
	if v == 27 || v == 28 {
		return nil
	}
	// v = chain_id*2 + 35 (or 36)
	chainID := new(big.Int).Sub(tx.V, big.NewInt(35))
	chainID.Div(chainID, big.NewInt(2))
	return chainID
}

// recoveryID returns the 0/1 recovery bit implied by v, for either
// signature form.
func (tx *Transaction) recoveryID() byte {
	v := tx.V.Uint64()
	if v == 27 || v == 28 {
		return byte(v - 27)
	}
	return byte((v - 35) % 2)
}

// Sender recovers the signing address from (v,r,s) over the signing-form
// hash, per §3.
func (tx *Transaction) Sender() (common.Address, error) {
	sigHash, err := tx.SigningHash(tx.ChainID())
	if err != nil {
		return common.Address{}, err
	}
	sig := make([]byte, 65)
	rb, sb := tx.R.Bytes(), tx.S.Bytes()
	copy(sig[32-len(rb):32], rb)
	copy(sig[64-len(sb):64], sb)
	sig[64] = tx.recoveryID()

	pub, err := crypto.Ecrecover(sigHash.Bytes(), sig)
	if err != nil {
		return common.Address{}, ErrInvalidSender
	}
	return common.BytesToAddress(crypto.Keccak256(pub[1:])[12:]), nil
}

// IntrinsicGas computes the base gas cost of including tx in a block before
// any code runs, per §4.F: 21000 base, +32000 for contract creation, plus a
// per-byte data cost (4 for zero bytes; 16 post-EIP-2028, else 68, for
// non-zero bytes).
func (tx *Transaction) IntrinsicGas(isContractCreation, isEIP2028 bool) (uint64, error) {
	gas := uint64(21000)
	if isContractCreation {
		gas += 32000
	}
	if len(tx.Data) == 0 {
		return gas, nil
	}
	var nz uint64
	for _, b := range tx.Data {
		if b != 0 {
			nz++
		}
	}
	zeroCost := uint64(4)
	nonZeroCost := uint64(68)
	if isEIP2028 {
		nonZeroCost = 16
	}
	z := uint64(len(tx.Data)) - nz

	if (1<<64-1-gas)/nonZeroCost < nz {
		return 0, errors.New("types: intrinsic gas overflow")
	}
	gas += nz * nonZeroCost
	if (1<<64-1-gas)/zeroCost < z {
		return 0, errors.New("types: intrinsic gas overflow")
	}
	gas += z * zeroCost
	return gas, nil
}
