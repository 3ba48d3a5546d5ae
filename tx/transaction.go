// Copyright (c) 2026 The Ember developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx

import (
	"crypto/ecdsa"
	"fmt"
	"io"
	"math/big"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/params"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/emberchain/ember/ember"
)

var (
	errIntrinsicGasOverflow = errors.New("intrinsic gas too large")
)

// Transaction is an immutable tx type.
type Transaction struct {
	body body

	cache struct {
		signingHash atomic.Value
		hash        atomic.Value
		origin      atomic.Value
		size        atomic.Value
	}
}

// body describes details of a tx.
type body struct {
	AccountNonce uint64
	GasPrice     *big.Int
	GasLimit     uint64
	To           *ember.Address `rlp:"nil"`
	Value        *big.Int
	Data         []byte
	Signature    []byte // 65-byte secp256k1 signature, [R || S || V]
}

// Nonce returns the sender nonce of the tx.
func (t *Transaction) Nonce() uint64 {
	return t.body.AccountNonce
}

// GasPrice returns gas price.
func (t *Transaction) GasPrice() *big.Int {
	return new(big.Int).Set(t.body.GasPrice)
}

// Gas returns the gas provision for this tx.
func (t *Transaction) Gas() uint64 {
	return t.body.GasLimit
}

// To returns the recipient of the tx. Nil means contract creation.
func (t *Transaction) To() *ember.Address {
	if t.body.To == nil {
		return nil
	}
	cpy := *t.body.To
	return &cpy
}

// Value returns the amount of wei transferred.
func (t *Transaction) Value() *big.Int {
	return new(big.Int).Set(t.body.Value)
}

// Data returns the input data of the tx.
func (t *Transaction) Data() []byte {
	return append([]byte(nil), t.body.Data...)
}

// Hash returns hash of the tx, which covers the signature.
func (t *Transaction) Hash() (hash ember.Bytes32) {
	if cached := t.cache.hash.Load(); cached != nil {
		return cached.(ember.Bytes32)
	}
	defer func() { t.cache.hash.Store(hash) }()

	data, _ := rlp.EncodeToBytes(&t.body)
	return ember.Keccak256(data)
}

// SigningHash returns the hash of the tx excluding signature.
func (t *Transaction) SigningHash() (hash ember.Bytes32) {
	if cached := t.cache.signingHash.Load(); cached != nil {
		return cached.(ember.Bytes32)
	}
	defer func() { t.cache.signingHash.Store(hash) }()

	data, _ := rlp.EncodeToBytes([]interface{}{
		t.body.AccountNonce,
		t.body.GasPrice,
		t.body.GasLimit,
		t.body.To,
		t.body.Value,
		t.body.Data,
	})
	return ember.Keccak256(data)
}

// Origin extracts the sender of the tx from its signature.
func (t *Transaction) Origin() (ember.Address, error) {
	if cached := t.cache.origin.Load(); cached != nil {
		return cached.(ember.Address), nil
	}

	if len(t.body.Signature) != 65 {
		return ember.Address{}, errors.New("invalid signature length")
	}
	hash := t.SigningHash()
	pub, err := crypto.SigToPub(hash.Bytes(), t.body.Signature)
	if err != nil {
		return ember.Address{}, err
	}
	origin := ember.Address(crypto.PubkeyToAddress(*pub))
	t.cache.origin.Store(origin)
	return origin, nil
}

// HasSignature returns whether the tx carries a signature.
func (t *Transaction) HasSignature() bool {
	return len(t.body.Signature) > 0
}

// Signature returns a copy of the signature.
func (t *Transaction) Signature() []byte {
	return append([]byte(nil), t.body.Signature...)
}

// WithSignature creates a new tx with signature set.
func (t *Transaction) WithSignature(sig []byte) *Transaction {
	newTx := Transaction{
		body: t.body,
	}
	newTx.body.Signature = append([]byte(nil), sig...)
	return &newTx
}

// Sign signs the tx with the given private key and returns the signed copy.
func Sign(t *Transaction, key *ecdsa.PrivateKey) (*Transaction, error) {
	hash := t.SigningHash()
	sig, err := crypto.Sign(hash.Bytes(), key)
	if err != nil {
		return nil, errors.Wrap(err, "sign tx")
	}
	return t.WithSignature(sig), nil
}

// IntrinsicGas returns the fixed gas cost of the tx before execution begins.
func (t *Transaction) IntrinsicGas() (uint64, error) {
	gas := params.TxGas
	if t.body.To == nil {
		gas = params.TxGasContractCreation
	}
	if len(t.body.Data) > 0 {
		var nz uint64
		for _, b := range t.body.Data {
			if b != 0 {
				nz++
			}
		}
		if (^uint64(0)-gas)/params.TxDataNonZeroGasEIP2028 < nz {
			return 0, errIntrinsicGasOverflow
		}
		gas += nz * params.TxDataNonZeroGasEIP2028

		z := uint64(len(t.body.Data)) - nz
		if (^uint64(0)-gas)/params.TxDataZeroGas < z {
			return 0, errIntrinsicGasOverflow
		}
		gas += z * params.TxDataZeroGas
	}
	return gas, nil
}

// Cost returns value + gas price * gas limit.
func (t *Transaction) Cost() *big.Int {
	cost := new(big.Int).Mul(t.body.GasPrice, new(big.Int).SetUint64(t.body.GasLimit))
	return cost.Add(cost, t.body.Value)
}

// Size returns the encoded size of the tx.
func (t *Transaction) Size() uint64 {
	if cached := t.cache.size.Load(); cached != nil {
		return cached.(uint64)
	}
	data, _ := rlp.EncodeToBytes(t)
	size := uint64(len(data))
	t.cache.size.Store(size)
	return size
}

// EncodeRLP implements rlp.Encoder
func (t *Transaction) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, &t.body)
}

// DecodeRLP implements rlp.Decoder
func (t *Transaction) DecodeRLP(s *rlp.Stream) error {
	var body body
	if err := s.Decode(&body); err != nil {
		return err
	}
	*t = Transaction{body: body}
	return nil
}

func (t *Transaction) String() string {
	var (
		origin ember.Address
		to     string
	)
	if o, err := t.Origin(); err == nil {
		origin = o
	}
	if t.body.To == nil {
		to = "nil (contract creation)"
	} else {
		to = t.body.To.String()
	}
	return fmt.Sprintf(`
	Tx(%v)
	From:      %v
	To:        %v
	Value:     %v
	Nonce:     %v
	GasPrice:  %v
	Gas:       %v
	Data:      0x%x
`, t.Hash(), origin, to, t.body.Value, t.body.AccountNonce, t.body.GasPrice, t.body.GasLimit, t.body.Data)
}
