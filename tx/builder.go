// Copyright (c) 2026 The Ember developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx

import (
	"math/big"

	"github.com/emberchain/ember/ember"
)

// Builder to make it easy to build a transaction.
type Builder struct {
	body body
}

// Nonce set the sender nonce.
func (b *Builder) Nonce(nonce uint64) *Builder {
	b.body.AccountNonce = nonce
	return b
}

// GasPrice set gas price.
func (b *Builder) GasPrice(price *big.Int) *Builder {
	b.body.GasPrice = new(big.Int).Set(price)
	return b
}

// Gas set gas provision.
func (b *Builder) Gas(gas uint64) *Builder {
	b.body.GasLimit = gas
	return b
}

// To set the recipient. Nil means contract creation.
func (b *Builder) To(addr *ember.Address) *Builder {
	if addr == nil {
		b.body.To = nil
	} else {
		cpy := *addr
		b.body.To = &cpy
	}
	return b
}

// Value set the amount of wei transferred.
func (b *Builder) Value(value *big.Int) *Builder {
	b.body.Value = new(big.Int).Set(value)
	return b
}

// Data set the input data.
func (b *Builder) Data(data []byte) *Builder {
	b.body.Data = append([]byte(nil), data...)
	return b
}

// Build builds the tx object. Zero-value money fields are normalized so the
// tx always encodes.
func (b *Builder) Build() *Transaction {
	tx := Transaction{body: b.body}
	if tx.body.GasPrice == nil {
		tx.body.GasPrice = new(big.Int)
	}
	if tx.body.Value == nil {
		tx.body.Value = new(big.Int)
	}
	return &tx
}
