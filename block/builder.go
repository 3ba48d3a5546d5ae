// Copyright (c) 2026 The Ember developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package block

import (
	"github.com/emberchain/ember/ember"
	"github.com/emberchain/ember/tx"
)

// Builder to make it easy to build a block object.
type Builder struct {
	headerBody headerBody
	txs        tx.Transactions
}

// ParentHash set parent hash.
func (b *Builder) ParentHash(hash ember.Bytes32) *Builder {
	b.headerBody.ParentHash = hash
	return b
}

// Number set block number.
func (b *Builder) Number(num uint32) *Builder {
	b.headerBody.Number = num
	return b
}

// Coinbase set the reward recipient.
func (b *Builder) Coinbase(addr ember.Address) *Builder {
	b.headerBody.Coinbase = addr
	return b
}

// Timestamp set timestamp.
func (b *Builder) Timestamp(ts uint64) *Builder {
	b.headerBody.Timestamp = ts
	return b
}

// GasLimit set gas limit.
func (b *Builder) GasLimit(limit uint64) *Builder {
	b.headerBody.GasLimit = limit
	return b
}

// GasUsed set gas used.
func (b *Builder) GasUsed(used uint64) *Builder {
	b.headerBody.GasUsed = used
	return b
}

// StateRoot set state root.
func (b *Builder) StateRoot(hash ember.Bytes32) *Builder {
	b.headerBody.StateRoot = hash
	return b
}

// ReceiptsRoot set receipts root.
func (b *Builder) ReceiptsRoot(hash ember.Bytes32) *Builder {
	b.headerBody.ReceiptsRoot = hash
	return b
}

// ExtraData set extra data.
func (b *Builder) ExtraData(data []byte) *Builder {
	b.headerBody.ExtraData = append([]byte(nil), data...)
	return b
}

// Transaction add a transaction.
func (b *Builder) Transaction(tx *tx.Transaction) *Builder {
	b.txs = append(b.txs, tx)
	return b
}

// Build builds a block object. The txs root is derived from the added
// transactions.
func (b *Builder) Build() *Block {
	header := b.headerBody
	header.TxsRoot = b.txs.RootHash()

	return &Block{
		header: &Header{body: header},
		txs:    append(tx.Transactions(nil), b.txs...),
	}
}
