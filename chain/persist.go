// Copyright (c) 2026 The Ember developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package chain

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/emberchain/ember/block"
	"github.com/emberchain/ember/ember"
	"github.com/emberchain/ember/kv"
	"github.com/emberchain/ember/tx"
)

const (
	blockBucket     kv.Bucket = "chain.block" // block content keyed by hash
	numIndexBucket  kv.Bucket = "chain.num"   // block-number -> block-hash index
	txBucket        kv.Bucket = "chain.tx"    // tx blob + location keyed by tx hash
	receiptBucket   kv.Bucket = "chain.rcpt"  // receipts keyed by tx hash
	blockLogsBucket kv.Bucket = "chain.logs"  // aggregated logs keyed by block number
	propBucket      kv.Bucket = "chain.props" // named properties, e.g. best block
)

var bestBlockKey = []byte("best-block-hash")

// storedBlock is the persistent form of a block. Transactions are stored
// separately keyed by hash, so the block only keeps their hashes.
type storedBlock struct {
	Header   *block.Header
	TxHashes []ember.Bytes32
}

// TxMeta locates a transaction within the chain.
type TxMeta struct {
	BlockHash   ember.Bytes32
	BlockNumber uint32
	Index       uint64
	Reverted    bool
}

// storedTx is the persistent form of a transaction, carrying its block
// context.
type storedTx struct {
	Tx   *tx.Transaction
	Meta TxMeta
}

func numKey(num uint32) []byte {
	var k [4]byte
	binary.BigEndian.PutUint32(k[:], num)
	return k[:]
}

func saveRLP(w kv.Putter, key []byte, val interface{}) error {
	data, err := rlp.EncodeToBytes(val)
	if err != nil {
		return err
	}
	return w.Put(key, data)
}

func loadRLP(r kv.Getter, key []byte, val interface{}) error {
	data, err := r.Get(key)
	if err != nil {
		return err
	}
	return rlp.DecodeBytes(data, val)
}

func saveBlock(w kv.Putter, b *block.Block) error {
	txs := b.Transactions()
	hashes := make([]ember.Bytes32, len(txs))
	for i, t := range txs {
		hashes[i] = t.Hash()
	}
	hash := b.Header().Hash()
	return saveRLP(w, hash[:], &storedBlock{b.Header(), hashes})
}

func loadStoredBlock(r kv.Getter, hash ember.Bytes32) (*storedBlock, error) {
	var sb storedBlock
	if err := loadRLP(r, hash[:], &sb); err != nil {
		return nil, err
	}
	return &sb, nil
}

func saveTransaction(w kv.Putter, t *tx.Transaction, meta TxMeta) error {
	hash := t.Hash()
	return saveRLP(w, hash[:], &storedTx{t, meta})
}

func loadTransaction(r kv.Getter, hash ember.Bytes32) (*storedTx, error) {
	var st storedTx
	if err := loadRLP(r, hash[:], &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func saveReceipt(w kv.Putter, txHash ember.Bytes32, receipt *tx.Receipt) error {
	return saveRLP(w, txHash[:], receipt)
}

func loadReceipt(r kv.Getter, txHash ember.Bytes32) (*tx.Receipt, error) {
	var receipt tx.Receipt
	if err := loadRLP(r, txHash[:], &receipt); err != nil {
		return nil, err
	}
	return &receipt, nil
}

func saveBlockLogs(w kv.Putter, logs *tx.BlockLogs) error {
	return saveRLP(w, numKey(logs.BlockNumber), logs)
}

func loadBlockLogs(r kv.Getter, num uint32) (*tx.BlockLogs, error) {
	var logs tx.BlockLogs
	if err := loadRLP(r, numKey(num), &logs); err != nil {
		return nil, err
	}
	return &logs, nil
}
