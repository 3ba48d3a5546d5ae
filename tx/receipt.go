// Copyright (c) 2026 The Ember developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx

import (
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/emberchain/ember/ember"
	"github.com/emberchain/ember/trie"
)

// Receipt status values.
const (
	ReceiptStatusFailed     uint64 = 0
	ReceiptStatusSuccessful uint64 = 1
)

// Receipt represents the result of a transaction.
type Receipt struct {
	// status of tx execution, 1 for success
	Status uint64
	// gas used by this tx alone
	GasUsed uint64
	// total gas used in the block up to and including this tx
	CumulativeGasUsed uint64
	// bloom filter of the logs produced
	Bloom Bloom
	// logs produced
	Logs []*Log
	// address of the created contract, if any
	ContractAddress *ember.Address `rlp:"nil"`
}

// Reverted returns whether the tx execution failed.
func (r *Receipt) Reverted() bool {
	return r.Status == ReceiptStatusFailed
}

// Receipts slice of receipts.
type Receipts []*Receipt

// Len implements trie.DerivableList.
func (rs Receipts) Len() int {
	return len(rs)
}

// GetRlp implements trie.DerivableList.
func (rs Receipts) GetRlp(i int) []byte {
	data, err := rlp.EncodeToBytes(rs[i])
	if err != nil {
		panic(err)
	}
	return data
}

// RootHash computes the merkle root of receipts.
func (rs Receipts) RootHash() ember.Bytes32 {
	return trie.DeriveRoot(rs)
}
