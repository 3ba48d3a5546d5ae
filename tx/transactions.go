// Copyright (c) 2026 The Ember developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx

import (
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/emberchain/ember/ember"
	"github.com/emberchain/ember/trie"
)

// Transactions a slice of transactions.
type Transactions []*Transaction

// Len implements trie.DerivableList.
func (txs Transactions) Len() int {
	return len(txs)
}

// GetRlp implements trie.DerivableList.
func (txs Transactions) GetRlp(i int) []byte {
	data, err := rlp.EncodeToBytes(txs[i])
	if err != nil {
		panic(err)
	}
	return data
}

// RootHash computes the merkle root of transactions.
func (txs Transactions) RootHash() ember.Bytes32 {
	return trie.DeriveRoot(txs)
}
