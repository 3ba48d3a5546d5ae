// Copyright (c) 2026 The Ember developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package trie

import (
	"github.com/qianbin/drlp"

	"github.com/emberchain/ember/ember"
)

// see "github.com/ethereum/go-ethereum/core/types/hashing.go"

// DerivableList is the list of elements a trie root can be derived from.
type DerivableList interface {
	Len() int
	GetRlp(i int) []byte
}

// DeriveRoot computes the trie root of an index-keyed list, such as block
// transactions or receipts.
func DeriveRoot(list DerivableList) ember.Bytes32 {
	var (
		t   Trie
		key []byte
	)
	for i := 0; i < list.Len(); i++ {
		key = drlp.AppendUint(key[:0], uint64(i))
		_ = t.Update(key, list.GetRlp(i))
	}
	return t.Hash()
}
