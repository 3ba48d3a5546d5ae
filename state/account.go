// Copyright (c) 2026 The Ember developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/emberchain/ember/ember"
	"github.com/emberchain/ember/trie"
)

// Account is the Ethereum-consensus representation of an account stored in
// the world trie.
type Account struct {
	Nonce       uint64
	Balance     *big.Int
	CodeHash    []byte // nil means no code
	StorageRoot []byte // nil means empty storage
}

// IsEmpty returns if the account is empty.
// An empty account has zero balance, zero nonce and no code.
func (a *Account) IsEmpty() bool {
	return a.Nonce == 0 &&
		a.Balance.Sign() == 0 &&
		len(a.CodeHash) == 0
}

func emptyAccount() *Account {
	return &Account{Balance: &big.Int{}}
}

// loadAccount load an account object by address in trie.
// It returns an empty account is the address not found in the trie.
func loadAccount(tr *trie.Trie, addr ember.Address) (*Account, error) {
	data, err := tr.Get(hashKey(addr.Bytes()))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return emptyAccount(), nil
	}
	var a Account
	if err := rlp.DecodeBytes(data, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// saveAccount save account into trie at given address.
// If the account is empty, the value for the address is deleted.
func saveAccount(tr *trie.Trie, addr ember.Address, a *Account) error {
	if a.IsEmpty() && len(a.StorageRoot) == 0 {
		// delete if account is empty
		return tr.Delete(hashKey(addr.Bytes()))
	}

	data, err := rlp.EncodeToBytes(a)
	if err != nil {
		return err
	}
	return tr.Update(hashKey(addr.Bytes()), data)
}

// loadStorage load storage slot value from the storage trie.
func loadStorage(tr *trie.Trie, key ember.Bytes32) (rlp.RawValue, error) {
	return tr.Get(hashKey(key.Bytes()))
}

// saveStorage save value for the given key in the storage trie.
// If the value is empty, the given key is deleted.
func saveStorage(tr *trie.Trie, key ember.Bytes32, value rlp.RawValue) error {
	if len(value) == 0 {
		// release storage if value is empty
		return tr.Delete(hashKey(key.Bytes()))
	}
	return tr.Update(hashKey(key.Bytes()), value)
}

// hashKey secures trie keys the way go-ethereum does, making key paths
// uniformly distributed.
func hashKey(key []byte) []byte {
	h := ember.Keccak256(key)
	return h.Bytes()
}
