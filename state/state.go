// Copyright (c) 2026 The Ember developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package state manages the world state of accounts, with checkpoint-revert
// semantics on top of the Merkle Patricia Trie.
package state

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/emberchain/ember/ember"
	"github.com/emberchain/ember/kv"
	"github.com/emberchain/ember/stackedmap"
	"github.com/emberchain/ember/trie"
)

const (
	trieBucket kv.Bucket = "state.trie" // merkle nodes of account and storage tries
	codeBucket kv.Bucket = "state.code" // contract code keyed by code hash
)

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

// State manages the main accounts trie, with buffered mutations kept as
// stacked revisions until staged.
type State struct {
	db    kv.GetPutter
	trie  *trie.Trie
	cache map[ember.Address]*cachedObject // cache of tried accounts
	sm    *stackedmap.StackedMap          // keeps revisions of account state
}

type (
	storageKey struct {
		addr    ember.Address
		barrier int
		key     ember.Bytes32
	}
	codeKey           ember.Address
	storageBarrierKey ember.Address
)

// New create state object at the given root.
func New(root ember.Bytes32, db kv.GetPutter) (*State, error) {
	tr, err := trie.New(root, trieBucket.NewGetter(db))
	if err != nil {
		return nil, &Error{err}
	}

	state := State{
		db:    db,
		trie:  tr,
		cache: make(map[ember.Address]*cachedObject),
	}
	state.sm = stackedmap.New(func(key interface{}) (interface{}, bool, error) {
		return state.cacheGetter(key)
	})

	// initially has one stack depth
	state.sm.Push()
	return &state, nil
}

// cacheGetter implements stackedmap.MapGetter.
func (s *State) cacheGetter(key interface{}) (value interface{}, exist bool, err error) {
	switch k := key.(type) {
	case ember.Address: // get account
		obj, err := s.getCachedObject(k)
		if err != nil {
			return nil, false, err
		}
		return &obj.data, true, nil
	case codeKey: // get code
		obj, err := s.getCachedObject(ember.Address(k))
		if err != nil {
			return nil, false, err
		}
		code, err := obj.GetCode()
		if err != nil {
			return nil, false, err
		}
		return code, true, nil
	case storageKey: // get storage
		// the address was ever deleted in the life-cycle of this state
		// instance. treat its storage as an empty set.
		if k.barrier != 0 {
			return rlp.RawValue(nil), true, nil
		}
		obj, err := s.getCachedObject(k.addr)
		if err != nil {
			return nil, false, err
		}
		v, err := obj.GetStorage(k.key)
		if err != nil {
			return nil, false, err
		}
		return v, true, nil
	case storageBarrierKey: // get barrier, 0 as initial value
		return 0, true, nil
	}
	panic(fmt.Errorf("unexpected key type %+v", key))
}

func (s *State) getCachedObject(addr ember.Address) (*cachedObject, error) {
	if co, ok := s.cache[addr]; ok {
		return co, nil
	}
	a, err := loadAccount(s.trie, addr)
	if err != nil {
		return nil, err
	}
	co := newCachedObject(s.db, a)
	s.cache[addr] = co
	return co, nil
}

// getAccount gets account by address. The returned account should not be modified.
func (s *State) getAccount(addr ember.Address) (*Account, error) {
	v, _, err := s.sm.Get(addr)
	if err != nil {
		return nil, err
	}
	return v.(*Account), nil
}

// getAccountCopy get a copy of account by address.
func (s *State) getAccountCopy(addr ember.Address) (Account, error) {
	acc, err := s.getAccount(addr)
	if err != nil {
		return Account{}, err
	}
	return *acc, nil
}

func (s *State) updateAccount(addr ember.Address, acc *Account) {
	s.sm.Put(addr, acc)
}

func (s *State) getStorageBarrier(addr ember.Address) int {
	b, _, _ := s.sm.Get(storageBarrierKey(addr))
	return b.(int)
}

func (s *State) setStorageBarrier(addr ember.Address, barrier int) {
	s.sm.Put(storageBarrierKey(addr), barrier)
}

// GetAccount returns a copy of the account at the given address.
func (s *State) GetAccount(addr ember.Address) (Account, error) {
	acc, err := s.getAccountCopy(addr)
	if err != nil {
		return Account{}, &Error{err}
	}
	return acc, nil
}

// GetBalance returns balance for the given address.
func (s *State) GetBalance(addr ember.Address) (*big.Int, error) {
	acc, err := s.getAccount(addr)
	if err != nil {
		return nil, &Error{err}
	}
	return acc.Balance, nil
}

// SetBalance set balance for the given address.
func (s *State) SetBalance(addr ember.Address, balance *big.Int) error {
	cpy, err := s.getAccountCopy(addr)
	if err != nil {
		return &Error{err}
	}
	cpy.Balance = balance
	s.updateAccount(addr, &cpy)
	return nil
}

// GetNonce returns nonce for the given address.
func (s *State) GetNonce(addr ember.Address) (uint64, error) {
	acc, err := s.getAccount(addr)
	if err != nil {
		return 0, &Error{err}
	}
	return acc.Nonce, nil
}

// SetNonce set nonce for the given address.
func (s *State) SetNonce(addr ember.Address, nonce uint64) error {
	cpy, err := s.getAccountCopy(addr)
	if err != nil {
		return &Error{err}
	}
	cpy.Nonce = nonce
	s.updateAccount(addr, &cpy)
	return nil
}

// GetStorage returns storage value for the given address and key.
func (s *State) GetStorage(addr ember.Address, key ember.Bytes32) (ember.Bytes32, error) {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return ember.Bytes32{}, &Error{err}
	}
	if len(raw) == 0 {
		return ember.Bytes32{}, nil
	}
	_, content, _, err := rlp.Split(raw)
	if err != nil {
		return ember.Bytes32{}, &Error{err}
	}
	return ember.BytesToBytes32(content), nil
}

// SetStorage set storage value for the given address and key.
func (s *State) SetStorage(addr ember.Address, key, value ember.Bytes32) {
	if value.IsZero() {
		s.SetRawStorage(addr, key, nil)
		return
	}
	v, _ := rlp.EncodeToBytes(bytes.TrimLeft(value[:], "\x00"))
	s.SetRawStorage(addr, key, v)
}

// GetRawStorage returns storage value in rlp raw for given address and key.
func (s *State) GetRawStorage(addr ember.Address, key ember.Bytes32) (rlp.RawValue, error) {
	data, _, err := s.sm.Get(storageKey{addr, s.getStorageBarrier(addr), key})
	if err != nil {
		return nil, &Error{err}
	}
	return data.(rlp.RawValue), nil
}

// SetRawStorage set storage value in rlp raw.
func (s *State) SetRawStorage(addr ember.Address, key ember.Bytes32, raw rlp.RawValue) {
	s.sm.Put(storageKey{addr, s.getStorageBarrier(addr), key}, raw)
}

// GetCode returns code for the given address.
func (s *State) GetCode(addr ember.Address) ([]byte, error) {
	v, _, err := s.sm.Get(codeKey(addr))
	if err != nil {
		return nil, &Error{err}
	}
	return v.([]byte), nil
}

// GetCodeHash returns code hash for the given address.
func (s *State) GetCodeHash(addr ember.Address) (ember.Bytes32, error) {
	acc, err := s.getAccount(addr)
	if err != nil {
		return ember.Bytes32{}, &Error{err}
	}
	return ember.BytesToBytes32(acc.CodeHash), nil
}

// SetCode set code for the given address.
func (s *State) SetCode(addr ember.Address, code []byte) error {
	var codeHash []byte
	if len(code) > 0 {
		s.sm.Put(codeKey(addr), code)
		codeHash = crypto.Keccak256(code)
	} else {
		s.sm.Put(codeKey(addr), []byte(nil))
	}
	cpy, err := s.getAccountCopy(addr)
	if err != nil {
		return &Error{err}
	}
	cpy.CodeHash = codeHash
	s.updateAccount(addr, &cpy)
	return nil
}

// Exists returns whether an account exists at the given address.
// See Account.IsEmpty()
func (s *State) Exists(addr ember.Address) (bool, error) {
	acc, err := s.getAccount(addr)
	if err != nil {
		return false, &Error{err}
	}
	return !acc.IsEmpty(), nil
}

// Delete deletes an account at the given address.
// That's set balance, nonce and code to zero values, and dropping storage.
func (s *State) Delete(addr ember.Address) {
	s.sm.Put(codeKey(addr), []byte(nil))
	s.updateAccount(addr, emptyAccount())
	// increase the barrier value
	s.setStorageBarrier(addr, s.getStorageBarrier(addr)+1)
}

// NewCheckpoint makes a checkpoint of current state.
// It returns revision of the checkpoint.
func (s *State) NewCheckpoint() int {
	return s.sm.Push()
}

// RevertTo reverts to checkpoint specified by revision.
func (s *State) RevertTo(revision int) {
	s.sm.PopTo(revision)
}
