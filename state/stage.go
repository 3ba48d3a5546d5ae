// Copyright (c) 2026 The Ember developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/emberchain/ember/ember"
	"github.com/emberchain/ember/kv"
	"github.com/emberchain/ember/trie"
)

// Stage abstracts the changes of a state, computed as tries ready to commit.
// The root hash is available before anything is written, so a block header
// can be sealed first and all writes issued inside one batch later.
type Stage struct {
	root  ember.Bytes32
	tries []*trie.Trie
	codes map[ember.Bytes32][]byte
}

// Stage computes the state root of accumulated changes, and makes a stage
// object to commit them.
func (s *State) Stage() (*Stage, error) {
	type changed struct {
		data            Account
		storage         map[ember.Bytes32]rlp.RawValue
		baseStorageTrie *trie.Trie
	}

	var (
		changes = make(map[ember.Address]*changed)
		codes   = make(map[ember.Bytes32][]byte)
	)

	// get or create changed account
	getChanged := func(addr ember.Address) (*changed, error) {
		if obj, ok := changes[addr]; ok {
			return obj, nil
		}
		co, err := s.getCachedObject(addr)
		if err != nil {
			return nil, &Error{err}
		}
		c := &changed{data: co.data, baseStorageTrie: co.cache.storageTrie}
		changes[addr] = c
		return c, nil
	}

	var jerr error
	// traverse journal to build changes
	s.sm.Journal(func(k, v interface{}) bool {
		var c *changed
		switch key := k.(type) {
		case ember.Address:
			if c, jerr = getChanged(key); jerr != nil {
				return false
			}
			c.data = *(v.(*Account))
		case codeKey:
			code := v.([]byte)
			if len(code) > 0 {
				codes[ember.Keccak256(code)] = code
			}
		case storageKey:
			if c, jerr = getChanged(key.addr); jerr != nil {
				return false
			}
			if c.storage == nil {
				c.storage = make(map[ember.Bytes32]rlp.RawValue)
			}
			c.storage[key.key] = v.(rlp.RawValue)
		case storageBarrierKey:
			if c, jerr = getChanged(ember.Address(key)); jerr != nil {
				return false
			}
			// discard all storage updates and the base storage trie
			// when the barrier is met.
			c.storage = nil
			c.baseStorageTrie = nil
			c.data.StorageRoot = nil
		}
		return true
	})
	if jerr != nil {
		return nil, &Error{jerr}
	}

	trieCpy := s.trie.Copy()
	tries := make([]*trie.Trie, 0, len(changes)+1)

	for addr, c := range changes {
		// skip storage changes if the account is empty
		if !c.data.IsEmpty() && len(c.storage) > 0 {
			var sTrie *trie.Trie
			if c.baseStorageTrie != nil {
				sTrie = c.baseStorageTrie.Copy()
			} else {
				var err error
				sTrie, err = trie.New(ember.BytesToBytes32(c.data.StorageRoot), trieBucket.NewGetter(s.db))
				if err != nil {
					return nil, &Error{err}
				}
			}
			for k, v := range c.storage {
				if err := saveStorage(sTrie, k, v); err != nil {
					return nil, &Error{err}
				}
			}
			sRoot := sTrie.Hash()
			if sRoot == trie.EmptyRoot {
				c.data.StorageRoot = nil
			} else {
				c.data.StorageRoot = sRoot.Bytes()
				tries = append(tries, sTrie)
			}
		}
		if err := saveAccount(trieCpy, addr, &c.data); err != nil {
			return nil, &Error{err}
		}
	}

	root := trieCpy.Hash()
	tries = append(tries, trieCpy)

	return &Stage{
		root:  root,
		tries: tries,
		codes: codes,
	}, nil
}

// Hash returns the computed state root.
func (st *Stage) Hash() ember.Bytes32 {
	return st.root
}

// Commit commits all changes through the given putter, which is typically a
// batch opened by the caller. Returns the state root.
func (st *Stage) Commit(w kv.Putter) (ember.Bytes32, error) {
	nodePutter := trieBucket.NewPutter(w)
	for _, tr := range st.tries {
		if _, err := tr.CommitTo(nodePutter); err != nil {
			return ember.Bytes32{}, &Error{err}
		}
	}
	if len(st.codes) > 0 {
		codePutter := codeBucket.NewPutter(w)
		for hash, code := range st.codes {
			if err := codePutter.Put(hash.Bytes(), code); err != nil {
				return ember.Bytes32{}, &Error{err}
			}
		}
	}
	return st.root, nil
}
