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

// cachedObject to cache code and storage of an account.
type cachedObject struct {
	db   kv.Getter
	data Account

	cache struct {
		code        []byte
		storageTrie *trie.Trie
		storage     map[ember.Bytes32]rlp.RawValue
	}
}

func newCachedObject(db kv.Getter, data *Account) *cachedObject {
	return &cachedObject{db: db, data: *data}
}

func (co *cachedObject) getOrCreateStorageTrie() (*trie.Trie, error) {
	if co.cache.storageTrie != nil {
		return co.cache.storageTrie, nil
	}

	root := ember.BytesToBytes32(co.data.StorageRoot)
	tr, err := trie.New(root, trieBucket.NewGetter(co.db))
	if err != nil {
		return nil, err
	}
	co.cache.storageTrie = tr
	return tr, nil
}

// GetStorage returns storage value for given key.
func (co *cachedObject) GetStorage(key ember.Bytes32) (rlp.RawValue, error) {
	cache := &co.cache
	// retrieve from cache
	if v, ok := cache.storage[key]; ok {
		return v, nil
	}
	// not found in cache

	if len(co.data.StorageRoot) == 0 {
		return nil, nil
	}

	tr, err := co.getOrCreateStorageTrie()
	if err != nil {
		return nil, err
	}

	// load from trie
	v, err := loadStorage(tr, key)
	if err != nil {
		return nil, err
	}
	// put into cache
	if cache.storage == nil {
		cache.storage = make(map[ember.Bytes32]rlp.RawValue)
	}
	cache.storage[key] = v
	return v, nil
}

// GetCode returns the code of the account.
func (co *cachedObject) GetCode() ([]byte, error) {
	cache := &co.cache

	if len(cache.code) > 0 {
		return cache.code, nil
	}

	if len(co.data.CodeHash) > 0 {
		code, err := codeBucket.NewGetter(co.db).Get(co.data.CodeHash)
		if err != nil {
			return nil, err
		}
		cache.code = code
		return code, nil
	}
	return nil, nil
}
