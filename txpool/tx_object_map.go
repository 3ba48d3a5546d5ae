// Copyright (c) 2026 The Ember developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package txpool

import (
	"sort"
	"sync"

	"github.com/emberchain/ember/ember"
)

// txObjectMap to maintain tx objects, keyed by hash and bucketed by origin.
// Per-origin buckets are kept sorted by nonce ascending.
type txObjectMap struct {
	lock      sync.RWMutex
	hashMap   map[ember.Bytes32]*txObject
	originMap map[ember.Address][]*txObject
}

func newTxObjectMap() *txObjectMap {
	return &txObjectMap{
		hashMap:   make(map[ember.Bytes32]*txObject),
		originMap: make(map[ember.Address][]*txObject),
	}
}

func (m *txObjectMap) Contains(hash ember.Bytes32) bool {
	m.lock.RLock()
	defer m.lock.RUnlock()
	_, found := m.hashMap[hash]
	return found
}

func (m *txObjectMap) GetByHash(hash ember.Bytes32) *txObject {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.hashMap[hash]
}

// Add admits the tx object. A tx with the same origin and nonce replaces the
// old one if it pays a strictly higher gas price, otherwise it is rejected.
func (m *txObjectMap) Add(obj *txObject, limitPerAccount int) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	hash := obj.Hash()
	if _, found := m.hashMap[hash]; found {
		return nil
	}

	bucket := m.originMap[obj.origin]
	for i, existing := range bucket {
		if existing.Nonce() == obj.Nonce() {
			if obj.GasPrice().Cmp(existing.GasPrice()) <= 0 {
				return txRejectedError{"replacement tx underpriced"}
			}
			// replace the old tx at the same nonce
			delete(m.hashMap, existing.Hash())
			obj.executable = existing.executable
			bucket[i] = obj
			m.hashMap[hash] = obj
			return nil
		}
	}

	if len(bucket) >= limitPerAccount {
		return txRejectedError{"account quota exceeded"}
	}

	bucket = append(bucket, obj)
	sort.Slice(bucket, func(i, j int) bool {
		return bucket[i].Nonce() < bucket[j].Nonce()
	})
	m.originMap[obj.origin] = bucket
	m.hashMap[hash] = obj
	return nil
}

func (m *txObjectMap) RemoveByHash(hash ember.Bytes32) bool {
	m.lock.Lock()
	defer m.lock.Unlock()

	obj, ok := m.hashMap[hash]
	if !ok {
		return false
	}
	delete(m.hashMap, hash)

	bucket := m.originMap[obj.origin]
	for i, o := range bucket {
		if o.Hash() == hash {
			bucket = append(bucket[:i], bucket[i+1:]...)
			break
		}
	}
	if len(bucket) == 0 {
		delete(m.originMap, obj.origin)
	} else {
		m.originMap[obj.origin] = bucket
	}
	return true
}

// OriginBucket returns the nonce-sorted tx objects of the given origin.
func (m *txObjectMap) OriginBucket(origin ember.Address) []*txObject {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return append([]*txObject(nil), m.originMap[origin]...)
}

// Origins returns all origins that have pooled txs.
func (m *txObjectMap) Origins() []ember.Address {
	m.lock.RLock()
	defer m.lock.RUnlock()
	origins := make([]ember.Address, 0, len(m.originMap))
	for origin := range m.originMap {
		origins = append(origins, origin)
	}
	return origins
}

// MarkExecutable flags the given tx object.
func (m *txObjectMap) MarkExecutable(hash ember.Bytes32, executable bool) {
	m.lock.Lock()
	defer m.lock.Unlock()
	if obj, ok := m.hashMap[hash]; ok {
		obj.executable = executable
	}
}

// ExecutableChains collects per-origin chains of executable txs, each chain
// in nonce order.
func (m *txObjectMap) ExecutableChains() [][]*txObject {
	m.lock.RLock()
	defer m.lock.RUnlock()

	chains := make([][]*txObject, 0, len(m.originMap))
	for _, bucket := range m.originMap {
		var chain []*txObject
		for _, obj := range bucket {
			if !obj.executable {
				break
			}
			chain = append(chain, obj)
		}
		if len(chain) > 0 {
			chains = append(chains, chain)
		}
	}
	return chains
}

func (m *txObjectMap) Clear() {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.hashMap = make(map[ember.Bytes32]*txObject)
	m.originMap = make(map[ember.Address][]*txObject)
}

func (m *txObjectMap) Len() int {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return len(m.hashMap)
}
