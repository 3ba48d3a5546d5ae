// Copyright (c) 2026 The Ember developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package stackedmap implements a map with save-restore manner, for keeping
// revisions of key/value mutations.
package stackedmap

// MapGetter defines the getter of the underlying data source.
type MapGetter func(key interface{}) (value interface{}, exist bool, err error)

// JournalEntry entry of journal.
type JournalEntry struct {
	Key   interface{}
	Value interface{}
}

type level struct {
	kvs     map[interface{}]interface{}
	journal []*JournalEntry
}

// StackedMap maintains maps in a stack.
// Each map inherits key/value of the map at lower level.
type StackedMap struct {
	src          MapGetter
	levels       []*level
	keyRevisions map[interface{}][]int
}

// New creates an instance of StackedMap. src acts as the source of data.
func New(src MapGetter) *StackedMap {
	return &StackedMap{
		src:          src,
		keyRevisions: make(map[interface{}][]int),
	}
}

// Depth returns depth of stack.
func (sm *StackedMap) Depth() int {
	return len(sm.levels)
}

// Push pushes a new map on the stack.
// It returns stack depth before push.
func (sm *StackedMap) Push() int {
	sm.levels = append(sm.levels, &level{kvs: make(map[interface{}]interface{})})
	return len(sm.levels) - 1
}

// Pop pops the map at the top of the stack.
// It will revert all Put operations since the last Push.
func (sm *StackedMap) Pop() {
	top := sm.levels[len(sm.levels)-1]
	for key := range top.kvs {
		revs := sm.keyRevisions[key]
		revs = revs[:len(revs)-1]
		if len(revs) == 0 {
			delete(sm.keyRevisions, key)
		} else {
			sm.keyRevisions[key] = revs
		}
	}
	sm.levels = sm.levels[:len(sm.levels)-1]
}

// PopTo pops maps until stack depth reaches depth.
func (sm *StackedMap) PopTo(depth int) {
	for len(sm.levels) > depth {
		sm.Pop()
	}
}

// Get gets value for given key.
// The second return value indicates whether the given key is found.
func (sm *StackedMap) Get(key interface{}) (interface{}, bool, error) {
	if revs, ok := sm.keyRevisions[key]; ok {
		lvl := sm.levels[revs[len(revs)-1]]
		if v, ok := lvl.kvs[key]; ok {
			return v, true, nil
		}
	}
	return sm.src(key)
}

// Put puts key value into the map at stack top.
// It will panic if the stack is empty.
func (sm *StackedMap) Put(key, value interface{}) {
	top := sm.levels[len(sm.levels)-1]
	top.kvs[key] = value
	top.journal = append(top.journal, &JournalEntry{Key: key, Value: value})

	// record key revision for fast access
	rev := len(sm.levels) - 1
	if revs, ok := sm.keyRevisions[key]; !ok || revs[len(revs)-1] != rev {
		sm.keyRevisions[key] = append(revs, rev)
	}
}

// Journal traverses all Put operations in first-in order, until cb returns
// false.
func (sm *StackedMap) Journal(cb func(key, value interface{}) bool) {
	for _, lvl := range sm.levels {
		for _, entry := range lvl.journal {
			if !cb(entry.Key, entry.Value) {
				return
			}
		}
	}
}
