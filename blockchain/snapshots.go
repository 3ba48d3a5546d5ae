// Copyright (c) 2026 The Ember developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package blockchain

import (
	"sync"
	"time"

	"github.com/emberchain/ember/block"
	"github.com/emberchain/ember/ember"
)

// snapshot captures the chain head and the clock offset at one point in time.
type snapshot struct {
	head   *block.Block
	offset time.Duration
}

// snapBlock is a node of the owned stack of block hashes added after the
// earliest live snapshot, newest first. Revert walks it to find the path from
// the current head back to a snapshot without re-reading the chain.
type snapBlock struct {
	hash ember.Bytes32
	prev *snapBlock
}

// snapshotManager tracks live snapshots. Ids are 1-based and assigned by
// insertion order. Retention is unbounded unless a limit is configured.
type snapshotManager struct {
	mu     sync.Mutex
	limit  int
	snaps  []*snapshot
	blocks *snapBlock
}

func newSnapshotManager(limit int) *snapshotManager {
	return &snapshotManager{limit: limit}
}

// capture appends a snapshot and returns its 1-based id.
// Returns 0 if the configured snapshot limit is hit.
func (m *snapshotManager) capture(head *block.Block, offset time.Duration) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.limit > 0 && len(m.snaps) >= m.limit {
		return 0
	}
	m.snaps = append(m.snaps, &snapshot{head, offset})
	return uint32(len(m.snaps))
}

// count returns the count of live snapshots.
func (m *snapshotManager) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.snaps)
}

// entry returns the snapshot with the given 1-based id, or nil.
func (m *snapshotManager) entry(id uint32) *snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id < 1 || int(id) > len(m.snaps) {
		return nil
	}
	return m.snaps[id-1]
}

// onBlock records a newly saved block hash, while any snapshot is live.
func (m *snapshotManager) onBlock(hash ember.Bytes32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.snaps) == 0 {
		return
	}
	m.blocks = &snapBlock{hash: hash, prev: m.blocks}
}

// unwind collects block hashes newest-first until the given target head hash
// is reached, leaving the stack at the remainder. A target that predates the
// whole stack drains it: that is the revert to the earliest snapshot, whose
// head was captured before any stack entry existed.
func (m *snapshotManager) unwind(target ember.Bytes32) []ember.Bytes32 {
	m.mu.Lock()
	defer m.mu.Unlock()

	var collected []ember.Bytes32
	node := m.blocks
	for node != nil && node.hash != target {
		collected = append(collected, node.hash)
		node = node.prev
	}
	m.blocks = node
	return collected
}

// truncate discards all snapshots with id >= the given id. When no snapshot
// stays live, the block stack is released.
func (m *snapshotManager) truncate(id uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if int(id) <= len(m.snaps) {
		m.snaps = m.snaps[:id-1]
	}
	if len(m.snaps) == 0 {
		m.blocks = nil
	}
}
