// Copyright (c) 2026 The Ember developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx

import (
	"github.com/emberchain/ember/ember"
)

// LogEntry locates a single log within a block.
type LogEntry struct {
	TxIndex uint32
	TxHash  ember.Bytes32
	Log     *Log
}

// BlockLogs aggregates the event logs of a whole block, in execution order.
// It is the unit filter subscriptions consume.
type BlockLogs struct {
	BlockHash   ember.Bytes32
	BlockNumber uint32
	Logs        []*LogEntry
}

// NewBlockLogs collects the logs of the given receipts into a BlockLogs.
// Transactions and receipts must be parallel slices.
func NewBlockLogs(blockHash ember.Bytes32, blockNumber uint32, txs Transactions, receipts Receipts) *BlockLogs {
	bl := &BlockLogs{
		BlockHash:   blockHash,
		BlockNumber: blockNumber,
	}
	for i, receipt := range receipts {
		for _, l := range receipt.Logs {
			bl.Logs = append(bl.Logs, &LogEntry{
				TxIndex: uint32(i),
				TxHash:  txs[i].Hash(),
				Log:     l,
			})
		}
	}
	return bl
}
