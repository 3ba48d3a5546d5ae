// Copyright (c) 2026 The Ember developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package packer

import (
	"github.com/emberchain/ember/block"
	"github.com/emberchain/ember/ember"
	"github.com/emberchain/ember/runtime"
	"github.com/emberchain/ember/state"
	"github.com/emberchain/ember/tx"
)

// BlockData carries everything produced by packing one block.
type BlockData struct {
	Block     *block.Block
	Receipts  tx.Receipts
	BlockLogs *tx.BlockLogs
	Stage     *state.Stage
	// Execs are the per-tx execution results, parallel to the block txs.
	Execs []*runtime.TransactionExecution
}

// Flow the flow of packing a new block.
type Flow struct {
	packer       *Packer
	parentHeader *block.Header
	runtime      *runtime.Runtime

	processed map[ember.Bytes32]bool
	gasUsed   uint64
	txs       tx.Transactions
	receipts  tx.Receipts
	execs     []*runtime.TransactionExecution
}

func newFlow(packer *Packer, parentHeader *block.Header, rt *runtime.Runtime) *Flow {
	return &Flow{
		packer:       packer,
		parentHeader: parentHeader,
		runtime:      rt,
		processed:    make(map[ember.Bytes32]bool),
	}
}

// ParentHeader returns the parent block header.
func (f *Flow) ParentHeader() *block.Header {
	return f.parentHeader
}

// When returns the timestamp of the block being packed.
func (f *Flow) When() uint64 {
	return f.runtime.Context().Timestamp
}

// TxCount returns the count of adopted txs.
func (f *Flow) TxCount() int {
	return len(f.txs)
}

// GasUsed returns the gas consumed so far.
func (f *Flow) GasUsed() uint64 {
	return f.gasUsed
}

func (f *Flow) isKnownTx(hash ember.Bytes32) (bool, error) {
	if f.processed[hash] {
		return true, nil
	}
	if _, _, err := f.packer.repo.GetTransaction(hash); err != nil {
		if f.packer.repo.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Adopt tries to execute the given transaction into the block being packed.
//
// If the tx is valid and executable on the current state it is adopted,
// regardless of a vm error. Returned errors classify the rest:
// IsGasLimitReached means the block is full and the tx should be deferred;
// IsBadTx means the tx can never execute and should be dropped.
func (f *Flow) Adopt(t *tx.Transaction) error {
	if f.gasUsed+t.Gas() > f.runtime.Context().GasLimit {
		return errGasLimitReached
	}

	if known, err := f.isKnownTx(t.Hash()); err != nil {
		return err
	} else if known {
		return errKnownTx
	}

	checkpoint := f.runtime.State().NewCheckpoint()
	exec, err := f.runtime.ExecuteTransaction(t)
	if err != nil {
		// skip and revert state
		f.runtime.State().RevertTo(checkpoint)
		return err
	}

	receipt := exec.Receipt
	f.gasUsed += receipt.GasUsed
	receipt.CumulativeGasUsed = f.gasUsed

	f.processed[t.Hash()] = true
	f.txs = append(f.txs, t)
	f.receipts = append(f.receipts, receipt)
	f.execs = append(f.execs, exec)
	return nil
}

// Pack seals the block being packed: state root, txs root and receipts root
// get their final values. The state changes are staged, not yet written.
func (f *Flow) Pack() (*BlockData, error) {
	if f.packer.IsPaused() {
		return nil, errPaused
	}

	stage, err := f.runtime.State().Stage()
	if err != nil {
		return nil, err
	}

	builder := new(block.Builder).
		ParentHash(f.parentHeader.Hash()).
		Number(f.parentHeader.Number() + 1).
		Coinbase(f.runtime.Context().Coinbase).
		Timestamp(f.runtime.Context().Timestamp).
		GasLimit(f.runtime.Context().GasLimit).
		GasUsed(f.gasUsed).
		StateRoot(stage.Hash()).
		ReceiptsRoot(f.receipts.RootHash()).
		ExtraData(f.packer.extraData)
	for _, t := range f.txs {
		builder.Transaction(t)
	}
	newBlock := builder.Build()

	return &BlockData{
		Block:     newBlock,
		Receipts:  f.receipts,
		BlockLogs: tx.NewBlockLogs(newBlock.Header().Hash(), newBlock.Header().Number(), f.txs, f.receipts),
		Stage:     stage,
		Execs:     f.execs,
	}, nil
}
