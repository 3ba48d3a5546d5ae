// Copyright (c) 2026 The Ember developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package packer assembles candidate blocks by executing pooled transactions.
package packer

import (
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/emberchain/ember/block"
	"github.com/emberchain/ember/chain"
	"github.com/emberchain/ember/ember"
	"github.com/emberchain/ember/runtime"
	"github.com/emberchain/ember/state"
)

// Packer to pack txs and build new blocks.
type Packer struct {
	repo      *chain.Repository
	stater    *state.Stater
	engine    runtime.CallEngine
	coinbase  ember.Address
	extraData []byte

	targetGasLimit uint64
	paused         int32
}

// New creates a new Packer instance.
func New(
	repo *chain.Repository,
	stater *state.Stater,
	engine runtime.CallEngine,
	coinbase ember.Address,
	extraData []byte,
) *Packer {
	return &Packer{
		repo:      repo,
		stater:    stater,
		engine:    engine,
		coinbase:  coinbase,
		extraData: append([]byte(nil), extraData...),
	}
}

// Prepare starts a packing flow on top of the given parent block.
func (p *Packer) Prepare(parent *block.Header, timestamp uint64) (*Flow, error) {
	st, err := p.stater.NewState(parent.StateRoot())
	if err != nil {
		return nil, errors.Wrap(err, "state")
	}

	gasLimit := parent.GasLimit()
	if p.targetGasLimit != 0 {
		gasLimit = p.targetGasLimit
	}

	rt := runtime.New(st, &runtime.BlockContext{
		Coinbase:  p.coinbase,
		Number:    parent.Number() + 1,
		Timestamp: timestamp,
		GasLimit:  gasLimit,
		GetBlockHash: func(num uint32) ember.Bytes32 {
			hash, err := p.repo.GetBlockHashByNumber(num)
			if err != nil {
				return ember.Bytes32{}
			}
			return hash
		},
	}, p.engine)

	return newFlow(p, parent, rt), nil
}

// SetTargetGasLimit set the target gas limit for new blocks. Zero means
// inheriting the parent's gas limit.
func (p *Packer) SetTargetGasLimit(gl uint64) {
	p.targetGasLimit = gl
}

// Pause suspends packing. While paused, Pack refuses to produce blocks.
func (p *Packer) Pause() {
	atomic.StoreInt32(&p.paused, 1)
}

// Resume re-enables packing.
func (p *Packer) Resume() {
	atomic.StoreInt32(&p.paused, 0)
}

// IsPaused returns whether packing is suspended.
func (p *Packer) IsPaused() bool {
	return atomic.LoadInt32(&p.paused) != 0
}
