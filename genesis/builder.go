// Copyright (c) 2026 The Ember developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package genesis builds the genesis block and seeds the initial world state.
package genesis

import (
	"github.com/pkg/errors"

	"github.com/emberchain/ember/block"
	"github.com/emberchain/ember/ember"
	"github.com/emberchain/ember/kv"
	"github.com/emberchain/ember/state"
)

// Builder helper to build the genesis block.
type Builder struct {
	timestamp uint64
	gasLimit  uint64
	extraData []byte

	stateProcs []func(state *state.State) error
}

// Timestamp set timestamp.
func (b *Builder) Timestamp(t uint64) *Builder {
	b.timestamp = t
	return b
}

// GasLimit set gas limit.
func (b *Builder) GasLimit(limit uint64) *Builder {
	b.gasLimit = limit
	return b
}

// ExtraData set extra data of the genesis header.
func (b *Builder) ExtraData(data []byte) *Builder {
	b.extraData = append([]byte(nil), data...)
	return b
}

// State add a state process, used to seed initial accounts.
func (b *Builder) State(proc func(state *state.State) error) *Builder {
	b.stateProcs = append(b.stateProcs, proc)
	return b
}

// Build builds the genesis block according to presets, committing the seeded
// state into db.
func (b *Builder) Build(db kv.GetPutter) (*block.Block, error) {
	st, err := state.New(ember.Bytes32{}, db)
	if err != nil {
		return nil, errors.Wrap(err, "state")
	}

	for _, proc := range b.stateProcs {
		if err := proc(st); err != nil {
			return nil, errors.Wrap(err, "state process")
		}
	}

	stage, err := st.Stage()
	if err != nil {
		return nil, errors.Wrap(err, "stage")
	}

	batch := db.NewBatch()
	root, err := stage.Commit(batch)
	if err != nil {
		return nil, errors.Wrap(err, "commit state")
	}
	if err := batch.Write(); err != nil {
		return nil, errors.Wrap(err, "write state")
	}

	return new(block.Builder).
		Number(0).
		Timestamp(b.timestamp).
		GasLimit(b.gasLimit).
		StateRoot(root).
		ExtraData(b.extraData).
		Build(), nil
}
