// Copyright (c) 2026 The Ember developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package packer_test

import (
	"crypto/ecdsa"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberchain/ember/chain"
	"github.com/emberchain/ember/ember"
	"github.com/emberchain/ember/genesis"
	"github.com/emberchain/ember/kv"
	"github.com/emberchain/ember/packer"
	"github.com/emberchain/ember/state"
	"github.com/emberchain/ember/tx"
)

var gasPrice = big.NewInt(2_000_000_000)

type testEnv struct {
	db     kv.GetPutCloser
	repo   *chain.Repository
	stater *state.Stater
	packer *packer.Packer
	key    *ecdsa.PrivateKey
	sender ember.Address
}

func newTestEnv(t *testing.T) *testEnv {
	db, err := kv.NewMem()
	require.Nil(t, err)
	t.Cleanup(func() { db.Close() })

	key, err := crypto.GenerateKey()
	require.Nil(t, err)
	sender := ember.Address(crypto.PubkeyToAddress(key.PublicKey))

	b0, err := new(genesis.Builder).
		Timestamp(1000).
		GasLimit(ember.InitialGasLimit).
		State(func(st *state.State) error {
			return st.SetBalance(sender, new(big.Int).Mul(big.NewInt(1000), ember.Ether))
		}).
		Build(db)
	require.Nil(t, err)

	repo, err := chain.NewRepository(db, b0)
	require.Nil(t, err)
	stater := state.NewStater(db)

	return &testEnv{
		db:     db,
		repo:   repo,
		stater: stater,
		packer: packer.New(repo, stater, nil, ember.Address{}, []byte("test")),
		key:    key,
		sender: sender,
	}
}

func (env *testEnv) transfer(t *testing.T, nonce uint64, gas uint64) *tx.Transaction {
	to := ember.BytesToAddress([]byte("to"))
	trx, err := tx.Sign(new(tx.Builder).
		Nonce(nonce).
		GasPrice(gasPrice).
		Gas(gas).
		To(&to).
		Value(big.NewInt(1)).
		Build(), env.key)
	require.Nil(t, err)
	return trx
}

// saveBlock persists a packed block the way the controller does.
func saveBlock(t *testing.T, env *testEnv, data *packer.BlockData) {
	require.Nil(t, env.repo.AddBlock(data.Block, data.Receipts, data.BlockLogs, true, func(w kv.Putter) error {
		_, err := data.Stage.Commit(w)
		return err
	}))
}

func TestPackBlock(t *testing.T) {
	assert := assert.New(t)
	env := newTestEnv(t)

	parent := env.repo.BestBlock().Header()
	flow, err := env.packer.Prepare(parent, parent.Timestamp()+1)
	require.Nil(t, err)

	assert.Equal(parent.Hash(), flow.ParentHeader().Hash())
	assert.Equal(parent.Timestamp()+1, flow.When())

	require.Nil(t, flow.Adopt(env.transfer(t, 0, 21000)))
	require.Nil(t, flow.Adopt(env.transfer(t, 1, 21000)))
	assert.Equal(2, flow.TxCount())
	assert.Equal(uint64(42000), flow.GasUsed())

	data, err := flow.Pack()
	require.Nil(t, err)

	header := data.Block.Header()
	assert.Equal(uint32(1), header.Number())
	assert.Equal(parent.Hash(), header.ParentHash())
	assert.Equal(uint64(42000), header.GasUsed())
	assert.Equal(data.Receipts.RootHash(), header.ReceiptsRoot())
	assert.Equal(data.Block.Transactions().RootHash(), header.TxsRoot())
	assert.Len(data.Receipts, 2)
	assert.Equal(uint64(21000), data.Receipts[0].CumulativeGasUsed)
	assert.Equal(uint64(42000), data.Receipts[1].CumulativeGasUsed)

	// applying the staged changes yields exactly the sealed state root
	saveBlock(t, env, data)
	st, err := env.stater.NewState(header.StateRoot())
	require.Nil(t, err)
	nonce, err := st.GetNonce(env.sender)
	assert.Nil(err)
	assert.Equal(uint64(2), nonce)
}

func TestAdoptNonceOrder(t *testing.T) {
	assert := assert.New(t)
	env := newTestEnv(t)

	flow, err := env.packer.Prepare(env.repo.BestBlock().Header(), 2000)
	require.Nil(t, err)

	// nonce 1 before nonce 0 can never execute
	err = flow.Adopt(env.transfer(t, 1, 21000))
	assert.True(packer.IsBadTx(err))

	assert.Nil(flow.Adopt(env.transfer(t, 0, 21000)))
	assert.Nil(flow.Adopt(env.transfer(t, 1, 21000)))
}

func TestAdoptGasLimitReached(t *testing.T) {
	assert := assert.New(t)
	env := newTestEnv(t)

	env.packer.SetTargetGasLimit(30000)
	flow, err := env.packer.Prepare(env.repo.BestBlock().Header(), 2000)
	require.Nil(t, err)

	require.Nil(t, flow.Adopt(env.transfer(t, 0, 21000)))

	// won't fit anymore, deferred rather than dropped
	err = flow.Adopt(env.transfer(t, 1, 21000))
	assert.True(packer.IsGasLimitReached(err))
	assert.Equal(1, flow.TxCount())
}

func TestAdoptKnownTx(t *testing.T) {
	assert := assert.New(t)
	env := newTestEnv(t)

	flow, err := env.packer.Prepare(env.repo.BestBlock().Header(), 2000)
	require.Nil(t, err)

	trx := env.transfer(t, 0, 21000)
	require.Nil(t, flow.Adopt(trx))
	err = flow.Adopt(trx)
	assert.True(packer.IsKnownTx(err))

	// a tx confirmed in a previous block is known too
	data, err := flow.Pack()
	require.Nil(t, err)
	saveBlock(t, env, data)

	flow2, err := env.packer.Prepare(env.repo.BestBlock().Header(), 3000)
	require.Nil(t, err)
	err = flow2.Adopt(trx)
	assert.True(packer.IsKnownTx(err))
}

func TestPackPaused(t *testing.T) {
	env := newTestEnv(t)

	flow, err := env.packer.Prepare(env.repo.BestBlock().Header(), 2000)
	require.Nil(t, err)

	env.packer.Pause()
	_, err = flow.Pack()
	assert.True(t, packer.IsPackerPaused(err))

	env.packer.Resume()
	_, err = flow.Pack()
	assert.Nil(t, err)
}

func TestChainedBlocks(t *testing.T) {
	assert := assert.New(t)
	env := newTestEnv(t)

	// block 1
	flow, err := env.packer.Prepare(env.repo.BestBlock().Header(), 2000)
	require.Nil(t, err)
	require.Nil(t, flow.Adopt(env.transfer(t, 0, 21000)))
	data1, err := flow.Pack()
	require.Nil(t, err)
	saveBlock(t, env, data1)

	// block 2 on top of block 1's state
	flow, err = env.packer.Prepare(env.repo.BestBlock().Header(), 3000)
	require.Nil(t, err)
	require.Nil(t, flow.Adopt(env.transfer(t, 1, 21000)))
	data2, err := flow.Pack()
	require.Nil(t, err)
	saveBlock(t, env, data2)

	assert.Equal(uint32(2), env.repo.BestBlock().Header().Number())
	assert.Equal(data1.Block.Header().Hash(), data2.Block.Header().ParentHash())
}
