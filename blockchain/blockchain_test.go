// Copyright (c) 2026 The Ember developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package blockchain_test

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberchain/ember/block"
	"github.com/emberchain/ember/blockchain"
	"github.com/emberchain/ember/ember"
	"github.com/emberchain/ember/genesis"
	"github.com/emberchain/ember/kv"
	"github.com/emberchain/ember/logdb"
	"github.com/emberchain/ember/tx"
)

var (
	hundredEther = new(big.Int).Mul(big.NewInt(100), ember.Ether)
	twentyGwei   = big.NewInt(20_000_000_000)
)

func newTestChain(t *testing.T, options blockchain.Options) *blockchain.Blockchain {
	db, err := kv.NewMem()
	require.Nil(t, err)

	ldb, err := logdb.NewMem()
	require.Nil(t, err)

	gb := genesis.NewDevnet(uint64(time.Now().Unix()), options.BlockGasLimit, hundredEther)

	bc, err := blockchain.New(db, ldb, gb, nil, options)
	require.Nil(t, err)
	require.Nil(t, bc.Start())
	t.Cleanup(func() {
		_ = bc.Stop()
		ldb.Close()
	})
	return bc
}

func transfer(from, to int, nonce uint64, value *big.Int) *tx.Transaction {
	recipient := genesis.DevAccounts()[to].Address
	return new(tx.Builder).
		Nonce(nonce).
		GasPrice(twentyGwei).
		Gas(21000).
		To(&recipient).
		Value(value).
		Build()
}

func waitForBlock(t *testing.T, ch chan *block.Block) *block.Block {
	select {
	case b := <-ch:
		return b
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for block")
		return nil
	}
}

func TestGenesisBootstrap(t *testing.T) {
	assert := assert.New(t)
	bc := newTestChain(t, blockchain.DefaultOptions())

	best := bc.Repository().BestBlock()
	assert.Equal(uint32(0), best.Header().Number())

	st, err := bc.Stater().NewState(best.Header().StateRoot())
	require.Nil(t, err)
	for _, a := range genesis.DevAccounts() {
		balance, err := st.GetBalance(a.Address)
		assert.Nil(err)
		assert.Equal(hundredEther, balance)
	}
}

func TestLegacyInstamineSingleTx(t *testing.T) {
	assert := assert.New(t)
	options := blockchain.DefaultOptions()
	options.LegacyInstamine = true
	bc := newTestChain(t, options)

	accounts := genesis.DevAccounts()

	hash, err := bc.QueueTransaction(transfer(0, 1, 0, ember.Ether), accounts[0].PrivateKey)
	require.Nil(t, err)

	// in legacy instamine mode the receipt exists when the hash returns
	receipt, err := bc.Repository().GetReceipt(hash)
	require.Nil(t, err)
	assert.Equal(tx.ReceiptStatusSuccessful, receipt.Status)
	assert.Equal(uint64(21000), receipt.GasUsed)

	best := bc.Repository().BestBlock()
	assert.Equal(uint32(1), best.Header().Number())
	require.Len(t, best.Transactions(), 1)
	assert.Equal(hash, best.Transactions()[0].Hash())

	st, err := bc.Stater().NewState(best.Header().StateRoot())
	require.Nil(t, err)

	fee := new(big.Int).Mul(twentyGwei, big.NewInt(21000))
	wantSender := new(big.Int).Sub(hundredEther, ember.Ether)
	wantSender.Sub(wantSender, fee)
	senderBalance, _ := st.GetBalance(accounts[0].Address)
	assert.Equal(wantSender, senderBalance)

	recipientBalance, _ := st.GetBalance(accounts[1].Address)
	assert.Equal(new(big.Int).Add(hundredEther, ember.Ether), recipientBalance)
}

func TestInstamineOneBlockPerTx(t *testing.T) {
	assert := assert.New(t)
	bc := newTestChain(t, blockchain.DefaultOptions())

	ch := make(chan *block.Block, 8)
	sub := bc.SubscribeBlock(ch)
	defer sub.Unsubscribe()

	accounts := genesis.DevAccounts()
	for nonce := uint64(0); nonce < 3; nonce++ {
		_, err := bc.QueueTransaction(transfer(0, 1, nonce, big.NewInt(1)), accounts[0].PrivateKey)
		require.Nil(t, err)
	}

	// each executable tx lands in its own block
	for i := 0; i < 3; i++ {
		b := waitForBlock(t, ch)
		assert.Len(b.Transactions(), 1)
	}
	assert.Equal(uint32(3), bc.Repository().BestBlock().Header().Number())
	assert.Equal(0, bc.Pool().Len())
}

func TestIntervalMining(t *testing.T) {
	assert := assert.New(t)
	options := blockchain.DefaultOptions()
	options.BlockTime = 1
	bc := newTestChain(t, options)

	ch := make(chan *block.Block, 4)
	sub := bc.SubscribeBlock(ch)
	defer sub.Unsubscribe()

	accounts := genesis.DevAccounts()
	for nonce := uint64(0); nonce < 3; nonce++ {
		_, err := bc.QueueTransaction(transfer(0, 1, nonce, big.NewInt(1)), accounts[0].PrivateKey)
		require.Nil(t, err)
	}

	b := waitForBlock(t, ch)
	require.Len(t, b.Transactions(), 3)
	for i, trx := range b.Transactions() {
		assert.Equal(uint64(i), trx.Nonce())
	}
	assert.Equal(0, bc.Pool().Len())
	assert.Equal(uint32(1), bc.Repository().BestBlock().Header().Number())
}

func TestBlockLogsBeforeBlock(t *testing.T) {
	bc := newTestChain(t, blockchain.DefaultOptions())

	type arrival struct {
		kind string
		num  uint32
	}
	arrivals := make(chan arrival, 8)

	logsCh := make(chan *tx.BlockLogs, 4)
	logsSub := bc.SubscribeBlockLogs(logsCh)
	defer logsSub.Unsubscribe()
	blockCh := make(chan *block.Block, 4)
	blockSub := bc.SubscribeBlock(blockCh)
	defer blockSub.Unsubscribe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 2; i++ {
			select {
			case bl := <-logsCh:
				arrivals <- arrival{"logs", bl.BlockNumber}
			case b := <-blockCh:
				arrivals <- arrival{"block", b.Header().Number()}
			case <-time.After(5 * time.Second):
				return
			}
		}
	}()

	accounts := genesis.DevAccounts()
	_, err := bc.QueueTransaction(transfer(0, 1, 0, big.NewInt(1)), accounts[0].PrivateKey)
	require.Nil(t, err)

	<-done
	require.Len(t, arrivals, 2)
	first := <-arrivals
	second := <-arrivals
	assert.Equal(t, "logs", first.kind)
	assert.Equal(t, "block", second.kind)
	assert.Equal(t, first.num, second.num)
}

func TestSnapshotRevert(t *testing.T) {
	assert := assert.New(t)
	options := blockchain.DefaultOptions()
	options.LegacyInstamine = true
	bc := newTestChain(t, options)
	accounts := genesis.DevAccounts()

	genesisRoot := bc.Repository().BestBlock().Header().StateRoot()

	id, err := bc.Snapshot()
	require.Nil(t, err)
	assert.Equal(uint32(1), id)

	tx1, err := bc.QueueTransaction(transfer(0, 1, 0, big.NewInt(1)), accounts[0].PrivateKey)
	require.Nil(t, err)
	tx2, err := bc.QueueTransaction(transfer(0, 1, 1, big.NewInt(2)), accounts[0].PrivateKey)
	require.Nil(t, err)
	assert.Equal(uint32(2), bc.Repository().BestBlock().Header().Number())

	bc.IncreaseTime(3600)

	ok, err := bc.Revert(1)
	require.Nil(t, err)
	assert.True(ok)

	best := bc.Repository().BestBlock()
	assert.Equal(uint32(0), best.Header().Number())
	assert.Equal(genesisRoot, best.Header().StateRoot())

	// confirmed records are gone
	_, _, err = bc.Repository().GetTransaction(tx1)
	assert.True(bc.Repository().IsNotFound(err))
	_, err = bc.Repository().GetReceipt(tx2)
	assert.True(bc.Repository().IsNotFound(err))
	_, err = bc.Repository().GetBlockByNumber(1)
	assert.True(bc.Repository().IsNotFound(err))

	// time offset restored
	assert.Equal(time.Duration(0), bc.Clock().Offset())

	// the discarded snapshot id is gone
	ok, err = bc.Revert(1)
	require.Nil(t, err)
	assert.False(ok)

	// mining continues from the restored head
	hash, err := bc.QueueTransaction(transfer(0, 1, 0, big.NewInt(1)), accounts[0].PrivateKey)
	require.Nil(t, err)
	best = bc.Repository().BestBlock()
	assert.Equal(uint32(1), best.Header().Number())
	assert.Equal(bc.Repository().GenesisBlock().Header().Hash(), best.Header().ParentHash())
	require.Len(t, best.Transactions(), 1)
	assert.Equal(hash, best.Transactions()[0].Hash())
}

func TestRevertUnknownID(t *testing.T) {
	assert := assert.New(t)
	bc := newTestChain(t, blockchain.DefaultOptions())

	before := bc.Repository().BestBlock().Header().Hash()
	ok, err := bc.Revert(99)
	assert.Nil(err)
	assert.False(ok)
	assert.Equal(before, bc.Repository().BestBlock().Header().Hash())
}

func TestNestedSnapshots(t *testing.T) {
	assert := assert.New(t)
	options := blockchain.DefaultOptions()
	options.LegacyInstamine = true
	bc := newTestChain(t, options)
	accounts := genesis.DevAccounts()

	id1, err := bc.Snapshot()
	require.Nil(t, err)
	assert.Equal(uint32(1), id1)

	_, err = bc.QueueTransaction(transfer(0, 1, 0, big.NewInt(1)), accounts[0].PrivateKey)
	require.Nil(t, err)

	id2, err := bc.Snapshot()
	require.Nil(t, err)
	assert.Equal(uint32(2), id2)

	_, err = bc.QueueTransaction(transfer(0, 1, 1, big.NewInt(1)), accounts[0].PrivateKey)
	require.Nil(t, err)
	assert.Equal(uint32(2), bc.Repository().BestBlock().Header().Number())

	// revert to the inner snapshot keeps block 1
	ok, err := bc.Revert(2)
	require.Nil(t, err)
	assert.True(ok)
	assert.Equal(uint32(1), bc.Repository().BestBlock().Header().Number())

	// the outer snapshot is still live
	ok, err = bc.Revert(1)
	require.Nil(t, err)
	assert.True(ok)
	assert.Equal(uint32(0), bc.Repository().BestBlock().Header().Number())
}

func TestSimulationIsolation(t *testing.T) {
	assert := assert.New(t)
	bc := newTestChain(t, blockchain.DefaultOptions())
	accounts := genesis.DevAccounts()

	head := bc.Repository().BestBlock().Header()

	callTx := transfer(0, 1, 0, ember.Ether)
	signed, err := tx.Sign(callTx, accounts[0].PrivateKey)
	require.Nil(t, err)

	_, err = bc.SimulateTransaction(signed, head)
	assert.Nil(err)

	// nothing changed: same head, same root, empty pool
	after := bc.Repository().BestBlock().Header()
	assert.Equal(head.Hash(), after.Hash())
	assert.Equal(head.StateRoot(), after.StateRoot())
	assert.Equal(0, bc.Pool().Len())
}

func TestMineOnDemand(t *testing.T) {
	assert := assert.New(t)
	options := blockchain.DefaultOptions()
	options.BlockTime = 1000 // effectively no automatic mining
	bc := newTestChain(t, options)

	ts := bc.Clock().Now() + 50
	require.Nil(t, bc.Mine(-1, ts, true))

	best := bc.Repository().BestBlock()
	assert.Equal(uint32(1), best.Header().Number())
	assert.Equal(ts, best.Header().Timestamp())
	assert.Len(best.Transactions(), 0)
}

func TestPauseResume(t *testing.T) {
	assert := assert.New(t)
	bc := newTestChain(t, blockchain.DefaultOptions())
	accounts := genesis.DevAccounts()

	bc.Pause()

	_, err := bc.QueueTransaction(transfer(0, 1, 0, big.NewInt(1)), accounts[0].PrivateKey)
	require.Nil(t, err)

	time.Sleep(200 * time.Millisecond)
	assert.Equal(uint32(0), bc.Repository().BestBlock().Header().Number())
	assert.Equal(1, bc.Pool().Len())

	ch := make(chan *block.Block, 4)
	sub := bc.SubscribeBlock(ch)
	defer sub.Unsubscribe()

	bc.Resume()
	b := waitForBlock(t, ch)
	assert.Equal(uint32(1), b.Header().Number())
	assert.Equal(0, bc.Pool().Len())
}

func TestIncreaseTimeAffectsNextBlock(t *testing.T) {
	assert := assert.New(t)
	options := blockchain.DefaultOptions()
	options.LegacyInstamine = true
	bc := newTestChain(t, options)
	accounts := genesis.DevAccounts()

	bc.IncreaseTime(3600)

	_, err := bc.QueueTransaction(transfer(0, 1, 0, big.NewInt(1)), accounts[0].PrivateKey)
	require.Nil(t, err)

	header := bc.Repository().BestBlock().Header()
	assert.InDelta(uint64(time.Now().Unix())+3600, header.Timestamp(), 2)
}

func TestLifecycle(t *testing.T) {
	assert := assert.New(t)

	db, err := kv.NewMem()
	require.Nil(t, err)
	gb := genesis.NewDevnet(uint64(time.Now().Unix()), ember.InitialGasLimit, hundredEther)
	bc, err := blockchain.New(db, nil, gb, nil, blockchain.DefaultOptions())
	require.Nil(t, err)

	assert.Equal(blockchain.StatusStarting, bc.Status())

	// most operations are rejected before start
	_, err = bc.QueueTransaction(transfer(0, 1, 0, big.NewInt(1)), genesis.DevAccounts()[0].PrivateKey)
	assert.True(blockchain.IsLifecycleError(err))

	require.Nil(t, bc.Start())
	assert.Equal(blockchain.StatusStarted, bc.Status())

	require.Nil(t, bc.Stop())
	assert.Equal(blockchain.StatusStopped, bc.Status())

	_, err = bc.QueueTransaction(transfer(0, 1, 0, big.NewInt(1)), genesis.DevAccounts()[0].PrivateKey)
	assert.True(blockchain.IsLifecycleError(err))

	err = bc.Stop()
	assert.True(blockchain.IsLifecycleError(err))
}

func TestOptionsValidate(t *testing.T) {
	assert := assert.New(t)

	options := blockchain.DefaultOptions()
	options.LegacyInstamine = true
	options.BlockTime = 2
	assert.Error(options.Validate())

	options = blockchain.DefaultOptions()
	options.ExtraData = make([]byte, 33)
	assert.Error(options.Validate())

	options = blockchain.DefaultOptions()
	options.Hardfork = "atlantis"
	assert.Error(options.Validate())

	options = blockchain.DefaultOptions()
	assert.Nil(options.Validate())
}
