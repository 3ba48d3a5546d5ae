// Copyright (c) 2026 The Ember developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package txpool maintains unprocessed transactions, bucketed into
// executable ones (contiguous from the account nonce) and pending ones
// (having a nonce gap).
package txpool

import (
	"crypto/ecdsa"
	"math/big"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/event"
	"github.com/inconshreveable/log15"

	"github.com/emberchain/ember/chain"
	"github.com/emberchain/ember/co"
	"github.com/emberchain/ember/ember"
	"github.com/emberchain/ember/state"
	"github.com/emberchain/ember/tx"
)

var log = log15.New("pkg", "txpool")

// Options options for tx pool.
type Options struct {
	Limit           int
	LimitPerAccount int
	MinGasPrice     *big.Int
	BlockGasLimit   uint64
}

// TxEvent will be posted when a tx is admitted or its status changed.
type TxEvent struct {
	Tx         *tx.Transaction
	Executable *bool
}

// TxPool maintains unprocessed transactions.
type TxPool struct {
	options Options
	repo    *chain.Repository
	stater  *state.Stater

	all    *txObjectMap
	lock   sync.Mutex // serializes admission and promotion
	paused bool

	drain  co.Signal
	txFeed event.Feed
	scope  event.SubscriptionScope
	goes   co.Goes
}

// New create a new TxPool instance.
// Close is required to be called at the end.
func New(repo *chain.Repository, stater *state.Stater, options Options) *TxPool {
	return &TxPool{
		options: options,
		repo:    repo,
		stater:  stater,
		all:     newTxObjectMap(),
	}
}

// Close cleans up inner routines.
func (p *TxPool) Close() {
	p.scope.Close()
	p.goes.Wait()
	log.Debug("closed")
}

// SubscribeTxEvent receivers will receive a tx
func (p *TxPool) SubscribeTxEvent(ch chan *TxEvent) event.Subscription {
	return p.scope.Track(p.txFeed.Subscribe(ch))
}

// DrainWaiter creates a waiter signaled whenever the executable set becomes
// non-empty.
func (p *TxPool) DrainWaiter() co.Waiter {
	return p.drain.NewWaiter()
}

// Add admits a new tx into the pool.
//
// If key is non-nil and the tx carries no signature yet, the tx is signed with
// it first, which alters the hash; the finalized tx is returned. The bool result reports whether the tx is
// executable right away.
//
// Adding a tx already in the pool is not an error.
func (p *TxPool) Add(newTx *tx.Transaction, key *ecdsa.PrivateKey) (*tx.Transaction, bool, error) {
	if key != nil && !newTx.HasSignature() {
		signed, err := tx.Sign(newTx, key)
		if err != nil {
			return nil, false, badTxError{err.Error()}
		}
		newTx = signed
	}

	p.lock.Lock()
	defer p.lock.Unlock()

	if p.all.Contains(newTx.Hash()) {
		// tx already in the pool
		obj := p.all.GetByHash(newTx.Hash())
		return newTx, obj.Executable(), nil
	}

	if p.all.Len() >= p.options.Limit {
		return nil, false, txRejectedError{"pool is full"}
	}

	obj, err := resolveTx(newTx)
	if err != nil {
		return nil, false, badTxError{"invalid signature: " + err.Error()}
	}

	st, err := p.bestState()
	if err != nil {
		return nil, false, err
	}
	if err := p.validate(obj, st); err != nil {
		return nil, false, err
	}

	if err := p.all.Add(obj, p.options.LimitPerAccount); err != nil {
		return nil, false, err
	}

	executable := false
	if !p.paused {
		if err := p.promote(obj.Origin(), st); err != nil {
			return nil, false, err
		}
		executable = obj.Executable()
	}

	p.goes.Go(func() {
		exe := executable
		p.txFeed.Send(&TxEvent{newTx, &exe})
	})
	log.Debug("tx added", "hash", newTx.Hash(), "executable", executable)

	if executable {
		p.drain.Signal()
	}
	return newTx, executable, nil
}

// validate runs the admission checks against the current best state.
func (p *TxPool) validate(obj *txObject, st *state.State) error {
	if obj.Size() > ember.MaxTxSize {
		return txRejectedError{"size too large"}
	}
	if obj.GasPrice().Cmp(p.options.MinGasPrice) < 0 {
		return badTxError{"gas price too low"}
	}
	if obj.Gas() > p.options.BlockGasLimit {
		return badTxError{"gas too large"}
	}
	intrinsic, err := obj.IntrinsicGas()
	if err != nil {
		return badTxError{err.Error()}
	}
	if obj.Gas() < intrinsic {
		return badTxError{"intrinsic gas exceeds provided gas"}
	}

	nonce, err := st.GetNonce(obj.Origin())
	if err != nil {
		return err
	}
	if obj.Nonce() < nonce {
		return badTxError{"nonce too low"}
	}

	balance, err := st.GetBalance(obj.Origin())
	if err != nil {
		return err
	}
	if balance.Cmp(obj.Cost()) < 0 {
		return badTxError{"insufficient balance"}
	}
	return nil
}

// promote walks the origin's bucket and flags txs contiguous from the
// account nonce as executable. Stale txs below the account nonce are
// evicted.
func (p *TxPool) promote(origin ember.Address, st *state.State) error {
	nonce, err := st.GetNonce(origin)
	if err != nil {
		return err
	}

	next := nonce
	for _, obj := range p.all.OriginBucket(origin) {
		switch {
		case obj.Nonce() < nonce:
			// settled or stale
			p.all.RemoveByHash(obj.Hash())
		case obj.Nonce() == next:
			if !obj.Executable() {
				p.all.MarkExecutable(obj.Hash(), true)
				newTx := obj.Transaction
				p.goes.Go(func() {
					exe := true
					p.txFeed.Send(&TxEvent{newTx, &exe})
				})
			}
			next++
		default:
			// nonce gap, the rest stays pending
			p.all.MarkExecutable(obj.Hash(), false)
		}
	}
	return nil
}

// Wash re-evaluates the whole pool against the current best state,
// called after the head block changed.
func (p *TxPool) Wash() {
	p.lock.Lock()
	defer p.lock.Unlock()

	if p.paused {
		return
	}
	st, err := p.bestState()
	if err != nil {
		log.Warn("wash skipped", "err", err)
		return
	}
	for _, origin := range p.all.Origins() {
		if err := p.promote(origin, st); err != nil {
			log.Warn("promote failed", "origin", origin, "err", err)
		}
	}
	if len(p.all.ExecutableChains()) > 0 {
		p.drain.Signal()
	}
}

// Get returns a pooled tx by hash, or nil if absent.
func (p *TxPool) Get(hash ember.Bytes32) *tx.Transaction {
	if obj := p.all.GetByHash(hash); obj != nil {
		return obj.Transaction
	}
	return nil
}

// Remove removes a tx from the pool by its hash.
func (p *TxPool) Remove(hash ember.Bytes32) bool {
	if p.all.RemoveByHash(hash) {
		log.Debug("tx removed", "hash", hash)
		return true
	}
	return false
}

// Executables returns executable txs: nonce ascending within an origin;
// origin chains ordered by gas price descending, then by first-seen.
func (p *TxPool) Executables() tx.Transactions {
	chains := p.all.ExecutableChains()
	sort.Slice(chains, func(i, j int) bool {
		cmp := chains[i][0].GasPrice().Cmp(chains[j][0].GasPrice())
		if cmp != 0 {
			return cmp > 0
		}
		return chains[i][0].timeAdded < chains[j][0].timeAdded
	})

	var txs tx.Transactions
	for _, objs := range chains {
		for _, obj := range objs {
			txs = append(txs, obj.Transaction)
		}
	}
	return txs
}

// Clear drops all pool entries.
func (p *TxPool) Clear() {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.all.Clear()
	log.Debug("pool cleared")
}

// Pause suspends promotion and drain signaling. Admission continues.
func (p *TxPool) Pause() {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.paused = true
}

// Resume re-enables promotion, re-evaluating the pool.
func (p *TxPool) Resume() {
	p.lock.Lock()
	p.paused = false
	p.lock.Unlock()
	p.Wash()
}

// Len returns the count of pooled txs.
func (p *TxPool) Len() int {
	return p.all.Len()
}

func (p *TxPool) bestState() (*state.State, error) {
	return p.stater.NewState(p.repo.BestBlock().Header().StateRoot())
}
