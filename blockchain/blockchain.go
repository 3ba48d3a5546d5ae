// Copyright (c) 2026 The Ember developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package blockchain implements the controller of the development chain: it
// linearizes transaction submission, block assembly and database commits,
// keeps a canonical head at all times, and supports arbitrary-depth revert to
// snapshots.
package blockchain

import (
	"context"
	"crypto/ecdsa"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/event"
	"github.com/inconshreveable/log15"
	"github.com/pkg/errors"

	"github.com/emberchain/ember/block"
	"github.com/emberchain/ember/chain"
	"github.com/emberchain/ember/clock"
	"github.com/emberchain/ember/co"
	"github.com/emberchain/ember/ember"
	"github.com/emberchain/ember/genesis"
	"github.com/emberchain/ember/kv"
	"github.com/emberchain/ember/logdb"
	"github.com/emberchain/ember/packer"
	"github.com/emberchain/ember/runtime"
	"github.com/emberchain/ember/state"
	"github.com/emberchain/ember/tx"
	"github.com/emberchain/ember/txpool"
)

var log = log15.New("pkg", "blockchain")

// Status the lifecycle state of the controller.
type Status int32

// Lifecycle states.
const (
	StatusStarting Status = iota
	StatusStarted
	StatusStopping
	StatusStopped
)

func (s Status) String() string {
	switch s {
	case StatusStarting:
		return "starting"
	case StatusStarted:
		return "started"
	case StatusStopping:
		return "stopping"
	case StatusStopped:
		return "stopped"
	}
	return "unknown"
}

// Blockchain coordinates the pool, the packer and the stores.
//
// All head-advancing work is serialized by a single mutex held across
// pack, save and emit, so block saves never interleave and the best pointer
// has exactly one writer. Revert takes the same mutex, which makes it await
// any in-flight save.
type Blockchain struct {
	options Options

	db     kv.GetPutCloser
	repo   *chain.Repository
	stater *state.Stater
	pool   *txpool.TxPool
	packer *packer.Packer
	logdb  *logdb.LogDB
	clock  *clock.Clock
	engine runtime.CallEngine
	snaps  *snapshotManager

	status  int32
	paused  int32
	headMu  sync.Mutex
	started chan struct{}

	finalMu       sync.Mutex
	finalizations map[ember.Bytes32]*finalization

	emitCh chan func()

	feeds struct {
		start     event.Feed
		stop      event.Feed
		block     event.Feed
		blockLogs event.Feed
		pendingTx event.Feed
	}
	scope event.SubscriptionScope

	ctx    context.Context
	cancel func()
	goes   co.Goes
}

type finalization struct {
	once sync.Once
	done chan struct{}
	err  error
}

func (f *finalization) finish(err error) {
	f.once.Do(func() {
		f.err = err
		close(f.done)
	})
}

// New opens the kv store contents (creating the genesis block when the db is
// empty), wires the pool and the packer, and leaves the controller in the
// starting state. Call Start to begin mining.
func New(db kv.GetPutCloser, ldb *logdb.LogDB, gb *genesis.Builder, engine runtime.CallEngine, options Options) (*Blockchain, error) {
	if err := options.Validate(); err != nil {
		return nil, err
	}
	if engine == nil {
		engine = &runtime.NullEngine{}
	}

	genesisBlock, err := gb.Build(db)
	if err != nil {
		return nil, errors.Wrap(err, "build genesis")
	}
	repo, err := chain.NewRepository(db, genesisBlock)
	if err != nil {
		return nil, errors.Wrap(err, "open repository")
	}
	stater := state.NewStater(db)

	pool := txpool.New(repo, stater, txpool.Options{
		Limit:           options.PoolLimit,
		LimitPerAccount: options.PoolLimitPerAccount,
		MinGasPrice:     options.GasPrice,
		BlockGasLimit:   options.BlockGasLimit,
	})

	pk := packer.New(repo, stater, engine, options.Coinbase, options.ExtraData)
	pk.SetTargetGasLimit(options.BlockGasLimit)

	ctx, cancel := context.WithCancel(context.Background())
	bc := &Blockchain{
		options:       options,
		db:            db,
		repo:          repo,
		stater:        stater,
		pool:          pool,
		packer:        pk,
		logdb:         ldb,
		clock:         clock.New(options.Time),
		engine:        engine,
		snaps:         newSnapshotManager(options.SnapshotLimit),
		status:        int32(StatusStarting),
		started:       make(chan struct{}),
		finalizations: make(map[ember.Bytes32]*finalization),
		emitCh:        make(chan func(), 256),
		ctx:           ctx,
		cancel:        cancel,
	}
	return bc, nil
}

// Start begins the configured mining discipline and emits the start event.
func (bc *Blockchain) Start() error {
	if !atomic.CompareAndSwapInt32(&bc.status, int32(StatusStarting), int32(StatusStarted)) {
		return &LifecycleError{Op: "start", Status: bc.Status()}
	}

	if bc.options.BlockTime == 0 {
		bc.goes.Go(bc.instamineLoop)
	} else {
		bc.goes.Go(bc.intervalLoop)
	}
	bc.goes.Go(bc.emitterLoop)

	close(bc.started)
	bc.feeds.start.Send(struct{}{})
	log.Info("controller started",
		"genesis", bc.repo.GenesisBlock().Header().Hash(),
		"blockTime", bc.options.BlockTime)
	return nil
}

// Stop terminates the controller: mining loops wind down, the stop event is
// emitted, listeners are detached and the kv store is closed. If the
// controller is still starting, Stop waits for the start to finish first.
func (bc *Blockchain) Stop() error {
	if bc.Status() == StatusStarting {
		select {
		case <-bc.started:
		case <-time.After(time.Second):
			// start did not finish; the status check below rejects the stop
		}
	}
	if !atomic.CompareAndSwapInt32(&bc.status, int32(StatusStarted), int32(StatusStopping)) {
		return &LifecycleError{Op: "stop", Status: bc.Status()}
	}

	bc.cancel()
	bc.goes.Wait()

	// await any in-flight save
	bc.headMu.Lock()
	defer bc.headMu.Unlock()

	bc.feeds.stop.Send(struct{}{})
	bc.scope.Close()
	bc.pool.Close()

	err := bc.db.Close()
	atomic.StoreInt32(&bc.status, int32(StatusStopped))
	log.Info("controller stopped")
	return err
}

// Status returns the lifecycle state.
func (bc *Blockchain) Status() Status {
	return Status(atomic.LoadInt32(&bc.status))
}

// Pause suspends mining. Transactions keep queueing up.
func (bc *Blockchain) Pause() {
	atomic.StoreInt32(&bc.paused, 1)
	bc.packer.Pause()
}

// Resume re-enables mining and kicks the pool so pending work is picked up.
func (bc *Blockchain) Resume() {
	bc.packer.Resume()
	atomic.StoreInt32(&bc.paused, 0)
	bc.pool.Wash()
}

func (bc *Blockchain) isPaused() bool {
	return atomic.LoadInt32(&bc.paused) != 0
}

// Repository exposes the record stores.
func (bc *Blockchain) Repository() *chain.Repository {
	return bc.repo
}

// Stater exposes the state factory, for read-only account access.
func (bc *Blockchain) Stater() *state.Stater {
	return bc.stater
}

// Pool exposes the transaction pool.
func (bc *Blockchain) Pool() *txpool.TxPool {
	return bc.pool
}

// Clock exposes the chain clock.
func (bc *Blockchain) Clock() *clock.Clock {
	return bc.clock
}

// LogDB exposes the event log index, or nil when logs are not indexed.
func (bc *Blockchain) LogDB() *logdb.LogDB {
	return bc.logdb
}

// SubscribeBlock delivers every saved block, after its blockLogs event.
func (bc *Blockchain) SubscribeBlock(ch chan *block.Block) event.Subscription {
	return bc.scope.Track(bc.feeds.block.Subscribe(ch))
}

// SubscribeBlockLogs delivers the aggregated logs of every saved block,
// strictly before the corresponding block event.
func (bc *Blockchain) SubscribeBlockLogs(ch chan *tx.BlockLogs) event.Subscription {
	return bc.scope.Track(bc.feeds.blockLogs.Subscribe(ch))
}

// SubscribePendingTransaction delivers every queued transaction.
func (bc *Blockchain) SubscribePendingTransaction(ch chan *tx.Transaction) event.Subscription {
	return bc.scope.Track(bc.feeds.pendingTx.Subscribe(ch))
}

// SubscribeStart delivers the start event.
func (bc *Blockchain) SubscribeStart(ch chan struct{}) event.Subscription {
	return bc.scope.Track(bc.feeds.start.Subscribe(ch))
}

// SubscribeStop delivers the stop event.
func (bc *Blockchain) SubscribeStop(ch chan struct{}) event.Subscription {
	return bc.scope.Track(bc.feeds.stop.Subscribe(ch))
}

// emitterLoop delivers deferred event emissions in FIFO order.
func (bc *Blockchain) emitterLoop() {
	for {
		select {
		case <-bc.ctx.Done():
			for {
				select {
				case emit := <-bc.emitCh:
					emit()
				default:
					return
				}
			}
		case emit := <-bc.emitCh:
			emit()
		}
	}
}

// instamineLoop reacts to pool drain signals by mining single-tx blocks, one
// after another, until no executable tx is left.
func (bc *Blockchain) instamineLoop() {
	waiter := bc.pool.DrainWaiter()
	for {
		select {
		case <-bc.ctx.Done():
			return
		case <-waiter.C():
			for len(bc.pool.Executables()) > 0 {
				if bc.isPaused() {
					break
				}
				if err := bc.Mine(1, 0, true); err != nil {
					log.Error("instamine failed", "err", err)
					break
				}
			}
		}
	}
}

// intervalLoop mines one block per interval, with all executable txs.
func (bc *Blockchain) intervalLoop() {
	ticker := time.NewTicker(time.Duration(bc.options.BlockTime) * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-bc.ctx.Done():
			return
		case <-ticker.C:
			if bc.isPaused() {
				continue
			}
			if len(bc.pool.Executables()) == 0 {
				// an idle dev chain stays at its head
				continue
			}
			if err := bc.Mine(-1, 0, true); err != nil {
				log.Error("interval mining failed", "err", err)
			}
		}
	}
}

// Mine packs blocks on demand. maxTxs caps the tx count per block, -1 means
// unlimited. A zero timestamp takes the chain clock. With onlyOneBlock, at
// most one block is produced even when executable txs span gas limits.
//
// Any in-flight block save completes before this one starts.
func (bc *Blockchain) Mine(maxTxs int, timestamp uint64, onlyOneBlock bool) error {
	if s := bc.Status(); s != StatusStarted && s != StatusStarting {
		return &LifecycleError{Op: "mine", Status: s}
	}

	bc.headMu.Lock()
	defer bc.headMu.Unlock()

	for {
		more, err := bc.packAndSave(maxTxs, timestamp)
		if err != nil {
			return err
		}
		if onlyOneBlock || !more {
			return nil
		}
	}
}

// packAndSave produces and persists exactly one block. It reports whether
// more executable txs are left behind for a next block.
// The caller must hold headMu.
func (bc *Blockchain) packAndSave(maxTxs int, timestamp uint64) (more bool, err error) {
	if bc.packer.IsPaused() {
		return false, nil
	}

	parent := bc.repo.BestBlock().Header()

	ts := timestamp
	if ts == 0 {
		ts = bc.clock.Now()
	}
	if ts <= parent.Timestamp() {
		ts = parent.Timestamp() + 1
	}

	flow, err := bc.packer.Prepare(parent, ts)
	if err != nil {
		return false, err
	}

	executables := bc.pool.Executables()
	for _, t := range executables {
		if maxTxs >= 0 && flow.TxCount() >= maxTxs {
			more = true
			break
		}
		if err := flow.Adopt(t); err != nil {
			switch {
			case packer.IsGasLimitReached(err):
				// deferred to a later block, not dropped
				more = true
			case packer.IsKnownTx(err):
				bc.pool.Remove(t.Hash())
				continue
			case packer.IsBadTx(err):
				log.Debug("tx dropped", "hash", t.Hash(), "err", err)
				bc.pool.Remove(t.Hash())
				bc.finalize(t.Hash(), err)
				continue
			default:
				return false, err
			}
			break
		}
	}

	data, err := flow.Pack()
	if err != nil {
		if packer.IsPackerPaused(err) {
			return false, nil
		}
		return false, err
	}

	return more, bc.save(data)
}

// save persists one packed block: state changes and all records go into a
// single batch, the pool settles, and events are emitted with blockLogs
// strictly before block.
// The caller must hold headMu.
func (bc *Blockchain) save(data *packer.BlockData) error {
	var (
		newBlock = data.Block
		header   = newBlock.Header()
		txs      = newBlock.Transactions()
	)

	if err := bc.repo.AddBlock(newBlock, data.Receipts, data.BlockLogs, true, func(w kv.Putter) error {
		_, err := data.Stage.Commit(w)
		return err
	}); err != nil {
		// storage failure terminates this save; head stays unchanged
		return errors.Wrap(err, "save block")
	}

	if bc.logdb != nil {
		if err := bc.logdb.Insert(data.BlockLogs, header.Timestamp()); err != nil {
			log.Warn("log index insert failed", "err", err)
		}
	}

	for _, t := range txs {
		bc.pool.Remove(t.Hash())
	}
	bc.pool.Wash()
	bc.snaps.onBlock(header.Hash())

	// mark included txs confirmed; vm errors surface on the awaited
	// finalization only when configured
	for i, t := range txs {
		var ferr error
		if exec := data.Execs[i]; exec.VMErr != nil && bc.options.VMErrorsOnRPCResponse {
			ferr = &RuntimeError{Cause: exec.VMErr}
		}
		bc.finalize(t.Hash(), ferr)
	}

	emit := func() {
		bc.feeds.blockLogs.Send(data.BlockLogs)
		bc.feeds.block.Send(newBlock)
	}
	if bc.options.LegacyInstamine {
		// defer emission one turn, so the submitting caller observes the
		// mined hash before filter subscribers do; the emitter keeps
		// cross-block FIFO order
		bc.emitCh <- emit
	} else {
		emit()
	}

	log.Info("block sealed",
		"number", header.Number(),
		"hash", header.Hash(),
		"txs", len(txs),
		"gasUsed", header.GasUsed())
	return nil
}

// QueueTransaction submits a tx to the pool, returning its hash. When key is
// given, missing gas price and gas limit are filled with defaults and the tx
// is signed with the key, which finalizes the hash.
//
// In legacy instamine mode the call returns only after the tx is mined, so
// the caller observes the hash when a receipt already exists.
func (bc *Blockchain) QueueTransaction(newTx *tx.Transaction, key *ecdsa.PrivateKey) (ember.Bytes32, error) {
	if s := bc.Status(); s != StatusStarted {
		return ember.Bytes32{}, &LifecycleError{Op: "queueTransaction", Status: s}
	}

	if key != nil && !newTx.HasSignature() {
		signed, err := tx.Sign(bc.fillDefaults(newTx), key)
		if err != nil {
			return ember.Bytes32{}, err
		}
		newTx = signed
	}
	hash := newTx.Hash()

	// the waiter must exist before mining can possibly settle the tx
	var fin *finalization
	if bc.options.LegacyInstamine {
		fin = bc.finalizationOf(hash)
	}

	finalTx, executable, err := bc.pool.Add(newTx, nil)
	if err != nil {
		bc.dropFinalization(hash)
		return ember.Bytes32{}, err
	}

	bc.goes.Go(func() {
		bc.feeds.pendingTx.Send(finalTx)
	})

	if bc.options.LegacyInstamine {
		if !executable {
			// a pending tx settles who knows when; don't hold the caller
			bc.dropFinalization(hash)
			return hash, nil
		}
		select {
		case <-fin.done:
			bc.dropFinalization(hash)
			return hash, fin.err
		case <-bc.ctx.Done():
			return hash, &LifecycleError{Op: "queueTransaction", Status: bc.Status()}
		}
	}
	return hash, nil
}

// fillDefaults rebuilds a to-be-signed tx with configured defaults for
// omitted gas price and gas limit.
func (bc *Blockchain) fillDefaults(t *tx.Transaction) *tx.Transaction {
	gasPrice := t.GasPrice()
	gas := t.Gas()
	if gasPrice.Sign() != 0 && gas != 0 {
		return t
	}
	if gasPrice.Sign() == 0 {
		gasPrice = bc.options.GasPrice
	}
	if gas == 0 {
		gas = bc.options.DefaultTransactionGasLimit
	}
	return new(tx.Builder).
		Nonce(t.Nonce()).
		GasPrice(gasPrice).
		Gas(gas).
		To(t.To()).
		Value(t.Value()).
		Data(t.Data()).
		Build()
}

func (bc *Blockchain) finalizationOf(hash ember.Bytes32) *finalization {
	bc.finalMu.Lock()
	defer bc.finalMu.Unlock()
	if fin, ok := bc.finalizations[hash]; ok {
		return fin
	}
	fin := &finalization{done: make(chan struct{})}
	bc.finalizations[hash] = fin
	return fin
}

func (bc *Blockchain) dropFinalization(hash ember.Bytes32) {
	bc.finalMu.Lock()
	defer bc.finalMu.Unlock()
	delete(bc.finalizations, hash)
}

// finalize marks a tx settled, waking the legacy-instamine submitter if one
// is blocked on it. Settlements nobody registered for are not retained.
func (bc *Blockchain) finalize(hash ember.Bytes32, err error) {
	if !bc.options.LegacyInstamine {
		return
	}
	bc.finalMu.Lock()
	fin, ok := bc.finalizations[hash]
	bc.finalMu.Unlock()
	if ok {
		fin.finish(err)
	}
}

// failPendingFinalizations wakes all blocked submitters with the given error,
// used when a revert drops the pool.
func (bc *Blockchain) failPendingFinalizations(err error) {
	bc.finalMu.Lock()
	defer bc.finalMu.Unlock()
	for hash, fin := range bc.finalizations {
		fin.finish(err)
		delete(bc.finalizations, hash)
	}
}

// SimulateTransaction runs a read-only call on top of the state of the given
// parent block. Neither the head state, the pool nor the db are touched.
func (bc *Blockchain) SimulateTransaction(callTx *tx.Transaction, parent *block.Header) ([]byte, error) {
	if s := bc.Status(); s != StatusStarted {
		return nil, &LifecycleError{Op: "simulateTransaction", Status: s}
	}

	st, err := bc.stater.NewState(parent.StateRoot())
	if err != nil {
		return nil, err
	}
	rt := runtime.New(st, &runtime.BlockContext{
		Coinbase:  bc.options.Coinbase,
		Number:    parent.Number(),
		Timestamp: parent.Timestamp(),
		GasLimit:  bc.options.BlockGasLimit,
		GetBlockHash: func(num uint32) ember.Bytes32 {
			hash, err := bc.repo.GetBlockHashByNumber(num)
			if err != nil {
				return ember.Bytes32{}
			}
			return hash
		},
	}, bc.engine)

	var caller ember.Address
	if callTx.HasSignature() {
		if origin, err := callTx.Origin(); err == nil {
			caller = origin
		}
	}
	gas := callTx.Gas()
	if gas == 0 || gas > bc.options.CallGasLimit {
		gas = bc.options.CallGasLimit
	}

	exec, err := rt.Call(caller, callTx.To(), callTx.Value(), callTx.Data(), gas)
	if err != nil {
		return nil, err
	}
	if exec.VMErr != nil {
		if bc.options.VMErrorsOnRPCResponse {
			return nil, &RuntimeError{Cause: exec.VMErr}
		}
		// revert data is the response
		return exec.Output, nil
	}
	return exec.Output, nil
}

// IncreaseTime shifts the chain clock forward by the given seconds, effective
// on the next block timestamp. Returns the adjusted current time.
func (bc *Blockchain) IncreaseTime(seconds int64) uint64 {
	bc.clock.AdjustTime(seconds)
	return bc.clock.Now()
}

// SetTime sets the chain clock to the given unix timestamp, effective on the
// next block timestamp. Returns the offset applied, in seconds.
func (bc *Blockchain) SetTime(timestamp uint64) int64 {
	return int64(bc.clock.SetTime(timestamp) / time.Second)
}

// Snapshot captures the current head and clock offset, returning the 1-based
// snapshot id.
func (bc *Blockchain) Snapshot() (uint32, error) {
	if s := bc.Status(); s != StatusStarted {
		return 0, &LifecycleError{Op: "snapshot", Status: s}
	}

	// freeze the head while capturing
	bc.headMu.Lock()
	defer bc.headMu.Unlock()

	id := bc.snaps.capture(bc.repo.BestBlock(), bc.clock.Offset())
	if id == 0 {
		return 0, errors.New("snapshot limit reached")
	}
	log.Info("chain snapshot taken", "id", id, "head", bc.repo.BestBlock().Header().Number())
	return id, nil
}

// Revert restores the chain to the snapshot with the given id, discarding
// all snapshots with an equal or higher id. It returns false for an unknown
// id, with no state change.
//
// All pool content is dropped, including txs submitted before the snapshot.
func (bc *Blockchain) Revert(id uint32) (bool, error) {
	if s := bc.Status(); s != StatusStarted {
		return false, &LifecycleError{Op: "revert", Status: s}
	}

	entry := bc.snaps.entry(id)
	if entry == nil {
		return false, nil
	}

	// stop admission of new work, then await the in-flight save
	bc.pool.Pause()
	bc.packer.Pause()
	defer func() {
		bc.packer.Resume()
		bc.pool.Resume()
	}()

	bc.headMu.Lock()
	defer bc.headMu.Unlock()

	bc.pool.Clear()
	bc.failPendingFinalizations(errors.New("tx dropped by revert"))

	targetHash := entry.head.Header().Hash()
	if bc.repo.BestBlock().Header().Hash() != targetHash {
		collected := bc.snaps.unwind(targetHash)
		if err := bc.repo.RemoveBlocks(collected); err != nil {
			return false, errors.Wrap(err, "remove blocks")
		}
		if bc.logdb != nil {
			for _, hash := range collected {
				if err := bc.logdb.RemoveBlock(hash); err != nil {
					log.Warn("log index remove failed", "hash", hash, "err", err)
				}
			}
		}
		if err := bc.repo.SetBest(targetHash); err != nil {
			return false, errors.Wrap(err, "reset best block")
		}
	}

	bc.clock.SetOffset(entry.offset)
	bc.snaps.truncate(id)

	log.Info("chain reverted", "snapshot", id, "head", entry.head.Header().Number())
	return true, nil
}
