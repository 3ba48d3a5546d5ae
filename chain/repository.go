// Copyright (c) 2026 The Ember developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package chain provides the indexed persistence of blocks, transactions,
// receipts and block logs.
package chain

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"

	"github.com/emberchain/ember/block"
	"github.com/emberchain/ember/co"
	"github.com/emberchain/ember/ember"
	"github.com/emberchain/ember/kv"
	"github.com/emberchain/ember/tx"
)

var errNotFound = errors.New("not found")

// Repository stores blocks, txs, receipts and block logs.
//
// All writes belonging to one block commit are issued inside a single batch,
// so a partially saved block can never be observed.
type Repository struct {
	db      kv.GetPutter
	genesis *block.Block

	best atomic.Value
	tick co.Signal

	caches struct {
		blocks   *lru.Cache
		txs      *lru.Cache
		receipts *lru.Cache
	}
}

// NewRepository create an instance of repository.
func NewRepository(db kv.GetPutter, genesis *block.Block) (*Repository, error) {
	if genesis.Header().Number() != 0 {
		return nil, errors.New("genesis number != 0")
	}
	if len(genesis.Transactions()) != 0 {
		return nil, errors.New("genesis block should not have transactions")
	}

	repo := &Repository{
		db:      db,
		genesis: genesis,
	}
	repo.caches.blocks, _ = lru.New(512)
	repo.caches.txs, _ = lru.New(2048)
	repo.caches.receipts, _ = lru.New(2048)

	propGetter := propBucket.NewGetter(db)
	if val, err := propGetter.Get(bestBlockKey); err != nil {
		if !propGetter.IsNotFound(err) {
			return nil, err
		}
		// empty db, write genesis
		if err := repo.AddBlock(genesis, nil, tx.NewBlockLogs(genesis.Header().Hash(), 0, nil, nil), true); err != nil {
			return nil, errors.Wrap(err, "save genesis")
		}
	} else {
		bestHash := ember.BytesToBytes32(val)
		existing, err := repo.GetBlockByNumber(0)
		if err != nil {
			return nil, errors.Wrap(err, "get existing genesis")
		}
		if existing.Header().Hash() != genesis.Header().Hash() {
			return nil, errors.New("genesis mismatch")
		}
		best, err := repo.GetBlock(bestHash)
		if err != nil {
			return nil, errors.Wrap(err, "get best block")
		}
		repo.best.Store(best)
	}
	return repo, nil
}

// GenesisBlock returns the genesis block.
func (r *Repository) GenesisBlock() *block.Block {
	return r.genesis
}

// EarliestBlock returns the earliest stored block, which is the genesis.
func (r *Repository) EarliestBlock() *block.Block {
	return r.genesis
}

// BestBlock returns the newest block on the canonical chain.
func (r *Repository) BestBlock() *block.Block {
	return r.best.Load().(*block.Block)
}

// AddBlock saves a new block with its receipts and aggregated logs.
// All writes go through one batch, including any extra commits a caller
// passes in (typically the staged state changes of the block). If asBest is
// true, the best pointer moves to the new block within the same batch.
func (r *Repository) AddBlock(newBlock *block.Block, receipts tx.Receipts, blockLogs *tx.BlockLogs, asBest bool, commits ...func(kv.Putter) error) error {
	var (
		header = newBlock.Header()
		hash   = header.Hash()
		num    = header.Number()
		txs    = newBlock.Transactions()
	)

	if num != 0 {
		if _, err := r.GetBlock(header.ParentHash()); err != nil {
			if r.IsNotFound(err) {
				return errors.New("parent missing")
			}
			return err
		}
	}
	if len(txs) != len(receipts) {
		return errors.New("txs count != receipts count")
	}

	batch := r.db.NewBatch()
	var (
		blockPutter     = blockBucket.NewPutter(batch)
		numPutter       = numIndexBucket.NewPutter(batch)
		txPutter        = txBucket.NewPutter(batch)
		receiptPutter   = receiptBucket.NewPutter(batch)
		blockLogsPutter = blockLogsBucket.NewPutter(batch)
		propPutter      = propBucket.NewPutter(batch)
	)

	stored := make([]*storedTx, 0, len(txs))
	for i, t := range txs {
		txHash := t.Hash()
		meta := TxMeta{
			BlockHash:   hash,
			BlockNumber: num,
			Index:       uint64(i),
			Reverted:    receipts[i].Reverted(),
		}
		if err := saveTransaction(txPutter, t, meta); err != nil {
			return err
		}
		stored = append(stored, &storedTx{t, meta})

		if err := saveReceipt(receiptPutter, txHash, receipts[i]); err != nil {
			return err
		}
	}

	if blockLogs != nil {
		if err := saveBlockLogs(blockLogsPutter, blockLogs); err != nil {
			return err
		}
	}

	if err := saveBlock(blockPutter, newBlock); err != nil {
		return err
	}
	if err := numPutter.Put(numKey(num), hash[:]); err != nil {
		return err
	}
	if asBest {
		if err := propPutter.Put(bestBlockKey, hash[:]); err != nil {
			return err
		}
	}
	for _, commit := range commits {
		if err := commit(batch); err != nil {
			return err
		}
	}

	if err := batch.Write(); err != nil {
		return err
	}

	for i, st := range stored {
		txHash := st.Tx.Hash()
		r.caches.txs.Add(txHash, st)
		r.caches.receipts.Add(txHash, receipts[i])
	}
	r.caches.blocks.Add(hash, newBlock)
	if asBest {
		r.best.Store(newBlock)
		r.tick.Broadcast()
	}
	return nil
}

// RemoveBlocks deletes the blocks with the given hashes together with their
// transactions, receipts, block logs and number index entries, all in one
// batch. The best pointer is left untouched; use SetBest afterwards.
func (r *Repository) RemoveBlocks(hashes []ember.Bytes32) error {
	var (
		batch = r.db.NewBatch()

		blockPutter     = blockBucket.NewPutter(batch)
		numPutter       = numIndexBucket.NewPutter(batch)
		txPutter        = txBucket.NewPutter(batch)
		receiptPutter   = receiptBucket.NewPutter(batch)
		blockLogsPutter = blockLogsBucket.NewPutter(batch)

		removed []*block.Block
	)

	for _, hash := range hashes {
		b, err := r.GetBlock(hash)
		if err != nil {
			return err
		}
		num := b.Header().Number()

		for _, t := range b.Transactions() {
			txHash := t.Hash()
			if err := txPutter.Delete(txHash[:]); err != nil {
				return err
			}
			if err := receiptPutter.Delete(txHash[:]); err != nil {
				return err
			}
		}
		if err := blockLogsPutter.Delete(numKey(num)); err != nil {
			return err
		}
		if err := numPutter.Delete(numKey(num)); err != nil {
			return err
		}
		if err := blockPutter.Delete(hash[:]); err != nil {
			return err
		}
		removed = append(removed, b)
	}

	if err := batch.Write(); err != nil {
		return err
	}
	for _, b := range removed {
		for _, t := range b.Transactions() {
			r.caches.txs.Remove(t.Hash())
			r.caches.receipts.Remove(t.Hash())
		}
		r.caches.blocks.Remove(b.Header().Hash())
	}
	return nil
}

// SetBest moves the best pointer to the block with the given hash.
func (r *Repository) SetBest(hash ember.Bytes32) error {
	b, err := r.GetBlock(hash)
	if err != nil {
		return err
	}
	if err := propBucket.NewPutter(r.db).Put(bestBlockKey, hash[:]); err != nil {
		return err
	}
	r.best.Store(b)
	r.tick.Broadcast()
	return nil
}

// GetBlock get block by hash.
func (r *Repository) GetBlock(hash ember.Bytes32) (*block.Block, error) {
	if cached, ok := r.caches.blocks.Get(hash); ok {
		return cached.(*block.Block), nil
	}

	getter := blockBucket.NewGetter(r.db)
	sb, err := loadStoredBlock(getter, hash)
	if err != nil {
		if getter.IsNotFound(err) {
			return nil, errNotFound
		}
		return nil, err
	}
	txs := make(tx.Transactions, len(sb.TxHashes))
	for i, txHash := range sb.TxHashes {
		st, err := r.getTransaction(txHash)
		if err != nil {
			return nil, err
		}
		txs[i] = st.Tx
	}
	b := block.Compose(sb.Header, txs)
	r.caches.blocks.Add(hash, b)
	return b, nil
}

// GetHeader get block header by hash.
func (r *Repository) GetHeader(hash ember.Bytes32) (*block.Header, error) {
	b, err := r.GetBlock(hash)
	if err != nil {
		return nil, err
	}
	return b.Header(), nil
}

// GetBlockHashByNumber looks up the canonical block hash for the given number.
func (r *Repository) GetBlockHashByNumber(num uint32) (ember.Bytes32, error) {
	getter := numIndexBucket.NewGetter(r.db)
	val, err := getter.Get(numKey(num))
	if err != nil {
		if getter.IsNotFound(err) {
			return ember.Bytes32{}, errNotFound
		}
		return ember.Bytes32{}, err
	}
	return ember.BytesToBytes32(val), nil
}

// GetBlockByNumber get block on the canonical chain by number.
func (r *Repository) GetBlockByNumber(num uint32) (*block.Block, error) {
	hash, err := r.GetBlockHashByNumber(num)
	if err != nil {
		return nil, err
	}
	return r.GetBlock(hash)
}

func (r *Repository) getTransaction(txHash ember.Bytes32) (*storedTx, error) {
	if cached, ok := r.caches.txs.Get(txHash); ok {
		return cached.(*storedTx), nil
	}
	getter := txBucket.NewGetter(r.db)
	st, err := loadTransaction(getter, txHash)
	if err != nil {
		if getter.IsNotFound(err) {
			return nil, errNotFound
		}
		return nil, err
	}
	r.caches.txs.Add(txHash, st)
	return st, nil
}

// GetTransaction get a confirmed transaction and its location by hash.
func (r *Repository) GetTransaction(txHash ember.Bytes32) (*tx.Transaction, *TxMeta, error) {
	st, err := r.getTransaction(txHash)
	if err != nil {
		return nil, nil, err
	}
	meta := st.Meta
	return st.Tx, &meta, nil
}

// GetReceipt get a tx receipt by tx hash.
func (r *Repository) GetReceipt(txHash ember.Bytes32) (*tx.Receipt, error) {
	if cached, ok := r.caches.receipts.Get(txHash); ok {
		return cached.(*tx.Receipt), nil
	}
	getter := receiptBucket.NewGetter(r.db)
	receipt, err := loadReceipt(getter, txHash)
	if err != nil {
		if getter.IsNotFound(err) {
			return nil, errNotFound
		}
		return nil, err
	}
	r.caches.receipts.Add(txHash, receipt)
	return receipt, nil
}

// GetBlockReceipts get all receipts of the block with the given hash, in
// transaction order.
func (r *Repository) GetBlockReceipts(hash ember.Bytes32) (tx.Receipts, error) {
	b, err := r.GetBlock(hash)
	if err != nil {
		return nil, err
	}
	txs := b.Transactions()
	receipts := make(tx.Receipts, len(txs))
	for i, t := range txs {
		receipt, err := r.GetReceipt(t.Hash())
		if err != nil {
			return nil, err
		}
		receipts[i] = receipt
	}
	return receipts, nil
}

// GetBlockLogs get aggregated logs of the block with the given number.
func (r *Repository) GetBlockLogs(num uint32) (*tx.BlockLogs, error) {
	getter := blockLogsBucket.NewGetter(r.db)
	logs, err := loadBlockLogs(getter, num)
	if err != nil {
		if getter.IsNotFound(err) {
			return nil, errNotFound
		}
		return nil, err
	}
	return logs, nil
}

// IsNotFound returns if the given error means not found.
func (r *Repository) IsNotFound(err error) bool {
	return err == errNotFound || r.db.IsNotFound(err)
}

// NewTicker create a signal Waiter to receive event that the best block changed.
func (r *Repository) NewTicker() co.Waiter {
	return r.tick.NewWaiter()
}
