// Copyright (c) 2026 The Ember developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package block_test

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/assert"

	"github.com/emberchain/ember/block"
	"github.com/emberchain/ember/ember"
	"github.com/emberchain/ember/tx"
)

func TestBlockBuild(t *testing.T) {
	assert := assert.New(t)

	key, _ := crypto.GenerateKey()
	to := ember.BytesToAddress([]byte("to"))
	trx, _ := tx.Sign(new(tx.Builder).
		Nonce(0).
		GasPrice(big.NewInt(1)).
		Gas(21000).
		To(&to).
		Value(big.NewInt(10)).
		Build(), key)

	parentHash := ember.Keccak256([]byte("parent"))
	stateRoot := ember.Keccak256([]byte("state"))

	b := new(block.Builder).
		ParentHash(parentHash).
		Number(1).
		Coinbase(ember.BytesToAddress([]byte("miner"))).
		Timestamp(12345).
		GasLimit(ember.InitialGasLimit).
		GasUsed(21000).
		StateRoot(stateRoot).
		ExtraData([]byte("extra")).
		Transaction(trx).
		Build()

	h := b.Header()
	assert.Equal(parentHash, h.ParentHash())
	assert.Equal(uint32(1), h.Number())
	assert.Equal(uint64(12345), h.Timestamp())
	assert.Equal(ember.InitialGasLimit, h.GasLimit())
	assert.Equal(uint64(21000), h.GasUsed())
	assert.Equal(stateRoot, h.StateRoot())
	assert.Equal([]byte("extra"), h.ExtraData())
	assert.Equal(tx.Transactions{trx}.RootHash(), h.TxsRoot())
	assert.Len(b.Transactions(), 1)
}

func TestBlockEncodeDecode(t *testing.T) {
	assert := assert.New(t)

	key, _ := crypto.GenerateKey()
	to := ember.BytesToAddress([]byte("to"))
	trx, _ := tx.Sign(new(tx.Builder).
		GasPrice(big.NewInt(1)).
		Gas(21000).
		To(&to).
		Value(big.NewInt(10)).
		Build(), key)

	b := new(block.Builder).
		ParentHash(ember.Keccak256([]byte("parent"))).
		Number(8).
		Timestamp(99).
		GasLimit(1000000).
		Transaction(trx).
		Build()

	data, err := rlp.EncodeToBytes(b)
	assert.Nil(err)

	var decoded block.Block
	assert.Nil(rlp.DecodeBytes(data, &decoded))

	assert.Equal(b.Header().Hash(), decoded.Header().Hash())
	assert.Equal(b.Header().Number(), decoded.Header().Number())
	assert.Len(decoded.Transactions(), 1)
	assert.Equal(trx.Hash(), decoded.Transactions()[0].Hash())

	// byte-for-byte round trip
	data2, err := rlp.EncodeToBytes(&decoded)
	assert.Nil(err)
	assert.Equal(data, data2)
}

func TestHeaderHashStability(t *testing.T) {
	assert := assert.New(t)

	build := func() *block.Block {
		return new(block.Builder).
			ParentHash(ember.Keccak256([]byte("p"))).
			Number(3).
			Timestamp(1).
			Build()
	}
	assert.Equal(build().Header().Hash(), build().Header().Hash())

	different := new(block.Builder).
		ParentHash(ember.Keccak256([]byte("p"))).
		Number(4).
		Timestamp(1).
		Build()
	assert.NotEqual(build().Header().Hash(), different.Header().Hash())
}
