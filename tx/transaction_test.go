// Copyright (c) 2026 The Ember developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx_test

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/params"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberchain/ember/ember"
	"github.com/emberchain/ember/tx"
)

func newTestTx() *tx.Transaction {
	to := ember.BytesToAddress([]byte("recipient"))
	return new(tx.Builder).
		Nonce(3).
		GasPrice(big.NewInt(20_000_000_000)).
		Gas(21000).
		To(&to).
		Value(big.NewInt(1e18)).
		Build()
}

func TestSignAndOrigin(t *testing.T) {
	assert := assert.New(t)

	key, err := crypto.GenerateKey()
	require.Nil(t, err)

	unsigned := newTestTx()
	assert.False(unsigned.HasSignature())
	_, err = unsigned.Origin()
	assert.Error(err)

	signed, err := tx.Sign(unsigned, key)
	require.Nil(t, err)
	assert.True(signed.HasSignature())

	origin, err := signed.Origin()
	assert.Nil(err)
	assert.Equal(ember.Address(crypto.PubkeyToAddress(key.PublicKey)), origin)

	// signing changes the hash, not the signing hash
	assert.Equal(unsigned.SigningHash(), signed.SigningHash())
	assert.NotEqual(unsigned.Hash(), signed.Hash())
}

func TestEncodeDecode(t *testing.T) {
	assert := assert.New(t)
	key, _ := crypto.GenerateKey()
	signed, _ := tx.Sign(newTestTx(), key)

	data, err := rlp.EncodeToBytes(signed)
	assert.Nil(err)

	var decoded tx.Transaction
	assert.Nil(rlp.DecodeBytes(data, &decoded))

	assert.Equal(signed.Hash(), decoded.Hash())
	assert.Equal(signed.Nonce(), decoded.Nonce())
	assert.Equal(signed.Gas(), decoded.Gas())
	assert.Equal(signed.Value(), decoded.Value())
	assert.Equal(signed.To(), decoded.To())

	origin, err := decoded.Origin()
	assert.Nil(err)
	assert.Equal(ember.Address(crypto.PubkeyToAddress(key.PublicKey)), origin)
}

func TestIntrinsicGas(t *testing.T) {
	assert := assert.New(t)

	gas, err := newTestTx().IntrinsicGas()
	assert.Nil(err)
	assert.Equal(params.TxGas, gas)

	creation := new(tx.Builder).Gas(100000).Build()
	gas, err = creation.IntrinsicGas()
	assert.Nil(err)
	assert.Equal(params.TxGasContractCreation, gas)

	to := ember.BytesToAddress([]byte("x"))
	withData := new(tx.Builder).To(&to).Data([]byte{0, 0, 1, 2}).Build()
	gas, err = withData.IntrinsicGas()
	assert.Nil(err)
	assert.Equal(params.TxGas+2*params.TxDataZeroGas+2*params.TxDataNonZeroGasEIP2028, gas)
}

func TestCost(t *testing.T) {
	trx := newTestTx()
	want := new(big.Int).Mul(big.NewInt(20_000_000_000), big.NewInt(21000))
	want.Add(want, big.NewInt(1e18))
	assert.Equal(t, want, trx.Cost())
}

func TestBloom(t *testing.T) {
	assert := assert.New(t)

	addr := ember.BytesToAddress([]byte("contract"))
	topic := ember.Keccak256([]byte("Transfer(address,address,uint256)"))
	logs := []*tx.Log{{
		Address: addr,
		Topics:  []ember.Bytes32{topic},
		Data:    []byte{0x1},
	}}

	bloom := tx.LogsBloom(logs)
	assert.True(bloom.Test(addr.Bytes()))
	assert.True(bloom.Test(topic.Bytes()))
	assert.False(bloom.Test([]byte("something else entirely")))

	empty := tx.LogsBloom(nil)
	assert.Equal(tx.Bloom{}, empty)
}

func TestBlockLogs(t *testing.T) {
	assert := assert.New(t)
	key, _ := crypto.GenerateKey()
	tx0, _ := tx.Sign(newTestTx(), key)

	receipts := tx.Receipts{{
		Status:  tx.ReceiptStatusSuccessful,
		GasUsed: 21000,
		Logs: []*tx.Log{
			{Address: ember.BytesToAddress([]byte("a"))},
			{Address: ember.BytesToAddress([]byte("b"))},
		},
	}}

	blockHash := ember.Keccak256([]byte("block"))
	bl := tx.NewBlockLogs(blockHash, 7, tx.Transactions{tx0}, receipts)
	assert.Equal(blockHash, bl.BlockHash)
	assert.Equal(uint32(7), bl.BlockNumber)
	assert.Len(bl.Logs, 2)
	assert.Equal(tx0.Hash(), bl.Logs[0].TxHash)
	assert.Equal(uint32(0), bl.Logs[0].TxIndex)
}

func TestRootHash(t *testing.T) {
	assert := assert.New(t)
	assert.NotEqual(ember.Bytes32{}, tx.Transactions(nil).RootHash())

	key, _ := crypto.GenerateKey()
	tx0, _ := tx.Sign(newTestTx(), key)
	root := tx.Transactions{tx0}.RootHash()
	assert.NotEqual(tx.Transactions(nil).RootHash(), root)
}
