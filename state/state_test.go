// Copyright (c) 2026 The Ember developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberchain/ember/ember"
	"github.com/emberchain/ember/kv"
)

func newTestState(t *testing.T) (*State, kv.GetPutCloser) {
	db, err := kv.NewMem()
	require.Nil(t, err)
	t.Cleanup(func() { db.Close() })
	st, err := New(ember.Bytes32{}, db)
	require.Nil(t, err)
	return st, db
}

func TestAccountBasics(t *testing.T) {
	assert := assert.New(t)
	st, _ := newTestState(t)

	addr := ember.BytesToAddress([]byte("account1"))

	balance, err := st.GetBalance(addr)
	assert.Nil(err)
	assert.Equal(0, balance.Sign())

	exists, err := st.Exists(addr)
	assert.Nil(err)
	assert.False(exists)

	assert.Nil(st.SetBalance(addr, big.NewInt(100)))
	balance, _ = st.GetBalance(addr)
	assert.Equal(big.NewInt(100), balance)

	assert.Nil(st.SetNonce(addr, 7))
	nonce, err := st.GetNonce(addr)
	assert.Nil(err)
	assert.Equal(uint64(7), nonce)

	exists, _ = st.Exists(addr)
	assert.True(exists)
}

func TestCode(t *testing.T) {
	assert := assert.New(t)
	st, _ := newTestState(t)

	addr := ember.BytesToAddress([]byte("contract"))
	code := []byte{0x60, 0x60, 0x60}

	hash, err := st.GetCodeHash(addr)
	assert.Nil(err)
	assert.True(hash.IsZero())

	assert.Nil(st.SetCode(addr, code))
	got, err := st.GetCode(addr)
	assert.Nil(err)
	assert.Equal(code, got)

	hash, _ = st.GetCodeHash(addr)
	assert.Equal(ember.Keccak256(code), hash)
}

func TestStorage(t *testing.T) {
	assert := assert.New(t)
	st, _ := newTestState(t)

	addr := ember.BytesToAddress([]byte("contract"))
	key := ember.Keccak256([]byte("slot0"))
	value := ember.BytesToBytes32([]byte{0x10})

	got, err := st.GetStorage(addr, key)
	assert.Nil(err)
	assert.True(got.IsZero())

	st.SetStorage(addr, key, value)
	got, err = st.GetStorage(addr, key)
	assert.Nil(err)
	assert.Equal(value, got)

	// zero value clears the slot
	st.SetStorage(addr, key, ember.Bytes32{})
	got, _ = st.GetStorage(addr, key)
	assert.True(got.IsZero())
}

func TestCheckpointRevert(t *testing.T) {
	assert := assert.New(t)
	st, _ := newTestState(t)

	addr := ember.BytesToAddress([]byte("account1"))
	assert.Nil(st.SetBalance(addr, big.NewInt(1)))

	chk := st.NewCheckpoint()
	assert.Nil(st.SetBalance(addr, big.NewInt(2)))
	assert.Nil(st.SetNonce(addr, 5))

	st.RevertTo(chk)

	balance, _ := st.GetBalance(addr)
	assert.Equal(big.NewInt(1), balance)
	nonce, _ := st.GetNonce(addr)
	assert.Equal(uint64(0), nonce)
}

func TestStageCommitRoundTrip(t *testing.T) {
	assert := assert.New(t)
	st, db := newTestState(t)

	addr1 := ember.BytesToAddress([]byte("account1"))
	addr2 := ember.BytesToAddress([]byte("account2"))
	slot := ember.Keccak256([]byte("slot"))
	value := ember.BytesToBytes32([]byte{0xca, 0xfe})
	code := []byte{0x1, 0x2, 0x3}

	assert.Nil(st.SetBalance(addr1, big.NewInt(100)))
	assert.Nil(st.SetNonce(addr1, 1))
	assert.Nil(st.SetBalance(addr2, big.NewInt(200)))
	assert.Nil(st.SetCode(addr2, code))
	st.SetStorage(addr2, slot, value)

	stage, err := st.Stage()
	require.Nil(t, err)
	root := stage.Hash()
	assert.False(root.IsZero())

	batch := db.NewBatch()
	committed, err := stage.Commit(batch)
	assert.Nil(err)
	assert.Equal(root, committed)
	assert.Nil(batch.Write())

	// a fresh state at the committed root reads everything back
	reloaded, err := New(root, db)
	require.Nil(t, err)

	balance, _ := reloaded.GetBalance(addr1)
	assert.Equal(big.NewInt(100), balance)
	nonce, _ := reloaded.GetNonce(addr1)
	assert.Equal(uint64(1), nonce)

	balance, _ = reloaded.GetBalance(addr2)
	assert.Equal(big.NewInt(200), balance)
	gotCode, _ := reloaded.GetCode(addr2)
	assert.Equal(code, gotCode)
	gotValue, _ := reloaded.GetStorage(addr2, slot)
	assert.Equal(value, gotValue)
}

func TestStageDeterministicRoot(t *testing.T) {
	assert := assert.New(t)

	build := func() ember.Bytes32 {
		st, _ := newTestState(t)
		for i := byte(0); i < 10; i++ {
			addr := ember.BytesToAddress([]byte{i})
			assert.Nil(st.SetBalance(addr, big.NewInt(int64(i)+1)))
		}
		stage, err := st.Stage()
		assert.Nil(err)
		return stage.Hash()
	}
	assert.Equal(build(), build())
}

func TestDelete(t *testing.T) {
	assert := assert.New(t)
	st, _ := newTestState(t)

	addr := ember.BytesToAddress([]byte("doomed"))
	assert.Nil(st.SetBalance(addr, big.NewInt(5)))
	st.SetStorage(addr, ember.Keccak256([]byte("k")), ember.BytesToBytes32([]byte{1}))

	st.Delete(addr)

	exists, _ := st.Exists(addr)
	assert.False(exists)
	v, _ := st.GetStorage(addr, ember.Keccak256([]byte("k")))
	assert.True(v.IsZero())
}
