// Copyright (c) 2026 The Ember developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberchain/ember/ember"
	"github.com/emberchain/ember/genesis"
	"github.com/emberchain/ember/kv"
	"github.com/emberchain/ember/state"
)

func TestDevAccounts(t *testing.T) {
	accounts := genesis.DevAccounts()
	assert.Len(t, accounts, 10)
	seen := make(map[ember.Address]bool)
	for _, a := range accounts {
		assert.NotNil(t, a.PrivateKey)
		assert.False(t, a.Address.IsZero())
		assert.False(t, seen[a.Address])
		seen[a.Address] = true
	}
	// stable across calls
	assert.Equal(t, accounts[0].Address, genesis.DevAccounts()[0].Address)
}

func TestDevnetBuild(t *testing.T) {
	assert := assert.New(t)
	db, err := kv.NewMem()
	require.Nil(t, err)
	defer db.Close()

	balance := new(big.Int).Mul(big.NewInt(100), ember.Ether)
	b0, err := genesis.NewDevnet(12345, ember.InitialGasLimit, balance).Build(db)
	require.Nil(t, err)

	header := b0.Header()
	assert.Equal(uint32(0), header.Number())
	assert.Equal(uint64(12345), header.Timestamp())
	assert.Equal(ember.InitialGasLimit, header.GasLimit())
	assert.True(header.ParentHash().IsZero())
	assert.Len(b0.Transactions(), 0)

	// the committed state at the header root funds every dev account
	st, err := state.New(header.StateRoot(), db)
	require.Nil(t, err)
	for _, a := range genesis.DevAccounts() {
		got, err := st.GetBalance(a.Address)
		assert.Nil(err)
		assert.Equal(balance, got)
	}
}

func TestBuildDeterministic(t *testing.T) {
	build := func() ember.Bytes32 {
		db, err := kv.NewMem()
		require.Nil(t, err)
		defer db.Close()
		b0, err := genesis.NewDevnet(999, ember.InitialGasLimit, big.NewInt(1)).Build(db)
		require.Nil(t, err)
		return b0.Header().Hash()
	}
	assert.Equal(t, build(), build())
}
