// Copyright (c) 2026 The Ember developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberchain/ember/ember"
	"github.com/emberchain/ember/logdb"
	"github.com/emberchain/ember/tx"
)

func newTestLogDB(t *testing.T) *logdb.LogDB {
	db, err := logdb.NewMem()
	require.Nil(t, err)
	t.Cleanup(db.Close)
	return db
}

func blockLogsFixture(blockNum uint32, addr ember.Address, topic ember.Bytes32) *tx.BlockLogs {
	return &tx.BlockLogs{
		BlockHash:   ember.Keccak256([]byte{byte(blockNum)}),
		BlockNumber: blockNum,
		Logs: []*tx.LogEntry{
			{
				TxIndex: 0,
				TxHash:  ember.Keccak256([]byte("tx"), []byte{byte(blockNum)}),
				Log: &tx.Log{
					Address: addr,
					Topics:  []ember.Bytes32{topic},
					Data:    []byte{0x1},
				},
			},
		},
	}
}

func TestInsertAndFilter(t *testing.T) {
	assert := assert.New(t)
	db := newTestLogDB(t)

	addr1 := ember.BytesToAddress([]byte("contract1"))
	addr2 := ember.BytesToAddress([]byte("contract2"))
	topic := ember.Keccak256([]byte("Transfer"))

	require.Nil(t, db.Insert(blockLogsFixture(1, addr1, topic), 1000))
	require.Nil(t, db.Insert(blockLogsFixture(2, addr2, topic), 1010))
	require.Nil(t, db.Insert(blockLogsFixture(3, addr1, ember.Keccak256([]byte("Approval"))), 1020))

	// no filter returns everything in order
	events, err := db.FilterEvents(context.Background(), nil)
	assert.Nil(err)
	require.Len(t, events, 3)
	assert.Equal(uint32(1), events[0].BlockNumber)
	assert.Equal(uint32(3), events[2].BlockNumber)

	// by address
	events, err = db.FilterEvents(context.Background(), &logdb.EventFilter{Address: &addr1})
	assert.Nil(err)
	assert.Len(events, 2)

	// by topic
	events, err = db.FilterEvents(context.Background(), &logdb.EventFilter{Topics: [5]*ember.Bytes32{&topic}})
	assert.Nil(err)
	assert.Len(events, 2)

	// by range
	events, err = db.FilterEvents(context.Background(), &logdb.EventFilter{Range: &logdb.Range{From: 2, To: 3}})
	assert.Nil(err)
	assert.Len(events, 2)

	// with limit
	events, err = db.FilterEvents(context.Background(), &logdb.EventFilter{Limit: 1})
	assert.Nil(err)
	require.Len(t, events, 1)
	assert.Equal(uint32(1), events[0].BlockNumber)
	require.NotNil(t, events[0].Topics[0])
	assert.Equal(topic, *events[0].Topics[0])
	assert.Equal(uint64(1000), events[0].BlockTime)
}

func TestInsertEmpty(t *testing.T) {
	db := newTestLogDB(t)
	assert.Nil(t, db.Insert(&tx.BlockLogs{BlockNumber: 1}, 1000))

	events, err := db.FilterEvents(context.Background(), nil)
	assert.Nil(t, err)
	assert.Len(t, events, 0)
}

func TestRemoveBlock(t *testing.T) {
	assert := assert.New(t)
	db := newTestLogDB(t)

	addr := ember.BytesToAddress([]byte("contract"))
	topic := ember.Keccak256([]byte("Transfer"))
	bl1 := blockLogsFixture(1, addr, topic)
	bl2 := blockLogsFixture(2, addr, topic)
	require.Nil(t, db.Insert(bl1, 1000))
	require.Nil(t, db.Insert(bl2, 1010))

	assert.Nil(db.RemoveBlock(bl2.BlockHash))

	events, err := db.FilterEvents(context.Background(), nil)
	assert.Nil(err)
	require.Len(t, events, 1)
	assert.Equal(bl1.BlockHash, events[0].BlockHash)
}
