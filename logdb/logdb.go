// Copyright (c) 2026 The Ember developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package logdb indexes event logs in SQLite, serving filter queries.
package logdb

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver

	"github.com/emberchain/ember/ember"
	"github.com/emberchain/ember/tx"
)

const eventTableSchema = `CREATE TABLE IF NOT EXISTS event (
	blockNumber INTEGER NOT NULL,
	blockHash BLOB NOT NULL,
	blockTime INTEGER NOT NULL,
	txHash BLOB NOT NULL,
	txIndex INTEGER NOT NULL,
	logIndex INTEGER NOT NULL,
	address BLOB NOT NULL,
	topic0 BLOB,
	topic1 BLOB,
	topic2 BLOB,
	topic3 BLOB,
	topic4 BLOB,
	data BLOB
);
CREATE INDEX IF NOT EXISTS event_block_number ON event(blockNumber);
CREATE INDEX IF NOT EXISTS event_block_hash ON event(blockHash);
CREATE INDEX IF NOT EXISTS event_address ON event(address);`

// LogDB the SQLite-backed event log index.
type LogDB struct {
	path string
	db   *sql.DB
}

// New creates or opens the log db at the given path.
func New(path string) (logDB *LogDB, err error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if logDB == nil {
			db.Close()
		}
	}()
	// a single connection keeps ":memory:" consistent and serializes writers
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(eventTableSchema); err != nil {
		return nil, err
	}
	return &LogDB{path, db}, nil
}

// NewMem creates a log db in RAM.
func NewMem() (*LogDB, error) {
	return New(":memory:")
}

// Close closes the log db.
func (db *LogDB) Close() {
	db.db.Close()
}

// Path returns the path of the db file.
func (db *LogDB) Path() string {
	return db.path
}

// Insert saves all events of a block, in one sql transaction.
func (db *LogDB) Insert(blockLogs *tx.BlockLogs, blockTime uint64) (err error) {
	if len(blockLogs.Logs) == 0 {
		return nil
	}
	sqlTx, err := db.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			sqlTx.Rollback()
		} else {
			err = sqlTx.Commit()
		}
	}()

	stmt, err := sqlTx.Prepare(`INSERT INTO event(blockNumber, blockHash, blockTime, txHash, txIndex, logIndex, address, topic0, topic1, topic2, topic3, topic4, data)
VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for logIndex, entry := range blockLogs.Logs {
		topics := make([]interface{}, 5)
		for i, topic := range entry.Log.Topics {
			if i >= 5 {
				break
			}
			topics[i] = topic.Bytes()
		}
		if _, err := stmt.Exec(
			blockLogs.BlockNumber,
			blockLogs.BlockHash.Bytes(),
			blockTime,
			entry.TxHash.Bytes(),
			entry.TxIndex,
			logIndex,
			entry.Log.Address.Bytes(),
			topics[0], topics[1], topics[2], topics[3], topics[4],
			entry.Log.Data,
		); err != nil {
			return err
		}
	}
	return nil
}

// RemoveBlock deletes all events of the block with the given hash, used on
// revert.
func (db *LogDB) RemoveBlock(blockHash ember.Bytes32) error {
	_, err := db.db.Exec("DELETE FROM event WHERE blockHash = ?", blockHash.Bytes())
	return err
}

// Event an indexed event log row.
type Event struct {
	BlockNumber uint32
	BlockHash   ember.Bytes32
	BlockTime   uint64
	TxHash      ember.Bytes32
	TxIndex     uint32
	LogIndex    uint32
	Address     ember.Address
	Topics      [5]*ember.Bytes32
	Data        []byte
}

// Range filters events by block number, both bounds inclusive.
type Range struct {
	From uint32
	To   uint32
}

// EventFilter the criteria of a filter query.
type EventFilter struct {
	Address *ember.Address
	Topics  [5]*ember.Bytes32
	Range   *Range
	Limit   uint64
}

// FilterEvents queries indexed events matching the given filter, ordered by
// (blockNumber, txIndex, logIndex).
func (db *LogDB) FilterEvents(ctx context.Context, filter *EventFilter) ([]*Event, error) {
	stmt := "SELECT blockNumber, blockHash, blockTime, txHash, txIndex, logIndex, address, topic0, topic1, topic2, topic3, topic4, data FROM event WHERE 1"
	var args []interface{}

	if filter != nil {
		if filter.Range != nil {
			stmt += " AND blockNumber >= ? AND blockNumber <= ?"
			args = append(args, filter.Range.From, filter.Range.To)
		}
		if filter.Address != nil {
			stmt += " AND address = ?"
			args = append(args, filter.Address.Bytes())
		}
		for i, topic := range filter.Topics {
			if topic != nil {
				stmt += fmt.Sprintf(" AND topic%v = ?", i)
				args = append(args, topic.Bytes())
			}
		}
	}
	stmt += " ORDER BY blockNumber, txIndex, logIndex"
	if filter != nil && filter.Limit > 0 {
		stmt += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := db.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		var (
			event     Event
			blockHash []byte
			txHash    []byte
			address   []byte
			topics    [5][]byte
		)
		if err := rows.Scan(
			&event.BlockNumber,
			&blockHash,
			&event.BlockTime,
			&txHash,
			&event.TxIndex,
			&event.LogIndex,
			&address,
			&topics[0], &topics[1], &topics[2], &topics[3], &topics[4],
			&event.Data,
		); err != nil {
			return nil, err
		}
		event.BlockHash = ember.BytesToBytes32(blockHash)
		event.TxHash = ember.BytesToBytes32(txHash)
		event.Address = ember.BytesToAddress(address)
		for i, topic := range topics {
			if len(topic) > 0 {
				b32 := ember.BytesToBytes32(topic)
				event.Topics[i] = &b32
			}
		}
		events = append(events, &event)
	}
	return events, rows.Err()
}
