// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package eventdb journals committed ledger events into sqlite so they can be queried later.
package eventdb

import (
	"database/sql"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/thor"
)

const eventTableSchema = `CREATE TABLE IF NOT EXISTS event (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	callSeq INTEGER NOT NULL,
	eventIndex INTEGER NOT NULL,
	time INTEGER NOT NULL,
	name TEXT NOT NULL,
	ruleID INTEGER NOT NULL,
	stakeID INTEGER NOT NULL,
	account BLOB,
	data BLOB
);
CREATE INDEX IF NOT EXISTS idx_event_name ON event(name);
CREATE INDEX IF NOT EXISTS idx_event_stake ON event(stakeID);
CREATE INDEX IF NOT EXISTS idx_event_account ON event(account);`

type OrderType string

const (
	ASC  OrderType = "asc"
	DESC OrderType = "desc"
)

// Range bounds the call time, both ends inclusive. To == 0 means unbounded.
type Range struct {
	From uint64 `json:"from"`
	To   uint64 `json:"to"`
}

type Options struct {
	Offset uint64 `json:"offset"`
	Limit  uint64 `json:"limit"`
}

// Filter selects events, unset fields match everything. After skips events up to that sequence.
type Filter struct {
	After   uint64        `json:"after"`
	Name    string        `json:"name"`
	RuleID  *uint64       `json:"ruleID"`
	StakeID *uint64       `json:"stakeID"`
	Account *thor.Address `json:"account"`
	Range   *Range        `json:"range"`
	Order   OrderType     `json:"order"`
	Options *Options      `json:"options"`
}

// Event is one journaled event. Call numbers the ledger call that emitted it, Index is its
// position within that call. RuleID and StakeID are 0 when the event has none.
type Event struct {
	Seq     uint64
	Call    uint64
	Index   uint32
	Time    uint64
	Name    string
	RuleID  uint64
	StakeID uint64
	Account *thor.Address
	Data    []byte
}

// EventDB manages the event journal.
type EventDB struct {
	path          string
	db            *sql.DB
	sqliteVersion string
}

// New opens an event db at path, creating the schema when needed.
func New(path string) (*EventDB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "open event db")
	}
	// one connection, so an in memory db is shared and writes are serialized
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(eventTableSchema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "create event schema")
	}
	s, _, _ := sqlite3.Version()
	return &EventDB{
		path:          path,
		db:            db,
		sqliteVersion: s,
	}, nil
}

// NewMem create a memory sqlite db
func NewMem() (*EventDB, error) {
	return New(":memory:")
}

// InsertCall journals the events of one committed call and returns its call number.
func (db *EventDB) InsertCall(time uint64, events []*Event) (uint64, error) {
	if len(events) == 0 {
		return 0, nil
	}
	tx, err := db.db.Begin()
	if err != nil {
		return 0, err
	}
	var call uint64
	if err := tx.QueryRow("SELECT COALESCE(MAX(callSeq), 0) + 1 FROM event").Scan(&call); err != nil {
		tx.Rollback()
		return 0, err
	}
	for i, event := range events {
		var account []byte
		if event.Account != nil {
			account = event.Account.Bytes()
		}
		if _, err := tx.Exec("INSERT INTO event(callSeq, eventIndex, time, name, ruleID, stakeID, account, data) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			call,
			i,
			time,
			event.Name,
			event.RuleID,
			event.StakeID,
			account,
			event.Data); err != nil {
			tx.Rollback()
			return 0, err
		}
	}
	return call, tx.Commit()
}

// Filter return events with options
func (db *EventDB) Filter(filter *Filter) ([]*Event, error) {
	if filter == nil {
		return db.query("SELECT * FROM event ORDER BY seq ASC")
	}
	var args []any
	stmt := "SELECT * FROM event WHERE 1"
	if filter.After > 0 {
		stmt += " AND seq > ?"
		args = append(args, filter.After)
	}
	if filter.Name != "" {
		stmt += " AND name = ?"
		args = append(args, filter.Name)
	}
	if filter.RuleID != nil {
		stmt += " AND ruleID = ?"
		args = append(args, *filter.RuleID)
	}
	if filter.StakeID != nil {
		stmt += " AND stakeID = ?"
		args = append(args, *filter.StakeID)
	}
	if filter.Account != nil {
		stmt += " AND account = ?"
		args = append(args, filter.Account.Bytes())
	}
	if filter.Range != nil {
		stmt += " AND time >= ?"
		args = append(args, filter.Range.From)
		if filter.Range.To > 0 {
			stmt += " AND time <= ?"
			args = append(args, filter.Range.To)
		}
	}

	if filter.Order == DESC {
		stmt += " ORDER BY seq DESC"
	} else {
		stmt += " ORDER BY seq ASC"
	}

	if filter.Options != nil {
		stmt += " LIMIT ?, ?"
		args = append(args, filter.Options.Offset, filter.Options.Limit)
	}
	return db.query(stmt, args...)
}

func (db *EventDB) query(stmt string, args ...any) ([]*Event, error) {
	rows, err := db.db.Query(stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		var (
			event   Event
			account []byte
		)
		if err := rows.Scan(
			&event.Seq,
			&event.Call,
			&event.Index,
			&event.Time,
			&event.Name,
			&event.RuleID,
			&event.StakeID,
			&account,
			&event.Data,
		); err != nil {
			return nil, err
		}
		if len(account) > 0 {
			addr := thor.BytesToAddress(account)
			event.Account = &addr
		}
		events = append(events, &event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// Path return db's directory
func (db *EventDB) Path() string {
	return db.path
}

// SQLiteVersion returns the version of the linked sqlite library.
func (db *EventDB) SQLiteVersion() string {
	return db.sqliteVersion
}

// Close close sqlite
func (db *EventDB) Close() error {
	return db.db.Close()
}
