// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package node hosts a ledger over a persistent store. It serializes calls, stamps them with
// the node clock, commits state after every call and journals the delivered events.
package node

import (
	"encoding/json"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/event"
	"github.com/pborman/uuid"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/api/types"
	"github.com/vechain/stakeledger/builtin/access"
	"github.com/vechain/stakeledger/builtin/ledger"
	"github.com/vechain/stakeledger/builtin/tokens"
	"github.com/vechain/stakeledger/eventdb"
	"github.com/vechain/stakeledger/kv"
	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/thor"
	"github.com/vechain/stakeledger/xenv"
)

var logger = log.WithContext("pkg", "node")

// Options for Node.
type Options struct {
	CacheSize int
	// Clock returns the unix time of a call, the wall clock when nil.
	Clock func() uint64
	// TxID returns the transaction id of a call, a random one when nil.
	TxID func() thor.Bytes32
}

// Node is the abstraction of a hosted ledger.
type Node struct {
	mu sync.Mutex

	state    *state.State
	registry *tokens.Registry
	access   *access.Access
	ledger   *ledger.Ledger
	events   *eventdb.EventDB
	clock    func() uint64
	txID     func() thor.Bytes32

	ch      chan []ledger.Event
	sub     event.Subscription
	callAt  uint64
	notify  chan struct{}
	notifyL sync.Mutex
}

// New is a factory for Node. The genesis is applied when db holds no ledger yet, events may be nil.
func New(db kv.Store, gen *Genesis, events *eventdb.EventDB, opts Options) (*Node, error) {
	st, err := state.New(db, opts.CacheSize)
	if err != nil {
		return nil, err
	}
	clock := opts.Clock
	if clock == nil {
		clock = func() uint64 { return uint64(time.Now().Unix()) }
	}

	registry := tokens.NewRegistry(st)
	acl := access.New(thor.AccessAddress, st)
	n := &Node{
		state:    st,
		registry: registry,
		access:   acl,
		ledger:   ledger.New(thor.LedgerAddress, st, acl, registry),
		events:   events,
		clock:    clock,
		txID:     opts.TxID,
		ch:       make(chan []ledger.Event, 256),
		notify:   make(chan struct{}),
	}

	if gen == nil {
		gen = &Genesis{}
	}
	if err := deployTokens(registry, gen.Tokens); err != nil {
		return nil, errors.WithMessage(err, "genesis")
	}
	admin, err := acl.Admin()
	if err != nil {
		return nil, err
	}
	if admin.IsZero() {
		if err := n.applyGenesis(gen, clock()); err != nil {
			return nil, err
		}
		logger.Info("genesis applied", "admin", gen.Admin, "tokens", len(gen.Tokens), "balances", len(gen.Balances))
	}
	if err := st.Commit(); err != nil {
		return nil, errors.Wrap(err, "commit genesis")
	}

	n.sub = n.ledger.SubscribeEvents(n.ch)
	return n, nil
}

func (n *Node) Ledger() *ledger.Ledger      { return n.ledger }
func (n *Node) Registry() *tokens.Registry { return n.registry }
func (n *Node) Access() *access.Access     { return n.access }

// Events returns the event journal, nil when the node keeps none.
func (n *Node) Events() *eventdb.EventDB { return n.events }

// Lock acquires exclusive use of the ledger.
func (n *Node) Lock() {
	n.mu.Lock()
}

// Unlock commits the changes made while locked, journals delivered events and releases the ledger.
func (n *Node) Unlock() {
	n.flush()
	n.mu.Unlock()
}

// NewEnv builds the environment of a call made now. Must be called while locked.
func (n *Node) NewEnv(caller thor.Address, value *big.Int) *xenv.Environment {
	n.callAt = n.clock()
	var txID thor.Bytes32
	if n.txID != nil {
		txID = n.txID()
	} else {
		txID = thor.Blake2b(uuid.NewRandom())
	}
	return xenv.New(
		&xenv.BlockContext{Time: n.callAt},
		&xenv.TransactionContext{ID: txID, Origin: caller},
		caller,
		value,
	)
}

// Exec runs fn as one call of caller attaching value.
func (n *Node) Exec(caller thor.Address, value *big.Int, fn func(env *xenv.Environment) error) error {
	_, err := n.Call(caller, value, fn)
	return err
}

// Call is Exec returning the events the call delivered.
func (n *Node) Call(caller thor.Address, value *big.Int, fn func(env *xenv.Environment) error) ([]ledger.Event, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	err := fn(n.NewEnv(caller, value))
	return n.flush(), err
}

// View runs read only fn against the ledger.
func (n *Node) View(fn func(l *ledger.Ledger) error) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return fn(n.ledger)
}

// EventWaiter returns a channel closed when the next batch of events has been journaled.
func (n *Node) EventWaiter() <-chan struct{} {
	n.notifyL.Lock()
	defer n.notifyL.Unlock()
	return n.notify
}

func (n *Node) broadcast() {
	n.notifyL.Lock()
	close(n.notify)
	n.notify = make(chan struct{})
	n.notifyL.Unlock()
}

func (n *Node) flush() []ledger.Event {
	if err := n.state.Commit(); err != nil {
		logger.Error("failed to commit state", "err", err)
	}

	var delivered []ledger.Event
	for {
		select {
		case batch := <-n.ch:
			delivered = append(delivered, batch...)
			if err := n.record(batch); err != nil {
				logger.Error("failed to journal events", "err", err)
			}
		default:
			if len(delivered) > 0 {
				n.broadcast()
			}
			return delivered
		}
	}
}

func (n *Node) record(batch []ledger.Event) error {
	if n.events == nil {
		return nil
	}
	rows := make([]*eventdb.Event, 0, len(batch))
	for _, ev := range batch {
		converted := types.ConvertEvent(ev)
		data, err := json.Marshal(converted.Data)
		if err != nil {
			return err
		}
		rows = append(rows, &eventdb.Event{
			Name:    converted.Name,
			RuleID:  converted.RuleID,
			StakeID: converted.StakeID,
			Account: converted.Account,
			Data:    data,
		})
	}
	call, err := n.events.InsertCall(n.callAt, rows)
	if err != nil {
		return err
	}
	logger.Trace("events journaled", "call", call, "events", len(rows))
	return nil
}

// Close stops journaling and ends ledger subscriptions.
func (n *Node) Close() {
	n.sub.Unsubscribe()
	n.ledger.Close()
}
