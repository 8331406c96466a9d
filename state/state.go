// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/vechain/stakeledger/cache"
	"github.com/vechain/stakeledger/kv"
	"github.com/vechain/stakeledger/stackedmap"
	"github.com/vechain/stakeledger/thor"
)

const defaultCacheSize = 4096

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

func (e *Error) Unwrap() error {
	return e.cause
}

type (
	storageKey struct {
		addr thor.Address
		key  thor.Bytes32
	}
	balanceKey thor.Address
)

// State manages the ledger world: per contract storage slots and native balances.
// Every write is journaled so it can be reverted to a checkpoint, and flushed to the
// underlying kv store by Stage/Commit.
type State struct {
	db    kv.Store
	cache *cache.LRU[any, any] // committed values only
	sm    *stackedmap.StackedMap
}

// New create state object over db. cacheSize <= 0 selects the default.
func New(db kv.Store, cacheSize int) (*State, error) {
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	c, err := cache.NewLRU[any, any]("state", cacheSize)
	if err != nil {
		return nil, err
	}
	s := &State{db: db, cache: c}
	s.sm = stackedmap.New(s.committedGetter)
	return s, nil
}

// committedGetter implements stackedmap.MapGetter.
func (s *State) committedGetter(key any) (any, bool, error) {
	v, err := s.cache.GetOrLoad(key, s.load)
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (s *State) load(key any) (any, error) {
	switch k := key.(type) {
	case storageKey:
		raw, err := s.db.Get(dbStorageKey(k))
		if err != nil {
			if s.db.IsNotFound(err) {
				return rlp.RawValue(nil), nil
			}
			return nil, err
		}
		return rlp.RawValue(raw), nil
	case balanceKey:
		raw, err := s.db.Get(dbBalanceKey(k))
		if err != nil {
			if s.db.IsNotFound(err) {
				return new(big.Int), nil
			}
			return nil, err
		}
		return new(big.Int).SetBytes(raw), nil
	}
	panic(fmt.Errorf("unexpected key type %+v", key))
}

func dbStorageKey(k storageKey) []byte {
	return append(append([]byte{'s'}, k.addr[:]...), k.key[:]...)
}

func dbBalanceKey(k balanceKey) []byte {
	return append([]byte{'b'}, k[:]...)
}

// GetBalance returns native balance for the given address.
func (s *State) GetBalance(addr thor.Address) (*big.Int, error) {
	v, _, err := s.sm.Get(balanceKey(addr))
	if err != nil {
		return nil, &Error{err}
	}
	return new(big.Int).Set(v.(*big.Int)), nil
}

// SetBalance set native balance for the given address.
func (s *State) SetBalance(addr thor.Address, balance *big.Int) error {
	if balance.Sign() < 0 {
		return &Error{fmt.Errorf("negative balance for %v", addr)}
	}
	s.sm.Put(balanceKey(addr), new(big.Int).Set(balance))
	return nil
}

// GetRawStorage returns storage value in rlp raw for given address and key.
func (s *State) GetRawStorage(addr thor.Address, key thor.Bytes32) (rlp.RawValue, error) {
	v, _, err := s.sm.Get(storageKey{addr, key})
	if err != nil {
		return nil, &Error{err}
	}
	return v.(rlp.RawValue), nil
}

// SetRawStorage set storage value in rlp raw. Empty raw deletes the slot.
func (s *State) SetRawStorage(addr thor.Address, key thor.Bytes32, raw rlp.RawValue) {
	s.sm.Put(storageKey{addr, key}, raw)
}

// EncodeStorage set storage value encoded by given enc method.
func (s *State) EncodeStorage(addr thor.Address, key thor.Bytes32, enc func() ([]byte, error)) error {
	raw, err := enc()
	if err != nil {
		return &Error{err}
	}
	s.SetRawStorage(addr, key, raw)
	return nil
}

// DecodeStorage get and decode storage value.
func (s *State) DecodeStorage(addr thor.Address, key thor.Bytes32, dec func([]byte) error) error {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return err
	}
	if err := dec(raw); err != nil {
		return &Error{err}
	}
	return nil
}

// NewCheckpoint makes a checkpoint of current state.
// It returns revision of the checkpoint.
func (s *State) NewCheckpoint() int {
	return s.sm.Push()
}

// RevertTo revert to checkpoint specified by revision.
func (s *State) RevertTo(revision int) {
	s.sm.PopTo(revision)
}

// Atomic runs fn inside a checkpoint. Every change made by fn is reverted when it fails.
func (s *State) Atomic(fn func() error) error {
	cp := s.NewCheckpoint()
	if err := fn(); err != nil {
		s.RevertTo(cp)
		return err
	}
	return nil
}

// Stage collects the latest value of every key changed since the last commit.
func (s *State) Stage() *Stage {
	changes := make(map[any]any)
	var order []any
	s.sm.Journal(func(k, v any) bool {
		if _, ok := changes[k]; !ok {
			order = append(order, k)
		}
		changes[k] = v
		return true
	})
	return &Stage{state: s, changes: changes, order: order}
}

// Commit flushes all journaled changes into the kv store and starts a fresh journal.
func (s *State) Commit() error {
	if err := s.Stage().Commit(); err != nil {
		return err
	}
	s.sm.PopTo(0)
	return nil
}
