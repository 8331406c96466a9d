// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"
)

// Stage abstracts changes waiting to be written into the kv store.
type Stage struct {
	state   *State
	changes map[any]any
	order   []any
}

// Len returns the number of changed keys.
func (s *Stage) Len() int {
	return len(s.order)
}

// Commit writes all changes in one batch and refreshes the committed cache.
func (s *Stage) Commit() error {
	batch := s.state.db.NewBatch()
	for _, key := range s.order {
		var err error
		switch k := key.(type) {
		case storageKey:
			raw := s.changes[k].(rlp.RawValue)
			if len(raw) == 0 {
				err = batch.Delete(dbStorageKey(k))
			} else {
				err = batch.Put(dbStorageKey(k), raw)
			}
		case balanceKey:
			bal := s.changes[k].(*big.Int)
			if bal.Sign() == 0 {
				err = batch.Delete(dbBalanceKey(k))
			} else {
				err = batch.Put(dbBalanceKey(k), bal.Bytes())
			}
		}
		if err != nil {
			return errors.Wrap(err, "stage")
		}
	}
	if err := batch.Write(); err != nil {
		return errors.Wrap(err, "commit")
	}
	for _, key := range s.order {
		s.state.cache.Add(key, s.changes[key])
	}
	return nil
}
