// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package custody

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/asset"
	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/builtin/solidity"
	"github.com/vechain/stakeledger/thor"
)

// Table is a custody bucket table: asset key to held quantity. Empty buckets are cleared.
type Table struct {
	buckets *solidity.Mapping[asset.Key, *big.Int]
}

func NewTable(sctx *solidity.Context, pos string) *Table {
	return &Table{
		buckets: solidity.NewMapping[asset.Key, *big.Int](sctx, thor.BytesToBytes32([]byte(pos))),
	}
}

// Get returns the quantity held for key.
func (t *Table) Get(key asset.Key) (*big.Int, error) {
	v, err := t.buckets.Get(key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get bucket")
	}
	if v == nil {
		return new(big.Int), nil
	}
	return v, nil
}

func (t *Table) set(key asset.Key, v *big.Int) error {
	if v.Sign() == 0 {
		t.buckets.Delete(key)
		return nil
	}
	return t.buckets.Set(key, v)
}

func (t *Table) Add(key asset.Key, qty *big.Int) error {
	v, err := t.Get(key)
	if err != nil {
		return err
	}
	return t.set(key, v.Add(v, qty))
}

// Sub decreases the bucket, failing with shortfall when it holds less than qty.
func (t *Table) Sub(key asset.Key, qty *big.Int, shortfall *reverts.ErrRevert) error {
	v, err := t.Get(key)
	if err != nil {
		return err
	}
	if v.Cmp(qty) < 0 {
		return shortfall.WithMessagef("%v holds %v, required %v", key, v, qty)
	}
	return t.set(key, v.Sub(v, qty))
}

// Drain empties the bucket and returns what it held.
func (t *Table) Drain(key asset.Key) (*big.Int, error) {
	v, err := t.Get(key)
	if err != nil {
		return nil, err
	}
	t.buckets.Delete(key)
	return v, nil
}
