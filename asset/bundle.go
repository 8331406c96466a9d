// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package asset

import (
	"math/big"

	"github.com/holiman/uint256"

	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/thor"
)

// Bundle is an ordered list of assets moved together.
type Bundle []Asset

// Validate checks every leg.
func (b Bundle) Validate() error {
	for _, a := range b {
		if err := a.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// NativeTotal sums the native legs.
func (b Bundle) NativeTotal() *big.Int {
	total := new(big.Int)
	for _, a := range b {
		if a.Kind == Native {
			total.Add(total, a.Quantity())
		}
	}
	return total
}

// Totals sums quantities per custody key, in first seen order.
func (b Bundle) Totals() ([]Key, map[string]*big.Int) {
	var keys []Key
	totals := make(map[string]*big.Int)
	for _, a := range b {
		k := a.Key()
		id := string(k.Bytes())
		if _, ok := totals[id]; !ok {
			keys = append(keys, k)
			totals[id] = new(big.Int)
		}
		totals[id].Add(totals[id], a.Quantity())
	}
	return keys, totals
}

// Clone deep copies the bundle.
func (b Bundle) Clone() Bundle {
	if b == nil {
		return nil
	}
	c := make(Bundle, len(b))
	for i, a := range b {
		c[i] = Asset{Kind: a.Kind, Token: a.Token, ID: a.IDOrZero(), Amount: a.Quantity()}
	}
	return c
}

// Scale multiplies the amount of a quantity asset by m, failing on 256-bit overflow.
// Items are not scaled, callers repeat them instead.
func Scale(a Asset, m uint64) (Asset, error) {
	if a.Kind.IsItem() {
		return a, nil
	}
	x, overflow := uint256.FromBig(a.Quantity())
	if overflow {
		return Asset{}, reverts.ErrInvalidAsset.WithMessagef("amount overflow %v", a.Amount)
	}
	z, overflow := new(uint256.Int).MulOverflow(x, uint256.NewInt(m))
	if overflow {
		return Asset{}, reverts.ErrInvalidAsset.WithMessagef("%v x %d overflows", a.Amount, m)
	}
	return a.WithAmount(toBig(z)), nil
}

// Split divides amount by a basis points ratio. seized = floor(amount*bps/10000), returned is the rest.
func Split(amount *big.Int, bps uint64) (returned, seized *big.Int, err error) {
	if bps > thor.MaxBasisPoints {
		return nil, nil, reverts.ErrRuleInvalid.WithMessagef("penalty %d bps", bps)
	}
	x, overflow := uint256.FromBig(amount)
	if overflow || amount.Sign() < 0 {
		return nil, nil, reverts.ErrInvalidAsset.WithMessagef("amount %v", amount)
	}
	s, overflow := new(uint256.Int).MulDivOverflow(x, uint256.NewInt(bps), uint256.NewInt(thor.MaxBasisPoints))
	if overflow {
		return nil, nil, reverts.ErrInvalidAsset.WithMessagef("amount %v", amount)
	}
	r := new(uint256.Int).Sub(x, s)
	return toBig(r), toBig(s), nil
}

func toBig(z *uint256.Int) *big.Int {
	if z.IsZero() {
		return new(big.Int)
	}
	return z.ToBig()
}
