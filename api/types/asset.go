// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/asset"
	"github.com/vechain/stakeledger/thor"
)

// Asset is the json form of one asset leg.
type Asset struct {
	Kind   string                `json:"kind" yaml:"kind"`
	Token  *thor.Address         `json:"token,omitempty" yaml:"token,omitempty"`
	ID     *math.HexOrDecimal256 `json:"id,omitempty" yaml:"id,omitempty"`
	Amount *math.HexOrDecimal256 `json:"amount,omitempty" yaml:"amount,omitempty"`
}

type Bundle []Asset

func bigOf(v *math.HexOrDecimal256) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set((*big.Int)(v))
}

func hexOrDecimal(v *big.Int) *math.HexOrDecimal256 {
	if v == nil {
		return nil
	}
	h := math.HexOrDecimal256(*new(big.Int).Set(v))
	return &h
}

// ConvertAsset converts an asset into its json form.
func ConvertAsset(a asset.Asset) Asset {
	out := Asset{
		Kind:   a.Kind.String(),
		Amount: hexOrDecimal(a.Quantity()),
	}
	if a.Kind != asset.Native {
		token := a.Token
		out.Token = &token
	}
	if a.Kind.HasID() {
		out.ID = hexOrDecimal(a.IDOrZero())
	}
	if a.Kind.IsItem() && a.Amount != nil {
		// random legs carry the number of templates in Amount
		out.Amount = hexOrDecimal(a.Amount)
	}
	return out
}

func ConvertBundle(b asset.Bundle) Bundle {
	out := make(Bundle, 0, len(b))
	for _, a := range b {
		out = append(out, ConvertAsset(a))
	}
	return out
}

// Asset parses the json form. Items without an amount default to one.
func (a *Asset) Asset() (asset.Asset, error) {
	kind, err := asset.ParseKind(a.Kind)
	if err != nil {
		return asset.Asset{}, err
	}
	out := asset.Asset{Kind: kind, ID: bigOf(a.ID), Amount: bigOf(a.Amount)}
	if a.Token != nil {
		out.Token = *a.Token
	}
	if kind.IsItem() && a.Amount == nil {
		out.Amount = big.NewInt(1)
	}
	return out, nil
}

func (b Bundle) Bundle() (asset.Bundle, error) {
	out := make(asset.Bundle, 0, len(b))
	for i := range b {
		a, err := b[i].Asset()
		if err != nil {
			return nil, errors.WithMessagef(err, "leg %d", i)
		}
		out = append(out, a)
	}
	return out, nil
}

// ParseKey builds a custody key from query values. token and id may be empty.
func ParseKey(kind, token, id string) (asset.Key, error) {
	k, err := asset.ParseKind(kind)
	if err != nil {
		return asset.Key{}, err
	}
	var addr thor.Address
	if token != "" {
		parsed, err := thor.ParseAddress(token)
		if err != nil {
			return asset.Key{}, errors.WithMessage(err, "token")
		}
		addr = *parsed
	}
	var itemID *big.Int
	if id != "" {
		v, ok := math.ParseBig256(id)
		if !ok {
			return asset.Key{}, errors.Errorf("id: invalid number %q", id)
		}
		itemID = v
	}
	return asset.NewKey(k, addr, itemID), nil
}
