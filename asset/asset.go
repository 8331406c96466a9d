// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package asset

import (
	"fmt"
	"math/big"

	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/thor"
)

// Kind is the custody kind of an asset.
type Kind uint8

const (
	Native Kind = iota + 1
	Fungible
	NonFungible
	Composite
	Multi
)

// Kinds lists every supported kind.
var Kinds = []Kind{Native, Fungible, NonFungible, Composite, Multi}

func (k Kind) String() string {
	switch k {
	case Native:
		return "native"
	case Fungible:
		return "fungible"
	case NonFungible:
		return "non-fungible"
	case Composite:
		return "composite"
	case Multi:
		return "multi-token"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, reverts.ErrUnsupportedAssetKind.WithMessagef("%q", s)
}

func (k Kind) Valid() bool {
	return k >= Native && k <= Multi
}

// IsItem returns whether assets of the kind are single indivisible items.
func (k Kind) IsItem() bool {
	return k == NonFungible || k == Composite
}

// HasID returns whether the item identifier is meaningful for the kind.
func (k Kind) HasID() bool {
	return k.IsItem() || k == Multi
}

// Asset is one leg of a bundle. Token is zero for Native, ID is only meaningful for
// item and multi-token kinds, Amount is implicitly 1 for items.
type Asset struct {
	Kind   Kind
	Token  thor.Address
	ID     *big.Int
	Amount *big.Int
}

func NewNative(amount *big.Int) Asset {
	return Asset{Kind: Native, ID: new(big.Int), Amount: new(big.Int).Set(amount)}
}

func NewFungible(token thor.Address, amount *big.Int) Asset {
	return Asset{Kind: Fungible, Token: token, ID: new(big.Int), Amount: new(big.Int).Set(amount)}
}

func NewNonFungible(token thor.Address, id *big.Int) Asset {
	return Asset{Kind: NonFungible, Token: token, ID: new(big.Int).Set(id), Amount: big.NewInt(1)}
}

func NewComposite(token thor.Address, id *big.Int) Asset {
	return Asset{Kind: Composite, Token: token, ID: new(big.Int).Set(id), Amount: big.NewInt(1)}
}

func NewMulti(token thor.Address, id, amount *big.Int) Asset {
	return Asset{Kind: Multi, Token: token, ID: new(big.Int).Set(id), Amount: new(big.Int).Set(amount)}
}

// Quantity returns how much of Key() the asset represents.
func (a Asset) Quantity() *big.Int {
	if a.Kind.IsItem() {
		return big.NewInt(1)
	}
	if a.Amount == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(a.Amount)
}

// IDOrZero returns the item identifier, zero when absent.
func (a Asset) IDOrZero() *big.Int {
	if a.ID == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(a.ID)
}

// Key returns the custody key of the asset.
func (a Asset) Key() Key {
	k := Key{Kind: a.Kind, Token: a.Token, ID: new(big.Int)}
	if a.Kind.HasID() {
		k.ID = a.IDOrZero()
	}
	return k
}

// WithID returns a copy of the asset carrying the given item identifier.
func (a Asset) WithID(id *big.Int) Asset {
	a.ID = new(big.Int).Set(id)
	return a
}

// WithAmount returns a copy of the asset carrying the given amount.
func (a Asset) WithAmount(amount *big.Int) Asset {
	a.Amount = new(big.Int).Set(amount)
	return a
}

// Validate checks the asset is well formed. Item identifiers may be zero (wildcard).
func (a Asset) Validate() error {
	if !a.Kind.Valid() {
		return reverts.ErrUnsupportedAssetKind.WithMessagef("kind %d", uint8(a.Kind))
	}
	if a.Kind == Native && !a.Token.IsZero() {
		return reverts.ErrInvalidAsset.WithMessagef("native asset with token %v", a.Token)
	}
	if a.Kind != Native && a.Token.IsZero() {
		return reverts.ErrInvalidAsset.WithMessagef("%v asset without token", a.Kind)
	}
	if a.ID != nil && a.ID.Sign() < 0 {
		return reverts.ErrInvalidAsset.WithMessagef("negative id %v", a.ID)
	}
	if !a.Kind.IsItem() && (a.Amount == nil || a.Amount.Sign() <= 0) {
		return reverts.ErrInvalidAsset.WithMessagef("%v asset with amount %v", a.Kind, a.Amount)
	}
	return nil
}

func (a Asset) String() string {
	switch {
	case a.Kind == Native:
		return fmt.Sprintf("%v(%v)", a.Kind, a.Quantity())
	case a.Kind.IsItem():
		return fmt.Sprintf("%v(%v#%v)", a.Kind, a.Token, a.IDOrZero())
	case a.Kind == Multi:
		return fmt.Sprintf("%v(%v#%v x%v)", a.Kind, a.Token, a.IDOrZero(), a.Quantity())
	}
	return fmt.Sprintf("%v(%v x%v)", a.Kind, a.Token, a.Quantity())
}

// Key identifies a custody bucket: (kind, token, item identifier).
type Key struct {
	Kind  Kind
	Token thor.Address
	ID    *big.Int
}

// NewKey builds a key, ID is dropped for kinds without identifiers.
func NewKey(kind Kind, token thor.Address, id *big.Int) Key {
	k := Key{Kind: kind, Token: token, ID: new(big.Int)}
	if kind.HasID() && id != nil {
		k.ID.Set(id)
	}
	return k
}

// Bytes implements solidity.Key.
func (k Key) Bytes() []byte {
	var id thor.Bytes32
	if k.ID != nil {
		k.ID.FillBytes(id[:])
	}
	b := make([]byte, 0, 1+len(k.Token)+len(id))
	b = append(b, byte(k.Kind))
	b = append(b, k.Token[:]...)
	return append(b, id[:]...)
}

// TokenKey returns the key of the token totals, ignoring the item identifier.
func (k Key) TokenKey() Key {
	return Key{Kind: k.Kind, Token: k.Token, ID: new(big.Int)}
}

// WithID returns a copy of the key for another item identifier.
func (k Key) WithID(id *big.Int) Key {
	return NewKey(k.Kind, k.Token, id)
}

// Validate checks the key names a supported kind.
func (k Key) Validate() error {
	if !k.Kind.Valid() {
		return reverts.ErrUnsupportedAssetKind.WithMessagef("kind %d", uint8(k.Kind))
	}
	if k.ID != nil && (k.ID.Sign() < 0 || k.ID.BitLen() > 256) {
		return reverts.ErrInvalidAsset.WithMessagef("id %v", k.ID)
	}
	return nil
}

func (k Key) String() string {
	if k.Kind == Native {
		return k.Kind.String()
	}
	id := k.ID
	if id == nil {
		id = new(big.Int)
	}
	return fmt.Sprintf("%v/%v/%v", k.Kind, k.Token, id)
}

// Asset returns the asset moving qty of the key.
func (k Key) Asset(qty *big.Int) Asset {
	a := Asset{Kind: k.Kind, Token: k.Token, ID: new(big.Int), Amount: new(big.Int).Set(qty)}
	if k.ID != nil {
		a.ID.Set(k.ID)
	}
	if k.Kind.IsItem() {
		a.Amount = big.NewInt(1)
	}
	return a
}
