// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package asset

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/thor"
	"github.com/vechain/stakeledger/xenv"
)

var logger = log.WithContext("pkg", "asset")

// NativeContract moves native currency from env.Caller().
type NativeContract interface {
	Transfer(env *xenv.Environment, to thor.Address, amount *big.Int) error
	BalanceOf(addr thor.Address) (*big.Int, error)
}

type FungibleContract interface {
	Transfer(env *xenv.Environment, to thor.Address, amount *big.Int) error
	TransferFrom(env *xenv.Environment, from, to thor.Address, amount *big.Int) error
	BalanceOf(addr thor.Address) (*big.Int, error)
}

type NonFungibleContract interface {
	TransferFrom(env *xenv.Environment, from, to thor.Address, id *big.Int) error
	Mint(env *xenv.Environment, to thor.Address, template *big.Int) (*big.Int, error)
	OwnerOf(id *big.Int) (thor.Address, error)
}

// CompositeContract is a non-fungible contract whose items own nested bundles.
type CompositeContract interface {
	NonFungibleContract
	MintWith(env *xenv.Environment, to thor.Address, template *big.Int, contents Bundle) (*big.Int, error)
}

type MultiContract interface {
	SafeTransferFrom(env *xenv.Environment, from, to thor.Address, id, amount *big.Int) error
	BalanceOf(addr thor.Address, id *big.Int) (*big.Int, error)
}

// Directory resolves token references to contracts.
type Directory interface {
	Native() NativeContract
	Fungible(token thor.Address) (FungibleContract, error)
	NonFungible(token thor.Address) (NonFungibleContract, error)
	Composite(token thor.Address) (CompositeContract, error)
	Multi(token thor.Address) (MultiContract, error)
}

// Direction of a custody movement, seen from the mover's custody address.
type Direction uint8

const (
	Pull   Direction = iota + 1 // from a pre-authorizing source into custody
	Push                        // from custody to a destination
	Issue                       // minted by the token contract to a destination
	Retain                      // stays in custody, relabelled between buckets
)

func (d Direction) String() string {
	switch d {
	case Pull:
		return "pull"
	case Push:
		return "push"
	case Issue:
		return "issue"
	case Retain:
		return "retain"
	}
	return "unknown"
}

// Transfer describes one custody movement.
type Transfer struct {
	Asset     Asset
	From      thor.Address
	To        thor.Address
	Direction Direction
	Value     *big.Int // attached native value, native pulls only
	Contents  Bundle   // composite issues only
}

// Move is an audit record of a completed transfer.
type Move struct {
	Transfer
	Minted *big.Int
}

// Mover is the single surface moving assets in and out of one custody address.
type Mover struct {
	self  thor.Address
	dir   Directory
	moves []Move
}

func NewMover(self thor.Address, dir Directory) *Mover {
	return &Mover{self: self, dir: dir}
}

func (m *Mover) Self() thor.Address {
	return m.self
}

func (m *Mover) Directory() Directory {
	return m.dir
}

// Moves returns the audit trail.
func (m *Mover) Moves() []Move {
	return append([]Move(nil), m.moves...)
}

// Mark returns the current audit trail length.
func (m *Mover) Mark() int {
	return len(m.moves)
}

// Rewind drops audit records of a reverted call.
func (m *Mover) Rewind(mark int) {
	if mark < len(m.moves) {
		m.moves = m.moves[:mark]
	}
}

// Move performs t. For issues it returns the minted item identifier.
func (m *Mover) Move(env *xenv.Environment, t Transfer) (*big.Int, error) {
	if err := t.Asset.Validate(); err != nil {
		return nil, err
	}
	switch t.Direction {
	case Pull:
		t.To = m.self
	case Push, Retain:
		t.From = m.self
	case Issue:
		if !t.Asset.Kind.IsItem() {
			return nil, reverts.ErrUnsupportedAssetKind.WithMessagef("issue of %v", t.Asset.Kind)
		}
		t.From = thor.Address{}
	default:
		return nil, errors.Errorf("asset: unknown direction %d", t.Direction)
	}
	if t.Direction != Retain && t.To.IsZero() {
		return nil, reverts.ErrZeroAddress.WithMessagef("%v to zero address", t.Direction)
	}

	var (
		minted *big.Int
		err    error
	)
	if t.Direction != Retain {
		switch t.Asset.Kind {
		case Native:
			err = m.moveNative(env, t)
		case Fungible:
			err = m.moveFungible(env, t)
		case NonFungible:
			minted, err = m.moveNonFungible(env, t)
		case Composite:
			minted, err = m.moveComposite(env, t)
		case Multi:
			err = m.moveMulti(env, t)
		default:
			err = reverts.ErrUnsupportedAssetKind.WithMessagef("kind %d", uint8(t.Asset.Kind))
		}
	}
	if err != nil {
		logger.Debug("move failed", "direction", t.Direction, "asset", t.Asset, "from", t.From, "to", t.To, "err", err)
		return nil, err
	}
	logger.Trace("moved", "direction", t.Direction, "asset", t.Asset, "from", t.From, "to", t.To)
	m.moves = append(m.moves, Move{Transfer: t, Minted: minted})
	return minted, nil
}

func (m *Mover) moveNative(env *xenv.Environment, t Transfer) error {
	native := m.dir.Native()
	switch t.Direction {
	case Pull:
		value := t.Value
		if value == nil {
			value = new(big.Int)
		}
		if value.Cmp(t.Asset.Quantity()) != 0 {
			return reverts.ErrInsufficientPay.WithMessagef("attached %v, required %v", value, t.Asset.Quantity())
		}
		// attached value is paid by the sender itself
		return native.Transfer(env.Nested(t.From), t.To, t.Asset.Quantity())
	case Push:
		return native.Transfer(env.Nested(m.self), t.To, t.Asset.Quantity())
	}
	return reverts.ErrUnsupportedAssetKind.WithMessagef("%v of native", t.Direction)
}

func (m *Mover) moveFungible(env *xenv.Environment, t Transfer) error {
	token, err := m.dir.Fungible(t.Asset.Token)
	if err != nil {
		return err
	}
	switch t.Direction {
	case Pull:
		return token.TransferFrom(env.Nested(m.self), t.From, t.To, t.Asset.Quantity())
	case Push:
		return token.Transfer(env.Nested(m.self), t.To, t.Asset.Quantity())
	}
	return reverts.ErrUnsupportedAssetKind.WithMessagef("%v of fungible", t.Direction)
}

func (m *Mover) moveNonFungible(env *xenv.Environment, t Transfer) (*big.Int, error) {
	token, err := m.dir.NonFungible(t.Asset.Token)
	if err != nil {
		return nil, err
	}
	if t.Direction == Issue {
		return token.Mint(env.Nested(m.self), t.To, t.Asset.IDOrZero())
	}
	return nil, token.TransferFrom(env.Nested(m.self), t.From, t.To, t.Asset.IDOrZero())
}

func (m *Mover) moveComposite(env *xenv.Environment, t Transfer) (*big.Int, error) {
	token, err := m.dir.Composite(t.Asset.Token)
	if err != nil {
		return nil, err
	}
	if t.Direction != Issue {
		return nil, token.TransferFrom(env.Nested(m.self), t.From, t.To, t.Asset.IDOrZero())
	}
	// contents leave custody before the item holding them exists
	for _, content := range t.Contents {
		if _, err := m.Move(env, Transfer{Asset: content, To: t.Asset.Token, Direction: Push}); err != nil {
			return nil, errors.WithMessage(err, "composite contents")
		}
	}
	return token.MintWith(env.Nested(m.self), t.To, t.Asset.IDOrZero(), t.Contents.Clone())
}

func (m *Mover) moveMulti(env *xenv.Environment, t Transfer) error {
	token, err := m.dir.Multi(t.Asset.Token)
	if err != nil {
		return err
	}
	return token.SafeTransferFrom(env.Nested(m.self), t.From, t.To, t.Asset.IDOrZero(), t.Asset.Quantity())
}

// Held returns the quantity of key physically held by the custody address.
func (m *Mover) Held(key Key) (*big.Int, error) {
	switch key.Kind {
	case Native:
		return m.dir.Native().BalanceOf(m.self)
	case Fungible:
		token, err := m.dir.Fungible(key.Token)
		if err != nil {
			return nil, err
		}
		return token.BalanceOf(m.self)
	case NonFungible, Composite:
		var (
			token NonFungibleContract
			err   error
		)
		if key.Kind == Composite {
			token, err = m.dir.Composite(key.Token)
		} else {
			token, err = m.dir.NonFungible(key.Token)
		}
		if err != nil {
			return nil, err
		}
		owner, err := token.OwnerOf(key.ID)
		if err != nil {
			if errors.Is(err, reverts.ErrTokenNotFound) {
				return new(big.Int), nil
			}
			return nil, err
		}
		if owner == m.self {
			return big.NewInt(1), nil
		}
		return new(big.Int), nil
	case Multi:
		token, err := m.dir.Multi(key.Token)
		if err != nil {
			return nil, err
		}
		return token.BalanceOf(m.self, key.ID)
	}
	return nil, reverts.ErrUnsupportedAssetKind.WithMessagef("kind %d", uint8(key.Kind))
}
