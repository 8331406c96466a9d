// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tokens

import (
	"math/big"

	"github.com/vechain/stakeledger/asset"
	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/builtin/solidity"
	"github.com/vechain/stakeledger/thor"
	"github.com/vechain/stakeledger/xenv"
)

// NonFungible is an item token. Every item is minted from a template.
type NonFungible struct {
	registry *Registry
	addr     thor.Address
	kind     asset.Kind

	owners    *solidity.Mapping[*big.Int, thor.Address]
	templates *solidity.Mapping[*big.Int, *big.Int]
	approved  *solidity.Mapping[*big.Int, thor.Address]
	operators *solidity.Mapping[thor.Bytes32, bool]
	minters   *solidity.Mapping[thor.Address, bool]
	counts    balances
	lastID    *solidity.Uint256
}

func newNonFungible(r *Registry, addr thor.Address, kind asset.Kind) *NonFungible {
	sctx := solidity.NewContext(addr, r.state)
	return &NonFungible{
		registry:  r,
		addr:      addr,
		kind:      kind,
		owners:    solidity.NewMapping[*big.Int, thor.Address](sctx, thor.BytesToBytes32([]byte("owners"))),
		templates: solidity.NewMapping[*big.Int, *big.Int](sctx, thor.BytesToBytes32([]byte("templates"))),
		approved:  solidity.NewMapping[*big.Int, thor.Address](sctx, thor.BytesToBytes32([]byte("approved"))),
		operators: solidity.NewMapping[thor.Bytes32, bool](sctx, thor.BytesToBytes32([]byte("operators"))),
		minters:   solidity.NewMapping[thor.Address, bool](sctx, thor.BytesToBytes32([]byte("minters"))),
		counts:    newBalances(sctx, "counts"),
		lastID:    solidity.NewUint256(sctx, thor.BytesToBytes32([]byte("last-id"))),
	}
}

func (n *NonFungible) Address() thor.Address { return n.addr }

// AddMinter allows addr to mint items.
func (n *NonFungible) AddMinter(addr thor.Address) error {
	return n.minters.Set(addr, true)
}

func (n *NonFungible) OwnerOf(id *big.Int) (thor.Address, error) {
	owner, err := n.owners.Get(id)
	if err != nil {
		return thor.Address{}, err
	}
	if owner.IsZero() {
		return thor.Address{}, reverts.ErrTokenNotFound.WithMessagef("%v #%v", n.addr, id)
	}
	return owner, nil
}

func (n *NonFungible) TemplateOf(id *big.Int) (*big.Int, error) {
	if _, err := n.OwnerOf(id); err != nil {
		return nil, err
	}
	return n.templates.Get(id)
}

func (n *NonFungible) BalanceOf(addr thor.Address) (*big.Int, error) {
	return n.counts.get(thor.BytesToBytes32(addr.Bytes()))
}

func (n *NonFungible) Approve(env *xenv.Environment, to thor.Address, id *big.Int) error {
	owner, err := n.OwnerOf(id)
	if err != nil {
		return err
	}
	caller := env.Caller()
	if caller != owner {
		ok, err := n.operators.Get(pair(owner, caller))
		if err != nil {
			return err
		}
		if !ok {
			return reverts.ErrNotApproved.WithMessagef("%v may not approve #%v", caller, id)
		}
	}
	return n.approved.Set(id, to)
}

func (n *NonFungible) SetApprovalForAll(env *xenv.Environment, operator thor.Address, approved bool) error {
	if !approved {
		n.operators.Delete(pair(env.Caller(), operator))
		return nil
	}
	return n.operators.Set(pair(env.Caller(), operator), true)
}

// Mint creates a new item of the template for `to`. The caller must be a minter.
func (n *NonFungible) Mint(env *xenv.Environment, to thor.Address, template *big.Int) (*big.Int, error) {
	id, err := n.mint(env, to, template)
	if err != nil {
		return nil, err
	}
	if err := n.registry.notify(env, n.addr, thor.Address{}, to, n.item(id)); err != nil {
		return nil, err
	}
	return id, nil
}

func (n *NonFungible) mint(env *xenv.Environment, to thor.Address, template *big.Int) (*big.Int, error) {
	ok, err := n.minters.Get(env.Caller())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, reverts.ErrNotApproved.WithMessagef("%v is not a minter of %v", env.Caller(), n.addr)
	}
	if to.IsZero() {
		return nil, reverts.ErrZeroAddress
	}
	last, err := n.lastID.Increment()
	if err != nil {
		return nil, err
	}
	id := new(big.Int).SetUint64(last)
	if err := n.owners.Set(id, to); err != nil {
		return nil, err
	}
	if template != nil && template.Sign() > 0 {
		if err := n.templates.Set(id, template); err != nil {
			return nil, err
		}
	}
	if err := n.counts.add(thor.BytesToBytes32(to.Bytes()), big.NewInt(1)); err != nil {
		return nil, err
	}
	logger.Debug("minted", "token", n.addr, "id", id, "template", template, "to", to)
	return id, nil
}

// TransferFrom moves item id from its owner. The caller must be the owner, approved for the item
// or an operator of the owner.
func (n *NonFungible) TransferFrom(env *xenv.Environment, from, to thor.Address, id *big.Int) error {
	if err := n.move(env, from, to, id); err != nil {
		return err
	}
	return n.registry.notify(env, n.addr, from, to, n.item(id))
}

func (n *NonFungible) move(env *xenv.Environment, from, to thor.Address, id *big.Int) error {
	owner, err := n.OwnerOf(id)
	if err != nil {
		return err
	}
	if owner != from {
		return reverts.ErrNotOwner.WithMessagef("#%v is owned by %v, not %v", id, owner, from)
	}
	if to.IsZero() {
		return reverts.ErrZeroAddress
	}
	if err := n.authorize(env.Caller(), owner, id); err != nil {
		return err
	}
	n.approved.Delete(id)
	if err := n.owners.Set(id, to); err != nil {
		return err
	}
	if err := n.counts.sub(thor.BytesToBytes32(from.Bytes()), big.NewInt(1)); err != nil {
		return err
	}
	return n.counts.add(thor.BytesToBytes32(to.Bytes()), big.NewInt(1))
}

func (n *NonFungible) authorize(caller, owner thor.Address, id *big.Int) error {
	if caller == owner {
		return nil
	}
	approved, err := n.approved.Get(id)
	if err != nil {
		return err
	}
	if approved == caller {
		return nil
	}
	operator, err := n.operators.Get(pair(owner, caller))
	if err != nil {
		return err
	}
	if operator {
		return nil
	}
	return reverts.ErrNotApproved.WithMessagef("%v may not move #%v", caller, id)
}

// burn destroys item id owned by the caller.
func (n *NonFungible) burn(env *xenv.Environment, id *big.Int) (thor.Address, error) {
	owner, err := n.OwnerOf(id)
	if err != nil {
		return thor.Address{}, err
	}
	if err := n.authorize(env.Caller(), owner, id); err != nil {
		return thor.Address{}, err
	}
	n.approved.Delete(id)
	n.owners.Delete(id)
	n.templates.Delete(id)
	if err := n.counts.sub(thor.BytesToBytes32(owner.Bytes()), big.NewInt(1)); err != nil {
		return thor.Address{}, err
	}
	return owner, nil
}

func (n *NonFungible) item(id *big.Int) asset.Asset {
	if n.kind == asset.Composite {
		return asset.NewComposite(n.addr, id)
	}
	return asset.NewNonFungible(n.addr, id)
}
