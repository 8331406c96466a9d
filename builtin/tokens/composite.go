// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tokens

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/asset"
	"github.com/vechain/stakeledger/builtin/solidity"
	"github.com/vechain/stakeledger/thor"
	"github.com/vechain/stakeledger/xenv"
)

type contents struct {
	Assets asset.Bundle
}

// Composite is a non-fungible token whose items hold a nested bundle. The bundle is kept in
// custody of the composite contract until the item is opened.
type Composite struct {
	*NonFungible

	contents *solidity.Mapping[*big.Int, *contents]
	mover    *asset.Mover
}

func newComposite(r *Registry, addr thor.Address) *Composite {
	sctx := solidity.NewContext(addr, r.state)
	return &Composite{
		NonFungible: newNonFungible(r, addr, asset.Composite),
		contents:    solidity.NewMapping[*big.Int, *contents](sctx, thor.BytesToBytes32([]byte("contents"))),
		mover:       asset.NewMover(addr, r),
	}
}

// Mint creates an empty box.
func (c *Composite) Mint(env *xenv.Environment, to thor.Address, template *big.Int) (*big.Int, error) {
	return c.MintWith(env, to, template, nil)
}

// MintWith creates an item holding bundle. The bundle must already be owned by the contract.
func (c *Composite) MintWith(env *xenv.Environment, to thor.Address, template *big.Int, bundle asset.Bundle) (*big.Int, error) {
	if err := bundle.Validate(); err != nil {
		return nil, err
	}
	id, err := c.mint(env, to, template)
	if err != nil {
		return nil, err
	}
	if len(bundle) > 0 {
		if err := c.contents.Set(id, &contents{Assets: bundle.Clone()}); err != nil {
			return nil, err
		}
	}
	if err := c.registry.notify(env, c.addr, thor.Address{}, to, c.item(id)); err != nil {
		return nil, err
	}
	return id, nil
}

// Contents returns the bundle held by item id.
func (c *Composite) Contents(id *big.Int) (asset.Bundle, error) {
	if _, err := c.OwnerOf(id); err != nil {
		return nil, err
	}
	v, err := c.contents.Get(id)
	if err != nil {
		return nil, err
	}
	return v.Assets, nil
}

// Open burns item id and releases its contents to the owner.
func (c *Composite) Open(env *xenv.Environment, id *big.Int) (asset.Bundle, error) {
	bundle, err := c.Contents(id)
	if err != nil {
		return nil, err
	}
	owner, err := c.burn(env, id)
	if err != nil {
		return nil, err
	}
	c.contents.Delete(id)
	for _, a := range bundle {
		if _, err := c.mover.Move(env, asset.Transfer{Asset: a, To: owner, Direction: asset.Push}); err != nil {
			return nil, errors.WithMessagef(err, "open #%v", id)
		}
	}
	logger.Debug("opened", "token", c.addr, "id", id, "owner", owner, "contents", len(bundle))
	return bundle, nil
}
