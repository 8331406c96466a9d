// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package asset_test

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/asset"
	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/builtin/tokens"
	"github.com/vechain/stakeledger/lvldb"
	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/thor"
	"github.com/vechain/stakeledger/xenv"
)

var (
	custody = thor.BytesToAddress([]byte("custody"))
	user    = thor.BytesToAddress([]byte("user"))
	ftAddr  = thor.BytesToAddress([]byte("ft"))
	nftAddr = thor.BytesToAddress([]byte("nft"))
	boxAddr = thor.BytesToAddress([]byte("box"))
	mtAddr  = thor.BytesToAddress([]byte("mt"))
)

type fixture struct {
	registry *tokens.Registry
	mover    *asset.Mover
}

func newFixture(t *testing.T) *fixture {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	st, err := state.New(db, 0)
	require.NoError(t, err)

	r := tokens.NewRegistry(st)
	r.DeployFungible(ftAddr)
	require.NoError(t, r.DeployNonFungible(nftAddr).AddMinter(custody))
	require.NoError(t, r.DeployComposite(boxAddr).AddMinter(custody))
	r.DeployMulti(mtAddr)
	return &fixture{registry: r, mover: asset.NewMover(custody, r)}
}

func env(caller thor.Address, value int64) *xenv.Environment {
	return xenv.NewCall(caller, 1, big.NewInt(value))
}

func TestMoveNative(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.registry.NativeToken().Mint(user, big.NewInt(100)))
	leg := asset.NewNative(big.NewInt(40))

	_, err := f.mover.Move(env(user, 39), asset.Transfer{Asset: leg, From: user, Direction: asset.Pull, Value: big.NewInt(39)})
	assert.True(t, errors.Is(err, reverts.ErrInsufficientPay))
	_, err = f.mover.Move(env(user, 41), asset.Transfer{Asset: leg, From: user, Direction: asset.Pull, Value: big.NewInt(41)})
	assert.True(t, errors.Is(err, reverts.ErrInsufficientPay))

	_, err = f.mover.Move(env(user, 40), asset.Transfer{Asset: leg, From: user, Direction: asset.Pull, Value: big.NewInt(40)})
	require.NoError(t, err)
	held, err := f.mover.Held(leg.Key())
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(40), held)

	_, err = f.mover.Move(env(user, 0), asset.Transfer{Asset: asset.NewNative(big.NewInt(15)), To: user, Direction: asset.Push})
	require.NoError(t, err)
	bal, _ := f.registry.NativeToken().BalanceOf(user)
	assert.Equal(t, big.NewInt(75), bal)

	moves := f.mover.Moves()
	require.Len(t, moves, 2)
	assert.Equal(t, custody, moves[0].To)
	assert.Equal(t, custody, moves[1].From)
}

func TestMoveFungiblePullNeedsAllowance(t *testing.T) {
	f := newFixture(t)
	ft := f.registry.FungibleToken(ftAddr)
	require.NoError(t, ft.Mint(user, big.NewInt(10)))
	leg := asset.NewFungible(ftAddr, big.NewInt(10))

	_, err := f.mover.Move(env(user, 0), asset.Transfer{Asset: leg, From: user, Direction: asset.Pull})
	assert.True(t, errors.Is(err, reverts.ErrInsufficientAllowance), "collaborator error surfaces unchanged")

	require.NoError(t, ft.Approve(env(user, 0), custody, big.NewInt(10)))
	_, err = f.mover.Move(env(user, 0), asset.Transfer{Asset: leg, From: user, Direction: asset.Pull})
	require.NoError(t, err)

	held, _ := f.mover.Held(leg.Key())
	assert.Equal(t, big.NewInt(10), held)
}

func TestMoveItems(t *testing.T) {
	f := newFixture(t)
	nft := f.registry.NonFungibleToken(nftAddr)

	// issue mints a new item from template 5
	id, err := f.mover.Move(env(user, 0), asset.Transfer{
		Asset: asset.NewNonFungible(nftAddr, big.NewInt(5)), To: user, Direction: asset.Issue,
	})
	require.NoError(t, err)
	template, _ := nft.TemplateOf(id)
	assert.Equal(t, big.NewInt(5), template)

	item := asset.NewNonFungible(nftAddr, id)
	_, err = f.mover.Move(env(user, 0), asset.Transfer{Asset: item, From: user, Direction: asset.Pull})
	assert.True(t, errors.Is(err, reverts.ErrNotApproved))

	require.NoError(t, nft.SetApprovalForAll(env(user, 0), custody, true))
	_, err = f.mover.Move(env(user, 0), asset.Transfer{Asset: item, From: user, Direction: asset.Pull})
	require.NoError(t, err)

	held, _ := f.mover.Held(item.Key())
	assert.Equal(t, big.NewInt(1), held)
	held, _ = f.mover.Held(asset.NewKey(asset.NonFungible, nftAddr, big.NewInt(77)))
	assert.Equal(t, 0, held.Sign())

	_, err = f.mover.Move(env(user, 0), asset.Transfer{Asset: asset.NewFungible(ftAddr, big.NewInt(1)), To: user, Direction: asset.Issue})
	assert.True(t, errors.Is(err, reverts.ErrUnsupportedAssetKind))
}

func TestIssueComposite(t *testing.T) {
	f := newFixture(t)
	ft := f.registry.FungibleToken(ftAddr)
	require.NoError(t, ft.Mint(custody, big.NewInt(30)))

	contents := asset.Bundle{asset.NewFungible(ftAddr, big.NewInt(30))}
	id, err := f.mover.Move(env(user, 0), asset.Transfer{
		Asset:     asset.NewComposite(boxAddr, big.NewInt(1)),
		To:        user,
		Direction: asset.Issue,
		Contents:  contents,
	})
	require.NoError(t, err)

	box := f.registry.CompositeToken(boxAddr)
	owner, _ := box.OwnerOf(id)
	assert.Equal(t, user, owner)
	bal, _ := ft.BalanceOf(boxAddr)
	assert.Equal(t, big.NewInt(30), bal)

	// the content push and the issue are both audited
	assert.Len(t, f.mover.Moves(), 2)
}

func TestMoveMultiAndRewind(t *testing.T) {
	f := newFixture(t)
	mt := f.registry.MultiToken(mtAddr)
	require.NoError(t, mt.Mint(user, big.NewInt(3), big.NewInt(9)))
	require.NoError(t, mt.SetApprovalForAll(env(user, 0), custody, true))

	mark := f.mover.Mark()
	leg := asset.NewMulti(mtAddr, big.NewInt(3), big.NewInt(4))
	_, err := f.mover.Move(env(user, 0), asset.Transfer{Asset: leg, From: user, Direction: asset.Pull})
	require.NoError(t, err)
	held, _ := f.mover.Held(leg.Key())
	assert.Equal(t, big.NewInt(4), held)

	f.mover.Rewind(mark)
	assert.Empty(t, f.mover.Moves())
}

func TestMoveRejectsInvalid(t *testing.T) {
	f := newFixture(t)

	_, err := f.mover.Move(env(user, 0), asset.Transfer{Asset: asset.Asset{Kind: 42}, Direction: asset.Push, To: user})
	assert.True(t, errors.Is(err, reverts.ErrUnsupportedAssetKind))

	_, err = f.mover.Move(env(user, 0), asset.Transfer{Asset: asset.NewFungible(thor.BytesToAddress([]byte("nope")), big.NewInt(1)), Direction: asset.Push, To: user})
	assert.True(t, errors.Is(err, reverts.ErrInvalidAsset))

	_, err = f.mover.Move(env(user, 0), asset.Transfer{Asset: asset.NewNative(big.NewInt(1)), Direction: asset.Push})
	assert.True(t, errors.Is(err, reverts.ErrZeroAddress))

	// retain only records the relabelling
	_, err = f.mover.Move(env(user, 0), asset.Transfer{Asset: asset.NewNative(big.NewInt(1)), Direction: asset.Retain})
	require.NoError(t, err)
	assert.Len(t, f.mover.Moves(), 1)
}
