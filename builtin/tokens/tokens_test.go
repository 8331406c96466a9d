// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tokens

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/asset"
	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/lvldb"
	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/thor"
	"github.com/vechain/stakeledger/xenv"
)

var (
	alice   = thor.BytesToAddress([]byte("alice"))
	bob     = thor.BytesToAddress([]byte("bob"))
	spender = thor.BytesToAddress([]byte("spender"))
)

func newRegistry(t *testing.T) *Registry {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	st, err := state.New(db, 0)
	require.NoError(t, err)
	return NewRegistry(st)
}

func call(caller thor.Address) *xenv.Environment {
	return xenv.NewCall(caller, 1000, nil)
}

func TestNative(t *testing.T) {
	r := newRegistry(t)
	native := r.NativeToken()
	require.NoError(t, native.Mint(alice, big.NewInt(100)))

	require.NoError(t, native.Transfer(call(alice), bob, big.NewInt(40)))
	bal, _ := native.BalanceOf(alice)
	assert.Equal(t, big.NewInt(60), bal)
	bal, _ = native.BalanceOf(bob)
	assert.Equal(t, big.NewInt(40), bal)

	err := native.Transfer(call(bob), alice, big.NewInt(41))
	assert.True(t, errors.Is(err, reverts.ErrInsufficientBalance))
	assert.True(t, errors.Is(native.Transfer(call(bob), thor.Address{}, big.NewInt(1)), reverts.ErrZeroAddress))
}

func TestFungibleAllowance(t *testing.T) {
	r := newRegistry(t)
	token := r.DeployFungible(thor.BytesToAddress([]byte("ft")))
	require.NoError(t, token.Mint(alice, big.NewInt(100)))

	err := token.TransferFrom(call(spender), alice, bob, big.NewInt(10))
	assert.True(t, errors.Is(err, reverts.ErrInsufficientAllowance))

	require.NoError(t, token.Approve(call(alice), spender, big.NewInt(30)))
	require.NoError(t, token.TransferFrom(call(spender), alice, bob, big.NewInt(10)))

	allowance, _ := token.Allowance(alice, spender)
	assert.Equal(t, big.NewInt(20), allowance)
	bal, _ := token.BalanceOf(bob)
	assert.Equal(t, big.NewInt(10), bal)

	// the holder itself needs no allowance
	require.NoError(t, token.TransferFrom(call(alice), alice, bob, big.NewInt(5)))

	err = token.Transfer(call(bob), alice, big.NewInt(16))
	assert.True(t, errors.Is(err, reverts.ErrInsufficientBalance))

	supply, _ := token.TotalSupply()
	assert.Equal(t, big.NewInt(100), supply)
}

func TestNonFungible(t *testing.T) {
	r := newRegistry(t)
	minter := thor.BytesToAddress([]byte("minter"))
	nft := r.DeployNonFungible(thor.BytesToAddress([]byte("nft")))

	_, err := nft.Mint(call(minter), alice, big.NewInt(7))
	assert.True(t, errors.Is(err, reverts.ErrNotApproved))

	require.NoError(t, nft.AddMinter(minter))
	id, err := nft.Mint(call(minter), alice, big.NewInt(7))
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1), id)

	template, err := nft.TemplateOf(id)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(7), template)

	err = nft.TransferFrom(call(spender), alice, bob, id)
	assert.True(t, errors.Is(err, reverts.ErrNotApproved))
	err = nft.TransferFrom(call(bob), bob, alice, id)
	assert.True(t, errors.Is(err, reverts.ErrNotOwner))

	require.NoError(t, nft.SetApprovalForAll(call(alice), spender, true))
	require.NoError(t, nft.TransferFrom(call(spender), alice, bob, id))

	owner, err := nft.OwnerOf(id)
	require.NoError(t, err)
	assert.Equal(t, bob, owner)
	count, _ := nft.BalanceOf(bob)
	assert.Equal(t, big.NewInt(1), count)

	_, err = nft.OwnerOf(big.NewInt(99))
	assert.True(t, errors.Is(err, reverts.ErrTokenNotFound))

	// single item approval is cleared by the transfer
	require.NoError(t, nft.Approve(call(bob), spender, id))
	require.NoError(t, nft.TransferFrom(call(spender), bob, alice, id))
	err = nft.TransferFrom(call(spender), alice, bob, id)
	assert.NoError(t, err, "operator approval of alice still applies")
}

func TestCompositeOpen(t *testing.T) {
	r := newRegistry(t)
	minter := thor.BytesToAddress([]byte("minter"))
	boxAddr := thor.BytesToAddress([]byte("box"))
	box := r.DeployComposite(boxAddr)
	ft := r.DeployFungible(thor.BytesToAddress([]byte("ft")))
	require.NoError(t, box.AddMinter(minter))

	// contents are owned by the box contract before minting
	require.NoError(t, ft.Mint(boxAddr, big.NewInt(50)))
	require.NoError(t, r.NativeToken().Mint(boxAddr, big.NewInt(5)))
	bundle := asset.Bundle{asset.NewFungible(ft.Address(), big.NewInt(50)), asset.NewNative(big.NewInt(5))}

	id, err := box.MintWith(call(minter), alice, big.NewInt(3), bundle)
	require.NoError(t, err)

	got, err := box.Contents(id)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = box.Open(call(bob), id)
	assert.True(t, errors.Is(err, reverts.ErrNotApproved))

	opened, err := box.Open(call(alice), id)
	require.NoError(t, err)
	assert.Len(t, opened, 2)

	bal, _ := ft.BalanceOf(alice)
	assert.Equal(t, big.NewInt(50), bal)
	bal, _ = r.NativeToken().BalanceOf(alice)
	assert.Equal(t, big.NewInt(5), bal)
	_, err = box.OwnerOf(id)
	assert.True(t, errors.Is(err, reverts.ErrTokenNotFound))
}

func TestMulti(t *testing.T) {
	r := newRegistry(t)
	mt := r.DeployMulti(thor.BytesToAddress([]byte("mt")))
	id := big.NewInt(4)
	require.NoError(t, mt.Mint(alice, id, big.NewInt(10)))

	err := mt.SafeTransferFrom(call(spender), alice, bob, id, big.NewInt(3))
	assert.True(t, errors.Is(err, reverts.ErrNotApproved))

	require.NoError(t, mt.SetApprovalForAll(call(alice), spender, true))
	require.NoError(t, mt.SafeTransferFrom(call(spender), alice, bob, id, big.NewInt(3)))

	err = mt.SafeTransferFrom(call(alice), alice, bob, id, big.NewInt(8))
	assert.True(t, errors.Is(err, reverts.ErrInsufficientBalance))

	bal, _ := mt.BalanceOf(bob, id)
	assert.Equal(t, big.NewInt(3), bal)
	bal, _ = mt.BalanceOf(bob, big.NewInt(5))
	assert.Equal(t, 0, bal.Sign())

	require.NoError(t, mt.SetApprovalForAll(call(alice), spender, false))
	ok, _ := mt.IsApprovedForAll(alice, spender)
	assert.False(t, ok)
}

func TestReceiveHook(t *testing.T) {
	r := newRegistry(t)
	native := r.NativeToken()
	require.NoError(t, native.Mint(alice, big.NewInt(10)))

	var seen []asset.Asset
	r.Hook(bob, ReceiverFunc(func(env *xenv.Environment, from thor.Address, received asset.Asset) error {
		assert.Equal(t, alice, from)
		seen = append(seen, received)
		return nil
	}))
	require.NoError(t, native.Transfer(call(alice), bob, big.NewInt(2)))
	require.Len(t, seen, 1)
	assert.Equal(t, big.NewInt(2), seen[0].Amount)

	r.Hook(bob, ReceiverFunc(func(*xenv.Environment, thor.Address, asset.Asset) error {
		return errors.New("rejected")
	}))
	assert.EqualError(t, native.Transfer(call(alice), bob, big.NewInt(2)), "rejected")

	r.Hook(bob, nil)
	assert.NoError(t, native.Transfer(call(alice), bob, big.NewInt(2)))
}
