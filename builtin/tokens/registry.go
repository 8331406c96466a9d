// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package tokens implements state backed asset contracts for the five custody kinds.
package tokens

import (
	"math/big"

	"github.com/vechain/stakeledger/asset"
	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/builtin/solidity"
	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/thor"
	"github.com/vechain/stakeledger/xenv"
)

var logger = log.WithContext("pkg", "tokens")

// Receiver is called after an asset lands on its address. An error reverts the transfer.
type Receiver interface {
	OnReceived(env *xenv.Environment, from thor.Address, received asset.Asset) error
}

// ReceiverFunc adapts a function to Receiver.
type ReceiverFunc func(env *xenv.Environment, from thor.Address, received asset.Asset) error

func (f ReceiverFunc) OnReceived(env *xenv.Environment, from thor.Address, received asset.Asset) error {
	return f(env, from, received)
}

// Registry holds every deployed token contract and the receive hooks.
type Registry struct {
	state       *state.State
	native      *Native
	fungibles   map[thor.Address]*Fungible
	nonFungible map[thor.Address]*NonFungible
	composites  map[thor.Address]*Composite
	multis      map[thor.Address]*Multi
	receivers   map[thor.Address]Receiver
}

func NewRegistry(st *state.State) *Registry {
	r := &Registry{
		state:       st,
		fungibles:   make(map[thor.Address]*Fungible),
		nonFungible: make(map[thor.Address]*NonFungible),
		composites:  make(map[thor.Address]*Composite),
		multis:      make(map[thor.Address]*Multi),
		receivers:   make(map[thor.Address]Receiver),
	}
	r.native = &Native{registry: r}
	return r
}

// Hook installs the receive hook of addr, nil removes it.
func (r *Registry) Hook(addr thor.Address, receiver Receiver) {
	if receiver == nil {
		delete(r.receivers, addr)
		return
	}
	r.receivers[addr] = receiver
}

// notify runs the receive hook of `to` as a call made by the token contract.
func (r *Registry) notify(env *xenv.Environment, token, from, to thor.Address, received asset.Asset) error {
	receiver, ok := r.receivers[to]
	if !ok {
		return nil
	}
	logger.Trace("receive hook", "to", to, "asset", received)
	return receiver.OnReceived(env.Nested(token), from, received)
}

func (r *Registry) DeployFungible(addr thor.Address) *Fungible {
	f := &Fungible{
		registry: r,
		addr:     addr,
		sctx:     solidity.NewContext(addr, r.state),
	}
	f.init()
	r.fungibles[addr] = f
	return f
}

func (r *Registry) DeployNonFungible(addr thor.Address) *NonFungible {
	n := newNonFungible(r, addr, asset.NonFungible)
	r.nonFungible[addr] = n
	return n
}

func (r *Registry) DeployComposite(addr thor.Address) *Composite {
	c := newComposite(r, addr)
	r.composites[addr] = c
	return c
}

func (r *Registry) DeployMulti(addr thor.Address) *Multi {
	m := newMulti(r, addr)
	r.multis[addr] = m
	return m
}

// NativeToken returns the native currency contract.
func (r *Registry) NativeToken() *Native { return r.native }

func (r *Registry) FungibleToken(addr thor.Address) *Fungible       { return r.fungibles[addr] }
func (r *Registry) NonFungibleToken(addr thor.Address) *NonFungible { return r.nonFungible[addr] }
func (r *Registry) CompositeToken(addr thor.Address) *Composite     { return r.composites[addr] }
func (r *Registry) MultiToken(addr thor.Address) *Multi             { return r.multis[addr] }

// asset.Directory

func (r *Registry) Native() asset.NativeContract { return r.native }

func (r *Registry) Fungible(token thor.Address) (asset.FungibleContract, error) {
	if f, ok := r.fungibles[token]; ok {
		return f, nil
	}
	return nil, unknownToken(asset.Fungible, token)
}

func (r *Registry) NonFungible(token thor.Address) (asset.NonFungibleContract, error) {
	if n, ok := r.nonFungible[token]; ok {
		return n, nil
	}
	return nil, unknownToken(asset.NonFungible, token)
}

func (r *Registry) Composite(token thor.Address) (asset.CompositeContract, error) {
	if c, ok := r.composites[token]; ok {
		return c, nil
	}
	return nil, unknownToken(asset.Composite, token)
}

func (r *Registry) Multi(token thor.Address) (asset.MultiContract, error) {
	if m, ok := r.multis[token]; ok {
		return m, nil
	}
	return nil, unknownToken(asset.Multi, token)
}

func unknownToken(kind asset.Kind, token thor.Address) error {
	return reverts.ErrInvalidAsset.WithMessagef("unknown %v token %v", kind, token)
}

// pair derives the slot key of a two address relation.
func pair(a, b thor.Address) thor.Bytes32 {
	return thor.Blake2b(a.Bytes(), b.Bytes())
}

// holding derives the slot key of an (account, id) balance.
func holding(addr thor.Address, id *big.Int) thor.Bytes32 {
	return thor.Blake2b(addr.Bytes(), id.Bytes())
}

// balances is an address keyed amount table whose zero entries are cleared.
type balances struct {
	m *solidity.Mapping[thor.Bytes32, *big.Int]
}

func newBalances(sctx *solidity.Context, pos string) balances {
	return balances{m: solidity.NewMapping[thor.Bytes32, *big.Int](sctx, thor.BytesToBytes32([]byte(pos)))}
}

func (b balances) get(key thor.Bytes32) (*big.Int, error) {
	v, err := b.m.Get(key)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return new(big.Int), nil
	}
	return v, nil
}

func (b balances) set(key thor.Bytes32, value *big.Int) error {
	if value.Sign() == 0 {
		b.m.Delete(key)
		return nil
	}
	return b.m.Set(key, value)
}

func (b balances) add(key thor.Bytes32, amount *big.Int) error {
	v, err := b.get(key)
	if err != nil {
		return err
	}
	return b.set(key, v.Add(v, amount))
}

// sub fails with InsufficientBalance instead of going negative.
func (b balances) sub(key thor.Bytes32, amount *big.Int) error {
	v, err := b.get(key)
	if err != nil {
		return err
	}
	if v.Cmp(amount) < 0 {
		return reverts.ErrInsufficientBalance.WithMessagef("balance %v, required %v", v, amount)
	}
	return b.set(key, v.Sub(v, amount))
}
