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

// Fungible is an allowance based fungible token.
type Fungible struct {
	registry *Registry
	addr     thor.Address
	sctx     *solidity.Context

	balances    balances
	allowances  balances
	totalSupply *solidity.Uint256
}

func (f *Fungible) init() {
	f.balances = newBalances(f.sctx, "balances")
	f.allowances = newBalances(f.sctx, "allowances")
	f.totalSupply = solidity.NewUint256(f.sctx, thor.BytesToBytes32([]byte("total-supply")))
}

func (f *Fungible) Address() thor.Address { return f.addr }

func (f *Fungible) BalanceOf(addr thor.Address) (*big.Int, error) {
	return f.balances.get(thor.BytesToBytes32(addr.Bytes()))
}

func (f *Fungible) TotalSupply() (*big.Int, error) {
	return f.totalSupply.Get()
}

func (f *Fungible) Allowance(owner, spender thor.Address) (*big.Int, error) {
	return f.allowances.get(pair(owner, spender))
}

// Mint creates amount for addr, used for genesis allocation.
func (f *Fungible) Mint(addr thor.Address, amount *big.Int) error {
	if err := f.balances.add(thor.BytesToBytes32(addr.Bytes()), amount); err != nil {
		return err
	}
	return f.totalSupply.Add(amount)
}

// Approve sets the amount spender may move out of the caller's balance.
func (f *Fungible) Approve(env *xenv.Environment, spender thor.Address, amount *big.Int) error {
	if spender.IsZero() {
		return reverts.ErrZeroAddress
	}
	return f.allowances.set(pair(env.Caller(), spender), amount)
}

func (f *Fungible) Transfer(env *xenv.Environment, to thor.Address, amount *big.Int) error {
	return f.transfer(env, env.Caller(), to, amount)
}

// TransferFrom moves amount from `from`, consuming the caller's allowance unless it is the holder.
func (f *Fungible) TransferFrom(env *xenv.Environment, from, to thor.Address, amount *big.Int) error {
	spender := env.Caller()
	if spender != from {
		key := pair(from, spender)
		allowed, err := f.allowances.get(key)
		if err != nil {
			return err
		}
		if allowed.Cmp(amount) < 0 {
			return reverts.ErrInsufficientAllowance.WithMessagef("allowance %v, required %v", allowed, amount)
		}
		if err := f.allowances.set(key, allowed.Sub(allowed, amount)); err != nil {
			return err
		}
	}
	return f.transfer(env, from, to, amount)
}

func (f *Fungible) transfer(env *xenv.Environment, from, to thor.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return reverts.ErrInvalidAsset.WithMessagef("negative amount %v", amount)
	}
	if to.IsZero() {
		return reverts.ErrZeroAddress
	}
	if err := f.balances.sub(thor.BytesToBytes32(from.Bytes()), amount); err != nil {
		return err
	}
	if err := f.balances.add(thor.BytesToBytes32(to.Bytes()), amount); err != nil {
		return err
	}
	return f.registry.notify(env, f.addr, from, to, asset.NewFungible(f.addr, amount))
}
