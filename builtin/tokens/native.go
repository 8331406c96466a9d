// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tokens

import (
	"math/big"

	"github.com/vechain/stakeledger/asset"
	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/thor"
	"github.com/vechain/stakeledger/xenv"
)

// Native moves the native currency kept as state balances.
type Native struct {
	registry *Registry
}

func (n *Native) BalanceOf(addr thor.Address) (*big.Int, error) {
	return n.registry.state.GetBalance(addr)
}

// Mint credits amount to addr out of thin air, used for genesis allocation.
func (n *Native) Mint(addr thor.Address, amount *big.Int) error {
	bal, err := n.registry.state.GetBalance(addr)
	if err != nil {
		return err
	}
	return n.registry.state.SetBalance(addr, bal.Add(bal, amount))
}

// Transfer sends amount from the caller to `to`.
func (n *Native) Transfer(env *xenv.Environment, to thor.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return reverts.ErrInvalidAsset.WithMessagef("negative amount %v", amount)
	}
	if to.IsZero() {
		return reverts.ErrZeroAddress
	}
	from := env.Caller()
	st := n.registry.state

	fromBal, err := st.GetBalance(from)
	if err != nil {
		return err
	}
	if fromBal.Cmp(amount) < 0 {
		return reverts.ErrInsufficientBalance.WithMessagef("native balance of %v is %v, required %v", from, fromBal, amount)
	}
	if err := st.SetBalance(from, fromBal.Sub(fromBal, amount)); err != nil {
		return err
	}
	toBal, err := st.GetBalance(to)
	if err != nil {
		return err
	}
	if err := st.SetBalance(to, toBal.Add(toBal, amount)); err != nil {
		return err
	}
	return n.registry.notify(env, thor.Address{}, from, to, asset.NewNative(amount))
}
