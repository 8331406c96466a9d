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

// Multi is a multi-token contract: fungible balances per token id.
type Multi struct {
	registry *Registry
	addr     thor.Address

	balances  balances
	operators *solidity.Mapping[thor.Bytes32, bool]
}

func newMulti(r *Registry, addr thor.Address) *Multi {
	sctx := solidity.NewContext(addr, r.state)
	return &Multi{
		registry:  r,
		addr:      addr,
		balances:  newBalances(sctx, "balances"),
		operators: solidity.NewMapping[thor.Bytes32, bool](sctx, thor.BytesToBytes32([]byte("operators"))),
	}
}

func (m *Multi) Address() thor.Address { return m.addr }

func (m *Multi) BalanceOf(addr thor.Address, id *big.Int) (*big.Int, error) {
	return m.balances.get(holding(addr, id))
}

// Mint creates amount of id for addr, used for genesis allocation.
func (m *Multi) Mint(addr thor.Address, id, amount *big.Int) error {
	return m.balances.add(holding(addr, id), amount)
}

func (m *Multi) SetApprovalForAll(env *xenv.Environment, operator thor.Address, approved bool) error {
	if !approved {
		m.operators.Delete(pair(env.Caller(), operator))
		return nil
	}
	return m.operators.Set(pair(env.Caller(), operator), true)
}

func (m *Multi) IsApprovedForAll(owner, operator thor.Address) (bool, error) {
	return m.operators.Get(pair(owner, operator))
}

// SafeTransferFrom moves amount of id. The caller must be `from` or one of its operators.
func (m *Multi) SafeTransferFrom(env *xenv.Environment, from, to thor.Address, id, amount *big.Int) error {
	if amount.Sign() < 0 {
		return reverts.ErrInvalidAsset.WithMessagef("negative amount %v", amount)
	}
	if to.IsZero() {
		return reverts.ErrZeroAddress
	}
	caller := env.Caller()
	if caller != from {
		ok, err := m.IsApprovedForAll(from, caller)
		if err != nil {
			return err
		}
		if !ok {
			return reverts.ErrNotApproved.WithMessagef("%v is not an operator of %v", caller, from)
		}
	}
	if err := m.balances.sub(holding(from, id), amount); err != nil {
		return err
	}
	if err := m.balances.add(holding(to, id), amount); err != nil {
		return err
	}
	return m.registry.notify(env, m.addr, from, to, asset.NewMulti(m.addr, id, amount))
}
