// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewardpool

import (
	"math/big"

	"github.com/vechain/stakeledger/asset"
	"github.com/vechain/stakeledger/builtin/ledger/custody"
	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/builtin/solidity"
)

// Service is the funded reward liability. Rewards are only ever paid out of it, never out of
// another stake's escrow.
type Service struct {
	pool *custody.Table
}

func New(sctx *solidity.Context) *Service {
	return &Service{pool: custody.NewTable(sctx, "reward-pool")}
}

func (s *Service) Fund(key asset.Key, qty *big.Int) error {
	return s.pool.Add(key, qty)
}

// Debit reserves qty of key for a payout, failing with InsufficientRewardPool.
func (s *Service) Debit(key asset.Key, qty *big.Int) error {
	return s.pool.Sub(key, qty, reverts.ErrInsufficientRewardPool)
}

func (s *Service) Balance(key asset.Key) (*big.Int, error) {
	return s.pool.Get(key)
}
