// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package penalty

import (
	"math/big"

	"github.com/vechain/stakeledger/asset"
	"github.com/vechain/stakeledger/builtin/ledger/custody"
	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/builtin/solidity"
)

// Service is the penalty balance pool: seized deposit fractions per asset key.
type Service struct {
	buckets *custody.Table
}

func New(sctx *solidity.Context) *Service {
	return &Service{buckets: custody.NewTable(sctx, "penalty-buckets")}
}

// Seize adds qty of key to its bucket.
func (s *Service) Seize(key asset.Key, qty *big.Int) error {
	if qty.Sign() == 0 {
		return nil
	}
	return s.buckets.Add(key, qty)
}

func (s *Service) Balance(key asset.Key) (*big.Int, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	return s.buckets.Get(key)
}

// Drain zeroes the bucket of key and returns what it held.
func (s *Service) Drain(key asset.Key) (*big.Int, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	amount, err := s.buckets.Drain(key)
	if err != nil {
		return nil, err
	}
	if amount.Sign() == 0 {
		return nil, reverts.ErrZeroBalance.WithMessagef("penalty bucket %v", key)
	}
	return amount, nil
}
