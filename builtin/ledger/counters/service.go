// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package counters

import (
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/builtin/solidity"
	"github.com/vechain/stakeledger/thor"
)

var (
	slotPerRule    = thor.BytesToBytes32([]byte(("open-per-rule")))
	slotPerAccount = thor.BytesToBytes32([]byte(("open-per-account")))
)

// Service counts open stakes per rule and per (account, rule).
type Service struct {
	perRule    *solidity.Mapping[thor.Bytes32, uint64]
	perAccount *solidity.Mapping[thor.Bytes32, uint64]
}

func New(sctx *solidity.Context) *Service {
	return &Service{
		perRule:    solidity.NewMapping[thor.Bytes32, uint64](sctx, slotPerRule),
		perAccount: solidity.NewMapping[thor.Bytes32, uint64](sctx, slotPerAccount),
	}
}

func accountKey(account thor.Address, ruleID uint64) thor.Bytes32 {
	return thor.Blake2b(account.Bytes(), thor.Uint64ToBytes32(ruleID).Bytes())
}

// Open counts a new stake, failing with StakeLimitExceeded when a cap would be exceeded.
// A zero cap is unlimited.
func (s *Service) Open(ruleID uint64, account thor.Address, maxPerRule, maxPerAccount uint64) error {
	ruleKey := thor.Uint64ToBytes32(ruleID)
	open, err := s.perRule.Get(ruleKey)
	if err != nil {
		return err
	}
	if maxPerRule > 0 && open+1 > maxPerRule {
		return reverts.ErrStakeLimitExceeded.WithMessagef("rule %d has %d open stakes", ruleID, open)
	}
	key := accountKey(account, ruleID)
	mine, err := s.perAccount.Get(key)
	if err != nil {
		return err
	}
	if maxPerAccount > 0 && mine+1 > maxPerAccount {
		return reverts.ErrStakeLimitExceeded.WithMessagef("%v has %d open stakes under rule %d", account, mine, ruleID)
	}
	if err := s.perRule.Set(ruleKey, open+1); err != nil {
		return err
	}
	return s.perAccount.Set(key, mine+1)
}

// Close uncounts a terminated stake.
func (s *Service) Close(ruleID uint64, account thor.Address) error {
	ruleKey := thor.Uint64ToBytes32(ruleID)
	open, err := s.perRule.Get(ruleKey)
	if err != nil {
		return err
	}
	key := accountKey(account, ruleID)
	mine, err := s.perAccount.Get(key)
	if err != nil {
		return err
	}
	if open == 0 || mine == 0 {
		return errors.Errorf("counters: closing stake of %v under rule %d with no open stakes", account, ruleID)
	}
	if err := s.set(s.perRule, ruleKey, open-1); err != nil {
		return err
	}
	return s.set(s.perAccount, key, mine-1)
}

func (s *Service) set(m *solidity.Mapping[thor.Bytes32, uint64], key thor.Bytes32, v uint64) error {
	if v == 0 {
		m.Delete(key)
		return nil
	}
	return m.Set(key, v)
}

func (s *Service) OpenStakes(ruleID uint64) (uint64, error) {
	return s.perRule.Get(thor.Uint64ToBytes32(ruleID))
}

func (s *Service) OpenStakesOf(account thor.Address, ruleID uint64) (uint64, error) {
	return s.perAccount.Get(accountKey(account, ruleID))
}
