// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rules

import (
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/builtin/solidity"
	"github.com/vechain/stakeledger/thor"
)

var (
	slotRules       = thor.BytesToBytes32([]byte(("rules")))
	slotRuleCounter = thor.BytesToBytes32([]byte(("rules-counter")))
)

// Service is the rule registry.
type Service struct {
	rules     *solidity.Mapping[thor.Bytes32, *Rule]
	idCounter *solidity.Uint256
}

func New(sctx *solidity.Context) *Service {
	return &Service{
		rules:     solidity.NewMapping[thor.Bytes32, *Rule](sctx, slotRules),
		idCounter: solidity.NewUint256(sctx, slotRuleCounter),
	}
}

// Add validates and stores rule under the next id.
func (s *Service) Add(rule *Rule) (uint64, error) {
	if err := rule.Validate(); err != nil {
		return 0, err
	}
	id, err := s.idCounter.Increment()
	if err != nil {
		return 0, err
	}
	if err := s.rules.Set(thor.Uint64ToBytes32(id), rule); err != nil {
		return 0, errors.Wrap(err, "failed to set rule")
	}
	return id, nil
}

// Get returns rule id, failing with RuleNotFound.
func (s *Service) Get(id uint64) (*Rule, error) {
	exists, err := s.rules.Exists(thor.Uint64ToBytes32(id))
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, reverts.ErrRuleNotFound.WithMessagef("rule %d", id)
	}
	rule, err := s.rules.Get(thor.Uint64ToBytes32(id))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get rule")
	}
	return rule, nil
}

// SetActive toggles the active flag, leaving bundles and terms untouched.
func (s *Service) SetActive(id uint64, active bool) error {
	rule, err := s.Get(id)
	if err != nil {
		return err
	}
	rule.Active = active
	return s.rules.Set(thor.Uint64ToBytes32(id), rule)
}

// Count returns the number of registered rules, which is also the last id.
func (s *Service) Count() (uint64, error) {
	n, err := s.idCounter.Get()
	if err != nil {
		return 0, err
	}
	return n.Uint64(), nil
}
