// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rules

import (
	"github.com/vechain/stakeledger/asset"
	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/thor"
)

// Terms are the timing, penalty and limit terms of a rule.
type Terms struct {
	Period              uint64 // seconds per cycle
	PenaltyBps          uint64 // share of the deposit seized on early exit
	MaxConcurrentStakes uint64 // open stakes under the rule, 0 is unlimited
	MaxStakesPerAccount uint64 // open stakes of one account under the rule, 0 is unlimited
	Recurrent           bool
	Advance             bool
}

// Rule maps a deposit bundle to a reward bundle. Only Active changes after creation.
type Rule struct {
	Deposit  asset.Bundle
	Reward   asset.Bundle
	Contents []asset.Bundle // per reward leg, composite legs only
	Terms    Terms
	Active   bool
}

// IsRandom returns whether reward leg i is minted later from a randomness request.
func (r *Rule) IsRandom(i int) bool {
	leg := r.Reward[i]
	return leg.Kind.IsItem() && leg.IDOrZero().Sign() == 0
}

// ContentsOf returns the content bundle of reward leg i.
func (r *Rule) ContentsOf(i int) asset.Bundle {
	if i < len(r.Contents) {
		return r.Contents[i]
	}
	return nil
}

// Validate checks a rule before it is registered.
func (r *Rule) Validate() error {
	if len(r.Deposit) == 0 {
		return reverts.ErrRuleInvalid.WithMessagef("empty deposit bundle")
	}
	if err := r.Deposit.Validate(); err != nil {
		return reverts.ErrRuleInvalid.WithMessagef("deposit: %v", err)
	}
	if err := r.Reward.Validate(); err != nil {
		return reverts.ErrRuleInvalid.WithMessagef("reward: %v", err)
	}
	if len(r.Contents) != 0 && len(r.Contents) != len(r.Reward) {
		return reverts.ErrRuleInvalid.WithMessagef("%d content bundles for %d reward legs", len(r.Contents), len(r.Reward))
	}
	for i, contents := range r.Contents {
		if len(contents) == 0 {
			continue
		}
		if r.Reward[i].Kind != asset.Composite {
			return reverts.ErrRuleInvalid.WithMessagef("contents on %v reward leg %d", r.Reward[i].Kind, i)
		}
		if err := contents.Validate(); err != nil {
			return reverts.ErrRuleInvalid.WithMessagef("contents %d: %v", i, err)
		}
		for _, a := range contents {
			if a.Kind.IsItem() && a.IDOrZero().Sign() == 0 {
				return reverts.ErrRuleInvalid.WithMessagef("wildcard item in contents %d", i)
			}
		}
	}
	if r.Terms.Period == 0 {
		return reverts.ErrRuleInvalid.WithMessagef("zero period")
	}
	if r.Terms.PenaltyBps > thor.MaxBasisPoints {
		return reverts.ErrRuleInvalid.WithMessagef("penalty %d bps", r.Terms.PenaltyBps)
	}
	return nil
}
