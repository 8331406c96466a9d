// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/asset"
	"github.com/vechain/stakeledger/builtin/access"
	"github.com/vechain/stakeledger/builtin/ledger/randomness"
	"github.com/vechain/stakeledger/builtin/ledger/rules"
	"github.com/vechain/stakeledger/builtin/ledger/stakes"
	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/thor"
	"github.com/vechain/stakeledger/xenv"
)

// Deposit escrows the rule's deposit bundle from the caller and opens a stake. ids holds the
// item identifier chosen for each deposit leg and may be nil when the rule has no wildcard items.
func (l *Ledger) Deposit(env *xenv.Environment, ruleID uint64, referrer thor.Address, ids []*big.Int) (uint64, error) {
	var stakeID uint64
	err := l.execute("deposit", env, func() error {
		if err := l.access.RequireOpen(); err != nil {
			return err
		}
		rule, err := l.rulesService.Get(ruleID)
		if err != nil {
			return err
		}
		if !rule.Active {
			return reverts.ErrRuleNotActive.WithMessagef("rule %d", ruleID)
		}
		if err := l.countersService.Open(
			ruleID,
			env.Caller(),
			rule.Terms.MaxConcurrentStakes,
			rule.Terms.MaxStakesPerAccount,
		); err != nil {
			return err
		}
		deposited, err := resolveDeposit(rule, ids)
		if err != nil {
			return err
		}
		if total := deposited.NativeTotal(); total.Cmp(env.Value()) != 0 {
			return reverts.ErrInsufficientPay.WithMessagef("attached %v, required %v", env.Value(), total)
		}

		stake := &stakes.Stake{
			RuleID:    ruleID,
			Owner:     env.Caller(),
			Start:     env.Time(),
			Active:    true,
			Deposited: deposited,
		}
		if stakeID, err = l.stakesService.Add(stake); err != nil {
			return err
		}

		for i, a := range deposited {
			if _, err := l.mover.Move(env, asset.Transfer{
				Asset:     a,
				From:      env.Caller(),
				Direction: asset.Pull,
				Value:     a.Quantity(),
			}); err != nil {
				return errors.WithMessagef(err, "deposit leg %d", i)
			}
		}

		used := make([]*big.Int, len(deposited))
		for i, a := range deposited {
			used[i] = a.IDOrZero()
		}
		l.emit(DepositStarted{RuleID: ruleID, StakeID: stakeID, Owner: env.Caller(), Time: env.Time(), IDs: used})
		if !referrer.IsZero() {
			l.emit(Referral{StakeID: stakeID, Owner: env.Caller(), Referrer: referrer, Deposit: deposited.Clone()})
		}

		if rule.Terms.Advance {
			if err := l.stakesService.Continue(stakeID, stake, 1, env.Time()); err != nil {
				return err
			}
			if err := l.payReward(env, stakeID, stake, rule, 1); err != nil {
				return errors.WithMessage(err, "advance reward")
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return stakeID, nil
}

// resolveDeposit binds the caller's item identifiers to the rule's deposit legs.
func resolveDeposit(rule *rules.Rule, ids []*big.Int) (asset.Bundle, error) {
	if len(ids) != 0 && len(ids) != len(rule.Deposit) {
		return nil, reverts.ErrWrongTemplate.WithMessagef("%d identifiers for %d deposit legs", len(ids), len(rule.Deposit))
	}
	deposited := rule.Deposit.Clone()
	for i, leg := range deposited {
		if !leg.Kind.IsItem() {
			continue
		}
		chosen := new(big.Int)
		if len(ids) != 0 && ids[i] != nil {
			chosen.Set(ids[i])
		}
		want := leg.IDOrZero()
		switch {
		case want.Sign() == 0 && chosen.Sign() <= 0:
			return nil, reverts.ErrWrongTemplate.WithMessagef("leg %d accepts any %v item, none chosen", i, leg.Kind)
		case want.Sign() == 0:
			deposited[i] = leg.WithID(chosen)
		case chosen.Sign() != 0 && chosen.Cmp(want) != 0:
			return nil, reverts.ErrWrongTemplate.WithMessagef("leg %d requires item %v, got %v", i, want, chosen)
		}
	}
	return deposited, nil
}

// ReceiveReward settles a stake: it pays the cycles elapsed since the stake clock was last
// reset and, depending on the rule and the flags, keeps the stake running or closes it.
func (l *Ledger) ReceiveReward(env *xenv.Environment, stakeID uint64, withdrawDeposit, breakLastPeriod bool) (Decision, error) {
	var decision Decision
	err := l.execute("receiveReward", env, func() error {
		if err := l.access.RequireOpen(); err != nil {
			return err
		}
		stake, err := l.stakesService.Get(stakeID)
		if err != nil {
			return err
		}
		if stake.Owner != env.Caller() {
			return reverts.ErrNotStakeOwner.WithMessagef("stake %d", stakeID)
		}
		if !stake.Active {
			return reverts.ErrStakeAlreadyWithdrawn.WithMessagef("stake %d", stakeID)
		}
		rule, err := l.rulesService.Get(stake.RuleID)
		if err != nil {
			return err
		}

		multiplier := stake.Multiplier(env.Time(), rule.Terms.Period)
		decision = Decide(multiplier, rule.Terms.Recurrent, withdrawDeposit, breakLastPeriod)
		logger.Debug("reward decision",
			"stake", stakeID,
			"multiplier", multiplier,
			"recurrent", rule.Terms.Recurrent,
			"withdraw", withdrawDeposit,
			"break", breakLastPeriod,
			"action", decision.Action,
		)

		switch decision.Action {
		case Abort:
			return reverts.ErrDepositNotComplete.WithMessagef("stake %d started at %d, period %d", stakeID, stake.Start, rule.Terms.Period)
		case Idle:
			return l.stakesService.Continue(stakeID, stake, 0, env.Time())
		case Continue:
			if err := l.stakesService.Continue(stakeID, stake, multiplier, env.Time()); err != nil {
				return err
			}
			return l.payReward(env, stakeID, stake, rule, multiplier)
		}
		return l.terminate(env, stakeID, stake, rule, decision)
	})
	if err != nil {
		return Decision{}, err
	}
	return decision, nil
}

// terminate closes the stake and returns its deposit, the bookkeeping settles before any
// asset leaves custody.
func (l *Ledger) terminate(env *xenv.Environment, stakeID uint64, stake *stakes.Stake, rule *rules.Rule, d Decision) error {
	if err := l.stakesService.Close(stakeID, stake, d.Multiplier); err != nil {
		return err
	}
	if err := l.countersService.Close(stake.RuleID, stake.Owner); err != nil {
		return err
	}

	var (
		returns  []asset.Transfer
		seizures []asset.Transfer
		returned asset.Bundle
	)
	for _, a := range stake.Deposited {
		back, seized := a.Quantity(), new(big.Int)
		if d.Penalize {
			var err error
			if back, seized, err = asset.Split(a.Quantity(), rule.Terms.PenaltyBps); err != nil {
				return err
			}
		}
		if seized.Sign() > 0 {
			if err := l.penaltyService.Seize(a.Key(), seized); err != nil {
				return err
			}
			seizures = append(seizures, asset.Transfer{Asset: a.Key().Asset(seized), Direction: asset.Retain})
		}
		if back.Sign() > 0 {
			leg := a.Key().Asset(back)
			returned = append(returned, leg)
			returns = append(returns, asset.Transfer{Asset: leg, To: stake.Owner, Direction: asset.Push})
		}
	}

	for _, t := range seizures {
		if _, err := l.mover.Move(env, t); err != nil {
			return err
		}
		l.emit(PenaltySeized{StakeID: stakeID, Seized: t.Asset})
	}
	if d.Reward {
		if err := l.payReward(env, stakeID, stake, rule, d.Multiplier); err != nil {
			return err
		}
	}
	for _, t := range returns {
		if _, err := l.mover.Move(env, t); err != nil {
			return errors.WithMessage(err, "deposit return")
		}
	}

	if d.Penalize {
		l.emit(DepositReturned{StakeID: stakeID, Owner: stake.Owner, Returned: returned})
	} else {
		l.emit(DepositWithdrawn{StakeID: stakeID, Owner: stake.Owner, Deposit: stake.Deposited.Clone()})
	}
	return nil
}

// payReward pays cycles of the rule reward to the stake owner. Pool liabilities are debited
// first, random legs only record oracle requests.
func (l *Ledger) payReward(env *xenv.Environment, stakeID uint64, stake *stakes.Stake, rule *rules.Rule, cycles uint64) error {
	var plan []asset.Transfer
	for i, leg := range rule.Reward {
		switch {
		case rule.IsRandom(i):
			for c := uint64(0); c < cycles; c++ {
				req := &randomness.Request{
					StakeID:  stakeID,
					RuleID:   stake.RuleID,
					Owner:    stake.Owner,
					Leg:      leg,
					Contents: rule.ContentsOf(i).Clone(),
				}
				id, err := l.requestService.Add(req, l.entropy(env, stakeID, c))
				if err != nil {
					return err
				}
				l.emit(RandomnessRequested{RequestID: id, StakeID: stakeID, Leg: leg, Seed: req.Seed})
			}
		case leg.Kind.IsItem():
			contents := rule.ContentsOf(i)
			for c := uint64(0); c < cycles; c++ {
				if err := l.debitPool(contents); err != nil {
					return err
				}
				plan = append(plan, asset.Transfer{Asset: leg, To: stake.Owner, Direction: asset.Issue, Contents: contents})
			}
		default:
			scaled, err := asset.Scale(leg, cycles)
			if err != nil {
				return err
			}
			if err := l.rewardPoolService.Debit(scaled.Key(), scaled.Quantity()); err != nil {
				return err
			}
			plan = append(plan, asset.Transfer{Asset: scaled, To: stake.Owner, Direction: asset.Push})
		}
	}

	var paid asset.Bundle
	for _, t := range plan {
		minted, err := l.mover.Move(env, t)
		if err != nil {
			return errors.WithMessage(err, "reward")
		}
		if minted != nil {
			paid = append(paid, t.Asset.WithID(minted))
		} else {
			paid = append(paid, t.Asset)
		}
	}
	l.emit(RewardCycleFinished{StakeID: stakeID, Owner: stake.Owner, Cycles: cycles, Reward: paid})
	return nil
}

func (l *Ledger) debitPool(contents asset.Bundle) error {
	keys, totals := contents.Totals()
	for _, k := range keys {
		if err := l.rewardPoolService.Debit(k, totals[string(k.Bytes())]); err != nil {
			return err
		}
	}
	return nil
}

func (l *Ledger) entropy(env *xenv.Environment, stakeID, cycle uint64) thor.Bytes32 {
	return thor.Blake2b(
		env.TransactionContext().ID.Bytes(),
		thor.Uint64ToBytes32(env.Time()).Bytes(),
		thor.Uint64ToBytes32(stakeID).Bytes(),
		thor.Uint64ToBytes32(cycle).Bytes(),
	)
}

// FulfillRandomness issues the item of a pending random reward. The word picks the template
// among the leg's amount of templates, numbered from 1.
func (l *Ledger) FulfillRandomness(env *xenv.Environment, requestID uint64, word *big.Int) (asset.Asset, error) {
	var item asset.Asset
	err := l.execute("fulfillRandomness", env, func() error {
		if err := l.access.RequireOpen(); err != nil {
			return err
		}
		if err := l.access.Require(access.Oracle, env.Caller()); err != nil {
			return err
		}
		req, err := l.requestService.Get(requestID)
		if err != nil {
			return err
		}
		l.requestService.Remove(requestID)
		if err := l.debitPool(req.Contents); err != nil {
			return err
		}

		leg := req.Leg.WithID(Template(word, req.Leg.Amount))
		minted, err := l.mover.Move(env, asset.Transfer{
			Asset:     leg,
			To:        req.Owner,
			Direction: asset.Issue,
			Contents:  req.Contents,
		})
		if err != nil {
			return errors.WithMessage(err, "random reward")
		}
		item = leg.WithID(minted)
		l.emit(RandomRewardIssued{RequestID: requestID, StakeID: req.StakeID, Owner: req.Owner, Item: item})
		return nil
	})
	if err != nil {
		return asset.Asset{}, err
	}
	return item, nil
}

// Template maps a random word to a template in [1, choices].
func Template(word, choices *big.Int) *big.Int {
	n := big.NewInt(1)
	if choices != nil && choices.Cmp(n) > 0 {
		n.Set(choices)
	}
	w := new(big.Int)
	if word != nil {
		w.Abs(word)
	}
	t := new(big.Int).Mod(w, n)
	return t.Add(t, big.NewInt(1))
}
