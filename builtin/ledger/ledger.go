// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"math/big"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/event"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/asset"
	"github.com/vechain/stakeledger/builtin/access"
	"github.com/vechain/stakeledger/builtin/ledger/counters"
	"github.com/vechain/stakeledger/builtin/ledger/penalty"
	"github.com/vechain/stakeledger/builtin/ledger/randomness"
	"github.com/vechain/stakeledger/builtin/ledger/rewardpool"
	"github.com/vechain/stakeledger/builtin/ledger/rules"
	"github.com/vechain/stakeledger/builtin/ledger/stakes"
	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/builtin/solidity"
	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/thor"
	"github.com/vechain/stakeledger/xenv"
)

var logger = log.WithContext("pkg", "ledger")

func SetLogger(l log.Logger) {
	logger = l
}

// Ledger implements the staking ledger contract. Every state changing call runs under a
// single non-reentrant guard and either commits all of its effects or none of them.
type Ledger struct {
	addr   thor.Address
	state  *state.State
	access *access.Access
	mover  *asset.Mover

	rulesService      *rules.Service
	stakesService     *stakes.Service
	countersService   *counters.Service
	penaltyService    *penalty.Service
	rewardPoolService *rewardpool.Service
	requestService    *randomness.Service

	busy    atomic.Bool
	pending []Event

	feed  event.Feed
	scope event.SubscriptionScope
}

// New create a new instance. Custody is held by addr, asset contracts are resolved through dir.
func New(addr thor.Address, state *state.State, access *access.Access, dir asset.Directory) *Ledger {
	sctx := solidity.NewContext(addr, state)
	return &Ledger{
		addr:   addr,
		state:  state,
		access: access,
		mover:  asset.NewMover(addr, dir),

		rulesService:      rules.New(sctx),
		stakesService:     stakes.New(sctx),
		countersService:   counters.New(sctx),
		penaltyService:    penalty.New(sctx),
		rewardPoolService: rewardpool.New(sctx),
		requestService:    randomness.New(sctx),
	}
}

func (l *Ledger) Address() thor.Address {
	return l.addr
}

// Mover returns the custody mover, its audit trail lists every committed movement.
func (l *Ledger) Mover() *asset.Mover {
	return l.mover
}

// SubscribeEvents delivers the events of every successful call as one batch. The channel
// should be buffered, delivery blocks the caller of the ledger until received.
func (l *Ledger) SubscribeEvents(ch chan []Event) event.Subscription {
	return l.scope.Track(l.feed.Subscribe(ch))
}

// Close ends all subscriptions.
func (l *Ledger) Close() {
	l.scope.Close()
}

func (l *Ledger) emit(ev Event) {
	l.pending = append(l.pending, ev)
}

// execute runs fn as one atomic ledger call.
func (l *Ledger) execute(op string, env *xenv.Environment, fn func() error) error {
	if !l.busy.CompareAndSwap(false, true) {
		metricReentrantCalls().Add(1)
		logger.Debug("reentrant call rejected", "op", op, "caller", env.Caller())
		return reverts.ErrReentrant.WithMessagef("%s", op)
	}

	events, err := l.run(op, env, fn)
	l.busy.Store(false)

	if err != nil {
		result := "error"
		if reverts.IsRevertErr(err) {
			result = "revert"
		}
		metricCalls().AddWithLabel(1, map[string]string{"op": op, "result": result})
		logger.Info("call failed", "op", op, "caller", env.Caller(), "err", err)
		return err
	}
	metricCalls().AddWithLabel(1, map[string]string{"op": op, "result": "ok"})
	logger.Debug("call succeeded", "op", op, "caller", env.Caller(), "events", len(events))
	l.publish(events)
	return nil
}

func (l *Ledger) run(op string, env *xenv.Environment, fn func() error) (events []Event, err error) {
	checkpoint := l.state.NewCheckpoint()
	mark := l.mover.Mark()
	l.pending = l.pending[:0]

	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("ledger: %s panicked: %v", op, r)
		}
		if err != nil {
			l.state.RevertTo(checkpoint)
			l.mover.Rewind(mark)
			l.pending = l.pending[:0]
			return
		}
		events = append([]Event(nil), l.pending...)
		l.pending = l.pending[:0]
	}()

	logger.Trace("call", "op", op, "caller", env.Caller(), "time", env.Time())
	return nil, fn()
}

func (l *Ledger) publish(events []Event) {
	for _, ev := range events {
		switch e := ev.(type) {
		case DepositStarted:
			metricDeposits().Add(1)
			metricOpenStakes().Add(1)
		case RewardCycleFinished:
			metricCyclesPaid().Add(int64(e.Cycles))
		case DepositWithdrawn, DepositReturned:
			metricWithdrawals().AddWithLabel(1, map[string]string{"kind": ev.EventName()})
			metricOpenStakes().Add(-1)
		case PenaltySeized:
			metricPenalties().AddWithLabel(1, map[string]string{"kind": e.Seized.Kind.String()})
		}
	}
	if len(events) > 0 {
		l.feed.Send(events)
	}
}

//
// Getters - no state change
//

// Rule returns a rule by id.
func (l *Ledger) Rule(id uint64) (*rules.Rule, error) {
	return l.rulesService.Get(id)
}

// Stake returns a stake by id, closed stakes included.
func (l *Ledger) Stake(id uint64) (*stakes.Stake, error) {
	return l.stakesService.Get(id)
}

func (l *Ledger) RuleCount() (uint64, error) {
	return l.rulesService.Count()
}

func (l *Ledger) StakeCount() (uint64, error) {
	return l.stakesService.Count()
}

// OpenStakes returns the number of active stakes under a rule.
func (l *Ledger) OpenStakes(ruleID uint64) (uint64, error) {
	return l.countersService.OpenStakes(ruleID)
}

// OpenStakesOf returns the number of active stakes of an account under a rule.
func (l *Ledger) OpenStakesOf(account thor.Address, ruleID uint64) (uint64, error) {
	return l.countersService.OpenStakesOf(account, ruleID)
}

// PenaltyBalance returns the seized quantity waiting in a penalty bucket.
func (l *Ledger) PenaltyBalance(key asset.Key) (*big.Int, error) {
	return l.penaltyService.Balance(key)
}

// DepositBalance returns the quantity of key escrowed by active stakes.
func (l *Ledger) DepositBalance(key asset.Key) (*big.Int, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	return l.stakesService.Escrowed(key)
}

// TokenDepositBalance returns the quantity of a token escrowed by active stakes, all item
// identifiers together.
func (l *Ledger) TokenDepositBalance(kind asset.Kind, token thor.Address) (*big.Int, error) {
	if !kind.Valid() {
		return nil, reverts.ErrUnsupportedAssetKind.WithMessagef("kind %d", uint8(kind))
	}
	return l.stakesService.TokenEscrowed(kind, token)
}

// RewardPoolBalance returns the funded quantity of key not yet paid out.
func (l *Ledger) RewardPoolBalance(key asset.Key) (*big.Int, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	return l.rewardPoolService.Balance(key)
}

// RequestCount returns the number of randomness requests ever made.
func (l *Ledger) RequestCount() (uint64, error) {
	return l.requestService.Count()
}

// PendingRequest returns a randomness request waiting for the oracle.
func (l *Ledger) PendingRequest(id uint64) (*randomness.Request, error) {
	return l.requestService.Get(id)
}

//
// Administration
//

// CreateRules validates and registers rules, all of them or none. Rules start active.
func (l *Ledger) CreateRules(env *xenv.Environment, newRules []*rules.Rule) ([]uint64, error) {
	var ids []uint64
	err := l.execute("createRules", env, func() error {
		if err := l.access.Require(access.RuleAdmin, env.Caller()); err != nil {
			return err
		}
		ids = ids[:0]
		for i, rule := range newRules {
			if rule == nil {
				return reverts.ErrRuleInvalid.WithMessagef("rule %d is empty", i)
			}
			r := *rule
			r.Active = true
			id, err := l.rulesService.Add(&r)
			if err != nil {
				return err
			}
			ids = append(ids, id)
			l.emit(RuleCreated{RuleID: id})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// SetRuleActive enables or disables deposits under a rule.
func (l *Ledger) SetRuleActive(env *xenv.Environment, id uint64, active bool) error {
	return l.execute("setRuleActive", env, func() error {
		if err := l.access.Require(access.RuleAdmin, env.Caller()); err != nil {
			return err
		}
		if err := l.rulesService.SetActive(id, active); err != nil {
			return err
		}
		l.emit(RuleActivation{RuleID: id, Active: active})
		return nil
	})
}

// FundRewards pulls assets from the caller into the reward pool.
func (l *Ledger) FundRewards(env *xenv.Environment, assets asset.Bundle) error {
	return l.execute("fundRewards", env, func() error {
		if err := l.access.RequireOpen(); err != nil {
			return err
		}
		if len(assets) == 0 {
			return reverts.ErrInvalidAsset.WithMessagef("empty funding bundle")
		}
		if err := assets.Validate(); err != nil {
			return err
		}
		for _, a := range assets {
			if a.Kind.IsItem() && a.IDOrZero().Sign() == 0 {
				return reverts.ErrInvalidAsset.WithMessagef("funding %v without item id", a.Kind)
			}
		}
		if total := assets.NativeTotal(); total.Cmp(env.Value()) != 0 {
			return reverts.ErrInsufficientPay.WithMessagef("attached %v, required %v", env.Value(), total)
		}

		for _, a := range assets {
			if err := l.rewardPoolService.Fund(a.Key(), a.Quantity()); err != nil {
				return err
			}
		}
		for _, a := range assets {
			if _, err := l.mover.Move(env, asset.Transfer{
				Asset:     a,
				From:      env.Caller(),
				Direction: asset.Pull,
				Value:     a.Quantity(),
			}); err != nil {
				return err
			}
		}
		l.emit(RewardsFunded{Funder: env.Caller(), Assets: assets.Clone()})
		return nil
	})
}

// WithdrawBalance drains a penalty bucket to the caller.
func (l *Ledger) WithdrawBalance(env *xenv.Environment, key asset.Key) (*big.Int, error) {
	var amount *big.Int
	err := l.execute("withdrawBalance", env, func() error {
		if err := l.access.RequireOpen(); err != nil {
			return err
		}
		if err := l.access.Require(access.PenaltyAdmin, env.Caller()); err != nil {
			return err
		}
		drained, err := l.penaltyService.Drain(key)
		if err != nil {
			return err
		}
		if _, err := l.mover.Move(env, asset.Transfer{
			Asset:     key.Asset(drained),
			To:        env.Caller(),
			Direction: asset.Push,
		}); err != nil {
			return err
		}
		amount = drained
		l.emit(BalanceWithdrawn{Key: key, To: env.Caller(), Amount: new(big.Int).Set(drained)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return amount, nil
}
