// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"encoding/binary"
	"encoding/json"
	"math/big"

	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"
	"gopkg.in/cheggaaa/pb.v1"

	"github.com/vechain/stakeledger/api/types"
	"github.com/vechain/stakeledger/asset"
	"github.com/vechain/stakeledger/builtin/ledger"
	"github.com/vechain/stakeledger/builtin/ledger/rules"
	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/lvldb"
	"github.com/vechain/stakeledger/node"
	"github.com/vechain/stakeledger/oracle"
	"github.com/vechain/stakeledger/thor"
	"github.com/vechain/stakeledger/xenv"
)

type actionFunc func(n *node.Node, a *Action) ([]ledger.Event, error)

var actions = map[string]actionFunc{
	"create-rules": func(n *node.Node, a *Action) ([]ledger.Event, error) {
		parsed := make([]*rules.Rule, 0, len(a.Rules))
		for i := range a.Rules {
			r, err := a.Rules[i].Rule()
			if err != nil {
				return nil, errors.WithMessagef(err, "rule %d", i)
			}
			parsed = append(parsed, r)
		}
		return n.Call(a.Caller, nil, func(env *xenv.Environment) error {
			_, err := n.Ledger().CreateRules(env, parsed)
			return err
		})
	},
	"set-active": func(n *node.Node, a *Action) ([]ledger.Event, error) {
		return n.Call(a.Caller, nil, func(env *xenv.Environment) error {
			return n.Ledger().SetRuleActive(env, a.Rule, a.Active)
		})
	},
	"fund": func(n *node.Node, a *Action) ([]ledger.Event, error) {
		assets, err := a.Assets.Bundle()
		if err != nil {
			return nil, err
		}
		value := assets.NativeTotal()
		if a.Value != nil {
			value = (*big.Int)(a.Value)
		}
		return n.Call(a.Caller, value, func(env *xenv.Environment) error {
			return n.Ledger().FundRewards(env, assets)
		})
	},
	"deposit": func(n *node.Node, a *Action) ([]ledger.Event, error) {
		ids := make([]*big.Int, 0, len(a.IDs))
		for _, id := range a.IDs {
			if id == nil {
				ids = append(ids, new(big.Int))
				continue
			}
			ids = append(ids, (*big.Int)(id))
		}
		var value *big.Int
		if a.Value != nil {
			value = (*big.Int)(a.Value)
		}
		return n.Call(a.Caller, value, func(env *xenv.Environment) error {
			_, err := n.Ledger().Deposit(env, a.Rule, a.Referrer, ids)
			return err
		})
	},
	"reward": func(n *node.Node, a *Action) ([]ledger.Event, error) {
		return n.Call(a.Caller, nil, func(env *xenv.Environment) error {
			_, err := n.Ledger().ReceiveReward(env, a.Stake, a.Withdraw, a.Break)
			return err
		})
	},
	"withdraw-penalty": func(n *node.Node, a *Action) ([]ledger.Event, error) {
		if a.Key == nil {
			return nil, errors.New("key required")
		}
		item, err := a.Key.Asset()
		if err != nil {
			return nil, err
		}
		return n.Call(a.Caller, nil, func(env *xenv.Environment) error {
			_, err := n.Ledger().WithdrawBalance(env, item.Key())
			return err
		})
	},
	"fulfill": func(n *node.Node, a *Action) ([]ledger.Event, error) {
		if a.Word == nil {
			return nil, errors.New("word required")
		}
		return n.Call(a.Caller, nil, func(env *xenv.Environment) error {
			_, err := n.Ledger().FulfillRandomness(env, a.Request, new(big.Int).Set((*big.Int)(a.Word)))
			return err
		})
	},
	"pause": func(n *node.Node, a *Action) ([]ledger.Event, error) {
		return n.Call(a.Caller, nil, func(env *xenv.Environment) error {
			return n.Access().Pause(env)
		})
	},
	"unpause": func(n *node.Node, a *Action) ([]ledger.Event, error) {
		return n.Call(a.Caller, nil, func(env *xenv.Environment) error {
			return n.Access().Unpause(env)
		})
	},
}

// Step is the outcome of one scenario action.
type Step struct {
	Index  int            `json:"index"`
	Op     string         `json:"op"`
	Time   uint64         `json:"time"`
	Error  string         `json:"error,omitempty"`
	Events []*types.Event `json:"events,omitempty"`
}

type Holding struct {
	Account thor.Address     `json:"account"`
	Assets  []*types.Balance `json:"assets"`
}

// Report is what a scenario run produces, compared against --expect.
type Report struct {
	Steps      []Step           `json:"steps"`
	Holdings   []Holding        `json:"holdings"`
	Escrow     []*types.Balance `json:"escrow"`
	Penalties  []*types.Balance `json:"penalties"`
	RewardPool []*types.Balance `json:"rewardPool"`
}

func errorCode(err error) string {
	if re, ok := reverts.AsRevert(err); ok {
		return re.Code()
	}
	return err.Error()
}

// runScenario replays the scenario of cfg on a fresh in-memory ledger.
func runScenario(cfg *Config, progress bool) (*Report, error) {
	db, err := lvldb.NewMem()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var (
		now   = cfg.Scenario.Start
		calls uint64
	)
	n, err := node.New(db, &cfg.Genesis, nil, node.Options{
		Clock: func() uint64 { return now },
		// derived from the call sequence, so random rewards replay identically
		TxID: func() thor.Bytes32 {
			calls++
			var b thor.Bytes32
			binary.BigEndian.PutUint64(b[24:], calls)
			return thor.Blake2b(b[:])
		},
	})
	if err != nil {
		return nil, err
	}
	defer n.Close()

	key, err := cfg.Oracle.PrivateKey()
	if err != nil {
		return nil, err
	}
	var o *oracle.Oracle
	if key != nil {
		o = oracle.New(key)
	}

	var bar *pb.ProgressBar
	if progress {
		bar = pb.New(len(cfg.Scenario.Actions)).SetMaxWidth(90).Start()
		defer func() { bar.NotPrint = true }()
	}

	report := &Report{}
	for i := range cfg.Scenario.Actions {
		a := &cfg.Scenario.Actions[i]
		now += a.Elapse
		step := Step{Index: i, Op: a.Op, Time: now}

		events, err := actions[a.Op](n, a)
		switch {
		case err != nil && a.Expect == "":
			step.Error = errorCode(err)
		case err != nil && errorCode(err) != a.Expect:
			return nil, errors.Errorf("action %d (%s): expected %s, got %v", i, a.Op, a.Expect, err)
		case err == nil && a.Expect != "":
			return nil, errors.Errorf("action %d (%s): expected %s, got success", i, a.Op, a.Expect)
		case err != nil:
			step.Error = a.Expect
		}

		if o != nil {
			fulfilled, err := fulfill(n, o, events)
			if err != nil {
				return nil, errors.WithMessagef(err, "action %d: oracle", i)
			}
			events = append(events, fulfilled...)
		}
		step.Events = types.ConvertEvents(events)
		report.Steps = append(report.Steps, step)

		if bar != nil {
			bar.Increment()
		}
	}
	if bar != nil {
		bar.Finish()
	}

	if err := fillBalances(n, &cfg.Genesis, report); err != nil {
		return nil, err
	}
	return report, nil
}

// fulfill answers every randomness request raised by events.
func fulfill(n *node.Node, o *oracle.Oracle, events []ledger.Event) ([]ledger.Event, error) {
	var out []ledger.Event
	for _, ev := range events {
		req, ok := ev.(ledger.RandomnessRequested)
		if !ok {
			continue
		}
		fulfilled, err := n.Call(o.Address(), nil, func(env *xenv.Environment) error {
			_, err := o.Fulfill(env, n.Ledger(), req.RequestID)
			return err
		})
		if err != nil {
			return nil, err
		}
		out = append(out, fulfilled...)
	}
	return out, nil
}

// fillBalances reports the native and fungible holdings of the genesis accounts and the
// ledger buckets of the same assets.
func fillBalances(n *node.Node, gen *node.Genesis, report *Report) error {
	keys := []asset.Key{asset.NewKey(asset.Native, thor.Address{}, nil)}
	for _, t := range gen.Tokens {
		if t.Kind == asset.Fungible.String() {
			keys = append(keys, asset.NewKey(asset.Fungible, t.Address, nil))
		}
	}

	balanceOf := func(key asset.Key, account thor.Address) (*big.Int, error) {
		if key.Kind == asset.Native {
			return n.Registry().NativeToken().BalanceOf(account)
		}
		return n.Registry().FungibleToken(key.Token).BalanceOf(account)
	}

	seen := map[thor.Address]bool{}
	for _, alloc := range gen.Balances {
		if seen[alloc.Account] {
			continue
		}
		seen[alloc.Account] = true
		holding := Holding{Account: alloc.Account}
		for _, key := range keys {
			bal, err := balanceOf(key, alloc.Account)
			if err != nil {
				return err
			}
			holding.Assets = append(holding.Assets, types.ConvertBalance(key, bal))
		}
		report.Holdings = append(report.Holdings, holding)
	}

	return n.View(func(l *ledger.Ledger) error {
		for _, key := range keys {
			escrow, err := l.DepositBalance(key)
			if err != nil {
				return err
			}
			seized, err := l.PenaltyBalance(key)
			if err != nil {
				return err
			}
			pool, err := l.RewardPoolBalance(key)
			if err != nil {
				return err
			}
			report.Escrow = append(report.Escrow, types.ConvertBalance(key, escrow))
			report.Penalties = append(report.Penalties, types.ConvertBalance(key, seized))
			report.RewardPool = append(report.RewardPool, types.ConvertBalance(key, pool))
		}
		return nil
	})
}

func jsonDiff(expected, actual any) string {
	e, _ := json.MarshalIndent(expected, "", "  ")
	a, _ := json.MarshalIndent(actual, "", "  ")
	diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(e)),
		B:        difflib.SplitLines(string(a)),
		FromFile: "Expected",
		ToFile:   "Actual",
		Context:  1,
	})
	return diff
}
