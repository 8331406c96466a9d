// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/asset"
	"github.com/vechain/stakeledger/builtin/ledger"
	"github.com/vechain/stakeledger/builtin/ledger/randomness"
	"github.com/vechain/stakeledger/builtin/ledger/rules"
	"github.com/vechain/stakeledger/builtin/ledger/stakes"
	"github.com/vechain/stakeledger/thor"
)

type Terms struct {
	Period              uint64 `json:"period" yaml:"period"`
	PenaltyBps          uint64 `json:"penaltyBps" yaml:"penaltyBps"`
	MaxConcurrentStakes uint64 `json:"maxConcurrentStakes" yaml:"maxConcurrentStakes"`
	MaxStakesPerAccount uint64 `json:"maxStakesPerAccount" yaml:"maxStakesPerAccount"`
	Recurrent           bool   `json:"recurrent" yaml:"recurrent"`
	Advance             bool   `json:"advance" yaml:"advance"`
}

type Rule struct {
	ID       uint64   `json:"id,omitempty" yaml:"id,omitempty"`
	Deposit  Bundle   `json:"deposit" yaml:"deposit"`
	Reward   Bundle   `json:"reward" yaml:"reward"`
	Contents []Bundle `json:"contents,omitempty" yaml:"contents,omitempty"`
	Terms    Terms    `json:"terms" yaml:"terms"`
	Active   bool     `json:"active" yaml:"active"`
}

func ConvertRule(id uint64, r *rules.Rule) *Rule {
	out := &Rule{
		ID:      id,
		Deposit: ConvertBundle(r.Deposit),
		Reward:  ConvertBundle(r.Reward),
		Terms:   Terms(r.Terms),
		Active:  r.Active,
	}
	for _, c := range r.Contents {
		out.Contents = append(out.Contents, ConvertBundle(c))
	}
	return out
}

// Rule parses the json form, the id and active flag are ignored.
func (r *Rule) Rule() (*rules.Rule, error) {
	deposit, err := r.Deposit.Bundle()
	if err != nil {
		return nil, errors.WithMessage(err, "deposit")
	}
	reward, err := r.Reward.Bundle()
	if err != nil {
		return nil, errors.WithMessage(err, "reward")
	}
	out := &rules.Rule{Deposit: deposit, Reward: reward, Terms: rules.Terms(r.Terms)}
	for i, c := range r.Contents {
		contents, err := c.Bundle()
		if err != nil {
			return nil, errors.WithMessagef(err, "contents %d", i)
		}
		out.Contents = append(out.Contents, contents)
	}
	return out, nil
}

type Stake struct {
	ID        uint64       `json:"id"`
	RuleID    uint64       `json:"ruleID"`
	Owner     thor.Address `json:"owner"`
	Start     uint64       `json:"start"`
	Cycles    uint64       `json:"cycles"`
	Active    bool         `json:"active"`
	Deposited Bundle       `json:"deposited"`
}

func ConvertStake(id uint64, s *stakes.Stake) *Stake {
	return &Stake{
		ID:        id,
		RuleID:    s.RuleID,
		Owner:     s.Owner,
		Start:     s.Start,
		Cycles:    s.Cycles,
		Active:    s.Active,
		Deposited: ConvertBundle(s.Deposited),
	}
}

type Request struct {
	ID      uint64       `json:"id"`
	StakeID uint64       `json:"stakeID"`
	RuleID  uint64       `json:"ruleID"`
	Owner   thor.Address `json:"owner"`
	Leg     Asset        `json:"leg"`
	Seed    thor.Bytes32 `json:"seed"`
}

func ConvertRequest(id uint64, r *randomness.Request) *Request {
	return &Request{
		ID:      id,
		StakeID: r.StakeID,
		RuleID:  r.RuleID,
		Owner:   r.Owner,
		Leg:     ConvertAsset(r.Leg),
		Seed:    r.Seed,
	}
}

// Balance is a quantity of one custody key.
type Balance struct {
	Kind   string                `json:"kind"`
	Token  *thor.Address         `json:"token,omitempty"`
	ID     *math.HexOrDecimal256 `json:"id,omitempty"`
	Amount *math.HexOrDecimal256 `json:"amount"`
}

func ConvertBalance(key asset.Key, amount *big.Int) *Balance {
	b := &Balance{Kind: key.Kind.String(), Amount: hexOrDecimal(amount)}
	if key.Kind != asset.Native {
		token := key.Token
		b.Token = &token
	}
	if key.Kind.HasID() {
		b.ID = hexOrDecimal(key.ID)
	}
	return b
}

// Event is the json form of a ledger event. RuleID, StakeID and Account index the event,
// Data holds the remaining fields.
type Event struct {
	Name    string         `json:"name"`
	RuleID  uint64         `json:"ruleID,omitempty"`
	StakeID uint64         `json:"stakeID,omitempty"`
	Account *thor.Address  `json:"account,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}

func ids(values []*big.Int) []*math.HexOrDecimal256 {
	out := make([]*math.HexOrDecimal256, 0, len(values))
	for _, v := range values {
		out = append(out, hexOrDecimal(v))
	}
	return out
}

func ConvertEvent(ev ledger.Event) *Event {
	out := &Event{Name: ev.EventName()}
	account := func(a thor.Address) { out.Account = &a }

	switch e := ev.(type) {
	case ledger.RuleCreated:
		out.RuleID = e.RuleID
	case ledger.RuleActivation:
		out.RuleID = e.RuleID
		out.Data = map[string]any{"active": e.Active}
	case ledger.DepositStarted:
		out.RuleID, out.StakeID = e.RuleID, e.StakeID
		account(e.Owner)
		out.Data = map[string]any{"time": e.Time, "ids": ids(e.IDs)}
	case ledger.Referral:
		out.StakeID = e.StakeID
		account(e.Owner)
		out.Data = map[string]any{"referrer": e.Referrer, "deposit": ConvertBundle(e.Deposit)}
	case ledger.RewardCycleFinished:
		out.StakeID = e.StakeID
		account(e.Owner)
		out.Data = map[string]any{"cycles": e.Cycles, "reward": ConvertBundle(e.Reward)}
	case ledger.DepositWithdrawn:
		out.StakeID = e.StakeID
		account(e.Owner)
		out.Data = map[string]any{"deposit": ConvertBundle(e.Deposit)}
	case ledger.DepositReturned:
		out.StakeID = e.StakeID
		account(e.Owner)
		out.Data = map[string]any{"returned": ConvertBundle(e.Returned)}
	case ledger.PenaltySeized:
		out.StakeID = e.StakeID
		out.Data = map[string]any{"seized": ConvertAsset(e.Seized)}
	case ledger.BalanceWithdrawn:
		account(e.To)
		out.Data = map[string]any{"balance": ConvertBalance(e.Key, e.Amount)}
	case ledger.RewardsFunded:
		account(e.Funder)
		out.Data = map[string]any{"assets": ConvertBundle(e.Assets)}
	case ledger.RandomnessRequested:
		out.StakeID = e.StakeID
		out.Data = map[string]any{"requestID": e.RequestID, "leg": ConvertAsset(e.Leg), "seed": e.Seed}
	case ledger.RandomRewardIssued:
		out.StakeID = e.StakeID
		account(e.Owner)
		out.Data = map[string]any{"requestID": e.RequestID, "item": ConvertAsset(e.Item)}
	}
	return out
}

func ConvertEvents(events []ledger.Event) []*Event {
	out := make([]*Event, 0, len(events))
	for _, ev := range events {
		out = append(out, ConvertEvent(ev))
	}
	return out
}
