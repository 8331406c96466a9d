// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"math/big"

	"github.com/vechain/stakeledger/asset"
	"github.com/vechain/stakeledger/thor"
)

// Event is emitted by a ledger call and delivered once the call succeeded.
type Event interface {
	EventName() string
}

type RuleCreated struct {
	RuleID uint64
}

type RuleActivation struct {
	RuleID uint64
	Active bool
}

type DepositStarted struct {
	RuleID  uint64
	StakeID uint64
	Owner   thor.Address
	Time    uint64
	IDs     []*big.Int // concrete item identifiers, one per deposit leg
}

type Referral struct {
	StakeID  uint64
	Owner    thor.Address
	Referrer thor.Address
	Deposit  asset.Bundle
}

type RewardCycleFinished struct {
	StakeID uint64
	Owner   thor.Address
	Cycles  uint64 // cycles paid by this call
	Reward  asset.Bundle
}

// DepositWithdrawn is emitted when a completed stake returns its full deposit.
type DepositWithdrawn struct {
	StakeID uint64
	Owner   thor.Address
	Deposit asset.Bundle
}

// DepositReturned is emitted when a stake is closed early and its deposit returned less the penalty.
type DepositReturned struct {
	StakeID  uint64
	Owner    thor.Address
	Returned asset.Bundle
}

type PenaltySeized struct {
	StakeID uint64
	Seized  asset.Asset
}

type BalanceWithdrawn struct {
	Key    asset.Key
	To     thor.Address
	Amount *big.Int
}

type RewardsFunded struct {
	Funder thor.Address
	Assets asset.Bundle
}

type RandomnessRequested struct {
	RequestID uint64
	StakeID   uint64
	Leg       asset.Asset
	Seed      thor.Bytes32
}

type RandomRewardIssued struct {
	RequestID uint64
	StakeID   uint64
	Owner     thor.Address
	Item      asset.Asset
}

func (RuleCreated) EventName() string         { return "RuleCreated" }
func (RuleActivation) EventName() string      { return "RuleActivation" }
func (DepositStarted) EventName() string      { return "DepositStarted" }
func (Referral) EventName() string            { return "Referral" }
func (RewardCycleFinished) EventName() string { return "RewardCycleFinished" }
func (DepositWithdrawn) EventName() string    { return "DepositWithdrawn" }
func (DepositReturned) EventName() string     { return "DepositReturned" }
func (PenaltySeized) EventName() string       { return "PenaltySeized" }
func (BalanceWithdrawn) EventName() string    { return "BalanceWithdrawn" }
func (RewardsFunded) EventName() string       { return "RewardsFunded" }
func (RandomnessRequested) EventName() string { return "RandomnessRequested" }
func (RandomRewardIssued) EventName() string  { return "RandomRewardIssued" }
