// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

// Action is the outcome of a reward call.
type Action uint8

const (
	// Abort fails the call with DepositNotComplete.
	Abort Action = iota + 1
	// Idle restarts the stake clock without paying anything.
	Idle
	// Continue pays the elapsed cycles and restarts the stake clock.
	Continue
	// Terminate closes the stake and returns its deposit.
	Terminate
)

func (a Action) String() string {
	switch a {
	case Abort:
		return "abort"
	case Idle:
		return "idle"
	case Continue:
		return "continue"
	case Terminate:
		return "terminate"
	}
	return "unknown"
}

// Decision is what a reward call does to a stake.
type Decision struct {
	Action     Action
	Multiplier uint64
	Reward     bool // multiplier cycles of reward are paid
	Penalize   bool // the deposit is returned less the rule penalty
}

// Decide maps the elapsed multiplier, the rule's recurrence and the caller flags to an action.
//
//	m == 0, recurrent, no flags      -> abort
//	m == 0, not recurrent, no flags  -> idle
//	m == 0, any flag                 -> terminate with penalty
//	m > 0, recurrent, no flags       -> continue with reward
//	m > 0, otherwise                 -> terminate with reward
//
// breakLastPeriod terminates whether or not the stake has completed cycles before.
func Decide(multiplier uint64, recurrent, withdrawDeposit, breakLastPeriod bool) Decision {
	d := Decision{Multiplier: multiplier}
	if multiplier == 0 && recurrent && !withdrawDeposit && !breakLastPeriod {
		d.Action = Abort
		return d
	}
	terminate := withdrawDeposit || breakLastPeriod || (multiplier > 0 && !recurrent)
	switch {
	case terminate:
		d.Action = Terminate
		d.Reward = multiplier > 0
		d.Penalize = multiplier == 0
	case multiplier > 0:
		d.Action = Continue
		d.Reward = true
	default:
		d.Action = Idle
	}
	return d
}
