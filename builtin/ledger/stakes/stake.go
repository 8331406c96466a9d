// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakes

import (
	"github.com/vechain/stakeledger/asset"
	"github.com/vechain/stakeledger/thor"
)

// Stake is one escrowed deposit. It is never deleted: an inactive stake stays as an audit record.
type Stake struct {
	RuleID    uint64
	Owner     thor.Address
	Start     uint64 // unix seconds, reset on every continuation
	Cycles    uint64 // cycles completed so far
	Active    bool
	Deposited asset.Bundle // concrete items escrowed, in rule order
}

// Multiplier returns the number of whole periods elapsed since Start.
func (s *Stake) Multiplier(now, period uint64) uint64 {
	if period == 0 || now <= s.Start {
		return 0
	}
	return (now - s.Start) / period
}
