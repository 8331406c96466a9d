// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import "github.com/vechain/stakeledger/metrics"

var (
	metricCalls          = metrics.LazyLoadCounterVec("ledger_calls_count", []string{"op", "result"})
	metricReentrantCalls = metrics.LazyLoadCounter("ledger_reentrant_calls_count")
	metricDeposits       = metrics.LazyLoadCounter("ledger_deposits_count")
	metricOpenStakes     = metrics.LazyLoadGauge("ledger_open_stakes")
	metricCyclesPaid     = metrics.LazyLoadCounter("ledger_reward_cycles_count")
	metricWithdrawals    = metrics.LazyLoadCounterVec("ledger_withdrawals_count", []string{"kind"})
	metricPenalties      = metrics.LazyLoadCounterVec("ledger_penalties_seized_count", []string{"kind"})
)
