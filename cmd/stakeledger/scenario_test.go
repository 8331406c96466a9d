// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/api/types"
	"github.com/vechain/stakeledger/thor"
)

var (
	admin = thor.BytesToAddress([]byte("admin"))
	alice = thor.BytesToAddress([]byte("alice"))
)

func amountOf(b *types.Balance) int64 {
	return (*big.Int)(b.Amount).Int64()
}

func TestLoadConfig(t *testing.T) {
	cfg, err := loadConfig("testdata/scenario.yaml")
	require.NoError(t, err)

	assert.Equal(t, admin, cfg.Genesis.Admin)
	assert.Len(t, cfg.Genesis.Balances, 3)
	assert.Equal(t, "fungible", cfg.Genesis.Balances[2].Kind)
	assert.Equal(t, int64(500), (*big.Int)(cfg.Genesis.Balances[2].Amount).Int64())

	require.Len(t, cfg.Scenario.Actions, 6)
	rule, err := cfg.Scenario.Actions[0].Rules[0].Rule()
	require.NoError(t, err)
	assert.Equal(t, uint64(5000), rule.Terms.PenaltyBps)
	assert.True(t, rule.Terms.Recurrent)
	assert.Equal(t, uint64(60), cfg.Scenario.Actions[4].Elapse)
	assert.Nil(t, cfg.Oracle)
}

func TestParseConfigErrors(t *testing.T) {
	_, err := parseConfig(strings.NewReader("scenario:\n  actions:\n    - op: mint\n"))
	assert.ErrorContains(t, err, `unknown op "mint"`)

	_, err = parseConfig(strings.NewReader("genesis:\n  owner: x\n"))
	assert.Error(t, err, "unknown fields are rejected")

	_, err = loadConfig("")
	assert.ErrorContains(t, err, "config file required")
}

func TestRunScenario(t *testing.T) {
	cfg, err := loadConfig("testdata/scenario.yaml")
	require.NoError(t, err)

	report, err := runScenario(cfg, false)
	require.NoError(t, err)
	require.Len(t, report.Steps, 6)

	assert.Equal(t, "RuleCreated", report.Steps[0].Events[0].Name)
	assert.Equal(t, "DepositStarted", report.Steps[2].Events[0].Name)
	assert.Equal(t, "InsufficientPayment", report.Steps[3].Error)
	assert.Empty(t, report.Steps[3].Events)
	assert.Equal(t, uint64(1_700_000_060), report.Steps[4].Time)

	var names []string
	for _, ev := range report.Steps[4].Events {
		names = append(names, ev.Name)
	}
	assert.Contains(t, names, "DepositWithdrawn")
	assert.Equal(t, "StakeAlreadyWithdrawn", report.Steps[5].Error)

	// two full periods of reward plus the deposit
	require.Len(t, report.Holdings, 2)
	assert.Equal(t, admin, report.Holdings[0].Account)
	assert.Equal(t, int64(80), amountOf(report.Holdings[0].Assets[0]))
	assert.Equal(t, alice, report.Holdings[1].Account)
	assert.Equal(t, int64(1020), amountOf(report.Holdings[1].Assets[0]))
	assert.Equal(t, int64(500), amountOf(report.Holdings[1].Assets[1]))

	for _, buckets := range [][]*types.Balance{report.Escrow, report.Penalties, report.RewardPool} {
		require.Len(t, buckets, 2)
		for _, b := range buckets {
			assert.Zero(t, amountOf(b))
		}
	}

	again, err := runScenario(cfg, false)
	require.NoError(t, err)
	assert.Empty(t, compareReports(report, again), "replays are deterministic")
}

func TestRunScenarioUnexpectedOutcome(t *testing.T) {
	cfg, err := loadConfig("testdata/scenario.yaml")
	require.NoError(t, err)
	cfg.Scenario.Actions[2].Expect = "RuleNotFound"

	_, err = runScenario(cfg, false)
	assert.ErrorContains(t, err, "expected RuleNotFound, got success")
}

func TestCompareReports(t *testing.T) {
	a := &Report{Steps: []Step{{Index: 0, Op: "deposit", Time: 1}}}
	b := &Report{Steps: []Step{{Index: 0, Op: "deposit", Time: 2}}}

	assert.Empty(t, compareReports(a, a))
	diff := compareReports(a, b)
	assert.Contains(t, diff, "--- Expected")
	assert.Contains(t, diff, "+++ Actual")
	assert.Contains(t, diff, `-      "time": 1`)
	assert.Contains(t, diff, `+      "time": 2`)
}
