// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package types

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/asset"
	"github.com/vechain/stakeledger/builtin/ledger"
	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/thor"
)

var token = thor.BytesToAddress([]byte("token"))

func TestParseRule(t *testing.T) {
	body := `{
		"deposit": [{"kind": "native", "amount": "0x64"}, {"kind": "non-fungible", "token": "` + token.String() + `"}],
		"reward": [{"kind": "fungible", "token": "` + token.String() + `", "amount": "5"}],
		"terms": {"period": 30, "penaltyBps": 2500, "recurrent": true}
	}`
	var r Rule
	require.NoError(t, json.Unmarshal([]byte(body), &r))

	rule, err := r.Rule()
	require.NoError(t, err)
	require.NoError(t, rule.Deposit.Validate())

	assert.Equal(t, asset.NewNative(big.NewInt(100)), rule.Deposit[0])
	assert.Equal(t, asset.NewNonFungible(token, new(big.Int)), rule.Deposit[1])
	assert.Equal(t, asset.NewFungible(token, big.NewInt(5)), rule.Reward[0])
	assert.Equal(t, uint64(30), rule.Terms.Period)
	assert.True(t, rule.Terms.Recurrent)

	back := ConvertRule(7, rule)
	assert.Equal(t, uint64(7), back.ID)
	assert.Nil(t, back.Deposit[0].Token)
	assert.Equal(t, token, *back.Deposit[1].Token)
}

func TestParseRuleErrors(t *testing.T) {
	r := Rule{Deposit: Bundle{{Kind: "gold"}}}
	_, err := r.Rule()
	assert.ErrorIs(t, err, reverts.ErrUnsupportedAssetKind)
	assert.Contains(t, err.Error(), "deposit")
}

func TestParseKey(t *testing.T) {
	key, err := ParseKey("multi-token", token.String(), "0x10")
	require.NoError(t, err)
	assert.Equal(t, asset.NewKey(asset.Multi, token, big.NewInt(16)), key)

	key, err = ParseKey("fungible", token.String(), "9")
	require.NoError(t, err)
	assert.Equal(t, int64(0), key.ID.Int64(), "fungible keys carry no id")

	_, err = ParseKey("native", "0x12", "")
	assert.Error(t, err)
	_, err = ParseKey("native", "", "abc")
	assert.Error(t, err)
}

func TestConvertEvent(t *testing.T) {
	owner := thor.BytesToAddress([]byte("owner"))

	ev := ConvertEvent(ledger.DepositStarted{RuleID: 2, StakeID: 9, Owner: owner, Time: 100, IDs: []*big.Int{big.NewInt(0)}})
	assert.Equal(t, "DepositStarted", ev.Name)
	assert.Equal(t, uint64(2), ev.RuleID)
	assert.Equal(t, uint64(9), ev.StakeID)
	assert.Equal(t, owner, *ev.Account)

	ev = ConvertEvent(ledger.PenaltySeized{StakeID: 3, Seized: asset.NewNative(big.NewInt(4))})
	assert.Nil(t, ev.Account)
	data, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"PenaltySeized","stakeID":3,"data":{"seized":{"kind":"native","amount":"0x4"}}}`, string(data))
}
