// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func Test_Reverts(t *testing.T) {
	revert := ErrRuleNotFound.WithMessagef("rule %d", 3)
	assert.Equal(t, "RuleNotFound: rule 3", revert.Error())
	assert.Equal(t, "RuleNotFound", ErrRuleNotFound.Error())
	assert.Equal(t, Validation, revert.Category())
	assert.Equal(t, "validation", revert.Category().String())

	assert.True(t, IsRevertErr(revert))
	assert.False(t, IsRevertErr(nil))
	assert.False(t, IsRevertErr(fmt.Errorf("test")))
	assert.False(t, IsRevertErr(big.NewInt(0)))
}

func Test_RevertsMatchByCode(t *testing.T) {
	wrapped := errors.Wrap(ErrStakeNotFound.WithMessagef("stake %d", 9), "receive reward")

	assert.True(t, errors.Is(wrapped, ErrStakeNotFound))
	assert.False(t, errors.Is(wrapped, ErrRuleNotFound))
	assert.True(t, IsRevertErr(wrapped))

	re, ok := AsRevert(wrapped)
	assert.True(t, ok)
	assert.Equal(t, State, re.Category())
	assert.Equal(t, "stake 9", re.Message())
}

func Test_RevertBytes(t *testing.T) {
	data := ErrPaused.Bytes()
	assert.Equal(t, "08c379a0", hex.EncodeToString(data[:4]))
	assert.Len(t, data, 4+32+32+32)
	assert.Equal(t, byte(len("Paused")), data[4+32+31])
	assert.Equal(t, "Paused", string(data[4+64:4+64+6]))

	var nilRevert *ErrRevert
	assert.Nil(t, nilRevert.Bytes())
}
