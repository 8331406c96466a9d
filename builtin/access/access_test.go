// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package access

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/lvldb"
	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/thor"
	"github.com/vechain/stakeledger/xenv"
)

var (
	admin = thor.BytesToAddress([]byte("admin"))
	user  = thor.BytesToAddress([]byte("user"))
)

func newAccess(t *testing.T) *Access {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	st, err := state.New(db, 0)
	require.NoError(t, err)

	a := New(thor.AccessAddress, st)
	require.NoError(t, a.Init(admin))
	return a
}

func TestRoles(t *testing.T) {
	a := newAccess(t)

	assert.True(t, errors.Is(a.Init(user), reverts.ErrUnauthorized))
	got, err := a.Admin()
	require.NoError(t, err)
	assert.Equal(t, admin, got)

	err = a.Grant(xenv.NewCall(user, 0, nil), RuleAdmin, user)
	assert.True(t, errors.Is(err, reverts.ErrUnauthorized))
	assert.True(t, errors.Is(a.Require(RuleAdmin, user), reverts.ErrUnauthorized))

	require.NoError(t, a.Grant(xenv.NewCall(admin, 0, nil), RuleAdmin, user))
	assert.NoError(t, a.Require(RuleAdmin, user))

	ok, err := a.HasRole(PenaltyAdmin, user)
	require.NoError(t, err)
	assert.False(t, ok, "roles are independent")

	require.NoError(t, a.Revoke(xenv.NewCall(admin, 0, nil), RuleAdmin, user))
	assert.Error(t, a.Require(RuleAdmin, user))
}

func TestPause(t *testing.T) {
	a := newAccess(t)
	assert.NoError(t, a.RequireOpen())

	assert.True(t, errors.Is(a.Pause(xenv.NewCall(user, 0, nil)), reverts.ErrUnauthorized))

	require.NoError(t, a.Pause(xenv.NewCall(admin, 0, nil)))
	paused, err := a.Paused()
	require.NoError(t, err)
	assert.True(t, paused)
	assert.True(t, errors.Is(a.RequireOpen(), reverts.ErrPaused))

	require.NoError(t, a.Unpause(xenv.NewCall(admin, 0, nil)))
	assert.NoError(t, a.RequireOpen())
}
