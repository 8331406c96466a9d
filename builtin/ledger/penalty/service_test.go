// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package penalty

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/asset"
	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/builtin/solidity"
	"github.com/vechain/stakeledger/lvldb"
	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/thor"
)

func TestPenaltyPool(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()
	st, err := state.New(db, 0)
	require.NoError(t, err)
	s := New(solidity.NewContext(thor.LedgerAddress, st))

	native := asset.NewKey(asset.Native, thor.Address{}, nil)
	require.NoError(t, s.Seize(native, big.NewInt(30)))
	require.NoError(t, s.Seize(native, big.NewInt(20)))
	require.NoError(t, s.Seize(native, big.NewInt(0)))

	bal, err := s.Balance(native)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(50), bal)

	drained, err := s.Drain(native)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(50), drained)

	_, err = s.Drain(native)
	assert.True(t, errors.Is(err, reverts.ErrZeroBalance))

	_, err = s.Drain(asset.Key{Kind: 77})
	assert.True(t, errors.Is(err, reverts.ErrUnsupportedAssetKind))
	_, err = s.Balance(asset.Key{Kind: 0})
	assert.True(t, errors.Is(err, reverts.ErrUnsupportedAssetKind))
}
