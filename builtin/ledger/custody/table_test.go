// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package custody

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

func TestTable(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()
	st, err := state.New(db, 0)
	require.NoError(t, err)

	table := NewTable(solidity.NewContext(thor.LedgerAddress, st), "bucket")
	native := asset.NewKey(asset.Native, thor.Address{}, nil)
	item := asset.NewKey(asset.NonFungible, thor.BytesToAddress([]byte("nft")), big.NewInt(3))

	v, err := table.Get(native)
	require.NoError(t, err)
	assert.Equal(t, 0, v.Sign())

	require.NoError(t, table.Add(native, big.NewInt(10)))
	require.NoError(t, table.Add(item, big.NewInt(1)))
	require.NoError(t, table.Sub(native, big.NewInt(4), reverts.ErrZeroBalance))

	err = table.Sub(native, big.NewInt(7), reverts.ErrInsufficientRewardPool)
	assert.True(t, errors.Is(err, reverts.ErrInsufficientRewardPool))

	v, _ = table.Get(native)
	assert.Equal(t, big.NewInt(6), v)

	drained, err := table.Drain(item)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1), drained)
	v, _ = table.Get(item)
	assert.Equal(t, 0, v.Sign())
}
