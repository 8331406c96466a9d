// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package randomness

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

func TestRequests(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()
	st, err := state.New(db, 0)
	require.NoError(t, err)
	s := New(solidity.NewContext(thor.LedgerAddress, st))

	leg := asset.NewNonFungible(thor.BytesToAddress([]byte("nft")), big.NewInt(0))
	entropy := thor.BytesToBytes32([]byte("entropy"))

	id1, err := s.Add(&Request{StakeID: 4, Leg: leg}, entropy)
	require.NoError(t, err)
	id2, err := s.Add(&Request{StakeID: 4, Leg: leg}, entropy)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id1)
	assert.Equal(t, uint64(2), id2)

	r1, err := s.Get(id1)
	require.NoError(t, err)
	r2, err := s.Get(id2)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), r1.StakeID)
	assert.NotEqual(t, r1.Seed, r2.Seed, "seeds differ per request")

	s.Remove(id1)
	_, err = s.Get(id1)
	assert.True(t, errors.Is(err, reverts.ErrRequestNotFound))

	count, _ := s.Count()
	assert.Equal(t, uint64(2), count)
}
