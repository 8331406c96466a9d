// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/lvldb"
	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/thor"
)

type TestStruct struct {
	Field1 uint64
	Addr1  thor.Address
	Amount *big.Int
	Flag   bool
}

func newTestContext(t *testing.T) *Context {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	st, err := state.New(db, 0)
	require.NoError(t, err)
	return NewContext(thor.Address{1}, st)
}

func TestMappingStruct(t *testing.T) {
	ctx := newTestContext(t)
	m := NewMapping[thor.Bytes32, *TestStruct](ctx, thor.Bytes32{1})
	key := thor.BytesToBytes32([]byte("key"))

	v, err := m.Get(key)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, uint64(0), v.Field1)

	exists, err := m.Exists(key)
	require.NoError(t, err)
	assert.False(t, exists)

	stored := &TestStruct{Field1: 7, Addr1: thor.Address{9}, Amount: big.NewInt(1000), Flag: true}
	require.NoError(t, m.Set(key, stored))

	v, err = m.Get(key)
	require.NoError(t, err)
	assert.Equal(t, stored, v)

	exists, err = m.Exists(key)
	require.NoError(t, err)
	assert.True(t, exists)

	m.Delete(key)
	exists, err = m.Exists(key)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMappingIsolation(t *testing.T) {
	ctx := newTestContext(t)
	a := NewMapping[thor.Address, *big.Int](ctx, thor.BytesToBytes32([]byte("a")))
	b := NewMapping[thor.Address, *big.Int](ctx, thor.BytesToBytes32([]byte("b")))
	key := thor.Address{3}

	require.NoError(t, a.Set(key, big.NewInt(10)))

	va, err := a.Get(key)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(10), va)

	vb, err := b.Get(key)
	require.NoError(t, err)
	assert.Equal(t, 0, vb.Sign())
}

func TestUint256(t *testing.T) {
	ctx := newTestContext(t)
	u := NewUint256(ctx, thor.BytesToBytes32([]byte("counter")))

	v, err := u.Get()
	require.NoError(t, err)
	assert.Equal(t, 0, v.Sign())

	require.NoError(t, u.Add(big.NewInt(5)))
	require.NoError(t, u.Sub(big.NewInt(2)))
	v, _ = u.Get()
	assert.Equal(t, big.NewInt(3), v)

	assert.Error(t, u.Sub(big.NewInt(4)))
	assert.Error(t, u.Set(big.NewInt(-1)))

	id, err := u.Increment()
	require.NoError(t, err)
	assert.Equal(t, uint64(4), id)

	require.NoError(t, u.Set(big.NewInt(0)))
	raw, err := ctx.State().GetRawStorage(ctx.Address(), thor.BytesToBytes32([]byte("counter")))
	require.NoError(t, err)
	assert.Empty(t, raw)
}

func TestRaw(t *testing.T) {
	ctx := newTestContext(t)
	r := NewRaw[*TestStruct](ctx, thor.BytesToBytes32([]byte("raw")))

	v, err := r.Get()
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, r.Upsert(&TestStruct{Field1: 1, Amount: big.NewInt(2)}))
	v, err = r.Get()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), v.Field1)
	assert.Equal(t, big.NewInt(2), v.Amount)
}
