// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package thor

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddress(t *testing.T) {
	addr, err := ParseAddress("0x7567d83b7b8d80addcb281a71d54fc7b3364ffed")
	require.NoError(t, err)
	assert.Equal(t, "0x7567d83b7b8d80addcb281a71d54fc7b3364ffed", addr.String())

	_, err = ParseAddress("7567d83b7b8d80addcb281a71d54fc7b3364ffed")
	assert.NoError(t, err)

	_, err = ParseAddress("1x7567d83b7b8d80addcb281a71d54fc7b3364ffed")
	assert.EqualError(t, err, "invalid prefix")

	_, err = ParseAddress("0x1234")
	assert.EqualError(t, err, "invalid length")
}

func TestAddressText(t *testing.T) {
	addr := BytesToAddress([]byte("owner"))

	data, err := json.Marshal(struct{ A Address }{addr})
	require.NoError(t, err)

	var decoded struct{ A Address }
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, addr, decoded.A)
	assert.False(t, decoded.A.IsZero())
	assert.True(t, Address{}.IsZero())
}

func TestUint64ToBytes32(t *testing.T) {
	b := Uint64ToBytes32(258)
	assert.Equal(t, byte(1), b[30])
	assert.Equal(t, byte(2), b[31])
	assert.False(t, b.IsZero())

	parsed, err := ParseBytes32(b.String())
	require.NoError(t, err)
	assert.Equal(t, b, parsed)
}

func TestBlake2bMulti(t *testing.T) {
	assert.Equal(t, Blake2b([]byte("ab")), Blake2b([]byte("ab")))
	assert.Equal(t, Blake2b([]byte("a"), []byte("b")), Blake2b([]byte("a"), []byte("b")))
	assert.NotEqual(t, Blake2b([]byte("a"), []byte("b")), Blake2b([]byte("b"), []byte("a")))
}
