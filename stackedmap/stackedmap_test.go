// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stackedmap_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vechain/stakeledger/stackedmap"
)

func M(a ...any) []any {
	return a
}

func TestStackedMap(t *testing.T) {
	assert := assert.New(t)
	src := map[string]string{"foo": "bar"}

	sm := stackedmap.New(func(key any) (any, bool, error) {
		v, r := src[key.(string)]
		return v, r, nil
	})

	tests := []struct {
		f         func()
		depth     int
		putKey    string
		putValue  string
		getKey    string
		getReturn []any
	}{
		{func() { sm.Push() }, 1, "", "", "foo", []any{"bar", true, nil}},
		{func() { sm.Push() }, 2, "foo", "baz", "foo", []any{"baz", true, nil}},
		{func() {}, 2, "foo", "baz1", "foo", []any{"baz1", true, nil}},
		{func() { sm.Push() }, 3, "foo", "qux", "foo", []any{"qux", true, nil}},
		{func() { sm.Pop() }, 2, "", "", "foo", []any{"baz1", true, nil}},
		{func() { sm.Pop() }, 1, "", "", "foo", []any{"bar", true, nil}},

		{func() { sm.Push(); sm.Push() }, 3, "", "", "", nil},
		{func() { sm.PopTo(0) }, 0, "", "", "foo", []any{"bar", true, nil}},
	}

	for _, test := range tests {
		test.f()
		assert.Equal(test.depth, sm.Depth())
		if test.putKey != "" {
			sm.Put(test.putKey, test.putValue)
		}
		if test.getKey != "" {
			assert.Equal(test.getReturn, M(sm.Get(test.getKey)))
		}
	}
}

func TestStackedMapJournal(t *testing.T) {
	sm := stackedmap.New(func(any) (any, bool, error) {
		return nil, false, nil
	})

	sm.Push()
	sm.Put("a", 1)
	sm.Put("a", 2)
	sm.Push()
	sm.Put("b", 3)

	var keys []any
	sm.Journal(func(k, v any) bool {
		keys = append(keys, k)
		return true
	})
	assert.Equal(t, []any{"a", "a", "b"}, keys)

	sm.Pop()
	keys = keys[:0]
	sm.Journal(func(k, v any) bool {
		keys = append(keys, k)
		return true
	})
	assert.Equal(t, []any{"a", "a"}, keys)

	v, ok, err := sm.Get("a")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, v)

	_, ok, _ = sm.Get("b")
	assert.False(t, ok)
}

func TestStackedMapImplicitPush(t *testing.T) {
	sm := stackedmap.New(func(any) (any, bool, error) {
		return nil, false, nil
	})
	sm.Put("k", "v")
	assert.Equal(t, 1, sm.Depth())

	sm.PopTo(0)
	_, ok, _ := sm.Get("k")
	assert.False(t, ok)
}
