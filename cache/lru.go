// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cache

import (
	lru "github.com/hashicorp/golang-lru"

	"github.com/vechain/stakeledger/metrics"
)

var metricCacheLookups = metrics.LazyLoadCounterVec("cache_lookups_count", []string{"cache", "result"})

// LRU is a typed, size bounded cache of committed values. Lookups are counted per cache name.
type LRU[K comparable, V any] struct {
	name  string
	cache *lru.Cache
}

// NewLRU creates a cache holding at most size entries. size must be > 0.
func NewLRU[K comparable, V any](name string, size int) (*LRU[K, V], error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &LRU[K, V]{name: name, cache: c}, nil
}

func (l *LRU[K, V]) Get(key K) (v V, ok bool) {
	cached, ok := l.cache.Get(key)
	if !ok {
		return v, false
	}
	return cached.(V), true
}

// Add stores or refreshes key.
func (l *LRU[K, V]) Add(key K, v V) {
	l.cache.Add(key, v)
}

func (l *LRU[K, V]) Len() int {
	return l.cache.Len()
}

// GetOrLoad returns the cached value of key, calling load on a miss. Failed loads are not cached.
func (l *LRU[K, V]) GetOrLoad(key K, load func(K) (V, error)) (V, error) {
	if v, ok := l.Get(key); ok {
		metricCacheLookups().AddWithLabel(1, map[string]string{"cache": l.name, "result": "hit"})
		return v, nil
	}
	metricCacheLookups().AddWithLabel(1, map[string]string{"cache": l.name, "result": "miss"})
	v, err := load(key)
	if err != nil {
		return v, err
	}
	l.cache.Add(key, v)
	return v, nil
}
