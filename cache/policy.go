package cache

import (
	"slices"
)

// Policy selects entries to evict.
type Policy interface {
	// Victims returns indexes of n entries to drop. stamps holds the last use
	// tick of every entry, higher is more recent. Stamps are read without
	// synchronization with users of the cache, so the result is approximate.
	Victims(stamps []uint64, n int) []int
}

// LRU evicts the least recently used entries.
type LRU struct{}

func (LRU) Victims(stamps []uint64, n int) []int {
	idx := make([]int, len(stamps))
	for i := range idx {
		idx[i] = i
	}
	slices.SortFunc(idx, func(a, b int) int {
		switch {
		case stamps[a] < stamps[b]:
			return -1
		case stamps[a] > stamps[b]:
			return 1
		}
		return 0
	})
	return idx[:min(n, len(idx))]
}

// Arbitrary evicts whatever entries come first in map iteration order. It is
// the cheapest policy and works well when entries are used uniformly.
type Arbitrary struct{}

func (Arbitrary) Victims(stamps []uint64, n int) []int {
	n = min(n, len(stamps))
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}
