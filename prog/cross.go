// Copyright 2026 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package prog

import (
	"iter"
	"math/bits"
)

// Cross yields the Cartesian product of lists together with the flattened index of every tuple.
// The first list varies slowest and the last one fastest, so the index of a tuple is stable
// across runs. The sequence is lazy and can be iterated any number of times.
// Every yielded tuple is a fresh slice. An empty list of lists yields one empty tuple,
// a list that contains an empty list yields nothing.
func Cross[T any](lists [][]T) iter.Seq2[uint64, []T] {
	return func(yield func(uint64, []T) bool) {
		for _, list := range lists {
			if len(list) == 0 {
				return
			}
		}
		pos := make([]int, len(lists))
		for idx := uint64(0); ; idx++ {
			tuple := make([]T, len(lists))
			for i, list := range lists {
				tuple[i] = list[pos[i]]
			}
			if !yield(idx, tuple) {
				return
			}
			i := len(lists) - 1
			for ; i >= 0; i-- {
				pos[i]++
				if pos[i] < len(lists[i]) {
					break
				}
				pos[i] = 0
			}
			if i < 0 {
				return
			}
		}
	}
}

// CrossCount returns the number of tuples in the product of lists.
// The second result is false if the count does not fit into uint64.
func CrossCount[T any](lists [][]T) (uint64, bool) {
	count := uint64(1)
	for _, list := range lists {
		hi, lo := bits.Mul64(count, uint64(len(list)))
		if hi != 0 {
			return 0, false
		}
		count = lo
	}
	return count, true
}

// CrossAt returns the tuple with the given flattened index, as yielded by Cross.
func CrossAt[T any](lists [][]T, idx uint64) ([]T, bool) {
	count, ok := CrossCount(lists)
	if !ok || idx >= count {
		return nil, false
	}
	tuple := make([]T, len(lists))
	for i := len(lists) - 1; i >= 0; i-- {
		n := uint64(len(lists[i]))
		tuple[i] = lists[i][idx%n]
		idx /= n
	}
	return tuple, true
}
