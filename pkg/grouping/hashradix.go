// Copyright 2023 Tessera DB
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package grouping

import (
	"github.com/tessera-db/tessera/pkg/common/mpool"
	"github.com/tessera-db/tessera/pkg/container/vector"
	"github.com/tessera-db/tessera/pkg/sort/radix"
	"github.com/tessera-db/tessera/pkg/vectorize/hash"
)

// buildHashRadix groups sparse or high-cardinality integers: hash every
// key with the vectorized mix, radix-sort the (hash, position) pairs, then
// cut the sorted sequence into groups.  A group boundary needs both the
// hash and the key value checked: equal hashes may still be different
// keys, and rows of two colliding keys can interleave inside one hash
// run, so runs are regrouped by value before emission.
func buildHashRadix(pool *mpool.MPool, col *vector.Vector, radixBits uint, workers int) (*Table, error) {
	vals := col.Int64s()
	rows, nullRows := splitNullRows(col)
	n := len(rows)

	keyAt := func(pos int32) int64 {
		return vals[rows[pos]]
	}

	hashes := make([]uint32, n)
	keys := make([]int64, n)
	for i, row := range rows {
		keys[i] = vals[row]
	}
	hash.Mix32Slice(keys, hashes)

	idxs := make([]int32, n)
	for i := range idxs {
		idxs[i] = int32(i)
	}

	sortedH, sortedI := radix.SortPairs(hashes, idxs, radixBits, workers)

	// Pass 1: count groups.
	groups := 0
	forEachRun(sortedH, func(start, end int) {
		groups += countRunGroups(sortedI[start:end], keyAt)
	})

	t, err := newNativeTable(pool, KeyInt64, groups, n)
	if err != nil {
		return nil, err
	}
	t.rowCount = col.Length()
	t.nullRows = nullRows
	t.srcCols = []*vector.Vector{col}

	// Pass 2: emit groups in the same order.
	g := 0
	var pos int64
	forEachRun(sortedH, func(start, end int) {
		emitRunGroups(sortedI[start:end], keyAt, func(key int64, member int32) {
			t.indices[pos] = rows[member]
			pos++
		}, func(key int64) {
			t.keys[g] = key
			t.offsets[g] = pos
			g++
		})
	})
	t.offsets[groups] = pos
	return t, nil
}

// forEachRun calls f once per maximal run of equal hashes.
func forEachRun(hashes []uint32, f func(start, end int)) {
	n := len(hashes)
	start := 0
	for i := 1; i <= n; i++ {
		if i == n || hashes[i] != hashes[start] {
			f(start, i)
			start = i
		}
	}
}

// countRunGroups counts distinct key values inside one hash run.
func countRunGroups(run []int32, keyAt func(int32) int64) int {
	if allSameKey(run, keyAt) {
		return 1
	}
	distinct := 0
	for i := range run {
		ki := keyAt(run[i])
		seen := false
		for j := 0; j < i; j++ {
			if keyAt(run[j]) == ki {
				seen = true
				break
			}
		}
		if !seen {
			distinct++
		}
	}
	return distinct
}

// emitRunGroups emits the run's rows grouped by key value, keys in
// first-appearance order, rows in sorted (stable) order.  openGroup is
// called before the first member of each group.
func emitRunGroups(run []int32, keyAt func(int32) int64, member func(key int64, pos int32), openGroup func(key int64)) {
	if allSameKey(run, keyAt) {
		key := keyAt(run[0])
		openGroup(key)
		for _, pos := range run {
			member(key, pos)
		}
		return
	}
	// Hash collision: regroup the run by value.  Runs are tiny, the
	// quadratic walk is cheaper than any map.
	for i := range run {
		ki := keyAt(run[i])
		seen := false
		for j := 0; j < i; j++ {
			if keyAt(run[j]) == ki {
				seen = true
				break
			}
		}
		if seen {
			continue
		}
		openGroup(ki)
		for j := i; j < len(run); j++ {
			if keyAt(run[j]) == ki {
				member(ki, run[j])
			}
		}
	}
}

func allSameKey(run []int32, keyAt func(int32) int64) bool {
	if len(run) == 0 {
		return false
	}
	k0 := keyAt(run[0])
	for _, pos := range run[1:] {
		if keyAt(pos) != k0 {
			return false
		}
	}
	return true
}
