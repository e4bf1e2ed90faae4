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
	"github.com/tessera-db/tessera/pkg/partition"
)

// Above this bucket count the per-worker histograms of the parallel scan
// would dominate memory, so the scan runs single-threaded.  The scatter
// is exact either way.
const maxParallelBuckets = 1 << 16

// buildDenseInt64 is direct addressing over a bounded integer domain:
// bucket = value - min, no hashing, no collisions.  Null rows are split
// off before the scan.
func buildDenseInt64(pool *mpool.MPool, col *vector.Vector, min int64, bucketCnt, workers int) (*Table, error) {
	vals := col.Int64s()
	rows, nullRows := splitNullRows(col)

	if bucketCnt > maxParallelBuckets {
		workers = 1
	}

	perm := make([]int32, len(rows))
	bucketOffs := partition.Scan(len(rows), bucketCnt, workers,
		func(i int) int {
			return int(vals[rows[i]] - min)
		},
		func(src, dst int) {
			perm[dst] = rows[src]
		})

	groups := 0
	for b := 0; b < bucketCnt; b++ {
		if bucketOffs[b+1] > bucketOffs[b] {
			groups++
		}
	}

	t, err := newNativeTable(pool, KeyInt64, groups, len(rows))
	if err != nil {
		return nil, err
	}
	t.rowCount = col.Length()
	t.nullRows = nullRows
	t.srcCols = []*vector.Vector{col}

	// Compact empty buckets away; groups keep bucket (= key) order.
	g := 0
	for b := 0; b < bucketCnt; b++ {
		if bucketOffs[b+1] == bucketOffs[b] {
			continue
		}
		t.keys[g] = min + int64(b)
		t.offsets[g] = bucketOffs[b]
		g++
	}
	t.offsets[groups] = bucketOffs[bucketCnt]
	copy(t.indices, perm)
	return t, nil
}

// buildDenseDict is direct addressing over dictionary codes.  The code
// domain is dense by construction, code 0 being the reserved null code.
// Null rows stay inside the CSR as bucket 0; the start-offset flag marks
// that the first group is really the null group.
func buildDenseDict(pool *mpool.MPool, col *vector.Vector, workers int) (*Table, error) {
	codes := col.Codes()
	bucketCnt := col.Dict().Len() + 1

	if bucketCnt > maxParallelBuckets {
		workers = 1
	}

	perm := make([]int32, len(codes))
	bucketOffs := partition.Scan(len(codes), bucketCnt, workers,
		func(i int) int {
			return int(codes[i])
		},
		func(src, dst int) {
			perm[dst] = int32(src)
		})

	groups := 0
	for b := 0; b < bucketCnt; b++ {
		if bucketOffs[b+1] > bucketOffs[b] {
			groups++
		}
	}

	t, err := newNativeTable(pool, KeyDictCode, groups, len(codes))
	if err != nil {
		return nil, err
	}
	t.rowCount = col.Length()
	t.dict = col.Dict()
	t.srcCols = []*vector.Vector{col}
	t.startAtNull = bucketOffs[1] > bucketOffs[0]

	g := 0
	for b := 0; b < bucketCnt; b++ {
		if bucketOffs[b+1] == bucketOffs[b] {
			continue
		}
		t.keys[g] = int64(b)
		t.offsets[g] = bucketOffs[b]
		g++
	}
	t.offsets[groups] = bucketOffs[bucketCnt]
	copy(t.indices, perm)
	return t, nil
}

// splitNullRows partitions row ids into non-null and null, preserving
// row order in both.
func splitNullRows(col *vector.Vector) (rows, nullRows []int32) {
	n := col.Length()
	if !col.Nsp.Any() {
		rows = make([]int32, n)
		for i := range rows {
			rows[i] = int32(i)
		}
		return rows, nil
	}
	rows = make([]int32, 0, n)
	for i := 0; i < n; i++ {
		if col.IsNull(i) {
			nullRows = append(nullRows, int32(i))
		} else {
			rows = append(rows, int32(i))
		}
	}
	return rows, nullRows
}
