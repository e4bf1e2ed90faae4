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
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tessera-db/tessera/pkg/common/mpool"
	"github.com/tessera-db/tessera/pkg/common/terr"
	"github.com/tessera-db/tessera/pkg/config"
	"github.com/tessera-db/tessera/pkg/container/types"
	"github.com/tessera-db/tessera/pkg/container/vector"
)

func testGrouper(t *testing.T) (*Grouper, *mpool.MPool) {
	t.Helper()
	pool := mpool.New(t.Name(), 0)
	return New(config.Default(), pool), pool
}

func intVec(vals ...any) *vector.Vector {
	v := vector.New(types.New(types.T_int64))
	for _, val := range vals {
		if val == nil {
			v.AppendNull()
		} else {
			v.AppendInt64(int64(val.(int)))
		}
	}
	return v
}

func strVec(vals ...any) *vector.Vector {
	v := vector.New(types.New(types.T_varchar))
	for _, val := range vals {
		if val == nil {
			v.AppendNull()
		} else {
			v.AppendString(val.(string))
		}
	}
	return v
}

// checkPartition asserts the core invariant: the CSR indices plus the
// null side list are a disjoint cover of all source rows.
func checkPartition(t *testing.T, tbl *Table, n int) {
	t.Helper()
	seen := make([]bool, n)
	mark := func(rows []int32) {
		for _, r := range rows {
			require.GreaterOrEqual(t, r, int32(0))
			require.Less(t, int(r), n)
			require.False(t, seen[r], "row %d appears twice", r)
			seen[r] = true
		}
	}
	for g := 0; g < tbl.NumGroups(); g++ {
		mark(tbl.GroupSel(g))
	}
	mark(tbl.NullSel())
	for r, ok := range seen {
		require.True(t, ok, "row %d missing", r)
	}
	require.Equal(t, n, tbl.RowCount())
}

// groupsByValue collapses an int64-keyed table into key -> member rows.
func groupsByValue(t *testing.T, tbl *Table) map[int64][]int32 {
	t.Helper()
	out := make(map[int64][]int32, tbl.NumGroups())
	for g := 0; g < tbl.NumGroups(); g++ {
		k := tbl.GroupKeyInt64(g)
		_, dup := out[k]
		require.False(t, dup, "key %d produced twice", k)
		out[k] = append([]int32(nil), tbl.GroupSel(g)...)
	}
	return out
}

func referenceGroups(col *vector.Vector) map[int64][]int32 {
	ref := make(map[int64][]int32)
	vals := col.Int64s()
	for i := 0; i < col.Length(); i++ {
		if col.IsNull(i) {
			continue
		}
		ref[vals[i]] = append(ref[vals[i]], int32(i))
	}
	return ref
}

func TestGroupByValidation(t *testing.T) {
	g, _ := testGrouper(t)

	_, err := g.GroupBy()
	require.True(t, terr.IsCode(err, terr.ErrInvalidInput))

	_, err = g.GroupBy(nil)
	require.True(t, terr.IsCode(err, terr.ErrInvalidInput))

	_, err = g.GroupBy(intVec(1, 2), intVec(1))
	require.True(t, terr.IsCode(err, terr.ErrInvalidInput))
}

func TestGroupByEmpty(t *testing.T) {
	g, _ := testGrouper(t)
	tbl, err := g.GroupBy(intVec())
	require.NoError(t, err)
	defer tbl.Free()

	require.Equal(t, 0, tbl.NumGroups())
	require.False(t, tbl.HasNullGroup())
	require.Equal(t, 0, tbl.RowCount())
}

func TestGroupByDenseInt(t *testing.T) {
	g, pool := testGrouper(t)
	col := intVec(10, 11, 10, 12)

	tbl, err := g.GroupBy(col)
	require.NoError(t, err)
	require.True(t, tbl.IsNative())
	require.Equal(t, KeyInt64, tbl.Kind())

	checkPartition(t, tbl, 4)
	require.Equal(t, 3, tbl.NumGroups())
	// dense groups come out in key order
	require.EqualValues(t, 10, tbl.GroupKeyInt64(0))
	require.EqualValues(t, 11, tbl.GroupKeyInt64(1))
	require.EqualValues(t, 12, tbl.GroupKeyInt64(2))
	require.Equal(t, []int32{0, 2}, tbl.GroupSel(0))
	require.Equal(t, []int32{1}, tbl.GroupSel(1))
	require.Equal(t, []int32{3}, tbl.GroupSel(2))

	tbl.Free()
	require.EqualValues(t, 0, pool.CurrNB())
}

func TestGroupByNullIsolation(t *testing.T) {
	g, _ := testGrouper(t)
	col := intVec(1, nil, 1, nil)

	tbl, err := g.GroupBy(col)
	require.NoError(t, err)
	defer tbl.Free()

	checkPartition(t, tbl, 4)
	require.Equal(t, 1, tbl.NumGroups())
	require.Equal(t, []int32{0, 2}, tbl.GroupSel(0))
	require.True(t, tbl.HasNullGroup())
	require.Equal(t, []int32{1, 3}, tbl.NullSel())
	require.EqualValues(t, 2, tbl.NullCount())
}

func TestGroupByAllNull(t *testing.T) {
	g, _ := testGrouper(t)
	col := intVec(nil, nil, nil)

	tbl, err := g.GroupBy(col)
	require.NoError(t, err)
	defer tbl.Free()

	checkPartition(t, tbl, 3)
	require.Equal(t, 0, tbl.NumGroups())
	require.Equal(t, []int32{0, 1, 2}, tbl.NullSel())
}

func TestGroupByIntExtremes(t *testing.T) {
	// min and max straddle the int64 range, so the dense range test must
	// not overflow; this lands on the hash path.
	g, _ := testGrouper(t)
	col := vector.New(types.New(types.T_int64))
	col.AppendInt64(math.MinInt64)
	col.AppendInt64(math.MaxInt64)
	col.AppendInt64(0)
	col.AppendInt64(math.MinInt64)

	tbl, err := g.GroupBy(col)
	require.NoError(t, err)
	defer tbl.Free()

	checkPartition(t, tbl, 4)
	require.Equal(t, 3, tbl.NumGroups())
	require.Equal(t, map[int64][]int32{
		math.MinInt64: {0, 3},
		math.MaxInt64: {1},
		0:             {2},
	}, groupsByValue(t, tbl))
}

func TestDenseAndHashAgree(t *testing.T) {
	// same input through both integer strategies, forced apart by the
	// dense range limit
	const n = 90000
	rng := rand.New(rand.NewSource(11))
	col := vector.New(types.New(types.T_int64))
	for i := 0; i < n; i++ {
		if rng.Intn(20) == 0 {
			col.AppendNull()
		} else {
			col.AppendInt64(int64(rng.Intn(5000)))
		}
	}
	ref := referenceGroups(col)

	pool := mpool.New(t.Name(), 0)
	dense := config.Default()
	hashed := config.Default()
	hashed.DenseRangeLimit = 1

	dt, err := New(dense, pool).GroupBy(col)
	require.NoError(t, err)
	defer dt.Free()
	ht, err := New(hashed, pool).GroupBy(col)
	require.NoError(t, err)
	defer ht.Free()

	checkPartition(t, dt, n)
	checkPartition(t, ht, n)
	require.Equal(t, ref, groupsByValue(t, dt))
	require.Equal(t, ref, groupsByValue(t, ht))
	require.Equal(t, dt.NullSel(), ht.NullSel())
}

func TestHashRadixLargeSparse(t *testing.T) {
	const n = 200000
	rng := rand.New(rand.NewSource(13))
	col := vector.New(types.New(types.T_int64))
	for i := 0; i < n; i++ {
		// sparse keys spanning far beyond the dense limit
		col.AppendInt64(int64(rng.Uint64()) >> 8)
	}
	ref := referenceGroups(col)

	g, _ := testGrouper(t)
	tbl, err := g.GroupBy(col)
	require.NoError(t, err)
	defer tbl.Free()

	checkPartition(t, tbl, n)
	require.Equal(t, ref, groupsByValue(t, tbl))
}

func TestGroupByDatetime(t *testing.T) {
	g, _ := testGrouper(t)
	col := vector.New(types.New(types.T_datetime))
	col.AppendDatetime(1000)
	col.AppendDatetime(2000)
	col.AppendDatetime(1000)

	tbl, err := g.GroupBy(col)
	require.NoError(t, err)
	defer tbl.Free()

	checkPartition(t, tbl, 3)
	require.Equal(t, 2, tbl.NumGroups())
	require.Equal(t, []int32{0, 2}, tbl.GroupSel(0))
}

func TestGroupByDictColumn(t *testing.T) {
	g, _ := testGrouper(t)
	col := vector.New(types.New(types.T_dict))
	col.AppendString("red")
	col.AppendNull()
	col.AppendString("blue")
	col.AppendString("red")

	tbl, err := g.GroupBy(col)
	require.NoError(t, err)
	defer tbl.Free()

	require.Equal(t, KeyDictCode, tbl.Kind())
	checkPartition(t, tbl, 4)
	require.Equal(t, 2, tbl.NumGroups())
	require.True(t, tbl.HasNullGroup())
	require.Equal(t, []int32{1}, tbl.NullSel())

	d := tbl.Dict()
	require.NotNil(t, d)
	byName := make(map[string][]int32)
	for gr := 0; gr < tbl.NumGroups(); gr++ {
		name := d.Lookup(uint32(tbl.GroupKeyInt64(gr)))
		byName[name] = tbl.GroupSel(gr)
	}
	require.Equal(t, []int32{0, 3}, byName["red"])
	require.Equal(t, []int32{2}, byName["blue"])
}

func TestGroupByStringLowCardinality(t *testing.T) {
	// a handful of distinct values: the sampler should pick the dict
	// conversion, and group keys come back as dict codes
	const n = 10000
	words := []string{"ash", "birch", "cedar", "oak"}
	col := vector.New(types.New(types.T_varchar))
	rng := rand.New(rand.NewSource(17))
	for i := 0; i < n; i++ {
		if rng.Intn(50) == 0 {
			col.AppendNull()
		} else {
			col.AppendString(words[rng.Intn(len(words))])
		}
	}

	g, _ := testGrouper(t)
	tbl, err := g.GroupBy(col)
	require.NoError(t, err)
	defer tbl.Free()

	require.Equal(t, KeyDictCode, tbl.Kind())
	checkPartition(t, tbl, n)
	require.Equal(t, len(words), tbl.NumGroups())

	d := tbl.Dict()
	for gr := 0; gr < tbl.NumGroups(); gr++ {
		name := d.Lookup(uint32(tbl.GroupKeyInt64(gr)))
		for _, row := range tbl.GroupSel(gr) {
			require.Equal(t, name, col.StringAt(int(row)))
		}
	}
}

func TestGroupByStringHighCardinality(t *testing.T) {
	const n = 20000
	col := vector.New(types.New(types.T_varchar))
	for i := 0; i < n; i++ {
		// every third row repeats a key; plenty distinct overall
		col.AppendString(fmt.Sprintf("user-%d", i/3))
	}

	g, _ := testGrouper(t)
	tbl, err := g.GroupBy(col)
	require.NoError(t, err)
	defer tbl.Free()

	require.Equal(t, KeyBytes, tbl.Kind())
	checkPartition(t, tbl, n)
	require.Equal(t, (n+2)/3, tbl.NumGroups())
	for gr := 0; gr < tbl.NumGroups(); gr++ {
		key := string(tbl.GroupKeyBytes(gr))
		for _, row := range tbl.GroupSel(gr) {
			require.Equal(t, key, col.StringAt(int(row)))
		}
	}
}

func TestGroupByMultiColumn(t *testing.T) {
	g, _ := testGrouper(t)
	a := intVec(1, 1, 2, 1, nil)
	b := strVec("x", "y", "x", "x", "x")

	tbl, err := g.GroupBy(a, b)
	require.NoError(t, err)
	defer tbl.Free()

	require.Equal(t, KeyRowIndex, tbl.Kind())
	checkPartition(t, tbl, 5)
	// (1,x) {0,3}, (1,y) {1}, (2,x) {2}, (null,x) {4}; a null field is
	// part of the composite key, not a null group
	require.Equal(t, 4, tbl.NumGroups())
	require.False(t, tbl.HasNullGroup())

	found := false
	for gr := 0; gr < tbl.NumGroups(); gr++ {
		sel := tbl.GroupSel(gr)
		rep := tbl.GroupKeyInt64(gr)
		require.Equal(t, int64(sel[0]), rep)
		if len(sel) == 2 {
			require.Equal(t, []int32{0, 3}, sel)
			found = true
		}
	}
	require.True(t, found)
}

func TestGroupByMultiColumnNullVsZero(t *testing.T) {
	// null and 0 in a key field must land in different groups
	g, _ := testGrouper(t)
	a := intVec(0, nil)
	b := intVec(7, 7)

	tbl, err := g.GroupBy(a, b)
	require.NoError(t, err)
	defer tbl.Free()

	checkPartition(t, tbl, 2)
	require.Equal(t, 2, tbl.NumGroups())
}

func TestGroupByFloat(t *testing.T) {
	g, _ := testGrouper(t)
	col := vector.New(types.New(types.T_float64))
	col.AppendFloat64(1.5)
	col.AppendFloat64(2.5)
	col.AppendFloat64(1.5)
	col.AppendNull()

	tbl, err := g.GroupBy(col)
	require.NoError(t, err)
	defer tbl.Free()

	require.Equal(t, KeyRowIndex, tbl.Kind())
	checkPartition(t, tbl, 4)
	require.Equal(t, 2, tbl.NumGroups())
	require.Equal(t, []int32{3}, tbl.NullSel())

	// representative rows dereference back to the key values
	rep0 := int(tbl.GroupKeyInt64(0))
	require.Equal(t, 1.5, col.GetFloat64(rep0))
	require.Equal(t, []int32{0, 2}, tbl.GroupSel(0))
}

func TestGroupByBool(t *testing.T) {
	g, _ := testGrouper(t)
	col := vector.New(types.New(types.T_bool))
	col.AppendBool(true)
	col.AppendBool(false)
	col.AppendBool(true)

	tbl, err := g.GroupBy(col)
	require.NoError(t, err)
	defer tbl.Free()

	checkPartition(t, tbl, 3)
	require.Equal(t, 2, tbl.NumGroups())
	require.Equal(t, []int32{0, 2}, tbl.GroupSel(0))
	require.Equal(t, []int32{1}, tbl.GroupSel(1))
}

func TestGroupSizeMatchesSel(t *testing.T) {
	g, _ := testGrouper(t)
	col := intVec(5, 6, 5, 5, 6, nil)

	tbl, err := g.GroupBy(col)
	require.NoError(t, err)
	defer tbl.Free()

	for gr := 0; gr < tbl.NumGroups(); gr++ {
		require.EqualValues(t, len(tbl.GroupSel(gr)), tbl.GroupSize(gr))
	}
}

func TestNativeTableNoLeak(t *testing.T) {
	pool := mpool.New(t.Name(), 0)
	g := New(config.Default(), pool)

	for i := 0; i < 100; i++ {
		col := intVec(1, 2, 3, 1, 2, nil)
		tbl, err := g.GroupBy(col)
		require.NoError(t, err)
		tbl.Free()
	}
	require.EqualValues(t, 0, pool.CurrNB())
	require.Equal(t, pool.AllocCount(), pool.FreeCount())
}

func TestPoolCapSurfacesOOM(t *testing.T) {
	pool := mpool.New(t.Name(), 16)
	g := New(config.Default(), pool)

	col := vector.New(types.New(types.T_int64))
	for i := 0; i < 1000; i++ {
		col.AppendInt64(int64(i))
	}
	_, err := g.GroupBy(col)
	require.True(t, terr.IsCode(err, terr.ErrOOM))
	// failed construction must unwind its partial allocations
	require.EqualValues(t, 0, pool.CurrNB())
}
