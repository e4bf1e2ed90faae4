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
	"math"

	"github.com/tessera-db/tessera/pkg/common/terr"
	"github.com/tessera-db/tessera/pkg/container/hashtable"
	"github.com/tessera-db/tessera/pkg/container/types"
	"github.com/tessera-db/tessera/pkg/container/vector"
)

// buildGenericFixed is the generic fallback for single columns with a
// fixed-width native value (float64, bool): group on the value's bit
// pattern through the integer map.  Keys become representative row
// indices since a bit pattern is not a key the caller can consume.
func buildGenericFixed(col *vector.Vector) (*Table, error) {
	bitsAt, err := bitsFunc(col)
	if err != nil {
		return nil, err
	}

	n := col.Length()
	m := hashtable.NewInt64GroupMap(n)

	var nullRows []int32
	for i := 0; i < n; i++ {
		if col.IsNull(i) {
			nullRows = append(nullRows, int32(i))
			continue
		}
		m.InsertRow(bitsAt(i), int32(i))
	}

	groups := m.GroupCount()
	t := newManagedTable(KeyRowIndex, groups, m.RowCount())
	t.rowCount = n
	t.nullRows = nullRows
	t.srcCols = []*vector.Vector{col}

	tmpKeys := make([]int64, groups)
	m.FillCSR(tmpKeys, t.offsets, t.indices)
	for g := 0; g < groups; g++ {
		t.keys[g] = int64(t.indices[t.offsets[g]])
	}
	return t, nil
}

func bitsFunc(col *vector.Vector) (func(int) uint64, error) {
	switch col.Typ.Oid {
	case types.T_float64:
		vs := col.Float64s()
		return func(i int) uint64 {
			return math.Float64bits(vs[i])
		}, nil
	case types.T_bool:
		vs := col.Bools()
		return func(i int) uint64 {
			if vs[i] {
				return 1
			}
			return 0
		}, nil
	}
	// Reaching the generic fallback with a type that has no comparable
	// fixed-width image is a programming error in the dispatcher.
	return nil, terr.NewInternal("no generic grouping for type %s", col.Typ)
}

// buildEmpty is the trivial group table for zero-row input.
func buildEmpty(cols []*vector.Vector) *Table {
	kind := KeyInt64
	if len(cols) > 1 {
		kind = KeyRowIndex
	}
	t := newManagedTable(kind, 0, 0)
	t.srcCols = cols
	return t
}
