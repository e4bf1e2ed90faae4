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
	"github.com/tessera-db/tessera/pkg/common/terr"
	"github.com/tessera-db/tessera/pkg/container/hashtable"
	"github.com/tessera-db/tessera/pkg/container/types"
	"github.com/tessera-db/tessera/pkg/container/vector"
)

// buildMultiCol groups by a composite key.  Each row is packed into one
// byte key: per field a leading null-flag byte, then the value bytes (a
// fixed-width image, or length-prefixed bytes for varchar), so field
// nulls take part in key equality and the composite key itself is never
// null.  Group keys are representative row indices; real key values are
// reconstructed by dereferencing the source columns.
//
// When every column is fixed-width this is the packed row-layout path;
// with variable-width columns present the same packing doubles as the
// component-wise combined fallback.
func buildMultiCol(cols []*vector.Vector) (*Table, error) {
	n := cols[0].Length()
	m := hashtable.NewStrGroupMap(n)

	buf := make([]byte, 0, 64)
	for i := 0; i < n; i++ {
		buf = buf[:0]
		for _, col := range cols {
			buf = appendFieldKey(buf, col, i)
		}
		m.InsertRow(buf, int32(i))
	}

	groups := m.GroupCount()
	t := newManagedTable(KeyRowIndex, groups, m.RowCount())
	t.rowCount = n
	t.srcCols = cols

	m.FillCSR(t.offsets, t.indices)
	// Representative row: the group's first member in insertion order.
	for g := 0; g < groups; g++ {
		t.keys[g] = int64(t.indices[t.offsets[g]])
	}
	return t, nil
}

func appendFieldKey(buf []byte, col *vector.Vector, row int) []byte {
	if col.IsNull(row) {
		return append(buf, 1)
	}
	buf = append(buf, 0)
	switch col.Typ.Oid {
	case types.T_bool:
		if col.Bools()[row] {
			return append(buf, 1)
		}
		return append(buf, 0)
	case types.T_int64, types.T_datetime:
		return types.EncodeFixed(buf, col.Int64s()[row])
	case types.T_float64:
		return types.EncodeFixed(buf, col.Float64s()[row])
	case types.T_dict:
		return types.EncodeFixed(buf, col.Codes()[row])
	case types.T_varchar:
		b := col.BytesAt(row)
		buf = types.EncodeFixed(buf, uint32(len(b)))
		return append(buf, b...)
	}
	panic(terr.NewInternal("composite key over unknown type %s", col.Typ))
}

// allFixedWidth reports whether the packed row layout stays fixed-width.
func allFixedWidth(cols []*vector.Vector) bool {
	for _, col := range cols {
		if !col.Typ.IsFixedLen() {
			return false
		}
	}
	return true
}
