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
	"github.com/tessera-db/tessera/pkg/container/hashtable"
	"github.com/tessera-db/tessera/pkg/container/vector"
)

// buildStrMap groups a high-cardinality string column through the
// byte-sequence hash map.  The result is managed; group keys stay as
// spans into the map's arena, which the table takes over.
func buildStrMap(col *vector.Vector) (*Table, error) {
	n := col.Length()
	m := hashtable.NewStrGroupMap(n)

	var nullRows []int32
	for i := 0; i < n; i++ {
		if col.IsNull(i) {
			nullRows = append(nullRows, int32(i))
			continue
		}
		m.InsertRow(col.BytesAt(i), int32(i))
	}

	groups := m.GroupCount()
	t := newManagedTable(KeyBytes, groups, m.RowCount())
	t.rowCount = n
	t.nullRows = nullRows
	t.srcCols = []*vector.Vector{col}

	m.FillCSR(t.offsets, t.indices)
	t.keyOffs = make([]uint32, groups)
	t.keyLens = make([]uint32, groups)
	var arena []byte
	for g := 0; g < groups; g++ {
		key := m.GroupKeyBytes(g)
		t.keyOffs[g] = uint32(len(arena))
		t.keyLens[g] = uint32(len(key))
		arena = append(arena, key...)
	}
	t.keyArena = arena
	return t, nil
}
