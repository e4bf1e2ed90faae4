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

package aggregation

import (
	"github.com/tessera-db/tessera/pkg/common/terr"
	"github.com/tessera-db/tessera/pkg/container/types"
	"github.com/tessera-db/tessera/pkg/container/vector"
	"github.com/tessera-db/tessera/pkg/grouping"
)

// buildKeyColumns reconstructs the group key column(s) of a table: value
// keys are copied out directly, dictionary codes resolve through the
// shared dict, byte keys come from the key arena, and representative row
// indices dereference the original source columns.  When withNullRow is
// set, one trailing null row is appended per column.
func buildKeyColumns(t *grouping.Table, withNullRow bool) ([]*vector.Vector, error) {
	g := t.NumGroups()

	switch t.Kind() {
	case grouping.KeyInt64:
		src := t.SourceCols()[0]
		out := vector.New(src.Typ)
		for i := 0; i < g; i++ {
			out.AppendInt64(t.GroupKeyInt64(i))
		}
		if withNullRow {
			out.AppendNull()
		}
		return []*vector.Vector{out}, nil

	case grouping.KeyDictCode:
		out := vector.NewDict(t.Dict())
		for i := 0; i < g; i++ {
			out.AppendString(t.Dict().Lookup(uint32(t.GroupKeyInt64(i))))
		}
		if withNullRow {
			out.AppendNull()
		}
		return []*vector.Vector{out}, nil

	case grouping.KeyBytes:
		out := vector.New(types.New(types.T_varchar))
		for i := 0; i < g; i++ {
			out.AppendString(string(t.GroupKeyBytes(i)))
		}
		if withNullRow {
			out.AppendNull()
		}
		return []*vector.Vector{out}, nil

	case grouping.KeyRowIndex:
		srcs := t.SourceCols()
		outs := make([]*vector.Vector, len(srcs))
		for c, src := range srcs {
			out := vector.New(src.Typ)
			for i := 0; i < g; i++ {
				appendFromSource(out, src, int(t.GroupKeyInt64(i)))
			}
			if withNullRow {
				out.AppendNull()
			}
			outs[c] = out
		}
		return outs, nil
	}

	return nil, terr.NewInternal("key reconstruction for unknown key kind %d", t.Kind())
}

func appendFromSource(out, src *vector.Vector, row int) {
	if src.IsNull(row) {
		out.AppendNull()
		return
	}
	switch src.Typ.Oid {
	case types.T_bool:
		out.AppendBool(src.Bools()[row])
	case types.T_int64, types.T_datetime:
		out.AppendInt64(src.Int64s()[row])
	case types.T_float64:
		out.AppendFloat64(src.Float64s()[row])
	case types.T_varchar, types.T_dict:
		out.AppendString(src.StringAt(row))
	}
}
