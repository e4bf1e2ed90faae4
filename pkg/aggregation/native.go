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
	"github.com/tessera-db/tessera/pkg/vectorize/agg"
)

// nativeEligible reports whether the fast path may run: the table must
// own native buffers, its keys must be real key values rather than
// representative row indices, and Sum/Min/Max require an integer-typed
// source column.  Count has no source column to constrain.
func nativeEligible(t *grouping.Table, op Op, col *vector.Vector) bool {
	if !t.IsNative() || t.Kind() == grouping.KeyRowIndex {
		return false
	}
	switch op {
	case Count:
		return true
	case Sum, Min, Max:
		return col != nil && col.Typ.IsInteger()
	}
	return false
}

// runNative computes one aggregate directly over the table's raw buffer
// views, producing integer-typed result columns.  Mean and
// multi-aggregation are unsupported here; the dispatcher resolves the
// ErrNotSupported by routing to the general strategy.
func runNative(t *grouping.Table, op Op, col *vector.Vector) (*ResultTable, error) {
	switch op {
	case Count, Sum, Min, Max:
	default:
		return nil, terr.NewNotSupported("native aggregation of %s", op)
	}

	withNull := t.HasNullGroup()
	keyCols, err := buildKeyColumns(t, withNull)
	if err != nil {
		return nil, err
	}

	resTyp := types.New(types.T_int64)
	if (op == Min || op == Max) && col.Typ.Oid == types.T_datetime {
		resTyp = col.Typ
	}
	out := vector.New(resTyp)

	g := t.NumGroups()
	if op == Count {
		for i := 0; i < g; i++ {
			out.AppendInt64(t.GroupSize(i))
		}
		if withNull {
			out.AppendInt64(t.NullCount())
		}
	} else {
		vs := col.Int64s()
		hasNull := col.Nsp.Any()
		for i := 0; i < g; i++ {
			appendNativeAgg(out, op, col, vs, t.GroupSel(i), hasNull)
		}
		if withNull {
			appendNativeAgg(out, op, col, vs, t.NullSel(), hasNull)
		}
	}

	rt := &ResultTable{}
	for i, kc := range keyCols {
		rt.Names = append(rt.Names, keyColName(i, len(keyCols)))
		rt.Vecs = append(rt.Vecs, kc)
	}
	rt.Names = append(rt.Names, op.String())
	rt.Vecs = append(rt.Vecs, out)
	return rt, nil
}

func appendNativeAgg(out *vector.Vector, op Op, col *vector.Vector, vs []int64, sel []int32, hasNull bool) {
	if len(sel) == 0 {
		out.AppendNull()
		return
	}
	if !hasNull {
		switch op {
		case Sum:
			// 64-bit accumulation; the source view is already int64.
			out.AppendInt64(agg.SumSels(vs, sel))
		case Min:
			out.AppendInt64(agg.MinSels(vs, sel))
		case Max:
			out.AppendInt64(agg.MaxSels(vs, sel))
		}
		return
	}

	switch op {
	case Sum:
		sum, cnt := agg.SumSkipNullSels(vs, sel, col.IsNull)
		if cnt == 0 {
			out.AppendNull()
			return
		}
		out.AppendInt64(sum)
	case Min, Max:
		v := intMinMaxSkipNull(op, col, vs, sel)
		if v.isNull {
			out.AppendNull()
			return
		}
		out.AppendInt64(v.i)
	}
}
