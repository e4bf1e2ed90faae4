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
	"fmt"

	"github.com/tessera-db/tessera/pkg/common/terr"
	"github.com/tessera-db/tessera/pkg/container/types"
	"github.com/tessera-db/tessera/pkg/container/vector"
	"github.com/tessera-db/tessera/pkg/grouping"
	"github.com/tessera-db/tessera/pkg/vectorize/agg"
)

// value is one computed aggregate cell.
type value struct {
	isNull  bool
	isFloat bool
	i       int64
	f       float64
}

// computeAgg evaluates one aggregate over a selection of rows.  An
// aggregate that sees no valid row (all members null) yields a null cell;
// this is the engine's resolution of the ambiguous zero fallback.
func computeAgg(op Op, col *vector.Vector, sel []int32) (value, error) {
	if op == Count {
		// Count never dereferences the source column.
		return value{i: int64(len(sel))}, nil
	}
	if len(sel) == 0 {
		return value{isNull: true}, nil
	}

	switch col.Typ.Oid {
	case types.T_int64, types.T_datetime:
		return intAgg(op, col, sel)
	case types.T_float64:
		return floatAgg(op, col, sel)
	}
	return value{}, terr.NewInvalidInput("%s over %s column", op, col.Typ)
}

func intAgg(op Op, col *vector.Vector, sel []int32) (value, error) {
	vs := col.Int64s()
	hasNull := col.Nsp.Any()

	switch op {
	case Sum, Mean:
		var sum, cnt int64
		if hasNull {
			sum, cnt = agg.SumSkipNullSels(vs, sel, col.IsNull)
		} else {
			sum, cnt = agg.SumSels(vs, sel), int64(len(sel))
		}
		if cnt == 0 {
			return value{isNull: true}, nil
		}
		if op == Mean {
			return value{isFloat: true, f: float64(sum) / float64(cnt)}, nil
		}
		return value{i: sum}, nil

	case Min, Max:
		if !hasNull {
			if op == Min {
				return value{i: agg.MinSels(vs, sel)}, nil
			}
			return value{i: agg.MaxSels(vs, sel)}, nil
		}
		return intMinMaxSkipNull(op, col, vs, sel), nil
	}
	return value{}, terr.NewInternal("unknown aggregation op %d", op)
}

func intMinMaxSkipNull(op Op, col *vector.Vector, vs []int64, sel []int32) value {
	var best int64
	seen := false
	for _, s := range sel {
		if col.IsNull(int(s)) {
			continue
		}
		v := vs[s]
		if !seen || (op == Min && v < best) || (op == Max && v > best) {
			best, seen = v, true
		}
	}
	if !seen {
		return value{isNull: true}
	}
	return value{i: best}
}

func floatAgg(op Op, col *vector.Vector, sel []int32) (value, error) {
	vs := col.Float64s()
	hasNull := col.Nsp.Any()

	switch op {
	case Sum, Mean:
		var sum float64
		var cnt int64
		if hasNull {
			sum, cnt = agg.SumSkipNullSels(vs, sel, col.IsNull)
		} else {
			sum, cnt = agg.SumSels(vs, sel), int64(len(sel))
		}
		if cnt == 0 {
			return value{isNull: true}, nil
		}
		if op == Mean {
			return value{isFloat: true, f: sum / float64(cnt)}, nil
		}
		return value{isFloat: true, f: sum}, nil

	case Min, Max:
		var best float64
		seen := false
		for _, s := range sel {
			if hasNull && col.IsNull(int(s)) {
				continue
			}
			v := vs[s]
			if !seen || (op == Min && v < best) || (op == Max && v > best) {
				best, seen = v, true
			}
		}
		if !seen {
			return value{isNull: true}, nil
		}
		return value{isFloat: true, f: best}, nil
	}
	return value{}, terr.NewInternal("unknown aggregation op %d", op)
}

// generalResultType decides the column type an aggregate produces on the
// general path.  Sum requested generically widens to floating point.
func generalResultType(op Op, col *vector.Vector) types.Type {
	switch op {
	case Count:
		return types.New(types.T_int64)
	case Sum, Mean:
		return types.New(types.T_float64)
	default:
		return col.Typ
	}
}

func appendValue(out *vector.Vector, v value) {
	if v.isNull {
		out.AppendNull()
		return
	}
	switch out.Typ.Oid {
	case types.T_float64:
		if v.isFloat {
			out.AppendFloat64(v.f)
		} else {
			out.AppendFloat64(float64(v.i))
		}
	default:
		out.AppendInt64(v.i)
	}
}

// runGeneral is the strategy that supports every column type, every
// aggregation, and multi-aggregation.  One result column per spec; one
// trailing row for the null group if the grouping produced one.
func runGeneral(t *grouping.Table, specs []AggSpec) (*ResultTable, error) {
	withNull := t.HasNullGroup()
	keyCols, err := buildKeyColumns(t, withNull)
	if err != nil {
		return nil, err
	}

	rt := &ResultTable{}
	for i, kc := range keyCols {
		rt.Names = append(rt.Names, keyColName(i, len(keyCols)))
		rt.Vecs = append(rt.Vecs, kc)
	}

	g := t.NumGroups()
	for _, spec := range specs {
		out := vector.New(generalResultType(spec.Op, spec.Col))
		for i := 0; i < g; i++ {
			v, err := computeAgg(spec.Op, spec.Col, t.GroupSel(i))
			if err != nil {
				return nil, err
			}
			appendValue(out, v)
		}
		if withNull {
			v, err := computeAgg(spec.Op, spec.Col, t.NullSel())
			if err != nil {
				return nil, err
			}
			appendValue(out, v)
		}
		rt.Names = append(rt.Names, specName(spec))
		rt.Vecs = append(rt.Vecs, out)
	}
	return rt, nil
}

func keyColName(i, total int) string {
	if total == 1 {
		return "key"
	}
	return fmt.Sprintf("key%d", i)
}

func specName(spec AggSpec) string {
	if spec.Alias != "" {
		return spec.Alias
	}
	return spec.Op.String()
}
