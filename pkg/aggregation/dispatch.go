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
	"go.uber.org/zap"

	"github.com/tessera-db/tessera/pkg/common/terr"
	"github.com/tessera-db/tessera/pkg/container/vector"
	"github.com/tessera-db/tessera/pkg/grouping"
	"github.com/tessera-db/tessera/pkg/logutil"
)

// Execute computes a single aggregate over the group table.  col is nil
// for Count and required otherwise; it must have as many rows as the
// grouped input.  The dispatcher tries the native strategy first and
// falls back to the general one on any unsupported combination; callers
// never see the unsupported-operation condition.
func Execute(t *grouping.Table, op Op, col *vector.Vector) (*ResultTable, error) {
	if t == nil {
		return nil, terr.NewInvalidInput("aggregation over nil group table")
	}
	if op != Count {
		if col == nil {
			return nil, terr.NewInvalidInput("%s requires a source column", op)
		}
		if col.Length() != t.RowCount() {
			return nil, terr.NewInvalidInput("%s column has %d rows, grouping covers %d",
				op, col.Length(), t.RowCount())
		}
	}

	if nativeEligible(t, op, col) {
		rt, err := runNative(t, op, col)
		if err == nil {
			return rt, nil
		}
		if !terr.IsCode(err, terr.ErrNotSupported) {
			return nil, err
		}
		logutil.Debug("native aggregation unsupported, using general strategy",
			zap.String("op", op.String()))
	}
	return runGeneral(t, []AggSpec{{Op: op, Col: col}})
}

// Aggregate computes a multi-aggregation: one result column per spec.
// Multi-aggregation always runs the general strategy; the native path
// does not support it.
func Aggregate(t *grouping.Table, specs ...AggSpec) (*ResultTable, error) {
	if t == nil {
		return nil, terr.NewInvalidInput("aggregation over nil group table")
	}
	if len(specs) == 0 {
		return nil, terr.NewInvalidInput("aggregate requires at least one spec")
	}
	for _, spec := range specs {
		if spec.Op != Count {
			if spec.Col == nil {
				return nil, terr.NewInvalidInput("%s requires a source column", spec.Op)
			}
			if spec.Col.Length() != t.RowCount() {
				return nil, terr.NewInvalidInput("%s column has %d rows, grouping covers %d",
					spec.Op, spec.Col.Length(), t.RowCount())
			}
		}
	}
	return runGeneral(t, specs)
}
