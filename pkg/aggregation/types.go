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

// Package aggregation computes aggregates over a group table.  A
// dispatcher picks a native strategy operating directly on the table's
// raw buffers when representation, key kind and column type allow it, and
// a general strategy covering every type and every operation otherwise.
package aggregation

import (
	"github.com/tessera-db/tessera/pkg/container/vector"
)

type Op uint8

const (
	Count Op = iota + 1
	Sum
	Min
	Max
	Mean
)

var opNames = [...]string{
	Count: "count",
	Sum:   "sum",
	Min:   "min",
	Max:   "max",
	Mean:  "mean",
}

func (op Op) String() string {
	if int(op) < len(opNames) && opNames[op] != "" {
		return opNames[op]
	}
	return "unknown"
}

// AggSpec describes one requested aggregate in a multi-aggregation.
// Col is nil for Count, which never dereferences a source column.
type AggSpec struct {
	Op    Op
	Col   *vector.Vector
	Alias string
}

// ResultTable is the materialized aggregation output: the reconstructed
// key column(s) followed by one column per aggregate, plus one trailing
// row for the null-key group when the grouping had one.
type ResultTable struct {
	Names []string
	Vecs  []*vector.Vector
}

func (rt *ResultTable) NumRows() int {
	if len(rt.Vecs) == 0 {
		return 0
	}
	return rt.Vecs[0].Length()
}

func (rt *ResultTable) NumCols() int {
	return len(rt.Vecs)
}

// Column returns the first column with the given name, or nil.
func (rt *ResultTable) Column(name string) *vector.Vector {
	for i, n := range rt.Names {
		if n == name {
			return rt.Vecs[i]
		}
	}
	return nil
}
