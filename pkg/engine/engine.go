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

// Package engine is the outward facade of the library: a thin frame of
// named columns with a GroupBy entry point.  All heavy lifting lives in
// the grouping and aggregation packages.
package engine

import (
	"github.com/tessera-db/tessera/pkg/aggregation"
	"github.com/tessera-db/tessera/pkg/common/mpool"
	"github.com/tessera-db/tessera/pkg/common/terr"
	"github.com/tessera-db/tessera/pkg/config"
	"github.com/tessera-db/tessera/pkg/container/vector"
	"github.com/tessera-db/tessera/pkg/grouping"
)

// Frame is a set of equal-length named columns.
type Frame struct {
	cfg   *config.Config
	pool  *mpool.MPool
	names []string
	cols  []*vector.Vector
	index map[string]int
}

func NewFrame(cfg *config.Config, pool *mpool.MPool) *Frame {
	if cfg == nil {
		cfg = config.Default()
	}
	if pool == nil {
		pool = mpool.New("engine", 0)
	}
	return &Frame{cfg: cfg, pool: pool, index: make(map[string]int)}
}

func (f *Frame) AddColumn(name string, col *vector.Vector) error {
	if name == "" || col == nil {
		return terr.NewInvalidInput("column needs a name and a vector")
	}
	if _, dup := f.index[name]; dup {
		return terr.NewInvalidInput("duplicate column %q", name)
	}
	if len(f.cols) > 0 && col.Length() != f.cols[0].Length() {
		return terr.NewInvalidInput("column %q has %d rows, frame has %d",
			name, col.Length(), f.cols[0].Length())
	}
	f.index[name] = len(f.cols)
	f.names = append(f.names, name)
	f.cols = append(f.cols, col)
	return nil
}

func (f *Frame) Column(name string) *vector.Vector {
	if i, ok := f.index[name]; ok {
		return f.cols[i]
	}
	return nil
}

func (f *Frame) NumRows() int {
	if len(f.cols) == 0 {
		return 0
	}
	return f.cols[0].Length()
}

// Grouped owns a group table and exposes the aggregation surface over
// it.  Free releases it; a Grouped must not be used after Free.
type Grouped struct {
	frame *Frame
	table *grouping.Table
}

// GroupBy partitions the frame's rows by the named key column(s).
func (f *Frame) GroupBy(keys ...string) (*Grouped, error) {
	if len(keys) == 0 {
		return nil, terr.NewInvalidInput("groupby requires at least one key column")
	}
	cols := make([]*vector.Vector, len(keys))
	for i, name := range keys {
		col := f.Column(name)
		if col == nil {
			return nil, terr.NewInvalidInput("unknown column %q", name)
		}
		cols[i] = col
	}
	t, err := grouping.New(f.cfg, f.pool).GroupBy(cols...)
	if err != nil {
		return nil, err
	}
	return &Grouped{frame: f, table: t}, nil
}

// Table exposes the underlying group table.
func (g *Grouped) Table() *grouping.Table {
	return g.table
}

func (g *Grouped) Count() (*aggregation.ResultTable, error) {
	return aggregation.Execute(g.table, aggregation.Count, nil)
}

func (g *Grouped) Sum(col string) (*aggregation.ResultTable, error) {
	return g.run(aggregation.Sum, col)
}

func (g *Grouped) Min(col string) (*aggregation.ResultTable, error) {
	return g.run(aggregation.Min, col)
}

func (g *Grouped) Max(col string) (*aggregation.ResultTable, error) {
	return g.run(aggregation.Max, col)
}

func (g *Grouped) Mean(col string) (*aggregation.ResultTable, error) {
	return g.run(aggregation.Mean, col)
}

func (g *Grouped) run(op aggregation.Op, col string) (*aggregation.ResultTable, error) {
	c := g.frame.Column(col)
	if c == nil {
		return nil, terr.NewInvalidInput("unknown column %q", col)
	}
	return aggregation.Execute(g.table, op, c)
}

// Aggregate computes several aggregates in one pass over the groups.
type AggDef struct {
	Op    aggregation.Op
	Col   string
	Alias string
}

func (g *Grouped) Aggregate(defs ...AggDef) (*aggregation.ResultTable, error) {
	specs := make([]aggregation.AggSpec, len(defs))
	for i, def := range defs {
		spec := aggregation.AggSpec{Op: def.Op, Alias: def.Alias}
		if def.Op != aggregation.Count {
			c := g.frame.Column(def.Col)
			if c == nil {
				return nil, terr.NewInvalidInput("unknown column %q", def.Col)
			}
			spec.Col = c
		}
		specs[i] = spec
	}
	return aggregation.Aggregate(g.table, specs...)
}

// Stream hands the group table over to a lazy cursor; closing the stream
// frees the table, so the Grouped must not be freed separately.
func (g *Grouped) Stream(op aggregation.Op, col string) (*aggregation.Stream, error) {
	var c *vector.Vector
	if op != aggregation.Count {
		c = g.frame.Column(col)
		if c == nil {
			return nil, terr.NewInvalidInput("unknown column %q", col)
		}
	}
	s, err := aggregation.NewStream(g.table, op, c)
	if err != nil {
		return nil, err
	}
	g.table = nil
	return s, nil
}

// Free releases the group table's native resources.
func (g *Grouped) Free() {
	if g.table != nil {
		g.table.Free()
		g.table = nil
	}
}
