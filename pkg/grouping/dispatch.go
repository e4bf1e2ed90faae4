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
	"go.uber.org/zap"

	"github.com/tessera-db/tessera/pkg/common/mpool"
	"github.com/tessera-db/tessera/pkg/common/terr"
	"github.com/tessera-db/tessera/pkg/config"
	"github.com/tessera-db/tessera/pkg/container/types"
	"github.com/tessera-db/tessera/pkg/container/vector"
	"github.com/tessera-db/tessera/pkg/logutil"
)

// Grouper selects and runs the cheapest correct grouping strategy for a
// key column's statistical shape.
type Grouper struct {
	cfg  *config.Config
	pool *mpool.MPool
}

func New(cfg *config.Config, pool *mpool.MPool) *Grouper {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Grouper{cfg: cfg, pool: pool}
}

// GroupBy partitions the rows of the key column(s) into groups.  The
// returned table must be released with Free by its single owner.
//
// Strategy order: empty input, dictionary codes (dense by construction),
// bounded-range integers (direct addressing), sparse integers (hash +
// radix sort), sampled low-cardinality strings (dictionary conversion,
// then dense), other strings (byte hash map), composite keys (packed row
// layout), and the generic fixed-width fallback.
func (g *Grouper) GroupBy(cols ...*vector.Vector) (*Table, error) {
	if len(cols) == 0 {
		return nil, terr.NewInvalidInput("groupby requires at least one key column")
	}
	for _, col := range cols {
		if col == nil {
			return nil, terr.NewInvalidInput("groupby key column is nil")
		}
		if col.Length() != cols[0].Length() {
			return nil, terr.NewInvalidInput("groupby key columns disagree on length: %d vs %d",
				col.Length(), cols[0].Length())
		}
	}

	n := cols[0].Length()
	if n == 0 {
		g.logStrategy("empty", n)
		return buildEmpty(cols), nil
	}

	if len(cols) > 1 {
		if allFixedWidth(cols) {
			g.logStrategy("packed-row", n)
		} else {
			g.logStrategy("combined", n)
		}
		return buildMultiCol(cols)
	}

	col := cols[0]
	switch col.Typ.Oid {
	case types.T_dict:
		g.logStrategy("dense-dict", n)
		return buildDenseDict(g.pool, col, g.cfg.Workers)

	case types.T_int64, types.T_datetime:
		return g.groupInt64(col)

	case types.T_varchar:
		return g.groupString(col)

	case types.T_float64, types.T_bool:
		g.logStrategy("generic-map", n)
		return buildGenericFixed(col)
	}

	return nil, terr.NewInternal("groupby on unknown column type %s", col.Typ)
}

func (g *Grouper) groupInt64(col *vector.Vector) (*Table, error) {
	vals := col.Int64s()
	n := col.Length()

	// One pass for min/max over the non-null rows decides dense versus
	// hashed.
	var min, max int64
	seen := false
	for i := 0; i < n; i++ {
		if col.IsNull(i) {
			continue
		}
		v := vals[i]
		if !seen {
			min, max, seen = v, v, true
			continue
		}
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if !seen {
		// all rows null: no real groups, full side list
		t := buildEmpty([]*vector.Vector{col})
		t.rowCount = n
		_, t.nullRows = splitNullRows(col)
		return t, nil
	}

	// Unsigned subtraction: min/max can straddle the int64 range.
	rang := uint64(max) - uint64(min)
	if rang < uint64(g.cfg.DenseRangeLimit) {
		g.logStrategy("dense-int", n)
		return buildDenseInt64(g.pool, col, min, int(rang)+1, g.cfg.Workers)
	}
	g.logStrategy("hash-radix", n)
	return buildHashRadix(g.pool, col, g.cfg.RadixBits, g.cfg.Workers)
}

func (g *Grouper) groupString(col *vector.Vector) (*Table, error) {
	if g.sampledDistinctRatio(col) < g.cfg.MaxDistinctRatio {
		g.logStrategy("dict-convert", col.Length())
		dictCol, err := col.ToDict()
		if err != nil {
			return nil, err
		}
		return buildDenseDict(g.pool, dictCol, g.cfg.Workers)
	}
	g.logStrategy("string-map", col.Length())
	return buildStrMap(col)
}

// sampledDistinctRatio draws a fixed-size strided sample and reports the
// observed distinct fraction.
func (g *Grouper) sampledDistinctRatio(col *vector.Vector) float64 {
	n := col.Length()
	size := g.cfg.SampleSize
	if size > n {
		size = n
	}
	stride := n / size
	if stride == 0 {
		stride = 1
	}

	seen := make(map[string]struct{}, size)
	sampled := 0
	for i := 0; i < n && sampled < size; i += stride {
		if col.IsNull(i) {
			continue
		}
		seen[string(col.BytesAt(i))] = struct{}{}
		sampled++
	}
	if sampled == 0 {
		return 1
	}
	return float64(len(seen)) / float64(sampled)
}

func (g *Grouper) logStrategy(name string, rows int) {
	logutil.Debug("groupby strategy selected",
		zap.String("strategy", name), zap.Int("rows", rows))
}
