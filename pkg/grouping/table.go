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

// Package grouping partitions row indices into groups by key equality.
//
// The result is a CSR-style table: keys (one per group, discovery order),
// offsets (group boundaries) and indices (a permutation of the non-null
// row indices, contiguous per group).  Rows whose key is null never enter
// the CSR structure; they are held in a side list and surface as one
// trailing pseudo group.  Invariant: indices plus the side list cover
// every source row exactly once.
package grouping

import (
	"github.com/tessera-db/tessera/pkg/common/mpool"
	"github.com/tessera-db/tessera/pkg/container/dict"
	"github.com/tessera-db/tessera/pkg/container/types"
	"github.com/tessera-db/tessera/pkg/container/vector"
)

// KeyKind tells what the keys array actually holds.
type KeyKind uint8

const (
	// KeyInt64: keys are the 64-bit key values themselves.
	KeyInt64 KeyKind = iota + 1
	// KeyDictCode: keys are dictionary codes; the dict is shared by
	// reference with the source column.
	KeyDictCode
	// KeyBytes: keys are byte spans into the table's key arena.
	KeyBytes
	// KeyRowIndex: keys are representative row indices into the source
	// columns (multi-column and generic strategies).  Key values must be
	// reconstructed by dereferencing the sources.
	KeyRowIndex
)

// Table is the group table.  It exists in one of two forms: managed (GC
// slices) or native (three mpool buffers sized exactly to group/row
// counts, released exactly once by Free).  Both satisfy the same
// invariants; strategy code fills them through the same slice views.
type Table struct {
	kind     KeyKind
	rowCount int

	keys    []int64
	offsets []int64
	indices []int32

	nullRows []int32

	// byte-sequence keys (KeyBytes): spans into keyArena
	keyArena []byte
	keyOffs  []uint32
	keyLens  []uint32

	dict *dict.Dict
	// startAtNull is the native start-offset flag for dictionary keys:
	// when set, group 0 of the CSR is the reserved null code and is
	// reported through the null-group accessors instead of as a real
	// group.
	startAtNull bool

	srcCols []*vector.Vector

	pool                            *mpool.MPool
	rawKeys, rawOffsets, rawIndices []byte
}

// newManagedTable allocates the CSR arrays on the Go heap.
func newManagedTable(kind KeyKind, groups, rows int) *Table {
	return &Table{
		kind:    kind,
		keys:    make([]int64, groups),
		offsets: make([]int64, groups+1),
		indices: make([]int32, rows),
	}
}

// newNativeTable allocates the CSR arrays from the pool.  Exactly one
// Free is required; the allocation either fully succeeds or is fully
// unwound.
func newNativeTable(pool *mpool.MPool, kind KeyKind, groups, rows int) (*Table, error) {
	t := &Table{kind: kind, pool: pool}
	var err error
	if t.rawKeys, err = pool.Alloc(groups * 8); err != nil {
		return nil, err
	}
	if t.rawOffsets, err = pool.Alloc((groups + 1) * 8); err != nil {
		pool.Free(t.rawKeys)
		return nil, err
	}
	if t.rawIndices, err = pool.Alloc(rows * 4); err != nil {
		pool.Free(t.rawKeys)
		pool.Free(t.rawOffsets)
		return nil, err
	}
	t.keys = types.DecodeSlice[int64](t.rawKeys)
	t.offsets = types.DecodeSlice[int64](t.rawOffsets)
	t.indices = types.DecodeSlice[int32](t.rawIndices)
	return t, nil
}

// IsNative reports whether the table owns pool-backed buffers.
func (t *Table) IsNative() bool {
	return t.pool != nil
}

func (t *Table) Kind() KeyKind {
	return t.kind
}

// RowCount is the total number of source rows, null-keyed ones included.
func (t *Table) RowCount() int {
	return t.rowCount
}

// start returns the CSR position of the first real group.
func (t *Table) start() int {
	if t.startAtNull {
		return 1
	}
	return 0
}

// NumGroups counts the real groups; the null pseudo group is excluded.
func (t *Table) NumGroups() int {
	return len(t.keys) - t.start()
}

// GroupSel returns the row indices of real group g.  The slice aliases
// the table and is only valid before Free.
func (t *Table) GroupSel(g int) []int32 {
	i := g + t.start()
	return t.indices[t.offsets[i]:t.offsets[i+1]]
}

// GroupSize is len(GroupSel(g)) without slicing.
func (t *Table) GroupSize(g int) int64 {
	i := g + t.start()
	return t.offsets[i+1] - t.offsets[i]
}

// GroupKeyInt64 returns the key of real group g for KeyInt64, KeyDictCode
// and KeyRowIndex tables.
func (t *Table) GroupKeyInt64(g int) int64 {
	return t.keys[g+t.start()]
}

// GroupKeyBytes returns the key of real group g for KeyBytes tables.
func (t *Table) GroupKeyBytes(g int) []byte {
	i := g + t.start()
	off, ln := t.keyOffs[i], t.keyLens[i]
	return t.keyArena[off : off+ln]
}

// HasNullGroup reports whether any source row had a null key.
func (t *Table) HasNullGroup() bool {
	return len(t.nullRows) > 0 || (t.startAtNull && t.offsets[1] > t.offsets[0])
}

// NullSel returns the row indices of the null pseudo group.
func (t *Table) NullSel() []int32 {
	if t.startAtNull {
		return t.indices[t.offsets[0]:t.offsets[1]]
	}
	return t.nullRows
}

func (t *Table) NullCount() int64 {
	return int64(len(t.NullSel()))
}

func (t *Table) Dict() *dict.Dict {
	return t.dict
}

// SourceCols returns the grouping key columns the table was built from.
func (t *Table) SourceCols() []*vector.Vector {
	return t.srcCols
}

// Free releases the native buffers.  The table must not be read
// afterwards; ownership is exclusive and exactly one Free call is
// expected per native table.  Managed tables are collected by the GC and
// Free is a no-op.
func (t *Table) Free() {
	if t.pool == nil {
		return
	}
	t.pool.Free(t.rawKeys)
	t.pool.Free(t.rawOffsets)
	t.pool.Free(t.rawIndices)
	t.rawKeys, t.rawOffsets, t.rawIndices = nil, nil, nil
	t.keys, t.offsets, t.indices = nil, nil, nil
}
