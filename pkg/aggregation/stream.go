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
	"github.com/tessera-db/tessera/pkg/container/dict"
	"github.com/tessera-db/tessera/pkg/container/types"
	"github.com/tessera-db/tessera/pkg/container/vector"
	"github.com/tessera-db/tessera/pkg/grouping"
)

// KeyView is a read-only flyweight over the current row's group key.
// Its contents are overwritten by every Next call; callers must copy
// anything they keep.
type KeyView interface {
	IsNull() bool
	Int64() int64
	String() string
}

// literalKey holds a direct integer key value.
type literalKey struct {
	v    int64
	null bool
}

func (k *literalKey) IsNull() bool  { return k.null }
func (k *literalKey) Int64() int64  { return k.v }
func (k *literalKey) String() string { return "" }

// dictKey resolves a dictionary code on every read.
type dictKey struct {
	d    *dict.Dict
	code uint32
}

func (k *dictKey) IsNull() bool { return k.code == dict.NullCode }
func (k *dictKey) Int64() int64 { return int64(k.code) }
func (k *dictKey) String() string {
	if k.code == dict.NullCode {
		return ""
	}
	return k.d.Lookup(k.code)
}

// bytesKey aliases the table's key arena.
type bytesKey struct {
	b    []byte
	null bool
}

func (k *bytesKey) IsNull() bool   { return k.null }
func (k *bytesKey) Int64() int64   { return 0 }
func (k *bytesKey) String() string { return string(k.b) }

// indirectKey re-reads the original source column at a stored row index;
// used when group keys are representative row indices.
type indirectKey struct {
	src  *vector.Vector
	row  int
	null bool
}

func (k *indirectKey) IsNull() bool {
	return k.null || k.src.IsNull(k.row)
}

func (k *indirectKey) Int64() int64 {
	if k.IsNull() {
		return 0
	}
	return k.src.GetInt64(k.row)
}

func (k *indirectKey) String() string {
	if k.IsNull() {
		return ""
	}
	switch k.src.Typ.Oid {
	case types.T_varchar, types.T_dict:
		return k.src.StringAt(k.row)
	}
	return ""
}

// Scalar is the flyweight aggregate result slot, retyped per the
// requested aggregation and overwritten on every advance.
type Scalar struct {
	v value
}

func (s *Scalar) IsNull() bool { return s.v.isNull }

func (s *Scalar) Int64() int64 {
	if s.v.isFloat {
		return int64(s.v.f)
	}
	return s.v.i
}

func (s *Scalar) Float64() float64 {
	if s.v.isFloat {
		return s.v.f
	}
	return float64(s.v.i)
}

// Stream lazily yields one (keys, aggregate) row per group, then exactly
// one row for the null-key group if the grouping produced one.  It is
// single-pass and not restartable; re-iterating requires re-running the
// grouping.  Close releases the group table's native resources and is
// valid before exhaustion.
type Stream struct {
	t   *grouping.Table
	op  Op
	col *vector.Vector

	g           int
	numGroups   int
	nullPending bool
	closed      bool
	err         error

	keys   []KeyView
	result Scalar
}

// NewStream validates the aggregate like Execute and takes ownership of
// the table: Close frees it.
func NewStream(t *grouping.Table, op Op, col *vector.Vector) (*Stream, error) {
	if t == nil {
		return nil, terr.NewInvalidInput("stream over nil group table")
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

	s := &Stream{
		t:           t,
		op:          op,
		col:         col,
		numGroups:   t.NumGroups(),
		nullPending: t.HasNullGroup(),
	}
	switch t.Kind() {
	case grouping.KeyInt64:
		s.keys = []KeyView{&literalKey{}}
	case grouping.KeyDictCode:
		s.keys = []KeyView{&dictKey{d: t.Dict()}}
	case grouping.KeyBytes:
		s.keys = []KeyView{&bytesKey{}}
	case grouping.KeyRowIndex:
		for _, src := range t.SourceCols() {
			s.keys = append(s.keys, &indirectKey{src: src})
		}
	default:
		return nil, terr.NewInternal("stream over unknown key kind %d", t.Kind())
	}
	return s, nil
}

// Next advances to the next result row.  It returns false at the end of
// the sequence, after Close, or on error (see Err).
func (s *Stream) Next() bool {
	if s.closed || s.err != nil {
		return false
	}

	if s.g < s.numGroups {
		sel := s.t.GroupSel(s.g)
		if !s.advance(sel, false) {
			return false
		}
		s.g++
		return true
	}

	if s.nullPending {
		s.nullPending = false
		return s.advance(s.t.NullSel(), true)
	}
	return false
}

func (s *Stream) advance(sel []int32, isNullGroup bool) bool {
	v, err := computeAgg(s.op, s.col, sel)
	if err != nil {
		s.err = err
		return false
	}
	s.result.v = v

	for _, kv := range s.keys {
		switch k := kv.(type) {
		case *literalKey:
			k.null = isNullGroup
			if !isNullGroup {
				k.v = s.t.GroupKeyInt64(s.g)
			}
		case *dictKey:
			if isNullGroup {
				k.code = dict.NullCode
			} else {
				k.code = uint32(s.t.GroupKeyInt64(s.g))
			}
		case *bytesKey:
			k.null = isNullGroup
			if isNullGroup {
				k.b = nil
			} else {
				k.b = s.t.GroupKeyBytes(s.g)
			}
		case *indirectKey:
			k.null = isNullGroup
			if !isNullGroup {
				k.row = int(s.t.GroupKeyInt64(s.g))
			}
		}
	}
	return true
}

// Keys returns the flyweight key views; their contents are only valid
// until the next call to Next.
func (s *Stream) Keys() []KeyView {
	return s.keys
}

// Value returns the flyweight aggregate slot for the current row.
func (s *Stream) Value() *Scalar {
	return &s.result
}

func (s *Stream) Err() error {
	return s.err
}

// Close releases the underlying group table.  Closing before exhausting
// the sequence is valid and must not leak; closing twice is a no-op for
// the stream but the table's single-release rule still holds, so Close
// guards itself.
func (s *Stream) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.t.Free()
}
