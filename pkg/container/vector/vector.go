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

// Package vector implements the typed growable column the engine reads
// from.  Fixed-width values live in one contiguous slice; varchar values
// live in a shared byte area addressed by offset/length, so no per-value
// string objects are held.  Null positions keep a zero placeholder in the
// value slice and are flagged in the null bitmap.
package vector

import (
	"github.com/tessera-db/tessera/pkg/common/terr"
	"github.com/tessera-db/tessera/pkg/container/dict"
	"github.com/tessera-db/tessera/pkg/container/nulls"
	"github.com/tessera-db/tessera/pkg/container/types"
)

type Vector struct {
	Typ types.Type
	Nsp *nulls.Nulls

	fixed []int64   // T_int64, T_datetime
	fvals []float64 // T_float64
	bvals []bool    // T_bool
	codes []uint32  // T_dict

	// varchar storage: area holds all bytes, voffs/vlens address values.
	area  []byte
	voffs []uint32
	vlens []uint32

	dict *dict.Dict

	length int
}

func New(typ types.Type) *Vector {
	vec := &Vector{Typ: typ, Nsp: nulls.New()}
	if typ.Oid == types.T_dict {
		vec.dict = dict.New()
	}
	return vec
}

// NewDict creates a dictionary-coded vector sharing an existing dict.
func NewDict(d *dict.Dict) *Vector {
	return &Vector{Typ: types.New(types.T_dict), Nsp: nulls.New(), dict: d}
}

func (v *Vector) Length() int {
	return v.length
}

func (v *Vector) IsNull(i int) bool {
	return v.Nsp.Contains(uint32(i))
}

func (v *Vector) Dict() *dict.Dict {
	return v.dict
}

func (v *Vector) AppendNull() {
	v.Nsp.Add(uint32(v.length))
	switch v.Typ.Oid {
	case types.T_int64, types.T_datetime:
		v.fixed = append(v.fixed, 0)
	case types.T_float64:
		v.fvals = append(v.fvals, 0)
	case types.T_bool:
		v.bvals = append(v.bvals, false)
	case types.T_dict:
		v.codes = append(v.codes, dict.NullCode)
	case types.T_varchar:
		v.voffs = append(v.voffs, uint32(len(v.area)))
		v.vlens = append(v.vlens, 0)
	}
	v.length++
}

func (v *Vector) AppendInt64(val int64) {
	v.fixed = append(v.fixed, val)
	v.length++
}

func (v *Vector) AppendDatetime(val types.Datetime) {
	v.fixed = append(v.fixed, int64(val))
	v.length++
}

func (v *Vector) AppendFloat64(val float64) {
	v.fvals = append(v.fvals, val)
	v.length++
}

func (v *Vector) AppendBool(val bool) {
	v.bvals = append(v.bvals, val)
	v.length++
}

// AppendString appends to a varchar or dict vector.
func (v *Vector) AppendString(val string) {
	switch v.Typ.Oid {
	case types.T_varchar:
		v.voffs = append(v.voffs, uint32(len(v.area)))
		v.vlens = append(v.vlens, uint32(len(val)))
		v.area = append(v.area, val...)
	case types.T_dict:
		v.codes = append(v.codes, v.dict.GetOrInsert(val))
	}
	v.length++
}

// Int64s exposes the contiguous value view of an integer-backed vector;
// null positions hold zero.
func (v *Vector) Int64s() []int64 {
	return v.fixed
}

func (v *Vector) Float64s() []float64 {
	return v.fvals
}

func (v *Vector) Bools() []bool {
	return v.bvals
}

func (v *Vector) Codes() []uint32 {
	return v.codes
}

func (v *Vector) BytesAt(i int) []byte {
	off, ln := v.voffs[i], v.vlens[i]
	return v.area[off : off+ln]
}

// StringAt resolves row i of a varchar or dict vector.
func (v *Vector) StringAt(i int) string {
	if v.Typ.Oid == types.T_dict {
		return v.dict.Lookup(v.codes[i])
	}
	return string(v.BytesAt(i))
}

// GetInt64 reads a single integer value.
func (v *Vector) GetInt64(i int) int64 {
	return v.fixed[i]
}

func (v *Vector) GetFloat64(i int) float64 {
	return v.fvals[i]
}

// Get returns row i as its natural Go value, or nil when the row is null.
// Used by the generic fallbacks only; hot paths use the typed views.
func (v *Vector) Get(i int) any {
	if v.IsNull(i) {
		return nil
	}
	switch v.Typ.Oid {
	case types.T_bool:
		return v.bvals[i]
	case types.T_int64:
		return v.fixed[i]
	case types.T_datetime:
		return types.Datetime(v.fixed[i])
	case types.T_float64:
		return v.fvals[i]
	case types.T_varchar, types.T_dict:
		return v.StringAt(i)
	}
	panic(terr.NewInternal("get on unknown type %s", v.Typ))
}

// ToDict converts a varchar vector into a dictionary-coded one.  The
// resulting vector shares no storage with the source.
func (v *Vector) ToDict() (*Vector, error) {
	if v.Typ.Oid != types.T_varchar {
		return nil, terr.NewInvalidInput("cannot dictionary-encode %s column", v.Typ)
	}
	out := New(types.New(types.T_dict))
	for i := 0; i < v.length; i++ {
		if v.IsNull(i) {
			out.AppendNull()
			continue
		}
		out.AppendString(string(v.BytesAt(i)))
	}
	return out, nil
}
