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

// Package nulls stores the NULL positions of a column as a bitmap.
package nulls

import (
	"github.com/RoaringBitmap/roaring"
)

// Nulls is a nullable wrapper around a roaring bitmap.  A nil *Nulls or a
// nil inner bitmap means "no nulls"; this keeps the fully-valid fast path
// allocation free.
type Nulls struct {
	np *roaring.Bitmap
}

func New() *Nulls {
	return &Nulls{}
}

func Build(rows ...uint32) *Nulls {
	nsp := New()
	for _, row := range rows {
		nsp.Add(row)
	}
	return nsp
}

func (nsp *Nulls) Add(row uint32) {
	if nsp.np == nil {
		nsp.np = roaring.New()
	}
	nsp.np.Add(row)
}

func (nsp *Nulls) Contains(row uint32) bool {
	return nsp != nil && nsp.np != nil && nsp.np.Contains(row)
}

// Any reports whether the column has at least one null.
func (nsp *Nulls) Any() bool {
	return nsp != nil && nsp.np != nil && !nsp.np.IsEmpty()
}

func (nsp *Nulls) Count() int {
	if nsp == nil || nsp.np == nil {
		return 0
	}
	return int(nsp.np.GetCardinality())
}

func (nsp *Nulls) Clone() *Nulls {
	if nsp == nil || nsp.np == nil {
		return New()
	}
	return &Nulls{np: nsp.np.Clone()}
}

// Range calls f for every null row in [0, n).
func (nsp *Nulls) Range(f func(row uint32)) {
	if nsp == nil || nsp.np == nil {
		return
	}
	it := nsp.np.Iterator()
	for it.HasNext() {
		f(it.Next())
	}
}
