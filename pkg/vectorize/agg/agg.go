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

// Package agg holds the tight per-group scan kernels.  All of them walk a
// selection vector of row indices; the caller slices the group table's
// permutation to the group's offset range.
package agg

type number interface {
	~int64 | ~float64
}

// SumSels accumulates vs over sels.  Integer callers pass int64 views so
// accumulation is already 64-bit wide.
func SumSels[T number](vs []T, sels []int32) T {
	var sum T
	for _, sel := range sels {
		sum += vs[sel]
	}
	return sum
}

func MinSels[T number](vs []T, sels []int32) T {
	min := vs[sels[0]]
	for _, sel := range sels[1:] {
		if v := vs[sel]; v < min {
			min = v
		}
	}
	return min
}

func MaxSels[T number](vs []T, sels []int32) T {
	max := vs[sels[0]]
	for _, sel := range sels[1:] {
		if v := vs[sel]; v > max {
			max = v
		}
	}
	return max
}

// SumSkipNullSels is SumSels with a per-row null check, for columns that
// carry nulls in non-key positions.  Returns the sum and the number of
// non-null rows seen.
func SumSkipNullSels[T number](vs []T, sels []int32, isNull func(int) bool) (T, int64) {
	var sum T
	var cnt int64
	for _, sel := range sels {
		if isNull(int(sel)) {
			continue
		}
		sum += vs[sel]
		cnt++
	}
	return sum, cnt
}
