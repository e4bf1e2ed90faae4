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

// Package radix sorts (hash, row-index) pairs with a multi-pass LSB radix
// sort.  Every pass is one parallel partitioned counting scan keyed on a
// fixed-width slice of the hash; passes alternate between two buffer
// pairs.  With the default 11-bit width, three passes cover 33 bits, which
// is sufficient for 32-bit hashes.
package radix

import (
	"github.com/tessera-db/tessera/pkg/partition"
)

// SortPairs sorts idxs by their hashes ascending, stably.  Both input
// slices are consumed as scratch; the returned slices hold the sorted
// pairs and may alias either the inputs or internal buffers.
func SortPairs(hashes []uint32, idxs []int32, radixBits uint, workers int) ([]uint32, []int32) {
	n := len(hashes)
	if n <= 1 {
		return hashes, idxs
	}

	buckets := 1 << radixBits
	mask := uint32(buckets - 1)
	passes := (32 + int(radixBits) - 1) / int(radixBits)

	srcH, srcI := hashes, idxs
	dstH := make([]uint32, n)
	dstI := make([]int32, n)

	for p := 0; p < passes; p++ {
		shift := uint(p) * radixBits
		sh, si := srcH, srcI
		dh, di := dstH, dstI
		partition.Scan(n, buckets, workers,
			func(i int) int {
				return int((sh[i] >> shift) & mask)
			},
			func(src, dst int) {
				dh[dst] = sh[src]
				di[dst] = si[src]
			})
		srcH, dstH = dstH, srcH
		srcI, dstI = dstI, srcI
	}

	return srcH, srcI
}
