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

// Package partition implements the two-phase parallel partitioned
// counting scan shared by direct addressing and every radix sort pass.
//
// The input is split into P contiguous partitions.  Each worker builds a
// private histogram over its partition, a single sequential prefix sum
// turns the P x buckets histograms into disjoint write cursors, and each
// worker then scatters its rows into pre-reserved output positions.  The
// cursor order is bucket-major, partition-minor, so the scatter is stable:
// within a bucket, rows appear in partition order, and within a partition
// in input order.
package partition

import (
	"github.com/tessera-db/tessera/pkg/common/worker"
)

// Scan partitions n input positions into buckets.
//
// bucketOf maps an input position to its bucket and must be pure; it runs
// once in the histogram phase and once in the scatter phase.  move is
// called exactly once per input position with its final output position;
// output positions form a permutation of [0, n).
//
// The returned offsets slice has buckets+1 entries: offsets[b] is the
// first output position of bucket b.
func Scan(n, buckets, workers int, bucketOf func(int) int, move func(src, dst int)) []int64 {
	offsets := make([]int64, buckets+1)
	if n == 0 {
		return offsets
	}
	if workers <= 0 {
		workers = 1
	}
	if workers > n {
		workers = n
	}
	chunk := (n + workers - 1) / workers

	countsPtr := getScratch(workers * buckets)
	defer putScratch(countsPtr)
	counts := *countsPtr

	// Phase 1: private histograms, disjoint writes per worker.
	tasks := make([]func(), workers)
	for w := 0; w < workers; w++ {
		w := w
		tasks[w] = func() {
			local := counts[w*buckets : (w+1)*buckets]
			lo, hi := w*chunk, (w+1)*chunk
			if hi > n {
				hi = n
			}
			for i := lo; i < hi; i++ {
				local[bucketOf(i)]++
			}
		}
	}
	worker.Run(tasks...)

	// Phase 2: sequential prefix sum, bucket-major then partition-minor.
	// Cost is O(buckets*workers), negligible next to the O(n) scans.
	var total int64
	for b := 0; b < buckets; b++ {
		offsets[b] = total
		for w := 0; w < workers; w++ {
			c := counts[w*buckets+b]
			counts[w*buckets+b] = total
			total += c
		}
	}
	offsets[buckets] = total

	// Phase 3: scatter into pre-reserved cursor ranges, no locks.
	for w := 0; w < workers; w++ {
		w := w
		tasks[w] = func() {
			local := counts[w*buckets : (w+1)*buckets]
			lo, hi := w*chunk, (w+1)*chunk
			if hi > n {
				hi = n
			}
			for i := lo; i < hi; i++ {
				b := bucketOf(i)
				move(i, int(local[b]))
				local[b]++
			}
		}
	}
	worker.Run(tasks...)

	return offsets
}
