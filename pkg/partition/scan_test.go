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

package partition

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

// Two workers over [10,11,10,12] split into [10,11] and [10,12]: the
// permutation must group both 10s first (partition order), then 11,
// then 12, with offsets [0,2,3,4].
func TestScanTwoWorkerScenario(t *testing.T) {
	vals := []int64{10, 11, 10, 12}
	min := int64(10)
	perm := make([]int32, len(vals))

	offsets := Scan(len(vals), 3, 2,
		func(i int) int { return int(vals[i] - min) },
		func(src, dst int) { perm[dst] = int32(src) })

	require.Equal(t, []int64{0, 2, 3, 4}, offsets)
	require.Equal(t, []int32{0, 2, 1, 3}, perm)
}

func TestScanEmpty(t *testing.T) {
	offsets := Scan(0, 4, 2,
		func(i int) int { panic("no input") },
		func(src, dst int) { panic("no input") })
	require.Equal(t, []int64{0, 0, 0, 0, 0}, offsets)
}

func TestScanStable(t *testing.T) {
	const n = 10000
	const buckets = 7
	rng := rand.New(rand.NewSource(7))
	keys := make([]int, n)
	for i := range keys {
		keys[i] = rng.Intn(buckets)
	}

	for _, workers := range []int{1, 2, 3, 8} {
		perm := make([]int32, n)
		offsets := Scan(n, buckets, workers,
			func(i int) int { return keys[i] },
			func(src, dst int) { perm[dst] = int32(src) })

		require.EqualValues(t, n, offsets[buckets])
		for b := 0; b < buckets; b++ {
			prev := int32(-1)
			for p := offsets[b]; p < offsets[b+1]; p++ {
				require.Equal(t, b, keys[perm[p]])
				// stability: source positions ascend within a bucket
				require.Greater(t, perm[p], prev)
				prev = perm[p]
			}
		}

		// permutation property
		seen := make([]bool, n)
		for _, p := range perm {
			require.False(t, seen[p])
			seen[p] = true
		}
	}
}

func TestScanSingleBucket(t *testing.T) {
	perm := make([]int32, 5)
	offsets := Scan(5, 1, 4,
		func(i int) int { return 0 },
		func(src, dst int) { perm[dst] = int32(src) })
	require.Equal(t, []int64{0, 5}, offsets)
	require.Equal(t, []int32{0, 1, 2, 3, 4}, perm)
}
