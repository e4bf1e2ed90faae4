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

import "sync"

// Histogram scratch buffers.  The pool keeps whatever capacity previous
// scans needed; borrowers must return the buffer on every exit path.
var scratchPool = sync.Pool{
	New: func() any {
		s := make([]int64, 0, 1<<12)
		return &s
	},
}

func getScratch(n int) *[]int64 {
	sp := scratchPool.Get().(*[]int64)
	s := *sp
	if cap(s) < n {
		s = make([]int64, n)
	} else {
		s = s[:n]
		for i := range s {
			s[i] = 0
		}
	}
	*sp = s
	return sp
}

func putScratch(sp *[]int64) {
	scratchPool.Put(sp)
}
