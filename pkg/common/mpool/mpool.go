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

// Package mpool is the explicitly-released allocator backing the native
// group-table representation.  Every Alloc must be paired with exactly one
// Free; live bytes and allocation counts are tracked so tests can assert
// the engine does not leak across repeated runs.
package mpool

import (
	"sync/atomic"

	"github.com/tessera-db/tessera/pkg/common/terr"
)

// MPool hands out byte buffers with leak accounting.  The zero capacity
// means unlimited.
type MPool struct {
	tag string
	cap int64

	currNB   int64
	allocCnt int64
	freeCnt  int64
}

func New(tag string, capacity int64) *MPool {
	return &MPool{tag: tag, cap: capacity}
}

// Alloc returns a zeroed buffer of exactly sz bytes.
func (mp *MPool) Alloc(sz int) ([]byte, error) {
	if sz < 0 {
		return nil, terr.NewInvalidInput("mpool %s: alloc size %d", mp.tag, sz)
	}
	if sz == 0 {
		return nil, nil
	}
	nb := atomic.AddInt64(&mp.currNB, int64(sz))
	if mp.cap > 0 && nb > mp.cap {
		atomic.AddInt64(&mp.currNB, -int64(sz))
		return nil, terr.NewOOM("mpool %s: %d bytes requested, %d in use, cap %d",
			mp.tag, sz, nb-int64(sz), mp.cap)
	}
	atomic.AddInt64(&mp.allocCnt, 1)
	return make([]byte, sz), nil
}

// Free releases a buffer obtained from Alloc.  Freeing nil is a no-op;
// freeing the same buffer twice is a caller bug that the accounting will
// expose as negative live bytes.
func (mp *MPool) Free(buf []byte) {
	if buf == nil {
		return
	}
	atomic.AddInt64(&mp.currNB, -int64(cap(buf)))
	atomic.AddInt64(&mp.freeCnt, 1)
}

// CurrNB reports the live byte count.
func (mp *MPool) CurrNB() int64 {
	return atomic.LoadInt64(&mp.currNB)
}

func (mp *MPool) AllocCount() int64 {
	return atomic.LoadInt64(&mp.allocCnt)
}

func (mp *MPool) FreeCount() int64 {
	return atomic.LoadInt64(&mp.freeCnt)
}
