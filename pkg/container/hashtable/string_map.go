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

package hashtable

import (
	"bytes"

	"github.com/tessera-db/tessera/pkg/vectorize/hash"
)

func hashInt64(key uint64) uint64 {
	return hash.Int64(key)
}

type strCell struct {
	hash uint64
	off  uint32
	len  uint32
	// mapped is group id + 1; 0 marks an empty cell.
	mapped uint32
}

// StrGroupMap discovers groups over byte-sequence keys.  Keys are stored
// once as offset/length spans into a shared append-only arena and
// compared by span equality on probe; no string objects are materialized.
type StrGroupMap struct {
	bucketCnt  uint64
	elemCnt    uint64
	maxElemCnt uint64
	cells      []strCell
	arena      []byte

	// discovery-order group key spans
	keyOffs []uint32
	keyLens []uint32

	heads  []int32
	tails  []int32
	counts []int32
	next   []int32
	rowCnt int32
}

func NewStrGroupMap(rowCount int) *StrGroupMap {
	m := &StrGroupMap{
		bucketCnt:  kInitialBucketCnt,
		maxElemCnt: kInitialBucketCnt * kLoadFactorNumerator / kLoadFactorDenominator,
		cells:      make([]strCell, kInitialBucketCnt),
		next:       make([]int32, rowCount),
	}
	for i := range m.next {
		m.next[i] = -1
	}
	return m
}

// InsertRow maps key to its group and appends row to the group's member
// chain.  The key bytes are copied into the arena only when the group is
// new.
func (m *StrGroupMap) InsertRow(key []byte, row int32) {
	gid := m.findOrCreate(key)
	if m.heads[gid] < 0 {
		m.heads[gid] = row
	} else {
		m.next[m.tails[gid]] = row
	}
	m.tails[gid] = row
	m.counts[gid]++
	m.rowCnt++
}

func (m *StrGroupMap) findOrCreate(key []byte) uint32 {
	m.resizeOnDemand()

	h := hash.Bytes(key)
	cell := m.findCell(h, key)
	if cell.mapped == 0 {
		off := uint32(len(m.arena))
		m.arena = append(m.arena, key...)
		cell.hash = h
		cell.off = off
		cell.len = uint32(len(key))

		m.elemCnt++
		m.keyOffs = append(m.keyOffs, off)
		m.keyLens = append(m.keyLens, cell.len)
		m.heads = append(m.heads, -1)
		m.tails = append(m.tails, -1)
		m.counts = append(m.counts, 0)
		cell.mapped = uint32(len(m.keyOffs))
	}
	return cell.mapped - 1
}

func (m *StrGroupMap) findCell(h uint64, key []byte) *strCell {
	mask := m.bucketCnt - 1
	for idx := h & mask; ; idx = (idx + 1) & mask {
		cell := &m.cells[idx]
		if cell.mapped == 0 {
			return cell
		}
		if cell.hash == h && m.spanEqual(cell, key) {
			return cell
		}
	}
}

func (m *StrGroupMap) spanEqual(cell *strCell, key []byte) bool {
	return bytes.Equal(m.arena[cell.off:cell.off+cell.len], key)
}

func (m *StrGroupMap) resizeOnDemand() {
	if m.elemCnt+1 <= m.maxElemCnt {
		return
	}

	newBucketCnt := m.bucketCnt << 2
	newMaxElemCnt := newBucketCnt * kLoadFactorNumerator / kLoadFactorDenominator
	for newMaxElemCnt < m.elemCnt+1 {
		newBucketCnt <<= 1
		newMaxElemCnt = newBucketCnt * kLoadFactorNumerator / kLoadFactorDenominator
	}

	oldCells := m.cells
	m.bucketCnt = newBucketCnt
	m.maxElemCnt = newMaxElemCnt
	m.cells = make([]strCell, newBucketCnt)

	for i := range oldCells {
		cell := &oldCells[i]
		if cell.mapped != 0 {
			*m.findEmptyCell(cell.hash) = *cell
		}
	}
}

func (m *StrGroupMap) findEmptyCell(h uint64) *strCell {
	mask := m.bucketCnt - 1
	for idx := h & mask; ; idx = (idx + 1) & mask {
		cell := &m.cells[idx]
		if cell.mapped == 0 {
			return cell
		}
	}
}

func (m *StrGroupMap) GroupCount() int {
	return len(m.keyOffs)
}

func (m *StrGroupMap) RowCount() int {
	return int(m.rowCnt)
}

// GroupKeyBytes returns the key of group gid; the slice aliases the arena
// and must not be mutated.
func (m *StrGroupMap) GroupKeyBytes(gid int) []byte {
	off, ln := m.keyOffs[gid], m.keyLens[gid]
	return m.arena[off : off+ln]
}

// FillCSR flattens the member chains in discovery order; see
// Int64GroupMap.FillCSR.  Keys are not written because byte-sequence
// group keys stay addressable through GroupKeyBytes.
func (m *StrGroupMap) FillCSR(offsets []int64, indices []int32) {
	var pos int64
	for gid := range m.keyOffs {
		offsets[gid] = pos
		for row := m.heads[gid]; row >= 0; row = m.next[row] {
			indices[pos] = row
			pos++
		}
	}
	offsets[len(m.keyOffs)] = pos
}
