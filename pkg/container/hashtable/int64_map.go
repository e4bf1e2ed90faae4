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

// Package hashtable implements the open-addressing maps used for group
// discovery.  Both maps thread an intrusive singly-linked list of member
// rows through each group: heads/tails/counts are indexed by group id and
// next is indexed by row id, so collecting a group's rows allocates no
// per-row objects.  A single insert both discovers the group and appends
// the row in O(1) amortized.
package hashtable

const (
	kInitialBucketCntBits = 10
	kInitialBucketCnt     = 1 << kInitialBucketCntBits

	// load factor 1/2
	kLoadFactorNumerator   = 1
	kLoadFactorDenominator = 2
)

type int64Cell struct {
	key uint64
	// mapped is group id + 1; 0 marks an empty cell.
	mapped uint32
}

// Int64GroupMap discovers groups over fixed-width 64-bit keys.  The
// all-zero key is held in a sentinel cell outside the bucket array, the
// same trick the open-addressing probe relies on to mark empties.
type Int64GroupMap struct {
	bucketCnt  uint64
	elemCnt    uint64
	maxElemCnt uint64
	zeroCell   int64Cell
	cells      []int64Cell

	// discovery-order group state
	keys   []uint64
	heads  []int32
	tails  []int32
	counts []int32

	// intrusive member chains, indexed by row id
	next    []int32
	rowCnt  int32
	hashBuf [1]uint64
}

// NewInt64GroupMap sizes the intrusive chain storage for rowCount rows.
func NewInt64GroupMap(rowCount int) *Int64GroupMap {
	m := &Int64GroupMap{
		bucketCnt:  kInitialBucketCnt,
		maxElemCnt: kInitialBucketCnt * kLoadFactorNumerator / kLoadFactorDenominator,
		cells:      make([]int64Cell, kInitialBucketCnt),
		next:       make([]int32, rowCount),
	}
	for i := range m.next {
		m.next[i] = -1
	}
	return m
}

// InsertRow maps key to its group, creating the group on first sight, and
// appends row to the group's member chain.
func (m *Int64GroupMap) InsertRow(key uint64, row int32) {
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

func (m *Int64GroupMap) findOrCreate(key uint64) uint32 {
	if key == 0 {
		if m.zeroCell.mapped == 0 {
			m.zeroCell.mapped = m.newGroup(key) + 1
		}
		return m.zeroCell.mapped - 1
	}

	m.resizeOnDemand()

	h := hashInt64(key)
	cell := m.findCell(h, key)
	if cell.mapped == 0 {
		cell.key = key
		cell.mapped = m.newGroup(key) + 1
	}
	return cell.mapped - 1
}

func (m *Int64GroupMap) newGroup(key uint64) uint32 {
	gid := uint32(len(m.keys))
	m.elemCnt++
	m.keys = append(m.keys, key)
	m.heads = append(m.heads, -1)
	m.tails = append(m.tails, -1)
	m.counts = append(m.counts, 0)
	return gid
}

func (m *Int64GroupMap) findCell(hash, key uint64) *int64Cell {
	mask := m.bucketCnt - 1
	for idx := hash & mask; ; idx = (idx + 1) & mask {
		cell := &m.cells[idx]
		if cell.mapped == 0 || cell.key == key {
			return cell
		}
	}
}

func (m *Int64GroupMap) resizeOnDemand() {
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
	m.cells = make([]int64Cell, newBucketCnt)

	// Rehash preserves mapped values, so the chains stay valid.
	for i := range oldCells {
		cell := &oldCells[i]
		if cell.mapped != 0 {
			*m.findCell(hashInt64(cell.key), cell.key) = *cell
		}
	}
}

// GroupCount returns the number of discovered groups.
func (m *Int64GroupMap) GroupCount() int {
	return len(m.keys)
}

// RowCount returns the number of inserted rows.
func (m *Int64GroupMap) RowCount() int {
	return int(m.rowCnt)
}

// GroupKey returns the key of group gid in discovery order.
func (m *Int64GroupMap) GroupKey(gid int) uint64 {
	return m.keys[gid]
}

// FillCSR flattens the member chains into the group-table representation:
// keys and offsets have GroupCount() (and +1) entries, indices has
// RowCount() entries.  Groups appear in discovery order; within a group,
// rows appear in insertion order.
func (m *Int64GroupMap) FillCSR(keys []int64, offsets []int64, indices []int32) {
	var pos int64
	for gid := range m.keys {
		keys[gid] = int64(m.keys[gid])
		offsets[gid] = pos
		for row := m.heads[gid]; row >= 0; row = m.next[row] {
			indices[pos] = row
			pos++
		}
	}
	offsets[len(m.keys)] = pos
}
