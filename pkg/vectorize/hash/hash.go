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

// Package hash holds the hashing kernels of the grouping engine: a
// finalizer-style integer mix consumed by the radix path and a wyhash
// variant for byte-sequence keys.
package hash

import (
	"math/bits"

	"golang.org/x/sys/cpu"
)

// wideLanes gates the unrolled batch kernel.  Both paths run the same
// scalar mix, so enabling or disabling it never changes a hash value.
var wideLanes = cpu.X86.HasAVX2 || cpu.ARM64.HasASIMD

// Integer mix constants: odd multipliers with 16/13/16-bit shift rounds.
const (
	mixC1 uint32 = 0x85ebca6b
	mixC2 uint32 = 0xc2b2ae35
)

// Mix32 is the scalar reference mix.  Mix32Slice must produce exactly
// this value for every lane.
func Mix32(x uint64) uint32 {
	h := uint32(x) ^ uint32(x>>32)
	h ^= h >> 16
	h *= mixC1
	h ^= h >> 13
	h *= mixC2
	h ^= h >> 16
	return h
}

// Mix32Slice applies Mix32 element-wise through the lane-unrolled kernel.
// hashes must be at least as long as keys.
func Mix32Slice(keys []int64, hashes []uint32) {
	n := len(keys)
	i := 0
	if !wideLanes {
		for ; i < n; i++ {
			hashes[i] = Mix32(uint64(keys[i]))
		}
		return
	}
	// 8-wide lanes with a scalar tail.  The unrolled body and the tail
	// share the same scalar kernel, so lane/tail boundaries cannot
	// diverge.
	for ; i+8 <= n; i += 8 {
		hashes[i] = Mix32(uint64(keys[i]))
		hashes[i+1] = Mix32(uint64(keys[i+1]))
		hashes[i+2] = Mix32(uint64(keys[i+2]))
		hashes[i+3] = Mix32(uint64(keys[i+3]))
		hashes[i+4] = Mix32(uint64(keys[i+4]))
		hashes[i+5] = Mix32(uint64(keys[i+5]))
		hashes[i+6] = Mix32(uint64(keys[i+6]))
		hashes[i+7] = Mix32(uint64(keys[i+7]))
	}
	for ; i < n; i++ {
		hashes[i] = Mix32(uint64(keys[i]))
	}
}

// wyhash-style byte hashing for the string map.  The seed is fixed so
// group discovery is reproducible across runs.
const (
	wyp0 uint64 = 0xa0761d6478bd642f
	wyp1 uint64 = 0xe7037ed1a0b428db
	wyp2 uint64 = 0x8ebc6af09c88c6e3
	wyp3 uint64 = 0x589965cc75374cc3
	wyp4 uint64 = 0x1d8e4e27c47d124f

	wySeed uint64 = 0x2d358dccaa6c78a5
)

func wymix(a, b uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	return hi ^ lo
}

func wyr4(p []byte) uint64 {
	return uint64(p[0]) | uint64(p[1])<<8 | uint64(p[2])<<16 | uint64(p[3])<<24
}

func wyr8(p []byte) uint64 {
	return uint64(p[0]) | uint64(p[1])<<8 | uint64(p[2])<<16 | uint64(p[3])<<24 |
		uint64(p[4])<<32 | uint64(p[5])<<40 | uint64(p[6])<<48 | uint64(p[7])<<56
}

// Bytes hashes an arbitrary byte sequence.
func Bytes(data []byte) uint64 {
	seed := wySeed ^ wyp0
	s := uint64(len(data))
	var a, b uint64

	switch {
	case s == 0:
		return wymix(wyp4^s, wymix(wyp1, seed))
	case s < 4:
		a = uint64(data[0])
		a |= uint64(data[s>>1]) << 8
		a |= uint64(data[s-1]) << 16
	case s <= 8:
		a = wyr4(data)
		b = wyr4(data[s-4:])
	case s <= 16:
		a = wyr8(data)
		b = wyr8(data[s-8:])
	default:
		l := s
		p := data
		for ; l > 16; l -= 16 {
			seed = wymix(wyr8(p)^wyp1, wyr8(p[8:])^seed)
			p = p[16:]
		}
		a = wyr8(data[s-16:])
		b = wyr8(data[s-8:])
	}

	return wymix(wyp4^s, wymix(a^wyp1, b^seed))
}

// Int64 hashes a single 64-bit key for the open-addressing integer map.
func Int64(x uint64) uint64 {
	return wymix(wyp4^8, wymix(x^wyp1, x^wySeed^wyp0))
}

// Int64Batch hashes a run of keys.  Used by the map insert path and by
// rehashing.
func Int64Batch(keys []uint64, hashes []uint64) {
	for i, k := range keys {
		hashes[i] = Int64(k)
	}
}
