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

package types

import "unsafe"

// EncodeSlice reinterprets a typed slice as raw bytes without copying.
func EncodeSlice[T any](v []T) []byte {
	if len(v) == 0 {
		return nil
	}
	sz := int(unsafe.Sizeof(v[0]))
	return unsafe.Slice((*byte)(unsafe.Pointer(&v[0])), len(v)*sz)
}

// DecodeSlice reinterprets raw bytes as a typed slice without copying.
// len(buf) must be a multiple of the element size.
func DecodeSlice[T any](buf []byte) []T {
	var zero T
	sz := int(unsafe.Sizeof(zero))
	if len(buf) == 0 {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&buf[0])), len(buf)/sz)
}

// EncodeFixed copies the in-memory bytes of a fixed-width value into dst
// and returns the extended slice.
func EncodeFixed[T any](dst []byte, v T) []byte {
	sz := int(unsafe.Sizeof(v))
	return append(dst, unsafe.Slice((*byte)(unsafe.Pointer(&v)), sz)...)
}
