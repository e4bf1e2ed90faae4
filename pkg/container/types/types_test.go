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

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFixedSize(t *testing.T) {
	require.Equal(t, 1, New(T_bool).FixedSize())
	require.Equal(t, 8, New(T_int64).FixedSize())
	require.Equal(t, 8, New(T_float64).FixedSize())
	require.Equal(t, 8, New(T_datetime).FixedSize())
	require.Equal(t, 4, New(T_dict).FixedSize())
	require.Equal(t, 0, New(T_varchar).FixedSize())

	require.True(t, New(T_dict).IsFixedLen())
	require.False(t, New(T_varchar).IsFixedLen())
}

func TestIsInteger(t *testing.T) {
	require.True(t, New(T_int64).IsInteger())
	require.True(t, New(T_datetime).IsInteger())
	require.False(t, New(T_float64).IsInteger())
	require.False(t, New(T_dict).IsInteger())
}

func TestEncodeDecodeSlice(t *testing.T) {
	vals := []int64{-1, 0, 1, 1 << 40}
	raw := EncodeSlice(vals)
	require.Len(t, raw, len(vals)*8)

	back := DecodeSlice[int64](raw)
	require.Equal(t, vals, back)

	// the decoded view aliases the raw bytes
	back[0] = 42
	require.Equal(t, []int64{42, 0, 1, 1 << 40}, DecodeSlice[int64](raw))

	require.Empty(t, DecodeSlice[int32](nil))
}

func TestEncodeFixedAppends(t *testing.T) {
	buf := []byte{0xff}
	buf = EncodeFixed(buf, int64(7))
	buf = EncodeFixed(buf, uint32(9))
	require.Len(t, buf, 1+8+4)
	require.Equal(t, byte(0xff), buf[0])

	require.Equal(t, int64(7), DecodeSlice[int64](buf[1:9])[0])
	require.Equal(t, uint32(9), DecodeSlice[uint32](buf[9:13])[0])
}
