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

package mpool

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tessera-db/tessera/pkg/common/terr"
)

func TestAllocFree(t *testing.T) {
	mp := New("test", 0)

	buf, err := mp.Alloc(100)
	require.NoError(t, err)
	require.Len(t, buf, 100)
	require.EqualValues(t, 100, mp.CurrNB())
	for _, b := range buf {
		require.Zero(t, b)
	}

	mp.Free(buf)
	require.EqualValues(t, 0, mp.CurrNB())
	require.EqualValues(t, 1, mp.AllocCount())
	require.EqualValues(t, 1, mp.FreeCount())
}

func TestAllocZeroAndNegative(t *testing.T) {
	mp := New("test", 0)

	buf, err := mp.Alloc(0)
	require.NoError(t, err)
	require.Nil(t, buf)

	_, err = mp.Alloc(-1)
	require.True(t, terr.IsCode(err, terr.ErrInvalidInput))

	mp.Free(nil)
	require.EqualValues(t, 0, mp.CurrNB())
}

func TestCapEnforced(t *testing.T) {
	mp := New("capped", 128)

	a, err := mp.Alloc(100)
	require.NoError(t, err)

	_, err = mp.Alloc(100)
	require.True(t, terr.IsCode(err, terr.ErrOOM))
	// a failed alloc must not count against live bytes
	require.EqualValues(t, 100, mp.CurrNB())

	mp.Free(a)
	b, err := mp.Alloc(100)
	require.NoError(t, err)
	mp.Free(b)
	require.EqualValues(t, 0, mp.CurrNB())
}

func TestConcurrentAccounting(t *testing.T) {
	mp := New("conc", 0)
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				buf, err := mp.Alloc(64)
				if err != nil {
					continue
				}
				mp.Free(buf)
			}
		}()
	}
	wg.Wait()
	require.EqualValues(t, 0, mp.CurrNB())
	require.Equal(t, mp.AllocCount(), mp.FreeCount())
}
