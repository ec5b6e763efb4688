// Copyright 2025 Emiliano Spinella (eminwux)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package table

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/patrickjquinn/project-warp/pkg/errdefs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsert(t *testing.T) {
	tbl := New[int, string]()

	require.NoError(t, tbl.Insert(1, "a", nil))
	require.ErrorIs(t, tbl.Insert(1, "b", nil), errdefs.ErrSessionExists)

	require.ErrorIs(t, tbl.Insert(1, "b", func(old string) bool { return old == "zzz" }), errdefs.ErrSessionExists)
	require.NoError(t, tbl.Insert(1, "b", func(old string) bool { return old == "a" }))

	v, ok := tbl.Get(1)
	require.True(t, ok)
	assert.Equal(t, "b", v)
}

func TestRemove_SingleWinner(t *testing.T) {
	tbl := New[int, int]()
	tbl.Put(7, 70)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := tbl.Remove(7); ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	assert.Equal(t, 0, tbl.Len())
}

func TestRemoveIf(t *testing.T) {
	tbl := New[string, int]()
	tbl.Put("slot", 1)

	_, ok := tbl.RemoveIf("slot", func(v int) bool { return v == 2 })
	assert.False(t, ok)
	assert.Equal(t, 1, tbl.Len())

	v, ok := tbl.RemoveIf("slot", func(v int) bool { return v == 1 })
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 0, tbl.Len())

	_, ok = tbl.RemoveIf("missing", func(int) bool { return true })
	assert.False(t, ok)
}

func TestKeysValuesOrdered(t *testing.T) {
	tbl := New[int, string]()
	tbl.Put(30, "c")
	tbl.Put(10, "a")
	tbl.Put(20, "b")

	assert.Equal(t, []int{10, 20, 30}, tbl.Keys())
	assert.Equal(t, []string{"a", "b", "c"}, tbl.Values())
}

func TestConcurrentInsertDistinctKeys(t *testing.T) {
	tbl := New[int, int]()
	var wg sync.WaitGroup
	for i := range 100 {
		wg.Add(1)
		go func(k int) {
			defer wg.Done()
			assert.NoError(t, tbl.Insert(k, k, nil))
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 100, tbl.Len())
}
