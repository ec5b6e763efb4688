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

// Package table provides the concurrency-safe keyed store that owns live
// sessions and clipboard slots.
//
// The table lock protects the mapping only. Callers get the value back and
// do their I/O after the lock is released.
package table

import (
	"cmp"
	"slices"
	"sync"

	"github.com/patrickjquinn/project-warp/pkg/errdefs"
)

type Table[K cmp.Ordered, V any] struct {
	mu    sync.RWMutex
	items map[K]V
}

func New[K cmp.Ordered, V any]() *Table[K, V] {
	return &Table[K, V]{
		items: make(map[K]V),
	}
}

// Insert adds v under k. It fails with ErrSessionExists when k is taken,
// unless replace is non-nil and reports that the current value may be
// evicted.
func (t *Table[K, V]) Insert(k K, v V, replace func(old V) bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if old, ok := t.items[k]; ok {
		if replace == nil || !replace(old) {
			return errdefs.ErrSessionExists
		}
	}
	t.items[k] = v
	return nil
}

// Put stores v under k, overwriting any previous value.
func (t *Table[K, V]) Put(k K, v V) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.items[k] = v
}

func (t *Table[K, V]) Get(k K) (V, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.items[k]
	return v, ok
}

// Remove deletes k and hands back what was stored. Exactly one of any
// number of concurrent callers observes ok == true.
func (t *Table[K, V]) Remove(k K) (V, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.items[k]
	if ok {
		delete(t.items, k)
	}
	return v, ok
}

// RemoveIf deletes k only when pred accepts the stored value.
func (t *Table[K, V]) RemoveIf(k K, pred func(v V) bool) (V, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.items[k]
	if !ok || !pred(v) {
		var zero V
		return zero, false
	}
	delete(t.items, k)
	return v, true
}

// Keys returns the keys in ascending order.
func (t *Table[K, V]) Keys() []K {
	t.mu.RLock()
	out := make([]K, 0, len(t.items))
	for k := range t.items {
		out = append(out, k)
	}
	t.mu.RUnlock()
	slices.Sort(out)
	return out
}

// Values returns a snapshot of the stored values, ordered by key.
func (t *Table[K, V]) Values() []V {
	t.mu.RLock()
	defer t.mu.RUnlock()
	keys := make([]K, 0, len(t.items))
	for k := range t.items {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	out := make([]V, 0, len(keys))
	for _, k := range keys {
		out = append(out, t.items[k])
	}
	return out
}

func (t *Table[K, V]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.items)
}
