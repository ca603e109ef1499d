// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package typeutil

import (
	"sync"
	"sync/atomic"

	"github.com/samber/lo"
)

// Set 是基于 map 的泛型集合，零值不可用，请使用 NewSet 或 make(Set[T])。
type Set[T comparable] map[T]struct{}

func NewSet[T comparable](elements ...T) Set[T] {
	set := make(Set[T], len(elements))
	set.Insert(elements...)
	return set
}

func (set Set[T]) Insert(elements ...T) {
	for _, e := range elements {
		set[e] = struct{}{}
	}
}

// Contain 判断全部元素是否都在集合中。
func (set Set[T]) Contain(elements ...T) bool {
	for _, e := range elements {
		if _, ok := set[e]; !ok {
			return false
		}
	}
	return true
}

func (set Set[T]) Remove(elements ...T) {
	for _, e := range elements {
		delete(set, e)
	}
}

func (set Set[T]) Len() int {
	return len(set)
}

// Collect 返回集合元素，顺序不确定。
func (set Set[T]) Collect() []T {
	return lo.Keys(set)
}

// ConcurrentSet 为并发安全的集合，适合读多写少、键集合只增不减的场景。
type ConcurrentSet[T comparable] struct {
	inner sync.Map
	size  atomic.Int64
}

func NewConcurrentSet[T comparable]() *ConcurrentSet[T] {
	return &ConcurrentSet[T]{}
}

// Insert 插入元素，元素此前不存在时返回 true。
func (set *ConcurrentSet[T]) Insert(element T) bool {
	if _, loaded := set.inner.LoadOrStore(element, struct{}{}); loaded {
		return false
	}
	set.size.Add(1)
	return true
}

func (set *ConcurrentSet[T]) Contain(element T) bool {
	_, ok := set.inner.Load(element)
	return ok
}

// Remove 删除元素，元素存在时返回 true。
func (set *ConcurrentSet[T]) Remove(element T) bool {
	if _, loaded := set.inner.LoadAndDelete(element); !loaded {
		return false
	}
	set.size.Add(-1)
	return true
}

func (set *ConcurrentSet[T]) Len() int {
	return int(set.size.Load())
}

func (set *ConcurrentSet[T]) Collect() []T {
	result := make([]T, 0, set.Len())
	set.inner.Range(func(key, _ any) bool {
		result = append(result, key.(T))
		return true
	})
	return result
}
