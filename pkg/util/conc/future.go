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

package conc

type future interface {
	wait()
	OK() bool
	Err() error
}

// Future 是可等待的异步结果。
// 调用 Await 阻塞直到结果就绪。
type Future[T any] struct {
	ch    chan struct{}
	value T
	err   error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{
		ch: make(chan struct{}),
	}
}

func (future *Future[T]) wait() {
	<-future.ch
}

// Await 阻塞等待结果并返回值与错误。
func (future *Future[T]) Await() (T, error) {
	future.wait()
	return future.value, future.err
}

// Value 阻塞等待并返回结果值。
func (future *Future[T]) Value() T {
	future.wait()
	return future.value
}

// OK 阻塞等待并返回任务是否成功。
func (future *Future[T]) OK() bool {
	future.wait()
	return future.err == nil
}

// Err 阻塞等待并返回任务错误。
func (future *Future[T]) Err() error {
	future.wait()
	return future.err
}

// Inner 返回可用于 select 的完成信号。
func (future *Future[T]) Inner() <-chan struct{} {
	return future.ch
}

// Go 在新协程中执行 fn，并返回对应的 Future。
func Go[T any](fn func() (T, error)) *Future[T] {
	future := newFuture[T]()
	go func() {
		future.value, future.err = fn()
		close(future.ch)
	}()
	return future
}

// AwaitAll 等待所有 Future 完成，返回第一个失败的错误。
func AwaitAll[T future](futures ...T) error {
	var err error
	for i := range futures {
		if !futures[i].OK() && err == nil {
			err = futures[i].Err()
		}
	}
	return err
}
