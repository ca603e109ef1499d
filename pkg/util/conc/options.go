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

import (
	"time"

	ants "github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/lk2023060901/querydesk-go/pkg/log"
)

type poolOption struct {
	// name 出现在 panic 日志中，用于区分协程池。
	name        string
	preAlloc    bool
	nonBlocking bool
	// expiry 为空闲 worker 的回收间隔，0 使用 ants 默认值。
	expiry time.Duration
	// concealPanic 为 true 时任务 panic 只记录日志，对应 Future 携带错误。
	concealPanic bool
}

func (opt *poolOption) antsOptions() []ants.Option {
	result := []ants.Option{
		ants.WithPreAlloc(opt.preAlloc),
		ants.WithNonblocking(opt.nonBlocking),
		ants.WithPanicHandler(func(v any) {
			log.Error("conc pool task panicked", zap.String("pool", opt.name), zap.Any("panic", v))
			if !opt.concealPanic {
				panic(v)
			}
		}),
	}
	if opt.expiry > 0 {
		result = append(result, ants.WithExpiryDuration(opt.expiry))
	}
	return result
}

// PoolOption 配置协程池行为。
type PoolOption func(opt *poolOption)

func defaultPoolOption() *poolOption {
	return &poolOption{name: "default"}
}

func WithName(name string) PoolOption {
	return func(opt *poolOption) {
		opt.name = name
	}
}

func WithPreAlloc(v bool) PoolOption {
	return func(opt *poolOption) {
		opt.preAlloc = v
	}
}

// WithNonBlocking 为 true 时池满的提交立即失败，而不是等待空闲 worker。
func WithNonBlocking(v bool) PoolOption {
	return func(opt *poolOption) {
		opt.nonBlocking = v
	}
}

func WithExpiryDuration(d time.Duration) PoolOption {
	return func(opt *poolOption) {
		opt.expiry = d
	}
}

func WithConcealPanic(v bool) PoolOption {
	return func(opt *poolOption) {
		opt.concealPanic = v
	}
}
