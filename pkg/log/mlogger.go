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

package log

import (
	"sync"
	"sync/atomic"

	"github.com/uber/jaeger-client-go/utils"
	"go.uber.org/zap"
)

var namedRateLimiters sync.Map

// MLogger 在 zap.Logger 之上增加按分组限流的日志方法。
type MLogger struct {
	*zap.Logger
	rl atomic.Value // RateLimiter
}

func (l *MLogger) With(fields ...zap.Field) *MLogger {
	nl := &MLogger{Logger: l.Logger.With(fields...)}
	if rl := l.rl.Load(); rl != nil {
		nl.rl.Store(rl)
	}
	return nl
}

// WithRateGroup 为 Logger 绑定名为 groupName 的限流器，同名分组共享令牌桶，
// 后一次调用的参数会覆盖之前的设置。
func (l *MLogger) WithRateGroup(groupName string, creditPerSecond, maxBalance float64) *MLogger {
	rl := utils.NewRateLimiter(creditPerSecond, maxBalance)
	if actual, loaded := namedRateLimiters.LoadOrStore(groupName, rl); loaded {
		rl = actual.(*utils.ReconfigurableRateLimiter)
		rl.Update(creditPerSecond, maxBalance)
	}
	l.rl.Store(RateLimiter(rl))
	return l
}

func (l *MLogger) limiter() RateLimiter {
	if rl, ok := l.rl.Load().(RateLimiter); ok {
		return rl
	}
	return R()
}

// RatedInfo 经限流器放行后以 Info 级别输出，返回是否已输出。
func (l *MLogger) RatedInfo(cost float64, msg string, fields ...zap.Field) bool {
	if l.limiter().CheckCredit(cost) {
		l.WithOptions(zap.AddCallerSkip(1)).Info(msg, fields...)
		return true
	}
	return false
}

// RatedWarn 经限流器放行后以 Warn 级别输出，返回是否已输出。
func (l *MLogger) RatedWarn(cost float64, msg string, fields ...zap.Field) bool {
	if l.limiter().CheckCredit(cost) {
		l.WithOptions(zap.AddCallerSkip(1)).Warn(msg, fields...)
		return true
	}
	return false
}
