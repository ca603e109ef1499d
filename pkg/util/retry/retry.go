// Copyright (C) 2019-2020 Zilliz. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License
// is distributed on an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express
// or implied. See the License for the specific language governing permissions and limitations under the License.


package retry

import (
	"context"
	"runtime"
	"strconv"

	"github.com/cenkalti/backoff/v4"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/lk2023060901/querydesk-go/pkg/log"
	"github.com/lk2023060901/querydesk-go/pkg/util/merr"
)

func getCaller(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "unknown"
	}
	return file + ":" + strconv.Itoa(line)
}

// Do 使用指数退避重试执行 fn。
// 遇到 Unrecoverable 包装的错误、isRetryErr 判定不可重试的错误或 ctx 结束时立即返回。
func Do(ctx context.Context, fn func() error, opts ...Option) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	log := log.Ctx(ctx)
	c := newDefaultConfig()
	for _, opt := range opts {
		opt(c)
	}

	var b backoff.BackOff = &backoff.ExponentialBackOff{
		InitialInterval:     c.sleep,
		RandomizationFactor: 0,
		Multiplier:          2,
		MaxInterval:         c.maxSleepTime,
		MaxElapsedTime:      0,
		Stop:                backoff.Stop,
		Clock:               backoff.SystemClock,
	}
	b.Reset()
	if c.attempts > 0 {
		b = backoff.WithMaxRetries(b, uint64(c.attempts-1))
	}
	b = backoff.WithContext(b, ctx)

	var (
		retried uint
		lastErr error
	)
	op := func() error {
		err := fn()
		if err == nil {
			return nil
		}
		if retried%4 == 0 {
			log.Warn("retry func failed",
				zap.Uint("retried", retried),
				zap.Error(err),
				zap.String("caller", getCaller(3)))
		}
		retried++

		if !IsRecoverable(err) {
			isContextErr := errors.IsAny(err, context.Canceled, context.DeadlineExceeded)
			log.Warn("retry func failed, not be recoverable",
				zap.Uint("retried", retried),
				zap.Uint("attempt", c.attempts),
				zap.Bool("isContextErr", isContextErr),
			)
			if isContextErr && lastErr != nil {
				return backoff.Permanent(lastErr)
			}
			return backoff.Permanent(err)
		}
		if c.isRetryErr != nil && !c.isRetryErr(err) {
			log.Warn("retry func failed, not be retryable",
				zap.Uint("retried", retried),
				zap.Uint("attempt", c.attempts),
			)
			return backoff.Permanent(err)
		}
		lastErr = err
		return err
	}

	err := backoff.Retry(op, b)
	if err == nil {
		return nil
	}
	if errors.IsAny(err, context.Canceled, context.DeadlineExceeded) && lastErr != nil {
		log.Warn("retry func failed, ctx done",
			zap.Uint("retried", retried),
			zap.Uint("attempt", c.attempts),
		)
		return lastErr
	}
	if lastErr != nil && errors.Is(err, lastErr) {
		log.Warn("retry func failed, reach max retry",
			zap.Uint("attempt", c.attempts),
		)
	}
	return err
}

// errUnrecoverable 表示不可恢复错误的标记实例。
var errUnrecoverable = errors.New("unrecoverable error")

// Unrecoverable 将错误包装为不可恢复错误，使重试逻辑能够快速返回。
func Unrecoverable(err error) error {
	return merr.Combine(err, errUnrecoverable)
}

// IsRecoverable 判断给定错误是否为“可恢复”错误。
func IsRecoverable(err error) bool {
	return !errors.Is(err, errUnrecoverable)
}
