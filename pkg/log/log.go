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
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/uber/jaeger-client-go/utils"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"gopkg.in/natefinch/lumberjack.v2"
)

var _globalL, _globalP, _globalR atomic.Value

// RateLimiter 为限流日志使用的令牌桶。
type RateLimiter interface {
	CheckCredit(delta float64) bool
}

type nopRateLimiter struct{}

// limiterHolder 让 _globalR 始终保存同一具体类型。
type limiterHolder struct {
	RateLimiter
}

func (nopRateLimiter) CheckCredit(float64) bool { return true }

func init() {
	conf := &Config{Level: "info", Stdout: true, DisableErrorVerbose: true}
	lg, props, _ := InitLogger(conf, zap.OnFatal(zapcore.WriteThenPanic))
	ReplaceGlobals(lg, props)
	_globalR.Store(limiterHolder{nopRateLimiter{}})
}

// InitLogger 按配置构造 Logger，输出到标准输出和/或滚动文件；两者都关闭时丢弃日志。
func InitLogger(cfg *Config, opts ...zap.Option) (*zap.Logger, *ZapProperties, error) {
	var outputs []zapcore.WriteSyncer
	if cfg.File.Filename != "" {
		lg, err := initFileLog(&cfg.File)
		if err != nil {
			return nil, nil, err
		}
		outputs = append(outputs, zapcore.AddSync(lg))
	}
	if cfg.Stdout {
		stdout, _, err := zap.Open("stdout")
		if err != nil {
			return nil, nil, err
		}
		outputs = append(outputs, stdout)
	}
	return InitLoggerWithWriteSyncer(cfg, zap.CombineWriteSyncers(outputs...), opts...)
}

// InitTestLogger 构造写入 t.Log 的 Logger，zap 内部错误会使测试失败。
func InitTestLogger(t zaptest.TestingT, cfg *Config, opts ...zap.Option) (*zap.Logger, *ZapProperties, error) {
	writer := zaptest.NewTestingWriter(t)
	opts = append([]zap.Option{zap.ErrorOutput(writer.WithMarkFailed(true))}, opts...)
	return InitLoggerWithWriteSyncer(cfg, writer, opts...)
}

func InitLoggerWithWriteSyncer(cfg *Config, output zapcore.WriteSyncer, opts ...zap.Option) (*zap.Logger, *ZapProperties, error) {
	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(normalizeLevel(cfg.Level))); err != nil {
		return nil, nil, errors.Wrapf(err, "invalid log level %q", cfg.Level)
	}
	core := zapcore.NewCore(newZapEncoder(cfg), output, level)
	lg := zap.New(core, append(cfg.buildOptions(output), opts...)...)
	return lg, &ZapProperties{Core: core, Syncer: output, Level: level}, nil
}

func normalizeLevel(level string) string {
	if strings.EqualFold(level, "trace") {
		return "debug"
	}
	return level
}

func initFileLog(cfg *FileLogConfig) (*lumberjack.Logger, error) {
	logPath := filepath.Join(cfg.RootPath, cfg.Filename)
	if st, err := os.Stat(logPath); err == nil && st.IsDir() {
		return nil, errors.Newf("log file %q is a directory", logPath)
	}
	if cfg.MaxSize == 0 {
		cfg.MaxSize = defaultLogMaxSize
	}
	return &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxDays,
		LocalTime:  true,
	}, nil
}

// L 返回全局 Logger，可通过 ReplaceGlobals 替换，并发安全。
func L() *zap.Logger {
	return _globalL.Load().(*zap.Logger)
}

// R 返回全局限流器，未配置限流时永不丢弃日志。
func R() RateLimiter {
	return _globalR.Load().(limiterHolder).RateLimiter
}

func ReplaceGlobals(logger *zap.Logger, props *ZapProperties) {
	_globalL.Store(logger)
	_globalP.Store(props)
}

// SetRateLimit 按配置替换全局限流器，cfg 为 nil 或每秒额度不为正时关闭限流。
func SetRateLimit(cfg *RateLimitConfig) {
	if cfg == nil || cfg.CreditPerSecond <= 0 {
		_globalR.Store(limiterHolder{nopRateLimiter{}})
		return
	}
	balance := cfg.MaxBalance
	if balance <= 0 {
		balance = cfg.CreditPerSecond
	}
	_globalR.Store(limiterHolder{utils.NewRateLimiter(cfg.CreditPerSecond, balance)})
}

func Sync() error {
	return L().Sync()
}

// Level 返回全局日志级别，可在运行时调整。
func Level() zap.AtomicLevel {
	return _globalP.Load().(*ZapProperties).Level
}
