// Copyright 2019 PingCAP, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ctxLogKeyType struct{}

// CtxLogKey 为 context 中保存 *MLogger 的键。
var CtxLogKey = ctxLogKeyType{}

func Debug(msg string, fields ...zap.Field) {
	L().Debug(msg, fields...)
}

func Info(msg string, fields ...zap.Field) {
	L().Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	L().Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	L().Error(msg, fields...)
}

// RatedWarn 经全局限流器放行后以 Warn 级别输出，返回是否已输出。
func RatedWarn(cost float64, msg string, fields ...zap.Field) bool {
	if R().CheckCredit(cost) {
		L().Warn(msg, fields...)
		return true
	}
	return false
}

// With 返回携带额外字段的子 Logger。
func With(fields ...zap.Field) *MLogger {
	return &MLogger{Logger: L().With(fields...)}
}

// SetLevel 调整全局日志级别。
func SetLevel(l zapcore.Level) {
	Level().SetLevel(l)
}

// WithComponent 为 ctx 中的 Logger 添加组件名字段。
func WithComponent(ctx context.Context, component string) context.Context {
	return WithFields(ctx, FieldComponent(component))
}

// WithFields 返回一个附加了指定字段的上下文，字段叠加在 ctx 已有 Logger 之上。
func WithFields(ctx context.Context, fields ...zap.Field) context.Context {
	return context.WithValue(ctx, CtxLogKey, Ctx(ctx).With(fields...))
}

// WithMinLevel 返回一个只输出 level 及以上日志的上下文，只能提高而不能降低全局级别。
func WithMinLevel(ctx context.Context, level zapcore.Level) context.Context {
	l := Ctx(ctx)
	if !l.Core().Enabled(level) {
		return ctx
	}
	return context.WithValue(ctx, CtxLogKey, &MLogger{Logger: l.WithOptions(zap.IncreaseLevel(level))})
}

// NewIntentContext 开启名为 intent 的 span，并在返回的上下文中附加 role、intent 与 traceID 字段。
func NewIntentContext(parent context.Context, name string, intent string) (context.Context, trace.Span) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, span := otel.Tracer(name).Start(parent, intent)
	ctx = WithFields(ctx,
		zap.String("role", name),
		zap.String("intent", intent),
		zap.String("traceID", span.SpanContext().TraceID().String()))
	return ctx, span
}

// Ctx 返回 ctx 中保存的 Logger，不存在时返回全局 Logger。
func Ctx(ctx context.Context) *MLogger {
	if ctx != nil {
		if l, ok := ctx.Value(CtxLogKey).(*MLogger); ok {
			return l
		}
	}
	return &MLogger{Logger: L()}
}
