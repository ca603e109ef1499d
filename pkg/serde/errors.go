package serde

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/querydesk-go/pkg/util/merr"
)

// Kind 区分两类错误：模型声明错误（程序缺陷）与输入数据校验错误。
type Kind int

const (
	KindValidation Kind = iota
	KindConfig
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	default:
		return "validation"
	}
}

// errAbsent 表示非必填字段仍为零值且不满足约束，序列化时按缺省处理，不写入输出。
var errAbsent = errors.New("serde: field absent")

type segment struct {
	name    string
	index   int
	isIndex bool
}

// Error 是 serde 返回的唯一错误类型。
//
// 错误沿调用栈向外传播时，每一层通过 AddContext/AddIndex 追加一段路径，
// 段按“由内向外”的顺序累积，渲染时反转为 connections[1].auth.username 的形式。
type Error struct {
	Kind     Kind
	Model    string
	Property string
	Reason   string

	segments []segment
	cause    error
}

// NewValidationError 创建一个输入校验错误，供自定义编解码函数与调用方使用。
func NewValidationError(format string, args ...any) *Error {
	return newValidationError(format, args...)
}

func newValidationError(format string, args ...any) *Error {
	return &Error{
		Kind:   KindValidation,
		Reason: fmt.Sprintf(format, args...),
	}
}

func newConfigError(model, property, format string, args ...any) *Error {
	return &Error{
		Kind:     KindConfig,
		Model:    model,
		Property: property,
		Reason:   fmt.Sprintf(format, args...),
	}
}

// AddContext 追加一段字段名。
func (e *Error) AddContext(name string) *Error {
	if name != "" {
		e.segments = append(e.segments, segment{name: name})
	}
	return e
}

// AddIndex 追加一段数组下标。
func (e *Error) AddIndex(i int) *Error {
	e.segments = append(e.segments, segment{index: i, isIndex: true})
	return e
}

// Path 返回由外向内渲染的字段路径，例如 connections[1].auth.username。
func (e *Error) Path() string {
	var sb strings.Builder
	for i := len(e.segments) - 1; i >= 0; i-- {
		seg := e.segments[i]
		if seg.isIndex {
			sb.WriteString("[" + strconv.Itoa(seg.index) + "]")
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(seg.name)
	}
	return sb.String()
}

func (e *Error) Error() string {
	if e.Kind == KindConfig {
		target := e.Model
		if e.Property != "" {
			target += "." + e.Property
		}
		msg := fmt.Sprintf("serde: invalid model declaration %s: %s", target, e.Reason)
		if path := e.Path(); path != "" {
			msg += fmt.Sprintf(" (at %q)", path)
		}
		return msg
	}
	if path := e.Path(); path != "" {
		return fmt.Sprintf("serde: validation failed at %q: %s", path, e.Reason)
	}
	return "serde: validation failed: " + e.Reason
}

// Cause 返回携带模型与路径信息的 merr 错误，使 merr.Code 与 merr.GetErrorType 能够识别。
func (e *Error) Cause() error {
	if e.Kind == KindConfig {
		return merr.WrapErrSerdeConfig(e.Model, e.Property, e.Reason)
	}
	if path := e.Path(); path != "" {
		return merr.WrapErrSerdeValidation(e.Reason, path)
	}
	return merr.WrapErrSerdeValidation(e.Reason)
}

// Unwrap 同时暴露哨兵错误与自定义函数返回的原始错误。
func (e *Error) Unwrap() []error {
	if e.cause == nil {
		return []error{e.Cause()}
	}
	return []error{e.Cause(), e.cause}
}

// AsError 从错误链中取出 *Error。
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsValidation 判断 err 是否为输入数据校验错误。
func IsValidation(err error) bool {
	e, ok := AsError(err)
	return ok && e.Kind == KindValidation
}

// IsConfig 判断 err 是否为模型声明错误。
func IsConfig(err error) bool {
	e, ok := AsError(err)
	return ok && e.Kind == KindConfig
}

// toError 将自定义函数返回的任意错误规整为 *Error，非 serde 错误按校验错误处理并保留原因。
func toError(err error) *Error {
	if e, ok := AsError(err); ok {
		return e
	}
	return &Error{
		Kind:   KindValidation,
		Reason: err.Error(),
		cause:  err,
	}
}

func withContext(err error, name string) *Error {
	return toError(err).AddContext(name)
}

func withIndex(err error, i int) *Error {
	return toError(err).AddIndex(i)
}
