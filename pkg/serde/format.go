package serde

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"k8s.io/apimachinery/pkg/util/validation"
)

// FormatFunc 校验字符串是否符合某个命名格式，不符合时返回描述原因的错误。
type FormatFunc func(value string) error

var (
	identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]*$`)

	formatsMu sync.RWMutex
	formats   = map[string]FormatFunc{
		"identifier": func(v string) error {
			if !identifierPattern.MatchString(v) {
				return errors.New("must start with a letter or underscore and contain only letters, digits, '_' or '$'")
			}
			return nil
		},
		"dns-label":      fromMessages(validation.IsDNS1123Label),
		"qualified-name": fromMessages(validation.IsQualifiedName),
		"uuid": func(v string) error {
			if len(v) != 36 {
				return errors.New("must be a canonical UUID")
			}
			_, err := uuid.Parse(v)
			return err
		},
		"email": func(v string) error {
			addr, err := mail.ParseAddress(v)
			if err != nil {
				return err
			}
			if addr.Address != v {
				return errors.New("must be a bare address")
			}
			return nil
		},
	}
)

func fromMessages(fn func(string) []string) FormatFunc {
	return func(v string) error {
		if msgs := fn(v); len(msgs) > 0 {
			return errors.New(strings.Join(msgs, "; "))
		}
		return nil
	}
}

// RegisterFormat 注册或覆盖一个命名格式。应在注册使用该格式的模型之前调用。
func RegisterFormat(name string, fn FormatFunc) {
	formatsMu.Lock()
	defer formatsMu.Unlock()
	formats[name] = fn
}

func lookupFormat(name string) (FormatFunc, bool) {
	formatsMu.RLock()
	defer formatsMu.RUnlock()
	fn, ok := formats[name]
	return fn, ok
}

// compileFormat 将 Format 选项解析为命名格式或正则表达式。
func compileFormat(o *FieldOptions) error {
	if o.Format == "" {
		return nil
	}
	if fn, ok := lookupFormat(o.Format); ok {
		o.check = fn
		return nil
	}
	re, err := regexp.Compile(o.Format)
	if err != nil {
		return fmt.Errorf("format %q is neither a named format nor a valid pattern: %v", o.Format, err)
	}
	o.pattern = re
	return nil
}

func (o *FieldOptions) checkFormat(v string) error {
	switch {
	case o.check != nil:
		if err := o.check(v); err != nil {
			return newValidationError("value %q does not match format %q: %v", v, o.Format, err)
		}
	case o.pattern != nil:
		if !o.pattern.MatchString(v) {
			return newValidationError("value %q does not match format %q", v, o.Format)
		}
	}
	return nil
}
