package serde

import (
	"math"
	"reflect"
	"strconv"
	"strings"
	"unicode"

	"github.com/lk2023060901/querydesk-go/internal/json"
)

// codec 为某个类型标签生成的默认编解码实现，array 的元素递归持有自己的 codec。
type codec struct {
	typ  FieldType
	opts FieldOptions
	item *codec
	reg  *Registry
}

func (r *Registry) newCodec(model, property string, typ FieldType, opts FieldOptions) (*codec, error) {
	if !typ.valid() {
		return nil, newConfigError(model, property, "unknown field type %q", typ)
	}
	if err := compileFormat(&opts); err != nil {
		return nil, newConfigError(model, property, "%v", err)
	}
	c := &codec{typ: typ, opts: opts, reg: r}
	switch typ {
	case Object:
		if opts.Factory == nil {
			return nil, newConfigError(model, property, "object field requires a factory")
		}
	case Array:
		if opts.Items == nil {
			return nil, newConfigError(model, property, "array field requires an items descriptor")
		}
		item, err := r.newCodec(model, property+"[]", opts.Items.Type, opts.Items.Options)
		if err != nil {
			return nil, err
		}
		c.item = item
	}
	return c, nil
}

// accepts 判断 Go 类型 t 能否承载该 codec 的解码结果，array 会继续检查元素类型。
func (c *codec) accepts(t reflect.Type) bool {
	if !compatible(c.typ, t) {
		return false
	}
	if c.typ != Array {
		return true
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return c.item.accepts(t.Elem())
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number:
		return "number"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	}
	if isNumeric(v) {
		return "number"
	}
	return reflect.TypeOf(v).String()
}

func checkIdentifier(s string) error {
	if s == "" {
		return newValidationError("identifier must not be empty")
	}
	if strings.IndexFunc(s, func(r rune) bool { return unicode.IsSpace(r) || unicode.IsControl(r) }) >= 0 {
		return newValidationError("identifier %q must not contain whitespace or control characters", s)
	}
	return nil
}

// decode 将线上值转换为该类型的规范 Go 值：string、int64、float64、bool、
// 模型指针或 []any。null 解码为 nil。
func (c *codec) decode(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch c.typ {
	case String:
		s, ok := toString(v)
		if !ok {
			return nil, newValidationError("expected string, got %s", jsonKind(v))
		}
		if c.opts.Trim {
			s = strings.TrimSpace(s)
		}
		if err := checkString(&c.opts, s); err != nil {
			return nil, err
		}
		return s, nil
	case Identifier:
		var s string
		if str, ok := toString(v); ok {
			s = str
		} else {
			n, err := toInt64(v)
			if err != nil {
				return nil, newValidationError("expected string or integer identifier, got %s", jsonKind(v))
			}
			s = strconv.FormatInt(n, 10)
		}
		if err := checkIdentifier(s); err != nil {
			return nil, err
		}
		if err := c.opts.checkFormat(s); err != nil {
			return nil, err
		}
		return s, nil
	case Integer:
		n, err := toInt64(v)
		if err != nil {
			return nil, newValidationError("%v", err)
		}
		if err := checkRange(n, c.opts.Min, c.opts.Max); err != nil {
			return nil, err
		}
		return n, nil
	case Float:
		f, err := toFloat64(v)
		if err != nil {
			return nil, newValidationError("%v", err)
		}
		if err := checkRange(f, c.opts.Min, c.opts.Max); err != nil {
			return nil, err
		}
		return f, nil
	case Boolean:
		b, err := toBool(v)
		if err != nil {
			return nil, newValidationError("%v", err)
		}
		return b, nil
	case Object:
		obj, ok := v.(map[string]any)
		if !ok {
			return nil, newValidationError("expected object, got %s", jsonKind(v))
		}
		return c.reg.decodeNew(obj, c.opts.Factory)
	case Array:
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return nil, newValidationError("expected array, got %s", jsonKind(v))
		}
		out := make([]any, rv.Len())
		for i := range out {
			item, err := c.item.decode(rv.Index(i).Interface())
			if err != nil {
				return nil, withIndex(err, i)
			}
			out[i] = item
		}
		return out, nil
	}
	return v, nil
}

// encode 将 Go 值转换为 JSON 兼容的值，并重新校验声明的约束。
func (c *codec) encode(v reflect.Value) (any, error) {
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil, nil
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return nil, nil
	}
	switch c.typ {
	case String:
		if v.Kind() != reflect.String {
			return nil, newValidationError("expected string, got %s", v.Type())
		}
		s := v.String()
		if err := checkString(&c.opts, s); err != nil {
			return nil, err
		}
		return s, nil
	case Identifier:
		var s string
		switch {
		case v.Kind() == reflect.String:
			s = v.String()
		case v.CanInt():
			s = strconv.FormatInt(v.Int(), 10)
		case v.CanUint():
			s = strconv.FormatUint(v.Uint(), 10)
		default:
			return nil, newValidationError("expected identifier, got %s", v.Type())
		}
		if err := checkIdentifier(s); err != nil {
			return nil, err
		}
		if err := c.opts.checkFormat(s); err != nil {
			return nil, err
		}
		return s, nil
	case Integer:
		switch {
		case v.CanInt():
			n := v.Int()
			if err := checkRange(n, c.opts.Min, c.opts.Max); err != nil {
				return nil, err
			}
			return n, nil
		case v.CanUint():
			u := v.Uint()
			if err := checkRange(u, c.opts.Min, c.opts.Max); err != nil {
				return nil, err
			}
			if u > math.MaxInt64 {
				return u, nil
			}
			return int64(u), nil
		}
		return nil, newValidationError("expected integer, got %s", v.Type())
	case Float:
		var f float64
		switch {
		case v.CanFloat():
			f = v.Float()
		case v.CanInt():
			f = float64(v.Int())
		case v.CanUint():
			f = float64(v.Uint())
		default:
			return nil, newValidationError("expected number, got %s", v.Type())
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, newValidationError("value %v is not a finite number", f)
		}
		if err := checkRange(f, c.opts.Min, c.opts.Max); err != nil {
			return nil, err
		}
		return f, nil
	case Boolean:
		if v.Kind() != reflect.Bool {
			return nil, newValidationError("expected boolean, got %s", v.Type())
		}
		return v.Bool(), nil
	case Object:
		return c.reg.serializeStruct(v)
	case Array:
		if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
			return nil, newValidationError("expected array, got %s", v.Type())
		}
		out := make([]any, v.Len())
		for i := range out {
			item, err := c.item.encode(v.Index(i))
			if err != nil {
				return nil, withIndex(err, i)
			}
			out[i] = item
		}
		return out, nil
	}
	return v.Interface(), nil
}
