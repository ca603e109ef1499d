package serde

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/samber/lo"
	"golang.org/x/exp/constraints"

	"github.com/lk2023060901/querydesk-go/internal/json"
)

func toString(v any) (string, bool) {
	if s, ok := v.(string); ok {
		return s, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.String {
		return rv.String(), true
	}
	return "", false
}

// toInt64 将 JSON 数字、Go 整数、无小数部分的浮点数与十进制字符串统一为 int64。
func toInt64(v any) (int64, error) {
	switch x := v.(type) {
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n, nil
		}
		f, err := x.Float64()
		if err != nil {
			return 0, fmt.Errorf("value %q is not a number", x.String())
		}
		return floatToInt64(f)
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("value %q is not an integer", x)
		}
		return n, nil
	case bool:
		return 0, fmt.Errorf("value %v is not an integer", x)
	}
	rv := reflect.ValueOf(v)
	switch {
	case rv.CanInt():
		return rv.Int(), nil
	case rv.CanUint():
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, fmt.Errorf("value %d overflows int64", u)
		}
		return int64(u), nil
	case rv.CanFloat():
		return floatToInt64(rv.Float())
	}
	return 0, fmt.Errorf("expected integer, got %T", v)
}

func floatToInt64(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("value %v is not an integer", f)
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("value %v overflows int64", f)
	}
	return int64(f), nil
}

func toFloat64(v any) (float64, error) {
	var f float64
	switch x := v.(type) {
	case json.Number:
		n, err := x.Float64()
		if err != nil {
			return 0, fmt.Errorf("value %q is not a number", x.String())
		}
		f = n
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, fmt.Errorf("value %q is not a number", x)
		}
		f = n
	case bool:
		return 0, fmt.Errorf("value %v is not a number", x)
	default:
		rv := reflect.ValueOf(v)
		switch {
		case rv.CanFloat():
			f = rv.Float()
		case rv.CanInt():
			f = float64(rv.Int())
		case rv.CanUint():
			f = float64(rv.Uint())
		default:
			return 0, fmt.Errorf("expected number, got %T", v)
		}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("value %v is not a finite number", f)
	}
	return f, nil
}

func toBool(v any) (bool, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true", "1":
			return true, nil
		case "false", "0":
			return false, nil
		}
		return false, fmt.Errorf("value %q is not a boolean", x)
	}
	if _, ok := v.(json.Number); ok || isNumeric(v) {
		n, err := toFloat64(v)
		if err == nil && (n == 0 || n == 1) {
			return n == 1, nil
		}
		return false, fmt.Errorf("value %v is not a boolean", v)
	}
	return false, fmt.Errorf("expected boolean, got %T", v)
}

func isNumeric(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.CanInt() || rv.CanUint() || rv.CanFloat()
}

// checkRange 校验数值是否落在 [min, max] 区间内，边界为 nil 表示不限制。
func checkRange[N constraints.Integer | constraints.Float](v N, min, max *float64) error {
	if min != nil && float64(v) < *min {
		return newValidationError("value %v is less than minimum %v", v, *min)
	}
	if max != nil && float64(v) > *max {
		return newValidationError("value %v is greater than maximum %v", v, *max)
	}
	return nil
}

func checkString(o *FieldOptions, v string) error {
	n := utf8.RuneCountInString(v)
	if o.MinLength != nil && n < *o.MinLength {
		return newValidationError("value %q is shorter than %d characters", v, *o.MinLength)
	}
	if o.MaxLength != nil && n > *o.MaxLength {
		return newValidationError("value %q is longer than %d characters", v, *o.MaxLength)
	}
	if len(o.Enum) > 0 && !lo.Contains(o.Enum, v) {
		return newValidationError("value %q is not one of [%s]", v, strings.Join(o.Enum, ", "))
	}
	return o.checkFormat(v)
}

// assign 将解码得到的值写入结构体字段，处理指针分配、数值类型收窄与切片元素转换。
func assign(dst reflect.Value, v any) error {
	if v == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}
	return assignValue(dst, reflect.ValueOf(v))
}

func assignValue(dst, src reflect.Value) error {
	dt := dst.Type()
	if src.Kind() == reflect.Interface {
		if src.IsNil() {
			dst.Set(reflect.Zero(dt))
			return nil
		}
		src = src.Elem()
	}
	if src.Type().AssignableTo(dt) {
		dst.Set(src)
		return nil
	}

	switch dt.Kind() {
	case reflect.Pointer:
		if src.Kind() == reflect.Pointer {
			if src.IsNil() {
				dst.Set(reflect.Zero(dt))
				return nil
			}
			src = src.Elem()
		}
		elem := reflect.New(dt.Elem())
		if err := assignValue(elem.Elem(), src); err != nil {
			return err
		}
		dst.Set(elem)
		return nil
	case reflect.Struct:
		if src.Kind() == reflect.Pointer && !src.IsNil() && src.Elem().Type().AssignableTo(dt) {
			dst.Set(src.Elem())
			return nil
		}
	case reflect.Slice:
		if src.Kind() != reflect.Slice {
			break
		}
		if src.IsNil() {
			dst.Set(reflect.Zero(dt))
			return nil
		}
		out := reflect.MakeSlice(dt, src.Len(), src.Len())
		for i := 0; i < src.Len(); i++ {
			if err := assignValue(out.Index(i), src.Index(i)); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
		}
		dst.Set(out)
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := toInt64(src.Interface())
		if err != nil {
			return err
		}
		if dst.OverflowInt(n) {
			return fmt.Errorf("value %d overflows %s", n, dt)
		}
		dst.SetInt(n)
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if src.CanUint() {
			u := src.Uint()
			if dst.OverflowUint(u) {
				return fmt.Errorf("value %d overflows %s", u, dt)
			}
			dst.SetUint(u)
			return nil
		}
		n, err := toInt64(src.Interface())
		if err != nil {
			return err
		}
		if n < 0 || dst.OverflowUint(uint64(n)) {
			return fmt.Errorf("value %d overflows %s", n, dt)
		}
		dst.SetUint(uint64(n))
		return nil
	case reflect.Float32, reflect.Float64:
		f, err := toFloat64(src.Interface())
		if err != nil {
			return err
		}
		if dst.OverflowFloat(f) {
			return fmt.Errorf("value %v overflows %s", f, dt)
		}
		dst.SetFloat(f)
		return nil
	case reflect.String:
		if src.Kind() == reflect.String {
			dst.SetString(src.String())
			return nil
		}
	case reflect.Bool:
		if src.Kind() == reflect.Bool {
			dst.SetBool(src.Bool())
			return nil
		}
	}

	if src.Type().ConvertibleTo(dt) && src.Kind() == dt.Kind() {
		dst.Set(src.Convert(dt))
		return nil
	}
	return fmt.Errorf("cannot assign %s to %s", src.Type(), dt)
}

// compatible 判断 Go 类型 t 能否承载类型标签 typ 的默认编解码结果。
func compatible(typ FieldType, t reflect.Type) bool {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch typ {
	case String, Identifier:
		return t.Kind() == reflect.String
	case Boolean:
		return t.Kind() == reflect.Bool
	case Integer:
		switch t.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return true
		}
		return false
	case Float:
		return t.Kind() == reflect.Float32 || t.Kind() == reflect.Float64
	case Object:
		return t.Kind() == reflect.Struct || t.Kind() == reflect.Interface
	case Array:
		return t.Kind() == reflect.Slice
	}
	return true
}

func isNilValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return !v.IsValid()
}
