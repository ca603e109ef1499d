package serde

import (
	"reflect"

	"github.com/lk2023060901/querydesk-go/internal/json"
	"github.com/lk2023060901/querydesk-go/pkg/metrics"
)

// Serialize 将模型实例（或实例切片）转换为 JSON 兼容的 map[string]any / []any。
//
// 值为 nil 的指针、切片、map 与接口字段不会出现在输出中。切片中任一元素失败时整个调用失败，
// 错误路径带上该元素下标。
func (r *Registry) Serialize(v any) (any, error) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Interface {
		rv = rv.Elem()
	}
	if isNilValue(rv) && rv.Kind() != reflect.Slice {
		return nil, nil
	}

	model := modelName(rv)
	out, err := r.serialize(rv)
	observe(metrics.EncodeLabel, model, err)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Registry) serialize(rv reflect.Value) (any, error) {
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return nil, nil
		}
		out := make([]any, rv.Len())
		for i := range out {
			item, err := r.serializeStruct(rv.Index(i))
			if err != nil {
				return nil, withIndex(err, i)
			}
			if item != nil {
				out[i] = item
			}
		}
		return out, nil
	}
	return r.serializeStruct(rv)
}

// serializeStruct 按结构体声明顺序输出已注册序列化函数的字段。
func (r *Registry) serializeStruct(rv reflect.Value) (map[string]any, error) {
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, newValidationError("cannot serialize %s as an object", typeName(rv.Type()))
	}

	s, cerr := r.schemaOf(reflect.PointerTo(rv.Type()))
	if cerr != nil {
		return nil, cerr
	}

	var source any
	if rv.CanAddr() {
		source = rv.Addr().Interface()
	} else {
		p := reflect.New(rv.Type())
		p.Elem().Set(rv)
		source = p.Interface()
		rv = p.Elem()
	}

	out := make(map[string]any, len(s.output))
	for _, f := range s.output {
		if f.serialize == nil {
			continue
		}
		fv := rv.FieldByIndex(f.index)
		if isNilValue(fv) || (f.omit && fv.IsZero()) {
			continue
		}
		name, value, err := f.serialize(source, fv.Interface())
		if err == errAbsent {
			continue
		}
		if err != nil {
			return nil, withContext(err, f.name)
		}
		out[name] = value
	}
	return out, nil
}

func modelName(rv reflect.Value) string {
	if !rv.IsValid() {
		return "<nil>"
	}
	t := rv.Type()
	if t.Kind() == reflect.Slice || t.Kind() == reflect.Array {
		t = t.Elem()
	}
	if t.Kind() != reflect.Pointer {
		t = reflect.PointerTo(t)
	}
	return t.String()
}

// Encode 使用 r（nil 表示 Default）序列化 v。
func Encode(r *Registry, v any) (any, error) {
	return orDefault(r).Serialize(v)
}

// Marshal 序列化 v 并编码为 JSON 字节。
func Marshal(r *Registry, v any) ([]byte, error) {
	out, err := Encode(r, v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(out)
}

func observe(operation, model string, err error) {
	status := metrics.SuccessLabel
	if err != nil {
		status = metrics.FailLabel
	}
	metrics.SerdeOperations.WithLabelValues(model, operation, status).Inc()
}
